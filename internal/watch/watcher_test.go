package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/brandall10/brandall10.github.io/internal/generator"
	"github.com/brandall10/brandall10.github.io/pkg/interfaces"
)

func TestClassify(t *testing.T) {
	w := &Watcher{cfg: Config{Root: "."}.withDefaults()}

	tests := []struct {
		name string
		rel  string
		op   fsnotify.Op
		want rebuildClass
	}{
		{name: "post write", rel: "_posts/2015-01-01-hello.md", op: fsnotify.Write, want: classFile},
		{name: "page write", rel: "about.md", op: fsnotify.Write, want: classFile},
		{name: "root html page", rel: "index.html", op: fsnotify.Write, want: classFile},
		{name: "draft create", rel: "_drafts/wip.markdown", op: fsnotify.Create, want: classFile},
		{name: "post delete", rel: "_posts/2015-01-01-hello.md", op: fsnotify.Remove, want: classFull},
		{name: "post rename", rel: "_posts/2015-01-01-hello.md", op: fsnotify.Rename, want: classFull},
		{name: "layout write", rel: "_layouts/post.html", op: fsnotify.Write, want: classFull},
		{name: "include write", rel: "_includes/header.html", op: fsnotify.Write, want: classFull},
		{name: "theme write", rel: "_themes/classic/layouts/default.html", op: fsnotify.Write, want: classFull},
		{name: "config write", rel: "_config.yml", op: fsnotify.Write, want: classFull},
		{name: "stylesheet write", rel: "assets/css/main.css", op: fsnotify.Write, want: classFull},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := w.classify(tc.rel, tc.op); got != tc.want {
				t.Fatalf("classify(%q, %v) = %v, want %v", tc.rel, tc.op, got, tc.want)
			}
		})
	}
}

func TestIgnored(t *testing.T) {
	w := &Watcher{cfg: Config{
		Root:      ".",
		OutputDir: "_site",
		Ignore:    []string{"vendor/", "*.log"},
	}.withDefaults()}

	tests := []struct {
		rel  string
		want bool
	}{
		{rel: "_posts/2015-01-01-hello.md", want: false},
		{rel: "_site/index.html", want: true},
		{rel: "_site", want: true},
		{rel: ".git/HEAD", want: true},
		{rel: "_posts/.2015-01-01-hello.md.swo", want: true},
		{rel: "_posts/2015-01-01-hello.md~", want: true},
		{rel: "_posts/2015-01-01-hello.md.swp", want: true},
		{rel: "notes.tmp", want: true},
		{rel: "vendor/cache/gem.rb", want: true},
		{rel: "build.log", want: true},
		{rel: ".", want: false},
	}

	for _, tc := range tests {
		if got := w.ignored(tc.rel); got != tc.want {
			t.Errorf("ignored(%q) = %v, want %v", tc.rel, got, tc.want)
		}
	}
}

func TestWatcherRebuildsChangedPost(t *testing.T) {
	root := t.TempDir()
	mustMkdir(t, filepath.Join(root, "_posts"))

	builder := newStubBuilder()
	w := newTestWatcher(t, root, builder)
	startWatcher(t, w)

	writeFile(t, filepath.Join(root, "_posts", "2015-01-01-hello.md"), "---\ntitle: Hello\n---\nHi.\n")

	rel := waitForString(t, builder.fileCh)
	if rel != "_posts/2015-01-01-hello.md" {
		t.Fatalf("unexpected rebuild path %q", rel)
	}
}

func TestWatcherFullRebuildOnLayoutChange(t *testing.T) {
	root := t.TempDir()
	mustMkdir(t, filepath.Join(root, "_layouts"))

	builder := newStubBuilder()
	w := newTestWatcher(t, root, builder)
	startWatcher(t, w)

	writeFile(t, filepath.Join(root, "_layouts", "default.html"), "<html>{{ content }}</html>")

	opts := waitForOptions(t, builder.fullCh)
	if opts.Drafts {
		t.Fatal("expected default build options")
	}
}

func TestWatcherFallsBackToFullBuild(t *testing.T) {
	root := t.TempDir()

	builder := newStubBuilder()
	builder.fileErr = generator.ErrNotTracked
	w := newTestWatcher(t, root, builder)
	startWatcher(t, w)

	writeFile(t, filepath.Join(root, "orphan.md"), "no front matter")

	waitForOptions(t, builder.fullCh)
}

func TestWatcherSkipsOutputTree(t *testing.T) {
	root := t.TempDir()
	mustMkdir(t, filepath.Join(root, "_site"))
	mustMkdir(t, filepath.Join(root, "_posts"))

	builder := newStubBuilder()
	w := newTestWatcher(t, root, builder)
	startWatcher(t, w)

	// The generated page must not feed back into the watcher; the post
	// written afterwards is the first rebuild we see.
	writeFile(t, filepath.Join(root, "_site", "index.html"), "<html></html>")
	writeFile(t, filepath.Join(root, "_posts", "2015-02-02-real.md"), "---\ntitle: Real\n---\n")

	rel := waitForString(t, builder.fileCh)
	if rel != "_posts/2015-02-02-real.md" {
		t.Fatalf("expected post rebuild, got %q", rel)
	}
}

func TestWatcherPicksUpNewDirectories(t *testing.T) {
	root := t.TempDir()

	builder := newStubBuilder()
	w := newTestWatcher(t, root, builder)
	startWatcher(t, w)

	dir := filepath.Join(root, "_posts")
	mustMkdir(t, dir)
	// Give the watcher a moment to register the new directory before
	// writing into it.
	time.Sleep(250 * time.Millisecond)
	writeFile(t, filepath.Join(dir, "2015-03-03-late.md"), "---\ntitle: Late\n---\n")

	rel := waitForString(t, builder.fileCh)
	if rel != "_posts/2015-03-03-late.md" {
		t.Fatalf("unexpected rebuild path %q", rel)
	}
}

func TestNewRequiresBuilder(t *testing.T) {
	if _, err := New(Config{Root: "."}, nil); err == nil {
		t.Fatal("expected error for nil builder")
	}
	if _, err := New(Config{}, newStubBuilder()); err == nil {
		t.Fatal("expected error for missing root")
	}
}

func newTestWatcher(t *testing.T, root string, builder Builder) *Watcher {
	t.Helper()
	w, err := New(Config{Root: root, OutputDir: "_site", Debounce: 20 * time.Millisecond}, builder)
	if err != nil {
		t.Fatalf("new watcher: %v", err)
	}
	return w
}

func startWatcher(t *testing.T, w *Watcher) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	if err := w.Start(ctx); err != nil {
		t.Fatalf("start watcher: %v", err)
	}
	t.Cleanup(func() {
		w.Stop()
		cancel()
	})
}

func mustMkdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", dir, err)
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func waitForString(t *testing.T, ch <-chan string) string {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for rebuild")
		return ""
	}
}

func waitForOptions(t *testing.T, ch <-chan interfaces.BuildOptions) interfaces.BuildOptions {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for full rebuild")
		return interfaces.BuildOptions{}
	}
}

type stubBuilder struct {
	fileErr error
	fullCh  chan interfaces.BuildOptions
	fileCh  chan string
}

func newStubBuilder() *stubBuilder {
	return &stubBuilder{
		fullCh: make(chan interfaces.BuildOptions, 8),
		fileCh: make(chan string, 8),
	}
}

func (s *stubBuilder) Build(ctx context.Context, opts interfaces.BuildOptions) (*interfaces.BuildResult, error) {
	s.fullCh <- opts
	return &interfaces.BuildResult{Rendered: 1}, nil
}

func (s *stubBuilder) BuildFile(ctx context.Context, sourcePath string) (*interfaces.BuildResult, error) {
	if s.fileErr != nil {
		return nil, s.fileErr
	}
	s.fileCh <- sourcePath
	return &interfaces.BuildResult{Rendered: 1}, nil
}
