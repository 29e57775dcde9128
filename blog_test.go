package blog_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	blog "github.com/brandall10/brandall10.github.io"
)

// Compile-time checks that the module keeps its public surface.
var (
	_ func(blog.Config, ...blog.Option) (*blog.Module, error) = blog.New
	_ func(*blog.Module) blog.PostService                     = (*blog.Module).Posts
	_ func(*blog.Module) blog.GeneratorService                = (*blog.Module).Generator
	_ func(*blog.Module) blog.IndexService                    = (*blog.Module).Index
	_ func(*blog.Module) blog.Scheduler                       = (*blog.Module).Scheduler
	_ func(*blog.Module) *blog.PublishWorker                  = (*blog.Module).Worker
	_ func(*blog.Module) *blog.CommandHandlers                = (*blog.Module).Commands
	_ func(*blog.Module) *blog.Workspace                      = (*blog.Module).Workspace
	_ func(*blog.Module) error                                = (*blog.Module).Close
)

// newModule wires the engine against the real site source in the repository
// root, which is the working directory while tests run.
func newModule(t *testing.T) *blog.Module {
	t.Helper()

	cfg := blog.DefaultConfig()
	cfg.Generator.OutputDir = t.TempDir()

	m, err := blog.New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() {
		if err := m.Close(); err != nil {
			t.Errorf("Close: %v", err)
		}
	})
	return m
}

func allContent() blog.LoadOptions {
	return blog.LoadOptions{Drafts: true, Future: true, Unpublished: true}
}

func TestNewLoadsSiteConfig(t *testing.T) {
	m := newModule(t)

	cfg := m.SiteConfig()
	if cfg.Title != "brandall10" {
		t.Errorf("Title = %q, want %q", cfg.Title, "brandall10")
	}
	if cfg.URL != "https://brandall10.github.io" {
		t.Errorf("URL = %q", cfg.URL)
	}
	if got := cfg.Author.Name; got != "Brian Randall" {
		t.Errorf("Author.Name = %q", got)
	}
	if cfg.Permalink != "pretty" {
		t.Errorf("Permalink = %q, want pretty", cfg.Permalink)
	}
	if len(cfg.Navigation) != 3 {
		t.Errorf("Navigation entries = %d, want 3", len(cfg.Navigation))
	}
}

// TestEverySourceDocumentValidates is the site's content gate: every file
// under _posts, _drafts, and the page tree must carry parseable front matter
// and expand to a URL nothing else claims.
func TestEverySourceDocumentValidates(t *testing.T) {
	m := newModule(t)

	issues, err := m.Validate(context.Background(), allContent())
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	for _, issue := range issues {
		t.Errorf("%s: %s: %s", issue.SourcePath, issue.Field, issue.Message)
	}
}

func TestPermalinksAreUnique(t *testing.T) {
	m := newModule(t)
	ctx := context.Background()

	posts, err := m.Posts().Posts(ctx, allContent())
	if err != nil {
		t.Fatalf("Posts: %v", err)
	}
	pages, err := m.Posts().Pages(ctx, allContent())
	if err != nil {
		t.Fatalf("Pages: %v", err)
	}

	seen := make(map[string]string)
	claim := func(url, source string) {
		if url == "" {
			t.Errorf("%s: empty URL", source)
			return
		}
		if prev, ok := seen[url]; ok {
			t.Errorf("%s and %s both expand to %s", prev, source, url)
			return
		}
		seen[url] = source
	}
	for _, p := range posts {
		claim(p.URL, p.SourcePath)
	}
	for _, p := range pages {
		claim(p.URL, p.SourcePath)
	}
}

func TestPublishedPosts(t *testing.T) {
	m := newModule(t)

	posts, err := m.Posts().Posts(context.Background(), blog.LoadOptions{})
	if err != nil {
		t.Fatalf("Posts: %v", err)
	}
	if len(posts) != 6 {
		t.Fatalf("published posts = %d, want 6", len(posts))
	}

	for _, p := range posts {
		if p.Title == "" {
			t.Errorf("%s: empty title", p.SourcePath)
		}
		if p.Layout != "post" {
			t.Errorf("%s: layout = %q, want post", p.SourcePath, p.Layout)
		}
		if p.Date.IsZero() {
			t.Errorf("%s: zero date", p.SourcePath)
		}
		if !strings.HasPrefix(p.URL, "/") {
			t.Errorf("%s: URL %q is not rooted", p.SourcePath, p.URL)
		}
	}

	// Newest first.
	for i := 1; i < len(posts); i++ {
		if posts[i].Date.After(posts[i-1].Date) {
			t.Errorf("posts out of order: %s before %s", posts[i-1].Slug, posts[i].Slug)
		}
	}
	if posts[0].Slug != "a-small-wrapper-for-retryable-jobs" {
		t.Errorf("newest post = %q", posts[0].Slug)
	}
	if posts[len(posts)-1].Slug != "hello-world" {
		t.Errorf("oldest post = %q", posts[len(posts)-1].Slug)
	}
}

func TestPermalinkExpansion(t *testing.T) {
	m := newModule(t)
	ctx := context.Background()

	tests := []struct {
		slug string
		want string
	}{
		// No categories: the :categories placeholder collapses.
		{"hello-world", "/2015/05/04/hello-world/"},
		{"mapping-legacy-columns-with-activerecord", "/rails/activerecord/2015/05/18/mapping-legacy-columns-with-activerecord/"},
		// Front matter permalink overrides the pretty pattern.
		{"a-small-wrapper-for-retryable-jobs", "/rails/retryable-jobs/"},
	}
	for _, tc := range tests {
		post, err := m.Posts().GetBySlug(ctx, tc.slug)
		if err != nil {
			t.Fatalf("GetBySlug(%q): %v", tc.slug, err)
		}
		if post.URL != tc.want {
			t.Errorf("%s: URL = %q, want %q", tc.slug, post.URL, tc.want)
		}
	}
}

func TestPagesLoad(t *testing.T) {
	m := newModule(t)

	pages, err := m.Posts().Pages(context.Background(), blog.LoadOptions{})
	if err != nil {
		t.Fatalf("Pages: %v", err)
	}

	urls := make(map[string]bool, len(pages))
	for _, p := range pages {
		urls[p.URL] = true
	}
	for _, want := range []string{"/", "/about/", "/404.html"} {
		if !urls[want] {
			t.Errorf("missing page %s (have %v)", want, urls)
		}
	}
}

func TestCategoriesGroupPosts(t *testing.T) {
	m := newModule(t)

	cats, err := m.Posts().Categories(context.Background(), blog.LoadOptions{})
	if err != nil {
		t.Fatalf("Categories: %v", err)
	}

	counts := make(map[string]int, len(cats))
	for _, c := range cats {
		counts[c.Name] = len(c.Posts)
	}
	want := map[string]int{
		"rails":           5,
		"activerecord":    2,
		"jobs":            2,
		"metaprogramming": 1,
	}
	for name, n := range want {
		if counts[name] != n {
			t.Errorf("category %s: %d posts, want %d", name, counts[name], n)
		}
	}
}

func TestDraftsHiddenByDefault(t *testing.T) {
	m := newModule(t)
	ctx := context.Background()

	const draft = "rails-5-and-the-attributes-api"

	published, err := m.Posts().Posts(ctx, blog.LoadOptions{})
	if err != nil {
		t.Fatalf("Posts: %v", err)
	}
	for _, p := range published {
		if p.Slug == draft {
			t.Fatalf("draft %s leaked into the published set", draft)
		}
	}

	widened, err := m.Posts().Posts(ctx, blog.LoadOptions{Drafts: true})
	if err != nil {
		t.Fatalf("Posts with drafts: %v", err)
	}
	found := false
	for _, p := range widened {
		if p.Slug == draft {
			found = true
			if p.Status != blog.PostStatusDraft {
				t.Errorf("draft status = %q", p.Status)
			}
		}
	}
	if !found {
		t.Errorf("draft %s missing from widened load", draft)
	}
}

func TestBuildWritesSite(t *testing.T) {
	m := newModule(t)

	res, err := m.Generator().Build(context.Background(), blog.BuildOptions{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	for _, issue := range res.Issues {
		t.Errorf("build issue: %s: %s", issue.SourcePath, issue.Message)
	}
	if res.Rendered == 0 {
		t.Error("Rendered = 0")
	}
	if res.Duration <= 0 {
		t.Errorf("Duration = %v", res.Duration)
	}

	wantFiles := []string{
		"index.html",
		"404.html",
		filepath.Join("about", "index.html"),
		filepath.Join("2015", "05", "04", "hello-world", "index.html"),
		filepath.Join("rails", "retryable-jobs", "index.html"),
		filepath.Join("categories", "rails", "index.html"),
		filepath.Join("assets", "css", "main.css"),
		"feed.xml",
		"sitemap.xml",
		"robots.txt",
	}
	for _, rel := range wantFiles {
		if _, err := os.Stat(filepath.Join(res.OutputDir, rel)); err != nil {
			t.Errorf("missing output %s: %v", rel, err)
		}
	}

	// Engine sources stay out of the published tree.
	for _, rel := range []string{"go.mod", "blog.go", "internal", "spec.md"} {
		if _, err := os.Stat(filepath.Join(res.OutputDir, rel)); err == nil {
			t.Errorf("%s was copied into the output", rel)
		}
	}
}

func TestRenderedPostPage(t *testing.T) {
	m := newModule(t)

	res, err := m.Generator().Build(context.Background(), blog.BuildOptions{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	raw, err := os.ReadFile(filepath.Join(res.OutputDir, "rails", "metaprogramming", "2015", "06", "29", "roll-your-own-event-hooks", "index.html"))
	if err != nil {
		t.Fatalf("read rendered post: %v", err)
	}
	html := string(raw)

	for _, want := range []string{
		"<title>Roll Your Own Event Hooks &middot; brandall10</title>",
		"Roll Your Own Event Hooks</h1>",
		"2015-06-29",
		"class=\"site-title\"",
		"/assets/css/main.css",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("rendered post missing %q", want)
		}
	}
	if strings.Contains(html, "```") {
		t.Error("markdown fences leaked into rendered HTML")
	}
}

func TestIncrementalRebuildSkipsCleanSources(t *testing.T) {
	m := newModule(t)
	ctx := context.Background()

	first, err := m.Generator().Build(ctx, blog.BuildOptions{Incremental: true})
	if err != nil {
		t.Fatalf("first build: %v", err)
	}
	if first.Rendered == 0 {
		t.Fatal("first build rendered nothing")
	}

	second, err := m.Generator().Build(ctx, blog.BuildOptions{Incremental: true})
	if err != nil {
		t.Fatalf("second build: %v", err)
	}
	if second.Skipped == 0 {
		t.Error("second build skipped nothing")
	}
	if second.Rendered >= first.Rendered {
		t.Errorf("second build rendered %d, first %d", second.Rendered, first.Rendered)
	}
}

func TestWorkerDisabledByDefault(t *testing.T) {
	m := newModule(t)

	if w := m.Worker(); w != nil {
		t.Error("Worker should be nil without the scheduling feature")
	}
	if m.Scheduler() == nil {
		t.Error("Scheduler should fall back to the no-op implementation")
	}
}

func TestLoggerAvailableWithFeatureOff(t *testing.T) {
	m := newModule(t)

	provider := m.Logger()
	if provider == nil {
		t.Fatal("Logger returned nil")
	}
	logger := provider.GetLogger("blog.test")
	if logger == nil {
		t.Fatal("GetLogger returned nil")
	}
	// Must be safe to use even though no provider is configured.
	logger.Info("facade.logger", "feature", "off")
}

func TestModuleCloseIsIdempotent(t *testing.T) {
	cfg := blog.DefaultConfig()
	cfg.Generator.OutputDir = t.TempDir()

	m, err := blog.New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := m.Close(); err != nil {
		t.Fatalf("first Close: %v", err)
	}
	if err := m.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}

func TestFutureDatedContentStaysHidden(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, map[string]string{
		"_config.yml": "title: Future Test\nurl: https://example.test\n",
		"_posts/2015-01-05-past.md": "---\n" +
			"layout: post\n" +
			"title: Past\n" +
			"---\n\nOld enough.\n",
		"_posts/2099-01-05-future.md": "---\n" +
			"layout: post\n" +
			"title: Future\n" +
			"---\n\nNot yet.\n",
	})

	cfg := blog.DefaultConfig()
	cfg.SourceDir = dir
	cfg.Generator.OutputDir = t.TempDir()

	m, err := blog.New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer m.Close()

	posts, err := m.Posts().Posts(context.Background(), blog.LoadOptions{})
	if err != nil {
		t.Fatalf("Posts: %v", err)
	}
	if len(posts) != 1 || posts[0].Slug != "past" {
		t.Fatalf("default load = %+v, want only the past post", slugs(posts))
	}

	widened, err := m.Posts().Posts(context.Background(), blog.LoadOptions{Future: true})
	if err != nil {
		t.Fatalf("Posts with future: %v", err)
	}
	if len(widened) != 2 {
		t.Fatalf("widened load = %v, want both posts", slugs(widened))
	}
}

func writeSource(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, body := range files {
		p := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", name, err)
		}
		if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
}

func slugs(posts []*blog.Post) []string {
	out := make([]string, len(posts))
	for i, p := range posts {
		out[i] = p.Slug
	}
	return out
}

func TestWatcherNeedsFeatureFlag(t *testing.T) {
	m := newModule(t)

	if _, err := m.Watcher(); err == nil {
		t.Fatal("Watcher should fail while the watch feature is off")
	}
}

func TestServerServesBuiltSite(t *testing.T) {
	m := newModule(t)

	if _, err := m.Generator().Build(context.Background(), blog.BuildOptions{}); err != nil {
		t.Fatalf("Build: %v", err)
	}
	srv, err := m.Server()
	if err != nil {
		t.Fatalf("Server: %v", err)
	}
	handler := srv.Handler()

	tests := []struct {
		path   string
		status int
		body   string
	}{
		{"/", http.StatusOK, "brandall10"},
		{"/rails/retryable-jobs/", http.StatusOK, "A Small Wrapper for Retryable Jobs"},
		{"/no/such/page/", http.StatusNotFound, ""},
	}
	for _, tc := range tests {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tc.path, nil))
		if rec.Code != tc.status {
			t.Errorf("GET %s: status %d, want %d", tc.path, rec.Code, tc.status)
			continue
		}
		if tc.body != "" && !strings.Contains(rec.Body.String(), tc.body) {
			t.Errorf("GET %s: body missing %q", tc.path, tc.body)
		}
	}
}
