package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/brandall10/brandall10.github.io/internal/generator"
	"github.com/brandall10/brandall10.github.io/internal/logging"
	"github.com/brandall10/brandall10.github.io/pkg/interfaces"
)

const (
	defaultDebounce = 500 * time.Millisecond
	sweepInterval   = 100 * time.Millisecond
)

// Builder is the slice of the generator the watcher drives. Content edits
// go through BuildFile; everything else triggers a full Build.
type Builder interface {
	Build(ctx context.Context, opts interfaces.BuildOptions) (*interfaces.BuildResult, error)
	BuildFile(ctx context.Context, sourcePath string) (*interfaces.BuildResult, error)
}

// Config controls what the watcher observes and how edits map to rebuilds.
type Config struct {
	// Root is the site source directory.
	Root string
	// OutputDir is skipped so writes from the generator do not feed back
	// into the watcher.
	OutputDir string
	// Layouts, Includes, and Themes name the directories whose files
	// always force a full rebuild. Defaults follow the source layout
	// conventions (_layouts, _includes, _themes).
	Layouts  string
	Includes string
	Themes   string
	// Debounce is how long a path must stay quiet before its rebuild
	// runs. Defaults to 500ms.
	Debounce time.Duration
	// Ignore lists extra patterns to skip, matched the same way as the
	// site config's exclude list.
	Ignore []string
}

func (c Config) withDefaults() Config {
	if c.Layouts == "" {
		c.Layouts = "_layouts"
	}
	if c.Includes == "" {
		c.Includes = "_includes"
	}
	if c.Themes == "" {
		c.Themes = "_themes"
	}
	if c.Debounce <= 0 {
		c.Debounce = defaultDebounce
	}
	c.OutputDir = strings.TrimSuffix(filepath.ToSlash(c.OutputDir), "/")
	return c
}

type rebuildClass int

const (
	classFile rebuildClass = iota
	classFull
)

type pendingEvent struct {
	op fsnotify.Op
	at time.Time
}

// Watcher rebuilds the site when source files change. Events are debounced
// per path so editor write bursts collapse into one rebuild.
type Watcher struct {
	cfg     Config
	builder Builder
	fsw     *fsnotify.Watcher
	logger  interfaces.Logger

	buildOpts  interfaces.BuildOptions
	afterBuild func(*interfaces.BuildResult, error)

	mu      sync.Mutex
	pending map[string]pendingEvent
	running bool

	stopCh chan struct{}
	doneCh chan struct{}
}

// Option customises a Watcher.
type Option func(*Watcher)

// WithLogger sets the logger used for watch events and rebuild outcomes.
func WithLogger(logger interfaces.Logger) Option {
	return func(w *Watcher) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithBuildOptions sets the options applied to watch-triggered rebuilds,
// letting serve mode keep drafts or future posts visible.
func WithBuildOptions(opts interfaces.BuildOptions) Option {
	return func(w *Watcher) {
		w.buildOpts = opts
	}
}

// WithAfterBuild registers a callback invoked after every watch-triggered
// rebuild with its result.
func WithAfterBuild(fn func(*interfaces.BuildResult, error)) Option {
	return func(w *Watcher) {
		w.afterBuild = fn
	}
}

// New creates a watcher over cfg.Root that drives the builder. Call Start
// to begin watching.
func New(cfg Config, builder Builder, opts ...Option) (*Watcher, error) {
	if builder == nil {
		return nil, errors.New("watch: builder is nil")
	}
	if strings.TrimSpace(cfg.Root) == "" {
		return nil, errors.New("watch: root directory is required")
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: create watcher: %w", err)
	}

	w := &Watcher{
		cfg:     cfg.withDefaults(),
		builder: builder,
		fsw:     fsw,
		logger:  logging.NoOp(),
		pending: make(map[string]pendingEvent),
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Start registers watches for the source tree and begins processing events.
// It returns once the initial watches are in place; rebuilds run on a
// background goroutine until Stop or context cancellation.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	if err := w.addTree(w.cfg.Root); err != nil {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
		return fmt.Errorf("watch: register source tree: %w", err)
	}

	w.logger.Info("watch.started", "root", w.cfg.Root, "debounce", w.cfg.Debounce.String())
	go w.run(ctx)
	return nil
}

// Stop halts event processing and releases the underlying watches. It
// blocks until the event loop has exited.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		w.fsw.Close()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh

	if err := w.fsw.Close(); err != nil {
		w.logger.Error("watch.close_failed", "error", err)
	}
	w.logger.Info("watch.stopped")
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Error("watch.error", "error", err)
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}

	rel, ok := w.relativize(event.Name)
	if !ok || w.ignored(rel) {
		return
	}

	// New directories join the watch set so files created inside them
	// are seen. The files fire their own create events.
	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.addTree(event.Name); err != nil {
				w.logger.Warn("watch.add_dir_failed", "path", rel, "error", err)
			}
			return
		}
	}

	w.logger.Debug("watch.event", "path", rel, "op", event.Op.String())

	w.mu.Lock()
	w.pending[rel] = pendingEvent{op: event.Op, at: time.Now()}
	w.mu.Unlock()
}

// sweep collects paths that stayed quiet past the debounce window and runs
// the narrowest rebuild that covers them.
func (w *Watcher) sweep(ctx context.Context) {
	now := time.Now()

	w.mu.Lock()
	var settled []string
	full := false
	for rel, ev := range w.pending {
		if now.Sub(ev.at) < w.cfg.Debounce {
			continue
		}
		delete(w.pending, rel)
		switch w.classify(rel, ev.op) {
		case classFull:
			full = true
		case classFile:
			settled = append(settled, rel)
		}
	}
	w.mu.Unlock()

	if full {
		w.rebuildAll(ctx)
		return
	}

	for _, rel := range settled {
		result, err := w.builder.BuildFile(ctx, rel)
		if errors.Is(err, generator.ErrNotTracked) {
			// The file is not an addressable document on its own, so
			// fall back to a full pass.
			w.rebuildAll(ctx)
			return
		}
		w.report("file", rel, result, err)
	}
}

func (w *Watcher) rebuildAll(ctx context.Context) {
	result, err := w.builder.Build(ctx, w.buildOpts)
	w.report("full", "", result, err)
}

func (w *Watcher) report(mode, rel string, result *interfaces.BuildResult, err error) {
	if err != nil {
		w.logger.Error("watch.rebuild_failed", "mode", mode, "path", rel, "error", err)
	} else if result != nil {
		w.logger.Info("watch.rebuild", "mode", mode, "path", rel,
			"rendered", result.Rendered, "skipped", result.Skipped, "duration", result.Duration.String())
	}
	if w.afterBuild != nil {
		w.afterBuild(result, err)
	}
}

// addTree registers watches for dir and every directory below it, skipping
// ignored subtrees.
func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		rel, ok := w.relativize(p)
		if !ok {
			return filepath.SkipDir
		}
		if rel != "." && w.ignored(rel) {
			return filepath.SkipDir
		}
		return w.fsw.Add(p)
	})
}

func (w *Watcher) relativize(name string) (string, bool) {
	rel, err := filepath.Rel(w.cfg.Root, name)
	if err != nil {
		return "", false
	}
	rel = filepath.ToSlash(rel)
	if rel == ".." || strings.HasPrefix(rel, "../") {
		return "", false
	}
	return rel, true
}

// ignored filters the output tree, dot files, editor temp files, and the
// configured ignore patterns.
func (w *Watcher) ignored(rel string) bool {
	if rel == "." || rel == "" {
		return false
	}
	if w.cfg.OutputDir != "" {
		if rel == w.cfg.OutputDir || strings.HasPrefix(rel, w.cfg.OutputDir+"/") {
			return true
		}
	}
	for _, segment := range strings.Split(rel, "/") {
		if strings.HasPrefix(segment, ".") {
			return true
		}
	}
	base := path.Base(rel)
	if strings.HasSuffix(base, "~") || strings.HasSuffix(base, ".swp") || strings.HasSuffix(base, ".tmp") {
		return true
	}
	return matchesAny(w.cfg.Ignore, rel)
}

// classify decides how an edit maps to a rebuild. Content documents can be
// rebuilt alone; layout, include, theme, config, and static asset changes
// need the full pipeline, as do deletes and renames (single-file builds
// cannot remove output).
func (w *Watcher) classify(rel string, op fsnotify.Op) rebuildClass {
	if op&(fsnotify.Remove|fsnotify.Rename) != 0 {
		return classFull
	}

	top := rel
	if i := strings.Index(rel, "/"); i >= 0 {
		top = rel[:i]
	}
	switch top {
	case w.cfg.Layouts, w.cfg.Includes, w.cfg.Themes:
		return classFull
	}

	switch path.Ext(rel) {
	case ".md", ".markdown", ".html":
		return classFile
	}
	return classFull
}

// matchesAny treats each pattern as an exact path, a directory prefix, or a
// glob, mirroring how the loader applies the site exclude list.
func matchesAny(patterns []string, p string) bool {
	for _, pattern := range patterns {
		pattern = strings.TrimSuffix(strings.TrimSpace(pattern), "/")
		if pattern == "" {
			continue
		}
		if p == pattern || strings.HasPrefix(p, pattern+"/") {
			return true
		}
		if ok, err := path.Match(pattern, p); err == nil && ok {
			return true
		}
	}
	return false
}
