package layouts

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/brandall10/brandall10.github.io/internal/logging"
	"github.com/brandall10/brandall10.github.io/internal/markdown"
	"github.com/brandall10/brandall10.github.io/internal/site"
	"github.com/brandall10/brandall10.github.io/pkg/interfaces"
)

// MaxLayoutDepth caps how many layouts a document may nest through before
// rendering fails. Ten is far beyond what any real site uses and exists to
// turn a misconfigured parent chain into an error instead of a hang.
const MaxLayoutDepth = 10

// ErrTemplatesLoaded is returned by RegisterFunc once templates have been
// parsed; helper functions must be installed before the first render.
var ErrTemplatesLoaded = errors.New("layouts: templates already parsed")

// templateExtensions lists the file suffixes the engine treats as templates
// when walking the layouts and includes directories.
var templateExtensions = map[string]struct{}{
	".html": {},
	".tmpl": {},
	".xml":  {},
}

// layoutSpec records where a layout came from and which layout wraps it. The
// parent is declared in the layout's own front matter under the "layout" key,
// the same way documents declare theirs. Checksum digests the raw source so
// builds can tell when a layout changed.
type layoutSpec struct {
	Name       string
	Parent     string
	SourcePath string
	Checksum   string
}

// Engine loads Go templates from the site's layouts and includes directories
// and renders documents through their layout chain. Layouts are addressed by
// file stem ("post" for _layouts/post.html); includes keep their file name
// ("head.html") and are reachable from any template through the include
// helper or the template action.
//
// A theme filesystem may be attached as a lower-priority source: the engine
// parses the theme's templates first and the site's second, so a site file
// with the same name shadows the theme's copy.
//
// The engine parses templates once, on first use. After that renders are safe
// for concurrent use.
type Engine struct {
	fsys    fs.FS
	themeFS fs.FS
	cfg     site.Config
	logger  interfaces.Logger
	md      interfaces.MarkdownRenderer

	mu     sync.Mutex
	funcs  template.FuncMap
	global map[string]any
	loaded bool

	once     sync.Once
	set      *template.Template
	layouts  map[string]layoutSpec
	includes map[string]string
	err      error
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used for load and render diagnostics.
func WithLogger(logger interfaces.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithThemeFS attaches a theme filesystem as a fallback template source. The
// theme is expected to carry the same directory names the site does.
func WithThemeFS(themeFS fs.FS) Option {
	return func(e *Engine) {
		e.themeFS = themeFS
	}
}

// WithMarkdown attaches the renderer backing the markdownify helper.
func WithMarkdown(renderer interfaces.MarkdownRenderer) Option {
	return func(e *Engine) {
		e.md = renderer
	}
}

// NewEngine returns an Engine reading templates from fsys, the site source
// root. Directory names come from the site configuration.
func NewEngine(fsys fs.FS, cfg site.Config, opts ...Option) *Engine {
	e := &Engine{
		fsys:   fsys,
		cfg:    cfg,
		logger: logging.NoOp(),
		funcs:  template.FuncMap{},
		global: map[string]any{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

var _ interfaces.TemplateRenderer = (*Engine)(nil)

// Render resolves the layout chain starting at name and renders data through
// it, innermost layout first. When data is a Context the rendered output of
// each layout becomes the Content of its parent; any other data value renders
// the named template alone, without chain resolution.
func (e *Engine) Render(name string, data any, out ...io.Writer) (string, error) {
	ctx, ok := asContext(data)
	if !ok {
		return e.RenderTemplate(name, data, out...)
	}
	if err := e.ensure(); err != nil {
		return "", err
	}

	ctx = e.withGlobal(ctx)
	content := ctx.Content
	current := name
	var chain []string
	for current != "" {
		if len(chain) >= MaxLayoutDepth {
			return "", fmt.Errorf("layouts: chain for %q exceeds depth %d (%s)", name, MaxLayoutDepth, strings.Join(chain, " -> "))
		}
		for _, visited := range chain {
			if visited == current {
				return "", fmt.Errorf("layouts: cycle detected rendering %q (%s)", name, strings.Join(append(chain, current), " -> "))
			}
		}
		spec, ok := e.layouts[current]
		if !ok {
			return "", fmt.Errorf("layouts: layout %q not found", current)
		}
		chain = append(chain, current)

		ctx.Content = content
		var buf bytes.Buffer
		if err := e.set.ExecuteTemplate(&buf, spec.Name, ctx); err != nil {
			return "", fmt.Errorf("layouts: render %s: %w", spec.SourcePath, err)
		}
		content = template.HTML(buf.String())
		current = spec.Parent
	}

	return deliver(string(content), out)
}

// RenderTemplate executes a single named template with data. Both layouts and
// includes are addressable; no layout chain is resolved.
func (e *Engine) RenderTemplate(name string, data any, out ...io.Writer) (string, error) {
	if err := e.ensure(); err != nil {
		return "", err
	}
	if e.set.Lookup(name) == nil {
		return "", fmt.Errorf("layouts: template %q not found", name)
	}

	if ctx, ok := asContext(data); ok {
		data = e.withGlobal(ctx)
	}

	var buf bytes.Buffer
	if err := e.set.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("layouts: render %q: %w", name, err)
	}
	return deliver(buf.String(), out)
}

// RenderString parses content as an inline template and executes it with
// data. The engine's helper functions and includes are available, so inline
// templates behave like layout bodies.
func (e *Engine) RenderString(content string, data any, out ...io.Writer) (string, error) {
	if err := e.ensure(); err != nil {
		return "", err
	}

	tpl, err := template.New("inline").Funcs(e.funcMap()).Parse(content)
	if err != nil {
		return "", fmt.Errorf("layouts: parse inline template: %w", err)
	}

	if ctx, ok := asContext(data); ok {
		data = e.withGlobal(ctx)
	}

	var buf bytes.Buffer
	if err := tpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("layouts: render inline template: %w", err)
	}
	return deliver(buf.String(), out)
}

// RegisterFunc installs a helper function available to every template. It
// must be called before the first render; registering a name that collides
// with a built-in replaces the built-in.
func (e *Engine) RegisterFunc(name string, fn any) error {
	if strings.TrimSpace(name) == "" {
		return errors.New("layouts: function name is required")
	}
	if fn == nil {
		return fmt.Errorf("layouts: function %q is nil", name)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.loaded {
		return ErrTemplatesLoaded
	}
	e.funcs[name] = fn
	return nil
}

// GlobalContext stores values exposed to every render under .Global. Data
// must be a map; keys set on an individual Context shadow global ones.
func (e *Engine) GlobalContext(data any) error {
	values, ok := data.(map[string]any)
	if !ok {
		return fmt.Errorf("layouts: global context must be map[string]any, got %T", data)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	for key, value := range values {
		e.global[key] = value
	}
	return nil
}

// Layouts returns the names of the loaded layouts, sorted. Mostly useful for
// diagnostics and the validate command.
func (e *Engine) Layouts() ([]string, error) {
	if err := e.ensure(); err != nil {
		return nil, err
	}
	names := make([]string, 0, len(e.layouts))
	for name := range e.layouts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// HasLayout reports whether a layout with the given name was loaded.
func (e *Engine) HasLayout(name string) bool {
	if err := e.ensure(); err != nil {
		return false
	}
	_, ok := e.layouts[name]
	return ok
}

// Chain resolves the parent chain starting at name, innermost first. The
// returned slice is what Render walks; builds record it as a dependency of
// every document using the layout.
func (e *Engine) Chain(name string) ([]string, error) {
	if err := e.ensure(); err != nil {
		return nil, err
	}
	var chain []string
	current := name
	for current != "" {
		if len(chain) >= MaxLayoutDepth {
			return nil, fmt.Errorf("layouts: chain for %q exceeds depth %d (%s)", name, MaxLayoutDepth, strings.Join(chain, " -> "))
		}
		spec, ok := e.layouts[current]
		if !ok {
			return nil, fmt.Errorf("layouts: layout %q not found", current)
		}
		chain = append(chain, current)
		current = spec.Parent
	}
	return chain, nil
}

// Fingerprint digests every template source a render through the named
// layout reads: each layout in the chain plus the shared includes. An empty
// name digests the includes alone. Builds store the fingerprint per document
// so a template edit invalidates exactly the outputs that used it.
func (e *Engine) Fingerprint(name string) (string, error) {
	chain, err := e.Chain(name)
	if err != nil {
		return "", err
	}

	hasher := sha256.New()
	for _, layout := range chain {
		spec := e.layouts[layout]
		hasher.Write([]byte(layout))
		hasher.Write([]byte{'='})
		hasher.Write([]byte(spec.Checksum))
		hasher.Write([]byte{0})
	}

	names := make([]string, 0, len(e.includes))
	for include := range e.includes {
		names = append(names, include)
	}
	sort.Strings(names)
	for _, include := range names {
		hasher.Write([]byte(include))
		hasher.Write([]byte{'='})
		hasher.Write([]byte(e.includes[include]))
		hasher.Write([]byte{0})
	}

	return hex.EncodeToString(hasher.Sum(nil)), nil
}

func (e *Engine) ensure() error {
	e.once.Do(func() {
		e.mu.Lock()
		e.loaded = true
		e.mu.Unlock()

		set := template.New("layouts").Funcs(e.funcMap())
		e.layouts = map[string]layoutSpec{}
		e.includes = map[string]string{}

		for _, src := range []fs.FS{e.themeFS, e.fsys} {
			if src == nil {
				continue
			}
			if err := e.loadLayouts(set, src); err != nil {
				e.err = err
				return
			}
			if err := e.loadIncludes(set, src); err != nil {
				e.err = err
				return
			}
		}

		e.set = set
		e.logger.Debug("layouts.loaded", "layouts", len(e.layouts))
	})
	return e.err
}

// loadLayouts parses every template in the layouts directory. Each file may
// open with a front matter block naming its parent layout; the block is
// stripped before the body is parsed.
func (e *Engine) loadLayouts(set *template.Template, src fs.FS) error {
	dir := e.cfg.LayoutsDir
	return walkTemplates(src, dir, func(p string, raw []byte) error {
		rel := strings.TrimPrefix(p, dir+"/")
		name := strings.TrimSuffix(rel, path.Ext(rel))

		parent := ""
		body := raw
		if markdown.HasFrontMatter(raw) {
			meta, rest, err := markdown.ParseFrontMatter(raw)
			if err != nil {
				return fmt.Errorf("layouts: parse %s: %w", p, err)
			}
			parent = meta.String("layout")
			body = rest
		}

		if _, err := set.New(name).Parse(string(body)); err != nil {
			return fmt.Errorf("layouts: parse %s: %w", p, err)
		}
		e.layouts[name] = layoutSpec{Name: name, Parent: parent, SourcePath: p, Checksum: sourceChecksum(raw)}
		return nil
	})
}

// loadIncludes parses every template in the includes directory under its file
// name, subdirectories included, so templates reference them exactly as they
// appear on disk.
func (e *Engine) loadIncludes(set *template.Template, src fs.FS) error {
	dir := e.cfg.IncludesDir
	return walkTemplates(src, dir, func(p string, raw []byte) error {
		name := strings.TrimPrefix(p, dir+"/")
		if _, err := set.New(name).Parse(string(raw)); err != nil {
			return fmt.Errorf("layouts: parse %s: %w", p, err)
		}
		e.includes[name] = sourceChecksum(raw)
		return nil
	})
}

func sourceChecksum(raw []byte) string {
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

// walkTemplates visits template files under dir in lexical order. A missing
// directory is not an error: sites without includes and themes without
// layouts are both legitimate.
func walkTemplates(src fs.FS, dir string, visit func(path string, raw []byte) error) error {
	if dir == "" {
		return nil
	}
	if _, err := fs.Stat(src, dir); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("layouts: stat %s: %w", dir, err)
	}

	return fs.WalkDir(src, dir, func(p string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() {
			return nil
		}
		if _, ok := templateExtensions[strings.ToLower(path.Ext(p))]; !ok {
			return nil
		}
		raw, err := fs.ReadFile(src, p)
		if err != nil {
			return fmt.Errorf("layouts: read %s: %w", p, err)
		}
		return visit(p, raw)
	})
}

// withGlobal merges the engine-level global values under the context's own;
// per-render keys win.
func (e *Engine) withGlobal(ctx Context) Context {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.global) == 0 {
		return ctx
	}

	merged := make(map[string]any, len(e.global)+len(ctx.Global))
	for key, value := range e.global {
		merged[key] = value
	}
	for key, value := range ctx.Global {
		merged[key] = value
	}
	ctx.Global = merged
	return ctx
}

func asContext(data any) (Context, bool) {
	switch v := data.(type) {
	case Context:
		return v, true
	case *Context:
		if v != nil {
			return *v, true
		}
	}
	return Context{}, false
}

// deliver returns the rendered output and copies it to the first writer when
// one is supplied.
func deliver(rendered string, out []io.Writer) (string, error) {
	if len(out) > 0 && out[0] != nil {
		if _, err := io.WriteString(out[0], rendered); err != nil {
			return "", fmt.Errorf("layouts: write output: %w", err)
		}
	}
	return rendered, nil
}
