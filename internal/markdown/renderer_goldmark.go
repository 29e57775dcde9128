package markdown

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
)

// Options control how markdown bodies are converted to HTML. The zero value
// renders CommonMark with the default extension set and strips raw HTML.
type Options struct {
	// HardWraps renders single newlines as <br> elements.
	HardWraps bool
	// XHTML emits self-closing tags for void elements.
	XHTML bool
	// Unsafe passes raw HTML blocks through to the output. Posts routinely
	// embed iframes and figure tags, so site configuration enables this by
	// default.
	Unsafe bool
	// Extensions names the goldmark extensions to enable. Unknown names are
	// ignored. An empty list enables the default set.
	Extensions []string
}

// Renderer converts markdown source to HTML using a shared goldmark engine.
// It implements interfaces.MarkdownRenderer and is safe for concurrent use,
// so the generator hands a single instance to its render workers.
type Renderer struct {
	engine goldmark.Markdown
}

// NewRenderer constructs a renderer from the supplied options.
func NewRenderer(opts Options) *Renderer {
	return &Renderer{engine: newGoldmarkEngine(opts)}
}

// Render converts markdown source into HTML.
func (r *Renderer) Render(source []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.engine.Convert(source, &buf); err != nil {
		return nil, fmt.Errorf("render markdown: %w", err)
	}
	return buf.Bytes(), nil
}

// newGoldmarkEngine builds a goldmark.Markdown configured from the supplied
// options. The mapping is intentionally conservative; unsupported extension
// names are ignored.
func newGoldmarkEngine(opts Options) goldmark.Markdown {
	exts := collectExtensions(opts.Extensions)

	parserOptions := []parser.Option{
		parser.WithAutoHeadingID(),
	}

	rendererOptions := []renderer.Option{}

	if opts.HardWraps {
		rendererOptions = append(rendererOptions, html.WithHardWraps())
	}

	if opts.XHTML {
		rendererOptions = append(rendererOptions, html.WithXHTML())
	}

	if opts.Unsafe {
		rendererOptions = append(rendererOptions, html.WithUnsafe())
	}

	engineOptions := []goldmark.Option{
		goldmark.WithParserOptions(parserOptions...),
	}

	if len(rendererOptions) > 0 {
		engineOptions = append(engineOptions, goldmark.WithRendererOptions(rendererOptions...))
	}

	if len(exts) > 0 {
		engineOptions = append(engineOptions, goldmark.WithExtensions(exts...))
	}

	return goldmark.New(engineOptions...)
}

var extensionRegistry = map[string]goldmark.Extender{
	"gfm":           extension.GFM,
	"table":         extension.Table,
	"tables":        extension.Table,
	"strikethrough": extension.Strikethrough,
	"linkify":       extension.Linkify,
	"autolink":      extension.Linkify,
	"tasklist":      extension.TaskList,
	"definition":    extension.DefinitionList,
	"footnote":      extension.Footnote,
	"typographer":   extension.Typographer,
}

func collectExtensions(names []string) []goldmark.Extender {
	if len(names) == 0 {
		return []goldmark.Extender{
			extension.GFM,
			extension.Footnote,
			extension.DefinitionList,
			extension.Typographer,
		}
	}

	var extenders []goldmark.Extender
	seen := map[string]struct{}{}

	for _, name := range names {
		key := strings.ToLower(strings.TrimSpace(name))
		if key == "" {
			continue
		}

		if _, ok := seen[key]; ok {
			continue
		}

		ext, ok := extensionRegistry[key]
		if !ok {
			continue
		}

		extenders = append(extenders, ext)
		seen[key] = struct{}{}
	}

	return extenders
}
