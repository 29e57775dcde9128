package markdown

import (
	"strings"
	"testing"
)

func TestRendererRender(t *testing.T) {
	renderer := NewRenderer(Options{})

	html, err := renderer.Render([]byte("# Getting Started\n\nHello **world**"))
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	got := string(html)
	if !strings.Contains(got, `<h1 id="getting-started">Getting Started</h1>`) {
		t.Fatalf("expected heading with generated id, got %q", got)
	}
	if !strings.Contains(got, "<strong>world</strong>") {
		t.Fatalf("expected rendered HTML to include <strong>, got %q", got)
	}
}

func TestRendererDefaultExtensions(t *testing.T) {
	renderer := NewRenderer(Options{})

	source := strings.Join([]string{
		"| Method | Path |",
		"| ------ | ---- |",
		"| GET    | /posts |",
		"",
		"A claim.[^1]",
		"",
		"[^1]: The supporting footnote.",
	}, "\n")

	html, err := renderer.Render([]byte(source))
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	got := string(html)
	if !strings.Contains(got, "<table>") {
		t.Fatalf("expected GFM table rendering, got %q", got)
	}
	if !strings.Contains(got, "footnote") {
		t.Fatalf("expected footnote rendering, got %q", got)
	}
}

func TestRendererUnsafeHTML(t *testing.T) {
	source := []byte("before\n\n<figure>inline</figure>\n\nafter")

	safe, err := NewRenderer(Options{}).Render(source)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if strings.Contains(string(safe), "<figure>") {
		t.Fatalf("expected raw HTML to be omitted by default, got %q", string(safe))
	}

	unsafe, err := NewRenderer(Options{Unsafe: true}).Render(source)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(string(unsafe), "<figure>inline</figure>") {
		t.Fatalf("expected raw HTML to pass through, got %q", string(unsafe))
	}
}

func TestRendererHardWraps(t *testing.T) {
	html, err := NewRenderer(Options{HardWraps: true}).Render([]byte("line one\nline two"))
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	if !strings.Contains(string(html), "line one<br>") {
		t.Fatalf("expected hard wraps in HTML output, got %q", string(html))
	}
}

func TestCollectExtensionsSkipsUnknownNames(t *testing.T) {
	exts := collectExtensions([]string{"table", "Table", " typographer ", "liquid", ""})
	if len(exts) != 2 {
		t.Fatalf("expected 2 extensions, got %d", len(exts))
	}
}

func TestRendererFencedCodeBlocks(t *testing.T) {
	data := readFixture(t, "testdata/post.md")

	_, body, err := ParseFrontMatter(data)
	if err != nil {
		t.Fatalf("ParseFrontMatter: %v", err)
	}

	html, err := NewRenderer(Options{Unsafe: true}).Render(body)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	got := string(html)
	if !strings.Contains(got, `<code class="language-ruby">`) {
		t.Fatalf("expected fenced code block with language class, got %q", got)
	}
	if !strings.Contains(got, "routes.draw") {
		t.Fatalf("expected code content in output, got %q", got)
	}
}
