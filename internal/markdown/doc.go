// Package markdown splits post sources into front matter and body content
// and converts markdown bodies to HTML through goldmark. The loader in
// internal/posts owns filesystem discovery; this package stays source-in,
// bytes-out so both the generator and the dev server can share one renderer.
package markdown
