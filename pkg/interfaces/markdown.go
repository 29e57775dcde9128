package interfaces

import (
	"fmt"
	"strings"
)

// FrontMatter holds the metadata block that opens a source document. Keys are
// kept untyped so authors can carry arbitrary values into templates; typed
// projections (title, date, categories, ...) live on Document and are derived
// by the loader.
type FrontMatter map[string]any

// Has reports whether the key is present, even when its value is empty.
func (fm FrontMatter) Has(key string) bool {
	_, ok := fm[key]
	return ok
}

// String returns the value for key coerced to a trimmed string. Missing keys
// and non-scalar values return "".
func (fm FrontMatter) String(key string) string {
	raw, ok := fm[key]
	if !ok || raw == nil {
		return ""
	}
	switch v := raw.(type) {
	case string:
		return strings.TrimSpace(v)
	case bool, int, int64, float64:
		return strings.TrimSpace(fmt.Sprint(v))
	}
	return ""
}

// Strings returns the value for key as a list. YAML lists map directly;
// scalar strings split on whitespace, matching how category lists are
// commonly written inline ("categories: ruby rails").
func (fm FrontMatter) Strings(key string) []string {
	raw, ok := fm[key]
	if !ok || raw == nil {
		return nil
	}
	switch v := raw.(type) {
	case []string:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if trimmed := strings.TrimSpace(item); trimmed != "" {
				out = append(out, trimmed)
			}
		}
		return out
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				if trimmed := strings.TrimSpace(s); trimmed != "" {
					out = append(out, trimmed)
				}
			}
		}
		return out
	case string:
		return strings.Fields(v)
	}
	return nil
}

// Bool returns the value for key as a bool plus a presence flag.
func (fm FrontMatter) Bool(key string) (value bool, ok bool) {
	raw, present := fm[key]
	if !present {
		return false, false
	}
	b, isBool := raw.(bool)
	if !isBool {
		return false, false
	}
	return b, true
}

// MarkdownRenderer converts markdown source into HTML. Implementations are
// expected to be safe for concurrent use; the generator calls Render from
// its worker pool.
type MarkdownRenderer interface {
	Render(source []byte) ([]byte, error)
}
