package layouts

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"reflect"
	"regexp"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/brandall10/brandall10.github.io/internal/posts"
)

var htmlTagPattern = regexp.MustCompile(`<[^>]*>`)

// funcMap returns the builtin helpers merged with any registered functions;
// registered names win.
func (e *Engine) funcMap() template.FuncMap {
	e.mu.Lock()
	defer e.mu.Unlock()

	funcs := e.builtins()
	for name, fn := range e.funcs {
		funcs[name] = fn
	}
	return funcs
}

// builtins assembles the helper set available to every template. Names
// follow the filter vocabulary content authors already know from static site
// generators, which is why several are snake_case.
func (e *Engine) builtins() template.FuncMap {
	return template.FuncMap{
		"include":  e.includeTemplate,
		"safeHTML": toHTML,

		"absolute_url": e.cfg.AbsoluteURL,
		"relative_url": e.cfg.RelativeURL,

		"date":                formatDate,
		"date_to_string":      func(value any) (string, error) { return formatDate("02 Jan 2006", value) },
		"date_to_long_string": func(value any) (string, error) { return formatDate("02 January 2006", value) },
		"date_to_xmlschema":   func(value any) (string, error) { return formatDate(time.RFC3339, value) },
		"date_to_rfc822":      func(value any) (string, error) { return formatDate(time.RFC1123Z, value) },

		"slugify":     posts.Slugify,
		"markdownify": e.markdownify,
		"jsonify":     jsonify,

		"join":     joinValues,
		"limit":    limitValues,
		"truncate": truncateValue,

		"capitalize": capitalize,
		"upcase":     strings.ToUpper,
		"downcase":   strings.ToLower,

		"strip_html":      stripHTML,
		"number_of_words": numberOfWords,
	}
}

// includeTemplate renders a named include with the given data and returns the
// output as trusted HTML. Includes are site code, not user input.
func (e *Engine) includeTemplate(name string, data any) (template.HTML, error) {
	tpl := e.lookupTemplate(name)
	if tpl == nil {
		return "", fmt.Errorf("include %q not found", name)
	}

	var buf bytes.Buffer
	if err := tpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("include %q: %w", name, err)
	}
	return template.HTML(buf.String()), nil
}

func (e *Engine) lookupTemplate(name string) *template.Template {
	if e.set == nil {
		return nil
	}
	return e.set.Lookup(name)
}

// markdownify renders a markdown string to HTML. It requires a markdown
// renderer to be attached with WithMarkdown.
func (e *Engine) markdownify(value any) (template.HTML, error) {
	if e.md == nil {
		return "", fmt.Errorf("markdownify: no markdown renderer configured")
	}
	rendered, err := e.md.Render([]byte(stringify(value)))
	if err != nil {
		return "", fmt.Errorf("markdownify: %w", err)
	}
	return template.HTML(rendered), nil
}

// formatDate renders a date value with a Go reference layout. Strings are
// accepted in RFC 3339 or plain date form so front matter values that were
// never parsed still format.
func formatDate(layout string, value any) (string, error) {
	t, err := asTime(value)
	if err != nil {
		return "", err
	}
	return t.Format(layout), nil
}

func asTime(value any) (time.Time, error) {
	switch v := value.(type) {
	case time.Time:
		return v, nil
	case *time.Time:
		if v != nil {
			return *v, nil
		}
	case string:
		for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05 -0700", "2006-01-02"} {
			if t, err := time.Parse(layout, v); err == nil {
				return t, nil
			}
		}
	}
	return time.Time{}, fmt.Errorf("cannot interpret %T as a date", value)
}

func jsonify(value any) (template.JS, error) {
	encoded, err := json.Marshal(value)
	if err != nil {
		return "", fmt.Errorf("jsonify: %w", err)
	}
	return template.JS(encoded), nil
}

func joinValues(sep string, value any) (string, error) {
	switch v := value.(type) {
	case []string:
		return strings.Join(v, sep), nil
	case []any:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			parts = append(parts, stringify(item))
		}
		return strings.Join(parts, sep), nil
	}
	return "", fmt.Errorf("join expects a list, got %T", value)
}

// limitValues returns at most n leading elements of a slice. It keeps the
// element type, so {{ range limit 3 .Site.Posts }} iterates posts.
func limitValues(n int, value any) (any, error) {
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice {
		return nil, fmt.Errorf("limit expects a slice, got %T", value)
	}
	if n < 0 {
		n = 0
	}
	if n > rv.Len() {
		n = rv.Len()
	}
	return rv.Slice(0, n).Interface(), nil
}

// truncateValue shortens a string to n runes, ellipsis included.
func truncateValue(n int, value string) string {
	runes := []rune(value)
	if len(runes) <= n {
		return value
	}
	if n <= 3 {
		return string(runes[:n])
	}
	return string(runes[:n-3]) + "..."
}

func capitalize(value string) string {
	if value == "" {
		return ""
	}
	first, size := utf8.DecodeRuneInString(value)
	return string(unicode.ToUpper(first)) + value[size:]
}

func stripHTML(value any) string {
	return strings.TrimSpace(htmlTagPattern.ReplaceAllString(stringify(value), ""))
}

func numberOfWords(value any) int {
	return len(strings.Fields(stripHTML(value)))
}

func stringify(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case template.HTML:
		return string(v)
	case []byte:
		return string(v)
	case fmt.Stringer:
		return v.String()
	}
	return fmt.Sprint(value)
}

func toHTML(value any) template.HTML {
	if v, ok := value.(template.HTML); ok {
		return v
	}
	return template.HTML(stringify(value))
}
