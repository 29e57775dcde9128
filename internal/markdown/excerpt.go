package markdown

import "strings"

// DefaultExcerptSeparator splits a post body after its first paragraph when
// site configuration does not override the separator.
const DefaultExcerptSeparator = "\n\n"

// ExtractExcerpt returns the leading portion of a markdown body up to the
// first occurrence of separator. Bodies that never contain the separator are
// returned whole, matching how index pages fall back to the full post.
func ExtractExcerpt(body []byte, separator string) string {
	if separator == "" {
		separator = DefaultExcerptSeparator
	}

	text := strings.ReplaceAll(string(body), "\r\n", "\n")
	text = strings.TrimLeft(text, "\n")

	if idx := strings.Index(text, separator); idx >= 0 {
		text = text[:idx]
	}

	return strings.TrimSpace(text)
}
