package posts

import (
	"fmt"
	"path"
	"strconv"
	"strings"

	"github.com/brandall10/brandall10.github.io/pkg/interfaces"
)

// OutputExt is the extension rendered documents take in the output tree.
const OutputExt = ".html"

// Slugify lowers a value into URL-safe form. Category names pass through
// here before they appear in permalinks and archive paths.
func Slugify(value string) string {
	return normalizeSlug(value)
}

// ExpandPermalink fills the pattern's placeholders from the document. An
// empty :categories segment collapses instead of leaving a double slash.
func ExpandPermalink(pattern string, doc *interfaces.Document) string {
	date := doc.Date
	_, week := date.ISOWeek()

	catSegments := make([]string, 0, len(doc.Categories))
	for _, c := range doc.Categories {
		if s := Slugify(c); s != "" {
			catSegments = append(catSegments, s)
		}
	}

	replacer := strings.NewReplacer(
		":categories", strings.Join(catSegments, "/"),
		":short_year", fmt.Sprintf("%02d", date.Year()%100),
		":year", fmt.Sprintf("%04d", date.Year()),
		":i_month", strconv.Itoa(int(date.Month())),
		":month", fmt.Sprintf("%02d", int(date.Month())),
		":y_day", strconv.Itoa(date.YearDay()),
		":i_day", strconv.Itoa(date.Day()),
		":short_day", date.Weekday().String()[:3],
		":day", fmt.Sprintf("%02d", date.Day()),
		":hour", fmt.Sprintf("%02d", date.Hour()),
		":minute", fmt.Sprintf("%02d", date.Minute()),
		":second", fmt.Sprintf("%02d", date.Second()),
		":week", fmt.Sprintf("%02d", week),
		":slug", doc.Slug,
		":title", doc.Slug,
		":output_ext", OutputExt,
	)

	return collapseSlashes(replacer.Replace(pattern))
}

// PageURL derives the URL for a page without an explicit permalink. Index
// documents map onto their directory; everything else follows the permalink
// style's trailing-slash preference.
func PageURL(doc *interfaces.Document, pattern string) string {
	rel := doc.SourcePath
	stem := strings.TrimSuffix(rel, path.Ext(rel))
	base := path.Base(stem)
	dir := path.Dir(stem)

	if base == "index" {
		if dir == "." {
			return "/"
		}
		return "/" + dir + "/"
	}

	joined := path.Join(dir, base)
	if strings.HasSuffix(pattern, "/") {
		return "/" + joined + "/"
	}
	return "/" + joined + OutputExt
}

// NormalizeExplicitPermalink cleans a permalink given verbatim in front
// matter: a leading slash is added, and values without an extension gain a
// trailing slash so they map onto a directory index.
func NormalizeExplicitPermalink(value string) string {
	v := strings.TrimSpace(value)
	if v == "" {
		return ""
	}
	if !strings.HasPrefix(v, "/") {
		v = "/" + v
	}
	v = collapseSlashes(v)
	if strings.HasSuffix(v, "/") {
		return v
	}
	if path.Ext(v) == "" {
		return v + "/"
	}
	return v
}

// URLFor resolves the site-relative URL of a document: an explicit front
// matter permalink wins (placeholders allowed), dated collections expand
// the configured pattern, and pages fall back to their source path.
func URLFor(doc *interfaces.Document, pattern string) string {
	if doc.Permalink != "" {
		explicit := doc.Permalink
		if !strings.HasPrefix(explicit, "/") {
			explicit = "/" + explicit
		}
		if strings.Contains(explicit, ":") {
			return ExpandPermalink(explicit, doc)
		}
		return NormalizeExplicitPermalink(explicit)
	}
	if doc.Collection == interfaces.CollectionPages {
		return PageURL(doc, pattern)
	}
	return ExpandPermalink(pattern, doc)
}

func collapseSlashes(s string) string {
	for strings.Contains(s, "//") {
		s = strings.ReplaceAll(s, "//", "/")
	}
	return s
}
