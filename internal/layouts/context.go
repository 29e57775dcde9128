package layouts

import (
	"html/template"
	"time"

	"github.com/brandall10/brandall10.github.io/internal/site"
	"github.com/brandall10/brandall10.github.io/pkg/interfaces"
)

// Context is the data contract passed to layout templates. Render walks the
// layout chain with it, replacing Content at each step with the output of the
// previous layout.
type Context struct {
	Site      SiteContext
	Page      PageContext
	Content   template.HTML
	Paginator *Paginator
	Theme     ThemeContext
	Global    map[string]any
}

// SiteContext exposes site-wide data to templates: configuration values plus
// the loaded collections. The generator fills Posts, Pages, and Categories
// once per build.
type SiteContext struct {
	Title       string
	Description string
	URL         string
	BaseURL     string
	Author      site.Author
	Time        time.Time
	Posts       []*interfaces.Post
	Pages       []*interfaces.Page
	Categories  []*interfaces.Category
	Navigation  []NavLink
	Params      map[string]any
}

// NavLink is a resolved navigation entry ready for rendering.
type NavLink struct {
	Title string
	URL   string
}

// PageContext exposes the document being rendered. Typed fields cover the
// keys every layout needs; Params carries the full front matter so custom
// keys stay reachable.
type PageContext struct {
	ID          string
	Title       string
	URL         string
	Date        time.Time
	Layout      string
	Author      string
	Description string
	// Excerpt holds the rendered excerpt HTML. The generator fills it after
	// running the raw excerpt through the markdown renderer.
	Excerpt    template.HTML
	Categories []string
	Tags       []string
	Collection string
	Next       *PostRef
	Previous   *PostRef
	Params     map[string]any
}

// PostRef points at a neighbouring post in date order.
type PostRef struct {
	Title string
	URL   string
}

// Paginator describes one page of a paginated listing. It is nil on
// everything except paginated index pages.
type Paginator struct {
	Page         int
	PerPage      int
	TotalPages   int
	TotalPosts   int
	Posts        []*interfaces.Post
	PreviousPage int
	PreviousURL  string
	NextPage     int
	NextURL      string
}

// ThemeContext surfaces the active theme's data to templates. The generator
// builds it from the theme selection; the zero value renders cleanly for
// sites without a theme.
type ThemeContext struct {
	Name     string
	Variant  string
	Tokens   map[string]string
	CSSVars  map[string]string
	AssetURL func(string) string
}

// Asset resolves a theme asset key to its URL, returning "" when no theme is
// active. Templates call it as {{ .Theme.Asset "styles" }}.
func (t ThemeContext) Asset(key string) string {
	if t.AssetURL == nil {
		return ""
	}
	return t.AssetURL(key)
}

// NewSiteContext maps the site configuration into template data. Collections
// and navigation are left for the caller to fill.
func NewSiteContext(cfg site.Config, now time.Time) SiteContext {
	return SiteContext{
		Title:       cfg.Title,
		Description: cfg.Description,
		URL:         cfg.URL,
		BaseURL:     cfg.BaseURL,
		Author:      cfg.Author,
		Time:        now,
		Params:      cfg.Params,
	}
}

// PostContext maps a post into page template data. The neighbours are the
// full posts the slugs in Next and Previous resolve to; either may be nil.
func PostContext(post *interfaces.Post, next, previous *interfaces.Post) PageContext {
	if post == nil {
		return PageContext{}
	}
	ctx := documentContext(post.Document)
	ctx.URL = post.URL
	if next != nil {
		ctx.Next = &PostRef{Title: next.Title, URL: next.URL}
	}
	if previous != nil {
		ctx.Previous = &PostRef{Title: previous.Title, URL: previous.URL}
	}
	return ctx
}

// PageContextFrom maps a standalone page into page template data.
func PageContextFrom(page *interfaces.Page) PageContext {
	if page == nil {
		return PageContext{}
	}
	ctx := documentContext(page.Document)
	ctx.URL = page.URL
	return ctx
}

func documentContext(doc interfaces.Document) PageContext {
	return PageContext{
		ID:          doc.ID.String(),
		Title:       doc.Title,
		Date:        doc.Date,
		Layout:      doc.Layout,
		Author:      doc.Author,
		Description: doc.Description,
		Categories:  doc.Categories,
		Tags:        doc.Tags,
		Collection:  string(doc.Collection),
		Params:      doc.FrontMatter,
	}
}
