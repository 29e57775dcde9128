// Package navigation names the URLs a site is made of. Structural routes
// (home, pagination, category archives, feeds, sitemap) are registered with
// a go-urlkit route manager so navigation entries and generated documents
// agree on where things live, with the configured base URL applied in one
// place.
package navigation

import (
	"strings"

	urlkit "github.com/goliatone/go-urlkit"

	"github.com/brandall10/brandall10.github.io/internal/site"
)

// RouteGroup is the urlkit group all site routes register under.
const RouteGroup = "site"

// Route names registered for every site.
const (
	RouteHome     = "home"
	RoutePost     = "post"
	RouteCategory = "category"
	RoutePage     = "page"
	RouteFeed     = "feed"
	RouteRSS      = "rss"
	RouteSitemap  = "sitemap"
)

const defaultPaginatePath = "/page/:num/"

// Routes builds the urlkit configuration for a site. The post route mirrors
// the configured permalink pattern and the page route mirrors paginate_path,
// so resolved URLs match what the build writes to disk.
func Routes(cfg site.Config) *urlkit.Config {
	paginatePath := strings.TrimSpace(cfg.PaginatePath)
	if paginatePath == "" {
		paginatePath = defaultPaginatePath
	}

	return &urlkit.Config{
		Groups: []urlkit.GroupConfig{
			{
				Name:    RouteGroup,
				BaseURL: siteBase(cfg),
				Paths: map[string]string{
					RouteHome:     "/",
					RoutePost:     permalinkPath(cfg.PermalinkTemplate()),
					RouteCategory: "/categories/:slug/",
					RoutePage:     paginatePath,
					RouteFeed:     "/feed.xml",
					RouteRSS:      "/rss.xml",
					RouteSitemap:  "/sitemap.xml",
				},
			},
		},
	}
}

func siteBase(cfg site.Config) string {
	return strings.TrimSuffix(cfg.URL, "/") + strings.TrimSuffix(cfg.BaseURL, "/")
}

// permalinkPath rewrites the permalink pattern into a urlkit route. The only
// placeholder urlkit cannot take verbatim is :output_ext, which is always
// ".html" for generated posts.
func permalinkPath(pattern string) string {
	return strings.ReplaceAll(pattern, ":output_ext", ".html")
}
