package navigation

import (
	"testing"

	urlkit "github.com/goliatone/go-urlkit"

	"github.com/brandall10/brandall10.github.io/internal/site"
)

func testConfig() site.Config {
	cfg := site.Default()
	cfg.Title = "brandall10"
	cfg.URL = "https://brandall10.github.io"
	return cfg
}

func TestResolverResolve(t *testing.T) {
	resolver := NewSiteResolver(testConfig())

	cases := []struct {
		route  string
		params map[string]any
		want   string
	}{
		{RouteHome, nil, "/"},
		{RouteFeed, nil, "/feed.xml"},
		{RouteRSS, nil, "/rss.xml"},
		{RouteSitemap, nil, "/sitemap.xml"},
		{RouteCategory, map[string]any{"slug": "rails"}, "/categories/rails/"},
		{RoutePage, map[string]any{"num": 2}, "/page/2/"},
	}
	for _, tc := range cases {
		got, err := resolver.Resolve(tc.route, tc.params)
		if err != nil {
			t.Fatalf("Resolve(%s) error = %v", tc.route, err)
		}
		if got != tc.want {
			t.Fatalf("Resolve(%s) = %q, want %q", tc.route, got, tc.want)
		}
	}
}

func TestResolverResolvePost(t *testing.T) {
	resolver := NewSiteResolver(testConfig())

	got, err := resolver.Resolve(RoutePost, map[string]any{
		"categories": "rails",
		"year":       "2015",
		"month":      "03",
		"day":        "10",
		"title":      "serving-pages-with-rails",
	})
	if err != nil {
		t.Fatalf("Resolve(post) error = %v", err)
	}
	want := "/rails/2015/03/10/serving-pages-with-rails/"
	if got != want {
		t.Fatalf("Resolve(post) = %q, want %q", got, want)
	}
}

func TestResolverResolveWithBaseURL(t *testing.T) {
	cfg := testConfig()
	cfg.BaseURL = "/blog"
	resolver := NewSiteResolver(cfg)

	got, err := resolver.Resolve(RouteHome, nil)
	if err != nil {
		t.Fatalf("Resolve(home) error = %v", err)
	}
	if got != "/blog/" {
		t.Fatalf("Resolve(home) = %q, want %q", got, "/blog/")
	}

	got, err = resolver.Resolve(RouteFeed, nil)
	if err != nil {
		t.Fatalf("Resolve(feed) error = %v", err)
	}
	if got != "/blog/feed.xml" {
		t.Fatalf("Resolve(feed) = %q, want %q", got, "/blog/feed.xml")
	}
}

func TestResolverUnknownGroup(t *testing.T) {
	resolver := NewResolver(nil)
	if _, err := resolver.Resolve(RouteHome, nil); err == nil {
		t.Fatal("expected error without a route manager")
	}

	manager := urlkit.NewRouteManager(Routes(testConfig()))
	withGroup := NewResolver(manager, WithGroup("admin"))
	if _, err := withGroup.Resolve(RouteHome, nil); err == nil {
		t.Fatal("expected error for unknown route group")
	}
}

func TestResolverUnknownRoute(t *testing.T) {
	resolver := NewSiteResolver(testConfig())

	if _, err := resolver.Resolve("archive", nil); err == nil {
		t.Fatal("expected error for unregistered route")
	}
}

func TestResolverEmptyRoute(t *testing.T) {
	resolver := NewSiteResolver(testConfig())

	if _, err := resolver.Resolve("  ", nil); err == nil {
		t.Fatal("expected error for blank route name")
	}
}
