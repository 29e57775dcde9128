package generator

import (
	"strings"
	"testing"
	"time"
)

func TestBuildSitemapDedupesAndSorts(t *testing.T) {
	fallback := time.Date(2015, time.July, 1, 0, 0, 0, 0, time.UTC)
	entries := []sitemapEntry{
		{Location: "https://example.com/b/", LastMod: time.Date(2015, time.June, 2, 0, 0, 0, 0, time.UTC)},
		{Location: "https://example.com/a/"},
		{Location: "https://example.com/b/", LastMod: time.Date(2015, time.June, 9, 0, 0, 0, 0, time.UTC)},
		{Location: ""},
	}

	content := buildSitemap(entries, fallback)

	if strings.Count(content, "<url>") != 2 {
		t.Fatalf("url count wrong:\n%s", content)
	}
	aIdx := strings.Index(content, "https://example.com/a/")
	bIdx := strings.Index(content, "https://example.com/b/")
	if aIdx < 0 || bIdx < 0 || aIdx > bIdx {
		t.Fatalf("entries not sorted:\n%s", content)
	}
	// Entry without a modification time uses the build timestamp.
	if !strings.Contains(content, "<lastmod>2015-07-01T00:00:00Z</lastmod>") {
		t.Fatalf("fallback lastmod missing:\n%s", content)
	}
	if !strings.Contains(content, "<lastmod>2015-06-02T00:00:00Z</lastmod>") {
		t.Fatalf("first-seen lastmod not kept:\n%s", content)
	}
	if !strings.Contains(content, `<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">`) {
		t.Fatalf("urlset element wrong:\n%s", content)
	}
}

func TestBuildRobots(t *testing.T) {
	with := buildRobots("https://example.com/sitemap.xml", true)
	if !strings.Contains(with, "User-agent: *\nAllow: /\n") {
		t.Fatalf("robots body wrong:\n%s", with)
	}
	if !strings.Contains(with, "Sitemap: https://example.com/sitemap.xml\n") {
		t.Fatalf("sitemap line missing:\n%s", with)
	}

	without := buildRobots("https://example.com/sitemap.xml", false)
	if strings.Contains(without, "Sitemap:") {
		t.Fatalf("sitemap line present when disabled:\n%s", without)
	}
}

func TestDetectAssetContentType(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{name: "assets/css/main.css", want: "text/css; charset=utf-8"},
		{name: "assets/js/app.js", want: "application/javascript"},
		{name: "favicon.ico", want: "image/x-icon"},
		{name: "images/logo.svg", want: "image/svg+xml"},
		{name: "images/photo.JPG", want: "image/jpeg"},
		{name: "fonts/body.woff2", want: "font/woff2"},
		{name: "downloads/archive.tar.gz", want: "application/octet-stream"},
	}
	for _, tc := range tests {
		if got := detectAssetContentType(tc.name); got != tc.want {
			t.Fatalf("detectAssetContentType(%q) = %q, want %q", tc.name, got, tc.want)
		}
	}
}
