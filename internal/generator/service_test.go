package generator

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/brandall10/brandall10.github.io/internal/layouts"
	"github.com/brandall10/brandall10.github.io/internal/liquid"
	"github.com/brandall10/brandall10.github.io/internal/markdown"
	"github.com/brandall10/brandall10.github.io/internal/posts"
	"github.com/brandall10/brandall10.github.io/internal/site"
	"github.com/brandall10/brandall10.github.io/internal/themes"
	"github.com/brandall10/brandall10.github.io/pkg/interfaces"
)

var (
	buildNow  = time.Date(2015, time.July, 1, 12, 0, 0, 0, time.UTC)
	draftTime = time.Date(2015, time.June, 10, 9, 30, 0, 0, time.UTC)
)

func generatorSite() fstest.MapFS {
	return fstest.MapFS{
		"_posts/2015-03-10-serving-pages-with-rails.md": &fstest.MapFile{
			Data: []byte(`---
layout: post
title: "Serving Pages With Rails"
date: 2015-03-10 12:18:00 -0500
categories: rails tutorial
---
Rails favors convention over configuration.

The router maps a URL onto a controller action.
`),
		},
		"_posts/2015-04-02-active-record-basics.md": &fstest.MapFile{
			Data: []byte(`---
layout: post
title: "Active Record Basics"
---
Models wrap database rows in plain Ruby objects.
`),
		},
		"_posts/2015-05-20-nested-resources.md": &fstest.MapFile{
			Data: []byte(`---
layout: post
title: "Nested Resources"
categories: routing
---
Routes can nest one resource inside another.

Start with {% post_url 2015-03-10-serving-pages-with-rails %} first.
`),
		},
		"_drafts/caching-strategies.md": &fstest.MapFile{
			Data: []byte(`---
layout: post
title: "Caching Strategies"
---
Fragment caching is the easiest win.
`),
			ModTime: draftTime,
		},
		"index.html": &fstest.MapFile{
			Data: []byte(`---
layout: home
---
`),
		},
		"about.md": &fstest.MapFile{
			Data: []byte(`---
layout: page
title: About
permalink: /about/
---
A blog about building things with Rails.
`),
		},
		"assets/css/main.css": &fstest.MapFile{
			Data: []byte("body { margin: 0; }\n"),
		},
		"_layouts/default.html": &fstest.MapFile{
			Data: []byte(`<!DOCTYPE html>
<html><head><title>{{ .Site.Title }}</title></head>
<body>{{ .Content }}</body></html>
`),
		},
		"_layouts/post.html": &fstest.MapFile{
			Data: []byte(`---
layout: default
---
<article><h1>{{ .Page.Title }}</h1>{{ .Content }}</article>
`),
		},
		"_layouts/page.html": &fstest.MapFile{
			Data: []byte(`---
layout: default
---
<main>{{ .Content }}</main>
`),
		},
		"_layouts/home.html": &fstest.MapFile{
			Data: []byte(`---
layout: default
---
{{ range .Paginator.Posts }}<h2><a href="{{ .URL }}">{{ .Title }}</a></h2>
{{ end }}{{ if .Paginator.NextURL }}<a href="{{ .Paginator.NextURL }}">Older</a>{{ end }}
`),
		},
		"_layouts/category.html": &fstest.MapFile{
			Data: []byte(`---
layout: default
---
<h1>{{ .Page.Title }}</h1>
<ul>{{ range .Paginator.Posts }}<li>{{ .Title }}</li>{{ end }}</ul>
`),
		},
	}
}

func generatorSiteConfig() site.Config {
	cfg := site.Default()
	cfg.Title = "Notes on Rails"
	cfg.URL = "https://brandall10.github.io"
	cfg.Paginate = 2
	return cfg
}

func newTestGenerator(t *testing.T, fsys fstest.MapFS, outDir string, siteMutate func(*site.Config), cfgMutate func(*Config), depsMutate func(*Dependencies)) Service {
	t.Helper()

	siteCfg := generatorSiteConfig()
	if siteMutate != nil {
		siteMutate(&siteCfg)
	}

	clock := func() time.Time { return buildNow }
	loader := posts.NewLoader(fsys, siteCfg, posts.WithClock(clock))
	postSvc := posts.NewService(loader, siteCfg, posts.WithServiceClock(clock))
	renderer := markdown.NewRenderer(markdown.Options{Unsafe: true})
	tags, err := liquid.NewDefaultService()
	if err != nil {
		t.Fatalf("liquid service: %v", err)
	}
	engine := layouts.NewEngine(fsys, siteCfg, layouts.WithMarkdown(renderer))

	cfg := Config{
		OutputDir:       outDir,
		CopyStatic:      true,
		GenerateSitemap: true,
		GenerateRobots:  true,
		GenerateFeeds:   true,
		Workers:         1,
	}
	if cfgMutate != nil {
		cfgMutate(&cfg)
	}

	deps := Dependencies{
		Site:     siteCfg,
		Source:   fsys,
		Loader:   loader,
		Posts:    postSvc,
		Layouts:  engine,
		Markdown: renderer,
		Tags:     tags,
	}
	if depsMutate != nil {
		depsMutate(&deps)
	}

	return NewService(cfg, deps, WithClock(clock))
}

func readOutput(t *testing.T, dir, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(rel)))
	if err != nil {
		t.Fatalf("read %s: %v", rel, err)
	}
	return string(data)
}

func TestBuildRendersSite(t *testing.T) {
	outDir := t.TempDir()
	svc := newTestGenerator(t, generatorSite(), outDir, nil, nil, nil)

	result, err := svc.Build(context.Background(), interfaces.BuildOptions{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	// 3 posts + about, then 2 home pages and 3 category archives.
	if result.Rendered != 9 {
		t.Fatalf("Rendered = %d, want 9", result.Rendered)
	}
	if result.Copied != 1 {
		t.Fatalf("Copied = %d, want 1", result.Copied)
	}
	if result.Skipped != 0 {
		t.Fatalf("Skipped = %d, want 0", result.Skipped)
	}
	if len(result.Issues) != 0 {
		t.Fatalf("unexpected issues: %v", result.Issues)
	}

	post := readOutput(t, outDir, "rails/tutorial/2015/03/10/serving-pages-with-rails/index.html")
	if !strings.Contains(post, "<h1>Serving Pages With Rails</h1>") {
		t.Fatalf("post missing title heading:\n%s", post)
	}
	if !strings.Contains(post, "<title>Notes on Rails</title>") {
		t.Fatalf("post missing site title from layout chain:\n%s", post)
	}

	linked := readOutput(t, outDir, "routing/2015/05/20/nested-resources/index.html")
	if !strings.Contains(linked, "/rails/tutorial/2015/03/10/serving-pages-with-rails/") {
		t.Fatalf("post_url tag did not expand:\n%s", linked)
	}

	about := readOutput(t, outDir, "about/index.html")
	if !strings.Contains(about, "<main>") || !strings.Contains(about, "building things with Rails") {
		t.Fatalf("about page wrong:\n%s", about)
	}

	home := readOutput(t, outDir, "index.html")
	if !strings.Contains(home, "Nested Resources") || !strings.Contains(home, "Active Record Basics") {
		t.Fatalf("home page missing newest posts:\n%s", home)
	}
	if !strings.Contains(home, `<a href="/page/2/">Older</a>`) {
		t.Fatalf("home page missing pagination link:\n%s", home)
	}

	older := readOutput(t, outDir, "page/2/index.html")
	if !strings.Contains(older, "Serving Pages With Rails") {
		t.Fatalf("page 2 missing oldest post:\n%s", older)
	}

	category := readOutput(t, outDir, "categories/routing/index.html")
	if !strings.Contains(category, "<h1>routing</h1>") || !strings.Contains(category, "Nested Resources") {
		t.Fatalf("category archive wrong:\n%s", category)
	}

	if data := readOutput(t, outDir, ".site-manifest.json"); !strings.Contains(data, `"version": 1`) {
		t.Fatalf("manifest missing version:\n%s", data)
	}
	if css := readOutput(t, outDir, "assets/css/main.css"); !strings.Contains(css, "margin") {
		t.Fatalf("static css not copied:\n%s", css)
	}
}

func TestBuildWritesFeedsAndSitemap(t *testing.T) {
	outDir := t.TempDir()
	svc := newTestGenerator(t, generatorSite(), outDir, nil, nil, nil)

	if _, err := svc.Build(context.Background(), interfaces.BuildOptions{}); err != nil {
		t.Fatalf("Build: %v", err)
	}

	atom := readOutput(t, outDir, "feed.xml")
	if !strings.Contains(atom, `<feed xmlns="http://www.w3.org/2005/Atom">`) {
		t.Fatalf("atom feed malformed:\n%s", atom)
	}
	if !strings.Contains(atom, "https://brandall10.github.io/routing/2015/05/20/nested-resources/") {
		t.Fatalf("atom feed missing newest post link:\n%s", atom)
	}
	if !strings.Contains(atom, "<summary>Routes can nest one resource inside another.</summary>") {
		t.Fatalf("atom feed missing excerpt summary:\n%s", atom)
	}

	rss := readOutput(t, outDir, "rss.xml")
	if !strings.Contains(rss, `<rss version="2.0">`) {
		t.Fatalf("rss feed malformed:\n%s", rss)
	}
	if !strings.Contains(rss, "<pubDate>Wed, 20 May 2015 00:00:00 +0000</pubDate>") {
		t.Fatalf("rss feed missing pubDate:\n%s", rss)
	}

	categoryFeed := readOutput(t, outDir, "categories/routing/feed.xml")
	if !strings.Contains(categoryFeed, "Nested Resources") {
		t.Fatalf("category feed missing post:\n%s", categoryFeed)
	}
	if strings.Contains(categoryFeed, "Active Record Basics") {
		t.Fatalf("category feed leaked unrelated post:\n%s", categoryFeed)
	}

	sitemap := readOutput(t, outDir, "sitemap.xml")
	for _, loc := range []string{
		"https://brandall10.github.io/about/",
		"https://brandall10.github.io/",
		"https://brandall10.github.io/page/2/",
		"https://brandall10.github.io/categories/routing/",
		"https://brandall10.github.io/2015/04/02/active-record-basics/",
	} {
		if !strings.Contains(sitemap, "<loc>"+loc+"</loc>") {
			t.Fatalf("sitemap missing %s:\n%s", loc, sitemap)
		}
	}

	robots := readOutput(t, outDir, "robots.txt")
	if !strings.Contains(robots, "Sitemap: https://brandall10.github.io/sitemap.xml") {
		t.Fatalf("robots missing sitemap line:\n%s", robots)
	}
}

func TestBuildIncrementalSkipsUnchanged(t *testing.T) {
	outDir := t.TempDir()
	svc := newTestGenerator(t, generatorSite(), outDir, nil, nil, nil)
	ctx := context.Background()

	first, err := svc.Build(ctx, interfaces.BuildOptions{Incremental: true})
	if err != nil {
		t.Fatalf("first Build: %v", err)
	}
	if first.Rendered != 9 || first.Skipped != 0 {
		t.Fatalf("first build rendered=%d skipped=%d, want 9/0", first.Rendered, first.Skipped)
	}

	second, err := svc.Build(ctx, interfaces.BuildOptions{Incremental: true})
	if err != nil {
		t.Fatalf("second Build: %v", err)
	}
	// Archives always re-render; the 4 documents and the static file skip.
	if second.Rendered != 5 {
		t.Fatalf("second build Rendered = %d, want 5", second.Rendered)
	}
	if second.Skipped != 5 {
		t.Fatalf("second build Skipped = %d, want 5", second.Skipped)
	}
	if second.Copied != 0 {
		t.Fatalf("second build Copied = %d, want 0", second.Copied)
	}
}

func TestBuildIncrementalRerendersChangedDocument(t *testing.T) {
	outDir := t.TempDir()
	fsys := generatorSite()
	svc := newTestGenerator(t, fsys, outDir, nil, nil, nil)
	ctx := context.Background()

	if _, err := svc.Build(ctx, interfaces.BuildOptions{Incremental: true}); err != nil {
		t.Fatalf("first Build: %v", err)
	}

	fsys["_posts/2015-04-02-active-record-basics.md"] = &fstest.MapFile{
		Data: []byte(`---
layout: post
title: "Active Record Basics"
---
Models wrap database rows. Migrations evolve the schema.
`),
	}

	second, err := svc.Build(ctx, interfaces.BuildOptions{Incremental: true})
	if err != nil {
		t.Fatalf("second Build: %v", err)
	}
	// One document re-renders alongside the 5 archive pages.
	if second.Rendered != 6 {
		t.Fatalf("Rendered = %d, want 6", second.Rendered)
	}
	if second.Skipped != 4 {
		t.Fatalf("Skipped = %d, want 4", second.Skipped)
	}

	post := readOutput(t, outDir, "2015/04/02/active-record-basics/index.html")
	if !strings.Contains(post, "Migrations evolve the schema.") {
		t.Fatalf("changed post not re-rendered:\n%s", post)
	}
}

func TestBuildDraftsOption(t *testing.T) {
	outDir := t.TempDir()
	svc := newTestGenerator(t, generatorSite(), outDir, nil, nil, nil)

	result, err := svc.Build(context.Background(), interfaces.BuildOptions{Drafts: true})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	// 4 posts + about, 2 home pages, 3 categories.
	if result.Rendered != 10 {
		t.Fatalf("Rendered = %d, want 10", result.Rendered)
	}

	draft := readOutput(t, outDir, "2015/06/10/caching-strategies/index.html")
	if !strings.Contains(draft, "Fragment caching") {
		t.Fatalf("draft not rendered:\n%s", draft)
	}
}

func TestBuildAbortsOnURLConflict(t *testing.T) {
	fsys := generatorSite()
	fsys["_posts/2015-06-01-first.md"] = &fstest.MapFile{
		Data: []byte("---\ntitle: First\npermalink: /duplicate/\n---\nOne.\n"),
	}
	fsys["_posts/2015-06-02-second.md"] = &fstest.MapFile{
		Data: []byte("---\ntitle: Second\npermalink: /duplicate/\n---\nTwo.\n"),
	}

	outDir := t.TempDir()
	svc := newTestGenerator(t, fsys, outDir, nil, nil, nil)

	_, err := svc.Build(context.Background(), interfaces.BuildOptions{})
	var conflict *ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected ConflictError, got %v", err)
	}
	if len(conflict.Issues) == 0 {
		t.Fatal("conflict error carries no issues")
	}

	entries, err := os.ReadDir(outDir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("conflicting build wrote output: %v", entries)
	}
}

func TestBuildConcurrentWorkers(t *testing.T) {
	outDir := t.TempDir()
	svc := newTestGenerator(t, generatorSite(), outDir, nil, func(cfg *Config) {
		cfg.Workers = 4
	}, nil)

	result, err := svc.Build(context.Background(), interfaces.BuildOptions{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if result.Rendered != 9 {
		t.Fatalf("Rendered = %d, want 9", result.Rendered)
	}
}

func TestBuildCleanBuildRemovesStaleOutput(t *testing.T) {
	outDir := t.TempDir()
	stale := filepath.Join(outDir, "stale.html")
	if err := os.WriteFile(stale, []byte("old"), 0o644); err != nil {
		t.Fatalf("seed stale file: %v", err)
	}

	svc := newTestGenerator(t, generatorSite(), outDir, nil, func(cfg *Config) {
		cfg.CleanBuild = true
	}, nil)

	if _, err := svc.Build(context.Background(), interfaces.BuildOptions{}); err != nil {
		t.Fatalf("Build: %v", err)
	}

	if _, err := os.Stat(stale); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("stale file survived clean build: %v", err)
	}
	if home := readOutput(t, outDir, "index.html"); !strings.Contains(home, "Nested Resources") {
		t.Fatalf("clean build did not render site:\n%s", home)
	}
}

func TestBuildWithTheme(t *testing.T) {
	fsys := generatorSite()
	fsys["_layouts/default.html"] = &fstest.MapFile{
		Data: []byte(`<!DOCTYPE html>
<html><head><title>{{ .Site.Title }}</title>
<link rel="stylesheet" href="{{ .Theme.AssetURL "assets/css/minim.css" }}">
</head><body>{{ .Content }}</body></html>
`),
	}
	themesFS := fstest.MapFS{
		"minim/theme.json": &fstest.MapFile{Data: []byte(`{
			"name": "minim",
			"version": "1.2.0",
			"assets": {
				"base_path": "assets",
				"styles": ["css/minim.css"],
				"scripts": ["js/minim.js"]
			}
		}`)},
		"minim/assets/css/minim.css": &fstest.MapFile{Data: []byte("body { color: #333; }")},
		"minim/assets/js/minim.js":   &fstest.MapFile{Data: []byte("console.log('minim');")},
	}

	outDir := t.TempDir()
	svc := newTestGenerator(t, fsys, outDir,
		func(cfg *site.Config) { cfg.Theme = "minim" },
		nil,
		func(deps *Dependencies) { deps.Themes = themes.NewService(themesFS) },
	)

	result, err := svc.Build(context.Background(), interfaces.BuildOptions{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	// Site css plus the theme's two assets.
	if result.Copied != 3 {
		t.Fatalf("Copied = %d, want 3", result.Copied)
	}

	if css := readOutput(t, outDir, "assets/themes/minim/assets/css/minim.css"); !strings.Contains(css, "#333") {
		t.Fatalf("theme css not copied:\n%s", css)
	}
	home := readOutput(t, outDir, "index.html")
	if !strings.Contains(home, `href="/assets/themes/minim/assets/css/minim.css"`) {
		t.Fatalf("layout missing theme asset link:\n%s", home)
	}
}

func TestBuildFileRebuildsSingleDocument(t *testing.T) {
	outDir := t.TempDir()
	fsys := generatorSite()
	svc := newTestGenerator(t, fsys, outDir, nil, nil, nil)
	ctx := context.Background()

	if _, err := svc.Build(ctx, interfaces.BuildOptions{}); err != nil {
		t.Fatalf("Build: %v", err)
	}

	fsys["_posts/2015-04-02-active-record-basics.md"] = &fstest.MapFile{
		Data: []byte("---\nlayout: post\ntitle: \"Active Record Basics\"\n---\nValidations guard writes.\n"),
	}

	result, err := svc.BuildFile(ctx, "_posts/2015-04-02-active-record-basics.md")
	if err != nil {
		t.Fatalf("BuildFile: %v", err)
	}
	if result.Rendered != 1 || result.Copied != 0 {
		t.Fatalf("rendered=%d copied=%d, want 1/0", result.Rendered, result.Copied)
	}

	post := readOutput(t, outDir, "2015/04/02/active-record-basics/index.html")
	if !strings.Contains(post, "Validations guard writes.") {
		t.Fatalf("BuildFile did not refresh output:\n%s", post)
	}
}

func TestBuildFileCopiesStatic(t *testing.T) {
	outDir := t.TempDir()
	svc := newTestGenerator(t, generatorSite(), outDir, nil, nil, nil)

	result, err := svc.BuildFile(context.Background(), "assets/css/main.css")
	if err != nil {
		t.Fatalf("BuildFile: %v", err)
	}
	if result.Copied != 1 || result.Rendered != 0 {
		t.Fatalf("rendered=%d copied=%d, want 0/1", result.Rendered, result.Copied)
	}
	if css := readOutput(t, outDir, "assets/css/main.css"); !strings.Contains(css, "margin") {
		t.Fatalf("static file not copied:\n%s", css)
	}
}

func TestBuildFileUntracked(t *testing.T) {
	svc := newTestGenerator(t, generatorSite(), t.TempDir(), nil, nil, nil)

	_, err := svc.BuildFile(context.Background(), "_layouts/default.html")
	if !errors.Is(err, ErrNotTracked) {
		t.Fatalf("expected ErrNotTracked, got %v", err)
	}
}

func TestCleanRemovesOutput(t *testing.T) {
	outDir := t.TempDir()
	svc := newTestGenerator(t, generatorSite(), outDir, nil, nil, nil)
	ctx := context.Background()

	if _, err := svc.Build(ctx, interfaces.BuildOptions{}); err != nil {
		t.Fatalf("Build: %v", err)
	}
	if err := svc.Clean(ctx); err != nil {
		t.Fatalf("Clean: %v", err)
	}
	if _, err := os.Stat(outDir); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("output dir survived Clean: %v", err)
	}
}

func TestCleanRefusesUnsafeRoot(t *testing.T) {
	for _, root := range []string{"", ".", "/"} {
		svc := newTestGenerator(t, generatorSite(), t.TempDir(), nil, func(cfg *Config) {
			cfg.OutputDir = root
		}, nil)
		if err := svc.Clean(context.Background()); err == nil {
			t.Fatalf("Clean accepted unsafe root %q", root)
		}
	}
}

func TestDisabledService(t *testing.T) {
	svc := NewDisabledService()
	if _, err := svc.Build(context.Background(), interfaces.BuildOptions{}); !errors.Is(err, ErrServiceDisabled) {
		t.Fatalf("Build error = %v, want ErrServiceDisabled", err)
	}
	if err := svc.Clean(context.Background()); !errors.Is(err, ErrServiceDisabled) {
		t.Fatalf("Clean error = %v, want ErrServiceDisabled", err)
	}
}
