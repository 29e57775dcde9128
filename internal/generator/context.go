package generator

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/brandall10/brandall10.github.io/internal/layouts"
	"github.com/brandall10/brandall10.github.io/internal/site"
	"github.com/brandall10/brandall10.github.io/internal/themes"
	"github.com/brandall10/brandall10.github.io/pkg/interfaces"
	gotheme "github.com/goliatone/go-theme"
	"gopkg.in/yaml.v3"
)

// Layout names assumed when a document's front matter does not declare one.
// A missing default is not an error; the document then renders bare.
const (
	defaultPostLayout = "post"
	defaultPageLayout = "page"
	categoryLayout    = "category"
)

// BuildContext aggregates everything a build pass needs: the filtered
// collections, per-document render units, the active theme, and the lookup
// tables content tags resolve through.
type BuildContext struct {
	GeneratedAt time.Time
	// Site is the effective configuration for this run, with any base URL
	// override already applied.
	Site    site.Config
	SiteCtx layouts.SiteContext

	Posts      []*interfaces.Post
	Pages      []*interfaces.Page
	Categories []*interfaces.Category
	// AllPosts is the unfiltered post list (drafts, future, unpublished
	// included) used to sync the content index and plan publish jobs. It is
	// nil when neither consumer is wired.
	AllPosts []*interfaces.Post
	AllPages []*interfaces.Page

	// Documents are the render units for this run. When pagination is on,
	// the home page is pulled out into Home and rendered once per paginator
	// page instead.
	Documents []*DocumentData
	Home      *DocumentData

	Theme       *themes.Theme
	ThemeCtx    layouts.ThemeContext
	ThemeAssets []string

	ConfigHash string
	Options    interfaces.BuildOptions
	Issues     []interfaces.ValidationIssue

	postsBySlug map[string]*interfaces.Post
	urlByStem   map[string]string
	urlBySource map[string]string
}

// DocumentData is one document resolved for rendering: exactly one of Post
// or Page is set.
type DocumentData struct {
	Post *interfaces.Post
	Page *interfaces.Page
	// Layout is the resolved layout name; empty means the document renders
	// without a layout chain.
	Layout   string
	URL      string
	Metadata DependencyMetadata
}

// Document returns the underlying document regardless of collection.
func (d *DocumentData) Document() interfaces.Document {
	if d.Post != nil {
		return d.Post.Document
	}
	if d.Page != nil {
		return d.Page.Document
	}
	return interfaces.Document{}
}

// DependencyMetadata tracks the inputs a rendered document depends on.
// Sources maps a dependency name to a digestible description of its state;
// Hash folds them into one value the manifest compares across builds.
type DependencyMetadata struct {
	Sources      map[string]string
	Hash         string
	LastModified time.Time
}

func (s *service) loadContext(ctx context.Context, opts interfaces.BuildOptions) (*BuildContext, error) {
	siteCfg := s.deps.Site
	if override := firstNonEmpty(strings.TrimSpace(opts.BaseURL), strings.TrimSpace(s.cfg.BaseURL)); override != "" {
		siteCfg.URL = override
	}

	loadOpts := interfaces.LoadOptions{
		Drafts:      opts.Drafts,
		Future:      opts.Future,
		Unpublished: opts.Unpublished,
	}

	postList, err := s.deps.Posts.Posts(ctx, loadOpts)
	if err != nil {
		return nil, err
	}
	pageList, err := s.deps.Posts.Pages(ctx, loadOpts)
	if err != nil {
		return nil, err
	}
	categories, err := s.deps.Posts.Categories(ctx, loadOpts)
	if err != nil {
		return nil, err
	}

	buildCtx := &BuildContext{
		GeneratedAt: s.now(),
		Site:        siteCfg,
		Posts:       postList,
		Pages:       pageList,
		Categories:  categories,
		ConfigHash:  configFingerprint(siteCfg),
		Options:     opts,
		postsBySlug: make(map[string]*interfaces.Post, len(postList)),
		urlByStem:   make(map[string]string, len(postList)),
		urlBySource: make(map[string]string, len(postList)+len(pageList)),
	}

	for _, post := range postList {
		buildCtx.postsBySlug[post.Slug] = post
		buildCtx.urlByStem[sourceStem(post.SourcePath)] = post.URL
		buildCtx.urlBySource[post.SourcePath] = post.URL
	}
	for _, page := range pageList {
		buildCtx.urlBySource[page.SourcePath] = page.URL
	}

	// The index and the publish planner want to see everything, including
	// the posts this run filters out.
	if s.deps.Index != nil || s.deps.Planner != nil {
		allOpts := interfaces.LoadOptions{Drafts: true, Future: true, Unpublished: true}
		buildCtx.AllPosts, err = s.deps.Posts.Posts(ctx, allOpts)
		if err != nil {
			return nil, err
		}
		buildCtx.AllPages, err = s.deps.Posts.Pages(ctx, allOpts)
		if err != nil {
			return nil, err
		}
	}

	if err := s.resolveTheme(buildCtx); err != nil {
		return nil, err
	}

	buildCtx.SiteCtx = layouts.NewSiteContext(siteCfg, buildCtx.GeneratedAt)
	buildCtx.SiteCtx.Posts = postList
	buildCtx.SiteCtx.Pages = pageList
	buildCtx.SiteCtx.Categories = categories

	if err := s.resolveNavigation(buildCtx); err != nil {
		return nil, err
	}

	if err := s.collectDocuments(buildCtx); err != nil {
		return nil, err
	}
	return buildCtx, nil
}

// collectDocuments turns the loaded collections into render units with
// resolved layouts and dependency metadata. With pagination on, the home
// page moves aside so the paginator can render it once per page.
func (s *service) collectDocuments(buildCtx *BuildContext) error {
	for _, post := range buildCtx.Posts {
		data, err := s.documentData(buildCtx, post.Document, post.URL, defaultPostLayout)
		if err != nil {
			return err
		}
		data.Post = post
		data.Metadata = postMetadata(data.Metadata, post)
		buildCtx.Documents = append(buildCtx.Documents, data)
	}

	for _, page := range buildCtx.Pages {
		data, err := s.documentData(buildCtx, page.Document, page.URL, defaultPageLayout)
		if err != nil {
			return err
		}
		data.Page = page
		if buildCtx.Site.Paginate > 0 && page.URL == "/" && buildCtx.Home == nil {
			buildCtx.Home = data
			continue
		}
		buildCtx.Documents = append(buildCtx.Documents, data)
	}
	return nil
}

func (s *service) documentData(buildCtx *BuildContext, doc interfaces.Document, url, fallbackLayout string) (*DocumentData, error) {
	layout, issue := s.resolveLayout(doc, fallbackLayout)
	if issue != nil {
		buildCtx.Issues = append(buildCtx.Issues, *issue)
	}

	meta, err := s.documentMetadata(buildCtx, doc, url, layout)
	if err != nil {
		return nil, err
	}

	return &DocumentData{Layout: layout, URL: url, Metadata: meta}, nil
}

// resolveLayout maps a document's declared layout onto a loaded one. An
// explicit "none" renders bare, matching the conventional front matter
// spelling; a declared layout that does not exist is reported and the
// document falls back to a bare render rather than failing the build.
func (s *service) resolveLayout(doc interfaces.Document, fallback string) (string, *interfaces.ValidationIssue) {
	layout := strings.TrimSpace(doc.Layout)
	switch layout {
	case "none", "nil", "null":
		return "", nil
	case "":
		if s.deps.Layouts.HasLayout(fallback) {
			return fallback, nil
		}
		return "", nil
	}

	if !s.deps.Layouts.HasLayout(layout) {
		return "", &interfaces.ValidationIssue{
			SourcePath: doc.SourcePath,
			Field:      "layout",
			Message:    fmt.Sprintf("layout %q not found", layout),
		}
	}
	return layout, nil
}

func (s *service) documentMetadata(buildCtx *BuildContext, doc interfaces.Document, url, layout string) (DependencyMetadata, error) {
	fingerprint, err := s.deps.Layouts.Fingerprint(layout)
	if err != nil {
		return DependencyMetadata{}, fmt.Errorf("generator: fingerprint layout %q for %s: %w", layout, doc.SourcePath, err)
	}

	sources := map[string]string{
		"source": joinParts(
			doc.SourcePath,
			hex.EncodeToString(doc.Checksum),
			doc.LastModified.UTC().Format(time.RFC3339Nano),
		),
		"layout": joinParts(layout, fingerprint),
		"config": buildCtx.ConfigHash,
		"url":    url,
	}
	if buildCtx.Theme != nil {
		sources["theme"] = joinParts(buildCtx.Theme.Name, buildCtx.Theme.Version)
	}

	return DependencyMetadata{
		Sources:      sources,
		Hash:         hashSources(sources),
		LastModified: doc.LastModified,
	}, nil
}

// postMetadata extends the shared document metadata with the neighbour
// links a post layout renders, so a post is rebuilt when the posts around
// it change.
func postMetadata(meta DependencyMetadata, post *interfaces.Post) DependencyMetadata {
	if meta.Sources == nil {
		meta.Sources = map[string]string{}
	}
	meta.Sources["neighbours"] = joinParts(post.Next, post.Previous)
	meta.Hash = hashSources(meta.Sources)
	return meta
}

func (s *service) resolveTheme(buildCtx *BuildContext) error {
	if s.deps.Themes == nil || strings.TrimSpace(buildCtx.Site.Theme) == "" {
		return nil
	}

	theme, err := s.deps.Themes.Resolve(buildCtx.Site.Theme)
	if err != nil {
		return fmt.Errorf("generator: resolve theme: %w", err)
	}
	if theme == nil {
		return nil
	}

	selection, err := s.deps.Themes.Selection(theme, buildCtx.Site.ThemeVariant)
	if err != nil {
		return fmt.Errorf("generator: select theme variant: %w", err)
	}
	assets, err := s.deps.Themes.Assets(theme, selection)
	if err != nil {
		return fmt.Errorf("generator: enumerate theme assets: %w", err)
	}

	buildCtx.Theme = theme
	buildCtx.ThemeAssets = assets
	buildCtx.ThemeCtx = themeContext(buildCtx.Site, theme, selection)
	return nil
}

// themeContext maps a theme selection into template data. Asset URLs point
// at the copied location under the output tree and honour the base URL.
func themeContext(cfg site.Config, theme *themes.Theme, selection *gotheme.Selection) layouts.ThemeContext {
	ctx := layouts.ThemeContext{
		Name:    theme.Name,
		Variant: cfg.ThemeVariant,
		Tokens:  map[string]string{},
		CSSVars: map[string]string{},
	}
	if selection != nil {
		ctx.Variant = selection.Variant
		ctx.Tokens = selection.Tokens()
		ctx.CSSVars = selection.CSSVariables("")
	}
	name := theme.Name
	ctx.AssetURL = func(asset string) string {
		asset = strings.TrimSpace(asset)
		if selection != nil {
			if resolved, err := selection.Asset(asset); err == nil && strings.TrimSpace(resolved) != "" {
				asset = resolved
			}
		}
		asset = strings.TrimLeft(asset, "/")
		if asset == "" {
			return ""
		}
		return cfg.RelativeURL(path.Join("assets", "themes", name, asset))
	}
	return ctx
}

func (s *service) resolveNavigation(buildCtx *BuildContext) error {
	if s.deps.Navigation == nil {
		return nil
	}
	links, err := s.deps.Navigation.Links()
	if err != nil {
		return fmt.Errorf("generator: resolve navigation: %w", err)
	}
	navLinks := make([]layouts.NavLink, 0, len(links))
	for _, link := range links {
		navLinks = append(navLinks, layouts.NavLink{Title: link.Title, URL: link.URL})
	}
	buildCtx.SiteCtx.Navigation = navLinks
	return nil
}

// ResolvePostURL maps a post's source file stem, "2016-02-01-why-rails",
// onto its published URL. Content tags look posts up this way.
func (c *BuildContext) ResolvePostURL(name string) (string, error) {
	name = strings.TrimSpace(name)
	if url, ok := c.urlByStem[name]; ok {
		return url, nil
	}
	if post, ok := c.postsBySlug[name]; ok {
		return post.URL, nil
	}
	return "", fmt.Errorf("generator: post %q not found", name)
}

// ResolveLink maps a source path, "about.md", onto its published URL.
func (c *BuildContext) ResolveLink(source string) (string, error) {
	source = strings.TrimPrefix(strings.TrimSpace(source), "/")
	if url, ok := c.urlBySource[source]; ok {
		return url, nil
	}
	return "", fmt.Errorf("generator: page %q not found", source)
}

// configFingerprint digests the effective site configuration. A config edit
// invalidates every document on the next incremental build.
func configFingerprint(cfg site.Config) string {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		data = []byte(fmt.Sprintf("%+v", cfg))
	}
	return computeHash(data)
}

func sourceStem(sourcePath string) string {
	base := path.Base(sourcePath)
	return strings.TrimSuffix(base, path.Ext(base))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func joinParts(parts ...string) string {
	return strings.Join(parts, "|")
}

func hashSources(sources map[string]string) string {
	if len(sources) == 0 {
		return ""
	}
	keys := make([]string, 0, len(sources))
	for key := range sources {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	hasher := sha256.New()
	for _, key := range keys {
		hasher.Write([]byte(key))
		hasher.Write([]byte("="))
		hasher.Write([]byte(sources[key]))
		hasher.Write([]byte{0})
	}
	return hex.EncodeToString(hasher.Sum(nil))
}
