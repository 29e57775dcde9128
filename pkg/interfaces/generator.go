package interfaces

import (
	"context"
	"time"
)

// BuildOptions widens or narrows a single generator run. The zero value is a
// production build: published posts only, full rebuild.
type BuildOptions struct {
	// Drafts, Future, and Unpublished widen the publish filter the same way
	// the load options do.
	Drafts      bool
	Future      bool
	Unpublished bool
	// Incremental skips documents whose dependency hash matches the build
	// manifest from the previous run.
	Incremental bool
	// BaseURL overrides the configured site URL for this build, so a local
	// preview can generate absolute links against the dev server.
	BaseURL string
}

// BuildResult reports what a generator run produced.
type BuildResult struct {
	// Rendered counts HTML documents written: posts, pages, and archive
	// pages. Skipped counts documents and assets left untouched by an
	// incremental build. Copied counts static files and theme assets.
	Rendered int
	Skipped  int
	Copied   int
	// Issues carries non-fatal content problems found during the run. URL
	// conflicts are fatal and abort the build instead.
	Issues    []ValidationIssue
	Duration  time.Duration
	OutputDir string
}

// SiteGenerator builds the static site from its sources.
type SiteGenerator interface {
	// Build runs the full pipeline: load, validate, render, archives,
	// feeds, sitemap, assets, manifest.
	Build(ctx context.Context, opts BuildOptions) (*BuildResult, error)
	// BuildFile rebuilds the single document or static file at sourcePath,
	// leaving aggregate outputs (archives, feeds, sitemap) alone.
	BuildFile(ctx context.Context, sourcePath string) (*BuildResult, error)
	// Clean removes the output directory and with it the build manifest.
	Clean(ctx context.Context) error
}
