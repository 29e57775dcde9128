// Package generator renders the loaded site into its publishable form:
// documents through their layout chains, archive and category listings,
// feeds, sitemap, and static assets, tracked by a build manifest so
// incremental runs only touch what changed.
package generator

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/brandall10/brandall10.github.io/internal/index"
	"github.com/brandall10/brandall10.github.io/internal/logging"
	"github.com/brandall10/brandall10.github.io/internal/navigation"
	"github.com/brandall10/brandall10.github.io/internal/posts"
	"github.com/brandall10/brandall10.github.io/internal/site"
	"github.com/brandall10/brandall10.github.io/internal/themes"
	"github.com/brandall10/brandall10.github.io/pkg/interfaces"
)

var (
	// ErrServiceDisabled indicates the generator feature is disabled.
	ErrServiceDisabled = errors.New("generator: service disabled")
	// ErrNotTracked indicates a single-file build was asked for a path that
	// is neither a document nor a static file. Callers fall back to a full
	// build; layout and include edits land here.
	ErrNotTracked = errors.New("generator: source file not tracked")

	errLayoutEngineRequired = errors.New("generator: layout engine is required")
	errMarkdownRequired     = errors.New("generator: markdown renderer is required")
	errPostServiceRequired  = errors.New("generator: post service is required")
)

// Service describes the static site generator contract.
type Service interface {
	Build(ctx context.Context, opts interfaces.BuildOptions) (*interfaces.BuildResult, error)
	BuildFile(ctx context.Context, sourcePath string) (*interfaces.BuildResult, error)
	Clean(ctx context.Context) error
}

// Config captures runtime behaviour toggles for the generator.
type Config struct {
	OutputDir       string
	BaseURL         string
	CleanBuild      bool
	Incremental     bool
	CopyStatic      bool
	GenerateSitemap bool
	GenerateRobots  bool
	GenerateFeeds   bool
	FeedLimit       int
	Workers         int
}

// LayoutEngine is the slice of the layout engine the generator needs.
type LayoutEngine interface {
	interfaces.TemplateRenderer
	HasLayout(name string) bool
	Fingerprint(name string) (string, error)
}

// PublishPlanner schedules publish jobs for posts dated in the future.
type PublishPlanner interface {
	Plan(ctx context.Context, posts []*interfaces.Post) (int, error)
}

// Dependencies lists the services required by the generator. Posts, Layouts
// and Markdown are mandatory; the rest degrade to skipped features.
type Dependencies struct {
	Site       site.Config
	Source     fs.FS
	Loader     *posts.Loader
	Posts      interfaces.PostService
	Layouts    LayoutEngine
	Markdown   interfaces.MarkdownRenderer
	Tags       interfaces.TagService
	Themes     *themes.Service
	Navigation *navigation.Service
	Storage    interfaces.StorageProvider
	Index      index.Service
	Planner    PublishPlanner
}

// ConflictError aborts a build whose documents would overwrite each other.
type ConflictError struct {
	Issues []interfaces.ValidationIssue
}

func (e *ConflictError) Error() string {
	if len(e.Issues) == 1 {
		return fmt.Sprintf("generator: %s", e.Issues[0].String())
	}
	return fmt.Sprintf("generator: %d URL conflicts, first: %s", len(e.Issues), e.Issues[0].String())
}

// Option configures the generator service.
type Option func(*service)

// WithLogger sets the service logger.
func WithLogger(logger interfaces.Logger) Option {
	return func(s *service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock overrides the time source.
func WithClock(clock func() time.Time) Option {
	return func(s *service) {
		if clock != nil {
			s.now = clock
		}
	}
}

// NewService wires a generator with the provided configuration and
// dependencies.
func NewService(cfg Config, deps Dependencies, opts ...Option) Service {
	s := &service{
		cfg:    cfg,
		deps:   deps,
		logger: logging.NoOp(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewDisabledService returns a Service that fails all operations with
// ErrServiceDisabled.
func NewDisabledService() Service {
	return disabledService{}
}

type service struct {
	cfg    Config
	deps   Dependencies
	logger interfaces.Logger
	now    func() time.Time
}

type disabledService struct{}

func (s *service) Build(ctx context.Context, opts interfaces.BuildOptions) (*interfaces.BuildResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.checkDeps(); err != nil {
		return nil, err
	}

	start := time.Now()
	result := &interfaces.BuildResult{OutputDir: s.cfg.OutputDir}

	loadOpts := interfaces.LoadOptions{
		Drafts:      opts.Drafts,
		Future:      opts.Future,
		Unpublished: opts.Unpublished,
	}
	issues, err := s.deps.Posts.Validate(ctx, loadOpts)
	if err != nil {
		return nil, err
	}
	var conflicts []interfaces.ValidationIssue
	for _, issue := range issues {
		if issue.Conflict != "" {
			conflicts = append(conflicts, issue)
		}
	}
	// Conflicting URLs would silently clobber each other on disk, so they
	// stop the build before anything is written.
	if len(conflicts) > 0 {
		return nil, &ConflictError{Issues: conflicts}
	}
	result.Issues = append(result.Issues, issues...)
	for _, issue := range issues {
		s.logger.Warn("generator.validation_issue", "issue", issue.String())
	}

	buildCtx, err := s.loadContext(ctx, opts)
	if err != nil {
		return nil, err
	}
	result.Issues = append(result.Issues, buildCtx.Issues...)

	s.syncIndex(ctx, buildCtx)

	var errorsSlice []error

	if s.cfg.CleanBuild {
		if err := s.Clean(ctx); err != nil {
			return nil, err
		}
	}

	var manifest *buildManifest
	if s.cfg.CleanBuild {
		manifest = newBuildManifest()
	} else {
		var manifestErr error
		manifest, manifestErr = s.loadManifest(ctx)
		if manifestErr != nil {
			errorsSlice = append(errorsSlice, manifestErr)
			manifest = newBuildManifest()
		}
	}

	incremental := (opts.Incremental || s.cfg.Incremental) && !s.cfg.CleanBuild

	var (
		mu       sync.Mutex
		rendered []renderOutcome
		docKeys  = map[string]struct{}{}
	)
	collect := func(outcome renderOutcome) {
		mu.Lock()
		defer mu.Unlock()
		if outcome.data != nil {
			docKeys[documentKey(outcome.data.Document().ID)] = struct{}{}
		}
		if outcome.err != nil {
			errorsSlice = append(errorsSlice, outcome.err)
			return
		}
		if outcome.skipped {
			result.Skipped++
			return
		}
		result.Rendered++
		rendered = append(rendered, outcome)
	}

	groups := groupDocuments(buildCtx.Documents)
	workerCount := s.effectiveWorkerCount(len(groups))
	if workerCount <= 1 || len(buildCtx.Documents) <= 1 {
		for _, data := range buildCtx.Documents {
			select {
			case <-ctx.Done():
				return result, ctx.Err()
			default:
				collect(s.renderDocument(ctx, buildCtx, data, manifest, incremental))
			}
		}
	} else {
		s.renderConcurrently(ctx, buildCtx, groups, workerCount, manifest, incremental, collect)
	}

	writer := newArtifactWriter(s.deps.Storage, s.cfg.OutputDir)
	dirCache := map[string]struct{}{}

	if err := s.persistDocuments(ctx, writer, dirCache, rendered, incremental); err != nil {
		errorsSlice = append(errorsSlice, err)
	}

	archiveURLs, archiveCount, err := s.buildArchives(ctx, writer, dirCache, buildCtx)
	if err != nil {
		errorsSlice = append(errorsSlice, err)
	}
	result.Rendered += archiveCount

	if s.cfg.GenerateFeeds {
		if err := s.writeFeeds(ctx, writer, dirCache, buildCtx); err != nil {
			errorsSlice = append(errorsSlice, err)
		}
	}
	if s.cfg.GenerateSitemap {
		if err := s.writeSitemap(ctx, writer, dirCache, buildCtx, archiveURLs); err != nil {
			errorsSlice = append(errorsSlice, err)
		}
	}
	if s.cfg.GenerateRobots {
		if err := s.writeRobots(ctx, writer, dirCache, buildCtx); err != nil {
			errorsSlice = append(errorsSlice, err)
		}
	}

	assetKeys := map[string]struct{}{}
	if s.cfg.CopyStatic {
		summary, err := s.copyStatic(ctx, writer, dirCache, manifest, incremental, assetKeys)
		if err != nil {
			errorsSlice = append(errorsSlice, err)
		}
		result.Copied += summary.Copied
		result.Skipped += summary.Skipped
	}
	themeSummary, err := s.copyThemeAssets(ctx, writer, dirCache, buildCtx, manifest, incremental, assetKeys)
	if err != nil {
		errorsSlice = append(errorsSlice, err)
	}
	result.Copied += themeSummary.Copied
	result.Skipped += themeSummary.Skipped

	// The manifest only advances on clean builds; a failed run must not
	// teach later incremental runs to skip broken documents.
	if len(errorsSlice) == 0 {
		manifest.GeneratedAt = buildCtx.GeneratedAt
		manifest.ConfigHash = buildCtx.ConfigHash
		for _, outcome := range rendered {
			doc := outcome.data.Document()
			manifest.setDocument(manifestDocument{
				ID:           doc.ID.String(),
				Source:       doc.SourcePath,
				Collection:   string(doc.Collection),
				URL:          outcome.data.URL,
				Output:       outcome.output,
				Layout:       outcome.data.Layout,
				Hash:         outcome.data.Metadata.Hash,
				Checksum:     outcome.checksum,
				LastModified: outcome.data.Metadata.LastModified,
				RenderedAt:   buildCtx.GeneratedAt,
			})
		}
		manifest.pruneDocuments(docKeys)
		manifest.pruneAssets(assetKeys)
		if err := s.persistManifest(ctx, writer, manifest); err != nil {
			errorsSlice = append(errorsSlice, err)
		}
	}

	result.Duration = time.Since(start)
	s.recordBuild(ctx, buildCtx, result, errorsSlice)

	if len(errorsSlice) > 0 {
		return result, errors.Join(errorsSlice...)
	}

	s.logger.Info("generator.build_complete",
		"rendered", result.Rendered,
		"skipped", result.Skipped,
		"copied", result.Copied,
		"issues", len(result.Issues),
		"duration", result.Duration,
	)
	return result, nil
}

// BuildFile re-renders the single document backed by sourcePath, or re-copies
// it when it is a static file. Archive pages are refreshed when the home page
// itself changed. Layout and include edits are not attributable to one
// output; those return ErrNotTracked.
func (s *service) BuildFile(ctx context.Context, sourcePath string) (*interfaces.BuildResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.checkDeps(); err != nil {
		return nil, err
	}

	sourcePath = path.Clean(strings.TrimPrefix(filepath.ToSlash(strings.TrimSpace(sourcePath)), "./"))
	if sourcePath == "" || sourcePath == "." {
		return nil, fmt.Errorf("generator: source path is required")
	}

	start := time.Now()
	result := &interfaces.BuildResult{OutputDir: s.cfg.OutputDir}

	buildCtx, err := s.loadContext(ctx, interfaces.BuildOptions{})
	if err != nil {
		return nil, err
	}

	manifest, err := s.loadManifest(ctx)
	if err != nil {
		manifest = newBuildManifest()
	}
	writer := newArtifactWriter(s.deps.Storage, s.cfg.OutputDir)
	dirCache := map[string]struct{}{}

	var target *DocumentData
	for _, data := range buildCtx.Documents {
		if data.Document().SourcePath == sourcePath {
			target = data
			break
		}
	}

	switch {
	case target != nil:
		outcome := s.renderDocument(ctx, buildCtx, target, manifest, false)
		if outcome.err != nil {
			return nil, outcome.err
		}
		if err := s.persistDocuments(ctx, writer, dirCache, []renderOutcome{outcome}, false); err != nil {
			return nil, err
		}
		result.Rendered = 1

		doc := target.Document()
		manifest.setDocument(manifestDocument{
			ID:           doc.ID.String(),
			Source:       doc.SourcePath,
			Collection:   string(doc.Collection),
			URL:          target.URL,
			Output:       outcome.output,
			Layout:       target.Layout,
			Hash:         target.Metadata.Hash,
			Checksum:     outcome.checksum,
			LastModified: target.Metadata.LastModified,
			RenderedAt:   buildCtx.GeneratedAt,
		})
		if err := s.persistManifest(ctx, writer, manifest); err != nil {
			return nil, err
		}

	case buildCtx.Home != nil && buildCtx.Home.Document().SourcePath == sourcePath:
		_, count, err := s.buildArchives(ctx, writer, dirCache, buildCtx)
		if err != nil {
			return nil, err
		}
		result.Rendered = count

	default:
		copied, err := s.buildStaticFile(ctx, writer, dirCache, manifest, sourcePath)
		if err != nil {
			return nil, err
		}
		if !copied {
			return nil, fmt.Errorf("%w: %s", ErrNotTracked, sourcePath)
		}
		if err := s.persistManifest(ctx, writer, manifest); err != nil {
			return nil, err
		}
		result.Copied = 1
	}

	result.Duration = time.Since(start)
	s.logger.Info("generator.file_built",
		"source", sourcePath,
		"rendered", result.Rendered,
		"copied", result.Copied,
		"duration", result.Duration,
	)
	return result, nil
}

// buildStaticFile force-copies one static source file. Returns false when the
// path is not in the static set.
func (s *service) buildStaticFile(ctx context.Context, writer artifactWriter, dirCache map[string]struct{}, manifest *buildManifest, sourcePath string) (bool, error) {
	if s.deps.Loader == nil || s.deps.Source == nil {
		return false, nil
	}
	files, err := s.deps.Loader.StaticFiles(ctx)
	if err != nil {
		return false, err
	}
	found := false
	for _, file := range files {
		if file == sourcePath {
			found = true
			break
		}
	}
	if !found {
		return false, nil
	}

	data, err := fs.ReadFile(s.deps.Source, sourcePath)
	if err != nil {
		return false, fmt.Errorf("generator: read static %s: %w", sourcePath, err)
	}
	checksum := computeHash(data)
	if err := s.writeAsset(ctx, writer, dirCache, collectionStatic, sourcePath, data, checksum, map[string]string{"source": sourcePath}); err != nil {
		return false, err
	}
	manifest.setAsset(manifestAsset{
		Key:      staticAssetKey(sourcePath),
		Source:   sourcePath,
		Output:   sourcePath,
		Checksum: checksum,
		Size:     int64(len(data)),
		CopiedAt: s.now(),
	})
	return true, nil
}

// Clean removes every build artifact beneath the output root.
func (s *service) Clean(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if s.deps.Storage != nil {
		if _, err := s.deps.Storage.Exec(ctx, storageOpRemove, "."); err != nil {
			return fmt.Errorf("generator: clean: %w", err)
		}
		s.logger.Info("generator.cleaned", "output_dir", s.cfg.OutputDir)
		return nil
	}

	root := strings.TrimSpace(s.cfg.OutputDir)
	switch root {
	case "", ".", "/":
		return fmt.Errorf("generator: refusing to clean %q", root)
	}
	if err := os.RemoveAll(root); err != nil {
		return fmt.Errorf("generator: clean %s: %w", root, err)
	}
	s.logger.Info("generator.cleaned", "output_dir", root)
	return nil
}

func (s *service) checkDeps() error {
	if s.deps.Posts == nil {
		return errPostServiceRequired
	}
	if s.deps.Layouts == nil {
		return errLayoutEngineRequired
	}
	if s.deps.Markdown == nil {
		return errMarkdownRequired
	}
	return nil
}

// syncIndex reconciles the content index and plans publish jobs. Both are
// observability concerns; failures log instead of failing the build.
func (s *service) syncIndex(ctx context.Context, buildCtx *BuildContext) {
	if s.deps.Index != nil {
		if res, err := s.deps.Index.Sync(ctx, buildCtx.AllPosts, buildCtx.AllPages); err != nil {
			s.logger.Warn("generator.index_sync_failed", "error", err)
		} else if res != nil {
			s.logger.Debug("generator.index_synced",
				"created", res.Created,
				"updated", res.Updated,
				"deleted", res.Deleted,
			)
		}
	}
	if s.deps.Planner != nil {
		if planned, err := s.deps.Planner.Plan(ctx, buildCtx.AllPosts); err != nil {
			s.logger.Warn("generator.publish_plan_failed", "error", err)
		} else if planned > 0 {
			s.logger.Debug("generator.publish_jobs_planned", "count", planned)
		}
	}
}

func (s *service) recordBuild(ctx context.Context, buildCtx *BuildContext, result *interfaces.BuildResult, errs []error) {
	if s.deps.Index == nil {
		return
	}
	record := index.BuildRecord{
		StartedAt:  buildCtx.GeneratedAt,
		FinishedAt: s.now(),
		Rendered:   result.Rendered,
		Skipped:    result.Skipped,
		Copied:     result.Copied,
	}
	if len(errs) > 0 {
		record.Error = errors.Join(errs...).Error()
	}
	if _, err := s.deps.Index.RecordBuild(ctx, record); err != nil {
		s.logger.Warn("generator.build_record_failed", "error", err)
	}
}

func (s *service) loadManifest(ctx context.Context) (*buildManifest, error) {
	data, err := readArtifact(ctx, s.deps.Storage, s.cfg.OutputDir, manifestFileName)
	if err != nil {
		return newBuildManifest(), fmt.Errorf("generator: read manifest: %w", err)
	}
	manifest, err := parseManifest(data)
	if err != nil {
		return newBuildManifest(), err
	}
	return manifest, nil
}

func (s *service) persistManifest(ctx context.Context, writer artifactWriter, manifest *buildManifest) error {
	if manifest == nil {
		return nil
	}
	data, err := manifest.marshal()
	if err != nil {
		return err
	}

	metadata := map[string]string{
		"version": strconv.Itoa(manifest.Version),
	}
	if !manifest.GeneratedAt.IsZero() {
		metadata["generated_at"] = manifest.GeneratedAt.UTC().Format(time.RFC3339)
	}
	return writer.WriteFile(ctx, writeFileRequest{
		Path:        manifestFileName,
		Content:     strings.NewReader(string(data)),
		Size:        int64(len(data)),
		Collection:  collectionManifest,
		ContentType: "application/json",
		Checksum:    computeHash(data),
		Metadata:    metadata,
	})
}

// effectiveWorkerCount caps the configured worker count at the CPU count and
// the number of renderable groups.
func (s *service) effectiveWorkerCount(groupCount int) int {
	workers := s.cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers < 1 {
		workers = 1
	}
	if groupCount > 0 && workers > groupCount {
		return groupCount
	}
	return workers
}

func (disabledService) Build(context.Context, interfaces.BuildOptions) (*interfaces.BuildResult, error) {
	return nil, ErrServiceDisabled
}

func (disabledService) BuildFile(context.Context, string) (*interfaces.BuildResult, error) {
	return nil, ErrServiceDisabled
}

func (disabledService) Clean(context.Context) error {
	return ErrServiceDisabled
}
