package blog

import (
	"context"

	sitecmd "github.com/brandall10/brandall10.github.io/internal/commands/site"
	"github.com/brandall10/brandall10.github.io/internal/di"
	"github.com/brandall10/brandall10.github.io/internal/generator"
	"github.com/brandall10/brandall10.github.io/internal/index"
	"github.com/brandall10/brandall10.github.io/internal/jobs"
	"github.com/brandall10/brandall10.github.io/internal/layouts"
	"github.com/brandall10/brandall10.github.io/internal/logging"
	"github.com/brandall10/brandall10.github.io/internal/navigation"
	"github.com/brandall10/brandall10.github.io/internal/server"
	"github.com/brandall10/brandall10.github.io/internal/site"
	"github.com/brandall10/brandall10.github.io/internal/themes"
	"github.com/brandall10/brandall10.github.io/internal/watch"
	"github.com/brandall10/brandall10.github.io/pkg/interfaces"
)

// PostService exports the content service contract for consumers of the blog package.
type PostService = interfaces.PostService

// GeneratorService exports the static site generator contract.
type GeneratorService = generator.Service

// IndexService exports the content index contract.
type IndexService = index.Service

// Scheduler exports the publish scheduler contract.
type Scheduler = interfaces.Scheduler

// PublishWorker exports the scheduled publish worker.
type PublishWorker = jobs.Worker

// ThemeService exports the theme pack service.
type ThemeService = themes.Service

// NavigationService exports the navigation resolver service.
type NavigationService = navigation.Service

// LayoutEngine exports the layout rendering engine.
type LayoutEngine = layouts.Engine

// CommandHandlers exports the site command handler set.
type CommandHandlers = sitecmd.HandlerSet

// Workspace exports the draft authoring workspace.
type Workspace = sitecmd.Workspace

// Watcher exports the rebuild-on-change watcher.
type Watcher = watch.Watcher

// Server exports the authoring HTTP server.
type Server = server.Server

// SiteConfig exports the parsed _config.yml model.
type SiteConfig = site.Config

// Post exports the rendered post model.
type Post = interfaces.Post

// Page exports the standalone page model.
type Page = interfaces.Page

// Category exports the category grouping model.
type Category = interfaces.Category

// PostStatus exports the publishing lifecycle states.
type PostStatus = interfaces.PostStatus

// Publishing lifecycle states reported on loaded posts.
const (
	PostStatusDraft     = interfaces.PostStatusDraft
	PostStatusFuture    = interfaces.PostStatusFuture
	PostStatusPublished = interfaces.PostStatusPublished
)

// LoadOptions exports the content listing options.
type LoadOptions = interfaces.LoadOptions

// BuildOptions exports the generator build options.
type BuildOptions = interfaces.BuildOptions

// BuildResult exports the generator build outcome.
type BuildResult = interfaces.BuildResult

// ValidationIssue exports a single source document problem.
type ValidationIssue = interfaces.ValidationIssue

// LoggerProvider exports the logging provider contract.
type LoggerProvider = interfaces.LoggerProvider

// Option exports the DI override hooks accepted by New.
type Option = di.Option

// Module represents the top level blog engine runtime façade.
type Module struct {
	container *di.Container
}

// New constructs a blog module using the provided configuration and optional DI overrides.
// The embedded SQL migrations are wired in by default; an explicit
// WithMigrationsFS override still wins because options apply in order.
func New(cfg Config, opts ...di.Option) (*Module, error) {
	opts = append([]di.Option{di.WithMigrationsFS(MigrationsFS())}, opts...)
	container, err := di.NewContainer(cfg, opts...)
	if err != nil {
		return nil, err
	}
	return &Module{container: container}, nil
}

// Container exposes the underlying DI container for advanced integrations.
func (m *Module) Container() *di.Container {
	return m.container
}

// SiteConfig returns the loaded site configuration.
func (m *Module) SiteConfig() SiteConfig {
	return m.container.SiteConfig()
}

// Posts returns the configured content service.
func (m *Module) Posts() PostService {
	return m.container.PostService()
}

// Validate runs the content gate over the site source: every document's
// front matter must parse and every expanded URL must be unique.
func (m *Module) Validate(ctx context.Context, opts LoadOptions) ([]ValidationIssue, error) {
	return m.container.PostService().Validate(ctx, opts)
}

// Logger returns the logging provider the module was assembled with. With
// the logger feature off it degrades to no-op loggers.
func (m *Module) Logger() LoggerProvider {
	if provider := m.container.LoggerProvider(); provider != nil {
		return provider
	}
	return logging.NoOpProvider()
}

// Generator returns the configured generator service.
func (m *Module) Generator() GeneratorService {
	return m.container.GeneratorService()
}

// Index returns the content index service.
func (m *Module) Index() IndexService {
	return m.container.IndexService()
}

// Scheduler returns the scheduler used for publish automation.
func (m *Module) Scheduler() Scheduler {
	return m.container.Scheduler()
}

// Worker returns the scheduled publish worker; nil when scheduling is disabled.
func (m *Module) Worker() *PublishWorker {
	if m == nil || m.container == nil {
		return nil
	}
	return m.container.Worker()
}

// Navigation returns the configured navigation service.
func (m *Module) Navigation() *NavigationService {
	return m.container.NavigationService()
}

// Themes returns the configured theme service; nil when themes are disabled.
func (m *Module) Themes() *ThemeService {
	if m == nil || m.container == nil {
		return nil
	}
	return m.container.ThemeService()
}

// Layouts returns the configured layout engine.
func (m *Module) Layouts() *LayoutEngine {
	return m.container.LayoutEngine()
}

// Commands returns the site command handler set; nil when commands are disabled.
func (m *Module) Commands() *CommandHandlers {
	if m == nil || m.container == nil {
		return nil
	}
	return m.container.CommandHandlers()
}

// Workspace returns the draft authoring workspace.
func (m *Module) Workspace() *Workspace {
	return m.container.Workspace()
}

// Watcher builds a rebuild-on-change watcher over the source tree.
func (m *Module) Watcher(opts ...watch.Option) (*Watcher, error) {
	return m.container.Watcher(opts...)
}

// Server builds the authoring HTTP server over the generated output.
func (m *Module) Server(opts ...server.Option) (*Server, error) {
	return m.container.Server(opts...)
}

// Close releases resources owned by the module.
func (m *Module) Close() error {
	if m == nil || m.container == nil {
		return nil
	}
	return m.container.Close()
}
