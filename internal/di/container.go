// Package di assembles the blog engine from its parts. The container owns
// construction order: logging first, then the site configuration, content
// services, the optional index and scheduling subsystems, the generator,
// and finally the command surface. Options override any binding, which is
// how tests swap filesystems and in-memory databases in.
package di

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	repocache "github.com/goliatone/go-repository-cache/cache"
	"github.com/uptrace/bun"

	"github.com/brandall10/brandall10.github.io/internal/adapters/storage"
	"github.com/brandall10/brandall10.github.io/internal/commands"
	sitecmd "github.com/brandall10/brandall10.github.io/internal/commands/site"
	"github.com/brandall10/brandall10.github.io/internal/generator"
	"github.com/brandall10/brandall10.github.io/internal/index"
	"github.com/brandall10/brandall10.github.io/internal/jobs"
	"github.com/brandall10/brandall10.github.io/internal/layouts"
	"github.com/brandall10/brandall10.github.io/internal/liquid"
	"github.com/brandall10/brandall10.github.io/internal/logging"
	"github.com/brandall10/brandall10.github.io/internal/logging/console"
	"github.com/brandall10/brandall10.github.io/internal/logging/gologger"
	"github.com/brandall10/brandall10.github.io/internal/markdown"
	"github.com/brandall10/brandall10.github.io/internal/navigation"
	"github.com/brandall10/brandall10.github.io/internal/posts"
	"github.com/brandall10/brandall10.github.io/internal/runtimeconfig"
	"github.com/brandall10/brandall10.github.io/internal/scheduler"
	"github.com/brandall10/brandall10.github.io/internal/server"
	"github.com/brandall10/brandall10.github.io/internal/site"
	"github.com/brandall10/brandall10.github.io/internal/themes"
	"github.com/brandall10/brandall10.github.io/internal/watch"
	"github.com/brandall10/brandall10.github.io/pkg/interfaces"
	pkgstorage "github.com/brandall10/brandall10.github.io/pkg/storage"
)

// ErrWatchDisabled reports a Watcher request on a container whose watch
// feature is off.
var ErrWatchDisabled = errors.New("di: watch feature is disabled")

// Container wires module dependencies.
type Container struct {
	Config runtimeconfig.Config

	provider interfaces.LoggerProvider

	sourceFS     fs.FS
	themesFS     fs.FS
	migrationsFS fs.FS

	siteCfg    site.Config
	siteCfgSet bool

	clock func() time.Time

	bunDB         *bun.DB
	ownsDB        bool
	cacheService  repocache.CacheService
	keySerializer repocache.KeySerializer

	storage interfaces.StorageProvider

	renderer     interfaces.MarkdownRenderer
	tags         interfaces.TagService
	themeSvc     *themes.Service
	layoutEngine *layouts.Engine
	navSvc       *navigation.Service
	loader       *posts.Loader
	postSvc      interfaces.PostService
	indexSvc     index.Service
	sched        interfaces.Scheduler
	worker       *jobs.Worker
	genSvc       generator.Service

	registry  sitecmd.CommandRegistry
	handlers  *sitecmd.HandlerSet
	workspace *sitecmd.Workspace
}

// Option mutates the container before it is finalised.
type Option func(*Container)

// WithLoggerProvider overrides the logging provider built from the runtime
// configuration.
func WithLoggerProvider(provider interfaces.LoggerProvider) Option {
	return func(c *Container) {
		c.provider = provider
	}
}

// WithSourceFS overrides the site source filesystem. The default reads the
// configured source directory from disk.
func WithSourceFS(fsys fs.FS) Option {
	return func(c *Container) {
		c.sourceFS = fsys
	}
}

// WithThemesFS overrides the theme pack filesystem.
func WithThemesFS(fsys fs.FS) Option {
	return func(c *Container) {
		c.themesFS = fsys
	}
}

// WithMigrationsFS supplies the SQL migrations applied when the index
// database opens.
func WithMigrationsFS(fsys fs.FS) Option {
	return func(c *Container) {
		c.migrationsFS = fsys
	}
}

// WithSiteConfig injects an already-loaded site configuration instead of
// reading it from the source tree.
func WithSiteConfig(cfg site.Config) Option {
	return func(c *Container) {
		c.siteCfg = cfg
		c.siteCfgSet = true
	}
}

// WithClock overrides the time source used across services.
func WithClock(clock func() time.Time) Option {
	return func(c *Container) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// WithBunDB injects the index database connection. The caller keeps
// ownership; Close will not touch it.
func WithBunDB(db *bun.DB) Option {
	return func(c *Container) {
		c.bunDB = db
	}
}

// WithCache overrides the repository cache bindings.
func WithCache(service repocache.CacheService, serializer repocache.KeySerializer) Option {
	return func(c *Container) {
		c.cacheService = service
		c.keySerializer = serializer
	}
}

// WithStorage overrides the output storage provider.
func WithStorage(sp interfaces.StorageProvider) Option {
	return func(c *Container) {
		c.storage = sp
	}
}

// WithMarkdownRenderer overrides the markdown renderer binding.
func WithMarkdownRenderer(renderer interfaces.MarkdownRenderer) Option {
	return func(c *Container) {
		c.renderer = renderer
	}
}

// WithTagService overrides the liquid tag service binding.
func WithTagService(tags interfaces.TagService) Option {
	return func(c *Container) {
		c.tags = tags
	}
}

// WithPostService overrides the default post service binding.
func WithPostService(svc interfaces.PostService) Option {
	return func(c *Container) {
		c.postSvc = svc
	}
}

// WithIndexService overrides the default index service binding.
func WithIndexService(svc index.Service) Option {
	return func(c *Container) {
		c.indexSvc = svc
	}
}

// WithScheduler overrides the default scheduler binding.
func WithScheduler(sched interfaces.Scheduler) Option {
	return func(c *Container) {
		c.sched = sched
	}
}

// WithGeneratorService overrides the default generator binding.
func WithGeneratorService(svc generator.Service) Option {
	return func(c *Container) {
		c.genSvc = svc
	}
}

// WithCommandRegistry wires the registry that receives the site command
// handlers during construction.
func WithCommandRegistry(registry sitecmd.CommandRegistry) Option {
	return func(c *Container) {
		c.registry = registry
	}
}

// NewContainer creates a container with the provided configuration. Opening
// the index database applies pending migrations when a migrations
// filesystem is wired.
func NewContainer(cfg runtimeconfig.Config, opts ...Option) (*Container, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Container{
		Config: cfg,
		clock:  time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}

	if err := c.configureLogging(); err != nil {
		return nil, err
	}
	if err := c.configureSite(); err != nil {
		return nil, err
	}
	if err := c.configureRendering(); err != nil {
		return nil, err
	}
	if err := c.configureThemes(); err != nil {
		return nil, err
	}
	c.configureLayouts()
	c.configureContent()
	if err := c.configureIndex(); err != nil {
		return nil, err
	}
	c.configureScheduling()
	c.configureGenerator()
	if err := c.configureCommands(); err != nil {
		return nil, err
	}

	return c, nil
}

func (c *Container) configureLogging() error {
	if c.provider != nil || !c.Config.Features.Logger {
		return nil
	}

	switch strings.ToLower(strings.TrimSpace(c.Config.Logging.Provider)) {
	case "gologger":
		provider, err := gologger.NewProvider(gologger.Config{
			Level:     c.Config.Logging.Level,
			Format:    c.Config.Logging.Format,
			AddSource: c.Config.Logging.AddSource,
			Focus:     c.Config.Logging.Focus,
		})
		if err != nil {
			return fmt.Errorf("di: configure logging: %w", err)
		}
		c.provider = provider
	default:
		level, err := console.ParseLevel(c.Config.Logging.Level)
		if err != nil {
			return fmt.Errorf("di: configure logging: %w", err)
		}
		c.provider = console.NewProvider(console.Options{MinLevel: &level})
	}
	return nil
}

func (c *Container) configureSite() error {
	if c.sourceFS == nil {
		c.sourceFS = os.DirFS(c.Config.SourceDir)
	}

	if !c.siteCfgSet {
		loaded, err := site.LoadFS(c.sourceFS, c.Config.ConfigPath)
		if err != nil {
			return fmt.Errorf("di: load site config: %w", err)
		}
		c.siteCfg = loaded
	}

	if err := c.siteCfg.Validate(); err != nil {
		return fmt.Errorf("di: site config: %w", err)
	}
	return nil
}

func (c *Container) configureRendering() error {
	if c.renderer == nil {
		md := c.siteCfg.Markdown
		c.renderer = markdown.NewRenderer(markdown.Options{
			HardWraps:  md.HardWraps,
			XHTML:      md.XHTML,
			Unsafe:     md.Unsafe,
			Extensions: md.Extensions,
		})
	}

	if c.tags == nil {
		tags, err := liquid.NewDefaultService(
			liquid.WithLogger(logging.ModuleLogger(c.provider, "blog.liquid")),
		)
		if err != nil {
			return fmt.Errorf("di: configure tags: %w", err)
		}
		c.tags = tags
	}
	return nil
}

func (c *Container) configureThemes() error {
	if !c.Config.Features.Themes {
		return nil
	}

	if c.themesFS == nil {
		c.themesFS = os.DirFS(c.Config.Themes.Dir)
	}

	c.themeSvc = themes.NewService(c.themesFS,
		themes.WithDefaults(c.siteCfg.Theme, c.siteCfg.ThemeVariant),
		themes.WithLogger(logging.ModuleLogger(c.provider, "blog.themes")),
	)
	return nil
}

func (c *Container) configureLayouts() {
	opts := []layouts.Option{
		layouts.WithLogger(logging.ModuleLogger(c.provider, "blog.layouts")),
		layouts.WithMarkdown(c.renderer),
	}

	// Theme templates act as fallbacks behind the site's own layouts.
	if c.themeSvc != nil && strings.TrimSpace(c.siteCfg.Theme) != "" {
		if theme, err := c.themeSvc.Resolve(c.siteCfg.Theme); err == nil && theme != nil {
			if themeFS, err := c.themeSvc.ThemeFS(theme); err == nil {
				opts = append(opts, layouts.WithThemeFS(themeFS))
			}
		}
	}

	c.layoutEngine = layouts.NewEngine(c.sourceFS, c.siteCfg, opts...)
}

func (c *Container) configureContent() {
	postsLogger := logging.PostsLogger(c.provider)

	c.loader = posts.NewLoader(c.sourceFS, c.siteCfg,
		posts.WithLogger(postsLogger),
		posts.WithClock(c.clock),
	)

	if c.postSvc == nil {
		c.postSvc = posts.NewService(c.loader, c.siteCfg,
			posts.WithServiceLogger(postsLogger),
			posts.WithServiceClock(c.clock),
		)
	}

	c.navSvc = navigation.NewService(c.siteCfg,
		navigation.WithLogger(logging.ModuleLogger(c.provider, "blog.navigation")),
		navigation.WithResolver(navigation.NewSiteResolver(c.siteCfg)),
	)
}

func (c *Container) configureIndex() error {
	if c.indexSvc != nil {
		return nil
	}

	if !c.Config.Features.Index {
		c.indexSvc = index.NoOp()
		return nil
	}

	if c.bunDB == nil {
		if c.migrationsFS == nil {
			return errors.New("di: index feature requires a migrations filesystem")
		}
		db, err := storage.Open(pkgstorage.Config{
			Name:   "site-index",
			Driver: c.Config.Storage.Driver,
			DSN:    c.Config.Storage.DSN,
		})
		if err != nil {
			return fmt.Errorf("di: open index database: %w", err)
		}
		c.bunDB = db
		c.ownsDB = true
	}

	if c.migrationsFS != nil {
		if err := storage.Migrate(context.Background(), c.bunDB, c.migrationsFS); err != nil {
			return fmt.Errorf("di: migrate index database: %w", err)
		}
	}

	c.configureCacheDefaults()

	store := index.NewStoreWithCache(c.bunDB, c.cacheService, c.keySerializer)
	c.indexSvc = index.NewService(store,
		index.WithLogger(logging.IndexLogger(c.provider)),
		index.WithClock(c.clock),
	)
	return nil
}

func (c *Container) configureCacheDefaults() {
	if !c.Config.Cache.Enabled {
		return
	}

	if c.cacheService == nil {
		cfg := repocache.DefaultConfig()
		if c.Config.Cache.TTL > 0 {
			cfg.TTL = c.Config.Cache.TTL
		}
		service, err := repocache.NewCacheService(cfg)
		if err == nil {
			c.cacheService = service
		}
	}

	if c.cacheService != nil && c.keySerializer == nil {
		c.keySerializer = repocache.NewDefaultKeySerializer()
	}
}

func (c *Container) configureScheduling() {
	if c.sched == nil {
		if c.Config.Features.Scheduling {
			c.sched = scheduler.NewInMemory(
				scheduler.WithClock(c.clock),
				scheduler.WithDefaultMaxAttempts(c.Config.Scheduler.MaxAttempts),
			)
		} else {
			c.sched = scheduler.NewNoOp()
		}
	}

	if c.Config.Features.Scheduling {
		c.worker = jobs.NewWorker(c.sched, c.indexSvc,
			jobs.WithLogger(logging.SchedulerLogger(c.provider)),
			jobs.WithClock(c.clock),
			jobs.WithBatchSize(c.Config.Scheduler.BatchSize),
			jobs.WithRebuild(c.rebuildSite),
		)
	}
}

// rebuildSite is the scheduler's rebuild hook. It resolves the generator at
// call time because the worker is built before the generator is.
func (c *Container) rebuildSite(ctx context.Context) error {
	if c.genSvc == nil {
		return nil
	}
	_, err := c.genSvc.Build(ctx, interfaces.BuildOptions{})
	return err
}

func (c *Container) configureGenerator() {
	if c.storage == nil {
		c.storage = storage.NewFilesystemProvider(c.Config.Generator.OutputDir, "")
	}

	if c.genSvc != nil {
		return
	}

	if !c.Config.Enabled {
		c.genSvc = generator.NewDisabledService()
		return
	}

	gcfg := generator.Config{
		OutputDir:       c.Config.Generator.OutputDir,
		BaseURL:         c.Config.Generator.BaseURL,
		CleanBuild:      c.Config.Generator.CleanBuild,
		Incremental:     c.Config.Generator.Incremental,
		CopyStatic:      c.Config.Generator.CopyStatic,
		GenerateSitemap: c.Config.Generator.GenerateSitemap,
		GenerateRobots:  c.Config.Generator.GenerateRobots,
		GenerateFeeds:   c.Config.Generator.GenerateFeeds,
		FeedLimit:       c.Config.Generator.FeedLimit,
		Workers:         c.Config.Generator.Workers,
	}

	var planner generator.PublishPlanner
	if c.worker != nil {
		planner = c.worker
	}

	c.genSvc = generator.NewService(gcfg, generator.Dependencies{
		Site:       c.siteCfg,
		Source:     c.sourceFS,
		Loader:     c.loader,
		Posts:      c.postSvc,
		Layouts:    c.layoutEngine,
		Markdown:   c.renderer,
		Tags:       c.tags,
		Themes:     c.themeSvc,
		Navigation: c.navSvc,
		Storage:    c.storage,
		Index:      c.indexSvc,
		Planner:    planner,
	},
		generator.WithLogger(logging.GeneratorLogger(c.provider)),
		generator.WithClock(c.clock),
	)
}

func (c *Container) configureCommands() error {
	c.workspace = sitecmd.NewWorkspace(c.Config.SourceDir,
		sitecmd.WithWorkspaceClock(c.clock),
	)

	if !c.Config.Commands.Enabled {
		return nil
	}

	gates := sitecmd.FeatureGates{
		CommandsEnabled: func() bool { return c.Config.Commands.Enabled },
	}

	var opts []sitecmd.Option
	if timeout := c.Config.Commands.Timeout; timeout > 0 {
		opts = append(opts,
			sitecmd.WithBuildHandlerOptions(commands.WithTimeout[sitecmd.BuildSiteCommand](timeout)),
			sitecmd.WithValidateHandlerOptions(commands.WithTimeout[sitecmd.ValidateSiteCommand](timeout)),
			sitecmd.WithCreateDraftHandlerOptions(commands.WithTimeout[sitecmd.CreateDraftCommand](timeout)),
			sitecmd.WithPublishDraftHandlerOptions(commands.WithTimeout[sitecmd.PublishDraftCommand](timeout)),
			sitecmd.WithCleanHandlerOptions(commands.WithTimeout[sitecmd.CleanSiteCommand](timeout)),
		)
	}

	handlers, err := sitecmd.RegisterSiteCommands(c.registry, sitecmd.Dependencies{
		Generator: c.genSvc,
		Posts:     c.postSvc,
		Workspace: c.workspace,
	}, c.provider, gates, opts...)
	if err != nil {
		return fmt.Errorf("di: register site commands: %w", err)
	}
	c.handlers = handlers
	return nil
}

// Watcher builds the rebuild-on-change watcher over the source tree. Each
// call returns a fresh instance; the caller owns Start and Stop.
func (c *Container) Watcher(opts ...watch.Option) (*watch.Watcher, error) {
	if !c.Config.Features.Watch {
		return nil, ErrWatchDisabled
	}

	cfg := watch.Config{
		Root:      c.Config.SourceDir,
		OutputDir: c.Config.Generator.OutputDir,
		Layouts:   c.siteCfg.LayoutsDir,
		Includes:  c.siteCfg.IncludesDir,
		Themes:    c.Config.Themes.Dir,
		Debounce:  c.Config.Watch.Debounce,
		Ignore:    c.Config.Watch.Ignore,
	}

	opts = append([]watch.Option{watch.WithLogger(logging.WatchLogger(c.provider))}, opts...)
	return watch.New(cfg, c.genSvc, opts...)
}

// Server builds the authoring HTTP server over the output tree, wired to
// the generator for on-demand rebuilds.
func (c *Container) Server(opts ...server.Option) (*server.Server, error) {
	cfg := server.Config{
		Addr:      c.Config.Server.Addr,
		OutputDir: c.Config.Generator.OutputDir,
		BaseURL:   c.siteCfg.BaseURL,
	}

	opts = append([]server.Option{
		server.WithLogger(logging.ServerLogger(c.provider)),
		server.WithBuilder(c.genSvc),
	}, opts...)
	return server.New(cfg, opts...)
}

// Close releases resources the container opened itself. Injected databases
// stay open.
func (c *Container) Close() error {
	if c.ownsDB && c.bunDB != nil {
		err := c.bunDB.Close()
		c.bunDB = nil
		c.ownsDB = false
		return err
	}
	return nil
}

// SiteConfig returns the loaded site configuration.
func (c *Container) SiteConfig() site.Config {
	return c.siteCfg
}

// LoggerProvider exposes the configured logging provider; nil when the
// logging feature is off and nothing was injected.
func (c *Container) LoggerProvider() interfaces.LoggerProvider {
	return c.provider
}

// SourceFS exposes the site source filesystem.
func (c *Container) SourceFS() fs.FS {
	return c.sourceFS
}

// StorageProvider exposes the output storage implementation.
func (c *Container) StorageProvider() interfaces.StorageProvider {
	return c.storage
}

// DB exposes the index database; nil when the index feature is off.
func (c *Container) DB() *bun.DB {
	return c.bunDB
}

// MarkdownRenderer exposes the configured markdown renderer.
func (c *Container) MarkdownRenderer() interfaces.MarkdownRenderer {
	return c.renderer
}

// TagService exposes the liquid tag service.
func (c *Container) TagService() interfaces.TagService {
	return c.tags
}

// ThemeService returns the theme service; nil when themes are disabled.
func (c *Container) ThemeService() *themes.Service {
	return c.themeSvc
}

// LayoutEngine returns the configured layout engine.
func (c *Container) LayoutEngine() *layouts.Engine {
	return c.layoutEngine
}

// NavigationService returns the navigation resolver service.
func (c *Container) NavigationService() *navigation.Service {
	return c.navSvc
}

// Loader returns the content loader.
func (c *Container) Loader() *posts.Loader {
	return c.loader
}

// PostService returns the configured post service.
func (c *Container) PostService() interfaces.PostService {
	return c.postSvc
}

// IndexService returns the content index service.
func (c *Container) IndexService() index.Service {
	return c.indexSvc
}

// Scheduler returns the configured scheduler.
func (c *Container) Scheduler() interfaces.Scheduler {
	return c.sched
}

// Worker returns the publish queue worker; nil when scheduling is off.
func (c *Container) Worker() *jobs.Worker {
	return c.worker
}

// GeneratorService returns the configured generator.
func (c *Container) GeneratorService() generator.Service {
	return c.genSvc
}

// CommandHandlers returns the site command handler set; nil when commands
// are disabled.
func (c *Container) CommandHandlers() *sitecmd.HandlerSet {
	return c.handlers
}

// Workspace returns the authoring workspace over the source directory.
func (c *Container) Workspace() *sitecmd.Workspace {
	return c.workspace
}
