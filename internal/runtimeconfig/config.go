package runtimeconfig

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrSourceDirRequired indicates the engine has no site source to read.
var ErrSourceDirRequired = errors.New("blog config: source directory is required")

// ErrSchedulingFeatureRequiresIndex keeps scheduled publishing behind the
// index flag; publish jobs flip index entries, so there must be an index.
var ErrSchedulingFeatureRequiresIndex = errors.New("blog config: scheduling feature requires the index to be enabled")

// ErrThemesDirRequired indicates inconsistent theme configuration.
var ErrThemesDirRequired = errors.New("blog config: themes directory is required when themes are enabled")

// ErrGeneratorOutputDirRequired indicates the build has nowhere to write.
var ErrGeneratorOutputDirRequired = errors.New("blog config: generator output directory is required")

var ErrConfigPathRequired = errors.New("blog config: site config path is required")
var ErrGeneratorLimitInvalid = errors.New("blog config: generator limit must be zero or positive")
var ErrStorageDriverUnknown = errors.New("blog config: storage driver is invalid")
var ErrStorageDSNRequired = errors.New("blog config: storage dsn is required when the index is enabled")
var ErrSchedulerLimitInvalid = errors.New("blog config: scheduler limit must be zero or positive")
var ErrServerAddrRequired = errors.New("blog config: server listen address is required")
var ErrWatchDebounceInvalid = errors.New("blog config: watch debounce must be zero or positive")
var ErrCommandTimeoutInvalid = errors.New("blog config: command timeout must be zero or positive")
var ErrCacheTTLInvalid = errors.New("blog config: cache ttl must be zero or positive")
var ErrLoggingProviderRequired = errors.New("blog config: logging provider is required when logging feature is enabled")
var ErrLoggingProviderUnknown = errors.New("blog config: logging provider is invalid")
var ErrLoggingLevelInvalid = errors.New("blog config: logging level is invalid")
var ErrLoggingFormatInvalid = errors.New("blog config: logging format is invalid")

// Config aggregates engine-level settings: directories, feature flags, and
// adapter bindings. Author-facing options (title, permalinks, pagination,
// navigation) live in _config.yml and travel with the content instead.
type Config struct {
	Enabled    bool
	SourceDir  string
	ConfigPath string
	Features   Features
	Storage    StorageConfig
	Cache      CacheConfig
	Generator  GeneratorConfig
	Scheduler  SchedulerConfig
	Server     ServerConfig
	Watch      WatchConfig
	Commands   CommandsConfig
	Themes     ThemeConfig
	Logging    LoggingConfig
}

// Features toggles engine subsystems.
type Features struct {
	Index      bool
	Scheduling bool
	Themes     bool
	Watch      bool
	Logger     bool
}

// StorageConfig describes the content index database.
type StorageConfig struct {
	Driver string
	DSN    string
}

// CacheConfig tunes read caching for index repositories.
type CacheConfig struct {
	Enabled bool
	TTL     time.Duration
}

// GeneratorConfig captures behaviour for the static site build.
type GeneratorConfig struct {
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

// SchedulerConfig tunes the publish queue.
type SchedulerConfig struct {
	MaxAttempts int
	BatchSize   int
}

// ServerConfig captures the dev server listen address.
type ServerConfig struct {
	Addr string
}

// WatchConfig tunes the rebuild-on-change watcher.
type WatchConfig struct {
	Debounce time.Duration
	Ignore   []string
}

// CommandsConfig captures command-layer behaviour.
type CommandsConfig struct {
	Enabled bool
	Timeout time.Duration
}

// ThemeConfig locates theme packs on disk. The active theme is selected in
// _config.yml, not here.
type ThemeConfig struct {
	Dir string
}

// LoggingConfig captures provider-specific options for runtime logging.
type LoggingConfig struct {
	Provider  string
	Level     string
	Format    string
	AddSource bool
	Focus     []string
}

// DefaultConfig returns defaults matching a checkout of the blog: source at
// the repository root, output under _site, all artifact kinds on.
func DefaultConfig() Config {
	return Config{
		Enabled:    true,
		SourceDir:  ".",
		ConfigPath: "_config.yml",
		Features:   Features{},
		Storage: StorageConfig{
			Driver: "sqlite3",
			DSN:    ".site-index.db",
		},
		Cache: CacheConfig{
			Enabled: true,
			TTL:     time.Minute,
		},
		Generator: GeneratorConfig{
			OutputDir:       "_site",
			CleanBuild:      false,
			Incremental:     false,
			CopyStatic:      true,
			GenerateSitemap: true,
			GenerateRobots:  true,
			GenerateFeeds:   true,
			FeedLimit:       0,
			Workers:         0,
		},
		Scheduler: SchedulerConfig{
			MaxAttempts: 3,
			BatchSize:   50,
		},
		Server: ServerConfig{
			Addr: ":4000",
		},
		Watch: WatchConfig{
			Debounce: 500 * time.Millisecond,
		},
		Commands: CommandsConfig{
			Enabled: true,
		},
		Themes: ThemeConfig{
			Dir: "_themes",
		},
		Logging: LoggingConfig{
			Provider: "console",
			Level:    "info",
			Format:   "",
		},
	}
}

// Validate performs high-level consistency checks.
func (cfg Config) Validate() error {
	if strings.TrimSpace(cfg.SourceDir) == "" {
		return ErrSourceDirRequired
	}
	if strings.TrimSpace(cfg.ConfigPath) == "" {
		return ErrConfigPathRequired
	}
	if strings.TrimSpace(cfg.Generator.OutputDir) == "" {
		return ErrGeneratorOutputDirRequired
	}
	if cfg.Generator.Workers < 0 {
		return fmt.Errorf("%w: workers", ErrGeneratorLimitInvalid)
	}
	if cfg.Generator.FeedLimit < 0 {
		return fmt.Errorf("%w: feed_limit", ErrGeneratorLimitInvalid)
	}
	if cfg.Features.Scheduling && !cfg.Features.Index {
		return ErrSchedulingFeatureRequiresIndex
	}
	if cfg.Features.Index {
		if !isSupportedDriver(strings.TrimSpace(cfg.Storage.Driver)) {
			return fmt.Errorf("%w: %s", ErrStorageDriverUnknown, cfg.Storage.Driver)
		}
		if strings.TrimSpace(cfg.Storage.DSN) == "" {
			return ErrStorageDSNRequired
		}
	}
	if cfg.Features.Themes && strings.TrimSpace(cfg.Themes.Dir) == "" {
		return ErrThemesDirRequired
	}
	if cfg.Cache.TTL < 0 {
		return ErrCacheTTLInvalid
	}
	if cfg.Scheduler.MaxAttempts < 0 {
		return fmt.Errorf("%w: max_attempts", ErrSchedulerLimitInvalid)
	}
	if cfg.Scheduler.BatchSize < 0 {
		return fmt.Errorf("%w: batch_size", ErrSchedulerLimitInvalid)
	}
	if strings.TrimSpace(cfg.Server.Addr) == "" {
		return ErrServerAddrRequired
	}
	if cfg.Watch.Debounce < 0 {
		return ErrWatchDebounceInvalid
	}
	if cfg.Commands.Timeout < 0 {
		return ErrCommandTimeoutInvalid
	}
	if cfg.Features.Logger {
		provider := normalizeProvider(cfg.Logging.Provider)
		if provider == "" {
			return ErrLoggingProviderRequired
		}
		if !isSupportedProvider(provider) {
			return fmt.Errorf("%w: %s", ErrLoggingProviderUnknown, provider)
		}
		if level := strings.TrimSpace(cfg.Logging.Level); level != "" && !isSupportedLevel(level) {
			return fmt.Errorf("%w: %s", ErrLoggingLevelInvalid, level)
		}
		if provider == "gologger" {
			if format := strings.TrimSpace(cfg.Logging.Format); format != "" && !isSupportedFormat(format) {
				return fmt.Errorf("%w: %s", ErrLoggingFormatInvalid, format)
			}
		}
	}
	return nil
}

func normalizeProvider(provider string) string {
	return strings.ToLower(strings.TrimSpace(provider))
}

func isSupportedDriver(driver string) bool {
	switch driver {
	case "", "sqlite3", "postgres":
		return true
	default:
		return false
	}
}

func isSupportedProvider(provider string) bool {
	switch provider {
	case "console", "gologger":
		return true
	default:
		return false
	}
}

func isSupportedLevel(level string) bool {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal":
		return true
	default:
		return false
	}
}

func isSupportedFormat(format string) bool {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json", "console", "pretty":
		return true
	default:
		return false
	}
}
