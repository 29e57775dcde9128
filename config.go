package blog

import "github.com/brandall10/brandall10.github.io/internal/runtimeconfig"

var (
	ErrSourceDirRequired              = runtimeconfig.ErrSourceDirRequired
	ErrConfigPathRequired             = runtimeconfig.ErrConfigPathRequired
	ErrSchedulingFeatureRequiresIndex = runtimeconfig.ErrSchedulingFeatureRequiresIndex
	ErrThemesDirRequired              = runtimeconfig.ErrThemesDirRequired
	ErrGeneratorOutputDirRequired     = runtimeconfig.ErrGeneratorOutputDirRequired
	ErrGeneratorLimitInvalid          = runtimeconfig.ErrGeneratorLimitInvalid
	ErrStorageDriverUnknown           = runtimeconfig.ErrStorageDriverUnknown
	ErrStorageDSNRequired             = runtimeconfig.ErrStorageDSNRequired
	ErrSchedulerLimitInvalid          = runtimeconfig.ErrSchedulerLimitInvalid
	ErrServerAddrRequired             = runtimeconfig.ErrServerAddrRequired
	ErrWatchDebounceInvalid           = runtimeconfig.ErrWatchDebounceInvalid
	ErrCommandTimeoutInvalid          = runtimeconfig.ErrCommandTimeoutInvalid
	ErrCacheTTLInvalid                = runtimeconfig.ErrCacheTTLInvalid
	ErrLoggingProviderRequired        = runtimeconfig.ErrLoggingProviderRequired
	ErrLoggingProviderUnknown         = runtimeconfig.ErrLoggingProviderUnknown
	ErrLoggingLevelInvalid            = runtimeconfig.ErrLoggingLevelInvalid
	ErrLoggingFormatInvalid           = runtimeconfig.ErrLoggingFormatInvalid
)

type (
	Config          = runtimeconfig.Config
	Features        = runtimeconfig.Features
	StorageConfig   = runtimeconfig.StorageConfig
	CacheConfig     = runtimeconfig.CacheConfig
	GeneratorConfig = runtimeconfig.GeneratorConfig
	SchedulerConfig = runtimeconfig.SchedulerConfig
	ServerConfig    = runtimeconfig.ServerConfig
	WatchConfig     = runtimeconfig.WatchConfig
	CommandsConfig  = runtimeconfig.CommandsConfig
	ThemeConfig     = runtimeconfig.ThemeConfig
	LoggingConfig   = runtimeconfig.LoggingConfig
)

func DefaultConfig() Config {
	return runtimeconfig.DefaultConfig()
}
