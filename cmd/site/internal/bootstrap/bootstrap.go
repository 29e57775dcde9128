package bootstrap

import (
	"fmt"
	"strings"

	blog "github.com/brandall10/brandall10.github.io"
	"github.com/brandall10/brandall10.github.io/internal/di"
	"github.com/brandall10/brandall10.github.io/internal/logging"
	"github.com/brandall10/brandall10.github.io/pkg/interfaces"
)

// Options captures configuration shared by the site CLI entry points.
type Options struct {
	Source      string
	ConfigPath  string
	OutputDir   string
	Addr        string
	Watch       bool
	LogLevel    string
	LogProvider string
	// LoggerProvider overrides the configured logging stack, used mainly
	// by tests.
	LoggerProvider interfaces.LoggerProvider
}

// Module wraps the blog module together with the services the CLIs drive.
type Module struct {
	Module    *blog.Module
	Handlers  *blog.CommandHandlers
	Posts     blog.PostService
	Generator blog.GeneratorService
	Logger    interfaces.Logger
}

// BuildModule constructs a blog module configured for CLI use.
func BuildModule(opts Options) (*Module, error) {
	cfg := blog.DefaultConfig()
	if src := strings.TrimSpace(opts.Source); src != "" {
		cfg.SourceDir = src
	}
	if p := strings.TrimSpace(opts.ConfigPath); p != "" {
		cfg.ConfigPath = p
	}
	if out := strings.TrimSpace(opts.OutputDir); out != "" {
		cfg.Generator.OutputDir = out
	}
	if addr := strings.TrimSpace(opts.Addr); addr != "" {
		cfg.Server.Addr = addr
	}
	cfg.Features.Watch = opts.Watch

	if strings.TrimSpace(opts.LogLevel) != "" || strings.TrimSpace(opts.LogProvider) != "" {
		cfg.Features.Logger = true
		if provider := strings.TrimSpace(opts.LogProvider); provider != "" {
			cfg.Logging.Provider = provider
		}
		if level := strings.TrimSpace(opts.LogLevel); level != "" {
			cfg.Logging.Level = level
		}
	}

	diOpts := []di.Option{}
	if opts.LoggerProvider != nil {
		diOpts = append(diOpts, di.WithLoggerProvider(opts.LoggerProvider))
	}

	module, err := blog.New(cfg, diOpts...)
	if err != nil {
		return nil, fmt.Errorf("initialise blog module: %w", err)
	}

	handlers := module.Commands()
	if handlers == nil {
		return nil, fmt.Errorf("site commands not configured; ensure Commands.Enabled is set")
	}

	return &Module{
		Module:    module,
		Handlers:  handlers,
		Posts:     module.Posts(),
		Generator: module.Generator(),
		Logger:    logging.ModuleLogger(module.Container().LoggerProvider(), "blog.cli"),
	}, nil
}

// SplitCategories parses a comma separated category list into a trimmed slice.
func SplitCategories(value string) []string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	categories := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			categories = append(categories, trimmed)
		}
	}
	return categories
}
