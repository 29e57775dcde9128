package sitecmd

import (
	"errors"

	"github.com/brandall10/brandall10.github.io/internal/commands"
	"github.com/brandall10/brandall10.github.io/internal/generator"
	"github.com/brandall10/brandall10.github.io/pkg/interfaces"
)

// CommandRegistry is the minimal registration contract expected when wiring
// command handlers.
type CommandRegistry interface {
	RegisterCommand(handler any) error
}

// Dependencies collects the services the site command handlers execute
// against.
type Dependencies struct {
	Generator generator.Service
	Posts     interfaces.PostService
	Workspace *Workspace
}

// HandlerSet groups the handlers produced by RegisterSiteCommands.
type HandlerSet struct {
	Build        *BuildSiteHandler
	Validate     *ValidateSiteHandler
	CreateDraft  *CreateDraftHandler
	PublishDraft *PublishDraftHandler
	Clean        *CleanSiteHandler
}

// Option customises handler wiring during registration.
type Option func(*options)

type options struct {
	buildOpts    []commands.HandlerOption[BuildSiteCommand]
	validateOpts []commands.HandlerOption[ValidateSiteCommand]
	createOpts   []commands.HandlerOption[CreateDraftCommand]
	publishOpts  []commands.HandlerOption[PublishDraftCommand]
	cleanOpts    []commands.HandlerOption[CleanSiteCommand]
}

// WithBuildHandlerOptions forwards options to the BuildSiteHandler
// constructor.
func WithBuildHandlerOptions(opts ...commands.HandlerOption[BuildSiteCommand]) Option {
	return func(cfg *options) {
		cfg.buildOpts = append(cfg.buildOpts, opts...)
	}
}

// WithValidateHandlerOptions forwards options to the ValidateSiteHandler
// constructor.
func WithValidateHandlerOptions(opts ...commands.HandlerOption[ValidateSiteCommand]) Option {
	return func(cfg *options) {
		cfg.validateOpts = append(cfg.validateOpts, opts...)
	}
}

// WithCreateDraftHandlerOptions forwards options to the CreateDraftHandler
// constructor.
func WithCreateDraftHandlerOptions(opts ...commands.HandlerOption[CreateDraftCommand]) Option {
	return func(cfg *options) {
		cfg.createOpts = append(cfg.createOpts, opts...)
	}
}

// WithPublishDraftHandlerOptions forwards options to the
// PublishDraftHandler constructor.
func WithPublishDraftHandlerOptions(opts ...commands.HandlerOption[PublishDraftCommand]) Option {
	return func(cfg *options) {
		cfg.publishOpts = append(cfg.publishOpts, opts...)
	}
}

// WithCleanHandlerOptions forwards options to the CleanSiteHandler
// constructor.
func WithCleanHandlerOptions(opts ...commands.HandlerOption[CleanSiteCommand]) Option {
	return func(cfg *options) {
		cfg.cleanOpts = append(cfg.cleanOpts, opts...)
	}
}

// RegisterSiteCommands builds the site command handlers and registers them
// with the provided registry. The returned HandlerSet lets callers wire
// additional integrations (dispatcher subscriptions, CLI verbs) as needed.
func RegisterSiteCommands(reg CommandRegistry, deps Dependencies, provider interfaces.LoggerProvider, gates FeatureGates, opts ...Option) (*HandlerSet, error) {
	if deps.Generator == nil {
		return nil, errors.New("site command registration: generator is nil")
	}
	if deps.Posts == nil {
		return nil, errors.New("site command registration: post service is nil")
	}
	if deps.Workspace == nil {
		return nil, errors.New("site command registration: workspace is nil")
	}

	cfg := options{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	logger := commands.CommandLogger(provider, "site")

	set := &HandlerSet{
		Build:        NewBuildSiteHandler(deps.Generator, logger, gates, cfg.buildOpts...),
		Validate:     NewValidateSiteHandler(deps.Posts, logger, gates, cfg.validateOpts...),
		CreateDraft:  NewCreateDraftHandler(deps.Workspace, logger, gates, cfg.createOpts...),
		PublishDraft: NewPublishDraftHandler(deps.Workspace, logger, gates, cfg.publishOpts...),
		Clean:        NewCleanSiteHandler(deps.Generator, logger, gates, cfg.cleanOpts...),
	}

	if reg != nil {
		for _, handler := range []any{set.Build, set.Validate, set.CreateDraft, set.PublishDraft, set.Clean} {
			if err := reg.RegisterCommand(handler); err != nil {
				return nil, err
			}
		}
	}

	return set, nil
}
