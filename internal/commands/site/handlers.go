package sitecmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/brandall10/brandall10.github.io/internal/commands"
	"github.com/brandall10/brandall10.github.io/internal/generator"
	"github.com/brandall10/brandall10.github.io/internal/logging"
	"github.com/brandall10/brandall10.github.io/pkg/interfaces"
)

// ErrCommandsDisabled is returned when the command layer is switched off at
// runtime.
var ErrCommandsDisabled = errors.New("site command: commands disabled")

// ErrValidationIssues is returned by strict validation runs that found
// content problems.
var ErrValidationIssues = errors.New("site command: validation issues found")

// BuildSiteHandler orchestrates generator builds using the shared command
// handler foundation.
type BuildSiteHandler struct {
	inner *commands.Handler[BuildSiteCommand]
}

// NewBuildSiteHandler constructs a handler wired to the provided generator
// service.
func NewBuildSiteHandler(service generator.Service, logger interfaces.Logger, gates FeatureGates, opts ...commands.HandlerOption[BuildSiteCommand]) *BuildSiteHandler {
	baseLogger := logger
	if baseLogger == nil {
		baseLogger = logging.NoOp()
	}

	exec := func(ctx context.Context, msg BuildSiteCommand) error {
		if service == nil {
			return generator.ErrServiceDisabled
		}
		if !gates.commandsEnabled() {
			return ErrCommandsDisabled
		}

		result, err := service.Build(ctx, interfaces.BuildOptions{
			Drafts:      msg.Drafts,
			Future:      msg.Future,
			Unpublished: msg.Unpublished,
			Incremental: msg.Incremental,
			BaseURL:     strings.TrimSpace(msg.BaseURL),
		})
		invokeCallback(msg.ResultCallback, ResultEnvelope{
			Result: result,
			Metadata: map[string]any{
				"operation": "build",
			},
		})
		if err != nil {
			return err
		}
		return nil
	}

	handlerOpts := []commands.HandlerOption[BuildSiteCommand]{
		commands.WithLogger[BuildSiteCommand](baseLogger),
		commands.WithOperation[BuildSiteCommand]("site.build"),
		commands.WithMessageFields(func(msg BuildSiteCommand) map[string]any {
			fields := map[string]any{}
			if msg.Drafts {
				fields["drafts"] = true
			}
			if msg.Future {
				fields["future"] = true
			}
			if msg.Unpublished {
				fields["unpublished"] = true
			}
			if msg.Incremental {
				fields["incremental"] = true
			}
			if msg.BaseURL != "" {
				fields["base_url"] = msg.BaseURL
			}
			return fields
		}),
		commands.WithTelemetry(commands.DefaultTelemetry[BuildSiteCommand](baseLogger)),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &BuildSiteHandler{
		inner: commands.NewHandler(exec, handlerOpts...),
	}
}

// Execute satisfies command.Commander[BuildSiteCommand].
func (h *BuildSiteHandler) Execute(ctx context.Context, msg BuildSiteCommand) error {
	return h.inner.Execute(ctx, msg)
}

// ValidateSiteHandler runs content validation and reports issues.
type ValidateSiteHandler struct {
	inner *commands.Handler[ValidateSiteCommand]
}

// NewValidateSiteHandler constructs a handler wired to the post service.
func NewValidateSiteHandler(service interfaces.PostService, logger interfaces.Logger, gates FeatureGates, opts ...commands.HandlerOption[ValidateSiteCommand]) *ValidateSiteHandler {
	baseLogger := logger
	if baseLogger == nil {
		baseLogger = logging.NoOp()
	}

	exec := func(ctx context.Context, msg ValidateSiteCommand) error {
		if service == nil {
			return errors.New("site command: post service is nil")
		}
		if !gates.commandsEnabled() {
			return ErrCommandsDisabled
		}

		issues, err := service.Validate(ctx, interfaces.LoadOptions{
			Drafts: msg.Drafts,
			Future: msg.Future,
		})
		if err != nil {
			return err
		}

		for _, issue := range issues {
			baseLogger.Warn("site.validate.issue", "issue", issue.String())
		}
		if msg.IssueCallback != nil {
			msg.IssueCallback(issues)
		}
		if msg.Strict && len(issues) > 0 {
			return fmt.Errorf("%w: %d", ErrValidationIssues, len(issues))
		}
		return nil
	}

	handlerOpts := []commands.HandlerOption[ValidateSiteCommand]{
		commands.WithLogger[ValidateSiteCommand](baseLogger),
		commands.WithOperation[ValidateSiteCommand]("site.validate"),
		commands.WithMessageFields(func(msg ValidateSiteCommand) map[string]any {
			fields := map[string]any{}
			if msg.Strict {
				fields["strict"] = true
			}
			if msg.Drafts {
				fields["drafts"] = true
			}
			if msg.Future {
				fields["future"] = true
			}
			return fields
		}),
		commands.WithTelemetry(commands.DefaultTelemetry[ValidateSiteCommand](baseLogger)),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &ValidateSiteHandler{
		inner: commands.NewHandler(exec, handlerOpts...),
	}
}

// Execute satisfies command.Commander[ValidateSiteCommand].
func (h *ValidateSiteHandler) Execute(ctx context.Context, msg ValidateSiteCommand) error {
	return h.inner.Execute(ctx, msg)
}

// CreateDraftHandler writes draft skeletons through the workspace.
type CreateDraftHandler struct {
	inner *commands.Handler[CreateDraftCommand]
}

// NewCreateDraftHandler constructs a handler wired to the workspace.
func NewCreateDraftHandler(workspace *Workspace, logger interfaces.Logger, gates FeatureGates, opts ...commands.HandlerOption[CreateDraftCommand]) *CreateDraftHandler {
	baseLogger := logger
	if baseLogger == nil {
		baseLogger = logging.NoOp()
	}

	exec := func(ctx context.Context, msg CreateDraftCommand) error {
		if workspace == nil {
			return errors.New("site command: workspace is nil")
		}
		if !gates.commandsEnabled() {
			return ErrCommandsDisabled
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		path, err := workspace.CreateDraft(msg.Title, msg.Categories)
		if err != nil {
			return err
		}
		baseLogger.Info("site.draft_created", "path", path)
		if msg.PathCallback != nil {
			msg.PathCallback(path)
		}
		return nil
	}

	handlerOpts := []commands.HandlerOption[CreateDraftCommand]{
		commands.WithLogger[CreateDraftCommand](baseLogger),
		commands.WithOperation[CreateDraftCommand]("site.create_draft"),
		commands.WithMessageFields(func(msg CreateDraftCommand) map[string]any {
			fields := map[string]any{
				"title": msg.Title,
			}
			if len(msg.Categories) > 0 {
				fields["categories"] = len(msg.Categories)
			}
			return fields
		}),
		commands.WithTelemetry(commands.DefaultTelemetry[CreateDraftCommand](baseLogger)),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &CreateDraftHandler{
		inner: commands.NewHandler(exec, handlerOpts...),
	}
}

// Execute satisfies command.Commander[CreateDraftCommand].
func (h *CreateDraftHandler) Execute(ctx context.Context, msg CreateDraftCommand) error {
	return h.inner.Execute(ctx, msg)
}

// PublishDraftHandler promotes drafts into dated posts.
type PublishDraftHandler struct {
	inner *commands.Handler[PublishDraftCommand]
}

// NewPublishDraftHandler constructs a handler wired to the workspace.
func NewPublishDraftHandler(workspace *Workspace, logger interfaces.Logger, gates FeatureGates, opts ...commands.HandlerOption[PublishDraftCommand]) *PublishDraftHandler {
	baseLogger := logger
	if baseLogger == nil {
		baseLogger = logging.NoOp()
	}

	exec := func(ctx context.Context, msg PublishDraftCommand) error {
		if workspace == nil {
			return errors.New("site command: workspace is nil")
		}
		if !gates.commandsEnabled() {
			return ErrCommandsDisabled
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		path, err := workspace.PublishDraft(msg.Slug, msg.Date)
		if err != nil {
			return err
		}
		baseLogger.Info("site.draft_published", "slug", msg.Slug, "path", path)
		if msg.PathCallback != nil {
			msg.PathCallback(path)
		}
		return nil
	}

	handlerOpts := []commands.HandlerOption[PublishDraftCommand]{
		commands.WithLogger[PublishDraftCommand](baseLogger),
		commands.WithOperation[PublishDraftCommand]("site.publish_draft"),
		commands.WithMessageFields(func(msg PublishDraftCommand) map[string]any {
			fields := map[string]any{
				"slug": msg.Slug,
			}
			if !msg.Date.IsZero() {
				fields["date"] = msg.Date.Format("2006-01-02")
			}
			return fields
		}),
		commands.WithTelemetry(commands.DefaultTelemetry[PublishDraftCommand](baseLogger)),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &PublishDraftHandler{
		inner: commands.NewHandler(exec, handlerOpts...),
	}
}

// Execute satisfies command.Commander[PublishDraftCommand].
func (h *PublishDraftHandler) Execute(ctx context.Context, msg PublishDraftCommand) error {
	return h.inner.Execute(ctx, msg)
}

// CleanSiteHandler clears generator artifacts.
type CleanSiteHandler struct {
	inner *commands.Handler[CleanSiteCommand]
}

// NewCleanSiteHandler constructs a handler that cleans generator output.
func NewCleanSiteHandler(service generator.Service, logger interfaces.Logger, gates FeatureGates, opts ...commands.HandlerOption[CleanSiteCommand]) *CleanSiteHandler {
	baseLogger := logger
	if baseLogger == nil {
		baseLogger = logging.NoOp()
	}

	exec := func(ctx context.Context, msg CleanSiteCommand) error {
		if service == nil {
			return generator.ErrServiceDisabled
		}
		if !gates.commandsEnabled() {
			return ErrCommandsDisabled
		}
		return service.Clean(ctx)
	}

	handlerOpts := []commands.HandlerOption[CleanSiteCommand]{
		commands.WithLogger[CleanSiteCommand](baseLogger),
		commands.WithOperation[CleanSiteCommand]("site.clean"),
		commands.WithTelemetry(commands.DefaultTelemetry[CleanSiteCommand](baseLogger)),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &CleanSiteHandler{
		inner: commands.NewHandler(exec, handlerOpts...),
	}
}

// Execute satisfies command.Commander[CleanSiteCommand].
func (h *CleanSiteHandler) Execute(ctx context.Context, msg CleanSiteCommand) error {
	return h.inner.Execute(ctx, msg)
}

func invokeCallback(cb ResultCallback, envelope ResultEnvelope) {
	if cb == nil {
		return
	}
	cb(envelope)
}
