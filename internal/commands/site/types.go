package sitecmd

import (
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/brandall10/brandall10.github.io/pkg/interfaces"
)

const (
	buildSiteMessageType    = "blog.site.build"
	validateSiteMessageType = "blog.site.validate"
	createDraftMessageType  = "blog.site.create_draft"
	publishDraftMessageType = "blog.site.publish_draft"
	cleanSiteMessageType    = "blog.site.clean"
)

// ResultCallback receives build results produced by generator operations.
// The callback is optional and is invoked synchronously from the handler
// when a BuildResult is available.
type ResultCallback func(ResultEnvelope)

// ResultEnvelope captures the outcome of a site command execution that
// produced a BuildResult.
type ResultEnvelope struct {
	Result   *interfaces.BuildResult
	Metadata map[string]any
}

// BuildSiteCommand executes a full generator build. The boolean switches
// widen the publish filter the same way the loader options do.
type BuildSiteCommand struct {
	Drafts         bool           `json:"drafts,omitempty"`
	Future         bool           `json:"future,omitempty"`
	Unpublished    bool           `json:"unpublished,omitempty"`
	Incremental    bool           `json:"incremental,omitempty"`
	BaseURL        string         `json:"base_url,omitempty"`
	ResultCallback ResultCallback `json:"-"`
}

// Type implements command.Message.
func (BuildSiteCommand) Type() string { return buildSiteMessageType }

// Validate ensures the base URL override is well-formed when present.
func (m BuildSiteCommand) Validate() error {
	errs := validation.Errors{}
	if raw := strings.TrimSpace(m.BaseURL); raw != "" {
		if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
			errs["base_url"] = validation.NewError("blog.site.build.base_url_invalid", "base_url must include a scheme")
		}
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ValidateSiteCommand checks every source document and reports issues.
// Strict turns any issue into a command failure.
type ValidateSiteCommand struct {
	Strict bool `json:"strict,omitempty"`
	Drafts bool `json:"drafts,omitempty"`
	Future bool `json:"future,omitempty"`
	// IssueCallback receives the collected issues so callers can print
	// them; nil skips reporting.
	IssueCallback func([]interfaces.ValidationIssue) `json:"-"`
}

// Type implements command.Message.
func (ValidateSiteCommand) Type() string { return validateSiteMessageType }

// Validate satisfies command.Message; there are no payload constraints.
func (ValidateSiteCommand) Validate() error { return nil }

// CreateDraftCommand writes a draft skeleton into _drafts/.
type CreateDraftCommand struct {
	Title      string   `json:"title"`
	Categories []string `json:"categories,omitempty"`
	// PathCallback receives the created file's path relative to the
	// source root.
	PathCallback func(string) `json:"-"`
}

// Type implements command.Message.
func (CreateDraftCommand) Type() string { return createDraftMessageType }

// Validate ensures the draft has a usable title and category values are
// non-empty.
func (m CreateDraftCommand) Validate() error {
	errs := validation.Errors{}
	if strings.TrimSpace(m.Title) == "" {
		errs["title"] = validation.NewError("blog.site.create_draft.title_required", "title is required")
	}
	for _, category := range m.Categories {
		if strings.TrimSpace(category) == "" {
			errs["categories"] = validation.NewError("blog.site.create_draft.category_invalid", "categories must not contain empty values")
			break
		}
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// PublishDraftCommand promotes _drafts/<slug>.md into _posts/ with a dated
// filename. A zero Date publishes with the current time.
type PublishDraftCommand struct {
	Slug string    `json:"slug"`
	Date time.Time `json:"date,omitempty"`
	// PathCallback receives the published file's path relative to the
	// source root.
	PathCallback func(string) `json:"-"`
}

// Type implements command.Message.
func (PublishDraftCommand) Type() string { return publishDraftMessageType }

// Validate ensures the draft slug is present.
func (m PublishDraftCommand) Validate() error {
	errs := validation.Errors{}
	if strings.TrimSpace(m.Slug) == "" {
		errs["slug"] = validation.NewError("blog.site.publish_draft.slug_required", "slug is required")
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// CleanSiteCommand clears generator artifacts from the output directory.
type CleanSiteCommand struct{}

// Type implements command.Message.
func (CleanSiteCommand) Type() string { return cleanSiteMessageType }

// Validate satisfies command.Message; there are no payload constraints.
func (CleanSiteCommand) Validate() error { return nil }

// FeatureGates exposes runtime switches used to guard handler execution.
type FeatureGates struct {
	CommandsEnabled func() bool
}

func (g FeatureGates) commandsEnabled() bool {
	if g.CommandsEnabled == nil {
		return true
	}
	return g.CommandsEnabled()
}
