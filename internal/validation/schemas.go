package validation

import (
	"fmt"
	"strings"

	"github.com/brandall10/brandall10.github.io/internal/site"
	"github.com/brandall10/brandall10.github.io/pkg/interfaces"
)

// ConfigSchemaKey is the _config.yml key a site sets to replace the default
// front matter schema.
const ConfigSchemaKey = "front_matter_schema"

// FrontMatterSchema is the default shape posts and pages must satisfy.
// Unknown keys are allowed; documents routinely carry custom data for their
// layouts. Dates validate as strings because payload normalisation renders
// YAML timestamps as RFC 3339 text.
func FrontMatterSchema() map[string]any {
	stringOrStringList := map[string]any{
		"anyOf": []any{
			map[string]any{"type": "string"},
			map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		},
	}

	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"layout":      map[string]any{"type": "string", "minLength": 1},
			"title":       map[string]any{"type": "string", "minLength": 1},
			"date":        map[string]any{"type": "string", "minLength": 4},
			"categories":  stringOrStringList,
			"category":    map[string]any{"type": "string"},
			"tags":        stringOrStringList,
			"permalink":   map[string]any{"type": "string", "pattern": "^/"},
			"published":   map[string]any{"type": "boolean"},
			"excerpt":     map[string]any{"type": "string"},
			"description": map[string]any{"type": "string"},
			"author": map[string]any{
				"anyOf": []any{
					map[string]any{"type": "string"},
					map[string]any{"type": "object"},
				},
			},
		},
		"required":             []any{"layout", "title"},
		"additionalProperties": true,
	}
}

// ThemeManifestSchema is the shape a theme.json descriptor must satisfy.
// Extra keys pass through for the design-token loader.
func ThemeManifestSchema() map[string]any {
	stringList := map[string]any{
		"type":  "array",
		"items": map[string]any{"type": "string"},
	}

	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"name":        map[string]any{"type": "string", "minLength": 1},
			"version":     map[string]any{"type": "string"},
			"description": map[string]any{"type": "string"},
			"author":      map[string]any{"type": "string"},
			"assets": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"base_path": map[string]any{"type": "string"},
					"styles":    stringList,
					"scripts":   stringList,
					"images":    stringList,
				},
				"additionalProperties": true,
			},
			"metadata": map[string]any{"type": "object"},
		},
		"required":             []any{"name"},
		"additionalProperties": true,
	}
}

// NewFrontMatterValidator compiles the default front matter schema.
func NewFrontMatterValidator() (*Validator, error) {
	return NewValidator(FrontMatterSchema())
}

// FrontMatterValidatorFor compiles the front matter validator a site
// configuration asks for: the front_matter_schema mapping from _config.yml
// when present, the default schema otherwise.
func FrontMatterValidatorFor(cfg site.Config) (*Validator, error) {
	raw, ok := cfg.Params[ConfigSchemaKey]
	if !ok || raw == nil {
		return NewFrontMatterValidator()
	}
	schema, ok := raw.(map[string]any)
	if !ok || len(schema) == 0 {
		return nil, fmt.Errorf("%w: %s must be a mapping", ErrSchemaInvalid, ConfigSchemaKey)
	}
	return NewValidator(schema)
}

// DocumentIssues converts a front matter validation error into per-document
// issues for the validation report. A nil error yields none.
func DocumentIssues(sourcePath string, err error) []interfaces.ValidationIssue {
	if err == nil {
		return nil
	}
	var out []interfaces.ValidationIssue
	for _, issue := range IssuesFrom(err) {
		out = append(out, interfaces.ValidationIssue{
			SourcePath: sourcePath,
			Field:      strings.Trim(issue.Location, "/"),
			Message:    issue.Message,
		})
	}
	return out
}
