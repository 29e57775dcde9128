package validation

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnsupportedKeyword marks schema documents using keywords outside the
// supported subset.
var ErrUnsupportedKeyword = errors.New("validation: unsupported schema keyword")

// The subset keeps site-authored schemas portable: structural keywords,
// common string/number/array constraints, and composition. Vendor
// extensions pass through under an x- prefix.
var allowedKeywords = map[string]struct{}{
	"$schema":              {},
	"$id":                  {},
	"$ref":                 {},
	"$defs":                {},
	"$anchor":              {},
	"type":                 {},
	"properties":           {},
	"required":             {},
	"items":                {},
	"oneOf":                {},
	"anyOf":                {},
	"allOf":                {},
	"const":                {},
	"enum":                 {},
	"default":              {},
	"title":                {},
	"description":          {},
	"format":               {},
	"pattern":              {},
	"minLength":            {},
	"maxLength":            {},
	"minimum":              {},
	"maximum":              {},
	"minItems":             {},
	"uniqueItems":          {},
	"additionalProperties": {},
}

// checkKeywords walks a schema document and rejects keywords outside the
// supported subset, so typos fail with a location instead of silently
// validating nothing.
func checkKeywords(node map[string]any, path string) error {
	if node == nil {
		return nil
	}
	for key, value := range node {
		if strings.HasPrefix(key, "x-") {
			continue
		}
		if _, ok := allowedKeywords[key]; !ok {
			return fmt.Errorf("%w: %s at %s", ErrUnsupportedKeyword, key, locationOrRoot(path))
		}

		switch key {
		case "properties", "$defs":
			children, ok := value.(map[string]any)
			if !ok {
				return fmt.Errorf("%w: %s at %s", ErrUnsupportedKeyword, key, locationOrRoot(path))
			}
			for name, child := range children {
				childSchema, ok := child.(map[string]any)
				if !ok {
					return fmt.Errorf("%w: %s/%s at %s", ErrUnsupportedKeyword, key, name, locationOrRoot(path))
				}
				if err := checkKeywords(childSchema, joinPath(path, key, name)); err != nil {
					return err
				}
			}
		case "items":
			child, ok := value.(map[string]any)
			if !ok {
				return fmt.Errorf("%w: items at %s", ErrUnsupportedKeyword, locationOrRoot(path))
			}
			if err := checkKeywords(child, joinPath(path, "items")); err != nil {
				return err
			}
		case "oneOf", "anyOf", "allOf":
			entries, ok := value.([]any)
			if !ok {
				return fmt.Errorf("%w: %s at %s", ErrUnsupportedKeyword, key, locationOrRoot(path))
			}
			for idx, entry := range entries {
				child, ok := entry.(map[string]any)
				if !ok {
					return fmt.Errorf("%w: %s/%d", ErrUnsupportedKeyword, joinPath(path, key), idx)
				}
				if err := checkKeywords(child, fmt.Sprintf("%s/%d", joinPath(path, key), idx)); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func joinPath(parts ...string) string {
	trimmed := make([]string, 0, len(parts))
	for _, part := range parts {
		if part == "" {
			continue
		}
		trimmed = append(trimmed, part)
	}
	return strings.Join(trimmed, "/")
}

func locationOrRoot(path string) string {
	if path == "" {
		return "#"
	}
	return path
}
