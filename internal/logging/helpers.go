package logging

import (
	"maps"

	"github.com/brandall10/brandall10.github.io/pkg/interfaces"
)

// WithFields binds structured fields when the logger supports them.
// Loggers without the FieldsLogger extension come back unchanged, as do
// nil loggers and empty field sets.
func WithFields(logger interfaces.Logger, fields map[string]any) interfaces.Logger {
	fl, ok := logger.(interfaces.FieldsLogger)
	if !ok || len(fields) == 0 {
		return logger
	}
	return fl.WithFields(maps.Clone(fields))
}
