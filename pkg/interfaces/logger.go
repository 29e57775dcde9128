package interfaces

import "context"

// Logger is the leveled logging contract the engine's packages write to.
// The shape mirrors github.com/goliatone/go-logger so that backend plugs
// in without an adapter while the console provider stays a drop-in.
type Logger interface {
	Trace(msg string, args ...any)
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	Fatal(msg string, args ...any)
	WithContext(ctx context.Context) Logger
}

// LoggerProvider hands out named loggers. The container asks for one per
// module so entries can be filtered by subsystem.
type LoggerProvider interface {
	GetLogger(name string) Logger
}

// FieldsLogger is the optional extension for binding persistent fields.
// Implementations return a new logger that carries the fields on every
// entry; callers fall back gracefully when the extension is missing.
type FieldsLogger interface {
	WithFields(fields map[string]any) Logger
}
