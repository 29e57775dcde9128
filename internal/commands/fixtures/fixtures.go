// Package fixtures provides recording doubles for command registration
// wiring in tests.
package fixtures

// RecordingRegistry captures command handlers registered through the
// container. It satisfies the registry contracts structurally.
type RecordingRegistry struct {
	Handlers []any
	Err      error
}

// NewRecordingRegistry constructs an empty registry recorder.
func NewRecordingRegistry() *RecordingRegistry {
	return &RecordingRegistry{
		Handlers: make([]any, 0),
	}
}

// RegisterCommand records the handler, returning the configured error when
// a test wants registration to fail.
func (r *RecordingRegistry) RegisterCommand(handler any) error {
	if r.Err != nil {
		return r.Err
	}
	r.Handlers = append(r.Handlers, handler)
	return nil
}
