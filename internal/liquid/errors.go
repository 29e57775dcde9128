package liquid

import "errors"

var (
	// ErrDuplicateDefinition indicates an attempt to register a tag name twice.
	ErrDuplicateDefinition = errors.New("liquid: duplicate definition")
	// ErrInvalidDefinition occurs when a definition has no name or handler.
	ErrInvalidDefinition = errors.New("liquid: invalid definition")
)
