package liquid

import (
	"sort"
	"strings"
	"sync"

	"github.com/brandall10/brandall10.github.io/pkg/interfaces"
)

// Registry is the thread-safe in-memory implementation of
// interfaces.TagRegistry.
type Registry struct {
	mu          sync.RWMutex
	definitions map[string]interfaces.TagDefinition
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		definitions: make(map[string]interfaces.TagDefinition),
	}
}

// Register stores a definition if it is valid and the name is not taken.
func (r *Registry) Register(def interfaces.TagDefinition) error {
	name := strings.TrimSpace(strings.ToLower(def.Name))
	if name == "" || def.Handler == nil {
		return ErrInvalidDefinition
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.definitions[name]; exists {
		return ErrDuplicateDefinition
	}

	r.definitions[name] = def
	return nil
}

// Get returns the stored definition.
func (r *Registry) Get(name string) (interfaces.TagDefinition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	def, ok := r.definitions[strings.ToLower(name)]
	return def, ok
}

// List returns all registered definitions in name order.
func (r *Registry) List() []interfaces.TagDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]interfaces.TagDefinition, 0, len(r.definitions))
	for _, def := range r.definitions {
		result = append(result, def)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})
	return result
}

// Remove deletes the definition if it exists.
func (r *Registry) Remove(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.definitions, strings.ToLower(name))
}

var _ interfaces.TagRegistry = (*Registry)(nil)
