package navigation

import (
	"fmt"
	"strings"
	"sync"

	urlkit "github.com/goliatone/go-urlkit"

	"github.com/brandall10/brandall10.github.io/internal/site"
)

// Resolver resolves named routes through a go-urlkit route manager. urlkit
// panics on unknown groups and routes; the resolver recovers those into
// errors so a bad navigation entry fails a build with a message instead of a
// stack trace. Resolved URLs are root-relative; callers needing absolute
// URLs join them with the site URL.
type Resolver struct {
	manager *urlkit.RouteManager
	group   string
	origin  string

	mu         sync.RWMutex
	groupCache map[string]*urlkit.Group
}

// ResolverOption customises resolver behaviour.
type ResolverOption func(*Resolver)

// WithGroup selects the route group resolved against. Dotted paths descend
// into nested groups.
func WithGroup(path string) ResolverOption {
	return func(r *Resolver) {
		if trimmed := strings.TrimSpace(path); trimmed != "" {
			r.group = trimmed
		}
	}
}

// WithOrigin sets the scheme-and-host prefix stripped from built URLs so
// resolved routes come back root-relative.
func WithOrigin(origin string) ResolverOption {
	return func(r *Resolver) {
		r.origin = strings.TrimSuffix(strings.TrimSpace(origin), "/")
	}
}

// NewResolver constructs a resolver over an existing route manager.
func NewResolver(manager *urlkit.RouteManager, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		manager:    manager,
		group:      RouteGroup,
		groupCache: make(map[string]*urlkit.Group),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// NewSiteResolver builds the route manager from the site configuration and
// returns a resolver over it.
func NewSiteResolver(cfg site.Config) *Resolver {
	manager := urlkit.NewRouteManager(Routes(cfg))
	return NewResolver(manager, WithOrigin(cfg.URL))
}

// Resolve builds the URL for a named route. Params fill the route's
// placeholders; missing or surplus params surface as errors from the
// underlying builder.
func (r *Resolver) Resolve(route string, params map[string]any) (string, error) {
	if r == nil || r.manager == nil {
		return "", fmt.Errorf("navigation: route manager not configured")
	}
	route = strings.TrimSpace(route)
	if route == "" {
		return "", fmt.Errorf("navigation: route name required")
	}

	group, err := r.resolveGroup(r.group)
	if err != nil {
		return "", err
	}

	builder, err := builderFor(group, route)
	if err != nil {
		return "", err
	}
	for key, val := range params {
		builder.WithParam(key, val)
	}

	url, err := builder.Build()
	if err != nil {
		return "", fmt.Errorf("navigation: build %s: %w", route, err)
	}
	return r.relativize(url), nil
}

// relativize strips the configured origin so built URLs are root-relative.
// URLs outside the origin pass through untouched.
func (r *Resolver) relativize(url string) string {
	if r.origin == "" {
		return url
	}
	if !strings.HasPrefix(url, r.origin) {
		return url
	}
	rest := url[len(r.origin):]
	if rest == "" {
		return "/"
	}
	if !strings.HasPrefix(rest, "/") {
		return url
	}
	return rest
}

// resolveGroup walks a dotted group path, caching the result.
func (r *Resolver) resolveGroup(path string) (*urlkit.Group, error) {
	r.mu.RLock()
	group, ok := r.groupCache[path]
	r.mu.RUnlock()
	if ok {
		return group, nil
	}

	parts := strings.Split(path, ".")
	current, err := rootGroup(r.manager, parts[0])
	if err != nil {
		return nil, err
	}
	for _, part := range parts[1:] {
		current, err = childGroup(current, part)
		if err != nil {
			return nil, err
		}
	}

	r.mu.Lock()
	r.groupCache[path] = current
	r.mu.Unlock()
	return current, nil
}

func rootGroup(manager *urlkit.RouteManager, name string) (group *urlkit.Group, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("navigation: route group %q not found", name)
		}
	}()
	group = manager.Group(name)
	return group, nil
}

func childGroup(parent *urlkit.Group, name string) (group *urlkit.Group, err error) {
	if parent == nil {
		return nil, fmt.Errorf("navigation: parent group is nil")
	}
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("navigation: child group %q not found", name)
		}
	}()
	group = parent.Group(name)
	return group, nil
}

func builderFor(group *urlkit.Group, route string) (builder *urlkit.Builder, err error) {
	if group == nil {
		return nil, fmt.Errorf("navigation: route group is nil")
	}
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("navigation: route %q not found", route)
		}
	}()
	builder = group.Builder(route)
	return builder, nil
}
