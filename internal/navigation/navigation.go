package navigation

import (
	"fmt"
	"strings"

	"github.com/brandall10/brandall10.github.io/internal/logging"
	"github.com/brandall10/brandall10.github.io/internal/site"
	"github.com/brandall10/brandall10.github.io/pkg/interfaces"
)

// Link is a resolved navigation entry ready for template data.
type Link struct {
	Title string
	URL   string
}

// Service turns the navigation entries from _config.yml into resolved
// links. Literal URLs pass through with the base URL applied; route entries
// resolve through the route manager.
type Service struct {
	cfg      site.Config
	resolver *Resolver
	logger   interfaces.Logger
}

// Option customises service behaviour.
type Option func(*Service)

// WithLogger attaches a logger used for structured diagnostics.
func WithLogger(logger interfaces.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithResolver supplies the route resolver. Sites whose navigation uses
// only literal URLs can run without one.
func WithResolver(resolver *Resolver) Option {
	return func(s *Service) {
		s.resolver = resolver
	}
}

// NewService constructs a navigation service for the given configuration.
func NewService(cfg site.Config, opts ...Option) *Service {
	s := &Service{
		cfg:    cfg,
		logger: logging.NoOp(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Links resolves the configured navigation entries in order.
func (s *Service) Links() ([]Link, error) {
	var links []Link
	for _, item := range s.cfg.Navigation {
		url, err := s.resolveItem(item)
		if err != nil {
			return nil, err
		}
		links = append(links, Link{Title: item.Title, URL: url})
	}
	s.logger.Debug("navigation.resolved", "links", len(links))
	return links, nil
}

func (s *Service) resolveItem(item site.NavItem) (string, error) {
	if url := strings.TrimSpace(item.URL); url != "" {
		if isExternal(url) || !strings.HasPrefix(url, "/") {
			return url, nil
		}
		return s.cfg.RelativeURL(url), nil
	}

	route := strings.TrimSpace(item.Route)
	if route == "" {
		return "", fmt.Errorf("navigation: entry %q has neither route nor url", item.Title)
	}
	if s.resolver == nil {
		return "", fmt.Errorf("navigation: entry %q names route %q but no resolver is configured", item.Title, route)
	}

	params := make(map[string]any, len(item.Params))
	for key, val := range item.Params {
		params[key] = val
	}
	return s.resolver.Resolve(route, params)
}

func isExternal(url string) bool {
	return strings.Contains(url, "://") ||
		strings.HasPrefix(url, "//") ||
		strings.HasPrefix(url, "mailto:")
}
