package liquid

import (
	"context"
	"fmt"
	"strings"

	"github.com/brandall10/brandall10.github.io/internal/logging"
	"github.com/brandall10/brandall10.github.io/pkg/interfaces"
)

// Service expands content tags in document bodies. It runs before markdown
// rendering so tag output lands in the source the renderer sees.
type Service struct {
	registry interfaces.TagRegistry
	logger   interfaces.Logger
}

// ServiceOption customises service behaviour.
type ServiceOption func(*Service)

// WithLogger attaches a logger used for structured diagnostics.
func WithLogger(logger interfaces.Logger) ServiceOption {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewService constructs a tag service using the supplied registry.
func NewService(registry interfaces.TagRegistry, opts ...ServiceOption) *Service {
	service := &Service{
		registry: registry,
		logger:   logging.NoOp(),
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

// NewDefaultService returns a service with every built-in tag registered.
func NewDefaultService(opts ...ServiceOption) (*Service, error) {
	registry := NewRegistry()
	if err := RegisterBuiltIns(registry, nil); err != nil {
		return nil, err
	}
	return NewService(registry, opts...), nil
}

// Process expands every tag found in content, returning the content with tag
// output substituted in place. Content without tags passes through unchanged.
func (s *Service) Process(ctx context.Context, content string, opts interfaces.TagProcessOptions) (string, error) {
	if strings.TrimSpace(content) == "" {
		return content, nil
	}
	if s.registry == nil {
		return "", fmt.Errorf("liquid: service not initialised")
	}

	transformed, parsed, err := ExtractTags(content)
	if err != nil {
		logging.WithFields(s.baseLogger(ctx), map[string]any{
			"error": err,
		}).Error("liquid.parse_failed")
		return "", err
	}
	if len(parsed) == 0 {
		return transformed, nil
	}

	tagCtx := interfaces.TagContext{
		Context:        ctx,
		ResolvePostURL: opts.ResolvePostURL,
		ResolveLink:    opts.ResolveLink,
	}
	if tagCtx.Context == nil {
		tagCtx.Context = context.Background()
	}

	output := transformed
	for idx, tag := range parsed {
		def, ok := s.registry.Get(tag.Name)
		if !ok {
			return "", fmt.Errorf("liquid: unknown tag %q", tag.Name)
		}

		rendered, err := def.Handler(tagCtx, tag.Args, tag.Inner)
		if err != nil {
			logging.WithFields(s.baseLogger(ctx), map[string]any{
				"tag":   tag.Name,
				"index": idx,
				"error": err,
			}).Error("liquid.render_failed")
			return "", err
		}

		placeholder := fmt.Sprintf(placeholderFormat, idx)
		output = strings.ReplaceAll(output, placeholder, rendered)
	}

	logging.WithFields(s.baseLogger(ctx), map[string]any{
		"tags": len(parsed),
	}).Debug("liquid.process_completed")
	return output, nil
}

// Registry exposes the underlying tag registry.
func (s *Service) Registry() interfaces.TagRegistry {
	return s.registry
}

var _ interfaces.TagService = (*Service)(nil)

type noOpService struct{}

// NewNoOpService returns a tag service that leaves content untouched.
func NewNoOpService() interfaces.TagService {
	return noOpService{}
}

func (noOpService) Process(_ context.Context, content string, _ interfaces.TagProcessOptions) (string, error) {
	return content, nil
}

func (s *Service) baseLogger(ctx context.Context) interfaces.Logger {
	logger := s.logger
	if logger == nil {
		logger = logging.NoOp()
	}
	if ctx != nil {
		logger = logger.WithContext(ctx)
	}
	return logger
}
