package posts

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/brandall10/brandall10.github.io/internal/logging"
	"github.com/brandall10/brandall10.github.io/internal/site"
	"github.com/brandall10/brandall10.github.io/internal/validation"
	"github.com/brandall10/brandall10.github.io/pkg/interfaces"
)

// NotFoundError represents lookups that matched no document.
type NotFoundError struct {
	Resource string
	Key      string
}

func (e *NotFoundError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("%s not found", e.Resource)
	}
	return fmt.Sprintf("%s %q not found", e.Resource, e.Key)
}

// Service orders and filters loader output into posts, pages, and
// categories, and runs site-wide validation.
type Service struct {
	loader *Loader
	cfg    site.Config
	logger interfaces.Logger
	clock  func() time.Time
}

// ServiceOption configures the service at construction time.
type ServiceOption func(*Service)

// WithServiceLogger attaches a logger for filter diagnostics.
func WithServiceLogger(logger interfaces.Logger) ServiceOption {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithServiceClock overrides the clock that decides which posts are future
// dated.
func WithServiceClock(clock func() time.Time) ServiceOption {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// NewService constructs a Service over the given loader.
func NewService(loader *Loader, cfg site.Config, opts ...ServiceOption) *Service {
	s := &Service{
		loader: loader,
		cfg:    cfg,
		logger: logging.NoOp(),
		clock:  time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ interfaces.PostService = (*Service)(nil)

// Posts returns posts newest first with URLs expanded and Next/Previous
// wired up. Site configuration widens the filter the same way the load
// options do, so `future: true` in _config.yml behaves like the flag.
func (s *Service) Posts(ctx context.Context, opts interfaces.LoadOptions) ([]*interfaces.Post, error) {
	eff := s.effectiveOptions(opts)

	docs, issues, err := s.collectPostDocs(ctx, eff)
	if err != nil {
		return nil, err
	}
	s.logIssues(issues)

	now := s.clock()
	pattern := s.cfg.PermalinkTemplate()

	var list []*interfaces.Post
	for _, doc := range docs {
		if !include(doc, now, eff) {
			continue
		}
		list = append(list, &interfaces.Post{
			Document: *doc,
			URL:      URLFor(doc, pattern),
			Status:   resolveStatus(doc, now),
		})
	}

	sort.SliceStable(list, func(i, j int) bool {
		if !list[i].Date.Equal(list[j].Date) {
			return list[i].Date.After(list[j].Date)
		}
		return list[i].SourcePath > list[j].SourcePath
	})

	for i, post := range list {
		if i > 0 {
			post.Next = list[i-1].Slug
		}
		if i < len(list)-1 {
			post.Previous = list[i+1].Slug
		}
	}

	return list, nil
}

// Pages returns standalone pages with URLs expanded, ordered by source
// path.
func (s *Service) Pages(ctx context.Context, opts interfaces.LoadOptions) ([]*interfaces.Page, error) {
	eff := s.effectiveOptions(opts)

	docs, issues, err := s.loader.LoadPages(ctx)
	if err != nil {
		return nil, err
	}
	s.logIssues(issues)

	pattern := s.cfg.PermalinkTemplate()

	var pages []*interfaces.Page
	for _, doc := range docs {
		if doc.Published != nil && !*doc.Published && !eff.Unpublished {
			continue
		}
		pages = append(pages, &interfaces.Page{
			Document: *doc,
			URL:      URLFor(doc, pattern),
		})
	}

	return pages, nil
}

// GetBySlug finds a post regardless of its publish status; previews reach
// drafts and future posts through here.
func (s *Service) GetBySlug(ctx context.Context, slug string) (*interfaces.Post, error) {
	posts, err := s.Posts(ctx, interfaces.LoadOptions{Drafts: true, Future: true, Unpublished: true})
	if err != nil {
		return nil, err
	}
	for _, post := range posts {
		if post.Slug == slug {
			return post, nil
		}
	}
	return nil, &NotFoundError{Resource: "post", Key: slug}
}

// Categories groups the filtered posts by category, ordered by slug. Posts
// inside each category keep their newest-first order.
func (s *Service) Categories(ctx context.Context, opts interfaces.LoadOptions) ([]*interfaces.Category, error) {
	posts, err := s.Posts(ctx, opts)
	if err != nil {
		return nil, err
	}

	index := map[string]*interfaces.Category{}
	var order []string
	for _, post := range posts {
		for _, name := range post.Categories {
			key := Slugify(name)
			if key == "" {
				continue
			}
			cat, ok := index[key]
			if !ok {
				cat = &interfaces.Category{
					Name: name,
					Slug: key,
					URL:  "/categories/" + key + "/",
				}
				index[key] = cat
				order = append(order, key)
			}
			cat.Posts = append(cat.Posts, post)
		}
	}

	cats := make([]*interfaces.Category, 0, len(order))
	for _, key := range order {
		cats = append(cats, index[key])
	}
	sort.Slice(cats, func(i, j int) bool { return cats[i].Slug < cats[j].Slug })

	return cats, nil
}

// Validate loads every document the options cover and reports all problems
// at once: loader issues, front matter rejected by the schema, and URL
// collisions across posts, drafts, and pages. Collision issues name both
// source files.
func (s *Service) Validate(ctx context.Context, opts interfaces.LoadOptions) ([]interfaces.ValidationIssue, error) {
	eff := s.effectiveOptions(opts)
	pattern := s.cfg.PermalinkTemplate()

	validator, err := validation.FrontMatterValidatorFor(s.cfg)
	if err != nil {
		return nil, fmt.Errorf("front matter schema: %w", err)
	}

	all, issues, err := s.collectPostDocs(ctx, eff)
	if err != nil {
		return nil, err
	}

	pageDocs, pageIssues, err := s.loader.LoadPages(ctx)
	if err != nil {
		return nil, err
	}
	issues = append(issues, pageIssues...)
	all = append(all, pageDocs...)

	seen := make(map[string]string, len(all))
	for _, doc := range all {
		if err := validator.Validate(doc.FrontMatter); err != nil {
			docIssues := validation.DocumentIssues(doc.SourcePath, err)
			if len(docIssues) == 0 {
				docIssues = []interfaces.ValidationIssue{{
					SourcePath: doc.SourcePath,
					Field:      "front_matter",
					Message:    err.Error(),
				}}
			}
			issues = append(issues, docIssues...)
		}

		url := URLFor(doc, pattern)
		if prev, ok := seen[url]; ok {
			issues = append(issues, interfaces.ValidationIssue{
				SourcePath: doc.SourcePath,
				Field:      "permalink",
				Message:    fmt.Sprintf("duplicate URL %s", url),
				Conflict:   prev,
			})
			continue
		}
		seen[url] = doc.SourcePath
	}

	return issues, nil
}

func (s *Service) collectPostDocs(ctx context.Context, opts interfaces.LoadOptions) ([]*interfaces.Document, []interfaces.ValidationIssue, error) {
	docs, issues, err := s.loader.LoadPosts(ctx)
	if err != nil {
		return nil, nil, err
	}

	if opts.Drafts {
		draftDocs, draftIssues, err := s.loader.LoadDrafts(ctx)
		if err != nil {
			return nil, nil, err
		}
		docs = append(docs, draftDocs...)
		issues = append(issues, draftIssues...)
	}

	return docs, issues, nil
}

func (s *Service) effectiveOptions(opts interfaces.LoadOptions) interfaces.LoadOptions {
	if s.cfg.ShowDrafts {
		opts.Drafts = true
	}
	if s.cfg.Future {
		opts.Future = true
	}
	if s.cfg.Unpublished {
		opts.Unpublished = true
	}
	return opts
}

func (s *Service) logIssues(issues []interfaces.ValidationIssue) {
	for _, issue := range issues {
		s.logger.Warn("post.invalid",
			"source_path", issue.SourcePath,
			"field", issue.Field,
			"message", issue.Message,
		)
	}
}

func include(doc *interfaces.Document, now time.Time, opts interfaces.LoadOptions) bool {
	if doc.Collection == interfaces.CollectionDrafts && !opts.Drafts {
		return false
	}
	if doc.Published != nil && !*doc.Published && !opts.Unpublished {
		return false
	}
	if doc.Date.After(now) && !opts.Future {
		return false
	}
	return true
}

func resolveStatus(doc *interfaces.Document, now time.Time) interfaces.PostStatus {
	if doc.Collection == interfaces.CollectionDrafts {
		return interfaces.PostStatusDraft
	}
	if doc.Published != nil && !*doc.Published {
		return interfaces.PostStatusDraft
	}
	if doc.Date.After(now) {
		return interfaces.PostStatusFuture
	}
	return interfaces.PostStatusPublished
}
