package index

import (
	"context"
	"fmt"
	"time"

	"github.com/brandall10/brandall10.github.io/internal/identity"
	"github.com/brandall10/brandall10.github.io/internal/logging"
	"github.com/brandall10/brandall10.github.io/pkg/interfaces"
	"github.com/google/uuid"
)

// SyncResult summarises one reconciliation pass.
type SyncResult struct {
	Created int
	Updated int
	Deleted int
}

// BuildRecord captures the outcome of a site build for the history log.
type BuildRecord struct {
	StartedAt  time.Time
	FinishedAt time.Time
	Rendered   int
	Skipped    int
	Copied     int
	Error      string
}

// Service reconciles rendered content with the persistent index and keeps
// the build history.
type Service interface {
	Sync(ctx context.Context, posts []*interfaces.Post, pages []*interfaces.Page) (*SyncResult, error)
	RecordBuild(ctx context.Context, record BuildRecord) (*Build, error)
	History(ctx context.Context, limit int) ([]*Build, error)
	DueForPublish(ctx context.Context, now time.Time) ([]*Entry, error)
	MarkPublished(ctx context.Context, slug string, at time.Time) error
}

type service struct {
	store  *Store
	logger interfaces.Logger
	clock  func() time.Time
}

// ServiceOption customises the index service.
type ServiceOption func(*service)

// WithLogger sets the service logger.
func WithLogger(logger interfaces.Logger) ServiceOption {
	return func(s *service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock overrides the time source, mainly for tests.
func WithClock(clock func() time.Time) ServiceOption {
	return func(s *service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// NewService constructs an index service backed by the given store.
func NewService(store *Store, opts ...ServiceOption) Service {
	svc := &service{
		store:  store,
		logger: logging.NoOp(),
		clock:  time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

func (s *service) Sync(ctx context.Context, posts []*interfaces.Post, pages []*interfaces.Page) (*SyncResult, error) {
	if s.store == nil {
		return nil, fmt.Errorf("index: store not configured")
	}

	incoming := make(map[uuid.UUID]*Entry, len(posts)+len(pages))
	for _, post := range posts {
		if post == nil {
			continue
		}
		entry := NewEntryFromPost(post)
		incoming[entry.ID] = entry
	}
	for _, page := range pages {
		if page == nil {
			continue
		}
		entry := NewEntryFromPage(page)
		incoming[entry.ID] = entry
	}

	existing, err := s.store.ListEntries(ctx)
	if err != nil {
		return nil, err
	}

	now := s.clock().UTC()
	result := &SyncResult{}

	for _, entry := range incoming {
		entry.UpdatedAt = now
		created, err := s.store.UpsertEntry(ctx, entry)
		if err != nil {
			return nil, err
		}
		if created {
			result.Created++
		} else {
			result.Updated++
		}
	}

	var vanished []uuid.UUID
	for _, entry := range existing {
		if entry.DeletedAt != nil {
			continue
		}
		if _, ok := incoming[entry.ID]; !ok {
			vanished = append(vanished, entry.ID)
		}
	}
	if len(vanished) > 0 {
		deleted, err := s.store.MarkEntriesDeleted(ctx, vanished, now)
		if err != nil {
			return nil, err
		}
		result.Deleted = deleted
	}

	s.logger.Debug("index.sync_completed",
		"created", result.Created,
		"updated", result.Updated,
		"deleted", result.Deleted,
	)
	return result, nil
}

func (s *service) RecordBuild(ctx context.Context, record BuildRecord) (*Build, error) {
	if s.store == nil {
		return nil, fmt.Errorf("index: store not configured")
	}

	started := record.StartedAt
	if started.IsZero() {
		started = s.clock()
	}
	started = started.UTC()

	build := &Build{
		ID:        identity.BuildUUID(started.Format(time.RFC3339Nano)),
		StartedAt: started,
		Rendered:  record.Rendered,
		Skipped:   record.Skipped,
		Copied:    record.Copied,
		Status:    BuildStatusSucceeded,
		CreatedAt: s.clock().UTC(),
	}
	if !record.FinishedAt.IsZero() {
		finished := record.FinishedAt.UTC()
		build.FinishedAt = &finished
	}
	if record.Error != "" {
		build.Status = BuildStatusFailed
		message := record.Error
		build.Error = &message
	}

	created, err := s.store.CreateBuild(ctx, build)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("index.build_recorded",
		"id", created.ID.String(),
		"status", created.Status,
		"rendered", created.Rendered,
	)
	return created, nil
}

func (s *service) History(ctx context.Context, limit int) ([]*Build, error) {
	if s.store == nil {
		return nil, fmt.Errorf("index: store not configured")
	}
	return s.store.ListBuilds(ctx, limit)
}

func (s *service) DueForPublish(ctx context.Context, now time.Time) ([]*Entry, error) {
	if s.store == nil {
		return nil, fmt.Errorf("index: store not configured")
	}
	return s.store.DueEntries(ctx, now)
}

func (s *service) MarkPublished(ctx context.Context, slug string, at time.Time) error {
	if s.store == nil {
		return fmt.Errorf("index: store not configured")
	}
	if err := s.store.MarkPublished(ctx, slug, at); err != nil {
		return err
	}
	s.logger.Debug("index.entry_published", "slug", slug)
	return nil
}

type noOpService struct{}

// NoOp returns an index service that records nothing; used when the site
// runs without a database.
func NoOp() Service {
	return noOpService{}
}

func (noOpService) Sync(context.Context, []*interfaces.Post, []*interfaces.Page) (*SyncResult, error) {
	return &SyncResult{}, nil
}

func (noOpService) RecordBuild(context.Context, BuildRecord) (*Build, error) {
	return nil, nil
}

func (noOpService) History(context.Context, int) ([]*Build, error) {
	return nil, nil
}

func (noOpService) DueForPublish(context.Context, time.Time) ([]*Entry, error) {
	return nil, nil
}

func (noOpService) MarkPublished(context.Context, string, time.Time) error {
	return nil
}
