package index

import (
	"context"
	"errors"
	"fmt"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-repository-cache/cache"
	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/brandall10/brandall10.github.io/pkg/interfaces"
)

// Store is the bun-backed persistence layer for index entries and build
// records.
type Store struct {
	db      *bun.DB
	entries repository.Repository[*Entry]
	builds  repository.Repository[*Build]
}

// NewStore constructs an uncached store.
func NewStore(db *bun.DB) *Store {
	return NewStoreWithCache(db, nil, nil)
}

// NewStoreWithCache constructs a store with optional repository caching.
func NewStoreWithCache(db *bun.DB, cacheService cache.CacheService, keySerializer cache.KeySerializer) *Store {
	return &Store{
		db:      db,
		entries: wrapWithCache(NewEntryRepository(db), cacheService, keySerializer),
		builds:  wrapWithCache(NewBuildRepository(db), cacheService, keySerializer),
	}
}

// ListEntries returns every entry row, deleted ones included; sync passes
// need the full picture to resurrect and retire rows.
func (s *Store) ListEntries(ctx context.Context) ([]*Entry, error) {
	records, _, err := s.entries.List(ctx)
	if err != nil {
		return nil, mapRepositoryError(err, "entry", "")
	}
	return records, nil
}

// GetBySlug returns the live entry with the given slug.
func (s *Store) GetBySlug(ctx context.Context, slug string) (*Entry, error) {
	records, _, err := s.entries.List(ctx,
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("?TableAlias.slug = ?", slug)
		}),
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("?TableAlias.deleted_at IS NULL")
		}),
		repository.SelectPaginate(1, 0),
	)
	if err != nil {
		return nil, mapRepositoryError(err, "entry", slug)
	}
	if len(records) == 0 {
		return nil, &NotFoundError{Resource: "entry", Key: slug}
	}
	return records[0], nil
}

// UpsertEntry creates the entry or updates the row with the same ID.
// Reports whether a new row was created.
func (s *Store) UpsertEntry(ctx context.Context, entry *Entry) (bool, error) {
	if entry == nil || entry.ID == uuid.Nil {
		return false, fmt.Errorf("index: entry requires an id")
	}

	_, err := s.entries.GetByID(ctx, entry.ID.String())
	if err != nil {
		var notFound *NotFoundError
		if mapped := mapRepositoryError(err, "entry", entry.ID.String()); errors.As(mapped, &notFound) {
			if _, err := s.entries.Create(ctx, entry); err != nil {
				return false, mapRepositoryError(err, "entry", entry.Slug)
			}
			return true, nil
		}
		return false, mapRepositoryError(err, "entry", entry.ID.String())
	}

	_, err = s.entries.Update(ctx, entry,
		repository.UpdateByID(entry.ID.String()),
		repository.UpdateColumns(
			"slug",
			"source_path",
			"collection",
			"title",
			"date",
			"categories",
			"url",
			"status",
			"checksum",
			"published_at",
			"deleted_at",
			"updated_at",
		),
	)
	if err != nil {
		return false, mapRepositoryError(err, "entry", entry.Slug)
	}
	return false, nil
}

// MarkEntriesDeleted stamps deleted_at on live rows whose IDs are listed.
// Returns how many rows changed.
func (s *Store) MarkEntriesDeleted(ctx context.Context, ids []uuid.UUID, at time.Time) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	if s.db == nil {
		return 0, fmt.Errorf("index: database not configured")
	}

	result, err := s.db.NewUpdate().
		Model((*Entry)(nil)).
		Set("deleted_at = ?", at).
		Set("updated_at = ?", at).
		Where("?TableAlias.id IN (?)", bun.In(ids)).
		Where("?TableAlias.deleted_at IS NULL").
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("index: mark entries deleted: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("index: mark entries deleted rows affected: %w", err)
	}
	return int(affected), nil
}

// MarkPublished flips the live entry with the given slug to published.
func (s *Store) MarkPublished(ctx context.Context, slug string, at time.Time) error {
	if s.db == nil {
		return fmt.Errorf("index: database not configured")
	}

	result, err := s.db.NewUpdate().
		Model((*Entry)(nil)).
		Set("status = ?", string(interfaces.PostStatusPublished)).
		Set("published_at = ?", at).
		Set("updated_at = ?", at).
		Where("?TableAlias.slug = ?", slug).
		Where("?TableAlias.deleted_at IS NULL").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("index: mark published: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("index: mark published rows affected: %w", err)
	}
	if affected == 0 {
		return &NotFoundError{Resource: "entry", Key: slug}
	}
	return nil
}

// DueEntries returns future entries whose date has arrived, oldest first.
func (s *Store) DueEntries(ctx context.Context, now time.Time) ([]*Entry, error) {
	records, _, err := s.entries.List(ctx,
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("?TableAlias.status = ?", string(interfaces.PostStatusFuture))
		}),
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("?TableAlias.date <= ?", now)
		}),
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("?TableAlias.deleted_at IS NULL")
		}),
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.OrderExpr("?TableAlias.date ASC")
		}),
	)
	if err != nil {
		return nil, mapRepositoryError(err, "entry", "")
	}
	return records, nil
}

// CreateBuild records a build run.
func (s *Store) CreateBuild(ctx context.Context, build *Build) (*Build, error) {
	created, err := s.builds.Create(ctx, build)
	if err != nil {
		return nil, mapRepositoryError(err, "build", build.ID.String())
	}
	return created, nil
}

// ListBuilds returns the newest build records first.
func (s *Store) ListBuilds(ctx context.Context, limit int) ([]*Build, error) {
	criteria := []repository.SelectCriteria{
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.OrderExpr("?TableAlias.started_at DESC")
		}),
	}
	if limit > 0 {
		criteria = append(criteria, repository.SelectPaginate(limit, 0))
	}
	records, _, err := s.builds.List(ctx, criteria...)
	if err != nil {
		return nil, mapRepositoryError(err, "build", "")
	}
	return records, nil
}
