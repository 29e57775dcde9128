package index

import (
	"fmt"

	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-repository-cache/cache"
	repositorycache "github.com/goliatone/go-repository-cache/repositorycache"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// NotFoundError is returned when an index lookup matches no row.
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

// NewEntryRepository creates a repository for index entries.
func NewEntryRepository(db *bun.DB) repository.Repository[*Entry] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*Entry]{
		NewRecord:          func() *Entry { return &Entry{} },
		GetID:              func(entry *Entry) uuid.UUID { return entry.ID },
		SetID:              func(entry *Entry, id uuid.UUID) { entry.ID = id },
		GetIdentifier:      func() string { return "slug" },
		GetIdentifierValue: func(entry *Entry) string { return entry.Slug },
	})
}

// NewBuildRepository creates a repository for build records.
func NewBuildRepository(db *bun.DB) repository.Repository[*Build] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*Build]{
		NewRecord:          func() *Build { return &Build{} },
		GetID:              func(build *Build) uuid.UUID { return build.ID },
		SetID:              func(build *Build, id uuid.UUID) { build.ID = id },
		GetIdentifier:      func() string { return "id" },
		GetIdentifierValue: func(build *Build) string { return build.ID.String() },
	})
}

func mapRepositoryError(err error, resource, key string) error {
	if err == nil {
		return nil
	}
	if goerrors.IsCategory(err, repository.CategoryDatabaseNotFound) {
		return &NotFoundError{Resource: resource, Key: key}
	}
	return fmt.Errorf("%s repository error: %w", resource, err)
}

func wrapWithCache[T any](base repository.Repository[T], cacheService cache.CacheService, keySerializer cache.KeySerializer) repository.Repository[T] {
	if cacheService == nil || keySerializer == nil {
		return base
	}
	return repositorycache.New(base, cacheService, keySerializer)
}
