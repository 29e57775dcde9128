// Package index keeps a persistent record of what the site contains and
// what builds produced. It backs publish scheduling and build history; a
// site can run without it, so every consumer treats the index as optional.
package index

import (
	"encoding/hex"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/brandall10/brandall10.github.io/pkg/interfaces"
)

// Build outcomes recorded in the builds table.
const (
	BuildStatusSucceeded = "succeeded"
	BuildStatusFailed    = "failed"
)

// Entry is one indexed document: a post, draft, or page discovered during a
// load pass. The ID is deterministic from the source path, so re-syncing
// after a checkout rebuild updates rows instead of duplicating them.
type Entry struct {
	bun.BaseModel `bun:"table:entries,alias:e"`

	ID          uuid.UUID  `bun:",pk,type:uuid"         json:"id"`
	Slug        string     `bun:"slug,notnull"          json:"slug"`
	SourcePath  string     `bun:"source_path,notnull"   json:"source_path"`
	Collection  string     `bun:"collection,notnull"    json:"collection"`
	Title       string     `bun:"title,notnull"         json:"title"`
	Date        time.Time  `bun:"date,nullzero"         json:"date,omitempty"`
	Categories  []string   `bun:"categories,type:jsonb" json:"categories,omitempty"`
	URL         string     `bun:"url,notnull"           json:"url"`
	Status      string     `bun:"status,notnull,default:'published'" json:"status"`
	Checksum    string     `bun:"checksum,notnull"      json:"checksum"`
	PublishedAt *time.Time `bun:"published_at,nullzero" json:"published_at,omitempty"`
	DeletedAt   *time.Time `bun:"deleted_at,nullzero"   json:"deleted_at,omitempty"`
	CreatedAt   time.Time  `bun:"created_at,nullzero,default:current_timestamp" json:"created_at"`
	UpdatedAt   time.Time  `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at"`
}

// Build is one recorded build run with its outcome counts.
type Build struct {
	bun.BaseModel `bun:"table:builds,alias:b"`

	ID         uuid.UUID  `bun:",pk,type:uuid"       json:"id"`
	StartedAt  time.Time  `bun:"started_at,notnull"  json:"started_at"`
	FinishedAt *time.Time `bun:"finished_at,nullzero" json:"finished_at,omitempty"`
	Rendered   int        `bun:"rendered,notnull,default:0" json:"rendered"`
	Skipped    int        `bun:"skipped,notnull,default:0"  json:"skipped"`
	Copied     int        `bun:"copied,notnull,default:0"   json:"copied"`
	Status     string     `bun:"status,notnull"      json:"status"`
	Error      *string    `bun:"error"               json:"error,omitempty"`
	CreatedAt  time.Time  `bun:"created_at,nullzero,default:current_timestamp" json:"created_at"`
}

// NewEntryFromPost maps a loaded post onto its index row.
func NewEntryFromPost(post *interfaces.Post) *Entry {
	entry := &Entry{
		ID:         post.ID,
		Slug:       post.Slug,
		SourcePath: post.SourcePath,
		Collection: string(post.Collection),
		Title:      post.Title,
		Date:       post.Date,
		Categories: post.Categories,
		URL:        post.URL,
		Status:     string(post.Status),
		Checksum:   hex.EncodeToString(post.Checksum),
	}
	if post.Status == interfaces.PostStatusPublished && !post.Date.IsZero() {
		published := post.Date
		entry.PublishedAt = &published
	}
	return entry
}

// NewEntryFromPage maps a standalone page onto its index row. Pages carry no
// publish lifecycle; an unpublished flag in front matter still demotes them
// to draft.
func NewEntryFromPage(page *interfaces.Page) *Entry {
	status := string(interfaces.PostStatusPublished)
	if page.Published != nil && !*page.Published {
		status = string(interfaces.PostStatusDraft)
	}
	return &Entry{
		ID:         page.ID,
		Slug:       page.Slug,
		SourcePath: page.SourcePath,
		Collection: string(page.Collection),
		Title:      page.Title,
		Date:       page.Date,
		Categories: page.Categories,
		URL:        page.URL,
		Status:     status,
		Checksum:   hex.EncodeToString(page.Checksum),
	}
}
