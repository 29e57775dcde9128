package interfaces

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Collection identifies the source tree a document was discovered in.
type Collection string

const (
	CollectionPosts  Collection = "posts"
	CollectionDrafts Collection = "drafts"
	CollectionPages  Collection = "pages"
)

// PostStatus describes where a post sits in its publishing lifecycle.
type PostStatus string

const (
	// PostStatusDraft marks documents under _drafts or flagged published: false.
	PostStatusDraft PostStatus = "draft"
	// PostStatusFuture marks posts dated after the build clock.
	PostStatusFuture PostStatus = "future"
	// PostStatusPublished marks posts included in a default build.
	PostStatusPublished PostStatus = "published"
)

// Document is a single source file with parsed front matter. Typed fields are
// projections of the raw FrontMatter map filled in by the loader; templates
// still receive the full map so custom keys survive.
type Document struct {
	ID          uuid.UUID
	SourcePath  string
	Collection  Collection
	FrontMatter FrontMatter

	Layout      string
	Title       string
	Date        time.Time
	Categories  []string
	Tags        []string
	Permalink   string
	Published   *bool
	Author      string
	Description string
	Excerpt     string
	Slug        string

	Body         []byte
	BodyHTML     []byte
	LastModified time.Time
	// Checksum digests the original file content (SHA-256) so incremental
	// builds can detect changes without re-rendering unchanged sources.
	Checksum []byte
}

// Post is a dated document with its expanded URL and publish status.
type Post struct {
	Document
	URL    string
	Status PostStatus
	// Next and Previous hold neighbouring post slugs in date order, with
	// Next pointing at the newer post.
	Next     string
	Previous string
}

// Page is an undated document (about pages, the home index, ...).
type Page struct {
	Document
	URL string
}

// Category groups posts that share a category value.
type Category struct {
	Name  string
	Slug  string
	URL   string
	Posts []*Post
}

// ValidationIssue reports a content problem found while validating site
// sources: unparseable front matter, missing required keys, or permalink
// collisions.
type ValidationIssue struct {
	SourcePath string
	Field      string
	Message    string
	// Conflict names the other source file when two documents expand to the
	// same URL.
	Conflict string
}

func (i ValidationIssue) String() string {
	switch {
	case i.Conflict != "":
		return fmt.Sprintf("%s: %s (conflicts with %s)", i.SourcePath, i.Message, i.Conflict)
	case i.Field != "":
		return fmt.Sprintf("%s: %s: %s", i.SourcePath, i.Field, i.Message)
	default:
		return fmt.Sprintf("%s: %s", i.SourcePath, i.Message)
	}
}

// LoadOptions widens which documents a load pass returns. The zero value
// matches a production build: published posts only.
type LoadOptions struct {
	Drafts      bool
	Future      bool
	Unpublished bool
}

// PostService loads, orders, and validates the site's documents.
type PostService interface {
	// Posts returns posts sorted newest first with URLs expanded and
	// Next/Previous links resolved.
	Posts(ctx context.Context, opts LoadOptions) ([]*Post, error)
	// Pages returns standalone pages with URLs expanded.
	Pages(ctx context.Context, opts LoadOptions) ([]*Page, error)
	// GetBySlug returns the post with the given slug.
	GetBySlug(ctx context.Context, slug string) (*Post, error)
	// Categories groups posts by category, sorted by name.
	Categories(ctx context.Context, opts LoadOptions) ([]*Category, error)
	// Validate checks every source document and reports issues instead of
	// failing on the first problem. Parse failures become issues too.
	Validate(ctx context.Context, opts LoadOptions) ([]ValidationIssue, error)
}
