package index_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	repocache "github.com/goliatone/go-repository-cache/cache"
	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	"github.com/brandall10/brandall10.github.io/internal/identity"
	"github.com/brandall10/brandall10.github.io/internal/index"
	"github.com/brandall10/brandall10.github.io/pkg/interfaces"
)

var indexClock = time.Date(2015, 3, 15, 12, 0, 0, 0, time.UTC)

func newIndexFixture(t *testing.T) (index.Service, *index.Store) {
	t.Helper()
	ctx := context.Background()

	sqlDB, err := sql.Open("sqlite3", "file::memory:?cache=shared")
	if err != nil {
		t.Fatalf("open sqlite db: %v", err)
	}
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	bunDB := bun.NewDB(sqlDB, sqlitedialect.New())
	bunDB.SetMaxOpenConns(1)

	models := []any{
		(*index.Entry)(nil),
		(*index.Build)(nil),
	}
	for _, model := range models {
		if _, err := bunDB.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			t.Fatalf("create table %T: %v", model, err)
		}
	}
	// The shared-cache memory database survives between tests in the same
	// process, so start each test from empty tables.
	for _, model := range models {
		if _, err := bunDB.NewDelete().Model(model).Where("1 = 1").Exec(ctx); err != nil {
			t.Fatalf("reset table %T: %v", model, err)
		}
	}

	cacheCfg := repocache.DefaultConfig()
	cacheCfg.TTL = time.Minute
	cacheService, err := repocache.NewCacheService(cacheCfg)
	if err != nil {
		t.Fatalf("new cache service: %v", err)
	}
	keySerializer := repocache.NewDefaultKeySerializer()

	store := index.NewStoreWithCache(bunDB, cacheService, keySerializer)
	svc := index.NewService(store, index.WithClock(func() time.Time { return indexClock }))
	return svc, store
}

func testPost(sourcePath, slug, title string, date time.Time, status interfaces.PostStatus) *interfaces.Post {
	return &interfaces.Post{
		Document: interfaces.Document{
			ID:         identity.DocumentUUID(sourcePath),
			SourcePath: sourcePath,
			Collection: interfaces.CollectionPosts,
			Title:      title,
			Date:       date,
			Categories: []string{"rails"},
			Slug:       slug,
			Checksum:   []byte{0x01, 0x02},
		},
		URL:    "/rails/" + slug + ".html",
		Status: status,
	}
}

func testPage(sourcePath, slug, title string) *interfaces.Page {
	return &interfaces.Page{
		Document: interfaces.Document{
			ID:         identity.DocumentUUID(sourcePath),
			SourcePath: sourcePath,
			Collection: interfaces.CollectionPages,
			Title:      title,
			Slug:       slug,
			Checksum:   []byte{0x0a},
		},
		URL: "/" + slug + "/",
	}
}

func TestIndexService_SyncLifecycle(t *testing.T) {
	ctx := context.Background()
	svc, store := newIndexFixture(t)

	first := testPost("_posts/2015-03-10-welcome.md", "welcome", "Welcome", time.Date(2015, 3, 10, 0, 0, 0, 0, time.UTC), interfaces.PostStatusPublished)
	second := testPost("_posts/2015-03-12-routing.md", "routing", "Routing", time.Date(2015, 3, 12, 0, 0, 0, 0, time.UTC), interfaces.PostStatusPublished)
	about := testPage("about.md", "about", "About")

	result, err := svc.Sync(ctx, []*interfaces.Post{first, second}, []*interfaces.Page{about})
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if result.Created != 3 || result.Updated != 0 || result.Deleted != 0 {
		t.Fatalf("unexpected first sync result: %+v", result)
	}

	entry, err := store.GetBySlug(ctx, "welcome")
	if err != nil {
		t.Fatalf("get by slug: %v", err)
	}
	if entry.Title != "Welcome" {
		t.Fatalf("expected title Welcome, got %q", entry.Title)
	}
	if entry.Status != string(interfaces.PostStatusPublished) {
		t.Fatalf("expected published status, got %q", entry.Status)
	}
	if entry.PublishedAt == nil {
		t.Fatal("expected published_at to be set")
	}

	// Same documents again: rows update in place.
	first.Title = "Welcome Aboard"
	first.Checksum = []byte{0x03, 0x04}
	result, err = svc.Sync(ctx, []*interfaces.Post{first, second}, []*interfaces.Page{about})
	if err != nil {
		t.Fatalf("second sync: %v", err)
	}
	if result.Created != 0 || result.Updated != 3 || result.Deleted != 0 {
		t.Fatalf("unexpected second sync result: %+v", result)
	}

	entry, err = store.GetBySlug(ctx, "welcome")
	if err != nil {
		t.Fatalf("get by slug after update: %v", err)
	}
	if entry.Title != "Welcome Aboard" {
		t.Fatalf("expected updated title, got %q", entry.Title)
	}

	// Drop one post: its row is soft-deleted, not removed.
	result, err = svc.Sync(ctx, []*interfaces.Post{second}, []*interfaces.Page{about})
	if err != nil {
		t.Fatalf("third sync: %v", err)
	}
	if result.Deleted != 1 {
		t.Fatalf("expected one deleted entry, got %+v", result)
	}

	if _, err := store.GetBySlug(ctx, "welcome"); err == nil {
		t.Fatal("expected deleted entry to be hidden from slug lookups")
	} else {
		var notFound *index.NotFoundError
		if !errors.As(err, &notFound) {
			t.Fatalf("expected NotFoundError, got %v", err)
		}
	}

	all, err := store.ListEntries(ctx)
	if err != nil {
		t.Fatalf("list entries: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 rows including the deleted one, got %d", len(all))
	}
}

func TestIndexService_PublishFlow(t *testing.T) {
	ctx := context.Background()
	svc, store := newIndexFixture(t)

	scheduled := testPost("_posts/2015-04-01-upgrade-notes.md", "upgrade-notes", "Upgrade Notes",
		time.Date(2015, 4, 1, 9, 0, 0, 0, time.UTC), interfaces.PostStatusFuture)

	if _, err := svc.Sync(ctx, []*interfaces.Post{scheduled}, nil); err != nil {
		t.Fatalf("sync: %v", err)
	}

	due, err := svc.DueForPublish(ctx, time.Date(2015, 3, 31, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("due before date: %v", err)
	}
	if len(due) != 0 {
		t.Fatalf("expected nothing due before the post date, got %d", len(due))
	}

	due, err = svc.DueForPublish(ctx, time.Date(2015, 4, 1, 10, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("due after date: %v", err)
	}
	if len(due) != 1 || due[0].Slug != "upgrade-notes" {
		t.Fatalf("expected upgrade-notes to be due, got %+v", due)
	}

	publishedAt := time.Date(2015, 4, 1, 10, 0, 0, 0, time.UTC)
	if err := svc.MarkPublished(ctx, "upgrade-notes", publishedAt); err != nil {
		t.Fatalf("mark published: %v", err)
	}

	due, err = svc.DueForPublish(ctx, publishedAt.Add(time.Hour))
	if err != nil {
		t.Fatalf("due after publish: %v", err)
	}
	if len(due) != 0 {
		t.Fatalf("expected queue drained after publish, got %d", len(due))
	}

	entry, err := store.GetBySlug(ctx, "upgrade-notes")
	if err != nil {
		t.Fatalf("get by slug: %v", err)
	}
	if entry.Status != string(interfaces.PostStatusPublished) {
		t.Fatalf("expected published status, got %q", entry.Status)
	}
	if entry.PublishedAt == nil {
		t.Fatal("expected published_at to be set")
	}
}

func TestIndexService_MarkPublishedUnknownSlug(t *testing.T) {
	svc, _ := newIndexFixture(t)

	err := svc.MarkPublished(context.Background(), "missing", indexClock)
	if err == nil {
		t.Fatal("expected error for unknown slug")
	}
	var notFound *index.NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
	if notFound.Key != "missing" {
		t.Fatalf("expected key missing, got %q", notFound.Key)
	}
}

func TestIndexService_BuildHistory(t *testing.T) {
	ctx := context.Background()
	svc, _ := newIndexFixture(t)

	okStart := time.Date(2015, 3, 15, 9, 0, 0, 0, time.UTC)
	okRecord, err := svc.RecordBuild(ctx, index.BuildRecord{
		StartedAt:  okStart,
		FinishedAt: okStart.Add(2 * time.Second),
		Rendered:   8,
		Skipped:    1,
		Copied:     3,
	})
	if err != nil {
		t.Fatalf("record build: %v", err)
	}
	if okRecord.Status != index.BuildStatusSucceeded {
		t.Fatalf("expected succeeded status, got %q", okRecord.Status)
	}
	if okRecord.Error != nil {
		t.Fatalf("expected no error message, got %q", *okRecord.Error)
	}

	failStart := okStart.Add(time.Hour)
	failRecord, err := svc.RecordBuild(ctx, index.BuildRecord{
		StartedAt:  failStart,
		FinishedAt: failStart.Add(time.Second),
		Error:      "permalink conflict: /rails/welcome.html",
	})
	if err != nil {
		t.Fatalf("record failed build: %v", err)
	}
	if failRecord.Status != index.BuildStatusFailed {
		t.Fatalf("expected failed status, got %q", failRecord.Status)
	}
	if failRecord.Error == nil || *failRecord.Error == "" {
		t.Fatal("expected error message on failed build")
	}

	history, err := svc.History(ctx, 10)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected 2 builds, got %d", len(history))
	}
	if !history[0].StartedAt.After(history[1].StartedAt) {
		t.Fatalf("expected newest build first, got %v then %v", history[0].StartedAt, history[1].StartedAt)
	}

	limited, err := svc.History(ctx, 1)
	if err != nil {
		t.Fatalf("limited history: %v", err)
	}
	if len(limited) != 1 || limited[0].Status != index.BuildStatusFailed {
		t.Fatalf("expected only the newest build, got %+v", limited)
	}
}

func TestIndexService_NoOp(t *testing.T) {
	ctx := context.Background()
	svc := index.NoOp()

	result, err := svc.Sync(ctx, []*interfaces.Post{testPost("_posts/2015-03-10-welcome.md", "welcome", "Welcome", indexClock, interfaces.PostStatusPublished)}, nil)
	if err != nil {
		t.Fatalf("noop sync: %v", err)
	}
	if result.Created != 0 {
		t.Fatalf("expected zero result from noop sync, got %+v", result)
	}

	if _, err := svc.RecordBuild(ctx, index.BuildRecord{Rendered: 4}); err != nil {
		t.Fatalf("noop record build: %v", err)
	}
	if err := svc.MarkPublished(ctx, "anything", indexClock); err != nil {
		t.Fatalf("noop mark published: %v", err)
	}
	due, err := svc.DueForPublish(ctx, indexClock)
	if err != nil {
		t.Fatalf("noop due: %v", err)
	}
	if len(due) != 0 {
		t.Fatalf("expected no due entries, got %d", len(due))
	}
}
