package storage

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/brandall10/brandall10.github.io/pkg/storage"
)

// Open connects the index database described by cfg. sqlite3 is the
// default driver; postgres is available for sites that share an index.
func Open(cfg storage.Config) (*bun.DB, error) {
	dsn := strings.TrimSpace(cfg.DSN)
	if dsn == "" {
		return nil, fmt.Errorf("storage: dsn required")
	}

	switch strings.TrimSpace(cfg.Driver) {
	case "", "sqlite3":
		sqlDB, err := sql.Open("sqlite3", dsn)
		if err != nil {
			return nil, fmt.Errorf("storage: open sqlite: %w", err)
		}
		db := bun.NewDB(sqlDB, sqlitedialect.New())
		// Shared-cache memory databases need a single connection or each
		// new conn sees an empty schema.
		if strings.Contains(dsn, ":memory:") {
			db.SetMaxOpenConns(1)
		}
		return db, nil
	case "postgres":
		sqlDB, err := sql.Open("postgres", dsn)
		if err != nil {
			return nil, fmt.Errorf("storage: open postgres: %w", err)
		}
		return bun.NewDB(sqlDB, pgdialect.New()), nil
	default:
		return nil, fmt.Errorf("storage: unsupported driver %q", cfg.Driver)
	}
}

// Migrate applies every .sql file in fsys in lexical order. Files ship with
// the module via the embedded migrations FS.
func Migrate(ctx context.Context, db bun.IDB, fsys fs.FS) error {
	if db == nil {
		return fmt.Errorf("storage: migrate requires a database")
	}

	var files []string
	err := fs.WalkDir(fsys, ".", func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() || !strings.HasSuffix(path, ".sql") {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return fmt.Errorf("storage: list migrations: %w", err)
	}
	sort.Strings(files)

	for _, file := range files {
		script, err := fs.ReadFile(fsys, file)
		if err != nil {
			return fmt.Errorf("storage: read migration %s: %w", file, err)
		}
		if strings.TrimSpace(string(script)) == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, string(script)); err != nil {
			return fmt.Errorf("storage: apply migration %s: %w", file, err)
		}
	}
	return nil
}
