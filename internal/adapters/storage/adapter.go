// Package storage adapts concrete backends to the storage provider
// contract: a bun/sql executor for the content index and a filesystem
// provider for generated artifacts.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/brandall10/brandall10.github.io/pkg/interfaces"
	"github.com/brandall10/brandall10.github.io/pkg/storage"
)

// BunExecutor is the subset of bun.DB the SQL adapter needs.
type BunExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

// BunStorageAdapter exposes a bun database as a storage provider.
type BunStorageAdapter struct {
	db       BunExecutor
	readOnly bool
}

// AdapterOption customises the SQL adapter.
type AdapterOption func(*BunStorageAdapter)

// ReadOnly rejects writes at the adapter, regardless of what the
// underlying connection allows.
func ReadOnly() AdapterOption {
	return func(a *BunStorageAdapter) {
		a.readOnly = true
	}
}

// NewBunStorageAdapter wraps a bun database in the provider contract.
func NewBunStorageAdapter(db BunExecutor, opts ...AdapterOption) interfaces.StorageProvider {
	adapter := &BunStorageAdapter{db: db}
	for _, opt := range opts {
		opt(adapter)
	}
	return adapter
}

func (a *BunStorageAdapter) Query(ctx context.Context, query string, args ...any) (interfaces.Rows, error) {
	rows, err := a.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	if rows == nil {
		return nil, nil
	}
	return &sqlRows{rows: rows}, nil
}

func (a *BunStorageAdapter) Exec(ctx context.Context, query string, args ...any) (interfaces.Result, error) {
	if a.readOnly {
		return nil, errors.New("storage: adapter is read-only")
	}
	result, err := a.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return sqlResult{Result: result}, nil
}

func (a *BunStorageAdapter) Transaction(ctx context.Context, fn func(tx interfaces.Transaction) error) error {
	if a.readOnly {
		return errors.New("storage: adapter is read-only")
	}
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	wrapped := &bunTx{tx: tx}
	if err := fn(wrapped); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback failed after error %w: %v", err, rbErr)
		}
		return err
	}
	return tx.Commit()
}

// Capabilities reports what this adapter supports.
func (a *BunStorageAdapter) Capabilities() storage.Capabilities {
	return storage.Capabilities{
		ReadOnly: a.readOnly,
		Metadata: map[string]any{"backend": "bun"},
	}
}

type sqlRows struct {
	rows *sql.Rows
}

func (r *sqlRows) Next() bool {
	if r.rows == nil {
		return false
	}
	return r.rows.Next()
}

func (r *sqlRows) Scan(dest ...any) error {
	if r.rows == nil {
		return errors.New("storage: no rows available")
	}
	return r.rows.Scan(dest...)
}

func (r *sqlRows) Close() error {
	if r.rows == nil {
		return nil
	}
	return r.rows.Close()
}

type sqlResult struct {
	sql.Result
}

type bunTx struct {
	tx *sql.Tx
}

func (t *bunTx) Query(ctx context.Context, query string, args ...any) (interfaces.Rows, error) {
	rows, err := t.tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	if rows == nil {
		return nil, nil
	}
	return &sqlRows{rows: rows}, nil
}

func (t *bunTx) Exec(ctx context.Context, query string, args ...any) (interfaces.Result, error) {
	result, err := t.tx.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return sqlResult{Result: result}, nil
}

func (t *bunTx) Transaction(context.Context, func(interfaces.Transaction) error) error {
	return errors.New("storage: nested transactions not supported")
}

func (t *bunTx) Commit() error {
	return t.tx.Commit()
}

func (t *bunTx) Rollback() error {
	return t.tx.Rollback()
}

// NoOpProvider discards every operation. It stands in when the site runs
// without an index database.
type NoOpProvider struct{}

func NewNoOpProvider() interfaces.StorageProvider {
	return &NoOpProvider{}
}

func (*NoOpProvider) Query(context.Context, string, ...any) (interfaces.Rows, error) {
	return nil, nil
}

func (*NoOpProvider) Exec(context.Context, string, ...any) (interfaces.Result, error) {
	return emptyResult{}, nil
}

func (*NoOpProvider) Transaction(_ context.Context, fn func(tx interfaces.Transaction) error) error {
	if fn == nil {
		return nil
	}
	return fn(&noopTx{})
}

type noopTx struct{}

func (noopTx) Query(context.Context, string, ...any) (interfaces.Rows, error) {
	return nil, nil
}

func (noopTx) Exec(context.Context, string, ...any) (interfaces.Result, error) {
	return emptyResult{}, nil
}

func (noopTx) Transaction(context.Context, func(interfaces.Transaction) error) error {
	return nil
}

func (noopTx) Commit() error {
	return nil
}

func (noopTx) Rollback() error {
	return nil
}

type emptyResult struct{}

func (emptyResult) LastInsertId() (int64, error) { return 0, nil }
func (emptyResult) RowsAffected() (int64, error) { return 0, nil }
