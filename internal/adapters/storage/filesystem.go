package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/brandall10/brandall10.github.io/pkg/interfaces"
	"github.com/brandall10/brandall10.github.io/pkg/storage"
)

// Operation strings the site generator routes artifact writes through.
const (
	opEnsureDir = "generator.ensure_dir"
	opWrite     = "generator.write"
	opRead      = "generator.read"
	opRemove    = "generator.remove"
)

// NewFilesystemProvider returns a provider that materialises generator
// artifacts beneath root. base, when set, should match the generator
// output directory so already-prefixed request paths are not doubled up.
func NewFilesystemProvider(root, base string) interfaces.StorageProvider {
	base = filepath.ToSlash(filepath.Clean(base))
	if base == "." {
		base = ""
	}
	return &filesystemProvider{root: root, base: base}
}

type filesystemProvider struct {
	root string
	base string
}

func (p *filesystemProvider) Query(_ context.Context, query string, args ...any) (interfaces.Rows, error) {
	if query != opRead || len(args) == 0 {
		return nil, nil
	}
	target := p.normalizePath(args[0])
	data, err := os.ReadFile(p.abs(target))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &fileRows{data: data}, nil
}

func (p *filesystemProvider) Exec(_ context.Context, query string, args ...any) (interfaces.Result, error) {
	switch query {
	case opEnsureDir:
		if len(args) == 0 {
			return emptyResult{}, fmt.Errorf("storage: ensure_dir requires path")
		}
		target := p.normalizePath(args[0])
		return emptyResult{}, os.MkdirAll(p.abs(target), 0o755)
	case opWrite:
		if len(args) < 2 {
			return emptyResult{}, fmt.Errorf("storage: write requires path and reader")
		}
		target := p.normalizePath(args[0])
		reader, ok := args[1].(io.Reader)
		if !ok || reader == nil {
			return emptyResult{}, fmt.Errorf("storage: write expects io.Reader content")
		}
		full := p.abs(target)
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			return emptyResult{}, err
		}
		file, err := os.Create(full)
		if err != nil {
			return emptyResult{}, err
		}
		defer file.Close()
		if _, err := io.Copy(file, reader); err != nil {
			return emptyResult{}, err
		}
		return emptyResult{}, nil
	case opRemove:
		if len(args) == 0 {
			return emptyResult{}, fmt.Errorf("storage: remove requires path")
		}
		target := p.normalizePath(args[0])
		err := os.RemoveAll(p.abs(target))
		if errors.Is(err, os.ErrNotExist) {
			return emptyResult{}, nil
		}
		return emptyResult{}, err
	default:
		return emptyResult{}, nil
	}
}

func (p *filesystemProvider) Transaction(_ context.Context, fn func(tx interfaces.Transaction) error) error {
	if fn == nil {
		return nil
	}
	return fn(&filesystemTx{provider: p})
}

// Capabilities reports this provider as a plain artifact sink.
func (p *filesystemProvider) Capabilities() storage.Capabilities {
	return storage.Capabilities{
		Metadata: map[string]any{
			"backend": "filesystem",
			"root":    p.root,
		},
	}
}

func (p *filesystemProvider) abs(rel string) string {
	if rel == "" {
		return p.root
	}
	return filepath.Join(p.root, filepath.FromSlash(rel))
}

// normalizePath trims the configured base prefix so callers can pass either
// output-relative or already-prefixed paths.
func (p *filesystemProvider) normalizePath(arg any) string {
	target, _ := arg.(string)
	target = filepath.ToSlash(filepath.Clean(target))
	if p.base != "" && strings.HasPrefix(target, p.base) {
		target = strings.TrimPrefix(target, p.base)
		target = strings.TrimPrefix(target, "/")
	}
	return target
}

type filesystemTx struct {
	provider *filesystemProvider
}

func (tx *filesystemTx) Query(ctx context.Context, query string, args ...any) (interfaces.Rows, error) {
	return tx.provider.Query(ctx, query, args...)
}

func (tx *filesystemTx) Exec(ctx context.Context, query string, args ...any) (interfaces.Result, error) {
	return tx.provider.Exec(ctx, query, args...)
}

func (tx *filesystemTx) Transaction(context.Context, func(interfaces.Transaction) error) error {
	return errors.New("storage: nested transactions not supported")
}

func (tx *filesystemTx) Commit() error   { return nil }
func (tx *filesystemTx) Rollback() error { return nil }

// fileRows yields one row holding the file contents.
type fileRows struct {
	data []byte
	done bool
}

func (r *fileRows) Next() bool {
	if r.done {
		return false
	}
	r.done = true
	return true
}

func (r *fileRows) Scan(dest ...any) error {
	if len(dest) == 0 {
		return errors.New("storage: scan requires a destination")
	}
	switch out := dest[0].(type) {
	case *[]byte:
		*out = append([]byte(nil), r.data...)
		return nil
	case *string:
		*out = string(r.data)
		return nil
	default:
		return fmt.Errorf("storage: unsupported scan destination %T", dest[0])
	}
}

func (r *fileRows) Close() error { return nil }
