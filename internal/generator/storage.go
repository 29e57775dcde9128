package generator

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/brandall10/brandall10.github.io/pkg/interfaces"
)

const (
	storageOpEnsureDir = "generator.ensure_dir"
	storageOpWrite     = "generator.write"
	storageOpRead      = "generator.read"
	storageOpRemove    = "generator.remove"
)

// Artifact collection labels. Documents carry their source collection
// ("posts", "pages"); generated artifacts are labelled by what they are.
const (
	collectionArchive  = "archive"
	collectionFeed     = "feed"
	collectionSitemap  = "sitemap"
	collectionRobots   = "robots"
	collectionStatic   = "static"
	collectionAsset    = "asset"
	collectionManifest = "manifest"
)

// writeFileRequest describes one artifact write routed through the writer.
type writeFileRequest struct {
	Path        string
	Content     io.Reader
	Size        int64
	Collection  string
	ContentType string
	Checksum    string
	Metadata    map[string]string
}

// artifactWriter abstracts where build outputs land. Paths are slash
// separated and already carry the output directory prefix.
type artifactWriter interface {
	EnsureDir(ctx context.Context, path string) error
	WriteFile(ctx context.Context, req writeFileRequest) error
	RemoveAll(ctx context.Context, path string) error
}

// newArtifactWriter picks the writer for a build: a configured storage
// provider wins, otherwise artifacts land on the local filesystem under
// root. With neither, writes are discarded (dry runs).
func newArtifactWriter(storage interfaces.StorageProvider, root string) artifactWriter {
	if storage != nil {
		return &storageWriter{storage: storage}
	}
	if strings.TrimSpace(root) != "" {
		return &osWriter{root: root}
	}
	return noopWriter{}
}

type storageWriter struct {
	storage interfaces.StorageProvider
}

func (w *storageWriter) EnsureDir(ctx context.Context, path string) error {
	if strings.TrimSpace(path) == "" || path == "." {
		return nil
	}
	_, err := w.storage.Exec(ctx, storageOpEnsureDir, path)
	return err
}

func (w *storageWriter) WriteFile(ctx context.Context, req writeFileRequest) error {
	if req.Content == nil {
		return errors.New("generator: write requires content reader")
	}
	if strings.TrimSpace(req.Path) == "" {
		return errors.New("generator: write requires path")
	}
	if req.Metadata == nil {
		req.Metadata = map[string]string{}
	}
	args := []any{
		req.Path,
		req.Content,
		req.Size,
		req.Collection,
		req.ContentType,
		req.Checksum,
		req.Metadata,
	}
	_, err := w.storage.Exec(ctx, storageOpWrite, args...)
	return err
}

func (w *storageWriter) RemoveAll(ctx context.Context, path string) error {
	if strings.TrimSpace(path) == "" || path == "." {
		return nil
	}
	_, err := w.storage.Exec(ctx, storageOpRemove, path)
	return err
}

// readArtifact fetches a previously written artifact, used to reload the
// build manifest. A missing artifact returns nil data without error.
func readArtifact(ctx context.Context, storage interfaces.StorageProvider, root, target string) ([]byte, error) {
	if storage == nil {
		data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(target)))
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return data, err
	}
	rows, err := storage.Query(ctx, storageOpRead, target)
	if err != nil {
		return nil, err
	}
	if rows == nil {
		return nil, nil
	}
	defer rows.Close()
	if !rows.Next() {
		return nil, rows.Err()
	}
	var data []byte
	if err := rows.Scan(&data); err != nil {
		return nil, err
	}
	return data, nil
}

// osWriter writes artifacts straight to disk, the default for builds that
// run without a storage provider.
type osWriter struct {
	root string
}

func (w *osWriter) EnsureDir(_ context.Context, path string) error {
	if strings.TrimSpace(path) == "" || path == "." {
		return nil
	}
	return os.MkdirAll(filepath.Join(w.root, filepath.FromSlash(path)), 0o755)
}

func (w *osWriter) WriteFile(_ context.Context, req writeFileRequest) error {
	if req.Content == nil {
		return errors.New("generator: write requires content reader")
	}
	if strings.TrimSpace(req.Path) == "" {
		return errors.New("generator: write requires path")
	}
	full := filepath.Join(w.root, filepath.FromSlash(req.Path))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return err
	}
	file, err := os.Create(full)
	if err != nil {
		return err
	}
	defer file.Close()
	if _, err := io.Copy(file, req.Content); err != nil {
		return err
	}
	return file.Close()
}

func (w *osWriter) RemoveAll(_ context.Context, path string) error {
	if strings.TrimSpace(path) == "" || path == "." {
		return nil
	}
	err := os.RemoveAll(filepath.Join(w.root, filepath.FromSlash(path)))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

type noopWriter struct{}

func (noopWriter) EnsureDir(context.Context, string) error { return nil }

func (noopWriter) WriteFile(context.Context, writeFileRequest) error { return nil }

func (noopWriter) RemoveAll(context.Context, string) error { return nil }

func ensureDir(ctx context.Context, writer artifactWriter, cache map[string]struct{}, dir string) error {
	dir = strings.Trim(dir, " ")
	if dir == "" || dir == "." {
		return nil
	}
	if cache != nil {
		if _, ok := cache[dir]; ok {
			return nil
		}
		cache[dir] = struct{}{}
	}
	return writer.EnsureDir(ctx, dir)
}
