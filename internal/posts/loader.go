package posts

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/goliatone/go-slug"

	"github.com/brandall10/brandall10.github.io/internal/identity"
	"github.com/brandall10/brandall10.github.io/internal/logging"
	"github.com/brandall10/brandall10.github.io/internal/markdown"
	"github.com/brandall10/brandall10.github.io/internal/site"
	"github.com/brandall10/brandall10.github.io/pkg/interfaces"
)

// Loader turns the files of a site source tree into documents. It walks a
// fs.FS so tests and embedded sites load the same way as a checkout on
// disk.
type Loader struct {
	fsys   fs.FS
	cfg    site.Config
	logger interfaces.Logger
	clock  func() time.Time
}

// LoaderOption configures a Loader at construction time.
type LoaderOption func(*Loader)

// WithLogger attaches a logger for per-file diagnostics.
func WithLogger(logger interfaces.Logger) LoaderOption {
	return func(l *Loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithClock overrides the clock used when a document carries no usable
// date, which keeps loader output deterministic in tests.
func WithClock(clock func() time.Time) LoaderOption {
	return func(l *Loader) {
		if clock != nil {
			l.clock = clock
		}
	}
}

// NewLoader constructs a Loader over the given source filesystem.
func NewLoader(fsys fs.FS, cfg site.Config, opts ...LoaderOption) *Loader {
	l := &Loader{
		fsys:   fsys,
		cfg:    cfg,
		logger: logging.NoOp(),
		clock:  time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// LoadPosts parses every dated document under _posts. Files that break the
// naming convention or fail front matter parsing become issues rather than
// aborting the walk, so one broken post never hides the rest.
func (l *Loader) LoadPosts(ctx context.Context) ([]*interfaces.Document, []interfaces.ValidationIssue, error) {
	return l.loadCollection(ctx, PostsDir, interfaces.CollectionPosts)
}

// LoadDrafts parses undated documents under _drafts. Draft dates fall back
// to the source file's modification time.
func (l *Loader) LoadDrafts(ctx context.Context) ([]*interfaces.Document, []interfaces.ValidationIssue, error) {
	return l.loadCollection(ctx, DraftsDir, interfaces.CollectionDrafts)
}

func (l *Loader) loadCollection(ctx context.Context, root string, collection interfaces.Collection) ([]*interfaces.Document, []interfaces.ValidationIssue, error) {
	select {
	case <-ctx.Done():
		return nil, nil, ctx.Err()
	default:
	}

	if _, err := fs.Stat(l.fsys, root); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil, nil
		}
		return nil, nil, fmt.Errorf("posts loader stat %s: %w", root, err)
	}

	var docs []*interfaces.Document
	var issues []interfaces.ValidationIssue

	walkErr := fs.WalkDir(l.fsys, root, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			if p != root && strings.HasPrefix(d.Name(), ".") {
				return fs.SkipDir
			}
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if !IsMarkup(p) {
			l.logger.Debug("post.skipped", "source_path", p, "reason", "not markup")
			return nil
		}

		doc, fileIssues, err := l.loadDocument(p, d, root, collection)
		if err != nil {
			return err
		}
		issues = append(issues, fileIssues...)
		if doc != nil {
			docs = append(docs, doc)
		}
		return nil
	})
	if walkErr != nil {
		return nil, nil, walkErr
	}

	sort.Slice(docs, func(i, j int) bool {
		return docs[i].SourcePath < docs[j].SourcePath
	})

	return docs, issues, nil
}

// LoadPages parses standalone documents outside the reserved directories.
// Markup files without a front matter fence are static files, not pages.
func (l *Loader) LoadPages(ctx context.Context) ([]*interfaces.Document, []interfaces.ValidationIssue, error) {
	select {
	case <-ctx.Done():
		return nil, nil, ctx.Err()
	default:
	}

	var docs []*interfaces.Document
	var issues []interfaces.ValidationIssue

	err := l.walkSource(ctx, func(p string, d fs.DirEntry) error {
		if !IsMarkup(p) {
			return nil
		}
		data, err := fs.ReadFile(l.fsys, p)
		if err != nil {
			return fmt.Errorf("posts loader read %s: %w", p, err)
		}
		if !markdown.HasFrontMatter(data) {
			return nil
		}

		doc, fileIssues, err := l.buildDocument(p, d, data, interfaces.CollectionPages, FilenameInfo{}, false)
		if err != nil {
			return err
		}
		issues = append(issues, fileIssues...)
		if doc != nil {
			docs = append(docs, doc)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	sort.Slice(docs, func(i, j int) bool {
		return docs[i].SourcePath < docs[j].SourcePath
	})

	return docs, issues, nil
}

// StaticFiles lists the source files copied to the output verbatim:
// everything the walk visits that is not a document. Markup files without
// front matter count as static.
func (l *Loader) StaticFiles(ctx context.Context) ([]string, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	var files []string
	err := l.walkSource(ctx, func(p string, d fs.DirEntry) error {
		if IsMarkup(p) {
			data, err := fs.ReadFile(l.fsys, p)
			if err != nil {
				return fmt.Errorf("posts loader read %s: %w", p, err)
			}
			if markdown.HasFrontMatter(data) {
				return nil
			}
		}
		files = append(files, p)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(files)
	return files, nil
}

// LoadFile parses a single source file, classifying it by its path. It is
// the entry point for single-file rebuilds out of the watcher.
func (l *Loader) LoadFile(ctx context.Context, p string) (*interfaces.Document, []interfaces.ValidationIssue, error) {
	select {
	case <-ctx.Done():
		return nil, nil, ctx.Err()
	default:
	}

	p = path.Clean(strings.TrimPrefix(p, "./"))

	info, err := fs.Stat(l.fsys, p)
	if err != nil {
		return nil, nil, fmt.Errorf("posts loader stat %s: %w", p, err)
	}
	entry := fs.FileInfoToDirEntry(info)

	switch {
	case strings.HasPrefix(p, PostsDir+"/"):
		return l.loadDocument(p, entry, PostsDir, interfaces.CollectionPosts)
	case strings.HasPrefix(p, DraftsDir+"/"):
		return l.loadDocument(p, entry, DraftsDir, interfaces.CollectionDrafts)
	default:
		if !IsMarkup(p) {
			return nil, nil, fmt.Errorf("posts loader: %s is not a document", p)
		}
		data, err := fs.ReadFile(l.fsys, p)
		if err != nil {
			return nil, nil, fmt.Errorf("posts loader read %s: %w", p, err)
		}
		if !markdown.HasFrontMatter(data) {
			return nil, nil, fmt.Errorf("posts loader: %s has no front matter", p)
		}
		return l.buildDocument(p, entry, data, interfaces.CollectionPages, FilenameInfo{}, false)
	}
}

func (l *Loader) loadDocument(p string, d fs.DirEntry, root string, collection interfaces.Collection) (*interfaces.Document, []interfaces.ValidationIssue, error) {
	var fi FilenameInfo
	var dated bool

	if collection == interfaces.CollectionPosts {
		fi, dated = ParseFilename(p)
		if !dated {
			return nil, []interfaces.ValidationIssue{{
				SourcePath: p,
				Field:      "filename",
				Message:    "post files must be named YYYY-MM-DD-title",
			}}, nil
		}
	}

	data, err := fs.ReadFile(l.fsys, p)
	if err != nil {
		return nil, nil, fmt.Errorf("posts loader read %s: %w", p, err)
	}

	if !markdown.HasFrontMatter(data) {
		return nil, []interfaces.ValidationIssue{{
			SourcePath: p,
			Field:      "front_matter",
			Message:    "missing front matter fence",
		}}, nil
	}

	doc, issues, err := l.buildDocument(p, d, data, collection, fi, dated)
	if err != nil {
		return nil, nil, err
	}
	if doc != nil {
		doc.Categories = mergeCategories(categorySegments(root, p), doc.Categories)
	}
	return doc, issues, nil
}

func (l *Loader) buildDocument(p string, d fs.DirEntry, data []byte, collection interfaces.Collection, fi FilenameInfo, dated bool) (*interfaces.Document, []interfaces.ValidationIssue, error) {
	fm, body, err := markdown.ParseFrontMatter(data)
	if err != nil {
		return nil, []interfaces.ValidationIssue{{
			SourcePath: p,
			Field:      "front_matter",
			Message:    err.Error(),
		}}, nil
	}

	info, err := d.Info()
	if err != nil {
		return nil, nil, fmt.Errorf("posts loader stat %s: %w", p, err)
	}

	loc := l.cfg.Location()
	sum := sha256.Sum256(data)

	doc := &interfaces.Document{
		ID:           identity.DocumentUUID(p),
		SourcePath:   p,
		Collection:   collection,
		FrontMatter:  fm,
		Layout:       fm.String("layout"),
		Title:        fm.String("title"),
		Permalink:    fm.String("permalink"),
		Author:       fm.String("author"),
		Description:  fm.String("description"),
		Body:         body,
		LastModified: info.ModTime(),
		Checksum:     sum[:],
	}

	slugSource := fm.String("slug")
	if slugSource == "" {
		if dated {
			slugSource = fi.Slug
		} else {
			base := path.Base(p)
			slugSource = strings.TrimSuffix(base, path.Ext(base))
		}
	}
	doc.Slug = normalizeSlug(slugSource)

	if doc.Title == "" {
		doc.Title = titleFromSlug(doc.Slug)
	}

	var cats []string
	if c := fm.String("category"); c != "" {
		cats = append(cats, c)
	}
	cats = append(cats, fm.Strings("categories")...)
	doc.Categories = dedupeStrings(cats)

	var tags []string
	if tg := fm.String("tag"); tg != "" {
		tags = append(tags, tg)
	}
	tags = append(tags, fm.Strings("tags")...)
	doc.Tags = dedupeStrings(tags)

	if v, ok := fm.Bool("published"); ok {
		doc.Published = &v
	}

	fallback := info.ModTime().In(loc)
	if fallback.IsZero() {
		fallback = l.clock().In(loc)
	}
	if dated {
		fallback = fi.Date(loc)
	}

	date, dateIssue := resolveDate(fm["date"], fallback, loc, p)
	doc.Date = date

	var issues []interfaces.ValidationIssue
	if dateIssue != nil {
		issues = append(issues, *dateIssue)
	}

	if ex := fm.String("excerpt"); ex != "" {
		doc.Excerpt = ex
	} else {
		doc.Excerpt = markdown.ExtractExcerpt(body, l.cfg.ExcerptSeparator)
	}

	logging.WithDocumentContext(l.logger, p, string(collection), "load").
		Debug("post.loaded", "slug", doc.Slug)

	return doc, issues, nil
}

// walkSource visits every file outside the reserved underscore directories,
// honouring the exclude and include lists from site configuration.
func (l *Loader) walkSource(ctx context.Context, visit func(p string, d fs.DirEntry) error) error {
	return fs.WalkDir(l.fsys, ".", func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if p == "." {
			return nil
		}
		if d.IsDir() {
			if l.skipEntry(p, d.Name()) {
				return fs.SkipDir
			}
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if l.skipEntry(p, d.Name()) {
			return nil
		}
		return visit(p, d)
	})
}

func (l *Loader) skipEntry(p, name string) bool {
	if l.included(p) {
		return false
	}
	if strings.HasPrefix(name, "_") || strings.HasPrefix(name, ".") || strings.HasSuffix(name, "~") {
		return true
	}
	return l.excluded(p)
}

func (l *Loader) excluded(p string) bool {
	return matchesAny(l.cfg.Exclude, p)
}

func (l *Loader) included(p string) bool {
	return matchesAny(l.cfg.Include, p)
}

// matchesAny treats each pattern as an exact path, a directory prefix, or a
// glob, in that order.
func matchesAny(patterns []string, p string) bool {
	for _, pattern := range patterns {
		pattern = strings.TrimSuffix(strings.TrimSpace(pattern), "/")
		if pattern == "" {
			continue
		}
		if p == pattern || strings.HasPrefix(p, pattern+"/") {
			return true
		}
		if ok, err := path.Match(pattern, p); err == nil && ok {
			return true
		}
	}
	return false
}

func categorySegments(root, p string) []string {
	rel := strings.TrimPrefix(p, root+"/")
	dir := path.Dir(rel)
	if dir == "." || dir == "" {
		return nil
	}
	return strings.Split(dir, "/")
}

func mergeCategories(fromPath, fromFrontMatter []string) []string {
	return dedupeStrings(append(append([]string{}, fromPath...), fromFrontMatter...))
}

var dateLayouts = []string{
	"2006-01-02 15:04:05 -0700",
	"2006-01-02 15:04:05 -07:00",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

func layoutHasZone(layout string) bool {
	return strings.Contains(layout, "-0700") || strings.Contains(layout, "-07:00") || strings.Contains(layout, "Z07:00")
}

// resolveDate projects the front matter date value onto a time.Time. The
// YAML decoder hands zone-less timestamps over in UTC; those are
// reinterpreted as wall clock time in the site timezone.
func resolveDate(raw any, fallback time.Time, loc *time.Location, sourcePath string) (time.Time, *interfaces.ValidationIssue) {
	switch v := raw.(type) {
	case nil:
		return fallback, nil
	case time.Time:
		if loc != time.UTC && v.Location() == time.UTC {
			return time.Date(v.Year(), v.Month(), v.Day(), v.Hour(), v.Minute(), v.Second(), v.Nanosecond(), loc), nil
		}
		return v, nil
	case string:
		value := strings.TrimSpace(v)
		if value == "" {
			return fallback, nil
		}
		for _, layout := range dateLayouts {
			var parsed time.Time
			var err error
			if layoutHasZone(layout) {
				parsed, err = time.Parse(layout, value)
			} else {
				parsed, err = time.ParseInLocation(layout, value, loc)
			}
			if err == nil {
				return parsed, nil
			}
		}
		return fallback, &interfaces.ValidationIssue{
			SourcePath: sourcePath,
			Field:      "date",
			Message:    fmt.Sprintf("unrecognised date %q", value),
		}
	default:
		return fallback, &interfaces.ValidationIssue{
			SourcePath: sourcePath,
			Field:      "date",
			Message:    fmt.Sprintf("unsupported date value of type %T", raw),
		}
	}
}

func normalizeSlug(value string) string {
	normalized, err := slug.Normalize(value)
	if err != nil || normalized == "" {
		normalized = strings.ToLower(strings.Join(strings.Fields(strings.TrimSpace(value)), "-"))
	}
	return normalized
}

func titleFromSlug(s string) string {
	words := strings.Split(s, "-")
	for i, word := range words {
		if word == "" {
			continue
		}
		r, size := utf8.DecodeRuneInString(word)
		words[i] = string(unicode.ToUpper(r)) + word[size:]
	}
	return strings.Join(words, " ")
}

func dedupeStrings(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(values))
	var out []string
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		key := strings.ToLower(v)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, v)
	}
	return out
}
