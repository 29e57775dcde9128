package sitecmd

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/brandall10/brandall10.github.io/internal/posts"
)

// ErrDraftExists is returned when a draft with the derived slug is already
// present under _drafts/.
var ErrDraftExists = errors.New("site command: draft already exists")

// ErrDraftNotFound is returned when publishing a slug with no draft file.
var ErrDraftNotFound = errors.New("site command: draft not found")

// ErrPostExists is returned when the publish target filename is taken.
var ErrPostExists = errors.New("site command: post already exists")

const (
	draftsDirName = "_drafts"
	postsDirName  = "_posts"
)

// Workspace performs authoring mutations on the site source tree. The
// loader reads content through an fs.FS, so writes go through the os
// against the source root directly.
type Workspace struct {
	root string
	now  func() time.Time
}

// WorkspaceOption customises a Workspace.
type WorkspaceOption func(*Workspace)

// WithWorkspaceClock overrides the time source, used mainly for tests.
func WithWorkspaceClock(clock func() time.Time) WorkspaceOption {
	return func(w *Workspace) {
		if clock != nil {
			w.now = clock
		}
	}
}

// NewWorkspace creates a workspace rooted at the site source directory.
func NewWorkspace(root string, opts ...WorkspaceOption) *Workspace {
	w := &Workspace{
		root: root,
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// CreateDraft writes a front matter skeleton to _drafts/<slug>.md and
// returns the path relative to the source root.
func (w *Workspace) CreateDraft(title string, categories []string) (string, error) {
	slug := posts.Slugify(title)
	if slug == "" {
		return "", fmt.Errorf("site command: cannot derive a slug from title %q", title)
	}

	rel := filepath.Join(draftsDirName, slug+".md")
	target := filepath.Join(w.root, rel)
	if _, err := os.Stat(target); err == nil {
		return "", fmt.Errorf("%w: %s", ErrDraftExists, rel)
	} else if !errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("site command: stat draft: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("site command: create drafts dir: %w", err)
	}
	if err := os.WriteFile(target, draftSkeleton(title, categories), 0o644); err != nil {
		return "", fmt.Errorf("site command: write draft: %w", err)
	}
	return filepath.ToSlash(rel), nil
}

// PublishDraft moves _drafts/<slug>.md to _posts/YYYY-MM-DD-<slug>.md,
// stamping the publish date into the front matter. A zero date publishes
// with the current time.
func (w *Workspace) PublishDraft(slug string, at time.Time) (string, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return "", fmt.Errorf("%w: empty slug", ErrDraftNotFound)
	}

	srcRel := filepath.Join(draftsDirName, slug+".md")
	src := filepath.Join(w.root, srcRel)
	data, err := os.ReadFile(src)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrDraftNotFound, srcRel)
		}
		return "", fmt.Errorf("site command: read draft: %w", err)
	}

	if at.IsZero() {
		at = w.now()
	}

	rel := filepath.Join(postsDirName, at.Format("2006-01-02")+"-"+slug+".md")
	target := filepath.Join(w.root, rel)
	if _, err := os.Stat(target); err == nil {
		return "", fmt.Errorf("%w: %s", ErrPostExists, rel)
	} else if !errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("site command: stat post: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("site command: create posts dir: %w", err)
	}
	if err := os.WriteFile(target, stampDate(data, at), 0o644); err != nil {
		return "", fmt.Errorf("site command: write post: %w", err)
	}
	if err := os.Remove(src); err != nil {
		return "", fmt.Errorf("site command: remove draft: %w", err)
	}
	return filepath.ToSlash(rel), nil
}

func draftSkeleton(title string, categories []string) []byte {
	var buf bytes.Buffer
	buf.WriteString("---\n")
	buf.WriteString("layout: post\n")
	fmt.Fprintf(&buf, "title: %q\n", strings.TrimSpace(title))
	if joined := joinCategories(categories); joined != "" {
		fmt.Fprintf(&buf, "categories: %s\n", joined)
	}
	buf.WriteString("---\n\n")
	return buf.Bytes()
}

func joinCategories(categories []string) string {
	cleaned := make([]string, 0, len(categories))
	for _, category := range categories {
		if trimmed := strings.TrimSpace(category); trimmed != "" {
			cleaned = append(cleaned, trimmed)
		}
	}
	return strings.Join(cleaned, " ")
}

// stampDate rewrites the date entry inside the leading front matter fence,
// inserting one when absent. The edit is textual so the author's key order
// and formatting survive the move.
func stampDate(data []byte, at time.Time) []byte {
	stamp := "date: " + at.Format("2006-01-02 15:04:05 -0700")

	lines := strings.Split(string(data), "\n")
	if len(lines) == 0 || strings.TrimSpace(lines[0]) != "---" {
		// No front matter fence: prepend one carrying just the date.
		var buf bytes.Buffer
		buf.WriteString("---\n")
		buf.WriteString(stamp + "\n")
		buf.WriteString("---\n")
		buf.Write(data)
		return buf.Bytes()
	}

	closing := -1
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "---" {
			closing = i
			break
		}
	}
	if closing == -1 {
		return data
	}

	for i := 1; i < closing; i++ {
		if strings.HasPrefix(strings.TrimSpace(lines[i]), "date:") {
			lines[i] = stamp
			return []byte(strings.Join(lines, "\n"))
		}
	}

	updated := make([]string, 0, len(lines)+1)
	updated = append(updated, lines[:closing]...)
	updated = append(updated, stamp)
	updated = append(updated, lines[closing:]...)
	return []byte(strings.Join(updated, "\n"))
}
