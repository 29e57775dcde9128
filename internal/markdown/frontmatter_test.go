package markdown

import (
	"os"
	"strings"
	"testing"
)

func TestParseFrontMatter(t *testing.T) {
	data := readFixture(t, "testdata/post.md")

	fm, body, err := ParseFrontMatter(data)
	if err != nil {
		t.Fatalf("ParseFrontMatter: %v", err)
	}

	if got := fm.String("layout"); got != "post" {
		t.Fatalf("layout mismatch, got %q", got)
	}
	if got := fm.String("title"); got != "Serving Pages With Rails" {
		t.Fatalf("title mismatch, got %q", got)
	}
	if got := fm.String("date"); got != "2015-03-10 12:18:00 -0500" {
		t.Fatalf("date mismatch, got %q", got)
	}

	categories := fm.Strings("categories")
	if len(categories) != 2 || categories[0] != "rails" || categories[1] != "tutorial" {
		t.Fatalf("categories mismatch: %#v", categories)
	}

	tags := fm.Strings("tags")
	if len(tags) != 2 || tags[0] != "rails" || tags[1] != "routing" {
		t.Fatalf("tags mismatch: %#v", tags)
	}

	if flag, ok := fm.Bool("highlighted"); !ok || !flag {
		t.Fatalf("expected highlighted to be true, got %v (ok=%v)", flag, ok)
	}

	if strings.Contains(string(body), "---") {
		t.Fatalf("body still contains fence: %q", string(body))
	}
	if !strings.Contains(string(body), "convention over configuration") {
		t.Fatalf("body not returned correctly: %q", string(body))
	}
}

func TestParseFrontMatterWithoutFence(t *testing.T) {
	source := []byte("# Plain Markdown\n\nNo metadata here.\n")

	fm, body, err := ParseFrontMatter(source)
	if err != nil {
		t.Fatalf("ParseFrontMatter: %v", err)
	}

	if len(fm) != 0 {
		t.Fatalf("expected empty front matter, got %#v", fm)
	}
	if string(body) != string(source) {
		t.Fatalf("expected full body back, got %q", string(body))
	}
}

func TestParseFrontMatterTOML(t *testing.T) {
	source := []byte("+++\ntitle = \"Migrated Post\"\ndraft = true\n+++\nBody text.\n")

	fm, body, err := ParseFrontMatter(source)
	if err != nil {
		t.Fatalf("ParseFrontMatter: %v", err)
	}

	if got := fm.String("title"); got != "Migrated Post" {
		t.Fatalf("title mismatch, got %q", got)
	}
	if flag, ok := fm.Bool("draft"); !ok || !flag {
		t.Fatalf("expected draft to be true, got %v (ok=%v)", flag, ok)
	}
	if !strings.Contains(string(body), "Body text.") {
		t.Fatalf("body mismatch: %q", string(body))
	}
}

func TestParseFrontMatterMalformedYAML(t *testing.T) {
	source := []byte("---\ntitle: [unclosed\n---\nBody.\n")

	if _, _, err := ParseFrontMatter(source); err == nil {
		t.Fatal("expected parse error for malformed front matter")
	}
}

func TestHasFrontMatter(t *testing.T) {
	cases := []struct {
		name   string
		source string
		want   bool
	}{
		{"yaml fence", "---\ntitle: x\n---\nbody", true},
		{"yaml fence crlf", "---\r\ntitle: x\r\n---\r\nbody", true},
		{"toml fence", "+++\ntitle = \"x\"\n+++\nbody", true},
		{"json fence", "{\n\"title\": \"x\"\n}\nbody", true},
		{"bom then fence", "\xef\xbb\xbf---\ntitle: x\n---\n", true},
		{"bare fence only", "---", true},
		{"plain markdown", "# Title\n\nbody", false},
		{"horizontal rule later", "intro\n\n---\n\nmore", false},
		{"empty", "", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := HasFrontMatter([]byte(tc.source)); got != tc.want {
				t.Fatalf("HasFrontMatter(%q) = %v, want %v", tc.source, got, tc.want)
			}
		})
	}
}

func TestExtractExcerpt(t *testing.T) {
	body := []byte("First paragraph of the post.\n\nSecond paragraph with more detail.\n")

	if got := ExtractExcerpt(body, ""); got != "First paragraph of the post." {
		t.Fatalf("default separator excerpt mismatch, got %q", got)
	}

	marked := []byte("Intro line.\nStill the intro.\n<!--more-->\nThe rest of the post.\n")
	if got := ExtractExcerpt(marked, "<!--more-->"); got != "Intro line.\nStill the intro." {
		t.Fatalf("custom separator excerpt mismatch, got %q", got)
	}

	short := []byte("Only one paragraph here.")
	if got := ExtractExcerpt(short, ""); got != "Only one paragraph here." {
		t.Fatalf("expected whole body when separator missing, got %q", got)
	}

	crlf := []byte("Windows intro.\r\n\r\nSecond part.\r\n")
	if got := ExtractExcerpt(crlf, ""); got != "Windows intro." {
		t.Fatalf("crlf excerpt mismatch, got %q", got)
	}
}

func readFixture(tb testing.TB, path string) []byte {
	tb.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		tb.Fatalf("read fixture %s: %v", path, err)
	}
	return data
}
