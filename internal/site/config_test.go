package site

import (
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

func TestLoadMergesOverDefaults(t *testing.T) {
	cfg, err := Load("testdata/_config.yml")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Title != "Notes on Rails" {
		t.Fatalf("title mismatch, got %q", cfg.Title)
	}
	if cfg.URL != "https://brandall10.github.io" {
		t.Fatalf("url mismatch, got %q", cfg.URL)
	}
	if cfg.Author.Name != "Brian Randall" {
		t.Fatalf("author name mismatch, got %q", cfg.Author.Name)
	}
	if cfg.Permalink != StyleDate {
		t.Fatalf("permalink mismatch, got %q", cfg.Permalink)
	}
	if cfg.Paginate != 5 {
		t.Fatalf("paginate mismatch, got %d", cfg.Paginate)
	}

	// Keys the file does not set keep their defaults.
	if cfg.LayoutsDir != "_layouts" {
		t.Fatalf("layouts_dir default lost, got %q", cfg.LayoutsDir)
	}
	if !cfg.Markdown.Unsafe {
		t.Fatal("markdown unsafe default lost")
	}
	if cfg.PaginatePath != "/page/:num/" {
		t.Fatalf("paginate_path default lost, got %q", cfg.PaginatePath)
	}

	// Unknown keys land in Params for template access.
	if got := cfg.Params["github_username"]; got != "brandall10" {
		t.Fatalf("expected github_username in params, got %#v", got)
	}

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), DefaultConfigName))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Permalink != StylePretty {
		t.Fatalf("expected default permalink style, got %q", cfg.Permalink)
	}
}

func TestLoadMalformedYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, DefaultConfigName)
	if err := os.WriteFile(path, []byte("title: [unclosed\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error for malformed config")
	}
}

func TestLoadFS(t *testing.T) {
	fsys := fstest.MapFS{
		"_config.yml": &fstest.MapFile{Data: []byte("title: FS Site\nauthor: Solo Author\n")},
	}

	cfg, err := LoadFS(fsys, DefaultConfigName)
	if err != nil {
		t.Fatalf("LoadFS: %v", err)
	}
	if cfg.Title != "FS Site" {
		t.Fatalf("title mismatch, got %q", cfg.Title)
	}
	if cfg.Author.Name != "Solo Author" {
		t.Fatalf("expected scalar author form to populate name, got %q", cfg.Author.Name)
	}
}

func TestValidateRejectsBrokenConfig(t *testing.T) {
	cases := []struct {
		name  string
		mut   func(*Config)
		field string
	}{
		{"missing title", func(c *Config) { c.Title = "" }, "title"},
		{"relative url", func(c *Config) { c.URL = "example.com/blog" }, "url"},
		{"baseurl without slash", func(c *Config) { c.BaseURL = "blog" }, "baseurl"},
		{"negative paginate", func(c *Config) { c.Paginate = -1 }, "paginate"},
		{"paginate path without num", func(c *Config) { c.Paginate = 3; c.PaginatePath = "/page/" }, "paginate_path"},
		{"permalink without slash", func(c *Config) { c.Permalink = ":year/:title" }, "permalink"},
		{"unknown timezone", func(c *Config) { c.Timezone = "Mars/Olympus" }, "timezone"},
		{"unsupported encoding", func(c *Config) { c.Encoding = "latin-1" }, "encoding"},
		{"nav entry with both targets", func(c *Config) {
			c.Navigation = []NavItem{{Title: "Home", Route: "home", URL: "/"}}
		}, "navigation"},
		{"nav entry without target", func(c *Config) {
			c.Navigation = []NavItem{{Title: "Home"}}
		}, "navigation"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			cfg.Title = "Valid Title"
			tc.mut(&cfg)

			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}

			errs, ok := err.(validation.Errors)
			if !ok {
				t.Fatalf("expected validation.Errors, got %T", err)
			}
			if _, ok := errs[tc.field]; !ok {
				t.Fatalf("expected error on field %q, got %v", tc.field, errs)
			}
		})
	}
}

func TestPermalinkTemplate(t *testing.T) {
	cases := []struct {
		permalink string
		want      string
	}{
		{"", "/:categories/:year/:month/:day/:title/"},
		{"pretty", "/:categories/:year/:month/:day/:title/"},
		{"date", "/:categories/:year/:month/:day/:title:output_ext"},
		{"none", "/:categories/:title:output_ext"},
		{"/blog/:year/:slug/", "/blog/:year/:slug/"},
	}

	for _, tc := range cases {
		cfg := Config{Permalink: tc.permalink}
		if got := cfg.PermalinkTemplate(); got != tc.want {
			t.Fatalf("PermalinkTemplate(%q) = %q, want %q", tc.permalink, got, tc.want)
		}
	}
}

func TestURLHelpers(t *testing.T) {
	cfg := Config{URL: "https://brandall10.github.io/", BaseURL: "/blog"}

	if got := cfg.RelativeURL("/rails/intro/"); got != "/blog/rails/intro/" {
		t.Fatalf("RelativeURL mismatch, got %q", got)
	}
	if got := cfg.AbsoluteURL("rails/intro/"); got != "https://brandall10.github.io/blog/rails/intro/" {
		t.Fatalf("AbsoluteURL mismatch, got %q", got)
	}
	if got := cfg.RelativeURL(""); got != "/blog" {
		t.Fatalf("RelativeURL empty path mismatch, got %q", got)
	}

	bare := Config{}
	if got := bare.RelativeURL(""); got != "/" {
		t.Fatalf("bare RelativeURL mismatch, got %q", got)
	}
}

func TestLocation(t *testing.T) {
	cfg := Config{Timezone: "America/New_York"}
	if got := cfg.Location().String(); got != "America/New_York" {
		t.Fatalf("Location mismatch, got %q", got)
	}

	if got := (Config{}).Location(); got != nil && got.String() != "UTC" {
		t.Fatalf("expected UTC fallback, got %q", got)
	}
}
