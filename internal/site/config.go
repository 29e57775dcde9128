package site

import (
	"net/url"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"
)

// Named permalink styles. A style expands to a full pattern; any other
// permalink value is treated as a literal pattern with placeholders.
const (
	StyleDate     = "date"
	StylePretty   = "pretty"
	StyleOrdinal  = "ordinal"
	StyleWeekdate = "weekdate"
	StyleNone     = "none"
)

var permalinkStyles = map[string]string{
	StyleDate:     "/:categories/:year/:month/:day/:title:output_ext",
	StylePretty:   "/:categories/:year/:month/:day/:title/",
	StyleOrdinal:  "/:categories/:year/:y_day/:title:output_ext",
	StyleWeekdate: "/:categories/:year/W:week/:short_day/:title:output_ext",
	StyleNone:     "/:categories/:title:output_ext",
}

// Config models _config.yml, the author-facing configuration that travels
// with the content. Engine concerns such as source and output directories
// live in the runtime configuration instead, so a checkout stays portable.
type Config struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	// URL is the scheme and host the site deploys to, e.g.
	// "https://brandall10.github.io". BaseURL is the subpath when the site
	// is not served from the host root.
	URL     string `yaml:"url"`
	BaseURL string `yaml:"baseurl"`
	Author  Author `yaml:"author"`

	Permalink        string `yaml:"permalink"`
	Paginate         int    `yaml:"paginate"`
	PaginatePath     string `yaml:"paginate_path"`
	ExcerptSeparator string `yaml:"excerpt_separator"`

	// Future and Unpublished widen the publish filter; ShowDrafts folds
	// _drafts into the post list. All three default to off and are usually
	// flipped per-invocation rather than committed.
	Future      bool `yaml:"future"`
	Unpublished bool `yaml:"unpublished"`
	ShowDrafts  bool `yaml:"show_drafts"`

	Markdown     Markdown  `yaml:"markdown"`
	Theme        string    `yaml:"theme"`
	ThemeVariant string    `yaml:"theme_variant"`
	Navigation   []NavItem `yaml:"navigation"`

	LayoutsDir  string `yaml:"layouts_dir"`
	IncludesDir string `yaml:"includes_dir"`

	Exclude []string `yaml:"exclude"`
	Include []string `yaml:"include"`

	Timezone string `yaml:"timezone"`
	Encoding string `yaml:"encoding"`

	// Params collects every key _config.yml defines beyond the fields
	// above. Templates reach them through .Site.Params.
	Params map[string]any `yaml:",inline"`
}

// Author identifies the site author for feeds and bylines. _config.yml may
// provide either a bare string or a mapping with name, email, and url keys.
type Author struct {
	Name  string `yaml:"name"`
	Email string `yaml:"email"`
	URL   string `yaml:"url"`
}

// UnmarshalYAML accepts both the scalar and the mapping form.
func (a *Author) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		a.Name = strings.TrimSpace(value.Value)
		return nil
	}

	type plain Author
	var decoded plain
	if err := value.Decode(&decoded); err != nil {
		return err
	}
	*a = Author(decoded)
	return nil
}

// Markdown captures renderer behaviour. Unsafe defaults to on because posts
// embed raw HTML for figures and embeds.
type Markdown struct {
	HardWraps  bool     `yaml:"hard_wraps"`
	XHTML      bool     `yaml:"xhtml"`
	Unsafe     bool     `yaml:"unsafe"`
	Extensions []string `yaml:"extensions"`
}

// NavItem is a single navigation entry. Route names a registered site route
// resolved through the URL manager; URL short-circuits resolution for
// external or hand-written links. Exactly one of the two should be set.
// Params feeds route placeholders, e.g. route "category" with
// params {slug: rails}.
type NavItem struct {
	Title  string            `yaml:"title"`
	Route  string            `yaml:"route"`
	URL    string            `yaml:"url"`
	Params map[string]string `yaml:"params"`
}

// Default returns the configuration assumed when _config.yml omits a key.
// Load unmarshals on top of this value so absent keys keep their defaults.
func Default() Config {
	return Config{
		Permalink:        StylePretty,
		PaginatePath:     "/page/:num/",
		ExcerptSeparator: "\n\n",
		Markdown: Markdown{
			Unsafe: true,
		},
		LayoutsDir:  "_layouts",
		IncludesDir: "_includes",
		Timezone:    "UTC",
		Encoding:    "utf-8",
	}
}

// Validate checks the fields a build depends on. Navigation entries and
// permalink patterns fail here rather than halfway through a build.
func (c Config) Validate() error {
	errs := validation.Errors{}

	if strings.TrimSpace(c.Title) == "" {
		errs["title"] = validation.NewError("site.config.title_required", "title must not be empty")
	}

	if raw := strings.TrimSpace(c.URL); raw != "" {
		parsed, err := url.Parse(raw)
		if err != nil || parsed.Scheme == "" || parsed.Host == "" {
			errs["url"] = validation.NewError("site.config.url_invalid", "url must include scheme and host")
		}
	}

	if c.BaseURL != "" && !strings.HasPrefix(c.BaseURL, "/") {
		errs["baseurl"] = validation.NewError("site.config.baseurl_invalid", "baseurl must start with a slash")
	}

	if c.Paginate < 0 {
		errs["paginate"] = validation.NewError("site.config.paginate_invalid", "paginate must be zero or positive")
	}

	if c.Paginate > 0 && !strings.Contains(c.PaginatePath, ":num") {
		errs["paginate_path"] = validation.NewError("site.config.paginate_path_invalid", "paginate_path must contain :num")
	}

	if pattern := c.PermalinkTemplate(); !strings.HasPrefix(pattern, "/") {
		errs["permalink"] = validation.NewError("site.config.permalink_invalid", "permalink pattern must start with a slash")
	}

	if tz := strings.TrimSpace(c.Timezone); tz != "" {
		if _, err := time.LoadLocation(tz); err != nil {
			errs["timezone"] = validation.NewError("site.config.timezone_invalid", "timezone must be a valid IANA zone name")
		}
	}

	if enc := strings.ToLower(strings.TrimSpace(c.Encoding)); enc != "" && enc != "utf-8" && enc != "utf8" {
		errs["encoding"] = validation.NewError("site.config.encoding_unsupported", "only utf-8 output is supported")
	}

	for _, item := range c.Navigation {
		if strings.TrimSpace(item.Title) == "" {
			errs["navigation"] = validation.NewError("site.config.navigation_title_required", "navigation entries require a title")
			break
		}
		if (item.Route == "") == (item.URL == "") {
			errs["navigation"] = validation.NewError("site.config.navigation_target_required", "navigation entries require exactly one of route or url")
			break
		}
		if item.Route == "" && len(item.Params) > 0 {
			errs["navigation"] = validation.NewError("site.config.navigation_params_unused", "navigation params require a route")
			break
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// PermalinkTemplate resolves the configured permalink into a pattern.
// Named styles expand to their patterns; anything else passes through as a
// literal pattern. An empty value falls back to the pretty style.
func (c Config) PermalinkTemplate() string {
	key := strings.ToLower(strings.TrimSpace(c.Permalink))
	if key == "" {
		key = StylePretty
	}
	if pattern, ok := permalinkStyles[key]; ok {
		return pattern
	}
	return c.Permalink
}

// AbsoluteURL joins the site URL, base URL, and the given path.
func (c Config) AbsoluteURL(path string) string {
	return strings.TrimSuffix(c.URL, "/") + c.RelativeURL(path)
}

// RelativeURL prefixes path with the configured base URL.
func (c Config) RelativeURL(path string) string {
	base := strings.TrimSuffix(c.BaseURL, "/")
	if path == "" {
		if base == "" {
			return "/"
		}
		return base
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return base + path
}

// Location resolves the configured timezone, defaulting to UTC when unset
// or unknown. Post dates without an explicit offset are interpreted here.
func (c Config) Location() *time.Location {
	tz := strings.TrimSpace(c.Timezone)
	if tz == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return time.UTC
	}
	return loc
}
