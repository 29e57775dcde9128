package posts

import (
	"path"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Source tree directories with fixed meanings. Layout and include
// directories are configurable; these are not.
const (
	PostsDir  = "_posts"
	DraftsDir = "_drafts"
)

var markupExtensions = map[string]struct{}{
	".md":       {},
	".markdown": {},
	".mkd":      {},
	".mkdn":     {},
	".html":     {},
	".htm":      {},
}

// IsMarkup reports whether the file at p is a renderable document type.
func IsMarkup(p string) bool {
	_, ok := markupExtensions[strings.ToLower(path.Ext(p))]
	return ok
}

var postNamePattern = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})-(.+)$`)

// FilenameInfo carries the parts of a dated post filename.
type FilenameInfo struct {
	Year  int
	Month int
	Day   int
	Slug  string
	Ext   string
}

// Date materialises the filename date at midnight in loc.
func (fi FilenameInfo) Date(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return time.Date(fi.Year, time.Month(fi.Month), fi.Day, 0, 0, 0, 0, loc)
}

// ParseFilename splits a post filename of the form YYYY-MM-DD-title.ext.
// It reports false for names that do not follow the convention or encode an
// impossible calendar date.
func ParseFilename(name string) (FilenameInfo, bool) {
	base := path.Base(name)
	ext := path.Ext(base)
	stem := strings.TrimSuffix(base, ext)

	match := postNamePattern.FindStringSubmatch(stem)
	if match == nil {
		return FilenameInfo{}, false
	}

	year, _ := strconv.Atoi(match[1])
	month, _ := strconv.Atoi(match[2])
	day, _ := strconv.Atoi(match[3])
	slug := strings.Trim(match[4], "-")
	if slug == "" {
		return FilenameInfo{}, false
	}

	// Reject dates that only pass the regexp, like 2015-13-40. time.Date
	// normalises overflow, so a round-trip comparison catches them.
	probe := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if probe.Year() != year || int(probe.Month()) != month || probe.Day() != day {
		return FilenameInfo{}, false
	}

	return FilenameInfo{
		Year:  year,
		Month: month,
		Day:   day,
		Slug:  slug,
		Ext:   strings.ToLower(ext),
	}, true
}
