package interfaces

import "context"

// TagContext carries per-build dependencies into tag handlers. Resolver
// functions are supplied by the caller because URL expansion needs the full
// post list, which only the build pipeline holds.
type TagContext struct {
	Context context.Context
	// ResolvePostURL maps a post's filename stem ("2015-03-10-serving-pages")
	// to its published URL.
	ResolvePostURL func(name string) (string, error)
	// ResolveLink maps a source path ("about.md") to its published URL.
	ResolveLink func(path string) (string, error)
}

// TagHandler renders one tag occurrence. Inner is empty for unpaired tags.
type TagHandler func(ctx TagContext, args string, inner string) (string, error)

// TagDefinition describes a content tag and how to render it.
type TagDefinition struct {
	Name        string
	Description string
	// Paired marks tags that wrap a body ({% raw %}...{% endraw %}).
	Paired  bool
	Handler TagHandler
}

// ParsedTag is one tag occurrence extracted from a document body.
type ParsedTag struct {
	Name  string
	Args  string
	Inner string
}

// TagRegistry stores tag definitions by name.
type TagRegistry interface {
	Register(def TagDefinition) error
	Get(name string) (TagDefinition, bool)
	List() []TagDefinition
	Remove(name string)
}

// TagProcessOptions configures a single Process call.
type TagProcessOptions struct {
	ResolvePostURL func(name string) (string, error)
	ResolveLink    func(path string) (string, error)
}

// TagService expands content tags in a document body before markdown
// rendering. Implementations must leave content without tags untouched.
type TagService interface {
	Process(ctx context.Context, content string, opts TagProcessOptions) (string, error)
}
