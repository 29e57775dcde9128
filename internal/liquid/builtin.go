package liquid

import (
	"fmt"
	"html"
	"strings"

	"github.com/brandall10/brandall10.github.io/pkg/interfaces"
)

// BuiltInDefinitions returns the tag catalogue shipped with the blog engine.
func BuiltInDefinitions() []interfaces.TagDefinition {
	return []interfaces.TagDefinition{
		highlightDefinition(),
		rawDefinition(),
		postURLDefinition(),
		linkDefinition(),
	}
}

// RegisterBuiltIns registers the built-in tag definitions on the provided
// registry. When names is empty, every built-in tag is registered.
func RegisterBuiltIns(registry interfaces.TagRegistry, names []string) error {
	if registry == nil {
		return fmt.Errorf("liquid: registry is required")
	}

	available := make(map[string]interfaces.TagDefinition)
	for _, def := range BuiltInDefinitions() {
		available[strings.ToLower(strings.TrimSpace(def.Name))] = def
	}

	if len(names) == 0 {
		for _, def := range BuiltInDefinitions() {
			if err := registry.Register(def); err != nil {
				return err
			}
		}
		return nil
	}

	for _, name := range names {
		key := strings.ToLower(strings.TrimSpace(name))
		if key == "" {
			continue
		}
		def, ok := available[key]
		if !ok {
			return fmt.Errorf("liquid: built-in %q not found", name)
		}
		if err := registry.Register(def); err != nil {
			return err
		}
	}
	return nil
}

// highlightDefinition renders a fenced code block with a language class. The
// markup matches what the stylesheet targets: figure.highlight wrapping a
// pre/code pair carrying language-* and data-lang attributes.
func highlightDefinition() interfaces.TagDefinition {
	return interfaces.TagDefinition{
		Name:        "highlight",
		Description: "Syntax-highlighted code block",
		Paired:      true,
		Handler: func(_ interfaces.TagContext, args, inner string) (string, error) {
			fields := strings.Fields(args)
			if len(fields) == 0 {
				return "", fmt.Errorf("highlight: language is required")
			}
			lang := strings.ToLower(fields[0])

			code := strings.Trim(inner, "\n")
			if code == "" {
				return "", fmt.Errorf("highlight %s: empty block, missing {%% endhighlight %%}?", lang)
			}

			class := "highlight"
			if len(fields) > 1 && fields[1] == "linenos" {
				class += " highlight--linenos"
			}
			return fmt.Sprintf("<figure class=%q><pre><code class=\"language-%s\" data-lang=%q>%s</code></pre></figure>",
				class, lang, lang, html.EscapeString(code)), nil
		},
	}
}

// rawDefinition passes its body through untouched so template-like text in a
// post survives tag expansion.
func rawDefinition() interfaces.TagDefinition {
	return interfaces.TagDefinition{
		Name:        "raw",
		Description: "Verbatim block shielded from tag expansion",
		Paired:      true,
		Handler: func(_ interfaces.TagContext, _ string, inner string) (string, error) {
			return inner, nil
		},
	}
}

// postURLDefinition expands to the published URL of another post, addressed
// by its filename stem. Unknown posts fail the build rather than shipping a
// dead link.
func postURLDefinition() interfaces.TagDefinition {
	return interfaces.TagDefinition{
		Name:        "post_url",
		Description: "URL of another post by filename",
		Handler: func(ctx interfaces.TagContext, args, _ string) (string, error) {
			name := strings.TrimSpace(args)
			if name == "" {
				return "", fmt.Errorf("post_url: post name is required")
			}
			if ctx.ResolvePostURL == nil {
				return "", fmt.Errorf("post_url: no post resolver configured")
			}
			url, err := ctx.ResolvePostURL(name)
			if err != nil {
				return "", fmt.Errorf("post_url %s: %w", name, err)
			}
			return url, nil
		},
	}
}

// linkDefinition expands to the published URL of any source file.
func linkDefinition() interfaces.TagDefinition {
	return interfaces.TagDefinition{
		Name:        "link",
		Description: "URL of a source file",
		Handler: func(ctx interfaces.TagContext, args, _ string) (string, error) {
			path := strings.TrimSpace(args)
			if path == "" {
				return "", fmt.Errorf("link: source path is required")
			}
			if ctx.ResolveLink == nil {
				return "", fmt.Errorf("link: no link resolver configured")
			}
			url, err := ctx.ResolveLink(path)
			if err != nil {
				return "", fmt.Errorf("link %s: %w", path, err)
			}
			return url, nil
		},
	}
}
