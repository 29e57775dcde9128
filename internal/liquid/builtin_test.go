package liquid

import (
	"fmt"
	"strings"
	"testing"

	"github.com/brandall10/brandall10.github.io/pkg/interfaces"
)

func TestBuiltInDefinitions(t *testing.T) {
	defs := BuiltInDefinitions()
	if len(defs) == 0 {
		t.Fatal("expected built-in definitions")
	}

	reg := NewRegistry()
	for _, def := range defs {
		if err := reg.Register(def); err != nil {
			t.Fatalf("register built-in %s: %v", def.Name, err)
		}
	}

	// spot check
	if _, ok := reg.Get("highlight"); !ok {
		t.Fatal("highlight definition not registered")
	}
	if _, ok := reg.Get("post_url"); !ok {
		t.Fatal("post_url definition not registered")
	}
}

func TestRegisterBuiltInsSubset(t *testing.T) {
	reg := NewRegistry()
	if err := RegisterBuiltIns(reg, []string{"raw"}); err != nil {
		t.Fatalf("RegisterBuiltIns() unexpected error: %v", err)
	}
	if _, ok := reg.Get("raw"); !ok {
		t.Fatal("raw definition not registered")
	}
	if _, ok := reg.Get("highlight"); ok {
		t.Fatal("highlight should not be registered")
	}

	if err := RegisterBuiltIns(reg, []string{"nope"}); err == nil {
		t.Fatal("expected error for unknown built-in name")
	}
}

func TestHighlightDefinition(t *testing.T) {
	def := highlightDefinition()

	out, err := def.Handler(interfaces.TagContext{}, "ruby", "\nget \"/welcome\" => \"pages#home\"\n")
	if err != nil {
		t.Fatalf("highlight handler: %v", err)
	}
	for _, want := range []string{
		`<figure class="highlight">`,
		`<code class="language-ruby" data-lang="ruby">`,
		"get &#34;/welcome&#34; =&gt; &#34;pages#home&#34;",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("highlight output missing %q:\n%s", want, out)
		}
	}

	out, err = def.Handler(interfaces.TagContext{}, "ruby linenos", "x = 1")
	if err != nil {
		t.Fatalf("highlight handler with linenos: %v", err)
	}
	if !strings.Contains(out, "highlight--linenos") {
		t.Fatalf("expected linenos class, got %s", out)
	}

	if _, err := def.Handler(interfaces.TagContext{}, "", "code"); err == nil {
		t.Fatal("expected error without a language")
	}
	if _, err := def.Handler(interfaces.TagContext{}, "ruby", "\n\n"); err == nil {
		t.Fatal("expected error for empty block")
	}
}

func TestRawDefinition(t *testing.T) {
	def := rawDefinition()

	inner := "{{ page.title }} stays {% verbatim %}"
	out, err := def.Handler(interfaces.TagContext{}, "", inner)
	if err != nil {
		t.Fatalf("raw handler: %v", err)
	}
	if out != inner {
		t.Fatalf("raw should pass inner through, got %q", out)
	}
}

func TestPostURLDefinition(t *testing.T) {
	def := postURLDefinition()

	ctx := interfaces.TagContext{
		ResolvePostURL: func(name string) (string, error) {
			if name == "2015-05-20-nested-resources" {
				return "/rails/2015/05/20/nested-resources/", nil
			}
			return "", fmt.Errorf("no post named %s", name)
		},
	}

	url, err := def.Handler(ctx, "2015-05-20-nested-resources", "")
	if err != nil {
		t.Fatalf("post_url handler: %v", err)
	}
	if url != "/rails/2015/05/20/nested-resources/" {
		t.Fatalf("unexpected url %q", url)
	}

	if _, err := def.Handler(ctx, "2015-01-01-missing", ""); err == nil {
		t.Fatal("expected error for unknown post")
	}
	if _, err := def.Handler(interfaces.TagContext{}, "2015-05-20-nested-resources", ""); err == nil {
		t.Fatal("expected error without a resolver")
	}
}

func TestLinkDefinition(t *testing.T) {
	def := linkDefinition()

	ctx := interfaces.TagContext{
		ResolveLink: func(path string) (string, error) {
			if path == "about.md" {
				return "/about/", nil
			}
			return "", fmt.Errorf("no source file %s", path)
		},
	}

	url, err := def.Handler(ctx, "about.md", "")
	if err != nil {
		t.Fatalf("link handler: %v", err)
	}
	if url != "/about/" {
		t.Fatalf("unexpected url %q", url)
	}

	if _, err := def.Handler(ctx, "missing.md", ""); err == nil {
		t.Fatal("expected error for unknown source file")
	}
}
