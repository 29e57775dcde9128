package liquid

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/brandall10/brandall10.github.io/pkg/interfaces"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	service, err := NewDefaultService()
	if err != nil {
		t.Fatalf("NewDefaultService() unexpected error: %v", err)
	}
	return service
}

func TestServiceProcess(t *testing.T) {
	service := newTestService(t)

	body := strings.Join([]string{
		"Routes live in `config/routes.rb`:",
		"",
		"{% highlight ruby %}",
		`Rails.application.routes.draw do`,
		`  get "/welcome" => "pages#home"`,
		`end`,
		"{% endhighlight %}",
		"",
		"See [nested resources]({% post_url 2015-05-20-nested-resources %}).",
	}, "\n")

	opts := interfaces.TagProcessOptions{
		ResolvePostURL: func(name string) (string, error) {
			if name == "2015-05-20-nested-resources" {
				return "/rails/2015/05/20/nested-resources/", nil
			}
			return "", fmt.Errorf("no post named %s", name)
		},
	}

	out, err := service.Process(context.Background(), body, opts)
	if err != nil {
		t.Fatalf("Process() unexpected error: %v", err)
	}

	for _, want := range []string{
		`<figure class="highlight">`,
		`data-lang="ruby"`,
		"Rails.application.routes.draw do",
		"(/rails/2015/05/20/nested-resources/)",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("processed output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "{%") || strings.Contains(out, "liquid:") {
		t.Fatalf("tags and placeholders should be gone:\n%s", out)
	}
}

func TestServiceProcessUnknownTag(t *testing.T) {
	service := newTestService(t)

	if _, err := service.Process(context.Background(), "{% gist 1234 %}", interfaces.TagProcessOptions{}); err == nil {
		t.Fatal("expected error for unknown tag")
	}
}

func TestServiceProcessPassthrough(t *testing.T) {
	service := newTestService(t)

	body := "No tags *here*."
	out, err := service.Process(context.Background(), body, interfaces.TagProcessOptions{})
	if err != nil {
		t.Fatalf("Process() unexpected error: %v", err)
	}
	if out != body {
		t.Fatalf("expected passthrough, got %q", out)
	}

	if out, err := service.Process(context.Background(), "", interfaces.TagProcessOptions{}); err != nil || out != "" {
		t.Fatalf("empty content should pass through, got %q, %v", out, err)
	}
}

func TestServiceProcessResolverFailure(t *testing.T) {
	service := newTestService(t)

	_, err := service.Process(context.Background(), "{% post_url 2015-01-01-missing %}", interfaces.TagProcessOptions{
		ResolvePostURL: func(name string) (string, error) {
			return "", fmt.Errorf("no post named %s", name)
		},
	})
	if err == nil || !strings.Contains(err.Error(), "2015-01-01-missing") {
		t.Fatalf("expected resolver failure naming the post, got %v", err)
	}
}

func TestNoOpService(t *testing.T) {
	service := NewNoOpService()

	body := "{% highlight ruby %}x{% endhighlight %}"
	out, err := service.Process(context.Background(), body, interfaces.TagProcessOptions{})
	if err != nil {
		t.Fatalf("Process() unexpected error: %v", err)
	}
	if out != body {
		t.Fatalf("no-op service should leave content untouched, got %q", out)
	}
}
