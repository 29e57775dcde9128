package liquid

import (
	"strings"
	"testing"
)

func TestExtractTagsUnpaired(t *testing.T) {
	content := `Read [the routing post]({% post_url 2015-05-20-nested-resources %}) first.`

	transformed, tags, err := ExtractTags(content)
	if err != nil {
		t.Fatalf("ExtractTags() unexpected error: %v", err)
	}
	if len(tags) != 1 {
		t.Fatalf("expected 1 tag, got %d", len(tags))
	}
	if tags[0].Name != "post_url" {
		t.Fatalf("expected post_url, got %s", tags[0].Name)
	}
	if tags[0].Args != "2015-05-20-nested-resources" {
		t.Fatalf("unexpected args %q", tags[0].Args)
	}
	if tags[0].Inner != "" {
		t.Fatalf("unpaired tag should have no inner, got %q", tags[0].Inner)
	}
	if !strings.Contains(transformed, "<!-- liquid:0 -->") {
		t.Fatalf("expected placeholder in %q", transformed)
	}
}

func TestExtractTagsPaired(t *testing.T) {
	content := "Before\n{% highlight ruby %}\nputs \"hi\"\n{% endhighlight %}\nAfter"

	transformed, tags, err := ExtractTags(content)
	if err != nil {
		t.Fatalf("ExtractTags() unexpected error: %v", err)
	}
	if len(tags) != 1 {
		t.Fatalf("expected 1 tag, got %d", len(tags))
	}
	if tags[0].Args != "ruby" {
		t.Fatalf("unexpected args %q", tags[0].Args)
	}
	if tags[0].Inner != "\nputs \"hi\"\n" {
		t.Fatalf("unexpected inner %q", tags[0].Inner)
	}
	if strings.Contains(transformed, "endhighlight") {
		t.Fatalf("end marker should be consumed: %q", transformed)
	}
	if !strings.HasPrefix(transformed, "Before\n") || !strings.HasSuffix(transformed, "\nAfter") {
		t.Fatalf("surrounding text should survive: %q", transformed)
	}
}

func TestExtractTagsRawShieldsInnerTags(t *testing.T) {
	content := "{% raw %}{% highlight ruby %} not a tag {% endhighlight %}{% endraw %}"

	_, tags, err := ExtractTags(content)
	if err != nil {
		t.Fatalf("ExtractTags() unexpected error: %v", err)
	}
	if len(tags) != 1 {
		t.Fatalf("expected raw to swallow inner tags, got %d tags", len(tags))
	}
	if tags[0].Name != "raw" {
		t.Fatalf("expected raw, got %s", tags[0].Name)
	}
	if !strings.Contains(tags[0].Inner, "{% highlight ruby %}") {
		t.Fatalf("raw inner should keep tag text verbatim, got %q", tags[0].Inner)
	}
}

func TestExtractTagsMultiple(t *testing.T) {
	content := "{% highlight ruby %}a{% endhighlight %} and {% highlight erb %}b{% endhighlight %}"

	transformed, tags, err := ExtractTags(content)
	if err != nil {
		t.Fatalf("ExtractTags() unexpected error: %v", err)
	}
	if len(tags) != 2 {
		t.Fatalf("expected 2 tags, got %d", len(tags))
	}
	if tags[0].Inner != "a" || tags[1].Inner != "b" {
		t.Fatalf("inner capture mixed up: %q / %q", tags[0].Inner, tags[1].Inner)
	}
	if transformed != "<!-- liquid:0 --> and <!-- liquid:1 -->" {
		t.Fatalf("unexpected transformed content %q", transformed)
	}
}

func TestExtractTagsStrayEnd(t *testing.T) {
	if _, _, err := ExtractTags("text {% endhighlight %} more"); err == nil {
		t.Fatal("expected error for stray end tag")
	}
}

func TestExtractTagsNoTags(t *testing.T) {
	content := "Plain **markdown** with {{ braces }} but no tags."

	transformed, tags, err := ExtractTags(content)
	if err != nil {
		t.Fatalf("ExtractTags() unexpected error: %v", err)
	}
	if len(tags) != 0 {
		t.Fatalf("expected no tags, got %d", len(tags))
	}
	if transformed != content {
		t.Fatalf("content without tags should pass through, got %q", transformed)
	}
}
