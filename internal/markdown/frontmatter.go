package markdown

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/adrg/frontmatter"
	"gopkg.in/yaml.v3"

	"github.com/brandall10/brandall10.github.io/pkg/interfaces"
)

// Front matter fences recognised at the top of a document. YAML is the
// convention for posts in this repository; TOML and JSON are accepted so
// content migrated from other generators parses without rewriting.
var formats = []*frontmatter.Format{
	frontmatter.NewFormat("---", "---", yaml.Unmarshal),
	frontmatter.NewFormat("+++", "+++", toml.Unmarshal),
	frontmatter.NewFormat("{", "}", json.Unmarshal),
}

var utf8BOM = []byte("\xef\xbb\xbf")

// HasFrontMatter reports whether the source opens with a recognised front
// matter fence. Files without one are treated as static assets, not
// documents, so the fence must start on the first line.
func HasFrontMatter(source []byte) bool {
	trimmed := bytes.TrimPrefix(source, utf8BOM)
	for _, prefix := range [][]byte{[]byte("---\n"), []byte("---\r\n"), []byte("+++\n"), []byte("+++\r\n"), []byte("{")} {
		if bytes.HasPrefix(trimmed, prefix) {
			return true
		}
	}
	// A fence with nothing after it still counts; "---" alone is an empty
	// front matter block.
	return bytes.Equal(bytes.TrimRight(trimmed, "\r\n"), []byte("---"))
}

// ParseFrontMatter extracts metadata and markdown body content from the
// provided source bytes. It returns the front matter map, the body without
// delimiters, and any error encountered. Sources without a front matter
// fence return an empty map and the full body.
func ParseFrontMatter(source []byte) (interfaces.FrontMatter, []byte, error) {
	meta := map[string]any{}

	reader := bytes.NewReader(bytes.TrimPrefix(source, utf8BOM))
	body, err := frontmatter.Parse(reader, &meta, formats...)
	if err != nil {
		return nil, nil, fmt.Errorf("parse front matter: %w", err)
	}

	if meta == nil {
		meta = map[string]any{}
	}
	return interfaces.FrontMatter(meta), body, nil
}
