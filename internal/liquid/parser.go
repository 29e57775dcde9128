package liquid

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/brandall10/brandall10.github.io/pkg/interfaces"
)

// placeholderFormat is the marker left in content where a tag was extracted.
const placeholderFormat = "<!-- liquid:%d -->"

var tagPattern = regexp.MustCompile(`\{%\s*([A-Za-z_][A-Za-z0-9_]*)\s*([^%]*?)\s*%\}`)

// ExtractTags replaces every tag in content with a placeholder and returns
// the transformed content alongside the extracted tags in document order.
//
// A tag followed by a matching {% end<name> %} captures everything between
// the two markers verbatim, so tag-like text inside a raw or highlight block
// never reaches the scanner. Tags without an end marker are unpaired.
func ExtractTags(content string) (string, []interfaces.ParsedTag, error) {
	var (
		out      strings.Builder
		tags     []interfaces.ParsedTag
		position int
	)

	for position < len(content) {
		loc := tagPattern.FindStringSubmatchIndex(content[position:])
		if loc == nil {
			out.WriteString(content[position:])
			break
		}

		matchStart := position + loc[0]
		matchEnd := position + loc[1]
		name := content[position+loc[2] : position+loc[3]]
		args := strings.TrimSpace(content[position+loc[4] : position+loc[5]])

		out.WriteString(content[position:matchStart])

		if strings.HasPrefix(name, "end") {
			return "", nil, fmt.Errorf("liquid: unexpected {%% %s %%} at offset %d", name, matchStart)
		}

		inner := ""
		after := matchEnd
		endPattern := regexp.MustCompile(`\{%\s*end` + regexp.QuoteMeta(name) + `\s*%\}`)
		if endLoc := endPattern.FindStringIndex(content[after:]); endLoc != nil {
			inner = content[after : after+endLoc[0]]
			after += endLoc[1]
		}

		fmt.Fprintf(&out, placeholderFormat, len(tags))
		tags = append(tags, interfaces.ParsedTag{Name: name, Args: args, Inner: inner})
		position = after
	}

	return out.String(), tags, nil
}
