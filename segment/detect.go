package segment

import (
	"regexp"
	"strings"

	"github.com/poiesic/corpus/core"
)

var (
	headingPattern    = regexp.MustCompile(`^#{1,6}\s`)
	listPattern       = regexp.MustCompile(`^([-*+]|\d{1,3}[.)])\s`)
	inlineCodePattern = regexp.MustCompile("`[^`\n]+`")
)

// DetectContentType tags content with a coarse markup class. Prefix
// markers (heading, list, quote, table) win over embedded code markers;
// prose is the default when nothing matches.
func DetectContentType(content string) core.ContentType {
	trimmed := strings.TrimSpace(content)
	switch {
	case trimmed == "":
		return core.ContentText
	case headingPattern.MatchString(trimmed):
		return core.ContentHeading
	case listPattern.MatchString(trimmed):
		return core.ContentList
	case strings.HasPrefix(trimmed, ">"):
		return core.ContentQuote
	case strings.HasPrefix(trimmed, "|"):
		return core.ContentTable
	case strings.Contains(trimmed, "```") || inlineCodePattern.MatchString(trimmed):
		return core.ContentCode
	default:
		return core.ContentText
	}
}
