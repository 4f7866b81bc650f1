package forge

import (
	"regexp"
	"strings"
)

var fenceRe = regexp.MustCompile("(?s)```(?:go|golang)?\\s*\n(.*?)```")

// StripCodeFences recovers raw source text from model output. If the text
// contains one or more fenced blocks, the first block's body is returned;
// otherwise the text is returned trimmed as-is.
func StripCodeFences(text string) string {
	if m := fenceRe.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSpace(text)
}
