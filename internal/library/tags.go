package library

import (
	"sort"
	"strings"
)

// tagKeywords maps a tag onto the description keywords that imply it.
var tagKeywords = map[string][]string{
	"math":       {"math", "calculate", "arithmetic", "number", "sum", "divide", "multiply"},
	"text":       {"text", "string", "format", "parse", "word"},
	"files":      {"file", "directory", "folder", "path", "read", "write"},
	"network":    {"http", "url", "fetch", "download", "request", "api"},
	"time":       {"time", "date", "clock", "schedule", "timer"},
	"conversion": {"convert", "unit", "translate", "encode", "decode"},
	"data":       {"json", "csv", "data", "list", "sort", "filter"},
}

// importTags maps an import path fragment onto a tag for source scanning.
var importTags = map[string]string{
	"math":     "math",
	"strings":  "text",
	"os":       "files",
	"path":     "files",
	"net/http": "network",
	"time":     "time",
	"encoding": "data",
	"sort":     "data",
}

// AutoTag derives tags for a tool from its description and source text,
// sorted and deduplicated.
func AutoTag(description, source string) []string {
	seen := map[string]bool{}

	lower := strings.ToLower(description)
	for tag, words := range tagKeywords {
		for _, w := range words {
			if strings.Contains(lower, w) {
				seen[tag] = true
				break
			}
		}
	}

	for fragment, tag := range importTags {
		if strings.Contains(source, `"`+fragment+`"`) {
			seen[tag] = true
		}
	}

	tags := make([]string, 0, len(seen))
	for tag := range seen {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}
