// Package tool defines the tool artifact model and its on-disk document store.
// A tool is a named, versioned artifact: three documents (documentation,
// function catalog, summary), a Go source module, a signature manifest, an
// optional dependency manifest, and an optional metadata record.
package tool

import "strings"

// Document and artifact file names inside a tool namespace.
const (
	DocDocumentation = "documentation.md"
	DocFunctions     = "functions.md"
	DocSummary       = "summary.md"
	SourceFile       = "tool.go"
	ManifestFile     = "functions.json"
	DepsFile         = "deps.txt"
	MetadataFile     = "metadata.json"
)

// NormalizeName canonicalizes a tool name for lookup: lowercased, spaces
// replaced with underscores, surrounding whitespace trimmed.
func NormalizeName(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "_")
}
