package tool

import (
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Metadata is the structured record persisted alongside a tool's documents.
type Metadata struct {
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Tags        []string          `json:"tags,omitempty"`
	Author      string            `json:"author,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
	Functions   []CatalogFunction `json:"functions,omitempty"`
}

// GenerateMetadata builds a metadata record from a tool directory's documents.
// Best effort: missing documents leave the corresponding fields empty.
func GenerateMetadata(dir string) *Metadata {
	now := time.Now().UTC()
	md := &Metadata{
		Name:      NormalizeName(filepath.Base(dir)),
		Author:    "boop",
		CreatedAt: now,
		UpdatedAt: now,
	}

	if data, err := os.ReadFile(filepath.Join(dir, DocSummary)); err == nil {
		md.Description = firstParagraph(string(data))
	}

	if data, err := os.ReadFile(filepath.Join(dir, DocFunctions)); err == nil {
		md.Functions = ParseCatalog(string(data))
	}

	return md
}

// firstParagraph returns the first non-heading paragraph of a document,
// capped at 300 characters.
func firstParagraph(doc string) string {
	var para []string
	for _, line := range strings.Split(doc, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			if len(para) > 0 {
				break
			}
			continue
		}
		if strings.HasPrefix(trimmed, "#") {
			continue
		}
		para = append(para, trimmed)
	}

	out := strings.Join(para, " ")
	if len(out) > 300 {
		out = out[:300]
	}
	return out
}
