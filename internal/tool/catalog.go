package tool

import (
	"regexp"
	"strings"
)

// CatalogFunction is one entry of the function catalog (functions.md):
// a function name, its declared parameter names, and a short description.
type CatalogFunction struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Parameters  []string `json:"parameters"`
}

var paramsLineRe = regexp.MustCompile(`(?i)^\s*(?:[-*]\s*)?(?:\*\*)?parameters(?:\*\*)?\s*:?\s*(?:\*\*)?\s*(.*)$`)

// ParseCatalog extracts function definitions from a functions.md document.
// Each "## name" heading opens a function section; a "Parameters:" line lists
// its comma-separated parameter names; other non-empty lines accumulate into
// the description.
func ParseCatalog(content string) []CatalogFunction {
	var functions []CatalogFunction
	var current *CatalogFunction

	flush := func() {
		if current != nil {
			current.Description = strings.TrimSpace(current.Description)
			functions = append(functions, *current)
			current = nil
		}
	}

	for _, line := range strings.Split(content, "\n") {
		if strings.HasPrefix(line, "## ") {
			flush()
			name := strings.TrimSpace(strings.TrimPrefix(line, "## "))
			// Headings like "## `add(a, b)`" keep only the function name
			name = strings.Trim(name, "`")
			if idx := strings.Index(name, "("); idx > 0 {
				name = name[:idx]
			}
			current = &CatalogFunction{Name: strings.TrimSpace(name)}
			continue
		}

		if current == nil {
			continue
		}

		if m := paramsLineRe.FindStringSubmatch(line); m != nil {
			raw := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(m[1]), "**"))
			if raw == "" || strings.EqualFold(raw, "none") {
				continue
			}
			for _, p := range strings.Split(raw, ",") {
				p = strings.TrimSpace(strings.Trim(strings.TrimSpace(p), "`"))
				// "name (string)" or "name: string" keeps only the name
				if idx := strings.IndexAny(p, " (:"); idx > 0 {
					p = p[:idx]
				}
				if p != "" {
					current.Parameters = append(current.Parameters, p)
				}
			}
			continue
		}

		if strings.TrimSpace(line) != "" {
			current.Description += strings.TrimSpace(line) + " "
		}
	}
	flush()

	return functions
}

// FindFunction returns the catalog entry with the given name, if present.
func FindFunction(catalog []CatalogFunction, name string) (CatalogFunction, bool) {
	for _, f := range catalog {
		if f.Name == name {
			return f, true
		}
	}
	return CatalogFunction{}, false
}
