package tool

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Store reads and writes named text documents under per-tool namespaces
// rooted at a tools directory.
type Store struct {
	root string
}

// NewStore creates a document store rooted at dir.
func NewStore(dir string) *Store {
	return &Store{root: dir}
}

// Root returns the tools directory.
func (s *Store) Root() string { return s.root }

// Path returns the namespace directory for a tool, resolving the stored
// directory whose normalized name matches.
func (s *Store) Path(name string) string {
	normalized := NormalizeName(name)

	entries, err := os.ReadDir(s.root)
	if err == nil {
		for _, e := range entries {
			if e.IsDir() && NormalizeName(e.Name()) == normalized {
				return filepath.Join(s.root, e.Name())
			}
		}
	}
	return filepath.Join(s.root, normalized)
}

// Exists reports whether a tool namespace is present.
func (s *Store) Exists(name string) bool {
	info, err := os.Stat(s.Path(name))
	return err == nil && info.IsDir()
}

// EnsureNamespace creates the tool's namespace directory if absent.
func (s *Store) EnsureNamespace(name string) (string, error) {
	dir := s.Path(name)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create tool namespace: %w", err)
	}
	return dir, nil
}

// ReadDoc reads a named document from a tool namespace.
func (s *Store) ReadDoc(name, doc string) (string, error) {
	data, err := os.ReadFile(filepath.Join(s.Path(name), doc))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// WriteDoc writes a named document into a tool namespace, creating the
// namespace if needed.
func (s *Store) WriteDoc(name, doc, content string) error {
	dir, err := s.EnsureNamespace(name)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, doc), []byte(content), 0644)
}

// HasDoc reports whether a named document exists for a tool.
func (s *Store) HasDoc(name, doc string) bool {
	_, err := os.Stat(filepath.Join(s.Path(name), doc))
	return err == nil
}

// SourcePath returns the path to a tool's source module.
func (s *Store) SourcePath(name string) string {
	return filepath.Join(s.Path(name), SourceFile)
}

// ListNamespaces returns all tool namespace names (directory names, hidden
// entries skipped).
func (s *Store) ListNamespaces() []string {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() || e.Name()[0] == '.' {
			continue
		}
		names = append(names, e.Name())
	}
	return names
}

// ReadMetadata reads the structured metadata record for a tool.
func (s *Store) ReadMetadata(name string) (*Metadata, error) {
	data, err := os.ReadFile(filepath.Join(s.Path(name), MetadataFile))
	if err != nil {
		return nil, err
	}
	var md Metadata
	if err := json.Unmarshal(data, &md); err != nil {
		return nil, fmt.Errorf("invalid metadata for %s: %w", name, err)
	}
	return &md, nil
}

// WriteMetadata persists the structured metadata record for a tool.
func (s *Store) WriteMetadata(name string, md *Metadata) error {
	dir, err := s.EnsureNamespace(name)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(md, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}
	return os.WriteFile(filepath.Join(dir, MetadataFile), data, 0644)
}
