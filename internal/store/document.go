package store

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
)

// DocumentStore retains the raw uploaded source documents for each
// (owner, persona) corpus so exports can include them. Similarity indexing
// itself happens elsewhere; this is plain retention.
type DocumentStore struct {
	dataDir string
}

// NewDocumentStore creates a document store rooted at dataDir.
func NewDocumentStore(dataDir string) *DocumentStore {
	return &DocumentStore{dataDir: dataDir}
}

func (s *DocumentStore) docDir(owner, persona string) string {
	return filepath.Join(s.dataDir, url.PathEscape(owner), "docs", url.PathEscape(persona))
}

// Save stores one uploaded document. An upload with the same filename
// replaces the previous copy.
func (s *DocumentStore) Save(owner, persona, filename string, data []byte) error {
	if filename == "" || filename != filepath.Base(filename) {
		return fmt.Errorf("invalid document filename %q", filename)
	}

	dir := s.docDir(owner, persona)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create document directory: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, filename), data, 0o644); err != nil {
		return fmt.Errorf("failed to write document: %w", err)
	}
	return nil
}

// List returns the stored document filenames for one corpus, sorted.
func (s *DocumentStore) List(owner, persona string) ([]string, error) {
	entries, err := os.ReadDir(s.docDir(owner, persona))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if !entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// Delete removes one stored document. An absent document is not an error.
func (s *DocumentStore) Delete(owner, persona, filename string) error {
	if filename != filepath.Base(filename) {
		return nil
	}
	if err := os.Remove(filepath.Join(s.docDir(owner, persona), filename)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	return nil
}

// Read returns one stored document's bytes.
func (s *DocumentStore) Read(owner, persona, filename string) ([]byte, error) {
	if filename != filepath.Base(filename) {
		return nil, ErrNotFound
	}
	data, err := os.ReadFile(filepath.Join(s.docDir(owner, persona), filename))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read document: %w", err)
	}
	return data, nil
}
