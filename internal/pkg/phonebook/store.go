package phonebook

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

var (
	// fileLock protects atomic file writes
	fileLock sync.Mutex
)

// bookFile represents the YAML structure of a saved book
type bookFile struct {
	Contacts []Contact `yaml:"contacts"`
}

// Load reads a book saved by Save. A missing file yields an empty book.
func Load(path string) (*Book, error) {
	b := New()

	// #nosec G304 -- Path is from the command line or configuration
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return b, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read phone book: %w", err)
	}

	var file bookFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse phone book YAML: %w", err)
	}

	for i, c := range file.Contacts {
		if err := b.Add(c.Number, c.Family); err != nil {
			return nil, fmt.Errorf("contact %d (%q): %w", i, c.Family, err)
		}
	}
	return b, nil
}

// Save writes the book to path with an atomic write
func (b *Book) Save(path string) error {
	fileLock.Lock()
	defer fileLock.Unlock()

	// Create directory if it doesn't exist
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return fmt.Errorf("failed to create phone book directory: %w", err)
	}

	data, err := yaml.Marshal(&bookFile{Contacts: b.Contacts()})
	if err != nil {
		return fmt.Errorf("failed to marshal phone book: %w", err)
	}

	// Atomic write: write to temp file, then rename
	tempFile := path + ".tmp"
	if err := os.WriteFile(tempFile, data, 0600); err != nil {
		return fmt.Errorf("failed to write temp phone book file: %w", err)
	}

	if err := os.Rename(tempFile, path); err != nil {
		_ = os.Remove(tempFile) // Cleanup temp file on error
		return fmt.Errorf("failed to rename temp phone book file: %w", err)
	}

	return nil
}
