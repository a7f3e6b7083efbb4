package filtering

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/endorses/wildscan/internal/pkg/logger"
	"github.com/endorses/wildscan/internal/pkg/wildcard"
	"gopkg.in/yaml.v3"
)

// ParseFile reads a YAML pattern file and returns its enabled, valid
// entries. Invalid entries are skipped; use ParseFileWithErrors to see them.
func ParseFile(path string) ([]wildcard.Entry, error) {
	entries, _, err := ParseFileWithErrors(path, wildcard.DefaultWildcard)
	return entries, err
}

// ParseFileWithErrors reads a YAML pattern file, returning both the valid
// entries and any validation errors encountered. Entries without their own
// wildcard use defaultWildcard.
func ParseFileWithErrors(path string, defaultWildcard byte) ([]wildcard.Entry, []error, error) {
	// #nosec G304 -- Path is from the command line or configuration
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read pattern file: %w", err)
	}

	var config PatternConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, nil, fmt.Errorf("failed to parse pattern YAML: %w", err)
	}

	entries := make([]wildcard.Entry, 0, len(config.Patterns))
	seen := make(map[string]bool, len(config.Patterns))
	var parseErrors []error
	for i, p := range config.Patterns {
		if p == nil || !p.IsEnabled() {
			continue
		}

		entry, err := ToEntry(p, defaultWildcard)
		if err == nil && seen[entry.ID] {
			err = &ValidationError{Field: "id", Message: fmt.Sprintf("duplicate pattern ID %q", entry.ID)}
		}
		if err != nil {
			parseErrors = append(parseErrors, fmt.Errorf("pattern %d (%q): %w", i, p.ID, err))
			continue
		}

		seen[entry.ID] = true
		entries = append(entries, entry)
	}

	return entries, parseErrors, nil
}

// LoadEntries loads a pattern file, choosing the format by extension:
// .yaml and .yml files are parsed as YAML, anything else as one pattern per
// line. Invalid YAML entries are logged and skipped.
func LoadEntries(path string, defaultWildcard byte) ([]wildcard.Entry, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		entries, parseErrors, err := ParseFileWithErrors(path, defaultWildcard)
		if err != nil {
			return nil, err
		}
		for _, perr := range parseErrors {
			logger.Warn("Skipping invalid pattern", "file", path, "error", perr)
		}
		return entries, nil
	default:
		patterns, err := LoadPatternsFromFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read pattern file: %w", err)
		}
		return EntriesFromPatterns(patterns, defaultWildcard), nil
	}
}

// EntriesFromPatterns wraps bare patterns as entries whose IDs are the
// 1-based position in the list, prefixed with "pattern-".
func EntriesFromPatterns(patterns []string, wc byte) []wildcard.Entry {
	entries := make([]wildcard.Entry, len(patterns))
	for i, p := range patterns {
		entries[i] = wildcard.Entry{
			ID:       fmt.Sprintf("pattern-%d", i+1),
			Pattern:  p,
			Wildcard: wc,
		}
	}
	return entries
}
