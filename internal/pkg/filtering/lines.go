package filtering

import (
	"bufio"
	"os"
	"strings"
)

// LoadPatternsFromFile loads patterns from a file, one per line.
// Empty lines and lines starting with # are ignored. Surrounding whitespace
// is trimmed, so a pattern cannot start or end with a literal space.
func LoadPatternsFromFile(filename string) ([]string, error) {
	// #nosec G304 -- Path is from the command line or configuration
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var patterns []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, line)
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return patterns, nil
}
