package filtering

import (
	"fmt"

	"github.com/endorses/wildscan/internal/pkg/wildcard"
)

// ValidationError represents a pattern validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidatePatternYAML validates a PatternYAML structure
func ValidatePatternYAML(p *PatternYAML) error {
	if p.ID == "" {
		return &ValidationError{Field: "id", Message: "pattern ID is required"}
	}
	if p.Pattern == "" {
		return &ValidationError{Field: "pattern", Message: "pattern is required"}
	}
	if len(p.Wildcard) > 1 {
		return &ValidationError{
			Field:   "wildcard",
			Message: fmt.Sprintf("wildcard must be a single byte, got %q", p.Wildcard),
		}
	}
	return nil
}

// ToEntry validates p and converts it to a set entry. defaultWildcard is
// used when p names no wildcard of its own.
func ToEntry(p *PatternYAML, defaultWildcard byte) (wildcard.Entry, error) {
	if err := ValidatePatternYAML(p); err != nil {
		return wildcard.Entry{}, err
	}

	wc := defaultWildcard
	if p.Wildcard != "" {
		wc = p.Wildcard[0]
	}

	return wildcard.Entry{ID: p.ID, Pattern: p.Pattern, Wildcard: wc}, nil
}
