package phonebook

import (
	"fmt"
	"strings"
)

// Normalize reduces a phone number to its digits. It accepts the common
// written forms:
//   - tel:+49123456789 → 49123456789
//   - +49 123 456 789 → 49123456789
//   - 0049-123-456-789 → 0049123456789
//   - (049) 123.456.789 → 049123456789
//
// Any other non-digit byte, or a number without digits, is rejected with
// ErrInvalidNumber.
func Normalize(input string) (string, error) {
	s := strings.TrimSpace(input)
	s = strings.TrimPrefix(s, "tel:")
	s = strings.TrimPrefix(s, "+")

	var result strings.Builder
	result.Grow(len(s))

	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= '0' && c <= '9':
			result.WriteByte(c)
		case c == ' ' || c == '-' || c == '.' || c == '(' || c == ')':
		default:
			return "", fmt.Errorf("%w: %q", ErrInvalidNumber, input)
		}
	}

	if result.Len() == 0 {
		return "", fmt.Errorf("%w: %q", ErrInvalidNumber, input)
	}
	return result.String(), nil
}

// isDigits returns true if s contains only ASCII digits.
func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
