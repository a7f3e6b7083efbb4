// Package wildcard implements online matching of patterns in which one
// designated wildcard byte stands for any single byte.
//
// A pattern is split into its literal words. One Aho-Corasick automaton over
// the words recognises, at every stream position, which words have just
// ended; a ring of counters with one slot per pattern byte tallies how many
// words line up with each candidate pattern end. A pattern occurrence is
// reported when the slot for the current position has seen every word. Each
// stream byte costs amortized O(1) and the matcher's memory is bounded by the
// pattern length, never by the stream length.
//
// The wildcard byte must not also be meant literally inside the pattern:
// every occurrence of it is treated as a wildcard.
package wildcard

import (
	"errors"
	"fmt"
)

// DefaultWildcard is the wildcard byte used when none is configured.
const DefaultWildcard byte = '?'

// ErrInvalidWildcard is returned when a wildcard is not exactly one byte.
var ErrInvalidWildcard = errors.New("wildcard must be a single byte")

// Word is a maximal run of literal bytes in a pattern.
type Word struct {
	// Text is the literal run.
	Text string

	// Offset is the number of pattern bytes after the last byte of Text:
	// how many more stream bytes must arrive, once Text has ended, before
	// the end of the pattern lines up with the stream.
	Offset int
}

// Split decomposes pattern into its literal words in left-to-right order.
// Runs of consecutive wildcards produce no empty words.
func Split(pattern string, wildcard byte) []Word {
	var words []Word

	start := -1
	for i := 0; i < len(pattern); i++ {
		if pattern[i] != wildcard {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			words = append(words, Word{Text: pattern[start:i], Offset: len(pattern) - i})
			start = -1
		}
	}
	if start >= 0 {
		words = append(words, Word{Text: pattern[start:], Offset: 0})
	}

	return words
}

// ParseWildcard converts a configured wildcard string into its byte. An
// empty string selects DefaultWildcard.
func ParseWildcard(s string) (byte, error) {
	switch len(s) {
	case 0:
		return DefaultWildcard, nil
	case 1:
		return s[0], nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidWildcard, s)
	}
}
