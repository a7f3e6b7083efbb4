package wildcard

import (
	"fmt"

	"github.com/endorses/wildscan/internal/pkg/ahocorasick"
)

// Pattern is a compiled wildcard pattern. It is immutable and may be shared
// by any number of matchers, including matchers running on different
// goroutines.
type Pattern struct {
	source    string
	wildcard  byte
	words     []Word
	automaton *ahocorasick.Automaton
}

// Compile splits pattern on wildcard and builds the automaton over its
// words. Each word is registered under its offset, which is unique per word
// because no two words of one pattern end at the same byte.
//
// An empty pattern compiles to a pattern that never matches.
func Compile(pattern string, wildcard byte) (*Pattern, error) {
	words := Split(pattern, wildcard)

	builder := ahocorasick.NewBuilder()
	for _, w := range words {
		builder.AddString(w.Text, w.Offset)
	}
	automaton, err := builder.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to compile pattern %q: %w", pattern, err)
	}

	return &Pattern{
		source:    pattern,
		wildcard:  wildcard,
		words:     words,
		automaton: automaton,
	}, nil
}

// MustCompile is like Compile but panics on error.
func MustCompile(pattern string, wildcard byte) *Pattern {
	p, err := Compile(pattern, wildcard)
	if err != nil {
		panic(err)
	}
	return p
}

// NewMatcher returns a matcher positioned at the start of a new stream.
func (p *Pattern) NewMatcher() *Matcher {
	return &Matcher{
		pattern:  p,
		state:    p.automaton.Root(),
		counters: make([]int, len(p.source)),
	}
}

// String returns the source pattern.
func (p *Pattern) String() string {
	return p.source
}

// Len returns the pattern length in bytes, wildcards included.
func (p *Pattern) Len() int {
	return len(p.source)
}

// Wildcard returns the wildcard byte.
func (p *Pattern) Wildcard() byte {
	return p.wildcard
}

// Words returns a copy of the literal words of the pattern.
func (p *Pattern) Words() []Word {
	words := make([]Word, len(p.words))
	copy(words, p.words)
	return words
}

// Warm precomputes every automaton transition.
func (p *Pattern) Warm() {
	p.automaton.Warm()
}
