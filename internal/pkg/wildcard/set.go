package wildcard

import (
	"errors"
	"fmt"

	"github.com/endorses/wildscan/internal/pkg/ahocorasick"
)

// ErrDuplicateID is returned when two set entries share an ID.
var ErrDuplicateID = errors.New("duplicate pattern id")

// Entry is one named pattern of a Set.
type Entry struct {
	ID       string
	Pattern  string
	Wildcard byte
}

// member is the compiled form of an Entry. Its counter ring occupies
// counters[base : base+length] of a SetMatcher.
type member struct {
	id        string
	base      int
	length    int
	wordCount int
}

// Set is a compiled group of wildcard patterns that share one automaton, so
// a stream byte costs a single transition however many patterns there are.
// Every entry reports exactly what its own Matcher would.
//
// A Set is immutable and safe to share between goroutines.
type Set struct {
	members []member

	// owner maps a global slot (the automaton id base+offset) to the index
	// of the member whose ring contains it.
	owner []int32

	automaton *ahocorasick.Automaton
}

// CompileSet compiles entries into a Set. Word ids are global slots: the
// entry's base plus the word's offset.
func CompileSet(entries []Entry) (*Set, error) {
	s := &Set{
		members: make([]member, 0, len(entries)),
	}

	seen := make(map[string]bool, len(entries))
	builder := ahocorasick.NewBuilder()
	base := 0

	for i, e := range entries {
		if seen[e.ID] {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateID, e.ID)
		}
		seen[e.ID] = true

		words := Split(e.Pattern, e.Wildcard)
		for _, w := range words {
			builder.AddString(w.Text, base+w.Offset)
		}

		s.members = append(s.members, member{
			id:        e.ID,
			base:      base,
			length:    len(e.Pattern),
			wordCount: len(words),
		})
		for k := 0; k < len(e.Pattern); k++ {
			s.owner = append(s.owner, int32(i))
		}
		base += len(e.Pattern)
	}

	automaton, err := builder.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to compile pattern set: %w", err)
	}
	s.automaton = automaton

	return s, nil
}

// Len returns the number of patterns in the set.
func (s *Set) Len() int {
	return len(s.members)
}

// IDs returns the entry ids in set order.
func (s *Set) IDs() []string {
	ids := make([]string, len(s.members))
	for i, m := range s.members {
		ids[i] = m.id
	}
	return ids
}

// StateCount returns the number of states of the shared automaton.
func (s *Set) StateCount() int {
	return s.automaton.StateCount()
}

// NewMatcher returns a matcher positioned at the start of a new stream.
func (s *Set) NewMatcher() *SetMatcher {
	return &SetMatcher{
		set:      s,
		state:    s.automaton.Root(),
		counters: make([]int, len(s.owner)),
		heads:    make([]int, len(s.members)),
	}
}

// SetMatcher scans one stream for every pattern of a Set. It is not safe for
// concurrent use.
type SetMatcher struct {
	set      *Set
	state    ahocorasick.State
	counters []int
	heads    []int
	position int
}

// Scan consumes the next stream byte and calls onMatch for each pattern
// whose occurrence ends here, in set order.
func (m *SetMatcher) Scan(b byte, onMatch func(id string, start int)) {
	m.position++
	m.state = m.state.Next(b)

	members := m.set.members
	for _, slot := range m.state.PatternEnds() {
		k := m.set.owner[slot]
		mem := &members[k]
		i := m.heads[k] + slot - mem.base
		if i >= mem.length {
			i -= mem.length
		}
		m.counters[mem.base+i]++
	}

	for k := range members {
		mem := &members[k]
		if mem.length == 0 {
			continue
		}
		slot := mem.base + m.heads[k]
		if m.counters[slot] == mem.wordCount && m.position >= mem.length && onMatch != nil {
			onMatch(mem.id, m.position-mem.length)
		}
		m.counters[slot] = 0
		m.heads[k]++
		if m.heads[k] == mem.length {
			m.heads[k] = 0
		}
	}
}

// Feed scans every byte of data in order.
func (m *SetMatcher) Feed(data []byte, onMatch func(id string, start int)) {
	for _, b := range data {
		m.Scan(b, onMatch)
	}
}

// Reset abandons everything scanned so far.
func (m *SetMatcher) Reset() {
	m.state = m.set.automaton.Root()
	clear(m.counters)
	clear(m.heads)
	m.position = 0
}

// Position returns the number of bytes consumed since creation or the last
// Reset.
func (m *SetMatcher) Position() int {
	return m.position
}
