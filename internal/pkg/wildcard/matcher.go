package wildcard

import (
	"context"
	"errors"
	"io"

	"github.com/endorses/wildscan/internal/pkg/ahocorasick"
	"github.com/endorses/wildscan/internal/pkg/constants"
)

// Matcher scans one stream for occurrences of a Pattern. A Matcher is not
// safe for concurrent use; create one per stream.
type Matcher struct {
	pattern *Pattern
	state   ahocorasick.State

	// counters is a ring with one slot per pattern byte. The slot at head
	// counts the words confirmed for a pattern occurrence ending at the
	// current position; the slot k steps after head counts words for an
	// occurrence ending k bytes later.
	counters []int
	head     int

	position int
}

// NewMatcher compiles pattern and returns a matcher for it.
func NewMatcher(pattern string, wildcard byte) (*Matcher, error) {
	p, err := Compile(pattern, wildcard)
	if err != nil {
		return nil, err
	}
	return p.NewMatcher(), nil
}

// Scan consumes the next stream byte. If the pattern has just been seen in
// full, onMatch is called once with the 0-based offset at which that
// occurrence starts. Offsets are reported in increasing order.
func (m *Matcher) Scan(b byte, onMatch func(start int)) {
	m.position++

	size := len(m.counters)
	if size == 0 {
		return
	}

	m.state = m.state.Next(b)
	for _, offset := range m.state.PatternEnds() {
		slot := m.head + offset
		if slot >= size {
			slot -= size
		}
		m.counters[slot]++
	}

	if m.counters[m.head] == len(m.pattern.words) && m.position >= size && onMatch != nil {
		onMatch(m.position - size)
	}

	m.counters[m.head] = 0
	m.head++
	if m.head == size {
		m.head = 0
	}
}

// Feed scans every byte of data in order.
func (m *Matcher) Feed(data []byte, onMatch func(start int)) {
	for _, b := range data {
		m.Scan(b, onMatch)
	}
}

// ScanReader scans r until EOF, a read error, or cancellation of ctx. It
// returns the number of bytes scanned. Reaching EOF is not an error.
//
// ctx is checked between reads only: a Read that blocks is not interrupted.
// Callers reading from sources that can stall (pipes, sockets) must make r
// itself return once ctx is done.
func (m *Matcher) ScanReader(ctx context.Context, r io.Reader, onMatch func(start int)) (int64, error) {
	buf := make([]byte, constants.ReadChunkSize)

	var scanned int64
	for {
		if err := ctx.Err(); err != nil {
			return scanned, err
		}

		n, err := r.Read(buf)
		m.Feed(buf[:n], onMatch)
		scanned += int64(n)

		if errors.Is(err, io.EOF) {
			return scanned, nil
		}
		if err != nil {
			return scanned, err
		}
	}
}

// Reset abandons everything scanned so far. The matcher can then scan a new,
// unrelated stream without recompiling the pattern.
func (m *Matcher) Reset() {
	m.state = m.pattern.automaton.Root()
	clear(m.counters)
	m.head = 0
	m.position = 0
}

// Position returns the number of bytes consumed since creation or the last
// Reset.
func (m *Matcher) Position() int {
	return m.position
}

// Pattern returns the compiled pattern being matched.
func (m *Matcher) Pattern() *Pattern {
	return m.pattern
}

// FindAll returns the start offset of every occurrence of pattern in text,
// overlapping occurrences included.
func FindAll(pattern string, wildcard byte, text []byte) ([]int, error) {
	m, err := NewMatcher(pattern, wildcard)
	if err != nil {
		return nil, err
	}

	var offsets []int
	m.Feed(text, func(start int) {
		offsets = append(offsets, start)
	})
	return offsets, nil
}
