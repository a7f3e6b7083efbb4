package ahocorasick

import "slices"

// rootState is the arena index of the root.
const rootState int32 = 0

// node represents one state of the automaton. Links are arena indices.
type node struct {
	// children maps input bytes to child states of the trie.
	// Using a map for sparse alphabets.
	children map[byte]int32

	// parent and in (the byte on the edge from parent) are only needed
	// while links are computed.
	parent int32
	in     byte

	// suffix is the state of the longest proper suffix of this state's
	// path that is also in the trie. The root's suffix is the root.
	suffix int32

	// terminal is the nearest state along suffix links that ends a pattern.
	// The root doubles as the "no terminal" sentinel.
	terminal int32

	// own holds ids of patterns ending exactly at this state.
	own []int

	// ends holds own plus the ends of the terminal state: every id whose
	// pattern is a suffix of this state's path.
	ends []int
}

func newNode(parent int32, in byte) node {
	return node{
		children: make(map[byte]int32),
		parent:   parent,
		in:       in,
	}
}

// Automaton is an Aho-Corasick automaton for multi-pattern matching. Its
// structure is immutable after Build; only the transition cache fills in as
// states are visited.
type Automaton struct {
	// nodes is the state arena. State 0 is the root.
	nodes []node

	// order lists states breadth-first (non-decreasing depth).
	order []int32

	cache *transitionCache

	patternCount int
}

// Root returns a cursor positioned at the root state.
func (a *Automaton) Root() State {
	return State{automaton: a, id: rootState}
}

// FindAll reports every occurrence of every pattern in input, including
// overlapping ones, in order of their end offset.
func (a *Automaton) FindAll(input []byte) []MatchResult {
	var results []MatchResult

	current := rootState
	for i, b := range input {
		current = a.transition(current, b)
		for _, id := range a.nodes[current].ends {
			results = append(results, MatchResult{
				PatternID: id,
				Offset:    i + 1,
			})
		}
	}

	return results
}

// StateCount returns the number of states in the automaton.
func (a *Automaton) StateCount() int {
	return len(a.nodes)
}

// PatternCount returns the number of patterns the automaton was built from.
func (a *Automaton) PatternCount() int {
	return a.patternCount
}

// sortedEdges returns the keys of children in ascending order so that
// construction is deterministic.
func sortedEdges(children map[byte]int32) []byte {
	edges := make([]byte, 0, len(children))
	for char := range children {
		edges = append(edges, char)
	}
	slices.Sort(edges)
	return edges
}
