package ahocorasick

import (
	"errors"
	"fmt"
	"math"
)

// ErrTooManyStates is returned when the trie would need more states than the
// automaton can address.
var ErrTooManyStates = errors.New("ahocorasick: too many automaton states")

// maxStates bounds the state arena. Cache cells store state+1 in an int32.
const maxStates = math.MaxInt32 - 1

// Builder constructs Aho-Corasick automata from patterns.
type Builder struct {
	patterns []Pattern
}

// NewBuilder creates a new Builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// AddString queues text for insertion under id. An empty text marks the root,
// so id is reported at every stream position.
func (b *Builder) AddString(text string, id int) {
	b.patterns = append(b.patterns, Pattern{ID: id, Text: text})
}

// Build constructs an Aho-Corasick automaton from the queued patterns.
// The build process has two phases:
//  1. Trie construction: Insert all patterns into a trie
//  2. Link computation: BFS over the trie to set suffix links, terminal links
//     and the accumulated end ids of every state
//
// Time complexity: O(m) where m is the total length of all patterns.
func (b *Builder) Build() (*Automaton, error) {
	a := &Automaton{
		nodes:        []node{newNode(rootState, 0)},
		patternCount: len(b.patterns),
	}

	if err := b.buildTrie(a); err != nil {
		return nil, err
	}
	b.computeLinks(a)
	a.cache = newTransitionCache(len(a.nodes))

	return a, nil
}

// BuildAutomaton builds an automaton over patterns in one step.
func BuildAutomaton(patterns []Pattern) (*Automaton, error) {
	b := NewBuilder()
	for _, p := range patterns {
		b.AddString(p.Text, p.ID)
	}
	return b.Build()
}

// buildTrie inserts all patterns into the trie, creating states for missing edges.
func (b *Builder) buildTrie(a *Automaton) error {
	for _, pattern := range b.patterns {
		current := rootState

		for i := 0; i < len(pattern.Text); i++ {
			char := pattern.Text[i]
			if next, exists := a.nodes[current].children[char]; exists {
				current = next
				continue
			}

			if len(a.nodes) >= maxStates {
				return fmt.Errorf("%w: more than %d states", ErrTooManyStates, maxStates)
			}
			next := int32(len(a.nodes))
			a.nodes = append(a.nodes, newNode(current, char))
			a.nodes[current].children[char] = next
			current = next
		}

		a.nodes[current].own = append(a.nodes[current].own, pattern.ID)
	}
	return nil
}

// computeLinks walks the trie breadth-first. A state's parent and every state
// reachable by its suffix links are shallower, so they are final by the time the
// state is dequeued.
func (b *Builder) computeLinks(a *Automaton) {
	queue := make([]int32, 0, len(a.nodes))
	queue = append(queue, rootState)

	for head := 0; head < len(queue); head++ {
		current := queue[head]
		n := &a.nodes[current]

		for _, char := range sortedEdges(n.children) {
			queue = append(queue, n.children[char])
		}

		switch {
		case current == rootState:
			n.suffix = rootState
		case n.parent == rootState:
			n.suffix = rootState
		default:
			n.suffix = a.fallback(a.nodes[n.parent].suffix, n.in)
		}

		if current == rootState {
			n.terminal = rootState
			n.ends = n.own
			continue
		}

		suffix := &a.nodes[n.suffix]
		if len(suffix.own) > 0 {
			n.terminal = n.suffix
		} else {
			n.terminal = suffix.terminal
		}

		inherited := a.nodes[n.terminal].ends
		if len(inherited) == 0 {
			n.ends = n.own
			continue
		}
		n.ends = make([]int, 0, len(n.own)+len(inherited))
		n.ends = append(n.ends, n.own...)
		n.ends = append(n.ends, inherited...)
	}

	a.order = queue
}

// fallback follows suffix links from candidate until a state with an edge on
// char is found. The root always qualifies: its child on char if present,
// otherwise the root itself.
func (a *Automaton) fallback(candidate int32, char byte) int32 {
	for {
		if next, exists := a.nodes[candidate].children[char]; exists {
			return next
		}
		if candidate == rootState {
			return rootState
		}
		candidate = a.nodes[candidate].suffix
	}
}
