package ahocorasick

// State is a lightweight cursor into an automaton. The zero value is not
// usable; obtain one from Automaton.Root.
type State struct {
	automaton *Automaton
	id        int32
}

// Next returns the state reached by consuming char.
func (s State) Next(char byte) State {
	return State{automaton: s.automaton, id: s.automaton.transition(s.id, char)}
}

// PatternEnds returns the ids of every pattern that ends at this state,
// including patterns that are suffixes of longer ones. The slice is shared
// with the automaton and must not be modified.
func (s State) PatternEnds() []int {
	return s.automaton.nodes[s.id].ends
}

// IsRoot reports whether the cursor is at the root state.
func (s State) IsRoot() bool {
	return s.id == rootState
}

// ID returns the arena index of the state.
func (s State) ID() int {
	return int(s.id)
}
