// Package ahocorasick provides an implementation of the Aho-Corasick string matching algorithm.
// The automaton matches many literal byte strings simultaneously against a stream in a single
// pass, reporting at every position the identifiers of all literals that end there.
//
// The automaton is built once with a Builder and is read-only afterwards. Transitions are
// resolved lazily and memoized in a transition cache that is safe for concurrent use, so one
// Automaton may back many independent stream cursors (State values).
package ahocorasick

// Pattern is a literal to be matched by the automaton.
type Pattern struct {
	// ID is reported for every occurrence of Text. IDs need not be unique: the same
	// text may be added under several IDs and several texts may share an ID.
	ID int

	// Text is the literal byte string. Matching is exact (no case folding).
	Text string
}

// MatchResult represents an occurrence found by FindAll.
type MatchResult struct {
	// PatternID is the ID of the matched pattern.
	PatternID int

	// Offset is the byte offset in the input where the match ends
	// (the position after its last byte).
	Offset int
}
