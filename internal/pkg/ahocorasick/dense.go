package ahocorasick

import "sync/atomic"

// alphabetSize is the number of distinct input symbols (single bytes).
const alphabetSize = 256

// transitionCache memoizes the goto function with a dense table indexed by
// state*256 + byte. A cell holds target+1, so the zero value means
// "not computed yet".
//
// Every cell converges to a single deterministic value, so concurrent fills
// from different cursors race only to store the same number. Atomic cells
// keep that race well defined.
//
// Memory: 256*4 bytes per state.
type transitionCache struct {
	cells []atomic.Int32
}

func newTransitionCache(states int) *transitionCache {
	return &transitionCache{cells: make([]atomic.Int32, states*alphabetSize)}
}

func (c *transitionCache) load(state int32, char byte) (int32, bool) {
	v := c.cells[int(state)*alphabetSize+int(char)].Load()
	return v - 1, v != 0
}

func (c *transitionCache) store(state int32, char byte, target int32) {
	c.cells[int(state)*alphabetSize+int(char)].Store(target + 1)
}

// transition is the memoized goto function. It walks suffix links until a
// cached cell, a trie edge or the root settles the target, then caches the
// target for every state visited on the way so each (state, byte) pair is
// resolved at most once.
func (a *Automaton) transition(from int32, char byte) int32 {
	if target, ok := a.cache.load(from, char); ok {
		return target
	}

	var stack [16]int32
	visited := stack[:0]

	current := from
	var target int32
	for {
		if cached, ok := a.cache.load(current, char); ok {
			target = cached
			break
		}
		if child, exists := a.nodes[current].children[char]; exists {
			target = child
			break
		}
		if current == rootState {
			target = rootState
			break
		}
		visited = append(visited, current)
		current = a.nodes[current].suffix
	}

	a.cache.store(current, char, target)
	for _, state := range visited {
		a.cache.store(state, char, target)
	}
	return target
}

// Warm fills the whole transition table. States are visited breadth-first, so
// the suffix of every state is already complete and each cell costs O(1).
// After Warm no cursor ever writes to the cache.
func (a *Automaton) Warm() {
	for _, state := range a.order {
		for c := 0; c < alphabetSize; c++ {
			a.transition(state, byte(c))
		}
	}
}

// CachedTransitions returns how many (state, byte) pairs have been resolved.
func (a *Automaton) CachedTransitions() int {
	n := 0
	for i := range a.cache.cells {
		if a.cache.cells[i].Load() != 0 {
			n++
		}
	}
	return n
}
