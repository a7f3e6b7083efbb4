package ahocorasick

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAhoCorasick_SinglePattern(t *testing.T) {
	ac, err := BuildAutomaton([]Pattern{
		{ID: 1, Text: "hello"},
	})
	require.NoError(t, err)

	tests := []struct {
		name        string
		input       string
		wantOffsets []int
	}{
		{
			name:        "exact match",
			input:       "hello",
			wantOffsets: []int{5},
		},
		{
			name:        "contains match",
			input:       "say hello world",
			wantOffsets: []int{9},
		},
		{
			name:        "no match",
			input:       "world",
			wantOffsets: nil,
		},
		{
			name:        "case sensitive",
			input:       "HELLO",
			wantOffsets: nil,
		},
		{
			name:        "repeated",
			input:       "hellohello",
			wantOffsets: []int{5, 10},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results := ac.FindAll([]byte(tt.input))
			assert.Equal(t, tt.wantOffsets, extractOffsets(results))
		})
	}
}

func TestAhoCorasick_MultiplePatterns(t *testing.T) {
	ac, err := BuildAutomaton([]Pattern{
		{ID: 1, Text: "he"},
		{ID: 2, Text: "she"},
		{ID: 3, Text: "his"},
		{ID: 4, Text: "hers"},
	})
	require.NoError(t, err)

	tests := []struct {
		name    string
		input   string
		wantIDs []int
	}{
		{
			name:    "overlapping patterns",
			input:   "she",
			wantIDs: []int{1, 2}, // "he" is suffix of "she"
		},
		{
			name:    "single match",
			input:   "his",
			wantIDs: []int{3},
		},
		{
			name:    "multiple separate matches",
			input:   "he said his",
			wantIDs: []int{1, 3},
		},
		{
			name:    "classic ushers",
			input:   "ushers",
			wantIDs: []int{1, 2, 4},
		},
		{
			name:    "no matches",
			input:   "abc",
			wantIDs: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results := ac.FindAll([]byte(tt.input))
			assert.ElementsMatch(t, tt.wantIDs, extractPatternIDs(results))
		})
	}
}

func TestAhoCorasick_OverlappingOccurrences(t *testing.T) {
	ac, err := BuildAutomaton([]Pattern{{ID: 7, Text: "aa"}})
	require.NoError(t, err)

	results := ac.FindAll([]byte("aaaa"))
	assert.Equal(t, []int{2, 3, 4}, extractOffsets(results))
}

func TestAhoCorasick_DuplicateTextsAndIDs(t *testing.T) {
	b := NewBuilder()
	b.AddString("ab", 1)
	b.AddString("ab", 2)
	b.AddString("cd", 1)
	ac, err := b.Build()
	require.NoError(t, err)

	assert.Equal(t, 3, ac.PatternCount())
	assert.ElementsMatch(t, []int{1, 2}, extractPatternIDs(ac.FindAll([]byte("ab"))))
	assert.Equal(t, []int{1}, extractPatternIDs(ac.FindAll([]byte("xcd"))))
}

func TestAhoCorasick_EmptyPatternList(t *testing.T) {
	ac, err := BuildAutomaton(nil)
	require.NoError(t, err)

	assert.Equal(t, 1, ac.StateCount())
	assert.Empty(t, ac.Root().PatternEnds())
	assert.Empty(t, ac.FindAll([]byte("anything")))

	s := ac.Root().Next('x')
	assert.True(t, s.IsRoot())
}

func TestAhoCorasick_EmptyTextMatchesEverywhere(t *testing.T) {
	b := NewBuilder()
	b.AddString("", 9)
	b.AddString("b", 1)
	ac, err := b.Build()
	require.NoError(t, err)

	assert.Equal(t, []int{9}, ac.Root().PatternEnds())

	s := ac.Root().Next('b')
	assert.ElementsMatch(t, []int{1, 9}, s.PatternEnds())

	s = s.Next('z')
	assert.Equal(t, []int{9}, s.PatternEnds())
}

func TestBuilder_SuffixAndTerminalLinks(t *testing.T) {
	ac, err := BuildAutomaton([]Pattern{
		{ID: 1, Text: "abcd"},
		{ID: 2, Text: "bc"},
		{ID: 3, Text: "c"},
	})
	require.NoError(t, err)

	abc := walk(t, ac, "abc")
	bc := walk(t, ac, "bc")
	c := walk(t, ac, "c")

	n := ac.nodes[abc.id]
	assert.Equal(t, bc.id, n.suffix, "suffix(abc) = bc")
	assert.Equal(t, bc.id, n.terminal, "terminal(abc) = bc")
	assert.ElementsMatch(t, []int{2, 3}, n.ends)

	assert.Equal(t, c.id, ac.nodes[bc.id].suffix)
	assert.Equal(t, c.id, ac.nodes[bc.id].terminal)

	ab := walk(t, ac, "ab")
	assert.Equal(t, walk(t, ac, "b").id, ac.nodes[ab.id].suffix)
	assert.Equal(t, rootState, ac.nodes[ab.id].terminal, "no terminal along suffix links of ab")
	assert.Empty(t, ac.nodes[ab.id].ends)

	root := ac.nodes[rootState]
	assert.Equal(t, rootState, root.suffix)
	assert.Equal(t, rootState, root.terminal)
}

func TestBuilder_AccumulatedEndsInvariant(t *testing.T) {
	ac, err := BuildAutomaton([]Pattern{
		{ID: 0, Text: "a"},
		{ID: 1, Text: "aa"},
		{ID: 2, Text: "aaa"},
		{ID: 3, Text: "ba"},
		{ID: 4, Text: "aba"},
	})
	require.NoError(t, err)

	for i, n := range ac.nodes {
		want := append([]int{}, n.own...)
		if int32(i) != rootState {
			want = append(want, ac.nodes[n.terminal].ends...)
		}
		assert.ElementsMatch(t, want, n.ends, "state %d", i)
	}
}

func TestState_NextFollowsSuffixLinks(t *testing.T) {
	ac, err := BuildAutomaton([]Pattern{
		{ID: 1, Text: "aab"},
		{ID: 2, Text: "ab"},
	})
	require.NoError(t, err)

	s := ac.Root()
	for _, c := range []byte("aaab") {
		s = s.Next(c)
	}
	assert.ElementsMatch(t, []int{1, 2}, s.PatternEnds())

	s = s.Next('a')
	assert.Equal(t, walk(t, ac, "a").id, s.id)
}

func TestState_LongRepeatedPattern(t *testing.T) {
	text := make([]byte, 5000)
	for i := range text {
		text[i] = 'a'
	}
	ac, err := BuildAutomaton([]Pattern{{ID: 1, Text: string(text)}})
	require.NoError(t, err)

	input := append(append([]byte{}, text...), 'b')
	input = append(input, text...)
	results := ac.FindAll(input)
	assert.Equal(t, []int{5000, 10001}, extractOffsets(results))
}

func TestAutomaton_Warm(t *testing.T) {
	ac, err := BuildAutomaton([]Pattern{
		{ID: 1, Text: "he"},
		{ID: 2, Text: "she"},
	})
	require.NoError(t, err)

	before := ac.FindAll([]byte("ushers she"))
	ac.Warm()
	assert.Equal(t, ac.StateCount()*alphabetSize, ac.CachedTransitions())
	assert.Equal(t, before, ac.FindAll([]byte("ushers she")))
}

func TestAutomaton_LazyCacheFillsOnDemand(t *testing.T) {
	ac, err := BuildAutomaton([]Pattern{{ID: 1, Text: "abc"}})
	require.NoError(t, err)
	assert.Zero(t, ac.CachedTransitions())

	ac.FindAll([]byte("ab"))
	assert.Equal(t, 2, ac.CachedTransitions())
}

// walk follows trie edges only, failing if the path is not in the trie.
func walk(t *testing.T, ac *Automaton, path string) State {
	t.Helper()
	current := rootState
	for i := 0; i < len(path); i++ {
		next, ok := ac.nodes[current].children[path[i]]
		require.True(t, ok, "path %q not in trie", path)
		current = next
	}
	return State{automaton: ac, id: current}
}

func extractPatternIDs(results []MatchResult) []int {
	if len(results) == 0 {
		return nil
	}
	seen := make(map[int]bool)
	var ids []int
	for _, r := range results {
		if !seen[r.PatternID] {
			ids = append(ids, r.PatternID)
			seen[r.PatternID] = true
		}
	}
	sort.Ints(ids)
	return ids
}

func extractOffsets(results []MatchResult) []int {
	if len(results) == 0 {
		return nil
	}
	offsets := make([]int, len(results))
	for i, r := range results {
		offsets[i] = r.Offset
	}
	return offsets
}
