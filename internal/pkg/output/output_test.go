package output

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalJSONPretty(t *testing.T) {
	v := map[string]any{"offsets": []int{0, 3}}

	compact, err := MarshalJSONPretty(v, false)
	require.NoError(t, err)
	assert.Equal(t, `{"offsets":[0,3]}`, string(compact))

	pretty, err := MarshalJSONPretty(v, true)
	require.NoError(t, err)
	assert.Contains(t, string(pretty), "\n  \"offsets\"")
}

func TestHighlighterPlain(t *testing.T) {
	h := NewHighlighter(false)

	tests := []struct {
		name   string
		text   string
		starts []int
		length int
		want   string
	}{
		{"no matches", "abcaac", nil, 3, "abcaac"},
		{"disjoint", "abcaac", []int{0, 3}, 3, "[abc][aac]"},
		{"overlapping", "aaaa", []int{0, 1, 2}, 2, "[aaaa]"},
		{"touching", "abab", []int{0, 2}, 2, "[ab][ab]"},
		{"unsorted input", "xabyab", []int{4, 1}, 2, "x[ab]y[ab]"},
		{"clipped at end", "abc", []int{2}, 5, "ab[c]"},
		{"out of range ignored", "abc", []int{-1, 3}, 1, "abc"},
		{"zero length", "abc", []int{0}, 0, "abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, h.Render(tt.text, tt.starts, tt.length))
		})
	}
}

func TestHighlighterColorKeepsText(t *testing.T) {
	h := NewHighlighter(true)
	out := h.Render("xxabcxx", []int{2}, 3)
	assert.Contains(t, out, "abc")
	assert.Contains(t, out, "xx")
}

func TestMergeRegionsKeepsTouchingApart(t *testing.T) {
	assert.Equal(t, [][2]int{{0, 3}, {3, 6}}, mergeRegions([]int{3, 0}, 3, 6))
	assert.Equal(t, [][2]int{{0, 5}}, mergeRegions([]int{0, 2}, 3, 6))
}
