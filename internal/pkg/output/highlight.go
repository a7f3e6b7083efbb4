package output

import (
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Highlighter renders text with match regions marked.
type Highlighter struct {
	match lipgloss.Style
	color bool
}

// NewHighlighter returns a Highlighter. With color enabled, matches are
// rendered in a bold accent color; otherwise they are wrapped in brackets so
// the output stays readable when piped.
func NewHighlighter(color bool) *Highlighter {
	return &Highlighter{
		match: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF5F87")),
		color: color,
	}
}

// Render marks every region [start, start+length) of text. Overlapping
// regions are merged into one; touching regions stay separate.
func (h *Highlighter) Render(text string, starts []int, length int) string {
	regions := mergeRegions(starts, length, len(text))
	if len(regions) == 0 {
		return text
	}

	var sb strings.Builder
	prev := 0
	for _, r := range regions {
		sb.WriteString(text[prev:r[0]])
		sb.WriteString(h.mark(text[r[0]:r[1]]))
		prev = r[1]
	}
	sb.WriteString(text[prev:])
	return sb.String()
}

func (h *Highlighter) mark(s string) string {
	if h.color {
		return h.match.Render(s)
	}
	return "[" + s + "]"
}

// mergeRegions turns match starts into sorted, disjoint [from, to) regions
// clipped to limit. Empty regions are dropped.
func mergeRegions(starts []int, length, limit int) [][2]int {
	if length <= 0 {
		return nil
	}

	sorted := slices.Clone(starts)
	slices.Sort(sorted)

	var regions [][2]int
	for _, s := range sorted {
		if s < 0 || s >= limit {
			continue
		}
		end := min(s+length, limit)
		if n := len(regions); n > 0 && s < regions[n-1][1] {
			regions[n-1][1] = max(regions[n-1][1], end)
			continue
		}
		regions = append(regions, [2]int{s, end})
	}
	return regions
}
