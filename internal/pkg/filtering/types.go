// Package filtering loads wildcard pattern lists from YAML and plain-text
// files for the scanning commands.
package filtering

// PatternConfig represents the YAML structure of a pattern file
type PatternConfig struct {
	Patterns []*PatternYAML `yaml:"patterns" json:"patterns"`
}

// PatternYAML represents a pattern in YAML/JSON format
type PatternYAML struct {
	ID          string `yaml:"id" json:"id"`
	Pattern     string `yaml:"pattern" json:"pattern"`
	Wildcard    string `yaml:"wildcard,omitempty" json:"wildcard,omitempty"`
	Enabled     *bool  `yaml:"enabled,omitempty" json:"enabled,omitempty"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
}

// IsEnabled reports whether the pattern is enabled. Patterns without an
// explicit enabled key are enabled.
func (p *PatternYAML) IsEnabled() bool {
	return p.Enabled == nil || *p.Enabled
}
