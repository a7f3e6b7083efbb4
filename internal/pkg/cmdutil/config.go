// Package cmdutil provides shared utilities for CLI command implementations.
package cmdutil

import (
	"fmt"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// GetString returns the value of flag name if it was set on the command line,
// otherwise the config value for key, otherwise the flag's default.
// Flag values take precedence over config file values.
func GetString(flags *pflag.FlagSet, name, key string) string {
	if flags.Changed(name) || !viper.IsSet(key) {
		v, _ := flags.GetString(name)
		return v
	}
	return viper.GetString(key)
}

// GetBool returns the value of flag name if it was set on the command line,
// otherwise the config value for key, otherwise the flag's default.
func GetBool(flags *pflag.FlagSet, name, key string) bool {
	if flags.Changed(name) || !viper.IsSet(key) {
		v, _ := flags.GetBool(name)
		return v
	}
	return viper.GetBool(key)
}

// GetStringSlice returns the values of flag name if it was set on the command
// line, otherwise the config value for key, otherwise the flag's default.
func GetStringSlice(flags *pflag.FlagSet, name, key string) []string {
	if !flags.Changed(name) {
		// Check actual config value instead of viper.IsSet() which returns true
		// for bound flags even when config file doesn't define them
		if configValue := viper.GetStringSlice(key); len(configValue) > 0 {
			return configValue
		}
	}
	v, _ := flags.GetStringSlice(name)
	return v
}

// ParseSizeString parses a size string (e.g., "100M", "1G", "500K") and returns bytes.
// Supported suffixes: K/k (KiB), M/m (MiB), G/g (GiB), T/t (TiB).
func ParseSizeString(s string) (int64, error) {
	if s == "" {
		return 0, fmt.Errorf("empty size string")
	}

	lastChar := s[len(s)-1]
	var multiplier int64 = 1

	switch lastChar {
	case 'K', 'k':
		multiplier = 1024
		s = s[:len(s)-1]
	case 'M', 'm':
		multiplier = 1024 * 1024
		s = s[:len(s)-1]
	case 'G', 'g':
		multiplier = 1024 * 1024 * 1024
		s = s[:len(s)-1]
	case 'T', 't':
		multiplier = 1024 * 1024 * 1024 * 1024
		s = s[:len(s)-1]
	}

	var value int64
	var rest string
	n, err := fmt.Sscanf(s, "%d%s", &value, &rest)
	if n == 0 {
		return 0, fmt.Errorf("invalid size value: %w", err)
	}
	if rest != "" {
		return 0, fmt.Errorf("invalid size value: trailing %q", rest)
	}
	if value < 0 {
		return 0, fmt.Errorf("invalid size value: negative")
	}

	return value * multiplier, nil
}
