// Package constants provides shared constants used across wildscan components.
package constants

// Stream reading
const (
	// ReadChunkSize is the number of bytes read from a stream per call before
	// the bytes are fed to a matcher one at a time. Cancellation is checked
	// between chunks.
	ReadChunkSize = 32 * 1024
)

// Channel buffer sizes
const (
	// SignalChannelBuffer is the buffer size for OS signal channels.
	SignalChannelBuffer = 1
)

// Exit codes for CLI commands
const (
	ExitSuccess      = 0
	ExitGeneralError = 1
	ExitUsageError   = 2
	ExitInputError   = 3
)

// Phone book sizing
const (
	// PhoneBookBloomCapacity is the initial number of numbers the phone book
	// bloom filter is sized for. The filter is rebuilt at twice the size when
	// the book outgrows it.
	PhoneBookBloomCapacity = 1024

	// PhoneBookBloomFPRate is the target false positive rate of the phone
	// book bloom filter.
	PhoneBookBloomFPRate = 0.001
)
