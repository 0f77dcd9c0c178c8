// Package strings holds small text helpers shared by the event recorder and
// the console output.
package strings

import (
	"strings"
)

// MaxEventMessageLen bounds the message of a Kubernetes Event written by
// flinktrack.
const MaxEventMessageLen = 1024

// MinTruncateLen is the smallest maxLen SingleLine honours. Smaller values
// would leave no room for content plus "...".
const MinTruncateLen = 4

// SingleLine collapses all whitespace runs in s into single spaces and
// shortens the result to maxLen runes, marking a cut with "...".
func SingleLine(s string, maxLen int) string {
	if maxLen < MinTruncateLen {
		maxLen = MinTruncateLen
	}

	s = strings.Join(strings.Fields(s), " ")

	runes := []rune(s)
	if len(runes) > maxLen {
		return string(runes[:maxLen-3]) + "..."
	}
	return s
}

// EventMessage prepares s for use as a Kubernetes Event message.
func EventMessage(s string) string {
	return SingleLine(s, MaxEventMessageLen)
}
