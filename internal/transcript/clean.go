// Package transcript normalizes raw speech-recognition output.
package transcript

import (
	"strings"
)

// Transcript is normalized text: no whitespace runs and no leading or
// trailing whitespace. Empty means nothing was recognized.
type Transcript struct {
	Text string
}

// IsEmpty reports whether nothing was said.
func (t Transcript) IsEmpty() bool { return t.Text == "" }

func (t Transcript) String() string { return t.Text }

// Clean collapses every run of Unicode whitespace into a single space and
// trims both ends. Clean(Clean(s).Text) == Clean(s).
func Clean(raw string) Transcript {
	return Transcript{Text: strings.Join(strings.Fields(raw), " ")}
}

// WordCount returns the number of space separated words.
func (t Transcript) WordCount() int {
	if t.IsEmpty() {
		return 0
	}
	return strings.Count(t.Text, " ") + 1
}
