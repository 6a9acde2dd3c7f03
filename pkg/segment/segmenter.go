// Package segment splits an incrementally generated reply into sentences
// so each one can be shown and spoken as soon as it is complete.
package segment

import (
	"strings"
	"unicode/utf8"
)

// MinSpeakableLen is the smallest trimmed length, in characters, worth
// dispatching.
// Shorter fragments (stray punctuation, "A.") are treated as noise.
const MinSpeakableLen = 3

// Segmenter accumulates text and cuts it at sentence-terminal punctuation.
// Output is never trimmed: concatenating everything Push and Flush return
// reproduces the input exactly.
//
// A Segmenter is not safe for concurrent use; one reply uses one Segmenter.
type Segmenter struct {
	buf strings.Builder
}

// New creates an empty Segmenter.
func New() *Segmenter {
	return &Segmenter{}
}

// Push appends a fragment and returns every sentence completed by it, in
// order. Each sentence is all text since the previous cut plus the
// terminal mark. Unterminated text stays buffered.
func (s *Segmenter) Push(fragment string) []string {
	if fragment == "" {
		return nil
	}
	s.buf.WriteString(fragment)

	content := s.buf.String()
	var sentences []string
	last := 0
	for i := 0; i < len(content); i++ {
		if isTerminal(content[i]) {
			sentences = append(sentences, content[last:i+1])
			last = i + 1
		}
	}

	if last > 0 {
		s.buf.Reset()
		s.buf.WriteString(content[last:])
	}
	return sentences
}

// Flush returns the buffered remainder, if any, and resets the Segmenter.
// A remainder of only whitespace is still returned so that the round trip
// stays exact; callers filter with Speakable.
func (s *Segmenter) Flush() (string, bool) {
	rest := s.buf.String()
	s.buf.Reset()
	return rest, rest != ""
}

// Pending returns the buffered text without consuming it.
func (s *Segmenter) Pending() string {
	return s.buf.String()
}

// Speakable reports whether a fragment should be dispatched to the display
// and to playback.
func Speakable(fragment string) bool {
	return utf8.RuneCountInString(strings.TrimSpace(fragment)) >= MinSpeakableLen
}

func isTerminal(c byte) bool {
	return c == '.' || c == '!' || c == '?'
}
