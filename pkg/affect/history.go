// Package affect turns camera frames into a short description of the
// student's apparent emotional state.
//
// An Analyzer periodically classifies the freshest frame and appends
// accepted readings to a bounded History. A Summarizer reduces that history
// into one sentence for the prompt, or reports nothing when the data is
// missing or stale.
package affect

import (
	"sync"
	"time"
)

// DefaultHistorySize is how many readings are kept.
const DefaultHistorySize = 10

// Reading is one accepted emotion classification.
type Reading struct {
	Timestamp  time.Time `json:"timestamp"`
	Emotion    string    `json:"emotion"`
	Confidence float64   `json:"confidence"` // 0-100
}

// History is a fixed-capacity ring of readings. The oldest reading is
// evicted when a new one arrives at capacity. Safe for concurrent use.
type History struct {
	mu    sync.Mutex
	buf   []Reading
	start int
	n     int
}

// NewHistory creates a History holding at most capacity readings.
// A non-positive capacity falls back to DefaultHistorySize.
func NewHistory(capacity int) *History {
	if capacity <= 0 {
		capacity = DefaultHistorySize
	}
	return &History{buf: make([]Reading, capacity)}
}

// Append adds r as the newest reading.
func (h *History) Append(r Reading) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.n < len(h.buf) {
		h.buf[(h.start+h.n)%len(h.buf)] = r
		h.n++
		return
	}
	h.buf[h.start] = r
	h.start = (h.start + 1) % len(h.buf)
}

// Snapshot returns a copy of the readings, oldest first.
func (h *History) Snapshot() []Reading {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]Reading, h.n)
	for i := 0; i < h.n; i++ {
		out[i] = h.buf[(h.start+i)%len(h.buf)]
	}
	return out
}

// Latest returns the newest reading.
func (h *History) Latest() (Reading, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.n == 0 {
		return Reading{}, false
	}
	return h.buf[(h.start+h.n-1)%len(h.buf)], true
}

// Len returns the number of readings held.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.n
}

// Cap returns the capacity.
func (h *History) Cap() int {
	return len(h.buf)
}

// Clear drops every reading.
func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.start, h.n = 0, 0
}
