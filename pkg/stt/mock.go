package stt

import (
	"context"
	"sync"

	"github.com/teslashibe/go-nova/pkg/vad"
)

// Mock implements Recognizer for testing.
type Mock struct {
	// TranscribeFunc is called when Transcribe is invoked.
	// If nil, Text and Err are returned.
	TranscribeFunc func(ctx context.Context, u vad.Utterance) (string, error)

	Text string
	Err  error

	mu    sync.Mutex
	calls []vad.Utterance
}

// Transcribe records the call and returns the configured result.
func (m *Mock) Transcribe(ctx context.Context, u vad.Utterance) (string, error) {
	m.mu.Lock()
	m.calls = append(m.calls, u)
	m.mu.Unlock()

	if m.TranscribeFunc != nil {
		return m.TranscribeFunc(ctx, u)
	}
	return m.Text, m.Err
}

// CallCount returns how many times Transcribe was called.
func (m *Mock) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

var _ Recognizer = (*Mock)(nil)
