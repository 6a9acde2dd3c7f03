package tts

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
)

// Mock is a Synthesizer for tests. By default each sentence yields
// Audio(sentence).
type Mock struct {
	// SynthesizeFunc replaces the default audio when set.
	SynthesizeFunc func(ctx context.Context, sentence string) (io.ReadCloser, error)

	mu        sync.Mutex
	sentences []string
	closed    int
}

// NewMock returns a Mock that always succeeds.
func NewMock() *Mock {
	return &Mock{}
}

// Failing returns a Mock whose every sentence fails with err.
func Failing(err error) *Mock {
	return &Mock{
		SynthesizeFunc: func(context.Context, string) (io.ReadCloser, error) {
			return nil, err
		},
	}
}

// Audio is the payload the default Mock returns for a sentence: 960 bytes
// per character.
func Audio(sentence string) []byte {
	return bytes.Repeat([]byte{0x55}, len(sentence)*960)
}

func (m *Mock) Synthesize(ctx context.Context, sentence string) (io.ReadCloser, error) {
	m.mu.Lock()
	m.sentences = append(m.sentences, sentence)
	m.mu.Unlock()

	if m.SynthesizeFunc != nil {
		return m.SynthesizeFunc(ctx, sentence)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(Audio(sentence))), nil
}

func (m *Mock) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed++
	return nil
}

// Sentences returns every sentence passed to Synthesize, in order.
func (m *Mock) Sentences() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.sentences...)
}

// Closed reports how often Close was called.
func (m *Mock) Closed() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// ErrMockBroken is what BrokenAfter streams fail with.
var ErrMockBroken = errors.New("tts mock: stream broken")

// BrokenAfter returns a reader that yields n bytes of audio and then
// fails with ErrMockBroken.
func BrokenAfter(n int) io.ReadCloser {
	return io.NopCloser(io.MultiReader(bytes.NewReader(make([]byte, n)), errReader{ErrMockBroken}))
}

type errReader struct{ err error }

func (r errReader) Read([]byte) (int, error) { return 0, r.err }

var _ Synthesizer = (*Mock)(nil)
