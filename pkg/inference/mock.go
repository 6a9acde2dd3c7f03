package inference

import (
	"context"
	"io"
	"sync"
	"time"
)

// MockFragment is one scripted stream item: text or a fragment error.
type MockFragment struct {
	Text string
	Err  error
}

// Text is shorthand for a text fragment.
func Text(s string) MockFragment { return MockFragment{Text: s} }

// Fail is shorthand for a fragment error.
func Fail(err error) MockFragment { return MockFragment{Err: err} }

// Mock implements Generator for testing.
type Mock struct {
	// SendFunc is called when Send is invoked. If nil, Fragments is replayed.
	SendFunc func(ctx context.Context, prompt string) (Stream, error)

	// Fragments is the reply replayed for every Send.
	Fragments []MockFragment

	// Delay is applied before each fragment.
	Delay time.Duration

	mu      sync.Mutex
	prompts []string
}

// NewMock returns a mock that replies with the given fragments.
func NewMock(fragments ...MockFragment) *Mock {
	return &Mock{Fragments: fragments}
}

// WithError returns a mock whose Send always fails.
func WithError(err error) *Mock {
	return &Mock{SendFunc: func(context.Context, string) (Stream, error) {
		return nil, err
	}}
}

// Send records the prompt and returns a scripted stream.
func (m *Mock) Send(ctx context.Context, prompt string) (Stream, error) {
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	m.mu.Unlock()

	if m.SendFunc != nil {
		return m.SendFunc(ctx, prompt)
	}
	return NewScriptedStream(ctx, m.Delay, m.Fragments...), nil
}

// Prompts returns every prompt sent so far.
func (m *Mock) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.prompts...)
}

// CallCount returns the number of Send calls.
func (m *Mock) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.prompts)
}

// ScriptedStream replays fixed fragments.
type ScriptedStream struct {
	ctx   context.Context
	delay time.Duration

	mu     sync.Mutex
	items  []MockFragment
	closed bool
}

// NewScriptedStream returns a Stream over the given fragments.
func NewScriptedStream(ctx context.Context, delay time.Duration, items ...MockFragment) *ScriptedStream {
	return &ScriptedStream{ctx: ctx, delay: delay, items: items}
}

// Recv implements Stream.
func (s *ScriptedStream) Recv() (*StreamChunk, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || len(s.items) == 0 {
		return nil, io.EOF
	}
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-s.ctx.Done():
			return nil, s.ctx.Err()
		}
	}

	item := s.items[0]
	s.items = s.items[1:]
	if item.Err != nil {
		return nil, item.Err
	}
	return &StreamChunk{Delta: item.Text}, nil
}

// Close implements Stream.
func (s *ScriptedStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

var (
	_ Generator = (*Mock)(nil)
	_ Stream    = (*ScriptedStream)(nil)
)
