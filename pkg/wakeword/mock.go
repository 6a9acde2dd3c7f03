package wakeword

import (
	"context"
	"sync"
)

// MockDetector is a Detector for tests. Each Listen call pops the next
// scripted result; with no script left it blocks until ctx is done.
type MockDetector struct {
	mu      sync.Mutex
	results []error
	calls   int
	closed  bool

	// Trigger, when set, is received from before returning a scripted result.
	Trigger chan struct{}
}

// NewMockDetector returns a detector that yields the given results in order.
// A nil entry means "wake word heard".
func NewMockDetector(results ...error) *MockDetector {
	return &MockDetector{results: results}
}

// Listen implements Detector.
func (m *MockDetector) Listen(ctx context.Context) error {
	m.mu.Lock()
	m.calls++
	if len(m.results) == 0 {
		m.mu.Unlock()
		<-ctx.Done()
		return ctx.Err()
	}
	res := m.results[0]
	m.results = m.results[1:]
	trigger := m.Trigger
	m.mu.Unlock()

	if trigger != nil {
		select {
		case <-trigger:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return res
}

// Close implements Detector.
func (m *MockDetector) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// CallCount returns how many times Listen was called.
func (m *MockDetector) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Closed reports whether Close was called.
func (m *MockDetector) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

var _ Detector = (*MockDetector)(nil)
