package affect

import (
	"sync"

	"gocv.io/x/gocv"
)

// MockClassifier implements Classifier for testing.
type MockClassifier struct {
	// ClassifyFunc is called for each frame. If nil, Results is used.
	ClassifyFunc func(frame gocv.Mat) (Result, error)

	// Results are returned in order; the last one repeats.
	Results []Result

	mu    sync.Mutex
	calls int
	sizes [][2]int
}

// NewMockClassifier returns a mock that replays results.
func NewMockClassifier(results ...Result) *MockClassifier {
	return &MockClassifier{Results: results}
}

// Classify implements Classifier.
func (m *MockClassifier) Classify(frame gocv.Mat) (Result, error) {
	m.mu.Lock()
	i := m.calls
	m.calls++
	m.sizes = append(m.sizes, [2]int{frame.Cols(), frame.Rows()})
	fn := m.ClassifyFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(frame)
	}
	if len(m.Results) == 0 {
		return Result{}, nil
	}
	if i >= len(m.Results) {
		i = len(m.Results) - 1
	}
	return m.Results[i], nil
}

// Close implements Classifier.
func (m *MockClassifier) Close() error { return nil }

// CallCount returns how many frames were classified.
func (m *MockClassifier) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// FrameSizes returns the width and height of every classified frame.
func (m *MockClassifier) FrameSizes() [][2]int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][2]int(nil), m.sizes...)
}

// StaticFrames is a FrameSource that always returns a copy of one frame,
// or nothing when Frame is empty.
type StaticFrames struct {
	mu    sync.Mutex
	Frame gocv.Mat
	ok    bool
}

// NewStaticFrames wraps frame. The StaticFrames takes ownership.
func NewStaticFrames(frame gocv.Mat) *StaticFrames {
	return &StaticFrames{Frame: frame, ok: !frame.Empty()}
}

// Latest implements FrameSource.
func (s *StaticFrames) Latest() (gocv.Mat, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.ok {
		return gocv.Mat{}, false
	}
	return s.Frame.Clone(), true
}

// Set replaces the frame, or clears it when ok is false.
func (s *StaticFrames) Set(frame gocv.Mat, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Frame, s.ok = frame, ok
}

var (
	_ Classifier  = (*MockClassifier)(nil)
	_ Classifier  = (*FERClassifier)(nil)
	_ FrameSource = (*StaticFrames)(nil)
)
