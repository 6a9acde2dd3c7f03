package tutor

import (
	"sync"
	"time"
)

// Outcome is how a turn ended.
type Outcome string

const (
	OutcomeReplied          Outcome = "replied"
	OutcomeNoSpeech         Outcome = "no_speech"
	OutcomeGenerationFailed Outcome = "generation_failed"
)

// Metrics tracks latency at each stage of a turn.
// Latencies are measured from the wake word.
type Metrics struct {
	TurnID  string  `json:"turn_id"`
	Outcome Outcome `json:"outcome"`

	// Timestamps for key events
	WakeTime          time.Time `json:"wake_time"`
	CaptureEndTime    time.Time `json:"capture_end_time"`
	TranscriptTime    time.Time `json:"transcript_time"`
	FirstFragmentTime time.Time `json:"first_fragment_time"`
	FirstSentenceTime time.Time `json:"first_sentence_time"`
	DoneTime          time.Time `json:"done_time"`

	// Computed latencies
	Utterance     time.Duration `json:"utterance"` // captured audio length
	Transcribe    time.Duration `json:"transcribe"`
	FirstFragment time.Duration `json:"first_fragment"`
	FirstSentence time.Duration `json:"first_sentence"`
	Total         time.Duration `json:"total"`

	// Counts for this turn
	Fragments      int `json:"fragments"`
	FragmentErrors int `json:"fragment_errors"`
	Sentences      int `json:"sentences"`
	ReplyChars     int `json:"reply_chars"`
}

// MetricsCollector collects metrics for the current turn and keeps the
// last 100 finished turns. It is goroutine-safe.
type MetricsCollector struct {
	mu      sync.Mutex
	current Metrics
	history []Metrics

	onUpdate func(Metrics)
}

// NewMetricsCollector creates a new metrics collector.
func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{
		history: make([]Metrics, 0, 100),
	}
}

// OnUpdate sets a callback fired with every finished turn.
func (m *MetricsCollector) OnUpdate(fn func(Metrics)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onUpdate = fn
}

// Begin resets the current turn. The wake word is the reference point.
func (m *MetricsCollector) Begin(turnID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = Metrics{TurnID: turnID, WakeTime: time.Now()}
}

// MarkCaptured records the end of utterance capture.
func (m *MetricsCollector) MarkCaptured(audio time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current.CaptureEndTime = time.Now()
	m.current.Utterance = audio
}

// MarkTranscript records when transcription completed.
func (m *MetricsCollector) MarkTranscript() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current.TranscriptTime = time.Now()
	if !m.current.CaptureEndTime.IsZero() {
		m.current.Transcribe = m.current.TranscriptTime.Sub(m.current.CaptureEndTime)
	}
}

// MarkFragment counts one received fragment; failed ones count as errors.
func (m *MetricsCollector) MarkFragment(failed bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if failed {
		m.current.FragmentErrors++
		return
	}
	m.current.Fragments++
	if m.current.FirstFragmentTime.IsZero() {
		m.current.FirstFragmentTime = time.Now()
		m.current.FirstFragment = m.current.FirstFragmentTime.Sub(m.current.WakeTime)
	}
}

// MarkSentence counts one dispatched sentence.
func (m *MetricsCollector) MarkSentence() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current.Sentences++
	if m.current.FirstSentenceTime.IsZero() {
		m.current.FirstSentenceTime = time.Now()
		m.current.FirstSentence = m.current.FirstSentenceTime.Sub(m.current.WakeTime)
	}
}

// Finish archives the current turn.
func (m *MetricsCollector) Finish(outcome Outcome, replyChars int) Metrics {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current.Outcome = outcome
	m.current.ReplyChars = replyChars
	m.current.DoneTime = time.Now()
	m.current.Total = m.current.DoneTime.Sub(m.current.WakeTime)

	m.history = append(m.history, m.current)
	if len(m.history) > 100 {
		m.history = m.history[1:]
	}
	if m.onUpdate != nil {
		go m.onUpdate(m.current)
	}
	return m.current
}

// Current returns the current turn's metrics.
func (m *MetricsCollector) Current() Metrics {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// History returns finished turns, oldest first.
func (m *MetricsCollector) History() []Metrics {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Metrics(nil), m.history...)
}

// Average returns average latencies over finished turns that replied.
func (m *MetricsCollector) Average() Metrics {
	m.mu.Lock()
	defer m.mu.Unlock()

	var avg Metrics
	var n time.Duration
	for _, h := range m.history {
		if h.Outcome != OutcomeReplied {
			continue
		}
		avg.Utterance += h.Utterance
		avg.Transcribe += h.Transcribe
		avg.FirstFragment += h.FirstFragment
		avg.FirstSentence += h.FirstSentence
		avg.Total += h.Total
		n++
	}
	if n == 0 {
		return Metrics{}
	}

	avg.Utterance /= n
	avg.Transcribe /= n
	avg.FirstFragment /= n
	avg.FirstSentence /= n
	avg.Total /= n
	return avg
}

// FormatLatency returns a one-line latency summary.
func (m *Metrics) FormatLatency() string {
	return formatDuration(m.Utterance) + " speech | " +
		formatDuration(m.Transcribe) + " STT | " +
		formatDuration(m.FirstFragment) + " first token | " +
		formatDuration(m.FirstSentence) + " first sentence | " +
		formatDuration(m.Total) + " TOTAL"
}

func formatDuration(d time.Duration) string {
	if d == 0 {
		return "---ms"
	}
	return d.Round(time.Millisecond).String()
}
