package affect

import (
	"fmt"
	"time"
)

// DefaultStaleness is the maximum age of the newest reading that is still
// surfaced. The student may simply have stepped away.
const DefaultStaleness = 30 * time.Second

// UnclearContext is returned when no label dominates the history.
const UnclearContext = "The student's emotional state is unclear — insufficient data."

// Descriptors map classifier labels to the phrase used in the prompt.
var Descriptors = map[string]string{
	"angry": "frustrated or struggling to understand the material, please try to make the most nice and kindest " +
		"approach to explaining a concept. Be forgiving, slow, and engaging, and try to make it as kind as possible.",
	"sad":      "discouraged or losing confidence",
	"fear":     "overwhelmed or anxious about the topic",
	"happy":    "engaged, confident, and following along well",
	"surprise": "just had a realization or is surprised by something",
	"neutral":  "focused and listening attentively",
	"disgust":  "dissatisfied with the current explanation",
}

// Fallback phrases for labels missing from Descriptors.
const (
	fallbackSteady  = "attentive"
	fallbackShifted = "neutral"
)

// Summarizer produces the per-turn affect context from a History.
type Summarizer struct {
	history   *History
	staleness time.Duration
	now       func() time.Time
}

// NewSummarizer creates a Summarizer over h. A non-positive staleness
// uses DefaultStaleness.
func NewSummarizer(h *History, staleness time.Duration) *Summarizer {
	if staleness <= 0 {
		staleness = DefaultStaleness
	}
	return &Summarizer{history: h, staleness: staleness, now: time.Now}
}

// WithClock replaces the time source. Used by tests.
func (s *Summarizer) WithClock(now func() time.Time) *Summarizer {
	s.now = now
	return s
}

// Context returns a one-sentence description of the student's state, or
// false when there is nothing current to report.
func (s *Summarizer) Context() (string, bool) {
	return Summarize(s.history.Snapshot(), s.now(), s.staleness)
}

// Summarize reduces readings (oldest first) to a context sentence.
//
// The majority label must account for at least max(1, n/3) readings,
// using integer division; otherwise the state is reported as unclear.
// Ties go to the label that appears first.
func Summarize(readings []Reading, now time.Time, staleness time.Duration) (string, bool) {
	if len(readings) == 0 {
		return "", false
	}
	latest := readings[len(readings)-1]
	if now.Sub(latest.Timestamp) > staleness {
		return "", false
	}

	majority, count := Majority(readings)
	if count < max(1, len(readings)/3) {
		return UnclearContext, true
	}

	if latest.Emotion == majority {
		return fmt.Sprintf("The student appears to be %s.", describe(majority, fallbackSteady)), true
	}
	return fmt.Sprintf("The student was mostly %s, but their expression has just shifted to %s.",
		describe(majority, fallbackShifted), describe(latest.Emotion, fallbackShifted)), true
}

// Majority returns the most frequent emotion and its count. On a tie the
// label seen first wins.
func Majority(readings []Reading) (string, int) {
	counts := make(map[string]int, len(readings))
	var order []string
	for _, r := range readings {
		if counts[r.Emotion] == 0 {
			order = append(order, r.Emotion)
		}
		counts[r.Emotion]++
	}

	best, bestCount := "", 0
	for _, label := range order {
		if counts[label] > bestCount {
			best, bestCount = label, counts[label]
		}
	}
	return best, bestCount
}

func describe(label, fallback string) string {
	if d, ok := Descriptors[label]; ok {
		return d
	}
	return fallback
}

// Disabled is used when no camera is available. It never has context.
type Disabled struct{}

// Context always reports absence.
func (Disabled) Context() (string, bool) { return "", false }
