package tutor_test

import (
	"testing"
	"time"

	"github.com/teslashibe/go-nova/pkg/tutor"
)

func TestMetricsCollector(t *testing.T) {
	m := tutor.NewMetricsCollector()

	m.Begin("a")
	m.MarkCaptured(2 * time.Second)
	m.MarkTranscript()
	m.MarkFragment(true)
	m.MarkFragment(false)
	m.MarkFragment(false)
	m.MarkSentence()
	got := m.Finish(tutor.OutcomeReplied, 42)

	if got.TurnID != "a" || got.Fragments != 2 || got.FragmentErrors != 1 || got.Sentences != 1 {
		t.Errorf("unexpected counts %+v", got)
	}
	if got.Utterance != 2*time.Second || got.ReplyChars != 42 {
		t.Errorf("unexpected values %+v", got)
	}
	if got.FirstFragmentTime.IsZero() || got.Total <= 0 {
		t.Error("timestamps not recorded")
	}

	m.Begin("b")
	m.MarkCaptured(4 * time.Second)
	m.Finish(tutor.OutcomeNoSpeech, 0)

	if n := len(m.History()); n != 2 {
		t.Errorf("expected 2 turns in history, got %d", n)
	}
	// Only replied turns are averaged.
	if avg := m.Average(); avg.Utterance != 2*time.Second {
		t.Errorf("expected average utterance 2s, got %v", avg.Utterance)
	}
}

func TestFormatLatency(t *testing.T) {
	m := tutor.Metrics{Transcribe: 250 * time.Millisecond}
	want := "---ms speech | 250ms STT | ---ms first token | ---ms first sentence | ---ms TOTAL"
	if got := m.FormatLatency(); got != want {
		t.Errorf("got %q", got)
	}
}
