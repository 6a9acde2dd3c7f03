package affect_test

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/teslashibe/go-nova/pkg/affect"
)

func TestHistoryBound(t *testing.T) {
	h := affect.NewHistory(10)
	base := time.Now()

	for i := 0; i < 15; i++ {
		h.Append(affect.Reading{
			Timestamp:  base.Add(time.Duration(i) * time.Second),
			Emotion:    fmt.Sprintf("e%d", i),
			Confidence: 90,
		})
	}

	if h.Len() != 10 {
		t.Fatalf("expected 10 readings, got %d", h.Len())
	}

	snap := h.Snapshot()
	for i, r := range snap {
		want := fmt.Sprintf("e%d", i+5)
		if r.Emotion != want {
			t.Errorf("snapshot[%d] = %s, want %s", i, r.Emotion, want)
		}
	}

	latest, ok := h.Latest()
	if !ok || latest.Emotion != "e14" {
		t.Errorf("expected latest e14, got %+v (ok=%v)", latest, ok)
	}
}

func TestHistoryPartialAndClear(t *testing.T) {
	h := affect.NewHistory(0)
	if h.Cap() != affect.DefaultHistorySize {
		t.Errorf("expected default capacity, got %d", h.Cap())
	}
	if _, ok := h.Latest(); ok {
		t.Error("expected no latest reading on empty history")
	}

	h.Append(affect.Reading{Emotion: "happy"})
	h.Append(affect.Reading{Emotion: "sad"})
	snap := h.Snapshot()
	if len(snap) != 2 || snap[0].Emotion != "happy" || snap[1].Emotion != "sad" {
		t.Errorf("unexpected snapshot %+v", snap)
	}

	// Mutating the snapshot must not touch the history.
	snap[0].Emotion = "angry"
	if h.Snapshot()[0].Emotion != "happy" {
		t.Error("snapshot aliases history storage")
	}

	h.Clear()
	if h.Len() != 0 {
		t.Errorf("expected empty history after clear, got %d", h.Len())
	}
}

func TestHistoryConcurrent(t *testing.T) {
	h := affect.NewHistory(10)
	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				h.Append(affect.Reading{Emotion: "neutral"})
				h.Snapshot()
			}
		}()
	}
	wg.Wait()
	if h.Len() != 10 {
		t.Errorf("expected 10 readings, got %d", h.Len())
	}
}
