package tts_test

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/teslashibe/go-nova/internal/log"
	"github.com/teslashibe/go-nova/pkg/tts"
)

func TestFallback(t *testing.T) {
	ctx := context.Background()

	t.Run("primary speaks when it can", func(t *testing.T) {
		primary, secondary := tts.NewMock(), tts.NewMock()
		f := tts.NewFallback(primary, secondary, log.Discard())

		r, err := f.Synthesize(ctx, "Plants need light.")
		if err != nil {
			t.Fatalf("synthesize: %v", err)
		}
		data, _ := io.ReadAll(r)
		r.Close()

		if len(data) != len(tts.Audio("Plants need light.")) {
			t.Errorf("unexpected audio length %d", len(data))
		}
		if len(secondary.Sentences()) != 0 {
			t.Errorf("secondary should be idle, got %q", secondary.Sentences())
		}
	})

	t.Run("sentence moves to secondary when primary cannot start", func(t *testing.T) {
		primary := tts.Failing(&tts.StatusError{Transport: "ws", Code: "quota_exceeded"})
		secondary := tts.NewMock()
		f := tts.NewFallback(primary, secondary, log.Discard())

		r, err := f.Synthesize(ctx, "Chlorophyll is green.")
		if err != nil {
			t.Fatalf("synthesize: %v", err)
		}
		r.Close()

		if got := secondary.Sentences(); len(got) != 1 || got[0] != "Chlorophyll is green." {
			t.Errorf("unexpected secondary sentences %q", got)
		}
	})

	t.Run("both failures are reported", func(t *testing.T) {
		first, second := errors.New("ws refused"), errors.New("http 503")
		f := tts.NewFallback(tts.Failing(first), tts.Failing(second), log.Discard())

		_, err := f.Synthesize(ctx, "Hi.")
		if !errors.Is(err, first) || !errors.Is(err, second) {
			t.Errorf("expected both errors, got %v", err)
		}
	})

	t.Run("cancelled sentence is not retried", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		secondary := tts.NewMock()
		f := tts.NewFallback(tts.Failing(context.Canceled), secondary, log.Discard())

		if _, err := f.Synthesize(cctx, "Hi."); !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
		if len(secondary.Sentences()) != 0 {
			t.Error("secondary should not be tried after cancel")
		}
	})

	t.Run("close reaches both synthesizers", func(t *testing.T) {
		primary, secondary := tts.NewMock(), tts.NewMock()
		if err := tts.NewFallback(primary, secondary, log.Discard()).Close(); err != nil {
			t.Fatalf("close: %v", err)
		}
		if primary.Closed() != 1 || secondary.Closed() != 1 {
			t.Errorf("expected one close each, got %d and %d", primary.Closed(), secondary.Closed())
		}
	})
}

func TestOptions(t *testing.T) {
	t.Run("missing key", func(t *testing.T) {
		if _, err := tts.NewHTTP(); !errors.Is(err, tts.ErrNoAPIKey) {
			t.Errorf("expected ErrNoAPIKey, got %v", err)
		}
		if _, err := tts.NewWebsocket(); !errors.Is(err, tts.ErrNoAPIKey) {
			t.Errorf("expected ErrNoAPIKey, got %v", err)
		}
	})

	t.Run("missing voice", func(t *testing.T) {
		_, err := tts.NewHTTP(tts.WithAPIKey("k"), tts.WithVoice(tts.Voice{Model: tts.ModelFlashV2_5}))
		if !errors.Is(err, tts.ErrNoVoice) {
			t.Errorf("expected ErrNoVoice, got %v", err)
		}
	})
}
