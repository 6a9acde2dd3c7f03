package nova_test

import (
	"errors"
	"testing"

	"github.com/teslashibe/go-nova/internal/log"
	"github.com/teslashibe/go-nova/pkg/nova"
	"github.com/teslashibe/go-nova/pkg/tts"
)

func TestNewSynthesizer(t *testing.T) {
	t.Run("http backend", func(t *testing.T) {
		cfg := testConfig()
		cfg.TTS.Backend = "http"
		s, err := nova.NewSynthesizer(cfg, log.Discard())
		if err != nil {
			t.Fatalf("new: %v", err)
		}
		defer s.Close()
		if _, ok := s.(*tts.HTTP); !ok {
			t.Errorf("expected *tts.HTTP, got %T", s)
		}
	})

	t.Run("ws backend falls back to http", func(t *testing.T) {
		cfg := testConfig()
		cfg.TTS.Backend = "ws"
		s, err := nova.NewSynthesizer(cfg, log.Discard())
		if err != nil {
			t.Fatalf("new: %v", err)
		}
		if _, ok := s.(*tts.Fallback); !ok {
			t.Errorf("expected *tts.Fallback, got %T", s)
		}
		if err := s.Close(); err != nil {
			t.Errorf("close: %v", err)
		}
	})

	t.Run("missing voice builds nothing", func(t *testing.T) {
		for _, backend := range []string{"http", "ws"} {
			cfg := testConfig()
			cfg.TTS.Backend = backend
			cfg.TTS.VoiceID = ""
			s, err := nova.NewSynthesizer(cfg, log.Discard())
			if !errors.Is(err, tts.ErrNoVoice) || s != nil {
				t.Errorf("%s: expected ErrNoVoice and no synthesizer, got %v, %v", backend, s, err)
			}
		}
	})
}
