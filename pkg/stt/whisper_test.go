package stt_test

import (
	"context"
	"encoding/binary"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/teslashibe/go-nova/internal/log"
	"github.com/teslashibe/go-nova/pkg/stt"
	"github.com/teslashibe/go-nova/pkg/vad"
)

func utterance() vad.Utterance {
	return vad.Utterance{Samples: make([]int16, 1600), SampleRate: 16000, Channels: 1}
}

func TestEncodeWAV(t *testing.T) {
	wav := stt.EncodeWAV([]int16{1, -1, 300}, 16000, 1)

	if len(wav) != 44+6 {
		t.Fatalf("expected 50 bytes, got %d", len(wav))
	}
	if string(wav[0:4]) != "RIFF" || string(wav[8:12]) != "WAVE" || string(wav[36:40]) != "data" {
		t.Errorf("bad header %q", wav[:44])
	}
	if got := binary.LittleEndian.Uint32(wav[24:28]); got != 16000 {
		t.Errorf("expected sample rate 16000, got %d", got)
	}
	if got := binary.LittleEndian.Uint32(wav[28:32]); got != 32000 {
		t.Errorf("expected byte rate 32000, got %d", got)
	}
	if got := binary.LittleEndian.Uint32(wav[40:44]); got != 6 {
		t.Errorf("expected data length 6, got %d", got)
	}
	if got := int16(binary.LittleEndian.Uint16(wav[46:48])); got != -1 {
		t.Errorf("expected second sample -1, got %d", got)
	}
}

func TestWhisperTranscribe(t *testing.T) {
	var gotModel, gotLang, gotAuth string
	var gotAudio int

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/audio/transcriptions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse form: %v", err)
		}
		gotModel = r.FormValue("model")
		gotLang = r.FormValue("language")
		gotAuth = r.Header.Get("Authorization")
		f, _, err := r.FormFile("file")
		if err == nil {
			b, _ := io.ReadAll(f)
			gotAudio = len(b)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"text": "  What is a derivative? "}`))
	}))
	defer srv.Close()

	w, err := stt.NewWhisper(stt.Config{
		BaseURL:  srv.URL + "/v1/",
		APIKey:   "secret",
		Language: "en",
		Logger:   log.Discard(),
	})
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	text, err := w.Transcribe(context.Background(), utterance())
	if err != nil {
		t.Fatalf("transcribe: %v", err)
	}
	if text != "What is a derivative?" {
		t.Errorf("expected trimmed transcript, got %q", text)
	}
	if gotModel != stt.DefaultModel || gotLang != "en" {
		t.Errorf("unexpected form fields model=%q language=%q", gotModel, gotLang)
	}
	if gotAuth != "Bearer secret" {
		t.Errorf("expected bearer auth, got %q", gotAuth)
	}
	if gotAudio != 44+3200 {
		t.Errorf("expected %d byte wav, got %d", 44+3200, gotAudio)
	}
}

func TestWhisperErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"error": {"message": "model loading"}}`))
	}))
	defer srv.Close()

	w, _ := stt.NewWhisper(stt.Config{BaseURL: srv.URL, Logger: log.Discard()})

	t.Run("api error", func(t *testing.T) {
		_, err := w.Transcribe(context.Background(), utterance())
		var apiErr *stt.APIError
		if !errors.As(err, &apiErr) {
			t.Fatalf("expected APIError, got %v", err)
		}
		if apiErr.Message != "model loading" || !apiErr.IsRetryable() {
			t.Errorf("unexpected api error %+v", apiErr)
		}
	})

	t.Run("empty audio", func(t *testing.T) {
		if _, err := w.Transcribe(context.Background(), vad.Utterance{}); !errors.Is(err, stt.ErrEmptyAudio) {
			t.Errorf("expected ErrEmptyAudio, got %v", err)
		}
	})

	t.Run("no base url", func(t *testing.T) {
		if _, err := stt.NewWhisper(stt.Config{}); !errors.Is(err, stt.ErrNoBaseURL) {
			t.Errorf("expected ErrNoBaseURL, got %v", err)
		}
	})
}
