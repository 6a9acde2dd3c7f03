package stt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/teslashibe/go-nova/internal/httpc"
	"github.com/teslashibe/go-nova/pkg/vad"
)

// Defaults for a local faster-whisper server.
const (
	DefaultBaseURL = "http://127.0.0.1:8000/v1"
	DefaultModel   = "tiny.en"
)

// Config holds Whisper client settings.
type Config struct {
	BaseURL  string
	APIKey   string // optional for local servers
	Model    string
	Language string
	Timeout  time.Duration
	Logger   *slog.Logger
}

// Whisper transcribes through an OpenAI-compatible transcription endpoint.
type Whisper struct {
	cfg    Config
	client *http.Client
	logger *slog.Logger
}

// NewWhisper creates a Whisper client.
func NewWhisper(cfg Config) (*Whisper, error) {
	if cfg.BaseURL == "" {
		return nil, ErrNoBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = httpc.DefaultTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Whisper{
		cfg:    cfg,
		client: httpc.NewClient(cfg.Timeout),
		logger: cfg.Logger.With("component", "stt.whisper"),
	}, nil
}

// Transcribe implements Recognizer.
func (w *Whisper) Transcribe(ctx context.Context, u vad.Utterance) (string, error) {
	if u.Empty() {
		return "", ErrEmptyAudio
	}
	start := time.Now()

	body, contentType, err := w.buildForm(u)
	if err != nil {
		return "", err
	}

	url := strings.TrimRight(w.cfg.BaseURL, "/") + "/audio/transcriptions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return "", fmt.Errorf("stt: create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	if w.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+w.cfg.APIKey)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("stt: request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("stt: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", parseError(resp.StatusCode, raw)
	}

	var result struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		return "", fmt.Errorf("stt: decode response: %w", err)
	}

	text := strings.TrimSpace(result.Text)
	w.logger.Debug("transcribed",
		"audio", u.Duration(),
		"chars", len(text),
		"latency_ms", time.Since(start).Milliseconds(),
	)
	return text, nil
}

func (w *Whisper) buildForm(u vad.Utterance) (io.Reader, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	part, err := mw.CreateFormFile("file", "utterance.wav")
	if err != nil {
		return nil, "", fmt.Errorf("stt: create form file: %w", err)
	}
	if _, err := part.Write(EncodeWAV(u.Samples, u.SampleRate, u.Channels)); err != nil {
		return nil, "", fmt.Errorf("stt: write audio: %w", err)
	}

	fields := map[string]string{
		"model":           w.cfg.Model,
		"response_format": "json",
	}
	if w.cfg.Language != "" {
		fields["language"] = w.cfg.Language
	}
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			return nil, "", fmt.Errorf("stt: write field %s: %w", k, err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, "", fmt.Errorf("stt: close form: %w", err)
	}
	return &buf, mw.FormDataContentType(), nil
}

func parseError(status int, body []byte) error {
	var errResp struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
		Detail string `json:"detail"`
	}
	msg := strings.TrimSpace(string(body))
	if json.Unmarshal(body, &errResp) == nil {
		switch {
		case errResp.Error.Message != "":
			msg = errResp.Error.Message
		case errResp.Detail != "":
			msg = errResp.Detail
		}
	}
	return &APIError{StatusCode: status, Message: msg}
}

var _ Recognizer = (*Whisper)(nil)
