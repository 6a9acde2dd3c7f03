package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/teslashibe/go-nova/internal/httpc"
)

const elevenLabsBaseURL = "https://api.elevenlabs.io/v1"

// HTTP synthesizes each sentence with one streaming POST.
type HTTP struct {
	s      *settings
	client *http.Client
	logger *slog.Logger
}

// NewHTTP creates an HTTP synthesizer.
func NewHTTP(opts ...Option) (*HTTP, error) {
	s, err := newSettings(opts)
	if err != nil {
		return nil, err
	}
	if s.baseURL == "" {
		s.baseURL = elevenLabsBaseURL
	}
	return &HTTP{
		s:      s,
		client: httpc.NewStreamingClient(),
		logger: s.logger.With("component", "tts.http"),
	}, nil
}

type speechRequest struct {
	Text          string        `json:"text"`
	ModelID       string        `json:"model_id"`
	VoiceSettings voiceSettings `json:"voice_settings"`
}

type voiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
}

// Synthesize returns the response body as soon as headers arrive.
func (h *HTTP) Synthesize(ctx context.Context, sentence string) (io.ReadCloser, error) {
	body, err := json.Marshal(speechRequest{
		Text:    sentence,
		ModelID: h.s.voice.Model,
		VoiceSettings: voiceSettings{
			Stability:       h.s.voice.Stability,
			SimilarityBoost: h.s.voice.Similarity,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("tts http: marshal: %w", err)
	}
	url := fmt.Sprintf("%s/text-to-speech/%s/stream", h.s.baseURL, h.s.voice.ID)

	start := time.Now()
	var lastErr error
	for attempt := 0; attempt <= h.s.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(h.s.retryDelay * time.Duration(attempt)):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("tts http: %w", err)
		}
		req.Header.Set("xi-api-key", h.s.apiKey)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "audio/mpeg")

		resp, err := h.client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = fmt.Errorf("tts http: %w", err)
			continue
		}
		if resp.StatusCode == http.StatusOK {
			h.logger.Debug("sentence streaming",
				"chars", len(sentence),
				"latency_ms", time.Since(start).Milliseconds(),
				"attempts", attempt+1,
			)
			return resp.Body, nil
		}

		statusErr := readStatusError(resp)
		if !statusErr.Retryable() {
			return nil, statusErr
		}
		h.logger.Warn("retrying sentence", "attempt", attempt+1, "status", resp.StatusCode)
		lastErr = statusErr
	}
	return nil, lastErr
}

// CheckKey asks ElevenLabs whether the API key is accepted.
func (h *HTTP) CheckKey(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.s.baseURL+"/user", nil)
	if err != nil {
		return fmt.Errorf("tts http: %w", err)
	}
	req.Header.Set("xi-api-key", h.s.apiKey)

	resp, err := h.client.Do(req)
	if err != nil {
		return fmt.Errorf("tts http: check key: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return readStatusError(resp)
	}
	resp.Body.Close()
	return nil
}

// Close drops idle connections.
func (h *HTTP) Close() error {
	h.client.CloseIdleConnections()
	return nil
}

// readStatusError consumes and closes resp.Body.
func readStatusError(resp *http.Response) *StatusError {
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	var detail struct {
		Detail struct {
			Status  string `json:"status"`
			Message string `json:"message"`
		} `json:"detail"`
	}
	e := &StatusError{Transport: "http", Status: resp.StatusCode, Message: string(body)}
	if json.Unmarshal(body, &detail) == nil && detail.Detail.Message != "" {
		e.Code = detail.Detail.Status
		e.Message = detail.Detail.Message
	}
	return e
}

var _ Synthesizer = (*HTTP)(nil)
