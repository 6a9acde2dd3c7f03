// Package stt turns a captured utterance into text.
//
// The default recognizer posts audio to an OpenAI-compatible
// /audio/transcriptions endpoint. A local faster-whisper server running
// tiny.en keeps transcription on the device; pointing BaseURL at a hosted
// API works the same way.
package stt

import (
	"context"
	"errors"
	"fmt"

	"github.com/teslashibe/go-nova/pkg/vad"
)

// Sentinel errors.
var (
	// ErrEmptyAudio is returned when there is nothing to transcribe.
	ErrEmptyAudio = errors.New("stt: empty audio")

	// ErrNoBaseURL is returned when the recognizer has no endpoint.
	ErrNoBaseURL = errors.New("stt: base URL required")
)

// Recognizer transcribes utterances.
type Recognizer interface {
	// Transcribe returns the trimmed transcript. An empty string means
	// nothing intelligible was said.
	Transcribe(ctx context.Context, u vad.Utterance) (string, error)
}

// APIError represents an error response from a transcription API.
type APIError struct {
	StatusCode int
	Message    string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("stt: API error %d: %s", e.StatusCode, e.Message)
}

// IsRetryable returns true for rate limits and server errors.
func (e *APIError) IsRetryable() bool {
	return e.StatusCode == 429 || (e.StatusCode >= 500 && e.StatusCode < 600)
}
