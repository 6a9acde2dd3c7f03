package tts

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNoAPIKey is returned when no ElevenLabs key is configured.
	ErrNoAPIKey = errors.New("tts: ElevenLabs API key is required")

	// ErrNoVoice is returned when the voice has no ID.
	ErrNoVoice = errors.New("tts: voice ID is required")
)

// StatusError is a non-success answer from ElevenLabs.
type StatusError struct {
	Transport string // "http" or "ws"
	Status    int    // HTTP status, 0 for websocket errors
	Code      string // ElevenLabs error code, if any
	Message   string
}

func (e *StatusError) Error() string {
	switch {
	case e.Status != 0:
		return fmt.Sprintf("tts %s: status %d: %s", e.Transport, e.Status, e.Message)
	case e.Code != "":
		return fmt.Sprintf("tts %s: %s: %s", e.Transport, e.Code, e.Message)
	default:
		return fmt.Sprintf("tts %s: %s", e.Transport, e.Message)
	}
}

// Unauthorized reports a rejected API key.
func (e *StatusError) Unauthorized() bool {
	return e.Status == http.StatusUnauthorized
}

// Retryable reports a rate limit or server fault.
func (e *StatusError) Retryable() bool {
	return e.Status == http.StatusTooManyRequests || e.Status >= 500
}
