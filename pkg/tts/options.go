package tts

import (
	"log/slog"
	"time"
)

type settings struct {
	apiKey     string
	baseURL    string
	voice      Voice
	retries    int
	retryDelay time.Duration
	logger     *slog.Logger
}

func newSettings(opts []Option) (*settings, error) {
	s := &settings{
		voice:      DefaultVoice(),
		retries:    2,
		retryDelay: 100 * time.Millisecond,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.apiKey == "" {
		return nil, ErrNoAPIKey
	}
	if s.voice.ID == "" {
		return nil, ErrNoVoice
	}
	if s.voice.Model == "" {
		s.voice.Model = ModelTurboV2_5
	}
	return s, nil
}

// Option configures a synthesizer.
type Option func(*settings)

// WithAPIKey sets the ElevenLabs API key.
func WithAPIKey(key string) Option {
	return func(s *settings) { s.apiKey = key }
}

// WithBaseURL points the synthesizer at another endpoint. The websocket
// synthesizer takes a ws:// or wss:// base.
func WithBaseURL(url string) Option {
	return func(s *settings) { s.baseURL = url }
}

// WithVoice sets the voice.
func WithVoice(v Voice) Option {
	return func(s *settings) { s.voice = v }
}

// WithRetry sets how often a rate limited or failed request is retried
// before any audio arrives. The delay grows linearly per attempt.
func WithRetry(retries int, delay time.Duration) Option {
	return func(s *settings) {
		s.retries = retries
		s.retryDelay = delay
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *settings) {
		if l != nil {
			s.logger = l
		}
	}
}
