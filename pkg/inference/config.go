package inference

import (
	"log/slog"
)

// Config holds provider configuration.
type Config struct {
	// Connection
	APIKey string

	// Model and persona
	Model             string
	SystemInstruction string

	// Generation defaults; zero leaves the model default.
	Temperature float32
	MaxTokens   int32

	// Observability
	Logger *slog.Logger
}

// Option is a functional option for configuring providers.
type Option func(*Config)

// WithAPIKey sets the API key.
func WithAPIKey(key string) Option {
	return func(c *Config) { c.APIKey = key }
}

// WithModel sets the chat model.
func WithModel(model string) Option {
	return func(c *Config) { c.Model = model }
}

// WithSystemInstruction sets the instruction attached to the chat session.
func WithSystemInstruction(text string) Option {
	return func(c *Config) { c.SystemInstruction = text }
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float32) Option {
	return func(c *Config) { c.Temperature = t }
}

// WithMaxTokens caps the reply length.
func WithMaxTokens(n int32) Option {
	return func(c *Config) { c.MaxTokens = n }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Config) { c.Logger = l }
}

// DefaultConfig returns defaults for the tutor.
func DefaultConfig() *Config {
	return &Config{
		Model:  "gemini-2.5-flash",
		Logger: slog.Default(),
	}
}

// Apply applies functional options to the config.
func (c *Config) Apply(opts ...Option) {
	for _, opt := range opts {
		opt(c)
	}
}

// Validate checks that required configuration is present.
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return ErrNoAPIKey
	}
	if c.Model == "" {
		return ErrNoModel
	}
	return nil
}
