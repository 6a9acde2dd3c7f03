package tts

import (
	"context"
	"errors"
	"io"
	"log/slog"
)

// Fallback speaks with primary and switches to secondary for any sentence
// primary cannot start. Once audio has started there is no switch.
type Fallback struct {
	primary   Synthesizer
	secondary Synthesizer
	logger    *slog.Logger
}

// NewFallback pairs two synthesizers. Close closes both.
func NewFallback(primary, secondary Synthesizer, logger *slog.Logger) *Fallback {
	if logger == nil {
		logger = slog.Default()
	}
	return &Fallback{
		primary:   primary,
		secondary: secondary,
		logger:    logger.With("component", "tts.fallback"),
	}
}

// Synthesize tries primary, then secondary. A cancelled ctx is returned
// as is.
func (f *Fallback) Synthesize(ctx context.Context, sentence string) (io.ReadCloser, error) {
	r, err := f.primary.Synthesize(ctx, sentence)
	if err == nil {
		return r, nil
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	f.logger.Warn("primary synthesizer failed, falling back", "error", err)

	r, err2 := f.secondary.Synthesize(ctx, sentence)
	if err2 != nil {
		return nil, errors.Join(err, err2)
	}
	return r, nil
}

// Close closes both synthesizers.
func (f *Fallback) Close() error {
	return errors.Join(f.primary.Close(), f.secondary.Close())
}

var _ Synthesizer = (*Fallback)(nil)
