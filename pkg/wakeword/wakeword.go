// Package wakeword blocks until the wake phrase is heard on the microphone.
package wakeword

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/teslashibe/go-nova/pkg/audioio"
)

var (
	// ErrKeywordFile is returned when the keyword model file is missing.
	ErrKeywordFile = errors.New("wakeword: keyword file not found")

	// ErrNoAccessKey is returned when no Picovoice access key is configured.
	ErrNoAccessKey = errors.New("wakeword: access key not set")
)

// Detector waits for the wake phrase.
type Detector interface {
	// Listen blocks until the wake phrase is detected (nil), ctx is done,
	// or the audio source fails.
	Listen(ctx context.Context) error

	// Close releases the engine.
	Close() error
}

// Engine scores fixed-size PCM frames. It returns the index of the
// detected keyword, or -1.
type Engine interface {
	Process(frame []int16) (int, error)
	FrameLength() int
	Close() error
}

// Listener feeds microphone audio to an Engine in frames of the size the
// engine expects.
type Listener struct {
	src    audioio.Source
	engine Engine
	logger *slog.Logger

	carry []int16
}

// NewListener creates a detector over src.
func NewListener(src audioio.Source, engine Engine, logger *slog.Logger) *Listener {
	if logger == nil {
		logger = slog.Default()
	}
	return &Listener{
		src:    src,
		engine: engine,
		logger: logger.With("component", "wakeword.listener"),
	}
}

// Listen implements Detector.
func (l *Listener) Listen(ctx context.Context) error {
	n := l.engine.FrameLength()
	l.carry = l.carry[:0]
	l.logger.Debug("waiting for wake word")

	for {
		chunk, err := l.src.Read(ctx)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			if errors.Is(err, io.EOF) {
				return fmt.Errorf("wakeword: audio source closed: %w", err)
			}
			return fmt.Errorf("wakeword: read audio: %w", err)
		}

		l.carry = append(l.carry, chunk.Samples...)
		for len(l.carry) >= n {
			idx, err := l.engine.Process(l.carry[:n])
			l.carry = l.carry[n:]
			if err != nil {
				l.logger.Warn("wake word engine error", "error", err)
				continue
			}
			if idx >= 0 {
				l.logger.Info("wake word detected", "keyword", idx)
				// Leftover samples belong to the utterance capturer.
				l.carry = l.carry[:0]
				return nil
			}
		}
		// Keep the carry buffer from growing its backing array forever.
		if cap(l.carry) > 8*n {
			l.carry = append([]int16(nil), l.carry...)
		}
	}
}

// Close releases the engine.
func (l *Listener) Close() error {
	return l.engine.Close()
}

var _ Detector = (*Listener)(nil)
