// Package vad captures one spoken utterance from a microphone using a
// loudness gate: capture starts on the first loud block and ends after a
// stretch of continuous silence.
package vad

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/teslashibe/go-nova/pkg/audioio"
)

// Config holds capture parameters.
type Config struct {
	// Threshold is the VolumeNorm a block must exceed to count as speech.
	// VolumeNorm does not depend on block length, so neither does this.
	Threshold float64

	// Silence is how much continuous quiet audio ends the utterance.
	Silence time.Duration

	// MaxWait bounds how long to wait for speech to begin. Zero waits forever.
	MaxWait time.Duration
}

// DefaultConfig returns the capture settings tuned for a desk microphone.
func DefaultConfig() Config {
	return Config{
		Threshold: 10,
		Silence:   800 * time.Millisecond,
	}
}

// Utterance is the audio captured for one turn.
type Utterance struct {
	Samples    []int16
	SampleRate int
	Channels   int
}

// Duration returns the length of the captured audio.
func (u Utterance) Duration() time.Duration {
	if u.SampleRate == 0 || u.Channels == 0 {
		return 0
	}
	return time.Duration(len(u.Samples)) * time.Second / time.Duration(u.SampleRate*u.Channels)
}

// Empty reports whether no audio was captured.
func (u Utterance) Empty() bool {
	return len(u.Samples) == 0
}

// Capturer records utterances from a Source.
type Capturer struct {
	src    audioio.Source
	cfg    Config
	logger *slog.Logger
}

// New creates a capturer reading from src.
func New(src audioio.Source, cfg Config, logger *slog.Logger) *Capturer {
	if cfg.Threshold <= 0 {
		cfg.Threshold = DefaultConfig().Threshold
	}
	if cfg.Silence <= 0 {
		cfg.Silence = DefaultConfig().Silence
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Capturer{src: src, cfg: cfg, logger: logger.With("component", "vad.capturer")}
}

// Capture blocks until one utterance has been recorded. It returns false
// when no speech was heard before MaxWait elapsed or the source ended.
//
// All timing is in captured audio time, so a stalled source cannot end an
// utterance early.
func (c *Capturer) Capture(ctx context.Context) (Utterance, bool, error) {
	c.logger.Debug("listening for speech")

	var (
		buf     []int16
		rate    int
		chans   int
		started bool
		waited  time.Duration
		silence time.Duration
	)

	for {
		chunk, err := c.src.Read(ctx)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return Utterance{}, false, ctxErr
			}
			if errors.Is(err, io.EOF) {
				break
			}
			return Utterance{}, false, fmt.Errorf("read audio: %w", err)
		}

		d := time.Duration(chunk.Duration() * float64(time.Second))
		loud := audioio.VolumeNorm(chunk.Samples) > c.cfg.Threshold

		if !started {
			if !loud {
				waited += d
				if c.cfg.MaxWait > 0 && waited >= c.cfg.MaxWait {
					c.logger.Debug("no speech before max wait", "waited", waited)
					return Utterance{}, false, nil
				}
				continue
			}
			started = true
			rate, chans = chunk.SampleRate, chunk.Channels
			c.logger.Debug("voice detected")
		}

		buf = append(buf, chunk.Samples...)

		if loud {
			silence = 0
			continue
		}
		silence += d
		if silence > c.cfg.Silence {
			c.logger.Debug("silence detected", "captured", time.Duration(len(buf))*time.Second/time.Duration(max(1, rate*chans)))
			break
		}
	}

	if len(buf) == 0 {
		return Utterance{}, false, nil
	}
	return Utterance{Samples: buf, SampleRate: rate, Channels: chans}, true, nil
}
