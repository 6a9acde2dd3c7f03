package tts

import (
	"context"
	"io"
	"log/slog"
	"time"
)

// Speaker says one sentence and returns when it has been heard.
type Speaker interface {
	Speak(ctx context.Context, sentence string) error
}

// Player consumes an encoded audio stream. *audio.Player satisfies it.
type Player interface {
	Play(ctx context.Context, r io.Reader) error
}

// StreamSpeaker pipes synthesized audio straight into a player, so
// playback starts with the first bytes of a sentence.
type StreamSpeaker struct {
	synth  Synthesizer
	player Player
	logger *slog.Logger
}

// NewStreamSpeaker creates a Speaker.
func NewStreamSpeaker(synth Synthesizer, player Player, logger *slog.Logger) *StreamSpeaker {
	if logger == nil {
		logger = slog.Default()
	}
	return &StreamSpeaker{
		synth:  synth,
		player: player,
		logger: logger.With("component", "tts.speaker"),
	}
}

// Speak synthesizes sentence and blocks until the player exits. A
// synthesis failure is returned before the player is started.
func (s *StreamSpeaker) Speak(ctx context.Context, sentence string) error {
	start := time.Now()
	audio, err := s.synth.Synthesize(ctx, sentence)
	if err != nil {
		return err
	}
	defer audio.Close()

	r := &countingReader{r: audio}
	if err := s.player.Play(ctx, r); err != nil {
		return err
	}

	s.logger.Debug("spoke",
		"chars", len(sentence),
		"bytes", r.n,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

var _ Speaker = (*StreamSpeaker)(nil)
