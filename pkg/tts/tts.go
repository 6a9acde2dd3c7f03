// Package tts voices the tutor's replies one sentence at a time.
//
// A Synthesizer turns a sentence into MP3 audio that can be played while
// it is still arriving. StreamSpeaker pairs a Synthesizer with a Player so
// the playback queue can say a sentence and wait for it to finish:
//
//	synth, err := tts.NewHTTP(tts.WithAPIKey(key), tts.WithVoice(tts.DefaultVoice()))
//	if err != nil {
//		return err
//	}
//	speaker := tts.NewStreamSpeaker(synth, player, logger)
//	err = speaker.Speak(ctx, "Photosynthesis turns light into sugar.")
package tts

import (
	"context"
	"io"
)

// Synthesizer turns one sentence into encoded audio. The reader yields MP3
// bytes as they arrive and ends with io.EOF; the caller closes it.
type Synthesizer interface {
	Synthesize(ctx context.Context, sentence string) (io.ReadCloser, error)
	Close() error
}

// ElevenLabs models suited to a live conversation.
const (
	// ModelTurboV2_5 is the low latency English model.
	ModelTurboV2_5 = "eleven_turbo_v2_5"

	// ModelFlashV2_5 trades some quality for even lower latency.
	ModelFlashV2_5 = "eleven_flash_v2_5"
)

// DefaultVoiceID is the tutor's voice.
const DefaultVoiceID = "CwhRBWXzGAHq8TQ4Fs17"

// Voice selects who speaks and how steady they sound.
type Voice struct {
	ID         string
	Model      string
	Stability  float64 // 0 is expressive, 1 is monotone
	Similarity float64 // adherence to the original voice
}

// DefaultVoice is the tutor's voice on the turbo model.
func DefaultVoice() Voice {
	return Voice{
		ID:         DefaultVoiceID,
		Model:      ModelTurboV2_5,
		Stability:  0.5,
		Similarity: 0.7,
	}
}
