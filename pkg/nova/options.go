package nova

import (
	"github.com/teslashibe/go-nova/pkg/audioio"
	"github.com/teslashibe/go-nova/pkg/inference"
	"github.com/teslashibe/go-nova/pkg/playback"
	"github.com/teslashibe/go-nova/pkg/stt"
	"github.com/teslashibe/go-nova/pkg/tts"
	"github.com/teslashibe/go-nova/pkg/tutor"
	"github.com/teslashibe/go-nova/pkg/wakeword"
)

// Option replaces a component Init would otherwise build.
type Option func(*App)

// WithSource sets the microphone.
func WithSource(src audioio.Source) Option {
	return func(a *App) { a.source = src }
}

// WithWakeWord sets the wake word detector.
func WithWakeWord(d wakeword.Detector) Option {
	return func(a *App) { a.wake = d }
}

// WithCapturer sets the utterance capturer.
func WithCapturer(c tutor.Capturer) Option {
	return func(a *App) { a.capture = c }
}

// WithRecognizer sets speech recognition.
func WithRecognizer(r stt.Recognizer) Option {
	return func(a *App) { a.recognizer = r }
}

// WithGenerator sets the reply generator.
func WithGenerator(g inference.Generator) Option {
	return func(a *App) { a.generator = g }
}

// WithSynthesizer sets the sentence synthesizer. Its audio is still played
// through the configured player.
func WithSynthesizer(s tts.Synthesizer) Option {
	return func(a *App) { a.synth = s }
}

// WithSpeaker bypasses synthesis and playback entirely.
func WithSpeaker(s playback.Speaker) Option {
	return func(a *App) { a.speaker = s }
}

// WithAffect sets the affect context and skips the camera.
func WithAffect(p tutor.ContextProvider) Option {
	return func(a *App) { a.affectCtx = p }
}
