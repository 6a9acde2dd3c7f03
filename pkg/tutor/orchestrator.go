package tutor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/teslashibe/go-nova/pkg/inference"
	"github.com/teslashibe/go-nova/pkg/prompt"
	"github.com/teslashibe/go-nova/pkg/segment"
	"github.com/teslashibe/go-nova/pkg/stt"
	"github.com/teslashibe/go-nova/pkg/vad"
	"github.com/teslashibe/go-nova/pkg/wakeword"
)

// UI receives state changes and displayed text. Calls must not block for
// long; the turn waits on them.
type UI interface {
	SetState(state State)
	ShowText(text string, sender Sender)
}

// ContextProvider summarizes the student's recent affect. ok is false
// when there is nothing current to report.
type ContextProvider interface {
	Context() (summary string, ok bool)
}

// Capturer records one utterance. ok is false when nothing was said.
type Capturer interface {
	Capture(ctx context.Context) (u vad.Utterance, ok bool, err error)
}

// SpeechQueue accepts sentences for ordered playback.
type SpeechQueue interface {
	Enqueue(text string) error
	Barrier(ctx context.Context) error
}

// Deps are the Orchestrator's collaborators. Cue and Drain are optional.
type Deps struct {
	Wake       wakeword.Detector
	Capture    Capturer
	Recognizer stt.Recognizer
	Generator  inference.Generator
	Queue      SpeechQueue
	UI         UI
	Affect     ContextProvider

	// Cue plays the wake acknowledgement without waiting for it.
	Cue func()

	// Drain discards microphone audio buffered while the agent was busy,
	// so the detector does not hear Nova's own reply.
	Drain func()
}

// Orchestrator drives conversation turns one at a time.
type Orchestrator struct {
	deps    Deps
	logger  *slog.Logger
	metrics *MetricsCollector
}

// New validates deps and creates an Orchestrator.
func New(deps Deps, logger *slog.Logger) (*Orchestrator, error) {
	switch {
	case deps.Wake == nil:
		return nil, errors.New("tutor: wake word detector required")
	case deps.Capture == nil:
		return nil, errors.New("tutor: capturer required")
	case deps.Recognizer == nil:
		return nil, errors.New("tutor: recognizer required")
	case deps.Generator == nil:
		return nil, errors.New("tutor: generator required")
	case deps.Queue == nil:
		return nil, errors.New("tutor: speech queue required")
	case deps.UI == nil:
		return nil, errors.New("tutor: UI required")
	}
	if deps.Affect == nil {
		deps.Affect = noAffect{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		deps:    deps,
		logger:  logger.With("component", "tutor.orchestrator"),
		metrics: NewMetricsCollector(),
	}, nil
}

// Metrics returns the turn metrics collector.
func (o *Orchestrator) Metrics() *MetricsCollector {
	return o.metrics
}

// Run executes turns until ctx is done. It returns nil on cancellation
// and the error of a turn that could not continue otherwise.
func (o *Orchestrator) Run(ctx context.Context) error {
	for {
		err := o.RunTurn(ctx)
		if ctx.Err() != nil {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

// RunTurn waits for the wake word and carries one turn back to idle.
func (o *Orchestrator) RunTurn(ctx context.Context) error {
	if o.deps.Drain != nil {
		o.deps.Drain()
	}
	if err := o.deps.Wake.Listen(ctx); err != nil {
		return fmt.Errorf("wake word: %w", err)
	}

	turn := newTurn()
	log := o.logger.With("turn", turn.ID)
	o.metrics.Begin(turn.ID)
	log.Info("wake word detected")

	o.setState(turn, StateListening)
	if o.deps.Cue != nil {
		o.deps.Cue()
	}

	utt, heard, err := o.deps.Capture.Capture(ctx)
	if err != nil {
		o.setState(turn, StateIdle)
		return fmt.Errorf("capture: %w", err)
	}
	o.metrics.MarkCaptured(utt.Duration())

	text := ""
	if heard {
		text, err = o.deps.Recognizer.Transcribe(ctx, utt)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Warn("transcription failed", "error", err)
			text = ""
		}
		o.metrics.MarkTranscript()
	}
	text = strings.TrimSpace(text)

	if text == "" {
		log.Info("no speech detected")
		o.deps.UI.ShowText(prompt.NoSpeech, SenderNova)
		o.setState(turn, StateIdle)
		o.metrics.Finish(OutcomeNoSpeech, 0)
		return nil
	}

	turn.UserText = text
	o.setState(turn, StateProcessing)
	log.Info("words heard", "text", text)
	o.deps.UI.ShowText(text, SenderUser)

	summary, ok := o.deps.Affect.Context()
	if ok {
		log.Debug("affect context", "summary", summary)
	}

	stream, err := o.deps.Generator.Send(ctx, prompt.Build(text, summary, ok))
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Error("generation failed", "error", err)
		o.setState(turn, StateIdle)
		o.metrics.Finish(OutcomeGenerationFailed, 0)
		return nil
	}

	err = o.relay(ctx, turn, stream, log)
	stream.Close()
	if err != nil {
		return err
	}
	log.Info("full response", "text", turn.Reply.String())

	if err := o.deps.Queue.Barrier(ctx); err != nil {
		return err
	}

	m := o.metrics.Finish(OutcomeReplied, turn.Reply.Len())
	log.Info("turn complete",
		"latency", m.FormatLatency(),
		"sentences", m.Sentences,
		"fragment_errors", m.FragmentErrors,
	)
	o.setState(turn, StateIdle)
	return nil
}

// relay reads the reply stream, shows each sentence as it completes and
// queues it for speech. Fragment errors are skipped.
func (o *Orchestrator) relay(ctx context.Context, turn *Turn, stream inference.Stream, log *slog.Logger) error {
	seg := segment.New()
	for {
		chunk, err := stream.Recv()
		if err == io.EOF {
			break
		}
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(err, inference.ErrStreamClosed) {
				break
			}
			log.Warn("skipping response fragment", "error", err)
			o.metrics.MarkFragment(true)
			continue
		}

		if turn.State != StateSpeaking {
			o.setState(turn, StateSpeaking)
		}
		o.metrics.MarkFragment(false)
		turn.Reply.WriteString(chunk.Delta)

		for _, sentence := range seg.Push(chunk.Delta) {
			o.dispatch(sentence, log)
		}
	}

	if rest, ok := seg.Flush(); ok {
		o.dispatch(rest, log)
	}
	return nil
}

// dispatch shows a sentence as generated and speaks it without markup.
func (o *Orchestrator) dispatch(sentence string, log *slog.Logger) {
	if !segment.Speakable(sentence) {
		return
	}
	o.deps.UI.ShowText(sentence, SenderNova)
	if err := o.deps.Queue.Enqueue(prompt.StripFormatting(sentence)); err != nil {
		log.Warn("could not queue sentence", "error", err)
		return
	}
	o.metrics.MarkSentence()
}

func (o *Orchestrator) setState(turn *Turn, s State) {
	turn.State = s
	o.deps.UI.SetState(s)
}

type noAffect struct{}

func (noAffect) Context() (string, bool) { return "", false }
