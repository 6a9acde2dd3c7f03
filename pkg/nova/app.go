// Package nova wires the tutoring agent together.
package nova

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/teslashibe/go-nova/internal/config"
	"github.com/teslashibe/go-nova/pkg/affect"
	"github.com/teslashibe/go-nova/pkg/audio"
	"github.com/teslashibe/go-nova/pkg/audioio"
	"github.com/teslashibe/go-nova/pkg/camera"
	"github.com/teslashibe/go-nova/pkg/inference"
	"github.com/teslashibe/go-nova/pkg/lifecycle"
	"github.com/teslashibe/go-nova/pkg/playback"
	"github.com/teslashibe/go-nova/pkg/prompt"
	"github.com/teslashibe/go-nova/pkg/stt"
	"github.com/teslashibe/go-nova/pkg/tts"
	"github.com/teslashibe/go-nova/pkg/tutor"
	"github.com/teslashibe/go-nova/pkg/vad"
	"github.com/teslashibe/go-nova/pkg/wakeword"
	"github.com/teslashibe/go-nova/pkg/web"
)

// App is the Nova application. It owns every component and their lifecycle.
type App struct {
	config *config.Config
	logger *slog.Logger

	// Audio in
	source  audioio.Source
	wake    wakeword.Detector
	capture tutor.Capturer

	// Language
	recognizer stt.Recognizer
	generator  inference.Generator

	// Speech out
	synth   tts.Synthesizer
	player  *audio.Player
	speaker playback.Speaker
	queue   *playback.Queue

	// Affect
	acquisition *camera.Acquisition
	classifier  affect.Classifier
	analyzer    *affect.Analyzer
	affectCtx   tutor.ContextProvider

	web          *web.Server
	orchestrator *tutor.Orchestrator
	supervisor   *lifecycle.Supervisor
}

// New creates an App. Components are built by Init; opts replace them.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	a := &App{config: cfg, logger: logger}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Init builds every component that was not supplied as an Option.
// Call this after New() and before Run().
func (a *App) Init(ctx context.Context) error {
	fmt.Println("🎓 Nova - Voice Tutoring Agent")
	fmt.Println("==============================")
	if a.config.Debug {
		fmt.Println("🐛 Debug mode enabled")
	}

	fmt.Print("🎤 Opening microphone... ")
	if err := a.initAudio(); err != nil {
		fmt.Println("❌")
		return fmt.Errorf("audio init: %w", err)
	}
	fmt.Println("✅")

	fmt.Print("🧠 Connecting to speech and language services... ")
	if err := a.initLanguage(ctx); err != nil {
		fmt.Println("❌")
		return fmt.Errorf("language init: %w", err)
	}
	fmt.Println("✅")

	fmt.Printf("🎙️  TTS: ElevenLabs %s (voice: %s, model: %s)\n", a.config.TTS.Backend, a.config.TTS.VoiceID, a.config.TTS.ModelID)
	if err := a.initSpeech(); err != nil {
		return fmt.Errorf("TTS init: %w", err)
	}

	a.initAffect()

	a.web = web.NewServer(web.Config{
		Addr:      a.config.UI.Addr,
		StaticDir: a.config.UI.StaticDir,
	}, a.logger)

	orch, err := tutor.New(tutor.Deps{
		Wake:       a.wake,
		Capture:    a.capture,
		Recognizer: a.recognizer,
		Generator:  a.generator,
		Queue:      a.queue,
		UI:         a.web,
		Affect:     a.affectCtx,
		Cue:        a.cue,
		Drain:      a.drain,
	}, a.logger)
	if err != nil {
		return fmt.Errorf("orchestrator: %w", err)
	}
	a.orchestrator = orch
	orch.Metrics().OnUpdate(func(m tutor.Metrics) {
		a.logger.Debug("turn metrics", "turn", m.TurnID, "outcome", m.Outcome, "latency", m.FormatLatency())
	})

	a.web.AddStatus("playback", func() any { return a.queue.Stats() })
	a.web.AddStatus("latency", func() any { return orch.Metrics().Average() })
	if a.acquisition != nil {
		a.web.AddStatus("camera", func() any { return a.acquisition.Stats() })
	}
	if a.analyzer != nil {
		a.web.AddStatus("affect", func() any { return a.analyzer.Stats() })
	}
	return nil
}

// Run starts the background loops, greets the student and takes turns
// until ctx is cancelled or a turn fails in a way it cannot recover from.
func (a *App) Run(ctx context.Context) error {
	if a.orchestrator == nil {
		return errors.New("nova: Init must be called before Run")
	}

	if a.source != nil {
		if err := a.source.Start(ctx); err != nil {
			return fmt.Errorf("start microphone: %w", err)
		}
	}

	sup := lifecycle.New(ctx, a.logger)
	a.supervisor = sup
	a.web.SetHealth(sup)

	sup.Go("web", a.web.Run)
	if a.acquisition != nil {
		sup.Go("camera", a.acquisition.Run)
	}
	if a.analyzer != nil {
		sup.Go("affect", a.analyzer.Run)
	}

	fmt.Printf("🌐 UI at http://%s\n", a.config.UI.Addr)
	if err := web.WaitUntilReady(sup.Context(), a.config.UI.Addr, a.config.UI.ReadyTimeout); err != nil {
		fmt.Printf("⚠️  %v\n", err)
	}

	a.web.SetState(tutor.StateIdle)
	if !sleepCtx(sup.Context(), a.config.UI.WelcomeDelay) {
		return sup.Wait()
	}
	a.web.ShowText(prompt.Welcome, tutor.SenderNova)

	fmt.Println("\n👂 Nova is listening! Say \"Hey Nova\" to start...")
	fmt.Println("   (Ctrl+C to exit)")

	sup.Must("turns", a.orchestrator.Run)
	return sup.Wait()
}

// Shutdown releases every component. Call after Run has returned.
func (a *App) Shutdown() {
	fmt.Println("\n👋 Goodbye!")

	if a.supervisor != nil {
		a.supervisor.Stop()
	}
	if a.queue != nil {
		if n := a.queue.Discard(); n > 0 {
			a.logger.Info("discarded queued speech", "sentences", n)
		}
		a.queue.Close()
	}
	if a.player != nil {
		a.player.WaitCues()
	}
	if a.wake != nil {
		a.wake.Close()
	}
	if a.source != nil {
		a.source.Close()
	}
	if a.synth != nil {
		a.synth.Close()
	}
	if a.classifier != nil {
		a.classifier.Close()
	}
	if a.acquisition != nil {
		a.acquisition.Close()
	}
}

// Web returns the UI server.
func (a *App) Web() *web.Server {
	return a.web
}

// Health returns background task states; nil before Run.
func (a *App) Health() []lifecycle.TaskStatus {
	if a.supervisor == nil {
		return nil
	}
	return a.supervisor.Snapshot()
}

func (a *App) initAudio() error {
	if a.source == nil && (a.wake == nil || a.capture == nil) {
		src, err := audioio.NewSource(audioio.Config{
			Backend:        audioio.Backend(a.config.Audio.Backend),
			SampleRate:     a.config.Audio.SampleRate,
			Channels:       1,
			BufferDuration: a.config.Audio.Buffer,
			Device:         a.config.Audio.Device,
		}, a.logger)
		if err != nil {
			return err
		}
		a.source = src
	}

	if a.wake == nil {
		engine, err := wakeword.NewPorcupine(a.config.Keys.Picovoice, a.config.Assets.KeywordFile)
		if err != nil {
			return err
		}
		a.wake = wakeword.NewListener(a.source, engine, a.logger)
	}

	if a.capture == nil {
		a.capture = vad.New(a.source, vad.Config{
			Threshold: a.config.Capture.Threshold,
			Silence:   a.config.Capture.Silence,
			MaxWait:   a.config.Capture.MaxWait,
		}, a.logger)
	}
	return nil
}

func (a *App) initLanguage(ctx context.Context) error {
	if a.recognizer == nil {
		w, err := stt.NewWhisper(stt.Config{
			BaseURL:  a.config.STT.BaseURL,
			APIKey:   a.config.Keys.Whisper,
			Model:    a.config.STT.Model,
			Language: a.config.STT.Language,
			Timeout:  a.config.STT.Timeout,
			Logger:   a.logger,
		})
		if err != nil {
			return err
		}
		a.recognizer = w
	}

	if a.generator == nil {
		g, err := inference.NewGemini(ctx,
			inference.WithAPIKey(a.config.Keys.Google),
			inference.WithModel(a.config.Generation.Model),
			inference.WithSystemInstruction(prompt.SystemInstruction(a.config.Debug)),
			inference.WithLogger(a.logger),
		)
		if err != nil {
			return err
		}
		a.generator = g
	}
	return nil
}

func (a *App) initSpeech() error {
	if a.player == nil {
		a.player = audio.NewPlayer(a.config.TTS.Player, a.logger)
	}

	if a.speaker == nil {
		if a.synth == nil {
			synth, err := newSynthesizer(a.config, a.logger)
			if err != nil {
				return err
			}
			a.synth = synth
		}
		a.speaker = tts.NewStreamSpeaker(a.synth, a.player, a.logger)
	}

	a.queue = playback.New(a.speaker, a.logger)
	a.queue.Start()
	return nil
}

// newSynthesizer builds the configured ElevenLabs transport. The websocket
// transport falls back to HTTP for any sentence it cannot start.
func newSynthesizer(cfg *config.Config, logger *slog.Logger) (tts.Synthesizer, error) {
	opts := []tts.Option{
		tts.WithAPIKey(cfg.Keys.ElevenLabs),
		tts.WithVoice(tts.Voice{
			ID:         cfg.TTS.VoiceID,
			Model:      cfg.TTS.ModelID,
			Stability:  cfg.TTS.Stability,
			Similarity: cfg.TTS.Similarity,
		}),
		tts.WithLogger(logger),
	}

	httpSynth, err := tts.NewHTTP(opts...)
	if err != nil {
		return nil, err
	}
	if cfg.TTS.Backend != "ws" {
		return httpSynth, nil
	}

	wsSynth, err := tts.NewWebsocket(opts...)
	if err != nil {
		httpSynth.Close()
		return nil, err
	}
	return tts.NewFallback(wsSynth, httpSynth, logger), nil
}

// initAffect starts nothing; it prepares the camera and classifier. Any
// failure leaves the tutor running without affect context.
func (a *App) initAffect() {
	if a.affectCtx != nil {
		return
	}
	a.affectCtx = affect.Disabled{}

	if !a.config.Camera.Enabled {
		fmt.Println("📷 Camera disabled, emotion detection off")
		return
	}

	fmt.Print("📷 Searching for camera... ")
	camCfg := camera.DefaultConfig()
	camCfg.ScanFrom = a.config.Camera.ScanFrom
	camCfg.ScanTo = a.config.Camera.ScanTo
	camCfg.Width = a.config.Camera.Width
	camCfg.Height = a.config.Camera.Height
	camCfg.FailureThreshold = a.config.Camera.FailureThreshold
	camCfg.ReconnectPause = a.config.Camera.ReconnectPause

	acq := camera.NewAcquisition(camCfg, nil, a.logger)
	if err := acq.Start(); err != nil {
		fmt.Printf("⚠️  %v (emotion detection off)\n", err)
		acq.Close()
		return
	}
	fmt.Println("✅")

	fmt.Print("🙂 Loading emotion models... ")
	ferCfg := affect.DefaultFERConfig()
	ferCfg.DetectorModel = a.config.Affect.DetectorModel
	ferCfg.EmotionModel = a.config.Affect.EmotionModel
	classifier, err := affect.NewFERClassifier(ferCfg)
	if err != nil {
		fmt.Printf("⚠️  %v (emotion detection off)\n", err)
		acq.Close()
		return
	}
	fmt.Println("✅")

	anCfg := affect.DefaultAnalyzerConfig()
	anCfg.Interval = a.config.Affect.Interval
	anCfg.Gate.MinConfidence = a.config.Affect.MinConfidence

	history := affect.NewHistory(a.config.Affect.HistorySize)
	a.acquisition = acq
	a.classifier = classifier
	a.analyzer = affect.NewAnalyzer(anCfg, acq, classifier, history, a.logger)
	a.affectCtx = affect.NewSummarizer(history, a.config.Affect.Staleness)
}

func (a *App) cue() {
	if a.player != nil {
		a.player.Cue(a.config.Assets.BeepFile)
	}
}

func (a *App) drain() {
	if a.source == nil {
		return
	}
	if n := audioio.Drain(a.source); n > 0 {
		a.logger.Debug("drained buffered audio", "chunks", n)
	}
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
