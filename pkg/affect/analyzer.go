package affect

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"sync/atomic"
	"time"

	"gocv.io/x/gocv"
)

// FrameSource hands out a private copy of the freshest camera frame.
// The caller owns the returned Mat and must Close it.
type FrameSource interface {
	Latest() (gocv.Mat, bool)
}

// AnalyzerConfig tunes the analysis loop.
type AnalyzerConfig struct {
	// Interval between classifications.
	Interval time.Duration

	// FirstFramePoll is how often to check for the first frame.
	FirstFramePoll time.Duration

	// EmptyRetry is the pause when no frame is available mid-run.
	EmptyRetry time.Duration

	// Frames are downscaled to this size before classification.
	Width, Height int

	Gate Gate
}

// DefaultAnalyzerConfig returns the standard loop settings.
func DefaultAnalyzerConfig() AnalyzerConfig {
	return AnalyzerConfig{
		Interval:       3 * time.Second,
		FirstFramePoll: 100 * time.Millisecond,
		EmptyRetry:     500 * time.Millisecond,
		Width:          320,
		Height:         240,
		Gate:           DefaultGate(),
	}
}

// AnalyzerStats counts loop activity.
type AnalyzerStats struct {
	Cycles   int64 `json:"cycles"`
	Accepted int64 `json:"accepted"`
	Rejected int64 `json:"rejected"`
	Errors   int64 `json:"errors"`
	WarmedUp bool  `json:"warmed_up"`
}

// Analyzer periodically classifies the latest frame and records accepted
// readings in a History.
type Analyzer struct {
	cfg        AnalyzerConfig
	frames     FrameSource
	classifier Classifier
	history    *History
	logger     *slog.Logger
	now        func() time.Time

	cycles   atomic.Int64
	accepted atomic.Int64
	rejected atomic.Int64
	errors   atomic.Int64
	warmedUp atomic.Bool
}

// NewAnalyzer wires an Analyzer. Zero config fields take their defaults.
func NewAnalyzer(cfg AnalyzerConfig, frames FrameSource, classifier Classifier, history *History, logger *slog.Logger) *Analyzer {
	d := DefaultAnalyzerConfig()
	if cfg.Interval <= 0 {
		cfg.Interval = d.Interval
	}
	if cfg.FirstFramePoll <= 0 {
		cfg.FirstFramePoll = d.FirstFramePoll
	}
	if cfg.EmptyRetry <= 0 {
		cfg.EmptyRetry = d.EmptyRetry
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		cfg.Width, cfg.Height = d.Width, d.Height
	}
	if cfg.Gate == (Gate{}) {
		cfg.Gate = d.Gate
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Analyzer{
		cfg:        cfg,
		frames:     frames,
		classifier: classifier,
		history:    history,
		logger:     logger.With("component", "affect.analyzer"),
		now:        time.Now,
	}
}

// Run blocks until ctx is done. Failures inside a cycle are logged and the
// loop carries on.
func (a *Analyzer) Run(ctx context.Context) error {
	a.logger.Info("waiting for first live frame")
	if err := a.waitForFrame(ctx); err != nil {
		return nil
	}

	a.warmUp()
	a.logger.Info("emotion model loaded, scanning", "interval", a.cfg.Interval)

	for {
		_, hadFrame := a.Step()
		pause := a.cfg.Interval
		if !hadFrame {
			pause = a.cfg.EmptyRetry
		}
		if !sleep(ctx, pause) {
			return nil
		}
	}
}

// Step runs one analysis cycle. It returns the outcome and whether a frame
// was available at all.
func (a *Analyzer) Step() (Outcome, bool) {
	frame, ok := a.frames.Latest()
	if !ok {
		return Outcome{}, false
	}
	defer frame.Close()

	a.cycles.Add(1)
	outcome, err := a.analyze(frame)
	if err != nil {
		a.errors.Add(1)
		a.logger.Warn("analysis error", "error", err)
		return Outcome{}, true
	}

	if !outcome.Accepted {
		a.rejected.Add(1)
		a.logger.Debug("reading rejected",
			"reason", outcome.Reason,
			"emotion", outcome.Reading.Emotion,
			"confidence", outcome.Reading.Confidence,
		)
		return outcome, true
	}

	outcome.Reading.Timestamp = a.now()
	a.history.Append(outcome.Reading)
	a.accepted.Add(1)
	a.logger.Info("emotion detected",
		"emotion", outcome.Reading.Emotion,
		"confidence", outcome.Reading.Confidence,
	)
	return outcome, true
}

// Stats returns the loop counters.
func (a *Analyzer) Stats() AnalyzerStats {
	return AnalyzerStats{
		Cycles:   a.cycles.Load(),
		Accepted: a.accepted.Load(),
		Rejected: a.rejected.Load(),
		Errors:   a.errors.Load(),
		WarmedUp: a.warmedUp.Load(),
	}
}

func (a *Analyzer) analyze(frame gocv.Mat) (Outcome, error) {
	small := gocv.NewMat()
	defer small.Close()

	size := image.Pt(a.cfg.Width, a.cfg.Height)
	gocv.Resize(frame, &small, size, 0, 0, gocv.InterpolationLinear)

	res, err := a.classify(small)
	if err != nil {
		return Outcome{}, err
	}
	return a.cfg.Gate.Evaluate(res, size), nil
}

// classify shields the loop from a panicking classifier.
func (a *Analyzer) classify(frame gocv.Mat) (res Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("classifier panic: %v", r)
		}
	}()
	return a.classifier.Classify(frame)
}

func (a *Analyzer) waitForFrame(ctx context.Context) error {
	ticker := time.NewTicker(a.cfg.FirstFramePoll)
	defer ticker.Stop()
	for {
		if frame, ok := a.frames.Latest(); ok {
			frame.Close()
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// warmUp forces lazy model initialization on a real frame. The result is
// thrown away.
func (a *Analyzer) warmUp() {
	defer a.warmedUp.Store(true)
	frame, ok := a.frames.Latest()
	if !ok {
		return
	}
	defer frame.Close()
	if _, err := a.classify(frame); err != nil {
		a.logger.Debug("warm-up classification failed", "error", err)
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
