package camera

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"gocv.io/x/gocv"
)

// LinkState is the health of the camera link.
type LinkState string

const (
	StateNormal       LinkState = "NORMAL"
	StateReconnecting LinkState = "RECONNECTING"
)

// Stats describes acquisition progress.
type Stats struct {
	State      LinkState `json:"state"`
	Index      int       `json:"index"`
	Frames     int64     `json:"frames"`
	Failures   int64     `json:"consecutive_failures"`
	Reconnects int64     `json:"reconnects"`
}

// Acquisition reads frames as fast as the camera delivers them and keeps
// only the newest one.
type Acquisition struct {
	cfg    Config
	open   Opener
	logger *slog.Logger
	pause  func(ctx context.Context, d time.Duration) bool

	// Latest-frame slot. Held only for the swap and for cloning.
	frameMu  sync.Mutex
	latest   gocv.Mat
	hasFrame bool

	// Owned by Run.
	dev      Device
	index    int
	failures int

	state      atomic.Value // LinkState
	frames     atomic.Int64
	failCount  atomic.Int64
	reconnects atomic.Int64
	indexSeen  atomic.Int64
}

// NewAcquisition creates an acquisition loop. open may be nil to use OpenGoCV.
func NewAcquisition(cfg Config, open Opener, logger *slog.Logger) *Acquisition {
	if open == nil {
		open = OpenGoCV(cfg)
	}
	if logger == nil {
		logger = slog.Default()
	}
	a := &Acquisition{
		cfg:    cfg,
		open:   open,
		logger: logger.With("component", "camera.acquisition"),
		pause:  sleepCtx,
		latest: gocv.NewMat(),
		index:  -1,
	}
	a.state.Store(StateNormal)
	a.indexSeen.Store(-1)
	return a
}

// Start scans for a camera and opens it. It returns ErrNoCamera when none
// is found; callers disable the affect subsystem in that case.
func (a *Acquisition) Start() error {
	a.logger.Info("searching for USB camera", "from", a.cfg.ScanFrom, "to", a.cfg.ScanTo)
	if err := a.connect(); err != nil {
		a.logger.Warn("no working camera found, emotion detection disabled")
		return err
	}
	a.logger.Info("camera opened", "index", a.index)
	return nil
}

// Run reads frames until ctx is done. Start must have succeeded.
func (a *Acquisition) Run(ctx context.Context) error {
	buf := gocv.NewMat()
	defer buf.Close()
	defer a.release()

	for ctx.Err() == nil {
		if a.dev != nil && a.dev.Read(&buf) && !buf.Empty() {
			buf = a.swap(buf)
			a.failures = 0
			a.failCount.Store(0)
			a.frames.Add(1)
			continue
		}

		a.failures++
		a.failCount.Store(int64(a.failures))
		if a.dev == nil || a.failures >= a.cfg.FailureThreshold {
			a.reconnect(ctx)
		}
	}
	return nil
}

// Latest returns a copy of the newest frame. The caller must Close it.
func (a *Acquisition) Latest() (gocv.Mat, bool) {
	a.frameMu.Lock()
	defer a.frameMu.Unlock()
	if !a.hasFrame {
		return gocv.Mat{}, false
	}
	return a.latest.Clone(), true
}

// State returns the current link state.
func (a *Acquisition) State() LinkState {
	return a.state.Load().(LinkState)
}

// Stats returns a snapshot of the counters.
func (a *Acquisition) Stats() Stats {
	return Stats{
		State:      a.State(),
		Index:      int(a.indexSeen.Load()),
		Frames:     a.frames.Load(),
		Failures:   a.failCount.Load(),
		Reconnects: a.reconnects.Load(),
	}
}

// Close frees the frame slot. Call after Run has returned.
func (a *Acquisition) Close() error {
	a.release()
	a.frameMu.Lock()
	defer a.frameMu.Unlock()
	a.hasFrame = false
	return a.latest.Close()
}

// swap publishes buf as the latest frame and returns the previous slot
// Mat for reuse.
func (a *Acquisition) swap(buf gocv.Mat) gocv.Mat {
	a.frameMu.Lock()
	old := a.latest
	a.latest = buf
	a.hasFrame = true
	a.frameMu.Unlock()
	return old
}

// reconnect releases the device, pauses, and rescans until a camera opens
// or ctx is done. There is no retry limit.
func (a *Acquisition) reconnect(ctx context.Context) {
	a.state.Store(StateReconnecting)
	a.logger.Warn("camera lost, attempting to reconnect", "failures", a.failures)

	for {
		a.release()
		if !a.pause(ctx, a.cfg.ReconnectPause) {
			return
		}
		if err := a.connect(); err != nil {
			a.logger.Warn("reconnect failed, will retry", "pause", a.cfg.ReconnectPause)
			continue
		}
		break
	}

	a.failures = 0
	a.failCount.Store(0)
	a.reconnects.Add(1)
	a.state.Store(StateNormal)
	a.logger.Info("camera reconnected", "index", a.index)
}

func (a *Acquisition) connect() error {
	idx, ok := Scan(a.open, a.cfg.ScanFrom, a.cfg.ScanTo)
	if !ok {
		return ErrNoCamera
	}
	dev, err := a.open(idx)
	if err != nil {
		return err
	}
	a.dev, a.index = dev, idx
	a.indexSeen.Store(int64(idx))
	return nil
}

func (a *Acquisition) release() {
	if a.dev != nil {
		a.dev.Close()
		a.dev = nil
	}
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
