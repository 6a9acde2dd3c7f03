// Package lifecycle runs the agent's long-lived background loops and
// reports their health.
package lifecycle

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// State is a task's health.
type State string

const (
	StateStarting State = "starting"
	StateRunning  State = "running"
	StateStopped  State = "stopped"
	StateFailed   State = "failed"
)

// TaskStatus is a snapshot of one task.
type TaskStatus struct {
	Name     string    `json:"name"`
	State    State     `json:"state"`
	Critical bool      `json:"critical"`
	Error    string    `json:"error,omitempty"`
	Started  time.Time `json:"started"`
	Ended    time.Time `json:"ended,omitzero"`
}

// Supervisor owns a set of tasks sharing one context.
//
// Tasks started with Go are isolated: an error or panic marks the task
// failed and is logged, and the others keep running. Tasks started with
// Must are critical: their failure cancels every task and is returned by
// Wait.
type Supervisor struct {
	logger *slog.Logger
	ctx    context.Context
	cancel context.CancelFunc
	group  *errgroup.Group

	mu    sync.Mutex
	tasks []*TaskStatus
}

// New creates a Supervisor whose tasks stop when parent is done or Stop
// is called.
func New(parent context.Context, logger *slog.Logger) *Supervisor {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(parent)
	g, gctx := errgroup.WithContext(ctx)
	return &Supervisor{
		logger: logger.With("component", "lifecycle.supervisor"),
		ctx:    gctx,
		cancel: cancel,
		group:  g,
	}
}

// Context returns the context tasks receive.
func (s *Supervisor) Context() context.Context {
	return s.ctx
}

// Go starts an isolated task.
func (s *Supervisor) Go(name string, fn func(ctx context.Context) error) {
	s.start(name, false, fn)
}

// Must starts a critical task.
func (s *Supervisor) Must(name string, fn func(ctx context.Context) error) {
	s.start(name, true, fn)
}

func (s *Supervisor) start(name string, critical bool, fn func(ctx context.Context) error) {
	st := &TaskStatus{Name: name, State: StateStarting, Critical: critical, Started: time.Now()}
	s.mu.Lock()
	s.tasks = append(s.tasks, st)
	s.mu.Unlock()

	s.group.Go(func() error {
		s.set(st, StateRunning, nil)
		s.logger.Debug("task started", "task", name)

		err := invoke(s.ctx, fn)
		if err != nil && s.ctx.Err() == nil {
			s.set(st, StateFailed, err)
			s.logger.Error("task failed", "task", name, "critical", critical, "error", err)
			if critical {
				return fmt.Errorf("%s: %w", name, err)
			}
			return nil
		}

		s.set(st, StateStopped, nil)
		s.logger.Debug("task stopped", "task", name)
		return nil
	})
}

// invoke runs fn and turns a panic into an error.
func invoke(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v\n%s", r, debug.Stack())
		}
	}()
	return fn(ctx)
}

func (s *Supervisor) set(st *TaskStatus, state State, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st.State = state
	if err != nil {
		st.Error = err.Error()
	}
	if state == StateStopped || state == StateFailed {
		st.Ended = time.Now()
	}
}

// Wait blocks until every task has returned and reports the first
// critical failure.
func (s *Supervisor) Wait() error {
	return s.group.Wait()
}

// Stop cancels every task and waits for them.
func (s *Supervisor) Stop() error {
	s.cancel()
	return s.Wait()
}

// Snapshot returns task states in start order.
func (s *Supervisor) Snapshot() []TaskStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]TaskStatus, len(s.tasks))
	for i, st := range s.tasks {
		out[i] = *st
	}
	return out
}

// Healthy reports whether no task has failed.
func (s *Supervisor) Healthy() bool {
	for _, st := range s.Snapshot() {
		if st.State == StateFailed {
			return false
		}
	}
	return true
}
