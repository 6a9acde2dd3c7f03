package lifecycle_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/teslashibe/go-nova/internal/log"
	"github.com/teslashibe/go-nova/pkg/lifecycle"
)

func blockUntilDone(ctx context.Context) error {
	<-ctx.Done()
	return ctx.Err()
}

func status(s *lifecycle.Supervisor, name string) lifecycle.TaskStatus {
	for _, st := range s.Snapshot() {
		if st.Name == name {
			return st
		}
	}
	return lifecycle.TaskStatus{}
}

func waitState(t *testing.T, s *lifecycle.Supervisor, name string, want lifecycle.State) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for status(s, name).State != want {
		if time.Now().After(deadline) {
			t.Fatalf("%s: expected %s, got %s", name, want, status(s, name).State)
		}
		time.Sleep(time.Millisecond)
	}
}

func TestSupervisorStop(t *testing.T) {
	s := lifecycle.New(context.Background(), log.Discard())
	s.Go("camera", blockUntilDone)
	s.Go("affect", blockUntilDone)

	waitState(t, s, "camera", lifecycle.StateRunning)
	waitState(t, s, "affect", lifecycle.StateRunning)

	if err := s.Stop(); err != nil {
		t.Fatalf("stop: %v", err)
	}
	for _, st := range s.Snapshot() {
		if st.State != lifecycle.StateStopped {
			t.Errorf("%s: expected stopped, got %s", st.Name, st.State)
		}
		if st.Ended.IsZero() {
			t.Errorf("%s: end time not set", st.Name)
		}
	}
	if !s.Healthy() {
		t.Error("clean stop should be healthy")
	}
}

func TestSupervisorIsolatesFailures(t *testing.T) {
	s := lifecycle.New(context.Background(), log.Discard())
	s.Go("panics", func(ctx context.Context) error {
		panic("classifier exploded")
	})
	s.Go("errors", func(ctx context.Context) error {
		return errors.New("bad frame")
	})
	s.Go("survivor", blockUntilDone)

	waitState(t, s, "panics", lifecycle.StateFailed)
	waitState(t, s, "errors", lifecycle.StateFailed)

	if got := status(s, "panics").Error; !strings.Contains(got, "classifier exploded") {
		t.Errorf("panic not reported: %q", got)
	}
	if status(s, "survivor").State != lifecycle.StateRunning {
		t.Error("other tasks should keep running")
	}
	if s.Healthy() {
		t.Error("supervisor with failed tasks should be unhealthy")
	}

	if err := s.Stop(); err != nil {
		t.Errorf("isolated failures should not surface from Stop: %v", err)
	}
}

func TestSupervisorCriticalFailure(t *testing.T) {
	s := lifecycle.New(context.Background(), log.Discard())
	s.Go("camera", blockUntilDone)
	boom := errors.New("microphone gone")
	s.Must("turns", func(ctx context.Context) error {
		return boom
	})

	err := s.Wait()
	if !errors.Is(err, boom) {
		t.Fatalf("expected critical error, got %v", err)
	}
	if status(s, "camera").State != lifecycle.StateStopped {
		t.Errorf("critical failure should stop other tasks, camera is %s", status(s, "camera").State)
	}
	if !status(s, "turns").Critical {
		t.Error("turns should be marked critical")
	}
}

func TestSupervisorParentCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := lifecycle.New(ctx, log.Discard())
	s.Must("turns", blockUntilDone)
	cancel()

	if err := s.Wait(); err != nil {
		t.Errorf("cancellation is not a failure: %v", err)
	}
	if status(s, "turns").State != lifecycle.StateStopped {
		t.Errorf("expected stopped, got %s", status(s, "turns").State)
	}
}
