package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
)

type fakeRefresher struct {
	calls atomic.Int32
	done  chan struct{}
	err   error
}

func (f *fakeRefresher) RefreshAll(ctx context.Context) (int, error) {
	f.calls.Add(1)
	select {
	case f.done <- struct{}{}:
	default:
	}
	return 3, f.err
}

func waitCall(t *testing.T, ch <-chan struct{}, within time.Duration) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(within):
		t.Fatal("refresh did not run")
	}
}

func TestForceRunRecordsStatus(t *testing.T) {
	f := &fakeRefresher{done: make(chan struct{}, 1), err: errors.New("upstream down")}
	s := NewScheduler(f, time.Hour, zap.NewNop())

	s.ForceRun()
	waitCall(t, f.done, time.Second)

	// the status is written after RefreshAll returns
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if status := s.GetStatus(); status["last_error"] != nil {
			if status["last_refreshed"] != 3 || status["last_error"] != "upstream down" {
				t.Errorf("status = %v", status)
			}
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("status never recorded the run")
}

func TestScheduledRun(t *testing.T) {
	f := &fakeRefresher{done: make(chan struct{}, 1)}
	s := NewScheduler(f, time.Second, zap.NewNop())

	if err := s.Start(); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	defer s.Stop()

	status := s.GetStatus()
	if status["running"] != true || status["next_run"] == nil {
		t.Errorf("status = %v", status)
	}
	if f.calls.Load() != 0 {
		t.Error("refresh ran before the first tick")
	}

	waitCall(t, f.done, 3*time.Second)
}

func TestStartStop(t *testing.T) {
	s := NewScheduler(&fakeRefresher{}, time.Minute, zap.NewNop())

	if err := s.Start(); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	if err := s.Start(); err != nil {
		t.Fatalf("second Start() error: %v", err)
	}
	s.Stop()
	s.Stop()

	if s.GetStatus()["running"] != false {
		t.Error("scheduler still running after Stop")
	}
}

func TestStartRejectsBadInterval(t *testing.T) {
	s := NewScheduler(&fakeRefresher{}, 0, zap.NewNop())
	if err := s.Start(); err == nil {
		t.Error("Start() with zero interval should fail")
	}
}

type blockingRefresher struct {
	calls   atomic.Int32
	started chan struct{}
	release chan struct{}
}

func (b *blockingRefresher) RefreshAll(ctx context.Context) (int, error) {
	b.calls.Add(1)
	b.started <- struct{}{}
	<-b.release
	return 0, nil
}

func TestForceRunSkipsWhileRunning(t *testing.T) {
	b := &blockingRefresher{started: make(chan struct{}, 2), release: make(chan struct{})}
	s := NewScheduler(b, time.Hour, zap.NewNop())

	s.ForceRun()
	waitCall(t, b.started, time.Second)

	// runs inline so the skip is observed before release
	s.runRefresh()
	close(b.release)

	if n := b.calls.Load(); n != 1 {
		t.Errorf("RefreshAll ran %d times, want 1", n)
	}
}
