package monitor

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pagepulse/pagepulse/internal/logging"
)

type fakeRunner struct {
	calls atomic.Int64
	err   error
}

func (f *fakeRunner) RunCycle(ctx context.Context) (CycleResult, error) {
	f.calls.Add(1)
	return CycleResult{}, f.err
}

func newTestScheduler(t *testing.T, runner CycleRunner, store *fakeStatsStore, interval time.Duration) *Scheduler {
	t.Helper()
	return NewScheduler(runner, newTestTracker(t, store), store, nil, interval, logging.Discard())
}

func waitForCalls(t *testing.T, runner *fakeRunner, want int64) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if runner.calls.Load() >= want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("runner calls = %d, want at least %d", runner.calls.Load(), want)
}

func TestScheduler_StartRunsImmediateCycle(t *testing.T) {
	runner := &fakeRunner{}
	store := &fakeStatsStore{}
	s := newTestScheduler(t, runner, store, 5*time.Minute)
	defer s.Stop(context.Background())

	if s.Running() {
		t.Fatal("scheduler must start stopped")
	}

	ok := s.Start(context.Background(), 5*time.Minute)
	if !ok {
		t.Fatal("Start returned false for a successful first cycle")
	}
	if !s.Running() {
		t.Fatal("expected Running after Start")
	}
	if runner.calls.Load() != 1 {
		t.Errorf("expected exactly one immediate cycle, got %d", runner.calls.Load())
	}
	if !store.schedule.Enabled {
		t.Error("enabled flag was not persisted")
	}
	if !store.persisted().IsRunning {
		t.Error("running flag was not set")
	}
}

func TestScheduler_StartReportsFirstCycleFailureButStaysRunning(t *testing.T) {
	runner := &fakeRunner{err: errors.New("boom")}
	store := &fakeStatsStore{}
	s := newTestScheduler(t, runner, store, 5*time.Minute)
	defer s.Stop(context.Background())

	if ok := s.Start(context.Background(), 5*time.Minute); ok {
		t.Error("Start should report the failed first cycle")
	}
	if !s.Running() {
		t.Error("a failed first cycle must not prevent scheduling")
	}
}

func TestScheduler_StartWhileRunningIsNoOp(t *testing.T) {
	runner := &fakeRunner{}
	store := &fakeStatsStore{}
	s := newTestScheduler(t, runner, store, 5*time.Minute)
	defer s.Stop(context.Background())

	s.Start(context.Background(), 5*time.Minute)
	if ok := s.Start(context.Background(), time.Minute); !ok {
		t.Error("second Start should return true")
	}
	if runner.calls.Load() != 1 {
		t.Errorf("second Start must not run another cycle, calls = %d", runner.calls.Load())
	}
	if s.Interval() != 5*time.Minute {
		t.Errorf("second Start must not change the interval, got %v", s.Interval())
	}
}

func TestScheduler_StopIsIdempotent(t *testing.T) {
	runner := &fakeRunner{}
	store := &fakeStatsStore{}
	s := newTestScheduler(t, runner, store, 5*time.Minute)

	s.Start(context.Background(), 5*time.Minute)
	s.Stop(context.Background())
	s.Stop(context.Background())

	if s.Running() {
		t.Error("expected stopped scheduler")
	}
	if store.persisted().IsRunning {
		t.Error("running flag was not cleared")
	}
	if store.schedule.Enabled {
		t.Error("enabled flag was not cleared")
	}
}

func TestScheduler_SetIntervalFloor(t *testing.T) {
	runner := &fakeRunner{}
	store := &fakeStatsStore{}
	s := newTestScheduler(t, runner, store, 5*time.Minute)

	if ok := s.SetInterval(context.Background(), 30*time.Second); ok {
		t.Error("interval below the floor must be rejected")
	}
	if s.Interval() != 5*time.Minute {
		t.Errorf("rejected interval must leave state untouched, got %v", s.Interval())
	}

	if ok := s.SetInterval(context.Background(), MinInterval); !ok {
		t.Error("interval at the floor must be accepted")
	}
	if s.Interval() != MinInterval {
		t.Errorf("Interval() = %v, want %v", s.Interval(), MinInterval)
	}
	if store.schedule.Interval != MinInterval {
		t.Error("interval was not persisted")
	}
}

func TestScheduler_SubFloorStartIntervalIsRaised(t *testing.T) {
	runner := &fakeRunner{}
	store := &fakeStatsStore{}
	s := newTestScheduler(t, runner, store, 10*time.Second)

	if s.Interval() != MinInterval {
		t.Errorf("initial interval not raised to floor, got %v", s.Interval())
	}

	s.Start(context.Background(), 30*time.Second)
	defer s.Stop(context.Background())

	if s.Interval() != MinInterval {
		t.Errorf("sub-floor start interval not raised, got %v", s.Interval())
	}
}

// shrinkInterval bypasses the public floor so timer behavior is observable
// in test time.
func shrinkInterval(s *Scheduler, d time.Duration) {
	s.mu.Lock()
	s.interval = d
	s.mu.Unlock()
}

func TestScheduler_TicksFireRepeatedly(t *testing.T) {
	runner := &fakeRunner{}
	store := &fakeStatsStore{}
	s := newTestScheduler(t, runner, store, 5*time.Minute)
	defer s.Stop(context.Background())

	shrinkInterval(s, 20*time.Millisecond)
	// Start with 0 keeps the current interval.
	s.Start(context.Background(), 0)

	// One immediate cycle plus at least three timer ticks.
	waitForCalls(t, runner, 4)
}

func TestScheduler_TicksStopAfterStop(t *testing.T) {
	runner := &fakeRunner{}
	store := &fakeStatsStore{}
	s := newTestScheduler(t, runner, store, 5*time.Minute)

	shrinkInterval(s, 20*time.Millisecond)
	s.Start(context.Background(), 0)
	waitForCalls(t, runner, 2)

	s.Stop(context.Background())
	settled := runner.calls.Load()

	time.Sleep(100 * time.Millisecond)
	// One tick may already have been in flight when Stop ran; beyond that
	// the timer must be dead.
	if got := runner.calls.Load(); got > settled+1 {
		t.Errorf("ticks continued after Stop: %d -> %d", settled, got)
	}
}

func TestScheduler_RearmTakesEffectImmediately(t *testing.T) {
	runner := &fakeRunner{}
	store := &fakeStatsStore{}
	s := newTestScheduler(t, runner, store, 5*time.Minute)
	defer s.Stop(context.Background())

	// Armed with a five minute timer; only the immediate cycle has run.
	s.Start(context.Background(), 5*time.Minute)
	if runner.calls.Load() != 1 {
		t.Fatalf("calls = %d, want 1", runner.calls.Load())
	}

	// An interval change while running must replace the pending timer
	// instead of waiting out the old five minutes.
	shrinkInterval(s, 20*time.Millisecond)
	s.rearm <- struct{}{}

	waitForCalls(t, runner, 3)
}

func TestScheduler_DuplicateStartKeepsSingleTimer(t *testing.T) {
	runner := &fakeRunner{}
	store := &fakeStatsStore{}
	s := newTestScheduler(t, runner, store, 5*time.Minute)
	defer s.Stop(context.Background())

	shrinkInterval(s, 25*time.Millisecond)
	s.Start(context.Background(), 0)
	s.Start(context.Background(), 0)

	time.Sleep(500 * time.Millisecond)

	// A single timer produces roughly 1 immediate + 20 ticks in half a
	// second; a doubled timer roughly twice that. The bounds are loose
	// enough for slow machines but reject a second loop.
	calls := runner.calls.Load()
	if calls < 5 {
		t.Fatalf("too few ticks, timer not running: %d", calls)
	}
	if calls > 30 {
		t.Errorf("tick rate suggests a duplicated timer: %d calls in 500ms at 25ms", calls)
	}
}

func TestScheduler_TriggerNow(t *testing.T) {
	runner := &fakeRunner{}
	store := &fakeStatsStore{}
	s := newTestScheduler(t, runner, store, 5*time.Minute)

	s.TriggerNow()
	time.Sleep(20 * time.Millisecond)
	if runner.calls.Load() != 0 {
		t.Fatal("TriggerNow while stopped must not run a cycle")
	}

	s.Start(context.Background(), 5*time.Minute)
	defer s.Stop(context.Background())

	s.TriggerNow()
	waitForCalls(t, runner, 2)
}
