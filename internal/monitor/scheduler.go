package monitor

import (
	"context"
	"sync"
	"time"

	"log/slog"

	"github.com/pagepulse/pagepulse/internal/metrics"
)

// MinInterval is the floor for the polling interval. Attempts to set a
// smaller value are rejected without side effects.
const MinInterval = 60 * time.Second

// CycleRunner executes one monitoring pass. The Executor satisfies this.
type CycleRunner interface {
	RunCycle(ctx context.Context) (CycleResult, error)
}

// ScheduleStore persists the operator's scheduling intent.
type ScheduleStore interface {
	SetEnabled(ctx context.Context, enabled bool) error
	SetInterval(ctx context.Context, interval time.Duration) error
}

// Scheduler owns the monitoring lifecycle: stopped or running, the recurring
// timer, and the runtime-adjustable interval.
//
// Ticks are driven by wall clock from the last tick, not from cycle
// completion: a cycle that overruns the interval does not delay the next
// tick, and the resulting overlap is fine because the dedup model makes
// individual replies idempotent. Interval changes cancel and re-arm the
// pending timer instead of waiting out the old interval.
type Scheduler struct {
	mu       sync.Mutex
	interval time.Duration
	cancel   context.CancelFunc

	runner    CycleRunner
	stats     *StatsTracker
	store     ScheduleStore
	collector *metrics.Collector
	logger    *slog.Logger
	rearm     chan struct{}
}

// NewScheduler creates a stopped scheduler. collector may be nil. An
// initial interval below the floor is raised to it.
func NewScheduler(
	runner CycleRunner,
	stats *StatsTracker,
	store ScheduleStore,
	collector *metrics.Collector,
	interval time.Duration,
	logger *slog.Logger,
) *Scheduler {
	if interval < MinInterval {
		interval = MinInterval
	}
	return &Scheduler{
		interval:  interval,
		runner:    runner,
		stats:     stats,
		store:     store,
		collector: collector,
		logger:    logger,
		rearm:     make(chan struct{}, 1),
	}
}

// Running reports whether the scheduler is currently armed.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancel != nil
}

// Interval returns the interval the next tick will use.
func (s *Scheduler) Interval() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.interval
}

// Start arms the scheduler: it runs one cycle synchronously so the caller
// gets immediate feedback and statistics reflect a fresh check, then keeps
// ticking at the interval until stopped. A no-op returning true when already
// running. The return value is the synchronous cycle's success; a failed
// first cycle is not grounds for refusing to schedule future attempts, so
// the scheduler is Running afterward either way.
//
// ctx bounds the persistence writes only; scheduled cycles run on their own
// context and terminate via the collaborators' call timeouts.
func (s *Scheduler) Start(ctx context.Context, interval time.Duration) bool {
	s.mu.Lock()
	if s.cancel != nil {
		s.mu.Unlock()
		s.logger.Debug("scheduler already running, start ignored")
		return true
	}
	if interval >= MinInterval {
		s.interval = interval
	} else if interval > 0 {
		s.logger.Warn("requested interval below floor, raising",
			"requested", interval, "floor", MinInterval)
		s.interval = MinInterval
	}
	runCtx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	current := s.interval
	s.mu.Unlock()

	s.stats.SetRunning(ctx, true)
	if s.collector != nil {
		s.collector.SetRunning(true)
	}
	if err := s.store.SetEnabled(ctx, true); err != nil {
		s.logger.Error("failed to persist enabled flag", "error", err)
	}

	s.logger.Info("monitoring scheduler starting", "interval", current)

	_, err := s.runner.RunCycle(context.Background())

	go s.run(runCtx)

	return err == nil
}

// Stop disarms the scheduler. Idempotent. No new cycle begins after Stop
// returns; an in-flight cycle finishes naturally but cannot re-arm anything.
func (s *Scheduler) Stop(ctx context.Context) {
	s.mu.Lock()
	if s.cancel == nil {
		s.mu.Unlock()
		return
	}
	s.cancel()
	s.cancel = nil
	s.mu.Unlock()

	s.stats.SetRunning(ctx, false)
	if s.collector != nil {
		s.collector.SetRunning(false)
	}
	if err := s.store.SetEnabled(ctx, false); err != nil {
		s.logger.Error("failed to persist enabled flag", "error", err)
	}

	s.logger.Info("monitoring scheduler stopped")
}

// SetInterval updates the polling interval. Values below the floor are
// rejected with no side effects. While running, the pending timer is
// re-armed with the new interval immediately.
func (s *Scheduler) SetInterval(ctx context.Context, interval time.Duration) bool {
	if interval < MinInterval {
		s.logger.Warn("rejecting interval below floor",
			"requested", interval, "floor", MinInterval)
		return false
	}

	s.mu.Lock()
	s.interval = interval
	running := s.cancel != nil
	s.mu.Unlock()

	if err := s.store.SetInterval(ctx, interval); err != nil {
		s.logger.Error("failed to persist interval", "error", err)
	}

	if running {
		select {
		case s.rearm <- struct{}{}:
		default:
		}
	}

	s.logger.Info("monitoring interval updated", "interval", interval)
	return true
}

// TriggerNow runs one out-of-band cycle, independent of the timer. Only
// available while running; a no-op otherwise.
func (s *Scheduler) TriggerNow() {
	s.mu.Lock()
	running := s.cancel != nil
	s.mu.Unlock()

	if !running {
		s.logger.Warn("trigger ignored, scheduler not running")
		return
	}

	s.logger.Info("running out-of-band monitoring cycle")
	go func() {
		_, _ = s.runner.RunCycle(context.Background())
	}()
}

func (s *Scheduler) run(ctx context.Context) {
	for {
		s.mu.Lock()
		interval := s.interval
		s.mu.Unlock()

		timer := time.NewTimer(interval)

		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-s.rearm:
			timer.Stop()
			continue
		case <-timer.C:
			if ctx.Err() != nil {
				return
			}
			// Run on a fresh context so stopping the scheduler does not
			// abort a cycle mid-flight; each call inside the cycle is
			// bounded by the collaborator's own timeout.
			go func() {
				_, _ = s.runner.RunCycle(context.Background())
			}()
		}
	}
}
