package monitor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"log/slog"

	"github.com/pagepulse/pagepulse/internal/models"
)

// StatsStore is the durable backing for monitoring statistics. All writes
// are idempotent; the database repository satisfies this.
type StatsStore interface {
	Load(ctx context.Context) (models.MonitoringStats, error)
	RecordCheck(ctx context.Context, at time.Time) error
	IncrementReplies(ctx context.Context) error
	RecordError(ctx context.Context, message string, at time.Time) error
	SetRunning(ctx context.Context, running bool) error
}

// StatsTracker owns the engine's one piece of mutable shared state: the
// monitoring statistics. Only the cycle executor and the scheduler mutate
// it, and only through the methods below, which serialize increments so
// concurrent cycles cannot lose updates. Every mutation is persisted through
// the store and published on the bus.
type StatsTracker struct {
	mu     sync.Mutex
	stats  models.MonitoringStats
	store  StatsStore
	bus    *StatsBus
	logger *slog.Logger
}

// NewStatsTracker loads the persisted statistics and wraps them in a
// tracker, so counters survive restarts.
func NewStatsTracker(ctx context.Context, store StatsStore, bus *StatsBus, logger *slog.Logger) (*StatsTracker, error) {
	stats, err := store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load monitoring statistics: %w", err)
	}
	// A previous process may have died while running. Reflect the reset
	// durably so the stored state does not keep claiming to run.
	if stats.IsRunning {
		if err := store.SetRunning(ctx, false); err != nil {
			logger.Warn("failed to clear stale running flag", "error", err)
		}
		stats.IsRunning = false
	}

	return &StatsTracker{
		stats:  stats,
		store:  store,
		bus:    bus,
		logger: logger,
	}, nil
}

// Snapshot returns a copy of the current statistics.
func (t *StatsTracker) Snapshot() models.MonitoringStats {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stats
}

// RecordCheck counts one completed cycle: increments the check counter,
// stamps the time and clears any previous error.
func (t *StatsTracker) RecordCheck(ctx context.Context, at time.Time) {
	t.mu.Lock()
	t.stats.TotalChecks++
	t.stats.LastCheckAt = &at
	t.stats.LastError = ""
	t.stats.LastErrorAt = nil
	snapshot := t.stats
	t.mu.Unlock()

	if err := t.store.RecordCheck(ctx, at); err != nil {
		t.logger.Error("failed to persist check", "error", err)
	}
	t.bus.Publish(snapshot)
}

// RecordReply counts one successfully posted reply.
func (t *StatsTracker) RecordReply(ctx context.Context) {
	t.mu.Lock()
	t.stats.TotalReplies++
	snapshot := t.stats
	t.mu.Unlock()

	if err := t.store.IncrementReplies(ctx); err != nil {
		t.logger.Error("failed to persist reply increment", "error", err)
	}
	t.bus.Publish(snapshot)
}

// RecordError stores the most recent cycle error. Counters are untouched.
func (t *StatsTracker) RecordError(ctx context.Context, message string, at time.Time) {
	t.mu.Lock()
	t.stats.LastError = message
	t.stats.LastErrorAt = &at
	snapshot := t.stats
	t.mu.Unlock()

	if err := t.store.RecordError(ctx, message, at); err != nil {
		t.logger.Error("failed to persist error", "error", err)
	}
	t.bus.Publish(snapshot)
}

// SetRunning reflects the scheduler's lifecycle state.
func (t *StatsTracker) SetRunning(ctx context.Context, running bool) {
	t.mu.Lock()
	t.stats.IsRunning = running
	snapshot := t.stats
	t.mu.Unlock()

	if err := t.store.SetRunning(ctx, running); err != nil {
		t.logger.Error("failed to persist running flag", "error", err)
	}
	t.bus.Publish(snapshot)
}
