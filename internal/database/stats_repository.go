package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/pagepulse/pagepulse/internal/models"
)

// StatsRepository persists the single-row monitoring state: health counters
// plus the scheduler's operator intent (enabled flag and interval). All
// writes are idempotent single-statement updates.
type StatsRepository struct {
	db *sql.DB
}

// NewStatsRepository creates a new statistics repository.
func NewStatsRepository(db *sql.DB) *StatsRepository {
	return &StatsRepository{db: db}
}

// Load returns the persisted statistics.
func (r *StatsRepository) Load(ctx context.Context) (models.MonitoringStats, error) {
	query := `
		SELECT is_running, last_check_at, total_checks, total_replies, last_error, last_error_at
		FROM monitor_state
		WHERE id = 1
	`

	var stats models.MonitoringStats
	var lastCheckAt, lastErrorAt sql.NullTime
	var lastError sql.NullString

	err := r.db.QueryRowContext(ctx, query).Scan(
		&stats.IsRunning,
		&lastCheckAt,
		&stats.TotalChecks,
		&stats.TotalReplies,
		&lastError,
		&lastErrorAt,
	)
	if err != nil {
		return models.MonitoringStats{}, fmt.Errorf("failed to load monitor state: %w", err)
	}

	if lastCheckAt.Valid {
		stats.LastCheckAt = &lastCheckAt.Time
	}
	if lastError.Valid {
		stats.LastError = lastError.String
	}
	if lastErrorAt.Valid {
		stats.LastErrorAt = &lastErrorAt.Time
	}
	return stats, nil
}

// LoadSchedule returns the persisted scheduler configuration.
func (r *StatsRepository) LoadSchedule(ctx context.Context) (models.ScheduleConfig, error) {
	query := `SELECT enabled, interval_seconds FROM monitor_state WHERE id = 1`

	var cfg models.ScheduleConfig
	var seconds int64
	if err := r.db.QueryRowContext(ctx, query).Scan(&cfg.Enabled, &seconds); err != nil {
		return models.ScheduleConfig{}, fmt.Errorf("failed to load schedule config: %w", err)
	}
	cfg.Interval = time.Duration(seconds) * time.Second
	return cfg, nil
}

// RecordCheck increments the check counter, stamps the check time and clears
// any previously recorded error.
func (r *StatsRepository) RecordCheck(ctx context.Context, at time.Time) error {
	query := `
		UPDATE monitor_state
		SET total_checks = total_checks + 1,
		    last_check_at = $1,
		    last_error = NULL,
		    last_error_at = NULL
		WHERE id = 1
	`
	if _, err := r.db.ExecContext(ctx, query, at); err != nil {
		return fmt.Errorf("failed to record check: %w", err)
	}
	return nil
}

// IncrementReplies bumps the reply counter by one.
func (r *StatsRepository) IncrementReplies(ctx context.Context) error {
	query := `UPDATE monitor_state SET total_replies = total_replies + 1 WHERE id = 1`
	if _, err := r.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to increment replies: %w", err)
	}
	return nil
}

// RecordError stores the most recent cycle error without touching counters.
func (r *StatsRepository) RecordError(ctx context.Context, message string, at time.Time) error {
	query := `UPDATE monitor_state SET last_error = $1, last_error_at = $2 WHERE id = 1`
	if _, err := r.db.ExecContext(ctx, query, message, at); err != nil {
		return fmt.Errorf("failed to record error: %w", err)
	}
	return nil
}

// SetRunning stores whether the scheduler is currently alive.
func (r *StatsRepository) SetRunning(ctx context.Context, running bool) error {
	query := `UPDATE monitor_state SET is_running = $1 WHERE id = 1`
	if _, err := r.db.ExecContext(ctx, query, running); err != nil {
		return fmt.Errorf("failed to set running flag: %w", err)
	}
	return nil
}

// SetEnabled stores the operator's monitoring intent.
func (r *StatsRepository) SetEnabled(ctx context.Context, enabled bool) error {
	query := `UPDATE monitor_state SET enabled = $1 WHERE id = 1`
	if _, err := r.db.ExecContext(ctx, query, enabled); err != nil {
		return fmt.Errorf("failed to set enabled flag: %w", err)
	}
	return nil
}

// SetInterval stores the polling interval.
func (r *StatsRepository) SetInterval(ctx context.Context, interval time.Duration) error {
	query := `UPDATE monitor_state SET interval_seconds = $1 WHERE id = 1`
	if _, err := r.db.ExecContext(ctx, query, int64(interval.Seconds())); err != nil {
		return fmt.Errorf("failed to set interval: %w", err)
	}
	return nil
}
