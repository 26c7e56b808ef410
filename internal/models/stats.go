package models

import "time"

// MonitoringStats is the engine's externally visible health record. The
// counters are monotonically non-decreasing and survive restarts through the
// statistics store; an error overwrites LastError without resetting them.
type MonitoringStats struct {
	IsRunning    bool       `json:"is_running"`
	LastCheckAt  *time.Time `json:"last_check_at,omitempty"`
	TotalChecks  int64      `json:"total_checks"`
	TotalReplies int64      `json:"total_replies"`
	LastError    string     `json:"last_error,omitempty"`
	LastErrorAt  *time.Time `json:"last_error_at,omitempty"`
}

// ScheduleConfig is the persisted operator intent for the scheduler:
// the polling interval and whether monitoring should be on, independent of
// whether the process is currently alive.
type ScheduleConfig struct {
	Interval time.Duration `json:"interval"`
	Enabled  bool          `json:"enabled"`
}
