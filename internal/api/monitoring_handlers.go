package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/pagepulse/pagepulse/internal/models"
	"github.com/pagepulse/pagepulse/internal/monitor"
	"log/slog"
)

// Engine is the scheduler surface the API needs. The monitor.Scheduler
// satisfies this.
type Engine interface {
	Start(ctx context.Context, interval time.Duration) bool
	Stop(ctx context.Context)
	TriggerNow()
	Running() bool
	Interval() time.Duration
	SetInterval(ctx context.Context, interval time.Duration) bool
}

// StatsProvider exposes the current monitoring statistics.
type StatsProvider interface {
	Snapshot() models.MonitoringStats
}

// MonitoringHandler controls the monitoring engine over HTTP.
type MonitoringHandler struct {
	engine Engine
	stats  StatsProvider
	logger *slog.Logger
}

// NewMonitoringHandler creates a new monitoring handler
func NewMonitoringHandler(engine Engine, stats StatsProvider, logger *slog.Logger) *MonitoringHandler {
	return &MonitoringHandler{
		engine: engine,
		stats:  stats,
		logger: logger,
	}
}

// StartRequest carries an optional interval override in seconds.
type StartRequest struct {
	IntervalSeconds int `json:"interval_seconds"`
}

// IntervalRequest updates the polling interval.
type IntervalRequest struct {
	IntervalSeconds int `json:"interval_seconds"`
}

// StatusResponse is the full monitoring status the dashboard polls.
type StatusResponse struct {
	IsRunning       bool       `json:"is_running"`
	IntervalSeconds int        `json:"interval_seconds"`
	LastCheckAt     *time.Time `json:"last_check_at"`
	TotalChecks     int64      `json:"total_checks"`
	TotalReplies    int64      `json:"total_replies"`
	LastError       string     `json:"last_error,omitempty"`
	LastErrorAt     *time.Time `json:"last_error_at,omitempty"`
}

// Start handles POST /api/monitoring/start
func (h *MonitoringHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req StartRequest
	// An empty body means "use the configured interval".
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	interval := time.Duration(req.IntervalSeconds) * time.Second

	ok := h.engine.Start(r.Context(), interval)
	if !ok {
		h.logger.Warn("monitoring started but the first check failed")
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success":          true,
		"is_running":       h.engine.Running(),
		"first_check_ok":   ok,
		"interval_seconds": int(h.engine.Interval().Seconds()),
	})
}

// Stop handles POST /api/monitoring/stop
func (h *MonitoringHandler) Stop(w http.ResponseWriter, r *http.Request) {
	h.engine.Stop(r.Context())

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success":    true,
		"is_running": false,
	})
}

// Trigger handles POST /api/monitoring/trigger
func (h *MonitoringHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	if !h.engine.Running() {
		http.Error(w, "Monitoring is not running", http.StatusConflict)
		return
	}

	h.engine.TriggerNow()

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": true,
		"message": "Check triggered",
	})
}

// Status handles GET /api/monitoring/status
func (h *MonitoringHandler) Status(w http.ResponseWriter, r *http.Request) {
	snap := h.stats.Snapshot()

	response := StatusResponse{
		IsRunning:       h.engine.Running(),
		IntervalSeconds: int(h.engine.Interval().Seconds()),
		LastCheckAt:     snap.LastCheckAt,
		TotalChecks:     snap.TotalChecks,
		TotalReplies:    snap.TotalReplies,
		LastError:       snap.LastError,
		LastErrorAt:     snap.LastErrorAt,
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(response)
}

// SetInterval handles PUT /api/monitoring/interval
func (h *MonitoringHandler) SetInterval(w http.ResponseWriter, r *http.Request) {
	var req IntervalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	interval := time.Duration(req.IntervalSeconds) * time.Second
	if !h.engine.SetInterval(r.Context(), interval) {
		http.Error(w, "Interval must be at least "+monitor.MinInterval.String(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success":          true,
		"interval_seconds": req.IntervalSeconds,
	})
}
