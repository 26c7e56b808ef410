package config

import (
	"os"
	"testing"
	"time"

	"log/slog"
)

func TestLoadDefaults(t *testing.T) {
	clearConfigEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.Server.Port != defaultPort {
		t.Errorf("expected default port %q, got %q", defaultPort, cfg.Server.Port)
	}
	if cfg.Server.ReadTimeout != defaultReadTimeout {
		t.Errorf("expected default read timeout %v, got %v", defaultReadTimeout, cfg.Server.ReadTimeout)
	}
	if cfg.Logging.Level != slog.LevelInfo {
		t.Errorf("expected default log level %v, got %v", slog.LevelInfo, cfg.Logging.Level)
	}
	if cfg.Logging.Format != defaultLogFormat {
		t.Errorf("expected default log format %q, got %q", defaultLogFormat, cfg.Logging.Format)
	}
	if cfg.Graph.Version != defaultGraphVersion {
		t.Errorf("expected default graph version %q, got %q", defaultGraphVersion, cfg.Graph.Version)
	}
	if cfg.Graph.ReelsLimit != defaultReelsLimit {
		t.Errorf("expected default reels limit %d, got %d", defaultReelsLimit, cfg.Graph.ReelsLimit)
	}
	if cfg.Graph.CommentsLimit != defaultCommentsLimit {
		t.Errorf("expected default comments limit %d, got %d", defaultCommentsLimit, cfg.Graph.CommentsLimit)
	}
	if cfg.Graph.UseMock {
		t.Error("expected mock mode disabled by default")
	}
	if cfg.Monitor.Interval != defaultMonitorInterval {
		t.Errorf("expected default monitor interval %v, got %v", defaultMonitorInterval, cfg.Monitor.Interval)
	}
}

func TestLoadWithOverrides(t *testing.T) {
	clearConfigEnv(t)

	overrides := map[string]string{
		"SERVER_PORT":              "9090",
		"LOG_LEVEL":                "debug",
		"LOG_FORMAT":               "text",
		"DATABASE_URL":             "postgresql://localhost:5432/pagepulse",
		"GRAPH_API_VERSION":        "v21.0",
		"GRAPH_REELS_LIMIT":        "10",
		"GRAPH_COMMENTS_LIMIT":     "50",
		"GRAPH_REPLIES_LIMIT":      "25",
		"GRAPH_USE_MOCK":           "true",
		"MONITOR_INTERVAL_SECONDS": "120",
	}
	for key, value := range overrides {
		t.Setenv(key, value)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.Server.Port != "9090" {
		t.Errorf("expected overridden port %q, got %q", "9090", cfg.Server.Port)
	}
	if cfg.Logging.Level != slog.LevelDebug {
		t.Errorf("expected log level debug, got %v", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" {
		t.Errorf("expected log format text, got %q", cfg.Logging.Format)
	}
	if cfg.Database.URL != overrides["DATABASE_URL"] {
		t.Errorf("expected database URL %q, got %q", overrides["DATABASE_URL"], cfg.Database.URL)
	}
	if cfg.Graph.Version != "v21.0" {
		t.Errorf("expected graph version v21.0, got %q", cfg.Graph.Version)
	}
	if cfg.Graph.ReelsLimit != 10 || cfg.Graph.CommentsLimit != 50 || cfg.Graph.RepliesLimit != 25 {
		t.Errorf("unexpected graph limits: %d/%d/%d", cfg.Graph.ReelsLimit, cfg.Graph.CommentsLimit, cfg.Graph.RepliesLimit)
	}
	if !cfg.Graph.UseMock {
		t.Error("expected mock mode enabled")
	}
	if cfg.Monitor.Interval != 120*time.Second {
		t.Errorf("expected monitor interval 2m, got %v", cfg.Monitor.Interval)
	}
}

func TestLoadInvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "bad log level", key: "LOG_LEVEL", value: "verbose"},
		{name: "bad log format", key: "LOG_FORMAT", value: "pretty"},
		{name: "negative read timeout", key: "SERVER_READ_TIMEOUT_SECONDS", value: "-5"},
		{name: "zero reels limit", key: "GRAPH_REELS_LIMIT", value: "0"},
		{name: "non-numeric interval", key: "MONITOR_INTERVAL_SECONDS", value: "soon"},
		{name: "bad mock flag", key: "GRAPH_USE_MOCK", value: "maybe"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearConfigEnv(t)
			t.Setenv(tt.key, tt.value)

			if _, err := Load(); err == nil {
				t.Fatalf("expected error for %s=%s, got nil", tt.key, tt.value)
			}
		})
	}
}

func clearConfigEnv(t *testing.T) {
	t.Helper()

	keys := []string{
		"PORT",
		"SERVER_PORT",
		"SERVER_READ_TIMEOUT_SECONDS",
		"SERVER_WRITE_TIMEOUT_SECONDS",
		"SERVER_SHUTDOWN_TIMEOUT_SECONDS",
		"LOG_LEVEL",
		"LOG_FORMAT",
		"DATABASE_URL",
		"MIGRATIONS_DIR",
		"GRAPH_API_VERSION",
		"GRAPH_REELS_LIMIT",
		"GRAPH_COMMENTS_LIMIT",
		"GRAPH_REPLIES_LIMIT",
		"GRAPH_TIMEOUT_SECONDS",
		"GRAPH_USE_MOCK",
		"MONITOR_INTERVAL_SECONDS",
	}
	for _, key := range keys {
		if value, ok := os.LookupEnv(key); ok {
			t.Setenv(key, value)
			os.Unsetenv(key)
		}
	}
}
