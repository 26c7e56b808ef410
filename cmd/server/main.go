package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pagepulse/pagepulse/internal/api"
	"github.com/pagepulse/pagepulse/internal/auth"
	"github.com/pagepulse/pagepulse/internal/config"
	"github.com/pagepulse/pagepulse/internal/database"
	"github.com/pagepulse/pagepulse/internal/graph"
	"github.com/pagepulse/pagepulse/internal/logging"
	"github.com/pagepulse/pagepulse/internal/metrics"
	"github.com/pagepulse/pagepulse/internal/monitor"
	"github.com/pagepulse/pagepulse/internal/server"
	"log/slog"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.New(slog.NewJSONHandler(os.Stdout, nil)).Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		slog.New(slog.NewJSONHandler(os.Stdout, nil)).Error("failed to init logger", "error", err)
		os.Exit(1)
	}

	logger.Info("starting pagepulse")

	ctx := context.Background()

	// Connect to database
	dbCfg := database.DefaultConfig()
	dbCfg.URL = cfg.Database.URL
	logger.Info("connecting to database")
	db, err := database.Connect(ctx, dbCfg)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	logger.Info("database connected")

	// Run pending migrations (non-fatal to allow app to start even if migrations fail)
	if err := database.RunMigrations(db, cfg.Database.MigrationsDir, logger); err != nil {
		logger.Warn("failed to run migrations, continuing anyway", "error", err)
	}

	// Create repositories
	ruleRepo := database.NewRuleRepository(db)
	statsRepo := database.NewStatsRepository(db)
	settingsRepo := database.NewSettingsRepository(db)
	credStore := database.NewCredentialStore(settingsRepo, logger)

	// Seed the credential from the environment on first boot so a fresh
	// deployment can come up monitoring without a manual settings call.
	seedCredentialFromEnv(ctx, settingsRepo, credStore, logger)

	// Create the Graph client
	var client graph.Client
	if cfg.Graph.UseMock {
		logger.Warn("using in-memory mock Graph client")
		client = graph.NewMockClient(credStore.AccountID(ctx), logger)
	} else {
		client = graph.NewHTTPClient(graph.HTTPClientConfig{
			Version:        cfg.Graph.Version,
			ReelsLimit:     cfg.Graph.ReelsLimit,
			CommentsLimit:  cfg.Graph.CommentsLimit,
			RepliesLimit:   cfg.Graph.RepliesLimit,
			Timeout:        cfg.Graph.Timeout,
			CredentialFunc: credStore.Current,
		}, logger)
	}

	// Metrics
	collector, err := metrics.New()
	if err != nil {
		logger.Error("failed to init metrics", "error", err)
		os.Exit(1)
	}

	// Monitoring engine
	bus := monitor.NewStatsBus()
	tracker, err := monitor.NewStatsTracker(ctx, statsRepo, bus, logger)
	if err != nil {
		logger.Error("failed to load monitoring statistics", "error", err)
		os.Exit(1)
	}

	executor := monitor.NewExecutor(ruleRepo, client, credStore, tracker, collector, logger)

	schedule, err := statsRepo.LoadSchedule(ctx)
	if err != nil {
		logger.Warn("failed to load schedule, using configured default", "error", err)
		schedule.Interval = cfg.Monitor.Interval
	}
	if schedule.Interval <= 0 {
		schedule.Interval = cfg.Monitor.Interval
	}

	scheduler := monitor.NewScheduler(executor, tracker, statsRepo, collector, schedule.Interval, logger)

	// Log every statistics change so operators can follow the engine from
	// the process output alone.
	statsCh, cancelStats := bus.Subscribe()
	defer cancelStats()
	go func() {
		for snap := range statsCh {
			logger.Debug("monitoring statistics",
				"running", snap.IsRunning,
				"total_checks", snap.TotalChecks,
				"total_replies", snap.TotalReplies,
				"last_error", snap.LastError,
			)
		}
	}()

	// Resume monitoring if it was enabled before the last shutdown.
	if schedule.Enabled {
		logger.Info("resuming monitoring", "interval", schedule.Interval)
		go scheduler.Start(context.Background(), schedule.Interval)
	}

	// Setup HTTP routes
	mux := http.NewServeMux()

	// Health check endpoint
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := database.HealthCheck(r.Context(), db); err != nil {
			logger.Error("health check failed", "error", err)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Service info endpoint
	mux.HandleFunc("/api/info", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"service":"pagepulse","status":"ready","version":"0.1.0"}`))
	})

	mux.Handle("/metrics", collector.Handler())

	// Load auth configuration
	authConfig := auth.LoadConfigFromEnv()
	logger.Info("auth configured", "jwt_secret_set", authConfig.JWTSecret != "change-this-secret")

	// Add REST API routes
	logger.Info("setting up REST API")
	api.SetupRoutes(mux, ruleRepo, settingsRepo, client, scheduler, tracker, authConfig, logger)

	// Start server
	srv := server.New(cfg.Server, logger, collector.InstrumentHandler(mux))

	go func() {
		if err := srv.Start(); err != nil {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	logger.Info("pagepulse started successfully")
	logger.Info("API available", "url", fmt.Sprintf("http://localhost:%s", cfg.Server.Port))

	waitForSignal(logger)

	logger.Info("shutting down")
	stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
	scheduler.Stop(stopCtx)
	stopCancel()
	if err := srv.Shutdown(context.Background()); err != nil {
		logger.Error("shutdown error", "error", err)
	}
	logger.Info("shutdown complete")
}

// seedCredentialFromEnv stores GRAPH_ACCESS_TOKEN and GRAPH_PAGE_ID in the
// settings table when no credential is configured yet. Stored settings
// always win over the environment.
func seedCredentialFromEnv(ctx context.Context, settings *database.SettingsRepository, creds *database.CredentialStore, logger *slog.Logger) {
	if creds.Usable(ctx) {
		return
	}

	token := os.Getenv("GRAPH_ACCESS_TOKEN")
	pageID := os.Getenv("GRAPH_PAGE_ID")
	if token == "" || pageID == "" {
		logger.Warn("no page credential configured, monitoring will refuse to run until settings are saved")
		return
	}

	if err := settings.Set(ctx, database.SettingAccessToken, token); err != nil {
		logger.Error("failed to seed access token", "error", err)
		return
	}
	if err := settings.Set(ctx, database.SettingPageID, pageID); err != nil {
		logger.Error("failed to seed page id", "error", err)
		return
	}
	logger.Info("seeded page credential from environment", "page_id", pageID)
}

func waitForSignal(logger *slog.Logger) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
	sig := <-c
	logger.Info("received signal", "signal", sig.String())
	signal.Stop(c)
	close(c)
}
