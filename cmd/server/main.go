package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/JonMunkholm/soccerstat/internal/config"
	"github.com/JonMunkholm/soccerstat/internal/core"
	"github.com/JonMunkholm/soccerstat/internal/logging"
	"github.com/JonMunkholm/soccerstat/internal/metrics"
	"github.com/JonMunkholm/soccerstat/internal/store"
	"github.com/JonMunkholm/soccerstat/internal/web"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("configuration loaded", "config", cfg.String())

	ctx := context.Background()
	runs, err := store.Open(ctx, cfg.Store.URL, store.Options{
		MaxConns:        cfg.Store.MaxConns,
		MinConns:        cfg.Store.MinConns,
		MaxConnLifetime: cfg.Store.MaxConnLifetime,
		MaxConnIdleTime: cfg.Store.MaxConnIdleTime,
	})
	if err != nil {
		slog.Error("failed to open run store", "backend", store.Backend(cfg.Store.URL), "error", err)
		os.Exit(1)
	}
	defer runs.Close()
	slog.Info("run store ready", "backend", store.Backend(cfg.Store.URL))

	service := core.NewService(cfg, runs, metrics.New(cfg.Metrics.Namespace))
	server := web.NewServer(cfg, service)

	// Background jobs stop when jobCtx is cancelled.
	jobCtx, cancelJobs := context.WithCancel(context.Background())
	go service.StartRetentionScheduler(jobCtx, core.RetentionConfig{
		Days:          cfg.Retention.Days,
		CheckInterval: cfg.Retention.CheckInterval,
	})

	done := make(chan struct{})
	go func() {
		defer close(done)

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")
		cancelJobs()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if status := service.LimiterStatus(); status.Active > 0 {
			slog.Info("waiting for cleans to complete", "active", status.Active)
			if err := service.WaitForCleans(shutdownCtx); err != nil {
				slog.Warn("cleans did not complete in time", "error", err)
			} else {
				slog.Info("all cleans completed")
			}
		}

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	slog.Info("server starting", "addr", cfg.Server.Addr())
	if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server failed", "error", err)
		cancelJobs()
		os.Exit(1)
	}
	<-done
}
