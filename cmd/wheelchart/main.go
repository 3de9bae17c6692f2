// Command wheelchart serves the chart wheel API.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/mattn/go-isatty"

	"github.com/talgya/astrowheel/internal/api"
	"github.com/talgya/astrowheel/internal/persistence"
)

func main() {
	slog.SetDefault(newLogger(envOrDefault("LOG_LEVEL", "info")))

	port := envIntOrDefault("WHEELCHART_PORT", 8080)
	dbPath := envOrDefault("WHEELCHART_DB", "data/charts.db")
	adminKey := os.Getenv("WHEELCHART_ADMIN_KEY")
	rateLimit := envIntOrDefault("WHEELCHART_RATE_LIMIT", 600)

	srv := &api.Server{
		Port:      port,
		AdminKey:  adminKey,
		RateLimit: rateLimit,
	}

	// ── Database ──────────────────────────────────────────────────────
	if dbPath != "none" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			slog.Error("failed to create data directory", "error", err)
			os.Exit(1)
		}
		db, err := persistence.Open(dbPath)
		if err != nil {
			slog.Error("failed to open database", "error", err)
			os.Exit(1)
		}
		defer db.Close()

		if last, err := db.GetMeta("last_started"); err == nil {
			slog.Info("previous run", "started_at", last)
		}
		if err := db.SaveMeta("last_started", time.Now().UTC().Format(time.RFC3339)); err != nil {
			slog.Warn("failed to record start time", "error", err)
		}
		srv.DB = db
	} else {
		slog.Warn("running without a chart store; /api/v1/charts is disabled")
	}

	if adminKey == "" {
		slog.Warn("WHEELCHART_ADMIN_KEY not set; chart updates and deletes are disabled")
	}

	// ── Serve until signalled ─────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := srv.ListenAndServe(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("HTTP server error", "error", err)
		os.Exit(1)
	}
	slog.Info("wheelchart stopped")
}

// newLogger writes text to a terminal and JSON anywhere else.
func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envIntOrDefault(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultVal
}
