// Command spacetrace serves satellite ground tracks over HTTP.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/star/spacetrace/internal/api"
	"github.com/star/spacetrace/internal/cache"
	"github.com/star/spacetrace/internal/config"
	"github.com/star/spacetrace/internal/track"
)

func main() {
	boot := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	cfg, err := config.Load(boot)
	if err != nil {
		boot.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	logger := config.NewLogger(cfg.Log, os.Stdout)
	if cfg.Auth.Enabled {
		logger.Info("auth enabled")
	}

	source, err := config.NewSource(cfg.Source, logger)
	if err != nil {
		logger.Error("invalid element source", "error", err)
		os.Exit(1)
	}

	trackCache := cache.NewTrackCache(cfg.TrackCache, logger)
	srv := api.NewServer(api.Config{
		Addr:               cfg.HTTP.Addr,
		TrustProxy:         cfg.HTTP.TrustProxy,
		MaxConcurrentPerIP: cfg.HTTP.MaxConcurrentPerIP,
	}, logger, cfg.Auth, api.Deps{
		Source:    source,
		Generator: track.NewGenerator(track.SGP4Factory, logger),
		Cache:     trackCache,
		Defaults:  track.Options{StepMinutes: cfg.Track.StepMinutes, Split: cfg.Track.Split},
		Ready:     cacheDirWritable(cfg.Source.CacheDir),
	})

	// Graceful shutdown on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go trackCache.Start(ctx, time.Minute)

	go func() {
		logger.Info("starting server",
			"addr", cfg.HTTP.Addr,
			"auth_enabled", cfg.Auth.Enabled,
			"source", cfg.Source.Kind,
			"step_minutes", cfg.Track.StepMinutes,
			"split", cfg.Track.Split,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server listen error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.HTTPServer().Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

// cacheDirWritable reports readiness once the element cache directory can be
// created. An empty dir disables the disk cache and is always ready.
func cacheDirWritable(dir string) func() error {
	return func() error {
		if dir == "" {
			return nil
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("element cache dir: %w", err)
		}
		return nil
	}
}
