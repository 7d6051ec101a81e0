// Alert watcher - samples screen areas, plays alert sounds and serves the overlay API
package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/GriffinCanCode/alertwatch/internal/config"
	"github.com/GriffinCanCode/alertwatch/internal/health"
	"github.com/GriffinCanCode/alertwatch/internal/metrics"
	"github.com/GriffinCanCode/alertwatch/internal/monitor"
	"github.com/GriffinCanCode/alertwatch/internal/screen"
	"github.com/GriffinCanCode/alertwatch/internal/server"
	"github.com/GriffinCanCode/alertwatch/internal/settings"
)

func main() {
	healthcheck := flag.Bool("healthcheck", false, "probe the running instance over gRPC and exit")
	flag.Parse()

	cfg := config.Load()

	// Setup structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.Level()}))
	slog.SetDefault(logger)

	if *healthcheck {
		os.Exit(probe(cfg.GRPCAddr))
	}

	capturer, err := screen.New(cfg.CaptureBackend)
	if err != nil {
		slog.Error("failed to create screen capturer", "backend", cfg.CaptureBackend, "error", err)
		os.Exit(1)
	}
	defer capturer.Close()

	library, closeAudio := openAudio(cfg)
	defer closeAudio()

	mets := metrics.New()
	hs := health.NewServer()
	m := monitor.New(monitor.Deps{
		Config:   cfg,
		Settings: settings.NewStore(cfg.SettingsPath),
		Capturer: capturer,
		Library:  library,
		Metrics:  mets,
		Notifier: newNotifier(cfg, mets),
		Health:   hs,
	})
	srv := server.New(m)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := m.Start(ctx); err != nil {
		slog.Error("monitor start failed", "error", err)
		os.Exit(1)
	}

	go func() {
		if err := hs.ListenAndServe(ctx, cfg.GRPCAddr); err != nil {
			slog.Error("health server error", "error", err)
		}
	}()

	httpServer := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      srv.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("alertwatch starting", "http", cfg.HTTPAddr, "grpc", cfg.GRPCAddr, "settings", cfg.SettingsPath)
		if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
			slog.Error("http server error", "error", err)
		}
	}()

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	slog.Info("shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("http shutdown error", "error", err)
	}

	m.Stop()
	slog.Info("shutdown complete")
}
