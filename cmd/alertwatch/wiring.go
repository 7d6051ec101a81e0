package main

import (
	"context"
	"log/slog"
	"strings"

	"github.com/GriffinCanCode/alertwatch/internal/audio"
	"github.com/GriffinCanCode/alertwatch/internal/config"
	"github.com/GriffinCanCode/alertwatch/internal/health"
	"github.com/GriffinCanCode/alertwatch/internal/metrics"
	"github.com/GriffinCanCode/alertwatch/internal/monitor"
	"github.com/GriffinCanCode/alertwatch/internal/notify"
	"github.com/GriffinCanCode/alertwatch/internal/trace"
)

// openAudio returns the sound library and its cleanup. Audio failures are
// not fatal: alerts still show the overlay.
func openAudio(cfg *config.Config) (audio.Library, func()) {
	if !cfg.AudioEnabled {
		slog.Info("audio disabled")
		return audio.Nop{}, func() {}
	}
	out, err := audio.OpenOutput()
	if err != nil {
		slog.Warn("audio output unavailable, alerts will be silent", "error", err)
		return audio.Nop{}, func() {}
	}
	return audio.NewLibrary(cfg.SoundDir, out), out.Close
}

// newNotifier returns nil when no webhook is configured.
func newNotifier(cfg *config.Config, mets *metrics.Metrics) monitor.Notifier {
	if cfg.WebhookURL == "" {
		return nil
	}
	ch := notify.NewWebhookChannel(cfg.WebhookURL, cfg.Headers())
	return notify.NewBatcher(ch, notify.DefaultBatcherMaxSize, config.Seconds(cfg.NotifyFlushDelay),
		notify.WithResultHook(mets.RecordNotification))
}

// probe checks the monitor health service and returns the exit code.
func probe(addr string) int {
	if strings.HasPrefix(addr, ":") {
		addr = "localhost" + addr
	}
	ctx, _ := trace.EnsureContext(context.Background())
	c, err := health.Dial(addr)
	if err != nil {
		slog.Error("healthcheck dial failed", "addr", addr, "error", err)
		return 1
	}
	defer c.Close()

	ok, err := c.Check(ctx, health.ServiceName)
	if err != nil {
		slog.Error("healthcheck failed", "addr", addr, "error", err)
		return 1
	}
	if !ok {
		slog.Warn("monitor not serving", "addr", addr)
		return 1
	}
	return 0
}
