// Package config handles process configuration
package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	HTTPAddr         string
	GRPCAddr         string
	SettingsPath     string
	TickInterval     float64 // seconds
	StartupDelay     float64 // seconds
	CaptureTimeout   float64 // seconds
	AlertCooldown    float64 // seconds
	MinPixels        int
	ColorTolerance   float64
	CaptureBackend   string
	SoundDir         string
	AudioEnabled     bool
	WebhookURL       string
	WebhookHeaders   []string
	NotifyFlushDelay float64 // seconds
	HistorySize      int
	DriftThreshold   int
	HighlightAreas   bool
	LogLevel         string
}

func Load() *Config {
	return &Config{
		HTTPAddr:         getEnv("HTTP_ADDR", ":8000"),
		GRPCAddr:         getEnv("GRPC_ADDR", ":50052"),
		SettingsPath:     getEnv("SETTINGS_PATH", "alertwatch.yaml"),
		TickInterval:     getEnvFloat("TICK_INTERVAL", 1.0),
		StartupDelay:     getEnvFloat("STARTUP_DELAY", 1.0),
		CaptureTimeout:   getEnvFloat("CAPTURE_TIMEOUT", 5.0),
		AlertCooldown:    getEnvFloat("ALERT_COOLDOWN", 300),
		MinPixels:        getEnvInt("MIN_PIXELS", 100),
		ColorTolerance:   getEnvFloat("COLOR_TOLERANCE", 30),
		CaptureBackend:   getEnv("CAPTURE_BACKEND", "auto"),
		SoundDir:         getEnv("SOUND_DIR", ""),
		AudioEnabled:     getEnvBool("AUDIO_ENABLED", true),
		WebhookURL:       getEnv("WEBHOOK_URL", ""),
		WebhookHeaders:   getEnvList("WEBHOOK_HEADERS", nil),
		NotifyFlushDelay: getEnvFloat("NOTIFY_FLUSH_DELAY", 2.0),
		HistorySize:      getEnvInt("HISTORY_SIZE", 200),
		DriftThreshold:   getEnvInt("DRIFT_THRESHOLD", 20),
		HighlightAreas:   getEnvBool("HIGHLIGHT_AREAS", false),
		LogLevel:         getEnv("LOG_LEVEL", "debug"),
	}
}

// Seconds converts a seconds setting to a duration.
func Seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// Level maps LogLevel to a slog level, defaulting to debug.
func (c *Config) Level() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelDebug
	}
}

// Headers parses WebhookHeaders entries of the form "Name: value".
func (c *Config) Headers() map[string]string {
	h := make(map[string]string, len(c.WebhookHeaders))
	for _, kv := range c.WebhookHeaders {
		k, v, ok := strings.Cut(kv, ":")
		if !ok {
			continue
		}
		h[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}
	return h
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getEnvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		return v == "true" || v == "1"
	}
	return def
}

func getEnvList(key string, def []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if t := strings.TrimSpace(p); t != "" {
				result = append(result, t)
			}
		}
		return result
	}
	return def
}
