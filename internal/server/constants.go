// Package server provides HTTP and WebSocket handlers
package server

import "time"

// Server configuration constants
const (
	// Per-connection inbound WebSocket rate limiting
	RateLimitMessages = 10
	RateLimitWindow   = time.Second

	// Outbound WebSocket write deadline
	WriteTimeout = 2 * time.Second

	// Presenter events buffered for the broadcaster
	SubscriberBuffer = 32

	// History entries returned when no limit is given
	DefaultHistoryLimit = 50
)
