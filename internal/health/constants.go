package health

import "time"

// ServiceName is the health service name reported for the monitor.
const ServiceName = "alertwatch.Monitor"

// Client configuration defaults
const (
	DefaultKeepaliveTime    = 10 * time.Second
	DefaultKeepaliveTimeout = 3 * time.Second

	CheckTimeout = 2 * time.Second
)
