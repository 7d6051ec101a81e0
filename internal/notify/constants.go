package notify

import "time"

// Batcher defaults
const (
	DefaultBatcherMaxSize    = 20
	DefaultBatcherFlushDelay = 2 * time.Second
	DefaultDeliveryTimeout   = 30 * time.Second
)
