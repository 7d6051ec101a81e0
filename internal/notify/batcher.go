package notify

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/GriffinCanCode/alertwatch/internal/history"
	"github.com/GriffinCanCode/alertwatch/internal/resilience"
	"github.com/GriffinCanCode/alertwatch/internal/trace"
)

// Batcher coalesces events and delivers them off the caller's goroutine,
// guarded by a circuit breaker and retries.
type Batcher struct {
	channel    Channel
	breaker    *resilience.Breaker
	retry      resilience.RetryConfig
	maxSize    int
	flushDelay time.Duration
	host       string
	onResult   func(n int, err error)

	mu     sync.Mutex
	items  []history.Event
	timer  *time.Timer
	closed bool
	wg     sync.WaitGroup
}

type BatcherOption func(*Batcher)

// WithRetry overrides the retry policy.
func WithRetry(cfg resilience.RetryConfig) BatcherOption {
	return func(b *Batcher) { b.retry = cfg }
}

// WithBreaker overrides the circuit breaker.
func WithBreaker(br *resilience.Breaker) BatcherOption {
	return func(b *Batcher) { b.breaker = br }
}

// WithResultHook is called after every delivery attempt with the batch size.
func WithResultHook(fn func(n int, err error)) BatcherOption {
	return func(b *Batcher) { b.onResult = fn }
}

// NewBatcher creates a batcher for ch.
func NewBatcher(ch Channel, maxSize int, flushDelay time.Duration, opts ...BatcherOption) *Batcher {
	if maxSize <= 0 {
		maxSize = DefaultBatcherMaxSize
	}
	if flushDelay <= 0 {
		flushDelay = DefaultBatcherFlushDelay
	}
	host, _ := os.Hostname()
	b := &Batcher{
		channel:    ch,
		breaker:    resilience.New(resilience.DefaultConfig(ch.Type())),
		retry:      resilience.DefaultRetryConfig(),
		maxSize:    maxSize,
		flushDelay: flushDelay,
		host:       host,
		items:      make([]history.Event, 0, maxSize),
	}
	for _, o := range opts {
		o(b)
	}
	return b
}

// Add queues an event for delivery.
func (b *Batcher) Add(ev history.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}

	b.items = append(b.items, ev)
	if len(b.items) >= b.maxSize {
		b.flushLocked()
		return
	}

	if b.timer == nil {
		b.timer = time.AfterFunc(b.flushDelay, b.timerFlush)
	} else {
		b.timer.Reset(b.flushDelay)
	}
}

func (b *Batcher) timerFlush() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.flushLocked()
}

func (b *Batcher) flushLocked() {
	if len(b.items) == 0 {
		return
	}
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
	items := b.items
	b.items = make([]history.Event, 0, b.maxSize)

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		b.deliver(items)
	}()
}

func (b *Batcher) deliver(items []history.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), DefaultDeliveryTimeout)
	defer cancel()
	ctx, span := trace.StartSpan(ctx, "notify_flush")
	defer span.End()
	span.SetAttr("count", len(items))
	span.SetAttr("channel", b.channel.Type())

	msg := Message{Source: "alertwatch", Host: b.host, Events: items, Timestamp: time.Now()}
	err := resilience.Retry(ctx, b.retry, func() error {
		return b.breaker.Execute(func() error { return b.channel.Send(ctx, msg) })
	})

	log := trace.Logger(ctx)
	if err != nil {
		span.SetAttr("error", err.Error())
		log.Warn("Notification delivery failed", "channel", b.channel.Type(), "count", len(items), "error", err)
	} else {
		log.Debug("Notification delivered", "channel", b.channel.Type(), "count", len(items))
	}
	if b.onResult != nil {
		b.onResult(len(items), err)
	}
}

// Flush forces immediate delivery of pending events.
func (b *Batcher) Flush() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.flushLocked()
}

// Breaker exposes the delivery circuit breaker.
func (b *Batcher) Breaker() *resilience.Breaker { return b.breaker }

// Stop flushes pending events and waits for in-flight deliveries.
func (b *Batcher) Stop() {
	b.mu.Lock()
	b.closed = true
	b.flushLocked()
	b.mu.Unlock()
	b.wg.Wait()
}
