// Package scheduler runs the periodic capture and analysis of watch areas.
package scheduler

import (
	"context"
	"image"
	"slices"
	"sync"
	"time"

	"github.com/GriffinCanCode/alertwatch/internal/alert"
	apperrors "github.com/GriffinCanCode/alertwatch/internal/errors"
	"github.com/GriffinCanCode/alertwatch/internal/sampler"
	"github.com/GriffinCanCode/alertwatch/internal/screen"
	"github.com/GriffinCanCode/alertwatch/internal/trace"
)

// Defaults for zero Config fields.
const (
	DefaultInterval       = time.Second
	DefaultStartupDelay   = time.Second
	DefaultCaptureTimeout = 5 * time.Second
)

// Config controls tick timing and per-capture limits. DriftThreshold is the
// pHash distance that counts as a layout shift; zero disables drift checks.
type Config struct {
	Interval       time.Duration
	StartupDelay   time.Duration
	CaptureTimeout time.Duration
	DriftThreshold int
}

func (c Config) withDefaults() Config {
	if c.Interval <= 0 {
		c.Interval = DefaultInterval
	}
	if c.StartupDelay < 0 {
		c.StartupDelay = 0
	}
	if c.CaptureTimeout <= 0 {
		c.CaptureTimeout = DefaultCaptureTimeout
	}
	return c
}

// Result is the outcome of analyzing one area in one tick.
type Result struct {
	Area        alert.WatchArea
	Generation  uint64
	Samples     []sampler.ColorSample
	Significant alert.ReferenceColor
	Found       bool
	Action      alert.Action
}

// Handler receives the result of every successful area analysis.
type Handler interface {
	HandleResult(ctx context.Context, r Result)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, r Result)

// HandleResult calls f(ctx, r).
func (f HandlerFunc) HandleResult(ctx context.Context, r Result) { f(ctx, r) }

// Observer is notified of scheduler activity for metrics.
type Observer interface {
	TickStarted()
	CaptureDone(areaKey string, d time.Duration, err error)
	AreaSkipped(areaKey string)
	DriftDetected(areaKey string, distance int)
}

type nopObserver struct{}

func (nopObserver) TickStarted()                             {}
func (nopObserver) CaptureDone(string, time.Duration, error) {}
func (nopObserver) AreaSkipped(string)                       {}
func (nopObserver) DriftDetected(string, int)                {}

// Scheduler ticks, launching one analysis goroutine per watch area.
type Scheduler struct {
	capturer screen.Capturer
	handler  Handler
	cfg      Config
	obs      Observer
	now      func() time.Time
	drift    *driftDetector

	mu     sync.Mutex
	gen    uint64
	areas  []alert.WatchArea
	engine *alert.Engine
	busy   map[string]bool

	wg sync.WaitGroup
}

// Option customizes a Scheduler.
type Option func(*Scheduler)

// WithObserver sets the activity observer.
func WithObserver(o Observer) Option {
	return func(s *Scheduler) { s.obs = o }
}

// WithNow replaces the clock used for decisions.
func WithNow(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

// New creates a scheduler with no areas. Call Reset to install areas and an
// engine before Run.
func New(capturer screen.Capturer, handler Handler, cfg Config, opts ...Option) *Scheduler {
	cfg = cfg.withDefaults()
	s := &Scheduler{
		capturer: capturer,
		handler:  handler,
		cfg:      cfg,
		obs:      nopObserver{},
		now:      time.Now,
		drift:    newDriftDetector(cfg.DriftThreshold),
		busy:     make(map[string]bool),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Reset installs a new area list and engine and starts a new generation.
// Results of analyses launched before the reset are dropped.
func (s *Scheduler) Reset(areas []alert.WatchArea, engine *alert.Engine) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	s.areas = slices.Clone(areas)
	s.engine = engine
	s.drift.reset()
	return s.gen
}

// Generation returns the current generation.
func (s *Scheduler) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen
}

// Engine returns the engine of the current generation.
func (s *Scheduler) Engine() *alert.Engine {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine
}

// Run waits the startup delay, ticks once, then ticks every interval until ctx is done.
func (s *Scheduler) Run(ctx context.Context) error {
	defer s.wg.Wait()

	start := time.NewTimer(s.cfg.StartupDelay)
	defer start.Stop()
	select {
	case <-ctx.Done():
		return nil
	case <-start.C:
	}

	s.Tick(ctx)
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// Tick launches an analysis for every area that has no capture in flight and
// returns how many were launched. It does not wait for them.
func (s *Scheduler) Tick(ctx context.Context) int {
	s.obs.TickStarted()
	ctx, span := trace.StartSpan(ctx, "tick")
	defer span.End()
	log := trace.Logger(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.engine == nil {
		return 0
	}
	launched := 0
	for _, area := range s.areas {
		key := area.Key()
		if s.busy[key] {
			s.obs.AreaSkipped(key)
			log.Debug("Previous capture still in flight, skipping area", "area", key)
			continue
		}
		s.busy[key] = true
		launched++
		s.wg.Add(1)
		go s.analyze(ctx, s.gen, area, s.engine)
	}
	span.SetAttr("launched", launched)
	return launched
}

// Wait blocks until all launched analyses have finished.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

func (s *Scheduler) stale(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return gen != s.gen
}

func (s *Scheduler) analyze(ctx context.Context, gen uint64, area alert.WatchArea, engine *alert.Engine) {
	key := area.Key()
	defer s.wg.Done()
	defer func() {
		s.mu.Lock()
		delete(s.busy, key)
		s.mu.Unlock()
	}()

	ctx, span := trace.StartSpan(ctx, "area")
	span.SetAttr("area", key)
	log := trace.Logger(ctx)

	cctx, cancel := context.WithTimeout(ctx, s.cfg.CaptureTimeout)
	start := time.Now()
	img, err := s.capturer.CaptureRegion(cctx, image.Rect(area.X, area.Y, area.X+area.Width, area.Y+area.Height))
	cancel()
	s.obs.CaptureDone(key, time.Since(start), err)
	if err != nil {
		if apperrors.IsCode(err, apperrors.Cancelled) {
			return
		}
		log.Warn("Area capture failed", "area", key, "code", apperrors.CodeOf(err), "error", err)
		return
	}

	if dist, drifted := s.drift.observe(key, img); drifted {
		s.obs.DriftDetected(key, dist)
		log.Warn("Area content shifted, check the watch area still covers the panel", "area", key, "distance", dist)
	}

	samples := sampler.Sample(img)
	if s.stale(gen) {
		log.Debug("Dropping result from previous generation", "area", key, "generation", gen)
		return
	}

	sig, found := engine.Significant(samples)
	action := engine.Decide(key, sig, found, s.now())
	span.SetAttr("action", action.Kind.String())
	span.End()
	log.Debug("Area analyzed", "area", key, "samples", len(samples), "found", found, "action", action.Kind, "elapsed", span.Duration())

	s.handler.HandleResult(ctx, Result{
		Area:        area,
		Generation:  gen,
		Samples:     samples,
		Significant: sig,
		Found:       found,
		Action:      action,
	})
}
