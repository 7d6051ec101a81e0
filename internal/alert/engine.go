package alert

import (
	"time"

	"github.com/GriffinCanCode/alertwatch/internal/colorutil"
	"github.com/GriffinCanCode/alertwatch/internal/sampler"
)

// Engine defaults.
const (
	DefaultCooldown  = 5 * time.Minute
	DefaultMinPixels = 100
)

// Config tunes the decision engine.
type Config struct {
	Cooldown  time.Duration // minimum time between alerts of the same color for one area
	MinPixels int           // pixels a matching color must cover
	Tolerance float64       // per-channel color tolerance
}

func (c Config) withDefaults() Config {
	if c.Cooldown <= 0 {
		c.Cooldown = DefaultCooldown
	}
	if c.MinPixels <= 0 {
		c.MinPixels = DefaultMinPixels
	}
	if c.Tolerance <= 0 {
		c.Tolerance = colorutil.DefaultTolerance
	}
	return c
}

// FindSignificantColor returns the reference color matched by the most
// frequent sample that is similar to red or yellow and covers at least
// minPixels. Red is checked before yellow for each sample.
func FindSignificantColor(samples []sampler.ColorSample, refs ReferenceColorSet, minPixels int) (ReferenceColor, bool) {
	return findSignificant(samples, refs, minPixels, colorutil.DefaultTolerance)
}

func findSignificant(samples []sampler.ColorSample, refs ReferenceColorSet, minPixels int, tolerance float64) (ReferenceColor, bool) {
	for _, s := range samples {
		if s.Count < minPixels {
			continue
		}
		for _, ref := range refs.States() {
			if colorutil.IsSimilarTol(s.RGB, ref.RGB, tolerance) {
				return ref, true
			}
		}
	}
	return ReferenceColor{}, false
}

// Engine is the per-area alert state machine.
type Engine struct {
	cfg   Config
	refs  ReferenceColorSet
	store *Store
}

// NewEngine creates an engine with an empty store.
func NewEngine(refs ReferenceColorSet, cfg Config) *Engine {
	return &Engine{cfg: cfg.withDefaults(), refs: refs, store: NewStore()}
}

// Store exposes the engine's alert states.
func (e *Engine) Store() *Store { return e.store }

// References returns the reference colors the engine matches against.
func (e *Engine) References() ReferenceColorSet { return e.refs }

// Cooldown returns the re-alert window.
func (e *Engine) Cooldown() time.Duration { return e.cfg.Cooldown }

// Significant finds the significant color of samples using the engine's thresholds.
func (e *Engine) Significant(samples []sampler.ColorSample) (ReferenceColor, bool) {
	return findSignificant(samples, e.refs, e.cfg.MinPixels, e.cfg.Tolerance)
}

// Decide advances the state machine of areaKey. found reports whether a
// significant color was sampled this tick and sig holds it.
func (e *Engine) Decide(areaKey string, sig ReferenceColor, found bool, now time.Time) Action {
	act := Action{Kind: NoOp, AreaKey: areaKey, At: now}

	e.store.transition(areaKey, func(cur AlertState, ok bool) (AlertState, bool) {
		if !found {
			if ok {
				act.Kind = Clear
				act.State = cur.Color
				act.RGB = cur.RGB
			}
			return cur, false
		}

		act.State = sig.State
		act.RGB = sig.RGB
		if !ok || cur.Color != sig.State || now.Sub(cur.LastAlertTime) >= e.cfg.Cooldown {
			act.Kind = Fire
			act.NextAlertAt = now.Add(e.cfg.Cooldown)
			return AlertState{Color: sig.State, RGB: sig.RGB, LastAlertTime: now}, true
		}

		act.Kind = Suppress
		act.NextAlertAt = cur.LastAlertTime.Add(e.cfg.Cooldown)
		return cur, true
	})

	return act
}

// Evaluate runs FindSignificantColor and Decide for one sampled frame.
func (e *Engine) Evaluate(areaKey string, samples []sampler.ColorSample, now time.Time) Action {
	sig, found := e.Significant(samples)
	return e.Decide(areaKey, sig, found, now)
}
