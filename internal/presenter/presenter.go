// Package presenter turns alert decisions into sounds and a status banner.
package presenter

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/GriffinCanCode/alertwatch/internal/alert"
	"github.com/GriffinCanCode/alertwatch/internal/audio"
	"github.com/GriffinCanCode/alertwatch/internal/trace"
)

// Banner timings.
const (
	DefaultVisibleFor   = 3 * time.Second
	DefaultFadeFor      = 300 * time.Millisecond
	DefaultHighlightFor = 2 * time.Second
)

// Phase of the banner lifecycle.
type Phase string

const (
	PhaseVisible Phase = "visible"
	PhaseFading  Phase = "fading"
	PhaseHidden  Phase = "hidden"
)

// Banner is the single reused status overlay.
type Banner struct {
	Area        alert.WatchArea `json:"area"`
	AreaKey     string          `json:"areaKey"`
	State       string          `json:"state"`
	Message     string          `json:"message"`
	NextAlertAt time.Time       `json:"nextAlertAt,omitzero"`
	Phase       Phase           `json:"phase"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// Highlight outlines an analyzed area; Significant is true when an alert color was found.
type Highlight struct {
	Area        alert.WatchArea `json:"area"`
	Significant bool            `json:"significant"`
	ExpiresAt   time.Time       `json:"expiresAt"`
}

// Event is published to subscribers on every banner change and highlight.
type Event struct {
	Type      string     `json:"type"`
	Banner    *Banner    `json:"banner,omitempty"`
	Highlight *Highlight `json:"highlight,omitempty"`
}

// Event types.
const (
	EventOverlay   = "overlay"
	EventHighlight = "highlight"
)

// Config sets the sound throttle and the banner timings. Zero timings use
// the defaults.
type Config struct {
	SoundDelay time.Duration
	VisibleFor time.Duration
	FadeFor    time.Duration
}

func (c Config) withDefaults() Config {
	if c.VisibleFor <= 0 {
		c.VisibleFor = DefaultVisibleFor
	}
	if c.FadeFor <= 0 {
		c.FadeFor = DefaultFadeFor
	}
	return c
}

// Presenter owns the currently playing sound and the banner.
type Presenter struct {
	lib   audio.Library
	clock Clock
	cfg   Config

	soundMu    sync.Mutex
	soundDelay time.Duration
	lastPlayed time.Time
	current    audio.Handle

	bannerMu  sync.Mutex
	banner    Banner
	timer     Timer
	bannerGen uint64

	subMu  sync.Mutex
	subs   map[int]chan Event
	nextID int
}

// Option customizes a Presenter.
type Option func(*Presenter)

// WithClock replaces the wall clock.
func WithClock(c Clock) Option {
	return func(p *Presenter) { p.clock = c }
}

// New creates a presenter with no sound played and the banner hidden.
func New(lib audio.Library, cfg Config, opts ...Option) *Presenter {
	cfg = cfg.withDefaults()
	p := &Presenter{
		lib:        lib,
		clock:      realClock{},
		cfg:        cfg,
		soundDelay: cfg.SoundDelay,
		banner:     Banner{Phase: PhaseHidden},
		subs:       make(map[int]chan Event),
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// SetSoundDelay changes the global sound throttle.
func (p *Presenter) SetSoundDelay(d time.Duration) {
	p.soundMu.Lock()
	p.soundDelay = d
	p.soundMu.Unlock()
}

// PlaySound plays the sound for state unless any sound started less than the
// sound delay ago. A sound still playing is paused and rewound first.
// It reports whether a sound was started.
func (p *Presenter) PlaySound(state alert.State) (bool, error) {
	p.soundMu.Lock()
	defer p.soundMu.Unlock()

	now := p.clock.Now()
	if !p.lastPlayed.IsZero() && now.Sub(p.lastPlayed) < p.soundDelay {
		return false, nil
	}
	h, err := p.lib.Load(state)
	if err != nil {
		return false, fmt.Errorf("load sound %s: %w", state, err)
	}
	if p.current != nil {
		p.current.Pause()
		p.current.Reset()
	}
	h.Reset()
	err = h.Play()
	p.current = h
	p.lastPlayed = now
	if err != nil {
		return true, fmt.Errorf("play sound %s: %w", state, err)
	}
	return true, nil
}

// LastPlayed returns when the last sound started.
func (p *Presenter) LastPlayed() time.Time {
	p.soundMu.Lock()
	defer p.soundMu.Unlock()
	return p.lastPlayed
}

// StopSound pauses and rewinds the current sound.
func (p *Presenter) StopSound() {
	p.soundMu.Lock()
	defer p.soundMu.Unlock()
	if p.current != nil {
		p.current.Pause()
		p.current.Reset()
		p.current = nil
	}
}

// ShowOverlay updates the banner and restarts its visible and fade timers.
// A zero nextAlertAt means no alert is pending.
func (p *Presenter) ShowOverlay(area alert.WatchArea, state alert.State, nextAlertAt time.Time) {
	p.bannerMu.Lock()
	if p.timer != nil {
		p.timer.Stop()
	}
	p.bannerGen++
	gen := p.bannerGen
	now := p.clock.Now()
	p.banner = Banner{
		Area:        area,
		AreaKey:     area.Key(),
		State:       state.String(),
		Message:     message(area, state, nextAlertAt, now),
		NextAlertAt: nextAlertAt,
		Phase:       PhaseVisible,
		UpdatedAt:   now,
	}
	b := p.banner
	p.timer = p.clock.AfterFunc(p.cfg.VisibleFor, func() { p.advance(gen, PhaseFading) })
	p.bannerMu.Unlock()

	p.publish(Event{Type: EventOverlay, Banner: &b})
}

// advance moves the banner to phase unless a newer update replaced it.
func (p *Presenter) advance(gen uint64, phase Phase) {
	p.bannerMu.Lock()
	if gen != p.bannerGen {
		p.bannerMu.Unlock()
		return
	}
	p.banner.Phase = phase
	p.banner.UpdatedAt = p.clock.Now()
	b := p.banner
	if phase == PhaseFading {
		p.timer = p.clock.AfterFunc(p.cfg.FadeFor, func() { p.advance(gen, PhaseHidden) })
	} else {
		p.timer = nil
	}
	p.bannerMu.Unlock()

	p.publish(Event{Type: EventOverlay, Banner: &b})
}

// Banner returns the current banner.
func (p *Presenter) Banner() Banner {
	p.bannerMu.Lock()
	defer p.bannerMu.Unlock()
	return p.banner
}

// Highlight publishes a short-lived outline of an analyzed area.
func (p *Presenter) Highlight(area alert.WatchArea, significant bool) {
	h := Highlight{Area: area, Significant: significant, ExpiresAt: p.clock.Now().Add(DefaultHighlightFor)}
	p.publish(Event{Type: EventHighlight, Highlight: &h})
}

func message(area alert.WatchArea, state alert.State, next, now time.Time) string {
	if state == alert.None {
		return fmt.Sprintf("Area %s back to normal", area.Key())
	}
	if next.IsZero() {
		return fmt.Sprintf("%s alert on area %s", state, area.Key())
	}
	return fmt.Sprintf("%s alert on area %s, next alert in %s", state, area.Key(), next.Sub(now).Round(time.Second))
}

// Act presents an engine decision: Fire plays the sound and shows the banner,
// Clear shows the cleared banner, Suppress and NoOp do nothing.
// It reports whether a sound was started.
func (p *Presenter) Act(ctx context.Context, area alert.WatchArea, a alert.Action) (bool, error) {
	switch a.Kind {
	case alert.Fire:
		played, err := p.PlaySound(a.State)
		if err != nil {
			trace.Logger(ctx).Warn("Sound failed", "area", a.AreaKey, "state", a.State, "error", err)
		}
		p.ShowOverlay(area, a.State, a.NextAlertAt)
		return played, err
	case alert.Clear:
		p.ShowOverlay(area, alert.None, time.Time{})
	}
	return false, nil
}

// Subscribe returns a channel of presenter events. Slow subscribers miss events.
func (p *Presenter) Subscribe(buf int) (<-chan Event, func()) {
	ch := make(chan Event, buf)
	p.subMu.Lock()
	id := p.nextID
	p.nextID++
	p.subs[id] = ch
	p.subMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			p.subMu.Lock()
			delete(p.subs, id)
			p.subMu.Unlock()
			close(ch)
		})
	}
}

func (p *Presenter) publish(ev Event) {
	p.subMu.Lock()
	defer p.subMu.Unlock()
	for _, ch := range p.subs {
		select {
		case ch <- ev:
		default:
			slog.Debug("Presenter subscriber full, dropping event", "type", ev.Type)
		}
	}
}

// Close stops pending timers and the current sound.
func (p *Presenter) Close() {
	p.bannerMu.Lock()
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
	p.bannerGen++
	p.bannerMu.Unlock()
	p.StopSound()
}
