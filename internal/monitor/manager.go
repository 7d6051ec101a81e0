// Package monitor wires settings, capture scheduling, alert decisions and
// presentation into one running service.
package monitor

import (
	"context"
	"image"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/GriffinCanCode/alertwatch/internal/alert"
	"github.com/GriffinCanCode/alertwatch/internal/audio"
	"github.com/GriffinCanCode/alertwatch/internal/colorutil"
	"github.com/GriffinCanCode/alertwatch/internal/config"
	apperrors "github.com/GriffinCanCode/alertwatch/internal/errors"
	"github.com/GriffinCanCode/alertwatch/internal/history"
	"github.com/GriffinCanCode/alertwatch/internal/metrics"
	"github.com/GriffinCanCode/alertwatch/internal/presenter"
	"github.com/GriffinCanCode/alertwatch/internal/scheduler"
	"github.com/GriffinCanCode/alertwatch/internal/screen"
	"github.com/GriffinCanCode/alertwatch/internal/settings"
	"github.com/GriffinCanCode/alertwatch/internal/syncx"
	"github.com/GriffinCanCode/alertwatch/internal/trace"
)

// Notifier receives recorded alert events for external delivery.
type Notifier interface {
	Add(ev history.Event)
	Stop()
}

// StatusReporter reflects whether monitoring is running.
type StatusReporter interface {
	SetServing(serving bool)
}

// Deps are the collaborators of a Manager. Notifier and Health are optional.
type Deps struct {
	Config   *config.Config
	Settings *settings.Store
	Capturer screen.Capturer
	Library  audio.Library
	Metrics  *metrics.Metrics
	Notifier Notifier
	Health   StatusReporter
}

// Option customizes the components a Manager builds.
type Option func(*options)

type options struct {
	scheduler []scheduler.Option
	presenter []presenter.Option
}

// WithSchedulerOptions passes options to the capture scheduler.
func WithSchedulerOptions(opts ...scheduler.Option) Option {
	return func(o *options) { o.scheduler = append(o.scheduler, opts...) }
}

// WithPresenterOptions passes options to the presenter.
func WithPresenterOptions(opts ...presenter.Option) Option {
	return func(o *options) { o.presenter = append(o.presenter, opts...) }
}

// Manager coordinates all services
type Manager struct {
	cfg       *config.Config
	settings  *settings.Store
	capturer  screen.Capturer
	presenter *presenter.Presenter
	scheduler *scheduler.Scheduler
	history   *history.Store
	metrics   *metrics.Metrics
	notifier  Notifier
	health    StatusReporter

	state *syncx.Guard[runState]

	mu          sync.Mutex
	ctx         context.Context
	cancel      context.CancelFunc
	done        chan struct{}
	unsubscribe func()
}

// runState is readable without waiting for a reconfiguration to finish.
type runState struct {
	cfg     settings.Configuration
	running bool
}

// New creates a manager. Nothing runs until Start.
func New(d Deps, opts ...Option) *Manager {
	var o options
	for _, fn := range opts {
		fn(&o)
	}
	if d.Metrics == nil {
		d.Metrics = metrics.New()
	}
	if d.Library == nil {
		d.Library = audio.Nop{}
	}

	m := &Manager{
		cfg:      d.Config,
		settings: d.Settings,
		capturer: d.Capturer,
		history:  history.NewStore(d.Config.HistorySize, 100),
		metrics:  d.Metrics,
		notifier: d.Notifier,
		health:   d.Health,
	}
	initial := d.Settings.Current()
	m.state = syncx.NewGuard(runState{cfg: initial})
	m.presenter = presenter.New(d.Library, presenter.Config{SoundDelay: initial.SoundDelay()}, o.presenter...)
	m.scheduler = scheduler.New(d.Capturer, m, scheduler.Config{
		Interval:       config.Seconds(d.Config.TickInterval),
		StartupDelay:   config.Seconds(d.Config.StartupDelay),
		CaptureTimeout: config.Seconds(d.Config.CaptureTimeout),
		DriftThreshold: d.Config.DriftThreshold,
	}, append([]scheduler.Option{scheduler.WithObserver(d.Metrics)}, o.scheduler...)...)
	return m
}

// Start loads the settings, starts monitoring if enabled and follows
// configuration changes until ctx is done.
func (m *Manager) Start(ctx context.Context) error {
	log := trace.Logger(ctx)
	cfg, err := m.settings.Load()
	if err != nil {
		log.Warn("Settings loaded with problems, using defaults where needed", "path", m.settings.Path(), "error", err)
	}

	m.mu.Lock()
	m.ctx = ctx
	m.mu.Unlock()

	m.unsubscribe = m.settings.OnChange(m.apply)
	m.apply(cfg)

	go func() {
		if err := m.settings.Watch(ctx); err != nil {
			log.Error("Settings watcher stopped", "error", err)
		}
	}()
	return nil
}

// apply installs a configuration: the running scheduler is stopped, a new
// engine and generation are installed and monitoring restarts if enabled.
func (m *Manager) apply(cfg settings.Configuration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ctx := m.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	log := trace.Logger(ctx)

	m.stopLocked()

	refs, err := cfg.References()
	if err != nil {
		log.Error("Invalid alert colors, using defaults", "error", err)
		refs, _ = settings.Default().References()
	}
	engine := alert.NewEngine(refs, alert.Config{
		Cooldown:  config.Seconds(m.cfg.AlertCooldown),
		MinPixels: m.cfg.MinPixels,
		Tolerance: m.cfg.ColorTolerance,
	})
	gen := m.scheduler.Reset(cfg.WatchAreas, engine)
	m.presenter.SetSoundDelay(cfg.SoundDelay())
	m.metrics.SetActiveAlerts(0)

	running := cfg.Enabled && m.ctx != nil && m.ctx.Err() == nil
	if running {
		m.startLocked()
	} else {
		m.presenter.StopSound()
	}
	m.state.Store(runState{cfg: cfg, running: running})
	if m.health != nil {
		m.health.SetServing(running)
	}
	log.Info("Monitoring configured", "enabled", cfg.Enabled, "running", running, "areas", len(cfg.WatchAreas), "generation", gen)
}

func (m *Manager) startLocked() {
	ctx, cancel := context.WithCancel(m.ctx)
	done := make(chan struct{})
	m.cancel, m.done = cancel, done

	go func() {
		defer close(done)
		if err := m.scheduler.Run(ctx); err != nil {
			trace.Logger(ctx).Error("Scheduler stopped", "error", err)
		}
	}()
}

func (m *Manager) stopLocked() {
	if m.cancel == nil {
		return
	}
	m.cancel()
	<-m.done
	m.cancel, m.done = nil, nil
}

// Stop halts monitoring, silences the presenter and flushes notifications.
func (m *Manager) Stop() {
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
	m.mu.Lock()
	m.stopLocked()
	m.mu.Unlock()
	syncx.Modify(m.state, func(s *runState) bool {
		s.running = false
		return false
	})

	m.presenter.Close()
	if m.notifier != nil {
		m.notifier.Stop()
	}
	if m.health != nil {
		m.health.SetServing(false)
	}
}

// HandleResult fans an analysis result out to the presenter, history,
// notifier and metrics. Results of an older generation are ignored.
func (m *Manager) HandleResult(ctx context.Context, r scheduler.Result) {
	if r.Generation != m.scheduler.Generation() {
		return
	}
	ctx, span := trace.StartSpan(ctx, "handle_result")
	defer span.End()
	span.SetAttr("area", r.Action.AreaKey)
	span.SetAttr("action", r.Action.Kind.String())
	log := trace.Logger(ctx)

	if m.cfg.HighlightAreas {
		m.presenter.Highlight(r.Area, r.Found)
	}

	a := r.Action
	m.metrics.RecordAction(a)
	switch a.Kind {
	case alert.Fire:
		played, err := m.presenter.Act(ctx, r.Area, a)
		m.metrics.RecordSound(played, err)
		log.Info("Alert fired", "area", a.AreaKey, "state", a.State, "color", a.RGB, "sound", played, "next_alert_at", a.NextAlertAt)
	case alert.Clear:
		_, _ = m.presenter.Act(ctx, r.Area, a)
		log.Info("Alert cleared", "area", a.AreaKey, "state", a.State)
	case alert.Suppress:
		log.Debug("Alert suppressed by cooldown", "area", a.AreaKey, "state", a.State, "next_alert_at", a.NextAlertAt)
	}

	if history.Recorded(a.Kind) {
		ev := m.history.Add(history.FromAction(r.Area, a))
		if m.notifier != nil {
			m.notifier.Add(ev)
		}
	}
	if engine := m.scheduler.Engine(); engine != nil {
		m.metrics.SetActiveAlerts(engine.Store().Len())
	}
}

// Settings returns the settings store.
func (m *Manager) Settings() *settings.Store { return m.settings }

// Presenter returns the presenter.
func (m *Manager) Presenter() *presenter.Presenter { return m.presenter }

// History returns the alert history.
func (m *Manager) History() *history.Store { return m.history }

// Metrics returns the metrics collectors.
func (m *Manager) Metrics() *metrics.Metrics { return m.metrics }

// Status summarizes the monitor.
type Status struct {
	Enabled      bool             `json:"enabled"`
	Running      bool             `json:"running"`
	Areas        int              `json:"areas"`
	ActiveAlerts int              `json:"activeAlerts"`
	Generation   uint64           `json:"generation"`
	LastSound    time.Time        `json:"lastSound,omitzero"`
	Banner       presenter.Banner `json:"banner"`
}

// Status returns the current monitor status.
func (m *Manager) Status() Status {
	rs := m.state.Load()
	st := Status{
		Enabled: rs.cfg.Enabled,
		Running: rs.running,
		Areas:   len(rs.cfg.WatchAreas),
	}

	st.Generation = m.scheduler.Generation()
	if engine := m.scheduler.Engine(); engine != nil {
		st.ActiveAlerts = engine.Store().Len()
	}
	st.LastSound = m.presenter.LastPlayed()
	st.Banner = m.presenter.Banner()
	return st
}

// Alert is the tracked alert of one area.
type Alert struct {
	AreaKey       string    `json:"areaKey"`
	State         string    `json:"state"`
	Color         string    `json:"color"`
	LastAlertTime time.Time `json:"lastAlertTime"`
	NextAlertAt   time.Time `json:"nextAlertAt"`
}

// Alerts lists the areas currently in alert, ordered by area key.
func (m *Manager) Alerts() []Alert {
	engine := m.scheduler.Engine()
	if engine == nil {
		return []Alert{}
	}
	snap := engine.Store().Snapshot()
	out := make([]Alert, 0, len(snap))
	for key, st := range snap {
		out = append(out, Alert{
			AreaKey:       key,
			State:         st.Color.String(),
			Color:         st.RGB.String(),
			LastAlertTime: st.LastAlertTime,
			NextAlertAt:   st.LastAlertTime.Add(engine.Cooldown()),
		})
	}
	slices.SortFunc(out, func(a, b Alert) int { return strings.Compare(a.AreaKey, b.AreaKey) })
	return out
}

// AddArea appends a watch area to the saved configuration.
func (m *Manager) AddArea(area alert.WatchArea) (settings.Configuration, error) {
	if !area.Valid() {
		return settings.Configuration{}, apperrors.Newf(apperrors.InvalidArgument, "area %s has no size", area.Key())
	}
	return m.settings.Update(func(c *settings.Configuration) error {
		if c.HasArea(area.Key()) {
			return apperrors.Newf(apperrors.InvalidArgument, "area %s is already watched", area.Key())
		}
		c.WatchAreas = append(c.WatchAreas, area)
		return nil
	})
}

// RemoveArea deletes the watch area with key from the saved configuration.
func (m *Manager) RemoveArea(key string) (settings.Configuration, error) {
	return m.settings.Update(func(c *settings.Configuration) error {
		i := slices.IndexFunc(c.WatchAreas, func(a alert.WatchArea) bool { return a.Key() == key })
		if i < 0 {
			return apperrors.Newf(apperrors.NotFound, "area %s is not watched", key)
		}
		c.WatchAreas = slices.Delete(c.WatchAreas, i, i+1)
		return nil
	})
}

// SetEnabled turns monitoring on or off and persists the choice.
func (m *Manager) SetEnabled(enabled bool) (settings.Configuration, error) {
	return m.settings.Update(func(c *settings.Configuration) error {
		c.Enabled = enabled
		return nil
	})
}

// PickColor samples the single screen pixel at (x, y).
func (m *Manager) PickColor(ctx context.Context, x, y int) (colorutil.RGB, error) {
	ctx, cancel := context.WithTimeout(ctx, config.Seconds(m.cfg.CaptureTimeout))
	defer cancel()
	img, err := m.capturer.CaptureRegion(ctx, image.Rect(x, y, x+1, y+1))
	if err != nil {
		return colorutil.RGB{}, err
	}
	b := img.Bounds()
	if b.Empty() {
		return colorutil.RGB{}, apperrors.New(apperrors.CaptureFailed, "empty capture")
	}
	c := img.RGBAAt(b.Min.X, b.Min.Y)
	return colorutil.RGB{R: c.R, G: c.G, B: c.B}, nil
}
