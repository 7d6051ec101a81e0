package monitor

import (
	"context"
	"image"
	"image/color"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/GriffinCanCode/alertwatch/internal/alert"
	"github.com/GriffinCanCode/alertwatch/internal/colorutil"
	"github.com/GriffinCanCode/alertwatch/internal/config"
	apperrors "github.com/GriffinCanCode/alertwatch/internal/errors"
	"github.com/GriffinCanCode/alertwatch/internal/history"
	"github.com/GriffinCanCode/alertwatch/internal/scheduler"
	"github.com/GriffinCanCode/alertwatch/internal/settings"
)

var (
	red   = color.RGBA{245, 54, 54, 255}
	panel = color.RGBA{24, 27, 31, 255}
	area  = alert.WatchArea{X: 10, Y: 10, Width: 20, Height: 20}
)

// screenCapturer paints every region with one settable color.
type screenCapturer struct {
	mu sync.Mutex
	c  color.RGBA
}

func (s *screenCapturer) set(c color.RGBA) {
	s.mu.Lock()
	s.c = c
	s.mu.Unlock()
}

func (s *screenCapturer) CaptureRegion(_ context.Context, rect image.Rectangle) (*image.RGBA, error) {
	s.mu.Lock()
	c := s.c
	s.mu.Unlock()
	img := image.NewRGBA(rect)
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	return img, nil
}

func (s *screenCapturer) Close() {}

type fakeNotifier struct {
	mu      sync.Mutex
	events  []history.Event
	stopped bool
}

func (f *fakeNotifier) Add(ev history.Event) {
	f.mu.Lock()
	f.events = append(f.events, ev)
	f.mu.Unlock()
}

func (f *fakeNotifier) Stop() {
	f.mu.Lock()
	f.stopped = true
	f.mu.Unlock()
}

func (f *fakeNotifier) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.events)
}

type fakeHealth struct{ serving atomic.Bool }

func (f *fakeHealth) SetServing(v bool) { f.serving.Store(v) }

func testConfig() *config.Config {
	return &config.Config{
		TickInterval:   0.01,
		StartupDelay:   0.001,
		CaptureTimeout: 1,
		AlertCooldown:  300,
		MinPixels:      100,
		ColorTolerance: 30,
		HistorySize:    50,
	}
}

type fixture struct {
	m        *Manager
	screen   *screenCapturer
	notifier *fakeNotifier
	health   *fakeHealth
	store    *settings.Store
	cancel   context.CancelFunc
}

func newFixture(t *testing.T, cfg settings.Configuration) *fixture {
	t.Helper()
	store := settings.NewStore(filepath.Join(t.TempDir(), "alertwatch.yaml"))
	if err := store.Save(cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}
	f := &fixture{
		screen:   &screenCapturer{c: panel},
		notifier: &fakeNotifier{},
		health:   &fakeHealth{},
		store:    store,
	}
	f.m = New(Deps{
		Config:   testConfig(),
		Settings: store,
		Capturer: f.screen,
		Notifier: f.notifier,
		Health:   f.health,
	})
	ctx, cancel := context.WithCancel(context.Background())
	f.cancel = cancel
	if err := f.m.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(func() {
		cancel()
		f.m.Stop()
	})
	return f
}

func eventually(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func watching(areas ...alert.WatchArea) settings.Configuration {
	cfg := settings.Default()
	cfg.WatchAreas = areas
	return cfg
}

func TestManagerFiresAndClears(t *testing.T) {
	f := newFixture(t, watching(area))

	eventually(t, "running", func() bool { return f.m.Status().Running })
	if !f.health.serving.Load() {
		t.Error("health not serving while running")
	}

	f.screen.set(red)
	eventually(t, "fire", func() bool { return f.m.History().Len() == 1 })

	ev := f.m.History().Recent(1)[0]
	if ev.Action != "fire" || ev.State != "RED" || ev.AreaKey != area.Key() {
		t.Errorf("history event = %+v", ev)
	}
	if alerts := f.m.Alerts(); len(alerts) != 1 || alerts[0].State != "RED" {
		t.Errorf("Alerts = %+v", alerts)
	}
	if st := f.m.Status(); st.ActiveAlerts != 1 || st.LastSound.IsZero() {
		t.Errorf("Status = %+v", st)
	}

	// Further ticks on the same color are suppressed and not recorded.
	time.Sleep(50 * time.Millisecond)
	if n := f.m.History().Len(); n != 1 {
		t.Errorf("history len = %d after cooldown ticks, want 1", n)
	}

	f.screen.set(panel)
	eventually(t, "clear", func() bool { return f.m.History().Len() == 2 })
	if ev := f.m.History().Recent(1)[0]; ev.Action != "clear" || ev.State != "RED" {
		t.Errorf("clear event = %+v", ev)
	}
	if n := f.notifier.count(); n != 2 {
		t.Errorf("notifier events = %d, want 2", n)
	}
	if len(f.m.Alerts()) != 0 {
		t.Error("alerts remain after clear")
	}
}

func TestManagerDisableStopsMonitoring(t *testing.T) {
	f := newFixture(t, watching(area))
	eventually(t, "running", func() bool { return f.m.Status().Running })
	gen := f.m.Status().Generation

	if _, err := f.m.SetEnabled(false); err != nil {
		t.Fatalf("SetEnabled: %v", err)
	}
	st := f.m.Status()
	if st.Running || st.Enabled {
		t.Errorf("Status after disable = %+v", st)
	}
	if st.Generation <= gen {
		t.Errorf("generation = %d, want > %d", st.Generation, gen)
	}
	if f.health.serving.Load() {
		t.Error("health still serving after disable")
	}

	f.screen.set(red)
	time.Sleep(50 * time.Millisecond)
	if n := f.m.History().Len(); n != 0 {
		t.Errorf("history len = %d while disabled, want 0", n)
	}

	if _, err := f.m.SetEnabled(true); err != nil {
		t.Fatalf("SetEnabled: %v", err)
	}
	eventually(t, "fire after re-enable", func() bool { return f.m.History().Len() == 1 })
}

func TestManagerAreaEditing(t *testing.T) {
	f := newFixture(t, watching())

	if _, err := f.m.AddArea(alert.WatchArea{X: 1, Y: 1}); !apperrors.IsCode(err, apperrors.InvalidArgument) {
		t.Errorf("AddArea(empty) err = %v, want InvalidArgument", err)
	}
	cfg, err := f.m.AddArea(area)
	if err != nil {
		t.Fatalf("AddArea: %v", err)
	}
	if !cfg.HasArea(area.Key()) || f.m.Status().Areas != 1 {
		t.Errorf("area not added: %+v", cfg)
	}
	if _, err := f.m.AddArea(area); !apperrors.IsCode(err, apperrors.InvalidArgument) {
		t.Errorf("duplicate AddArea err = %v, want InvalidArgument", err)
	}

	if _, err := f.m.RemoveArea("9-9-9-9"); !apperrors.IsCode(err, apperrors.NotFound) {
		t.Errorf("RemoveArea(missing) err = %v, want NotFound", err)
	}
	cfg, err = f.m.RemoveArea(area.Key())
	if err != nil {
		t.Fatalf("RemoveArea: %v", err)
	}
	if cfg.HasArea(area.Key()) || f.m.Status().Areas != 0 {
		t.Errorf("area not removed: %+v", cfg)
	}

	reloaded, _ := settings.NewStore(f.store.Path()).Load()
	if len(reloaded.WatchAreas) != 0 {
		t.Errorf("persisted areas = %v, want none", reloaded.WatchAreas)
	}
}

func TestHandleResultIgnoresStaleGeneration(t *testing.T) {
	f := newFixture(t, watching())
	f.m.HandleResult(context.Background(), scheduler.Result{
		Area:       area,
		Generation: f.m.Status().Generation + 10,
		Action:     alert.Action{Kind: alert.Fire, AreaKey: area.Key(), State: alert.Red},
	})
	if n := f.m.History().Len(); n != 0 {
		t.Errorf("history len = %d, want 0", n)
	}
	if n := f.notifier.count(); n != 0 {
		t.Errorf("notifier events = %d, want 0", n)
	}
}

func TestPickColor(t *testing.T) {
	f := newFixture(t, watching())
	f.screen.set(red)

	got, err := f.m.PickColor(context.Background(), 5, 7)
	if err != nil {
		t.Fatalf("PickColor: %v", err)
	}
	if want := (colorutil.RGB{R: 245, G: 54, B: 54}); got != want {
		t.Errorf("PickColor = %v, want %v", got, want)
	}
}

func TestStopFlushesNotifier(t *testing.T) {
	f := newFixture(t, watching())
	f.cancel()
	f.m.Stop()
	f.notifier.mu.Lock()
	stopped := f.notifier.stopped
	f.notifier.mu.Unlock()
	if !stopped {
		t.Error("notifier not stopped")
	}
	if f.health.serving.Load() {
		t.Error("health serving after Stop")
	}
}
