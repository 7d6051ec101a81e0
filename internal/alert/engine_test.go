package alert

import (
	"testing"
	"time"

	"github.com/GriffinCanCode/alertwatch/internal/colorutil"
	"github.com/GriffinCanCode/alertwatch/internal/sampler"
)

var (
	red    = colorutil.RGB{R: 196, G: 22, B: 42}
	yellow = colorutil.RGB{R: 250, G: 176, B: 5}
	refs   = NewReferenceColorSet(yellow, red)
	t0     = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
)

func TestFindSignificantColor(t *testing.T) {
	tests := []struct {
		name      string
		samples   []sampler.ColorSample
		wantState State
		wantFound bool
	}{
		{
			name:      "empty",
			samples:   nil,
			wantFound: false,
		},
		{
			name:      "exact red at 30 percent",
			samples:   []sampler.ColorSample{{RGB: red, Count: 300, Percentage: 30}},
			wantState: Red,
			wantFound: true,
		},
		{
			name:      "near yellow",
			samples:   []sampler.ColorSample{{RGB: colorutil.RGB{R: 240, G: 170, B: 10}, Count: 500}},
			wantState: Yellow,
			wantFound: true,
		},
		{
			name:      "below pixel threshold",
			samples:   []sampler.ColorSample{{RGB: red, Count: 99}},
			wantFound: false,
		},
		{
			name: "first qualifying sample wins",
			samples: []sampler.ColorSample{
				{RGB: colorutil.RGB{R: 10, G: 200, B: 10}, Count: 900},
				{RGB: yellow, Count: 400},
				{RGB: red, Count: 300},
			},
			wantState: Yellow,
			wantFound: true,
		},
		{
			name: "small frequent match skipped for larger later one",
			samples: []sampler.ColorSample{
				{RGB: red, Count: 50},
				{RGB: yellow, Count: 150},
			},
			wantState: Yellow,
			wantFound: true,
		},
		{
			name:      "unrelated color",
			samples:   []sampler.ColorSample{{RGB: colorutil.RGB{R: 50, G: 120, B: 200}, Count: 1000}},
			wantFound: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ref, found := FindSignificantColor(tt.samples, refs, DefaultMinPixels)
			if found != tt.wantFound {
				t.Fatalf("found = %v, want %v", found, tt.wantFound)
			}
			if found && ref.State != tt.wantState {
				t.Errorf("state = %v, want %v", ref.State, tt.wantState)
			}
		})
	}
}

func TestFindSignificantColorRedCheckedFirst(t *testing.T) {
	// Both references equal: the sample matches both, red must win.
	same := NewReferenceColorSet(red, red)
	ref, found := FindSignificantColor([]sampler.ColorSample{{RGB: red, Count: 200}}, same, 100)
	if !found || ref.State != Red {
		t.Errorf("FindSignificantColor = (%v, %v), want (RED, true)", ref.State, found)
	}
}

func TestFindSignificantReturnsReference(t *testing.T) {
	near := colorutil.RGB{R: 200, G: 25, B: 40}
	ref, found := FindSignificantColor([]sampler.ColorSample{{RGB: near, Count: 200}}, refs, 100)
	if !found || ref.RGB != red {
		t.Errorf("RGB = %v, want reference %v", ref.RGB, red)
	}
}

func TestDecideFireSuppressRefire(t *testing.T) {
	e := NewEngine(refs, Config{})
	sig := refs.Red

	a := e.Decide("a", sig, true, t0)
	if a.Kind != Fire || a.State != Red {
		t.Fatalf("first tick = %v %v, want fire RED", a.Kind, a.State)
	}
	if !a.NextAlertAt.Equal(t0.Add(5 * time.Minute)) {
		t.Errorf("NextAlertAt = %v, want %v", a.NextAlertAt, t0.Add(5*time.Minute))
	}

	a = e.Decide("a", sig, true, t0.Add(time.Second))
	if a.Kind != Suppress {
		t.Errorf("second tick = %v, want suppress", a.Kind)
	}

	a = e.Decide("a", sig, true, t0.Add(5*time.Minute-time.Millisecond))
	if a.Kind != Suppress {
		t.Errorf("tick just before cooldown = %v, want suppress", a.Kind)
	}

	a = e.Decide("a", sig, true, t0.Add(5*time.Minute+time.Millisecond))
	if a.Kind != Fire {
		t.Errorf("tick after cooldown = %v, want fire", a.Kind)
	}

	st, ok := e.Store().Get("a")
	if !ok || !st.LastAlertTime.Equal(t0.Add(5*time.Minute+time.Millisecond)) {
		t.Errorf("LastAlertTime = %v, want refreshed", st.LastAlertTime)
	}
}

func TestDecideColorChangeFiresImmediately(t *testing.T) {
	e := NewEngine(refs, Config{})

	e.Decide("a", refs.Yellow, true, t0)
	a := e.Decide("a", refs.Red, true, t0.Add(time.Second))
	if a.Kind != Fire || a.State != Red {
		t.Errorf("yellow -> red = %v %v, want fire RED", a.Kind, a.State)
	}

	a = e.Decide("a", refs.Yellow, true, t0.Add(2*time.Second))
	if a.Kind != Fire || a.State != Yellow {
		t.Errorf("red -> yellow = %v %v, want fire YELLOW", a.Kind, a.State)
	}
}

func TestDecideClearOnce(t *testing.T) {
	e := NewEngine(refs, Config{})

	e.Decide("a", refs.Red, true, t0)
	a := e.Decide("a", ReferenceColor{}, false, t0.Add(time.Second))
	if a.Kind != Clear || a.State != Red {
		t.Errorf("clear = %v %v, want clear RED", a.Kind, a.State)
	}
	if _, ok := e.Store().Get("a"); ok {
		t.Error("state should be removed after clear")
	}

	a = e.Decide("a", ReferenceColor{}, false, t0.Add(2*time.Second))
	if a.Kind != NoOp {
		t.Errorf("second empty tick = %v, want noop", a.Kind)
	}
}

func TestDecideAreasIndependent(t *testing.T) {
	e := NewEngine(refs, Config{})

	e.Decide("a", refs.Red, true, t0)
	if a := e.Decide("b", refs.Red, true, t0.Add(time.Second)); a.Kind != Fire {
		t.Errorf("other area = %v, want fire", a.Kind)
	}
	if e.Store().Len() != 2 {
		t.Errorf("Len() = %d, want 2", e.Store().Len())
	}
}

func TestDecideCustomCooldown(t *testing.T) {
	e := NewEngine(refs, Config{Cooldown: 10 * time.Second})

	e.Decide("a", refs.Yellow, true, t0)
	if a := e.Decide("a", refs.Yellow, true, t0.Add(10*time.Second)); a.Kind != Fire {
		t.Errorf("at cooldown boundary = %v, want fire", a.Kind)
	}
}

func TestEvaluate(t *testing.T) {
	e := NewEngine(refs, Config{})
	frame := []sampler.ColorSample{{RGB: red, Count: 10000, Percentage: 100}}

	steps := []struct {
		at   time.Duration
		want ActionKind
	}{
		{0, Fire},
		{time.Second, Suppress},
		{301 * time.Second, Fire},
	}
	for _, s := range steps {
		if a := e.Evaluate("area", frame, t0.Add(s.at)); a.Kind != s.want {
			t.Errorf("t=%v: %v, want %v", s.at, a.Kind, s.want)
		}
	}
}

func TestStoreOperations(t *testing.T) {
	s := NewStore()
	st := AlertState{Color: Red, RGB: red, LastAlertTime: t0}

	if !s.Insert("k", st) {
		t.Error("Insert on new key should succeed")
	}
	if s.Insert("k", st) {
		t.Error("Insert on existing key should fail")
	}
	if s.Update("missing", st) {
		t.Error("Update on missing key should fail")
	}
	st.Color = Yellow
	if !s.Update("k", st) {
		t.Error("Update on existing key should succeed")
	}
	if got, _ := s.Get("k"); got.Color != Yellow {
		t.Errorf("Color = %v, want YELLOW", got.Color)
	}
	if _, ok := s.Remove("k"); !ok {
		t.Error("Remove should report removed")
	}
	if s.Len() != 0 {
		t.Errorf("Len() = %d, want 0", s.Len())
	}
}

func TestWatchAreaKey(t *testing.T) {
	a := WatchArea{X: 10, Y: 20, Width: 300, Height: 40}
	if a.Key() != "10-20-300-40" {
		t.Errorf("Key() = %q, want %q", a.Key(), "10-20-300-40")
	}
	if !a.Valid() || (WatchArea{Width: 0, Height: 5}).Valid() {
		t.Error("Valid() mismatch")
	}
}

func TestStateString(t *testing.T) {
	for _, s := range []State{None, Yellow, Red} {
		got, err := ParseState(s.String())
		if err != nil || got != s {
			t.Errorf("ParseState(%q) = (%v, %v), want %v", s.String(), got, err, s)
		}
	}
	if _, err := ParseState("BLUE"); err == nil {
		t.Error("ParseState(BLUE) should fail")
	}
}
