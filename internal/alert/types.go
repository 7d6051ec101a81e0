// Package alert decides when a watch area's color change is worth an alert.
package alert

import (
	"fmt"
	"time"

	"github.com/GriffinCanCode/alertwatch/internal/colorutil"
)

// State is the alert level of a watch area.
type State int

const (
	None State = iota
	Yellow
	Red
)

func (s State) String() string {
	switch s {
	case Yellow:
		return "YELLOW"
	case Red:
		return "RED"
	default:
		return "NONE"
	}
}

// ParseState reads the String form of a State.
func ParseState(s string) (State, error) {
	switch s {
	case "YELLOW":
		return Yellow, nil
	case "RED":
		return Red, nil
	case "NONE", "":
		return None, nil
	}
	return None, fmt.Errorf("unknown alert state %q", s)
}

// WatchArea is a pixel rectangle in screen coordinates.
type WatchArea struct {
	X      int `json:"x" yaml:"x"`
	Y      int `json:"y" yaml:"y"`
	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`
}

// Key identifies the area for alert tracking.
func (a WatchArea) Key() string {
	return fmt.Sprintf("%d-%d-%d-%d", a.X, a.Y, a.Width, a.Height)
}

// Valid reports whether the area has a positive size.
func (a WatchArea) Valid() bool {
	return a.Width > 0 && a.Height > 0
}

// Pixels is the area in pixels.
func (a WatchArea) Pixels() int {
	return a.Width * a.Height
}

// AlertState is the tracked alert of one area. Areas without an entry are None.
type AlertState struct {
	Color         State
	RGB           colorutil.RGB
	LastAlertTime time.Time
}

// ReferenceColor is a color that maps to an alert state and its sound.
type ReferenceColor struct {
	State     State
	RGB       colorutil.RGB
	SoundFile string
}

// Sound asset names per state.
const (
	YellowSoundFile = "sound_attention.wav"
	RedSoundFile    = "sound_alert.wav"
)

// ReferenceColorSet holds the configured alert colors.
type ReferenceColorSet struct {
	Red    ReferenceColor
	Yellow ReferenceColor
}

// NewReferenceColorSet derives the reference set from the configured colors.
func NewReferenceColorSet(yellow, red colorutil.RGB) ReferenceColorSet {
	return ReferenceColorSet{
		Red:    ReferenceColor{State: Red, RGB: red, SoundFile: RedSoundFile},
		Yellow: ReferenceColor{State: Yellow, RGB: yellow, SoundFile: YellowSoundFile},
	}
}

// Lookup returns the reference color for state.
func (r ReferenceColorSet) Lookup(s State) (ReferenceColor, bool) {
	switch s {
	case Red:
		return r.Red, true
	case Yellow:
		return r.Yellow, true
	}
	return ReferenceColor{}, false
}

// States lists the alert states in match priority order.
func (r ReferenceColorSet) States() []ReferenceColor {
	return []ReferenceColor{r.Red, r.Yellow}
}

// ActionKind is what the engine decided for one tick of one area.
type ActionKind int

const (
	NoOp ActionKind = iota
	Fire
	Suppress
	Clear
)

func (k ActionKind) String() string {
	return [...]string{"noop", "fire", "suppress", "clear"}[k]
}

// Action is the engine's output for one area and tick.
type Action struct {
	Kind        ActionKind
	AreaKey     string
	State       State         // alert state the action refers to; for Clear, the cleared state
	RGB         colorutil.RGB // reference color of State
	At          time.Time
	NextAlertAt time.Time // earliest re-fire for the same color; zero unless Fire or Suppress
}
