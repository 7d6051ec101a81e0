// Package settings holds the user configuration: which areas to watch, the
// alert colors and the sound throttle. It is persisted as YAML.
package settings

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/GriffinCanCode/alertwatch/internal/alert"
	"github.com/GriffinCanCode/alertwatch/internal/colorutil"
)

// Defaults applied when a field is missing or invalid.
const (
	DefaultYellowColor  = "rgb(250, 176, 5)"
	DefaultRedColor     = "rgb(245, 54, 54)"
	DefaultSoundDelayMS = 2000
)

// Configuration is the user-facing configuration.
type Configuration struct {
	Enabled      bool              `yaml:"enabled" json:"enabled"`
	WatchAreas   []alert.WatchArea `yaml:"watch_areas" json:"watchAreas"`
	YellowColor  string            `yaml:"yellow_color" json:"yellowColor"`
	RedColor     string            `yaml:"red_color" json:"redColor"`
	SoundDelayMS int               `yaml:"sound_delay_ms" json:"soundDelayMs"`
}

// Default returns the configuration used on first start.
func Default() Configuration {
	return Configuration{
		Enabled:      true,
		WatchAreas:   []alert.WatchArea{},
		YellowColor:  DefaultYellowColor,
		RedColor:     DefaultRedColor,
		SoundDelayMS: DefaultSoundDelayMS,
	}
}

// SoundDelay is the minimum gap between two sounds.
func (c Configuration) SoundDelay() time.Duration {
	return time.Duration(c.SoundDelayMS) * time.Millisecond
}

// References derives the reference color set.
func (c Configuration) References() (alert.ReferenceColorSet, error) {
	yellow, err := colorutil.Parse(c.YellowColor)
	if err != nil {
		return alert.ReferenceColorSet{}, fmt.Errorf("yellow_color: %w", err)
	}
	red, err := colorutil.Parse(c.RedColor)
	if err != nil {
		return alert.ReferenceColorSet{}, fmt.Errorf("red_color: %w", err)
	}
	return alert.NewReferenceColorSet(yellow, red), nil
}

// Validate returns every problem found, joined.
func (c Configuration) Validate() error {
	var problems []string
	if _, err := colorutil.Parse(c.YellowColor); err != nil {
		problems = append(problems, "yellow_color: "+err.Error())
	}
	if _, err := colorutil.Parse(c.RedColor); err != nil {
		problems = append(problems, "red_color: "+err.Error())
	}
	if c.SoundDelayMS <= 0 {
		problems = append(problems, fmt.Sprintf("sound_delay_ms: must be positive, got %d", c.SoundDelayMS))
	}
	seen := make(map[string]bool, len(c.WatchAreas))
	for i, a := range c.WatchAreas {
		switch {
		case !a.Valid():
			problems = append(problems, fmt.Sprintf("watch_areas[%d]: width and height must be positive", i))
		case seen[a.Key()]:
			problems = append(problems, fmt.Sprintf("watch_areas[%d]: duplicate area %s", i, a.Key()))
		}
		seen[a.Key()] = true
	}
	if len(problems) > 0 {
		return fmt.Errorf("%s", strings.Join(problems, "; "))
	}
	return nil
}

// Clone returns a deep copy.
func (c Configuration) Clone() Configuration {
	c.WatchAreas = slices.Clone(c.WatchAreas)
	if c.WatchAreas == nil {
		c.WatchAreas = []alert.WatchArea{}
	}
	return c
}

// Equal reports whether two configurations are identical.
func (c Configuration) Equal(o Configuration) bool {
	return c.Enabled == o.Enabled &&
		c.YellowColor == o.YellowColor &&
		c.RedColor == o.RedColor &&
		c.SoundDelayMS == o.SoundDelayMS &&
		slices.Equal(c.WatchAreas, o.WatchAreas)
}

// HasArea reports whether an area with key is watched.
func (c Configuration) HasArea(key string) bool {
	return slices.ContainsFunc(c.WatchAreas, func(a alert.WatchArea) bool { return a.Key() == key })
}

// rawConfiguration mirrors the file with optional fields so that missing
// values can be told apart from zero values.
type rawConfiguration struct {
	Enabled      *bool             `yaml:"enabled"`
	WatchAreas   []alert.WatchArea `yaml:"watch_areas"`
	YellowColor  *string           `yaml:"yellow_color"`
	RedColor     *string           `yaml:"red_color"`
	SoundDelayMS *int              `yaml:"sound_delay_ms"`
}

// parseRaw decodes every top-level key on its own so that a value of the
// wrong type only costs that field. Unknown keys are ignored.
func parseRaw(data []byte) (rawConfiguration, []string, error) {
	var raw rawConfiguration
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return raw, nil, fmt.Errorf("%w: %w", errUnparsable, err)
	}
	if len(doc.Content) == 0 {
		return raw, nil, nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return raw, nil, fmt.Errorf("%w: line %d", errUnparsable, root.Line)
	}

	var problems []string
	for i := 0; i+1 < len(root.Content); i += 2 {
		key, val := root.Content[i].Value, root.Content[i+1]
		if val.ShortTag() == "!!null" {
			continue
		}
		switch key {
		case "enabled":
			raw.Enabled = decodeField[bool](val, key, &problems)
		case "yellow_color":
			raw.YellowColor = decodeField[string](val, key, &problems)
		case "red_color":
			raw.RedColor = decodeField[string](val, key, &problems)
		case "sound_delay_ms":
			raw.SoundDelayMS = decodeField[int](val, key, &problems)
		case "watch_areas":
			raw.WatchAreas = decodeAreas(val, &problems)
		}
	}
	return raw, problems, nil
}

func decodeField[T any](n *yaml.Node, key string, problems *[]string) *T {
	var v T
	if err := n.Decode(&v); err != nil {
		*problems = append(*problems, key+": "+err.Error())
		return nil
	}
	return &v
}

func decodeAreas(n *yaml.Node, problems *[]string) []alert.WatchArea {
	if n.Kind != yaml.SequenceNode {
		*problems = append(*problems, fmt.Sprintf("watch_areas: line %d: expected a list", n.Line))
		return nil
	}
	areas := make([]alert.WatchArea, 0, len(n.Content))
	for i, item := range n.Content {
		var a alert.WatchArea
		if err := item.Decode(&a); err != nil {
			*problems = append(*problems, fmt.Sprintf("watch_areas[%d]: %v", i, err))
			continue
		}
		areas = append(areas, a)
	}
	return areas
}

// resolve fills defaults field by field and collects what was invalid.
func (r rawConfiguration) resolve() (Configuration, []string) {
	cfg := Default()
	var problems []string

	if r.Enabled != nil {
		cfg.Enabled = *r.Enabled
	}
	if r.YellowColor != nil {
		if _, err := colorutil.Parse(*r.YellowColor); err != nil {
			problems = append(problems, "yellow_color: "+err.Error())
		} else {
			cfg.YellowColor = *r.YellowColor
		}
	}
	if r.RedColor != nil {
		if _, err := colorutil.Parse(*r.RedColor); err != nil {
			problems = append(problems, "red_color: "+err.Error())
		} else {
			cfg.RedColor = *r.RedColor
		}
	}
	if r.SoundDelayMS != nil {
		if *r.SoundDelayMS <= 0 {
			problems = append(problems, fmt.Sprintf("sound_delay_ms: %d is not positive", *r.SoundDelayMS))
		} else {
			cfg.SoundDelayMS = *r.SoundDelayMS
		}
	}
	seen := make(map[string]bool, len(r.WatchAreas))
	for i, a := range r.WatchAreas {
		if !a.Valid() {
			problems = append(problems, fmt.Sprintf("watch_areas[%d]: dropped area %s with non-positive size", i, a.Key()))
			continue
		}
		if seen[a.Key()] {
			continue
		}
		seen[a.Key()] = true
		cfg.WatchAreas = append(cfg.WatchAreas, a)
	}
	return cfg, problems
}
