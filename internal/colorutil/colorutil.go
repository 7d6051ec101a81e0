// Package colorutil classifies sampled screen colors against alert reference colors.
package colorutil

import (
	"fmt"
	"strconv"
	"strings"
)

// DefaultTolerance is the per-channel difference under which two colors match.
const DefaultTolerance = 30

// RGB holds an 8-bit color value.
type RGB struct {
	R, G, B uint8
}

// String renders the color in CSS functional notation, e.g. "rgb(245, 54, 54)".
func (c RGB) String() string {
	return fmt.Sprintf("rgb(%d, %d, %d)", c.R, c.G, c.B)
}

// Hex renders the color as #rrggbb.
func (c RGB) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// Diff is the absolute per-channel difference between two colors.
type Diff struct {
	DR, DG, DB int
	Total      int
}

// Difference returns the absolute per-channel difference between c1 and c2.
func Difference(c1, c2 RGB) Diff {
	d := Diff{
		DR: absDiff(c1.R, c2.R),
		DG: absDiff(c1.G, c2.G),
		DB: absDiff(c1.B, c2.B),
	}
	d.Total = d.DR + d.DG + d.DB
	return d
}

// IsRedDominant reports whether c reads as a saturated red.
func IsRedDominant(c RGB) bool {
	return c.R > 150 && c.G < 100 && c.B < 100
}

// IsYellowDominant reports whether c reads as a saturated yellow/amber.
func IsYellowDominant(c RGB) bool {
	return c.R > 200 && c.G > 150 && c.B < 100
}

// IsSimilar reports whether candidate matches reference within DefaultTolerance.
func IsSimilar(candidate, reference RGB) bool {
	return IsSimilarTol(candidate, reference, DefaultTolerance)
}

// IsSimilarTol reports whether every channel of candidate is strictly within
// tolerance of reference. Saturated references get wider tolerance on their
// dominant channels: red doubles the red tolerance, yellow widens red and
// green by 1.5. Only the reference selects the multiplier, so the relation
// is not symmetric.
func IsSimilarTol(candidate, reference RGB, tolerance float64) bool {
	tr, tg, tb := tolerance, tolerance, tolerance
	switch {
	case IsRedDominant(reference):
		tr *= 2
	case IsYellowDominant(reference):
		tr *= 1.5
		tg *= 1.5
	}

	d := Difference(candidate, reference)
	return float64(d.DR) < tr && float64(d.DG) < tg && float64(d.DB) < tb
}

// Parse reads a color in "rgb(r, g, b)", "rgba(r, g, b, a)", "#rrggbb" or
// "#rgb" notation. The alpha component of rgba is ignored.
func Parse(s string) (RGB, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	switch {
	case strings.HasPrefix(s, "#"):
		return parseHex(s[1:])
	case strings.HasPrefix(s, "rgba(") && strings.HasSuffix(s, ")"):
		parts := strings.Split(s[5:len(s)-1], ",")
		if len(parts) != 4 {
			return RGB{}, fmt.Errorf("invalid rgba color %q", s)
		}
		return parseChannels(parts[:3], s)
	case strings.HasPrefix(s, "rgb(") && strings.HasSuffix(s, ")"):
		parts := strings.Split(s[4:len(s)-1], ",")
		if len(parts) != 3 {
			return RGB{}, fmt.Errorf("invalid rgb color %q", s)
		}
		return parseChannels(parts, s)
	}
	return RGB{}, fmt.Errorf("unsupported color notation %q", s)
}

// MustParse is Parse for package-level constants; it panics on bad input.
func MustParse(s string) RGB {
	c, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return c
}

func parseChannels(parts []string, src string) (RGB, error) {
	var ch [3]uint8
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || v < 0 || v > 255 {
			return RGB{}, fmt.Errorf("invalid channel %q in %q", strings.TrimSpace(p), src)
		}
		ch[i] = uint8(v)
	}
	return RGB{R: ch[0], G: ch[1], B: ch[2]}, nil
}

func parseHex(h string) (RGB, error) {
	if len(h) == 3 {
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	}
	if len(h) != 6 {
		return RGB{}, fmt.Errorf("invalid hex color %q", "#"+h)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return RGB{}, fmt.Errorf("invalid hex color %q: %w", "#"+h, err)
	}
	return RGB{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v)}, nil
}

func absDiff(a, b uint8) int {
	if a > b {
		return int(a - b)
	}
	return int(b - a)
}
