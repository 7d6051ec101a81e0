// Package sampler reduces a captured frame to its most frequent colors.
package sampler

import (
	"image"
	"math"
	"sort"

	"golang.org/x/image/draw"

	"github.com/GriffinCanCode/alertwatch/internal/colorutil"
)

const (
	// MaxSamples is the number of distinct colors kept per frame.
	MaxSamples = 10

	// MinAlpha is the lowest alpha a pixel needs to be analyzed.
	MinAlpha = 128
)

// ColorSample is one distinct color observed in a frame.
type ColorSample struct {
	RGB        colorutil.RGB
	Count      int
	Percentage float64 // of all pixels in the frame, 2 decimals
}

// Result is the outcome of analyzing one frame.
type Result struct {
	Samples  []ColorSample
	Total    int // width * height
	Analyzed int // pixels that were counted
	Ignored  int // transparent or background pixels
	Distinct int // distinct analyzed colors before truncation
}

// Sample returns the top colors of img, most frequent first.
func Sample(img image.Image) []ColorSample {
	return Analyze(img).Samples
}

// Analyze walks every pixel of img and returns its color statistics.
func Analyze(img image.Image) Result {
	rgba, ok := img.(*image.RGBA)
	if !ok {
		b := img.Bounds()
		rgba = image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	}
	b := rgba.Bounds()
	w, h := b.Dx(), b.Dy()

	acc := newAccumulator(w * h)
	for y := 0; y < h; y++ {
		row := rgba.Pix[y*rgba.Stride : y*rgba.Stride+w*4]
		acc.addRow(row)
	}
	return acc.result()
}

// SamplePixels is Sample for a raw RGBA buffer laid out row-major without padding.
func SamplePixels(pix []byte, width, height int) []ColorSample {
	return AnalyzePixels(pix, width, height).Samples
}

// AnalyzePixels is Analyze for a raw RGBA buffer laid out row-major without padding.
func AnalyzePixels(pix []byte, width, height int) Result {
	if width <= 0 || height <= 0 {
		return Result{}
	}
	acc := newAccumulator(width * height)
	n := min(len(pix), width*height*4)
	acc.addRow(pix[:n-n%4])
	return acc.result()
}

type accumulator struct {
	total    int
	ignored  int
	analyzed int
	counts   map[colorutil.RGB]int
	order    []colorutil.RGB
}

func newAccumulator(total int) *accumulator {
	return &accumulator{total: total, counts: make(map[colorutil.RGB]int)}
}

func (a *accumulator) addRow(row []byte) {
	for i := 0; i+3 < len(row); i += 4 {
		if row[i+3] < MinAlpha {
			a.ignored++
			continue
		}
		c := colorutil.RGB{R: row[i], G: row[i+1], B: row[i+2]}
		if colorutil.ShouldIgnore(c) {
			a.ignored++
			continue
		}
		n, seen := a.counts[c]
		if !seen {
			a.order = append(a.order, c)
		}
		a.counts[c] = n + 1
		a.analyzed++
	}
}

func (a *accumulator) result() Result {
	res := Result{
		Total:    a.total,
		Analyzed: a.analyzed,
		Ignored:  a.ignored,
		Distinct: len(a.order),
	}
	if a.analyzed == 0 || a.total == 0 {
		return res
	}

	// Ties keep first-seen order.
	sort.SliceStable(a.order, func(i, j int) bool {
		return a.counts[a.order[i]] > a.counts[a.order[j]]
	})

	top := a.order[:min(len(a.order), MaxSamples)]
	res.Samples = make([]ColorSample, 0, len(top))
	for _, c := range top {
		count := a.counts[c]
		res.Samples = append(res.Samples, ColorSample{
			RGB:        c,
			Count:      count,
			Percentage: round2(float64(count) / float64(a.total) * 100),
		})
	}
	return res
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
