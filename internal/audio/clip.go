// Package audio plays the alert sounds.
package audio

import (
	"math"
	"sync"
	"time"
)

// DefaultSampleRate is used for synthesized tones and the output stream.
const DefaultSampleRate = 44100

// Handle is one playable sound. Play resumes from the current position.
type Handle interface {
	Play() error
	Pause()
	Reset()
}

// Clip is mono PCM audio in [-1, 1].
type Clip struct {
	Samples    []float32
	SampleRate int
}

// Duration returns the clip length.
func (c Clip) Duration() time.Duration {
	if c.SampleRate == 0 {
		return 0
	}
	return time.Duration(len(c.Samples)) * time.Second / time.Duration(c.SampleRate)
}

// cursor tracks the playback position of a clip.
type cursor struct {
	mu   sync.Mutex
	clip Clip
	pos  int
}

// fill copies the next samples into dst, zero-padding past the end.
// It returns the number of real samples written.
func (c *cursor) fill(dst []float32) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := copy(dst, c.clip.Samples[c.pos:])
	c.pos += n
	clear(dst[n:])
	return n
}

func (c *cursor) done() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pos >= len(c.clip.Samples)
}

func (c *cursor) rewind() {
	c.mu.Lock()
	c.pos = 0
	c.mu.Unlock()
}

func (c *cursor) position() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pos
}

// beep describes one tone burst.
type beep struct {
	freq float64
	dur  time.Duration
	gap  time.Duration
}

const fade = 5 * time.Millisecond

// synthesize renders beeps as sine bursts with short linear fades.
func synthesize(rate int, volume float64, beeps ...beep) Clip {
	var out []float32
	fadeN := int(fade.Seconds() * float64(rate))
	for _, b := range beeps {
		n := int(b.dur.Seconds() * float64(rate))
		for i := 0; i < n; i++ {
			env := 1.0
			if i < fadeN {
				env = float64(i) / float64(fadeN)
			} else if n-i < fadeN {
				env = float64(n-i) / float64(fadeN)
			}
			v := volume * env * math.Sin(2*math.Pi*b.freq*float64(i)/float64(rate))
			out = append(out, float32(v))
		}
		out = append(out, make([]float32, int(b.gap.Seconds()*float64(rate)))...)
	}
	return Clip{Samples: out, SampleRate: rate}
}

// AttentionTone is the YELLOW cue: a rising two-note chime.
func AttentionTone(rate int) Clip {
	return synthesize(rate, 0.5,
		beep{freq: 660, dur: 150 * time.Millisecond, gap: 60 * time.Millisecond},
		beep{freq: 880, dur: 220 * time.Millisecond},
	)
}

// AlertTone is the RED cue: three urgent beeps.
func AlertTone(rate int) Clip {
	b := beep{freq: 988, dur: 120 * time.Millisecond, gap: 80 * time.Millisecond}
	return synthesize(rate, 0.6, b, b, b)
}
