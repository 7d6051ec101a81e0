package audio

import (
	"context"
	"log/slog"
	"sync"

	"github.com/gordonklaus/portaudio"
)

const framesPerBuffer = 1024 // ~23ms at 44100Hz

// Output owns the portaudio session.
type Output struct {
	mu     sync.Mutex
	closed bool
}

// OpenOutput initializes portaudio.
func OpenOutput() (*Output, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, err
	}
	return &Output{}, nil
}

// Close terminates portaudio.
func (o *Output) Close() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return
	}
	o.closed = true
	_ = portaudio.Terminate()
}

// Player plays one clip on the default output device.
type Player struct {
	name string
	cur  *cursor

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
	open   func(rate int, buf []float32) (stream, error)
}

// stream is the part of portaudio.Stream the player uses.
type stream interface {
	Start() error
	Write() error
	Stop() error
	Close() error
}

// NewPlayer creates a player for clip.
func (o *Output) NewPlayer(name string, clip Clip) *Player {
	return newPlayer(name, clip, openDefault)
}

func newPlayer(name string, clip Clip, open func(rate int, buf []float32) (stream, error)) *Player {
	return &Player{name: name, cur: &cursor{clip: clip}, open: open}
}

func openDefault(rate int, buf []float32) (stream, error) {
	return portaudio.OpenDefaultStream(0, 1, float64(rate), len(buf), buf)
}

// Play starts playback from the current position. Playing an already playing
// handle is a no-op; a finished clip restarts from the beginning.
func (p *Player) Play() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		return nil
	}
	if p.cur.done() {
		p.cur.rewind()
	}

	buf := make([]float32, framesPerBuffer)
	s, err := p.open(p.cur.clip.SampleRate, buf)
	if err != nil {
		return err
	}
	if err := s.Start(); err != nil {
		s.Close()
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	p.cancel, p.done = cancel, done

	go func() {
		defer close(done)
		defer func() {
			_ = s.Stop()
			_ = s.Close()
		}()
		for {
			select {
			case <-ctx.Done():
				return
			default:
			}
			if p.cur.fill(buf) == 0 {
				p.finished(done)
				return
			}
			if err := s.Write(); err != nil {
				slog.Debug("audio write error", "sound", p.name, "error", err)
				p.finished(done)
				return
			}
		}
	}()
	return nil
}

// finished clears the running state if it still belongs to this run.
func (p *Player) finished(done chan struct{}) {
	p.mu.Lock()
	if p.done == done {
		p.cancel, p.done = nil, nil
	}
	p.mu.Unlock()
}

// Pause stops playback and keeps the position.
func (p *Player) Pause() {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.cancel, p.done = nil, nil
	p.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Reset rewinds to the start.
func (p *Player) Reset() {
	p.cur.rewind()
}

// Playing reports whether playback is in progress.
func (p *Player) Playing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cancel != nil
}

// Position returns the current sample offset.
func (p *Player) Position() int {
	return p.cur.position()
}
