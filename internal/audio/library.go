package audio

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/GriffinCanCode/alertwatch/internal/alert"
)

// Library resolves the sound of an alert state.
type Library interface {
	Load(state alert.State) (Handle, error)
}

// ClipLibrary serves one cached handle per alert state.
type ClipLibrary struct {
	clips     map[alert.State]Clip
	newHandle func(name string, clip Clip) Handle

	mu      sync.Mutex
	handles map[alert.State]Handle
}

// NewLibrary loads the sound files from dir, using synthesized tones for any
// file that is missing or unreadable. An empty dir uses tones only.
func NewLibrary(dir string, out *Output) *ClipLibrary {
	return newClipLibrary(loadClips(dir), func(name string, clip Clip) Handle {
		return out.NewPlayer(name, clip)
	})
}

func newClipLibrary(clips map[alert.State]Clip, newHandle func(string, Clip) Handle) *ClipLibrary {
	return &ClipLibrary{clips: clips, newHandle: newHandle, handles: make(map[alert.State]Handle)}
}

func loadClips(dir string) map[alert.State]Clip {
	clips := map[alert.State]Clip{
		alert.Yellow: AttentionTone(DefaultSampleRate),
		alert.Red:    AlertTone(DefaultSampleRate),
	}
	if dir == "" {
		return clips
	}
	files := map[alert.State]string{
		alert.Yellow: alert.YellowSoundFile,
		alert.Red:    alert.RedSoundFile,
	}
	for state, file := range files {
		path := filepath.Join(dir, file)
		clip, err := LoadWAV(path)
		if err != nil {
			if !os.IsNotExist(err) {
				slog.Warn("Failed to load sound, using tone", "path", path, "error", err)
			}
			continue
		}
		clips[state] = clip
		slog.Debug("Loaded sound", "state", state, "path", path, "duration", clip.Duration())
	}
	return clips
}

// Load returns the handle for state, creating it on first use.
func (l *ClipLibrary) Load(state alert.State) (Handle, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if h, ok := l.handles[state]; ok {
		return h, nil
	}
	clip, ok := l.clips[state]
	if !ok {
		return nil, fmt.Errorf("no sound for state %s", state)
	}
	h := l.newHandle(state.String(), clip)
	l.handles[state] = h
	return h, nil
}

// Nop is a library whose handles are silent.
type Nop struct{}

func (Nop) Load(alert.State) (Handle, error) { return nopHandle{}, nil }

type nopHandle struct{}

func (nopHandle) Play() error { return nil }
func (nopHandle) Pause()      {}
func (nopHandle) Reset()      {}
