// Package history keeps a bounded log of fired and cleared alerts.
package history

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/GriffinCanCode/alertwatch/internal/alert"
)

// Event is one recorded alert transition.
type Event struct {
	ID          string          `json:"id"`
	Area        alert.WatchArea `json:"area"`
	AreaKey     string          `json:"areaKey"`
	State       string          `json:"state"`
	Action      string          `json:"action"`
	Color       string          `json:"color,omitempty"`
	At          time.Time       `json:"at"`
	NextAlertAt time.Time       `json:"nextAlertAt,omitzero"`
}

// FromAction builds an event for a Fire or Clear action.
func FromAction(area alert.WatchArea, a alert.Action) Event {
	ev := Event{
		Area:        area,
		AreaKey:     a.AreaKey,
		State:       a.State.String(),
		Action:      a.Kind.String(),
		At:          a.At,
		NextAlertAt: a.NextAlertAt,
	}
	if a.State != alert.None {
		ev.Color = a.RGB.String()
	}
	return ev
}

// Recorded reports whether actions of kind are kept in history.
func Recorded(kind alert.ActionKind) bool {
	return kind == alert.Fire || kind == alert.Clear
}

// Store is an in-memory ring of recent events.
type Store struct {
	mu       sync.RWMutex
	entries  []Event
	maxSize  int
	eventsCh chan Event
	counts   map[string]int
}

// NewStore creates a store keeping at most maxEntries events.
func NewStore(maxEntries, eventBuffer int) *Store {
	if maxEntries <= 0 {
		maxEntries = 200
	}
	return &Store{
		entries:  make([]Event, 0, maxEntries),
		maxSize:  maxEntries,
		eventsCh: make(chan Event, eventBuffer),
		counts:   make(map[string]int),
	}
}

// Add assigns an ID, stores the event and emits it.
func (s *Store) Add(ev Event) Event {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.At.IsZero() {
		ev.At = time.Now()
	}

	s.mu.Lock()
	s.entries = append(s.entries, ev)
	if len(s.entries) > s.maxSize {
		s.entries = s.entries[len(s.entries)-s.maxSize:]
	}
	s.counts[ev.Action+":"+ev.State]++
	s.mu.Unlock()

	s.Emit(ev)
	return ev
}

// Recent returns up to n events, newest first. n <= 0 returns all.
func (s *Store) Recent(n int) []Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if n <= 0 || n > len(s.entries) {
		n = len(s.entries)
	}
	out := make([]Event, 0, n)
	for i := len(s.entries) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, s.entries[i])
	}
	return out
}

// ForArea returns the events of one area, newest first.
func (s *Store) ForArea(key string) []Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Event
	for i := len(s.entries) - 1; i >= 0; i-- {
		if s.entries[i].AreaKey == key {
			out = append(out, s.entries[i])
		}
	}
	return out
}

// Counts returns totals per "action:state" since start, including evicted events.
func (s *Store) Counts() map[string]int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]int, len(s.counts))
	for k, v := range s.counts {
		out[k] = v
	}
	return out
}

// Len returns the number of retained events.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Events returns the channel of added events.
func (s *Store) Events() <-chan Event {
	return s.eventsCh
}

// Emit sends an event (non-blocking).
func (s *Store) Emit(ev Event) {
	select {
	case s.eventsCh <- ev:
	default:
	}
}
