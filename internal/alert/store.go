package alert

import "github.com/GriffinCanCode/alertwatch/internal/syncx"

// Store holds the AlertState of every area currently in YELLOW or RED.
type Store struct {
	m *syncx.Map[string, AlertState]
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{m: syncx.NewMap[string, AlertState]()}
}

// Get returns the state tracked for key.
func (s *Store) Get(key string) (AlertState, bool) {
	return s.m.Get(key)
}

// Insert starts tracking key; it reports false if key was already tracked.
func (s *Store) Insert(key string, st AlertState) bool {
	inserted := false
	s.m.Compute(key, func(cur AlertState, ok bool) (AlertState, bool) {
		if ok {
			return cur, true
		}
		inserted = true
		return st, true
	})
	return inserted
}

// Update replaces the state of a tracked key; it reports false if key is not tracked.
func (s *Store) Update(key string, st AlertState) bool {
	updated := false
	s.m.Compute(key, func(cur AlertState, ok bool) (AlertState, bool) {
		if !ok {
			return cur, false
		}
		updated = true
		return st, true
	})
	return updated
}

// Remove stops tracking key and returns the removed state.
func (s *Store) Remove(key string) (AlertState, bool) {
	return s.m.Delete(key)
}

// Len returns the number of areas in alert.
func (s *Store) Len() int {
	return s.m.Len()
}

// Snapshot returns a copy of all tracked states keyed by area.
func (s *Store) Snapshot() map[string]AlertState {
	return s.m.Snapshot()
}

// Reset drops every tracked state.
func (s *Store) Reset() {
	s.m.Clear()
}

// transition applies fn atomically to the entry of key.
func (s *Store) transition(key string, fn func(cur AlertState, ok bool) (AlertState, bool)) {
	s.m.Compute(key, fn)
}
