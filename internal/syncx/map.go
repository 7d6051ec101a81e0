package syncx

import "sync"

// Map is a keyed store whose operations are serialized by one RWMutex.
type Map[K comparable, V any] struct {
	mu sync.RWMutex
	m  map[K]V
}

// NewMap creates an empty Map.
func NewMap[K comparable, V any]() *Map[K, V] {
	return &Map[K, V]{m: make(map[K]V)}
}

// Get returns the value stored under k.
func (s *Map[K, V]) Get(k K) (V, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.m[k]
	return v, ok
}

// Put stores v under k and reports whether k was already present.
func (s *Map[K, V]) Put(k K, v V) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, existed := s.m[k]
	s.m[k] = v
	return existed
}

// Delete removes k and returns the removed value.
func (s *Map[K, V]) Delete(k K) (V, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.m[k]
	delete(s.m, k)
	return v, ok
}

// Compute atomically replaces the entry for k with fn's result. fn receives
// the current value and whether it exists; returning keep=false removes k.
func (s *Map[K, V]) Compute(k K, fn func(cur V, ok bool) (next V, keep bool)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.m[k]
	next, keep := fn(cur, ok)
	if keep {
		s.m[k] = next
	} else if ok {
		delete(s.m, k)
	}
}

// Len returns the number of entries.
func (s *Map[K, V]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.m)
}

// Snapshot returns a copy of all entries.
func (s *Map[K, V]) Snapshot() map[K]V {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[K]V, len(s.m))
	for k, v := range s.m {
		out[k] = v
	}
	return out
}

// Clear removes every entry.
func (s *Map[K, V]) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.m)
}
