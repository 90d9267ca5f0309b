// Package cache provides the time-boxed, size-bounded stores used by the
// content orchestrator. The in-memory store is generic; a Redis-backed
// variant is available for multi-instance deployments.
package cache

import (
	"sync"
	"time"
)

// Stats is an observability snapshot. Hit counters never influence eviction
// order; recency does.
type Stats struct {
	Size    int           `json:"size"`
	Hits    int64         `json:"hits"`
	Misses  int64         `json:"misses"`
	HitRate float64       `json:"hit_rate"`
	AvgAge  time.Duration `json:"avg_age"`
}

type entry[V any] struct {
	value     V
	createdAt time.Time
	hitCount  int64
}

// Store is a TTL + LRU bounded key/value cache. Expiry is lazy: an expired
// entry behaves as a miss on read and is evicted at that point. Safe for
// concurrent use across all students.
type Store[V any] struct {
	mu      sync.Mutex
	entries map[string]*entry[V]
	lru     []string
	ttl     time.Duration
	maxSize int
	hits    int64
	misses  int64
	now     func() time.Time
}

func NewStore[V any](ttl time.Duration, maxSize int) *Store[V] {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	if maxSize <= 0 {
		maxSize = 256
	}
	return &Store[V]{
		entries: make(map[string]*entry[V]),
		ttl:     ttl,
		maxSize: maxSize,
		now:     time.Now,
	}
}

// Get returns the cached value and whether it was present and fresh.
func (s *Store[V]) Get(key string) (V, bool) {
	var zero V
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		s.misses++
		return zero, false
	}
	if s.now().Sub(e.createdAt) > s.ttl {
		s.evictLocked(key)
		s.misses++
		return zero, false
	}
	e.hitCount++
	s.hits++
	s.touchLocked(key)
	return e.value, true
}

// Set stores a value, evicting the least-recently-used entry when the store
// is at capacity.
func (s *Store[V]) Set(key string, value V) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[key]; ok {
		s.entries[key] = &entry[V]{value: value, createdAt: s.now()}
		s.touchLocked(key)
		return
	}
	for len(s.entries) >= s.maxSize && len(s.lru) > 0 {
		s.evictLocked(s.lru[0])
	}
	s.entries[key] = &entry[V]{value: value, createdAt: s.now()}
	s.lru = append(s.lru, key)
}

func (s *Store[V]) Invalidate(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.evictLocked(key)
}

func (s *Store[V]) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Stats{Size: len(s.entries), Hits: s.hits, Misses: s.misses}
	if total := s.hits + s.misses; total > 0 {
		st.HitRate = float64(s.hits) / float64(total)
	}
	if len(s.entries) > 0 {
		var sum time.Duration
		now := s.now()
		for _, e := range s.entries {
			sum += now.Sub(e.createdAt)
		}
		st.AvgAge = sum / time.Duration(len(s.entries))
	}
	return st
}

func (s *Store[V]) touchLocked(key string) {
	for i, k := range s.lru {
		if k == key {
			s.lru = append(s.lru[:i], s.lru[i+1:]...)
			break
		}
	}
	s.lru = append(s.lru, key)
}

func (s *Store[V]) evictLocked(key string) {
	if _, ok := s.entries[key]; !ok {
		return
	}
	delete(s.entries, key)
	for i, k := range s.lru {
		if k == key {
			s.lru = append(s.lru[:i], s.lru[i+1:]...)
			break
		}
	}
}
