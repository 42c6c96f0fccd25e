package cache

import (
	"sync"
	"sync/atomic"
)

const (
	// ShardCount is the number of shards. Must be a power of 2.
	ShardCount = 16

	shardMask = ShardCount - 1
)

// Hasher computes the hash used for shard selection.
type Hasher[K any] func(K) uint64

// HandleHasher mixes a native handle. Handles are usually pointers whose
// low bits are zero, so the identity hash would fill a single shard.
func HandleHasher(h uintptr) uint64 {
	return Uint64Hasher(uint64(h))
}

// Uint64Hasher is the splitmix64 finalizer.
func Uint64Hasher(u uint64) uint64 {
	u ^= u >> 30
	u *= 0xbf58476d1ce4e5b9
	u ^= u >> 27
	u *= 0x94d049bb133111eb
	u ^= u >> 31
	return u
}

// Map is a sharded map with hit and miss counters.
type Map[K comparable, V any] struct {
	shards [ShardCount]*shard[K, V]
	hasher Hasher[K]

	hits   atomic.Uint64
	misses atomic.Uint64
}

type shard[K comparable, V any] struct {
	mu      sync.RWMutex
	entries map[K]V
}

// New creates an empty map.
func New[K comparable, V any](hasher Hasher[K]) *Map[K, V] {
	m := &Map[K, V]{hasher: hasher}
	for i := range m.shards {
		m.shards[i] = &shard[K, V]{entries: make(map[K]V)}
	}
	return m
}

func (m *Map[K, V]) shardFor(key K) *shard[K, V] {
	return m.shards[m.hasher(key)&shardMask]
}

// Get returns the value stored for key.
func (m *Map[K, V]) Get(key K) (V, bool) {
	s := m.shardFor(key)
	s.mu.RLock()
	v, ok := s.entries[key]
	s.mu.RUnlock()

	if ok {
		m.hits.Add(1)
	} else {
		m.misses.Add(1)
	}
	return v, ok
}

// GetOrCreate returns the stored value, or stores and returns create().
// create runs under the shard lock, so it is called at most once per key.
func (m *Map[K, V]) GetOrCreate(key K, create func() V) (V, bool) {
	s := m.shardFor(key)

	s.mu.RLock()
	v, ok := s.entries[key]
	s.mu.RUnlock()
	if ok {
		m.hits.Add(1)
		return v, true
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.entries[key]; ok {
		m.hits.Add(1)
		return v, true
	}
	m.misses.Add(1)
	v = create()
	s.entries[key] = v
	return v, false
}

// Update replaces the value for key with fn(old, ok) atomically and returns
// the new value.
func (m *Map[K, V]) Update(key K, fn func(old V, ok bool) V) V {
	s := m.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.entries[key]
	v := fn(old, ok)
	s.entries[key] = v
	return v
}

// Delete removes key and reports whether it was present.
func (m *Map[K, V]) Delete(key K) bool {
	s := m.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[key]; !ok {
		return false
	}
	delete(s.entries, key)
	return true
}

// Clear removes all entries.
func (m *Map[K, V]) Clear() {
	for _, s := range m.shards {
		s.mu.Lock()
		s.entries = make(map[K]V)
		s.mu.Unlock()
	}
}

// Len returns the number of entries.
func (m *Map[K, V]) Len() int {
	n := 0
	for _, s := range m.shards {
		s.mu.RLock()
		n += len(s.entries)
		s.mu.RUnlock()
	}
	return n
}

// Stats returns lookup statistics.
func (m *Map[K, V]) Stats() Stats {
	hits, misses := m.hits.Load(), m.misses.Load()
	st := Stats{Len: m.Len(), Hits: hits, Misses: misses}
	if total := hits + misses; total > 0 {
		st.HitRate = float64(hits) / float64(total)
	}
	return st
}

// Stats contains map statistics.
type Stats struct {
	Len     int
	Hits    uint64
	Misses  uint64
	HitRate float64 // 0.0 to 1.0
}
