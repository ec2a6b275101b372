// Package cache implements the keyed TTL value store, the collection
// snapshot cache, and the secondary blob cache that back a coordinator.
package cache

import (
	"sort"
	"sync"
	"time"

	"github.com/syncstore/syncstore/pkg/types"
)

// NoExpiry marks an entry that never expires by time, only by eviction.
const NoExpiry time.Duration = 0

// nominalEntryBytes is the per-entry cost used for the estimated size
// reported in stats. Proportional to entry count, not byte-accurate.
const nominalEntryBytes = 256

// StoreConfig represents TTL store configuration.
type StoreConfig struct {
	// DefaultTTL applies to entries stored without an explicit TTL
	DefaultTTL time.Duration `yaml:"default_ttl"`

	// MaxEntries bounds the store; 0 means unbounded. When full, the
	// oldest-inserted entry is evicted to admit a new one.
	MaxEntries int `yaml:"max_entries"`
}

// DefaultStoreConfig returns sensible defaults.
func DefaultStoreConfig() StoreConfig {
	return StoreConfig{
		DefaultTTL: 5 * time.Minute,
		MaxEntries: 10000,
	}
}

// entry wraps a cached value with its refresh time and TTL. Expiry is
// discovered lazily on read; there is no background scanner.
type entry[T any] struct {
	value    T
	storedAt time.Time
	ttl      time.Duration
	seq      uint64
}

func (e *entry[T]) expired(now time.Time) bool {
	if e.ttl == NoExpiry {
		return false
	}
	return now.Sub(e.storedAt) > e.ttl
}

// Store is a thread-safe keyed value store with TTL-based read-side
// invalidation. One Store is owned exclusively by one coordinator.
type Store[T any] struct {
	mu      sync.RWMutex
	entries map[string]*entry[T]
	seq     uint64
	config  StoreConfig
	stats   types.CacheStats
}

// NewStore creates a new TTL store.
func NewStore[T any](config StoreConfig) *Store[T] {
	if config.DefaultTTL < 0 {
		config.DefaultTTL = 5 * time.Minute
	}
	return &Store[T]{
		entries: make(map[string]*entry[T]),
		config:  config,
	}
}

// Put stores a value under key with the configured default TTL.
func (s *Store[T]) Put(key string, value T) {
	s.PutWithTTL(key, value, s.config.DefaultTTL)
}

// PutWithTTL stores a value under key with an explicit TTL. A TTL of
// NoExpiry keeps the entry until it is evicted or removed.
func (s *Store[T]) PutWithTTL(key string, value T, ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	s.entries[key] = &entry[T]{
		value:    value,
		storedAt: time.Now(),
		ttl:      ttl,
		seq:      s.seq,
	}

	if s.config.MaxEntries > 0 {
		for len(s.entries) > s.config.MaxEntries {
			s.evictOldestLocked()
		}
	}
}

// Get returns the value for key if present and not expired. A present but
// expired entry is removed and reported as a miss: the caller actively
// requested a key that turned out stale.
func (s *Store[T]) Get(key string) (T, bool) {
	var zero T

	s.mu.Lock()
	defer s.mu.Unlock()

	e, exists := s.entries[key]
	if !exists {
		s.stats.Misses++
		return zero, false
	}

	if e.expired(time.Now()) {
		delete(s.entries, key)
		s.stats.Misses++
		return zero, false
	}

	s.stats.Hits++
	return e.value, true
}

// Remove invalidates one key directly. Removing an absent key is a no-op.
func (s *Store[T]) Remove(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
}

// Clear invalidates every entry. Each dropped entry counts as an eviction;
// clearing an empty store leaves stats unchanged.
func (s *Store[T]) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats.Evictions += uint64(len(s.entries))
	s.entries = make(map[string]*entry[T])
}

// SweepExpired removes every entry whose TTL has elapsed, returning the
// number removed. Sweep removals count as evictions, not misses: no caller
// asked for the keys.
func (s *Store[T]) SweepExpired() int {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, e := range s.entries {
		if e.expired(now) {
			delete(s.entries, key)
			removed++
		}
	}
	s.stats.Evictions += uint64(removed)
	return removed
}

// TrimOldest evicts the given fraction of entries, oldest-inserted first.
// Access recency is not tracked at this tier. Returns the number evicted.
func (s *Store[T]) TrimOldest(fraction float64) int {
	if fraction <= 0 {
		return 0
	}
	if fraction > 1 {
		fraction = 1
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	target := int(float64(len(s.entries)) * fraction)
	if target == 0 && len(s.entries) > 0 && fraction >= 1 {
		target = len(s.entries)
	}
	if target == 0 {
		return 0
	}

	type aged struct {
		key string
		seq uint64
	}
	byAge := make([]aged, 0, len(s.entries))
	for key, e := range s.entries {
		byAge = append(byAge, aged{key: key, seq: e.seq})
	}
	sort.Slice(byAge, func(i, j int) bool { return byAge[i].seq < byAge[j].seq })

	for _, a := range byAge[:target] {
		delete(s.entries, a.key)
	}
	s.stats.Evictions += uint64(target)
	return target
}

// Len returns the number of stored entries, expired or not.
func (s *Store[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// SetDefaultTTL changes the TTL applied to subsequent Put calls.
func (s *Store[T]) SetDefaultTTL(ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ttl >= 0 {
		s.config.DefaultTTL = ttl
	}
}

// SetMaxEntries changes the entry bound, evicting oldest-inserted entries
// immediately if the store is over the new bound.
func (s *Store[T]) SetMaxEntries(max int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.config.MaxEntries = max
	if max > 0 {
		for len(s.entries) > max {
			s.evictOldestLocked()
		}
	}
}

// Stats returns a snapshot of cache statistics.
func (s *Store[T]) Stats() types.CacheStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := s.stats
	stats.Entries = len(s.entries)
	stats.EstimatedSize = int64(len(s.entries)) * nominalEntryBytes
	total := stats.Hits + stats.Misses
	if total > 0 {
		stats.HitRate = float64(stats.Hits) / float64(total)
	}
	return stats
}

// evictOldestLocked removes the oldest-inserted entry. Caller holds mu.
func (s *Store[T]) evictOldestLocked() {
	var oldestKey string
	var oldestSeq uint64
	first := true
	for key, e := range s.entries {
		if first || e.seq < oldestSeq {
			oldestKey = key
			oldestSeq = e.seq
			first = false
		}
	}
	if !first {
		delete(s.entries, oldestKey)
		s.stats.Evictions++
	}
}
