package cache

import (
	"sync"
	"time"
)

// Collection holds the single cached "all items" snapshot for a repository,
// separate from the per-id store. Any mutation invalidates the whole
// snapshot: a partial update cannot cheaply prove the aggregate is still
// correct, so none tries.
type Collection[T any] struct {
	mu       sync.RWMutex
	items    []T
	storedAt time.Time
	valid    bool
	ttl      time.Duration
}

// NewCollection creates a collection cache with the given TTL. A TTL of
// NoExpiry keeps a snapshot until it is explicitly invalidated.
func NewCollection[T any](ttl time.Duration) *Collection[T] {
	return &Collection[T]{ttl: ttl}
}

// Set replaces the snapshot and refreshes its timestamp.
func (c *Collection[T]) Set(items []T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = items
	c.storedAt = time.Now()
	c.valid = true
}

// Get returns the snapshot if one is held and unexpired. Callers receive a
// copy of the backing slice, so mutating the result cannot corrupt the
// snapshot other readers see.
func (c *Collection[T]) Get() ([]T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.valid {
		return nil, false
	}
	if c.ttl != NoExpiry && time.Since(c.storedAt) > c.ttl {
		return nil, false
	}
	items := make([]T, len(c.items))
	copy(items, c.items)
	return items, true
}

// Invalidate drops the snapshot. Idempotent.
func (c *Collection[T]) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = nil
	c.valid = false
}

// SetTTL changes the snapshot TTL for subsequent reads.
func (c *Collection[T]) SetTTL(ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ttl >= 0 {
		c.ttl = ttl
	}
}
