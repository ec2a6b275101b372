package cache

import (
	"container/list"
	"sync"

	"github.com/syncstore/syncstore/pkg/types"
)

// BlobCache is a thread-safe, size-capped LRU cache for byte payloads
// (images, attachments, rendered results). It is the "secondary" cache the
// pressure monitor trims first: a quartile under HIGH pressure, everything
// under CRITICAL.
type BlobCache struct {
	mu          sync.Mutex
	capacity    int64
	currentSize int64
	items       map[string]*blobItem
	evictList   *list.List

	stats types.CacheStats
}

// blobItem represents one cached payload.
type blobItem struct {
	key     string
	data    []byte
	element *list.Element
}

// NewBlobCache creates a blob cache bounded to capacity bytes.
func NewBlobCache(capacity int64) *BlobCache {
	if capacity <= 0 {
		capacity = 64 * 1024 * 1024 // 64MB
	}
	return &BlobCache{
		capacity:  capacity,
		items:     make(map[string]*blobItem),
		evictList: list.New(),
	}
}

// Get retrieves a payload copy, promoting the entry to most recently used.
func (c *BlobCache) Get(key string) []byte {
	c.mu.Lock()
	defer c.mu.Unlock()

	item, exists := c.items[key]
	if !exists {
		c.stats.Misses++
		return nil
	}

	c.evictList.MoveToFront(item.element)
	c.stats.Hits++

	result := make([]byte, len(item.data))
	copy(result, item.data)
	return result
}

// Put stores a payload, evicting least-recently-used entries as needed to
// stay under capacity. Empty payloads are ignored.
func (c *BlobCache) Put(key string, data []byte) {
	if len(data) == 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if item, exists := c.items[key]; exists {
		c.currentSize += int64(len(data)) - int64(len(item.data))
		item.data = append(item.data[:0], data...)
		c.evictList.MoveToFront(item.element)
	} else {
		item := &blobItem{key: key, data: append([]byte(nil), data...)}
		item.element = c.evictList.PushFront(item)
		c.items[key] = item
		c.currentSize += int64(len(data))
	}

	for c.currentSize > c.capacity && c.evictList.Len() > 0 {
		c.evictOldestLocked()
	}
}

// Remove drops one payload.
func (c *BlobCache) Remove(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if item, exists := c.items[key]; exists {
		c.removeItemLocked(item)
	}
}

// TrimQuartile evicts the least-recently-used quarter of entries, the light
// cleanup tier. Returns the number evicted.
func (c *BlobCache) TrimQuartile() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	target := (len(c.items) + 3) / 4
	if len(c.items) == 0 {
		target = 0
	}
	for i := 0; i < target; i++ {
		c.evictOldestLocked()
	}
	return target
}

// Clear evicts every payload, the aggressive cleanup tier.
func (c *BlobCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stats.Evictions += uint64(len(c.items))
	c.items = make(map[string]*blobItem)
	c.evictList.Init()
	c.currentSize = 0
}

// Size returns the current payload byte total.
func (c *BlobCache) Size() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.currentSize
}

// Len returns the number of cached payloads.
func (c *BlobCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Stats returns a snapshot of cache statistics.
func (c *BlobCache) Stats() types.CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	stats := c.stats
	stats.Entries = len(c.items)
	stats.EstimatedSize = c.currentSize
	total := stats.Hits + stats.Misses
	if total > 0 {
		stats.HitRate = float64(stats.Hits) / float64(total)
	}
	return stats
}

// evictOldestLocked removes the least-recently-used entry. Caller holds mu.
func (c *BlobCache) evictOldestLocked() {
	element := c.evictList.Back()
	if element == nil {
		return
	}
	c.removeItemLocked(element.Value.(*blobItem))
}

// removeItemLocked unlinks one entry and accounts the eviction. Caller holds mu.
func (c *BlobCache) removeItemLocked(item *blobItem) {
	c.evictList.Remove(item.element)
	delete(c.items, item.key)
	c.currentSize -= int64(len(item.data))
	c.stats.Evictions++
}
