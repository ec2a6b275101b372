package cache

import (
	"bytes"
	"fmt"
	"testing"
)

func TestBlobCachePutGet(t *testing.T) {
	cache := NewBlobCache(1024)

	cache.Put("img1", []byte("payload"))

	got := cache.Get("img1")
	if !bytes.Equal(got, []byte("payload")) {
		t.Errorf("expected payload, got %q", got)
	}

	// Returned slice is a copy.
	got[0] = 'X'
	if again := cache.Get("img1"); !bytes.Equal(again, []byte("payload")) {
		t.Error("cached payload must not be aliased by the returned slice")
	}

	if cache.Get("missing") != nil {
		t.Error("expected nil for absent key")
	}
}

func TestBlobCacheCapacityEviction(t *testing.T) {
	cache := NewBlobCache(30)

	cache.Put("a", make([]byte, 10))
	cache.Put("b", make([]byte, 10))
	cache.Put("c", make([]byte, 10))

	// Touch a so b becomes least recently used.
	cache.Get("a")

	cache.Put("d", make([]byte, 10))

	if cache.Get("b") != nil {
		t.Error("expected LRU entry b to be evicted")
	}
	if cache.Get("a") == nil {
		t.Error("recently used entry a should survive")
	}
	if cache.Size() > 30 {
		t.Errorf("size %d exceeds capacity", cache.Size())
	}
}

func TestBlobCacheTrimQuartile(t *testing.T) {
	cache := NewBlobCache(1 << 20)

	for i := 0; i < 8; i++ {
		cache.Put(fmt.Sprintf("k%d", i), []byte{byte(i)})
	}

	trimmed := cache.TrimQuartile()
	if trimmed != 2 {
		t.Fatalf("expected 2 trimmed (quarter of 8), got %d", trimmed)
	}
	if cache.Len() != 6 {
		t.Errorf("expected 6 remaining, got %d", cache.Len())
	}

	// Oldest (least recently used) go first.
	if cache.Get("k0") != nil || cache.Get("k1") != nil {
		t.Error("least recently used entries should have been trimmed")
	}
}

func TestBlobCacheClear(t *testing.T) {
	cache := NewBlobCache(1024)
	cache.Put("a", []byte("x"))
	cache.Put("b", []byte("y"))

	cache.Clear()

	if cache.Len() != 0 || cache.Size() != 0 {
		t.Errorf("expected empty cache, len=%d size=%d", cache.Len(), cache.Size())
	}
	if stats := cache.Stats(); stats.Evictions != 2 {
		t.Errorf("expected 2 evictions, got %d", stats.Evictions)
	}
}

func TestBlobCacheUpdateExisting(t *testing.T) {
	cache := NewBlobCache(1024)

	cache.Put("a", []byte("short"))
	cache.Put("a", []byte("a longer payload"))

	if cache.Len() != 1 {
		t.Fatalf("expected single entry, got %d", cache.Len())
	}
	if int(cache.Size()) != len("a longer payload") {
		t.Errorf("size accounting wrong: %d", cache.Size())
	}
}
