// Package types holds the shared data types exchanged between the cache,
// coordinator, and synchronization components.
package types

// Entity is any record with a stable, caller-defined string identifier.
// Identity is a capability, not a base type: anything that can report its
// own id can be cached and synchronized.
type Entity interface {
	EntityID() string
}

// CacheStats represents cache performance statistics.
type CacheStats struct {
	Hits          uint64  `json:"hits"`
	Misses        uint64  `json:"misses"`
	Evictions     uint64  `json:"evictions"`
	Entries       int     `json:"entries"`
	EstimatedSize int64   `json:"estimated_size"`
	HitRate       float64 `json:"hit_rate"`
}

// PagedResult represents one page of a larger result set. TotalPages is
// derived, never stored.
type PagedResult[T any] struct {
	Items      []T `json:"items"`
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalItems int `json:"total_items"`
	TotalPages int `json:"total_pages"`
}

// NewPagedResult builds a PagedResult with TotalPages = ceil(total/size).
func NewPagedResult[T any](items []T, page, size, total int) PagedResult[T] {
	pages := 0
	if size > 0 {
		pages = (total + size - 1) / size
	}
	return PagedResult[T]{
		Items:      items,
		Page:       page,
		PageSize:   size,
		TotalItems: total,
		TotalPages: pages,
	}
}
