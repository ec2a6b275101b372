// Package datasource defines the remote and local data source contracts the
// coordinator orchestrates, plus a reference in-memory local source.
//
// A Remote source is the authoritative store (network-backed); a Local
// source is the device-side store the cache layer reads from. Both are
// collaborators: the coordinator never implements persistence itself.
package datasource

import "context"

// Remote is the authoritative data source for one entity type. Every call
// may fail; failures surface to coordinator callers as the error variant of
// the tri-state result.
type Remote[T any] interface {
	// FetchAll returns every entity the remote holds.
	FetchAll(ctx context.Context) ([]T, error)

	// FetchByID returns the entity with the given id, or nil when the
	// remote holds no such entity.
	FetchByID(ctx context.Context, id string) (*T, error)

	// Create stores a new entity and returns the stored representation.
	Create(ctx context.Context, item T) (T, error)

	// Update replaces an existing entity and returns the stored representation.
	Update(ctx context.Context, item T) (T, error)

	// Delete removes the entity with the given id.
	Delete(ctx context.Context, id string) error

	// FetchPaged returns one page of entities plus the total item count.
	FetchPaged(ctx context.Context, page, size int) ([]T, int, error)
}

// Local is the device-side data source for one entity type. Its observe
// methods drive the coordinator's reactive reads.
type Local[T any] interface {
	GetAll(ctx context.Context) ([]T, error)
	GetByID(ctx context.Context, id string) (*T, error)
	Insert(ctx context.Context, item T) error
	InsertAll(ctx context.Context, items []T) error
	Update(ctx context.Context, item T) error
	Delete(ctx context.Context, id string) error
	Clear(ctx context.Context) error

	// ObserveAll invokes fn with the full local set after every mutation.
	ObserveAll(fn func([]T)) Subscription

	// ObserveByID invokes fn with the entity (nil when absent) after every
	// mutation touching that id.
	ObserveByID(id string, fn func(*T)) Subscription
}

// Subscription is the cancellation handle for an observe registration.
// After Cancel returns, the callback is never invoked again.
type Subscription interface {
	Cancel()
}
