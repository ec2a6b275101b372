package datasource

import (
	"context"
	"sync"

	"github.com/syncstore/syncstore/pkg/errors"
	"github.com/syncstore/syncstore/pkg/types"
)

// MemoryLocal is an in-memory Local data source with change notification.
// Entities are kept in insertion order so GetAll is deterministic.
type MemoryLocal[T types.Entity] struct {
	mu    sync.RWMutex
	items map[string]T
	order []string

	subMu     sync.Mutex
	nextSubID int
	allSubs   map[int]*memorySub[[]T]
	idSubs    map[string]map[int]*memorySub[*T]
}

// memorySub carries one observer callback and its closed flag. Notify and
// Cancel share the per-subscription mutex, so Cancel returning guarantees
// no further invocation.
type memorySub[V any] struct {
	mu     sync.Mutex
	fn     func(V)
	closed bool
	cancel func()
}

func (s *memorySub[V]) emit(v V) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.fn(v)
}

// Cancel releases the subscription.
func (s *memorySub[V]) Cancel() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.cancel()
}

// NewMemoryLocal creates an empty in-memory local source.
func NewMemoryLocal[T types.Entity]() *MemoryLocal[T] {
	return &MemoryLocal[T]{
		items:   make(map[string]T),
		allSubs: make(map[int]*memorySub[[]T]),
		idSubs:  make(map[string]map[int]*memorySub[*T]),
	}
}

// GetAll returns all entities in insertion order.
func (m *MemoryLocal[T]) GetAll(ctx context.Context) ([]T, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshotLocked(), nil
}

// GetByID returns the entity with the given id, nil when absent.
func (m *MemoryLocal[T]) GetByID(ctx context.Context, id string) (*T, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if item, ok := m.items[id]; ok {
		itemCopy := item
		return &itemCopy, nil
	}
	return nil, nil
}

// Insert stores a new entity, replacing any existing one with the same id.
func (m *MemoryLocal[T]) Insert(ctx context.Context, item T) error {
	id := item.EntityID()
	if id == "" {
		return errors.New(errors.ErrCodeMissingID, "entity has empty id")
	}

	m.mu.Lock()
	if _, exists := m.items[id]; !exists {
		m.order = append(m.order, id)
	}
	m.items[id] = item
	m.mu.Unlock()

	m.notify(id)
	return nil
}

// InsertAll stores a batch of entities, notifying observers once.
func (m *MemoryLocal[T]) InsertAll(ctx context.Context, items []T) error {
	touched := make([]string, 0, len(items))

	m.mu.Lock()
	for _, item := range items {
		id := item.EntityID()
		if id == "" {
			m.mu.Unlock()
			return errors.New(errors.ErrCodeMissingID, "entity has empty id")
		}
		if _, exists := m.items[id]; !exists {
			m.order = append(m.order, id)
		}
		m.items[id] = item
		touched = append(touched, id)
	}
	m.mu.Unlock()

	m.notify(touched...)
	return nil
}

// Update replaces an existing entity.
func (m *MemoryLocal[T]) Update(ctx context.Context, item T) error {
	id := item.EntityID()

	m.mu.Lock()
	if _, exists := m.items[id]; !exists {
		m.mu.Unlock()
		return errors.Newf(errors.ErrCodeLocalWrite, "no entity with id %q", id)
	}
	m.items[id] = item
	m.mu.Unlock()

	m.notify(id)
	return nil
}

// Delete removes the entity with the given id. Deleting an absent id is a no-op.
func (m *MemoryLocal[T]) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	if _, exists := m.items[id]; !exists {
		m.mu.Unlock()
		return nil
	}
	delete(m.items, id)
	for i, existing := range m.order {
		if existing == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	m.mu.Unlock()

	m.notify(id)
	return nil
}

// Clear removes all entities.
func (m *MemoryLocal[T]) Clear(ctx context.Context) error {
	m.mu.Lock()
	touched := make([]string, len(m.order))
	copy(touched, m.order)
	m.items = make(map[string]T)
	m.order = nil
	m.mu.Unlock()

	m.notify(touched...)
	return nil
}

// ObserveAll registers a callback invoked with the full set after every mutation.
func (m *MemoryLocal[T]) ObserveAll(fn func([]T)) Subscription {
	m.subMu.Lock()
	id := m.nextSubID
	m.nextSubID++
	sub := &memorySub[[]T]{fn: fn}
	sub.cancel = func() {
		m.subMu.Lock()
		delete(m.allSubs, id)
		m.subMu.Unlock()
	}
	m.allSubs[id] = sub
	m.subMu.Unlock()
	return sub
}

// ObserveByID registers a callback invoked with the entity (nil when absent)
// after every mutation touching that id.
func (m *MemoryLocal[T]) ObserveByID(entityID string, fn func(*T)) Subscription {
	m.subMu.Lock()
	id := m.nextSubID
	m.nextSubID++
	sub := &memorySub[*T]{fn: fn}
	sub.cancel = func() {
		m.subMu.Lock()
		if subs, ok := m.idSubs[entityID]; ok {
			delete(subs, id)
			if len(subs) == 0 {
				delete(m.idSubs, entityID)
			}
		}
		m.subMu.Unlock()
	}
	if m.idSubs[entityID] == nil {
		m.idSubs[entityID] = make(map[int]*memorySub[*T])
	}
	m.idSubs[entityID][id] = sub
	m.subMu.Unlock()
	return sub
}

// Len returns the number of stored entities.
func (m *MemoryLocal[T]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}

// snapshotLocked copies the current set in insertion order. Caller holds mu.
func (m *MemoryLocal[T]) snapshotLocked() []T {
	snapshot := make([]T, 0, len(m.order))
	for _, id := range m.order {
		snapshot = append(snapshot, m.items[id])
	}
	return snapshot
}

// notify delivers change notifications for the touched ids to all relevant
// observers. Snapshots are computed once, outside any subscription lock.
func (m *MemoryLocal[T]) notify(touched ...string) {
	m.mu.RLock()
	snapshot := m.snapshotLocked()
	perID := make(map[string]*T, len(touched))
	for _, id := range touched {
		if item, ok := m.items[id]; ok {
			itemCopy := item
			perID[id] = &itemCopy
		} else {
			perID[id] = nil
		}
	}
	m.mu.RUnlock()

	m.subMu.Lock()
	allSubs := make([]*memorySub[[]T], 0, len(m.allSubs))
	for _, sub := range m.allSubs {
		allSubs = append(allSubs, sub)
	}
	idSubs := make(map[string][]*memorySub[*T], len(touched))
	for _, id := range touched {
		for _, sub := range m.idSubs[id] {
			idSubs[id] = append(idSubs[id], sub)
		}
	}
	m.subMu.Unlock()

	for _, sub := range allSubs {
		sub.emit(snapshot)
	}
	for _, id := range touched {
		for _, sub := range idSubs[id] {
			sub.emit(perID[id])
		}
	}
}
