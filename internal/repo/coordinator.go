// Package repo implements the data-access coordinator: the strategy-driven
// read/write orchestrator combining a remote data source, a local data
// source, and the TTL caches, with offline capture for mutations made while
// the remote is unreachable.
package repo

import (
	"context"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/syncstore/syncstore/internal/cache"
	"github.com/syncstore/syncstore/internal/circuit"
	"github.com/syncstore/syncstore/internal/metrics"
	"github.com/syncstore/syncstore/internal/offline"
	"github.com/syncstore/syncstore/pkg/datasource"
	"github.com/syncstore/syncstore/pkg/errors"
	"github.com/syncstore/syncstore/pkg/memmon"
	"github.com/syncstore/syncstore/pkg/result"
	"github.com/syncstore/syncstore/pkg/types"
	"github.com/syncstore/syncstore/pkg/utils"
)

// Strategy selects how reads balance cache freshness against remote load.
type Strategy int

const (
	// CacheFirst serves cached data when available, fetching only on a miss
	CacheFirst Strategy = iota
	// NetworkFirst always fetches from the remote, caching the result
	NetworkFirst
	// CacheOnly never touches the remote, serving only local state
	CacheOnly
	// NetworkOnly bypasses all caching, neither reading nor writing it
	NetworkOnly
)

// String returns the string representation of a strategy.
func (s Strategy) String() string {
	switch s {
	case CacheFirst:
		return "CACHE_FIRST"
	case NetworkFirst:
		return "NETWORK_FIRST"
	case CacheOnly:
		return "CACHE_ONLY"
	case NetworkOnly:
		return "NETWORK_ONLY"
	default:
		return "UNKNOWN"
	}
}

// ParseStrategy parses a strategy name as it appears in configuration.
func ParseStrategy(s string) (Strategy, error) {
	switch strings.ToUpper(s) {
	case "CACHE_FIRST":
		return CacheFirst, nil
	case "NETWORK_FIRST":
		return NetworkFirst, nil
	case "CACHE_ONLY":
		return CacheOnly, nil
	case "NETWORK_ONLY":
		return NetworkOnly, nil
	default:
		return CacheFirst, errors.Newf(errors.ErrCodeInvalidConfig, "unknown strategy %q", s)
	}
}

// Policy is the caller-adjustable cache policy of one coordinator.
type Policy struct {
	Strategy   Strategy
	DefaultTTL time.Duration
	MaxEntries int
}

// DefaultPolicy returns the default policy.
func DefaultPolicy() Policy {
	return Policy{
		Strategy:   CacheFirst,
		DefaultTTL: 5 * time.Minute,
		MaxEntries: 10000,
	}
}

// Config represents coordinator configuration.
type Config struct {
	// EntityName labels logs and metrics for this coordinator
	EntityName string

	// Policy is the initial cache policy
	Policy Policy

	// SweepInterval is how often expired entries are swept; 0 disables the sweeper
	SweepInterval time.Duration

	// Queue configures the offline queue
	Queue offline.QueueConfig

	// Breaker configures the remote availability breaker
	Breaker circuit.Config

	// Optional collaborators
	Logger  *utils.StructuredLogger
	Metrics *metrics.Collector
	Monitor *memmon.Monitor
	Blobs   *cache.BlobCache
}

// DefaultConfig returns sensible defaults for one entity type.
func DefaultConfig(entityName string) Config {
	return Config{
		EntityName:    entityName,
		Policy:        DefaultPolicy(),
		SweepInterval: time.Minute,
		Queue:         offline.DefaultQueueConfig(),
		Breaker:       circuit.DefaultConfig(),
	}
}

// Coordinator serves reads and writes for one entity type. It exclusively
// owns its per-id store and collection snapshot; the pressure monitor and
// blob cache are shared collaborators passed in by reference.
type Coordinator[T types.Entity] struct {
	name   string
	remote datasource.Remote[T]
	local  datasource.Local[T]

	store      *cache.Store[T]
	collection *cache.Collection[T]
	blobs      *cache.BlobCache
	queue      *offline.Queue[T]
	breaker    *circuit.Breaker

	fetchGroup singleflight.Group

	policyMu sync.RWMutex
	policy   Policy

	logger  *utils.StructuredLogger
	metrics *metrics.Collector

	lifecycleMu sync.Mutex
	running     bool
	stopCh      chan struct{}
	wg          sync.WaitGroup

	sweepInterval time.Duration
}

// NewCoordinator creates a coordinator over the given data sources. When a
// pressure monitor is supplied, the coordinator registers its tiered cleanup
// with it; the monitor's lifecycle stays with the caller.
func NewCoordinator[T types.Entity](remote datasource.Remote[T], local datasource.Local[T], config Config) *Coordinator[T] {
	if config.EntityName == "" {
		config.EntityName = "entity"
	}
	if config.Policy.DefaultTTL == 0 && config.Policy.MaxEntries == 0 && config.Policy.Strategy == CacheFirst {
		config.Policy = DefaultPolicy()
	}
	logger := config.Logger
	if logger == nil {
		logger, _ = utils.NewStructuredLogger(nil)
	}
	logger = logger.WithComponent("coordinator").WithField("entity", config.EntityName)

	c := &Coordinator[T]{
		name:   config.EntityName,
		remote: remote,
		local:  local,
		store: cache.NewStore[T](cache.StoreConfig{
			DefaultTTL: config.Policy.DefaultTTL,
			MaxEntries: config.Policy.MaxEntries,
		}),
		collection:    cache.NewCollection[T](config.Policy.DefaultTTL),
		blobs:         config.Blobs,
		queue:         offline.NewQueue[T](config.Queue, config.Logger),
		breaker:       circuit.NewBreaker(config.Breaker),
		policy:        config.Policy,
		logger:        logger,
		metrics:       config.Metrics,
		sweepInterval: config.SweepInterval,
	}

	if config.Monitor != nil {
		config.Monitor.RegisterCleanup(memmon.LevelHigh, c.lightCleanup)
		config.Monitor.RegisterCleanup(memmon.LevelCritical, c.aggressiveCleanup)
	}

	return c
}

// Start launches the periodic expired-entry sweeper. Starting an already
// running coordinator is a no-op.
func (c *Coordinator[T]) Start() {
	if c.sweepInterval <= 0 {
		return
	}
	c.lifecycleMu.Lock()
	defer c.lifecycleMu.Unlock()
	if c.running {
		return
	}
	c.running = true
	c.stopCh = make(chan struct{})
	c.wg.Add(1)
	go c.sweepLoop(c.stopCh)
}

// Stop cancels the sweeper. Stopping an already stopped coordinator is a no-op.
func (c *Coordinator[T]) Stop() {
	c.lifecycleMu.Lock()
	if !c.running {
		c.lifecycleMu.Unlock()
		return
	}
	c.running = false
	stopCh := c.stopCh
	c.lifecycleMu.Unlock()

	close(stopCh)
	c.wg.Wait()
}

// GetAll returns every entity per the active strategy.
//
// CACHE_FIRST serves a non-empty unexpired snapshot when one is held and
// otherwise fetches and caches. NETWORK_FIRST always fetches and caches.
// CACHE_ONLY returns whatever the local source holds, even when empty.
// NETWORK_ONLY calls the remote directly without persisting the result.
func (c *Coordinator[T]) GetAll(ctx context.Context) result.Result[[]T] {
	defer c.observe("get_all", time.Now())

	switch c.strategy() {
	case CacheFirst:
		if items, ok := c.collection.Get(); ok && len(items) > 0 {
			c.metrics.RecordCacheHit(c.name)
			return result.Success(items)
		}
		c.metrics.RecordCacheMiss(c.name)
		return c.fetchAndCacheAll(ctx)

	case NetworkFirst:
		return c.fetchAndCacheAll(ctx)

	case CacheOnly:
		items, err := c.local.GetAll(ctx)
		if err != nil {
			return result.Error[[]T](errors.Wrap(err, errors.ErrCodeLocalRead))
		}
		return result.Success(items)

	default: // NetworkOnly
		items, err := c.callFetchAll(ctx)
		if err != nil {
			return result.Error[[]T](err)
		}
		return result.Success(items)
	}
}

// GetByID returns the entity with the given id, Success(nil) when it does
// not exist anywhere the strategy permits looking.
func (c *Coordinator[T]) GetByID(ctx context.Context, id string) result.Result[*T] {
	defer c.observe("get_by_id", time.Now())

	if id == "" {
		return result.Error[*T](errors.New(errors.ErrCodeMissingID, "id cannot be empty"))
	}

	switch c.strategy() {
	case CacheFirst:
		if item, ok := c.store.Get(id); ok {
			c.metrics.RecordCacheHit(c.name)
			return result.Success(&item)
		}
		c.metrics.RecordCacheMiss(c.name)
		if item, err := c.local.GetByID(ctx, id); err == nil && item != nil {
			c.store.Put(id, *item)
			return result.Success(item)
		}
		return c.fetchAndCacheByID(ctx, id)

	case NetworkFirst:
		return c.fetchAndCacheByID(ctx, id)

	case CacheOnly:
		if item, ok := c.store.Get(id); ok {
			c.metrics.RecordCacheHit(c.name)
			return result.Success(&item)
		}
		c.metrics.RecordCacheMiss(c.name)
		item, err := c.local.GetByID(ctx, id)
		if err != nil {
			return result.Error[*T](errors.Wrap(err, errors.ErrCodeLocalRead))
		}
		return result.Success(item)

	default: // NetworkOnly
		item, err := c.callFetchByID(ctx, id)
		if err != nil {
			return result.Error[*T](err)
		}
		return result.Success(item)
	}
}

// Create stores a new entity write-through: the remote is called first, and
// only on remote success does the local source change. An unreachable remote
// queues the operation and applies an optimistic local-only write; the
// pending count distinguishes optimistic from confirmed state.
func (c *Coordinator[T]) Create(ctx context.Context, item T) result.Result[T] {
	defer c.observe("create", time.Now())
	return c.mutate(ctx, offline.OpCreate, item.EntityID(), item)
}

// Update replaces an existing entity write-through, with the same offline
// handoff as Create.
func (c *Coordinator[T]) Update(ctx context.Context, item T) result.Result[T] {
	defer c.observe("update", time.Now())
	return c.mutate(ctx, offline.OpUpdate, item.EntityID(), item)
}

// Delete removes an entity remote-first. The local copy is removed only
// after confirmed remote success; an unreachable remote queues the delete
// and returns Success(false) until replay confirms it.
func (c *Coordinator[T]) Delete(ctx context.Context, id string) result.Result[bool] {
	defer c.observe("delete", time.Now())

	if id == "" {
		return result.Error[bool](errors.New(errors.ErrCodeMissingID, "id cannot be empty"))
	}

	var zero T
	if !c.breaker.Allow() {
		if err := c.enqueue(offline.OpDelete, id, zero); err != nil {
			return result.Error[bool](err)
		}
		return result.Success(false)
	}

	if err := c.remote.Delete(ctx, id); err != nil {
		c.recordRemoteOutcome(err)
		if errors.IsUnreachable(err) {
			if qerr := c.enqueue(offline.OpDelete, id, zero); qerr != nil {
				return result.Error[bool](qerr)
			}
			return result.Success(false)
		}
		return result.Error[bool](errors.Wrap(err, errors.ErrCodeRemoteFailed))
	}
	c.breaker.RecordSuccess()

	if ctx.Err() != nil {
		// Cancelled after the remote applied it: leave local state alone,
		// the next fetch reconciles.
		return result.Error[bool](errors.New(errors.ErrCodeOperationCanceled, "delete canceled"))
	}

	if err := c.local.Delete(ctx, id); err != nil {
		return result.Error[bool](errors.Wrap(err, errors.ErrCodeLocalWrite))
	}
	c.store.Remove(id)
	c.collection.Invalidate()
	return result.Success(true)
}

// CreateAll stores a batch of entities write-through, stopping at the first
// hard failure. Entities queued for an unreachable remote still count as
// accepted.
func (c *Coordinator[T]) CreateAll(ctx context.Context, items []T) result.Result[[]T] {
	defer c.observe("create_all", time.Now())

	created := make([]T, 0, len(items))
	for _, item := range items {
		res := c.Create(ctx, item)
		if res.IsError() {
			return result.Error[[]T](res.Err())
		}
		created = append(created, res.MustData())
	}
	return result.Success(created)
}

// GetPaged returns one page of entities. CACHE_ONLY pages over the local
// source; every other strategy delegates to the remote's paging. Pages are
// never cached: a page is a projection, not an aggregate the collection
// snapshot could serve.
func (c *Coordinator[T]) GetPaged(ctx context.Context, page, size int) result.Result[types.PagedResult[T]] {
	defer c.observe("get_paged", time.Now())

	if page < 0 || size <= 0 {
		return result.Error[types.PagedResult[T]](
			errors.Newf(errors.ErrCodeValidationFailed, "invalid page %d size %d", page, size))
	}

	if c.strategy() == CacheOnly {
		items, err := c.local.GetAll(ctx)
		if err != nil {
			return result.Error[types.PagedResult[T]](errors.Wrap(err, errors.ErrCodeLocalRead))
		}
		total := len(items)
		start := page * size
		if start > total {
			start = total
		}
		end := start + size
		if end > total {
			end = total
		}
		return result.Success(types.NewPagedResult(items[start:end], page, size, total))
	}

	if !c.breaker.Allow() {
		return result.Error[types.PagedResult[T]](c.unreachableError("GetPaged"))
	}
	items, total, err := c.remote.FetchPaged(ctx, page, size)
	if err != nil {
		c.recordRemoteOutcome(err)
		return result.Error[types.PagedResult[T]](errors.Wrap(err, errors.ErrCodeRemoteFailed))
	}
	c.breaker.RecordSuccess()
	return result.Success(types.NewPagedResult(items, page, size, total))
}

// Search returns the entities matching the predicate, read through GetAll
// under the active strategy.
func (c *Coordinator[T]) Search(ctx context.Context, match func(T) bool) result.Result[[]T] {
	defer c.observe("search", time.Now())

	res := c.GetAll(ctx)
	if !res.IsSuccess() {
		return res
	}

	var matched []T
	for _, item := range res.MustData() {
		if match(item) {
			matched = append(matched, item)
		}
	}
	return result.Success(matched)
}

// ObserveAll registers a callback driven by local-source changes. The
// callback first receives Loading, then Success with the full set after
// every mutation. Cancel releases the underlying subscription; no callback
// runs after Cancel returns. Remote freshness is the caller's concern,
// triggered through GetAll.
func (c *Coordinator[T]) ObserveAll(fn func(result.Result[[]T])) datasource.Subscription {
	fn(result.Loading[[]T]())
	return c.local.ObserveAll(func(items []T) {
		fn(result.Success(items))
	})
}

// ObserveByID registers a callback for one entity, nil payload meaning
// absent. Same contract as ObserveAll.
func (c *Coordinator[T]) ObserveByID(id string, fn func(result.Result[*T])) datasource.Subscription {
	fn(result.Loading[*T]())
	return c.local.ObserveByID(id, func(item *T) {
		fn(result.Success(item))
	})
}

// SetPolicy atomically replaces the cache policy, resizing the per-id store
// and retiming both caches.
func (c *Coordinator[T]) SetPolicy(policy Policy) {
	c.policyMu.Lock()
	c.policy = policy
	c.policyMu.Unlock()

	c.store.SetDefaultTTL(policy.DefaultTTL)
	c.store.SetMaxEntries(policy.MaxEntries)
	c.collection.SetTTL(policy.DefaultTTL)

	c.logger.Info("cache policy updated", map[string]interface{}{
		"strategy":    policy.Strategy.String(),
		"default_ttl": policy.DefaultTTL,
		"max_entries": policy.MaxEntries,
	})
}

// Policy returns the active policy.
func (c *Coordinator[T]) Policy() Policy {
	c.policyMu.RLock()
	defer c.policyMu.RUnlock()
	return c.policy
}

// Stats returns the per-id cache statistics.
func (c *Coordinator[T]) Stats() types.CacheStats {
	return c.store.Stats()
}

// PendingCount returns the number of mutations waiting for replay. A nonzero
// count means local state may be ahead of the remote.
func (c *Coordinator[T]) PendingCount() int {
	return c.queue.Len()
}

// DrainQueue replays pending mutations in FIFO order. A successful full
// drain resets the availability breaker.
func (c *Coordinator[T]) DrainQueue(ctx context.Context) offline.ReplayReport {
	report := c.queue.DrainAndReplay(ctx, c.remote)
	c.metrics.RecordReplay(c.name, report.Succeeded, report.Failed)
	c.metrics.SetPendingOperations(c.name, c.queue.Len())
	if report.Failed == 0 && report.Attempted > 0 {
		c.breaker.Reset()
	}
	return report
}

// Refresh forces a fetch-and-cache pass regardless of strategy, returning an
// error instead of a result for scheduler use.
func (c *Coordinator[T]) Refresh(ctx context.Context) error {
	res := c.fetchAndCacheAll(ctx)
	return res.Err()
}

// RefreshByID forces a remote fetch for one entity.
func (c *Coordinator[T]) RefreshByID(ctx context.Context, id string) error {
	res := c.fetchAndCacheByID(ctx, id)
	return res.Err()
}

// EntityName returns the label this coordinator logs and reports under.
func (c *Coordinator[T]) EntityName() string {
	return c.name
}

// strategy reads the active strategy.
func (c *Coordinator[T]) strategy() Strategy {
	c.policyMu.RLock()
	defer c.policyMu.RUnlock()
	return c.policy.Strategy
}

// mutate is the shared write-through path for Create and Update.
func (c *Coordinator[T]) mutate(ctx context.Context, op offline.OpType, id string, item T) result.Result[T] {
	if id == "" {
		return result.Error[T](errors.New(errors.ErrCodeMissingID, "entity has empty id"))
	}

	if !c.breaker.Allow() {
		return c.deferMutation(ctx, op, id, item)
	}

	stored, err := c.callMutation(ctx, op, item)
	if err != nil {
		c.recordRemoteOutcome(err)
		if errors.IsUnreachable(err) {
			return c.deferMutation(ctx, op, id, item)
		}
		return result.Error[T](errors.Wrap(err, errors.ErrCodeRemoteFailed))
	}
	c.breaker.RecordSuccess()

	if ctx.Err() != nil {
		// Remote applied the write but the caller cancelled: never touch the
		// local cache with a result the caller no longer owns.
		return result.Error[T](errors.New(errors.ErrCodeOperationCanceled, string(op)+" canceled").WithEntityID(id))
	}

	if err := c.applyLocal(ctx, stored); err != nil {
		return result.Error[T](err)
	}
	c.store.Put(id, stored)
	c.collection.Invalidate()
	return result.Success(stored)
}

// callMutation invokes the remote create or update.
func (c *Coordinator[T]) callMutation(ctx context.Context, op offline.OpType, item T) (T, error) {
	if op == offline.OpCreate {
		return c.remote.Create(ctx, item)
	}
	return c.remote.Update(ctx, item)
}

// deferMutation queues an operation for replay and applies the optimistic
// local-only write so readers see the value immediately.
func (c *Coordinator[T]) deferMutation(ctx context.Context, op offline.OpType, id string, item T) result.Result[T] {
	if err := c.enqueue(op, id, item); err != nil {
		return result.Error[T](err)
	}

	if err := c.applyLocal(ctx, item); err != nil {
		return result.Error[T](err)
	}
	c.store.Put(id, item)
	c.collection.Invalidate()

	c.logger.Info("mutation deferred, remote unreachable", map[string]interface{}{
		"type":      string(op),
		"entity_id": id,
		"pending":   c.queue.Len(),
	})
	return result.Success(item)
}

// enqueue hands one operation to the offline queue and updates the gauge.
func (c *Coordinator[T]) enqueue(op offline.OpType, id string, item T) error {
	err := c.queue.Enqueue(offline.PendingOperation[T]{
		Type:     op,
		EntityID: id,
		Payload:  item,
	})
	if err != nil {
		return err
	}
	c.metrics.SetPendingOperations(c.name, c.queue.Len())
	return nil
}

// applyLocal upserts one entity into the local source.
func (c *Coordinator[T]) applyLocal(ctx context.Context, item T) error {
	if err := c.local.Update(ctx, item); err == nil {
		return nil
	}
	if err := c.local.Insert(ctx, item); err != nil {
		return errors.Wrap(err, errors.ErrCodeLocalWrite)
	}
	return nil
}

// fetchAndCacheAll fetches the full set, replaces the local source's
// contents with it (clear-then-insert, never merge), and refreshes both
// caches. Concurrent callers share one in-flight fetch.
func (c *Coordinator[T]) fetchAndCacheAll(ctx context.Context) result.Result[[]T] {
	v, err, _ := c.fetchGroup.Do("fetch-all", func() (interface{}, error) {
		items, err := c.callFetchAll(ctx)
		if err != nil {
			return nil, err
		}
		if ctx.Err() != nil {
			return nil, errors.New(errors.ErrCodeOperationCanceled, "fetch canceled")
		}

		if err := c.local.Clear(ctx); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeLocalWrite)
		}
		if err := c.local.InsertAll(ctx, items); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeLocalWrite)
		}

		c.collection.Set(items)
		for _, item := range items {
			c.store.Put(item.EntityID(), item)
		}
		c.metrics.SetCacheEntries(c.name, c.store.Len())
		return items, nil
	})
	if err != nil {
		return result.Error[[]T](err)
	}
	return result.Success(v.([]T))
}

// fetchAndCacheByID fetches one entity and opportunistically caches it.
func (c *Coordinator[T]) fetchAndCacheByID(ctx context.Context, id string) result.Result[*T] {
	item, err := c.callFetchByID(ctx, id)
	if err != nil {
		return result.Error[*T](err)
	}
	if item == nil {
		return result.Success[*T](nil)
	}
	if ctx.Err() != nil {
		return result.Error[*T](errors.New(errors.ErrCodeOperationCanceled, "fetch canceled").WithEntityID(id))
	}

	if err := c.applyLocal(ctx, *item); err != nil {
		return result.Error[*T](err)
	}
	c.store.Put(id, *item)
	return result.Success(item)
}

// callFetchAll is the breaker-guarded remote FetchAll.
func (c *Coordinator[T]) callFetchAll(ctx context.Context) ([]T, error) {
	if !c.breaker.Allow() {
		return nil, c.unreachableError("GetAll")
	}
	items, err := c.remote.FetchAll(ctx)
	if err != nil {
		c.recordRemoteOutcome(err)
		return nil, errors.Wrap(err, errors.ErrCodeRemoteFailed)
	}
	c.breaker.RecordSuccess()
	return items, nil
}

// callFetchByID is the breaker-guarded remote FetchByID.
func (c *Coordinator[T]) callFetchByID(ctx context.Context, id string) (*T, error) {
	if !c.breaker.Allow() {
		return nil, c.unreachableError("GetByID")
	}
	item, err := c.remote.FetchByID(ctx, id)
	if err != nil {
		c.recordRemoteOutcome(err)
		return nil, errors.Wrap(err, errors.ErrCodeRemoteFailed)
	}
	c.breaker.RecordSuccess()
	return item, nil
}

// recordRemoteOutcome feeds the breaker from a remote call error. Any reply
// other than unreachable proves the remote is up, so it counts as success
// for availability purposes; an open or half-open breaker closes on it.
func (c *Coordinator[T]) recordRemoteOutcome(err error) {
	if errors.IsUnreachable(err) {
		c.breaker.RecordFailure()
		return
	}
	c.breaker.RecordSuccess()
}

// unreachableError is the synthesized failure for a breaker-diverted call.
func (c *Coordinator[T]) unreachableError(operation string) *errors.SyncError {
	return errors.New(errors.ErrCodeRemoteUnreachable, "remote diverted by availability breaker").
		WithComponent("coordinator").
		WithOperation(operation)
}

// lightCleanup trims the least-recently-used quartile of the blob cache.
func (c *Coordinator[T]) lightCleanup(level memmon.PressureLevel) {
	if c.blobs == nil {
		return
	}
	trimmed := c.blobs.TrimQuartile()
	c.metrics.RecordEvictions(c.name, "pressure_high", trimmed)
	c.logger.Warn("light cleanup performed", map[string]interface{}{
		"level":   level.String(),
		"trimmed": trimmed,
	})
}

// aggressiveCleanup clears the blob cache and halves the per-id store,
// oldest-inserted first.
func (c *Coordinator[T]) aggressiveCleanup(level memmon.PressureLevel) {
	if c.blobs != nil {
		c.blobs.Clear()
	}
	trimmed := c.store.TrimOldest(0.5)
	c.collection.Invalidate()
	c.metrics.RecordEvictions(c.name, "pressure_critical", trimmed)
	c.metrics.SetCacheEntries(c.name, c.store.Len())
	c.logger.Warn("aggressive cleanup performed", map[string]interface{}{
		"level":   level.String(),
		"trimmed": trimmed,
	})
}

// observe records one operation's latency.
func (c *Coordinator[T]) observe(operation string, start time.Time) {
	c.metrics.ObserveOperation(c.name, operation, time.Since(start))
}

// sweepLoop periodically removes expired per-id entries.
func (c *Coordinator[T]) sweepLoop(stopCh <-chan struct{}) {
	defer c.wg.Done()

	ticker := time.NewTicker(c.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			removed := c.store.SweepExpired()
			if removed > 0 {
				c.metrics.RecordEvictions(c.name, "ttl_sweep", removed)
				c.logger.Debug("expired entries swept", map[string]interface{}{
					"removed": removed,
				})
			}
			c.metrics.SetCacheEntries(c.name, c.store.Len())
		}
	}
}
