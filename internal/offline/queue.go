// Package offline implements the bounded FIFO queue that captures mutations
// made while the remote is unreachable, and replays them when connectivity
// returns.
package offline

import (
	"context"
	"sync"
	"time"

	"github.com/syncstore/syncstore/pkg/datasource"
	"github.com/syncstore/syncstore/pkg/errors"
	"github.com/syncstore/syncstore/pkg/types"
	"github.com/syncstore/syncstore/pkg/utils"
)

// OpType identifies the kind of deferred mutation.
type OpType string

const (
	// OpCreate defers a Create call
	OpCreate OpType = "CREATE"
	// OpUpdate defers an Update call
	OpUpdate OpType = "UPDATE"
	// OpDelete defers a Delete call
	OpDelete OpType = "DELETE"
)

// PendingOperation is one mutation waiting for the remote to come back.
type PendingOperation[T types.Entity] struct {
	Type       OpType
	EntityID   string
	Payload    T // zero value for OpDelete
	EnqueuedAt time.Time
	Retries    int
}

// QueueConfig represents offline queue configuration.
type QueueConfig struct {
	// MaxPending bounds the queue; 0 means unbounded. Enqueue on a full
	// queue fails synchronously so the caller can surface the error.
	MaxPending int `yaml:"max_pending"`

	// MaxRetries drops an operation after this many failed replays;
	// 0 retains operations indefinitely.
	MaxRetries int `yaml:"max_retries"`
}

// DefaultQueueConfig returns sensible defaults.
func DefaultQueueConfig() QueueConfig {
	return QueueConfig{
		MaxPending: 1000,
		MaxRetries: 0,
	}
}

// ReplayReport summarizes one replay pass.
type ReplayReport struct {
	Attempted int
	Succeeded int
	Failed    int
	Dropped   int
}

// Queue is a thread-safe bounded FIFO of pending operations for one entity
// type. Replay preserves enqueue order; a failed operation is retained for
// the next pass rather than aborting the ones behind it.
type Queue[T types.Entity] struct {
	mu     sync.Mutex
	ops    []PendingOperation[T]
	config QueueConfig
	logger *utils.StructuredLogger
}

// NewQueue creates an offline queue.
func NewQueue[T types.Entity](config QueueConfig, logger *utils.StructuredLogger) *Queue[T] {
	if logger == nil {
		logger, _ = utils.NewStructuredLogger(nil)
	}
	return &Queue[T]{
		config: config,
		logger: logger.WithComponent("offline-queue"),
	}
}

// Enqueue appends one operation, failing synchronously when the queue is at
// capacity.
func (q *Queue[T]) Enqueue(op PendingOperation[T]) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.config.MaxPending > 0 && len(q.ops) >= q.config.MaxPending {
		return errors.Newf(errors.ErrCodeQueueFull, "offline queue at capacity (%d pending)", len(q.ops)).
			WithComponent("offline-queue").
			WithEntityID(op.EntityID)
	}

	op.EnqueuedAt = time.Now()
	q.ops = append(q.ops, op)

	q.logger.Debug("operation queued", map[string]interface{}{
		"type":      string(op.Type),
		"entity_id": op.EntityID,
		"pending":   len(q.ops),
	})
	return nil
}

// Len returns the number of pending operations.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.ops)
}

// Pending returns a snapshot of the queued operations in replay order.
func (q *Queue[T]) Pending() []PendingOperation[T] {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]PendingOperation[T], len(q.ops))
	copy(out, q.ops)
	return out
}

// Clear discards every pending operation, returning how many were dropped.
func (q *Queue[T]) Clear() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := len(q.ops)
	q.ops = nil
	return n
}

// DrainAndReplay applies every pending operation against the remote in FIFO
// order. Successful operations leave the queue; failed ones are retained with
// their retry count incremented (or dropped past MaxRetries) while replay
// continues with the next operation. A canceled context stops the pass and
// retains everything not yet attempted.
func (q *Queue[T]) DrainAndReplay(ctx context.Context, remote datasource.Remote[T]) ReplayReport {
	q.mu.Lock()
	batch := q.ops
	q.ops = nil
	q.mu.Unlock()

	report := ReplayReport{}
	var retained []PendingOperation[T]

	for i, op := range batch {
		if ctx.Err() != nil {
			retained = append(retained, batch[i:]...)
			break
		}

		report.Attempted++
		if err := q.apply(ctx, remote, op); err != nil {
			report.Failed++
			op.Retries++
			if q.config.MaxRetries > 0 && op.Retries >= q.config.MaxRetries {
				report.Dropped++
				q.logger.Warn("operation dropped after max retries", map[string]interface{}{
					"type":      string(op.Type),
					"entity_id": op.EntityID,
					"retries":   op.Retries,
				})
			} else {
				retained = append(retained, op)
			}
			q.logger.Warn("replay failed", map[string]interface{}{
				"type":      string(op.Type),
				"entity_id": op.EntityID,
				"error":     err.Error(),
			})
			continue
		}
		report.Succeeded++
	}

	if len(retained) > 0 {
		q.mu.Lock()
		// Mutations enqueued mid-replay stay behind the retained batch.
		q.ops = append(retained, q.ops...)
		q.mu.Unlock()
	}

	q.logger.Info("replay pass complete", map[string]interface{}{
		"attempted": report.Attempted,
		"succeeded": report.Succeeded,
		"failed":    report.Failed,
		"dropped":   report.Dropped,
	})
	return report
}

// apply executes one deferred mutation against the remote.
func (q *Queue[T]) apply(ctx context.Context, remote datasource.Remote[T], op PendingOperation[T]) error {
	switch op.Type {
	case OpCreate:
		_, err := remote.Create(ctx, op.Payload)
		return err
	case OpUpdate:
		_, err := remote.Update(ctx, op.Payload)
		return err
	case OpDelete:
		return remote.Delete(ctx, op.EntityID)
	default:
		return errors.Newf(errors.ErrCodeInvalidState, "unknown operation type %q", op.Type)
	}
}
