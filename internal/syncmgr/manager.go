// Package syncmgr drives reconciliation for one coordinator: boolean
// convenience wrappers for schedulers, retry-backed draining of the offline
// queue, and an optional periodic trigger.
package syncmgr

import (
	"context"
	"sync"
	"time"

	"github.com/syncstore/syncstore/internal/offline"
	"github.com/syncstore/syncstore/internal/repo"
	"github.com/syncstore/syncstore/pkg/errors"
	"github.com/syncstore/syncstore/pkg/retry"
	"github.com/syncstore/syncstore/pkg/types"
	"github.com/syncstore/syncstore/pkg/utils"
)

// Config represents sync manager configuration.
type Config struct {
	// Interval between periodic sync passes; 0 disables the periodic trigger
	Interval time.Duration `yaml:"interval"`

	// Retry configures backoff for queue draining
	Retry retry.Config `yaml:"retry"`

	// Logger for sync events
	Logger *utils.StructuredLogger `yaml:"-"`
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Interval: 5 * time.Minute,
		Retry:    retry.DefaultConfig(),
	}
}

// Report summarizes one sync pass.
type Report struct {
	StartedAt time.Time
	Duration  time.Duration
	Refreshed bool
	Replay    offline.ReplayReport
	Pending   int
}

// Manager reconciles one coordinator with its remote. External schedulers
// (timers, connectivity listeners) call SyncAll/SyncByID/Drain directly; the
// built-in periodic trigger is optional.
type Manager[T types.Entity] struct {
	coordinator *repo.Coordinator[T]
	retryer     *retry.Retryer
	interval    time.Duration
	logger      *utils.StructuredLogger

	mu   sync.RWMutex
	last Report

	lifecycleMu sync.Mutex
	running     bool
	stopCh      chan struct{}
	wg          sync.WaitGroup
}

// NewManager creates a sync manager over one coordinator.
func NewManager[T types.Entity](coordinator *repo.Coordinator[T], config Config) *Manager[T] {
	logger := config.Logger
	if logger == nil {
		logger, _ = utils.NewStructuredLogger(nil)
	}
	return &Manager[T]{
		coordinator: coordinator,
		retryer:     retry.New(config.Retry),
		interval:    config.Interval,
		logger:      logger.WithComponent("syncmgr").WithField("entity", coordinator.EntityName()),
	}
}

// SyncAll refreshes the full collection from the remote, reporting simple
// completion for scheduler use.
func (m *Manager[T]) SyncAll(ctx context.Context) bool {
	if err := m.coordinator.Refresh(ctx); err != nil {
		m.logger.Warn("collection sync failed", map[string]interface{}{
			"error": err.Error(),
		})
		return false
	}
	return true
}

// SyncByID refreshes one entity from the remote.
func (m *Manager[T]) SyncByID(ctx context.Context, id string) bool {
	if err := m.coordinator.RefreshByID(ctx, id); err != nil {
		m.logger.Warn("entity sync failed", map[string]interface{}{
			"entity_id": id,
			"error":     err.Error(),
		})
		return false
	}
	return true
}

// Drain replays the offline queue with retry backoff, returning the combined
// report across attempts. Operations that keep failing stay queued for the
// next drain.
func (m *Manager[T]) Drain(ctx context.Context) offline.ReplayReport {
	var combined offline.ReplayReport

	_ = m.retryer.DoWithContext(ctx, func(ctx context.Context) error {
		report := m.coordinator.DrainQueue(ctx)
		combined.Attempted += report.Attempted
		combined.Succeeded += report.Succeeded
		combined.Failed += report.Failed
		combined.Dropped += report.Dropped
		if report.Failed > 0 {
			return retryableDrainError(report.Failed)
		}
		return nil
	})

	return combined
}

// retryableDrainError makes a partial drain retryable by the backoff policy.
func retryableDrainError(failed int) error {
	return errors.Newf(errors.ErrCodeRemoteUnreachable, "%d operations still pending replay", failed)
}

// Sync runs one full pass: refresh the collection, then drain the queue.
func (m *Manager[T]) Sync(ctx context.Context) Report {
	start := time.Now()
	report := Report{
		StartedAt: start,
		Refreshed: m.SyncAll(ctx),
	}
	report.Replay = m.Drain(ctx)
	report.Pending = m.coordinator.PendingCount()
	report.Duration = time.Since(start)

	m.mu.Lock()
	m.last = report
	m.mu.Unlock()

	m.logger.Info("sync pass complete", map[string]interface{}{
		"refreshed": report.Refreshed,
		"replayed":  report.Replay.Succeeded,
		"failed":    report.Replay.Failed,
		"pending":   report.Pending,
		"duration":  report.Duration,
	})
	return report
}

// LastReport returns the most recent sync pass summary.
func (m *Manager[T]) LastReport() Report {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.last
}

// Start launches the periodic sync trigger. Starting an already running
// manager is a no-op; a zero interval disables the trigger entirely.
func (m *Manager[T]) Start() {
	if m.interval <= 0 {
		return
	}
	m.lifecycleMu.Lock()
	defer m.lifecycleMu.Unlock()
	if m.running {
		return
	}
	m.running = true
	m.stopCh = make(chan struct{})
	m.wg.Add(1)
	go m.syncLoop(m.stopCh)
}

// Stop cancels the periodic trigger and waits for an in-flight pass.
func (m *Manager[T]) Stop() {
	m.lifecycleMu.Lock()
	if !m.running {
		m.lifecycleMu.Unlock()
		return
	}
	m.running = false
	stopCh := m.stopCh
	m.lifecycleMu.Unlock()

	close(stopCh)
	m.wg.Wait()
}

// syncLoop runs periodic sync passes until stopped.
func (m *Manager[T]) syncLoop(stopCh <-chan struct{}) {
	defer m.wg.Done()

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), m.interval)
			m.Sync(ctx)
			cancel()
		}
	}
}
