package config

import (
	"strings"

	"github.com/syncstore/syncstore/internal/cache"
	"github.com/syncstore/syncstore/internal/metrics"
	"github.com/syncstore/syncstore/internal/repo"
	"github.com/syncstore/syncstore/internal/syncmgr"
	"github.com/syncstore/syncstore/pkg/memmon"
	"github.com/syncstore/syncstore/pkg/utils"
)

// Logger builds the root structured logger from the global section.
func (c *Configuration) Logger() (*utils.StructuredLogger, error) {
	level, err := utils.ParseLogLevel(c.Global.LogLevel)
	if err != nil {
		return nil, err
	}
	format := utils.FormatText
	if strings.EqualFold(c.Global.LogFormat, "json") {
		format = utils.FormatJSON
	}
	return utils.NewStructuredLogger(&utils.StructuredLoggerConfig{
		Level:  level,
		Format: format,
	})
}

// CoordinatorConfig builds the coordinator configuration for one entity
// type. Shared collaborators (logger, metrics, monitor, blob cache) are
// attached by the caller, since one of each serves every coordinator.
func (c *Configuration) CoordinatorConfig(entityName string) (repo.Config, error) {
	strategy, err := repo.ParseStrategy(c.Cache.Strategy)
	if err != nil {
		return repo.Config{}, err
	}

	cfg := repo.DefaultConfig(entityName)
	cfg.Policy = repo.Policy{
		Strategy:   strategy,
		DefaultTTL: c.Cache.DefaultTTL,
		MaxEntries: c.Cache.MaxEntries,
	}
	cfg.SweepInterval = c.Cache.SweepInterval
	cfg.Queue = c.Queue
	cfg.Breaker = c.Breaker
	return cfg, nil
}

// BlobCache builds the shared secondary byte cache.
func (c *Configuration) BlobCache() *cache.BlobCache {
	return cache.NewBlobCache(c.Cache.BlobCapacity)
}

// Collector builds the metrics collector, nil when metrics are disabled.
func (c *Configuration) Collector() *metrics.Collector {
	return metrics.NewCollector(c.Metrics)
}

// MonitorConfig builds the pressure monitor configuration. Every level
// transition is forwarded to the collector's pressure gauge; the collector
// may be nil.
func (c *Configuration) MonitorConfig(collector *metrics.Collector) memmon.MonitorConfig {
	return memmon.MonitorConfig{
		SampleInterval:    c.Monitor.SampleInterval,
		ElevatedThreshold: c.Monitor.ElevatedThreshold,
		HighThreshold:     c.Monitor.HighThreshold,
		CriticalThreshold: c.Monitor.CriticalThreshold,
		OnLevelChange: func(_, to memmon.PressureLevel) {
			collector.SetPressureLevel(int(to))
		},
	}
}

// SyncManagerConfig builds the sync manager configuration, mapping the sync
// section onto the retry policy used for queue draining.
func (c *Configuration) SyncManagerConfig() syncmgr.Config {
	cfg := syncmgr.DefaultConfig()
	cfg.Interval = c.Sync.Interval

	retryCfg := cfg.Retry
	if c.Sync.MaxAttempts > 0 {
		retryCfg.MaxAttempts = c.Sync.MaxAttempts
	}
	if c.Sync.BaseDelay > 0 {
		retryCfg.InitialDelay = c.Sync.BaseDelay
	}
	if c.Sync.MaxDelay > 0 {
		retryCfg.MaxDelay = c.Sync.MaxDelay
	}
	cfg.Retry = retryCfg
	return cfg
}
