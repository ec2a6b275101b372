package config

import (
	"testing"
	"time"

	"github.com/syncstore/syncstore/internal/repo"
	"github.com/syncstore/syncstore/pkg/memmon"
	"github.com/syncstore/syncstore/pkg/utils"
)

func TestCoordinatorConfigFromConfiguration(t *testing.T) {
	cfg := NewDefault()
	cfg.Cache.Strategy = "NETWORK_FIRST"
	cfg.Cache.DefaultTTL = 30 * time.Second
	cfg.Cache.MaxEntries = 500
	cfg.Cache.SweepInterval = 10 * time.Second
	cfg.Queue.MaxPending = 25
	cfg.Breaker.FailureThreshold = 7

	coordCfg, err := cfg.CoordinatorConfig("user")
	if err != nil {
		t.Fatalf("CoordinatorConfig: %v", err)
	}

	if coordCfg.EntityName != "user" {
		t.Errorf("entity name = %s", coordCfg.EntityName)
	}
	if coordCfg.Policy.Strategy != repo.NetworkFirst {
		t.Errorf("strategy = %s, expected NETWORK_FIRST", coordCfg.Policy.Strategy)
	}
	if coordCfg.Policy.DefaultTTL != 30*time.Second {
		t.Errorf("ttl = %v", coordCfg.Policy.DefaultTTL)
	}
	if coordCfg.Policy.MaxEntries != 500 {
		t.Errorf("max entries = %d", coordCfg.Policy.MaxEntries)
	}
	if coordCfg.SweepInterval != 10*time.Second {
		t.Errorf("sweep interval = %v", coordCfg.SweepInterval)
	}
	if coordCfg.Queue.MaxPending != 25 {
		t.Errorf("queue max pending = %d", coordCfg.Queue.MaxPending)
	}
	if coordCfg.Breaker.FailureThreshold != 7 {
		t.Errorf("breaker threshold = %d", coordCfg.Breaker.FailureThreshold)
	}
}

func TestCoordinatorConfigRejectsBadStrategy(t *testing.T) {
	cfg := NewDefault()
	cfg.Cache.Strategy = "EVENTUALLY"

	if _, err := cfg.CoordinatorConfig("user"); err == nil {
		t.Error("expected strategy parse error")
	}
}

func TestLoggerFromConfiguration(t *testing.T) {
	cfg := NewDefault()
	cfg.Global.LogLevel = "WARN"
	cfg.Global.LogFormat = "json"

	logger, err := cfg.Logger()
	if err != nil {
		t.Fatalf("Logger: %v", err)
	}
	if logger.GetLevel() != utils.WARN {
		t.Errorf("level = %v, expected WARN", logger.GetLevel())
	}

	cfg.Global.LogLevel = "VERBOSE"
	if _, err := cfg.Logger(); err == nil {
		t.Error("expected error for unknown log level")
	}
}

func TestMonitorConfigForwardsTransitions(t *testing.T) {
	cfg := NewDefault()
	cfg.Monitor.HighThreshold = 0.80

	monCfg := cfg.MonitorConfig(nil)
	if monCfg.HighThreshold != 0.80 {
		t.Errorf("high threshold = %v", monCfg.HighThreshold)
	}
	if monCfg.OnLevelChange == nil {
		t.Fatal("MonitorConfig must wire the level-change hook")
	}

	// Nil collector: the forwarded transition must still be safe.
	monCfg.OnLevelChange(memmon.LevelNormal, memmon.LevelHigh)
}

func TestSyncManagerConfig(t *testing.T) {
	cfg := NewDefault()
	cfg.Sync.Interval = time.Minute
	cfg.Sync.MaxAttempts = 5
	cfg.Sync.BaseDelay = 50 * time.Millisecond

	smCfg := cfg.SyncManagerConfig()
	if smCfg.Interval != time.Minute {
		t.Errorf("interval = %v", smCfg.Interval)
	}
	if smCfg.Retry.MaxAttempts != 5 {
		t.Errorf("retry attempts = %d", smCfg.Retry.MaxAttempts)
	}
	if smCfg.Retry.InitialDelay != 50*time.Millisecond {
		t.Errorf("initial delay = %v", smCfg.Retry.InitialDelay)
	}

	// Zero section values keep the component defaults.
	cfg.Sync.MaxAttempts = 0
	if got := cfg.SyncManagerConfig().Retry.MaxAttempts; got != 3 {
		t.Errorf("default retry attempts = %d, expected 3", got)
	}
}

func TestBlobCacheFromConfiguration(t *testing.T) {
	cfg := NewDefault()
	cfg.Cache.BlobCapacity = 1024

	blobs := cfg.BlobCache()
	if blobs == nil {
		t.Fatal("expected a blob cache")
	}
	blobs.Put("k", make([]byte, 512))
	if blobs.Get("k") == nil {
		t.Error("blob cache must store within capacity")
	}
}
