package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestNewDefaultIsValid(t *testing.T) {
	cfg := NewDefault()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default configuration must validate: %v", err)
	}

	if cfg.Cache.Strategy != "CACHE_FIRST" {
		t.Errorf("default strategy = %s, expected CACHE_FIRST", cfg.Cache.Strategy)
	}
	if cfg.Cache.DefaultTTL != 5*time.Minute {
		t.Errorf("default TTL = %v, expected 5m", cfg.Cache.DefaultTTL)
	}
	if cfg.Monitor.SampleInterval != 2*time.Second {
		t.Errorf("default sample interval = %v, expected 2s", cfg.Monitor.SampleInterval)
	}
}

func TestLoadFromFile(t *testing.T) {
	content := `
global:
  log_level: DEBUG
  log_format: json
cache:
  strategy: NETWORK_FIRST
  default_ttl: 30s
  max_entries: 500
queue:
  max_pending: 50
remote:
  bucket: my-bucket
  prefix: entities/
  region: eu-west-1
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg := NewDefault()
	if err := cfg.LoadFromFile(path); err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}

	if cfg.Global.LogLevel != "DEBUG" {
		t.Errorf("log level = %s", cfg.Global.LogLevel)
	}
	if cfg.Cache.Strategy != "NETWORK_FIRST" {
		t.Errorf("strategy = %s", cfg.Cache.Strategy)
	}
	if cfg.Cache.DefaultTTL != 30*time.Second {
		t.Errorf("ttl = %v", cfg.Cache.DefaultTTL)
	}
	if cfg.Cache.MaxEntries != 500 {
		t.Errorf("max entries = %d", cfg.Cache.MaxEntries)
	}
	if cfg.Queue.MaxPending != 50 {
		t.Errorf("max pending = %d", cfg.Queue.MaxPending)
	}
	if cfg.Remote.Bucket != "my-bucket" || cfg.Remote.Region != "eu-west-1" {
		t.Errorf("remote = %+v", cfg.Remote)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("loaded configuration should validate: %v", err)
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	cfg := NewDefault()
	if err := cfg.LoadFromFile("/nonexistent/config.yaml"); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("SYNCSTORE_LOG_LEVEL", "WARN")
	t.Setenv("SYNCSTORE_CACHE_STRATEGY", "CACHE_ONLY")
	t.Setenv("SYNCSTORE_CACHE_TTL", "90s")
	t.Setenv("SYNCSTORE_CACHE_MAX_ENTRIES", "42")
	t.Setenv("SYNCSTORE_METRICS_ENABLED", "false")
	t.Setenv("SYNCSTORE_S3_BUCKET", "env-bucket")
	t.Setenv("SYNCSTORE_S3_FORCE_PATH_STYLE", "true")

	cfg := NewDefault()
	if err := cfg.LoadFromEnv(); err != nil {
		t.Fatalf("LoadFromEnv: %v", err)
	}

	if cfg.Global.LogLevel != "WARN" {
		t.Errorf("log level = %s", cfg.Global.LogLevel)
	}
	if cfg.Cache.Strategy != "CACHE_ONLY" {
		t.Errorf("strategy = %s", cfg.Cache.Strategy)
	}
	if cfg.Cache.DefaultTTL != 90*time.Second {
		t.Errorf("ttl = %v", cfg.Cache.DefaultTTL)
	}
	if cfg.Cache.MaxEntries != 42 {
		t.Errorf("max entries = %d", cfg.Cache.MaxEntries)
	}
	if cfg.Metrics.Enabled {
		t.Error("metrics should be disabled")
	}
	if cfg.Remote.Bucket != "env-bucket" || !cfg.Remote.ForcePathStyle {
		t.Errorf("remote = %+v", cfg.Remote)
	}
}

func TestSaveAndReloadRoundTrip(t *testing.T) {
	cfg := NewDefault()
	cfg.Cache.Strategy = "NETWORK_ONLY"
	cfg.Queue.MaxPending = 7

	path := filepath.Join(t.TempDir(), "sub", "config.yaml")
	if err := cfg.SaveToFile(path); err != nil {
		t.Fatalf("SaveToFile: %v", err)
	}

	reloaded := NewDefault()
	if err := reloaded.LoadFromFile(path); err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}
	if reloaded.Cache.Strategy != "NETWORK_ONLY" || reloaded.Queue.MaxPending != 7 {
		t.Errorf("round trip lost values: %+v", reloaded)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Configuration)
	}{
		{"bad log level", func(c *Configuration) { c.Global.LogLevel = "VERBOSE" }},
		{"bad strategy", func(c *Configuration) { c.Cache.Strategy = "EVENTUALLY" }},
		{"negative ttl", func(c *Configuration) { c.Cache.DefaultTTL = -time.Second }},
		{"negative max entries", func(c *Configuration) { c.Cache.MaxEntries = -1 }},
		{"negative max pending", func(c *Configuration) { c.Queue.MaxPending = -1 }},
		{"threshold order", func(c *Configuration) { c.Monitor.HighThreshold = 0.5 }},
		{"threshold above one", func(c *Configuration) { c.Monitor.CriticalThreshold = 1.5 }},
		{"metrics without address", func(c *Configuration) { c.Metrics.ListenAddress = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefault()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
