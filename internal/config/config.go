// Package config provides YAML and environment based configuration for all
// syncstore components.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/syncstore/syncstore/internal/circuit"
	"github.com/syncstore/syncstore/internal/metrics"
	"github.com/syncstore/syncstore/internal/offline"
	"github.com/syncstore/syncstore/internal/repo"
	s3remote "github.com/syncstore/syncstore/pkg/datasource/s3"
	"github.com/syncstore/syncstore/pkg/utils"
)

// Configuration represents the complete syncstore configuration. Sections
// whose component already defines a YAML-tagged config struct embed that
// struct directly, so a loaded section needs no field-by-field translation.
type Configuration struct {
	Global  GlobalConfig        `yaml:"global"`
	Cache   CacheConfig         `yaml:"cache"`
	Queue   offline.QueueConfig `yaml:"queue"`
	Breaker circuit.Config      `yaml:"breaker"`
	Monitor MonitorConfig       `yaml:"monitor"`
	Sync    SyncConfig          `yaml:"sync"`
	Metrics metrics.Config      `yaml:"metrics"`
	Remote  s3remote.Config     `yaml:"remote"`
}

// GlobalConfig represents global application settings.
type GlobalConfig struct {
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// CacheConfig represents cache policy settings.
type CacheConfig struct {
	Strategy      string        `yaml:"strategy"`
	DefaultTTL    time.Duration `yaml:"default_ttl"`
	MaxEntries    int           `yaml:"max_entries"`
	SweepInterval time.Duration `yaml:"sweep_interval"`
	BlobCapacity  int64         `yaml:"blob_capacity"`
}

// MonitorConfig represents memory pressure monitor settings.
type MonitorConfig struct {
	SampleInterval    time.Duration `yaml:"sample_interval"`
	ElevatedThreshold float64       `yaml:"elevated_threshold"`
	HighThreshold     float64       `yaml:"high_threshold"`
	CriticalThreshold float64       `yaml:"critical_threshold"`
}

// SyncConfig represents sync manager settings.
type SyncConfig struct {
	Interval    time.Duration `yaml:"interval"`
	MaxAttempts int           `yaml:"max_attempts"`
	BaseDelay   time.Duration `yaml:"base_delay"`
	MaxDelay    time.Duration `yaml:"max_delay"`
}

// NewDefault returns a configuration with sensible defaults.
func NewDefault() *Configuration {
	return &Configuration{
		Global: GlobalConfig{
			LogLevel:  "INFO",
			LogFormat: "text",
		},
		Cache: CacheConfig{
			Strategy:      "CACHE_FIRST",
			DefaultTTL:    5 * time.Minute,
			MaxEntries:    10000,
			SweepInterval: time.Minute,
			BlobCapacity:  64 * 1024 * 1024,
		},
		Queue:   offline.DefaultQueueConfig(),
		Breaker: circuit.DefaultConfig(),
		Monitor: MonitorConfig{
			SampleInterval:    2 * time.Second,
			ElevatedThreshold: 0.60,
			HighThreshold:     0.75,
			CriticalThreshold: 0.90,
		},
		Sync: SyncConfig{
			Interval:    5 * time.Minute,
			MaxAttempts: 3,
			BaseDelay:   100 * time.Millisecond,
			MaxDelay:    10 * time.Second,
		},
		Metrics: metrics.DefaultConfig(),
		Remote: s3remote.Config{
			Region:         "us-east-1",
			MaxRetries:     3,
			RequestTimeout: 30 * time.Second,
		},
	}
}

// LoadFromFile loads configuration from a YAML file.
func (c *Configuration) LoadFromFile(filename string) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// LoadFromEnv overrides configuration from SYNCSTORE_* environment variables.
func (c *Configuration) LoadFromEnv() error {
	if val := os.Getenv("SYNCSTORE_LOG_LEVEL"); val != "" {
		c.Global.LogLevel = val
	}
	if val := os.Getenv("SYNCSTORE_LOG_FORMAT"); val != "" {
		c.Global.LogFormat = val
	}

	if val := os.Getenv("SYNCSTORE_CACHE_STRATEGY"); val != "" {
		c.Cache.Strategy = val
	}
	if val := os.Getenv("SYNCSTORE_CACHE_TTL"); val != "" {
		if duration, err := time.ParseDuration(val); err == nil {
			c.Cache.DefaultTTL = duration
		}
	}
	if val := os.Getenv("SYNCSTORE_CACHE_MAX_ENTRIES"); val != "" {
		if entries, err := strconv.Atoi(val); err == nil {
			c.Cache.MaxEntries = entries
		}
	}

	if val := os.Getenv("SYNCSTORE_QUEUE_MAX_PENDING"); val != "" {
		if pending, err := strconv.Atoi(val); err == nil {
			c.Queue.MaxPending = pending
		}
	}

	if val := os.Getenv("SYNCSTORE_SYNC_INTERVAL"); val != "" {
		if duration, err := time.ParseDuration(val); err == nil {
			c.Sync.Interval = duration
		}
	}

	if val := os.Getenv("SYNCSTORE_METRICS_ENABLED"); val != "" {
		c.Metrics.Enabled = strings.ToLower(val) == "true"
	}
	if val := os.Getenv("SYNCSTORE_METRICS_ADDRESS"); val != "" {
		c.Metrics.ListenAddress = val
	}

	if val := os.Getenv("SYNCSTORE_S3_BUCKET"); val != "" {
		c.Remote.Bucket = val
	}
	if val := os.Getenv("SYNCSTORE_S3_PREFIX"); val != "" {
		c.Remote.Prefix = val
	}
	if val := os.Getenv("SYNCSTORE_S3_REGION"); val != "" {
		c.Remote.Region = val
	}
	if val := os.Getenv("SYNCSTORE_S3_ENDPOINT"); val != "" {
		c.Remote.Endpoint = val
	}
	if val := os.Getenv("SYNCSTORE_S3_FORCE_PATH_STYLE"); val != "" {
		c.Remote.ForcePathStyle = strings.ToLower(val) == "true"
	}

	return nil
}

// SaveToFile saves the configuration to a YAML file.
func (c *Configuration) SaveToFile(filename string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(filename), 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(filename, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate validates the configuration.
func (c *Configuration) Validate() error {
	if _, err := utils.ParseLogLevel(c.Global.LogLevel); err != nil {
		return fmt.Errorf("invalid log_level: %w", err)
	}
	if _, err := repo.ParseStrategy(c.Cache.Strategy); err != nil {
		return fmt.Errorf("invalid cache strategy: %w", err)
	}

	if c.Cache.DefaultTTL < 0 {
		return fmt.Errorf("cache default_ttl cannot be negative")
	}
	if c.Cache.MaxEntries < 0 {
		return fmt.Errorf("cache max_entries cannot be negative")
	}
	if c.Queue.MaxPending < 0 {
		return fmt.Errorf("queue max_pending cannot be negative")
	}

	if c.Monitor.ElevatedThreshold >= c.Monitor.HighThreshold ||
		c.Monitor.HighThreshold >= c.Monitor.CriticalThreshold {
		return fmt.Errorf("monitor thresholds must satisfy elevated < high < critical")
	}
	if c.Monitor.CriticalThreshold > 1 {
		return fmt.Errorf("monitor thresholds are ratios and cannot exceed 1")
	}

	if c.Metrics.Enabled && c.Metrics.ListenAddress == "" {
		return fmt.Errorf("metrics listen_address required when metrics are enabled")
	}

	return nil
}
