// Package memmon provides process-wide memory pressure monitoring with
// tiered cleanup callbacks for syncstore caches.
package memmon

import (
	"runtime"
	"sync"
	"time"

	"github.com/syncstore/syncstore/pkg/utils"
)

// PressureLevel classifies system memory scarcity. Levels are ordered:
// a higher value means less memory headroom.
type PressureLevel int

const (
	// LevelNormal - memory usage is below all thresholds
	LevelNormal PressureLevel = iota
	// LevelElevated - usage crossed the elevated threshold, no action taken
	LevelElevated
	// LevelHigh - usage crossed the high threshold, light cleanup runs
	LevelHigh
	// LevelCritical - usage crossed the critical threshold, aggressive cleanup runs
	LevelCritical
)

// String returns the string representation of a pressure level.
func (l PressureLevel) String() string {
	switch l {
	case LevelNormal:
		return "NORMAL"
	case LevelElevated:
		return "ELEVATED"
	case LevelHigh:
		return "HIGH"
	case LevelCritical:
		return "CRITICAL"
	default:
		return "UNKNOWN"
	}
}

// UsageSampler reports the current used/total memory ratio in [0, 1].
type UsageSampler func() float64

// CleanupFunc is invoked when the monitor transitions into the severity it
// was registered for.
type CleanupFunc func(level PressureLevel)

// MonitorConfig configures pressure monitoring behavior.
type MonitorConfig struct {
	// SampleInterval is how often memory usage is sampled
	SampleInterval time.Duration

	// Classification thresholds as used/total ratios
	ElevatedThreshold float64
	HighThreshold     float64
	CriticalThreshold float64

	// Sampler supplies usage readings; defaults to runtime heap statistics
	Sampler UsageSampler

	// OnLevelChange is notified of every level transition, including those
	// into NORMAL and ELEVATED where no cleanup runs
	OnLevelChange func(from, to PressureLevel)

	// Logger for monitoring events
	Logger *utils.StructuredLogger
}

// DefaultMonitorConfig returns sensible defaults.
func DefaultMonitorConfig() MonitorConfig {
	return MonitorConfig{
		SampleInterval:    2 * time.Second,
		ElevatedThreshold: 0.60,
		HighThreshold:     0.75,
		CriticalThreshold: 0.90,
	}
}

// Monitor samples memory usage on an interval, classifies it into pressure
// levels, and fires registered cleanup callbacks on transitions into HIGH
// and CRITICAL. One Monitor instance is shared by reference across all
// coordinators; it never inspects any cache directly.
type Monitor struct {
	config MonitorConfig
	logger *utils.StructuredLogger

	mu       sync.RWMutex
	level    PressureLevel
	cleanups map[PressureLevel][]CleanupFunc

	lifecycleMu sync.Mutex
	running     bool
	stopCh      chan struct{}
	wg          sync.WaitGroup
}

// NewMonitor creates a new pressure monitor.
func NewMonitor(config MonitorConfig) *Monitor {
	if config.SampleInterval <= 0 {
		config.SampleInterval = 2 * time.Second
	}
	if config.ElevatedThreshold <= 0 {
		config.ElevatedThreshold = 0.60
	}
	if config.HighThreshold <= 0 {
		config.HighThreshold = 0.75
	}
	if config.CriticalThreshold <= 0 {
		config.CriticalThreshold = 0.90
	}
	if config.Sampler == nil {
		config.Sampler = heapUsageRatio
	}
	if config.Logger == nil {
		logger, _ := utils.NewStructuredLogger(nil)
		config.Logger = logger
	}

	return &Monitor{
		config:   config,
		logger:   config.Logger.WithComponent("memmon"),
		level:    LevelNormal,
		cleanups: make(map[PressureLevel][]CleanupFunc),
	}
}

// heapUsageRatio is the default sampler, derived from runtime heap statistics.
func heapUsageRatio() float64 {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)
	if memStats.HeapSys == 0 {
		return 0
	}
	return float64(memStats.HeapAlloc) / float64(memStats.HeapSys)
}

// RegisterCleanup registers a callback fired once per transition into the
// given severity. Safe to call concurrently from multiple coordinators
// during their initialization.
func (m *Monitor) RegisterCleanup(level PressureLevel, fn CleanupFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cleanups[level] = append(m.cleanups[level], fn)
}

// StartMonitoring begins periodic sampling. Starting an already running
// monitor is a no-op.
func (m *Monitor) StartMonitoring() {
	m.lifecycleMu.Lock()
	defer m.lifecycleMu.Unlock()
	if m.running {
		return
	}
	m.running = true

	m.logger.Info("Starting memory pressure monitor", map[string]interface{}{
		"sample_interval": m.config.SampleInterval,
	})

	m.stopCh = make(chan struct{})
	m.wg.Add(1)
	go m.monitorLoop(m.stopCh)
}

// StopMonitoring cancels the sampling interval. No callbacks fire after it
// returns. Stopping an already stopped monitor is a no-op.
func (m *Monitor) StopMonitoring() {
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

	m.logger.Info("Memory pressure monitor stopped", nil)
}

// CurrentLevel returns the most recently classified pressure level.
func (m *Monitor) CurrentLevel() PressureLevel {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.level
}

// Check samples usage once and applies any resulting transition. The
// monitor loop calls this on every tick; tests and embedders may call it
// directly to force a classification.
func (m *Monitor) Check() PressureLevel {
	ratio := m.config.Sampler()
	newLevel := m.classify(ratio)

	m.mu.Lock()
	oldLevel := m.level
	if newLevel == oldLevel {
		m.mu.Unlock()
		return newLevel
	}
	m.level = newLevel
	var fns []CleanupFunc
	if newLevel == LevelHigh || newLevel == LevelCritical {
		fns = append(fns, m.cleanups[newLevel]...)
	}
	m.mu.Unlock()

	m.logger.Info("Memory pressure level changed", map[string]interface{}{
		"from":  oldLevel.String(),
		"to":    newLevel.String(),
		"ratio": ratio,
	})

	// Callbacks run outside the lock; a callback may re-register or read
	// the current level without deadlocking.
	if m.config.OnLevelChange != nil {
		m.config.OnLevelChange(oldLevel, newLevel)
	}
	for _, fn := range fns {
		fn(newLevel)
	}

	if newLevel == LevelHigh || newLevel == LevelCritical {
		// Cooperative reclamation hint to the runtime.
		runtime.GC()
	}

	return newLevel
}

// classify maps a usage ratio onto a pressure level.
func (m *Monitor) classify(ratio float64) PressureLevel {
	switch {
	case ratio > m.config.CriticalThreshold:
		return LevelCritical
	case ratio > m.config.HighThreshold:
		return LevelHigh
	case ratio > m.config.ElevatedThreshold:
		return LevelElevated
	default:
		return LevelNormal
	}
}

// monitorLoop runs the sampling loop.
func (m *Monitor) monitorLoop(stopCh <-chan struct{}) {
	defer m.wg.Done()

	ticker := time.NewTicker(m.config.SampleInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			m.Check()
		}
	}
}
