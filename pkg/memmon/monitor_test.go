package memmon

import (
	"sync"
	"testing"
	"time"
)

func TestPressureLevelString(t *testing.T) {
	tests := []struct {
		level    PressureLevel
		expected string
	}{
		{LevelNormal, "NORMAL"},
		{LevelElevated, "ELEVATED"},
		{LevelHigh, "HIGH"},
		{LevelCritical, "CRITICAL"},
		{PressureLevel(99), "UNKNOWN"},
	}

	for _, tt := range tests {
		if got := tt.level.String(); got != tt.expected {
			t.Errorf("String(%d) = %s, expected %s", tt.level, got, tt.expected)
		}
	}
}

func TestClassifyThresholds(t *testing.T) {
	monitor := NewMonitor(DefaultMonitorConfig())

	tests := []struct {
		ratio    float64
		expected PressureLevel
	}{
		{0.10, LevelNormal},
		{0.60, LevelNormal},
		{0.61, LevelElevated},
		{0.75, LevelElevated},
		{0.76, LevelHigh},
		{0.90, LevelHigh},
		{0.91, LevelCritical},
		{0.99, LevelCritical},
	}

	for _, tt := range tests {
		if got := monitor.classify(tt.ratio); got != tt.expected {
			t.Errorf("classify(%.2f) = %s, expected %s", tt.ratio, got, tt.expected)
		}
	}
}

func TestMonotonicPressureSequence(t *testing.T) {
	ratios := []float64{0.50, 0.65, 0.80, 0.95}
	idx := 0

	config := DefaultMonitorConfig()
	config.Sampler = func() float64 {
		r := ratios[idx]
		if idx < len(ratios)-1 {
			idx++
		}
		return r
	}

	monitor := NewMonitor(config)

	highCalls := 0
	criticalCalls := 0
	monitor.RegisterCleanup(LevelHigh, func(PressureLevel) { highCalls++ })
	monitor.RegisterCleanup(LevelCritical, func(PressureLevel) { criticalCalls++ })

	expected := []PressureLevel{LevelNormal, LevelElevated, LevelHigh, LevelCritical}
	for i, want := range expected {
		if got := monitor.Check(); got != want {
			t.Fatalf("sample %d: level = %s, expected %s", i, got, want)
		}
	}

	if highCalls != 1 {
		t.Errorf("HIGH cleanup invoked %d times, expected exactly once", highCalls)
	}
	if criticalCalls != 1 {
		t.Errorf("CRITICAL cleanup invoked %d times, expected exactly once", criticalCalls)
	}

	// Remaining in CRITICAL must not re-fire the callback.
	monitor.Check()
	monitor.Check()
	if criticalCalls != 1 {
		t.Errorf("CRITICAL cleanup re-fired while remaining in state: %d calls", criticalCalls)
	}
}

func TestCleanupFiresPerEntryIntoState(t *testing.T) {
	ratio := 0.50
	config := DefaultMonitorConfig()
	config.Sampler = func() float64 { return ratio }

	monitor := NewMonitor(config)

	highCalls := 0
	monitor.RegisterCleanup(LevelHigh, func(PressureLevel) { highCalls++ })

	ratio = 0.80
	monitor.Check()
	ratio = 0.50
	monitor.Check()
	ratio = 0.80
	monitor.Check()

	if highCalls != 2 {
		t.Errorf("expected HIGH cleanup once per entry (2), got %d", highCalls)
	}
}

func TestOnLevelChangeFiresOnEveryTransition(t *testing.T) {
	ratio := 0.50
	config := DefaultMonitorConfig()
	config.Sampler = func() float64 { return ratio }

	type transition struct{ from, to PressureLevel }
	var transitions []transition
	config.OnLevelChange = func(from, to PressureLevel) {
		transitions = append(transitions, transition{from, to})
	}

	monitor := NewMonitor(config)

	monitor.Check() // stays NORMAL, no transition
	ratio = 0.65
	monitor.Check() // NORMAL -> ELEVATED
	ratio = 0.80
	monitor.Check() // ELEVATED -> HIGH
	ratio = 0.50
	monitor.Check() // HIGH -> NORMAL
	monitor.Check() // stays NORMAL

	expected := []transition{
		{LevelNormal, LevelElevated},
		{LevelElevated, LevelHigh},
		{LevelHigh, LevelNormal},
	}
	if len(transitions) != len(expected) {
		t.Fatalf("got %d transitions, expected %d", len(transitions), len(expected))
	}
	for i, want := range expected {
		if transitions[i] != want {
			t.Errorf("transition %d = %s->%s, expected %s->%s",
				i, transitions[i].from, transitions[i].to, want.from, want.to)
		}
	}
}

func TestStartStopIdempotent(t *testing.T) {
	config := DefaultMonitorConfig()
	config.SampleInterval = 10 * time.Millisecond
	config.Sampler = func() float64 { return 0.1 }

	monitor := NewMonitor(config)

	monitor.StartMonitoring()
	monitor.StartMonitoring() // no-op

	time.Sleep(30 * time.Millisecond)

	monitor.StopMonitoring()
	monitor.StopMonitoring() // no-op

	if monitor.CurrentLevel() != LevelNormal {
		t.Errorf("expected NORMAL after low-usage run, got %s", monitor.CurrentLevel())
	}

	// Restartable after a stop.
	monitor.StartMonitoring()
	monitor.StopMonitoring()
}

func TestStartStopConcurrent(t *testing.T) {
	config := DefaultMonitorConfig()
	config.SampleInterval = time.Millisecond
	config.Sampler = func() float64 { return 0.1 }

	monitor := NewMonitor(config)

	var wg sync.WaitGroup
	for i := 0; i < 25; i++ {
		wg.Add(2)
		go func() { defer wg.Done(); monitor.StartMonitoring() }()
		go func() { defer wg.Done(); monitor.StopMonitoring() }()
	}
	wg.Wait()
	monitor.StopMonitoring()
}

func TestNoCallbackAfterStop(t *testing.T) {
	config := DefaultMonitorConfig()
	config.SampleInterval = 5 * time.Millisecond
	config.Sampler = func() float64 { return 0.95 }

	monitor := NewMonitor(config)

	monitor.StartMonitoring()
	time.Sleep(20 * time.Millisecond)
	monitor.StopMonitoring()

	fired := false
	monitor.RegisterCleanup(LevelCritical, func(PressureLevel) { fired = true })

	time.Sleep(20 * time.Millisecond)
	if fired {
		t.Error("cleanup fired after StopMonitoring returned")
	}
}

func TestInitialStateIsNormal(t *testing.T) {
	monitor := NewMonitor(DefaultMonitorConfig())
	if monitor.CurrentLevel() != LevelNormal {
		t.Errorf("initial level = %s, expected NORMAL", monitor.CurrentLevel())
	}
}
