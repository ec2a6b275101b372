// Package circuit provides the remote availability breaker the coordinator
// consults before calling the remote data source. After repeated unreachable
// failures the breaker opens and mutations divert straight to the offline
// queue instead of hammering a dead remote.
package circuit

import (
	"sync"
	"time"
)

// State represents the breaker state.
type State int

const (
	// StateClosed - the remote is considered reachable, calls pass through
	StateClosed State = iota
	// StateOpen - the remote is considered unreachable, calls are diverted
	StateOpen
	// StateHalfOpen - one probe call is allowed to test recovery
	StateHalfOpen
)

// String returns the string representation of a state.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "CLOSED"
	case StateOpen:
		return "OPEN"
	case StateHalfOpen:
		return "HALF_OPEN"
	default:
		return "UNKNOWN"
	}
}

// Config contains breaker configuration.
type Config struct {
	// FailureThreshold is the number of consecutive unreachable failures
	// that opens the breaker
	FailureThreshold int `yaml:"failure_threshold"`

	// OpenTimeout is how long the breaker stays open before allowing a probe
	OpenTimeout time.Duration `yaml:"open_timeout"`

	// OnStateChange is called when the state changes
	OnStateChange func(from, to State) `yaml:"-"`
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		FailureThreshold: 3,
		OpenTimeout:      30 * time.Second,
	}
}

// Breaker tracks remote reachability for one coordinator.
type Breaker struct {
	config Config

	mu                  sync.Mutex
	state               State
	consecutiveFailures int
	openedAt            time.Time
	probing             bool
}

// NewBreaker creates a breaker in the closed state.
func NewBreaker(config Config) *Breaker {
	if config.FailureThreshold <= 0 {
		config.FailureThreshold = 3
	}
	if config.OpenTimeout <= 0 {
		config.OpenTimeout = 30 * time.Second
	}
	return &Breaker{config: config, state: StateClosed}
}

// Allow reports whether a remote call should be attempted. In the half-open
// state only one in-flight probe is admitted at a time.
func (b *Breaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.currentStateLocked(time.Now()) {
	case StateClosed:
		return true
	case StateHalfOpen:
		if b.probing {
			return false
		}
		b.probing = true
		return true
	default:
		return false
	}
}

// RecordSuccess notes a successful remote call, closing the breaker.
func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.consecutiveFailures = 0
	b.probing = false
	b.setStateLocked(StateClosed, time.Now())
}

// RecordFailure notes an unreachable remote call. Crossing the threshold,
// or failing a half-open probe, opens the breaker.
func (b *Breaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()
	b.consecutiveFailures++
	b.probing = false

	state := b.currentStateLocked(now)
	if state == StateHalfOpen || (state == StateClosed && b.consecutiveFailures >= b.config.FailureThreshold) {
		b.setStateLocked(StateOpen, now)
	}
}

// GetState returns the current breaker state.
func (b *Breaker) GetState() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.currentStateLocked(time.Now())
}

// Reset forces the breaker back to closed, used after a successful queue drain.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.consecutiveFailures = 0
	b.probing = false
	b.setStateLocked(StateClosed, time.Now())
}

// currentStateLocked applies the open timeout transition. Caller holds mu.
func (b *Breaker) currentStateLocked(now time.Time) State {
	if b.state == StateOpen && now.Sub(b.openedAt) >= b.config.OpenTimeout {
		b.setStateLocked(StateHalfOpen, now)
	}
	return b.state
}

// setStateLocked changes state and fires the change callback. Caller holds mu.
func (b *Breaker) setStateLocked(state State, now time.Time) {
	if b.state == state {
		return
	}
	prev := b.state
	b.state = state
	if state == StateOpen {
		b.openedAt = now
	}
	if b.config.OnStateChange != nil {
		b.config.OnStateChange(prev, state)
	}
}
