package breaker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jonwraymond/hubsync/faults"
)

// State represents the circuit state.
type State int

const (
	// StateClosed means the circuit is operating normally.
	StateClosed State = iota
	// StateOpen means the circuit is rejecting all calls.
	StateOpen
	// StateHalfOpen means the circuit is probing for recovery.
	StateHalfOpen
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

// Config configures a Breaker.
type Config struct {
	// FailureThreshold is the minimum number of failures in the window
	// before the circuit may open.
	// Default: 5
	FailureThreshold int

	// VolumeThreshold is the minimum sample size in the window before the
	// failure ratio is considered statistically significant.
	// Default: 10
	VolumeThreshold int

	// ErrorThresholdPercentage is the failure ratio (0-100) at which the
	// circuit opens, given VolumeThreshold samples.
	// Default: 50
	ErrorThresholdPercentage int

	// SuccessThreshold is the number of consecutive half-open probe
	// successes required to close the circuit.
	// Default: 1
	SuccessThreshold int

	// Window is the rolling window over which outcomes are counted.
	// Default: 1 minute
	Window time.Duration

	// ResetTimeout is how long an open circuit waits before probing.
	// Default: 30 seconds
	ResetTimeout time.Duration

	// OnStateChange is called when the circuit state changes.
	OnStateChange func(from, to State)

	// IsFailure determines if an error counts against the failure budget.
	// Default: all non-nil errors except context.Canceled.
	IsFailure func(err error) bool

	// Now overrides the clock, for tests.
	Now func() time.Time
}

// Breaker implements the circuit breaker state machine. Safe for concurrent
// use; state is shared per (platform, operation class).
type Breaker struct {
	config Config

	mu               sync.Mutex
	state            State
	failures         int
	successes        int
	windowStart      time.Time
	lastTransition   time.Time
	halfOpenInFlight bool
	probeSuccesses   int
}

// New creates a Breaker.
func New(config Config) *Breaker {
	// Apply defaults
	if config.FailureThreshold <= 0 {
		config.FailureThreshold = 5
	}
	if config.VolumeThreshold <= 0 {
		config.VolumeThreshold = 10
	}
	if config.ErrorThresholdPercentage <= 0 || config.ErrorThresholdPercentage > 100 {
		config.ErrorThresholdPercentage = 50
	}
	if config.SuccessThreshold <= 0 {
		config.SuccessThreshold = 1
	}
	if config.Window <= 0 {
		config.Window = time.Minute
	}
	if config.ResetTimeout <= 0 {
		config.ResetTimeout = 30 * time.Second
	}
	if config.IsFailure == nil {
		config.IsFailure = func(err error) bool {
			return err != nil && !errors.Is(err, context.Canceled)
		}
	}
	if config.Now == nil {
		config.Now = time.Now
	}

	now := config.Now()
	return &Breaker{
		config:         config,
		state:          StateClosed,
		windowStart:    now,
		lastTransition: now,
	}
}

// Execute runs op through the circuit. When the circuit is open, or a
// half-open probe is already in flight, it fails immediately with
// faults.ErrCircuitOpen and op is never invoked.
func (b *Breaker) Execute(ctx context.Context, op func(context.Context) error) error {
	probe, err := b.beforeCall()
	if err != nil {
		return err
	}

	err = op(ctx)
	b.afterCall(probe, err)
	return err
}

// beforeCall admits or rejects a call. It reports whether the admitted call
// is a half-open probe.
func (b *Breaker) beforeCall() (probe bool, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.stateLocked() {
	case StateOpen:
		return false, faults.ErrCircuitOpen
	case StateHalfOpen:
		if b.halfOpenInFlight {
			return false, faults.ErrCircuitOpen
		}
		b.halfOpenInFlight = true
		return true, nil
	default:
		return false, nil
	}
}

func (b *Breaker) afterCall(probe bool, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	// Caller cancellation is not an outcome.
	if errors.Is(err, context.Canceled) {
		if probe {
			b.halfOpenInFlight = false
		}
		return
	}

	isFailure := b.config.IsFailure(err)

	if probe {
		b.halfOpenInFlight = false
		if isFailure {
			b.transitionLocked(StateOpen)
			return
		}
		b.probeSuccesses++
		if b.probeSuccesses >= b.config.SuccessThreshold {
			b.transitionLocked(StateClosed)
		}
		return
	}

	if b.state != StateClosed {
		// The circuit moved while this call was in flight; its outcome no
		// longer belongs to the closed window.
		return
	}

	b.rotateWindowLocked()

	if isFailure {
		b.failures++
	} else {
		b.successes++
	}

	// A trailing success can be the outcome that lifts the sample size past
	// VolumeThreshold, so the trip condition is checked on every outcome.
	if b.shouldTripLocked() {
		b.transitionLocked(StateOpen)
	}
}

// shouldTripLocked applies the trip condition: enough failures, enough
// samples, and a failure ratio at or above the threshold.
func (b *Breaker) shouldTripLocked() bool {
	total := b.failures + b.successes
	if b.failures < b.config.FailureThreshold || total < b.config.VolumeThreshold {
		return false
	}
	ratio := b.failures * 100 / total
	return ratio >= b.config.ErrorThresholdPercentage
}

// rotateWindowLocked clears counters when the rolling window has elapsed.
func (b *Breaker) rotateWindowLocked() {
	now := b.config.Now()
	if now.Sub(b.windowStart) >= b.config.Window {
		b.windowStart = now
		b.failures = 0
		b.successes = 0
	}
}

// stateLocked resolves the effective state, moving open to half-open once
// the reset timeout has elapsed.
func (b *Breaker) stateLocked() State {
	if b.state == StateOpen && b.config.Now().Sub(b.lastTransition) >= b.config.ResetTimeout {
		b.transitionLocked(StateHalfOpen)
	}
	return b.state
}

func (b *Breaker) transitionLocked(to State) {
	from := b.state
	if from == to {
		return
	}

	b.state = to
	b.lastTransition = b.config.Now()

	switch to {
	case StateHalfOpen:
		b.halfOpenInFlight = false
		b.probeSuccesses = 0
	case StateClosed:
		b.failures = 0
		b.successes = 0
		b.windowStart = b.config.Now()
	}

	if b.config.OnStateChange != nil {
		b.config.OnStateChange(from, to)
	}
}

// State returns the current effective state.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.stateLocked()
}

// Reset forces the circuit back to closed and clears all counters.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.transitionLocked(StateClosed)
}

// Metrics is a snapshot of breaker counters.
type Metrics struct {
	State          State
	Failures       int
	Successes      int
	WindowStart    time.Time
	LastTransition time.Time
}

// Metrics returns current breaker counters.
func (b *Breaker) Metrics() Metrics {
	b.mu.Lock()
	defer b.mu.Unlock()

	return Metrics{
		State:          b.stateLocked(),
		Failures:       b.failures,
		Successes:      b.successes,
		WindowStart:    b.windowStart,
		LastTransition: b.lastTransition,
	}
}
