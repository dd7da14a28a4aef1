package ratelimit

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// ErrCapacityExceeded is returned by Acquire when queueing is disabled and
// no capacity is available.
var ErrCapacityExceeded = errors.New("ratelimit: capacity exceeded")

// Config configures a Limiter.
type Config struct {
	// MaxRequests is the number of dispatches allowed per rolling Window.
	// Default: 100
	MaxRequests int

	// Window is the rolling window duration.
	// Default: 1 second
	Window time.Duration

	// MaxConcurrent is the maximum number of in-flight operations.
	// Default: 10
	MaxConcurrent int

	// MinSpacing is the minimum time between consecutive dispatches.
	// Default: 0 (disabled)
	MinSpacing time.Duration

	// QueueDisabled makes Acquire fail fast with ErrCapacityExceeded
	// instead of suspending the caller.
	QueueDisabled bool

	// Now overrides the clock, for tests.
	Now func() time.Time
}

// Status is a snapshot of limiter capacity, for health surfaces.
type Status struct {
	// Limit is the configured rolling-window cap.
	Limit int `json:"limit"`

	// Remaining is the quota left in the current window.
	Remaining int `json:"remaining"`

	// Reset is when the oldest in-window dispatch falls out of the window.
	Reset time.Time `json:"reset"`

	// InFlight is the number of operations between Acquire and Release.
	InFlight int `json:"in_flight"`

	// MaxConcurrent is the configured concurrency cap.
	MaxConcurrent int `json:"max_concurrent"`

	// Waiting is the number of callers queued in Acquire.
	Waiting int `json:"waiting"`
}

// Limiter enforces a rolling-window cap, a concurrency cap, and minimum
// dispatch spacing. Safe for concurrent use.
type Limiter struct {
	config Config
	sem    chan struct{}
	admit  chan struct{}
	pacer  *rate.Limiter

	mu         sync.Mutex
	dispatched []time.Time
	waiting    int
}

// New creates a Limiter.
func New(config Config) *Limiter {
	// Apply defaults
	if config.MaxRequests <= 0 {
		config.MaxRequests = 100
	}
	if config.Window <= 0 {
		config.Window = time.Second
	}
	if config.MaxConcurrent <= 0 {
		config.MaxConcurrent = 10
	}
	if config.Now == nil {
		config.Now = time.Now
	}

	l := &Limiter{
		config: config,
		sem:    make(chan struct{}, config.MaxConcurrent),
		admit:  make(chan struct{}, 1),
	}
	if config.MinSpacing > 0 {
		l.pacer = rate.NewLimiter(rate.Every(config.MinSpacing), 1)
	}
	return l
}

// Acquire suspends the caller until a dispatch is allowed under all three
// constraints, then returns. Callers must pair every successful Acquire
// with a Release once the operation completes.
func (l *Limiter) Acquire(ctx context.Context) error {
	return l.AcquireN(ctx, 1)
}

// AcquireN acquires capacity for an operation costing n window slots.
// The operation still occupies a single concurrency slot.
func (l *Limiter) AcquireN(ctx context.Context, n int) error {
	if n <= 0 {
		n = 1
	}
	if n > l.config.MaxRequests {
		return ErrCapacityExceeded
	}

	if l.config.QueueDisabled {
		return l.tryAcquire(n)
	}

	l.mu.Lock()
	l.waiting++
	l.mu.Unlock()
	defer func() {
		l.mu.Lock()
		l.waiting--
		l.mu.Unlock()
	}()

	// Admission is serialized through a single slot so waiters proceed in
	// arrival order. Goroutines blocked on the send are woken FIFO.
	select {
	case l.admit <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-l.admit }()

	// Concurrency slot.
	select {
	case l.sem <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}

	// Rolling-window capacity.
	if err := l.waitWindow(ctx, n); err != nil {
		<-l.sem
		return err
	}

	// Minimum inter-dispatch spacing.
	if l.pacer != nil {
		if err := l.pacer.Wait(ctx); err != nil {
			<-l.sem
			return err
		}
	}

	l.record(n)
	return nil
}

// Release frees the concurrency slot held by a completed operation.
func (l *Limiter) Release() {
	select {
	case <-l.sem:
	default:
		// Release without a matching Acquire; ignore.
	}
}

// tryAcquire is the fail-fast path: no suspension, no queueing.
func (l *Limiter) tryAcquire(n int) error {
	select {
	case l.sem <- struct{}{}:
	default:
		return ErrCapacityExceeded
	}

	l.mu.Lock()
	ok := l.windowRoomLocked(n)
	if ok && l.pacer != nil {
		ok = l.pacer.Allow()
	}
	if ok {
		l.recordLocked(n)
	}
	l.mu.Unlock()

	if !ok {
		<-l.sem
		return ErrCapacityExceeded
	}
	return nil
}

// waitWindow suspends until n window slots are free.
func (l *Limiter) waitWindow(ctx context.Context, n int) error {
	for {
		l.mu.Lock()
		if l.windowRoomLocked(n) {
			l.mu.Unlock()
			return nil
		}
		wait := l.dispatched[0].Add(l.config.Window).Sub(l.config.Now())
		l.mu.Unlock()

		if wait <= 0 {
			continue
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// windowRoomLocked prunes expired dispatches and reports whether n more fit.
func (l *Limiter) windowRoomLocked(n int) bool {
	l.pruneLocked()
	return len(l.dispatched)+n <= l.config.MaxRequests
}

func (l *Limiter) pruneLocked() {
	cutoff := l.config.Now().Add(-l.config.Window)
	i := 0
	for i < len(l.dispatched) && !l.dispatched[i].After(cutoff) {
		i++
	}
	if i > 0 {
		l.dispatched = append(l.dispatched[:0], l.dispatched[i:]...)
	}
}

func (l *Limiter) record(n int) {
	l.mu.Lock()
	l.recordLocked(n)
	l.mu.Unlock()
}

func (l *Limiter) recordLocked(n int) {
	now := l.config.Now()
	for i := 0; i < n; i++ {
		l.dispatched = append(l.dispatched, now)
	}
}

// Status returns a snapshot of the limiter's capacity.
func (l *Limiter) Status() Status {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.pruneLocked()

	reset := l.config.Now()
	if len(l.dispatched) > 0 {
		reset = l.dispatched[0].Add(l.config.Window)
	}

	return Status{
		Limit:         l.config.MaxRequests,
		Remaining:     l.config.MaxRequests - len(l.dispatched),
		Reset:         reset,
		InFlight:      len(l.sem),
		MaxConcurrent: l.config.MaxConcurrent,
		Waiting:       l.waiting,
	}
}
