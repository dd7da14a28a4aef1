package faults

import (
	"context"
	"math"
	"math/rand/v2"
	"time"
)

// HandlerConfig configures retry behavior.
type HandlerConfig struct {
	// MaxRetries is the number of retries after the initial attempt.
	// Default: 3
	MaxRetries int

	// RetryDelay is the delay before the first retry.
	// Default: 100ms
	RetryDelay time.Duration

	// MaxDelay caps the delay between retries.
	// Default: 30s
	MaxDelay time.Duration

	// Multiplier is the exponential backoff multiplier.
	// Default: 2.0
	Multiplier float64

	// Jitter adds randomness to delays to prevent thundering herd.
	// Default: true (disable with NoJitter)
	NoJitter bool

	// OnRetry is called before each retry attempt.
	OnRetry func(attempt int, err *Classified, delay time.Duration)

	// Sleep overrides the delay function, for tests.
	// Default: context-aware time.After wait.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Handler retries classified failures with exponential backoff.
type Handler struct {
	config HandlerConfig
}

// NewHandler creates a retry handler.
func NewHandler(config HandlerConfig) *Handler {
	// Apply defaults
	if config.MaxRetries <= 0 {
		config.MaxRetries = 3
	}
	if config.RetryDelay <= 0 {
		config.RetryDelay = 100 * time.Millisecond
	}
	if config.MaxDelay <= 0 {
		config.MaxDelay = 30 * time.Second
	}
	if config.Multiplier <= 0 {
		config.Multiplier = 2.0
	}
	if config.Sleep == nil {
		config.Sleep = sleepCtx
	}

	return &Handler{config: config}
}

// Do invokes op, classifying failures and retrying retryable ones with
// backoff up to MaxRetries. The returned error is always Classified.
//
// Caller cancellation does not consume a retry attempt; the context error
// propagates unclassified semantics as KindUnknown with the cancellation
// cause preserved.
func (h *Handler) Do(ctx context.Context, op func(context.Context) error) error {
	return h.DoWithRefresh(ctx, op, nil)
}

// DoWithRefresh is Do with a credential refresh hook. When a failure
// classifies as authentication and refresh is non-nil, exactly one refresh
// is attempted followed by a single retry. The refresh itself is not
// retried here; that responsibility belongs to the credential manager.
func (h *Handler) DoWithRefresh(ctx context.Context, op func(context.Context) error, refresh func(context.Context) error) error {
	var last *Classified
	refreshed := false

	for attempt := 0; ; attempt++ {
		err := op(ctx)
		if err == nil {
			return nil
		}

		// Caller cancellation propagates immediately and never burns
		// an attempt.
		if ctx.Err() == context.Canceled {
			return ctx.Err()
		}

		last = Classify(err)

		if last.Kind == KindAuthentication && refresh != nil && !refreshed {
			refreshed = true
			if rerr := refresh(ctx); rerr != nil {
				return Classify(rerr)
			}
			// One retry immediately after a successful refresh.
			continue
		}

		if !last.Retryable || attempt >= h.config.MaxRetries {
			return last
		}

		delay := h.delay(attempt)
		if last.RetryAfter > delay {
			delay = last.RetryAfter
		}

		if h.config.OnRetry != nil {
			h.config.OnRetry(attempt+1, last, delay)
		}

		if err := h.config.Sleep(ctx, delay); err != nil {
			return err
		}
	}
}

// delay computes the backoff for the given zero-based attempt.
func (h *Handler) delay(attempt int) time.Duration {
	multiplier := math.Pow(h.config.Multiplier, float64(attempt))
	delay := time.Duration(float64(h.config.RetryDelay) * multiplier)

	if delay > h.config.MaxDelay || delay <= 0 {
		delay = h.config.MaxDelay
	}

	if !h.config.NoJitter {
		// Up to 25% jitter. Sub-4ns delays have no room to jitter and
		// would panic rand.Int64N with a zero bound.
		if quarter := delay / 4; quarter > 0 {
			// #nosec G404 -- jitter is non-cryptographic timing variance.
			delay += time.Duration(rand.Int64N(int64(quarter)))
		}
	}

	return delay
}

// Config returns the handler configuration.
func (h *Handler) Config() HandlerConfig {
	return h.config
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
