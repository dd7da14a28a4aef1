package health

import (
	"context"
	"fmt"
	"time"

	"github.com/jonwraymond/hubsync/breaker"
	"github.com/jonwraymond/hubsync/cache"
	"github.com/jonwraymond/hubsync/ratelimit"
)

// BreakerChecker reports circuit state across a breaker registry. Any open
// circuit makes the check unhealthy; a probing (half-open) circuit makes it
// degraded.
type BreakerChecker struct {
	registry *breaker.Registry
}

// NewBreakerChecker creates a checker over the given registry.
func NewBreakerChecker(r *breaker.Registry) *BreakerChecker {
	return &BreakerChecker{registry: r}
}

// Name returns the name of this checker.
func (c *BreakerChecker) Name() string {
	return "breakers"
}

// Check inspects every registered breaker.
func (c *BreakerChecker) Check(ctx context.Context) Result {
	states := c.registry.States()

	details := make(map[string]any, len(states))
	var open, probing int
	for key, state := range states {
		details[key] = state.String()
		switch state {
		case breaker.StateOpen:
			open++
		case breaker.StateHalfOpen:
			probing++
		}
	}

	switch {
	case open > 0:
		return Unhealthy(fmt.Sprintf("%d circuit(s) open", open), ErrCheckFailed).WithDetails(details)
	case probing > 0:
		return Degraded(fmt.Sprintf("%d circuit(s) probing for recovery", probing)).WithDetails(details)
	default:
		return Healthy("all circuits closed").WithDetails(details)
	}
}

// LimiterChecker reports saturation across a rate limiter registry. An
// exhausted rate budget degrades the check; throttling is expected behavior
// and never unhealthy.
type LimiterChecker struct {
	registry *ratelimit.Registry
}

// NewLimiterChecker creates a checker over the given registry.
func NewLimiterChecker(r *ratelimit.Registry) *LimiterChecker {
	return &LimiterChecker{registry: r}
}

// Name returns the name of this checker.
func (c *LimiterChecker) Name() string {
	return "limiters"
}

// Check inspects every registered limiter.
func (c *LimiterChecker) Check(ctx context.Context) Result {
	statuses := c.registry.Statuses()

	details := make(map[string]any, len(statuses))
	var exhausted int
	for key, status := range statuses {
		details[key] = map[string]any{
			"limit":     status.Limit,
			"remaining": status.Remaining,
			"in_flight": status.InFlight,
			"waiting":   status.Waiting,
		}
		if status.Remaining == 0 || status.Waiting > 0 {
			exhausted++
		}
	}

	if exhausted > 0 {
		return Degraded(fmt.Sprintf("%d limiter(s) saturated", exhausted)).WithDetails(details)
	}
	return Healthy("rate budgets available").WithDetails(details)
}

// CacheChecker verifies the tiered cache with a write/read/delete probe and
// reports per-layer statistics.
type CacheChecker struct {
	tiered *cache.Tiered
}

// NewCacheChecker creates a checker over the given tiered cache.
func NewCacheChecker(tc *cache.Tiered) *CacheChecker {
	return &CacheChecker{tiered: tc}
}

// Name returns the name of this checker.
func (c *CacheChecker) Name() string {
	return "cache"
}

// Check round-trips a probe entry through all layers.
func (c *CacheChecker) Check(ctx context.Context) Result {
	const probeKey = "health:probe"

	stats := c.tiered.GetStats()
	details := make(map[string]any, len(stats.Layers)+1)
	for _, ls := range stats.Layers {
		details[ls.Layer] = map[string]any{
			"hits":      ls.Stats.Hits,
			"misses":    ls.Stats.Misses,
			"entries":   ls.Stats.Entries,
			"evictions": ls.Stats.Evictions,
			"hit_rate":  ls.Stats.HitRate(),
		}
	}
	details["aggregate_hit_rate"] = stats.Aggregate.HitRate()

	if err := c.tiered.Set(ctx, probeKey, []byte("ok"), time.Minute); err != nil {
		return Unhealthy("cache write failed", err).WithDetails(details)
	}
	if _, ok, err := c.tiered.Get(ctx, probeKey); err != nil || !ok {
		if err == nil {
			err = ErrCheckFailed
		}
		return Unhealthy("cache read-back failed", err).WithDetails(details)
	}
	if err := c.tiered.Delete(ctx, probeKey); err != nil {
		return Degraded("cache probe cleanup failed").WithDetails(details)
	}

	return Healthy("cache round-trip ok").WithDetails(details)
}
