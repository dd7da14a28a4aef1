package gateway

import (
	"github.com/jonwraymond/hubsync/cache"
	"github.com/jonwraymond/hubsync/ratelimit"
)

// Status is a point-in-time snapshot of the gateway's protective state,
// keyed by "platform/class" where per-class.
type Status struct {
	Limiters map[string]ratelimit.Status `json:"limiters"`
	Breakers map[string]string           `json:"breakers"`
	Cache    *cache.TieredStats          `json:"cache,omitempty"`
}

// Status reports limiter occupancy, breaker states, and cache statistics.
func (g *Gateway) Status() Status {
	s := Status{
		Limiters: g.limiters.Statuses(),
		Breakers: make(map[string]string),
	}

	for key, state := range g.breakers.States() {
		s.Breakers[key] = state.String()
	}

	if g.cache != nil {
		stats := g.cache.GetStats()
		s.Cache = &stats
	}

	return s
}
