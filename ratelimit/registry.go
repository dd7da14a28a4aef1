package ratelimit

import "sync"

// Registry hands out one shared Limiter per (platform, operation class).
// Limiter state must be visible to every concurrent caller of a class, so
// adapters fetch limiters here instead of constructing their own.
type Registry struct {
	defaults Config

	mu       sync.Mutex
	limiters map[string]*Limiter
}

// NewRegistry creates a registry that builds limiters from the given
// default config when a class is first seen.
func NewRegistry(defaults Config) *Registry {
	return &Registry{
		defaults: defaults,
		limiters: make(map[string]*Limiter),
	}
}

// For returns the shared limiter for a (platform, operation class) pair,
// creating it on first use.
func (r *Registry) For(platform, class string) *Limiter {
	key := platform + "/" + class

	r.mu.Lock()
	defer r.mu.Unlock()

	if lim, ok := r.limiters[key]; ok {
		return lim
	}
	lim := New(r.defaults)
	r.limiters[key] = lim
	return lim
}

// Configure installs a limiter with a class-specific config, replacing any
// existing limiter for the class.
func (r *Registry) Configure(platform, class string, config Config) *Limiter {
	key := platform + "/" + class

	r.mu.Lock()
	defer r.mu.Unlock()

	lim := New(config)
	r.limiters[key] = lim
	return lim
}

// Statuses returns the status of every registered limiter keyed by
// "platform/class".
func (r *Registry) Statuses() map[string]Status {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make(map[string]Status, len(r.limiters))
	for key, lim := range r.limiters {
		out[key] = lim.Status()
	}
	return out
}
