package breaker

import "sync"

// Registry hands out one shared Breaker per (platform, operation class).
// The failure window must reflect a single consistent view across all
// concurrent callers of a class.
type Registry struct {
	defaults Config
	decorate func(platform, class string, config Config) Config

	mu       sync.Mutex
	breakers map[string]*Breaker
}

// NewRegistry creates a registry that builds breakers from the given
// default config when a class is first seen.
func NewRegistry(defaults Config) *Registry {
	return &Registry{
		defaults: defaults,
		breakers: make(map[string]*Breaker),
	}
}

// For returns the shared breaker for a (platform, operation class) pair,
// creating it on first use.
func (r *Registry) For(platform, class string) *Breaker {
	key := platform + "/" + class

	r.mu.Lock()
	defer r.mu.Unlock()

	if b, ok := r.breakers[key]; ok {
		return b
	}
	config := r.defaults
	if r.decorate != nil {
		config = r.decorate(platform, class, config)
	}
	b := New(config)
	r.breakers[key] = b
	return b
}

// Decorate installs a hook that customizes the config for a class when its
// breaker is first created, e.g. to attach state-change callbacks carrying
// the class labels. Must be set before the first call to For.
func (r *Registry) Decorate(fn func(platform, class string, config Config) Config) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.decorate = fn
}

// Configure installs a breaker with a class-specific config, replacing any
// existing breaker for the class.
func (r *Registry) Configure(platform, class string, config Config) *Breaker {
	key := platform + "/" + class

	r.mu.Lock()
	defer r.mu.Unlock()

	b := New(config)
	r.breakers[key] = b
	return b
}

// States returns the state of every registered breaker keyed by
// "platform/class".
func (r *Registry) States() map[string]State {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make(map[string]State, len(r.breakers))
	for key, b := range r.breakers {
		out[key] = b.State()
	}
	return out
}
