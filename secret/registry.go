package secret

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// StoreFactory creates a Store from configuration.
type StoreFactory func(cfg map[string]any) (Store, error)

// Registry manages store factories.
type Registry struct {
	mu     sync.RWMutex
	stores map[string]StoreFactory
}

// NewRegistry creates a new store registry.
func NewRegistry() *Registry {
	return &Registry{stores: make(map[string]StoreFactory)}
}

// Register adds a store factory.
func (r *Registry) Register(name string, factory StoreFactory) error {
	if strings.TrimSpace(name) == "" || factory == nil {
		return errors.New("invalid store registration")
	}
	name = strings.TrimSpace(name)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.stores[name]; exists {
		return fmt.Errorf("secret store %q already registered", name)
	}
	r.stores[name] = factory
	return nil
}

// Create instantiates a store by name.
func (r *Registry) Create(name string, cfg map[string]any) (Store, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("store name is required")
	}

	r.mu.RLock()
	factory, ok := r.stores[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("secret store %q is not registered", name)
	}

	return factory(cfg)
}

// List returns registered store names.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.stores))
	for name := range r.stores {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultRegistry is the global registry for secret stores. The "memory"
// store is always available.
var DefaultRegistry = func() *Registry {
	r := NewRegistry()
	_ = r.Register("memory", func(map[string]any) (Store, error) {
		return NewMemoryStore(), nil
	})
	return r
}()
