package cache

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
)

// TieredConfig configures the multi-layer cache.
type TieredConfig struct {
	// Layers in priority order: fastest first. Required.
	Layers []Layer

	// DefaultTTL applies when Set is called with ttl<=0. Individual
	// layers still clamp to their own maximums.
	// Default: 5 minutes
	DefaultTTL time.Duration

	// AsyncPropagation writes to the primary layer synchronously and
	// propagates to backing layers in the background. Default is full
	// write-through: every layer written before Set returns.
	AsyncPropagation bool

	// OnPropagationError is called when an async backing-layer write
	// fails. Optional.
	OnPropagationError func(layer string, key string, err error)

	// Now overrides the clock, for tests.
	Now func() time.Time
}

// Tiered is the ordered multi-layer cache. Reads consult layers in
// priority order and promote hits toward the faster layers; writes go
// through all layers.
type Tiered struct {
	config TieredConfig
}

// NewTiered creates a multi-layer cache over the given layers.
func NewTiered(config TieredConfig) (*Tiered, error) {
	if len(config.Layers) == 0 {
		return nil, ErrNoLayers
	}
	if config.DefaultTTL <= 0 {
		config.DefaultTTL = 5 * time.Minute
	}
	if config.Now == nil {
		config.Now = time.Now
	}

	return &Tiered{config: config}, nil
}

// Get checks layers in priority order. On a hit at layer k it repopulates
// layers 0..k-1 with the entry's remaining TTL before returning. A miss at
// every layer returns (nil, false, nil).
//
// Layer IO errors are swallowed into misses for that layer: a flaky
// backing store must not fail a read the next layer could serve.
func (t *Tiered) Get(ctx context.Context, key string) (*Entry, bool, error) {
	if err := ValidateKey(key); err != nil {
		return nil, false, err
	}

	for i, layer := range t.config.Layers {
		entry, ok, err := layer.Get(ctx, key)
		if err != nil || !ok {
			continue
		}

		t.promote(ctx, key, entry, i)
		return entry, true, nil
	}
	return nil, false, nil
}

// promote writes a hit from layer k into layers 0..k-1 so subsequent reads
// answer from the fastest layer. Promotion keeps the entry's remaining
// lifetime; each faster layer still clamps to its own MaxTTL.
func (t *Tiered) promote(ctx context.Context, key string, entry *Entry, hitLayer int) {
	remaining := entry.TTL(t.config.Now())
	if remaining <= 0 && !entry.ExpiresAt.IsZero() {
		return
	}

	for i := 0; i < hitLayer; i++ {
		// Best effort; a failed promotion only costs a future slow hit.
		_ = t.config.Layers[i].Set(ctx, key, entry.Value, remaining)
	}
}

// Set writes value through every layer. With AsyncPropagation the primary
// layer is written synchronously and the backing layers in the background.
func (t *Tiered) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	if ttl <= 0 {
		ttl = t.config.DefaultTTL
	}

	if err := t.config.Layers[0].Set(ctx, key, value, ttl); err != nil {
		return err
	}
	rest := t.config.Layers[1:]
	if len(rest) == 0 {
		return nil
	}

	if !t.config.AsyncPropagation {
		// Backing layers are written in fixed priority order so
		// concurrent writers race whole layers, not interleavings.
		for _, layer := range rest {
			if err := layer.Set(ctx, key, value, ttl); err != nil {
				return err
			}
		}
		return nil
	}

	// Async: detach from the caller's context so cancellation of the
	// request does not abandon half-written layers.
	go func() {
		bg := context.WithoutCancel(ctx)
		var g errgroup.Group
		for _, layer := range rest {
			g.Go(func() error {
				if err := layer.Set(bg, key, value, ttl); err != nil {
					if t.config.OnPropagationError != nil {
						t.config.OnPropagationError(layer.Name(), key, err)
					}
				}
				return nil
			})
		}
		_ = g.Wait()
	}()
	return nil
}

// Delete removes key from every layer. The first error is returned but
// deletion is attempted on all layers regardless.
func (t *Tiered) Delete(ctx context.Context, key string) error {
	var first error
	for _, layer := range t.config.Layers {
		if err := layer.Delete(ctx, key); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Flush empties every layer. The first error is returned but flushing is
// attempted on all layers regardless.
func (t *Tiered) Flush(ctx context.Context) error {
	var first error
	for _, layer := range t.config.Layers {
		if err := layer.Flush(ctx); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// LayerStats pairs a layer name with its counters.
type LayerStats struct {
	Layer string `json:"layer"`
	Stats Stats  `json:"stats"`
}

// TieredStats reports per-layer and aggregate counters.
type TieredStats struct {
	Layers    []LayerStats `json:"layers"`
	Aggregate Stats        `json:"aggregate"`
}

// GetStats returns hit/miss/eviction counts per layer and in aggregate.
func (t *Tiered) GetStats() TieredStats {
	out := TieredStats{Layers: make([]LayerStats, 0, len(t.config.Layers))}
	for _, layer := range t.config.Layers {
		s := layer.Stats()
		out.Layers = append(out.Layers, LayerStats{Layer: layer.Name(), Stats: s})
		out.Aggregate.Hits += s.Hits
		out.Aggregate.Misses += s.Misses
		out.Aggregate.Evictions += s.Evictions
		out.Aggregate.Entries += s.Entries
	}
	return out
}

// QueryText runs a similarity query against the first Vector layer.
func (t *Tiered) QueryText(ctx context.Context, text string, limit int) ([]Match, error) {
	for _, layer := range t.config.Layers {
		if v, ok := layer.(*Vector); ok {
			return v.QueryText(ctx, text, limit)
		}
	}
	return nil, ErrNotSimilarity
}

// QueryVector runs a similarity query against the first Vector layer.
func (t *Tiered) QueryVector(ctx context.Context, query []float32, limit int) ([]Match, error) {
	for _, layer := range t.config.Layers {
		if v, ok := layer.(*Vector); ok {
			return v.QueryVector(ctx, query, limit)
		}
	}
	return nil, ErrNotSimilarity
}

// Close closes every layer, returning the first error.
func (t *Tiered) Close(ctx context.Context) error {
	var first error
	for _, layer := range t.config.Layers {
		if err := layer.Close(ctx); err != nil && first == nil {
			first = err
		}
	}
	return first
}
