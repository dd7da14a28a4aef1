package cache

import (
	"context"
	"errors"
	"math"
	"sort"
	"sync"
	"time"
)

// Embedder turns text into an embedding vector. Consumed, not implemented
// here; adapters plug in whatever embedding service they use.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// EmbedderFunc adapts a function to the Embedder interface.
type EmbedderFunc func(ctx context.Context, text string) ([]float32, error)

// Embed calls the function.
func (f EmbedderFunc) Embed(ctx context.Context, text string) ([]float32, error) {
	return f(ctx, text)
}

// Match is one similarity query result.
type Match struct {
	Entry *Entry
	Score float64
}

// VectorConfig configures the similarity layer.
type VectorConfig struct {
	// Embedder produces vectors for QueryText and for keys stored via
	// SetText. Optional; without it only QueryVector works.
	Embedder Embedder

	// MaxSize is the maximum number of entries before eviction (oldest
	// access first).
	// Default: 1000
	MaxSize int

	// DefaultTTL applies when Set is called with ttl<=0.
	// Default: 30 minutes
	DefaultTTL time.Duration

	// Threshold is the minimum cosine similarity for a query match.
	// Default: 0.85
	Threshold float64

	// Now overrides the clock, for tests.
	Now func() time.Time
}

// Vector is the similarity cache layer. It serves exact-key lookups like
// any other layer and additionally answers nearest-meaning queries over
// the embeddings attached to its entries, which deduplicates near-identical
// natural-language requests.
type Vector struct {
	config VectorConfig

	mu      sync.Mutex
	entries map[string]*vecEntry
	stats   Stats
}

type vecEntry struct {
	entry     *Entry
	embedding []float32
}

// NewVector creates a similarity layer.
func NewVector(config VectorConfig) *Vector {
	// Apply defaults
	if config.MaxSize <= 0 {
		config.MaxSize = 1000
	}
	if config.DefaultTTL <= 0 {
		config.DefaultTTL = 30 * time.Minute
	}
	if config.Threshold <= 0 || config.Threshold > 1 {
		config.Threshold = 0.85
	}
	if config.Now == nil {
		config.Now = time.Now
	}

	return &Vector{
		config:  config,
		entries: make(map[string]*vecEntry),
	}
}

// Name identifies the layer.
func (v *Vector) Name() string { return "vector" }

// Get retrieves the entry for an exact key.
func (v *Vector) Get(_ context.Context, key string) (*Entry, bool, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	ve, ok := v.entries[key]
	if !ok {
		v.stats.Misses++
		return nil, false, nil
	}

	now := v.config.Now()
	if ve.entry.Expired(now) {
		delete(v.entries, key)
		v.stats.Misses++
		return nil, false, nil
	}

	ve.entry.HitCount++
	ve.entry.LastAccessedAt = now
	v.stats.Hits++

	out := *ve.entry
	return &out, true, nil
}

// Set stores value under an exact key with no embedding. The entry is
// servable by Get but invisible to similarity queries.
func (v *Vector) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return v.SetVector(ctx, key, value, nil, ttl)
}

// SetText stores value and embeds text as the entry's similarity key.
func (v *Vector) SetText(ctx context.Context, key, text string, value []byte, ttl time.Duration) error {
	if v.config.Embedder == nil {
		return errors.New("cache: vector layer has no embedder")
	}
	embedding, err := v.config.Embedder.Embed(ctx, text)
	if err != nil {
		return err
	}
	return v.SetVector(ctx, key, value, embedding, ttl)
}

// SetVector stores value with an explicit embedding.
func (v *Vector) SetVector(_ context.Context, key string, value []byte, embedding []float32, ttl time.Duration) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	if ttl <= 0 {
		ttl = v.config.DefaultTTL
	}

	now := v.config.Now()
	stored := make([]byte, len(value))
	copy(stored, value)

	v.mu.Lock()
	defer v.mu.Unlock()

	if _, exists := v.entries[key]; !exists {
		for len(v.entries) >= v.config.MaxSize {
			v.evictLocked()
		}
	}

	v.entries[key] = &vecEntry{
		entry: &Entry{
			Key:            key,
			Value:          stored,
			Layer:          v.Name(),
			CreatedAt:      now,
			ExpiresAt:      now.Add(ttl),
			LastAccessedAt: now,
			Size:           len(stored),
		},
		embedding: embedding,
	}
	return nil
}

// Delete removes the entry for key. Idempotent.
func (v *Vector) Delete(_ context.Context, key string) error {
	v.mu.Lock()
	delete(v.entries, key)
	v.mu.Unlock()
	return nil
}

// QueryVector returns entries whose embeddings score at or above the
// configured threshold against query, ranked by descending similarity.
// limit<=0 means no limit.
func (v *Vector) QueryVector(_ context.Context, query []float32, limit int) ([]Match, error) {
	if len(query) == 0 {
		return nil, errors.New("cache: empty query vector")
	}

	now := v.config.Now()

	v.mu.Lock()
	matches := make([]Match, 0)
	for key, ve := range v.entries {
		if ve.embedding == nil {
			continue
		}
		if ve.entry.Expired(now) {
			delete(v.entries, key)
			continue
		}
		score := cosine(query, ve.embedding)
		if score >= v.config.Threshold {
			out := *ve.entry
			matches = append(matches, Match{Entry: &out, Score: score})
		}
	}
	v.mu.Unlock()

	sort.Slice(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

// QueryText embeds text and runs QueryVector.
func (v *Vector) QueryText(ctx context.Context, text string, limit int) ([]Match, error) {
	if v.config.Embedder == nil {
		return nil, errors.New("cache: vector layer has no embedder")
	}
	query, err := v.config.Embedder.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	return v.QueryVector(ctx, query, limit)
}

// Flush drops every entry without touching the counters.
func (v *Vector) Flush(context.Context) error {
	v.mu.Lock()
	v.entries = make(map[string]*vecEntry)
	v.mu.Unlock()
	return nil
}

// Stats returns a snapshot of layer counters.
func (v *Vector) Stats() Stats {
	v.mu.Lock()
	defer v.mu.Unlock()

	s := v.stats
	s.Entries = len(v.entries)
	return s
}

// Close drops all entries.
func (v *Vector) Close(context.Context) error {
	v.mu.Lock()
	v.entries = make(map[string]*vecEntry)
	v.mu.Unlock()
	return nil
}

// evictLocked removes the least recently accessed entry.
func (v *Vector) evictLocked() {
	var victim string
	var oldest time.Time
	first := true
	for key, ve := range v.entries {
		if first || ve.entry.LastAccessedAt.Before(oldest) {
			victim, oldest, first = key, ve.entry.LastAccessedAt, false
		}
	}
	if victim != "" {
		delete(v.entries, victim)
		v.stats.Evictions++
	}
}

// cosine computes cosine similarity between two vectors. Mismatched
// lengths score 0.
func cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// Ensure Vector implements Layer
var _ Layer = (*Vector)(nil)
