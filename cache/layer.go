package cache

import (
	"context"
	"errors"
	"strings"
	"time"
)

// MaxKeyLength is the maximum allowed length for a cache key.
const MaxKeyLength = 512

// Sentinel errors for cache operations.
var (
	ErrInvalidKey    = errors.New("cache: key is invalid")
	ErrKeyTooLong    = errors.New("cache: key exceeds max length")
	ErrNoLayers      = errors.New("cache: no layers configured")
	ErrLayerClosed   = errors.New("cache: layer is closed")
	ErrNotSimilarity = errors.New("cache: no similarity layer configured")
)

// EvictionPolicy selects the victim when a layer is full.
type EvictionPolicy string

const (
	// EvictLRU evicts the least recently accessed entry.
	EvictLRU EvictionPolicy = "lru"
	// EvictLFU evicts the entry with the fewest hits.
	EvictLFU EvictionPolicy = "lfu"
	// EvictFIFO evicts the oldest entry by insertion order.
	EvictFIFO EvictionPolicy = "fifo"
	// EvictTTL evicts the entry closest to expiry.
	EvictTTL EvictionPolicy = "ttl"
)

// Entry is one cached value plus its bookkeeping. A logical key may exist
// in several layers at once; each layer owns its own Entry.
type Entry struct {
	Key            string    `json:"key"`
	Value          []byte    `json:"value"`
	Layer          string    `json:"layer"`
	CreatedAt      time.Time `json:"created_at"`
	ExpiresAt      time.Time `json:"expires_at"`
	LastAccessedAt time.Time `json:"last_accessed_at"`
	HitCount       int64     `json:"hit_count"`
	Size           int       `json:"size"`
}

// TTL returns the entry's remaining lifetime at instant now.
func (e *Entry) TTL(now time.Time) time.Duration {
	if e.ExpiresAt.IsZero() {
		return 0
	}
	return e.ExpiresAt.Sub(now)
}

// Expired reports whether the entry has passed its expiry.
func (e *Entry) Expired(now time.Time) bool {
	return !e.ExpiresAt.IsZero() && now.After(e.ExpiresAt)
}

// Stats counts layer traffic.
type Stats struct {
	Hits      int64 `json:"hits"`
	Misses    int64 `json:"misses"`
	Evictions int64 `json:"evictions"`
	Entries   int   `json:"entries"`
}

// HitRate returns hits / (hits + misses), or 0 with no traffic.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// Layer is one tier of the multi-layer cache.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Get returns (nil, false, nil) on miss; err is reserved for IO failures.
// - Values are opaque bytes returned exactly as stored.
type Layer interface {
	// Name identifies the layer in stats and logs.
	Name() string

	// Get retrieves the entry for key.
	Get(ctx context.Context, key string) (*Entry, bool, error)

	// Set stores value with the given TTL. TTL<=0 uses the layer default.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes the entry for key. Idempotent.
	Delete(ctx context.Context, key string) error

	// Flush removes every entry. Counters are kept.
	Flush(ctx context.Context) error

	// Stats returns a snapshot of layer counters.
	Stats() Stats

	// Close releases layer resources.
	Close(ctx context.Context) error
}

// ValidateKey checks if a key is valid for caching.
func ValidateKey(key string) error {
	if key == "" || strings.TrimSpace(key) == "" {
		return ErrInvalidKey
	}
	if len(key) > MaxKeyLength {
		return ErrKeyTooLong
	}
	// Reject keys with newlines or carriage returns
	if strings.ContainsAny(key, "\n\r") {
		return ErrInvalidKey
	}
	return nil
}
