package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig configures the persistent/distributed layer.
type RedisConfig struct {
	// Client is the redis client to use. Required.
	Client redis.UniversalClient

	// KeyPrefix namespaces this cache's keys in a shared redis.
	// Default: "hubsync:cache:"
	KeyPrefix string

	// DefaultTTL applies when Set is called with ttl<=0.
	// Default: 5 minutes
	DefaultTTL time.Duration

	// MaxTTL clamps requested TTLs. Zero means no clamp.
	MaxTTL time.Duration

	// Now overrides the clock, for tests.
	Now func() time.Time
}

// Redis is the persistent/distributed cache layer: slowest, largest,
// longest TTL. Expiry is enforced by redis itself; hit/miss counters are
// process-local.
type Redis struct {
	config RedisConfig

	hits   atomic.Int64
	misses atomic.Int64
}

// NewRedis creates a redis-backed layer.
func NewRedis(config RedisConfig) (*Redis, error) {
	if config.Client == nil {
		return nil, errors.New("cache: redis client is required")
	}
	if config.KeyPrefix == "" {
		config.KeyPrefix = "hubsync:cache:"
	}
	if config.DefaultTTL <= 0 {
		config.DefaultTTL = 5 * time.Minute
	}
	if config.Now == nil {
		config.Now = time.Now
	}

	return &Redis{config: config}, nil
}

// Name identifies the layer.
func (r *Redis) Name() string { return "redis" }

// redisRecord is the wire form of an entry in redis. The remaining TTL is
// tracked by redis; only creation metadata rides along.
type redisRecord struct {
	Value     []byte    `json:"value"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Get retrieves the entry for key.
func (r *Redis) Get(ctx context.Context, key string) (*Entry, bool, error) {
	raw, err := r.config.Client.Get(ctx, r.config.KeyPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			r.misses.Add(1)
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("cache: redis get %q: %w", key, err)
	}

	var rec redisRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		// Corrupt record; treat as a miss and drop it.
		_ = r.config.Client.Del(ctx, r.config.KeyPrefix+key).Err()
		r.misses.Add(1)
		return nil, false, nil
	}

	r.hits.Add(1)
	return &Entry{
		Key:            key,
		Value:          rec.Value,
		Layer:          r.Name(),
		CreatedAt:      rec.CreatedAt,
		ExpiresAt:      rec.ExpiresAt,
		LastAccessedAt: r.config.Now(),
		HitCount:       1,
		Size:           len(rec.Value),
	}, true, nil
}

// Set stores value with the given TTL.
func (r *Redis) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := ValidateKey(key); err != nil {
		return err
	}

	if ttl <= 0 {
		ttl = r.config.DefaultTTL
	}
	if r.config.MaxTTL > 0 && ttl > r.config.MaxTTL {
		ttl = r.config.MaxTTL
	}

	now := r.config.Now()
	raw, err := json.Marshal(redisRecord{
		Value:     value,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	})
	if err != nil {
		return fmt.Errorf("cache: encode %q: %w", key, err)
	}

	if err := r.config.Client.Set(ctx, r.config.KeyPrefix+key, raw, ttl).Err(); err != nil {
		return fmt.Errorf("cache: redis set %q: %w", key, err)
	}
	return nil
}

// Delete removes the entry for key. Idempotent.
func (r *Redis) Delete(ctx context.Context, key string) error {
	if err := r.config.Client.Del(ctx, r.config.KeyPrefix+key).Err(); err != nil {
		return fmt.Errorf("cache: redis del %q: %w", key, err)
	}
	return nil
}

// Flush removes every key under this cache's prefix, leaving the rest of
// the redis keyspace alone. Runs SCAN in batches to avoid blocking redis.
func (r *Redis) Flush(ctx context.Context) error {
	var cursor uint64
	for {
		keys, next, err := r.config.Client.Scan(ctx, cursor, r.config.KeyPrefix+"*", 100).Result()
		if err != nil {
			return fmt.Errorf("cache: redis scan: %w", err)
		}
		if len(keys) > 0 {
			if err := r.config.Client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("cache: redis flush: %w", err)
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}

// Stats returns process-local hit/miss counters. Entry counts and
// evictions live in redis and are not surfaced here.
func (r *Redis) Stats() Stats {
	return Stats{
		Hits:   r.hits.Load(),
		Misses: r.misses.Load(),
	}
}

// Close releases the underlying client.
func (r *Redis) Close(context.Context) error {
	return r.config.Client.Close()
}

// Ensure Redis implements Layer
var _ Layer = (*Redis)(nil)
