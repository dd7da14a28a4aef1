// Package cache provides the multi-layer cache that answers provider reads
// from memory, a similarity layer, or a persistent layer transparently.
//
// Layers are ordered by locality and cost, typically memory (fastest,
// smallest, shortest TTL), then a similarity/vector layer, then a
// persistent layer such as redis (slowest, largest, longest TTL). Tiered
// consults them in priority order: a hit at layer k repopulates layers
// 0..k-1 (promotion) before returning; writes go through every layer,
// synchronously by default or with asynchronous propagation to the backing
// layers.
//
//	tc := cache.NewTiered(cache.TieredConfig{
//	    Layers: []cache.Layer{
//	        cache.NewMemory(cache.MemoryConfig{MaxSize: 1000, DefaultTTL: 5 * time.Second}),
//	        cache.NewRedis(cache.RedisConfig{Client: rdb, DefaultTTL: 5 * time.Minute}),
//	    },
//	})
//
//	tc.Set(ctx, key, payload, 0)
//	entry, ok, err := tc.Get(ctx, key)
//
// The similarity layer additionally answers QueryVector/QueryText: given an
// embedding or text it returns entries ranked by cosine similarity above a
// threshold, which deduplicates near-identical natural-language queries.
//
// The cache is best effort, not a system of record: concurrent writes to
// the same key across layers are last-writer-wins per layer.
package cache
