// Package gateway composes the resilience and caching layers into a single
// execution path for upstream platform calls. Each request flows through
// cache lookup, rate limiting, circuit breaking, and classified retry with
// credential refresh, in that order, and successful cacheable responses are
// written back through the cache.
package gateway
