// Package health aggregates component health checks and serves them over
// HTTP. Checkers exist for the gateway's circuit breakers, rate limiters,
// and cache layers; the aggregator combines them into liveness, readiness,
// and detailed status endpoints.
package health
