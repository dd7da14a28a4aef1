// Package observe provides OpenTelemetry-backed tracing, metrics, and
// structured logging for gateway request execution. An Observer owns the
// provider lifecycle; Middleware wraps an operation with a span, request
// metrics, and an execution log line.
package observe
