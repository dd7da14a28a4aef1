package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics records gateway execution metrics.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: must return quickly.
// - Errors: implementations must not panic.
type Metrics interface {
	// RecordRequest records a completed gateway request with duration and
	// error status.
	RecordRequest(ctx context.Context, meta OpMeta, duration time.Duration, err error)

	// RecordCacheLookup records a cache lookup outcome for a request.
	RecordCacheLookup(ctx context.Context, meta OpMeta, hit bool)

	// RecordBreakerTransition records a circuit breaker state change.
	RecordBreakerTransition(ctx context.Context, platform, class, from, to string)
}

// metricsImpl is the concrete implementation of Metrics.
type metricsImpl struct {
	meter        metric.Meter
	totalCount   metric.Int64Counter
	errorCount   metric.Int64Counter
	durationHist metric.Float64Histogram
	cacheLookups metric.Int64Counter
	breakerFlips metric.Int64Counter
}

// newMetrics creates a new Metrics instance with the given meter.
func newMetrics(meter metric.Meter) (*metricsImpl, error) {
	totalCount, err := meter.Int64Counter(
		"gateway.requests.total",
		metric.WithDescription("Total number of gateway requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	errorCount, err := meter.Int64Counter(
		"gateway.requests.errors",
		metric.WithDescription("Total number of failed gateway requests"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	durationHist, err := meter.Float64Histogram(
		"gateway.request.duration_ms",
		metric.WithDescription("Gateway request duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	cacheLookups, err := meter.Int64Counter(
		"gateway.cache.lookups",
		metric.WithDescription("Cache lookups performed by the gateway"),
		metric.WithUnit("{lookup}"),
	)
	if err != nil {
		return nil, err
	}

	breakerFlips, err := meter.Int64Counter(
		"gateway.breaker.transitions",
		metric.WithDescription("Circuit breaker state transitions"),
		metric.WithUnit("{transition}"),
	)
	if err != nil {
		return nil, err
	}

	return &metricsImpl{
		meter:        meter,
		totalCount:   totalCount,
		errorCount:   errorCount,
		durationHist: durationHist,
		cacheLookups: cacheLookups,
		breakerFlips: breakerFlips,
	}, nil
}

func opAttrs(meta OpMeta) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String("gateway.op", meta.ID()),
		attribute.String("gateway.platform", meta.Platform),
	}
	if meta.Class != "" {
		attrs = append(attrs, attribute.String("gateway.class", meta.Class))
	}
	return attrs
}

// RecordRequest records metrics for a completed gateway request.
func (m *metricsImpl) RecordRequest(ctx context.Context, meta OpMeta, duration time.Duration, err error) {
	opt := metric.WithAttributes(opAttrs(meta)...)

	m.totalCount.Add(ctx, 1, opt)
	if err != nil {
		m.errorCount.Add(ctx, 1, opt)
	}
	m.durationHist.Record(ctx, float64(duration.Milliseconds()), opt)
}

// RecordCacheLookup records a cache hit or miss.
func (m *metricsImpl) RecordCacheLookup(ctx context.Context, meta OpMeta, hit bool) {
	attrs := append(opAttrs(meta), attribute.Bool("cache.hit", hit))
	m.cacheLookups.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordBreakerTransition records a circuit breaker state change.
func (m *metricsImpl) RecordBreakerTransition(ctx context.Context, platform, class, from, to string) {
	m.breakerFlips.Add(ctx, 1, metric.WithAttributes(
		attribute.String("gateway.platform", platform),
		attribute.String("gateway.class", class),
		attribute.String("breaker.from", from),
		attribute.String("breaker.to", to),
	))
}

// NewMetrics creates a Metrics instance recording to the given meter.
func NewMetrics(meter metric.Meter) (Metrics, error) {
	return newMetrics(meter)
}

// NopMetrics returns a Metrics implementation that discards everything.
func NopMetrics() Metrics {
	return &noopMetrics{}
}

// noopMetrics is a metrics implementation that does nothing.
type noopMetrics struct{}

func (m *noopMetrics) RecordRequest(ctx context.Context, meta OpMeta, duration time.Duration, err error) {
}
func (m *noopMetrics) RecordCacheLookup(ctx context.Context, meta OpMeta, hit bool)           {}
func (m *noopMetrics) RecordBreakerTransition(ctx context.Context, platform, class, from, to string) {
}
