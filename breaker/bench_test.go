package breaker

import (
	"context"
	"testing"
)

// BenchmarkBreaker_Execute_Closed measures the happy-path overhead.
func BenchmarkBreaker_Execute_Closed(b *testing.B) {
	cb := New(Config{})
	ctx := context.Background()
	op := func(ctx context.Context) error { return nil }

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = cb.Execute(ctx, op)
	}
}

// BenchmarkBreaker_Execute_Open measures fast-fail overhead with the
// circuit open.
func BenchmarkBreaker_Execute_Open(b *testing.B) {
	cb := New(Config{FailureThreshold: 1, VolumeThreshold: 1, ErrorThresholdPercentage: 1})
	ctx := context.Background()

	_ = cb.Execute(ctx, func(ctx context.Context) error { return errTest })
	if cb.State() != StateOpen {
		b.Fatalf("state = %v, want open", cb.State())
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = cb.Execute(ctx, func(ctx context.Context) error { return nil })
	}
}
