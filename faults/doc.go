// Package faults classifies provider errors and drives retry decisions.
//
// Every error that crosses a platform adapter boundary is normalized into a
// Classified error carrying a stable Kind, a retryability flag, an optional
// provider-suggested delay, and the original cause. Callers branch on the
// Kind, never on transport-specific details.
//
// # Classification
//
// Classify maps transport status codes and well-known sentinel errors onto
// the taxonomy:
//
//	c := faults.Classify(err)
//	if c.Kind == faults.KindAuthentication {
//	    // refresh credentials and retry once
//	}
//
// # Retry
//
// Handler retries retryable failures with exponential backoff and jitter:
//
//	h := faults.NewHandler(faults.HandlerConfig{MaxRetries: 3})
//	err := h.Do(ctx, func(ctx context.Context) error {
//	    return callProvider(ctx)
//	})
//
// DoWithRefresh additionally performs exactly one credential refresh when an
// authentication failure is classified, followed by a single retry.
package faults
