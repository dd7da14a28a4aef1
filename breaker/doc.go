// Package breaker stops calling a provider that is failing, fails fast,
// and probes for recovery.
//
// The circuit has three states. Closed is normal operation: calls pass
// through and outcomes are counted over a rolling window. When the failure
// ratio in the window reaches ErrorThresholdPercentage with at least
// VolumeThreshold samples, the circuit opens and every call fails
// immediately with faults.ErrCircuitOpen, without invoking the operation.
// After ResetTimeout the circuit goes half-open and admits exactly one
// probe at a time; SuccessThreshold consecutive probe successes close the
// circuit, any probe failure reopens it.
//
//	cb := breaker.New(breaker.Config{
//	    VolumeThreshold:          10,
//	    ErrorThresholdPercentage: 50,
//	    ResetTimeout:             30 * time.Second,
//	})
//
//	err := cb.Execute(ctx, func(ctx context.Context) error {
//	    return callProvider(ctx)
//	})
//
// Circuit-open rejections are synthetic: they never count against the real
// failure budget. Caller cancellation is not counted either; only genuine
// operation outcomes move the state machine.
package breaker
