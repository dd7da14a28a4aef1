// Package ratelimit throttles outgoing calls to a remote provider.
//
// A Limiter enforces three constraints simultaneously: a rolling-window
// request cap, a maximum-concurrency cap, and a minimum inter-dispatch
// spacing. Acquire suspends the caller until all three are satisfied;
// Release frees the concurrency slot when the operation completes.
//
//	lim := ratelimit.New(ratelimit.Config{
//	    MaxRequests:   100,
//	    Window:        time.Minute,
//	    MaxConcurrent: 8,
//	    MinSpacing:    50 * time.Millisecond,
//	})
//
//	if err := lim.Acquire(ctx); err != nil {
//	    return err
//	}
//	defer lim.Release()
//
// Waiters are admitted in FIFO order. With QueueDisabled set, Acquire fails
// immediately with ErrCapacityExceeded instead of suspending.
//
// One Limiter instance is shared per (platform, operation class); a Registry
// hands out those shared instances.
package ratelimit
