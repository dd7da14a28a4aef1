package gateway

import (
	"context"
	"errors"
	"time"
)

// DefaultClass is the operation class used when a request does not name one.
// Limiter and breaker state is shared per (platform, class).
const DefaultClass = "default"

// Request errors.
var (
	// ErrMissingPlatform indicates Request.Platform is empty.
	ErrMissingPlatform = errors.New("gateway: platform is required")

	// ErrMissingOperation indicates Request.Operation is empty.
	ErrMissingOperation = errors.New("gateway: operation is required")

	// ErrNilOperation indicates a nil operation func was passed to Execute.
	ErrNilOperation = errors.New("gateway: operation func is required")
)

// Operation performs the actual upstream call and returns the raw response
// payload. It must honor ctx cancellation and return transport failures as
// errors classifiable by the faults package.
type Operation func(ctx context.Context) ([]byte, error)

// Request describes one upstream call to be executed through the gateway.
type Request struct {
	// Platform is the upstream platform identifier, e.g. "google". Required.
	Platform string

	// Operation is the operation name, e.g. "mail.list". Required.
	Operation string

	// Class groups operations that share limiter and breaker state.
	// Default: DefaultClass
	Class string

	// Subject identifies the account the call acts for. When set and a
	// credential manager is configured, authentication failures trigger one
	// forced refresh followed by a single retry.
	Subject string

	// Cacheable marks the response as safe to serve from and write to the
	// cache. Mutating operations must leave this false.
	Cacheable bool

	// CacheKey overrides the derived cache key. Optional.
	CacheKey string

	// Params are the operation parameters, used to derive the cache key
	// when CacheKey is empty.
	Params any

	// CacheTTL is the time-to-live for the cached response. Zero uses the
	// cache's default.
	CacheTTL time.Duration

	// Timeout bounds a single upstream attempt. Zero means no per-attempt
	// deadline beyond the caller's context.
	Timeout time.Duration
}

func (r Request) validate() error {
	if r.Platform == "" {
		return ErrMissingPlatform
	}
	if r.Operation == "" {
		return ErrMissingOperation
	}
	return nil
}

func (r Request) class() string {
	if r.Class == "" {
		return DefaultClass
	}
	return r.Class
}
