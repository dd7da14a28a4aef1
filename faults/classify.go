package faults

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"
)

// Kind identifies the class of a provider failure.
type Kind int

const (
	// KindUnknown is the default fallback classification.
	KindUnknown Kind = iota
	// KindAuthentication covers invalid/expired tokens and insufficient scope.
	KindAuthentication
	// KindRateLimit covers provider-side throttling (HTTP 429).
	KindRateLimit
	// KindNotFound covers missing remote resources.
	KindNotFound
	// KindConflict covers concurrent remote modification (HTTP 409).
	KindConflict
	// KindTransientServer covers 5xx responses and timeouts.
	KindTransientServer
	// KindValidation covers rejected requests (HTTP 400/422).
	KindValidation
	// KindCircuitOpen is produced locally when a circuit breaker is open.
	KindCircuitOpen
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindAuthentication:
		return "authentication"
	case KindRateLimit:
		return "rate_limit"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindTransientServer:
		return "transient_server"
	case KindValidation:
		return "validation"
	case KindCircuitOpen:
		return "circuit_open"
	default:
		return "unknown"
	}
}

// severity ranks kinds for multi-error aggregation. Higher wins.
func (k Kind) severity() int {
	switch k {
	case KindTransientServer:
		return 6
	case KindAuthentication:
		return 5
	case KindRateLimit:
		return 4
	case KindNotFound:
		return 3
	case KindConflict:
		return 2
	case KindValidation:
		return 1
	default:
		return 0
	}
}

// Classified is a provider error normalized onto the taxonomy.
// It is immutable after creation.
type Classified struct {
	// Kind is the stable classification callers branch on.
	Kind Kind

	// Retryable reports whether a local retry may succeed.
	Retryable bool

	// RetryAfter is a provider-suggested delay before retrying, if any.
	RetryAfter time.Duration

	// Cause is the original error, preserved for logging.
	Cause error
}

func (c *Classified) Error() string {
	if c.Cause != nil {
		return fmt.Sprintf("faults: %s: %v", c.Kind, c.Cause)
	}
	return fmt.Sprintf("faults: %s", c.Kind)
}

// Unwrap returns the original cause.
func (c *Classified) Unwrap() error {
	return c.Cause
}

// TransportError carries the status code and body of a failed provider call.
// Platform adapters wrap failed responses in this type so the core can
// classify them without knowing any provider's wire format.
type TransportError struct {
	StatusCode int
	Body       string
	// RetryAfter is the provider-suggested delay, parsed from response
	// headers by the adapter. Zero when absent.
	RetryAfter time.Duration
}

func (e *TransportError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("faults: provider returned status %d: %s", e.StatusCode, e.Body)
	}
	return fmt.Sprintf("faults: provider returned status %d", e.StatusCode)
}

// ErrCircuitOpen is the sentinel matched by Classify for locally produced
// circuit-open failures. Circuit breaker implementations wrap or return it.
var ErrCircuitOpen = errors.New("faults: circuit breaker is open")

// Classify normalizes err into a Classified error.
//
// Classification is deterministic: the same input always yields the same
// kind. An error that is already Classified is returned unchanged.
func Classify(err error) *Classified {
	if err == nil {
		return nil
	}

	var classified *Classified
	if errors.As(err, &classified) {
		return classified
	}

	if errors.Is(err, ErrCircuitOpen) {
		return &Classified{Kind: KindCircuitOpen, Retryable: false, Cause: err}
	}

	// Timeouts are transient regardless of transport.
	if errors.Is(err, context.DeadlineExceeded) {
		return &Classified{Kind: KindTransientServer, Retryable: true, Cause: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &Classified{Kind: KindTransientServer, Retryable: true, Cause: err}
	}

	var transport *TransportError
	if errors.As(err, &transport) {
		return classifyStatus(transport, err)
	}

	return &Classified{Kind: KindUnknown, Retryable: false, Cause: err}
}

func classifyStatus(t *TransportError, cause error) *Classified {
	switch {
	case t.StatusCode == 401 || t.StatusCode == 403:
		return &Classified{Kind: KindAuthentication, Retryable: false, Cause: cause}
	case t.StatusCode == 404:
		return &Classified{Kind: KindNotFound, Retryable: false, Cause: cause}
	case t.StatusCode == 409:
		return &Classified{Kind: KindConflict, Retryable: false, Cause: cause}
	case t.StatusCode == 429:
		return &Classified{Kind: KindRateLimit, Retryable: true, RetryAfter: t.RetryAfter, Cause: cause}
	case t.StatusCode == 400 || t.StatusCode == 422:
		return &Classified{Kind: KindValidation, Retryable: false, Cause: cause}
	case t.StatusCode >= 500:
		return &Classified{Kind: KindTransientServer, Retryable: true, RetryAfter: t.RetryAfter, Cause: cause}
	default:
		return &Classified{Kind: KindUnknown, Retryable: false, Cause: cause}
	}
}

// MostSevere classifies every error and returns the single most severe one
// by the fixed severity ranking (server errors > auth > rate limit >
// not found > conflict > validation). Used to pick the error reported when
// many sub-operations fail together. Returns nil for an empty or all-nil
// input.
func MostSevere(errs []error) *Classified {
	var worst *Classified
	for _, err := range errs {
		if err == nil {
			continue
		}
		c := Classify(err)
		if worst == nil || c.Kind.severity() > worst.Kind.severity() {
			worst = c
		}
	}
	return worst
}
