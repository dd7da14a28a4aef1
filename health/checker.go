package health

import (
	"context"
	"time"
)

// Status is the reported condition of a checked component. Values order by
// severity so aggregation can take the maximum.
type Status int

const (
	// StatusHealthy means the component is fully operational.
	StatusHealthy Status = iota
	// StatusDegraded means the component works but with reduced capacity,
	// e.g. an exhausted rate budget or a circuit mid-probe.
	StatusDegraded
	// StatusUnhealthy means the component cannot serve requests.
	StatusUnhealthy
)

var statusNames = [...]string{"healthy", "degraded", "unhealthy"}

// String returns the lowercase status name.
func (s Status) String() string {
	if s < StatusHealthy || s > StatusUnhealthy {
		return "unknown"
	}
	return statusNames[s]
}

// Result is the outcome of a single check.
type Result struct {
	// Status is the reported condition.
	Status Status

	// Message is a short human-readable summary.
	Message string

	// Details carries check-specific metadata, e.g. per-circuit states.
	Details map[string]any

	// Duration is how long the check ran.
	Duration time.Duration

	// Timestamp records when the check ran.
	Timestamp time.Time

	// Error is set when the check itself failed.
	Error error
}

// Healthy builds a healthy result with the given summary.
func Healthy(message string) Result {
	return Result{Status: StatusHealthy, Message: message, Timestamp: time.Now()}
}

// Degraded builds a degraded result with the given summary.
func Degraded(message string) Result {
	return Result{Status: StatusDegraded, Message: message, Timestamp: time.Now()}
}

// Unhealthy builds an unhealthy result carrying the failure.
func Unhealthy(message string, err error) Result {
	return Result{Status: StatusUnhealthy, Message: message, Error: err, Timestamp: time.Now()}
}

// WithDetails returns a copy of the result with details attached.
func (r Result) WithDetails(details map[string]any) Result {
	r.Details = details
	return r
}

// Checker probes one component.
type Checker interface {
	// Name identifies the checker within an aggregator.
	Name() string

	// Check probes the component. Implementations must respect ctx.
	Check(ctx context.Context) Result
}

// CheckerFunc adapts a plain function into a named Checker.
type CheckerFunc struct {
	name  string
	probe func(context.Context) Result
}

// NewCheckerFunc wraps fn as a Checker with the given name.
func NewCheckerFunc(name string, fn func(context.Context) Result) *CheckerFunc {
	return &CheckerFunc{name: name, probe: fn}
}

// Name identifies the checker.
func (f *CheckerFunc) Name() string { return f.name }

// Check invokes the wrapped function.
func (f *CheckerFunc) Check(ctx context.Context) Result { return f.probe(ctx) }

var _ Checker = (*CheckerFunc)(nil)
