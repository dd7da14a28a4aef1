package health

import "errors"

var (
	// ErrCheckFailed marks a probe that ran and found the component broken.
	ErrCheckFailed = errors.New("health: check failed")

	// ErrCheckTimeout marks a probe that exceeded the aggregator timeout.
	ErrCheckTimeout = errors.New("health: check timeout")

	// ErrCheckerNotFound is returned by Check for an unregistered name.
	ErrCheckerNotFound = errors.New("health: checker not found")
)
