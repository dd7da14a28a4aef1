package secret

import (
	"context"
	"errors"
)

// Sentinel errors for store operations.
var (
	// ErrNotFound is returned by Get when no record exists for the key.
	ErrNotFound = errors.New("secret: record not found")

	// ErrInvalidKey is returned when the subject key is empty.
	ErrInvalidKey = errors.New("secret: subject key is invalid")
)

// Store persists opaque credential records by subject key.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Values are opaque bytes; implementations must not log or transform them.
// - Encryption at rest is the implementation's concern.
type Store interface {
	// Get retrieves the record for a subject key.
	// Returns ErrNotFound when no record exists.
	Get(ctx context.Context, subjectKey string) ([]byte, error)

	// Set stores the record for a subject key, replacing any existing one.
	Set(ctx context.Context, subjectKey string, record []byte) error

	// Delete removes the record for a subject key. Idempotent.
	Delete(ctx context.Context, subjectKey string) error
}
