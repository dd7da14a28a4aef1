package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Keyer generates deterministic cache keys from request parameters.
//
// Contract:
// - Determinism: same inputs must produce same key, regardless of map iteration order.
// - Concurrency: implementations must be safe for concurrent use.
type Keyer interface {
	// Key generates a cache key from platform, operation, and parameters.
	Key(platform, operation string, params any) (string, error)
}

// DefaultKeyer generates SHA-256 based cache keys.
type DefaultKeyer struct{}

// NewDefaultKeyer creates a new default keyer.
func NewDefaultKeyer() *DefaultKeyer {
	return &DefaultKeyer{}
}

// Key generates a deterministic cache key.
// Format: <platform>:<operation>:<hash>
// where hash is the first 16 hex characters of SHA-256 over the JSON
// encoding of params. encoding/json sorts map keys, so two maps with the
// same contents hash identically regardless of insertion order.
func (k *DefaultKeyer) Key(platform, operation string, params any) (string, error) {
	encoded, err := json.Marshal(params)
	if err != nil {
		return "", fmt.Errorf("cache: failed to encode params: %w", err)
	}

	hash := sha256.Sum256(encoded)
	return fmt.Sprintf("%s:%s:%s", platform, operation, hex.EncodeToString(hash[:8])), nil
}

// Ensure DefaultKeyer implements Keyer
var _ Keyer = (*DefaultKeyer)(nil)
