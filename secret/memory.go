package secret

import (
	"context"
	"strings"
	"sync"
)

// MemoryStore is an in-memory credential store. Records do not survive the
// process; it exists for tests and short-lived tooling.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string][]byte
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string][]byte)}
}

// Get retrieves the record for a subject key.
func (s *MemoryStore) Get(_ context.Context, subjectKey string) ([]byte, error) {
	if strings.TrimSpace(subjectKey) == "" {
		return nil, ErrInvalidKey
	}

	s.mu.RLock()
	record, ok := s.records[subjectKey]
	s.mu.RUnlock()

	if !ok {
		return nil, ErrNotFound
	}

	// Copy so callers cannot mutate the stored record.
	out := make([]byte, len(record))
	copy(out, record)
	return out, nil
}

// Set stores the record for a subject key.
func (s *MemoryStore) Set(_ context.Context, subjectKey string, record []byte) error {
	if strings.TrimSpace(subjectKey) == "" {
		return ErrInvalidKey
	}

	stored := make([]byte, len(record))
	copy(stored, record)

	s.mu.Lock()
	s.records[subjectKey] = stored
	s.mu.Unlock()
	return nil
}

// Delete removes the record for a subject key. Idempotent.
func (s *MemoryStore) Delete(_ context.Context, subjectKey string) error {
	if strings.TrimSpace(subjectKey) == "" {
		return ErrInvalidKey
	}

	s.mu.Lock()
	delete(s.records, subjectKey)
	s.mu.Unlock()
	return nil
}

// Ensure MemoryStore implements Store
var _ Store = (*MemoryStore)(nil)
