package credential

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/jonwraymond/hubsync/secret"
)

// ManagerConfig configures a Manager.
type ManagerConfig struct {
	// Refresher performs the token refresh. Required.
	Refresher Refresher

	// Store persists refreshed credentials. Optional; with no store,
	// credentials live only in memory.
	Store secret.Store

	// ExpiryBuffer is how long before expiry a credential is refreshed
	// proactively.
	// Default: 5 minutes
	ExpiryBuffer time.Duration

	// Now overrides the clock, for tests.
	Now func() time.Time
}

// Manager keeps one credential per subject valid. Safe for concurrent use;
// refreshes for a subject are single-flighted.
type Manager struct {
	config ManagerConfig

	sf singleflight.Group

	mu    sync.RWMutex
	creds map[string]*Credential
}

// NewManager creates a Manager.
func NewManager(config ManagerConfig) *Manager {
	// Apply defaults
	if config.ExpiryBuffer <= 0 {
		config.ExpiryBuffer = 5 * time.Minute
	}
	if config.Now == nil {
		config.Now = time.Now
	}

	return &Manager{
		config: config,
		creds:  make(map[string]*Credential),
	}
}

// Put installs a credential obtained from initial authentication and
// persists it.
func (m *Manager) Put(ctx context.Context, cred Credential) error {
	if cred.Subject == "" {
		return errors.New("credential: subject is required")
	}
	cred.inferExpiry()

	m.mu.Lock()
	stored := cred
	m.creds[cred.Subject] = &stored
	m.mu.Unlock()

	return m.persist(ctx, cred)
}

// EnsureValid returns a usable credential for subject, refreshing first if
// the current one is expired or expires within the buffer window.
//
// Concurrent calls for the same subject share one underlying refresh: the
// first caller performs it and the rest await its result.
func (m *Manager) EnsureValid(ctx context.Context, subject string) (Credential, error) {
	cred, err := m.load(ctx, subject)
	if err != nil {
		return Credential{}, err
	}

	if cred.ValidFor(m.config.Now(), m.config.ExpiryBuffer) {
		return cred, nil
	}

	result, err, _ := m.sf.Do(subject, func() (any, error) {
		return m.refresh(ctx, subject, false)
	})
	if err != nil {
		return Credential{}, err
	}
	return result.(Credential), nil
}

// ForceRefresh refreshes the subject's credential even when it has not
// reached its recorded expiry, for when the upstream rejects a token early.
// Concurrent forced refreshes for a subject share one underlying refresh.
func (m *Manager) ForceRefresh(ctx context.Context, subject string) (Credential, error) {
	result, err, _ := m.sf.Do(subject, func() (any, error) {
		return m.refresh(ctx, subject, true)
	})
	if err != nil {
		return Credential{}, err
	}
	return result.(Credential), nil
}

// Invalidate drops the subject's credential from memory and the store.
func (m *Manager) Invalidate(ctx context.Context, subject string) error {
	m.mu.Lock()
	delete(m.creds, subject)
	m.mu.Unlock()

	if m.config.Store == nil {
		return nil
	}
	return m.config.Store.Delete(ctx, subject)
}

// refresh runs inside the singleflight group.
func (m *Manager) refresh(ctx context.Context, subject string, force bool) (Credential, error) {
	// Re-check under the flight: a caller that queued behind a completed
	// refresh must not trigger a second one.
	cred, err := m.load(ctx, subject)
	if err != nil {
		return Credential{}, err
	}
	if !force && cred.ValidFor(m.config.Now(), m.config.ExpiryBuffer) {
		return cred, nil
	}

	if m.config.Refresher == nil {
		return Credential{}, errors.New("credential: no refresher configured")
	}

	refreshed, err := m.config.Refresher.Refresh(ctx, cred)
	if err != nil {
		return Credential{}, err
	}

	refreshed.Subject = subject
	refreshed.RefreshCount = cred.RefreshCount + 1
	refreshed.inferExpiry()

	m.mu.Lock()
	stored := refreshed
	m.creds[subject] = &stored
	m.mu.Unlock()

	if err := m.persist(ctx, refreshed); err != nil {
		return Credential{}, err
	}
	return refreshed, nil
}

// load returns the subject's credential from memory, falling back to the
// store.
func (m *Manager) load(ctx context.Context, subject string) (Credential, error) {
	m.mu.RLock()
	cred, ok := m.creds[subject]
	m.mu.RUnlock()
	if ok {
		return *cred, nil
	}

	if m.config.Store == nil {
		return Credential{}, ErrUnknownSubject
	}

	record, err := m.config.Store.Get(ctx, subject)
	if err != nil {
		if errors.Is(err, secret.ErrNotFound) {
			return Credential{}, ErrUnknownSubject
		}
		return Credential{}, fmt.Errorf("credential: load %q: %w", subject, err)
	}

	var loaded Credential
	if err := json.Unmarshal(record, &loaded); err != nil {
		return Credential{}, fmt.Errorf("credential: decode %q: %w", subject, err)
	}

	m.mu.Lock()
	m.creds[subject] = &loaded
	m.mu.Unlock()
	return loaded, nil
}

func (m *Manager) persist(ctx context.Context, cred Credential) error {
	if m.config.Store == nil {
		return nil
	}

	record, err := json.Marshal(cred)
	if err != nil {
		return fmt.Errorf("credential: encode %q: %w", cred.Subject, err)
	}
	if err := m.config.Store.Set(ctx, cred.Subject, record); err != nil {
		return fmt.Errorf("credential: persist %q: %w", cred.Subject, err)
	}
	return nil
}
