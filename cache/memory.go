package cache

import (
	"container/list"
	"context"
	"sync"
	"time"
)

// MemoryConfig configures the in-memory layer.
type MemoryConfig struct {
	// MaxSize is the maximum number of entries before eviction.
	// Default: 1000
	MaxSize int

	// DefaultTTL applies when Set is called with ttl<=0.
	// Default: 5 minutes
	DefaultTTL time.Duration

	// MaxTTL clamps requested TTLs. Zero means no clamp.
	MaxTTL time.Duration

	// Policy selects the eviction victim when the layer is full.
	// Default: EvictLRU
	Policy EvictionPolicy

	// OnEvict is called with each evicted entry, for telemetry.
	OnEvict func(entry *Entry)

	// Now overrides the clock, for tests.
	Now func() time.Time
}

// Memory is the in-memory cache layer: fastest, smallest, shortest TTL.
type Memory struct {
	config MemoryConfig

	mu      sync.Mutex
	entries map[string]*memEntry
	order   *list.List // front = most recent for lru, newest for fifo
	stats   Stats
}

type memEntry struct {
	entry *Entry
	elem  *list.Element
}

// NewMemory creates an in-memory layer.
func NewMemory(config MemoryConfig) *Memory {
	// Apply defaults
	if config.MaxSize <= 0 {
		config.MaxSize = 1000
	}
	if config.DefaultTTL <= 0 {
		config.DefaultTTL = 5 * time.Minute
	}
	if config.Policy == "" {
		config.Policy = EvictLRU
	}
	if config.Now == nil {
		config.Now = time.Now
	}

	return &Memory{
		config:  config,
		entries: make(map[string]*memEntry),
		order:   list.New(),
	}
}

// Name identifies the layer.
func (m *Memory) Name() string { return "memory" }

// Get retrieves the entry for key, updating access bookkeeping on hit.
func (m *Memory) Get(_ context.Context, key string) (*Entry, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	me, ok := m.entries[key]
	if !ok {
		m.stats.Misses++
		return nil, false, nil
	}

	now := m.config.Now()
	if me.entry.Expired(now) {
		m.removeLocked(key, me)
		m.stats.Misses++
		return nil, false, nil
	}

	me.entry.HitCount++
	me.entry.LastAccessedAt = now
	if m.config.Policy == EvictLRU {
		m.order.MoveToFront(me.elem)
	}
	m.stats.Hits++

	out := *me.entry
	return &out, true, nil
}

// Set stores value, evicting if the layer is full.
func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if err := ValidateKey(key); err != nil {
		return err
	}

	if ttl <= 0 {
		ttl = m.config.DefaultTTL
	}
	if m.config.MaxTTL > 0 && ttl > m.config.MaxTTL {
		ttl = m.config.MaxTTL
	}

	now := m.config.Now()
	stored := make([]byte, len(value))
	copy(stored, value)

	entry := &Entry{
		Key:            key,
		Value:          stored,
		Layer:          m.Name(),
		CreatedAt:      now,
		ExpiresAt:      now.Add(ttl),
		LastAccessedAt: now,
		Size:           len(stored),
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if me, ok := m.entries[key]; ok {
		me.entry = entry
		m.order.MoveToFront(me.elem)
		return nil
	}

	for len(m.entries) >= m.config.MaxSize {
		m.evictLocked()
	}

	m.entries[key] = &memEntry{entry: entry, elem: m.order.PushFront(key)}
	return nil
}

// Delete removes the entry for key. Idempotent.
func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if me, ok := m.entries[key]; ok {
		m.removeLocked(key, me)
	}
	return nil
}

// Flush drops every entry without touching the counters.
func (m *Memory) Flush(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries = make(map[string]*memEntry)
	m.order.Init()
	return nil
}

// Stats returns a snapshot of layer counters.
func (m *Memory) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.stats
	s.Entries = len(m.entries)
	return s
}

// Close drops all entries.
func (m *Memory) Close(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries = make(map[string]*memEntry)
	m.order.Init()
	return nil
}

// evictLocked removes one victim according to the configured policy.
func (m *Memory) evictLocked() {
	var key string

	switch m.config.Policy {
	case EvictLFU:
		key = m.minByLocked(func(e *Entry) int64 { return e.HitCount })
	case EvictTTL:
		key = m.minByLocked(func(e *Entry) int64 { return e.ExpiresAt.UnixNano() })
	default:
		// lru and fifo both evict from the back of the order list; lru
		// refreshes positions on access, fifo never does.
		back := m.order.Back()
		if back == nil {
			return
		}
		key = back.Value.(string)
	}

	me, ok := m.entries[key]
	if !ok {
		return
	}

	m.stats.Evictions++
	if m.config.OnEvict != nil {
		evicted := *me.entry
		m.config.OnEvict(&evicted)
	}
	m.removeLocked(key, me)
}

// minByLocked returns the key whose entry minimizes rank.
func (m *Memory) minByLocked(rank func(*Entry) int64) string {
	var minKey string
	var minVal int64
	first := true
	for key, me := range m.entries {
		v := rank(me.entry)
		if first || v < minVal {
			minKey, minVal, first = key, v, false
		}
	}
	return minKey
}

func (m *Memory) removeLocked(key string, me *memEntry) {
	m.order.Remove(me.elem)
	delete(m.entries, key)
}

// Ensure Memory implements Layer
var _ Layer = (*Memory)(nil)
