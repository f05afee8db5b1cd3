package cache

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// Memory is a process-local Cache. Expired entries are dropped lazily on read.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     Clock
}

var _ Cache = (*Memory)(nil)

// NewMemory creates an empty in-memory cache using the wall clock.
func NewMemory() *Memory {
	return NewMemoryWithClock(time.Now)
}

// NewMemoryWithClock creates an empty in-memory cache using now for expiry checks.
func NewMemoryWithClock(now Clock) *Memory {
	return &Memory{
		entries: make(map[string]memoryEntry),
		now:     now,
	}
}

// Get returns a copy of the live value under key.
func (m *Memory) Get(ctx context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	entry, ok := m.entries[key]
	m.mu.RUnlock()

	if !ok {
		return nil, false, nil
	}
	if !m.now().Before(entry.expiresAt) {
		m.mu.Lock()
		// re-check: a writer may have refreshed the slot meanwhile
		if current, ok := m.entries[key]; ok && !m.now().Before(current.expiresAt) {
			delete(m.entries, key)
		}
		m.mu.Unlock()
		return nil, false, nil
	}
	return cloneBytes(entry.value), true, nil
}

// Set replaces the value under key. A non-positive ttl stores nothing.
func (m *Memory) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	entry := memoryEntry{
		value:     cloneBytes(value),
		expiresAt: m.now().Add(ttl),
	}

	m.mu.Lock()
	m.entries[key] = entry
	m.mu.Unlock()
	return nil
}

// Len returns the number of stored entries, expired or not.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
