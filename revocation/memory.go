package revocation

import (
	"context"
	"sync"
	"time"
)

// Memory is an in-process Store keyed by fingerprint. Expired entries are
// reported absent and dropped on the next lookup or Prune.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]time.Time
	now     func() time.Time
}

// NewMemory returns an empty Memory store. A nil clock defaults to time.Now.
func NewMemory(now func() time.Time) *Memory {
	if now == nil {
		now = time.Now
	}
	return &Memory{
		entries: make(map[string]time.Time),
		now:     now,
	}
}

// Add implements Store.
func (m *Memory) Add(ctx context.Context, token string, expiresAt time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, ok := ttlUntil(expiresAt, m.now()); !ok {
		return nil
	}

	m.mu.Lock()
	m.entries[Fingerprint(token)] = expiresAt
	m.mu.Unlock()
	return nil
}

// Remove implements Store.
func (m *Memory) Remove(ctx context.Context, token string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	delete(m.entries, Fingerprint(token))
	m.mu.Unlock()
	return nil
}

// Contains implements Store.
func (m *Memory) Contains(ctx context.Context, token string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	key := Fingerprint(token)

	m.mu.RLock()
	expiresAt, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if _, live := ttlUntil(expiresAt, m.now()); live {
		return true, nil
	}

	m.mu.Lock()
	// Re-check under the write lock: a concurrent Add may have replaced the entry.
	if current, still := m.entries[key]; still && current.Equal(expiresAt) {
		delete(m.entries, key)
	}
	m.mu.Unlock()
	return false, nil
}

// Prune drops every entry whose expiry is at or before now and reports how
// many were removed.
func (m *Memory) Prune(now time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for key, expiresAt := range m.entries {
		if _, live := ttlUntil(expiresAt, now); !live {
			delete(m.entries, key)
			removed++
		}
	}
	return removed
}

// Len reports the number of stored entries, including expired ones not yet pruned.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
