package directory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/MrEthical07/tokengate"
	"github.com/MrEthical07/tokengate/password"
)

var (
	// ErrDuplicateIdentifier is returned when another account already uses
	// the identifier.
	ErrDuplicateIdentifier = errors.New("directory: identifier already in use")
	// ErrInvalidRecord is returned for records without an id or identifier.
	ErrInvalidRecord = errors.New("directory: invalid record")
)

// Memory is an in-process Directory. Identifiers are matched
// case-insensitively.
type Memory struct {
	mu      sync.RWMutex
	byID    map[string]tokengate.UserRecord
	byIdent map[string]string
}

var _ tokengate.Directory = (*Memory)(nil)

// NewMemory returns an empty directory.
func NewMemory() *Memory {
	return &Memory{
		byID:    make(map[string]tokengate.UserRecord),
		byIdent: make(map[string]string),
	}
}

func normalizeIdentifier(identifier string) string {
	return strings.ToLower(strings.TrimSpace(identifier))
}

// Put inserts or replaces rec, keyed by rec.ID.
func (m *Memory) Put(rec tokengate.UserRecord) error {
	key := normalizeIdentifier(rec.Identifier)
	if rec.ID == "" || key == "" {
		return ErrInvalidRecord
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if owner, ok := m.byIdent[key]; ok && owner != rec.ID {
		return ErrDuplicateIdentifier
	}
	if prev, ok := m.byID[rec.ID]; ok {
		delete(m.byIdent, normalizeIdentifier(prev.Identifier))
	}
	m.byID[rec.ID] = rec
	m.byIdent[key] = rec.ID
	return nil
}

// AddUser hashes secret with h and stores the account.
func (m *Memory) AddUser(h password.Hasher, id, identifier string, role tokengate.Role, secret string) error {
	if h == nil {
		return errors.New("directory: hasher is nil")
	}
	hash, err := h.Hash(secret)
	if err != nil {
		return fmt.Errorf("directory: hash secret: %w", err)
	}
	return m.Put(tokengate.UserRecord{ID: id, Identifier: identifier, Role: role, SecretHash: hash})
}

// SetRole changes the stored role of id.
func (m *Memory) SetRole(id string, role tokengate.Role) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.byID[id]
	if !ok {
		return tokengate.ErrIdentityNotFound
	}
	rec.Role = role
	m.byID[id] = rec
	return nil
}

// Delete removes id. Unknown ids are ignored.
func (m *Memory) Delete(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.byID[id]
	if !ok {
		return
	}
	delete(m.byID, id)
	delete(m.byIdent, normalizeIdentifier(rec.Identifier))
}

// Len returns the number of accounts.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.byID)
}

// FindByIdentifier implements tokengate.Directory.
func (m *Memory) FindByIdentifier(ctx context.Context, identifier string) (tokengate.UserRecord, error) {
	if err := ctx.Err(); err != nil {
		return tokengate.UserRecord{}, fmt.Errorf("%w: %v", tokengate.ErrUnavailable, err)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.byIdent[normalizeIdentifier(identifier)]
	if !ok {
		return tokengate.UserRecord{}, tokengate.ErrIdentityNotFound
	}
	return m.byID[id], nil
}

// FindByID implements tokengate.Directory.
func (m *Memory) FindByID(ctx context.Context, id string) (tokengate.UserRecord, error) {
	if err := ctx.Err(); err != nil {
		return tokengate.UserRecord{}, fmt.Errorf("%w: %v", tokengate.ErrUnavailable, err)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.byID[id]
	if !ok {
		return tokengate.UserRecord{}, tokengate.ErrIdentityNotFound
	}
	return rec, nil
}
