package userstore

import (
	"context"
	"sync"
	"time"

	"github.com/authgate/authgate"
	"github.com/google/uuid"
)

// Memory is a map-backed credential store. Safe for concurrent use. Records
// do not survive the process; use it for tests, examples, and local
// development.
type Memory struct {
	mu    sync.RWMutex
	users map[string]authgate.UserRecord
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		users: make(map[string]authgate.UserRecord),
	}
}

// FindByIdentifier returns the record for identifier, or
// [authgate.ErrUserNotFound].
func (m *Memory) FindByIdentifier(_ context.Context, identifier string) (authgate.UserRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	user, ok := m.users[identifier]
	if !ok {
		return authgate.UserRecord{}, authgate.ErrUserNotFound
	}
	return user, nil
}

// Create inserts a new record, failing with [authgate.ErrAccountExists] when
// the identifier is already taken.
func (m *Memory) Create(_ context.Context, input authgate.CreateUserInput) (authgate.UserRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[input.Identifier]; ok {
		return authgate.UserRecord{}, authgate.ErrAccountExists
	}

	user := authgate.UserRecord{
		UserID:     uuid.NewString(),
		Identifier: input.Identifier,
		SecretHash: input.SecretHash,
		CreatedAt:  time.Now(),
	}
	m.users[input.Identifier] = user
	return user, nil
}

// Save overwrites the record for user.Identifier. Unknown identifiers return
// [authgate.ErrUserNotFound].
func (m *Memory) Save(_ context.Context, user authgate.UserRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[user.Identifier]; !ok {
		return authgate.ErrUserNotFound
	}
	m.users[user.Identifier] = user
	return nil
}
