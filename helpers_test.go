package authgate

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type mockUserStore struct {
	mu    sync.Mutex
	users map[string]UserRecord

	findErr   error
	createErr error
	saveErr   error

	findCalls   int
	createCalls int
	saveCalls   int
}

func newMockUserStore() *mockUserStore {
	return &mockUserStore{users: make(map[string]UserRecord)}
}

func (m *mockUserStore) FindByIdentifier(_ context.Context, identifier string) (UserRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.findCalls++

	if m.findErr != nil {
		return UserRecord{}, m.findErr
	}
	user, ok := m.users[identifier]
	if !ok {
		return UserRecord{}, ErrUserNotFound
	}
	return user, nil
}

func (m *mockUserStore) Create(_ context.Context, input CreateUserInput) (UserRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.createCalls++

	if m.createErr != nil {
		return UserRecord{}, m.createErr
	}
	if _, ok := m.users[input.Identifier]; ok {
		return UserRecord{}, ErrAccountExists
	}

	user := UserRecord{
		UserID:     fmt.Sprintf("u%d", len(m.users)+1),
		Identifier: input.Identifier,
		SecretHash: input.SecretHash,
		CreatedAt:  time.Now(),
	}
	m.users[input.Identifier] = user
	return user, nil
}

func (m *mockUserStore) Save(_ context.Context, user UserRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveCalls++

	if m.saveErr != nil {
		return m.saveErr
	}
	if _, ok := m.users[user.Identifier]; !ok {
		return ErrUserNotFound
	}
	m.users[user.Identifier] = user
	return nil
}

func (m *mockUserStore) get(identifier string) (UserRecord, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[identifier]
	return user, ok
}

type mockNotifier struct {
	mu      sync.Mutex
	sendErr error

	calls    int
	lastTo   string
	lastSubj string
	lastBody string
}

func (m *mockNotifier) Send(_ context.Context, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.lastTo = to
	m.lastSubj = subject
	m.lastBody = body
	return m.sendErr
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func testConfig() Config {
	cfg := DefaultConfig()
	// Cheap argon2 parameters keep the suite fast.
	cfg.Password.Memory = 8 * 1024
	cfg.Password.Time = 1
	cfg.RateLimit.Enabled = false
	return cfg
}

func newTestEngine(t *testing.T, rdb redis.UniversalClient, store UserStore, notifier Notifier, cfg Config) *Engine {
	t.Helper()

	engine, err := New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithUserStore(store).
		WithNotifier(notifier).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)
	return engine
}

func mustRegister(t *testing.T, engine *Engine, identifier, secret string) UserRecord {
	t.Helper()

	user, err := engine.Register(context.Background(), identifier, secret)
	if err != nil {
		t.Fatalf("Register(%q) failed: %v", identifier, err)
	}
	return user
}

var errBoom = errors.New("boom")
