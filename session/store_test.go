package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestStore(t *testing.T, sliding bool) (*miniredis.Miniredis, *Store) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return mr, NewStore(rdb, "ag", sliding)
}

func TestStoreSaveGetDelete(t *testing.T) {
	_, store := newTestStore(t, false)
	ctx := context.Background()

	now := time.Now()
	sess := &Session{
		SessionID:  "s1",
		Identifier: "alice",
		CreatedAt:  now.Unix(),
		ExpiresAt:  now.Add(time.Hour).Unix(),
	}
	if err := store.Save(ctx, sess, time.Hour); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := store.Get(ctx, "s1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.SessionID != "s1" || got.Identifier != "alice" {
		t.Fatalf("got %+v", got)
	}

	if err := store.Delete(ctx, "s1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := store.Get(ctx, "s1"); !errors.Is(err, redis.Nil) {
		t.Fatalf("after delete: expected redis.Nil, got %v", err)
	}

	// Deleting again is still success.
	if err := store.Delete(ctx, "s1"); err != nil {
		t.Fatalf("repeated Delete failed: %v", err)
	}
}

func TestStoreGetUnknownHandle(t *testing.T) {
	_, store := newTestStore(t, false)

	if _, err := store.Get(context.Background(), "missing"); !errors.Is(err, redis.Nil) {
		t.Fatalf("expected redis.Nil, got %v", err)
	}
}

// A record whose absolute ExpiresAt has passed is treated as missing even if
// the Redis key is still alive.
func TestStoreGetEnforcesAbsoluteExpiry(t *testing.T) {
	mr, store := newTestStore(t, false)
	ctx := context.Background()

	now := time.Now()
	sess := &Session{
		SessionID:  "s1",
		Identifier: "alice",
		CreatedAt:  now.Add(-2 * time.Hour).Unix(),
		ExpiresAt:  now.Add(-time.Hour).Unix(),
	}
	if err := store.Save(ctx, sess, time.Hour); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	if _, err := store.Get(ctx, "s1"); !errors.Is(err, redis.Nil) {
		t.Fatalf("expired record: expected redis.Nil, got %v", err)
	}
	// The stale record is removed on the way out.
	if mr.Exists("ag:s1") {
		t.Fatal("stale record left behind")
	}
}

func TestStoreSlidingRenewsKeyTTL(t *testing.T) {
	mr, store := newTestStore(t, true)
	ctx := context.Background()

	now := time.Now()
	sess := &Session{
		SessionID:  "s1",
		Identifier: "alice",
		CreatedAt:  now.Unix(),
		ExpiresAt:  now.Add(time.Hour).Unix(),
	}
	if err := store.Save(ctx, sess, time.Minute); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	if _, err := store.Get(ctx, "s1"); err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	// The key TTL is pushed out toward the absolute expiry, past the
	// original one-minute Save TTL.
	if ttl := mr.TTL("ag:s1"); ttl <= time.Minute {
		t.Fatalf("key TTL = %v, want > 1m after sliding renewal", ttl)
	}
}

func TestStoreKeyExpiry(t *testing.T) {
	mr, store := newTestStore(t, false)
	ctx := context.Background()

	now := time.Now()
	sess := &Session{
		SessionID:  "s1",
		Identifier: "alice",
		CreatedAt:  now.Unix(),
		ExpiresAt:  now.Add(time.Hour).Unix(),
	}
	if err := store.Save(ctx, sess, time.Minute); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	mr.FastForward(2 * time.Minute)

	if _, err := store.Get(ctx, "s1"); !errors.Is(err, redis.Nil) {
		t.Fatalf("after key expiry: expected redis.Nil, got %v", err)
	}
}

func TestStoreReportsRedisUnavailable(t *testing.T) {
	mr, store := newTestStore(t, false)
	ctx := context.Background()

	mr.SetError("redis down")
	defer mr.SetError("")

	sess := &Session{SessionID: "s1", Identifier: "alice", ExpiresAt: time.Now().Add(time.Hour).Unix()}
	if err := store.Save(ctx, sess, time.Hour); !errors.Is(err, ErrRedisUnavailable) {
		t.Fatalf("Save: expected ErrRedisUnavailable, got %v", err)
	}
	if _, err := store.Get(ctx, "s1"); !errors.Is(err, ErrRedisUnavailable) {
		t.Fatalf("Get: expected ErrRedisUnavailable, got %v", err)
	}
	if err := store.Delete(ctx, "s1"); !errors.Is(err, ErrRedisUnavailable) {
		t.Fatalf("Delete: expected ErrRedisUnavailable, got %v", err)
	}
	if _, err := store.Ping(ctx); !errors.Is(err, ErrRedisUnavailable) {
		t.Fatalf("Ping: expected ErrRedisUnavailable, got %v", err)
	}
}
