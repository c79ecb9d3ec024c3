package userstore

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/authgate/authgate"
	"github.com/redis/go-redis/v9"
)

func newTestRedisStore(t *testing.T) (*Redis, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewRedis(client, "agu"), mr
}

func TestRedis_CreateAndFind(t *testing.T) {
	store, _ := newTestRedisStore(t)
	ctx := context.Background()

	created, err := store.Create(ctx, authgate.CreateUserInput{
		Identifier: "trinity@example.com",
		SecretHash: "$argon2id$hash",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	found, err := store.FindByIdentifier(ctx, "trinity@example.com")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if found.UserID != created.UserID {
		t.Fatalf("user id mismatch: %q vs %q", found.UserID, created.UserID)
	}
	if found.SecretHash != "$argon2id$hash" {
		t.Fatalf("hash mismatch: %q", found.SecretHash)
	}
}

func TestRedis_DuplicateIdentifier(t *testing.T) {
	store, _ := newTestRedisStore(t)
	ctx := context.Background()

	if _, err := store.Create(ctx, authgate.CreateUserInput{Identifier: "a", SecretHash: "h1"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	_, err := store.Create(ctx, authgate.CreateUserInput{Identifier: "a", SecretHash: "h2"})
	if !errors.Is(err, authgate.ErrAccountExists) {
		t.Fatalf("expected ErrAccountExists, got %v", err)
	}

	found, err := store.FindByIdentifier(ctx, "a")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if found.SecretHash != "h1" {
		t.Fatalf("original hash overwritten: %q", found.SecretHash)
	}
}

func TestRedis_FindUnknown(t *testing.T) {
	store, _ := newTestRedisStore(t)

	_, err := store.FindByIdentifier(context.Background(), "nobody")
	if !errors.Is(err, authgate.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestRedis_SaveRoundTrip(t *testing.T) {
	store, _ := newTestRedisStore(t)
	ctx := context.Background()

	user, err := store.Create(ctx, authgate.CreateUserInput{Identifier: "a", SecretHash: "h1"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	user.SecretHash = "h2"
	user.SessionID = "sid-1"
	if err := store.Save(ctx, user); err != nil {
		t.Fatalf("save: %v", err)
	}

	found, err := store.FindByIdentifier(ctx, "a")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if found.SecretHash != "h2" || found.SessionID != "sid-1" {
		t.Fatalf("save not applied: %+v", found)
	}
}

func TestRedis_SaveUnknownUser(t *testing.T) {
	store, _ := newTestRedisStore(t)

	err := store.Save(context.Background(), authgate.UserRecord{
		UserID:     "no-such-id",
		Identifier: "ghost",
	})
	if !errors.Is(err, authgate.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestRedis_DanglingIndexTreatedAsMissing(t *testing.T) {
	store, mr := newTestRedisStore(t)
	ctx := context.Background()

	user, err := store.Create(ctx, authgate.CreateUserInput{Identifier: "a", SecretHash: "h1"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	mr.Del("agu:user:" + user.UserID)

	_, err = store.FindByIdentifier(ctx, "a")
	if !errors.Is(err, authgate.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound for dangling index, got %v", err)
	}
}
