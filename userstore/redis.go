package userstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/authgate/authgate"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	redisUserKeyPrefix  = ":user:"
	redisIndexKeyPrefix = ":ident:"
)

// Redis is a credential store backed by Redis. Records are stored as JSON
// under a per-user key; a separate identifier index key enforces uniqueness
// via SETNX. Suited to deployments that already run Redis for sessions and
// do not want a second datastore.
type Redis struct {
	client redis.UniversalClient
	prefix string
}

// NewRedis creates a store on client. prefix namespaces all keys, "agu" by
// default.
func NewRedis(client redis.UniversalClient, prefix string) *Redis {
	if prefix == "" {
		prefix = "agu"
	}
	return &Redis{client: client, prefix: prefix}
}

type redisUserRecord struct {
	UserID     string    `json:"user_id"`
	Identifier string    `json:"identifier"`
	SecretHash string    `json:"secret_hash"`
	SessionID  string    `json:"session_id,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

func (r *Redis) userKey(userID string) string {
	return r.prefix + redisUserKeyPrefix + userID
}

func (r *Redis) indexKey(identifier string) string {
	return r.prefix + redisIndexKeyPrefix + identifier
}

// FindByIdentifier resolves identifier through the index key and loads the
// record.
func (r *Redis) FindByIdentifier(ctx context.Context, identifier string) (authgate.UserRecord, error) {
	userID, err := r.client.Get(ctx, r.indexKey(identifier)).Result()
	if err != nil {
		if err == redis.Nil {
			return authgate.UserRecord{}, authgate.ErrUserNotFound
		}
		return authgate.UserRecord{}, fmt.Errorf("userstore: index lookup: %w", err)
	}

	raw, err := r.client.Get(ctx, r.userKey(userID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			// Dangling index entry; treat the account as gone.
			return authgate.UserRecord{}, authgate.ErrUserNotFound
		}
		return authgate.UserRecord{}, fmt.Errorf("userstore: record lookup: %w", err)
	}

	var rec redisUserRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return authgate.UserRecord{}, fmt.Errorf("userstore: corrupt record for %q: %w", userID, err)
	}

	return authgate.UserRecord{
		UserID:     rec.UserID,
		Identifier: rec.Identifier,
		SecretHash: rec.SecretHash,
		SessionID:  rec.SessionID,
		CreatedAt:  rec.CreatedAt,
	}, nil
}

// Create claims the identifier with SETNX and writes the record. A lost
// claim means the identifier is taken.
func (r *Redis) Create(ctx context.Context, input authgate.CreateUserInput) (authgate.UserRecord, error) {
	userID := uuid.NewString()

	claimed, err := r.client.SetNX(ctx, r.indexKey(input.Identifier), userID, 0).Result()
	if err != nil {
		return authgate.UserRecord{}, fmt.Errorf("userstore: claim identifier: %w", err)
	}
	if !claimed {
		return authgate.UserRecord{}, authgate.ErrAccountExists
	}

	user := authgate.UserRecord{
		UserID:     userID,
		Identifier: input.Identifier,
		SecretHash: input.SecretHash,
		CreatedAt:  time.Now(),
	}
	if err := r.writeRecord(ctx, user); err != nil {
		// Release the claim so a retry is possible.
		_ = r.client.Del(ctx, r.indexKey(input.Identifier)).Err()
		return authgate.UserRecord{}, err
	}
	return user, nil
}

// Save overwrites the record. The identifier index is immutable after
// Create, so only the record key is touched.
func (r *Redis) Save(ctx context.Context, user authgate.UserRecord) error {
	exists, err := r.client.Exists(ctx, r.userKey(user.UserID)).Result()
	if err != nil {
		return fmt.Errorf("userstore: existence check: %w", err)
	}
	if exists == 0 {
		return authgate.ErrUserNotFound
	}
	return r.writeRecord(ctx, user)
}

func (r *Redis) writeRecord(ctx context.Context, user authgate.UserRecord) error {
	raw, err := json.Marshal(redisUserRecord{
		UserID:     user.UserID,
		Identifier: user.Identifier,
		SecretHash: user.SecretHash,
		SessionID:  user.SessionID,
		CreatedAt:  user.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("userstore: encode record: %w", err)
	}
	if err := r.client.Set(ctx, r.userKey(user.UserID), raw, 0).Err(); err != nil {
		return fmt.Errorf("userstore: write record: %w", err)
	}
	return nil
}
