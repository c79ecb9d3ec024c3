package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrRedisUnavailable wraps transport failures against Redis. A missing
// session is reported as [redis.Nil], never as this error.
var ErrRedisUnavailable = errors.New("redis unavailable")

const minSlidingTTL = time.Second

// Store persists sessions in Redis under a configurable key prefix. The
// expiry policy is explicit: every Save carries its TTL, and Get enforces
// the record's absolute ExpiresAt independently of the Redis key TTL.
type Store struct {
	redis   redis.UniversalClient
	prefix  string
	sliding bool
}

// NewStore creates a session [Store]. When sliding is true, each successful
// Get renews the Redis key TTL up to the record's absolute expiry.
func NewStore(redisClient redis.UniversalClient, prefix string, sliding bool) *Store {
	return &Store{
		redis:   redisClient,
		prefix:  prefix,
		sliding: sliding,
	}
}

func (s *Store) key(sessionID string) string {
	return s.prefix + ":" + sessionID
}

// Save persists a [Session] with the given TTL, overwriting any prior record
// under the same handle.
//
//	Performance: 1 Redis SET.
func (s *Store) Save(ctx context.Context, sess *Session, ttl time.Duration) error {
	data, err := Encode(sess)
	if err != nil {
		return err
	}

	if err := s.redis.Set(ctx, s.key(sess.SessionID), data, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	return nil
}

// Get retrieves a session by handle. Returns [redis.Nil] when the handle is
// unknown or the record's absolute expiry has passed (the stale record is
// deleted on the way out).
//
//	Performance: 1 Redis GET, +1 EXPIRE when sliding.
func (s *Store) Get(ctx context.Context, sessionID string) (*Session, error) {
	key := s.key(sessionID)

	data, err := s.redis.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	sess, err := Decode(data)
	if err != nil {
		return nil, err
	}
	sess.SessionID = sessionID

	remaining := time.Until(time.Unix(sess.ExpiresAt, 0))
	if remaining <= 0 {
		if err := s.Delete(ctx, sessionID); err != nil {
			return nil, err
		}
		return nil, redis.Nil
	}

	if s.sliding {
		next := remaining
		if next < minSlidingTTL {
			next = minSlidingTTL
		}
		if err := s.redis.Expire(ctx, key, next).Err(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
	}

	return sess, nil
}

// Delete removes a session. Deleting a handle that does not exist is
// success: logout and supersede paths are idempotent.
//
//	Performance: 1 Redis DEL.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	if err := s.redis.Del(ctx, s.key(sessionID)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// Ping verifies Redis connectivity and reports the round-trip time.
func (s *Store) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return time.Since(start), nil
}
