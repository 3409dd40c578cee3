package session

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrNotFound is returned when a session record does not exist (expired,
// logged out, or never issued).
var ErrNotFound = errors.New("session: not found")

const keyPrefix = "session:"

// Store holds live session records. Logout deletes the record, which
// invalidates the bearer token server-side before its JWT expiry.
type Store interface {
	Create(ctx context.Context, sessionID, identityID string, ttl time.Duration) error
	Get(ctx context.Context, sessionID string) (string, error)
	Delete(ctx context.Context, sessionID string) error
}

// RedisStore implements Store on Redis with per-record TTL.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore constructs the store.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Create(ctx context.Context, sessionID, identityID string, ttl time.Duration) error {
	return s.client.Set(ctx, keyPrefix+sessionID, identityID, ttl).Err()
}

func (s *RedisStore) Get(ctx context.Context, sessionID string) (string, error) {
	identityID, err := s.client.Get(ctx, keyPrefix+sessionID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrNotFound
		}
		return "", err
	}
	return identityID, nil
}

// Delete removes the session record. Deleting an absent record is not
// an error; logout is idempotent.
func (s *RedisStore) Delete(ctx context.Context, sessionID string) error {
	return s.client.Del(ctx, keyPrefix+sessionID).Err()
}
