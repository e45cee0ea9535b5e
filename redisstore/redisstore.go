// Package redisstore provides a redis session storage implementation.
//
// RedisStore allows storing, retrieving, and deleting session-like
// data keyed by a string token. Expiration is delegated to redis key TTLs,
// so no periodic cleanup is needed.
package redisstore

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/bluescreen10/voxara/session"
)

var _ session.CtxStore = (*RedisStore)(nil)

const defaultPrefix = "session:"

// RedisStore is a redis backed storage for session-like data.
type RedisStore struct {
	rdb    redis.UniversalClient
	prefix string
}

type config func(*RedisStore)

// WithPrefix sets the prefix prepended to every key. (default "session:")
func WithPrefix(prefix string) config {
	return config(func(s *RedisStore) {
		s.prefix = prefix
	})
}

// New creates and returns a new RedisStore instance.
func New(rdb redis.UniversalClient, cfgs ...config) *RedisStore {
	s := &RedisStore{rdb: rdb, prefix: defaultPrefix}
	for _, cfg := range cfgs {
		cfg(s)
	}
	return s
}

// Get retrieves the data associated with the given token. Returns
// the data, a boolean indicating whether the token was found and
// not expired, and an error.
func (s *RedisStore) Get(token string) ([]byte, bool, error) {
	return s.GetCtx(context.Background(), token)
}

// Set stores the data under the given token with an expiration time. If
// a record with the same token already exists, it is overwritten.
func (s *RedisStore) Set(token string, data []byte, expiresAt time.Time) error {
	return s.SetCtx(context.Background(), token, data, expiresAt)
}

// Delete removes the data associated with the given token. If the token
// does not exist, this is a no-op.
func (s *RedisStore) Delete(token string) error {
	return s.DeleteCtx(context.Background(), token)
}

func (s *RedisStore) GetCtx(ctx context.Context, token string) ([]byte, bool, error) {
	data, err := s.rdb.Get(ctx, s.prefix+token).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []byte{}, false, nil
		}
		return []byte{}, false, err
	}

	return data, true, nil
}

// SetCtx stores data with a TTL derived from expiresAt. A record already past
// its expiry is deleted instead: a zero TTL means no expiry to redis.
func (s *RedisStore) SetCtx(ctx context.Context, token string, data []byte, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return s.DeleteCtx(ctx, token)
	}
	return s.rdb.Set(ctx, s.prefix+token, data, ttl).Err()
}

func (s *RedisStore) DeleteCtx(ctx context.Context, token string) error {
	return s.rdb.Del(ctx, s.prefix+token).Err()
}
