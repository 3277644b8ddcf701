package auth

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/workzen-hq/workzen/internal/shared"
)

// RedisTokenStore persists grants in Redis. Redis expiry handles reclamation
// of dead records, so no background sweep is required.
type RedisTokenStore struct {
	client *redis.Client
}

// NewRedisTokenStore constructs a RedisTokenStore.
func NewRedisTokenStore(client *redis.Client) *RedisTokenStore {
	return &RedisTokenStore{client: client}
}

// Save stores the grant under the derived key for the retention window.
func (s *RedisTokenStore) Save(ctx context.Context, key string, grant Grant, retain time.Duration) error {
	payload, err := json.Marshal(grant)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.redisKey(key), payload, retain).Err()
}

// Get fetches a grant, returning shared.ErrTokenInvalid on a miss.
func (s *RedisTokenStore) Get(ctx context.Context, key string) (*Grant, error) {
	payload, err := s.client.Get(ctx, s.redisKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, shared.ErrTokenInvalid
		}
		return nil, err
	}
	var grant Grant
	if err := json.Unmarshal(payload, &grant); err != nil {
		return nil, shared.ErrTokenInvalid
	}
	return &grant, nil
}

// Delete removes a grant. Deleting an absent key is not an error.
func (s *RedisTokenStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.redisKey(key)).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	return nil
}

func (s *RedisTokenStore) redisKey(key string) string {
	return "token:" + key
}

var _ TokenStore = (*RedisTokenStore)(nil)
