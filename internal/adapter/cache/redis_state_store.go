package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/GeonSoon1/moonshot-myself/internal/repository"
)

// RedisStateStore implements OAuthStateStore backed by Redis.
type RedisStateStore struct {
	client redis.UniversalClient
}

var _ repository.OAuthStateStore = (*RedisStateStore)(nil)

// NewRedisStateStore constructs a Redis-backed state store.
func NewRedisStateStore(client redis.UniversalClient) *RedisStateStore {
	return &RedisStateStore{client: client}
}

// SaveState stores the nonce under the state key with TTL.
func (s *RedisStateStore) SaveState(ctx context.Context, state, nonce string, ttl time.Duration) error {
	if err := s.client.Set(ctx, stateKey(state), nonce, ttl).Err(); err != nil {
		return fmt.Errorf("persist state: %w", err)
	}
	return nil
}

// ConsumeState loads the nonce and removes the key in one round trip.
func (s *RedisStateStore) ConsumeState(ctx context.Context, state string) (string, error) {
	nonce, err := s.client.GetDel(ctx, stateKey(state)).Result()
	if err != nil {
		if err == redis.Nil {
			return "", nil
		}
		return "", fmt.Errorf("load state: %w", err)
	}
	return nonce, nil
}

func stateKey(state string) string {
	return "oauth:state:" + state
}
