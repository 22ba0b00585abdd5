package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/JulianoL13/tube-summary-engine/internal/proxy"
	"github.com/redis/go-redis/v9"
)

const defaultRedisKey = "proxypool:fallback"

// RedisStore keeps the fallback pool under a single key whose TTL
// tracks the pool's remaining lifetime, so stale generations age out of
// redis on their own.
type RedisStore struct {
	client *redis.Client
	key    string
	now    func() time.Time
}

func NewRedisStore(client *redis.Client, key string) *RedisStore {
	if key == "" {
		key = defaultRedisKey
	}
	return &RedisStore{
		client: client,
		key:    key,
		now:    time.Now,
	}
}

func (s *RedisStore) WithClock(now func() time.Time) *RedisStore {
	s.now = now
	return s
}

func (s *RedisStore) Load(ctx context.Context) (*proxy.Pool, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("%w: key %s", ErrNotFound, s.key)
		}
		return nil, fmt.Errorf("load pool from redis: %w", err)
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: corrupt value at %s", ErrNotFound, s.key)
	}

	return decode(doc), nil
}

func (s *RedisStore) Save(ctx context.Context, pool *proxy.Pool) error {
	data, err := json.Marshal(encode(pool))
	if err != nil {
		return fmt.Errorf("marshal pool: %w", err)
	}

	ttl := pool.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		ttl = time.Minute
	}

	if err := s.client.Set(ctx, s.key, data, ttl).Err(); err != nil {
		return fmt.Errorf("save pool to redis: %w", err)
	}
	return nil
}
