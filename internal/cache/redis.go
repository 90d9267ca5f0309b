package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore shares cached payloads across instances through Redis. Values
// are JSON-encoded; TTL enforcement is delegated to Redis itself. Hit/miss
// counters are process-local, which is all the stats endpoint needs.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	hits   atomic.Int64
	misses atomic.Int64
}

func NewRedisStore(ctx context.Context, addr, password string, db int, prefix string, ttl time.Duration) (*RedisStore, error) {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	return &RedisStore{client: client, prefix: prefix, ttl: ttl}, nil
}

// GetJSON fetches and decodes a cached value into out. A missing or expired
// key is a miss, not an error.
func (s *RedisStore) GetJSON(ctx context.Context, key string, out any) (bool, error) {
	data, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		s.misses.Add(1)
		return false, nil
	}
	if err != nil {
		s.misses.Add(1)
		return false, fmt.Errorf("redis get: %w", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		// A corrupt payload behaves as a miss; drop it so it is not served again.
		_ = s.client.Del(ctx, s.prefix+key).Err()
		s.misses.Add(1)
		return false, nil
	}
	s.hits.Add(1)
	return true, nil
}

func (s *RedisStore) SetJSON(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("redis set encode: %w", err)
	}
	if err := s.client.Set(ctx, s.prefix+key, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (s *RedisStore) Invalidate(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.prefix+key).Err()
}

func (s *RedisStore) Stats(ctx context.Context) Stats {
	st := Stats{Hits: s.hits.Load(), Misses: s.misses.Load()}
	if total := st.Hits + st.Misses; total > 0 {
		st.HitRate = float64(st.Hits) / float64(total)
	}
	keys, err := s.client.Keys(ctx, s.prefix+"*").Result()
	if err == nil {
		st.Size = len(keys)
	}
	return st
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
