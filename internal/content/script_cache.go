package content

import (
	"context"
	"log"
	"time"

	"github.com/lumenlearn/tutorcore/internal/cache"
)

// ScriptCache is the orchestrator's view of the cache tier. The in-memory
// implementation is the default; the Redis one is used when instances
// share a cache.
type ScriptCache interface {
	Get(ctx context.Context, key string) (Script, bool)
	Set(ctx context.Context, key string, s Script)
	Invalidate(ctx context.Context, key string)
	Stats(ctx context.Context) cache.Stats
}

type memoryScriptCache struct {
	store *cache.Store[Script]
}

func NewMemoryScriptCache(ttl time.Duration, maxSize int) ScriptCache {
	return &memoryScriptCache{store: cache.NewStore[Script](ttl, maxSize)}
}

func (c *memoryScriptCache) Get(_ context.Context, key string) (Script, bool) {
	return c.store.Get(key)
}

func (c *memoryScriptCache) Set(_ context.Context, key string, s Script) {
	c.store.Set(key, s)
}

func (c *memoryScriptCache) Invalidate(_ context.Context, key string) {
	c.store.Invalidate(key)
}

func (c *memoryScriptCache) Stats(_ context.Context) cache.Stats {
	return c.store.Stats()
}

type redisScriptCache struct {
	store *cache.RedisStore
}

// NewRedisScriptCache wraps a connected Redis store. Redis failures degrade
// to cache misses; generation proceeds either way.
func NewRedisScriptCache(store *cache.RedisStore) ScriptCache {
	return &redisScriptCache{store: store}
}

func (c *redisScriptCache) Get(ctx context.Context, key string) (Script, bool) {
	var s Script
	ok, err := c.store.GetJSON(ctx, key, &s)
	if err != nil {
		log.Printf("script cache get failed: %v", err)
		return Script{}, false
	}
	return s, ok
}

func (c *redisScriptCache) Set(ctx context.Context, key string, s Script) {
	if err := c.store.SetJSON(ctx, key, s); err != nil {
		log.Printf("script cache set failed: %v", err)
	}
}

func (c *redisScriptCache) Invalidate(ctx context.Context, key string) {
	if err := c.store.Invalidate(ctx, key); err != nil {
		log.Printf("script cache invalidate failed: %v", err)
	}
}

func (c *redisScriptCache) Stats(ctx context.Context) cache.Stats {
	return c.store.Stats(ctx)
}
