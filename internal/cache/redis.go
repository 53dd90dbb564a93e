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

const redisPrefix = "trends-dashboard:cache:"

// RedisCache implements cache on Redis; expiry is delegated to key TTLs
type RedisCache struct {
	client    *redis.Client
	duration  time.Duration
	hitCount  atomic.Int64
	missCount atomic.Int64
}

// DialRedis connects to url (redis:// or rediss://) and pings it
func DialRedis(ctx context.Context, url string, duration time.Duration) (*RedisCache, error) {
	if url == "" {
		return nil, errors.New("redis cache requires REDIS_URL")
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}
	return NewRedisCache(client, duration), nil
}

// NewRedisCache wraps an existing client
func NewRedisCache(client *redis.Client, duration time.Duration) *RedisCache {
	return &RedisCache{client: client, duration: duration}
}

// Get retrieves an entry from Redis
func (c *RedisCache) Get(ctx context.Context, key string) (*CacheEntry, error) {
	data, err := c.client.Get(ctx, redisPrefix+key).Bytes()
	if err == redis.Nil {
		c.missCount.Add(1)
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}

	var entry CacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("unmarshaling cache entry: %w", err)
	}
	c.hitCount.Add(1)

	entry.AccessedAt = time.Now()
	entry.AccessCount++
	return &entry, nil
}

// Set stores an entry in Redis with the cache duration as TTL
func (c *RedisCache) Set(ctx context.Context, key string, entry *CacheEntry) error {
	now := time.Now()
	entry.Key = key
	entry.CreatedAt = now
	entry.ExpiresAt = now.Add(c.duration)
	entry.AccessedAt = now

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshaling cache entry: %w", err)
	}
	if err := c.client.Set(ctx, redisPrefix+key, data, c.duration).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Delete removes an entry from Redis
func (c *RedisCache) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, redisPrefix+key).Err()
}

// Exists checks if an entry exists in Redis
func (c *RedisCache) Exists(ctx context.Context, key string) (bool, error) {
	n, err := c.client.Exists(ctx, redisPrefix+key).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Clear removes every key under the cache prefix
func (c *RedisCache) Clear(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, redisPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("deleting %s: %w", iter.Val(), err)
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("scanning keys: %w", err)
	}
	c.hitCount.Store(0)
	c.missCount.Store(0)
	return nil
}

// GetStats returns cache statistics for Redis
func (c *RedisCache) GetStats(ctx context.Context) (*Stats, error) {
	hits, misses := c.hitCount.Load(), c.missCount.Load()
	stats := &Stats{
		HitCount:  hits,
		MissCount: misses,
		HitRate:   hitRate(hits, misses),
	}

	iter := c.client.Scan(ctx, 0, redisPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		stats.TotalEntries++
		size, err := c.client.StrLen(ctx, iter.Val()).Result()
		if err == nil {
			stats.MemoryUsage += size
		}
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("scanning keys: %w", err)
	}
	return stats, nil
}

// Close closes the Redis client
func (c *RedisCache) Close() error {
	return c.client.Close()
}
