package cache

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryCache implements in-memory cache on top of go-cache
type MemoryCache struct {
	items     *gocache.Cache
	duration  time.Duration
	hitCount  atomic.Int64
	missCount atomic.Int64
}

// NewMemoryCache creates a new in-memory cache
func NewMemoryCache(duration time.Duration) *MemoryCache {
	cleanup := 10 * time.Minute
	if duration < cleanup {
		cleanup = duration
	}
	return &MemoryCache{
		items:    gocache.New(duration, cleanup),
		duration: duration,
	}
}

// Get retrieves an entry from cache
func (c *MemoryCache) Get(ctx context.Context, key string) (*CacheEntry, error) {
	v, found := c.items.Get(key)
	if !found {
		c.missCount.Add(1)
		return nil, ErrCacheMiss
	}
	c.hitCount.Add(1)

	entry := *v.(*CacheEntry)
	entry.AccessedAt = time.Now()
	entry.AccessCount++
	return &entry, nil
}

// Set stores an entry in cache
func (c *MemoryCache) Set(ctx context.Context, key string, entry *CacheEntry) error {
	now := time.Now()
	stored := *entry
	stored.Key = key
	stored.CreatedAt = now
	stored.ExpiresAt = now.Add(c.duration)
	stored.AccessedAt = now
	stored.AccessCount = 0

	c.items.Set(key, &stored, c.duration)
	return nil
}

// Delete removes an entry from cache
func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	c.items.Delete(key)
	return nil
}

// Exists checks if an entry exists in cache
func (c *MemoryCache) Exists(ctx context.Context, key string) (bool, error) {
	_, found := c.items.Get(key)
	return found, nil
}

// Clear removes all entries from cache
func (c *MemoryCache) Clear(ctx context.Context) error {
	c.items.Flush()
	c.hitCount.Store(0)
	c.missCount.Store(0)
	return nil
}

// GetStats returns cache statistics
func (c *MemoryCache) GetStats(ctx context.Context) (*Stats, error) {
	hits, misses := c.hitCount.Load(), c.missCount.Load()
	stats := &Stats{
		HitCount:  hits,
		MissCount: misses,
		HitRate:   hitRate(hits, misses),
	}

	var totalAge time.Duration
	now := time.Now()
	items := c.items.Items()
	for _, item := range items {
		entry := item.Object.(*CacheEntry)
		stats.TotalEntries++

		// Rough size estimate
		data, _ := json.Marshal(entry)
		stats.MemoryUsage += int64(len(data))

		if stats.OldestEntry.IsZero() || entry.CreatedAt.Before(stats.OldestEntry) {
			stats.OldestEntry = entry.CreatedAt
		}
		totalAge += now.Sub(entry.CreatedAt)
	}

	if stats.TotalEntries > 0 {
		stats.AverageAge = totalAge / time.Duration(stats.TotalEntries)
	}
	return stats, nil
}

// Close is a no-op; go-cache stops its janitor when collected
func (c *MemoryCache) Close() error {
	return nil
}
