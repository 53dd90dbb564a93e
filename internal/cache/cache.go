package cache

import (
	"context"
	"crypto/md5"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pep299/trends-dashboard/internal/query"
	"github.com/pep299/trends-dashboard/internal/trend"
)

// Cache interface defines cache operations
type Cache interface {
	Get(ctx context.Context, key string) (*CacheEntry, error)
	Set(ctx context.Context, key string, entry *CacheEntry) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	Clear(ctx context.Context) error
	GetStats(ctx context.Context) (*Stats, error)
	Close() error
}

// CacheEntry is a fetched trends table together with the query that produced it
type CacheEntry struct {
	Key         string       `json:"key"`
	Query       query.Query  `json:"query"`
	Table       *trend.Table `json:"table"`
	CreatedAt   time.Time    `json:"created_at"`
	ExpiresAt   time.Time    `json:"expires_at"`
	AccessedAt  time.Time    `json:"accessed_at"`
	AccessCount int          `json:"access_count"`
}

// Stats represents cache statistics
type Stats struct {
	Type           string        `json:"type"`
	TotalEntries   int           `json:"total_entries"`
	HitCount       int64         `json:"hit_count"`
	MissCount      int64         `json:"miss_count"`
	HitRate        float64       `json:"hit_rate"`
	MemoryUsage    int64         `json:"memory_usage_bytes"`
	OldestEntry    time.Time     `json:"oldest_entry"`
	AverageAge     time.Duration `json:"average_age"`
	ExpiredEntries int           `json:"expired_entries"`
}

// Common cache errors
var (
	ErrCacheMiss = errors.New("cache miss")
)

// Backend names accepted by NewManager
const (
	TypeNone         = "none"
	TypeMemory       = "memory"
	TypeCloudStorage = "cloud-storage"
	TypeRedis        = "redis"
)

// Options selects and configures a backend
type Options struct {
	Type     string
	Duration time.Duration
	Bucket   string
	RedisURL string
}

// Manager handles cache operations with convenience methods
type Manager struct {
	cache     Cache
	cacheType string
}

// NewManager creates a new cache manager. TypeNone disables caching: lookups
// always miss and stores are dropped.
func NewManager(ctx context.Context, opts Options) (*Manager, error) {
	var (
		c   Cache
		err error
	)

	switch opts.Type {
	case TypeNone:
	case TypeMemory, "":
		opts.Type = TypeMemory
		c = NewMemoryCache(opts.Duration)
	case TypeCloudStorage:
		c, err = NewCloudStorageCache(ctx, opts.Bucket, opts.Duration)
	case TypeRedis:
		c, err = DialRedis(ctx, opts.RedisURL, opts.Duration)
	default:
		return nil, fmt.Errorf("unsupported cache type: %s", opts.Type)
	}
	if err != nil {
		return nil, err
	}

	return &Manager{cache: c, cacheType: opts.Type}, nil
}

// NewManagerWith wraps an existing backend
func NewManagerWith(c Cache, cacheType string) *Manager {
	return &Manager{cache: c, cacheType: cacheType}
}

// Enabled reports whether a backend is configured
func (m *Manager) Enabled() bool {
	return m != nil && m.cache != nil
}

// GetTable retrieves the cached table for q
func (m *Manager) GetTable(ctx context.Context, q query.Query) (*trend.Table, error) {
	if !m.Enabled() {
		return nil, ErrCacheMiss
	}
	entry, err := m.cache.Get(ctx, GenerateKey(q))
	if err != nil {
		return nil, err
	}
	if err := entry.Table.Validate(); err != nil {
		return nil, fmt.Errorf("cached table for %s: %w", entry.Key, err)
	}
	return entry.Table, nil
}

// SetTable caches the table fetched for q
func (m *Manager) SetTable(ctx context.Context, q query.Query, t *trend.Table) error {
	if !m.Enabled() {
		return nil
	}
	return m.cache.Set(ctx, GenerateKey(q), &CacheEntry{Query: q, Table: t})
}

// GetStats returns cache statistics
func (m *Manager) GetStats(ctx context.Context) (*Stats, error) {
	if !m.Enabled() {
		return &Stats{Type: TypeNone}, nil
	}
	stats, err := m.cache.GetStats(ctx)
	if err != nil {
		return nil, err
	}
	stats.Type = m.cacheType
	return stats, nil
}

// Clear clears all cached entries
func (m *Manager) Clear(ctx context.Context) error {
	if !m.Enabled() {
		return nil
	}
	return m.cache.Clear(ctx)
}

// Close releases the backend
func (m *Manager) Close() error {
	if !m.Enabled() {
		return nil
	}
	return m.cache.Close()
}

// GenerateKey derives a stable key from region, timeframe and the ordered
// keyword list. Keyword order matters since it fixes the column order.
func GenerateKey(q query.Query) string {
	identifier := strings.Join([]string{
		string(q.Region),
		q.Range.Timeframe(),
		strings.Join(q.Keywords, "\x1f"),
	}, "|")

	hash := md5.Sum([]byte(identifier))
	return fmt.Sprintf("trends:%x", hash)
}

func hitRate(hits, misses int64) float64 {
	if hits+misses == 0 {
		return 0
	}
	return float64(hits) / float64(hits+misses)
}
