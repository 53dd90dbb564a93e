package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/pep299/trends-dashboard/internal/query"
	"github.com/pep299/trends-dashboard/internal/trend"
)

func testQuery(keywords ...string) query.Query {
	return query.Query{
		Keywords: keywords,
		Region:   query.RegionChile,
		Range: query.Range{
			Start: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			End:   time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		},
	}
}

func testTable(t *testing.T) *trend.Table {
	t.Helper()
	start := time.Date(2024, 1, 7, 0, 0, 0, 0, time.UTC)
	table, err := trend.NewTable(
		[]time.Time{start, start.AddDate(0, 0, 7)},
		[]string{"a", "b"},
		[][]float64{{10, 20}, {5, 0}},
		[]bool{false, true},
	)
	if err != nil {
		t.Fatalf("NewTable failed: %v", err)
	}
	return table
}

func newRedisCache(t *testing.T, duration time.Duration) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	c := NewRedisCache(redis.NewClient(&redis.Options{Addr: mr.Addr()}), duration)
	t.Cleanup(func() { c.Close() })
	return c, mr
}

// exerciseCache runs the behaviour every backend must share.
func exerciseCache(t *testing.T, c Cache) {
	ctx := context.Background()
	entry := &CacheEntry{Query: testQuery("a", "b"), Table: testTable(t)}

	if err := c.Set(ctx, "test-key", entry); err != nil {
		t.Fatalf("Failed to set cache entry: %v", err)
	}

	retrieved, err := c.Get(ctx, "test-key")
	if err != nil {
		t.Fatalf("Failed to get cache entry: %v", err)
	}
	if retrieved.Key != "test-key" {
		t.Errorf("Expected key 'test-key', got '%s'", retrieved.Key)
	}
	if retrieved.Table.Len() != 2 || retrieved.Table.Keywords[1] != "b" {
		t.Errorf("Unexpected table %+v", retrieved.Table)
	}
	if !retrieved.Table.IsPartial(1) {
		t.Error("Expected partial flag to survive caching")
	}
	if retrieved.AccessCount != 1 {
		t.Errorf("Expected access count 1, got %d", retrieved.AccessCount)
	}

	exists, err := c.Exists(ctx, "test-key")
	if err != nil || !exists {
		t.Errorf("Expected key to exist, got %v (%v)", exists, err)
	}
	exists, err = c.Exists(ctx, "non-existent")
	if err != nil || exists {
		t.Errorf("Expected key to not exist, got %v (%v)", exists, err)
	}

	if _, err := c.Get(ctx, "non-existent"); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Expected ErrCacheMiss, got %v", err)
	}

	stats, err := c.GetStats(ctx)
	if err != nil {
		t.Fatalf("Failed to get stats: %v", err)
	}
	if stats.TotalEntries != 1 {
		t.Errorf("Expected 1 entry, got %d", stats.TotalEntries)
	}
	if stats.HitCount != 1 || stats.MissCount != 1 {
		t.Errorf("Expected 1 hit and 1 miss, got %d and %d", stats.HitCount, stats.MissCount)
	}
	if stats.HitRate != 0.5 {
		t.Errorf("Expected hit rate 0.5, got %f", stats.HitRate)
	}

	if err := c.Delete(ctx, "test-key"); err != nil {
		t.Fatalf("Failed to delete: %v", err)
	}
	if _, err := c.Get(ctx, "test-key"); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Expected ErrCacheMiss after delete, got %v", err)
	}

	for _, key := range []string{"k1", "k2"} {
		if err := c.Set(ctx, key, &CacheEntry{Table: testTable(t)}); err != nil {
			t.Fatalf("Failed to set %s: %v", key, err)
		}
	}
	if err := c.Clear(ctx); err != nil {
		t.Fatalf("Failed to clear: %v", err)
	}
	stats, _ = c.GetStats(ctx)
	if stats.TotalEntries != 0 {
		t.Errorf("Expected 0 entries after clear, got %d", stats.TotalEntries)
	}
}

func TestMemoryCache(t *testing.T) {
	exerciseCache(t, NewMemoryCache(time.Hour))
}

func TestRedisCache(t *testing.T) {
	c, _ := newRedisCache(t, time.Hour)
	exerciseCache(t, c)
}

func TestMemoryCacheExpiration(t *testing.T) {
	c := NewMemoryCache(50 * time.Millisecond)
	ctx := context.Background()

	if err := c.Set(ctx, "k", &CacheEntry{Table: testTable(t)}); err != nil {
		t.Fatalf("Failed to set: %v", err)
	}
	time.Sleep(100 * time.Millisecond)

	if _, err := c.Get(ctx, "k"); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Expected ErrCacheMiss for expired entry, got %v", err)
	}
}

func TestRedisCacheExpiration(t *testing.T) {
	c, mr := newRedisCache(t, time.Minute)
	ctx := context.Background()

	if err := c.Set(ctx, "k", &CacheEntry{Table: testTable(t)}); err != nil {
		t.Fatalf("Failed to set: %v", err)
	}
	mr.FastForward(2 * time.Minute)

	if _, err := c.Get(ctx, "k"); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Expected ErrCacheMiss for expired entry, got %v", err)
	}
}

func TestManagerTables(t *testing.T) {
	ctx := context.Background()
	m := NewManagerWith(NewMemoryCache(time.Hour), TypeMemory)
	q := testQuery("a", "b")

	if _, err := m.GetTable(ctx, q); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("Expected miss before set, got %v", err)
	}
	if err := m.SetTable(ctx, q, testTable(t)); err != nil {
		t.Fatalf("SetTable failed: %v", err)
	}

	table, err := m.GetTable(ctx, q)
	if err != nil {
		t.Fatalf("GetTable failed: %v", err)
	}
	if table.Len() != 2 {
		t.Errorf("Expected 2 rows, got %d", table.Len())
	}

	if _, err := m.GetTable(ctx, testQuery("b", "a")); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Expected reordered keywords to miss, got %v", err)
	}

	stats, err := m.GetStats(ctx)
	if err != nil {
		t.Fatalf("GetStats failed: %v", err)
	}
	if stats.Type != TypeMemory {
		t.Errorf("Expected type '%s', got '%s'", TypeMemory, stats.Type)
	}
}

func TestManagerDisabled(t *testing.T) {
	ctx := context.Background()
	m, err := NewManager(ctx, Options{Type: TypeNone})
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	if m.Enabled() {
		t.Error("Expected disabled manager")
	}
	if err := m.SetTable(ctx, testQuery("a"), testTable(t)); err != nil {
		t.Errorf("Expected SetTable to be a no-op, got %v", err)
	}
	if _, err := m.GetTable(ctx, testQuery("a")); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Expected ErrCacheMiss, got %v", err)
	}
	if err := m.Close(); err != nil {
		t.Errorf("Expected Close to succeed, got %v", err)
	}
}

func TestNewManagerErrors(t *testing.T) {
	ctx := context.Background()
	if _, err := NewManager(ctx, Options{Type: "memcached"}); err == nil {
		t.Error("Expected error for unsupported cache type")
	}
	if _, err := NewManager(ctx, Options{Type: TypeRedis}); err == nil {
		t.Error("Expected error for redis without URL")
	}
}

func TestGenerateKey(t *testing.T) {
	q := testQuery("iPhone 14", "Nokia 3310")
	key := GenerateKey(q)

	if key != GenerateKey(q) {
		t.Error("Expected same key for same query")
	}
	if len(key) != len("trends:")+32 {
		t.Errorf("Expected md5 key, got '%s'", key)
	}

	other := q
	other.Region = query.RegionMexico
	if GenerateKey(other) == key {
		t.Error("Expected different key for different region")
	}

	joined := testQuery("iPhone 14,Nokia 3310")
	if GenerateKey(joined) == key {
		t.Error("Expected keyword boundaries to affect the key")
	}
}
