package cache

import (
	"context"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Тесты кэша в памяти
// =============================================================================

func TestMemoryCache_GetMiss(t *testing.T) {
	c := NewMemory()

	entry, err := c.Get(context.Background(), "ST-404")

	require.NoError(t, err)
	assert.Nil(t, entry)
}

func TestMemoryCache_PutGet(t *testing.T) {
	c := NewMemory()
	ctx := context.Background()

	require.NoError(t, c.Put(ctx, "ST-1", Entry{ProductID: "prod-1", VariantID: "var-1"}))

	entry, err := c.Get(ctx, "ST-1")

	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, "prod-1", entry.ProductID)
	assert.Equal(t, "var-1", entry.VariantID)
}

func TestMemoryCache_PutOverwrites(t *testing.T) {
	c := NewMemory()
	ctx := context.Background()

	require.NoError(t, c.Put(ctx, "ST-1", Entry{ProductID: "prod-1", VariantID: "var-1"}))
	require.NoError(t, c.Put(ctx, "ST-1", Entry{ProductID: "prod-1", VariantID: "var-2"}))

	entry, err := c.Get(ctx, "ST-1")

	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, "var-2", entry.VariantID)
}

func TestMemoryCache_ConcurrentAccess(t *testing.T) {
	c := NewMemory()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = c.Put(ctx, "ST-1", Entry{ProductID: "prod-1", VariantID: "var-1"})
		}()
		go func() {
			defer wg.Done()
			_, _ = c.Get(ctx, "ST-1")
		}()
	}
	wg.Wait()
}

// =============================================================================
// Тесты кэша в Redis
// =============================================================================

func setupRedisCache(t *testing.T) (Materializations, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewRedis(client), mr
}

func TestRedisCache_GetMiss(t *testing.T) {
	c, _ := setupRedisCache(t)

	entry, err := c.Get(context.Background(), "ST-404")

	require.NoError(t, err)
	assert.Nil(t, entry)
}

func TestRedisCache_PutGet(t *testing.T) {
	c, mr := setupRedisCache(t)
	ctx := context.Background()

	require.NoError(t, c.Put(ctx, "ST-1", Entry{ProductID: "prod-1", VariantID: "var-1"}))

	entry, err := c.Get(ctx, "ST-1")

	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, "prod-1", entry.ProductID)
	assert.Equal(t, "var-1", entry.VariantID)

	// Записи без TTL
	assert.True(t, mr.Exists("materialization:ST-1"))
	assert.Equal(t, int64(0), int64(mr.TTL("materialization:ST-1")))
}

func TestRedisCache_CorruptedEntry(t *testing.T) {
	c, mr := setupRedisCache(t)

	mr.Set("materialization:ST-1", "не json")

	_, err := c.Get(context.Background(), "ST-1")

	require.Error(t, err)
}
