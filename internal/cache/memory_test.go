package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCacheGetSet(t *testing.T) {
	c := NewMemoryCache(10)
	defer c.Close()
	ctx := context.Background()

	_, found, err := c.Get(ctx, "analysis:descriptive:abc")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, c.Set(ctx, "analysis:descriptive:abc", []byte(`{"rows":3}`), time.Minute))

	value, found, err := c.Get(ctx, "analysis:descriptive:abc")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []byte(`{"rows":3}`), value)

	stats := c.Stats()
	assert.Equal(t, "memory", stats.Backend)
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, 0.5, stats.Ratio)
}

func TestMemoryCacheExpiry(t *testing.T) {
	c := NewMemoryCache(10)
	defer c.Close()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", []byte("v"), 10*time.Millisecond))
	time.Sleep(30 * time.Millisecond)

	_, found, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestMemoryCacheEviction(t *testing.T) {
	c := NewMemoryCache(2)
	defer c.Close()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "first", []byte("1"), time.Minute))
	time.Sleep(5 * time.Millisecond)
	require.NoError(t, c.Set(ctx, "second", []byte("2"), time.Minute))
	time.Sleep(5 * time.Millisecond)
	require.NoError(t, c.Set(ctx, "third", []byte("3"), time.Minute))

	_, found, _ := c.Get(ctx, "first")
	assert.False(t, found, "oldest entry should have been evicted")
	_, found, _ = c.Get(ctx, "second")
	assert.True(t, found)
	_, found, _ = c.Get(ctx, "third")
	assert.True(t, found)
}

func TestMemoryCacheDeletePrefix(t *testing.T) {
	c := NewMemoryCache(10)
	defer c.Close()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "analysis:descriptive:f1", []byte("a"), time.Minute))
	require.NoError(t, c.Set(ctx, "prediction:risk:f1", []byte("b"), time.Minute))
	require.NoError(t, c.Set(ctx, "analysis:quality:f2", []byte("c"), time.Minute))

	require.NoError(t, c.DeletePrefix(ctx, "analysis:"))

	_, found, _ := c.Get(ctx, "analysis:descriptive:f1")
	assert.False(t, found)
	_, found, _ = c.Get(ctx, "analysis:quality:f2")
	assert.False(t, found)
	_, found, _ = c.Get(ctx, "prediction:risk:f1")
	assert.True(t, found)
}

func TestMemoryCacheZeroSize(t *testing.T) {
	c := NewMemoryCache(0)
	defer c.Close()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))
	_, found, _ := c.Get(ctx, "k")
	assert.False(t, found)
}

func TestMemoryCacheCloseTwice(t *testing.T) {
	c := NewMemoryCache(10)
	assert.NoError(t, c.Close())
	assert.NoError(t, c.Close())
}
