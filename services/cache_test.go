package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	c := NewMemoryCache()
	c.now = func() time.Time { return now }

	c.Set(ctx, "products:list:a", []byte("a"), time.Minute)
	c.Set(ctx, "products:item:1", []byte("1"), 0)
	c.Set(ctx, "settings:public", []byte("s"), time.Minute)

	v, ok := c.Get(ctx, "products:list:a")
	require.True(t, ok)
	assert.Equal(t, "a", string(v))

	now = now.Add(2 * time.Minute)
	_, ok = c.Get(ctx, "products:list:a")
	assert.False(t, ok, "expired entries are misses")
	_, ok = c.Get(ctx, "products:item:1")
	assert.True(t, ok, "zero ttl never expires")

	c.DeletePrefix(ctx, "products:")
	_, ok = c.Get(ctx, "products:item:1")
	assert.False(t, ok)
	_, ok = c.Get(ctx, "settings:public")
	assert.False(t, ok)
}

func TestCacheJSON(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()
	calls := 0
	load := func() (interface{}, error) {
		calls++
		return map[string]int{"count": 3}, nil
	}

	var first map[string]int
	require.NoError(t, CacheJSON(ctx, c, "k", time.Minute, &first, load))
	var second map[string]int
	require.NoError(t, CacheJSON(ctx, c, "k", time.Minute, &second, load))

	assert.Equal(t, 3, first["count"])
	assert.Equal(t, first, second)
	assert.Equal(t, 1, calls)

	t.Run("load errors are returned and not cached", func(t *testing.T) {
		var dest map[string]int
		err := CacheJSON(ctx, c, "broken", time.Minute, &dest, func() (interface{}, error) {
			return nil, errors.New("db down")
		})
		assert.EqualError(t, err, "db down")
		_, ok := c.Get(ctx, "broken")
		assert.False(t, ok)
	})

	t.Run("nil cache always loads", func(t *testing.T) {
		var dest map[string]int
		require.NoError(t, CacheJSON(ctx, nil, "k", time.Minute, &dest, load))
		assert.Equal(t, 2, calls)
	})
}
