package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLRUCache(t *testing.T) {
	ctx := context.Background()

	t.Run("set and get", func(t *testing.T) {
		c, err := NewLRUCache(2)
		require.NoError(t, err)

		c.Set(ctx, "a", []byte("1"), time.Minute)
		got, ok := c.Get(ctx, "a")
		assert.True(t, ok)
		assert.Equal(t, []byte("1"), got)
	})

	t.Run("expired entry is a miss", func(t *testing.T) {
		c, err := NewLRUCache(2)
		require.NoError(t, err)
		now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
		c.now = func() time.Time { return now }

		c.Set(ctx, "a", []byte("1"), time.Minute)
		now = now.Add(time.Minute)

		_, ok := c.Get(ctx, "a")
		assert.False(t, ok)
		assert.Equal(t, 0, c.Len())
	})

	t.Run("evicts least recently used", func(t *testing.T) {
		c, err := NewLRUCache(2)
		require.NoError(t, err)

		c.Set(ctx, "a", []byte("1"), 0)
		c.Set(ctx, "b", []byte("2"), 0)
		_, _ = c.Get(ctx, "a")
		c.Set(ctx, "c", []byte("3"), 0)

		_, ok := c.Get(ctx, "b")
		assert.False(t, ok)
		_, ok = c.Get(ctx, "a")
		assert.True(t, ok)
	})

	t.Run("delete", func(t *testing.T) {
		c, err := NewLRUCache(4)
		require.NoError(t, err)

		c.Set(ctx, "a", []byte("1"), 0)
		c.Set(ctx, "b", []byte("2"), 0)
		c.Delete(ctx, "a", "b", "missing")
		assert.Equal(t, 0, c.Len())
	})

	t.Run("invalid size", func(t *testing.T) {
		_, err := NewLRUCache(0)
		assert.Error(t, err)
	})
}
