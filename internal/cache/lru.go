package cache

import (
	"context"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

type lruEntry struct {
	data      []byte
	expiresAt time.Time
}

// LRUCache кэш в памяти с вытеснением по размеру и TTL на запись
type LRUCache struct {
	cache *lru.Cache[string, lruEntry]
	now   func() time.Time
}

func NewLRUCache(size int) (*LRUCache, error) {
	c, err := lru.New[string, lruEntry](size)
	if err != nil {
		return nil, fmt.Errorf("create lru cache: %w", err)
	}
	return &LRUCache{cache: c, now: time.Now}, nil
}

func (c *LRUCache) Get(ctx context.Context, key string) ([]byte, bool) {
	entry, ok := c.cache.Get(key)
	if !ok {
		return nil, false
	}
	if !entry.expiresAt.IsZero() && !c.now().Before(entry.expiresAt) {
		c.cache.Remove(key)
		return nil, false
	}
	return entry.data, true
}

// Set ttl <= 0 - без срока
func (c *LRUCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) {
	entry := lruEntry{data: data}
	if ttl > 0 {
		entry.expiresAt = c.now().Add(ttl)
	}
	c.cache.Add(key, entry)
}

func (c *LRUCache) Delete(ctx context.Context, keys ...string) {
	for _, k := range keys {
		c.cache.Remove(k)
	}
}

func (c *LRUCache) Len() int {
	return c.cache.Len()
}
