// Package cache кэш байтовых значений с TTL: Redis для нескольких инстансов
// или LRU в памяти процесса.
package cache

import (
	"context"
	"time"
)

// Cache промах и ошибка бэкенда неразличимы для вызывающего: оба значат "идти в хранилище"
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration)
	Delete(ctx context.Context, keys ...string)
}

// Nop кэш, который ничего не хранит
type Nop struct{}

func (Nop) Get(context.Context, string) ([]byte, bool)         { return nil, false }
func (Nop) Set(context.Context, string, []byte, time.Duration) {}
func (Nop) Delete(context.Context, ...string)                  {}
