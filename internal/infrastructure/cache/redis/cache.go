// internal/infrastructure/cache/redis/cache.go
package redis

import (
	"context"
	"errors"
	"time"

	"chain-analytics-proxy/internal/infrastructure/cache"

	"github.com/go-redis/redis/v8"
)

var (
	_ cache.Store        = (*Cache)(nil)
	_ cache.MultiDeleter = (*Cache)(nil)
)

// DefaultPrefix - префикс ключей прокси в общем Redis
const DefaultPrefix = "chainproxy:"

// Cache - кэш ответов в Redis, ключи с префиксом
type Cache struct {
	client *redis.Client
	prefix string
}

// NewCacheWithClient создает Cache с существующим клиентом
func NewCacheWithClient(client *redis.Client, prefix string) *Cache {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Cache{
		client: client,
		prefix: prefix,
	}
}

// Set сохраняет значение с TTL
func (c *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.client.Set(ctx, c.prefix+key, value, ttl).Err()
}

// Get получает значение; отсутствие ключа - не ошибка
func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

// Delete удаляет ключ из Redis
func (c *Cache) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, c.prefix+key).Err()
}

// DeleteMulti удаляет несколько ключей из Redis
func (c *Cache) DeleteMulti(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	fullKeys := make([]string, len(keys))
	for i, key := range keys {
		fullKeys[i] = c.prefix + key
	}

	return c.client.Del(ctx, fullKeys...).Err()
}

func (c *Cache) Name() string {
	return "redis"
}
