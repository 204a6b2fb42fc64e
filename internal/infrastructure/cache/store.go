// internal/infrastructure/cache/store.go
package cache

import (
	"context"
	"time"
)

// Store хранит закодированные ответы с ограниченным временем жизни.
// Запись видна только пока с момента Set прошло меньше ttl.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Name() string
}

// MultiDeleter - хранилище, которое удаляет несколько ключей одной командой
type MultiDeleter interface {
	DeleteMulti(ctx context.Context, keys ...string) error
}
