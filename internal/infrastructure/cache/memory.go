// internal/infrastructure/cache/memory.go
package cache

import (
	"context"
	"time"

	"github.com/jellydator/ttlcache/v3"
)

// MemoryStore - кэш в памяти процесса на базе ttlcache
type MemoryStore struct {
	c *ttlcache.Cache[string, []byte]
}

// NewMemoryStore создает кэш в памяти. Start запускает фоновую очистку
// просроченных записей, Get при этом просроченное не возвращает и без нее.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		c: ttlcache.New[string, []byte](
			ttlcache.WithDisableTouchOnHit[string, []byte](),
		),
	}
}

// Start запускает очистку просроченных записей, блокируется до Stop
func (m *MemoryStore) Start() { m.c.Start() }

// Stop останавливает очистку
func (m *MemoryStore) Stop() { m.c.Stop() }

func (m *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	item := m.c.Get(key)
	if item == nil || item.IsExpired() {
		return nil, false, nil
	}
	return item.Value(), true, nil
}

func (m *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.c.Set(key, value, ttl)
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.c.Delete(key)
	return nil
}

// Len возвращает количество записей (включая еще не очищенные просроченные)
func (m *MemoryStore) Len() int {
	return m.c.Len()
}

func (m *MemoryStore) Name() string {
	return "memory"
}
