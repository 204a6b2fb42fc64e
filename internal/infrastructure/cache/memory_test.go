package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ Store = (*MemoryStore)(nil)

func TestMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	_, ok, err := store.Get(ctx, "tokens")
	require.NoError(t, err)
	assert.False(t, ok)

	payload := []byte(`[{"ranking":1}]`)
	require.NoError(t, store.Set(ctx, "tokens", payload, time.Minute))

	got, ok, err := store.Get(ctx, "tokens")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, payload, got)

	require.NoError(t, store.Delete(ctx, "tokens"))
	_, ok, _ = store.Get(ctx, "tokens")
	assert.False(t, ok)
}

func TestMemoryStoreExpiry(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.Set(ctx, "pools", []byte("[]"), 30*time.Millisecond))
	_, ok, _ := store.Get(ctx, "pools")
	require.True(t, ok)

	time.Sleep(60 * time.Millisecond)

	_, ok, err := store.Get(ctx, "pools")
	require.NoError(t, err)
	assert.False(t, ok, "expired entry must not be served")
}

func TestMemoryStoreOverwrite(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.Set(ctx, "k", []byte("a"), time.Minute))
	require.NoError(t, store.Set(ctx, "k", []byte("b"), time.Minute))

	got, ok, _ := store.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, "b", string(got))
	assert.Equal(t, 1, store.Len())
	assert.Equal(t, "memory", store.Name())
}
