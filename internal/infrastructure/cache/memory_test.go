package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johnquangdev/mai-recap/pkg/config"
)

func TestMemoryStore_SetGetDelete(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	defer store.Close()

	require.NoError(t, store.Set(ctx, "k", "v", time.Minute))
	v, ok, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", v)

	require.NoError(t, store.Delete(ctx, "k"))
	_, ok, err = store.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryStore_Expiry(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	defer store.Close()

	now := time.Now()
	store.now = func() time.Time { return now }

	require.NoError(t, store.Set(ctx, "short", "v", time.Second))
	require.NoError(t, store.Set(ctx, "forever", "v", 0))

	now = now.Add(2 * time.Second)

	_, ok, _ := store.Get(ctx, "short")
	assert.False(t, ok)
	_, ok, _ = store.Get(ctx, "forever")
	assert.True(t, ok)
}

func TestMemoryStore_CloseIsIdempotent(t *testing.T) {
	store := NewMemoryStore()
	assert.NoError(t, store.Close())
	assert.NoError(t, store.Close())
}

func TestNew_Drivers(t *testing.T) {
	store, err := New(context.Background(), &config.RedisConfig{Driver: "memory"})
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, store)
	_ = store.Close()

	_, err = New(context.Background(), &config.RedisConfig{Driver: "etcd"})
	assert.Error(t, err)
}
