package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_LRUCache(t *testing.T) {
	var evicted []string
	c := NewLRUCache(2, time.Minute, func(key string, val any) {
		evicted = append(evicted, key)
	})
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "key1", 1, time.Minute))
	require.NoError(t, c.Set(ctx, "key2", 2, time.Minute))
	// key1 最近用过, 淘汰 key2
	_, err := c.Get(ctx, "key1")
	require.NoError(t, err)
	require.NoError(t, c.Set(ctx, "key3", 3, time.Minute))

	assert.Equal(t, []string{"key2"}, evicted)
	assert.Equal(t, 2, c.Len())
	_, err = c.Get(ctx, "key2")
	assert.ErrorIs(t, err, ErrKeyNotFound)

	val, err := c.Get(ctx, "key3")
	require.NoError(t, err)
	assert.Equal(t, 3, val)

	require.NoError(t, c.Delete(ctx, "key3"))
	_, err = c.Get(ctx, "key3")
	assert.ErrorIs(t, err, ErrKeyNotFound)

	require.NoError(t, c.Set(ctx, "key1", 10, -time.Second))
	_, err = c.Get(ctx, "key1")
	assert.ErrorIs(t, err, ErrKeyNotFound)
}

func Test_LRUCache_Expired(t *testing.T) {
	c := NewLRUCache(10, 20*time.Millisecond, nil)
	ctx := context.Background()
	require.NoError(t, c.Set(ctx, "key1", 1, 0))
	time.Sleep(50 * time.Millisecond)
	_, err := c.Get(ctx, "key1")
	assert.ErrorIs(t, err, ErrKeyNotFound)
}
