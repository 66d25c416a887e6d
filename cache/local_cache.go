package cache

import (
	"context"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

var _ Cache = new(LocalCache)

type LocalCacheOption func(c *LocalCache)

// LocalCacheWithEvictedCallback 过期或者删除时回调
func LocalCacheWithEvictedCallback(fn func(key string, val any)) LocalCacheOption {
	return func(c *LocalCache) {
		c.data.OnEvicted(fn)
	}
}

// LocalCache 进程内缓存
// 过期的 key 由 go-cache 每隔 interval 轮询删除, 读的时候也会检查是否过期
type LocalCache struct {
	data *gocache.Cache
}

func NewLocalCache(interval time.Duration, opts ...LocalCacheOption) *LocalCache {
	c := &LocalCache{
		data: gocache.New(gocache.NoExpiration, interval),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *LocalCache) Set(ctx context.Context, key string, val any, expiration time.Duration) error {
	if expiration <= 0 {
		expiration = gocache.NoExpiration
	}
	c.data.Set(key, val, expiration)
	return nil
}

func (c *LocalCache) Get(ctx context.Context, key string) (any, error) {
	val, ok := c.data.Get(key)
	if !ok {
		return nil, fmt.Errorf("%w, key: %s", ErrKeyNotFound, key)
	}
	return val, nil
}

func (c *LocalCache) Delete(ctx context.Context, key string) error {
	c.data.Delete(key)
	return nil
}

// LoadAndDelete 同时把删除的数据给返回
func (c *LocalCache) LoadAndDelete(ctx context.Context, key string) (any, error) {
	val, ok := c.data.Get(key)
	if !ok {
		return nil, fmt.Errorf("%w, key: %s", ErrKeyNotFound, key)
	}
	c.data.Delete(key)
	return val, nil
}

func (c *LocalCache) Len() int {
	return c.data.ItemCount()
}
