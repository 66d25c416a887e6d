package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

var _ Cache = new(LRUCache)

// LRUCache 控制内存: 超过 size 淘汰最久没用的
// 过期时间统一是 ttl, Set 传入的 expiration 只用来判断是否写入
type LRUCache struct {
	data *expirable.LRU[string, any]
}

// NewLRUCache ttl 为 0 表示永不过期
func NewLRUCache(size int, ttl time.Duration, onEvicted func(key string, val any)) *LRUCache {
	return &LRUCache{
		data: expirable.NewLRU[string, any](size, onEvicted, ttl),
	}
}

func (c *LRUCache) Set(ctx context.Context, key string, val any, expiration time.Duration) error {
	if expiration < 0 {
		// 已经过期的数据不写入
		c.data.Remove(key)
		return nil
	}
	c.data.Add(key, val)
	return nil
}

func (c *LRUCache) Get(ctx context.Context, key string) (any, error) {
	val, ok := c.data.Get(key)
	if !ok {
		return nil, fmt.Errorf("%w, key: %s", ErrKeyNotFound, key)
	}
	return val, nil
}

func (c *LRUCache) Delete(ctx context.Context, key string) error {
	c.data.Remove(key)
	return nil
}

func (c *LRUCache) Len() int {
	return c.data.Len()
}
