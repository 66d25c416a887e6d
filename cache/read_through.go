package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"
)

var (
	ErrFailedToRefreshCache = errors.New("cache: 刷新缓存失败")
)

// ReadThroughCache 缓存中读不到数据就去数据库拿, 拿到后设置到缓存里面
// 同一个 key 同时只有一个 LoadFunc 在执行, 能缓解缓存击穿
// 但如果是黑客伪造不存在的 key, 就没办法了
type ReadThroughCache struct {
	Cache
	LoadFunc   func(ctx context.Context, key string) (any, error)
	Expiration time.Duration
	// Logger 异步刷新失败时记录, 为空用 slog.Default()
	Logger *slog.Logger

	g singleflight.Group
}

// NewReadThroughCache 一定要传 loadFunc 和 expiration
func NewReadThroughCache(c Cache, loadFunc func(ctx context.Context, key string) (any, error), expiration time.Duration) *ReadThroughCache {
	return &ReadThroughCache{
		Cache:      c,
		LoadFunc:   loadFunc,
		Expiration: expiration,
	}
}

func (r *ReadThroughCache) Get(ctx context.Context, key string) (any, error) {
	val, err := r.Cache.Get(ctx, key)
	if !errors.Is(err, ErrKeyNotFound) {
		return val, err
	}
	val, err, _ = r.g.Do(key, func() (any, error) {
		v, err := r.LoadFunc(ctx, key)
		if err != nil {
			return nil, err
		}
		if err := r.Cache.Set(ctx, key, v, r.Expiration); err != nil {
			return v, fmt.Errorf("%w, 原因: %s", ErrFailedToRefreshCache, err)
		}
		return v, nil
	})
	return val, err
}

// GetAsync 半异步, 从数据库拿到数据后异步写缓存
func (r *ReadThroughCache) GetAsync(ctx context.Context, key string) (any, error) {
	val, err := r.Cache.Get(ctx, key)
	if !errors.Is(err, ErrKeyNotFound) {
		return val, err
	}
	val, err, _ = r.g.Do(key, func() (any, error) {
		return r.LoadFunc(ctx, key)
	})
	if err != nil {
		return nil, err
	}
	go func() {
		// 请求结束后 ctx 可能已经取消了
		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
		defer cancel()
		if err := r.Cache.Set(sctx, key, val, r.Expiration); err != nil {
			r.logger().Error("cache: 异步刷新缓存失败", slog.String("key", key), slog.Any("error", err))
		}
	}()
	return val, nil
}

func (r *ReadThroughCache) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}
