package cache

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrKeyNotFound 过期和不存在不区分
	ErrKeyNotFound = errors.New("cache: 键不存在")
)

// 为什么不用泛型
// type Cache[T any] interface
// 由于Golang泛型的缺陷, 使用泛型只能用一种类型, 但缓存是会缓存多种类型, 使用any + 类型转换更合适
type Cache interface {
	// Set expiration 为 0 表示永不过期
	Set(ctx context.Context, key string, val any, expiration time.Duration) error
	Get(ctx context.Context, key string) (any, error)
	Delete(ctx context.Context, key string) error
}
