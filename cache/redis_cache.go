package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"
)

var (
	errFailedToSetCache = errors.New("cache: 写入 redis 失败")
)

var _ Cache = new(RedisCache)

// RedisCmdable RedisCache 用到的命令, redis.Cmdable 的子集
// 单元测试用 mockgen 生成的实现
//
//go:generate mockgen -destination=mocks/redis_cmdable.mock.go -package=mocks github.com/startdusk/midgard/cache RedisCmdable
type RedisCmdable interface {
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

var _ RedisCmdable = redis.Cmdable(nil)

// RedisCache 值只能是 redis 能序列化的类型, 如 string, []byte
// Get 返回的总是 string
type RedisCache struct {
	client RedisCmdable
}

func NewRedisCache(client RedisCmdable) *RedisCache {
	return &RedisCache{
		client: client,
	}
}

func (r *RedisCache) Set(ctx context.Context, key string, val any, expiration time.Duration) error {
	res, err := r.client.Set(ctx, key, val, expiration).Result()
	if err != nil {
		return err
	}
	if res != "OK" {
		return fmt.Errorf("%w, 返回信息 %s", errFailedToSetCache, res)
	}
	return nil
}

func (r *RedisCache) Get(ctx context.Context, key string) (any, error) {
	val, err := r.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w, key: %s", ErrKeyNotFound, key)
	}
	if err != nil {
		return nil, err
	}
	return val, nil
}

func (r *RedisCache) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, key).Err()
}
