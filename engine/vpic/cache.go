package vpic

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache stores decode results by VIN.
type Cache interface {
	Get(ctx context.Context, vin string) (Result, bool, error)
	Set(ctx context.Context, vin string, res Result, ttl time.Duration) error
}

const cacheKeyPrefix = "vpic:decode:"

// RedisCache is a Cache backed by Redis. Results are stored as JSON.
type RedisCache struct {
	client redis.Cmdable
	prefix string
}

// NewRedisCache wraps client. An empty prefix uses "vpic:decode:".
func NewRedisCache(client redis.Cmdable, prefix string) *RedisCache {
	if prefix == "" {
		prefix = cacheKeyPrefix
	}
	return &RedisCache{client: client, prefix: prefix}
}

func (c *RedisCache) key(vin string) string { return c.prefix + vin }

func (c *RedisCache) Get(ctx context.Context, vin string) (Result, bool, error) {
	data, err := c.client.Get(ctx, c.key(vin)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Result{}, false, nil
	}
	if err != nil {
		return Result{}, false, err
	}
	var res Result
	if err := json.Unmarshal(data, &res); err != nil {
		return Result{}, false, err
	}
	return res, true, nil
}

func (c *RedisCache) Set(ctx context.Context, vin string, res Result, ttl time.Duration) error {
	data, err := json.Marshal(res)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(vin), data, ttl).Err()
}
