package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Xeladesign/shok/internal/config"
	"github.com/Xeladesign/shok/pkg/logger"
	"github.com/redis/go-redis/v9"
)

var Redis *redis.Client

// InitRedis connects the shared client. A failed ping is only a warning:
// the client keeps retrying and callers degrade on their own.
func InitRedis() *redis.Client {
	Redis = redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       0,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := Redis.Ping(ctx).Err(); err != nil {
		logger.Warn().Err(err).Msg("Failed to connect to Redis. Identity caching and send throttling are degraded")
	} else {
		logger.Info().Msg("Connected to Redis successfully")
	}
	return Redis
}

// RedisLimiter is a fixed-window counter per key.
type RedisLimiter struct {
	rdb    *redis.Client
	prefix string
	limit  int
	window time.Duration
}

func NewRedisLimiter(rdb *redis.Client, prefix string, limit int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{rdb: rdb, prefix: prefix, limit: limit, window: window}
}

// Allow reports whether key is still under its limit for the current window.
func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	if l.limit <= 0 {
		return true, nil
	}
	k := fmt.Sprintf("rate_limit:%s:%s", l.prefix, key)
	count, err := l.rdb.Incr(ctx, k).Result()
	if err != nil {
		return false, err
	}
	if count == 1 {
		l.rdb.Expire(ctx, k, l.window)
	}
	return count <= int64(l.limit), nil
}

// RedisCache stores JSON values with an expiry.
type RedisCache struct {
	rdb *redis.Client
}

func NewRedisCache(rdb *redis.Client) *RedisCache {
	return &RedisCache{rdb: rdb}
}

func (c *RedisCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, key, raw, expiration).Err()
}

// Get decodes the cached value into dest. A miss returns redis.Nil.
func (c *RedisCache) Get(ctx context.Context, key string, dest interface{}) error {
	val, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		return err
	}
	return json.Unmarshal(val, dest)
}

func (c *RedisCache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return c.rdb.Del(ctx, keys...).Err()
}
