package dedup

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "dedup:"

// RedisCache is the shared dedup backend for multi-instance edge
// deployments. CheckAndMark maps to SET NX PX, which is atomic server-side,
// and expiry is Redis's own TTL handling, so there is no sweep to run.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache connects to Redis and verifies the connection.
func NewRedisCache(redisURL string, ttl time.Duration) (*RedisCache, error) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	return &RedisCache{client: client, ttl: ttl}, nil
}

// NewRedisCacheWithClient wraps an existing client; used in tests.
func NewRedisCacheWithClient(client *redis.Client, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisCache{client: client, ttl: ttl}
}

func (c *RedisCache) redisKey(deviceID string, seq int64) string {
	return redisKeyPrefix + key(deviceID, seq)
}

func (c *RedisCache) Seen(ctx context.Context, deviceID string, seq int64) (bool, error) {
	n, err := c.client.Exists(ctx, c.redisKey(deviceID, seq)).Result()
	if err != nil {
		return false, fmt.Errorf("dedup check failed: %w", err)
	}
	return n > 0, nil
}

func (c *RedisCache) Mark(ctx context.Context, deviceID string, seq int64) error {
	if err := c.client.Set(ctx, c.redisKey(deviceID, seq), "1", c.ttl).Err(); err != nil {
		return fmt.Errorf("dedup mark failed: %w", err)
	}
	return nil
}

func (c *RedisCache) CheckAndMark(ctx context.Context, deviceID string, seq int64) (bool, error) {
	// SET NX returns false when the key already exists.
	set, err := c.client.SetNX(ctx, c.redisKey(deviceID, seq), "1", c.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("dedup check-and-mark failed: %w", err)
	}
	return !set, nil
}

func (c *RedisCache) Forget(ctx context.Context, deviceID string, seq int64) error {
	if err := c.client.Del(ctx, c.redisKey(deviceID, seq)).Err(); err != nil {
		return fmt.Errorf("dedup forget failed: %w", err)
	}
	return nil
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}
