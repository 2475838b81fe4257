package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisKeyPrefix is prepended to every key when no prefix is configured.
const DefaultRedisKeyPrefix = "gosnip:"

// defaultRedisTimeout bounds each round trip; Store has no context parameter.
const defaultRedisTimeout = 5 * time.Second

// RedisCache is a Redis-backed render cache, shared between processes.
type RedisCache struct {
	client    *redis.Client
	ttl       time.Duration
	keyPrefix string
	timeout   time.Duration
}

// RedisConfig holds configuration for the Redis cache.
type RedisConfig struct {
	URL       string // Redis connection URL (e.g., "redis://localhost:6379/0")
	TTL       int    // TTL in seconds (0 = no expiration)
	KeyPrefix string // Prefix for all keys (default: "gosnip:")
}

// NewRedisCache connects to Redis and verifies the connection with PING.
func NewRedisCache(cfg RedisConfig) (*RedisCache, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}

	c := NewRedisCacheFromClient(redis.NewClient(opts), cfg.TTL, cfg.KeyPrefix)
	if err := c.Ping(); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}
	return c, nil
}

// NewRedisCacheFromClient creates a RedisCache from an existing Redis client.
func NewRedisCacheFromClient(client *redis.Client, ttlSeconds int, keyPrefix string) *RedisCache {
	if keyPrefix == "" {
		keyPrefix = DefaultRedisKeyPrefix
	}

	var ttl time.Duration
	if ttlSeconds > 0 {
		ttl = time.Duration(ttlSeconds) * time.Second
	}

	return &RedisCache{
		client:    client,
		ttl:       ttl,
		keyPrefix: keyPrefix,
		timeout:   defaultRedisTimeout,
	}
}

// Get retrieves a value from Redis. Any error, including a connection
// failure, is reported as a miss so rendering can proceed.
func (c *RedisCache) Get(key string) (string, bool) {
	ctx, cancel := c.context()
	defer cancel()

	val, err := c.client.Get(ctx, c.keyPrefix+key).Result()
	if err != nil {
		return "", false
	}
	return val, true
}

// Set stores a value in Redis; expiry is handled by Redis itself.
func (c *RedisCache) Set(key string, value string) error {
	ctx, cancel := c.context()
	defer cancel()

	return c.client.Set(ctx, c.keyPrefix+key, value, c.ttl).Err()
}

// Delete removes a key. Deleting a missing key is not an error.
func (c *RedisCache) Delete(key string) error {
	ctx, cancel := c.context()
	defer cancel()

	err := c.client.Del(ctx, c.keyPrefix+key).Err()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	return err
}

// Close closes the Redis connection.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

// Ping tests the Redis connection.
func (c *RedisCache) Ping() error {
	ctx, cancel := c.context()
	defer cancel()

	return c.client.Ping(ctx).Err()
}

func (c *RedisCache) context() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), c.timeout)
}

// Verify RedisCache implements Store
var _ Store = (*RedisCache)(nil)
