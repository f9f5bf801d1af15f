// Package cache stores computed reports in Redis. A nil *Cache is valid and
// behaves as an always-empty cache, so the API runs unchanged without Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/straye-as/crm-api/internal/config"
	"go.uber.org/zap"
)

// Cache is a JSON cache with namespaced keys
type Cache struct {
	client *redis.Client
	prefix string
	logger *zap.Logger
}

// New connects to the Redis server in cfg.URL and verifies the connection
func New(ctx context.Context, cfg *config.RedisConfig, logger *zap.Logger) (*Cache, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed parsing redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed connecting to redis: %w", err)
	}

	logger.Info("Redis connected", zap.String("addr", opts.Addr), zap.Int("db", opts.DB))
	return NewWithClient(client, cfg.KeyPrefix, logger), nil
}

// NewWithClient wraps an existing client
func NewWithClient(client *redis.Client, prefix string, logger *zap.Logger) *Cache {
	return &Cache{client: client, prefix: prefix, logger: logger}
}

func (c *Cache) key(k string) string {
	return c.prefix + k
}

// GetJSON decodes the value at key into dest. It reports false on a miss.
func (c *Cache) GetJSON(ctx context.Context, key string, dest interface{}) (bool, error) {
	if c == nil {
		return false, nil
	}
	raw, err := c.client.Get(ctx, c.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("cache get %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, fmt.Errorf("cache decode %s: %w", key, err)
	}
	return true, nil
}

// SetJSON stores v at key for ttl
func (c *Cache) SetJSON(ctx context.Context, key string, v interface{}, ttl time.Duration) error {
	if c == nil {
		return nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("cache encode %s: %w", key, err)
	}
	return c.client.Set(ctx, c.key(key), raw, ttl).Err()
}

// Delete removes keys
func (c *Cache) Delete(ctx context.Context, keys ...string) error {
	if c == nil || len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = c.key(k)
	}
	return c.client.Del(ctx, full...).Err()
}

// DeletePattern deletes all keys matching a glob pattern, walking the keyspace with SCAN
func (c *Cache) DeletePattern(ctx context.Context, pattern string) error {
	if c == nil {
		return nil
	}

	var cursor uint64
	deleted := 0
	for {
		keys, next, err := c.client.Scan(ctx, cursor, c.key(pattern), 100).Result()
		if err != nil {
			return fmt.Errorf("failed to scan keys: %w", err)
		}
		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("failed to delete keys: %w", err)
			}
			deleted += len(keys)
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}

	c.logger.Debug("cache keys invalidated",
		zap.String("pattern", pattern),
		zap.Int("deleted", deleted),
	)
	return nil
}

// Ping checks the connection
func (c *Cache) Ping(ctx context.Context) error {
	if c == nil {
		return nil
	}
	return c.client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (c *Cache) Close() error {
	if c == nil {
		return nil
	}
	return c.client.Close()
}
