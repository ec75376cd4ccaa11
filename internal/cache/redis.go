package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"subway/internal/domain"
)

// RedisCache stores path results under a network version. Bumping the
// version orphans every older entry at once; the old keys are then removed
// with a pattern scan.
type RedisCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	logger *slog.Logger
}

func NewRedisCache(addr, password string, db int, ttl time.Duration, logger *slog.Logger) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	return &RedisCache{
		client: client,
		prefix: "subway:",
		ttl:    ttl,
		logger: logger.With("component", "redis_cache"),
	}, nil
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisCache) key(k string) string {
	return c.prefix + k
}

// GetPath looks the request up under the current version and returns that
// version, hit or miss. A nil result is a miss.
func (c *RedisCache) GetPath(ctx context.Context, req domain.PathRequest) (*domain.PathResult, int64, error) {
	version, err := c.version(ctx)
	if err != nil {
		return nil, 0, err
	}
	var result domain.PathResult
	found, err := c.GetJSON(ctx, KeyPath(version, req), &result)
	if err != nil || !found {
		return nil, version, err
	}
	return &result, version, nil
}

// SetPath stores result under the version the caller read before computing
// it. If the network changed meanwhile, the entry is written under a
// retired version and is never read.
func (c *RedisCache) SetPath(ctx context.Context, version int64, req domain.PathRequest, result *domain.PathResult) error {
	return c.SetJSON(ctx, KeyPath(version, req), result, c.ttl)
}

// InvalidatePaths bumps the network version, then deletes stale entries.
func (c *RedisCache) InvalidatePaths(ctx context.Context) error {
	start := time.Now()
	version, err := c.client.Incr(ctx, c.key(KeyPathVersion)).Result()
	if err != nil {
		return fmt.Errorf("bump path version: %w", err)
	}
	if err := c.deleteStalePaths(ctx, version); err != nil {
		return fmt.Errorf("delete stale paths: %w", err)
	}
	c.logger.Debug("path cache invalidated", "version", version, "duration_ms", time.Since(start).Milliseconds())
	return nil
}

func (c *RedisCache) version(ctx context.Context) (int64, error) {
	v, err := c.client.Get(ctx, c.key(KeyPathVersion)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read path version: %w", err)
	}
	return v, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	start := time.Now()
	err := c.client.Set(ctx, c.key(key), value, ttl).Err()
	if err != nil {
		c.logger.Error("cache set failed", "key", key, "error", err)
		return err
	}
	c.logger.Debug("cache set", "key", key, "size_bytes", len(value), "ttl", ttl, "duration_ms", time.Since(start).Milliseconds())
	return nil
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, error) {
	start := time.Now()
	val, err := c.client.Get(ctx, c.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		c.logger.Debug("cache miss", "key", key)
		return nil, nil
	}
	if err != nil {
		c.logger.Error("cache get failed", "key", key, "error", err)
		return nil, err
	}
	c.logger.Debug("cache hit", "key", key, "size_bytes", len(val), "duration_ms", time.Since(start).Milliseconds())
	return val, nil
}

func (c *RedisCache) SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("json marshal: %w", err)
	}
	return c.Set(ctx, key, data, ttl)
}

func (c *RedisCache) GetJSON(ctx context.Context, key string, dest any) (bool, error) {
	data, err := c.Get(ctx, key)
	if err != nil {
		return false, err
	}
	if data == nil {
		return false, nil
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("json unmarshal: %w", err)
	}
	return true, nil
}

// deleteStalePaths removes path entries written under any version other
// than current.
func (c *RedisCache) deleteStalePaths(ctx context.Context, current int64) error {
	live := c.key(KeyPathPrefix(current))

	deleted := 0
	iter := c.client.Scan(ctx, 0, c.key(KeyPathPattern), 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		if strings.HasPrefix(key, live) {
			continue
		}
		if err := c.client.Del(ctx, key).Err(); err != nil {
			return err
		}
		deleted++
	}
	if err := iter.Err(); err != nil {
		return err
	}
	c.logger.Debug("deleted stale paths", "version", current, "count", deleted)
	return nil
}
