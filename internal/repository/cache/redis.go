// Package cache keeps the active threshold configuration in Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/carepoint/backend/internal/config"
	"github.com/carepoint/backend/internal/domain"
)

const thresholdsKey = "carepoint:thresholds"

// NewRedis creates a new Redis client
func NewRedis(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})
}

// ThresholdCache stores a ThresholdConfig under a single key.
type ThresholdCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewThresholdCache(client *redis.Client, ttl time.Duration) *ThresholdCache {
	return &ThresholdCache{client: client, ttl: ttl}
}

// Get returns the cached configuration; ok is false on a miss.
func (c *ThresholdCache) Get(ctx context.Context) (cfg domain.ThresholdConfig, ok bool, err error) {
	val, err := c.client.Get(ctx, thresholdsKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.ThresholdConfig{}, false, nil
	}
	if err != nil {
		return domain.ThresholdConfig{}, false, fmt.Errorf("cache: failed to get thresholds: %w", err)
	}
	if err := json.Unmarshal(val, &cfg); err != nil {
		return domain.ThresholdConfig{}, false, fmt.Errorf("cache: failed to decode thresholds: %w", err)
	}
	return cfg, true, nil
}

func (c *ThresholdCache) Set(ctx context.Context, cfg domain.ThresholdConfig) error {
	data, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("cache: failed to encode thresholds: %w", err)
	}
	if err := c.client.Set(ctx, thresholdsKey, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache: failed to set thresholds: %w", err)
	}
	return nil
}

func (c *ThresholdCache) Invalidate(ctx context.Context) error {
	if err := c.client.Del(ctx, thresholdsKey).Err(); err != nil {
		return fmt.Errorf("cache: failed to delete thresholds: %w", err)
	}
	return nil
}

// Ping tests the Redis connection
func (c *ThresholdCache) Ping(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("cache: redis ping failed: %w", err)
	}
	return nil
}
