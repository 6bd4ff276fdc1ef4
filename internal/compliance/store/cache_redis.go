package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"listingwatch/internal/compliance/models"
	"listingwatch/pkg/platform/sentinel"
)

const (
	// Redis key prefix for cached check results
	checkKeyPrefix = "listingwatch:check:"

	defaultCheckCacheTTL = 24 * time.Hour
)

// RedisCheckCache caches recorded checks by id. Checks are immutable once
// recorded, so entries only need invalidating when a learning is attached.
type RedisCheckCache struct {
	client *redis.Client
	ttl    time.Duration
}

// RedisCheckCacheOption configures a RedisCheckCache instance.
type RedisCheckCacheOption func(*RedisCheckCache)

// WithCacheTTL sets the entry lifetime. Non-positive values are ignored.
func WithCacheTTL(ttl time.Duration) RedisCheckCacheOption {
	return func(c *RedisCheckCache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// NewRedisCheckCache constructs a Redis-backed check cache.
func NewRedisCheckCache(client *redis.Client, opts ...RedisCheckCacheOption) *RedisCheckCache {
	c := &RedisCheckCache{client: client, ttl: defaultCheckCacheTTL}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Get returns the cached check or sentinel.ErrNotFound on a miss.
func (c *RedisCheckCache) Get(ctx context.Context, checkID string) (*models.ComplianceCheck, error) {
	raw, err := c.client.Get(ctx, checkKeyPrefix+checkID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get cached check: %w", err)
	}
	var check models.ComplianceCheck
	if err := json.Unmarshal(raw, &check); err != nil {
		return nil, fmt.Errorf("decode cached check: %w", err)
	}
	return &check, nil
}

// Set stores check with the configured TTL.
func (c *RedisCheckCache) Set(ctx context.Context, check *models.ComplianceCheck) error {
	raw, err := json.Marshal(check)
	if err != nil {
		return fmt.Errorf("encode check: %w", err)
	}
	return c.client.Set(ctx, checkKeyPrefix+check.CheckID, raw, c.ttl).Err()
}

// Delete drops any cached entry for checkID.
func (c *RedisCheckCache) Delete(ctx context.Context, checkID string) error {
	return c.client.Del(ctx, checkKeyPrefix+checkID).Err()
}
