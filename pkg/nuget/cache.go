// SPDX-License-Identifier: MPL-2.0

package nuget

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/redis/go-redis/v9"
)

const (
	// DefaultCacheEntries bounds the in-process index cache.
	DefaultCacheEntries = 256
	// DefaultCacheTTL is how long a version index stays fresh.
	DefaultCacheTTL = 10 * time.Minute

	redisKeyPrefix = "loadremote:index:"
)

type (
	// IndexCache stores serialized version indexes keyed by source and
	// package id. Get reports a miss with hit=false and a nil error.
	IndexCache interface {
		Get(ctx context.Context, key string) (data []byte, hit bool, err error)
		Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
		Close() error
	}

	// MemoryCache is an expiring LRU cache local to the process.
	MemoryCache struct {
		lru *expirable.LRU[string, []byte]
	}

	// RedisCache shares indexes between processes through Redis.
	RedisCache struct {
		client *redis.Client
	}

	// TieredCache consults its tiers in order. A hit in a lower tier is
	// written back to the tiers before it.
	TieredCache struct {
		tiers []IndexCache
		ttl   time.Duration
	}

	// NullCache never stores anything.
	NullCache struct{}
)

// NewMemoryCache creates a MemoryCache holding up to size entries for ttl.
func NewMemoryCache(size int, ttl time.Duration) *MemoryCache {
	if size <= 0 {
		size = DefaultCacheEntries
	}
	return &MemoryCache{lru: expirable.NewLRU[string, []byte](size, nil, ttl)}
}

// Get implements IndexCache.
func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	data, ok := c.lru.Get(key)
	return data, ok, nil
}

// Set implements IndexCache. The cache-wide TTL applies; ttl is ignored.
func (c *MemoryCache) Set(_ context.Context, key string, data []byte, _ time.Duration) error {
	c.lru.Add(key, data)
	return nil
}

// Close implements IndexCache.
func (c *MemoryCache) Close() error {
	c.lru.Purge()
	return nil
}

// Len returns the number of live entries.
func (c *MemoryCache) Len() int { return c.lru.Len() }

// NewRedisCache connects to the Redis server at url (redis://...).
func NewRedisCache(ctx context.Context, url string) (*RedisCache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}
	return &RedisCache{client: client}, nil
}

// Get implements IndexCache.
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := c.client.Get(ctx, redisKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

// Set implements IndexCache.
func (c *RedisCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	return c.client.Set(ctx, redisKeyPrefix+key, data, ttl).Err()
}

// Close implements IndexCache.
func (c *RedisCache) Close() error { return c.client.Close() }

// NewTieredCache combines tiers, fastest first. ttl is used when
// backfilling.
func NewTieredCache(ttl time.Duration, tiers ...IndexCache) *TieredCache {
	return &TieredCache{tiers: tiers, ttl: ttl}
}

// Get implements IndexCache. Errors from a tier count as misses so a
// failing shared cache does not stop installation.
func (c *TieredCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	for i, tier := range c.tiers {
		data, hit, err := tier.Get(ctx, key)
		if err != nil || !hit {
			continue
		}
		for _, upper := range c.tiers[:i] {
			_ = upper.Set(ctx, key, data, c.ttl)
		}
		return data, true, nil
	}
	return nil, false, nil
}

// Set implements IndexCache by writing to every tier.
func (c *TieredCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	var errs []error
	for _, tier := range c.tiers {
		if err := tier.Set(ctx, key, data, ttl); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close implements IndexCache.
func (c *TieredCache) Close() error {
	var errs []error
	for _, tier := range c.tiers {
		if err := tier.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Get implements IndexCache.
func (NullCache) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }

// Set implements IndexCache.
func (NullCache) Set(context.Context, string, []byte, time.Duration) error { return nil }

// Close implements IndexCache.
func (NullCache) Close() error { return nil }
