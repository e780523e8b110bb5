// Copyright 2025 TraceLens
// SPDX-License-Identifier: Apache-2.0

package usage

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

// DefaultCacheTTL bounds how stale a served usage total can be. Short on
// purpose: a limit flip must take effect within tens of seconds.
const DefaultCacheTTL = 30 * time.Second

// CountCache caches computed usage totals per (organization, unit). The
// key always includes the unit so a license or feature change that flips
// the unit is never served a count computed under the other unit.
type CountCache interface {
	Get(ctx context.Context, orgID string, unit Unit) (int64, bool)
	Set(ctx context.Context, orgID string, unit Unit, count int64)
}

func cacheKey(orgID string, unit Unit) string {
	return fmt.Sprintf("usage:%s:%s", orgID, unit)
}

// MemoryCache is the in-process cache used when no Redis is configured.
// Request handling runs on OS threads, so access is mutex-guarded.
type MemoryCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]memoryEntry
	now     func() time.Time
}

type memoryEntry struct {
	count     int64
	expiresAt time.Time
}

// NewMemoryCache creates an in-process cache with the given TTL
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &MemoryCache{
		ttl:     ttl,
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

// Get returns the cached count when present and unexpired
func (c *MemoryCache) Get(ctx context.Context, orgID string, unit Unit) (int64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[cacheKey(orgID, unit)]
	if !ok || c.now().After(entry.expiresAt) {
		return 0, false
	}
	return entry.count, true
}

// Set stores the count under (org, unit) for the cache TTL
func (c *MemoryCache) Set(ctx context.Context, orgID string, unit Unit, count int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[cacheKey(orgID, unit)] = memoryEntry{
		count:     count,
		expiresAt: c.now().Add(c.ttl),
	}
}

// RedisCache shares usage totals across instances of the request-handling
// layer. Cache failures degrade to a recount, never to an error.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache creates a Redis-backed cache with the given TTL
func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &RedisCache{client: client, ttl: ttl}
}

// Get returns the cached count when the key exists
func (c *RedisCache) Get(ctx context.Context, orgID string, unit Unit) (int64, bool) {
	val, err := c.client.Get(ctx, cacheKey(orgID, unit)).Result()
	if err != nil {
		return 0, false
	}
	count, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, false
	}
	return count, true
}

// Set stores the count under (org, unit) with the cache TTL
func (c *RedisCache) Set(ctx context.Context, orgID string, unit Unit, count int64) {
	c.client.Set(ctx, cacheKey(orgID, unit), strconv.FormatInt(count, 10), c.ttl)
}
