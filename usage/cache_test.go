// Copyright 2025 TraceLens
// SPDX-License-Identifier: Apache-2.0

package usage

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCacheRoundTrip(t *testing.T) {
	cache := NewMemoryCache(time.Minute)
	ctx := context.Background()

	_, ok := cache.Get(ctx, "org-1", UnitTraces)
	assert.False(t, ok)

	cache.Set(ctx, "org-1", UnitTraces, 42)
	count, ok := cache.Get(ctx, "org-1", UnitTraces)
	require.True(t, ok)
	assert.Equal(t, int64(42), count)
}

func TestMemoryCacheKeyedByUnit(t *testing.T) {
	cache := NewMemoryCache(time.Minute)
	ctx := context.Background()

	cache.Set(ctx, "org-1", UnitTraces, 100)

	_, ok := cache.Get(ctx, "org-1", UnitEvents)
	assert.False(t, ok, "a trace count must never serve an events lookup")
}

func TestMemoryCacheExpiry(t *testing.T) {
	cache := NewMemoryCache(30 * time.Second)
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return base }
	ctx := context.Background()

	cache.Set(ctx, "org-1", UnitTraces, 7)

	cache.now = func() time.Time { return base.Add(29 * time.Second) }
	_, ok := cache.Get(ctx, "org-1", UnitTraces)
	assert.True(t, ok)

	cache.now = func() time.Time { return base.Add(31 * time.Second) }
	_, ok = cache.Get(ctx, "org-1", UnitTraces)
	assert.False(t, ok)
}

func TestRedisCacheRoundTrip(t *testing.T) {
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	cache := NewRedisCache(client, time.Minute)
	ctx := context.Background()

	_, ok := cache.Get(ctx, "org-1", UnitEvents)
	assert.False(t, ok)

	cache.Set(ctx, "org-1", UnitEvents, 9000)
	count, ok := cache.Get(ctx, "org-1", UnitEvents)
	require.True(t, ok)
	assert.Equal(t, int64(9000), count)
}

func TestRedisCacheExpiry(t *testing.T) {
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	cache := NewRedisCache(client, 30*time.Second)
	ctx := context.Background()

	cache.Set(ctx, "org-1", UnitTraces, 5)
	srv.FastForward(31 * time.Second)

	_, ok := cache.Get(ctx, "org-1", UnitTraces)
	assert.False(t, ok)
}

func TestRedisCacheUnavailableDegradesToMiss(t *testing.T) {
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	cache := NewRedisCache(client, time.Minute)
	ctx := context.Background()

	cache.Set(ctx, "org-1", UnitTraces, 5)
	srv.Close()

	_, ok := cache.Get(ctx, "org-1", UnitTraces)
	assert.False(t, ok)
}
