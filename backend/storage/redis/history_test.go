// Copyright (C) 2025 flashchat.io <dev@flashchat.io>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCache(t *testing.T) (*HistoryCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return NewHistoryCache(rdb, time.Hour, prometheus.NewRegistry()), mr
}

func TestHistoryCacheRoundTrip(t *testing.T) {
	c, _ := testCache(t)
	ctx := context.Background()
	key := "chat:group:64f000000000000000000001"
	snapshot := []byte(`[{"text":"hello"}]`)

	require.NoError(t, c.Set(ctx, key, snapshot))

	got, err := c.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, snapshot, got)
}

func TestHistoryCacheMissReturnsNil(t *testing.T) {
	c, _ := testCache(t)

	got, err := c.Get(context.Background(), "chat:group:missing")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestHistoryCacheInvalidate(t *testing.T) {
	c, _ := testCache(t)
	ctx := context.Background()
	key := "chat:private:a:b"

	require.NoError(t, c.Set(ctx, key, []byte("[]")))
	require.NoError(t, c.Invalidate(ctx, key))

	got, err := c.Get(ctx, key)
	require.NoError(t, err)
	assert.Nil(t, got)

	// Invalidating an absent key is a no-op, not an error.
	require.NoError(t, c.Invalidate(ctx, key))
}

func TestHistoryCacheEntriesExpire(t *testing.T) {
	c, mr := testCache(t)
	ctx := context.Background()
	key := "chat:group:g1"

	require.NoError(t, c.Set(ctx, key, []byte("[]")))
	assert.True(t, mr.Exists(key))

	mr.FastForward(2 * time.Hour)

	got, err := c.Get(ctx, key)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestHistoryCacheSurfacesBackendErrors(t *testing.T) {
	c, mr := testCache(t)
	mr.Close()

	_, err := c.Get(context.Background(), "chat:group:g1")
	assert.Error(t, err)
	assert.Error(t, c.Set(context.Background(), "chat:group:g1", []byte("[]")))
}
