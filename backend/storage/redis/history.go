// Copyright (C) 2025 flashchat.io <dev@flashchat.io>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
)

// DefaultTTL bounds the staleness window if an invalidation is ever missed
// (e.g. a crash between the database write and the cache delete).
const DefaultTTL = 3600 * time.Second

// HistoryCache stores serialized conversation snapshots keyed by conversation
// key (chat:private:<a>:<b> or chat:group:<id>). Snapshots are stored in final
// response shape, so a hit is served verbatim without touching the database.
type HistoryCache struct {
	rdb     *redis.Client
	ttl     time.Duration
	metrics *cacheMetrics
}

func NewHistoryCache(rdb *redis.Client, ttl time.Duration, reg prometheus.Registerer) *HistoryCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &HistoryCache{
		rdb:     rdb,
		ttl:     ttl,
		metrics: newCacheMetrics(reg),
	}
}

// Get returns the cached snapshot, or (nil, nil) on a miss.
func (c *HistoryCache) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		c.metrics.misses.Inc()
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cache get %s: %w", key, err)
	}
	c.metrics.hits.Inc()
	return data, nil
}

func (c *HistoryCache) Set(ctx context.Context, key string, snapshot []byte) error {
	if err := c.rdb.Set(ctx, key, snapshot, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set %s: %w", key, err)
	}
	return nil
}

// Invalidate deletes the snapshot for key. Idempotent; deleting an absent key
// is not an error.
func (c *HistoryCache) Invalidate(ctx context.Context, key string) error {
	if err := c.rdb.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("cache invalidate %s: %w", key, err)
	}
	return nil
}

type cacheMetrics struct {
	hits   prometheus.Counter
	misses prometheus.Counter
}

func newCacheMetrics(reg prometheus.Registerer) *cacheMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &cacheMetrics{
		hits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "flashchat_history_cache_hits_total",
			Help: "Conversation history reads served from cache.",
		}),
		misses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "flashchat_history_cache_misses_total",
			Help: "Conversation history reads that fell through to the database.",
		}),
	}
	reg.MustRegister(m.hits, m.misses)
	return m
}
