// Package cache stores rendered search responses. Keys combine the query
// text, the options that shape the response and the corpus fingerprint, so
// a reloaded corpus never serves stale results. Concurrent misses for the
// same key are computed once.
package cache

import (
	"context"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/Adithya-Monish-Kumar-K/wosp/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/wosp/pkg/resilience"
)

const keyPrefix = "wosp:search:"

// Store is the backing key-value store, normally Redis.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	FlushByPattern(ctx context.Context, pattern string) (int64, error)
}

type QueryCache struct {
	store   Store
	ttl     time.Duration
	breaker *resilience.CircuitBreaker
	group   singleflight.Group
	metrics *metrics.Metrics
	logger  *slog.Logger
	hits    atomic.Int64
	misses  atomic.Int64
}

// New creates a cache over store. Store failures are logged and treated as
// misses; after repeated failures the breaker opens and the store is
// bypassed until it recovers. m may be nil.
func New(store Store, ttl time.Duration, m *metrics.Metrics) *QueryCache {
	c := &QueryCache{
		store:   store,
		ttl:     ttl,
		metrics: m,
		logger:  slog.Default().With("component", "query-cache"),
	}
	c.breaker = resilience.NewCircuitBreaker("result-cache", resilience.CircuitBreakerConfig{
		FailureThreshold: 5,
		ResetTimeout:     30 * time.Second,
		OnStateChange: func(name string, to resilience.State) {
			if m != nil {
				m.CircuitBreakerState.WithLabelValues(name).Set(float64(to))
			}
		},
	})
	return c
}

// Key derives a cache key from the query and every option that changes the
// response. Whitespace runs in the query are collapsed; case is kept since
// it can change the result.
func Key(query string, parts ...string) string {
	h := sha256.New()
	h.Write([]byte(strings.Join(strings.Fields(query), " ")))
	for _, p := range parts {
		h.Write([]byte{0})
		h.Write([]byte(p))
	}
	return fmt.Sprintf("%s%x", keyPrefix, h.Sum(nil)[:16])
}

func (c *QueryCache) get(ctx context.Context, key string) ([]byte, bool) {
	var (
		value []byte
		found bool
	)
	err := c.breaker.Execute(func() error {
		var err error
		value, found, err = c.store.Get(ctx, key)
		return err
	})
	if err != nil {
		c.logger.Warn("cache get failed", "key", key, "error", err)
		return nil, false
	}
	return value, found
}

func (c *QueryCache) set(ctx context.Context, key string, value []byte) {
	err := c.breaker.Execute(func() error {
		return c.store.Set(ctx, key, value, c.ttl)
	})
	if err != nil {
		c.logger.Warn("cache set failed", "key", key, "error", err)
	}
}

func (c *QueryCache) hit() {
	c.hits.Add(1)
	if c.metrics != nil {
		c.metrics.CacheHitsTotal.Inc()
	}
}

func (c *QueryCache) miss() {
	c.misses.Add(1)
	if c.metrics != nil {
		c.metrics.CacheMissesTotal.Inc()
	}
}

// GetOrCompute returns the cached value for key, or runs compute and caches
// its result. cached reports whether the value came from the store. Errors
// from compute are returned as is and never cached.
func (c *QueryCache) GetOrCompute(ctx context.Context, key string, compute func(ctx context.Context) ([]byte, error)) (value []byte, cached bool, err error) {
	start := time.Now()
	if v, ok := c.get(ctx, key); ok {
		c.hit()
		if c.metrics != nil {
			c.metrics.QueryLatency.WithLabelValues("hit").Observe(time.Since(start).Seconds())
		}
		c.logger.Debug("cache hit", "key", key)
		return v, true, nil
	}
	c.miss()
	val, err, _ := c.group.Do(key, func() (any, error) {
		v, err := compute(ctx)
		if err != nil {
			return nil, err
		}
		c.set(ctx, key, v)
		return v, nil
	})
	if err != nil {
		return nil, false, err
	}
	return val.([]byte), false, nil
}

// Invalidate removes every cached response.
func (c *QueryCache) Invalidate(ctx context.Context) (int64, error) {
	var deleted int64
	err := c.breaker.Execute(func() error {
		var err error
		deleted, err = c.store.FlushByPattern(ctx, keyPrefix+"*")
		return err
	})
	if err != nil {
		return deleted, fmt.Errorf("invalidating cache: %w", err)
	}
	c.logger.Info("cache invalidated", "keys_deleted", deleted)
	return deleted, nil
}

type Stats struct {
	Hits    int64   `json:"hits"`
	Misses  int64   `json:"misses"`
	HitRate float64 `json:"hit_rate"`
	Breaker string  `json:"breaker"`
}

func (c *QueryCache) Stats() Stats {
	s := Stats{
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
		Breaker: c.breaker.State().String(),
	}
	if total := s.Hits + s.Misses; total > 0 {
		s.HitRate = float64(s.Hits) / float64(total)
	}
	return s
}
