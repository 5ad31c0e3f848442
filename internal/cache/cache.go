// Package cache implements the profile read cache: an in-memory L1 with an
// optional Redis L2. Entries are invalidated explicitly by profile writers.
package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/amishk599/talentmesh/internal/model"
)

const keyPrefix = "tm:profile:"

// Ensure TieredCache implements model.ProfileCache.
var _ model.ProfileCache = (*TieredCache)(nil)

// Options configure a TieredCache.
type Options struct {
	TTL        time.Duration
	MaxEntries int
	RedisURL   string
}

// TieredCache caches keyword profiles in memory and, when configured, in Redis.
type TieredCache struct {
	mu         sync.Mutex
	l1         map[string]entry
	rdb        *redis.Client
	ttl        time.Duration
	maxEntries int
	now        func() time.Time
	logger     *slog.Logger

	hits   atomic.Int64
	misses atomic.Int64
}

type entry struct {
	profile   model.KeywordProfile
	expiresAt time.Time
}

// New creates a cache. An empty or unreachable Redis URL disables L2 with a
// warning; the cache keeps working in memory.
func New(ctx context.Context, opts Options, logger *slog.Logger) *TieredCache {
	if opts.TTL <= 0 {
		opts.TTL = 15 * time.Minute
	}
	c := &TieredCache{
		l1:         make(map[string]entry),
		ttl:        opts.TTL,
		maxEntries: opts.MaxEntries,
		now:        time.Now,
		logger:     logger,
	}

	if opts.RedisURL != "" {
		redisOpts, err := redis.ParseURL(opts.RedisURL)
		if err != nil {
			logger.Warn("invalid redis url, L2 cache disabled", "error", err)
		} else {
			rdb := redis.NewClient(redisOpts)
			pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
			defer cancel()
			if err := rdb.Ping(pingCtx).Err(); err != nil {
				logger.Warn("redis unreachable, L2 cache disabled", "error", err)
				rdb.Close()
			} else {
				c.rdb = rdb
				logger.Info("profile cache L2 connected", "addr", redisOpts.Addr)
			}
		}
	}

	logger.Debug("profile cache initialized", "ttl", c.ttl, "redis", c.rdb != nil, "max_entries", c.maxEntries)
	return c
}

// Get returns the cached profile of owner, trying L1 then L2. An L2 hit
// repopulates L1.
func (c *TieredCache) Get(ctx context.Context, owner model.Owner) (model.KeywordProfile, bool) {
	key := keyPrefix + owner.Key()

	c.mu.Lock()
	e, ok := c.l1[key]
	if ok && c.now().Before(e.expiresAt) {
		c.mu.Unlock()
		c.hits.Add(1)
		return e.profile, true
	}
	if ok {
		delete(c.l1, key)
	}
	c.mu.Unlock()

	if c.rdb != nil {
		data, err := c.rdb.Get(ctx, key).Bytes()
		if err == nil {
			var p model.KeywordProfile
			if json.Unmarshal(data, &p) == nil {
				c.store(key, p)
				c.hits.Add(1)
				return p, true
			}
		} else if err != redis.Nil {
			c.logger.Debug("L2 cache get failed", "key", key, "error", err)
		}
	}

	c.misses.Add(1)
	return model.KeywordProfile{}, false
}

// Set stores p in both tiers.
func (c *TieredCache) Set(ctx context.Context, p model.KeywordProfile) {
	key := keyPrefix + p.Owner.Key()
	c.store(key, p)

	if c.rdb == nil {
		return
	}
	data, err := json.Marshal(p)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Debug("L2 cache set failed", "key", key, "error", err)
	}
}

// Invalidate drops owner from both tiers.
func (c *TieredCache) Invalidate(ctx context.Context, owner model.Owner) {
	key := keyPrefix + owner.Key()

	c.mu.Lock()
	delete(c.l1, key)
	c.mu.Unlock()

	if c.rdb != nil {
		if err := c.rdb.Del(ctx, key).Err(); err != nil {
			c.logger.Warn("L2 cache invalidate failed", "key", key, "error", err)
		}
	}
}

// Stats returns hit and miss counters.
func (c *TieredCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

// Close releases the Redis connection, if any.
func (c *TieredCache) Close() error {
	if c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}

func (c *TieredCache) store(key string, p model.KeywordProfile) {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	if _, exists := c.l1[key]; !exists {
		c.evictLocked(now)
	}
	c.l1[key] = entry{profile: p, expiresAt: now.Add(c.ttl)}
}

// evictLocked makes room for one entry: expired entries go first, then the
// entries closest to expiry.
func (c *TieredCache) evictLocked(now time.Time) {
	if c.maxEntries <= 0 || len(c.l1) < c.maxEntries {
		return
	}
	for k, e := range c.l1 {
		if !now.Before(e.expiresAt) {
			delete(c.l1, k)
		}
	}
	for len(c.l1) >= c.maxEntries {
		var oldestKey string
		var oldestAt time.Time
		for k, e := range c.l1 {
			if oldestKey == "" || e.expiresAt.Before(oldestAt) || (e.expiresAt.Equal(oldestAt) && k < oldestKey) {
				oldestKey, oldestAt = k, e.expiresAt
			}
		}
		delete(c.l1, oldestKey)
	}
}

// Nop never caches. Used when caching is disabled.
type Nop struct{}

func (Nop) Get(context.Context, model.Owner) (model.KeywordProfile, bool) {
	return model.KeywordProfile{}, false
}
func (Nop) Set(context.Context, model.KeywordProfile) {}
func (Nop) Invalidate(context.Context, model.Owner) {}
