package lookup

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	gocache "github.com/patrickmn/go-cache"

	"github.com/achildrenmile/oeradio-mcp/internal/logging"
	"github.com/achildrenmile/oeradio-mcp/internal/redisclient"
)

// ResultCache stores terminal lookup results (hits and misses alike) keyed
// by normalized callsign, with TTL expiry.
type ResultCache interface {
	Get(ctx context.Context, key string) (Result, bool)
	Set(ctx context.Context, key string, res Result)
}

// MemoryCache is the in-process TTL cache tier.
type MemoryCache struct {
	cache *gocache.Cache
}

// NewMemoryCache creates an in-memory result cache with the given TTL.
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{cache: gocache.New(ttl, 2*ttl)}
}

// Get implements ResultCache.
func (m *MemoryCache) Get(_ context.Context, key string) (Result, bool) {
	if v, found := m.cache.Get(key); found {
		return v.(Result), true
	}
	return Result{}, false
}

// Set implements ResultCache.
func (m *MemoryCache) Set(_ context.Context, key string, res Result) {
	m.cache.Set(key, res, gocache.DefaultExpiration)
}

const redisKeyPrefix = "oecall:lookup:"

// RedisCache is the shared Redis cache tier; results are stored as JSON
// with the TTL applied server-side.
type RedisCache struct {
	rdb *redisclient.Client
	ttl time.Duration
}

// NewRedisCache creates a Redis-backed result cache.
func NewRedisCache(rdb *redisclient.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{rdb: rdb, ttl: ttl}
}

// Get implements ResultCache. Errors surface as cache misses; the fallback
// wrapper decides whether to switch tiers.
func (r *RedisCache) Get(ctx context.Context, key string) (Result, bool) {
	data, err := r.rdb.Get(ctx, redisKeyPrefix+key).Bytes()
	if err != nil {
		return Result{}, false
	}
	var res Result
	if err := json.Unmarshal(data, &res); err != nil {
		return Result{}, false
	}
	return res, true
}

// Set implements ResultCache.
func (r *RedisCache) Set(ctx context.Context, key string, res Result) {
	data, err := json.Marshal(res)
	if err != nil {
		return
	}
	if err := r.rdb.Set(ctx, redisKeyPrefix+key, data, r.ttl).Err(); err != nil {
		logging.Warn("redis cache: set %s failed: %v", key, err)
	}
}

// getter is the error-aware read used by FallbackCache to detect outages.
func (r *RedisCache) getChecked(ctx context.Context, key string) (Result, bool, error) {
	data, err := r.rdb.Get(ctx, redisKeyPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Result{}, false, nil
		}
		return Result{}, false, err
	}
	var res Result
	if err := json.Unmarshal(data, &res); err != nil {
		return Result{}, false, nil
	}
	return res, true, nil
}

// FallbackCache reads and writes Redis first and falls back to the
// in-memory tier when Redis misbehaves, so a connection loss never blocks
// lookups. Writes always land in the memory tier too; entries survive a
// short Redis outage that way.
type FallbackCache struct {
	primary  *RedisCache
	fallback *MemoryCache

	mu              sync.RWMutex
	isUsingFallback bool
	lastError       error
	lastErrorTime   time.Time
}

// NewFallbackCache wraps a Redis tier over the in-memory tier. primary may
// be nil, in which case only the memory tier is used.
func NewFallbackCache(primary *RedisCache, fallback *MemoryCache) *FallbackCache {
	return &FallbackCache{primary: primary, fallback: fallback}
}

// Get implements ResultCache.
func (f *FallbackCache) Get(ctx context.Context, key string) (Result, bool) {
	f.mu.RLock()
	usingFallback := f.isUsingFallback
	f.mu.RUnlock()

	if f.primary == nil || usingFallback {
		return f.fallback.Get(ctx, key)
	}

	res, found, err := f.primary.getChecked(ctx, key)
	if err != nil {
		logging.Warn("lookup cache: Redis read failed: %v. Using in-memory fallback.", err)
		f.recordError(err)
		return f.fallback.Get(ctx, key)
	}
	if found {
		return res, true
	}
	return f.fallback.Get(ctx, key)
}

// Set implements ResultCache.
func (f *FallbackCache) Set(ctx context.Context, key string, res Result) {
	f.fallback.Set(ctx, key, res)

	f.mu.RLock()
	usingFallback := f.isUsingFallback
	f.mu.RUnlock()

	if f.primary != nil && !usingFallback {
		f.primary.Set(ctx, key, res)
	}
}

// recordError retains the error and activates fallback mode once.
func (f *FallbackCache) recordError(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastError = err
	f.lastErrorTime = time.Now()
	if !f.isUsingFallback {
		logging.Error("lookup cache: Redis error detected, activating in-memory fallback: %v", err)
		f.isUsingFallback = true
	}
}

// IsFallbackActive reports whether the memory tier is serving alone.
func (f *FallbackCache) IsFallbackActive() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.isUsingFallback
}

// LastError returns the last Redis error encountered (for diagnostics).
func (f *FallbackCache) LastError() (time.Time, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.lastErrorTime, f.lastError
}
