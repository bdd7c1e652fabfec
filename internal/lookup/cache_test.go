package lookup_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/achildrenmile/oeradio-mcp/internal/config"
	"github.com/achildrenmile/oeradio-mcp/internal/lookup"
	"github.com/achildrenmile/oeradio-mcp/internal/redisclient"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redisclient.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb, err := redisclient.NewClient(context.Background(), config.RedisConfig{
		Enabled: true,
		Host:    mr.Host(),
		Port:    mr.Port(),
	})
	require.NoError(t, err)
	t.Cleanup(func() { rdb.Close() })
	return mr, rdb
}

func sampleResult() lookup.Result {
	return lookup.Result{
		Callsign: "OE1ABC",
		Exists:   true,
		Source:   lookup.SourceLocal,
		Entry:    &lookup.Entry{Callsign: "OE1ABC", Name: "Hans Muster", District: 1},
	}
}

func TestMemoryCacheRoundtrip(t *testing.T) {
	cache := lookup.NewMemoryCache(time.Minute)
	ctx := context.Background()

	_, found := cache.Get(ctx, "OE1ABC")
	assert.False(t, found)

	cache.Set(ctx, "OE1ABC", sampleResult())
	res, found := cache.Get(ctx, "OE1ABC")
	require.True(t, found)
	assert.Equal(t, sampleResult(), res)
}

func TestRedisCacheRoundtrip(t *testing.T) {
	mr, rdb := newTestRedis(t)
	cache := lookup.NewRedisCache(rdb, time.Hour)
	ctx := context.Background()

	_, found := cache.Get(ctx, "OE1ABC")
	assert.False(t, found)

	cache.Set(ctx, "OE1ABC", sampleResult())
	res, found := cache.Get(ctx, "OE1ABC")
	require.True(t, found)
	assert.Equal(t, "OE1ABC", res.Callsign)
	require.NotNil(t, res.Entry)
	assert.Equal(t, "Hans Muster", res.Entry.Name)

	// TTL is applied server-side.
	ttl := mr.TTL("oecall:lookup:OE1ABC")
	assert.True(t, ttl > 0 && ttl <= time.Hour, "ttl = %s", ttl)
}

func TestFallbackCacheWritesBothTiers(t *testing.T) {
	_, rdb := newTestRedis(t)
	memory := lookup.NewMemoryCache(time.Minute)
	cache := lookup.NewFallbackCache(lookup.NewRedisCache(rdb, time.Hour), memory)
	ctx := context.Background()

	cache.Set(ctx, "OE1ABC", sampleResult())

	res, found := cache.Get(ctx, "OE1ABC")
	require.True(t, found)
	assert.Equal(t, "OE1ABC", res.Callsign)

	// The memory tier carries the entry too.
	_, found = memory.Get(ctx, "OE1ABC")
	assert.True(t, found)
	assert.False(t, cache.IsFallbackActive())
}

func TestFallbackCacheActivatesOnRedisOutage(t *testing.T) {
	mr, rdb := newTestRedis(t)
	memory := lookup.NewMemoryCache(time.Minute)
	cache := lookup.NewFallbackCache(lookup.NewRedisCache(rdb, time.Hour), memory)
	ctx := context.Background()

	cache.Set(ctx, "OE1ABC", sampleResult())
	mr.Close()

	res, found := cache.Get(ctx, "OE1ABC")
	require.True(t, found, "memory tier should serve through the outage")
	assert.Equal(t, "OE1ABC", res.Callsign)
	assert.True(t, cache.IsFallbackActive())

	when, err := cache.LastError()
	assert.Error(t, err)
	assert.False(t, when.IsZero())

	// Further traffic stays on the memory tier without erroring.
	cache.Set(ctx, "OE2DEF", lookup.Result{Callsign: "OE2DEF", Source: lookup.SourceNotFound})
	res, found = cache.Get(ctx, "OE2DEF")
	require.True(t, found)
	assert.Equal(t, "OE2DEF", res.Callsign)
}

func TestFallbackCacheNilPrimary(t *testing.T) {
	memory := lookup.NewMemoryCache(time.Minute)
	cache := lookup.NewFallbackCache(nil, memory)
	ctx := context.Background()

	cache.Set(ctx, "OE1ABC", sampleResult())
	res, found := cache.Get(ctx, "OE1ABC")
	require.True(t, found)
	assert.Equal(t, "OE1ABC", res.Callsign)
	assert.False(t, cache.IsFallbackActive())
}
