package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/davidleathers/analysis-orchestrator/internal/infrastructure/config"
)

func setupTestRedis(t *testing.T) (*redisCache, *miniredis.Miniredis, func()) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	cfg := &config.RedisConfig{
		URL:          mr.Addr(),
		PoolSize:     5,
		MinIdleConns: 1,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}

	cache, err := NewRedisCache(cfg, zaptest.NewLogger(t))
	require.NoError(t, err)

	cleanup := func() {
		cache.Close()
		mr.Close()
	}
	return cache.(*redisCache), mr, cleanup
}

func TestNewRedisCache(t *testing.T) {
	t.Run("successful creation", func(t *testing.T) {
		cache, _, cleanup := setupTestRedis(t)
		defer cleanup()

		assert.NotNil(t, cache.client)
		assert.NoError(t, cache.Ping(context.Background()))
	})

	t.Run("nil logger", func(t *testing.T) {
		_, err := NewRedisCache(&config.RedisConfig{}, nil)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "logger is required")
	})

	t.Run("nil config", func(t *testing.T) {
		_, err := NewRedisCache(nil, zaptest.NewLogger(t))
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "redis config is required")
	})

	t.Run("unreachable server", func(t *testing.T) {
		mr, err := miniredis.Run()
		require.NoError(t, err)
		addr := mr.Addr()
		mr.Close()

		_, err = NewRedisCache(&config.RedisConfig{URL: addr, DialTimeout: 100 * time.Millisecond}, zaptest.NewLogger(t))
		assert.Error(t, err)
	})
}

func TestRedisCache_Operations(t *testing.T) {
	cache, mr, cleanup := setupTestRedis(t)
	defer cleanup()
	ctx := context.Background()

	t.Run("get missing key", func(t *testing.T) {
		_, err := cache.Get(ctx, "missing")
		assert.ErrorAs(t, err, &ErrCacheKeyNotFound{})
	})

	t.Run("set with ttl", func(t *testing.T) {
		require.NoError(t, cache.Set(ctx, "k", "v", time.Minute))
		got, err := cache.Get(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, "v", got)

		mr.FastForward(2 * time.Minute)
		ok, err := cache.Exists(ctx, "k")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("json round trip", func(t *testing.T) {
		in := map[string]interface{}{"id": "analysis-1", "confidence": 0.8}
		require.NoError(t, cache.SetJSON(ctx, "json", in, time.Minute))

		var out map[string]interface{}
		require.NoError(t, cache.GetJSON(ctx, "json", &out))
		assert.Equal(t, "analysis-1", out["id"])
		assert.Equal(t, 0.8, out["confidence"])
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, cache.Set(ctx, "gone", "v", 0))
		require.NoError(t, cache.Delete(ctx, "gone"))
		assert.False(t, mr.Exists("gone"))
	})

	t.Run("backend failure surfaces", func(t *testing.T) {
		mr.SetError("ERR backend unavailable")
		defer mr.SetError("")
		_, err := cache.Get(ctx, "k")
		require.Error(t, err)
		var notFound ErrCacheKeyNotFound
		assert.False(t, errors.As(err, &notFound))
	})
}

func TestNew_SelectsBackend(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := config.Defaults()
	c, err := New(ctx, cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.IsType(t, &MemoryCache{}, c)

	mr := miniredis.RunT(t)
	cfg.Cache.Backend = "redis"
	cfg.Cache.Redis.URL = mr.Addr()
	c, err = New(ctx, cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer c.Close()
	assert.IsType(t, &redisCache{}, c)

	cfg.Cache.Backend = "memcached"
	_, err = New(ctx, cfg, zaptest.NewLogger(t))
	assert.Error(t, err)
}
