package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func setupMemoryCache(t *testing.T, opts ...MemoryOption) (*MemoryCache, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	c, err := NewMemoryCache(zaptest.NewLogger(t), append([]MemoryOption{WithClock(clock)}, opts...)...)
	require.NoError(t, err)
	return c, clock
}

func TestNewMemoryCache(t *testing.T) {
	t.Run("nil logger", func(t *testing.T) {
		_, err := NewMemoryCache(nil)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "logger is required")
	})
}

func TestMemoryCache_GetSet(t *testing.T) {
	ctx := context.Background()
	c, _ := setupMemoryCache(t)

	_, err := c.Get(ctx, "missing")
	assert.ErrorAs(t, err, &ErrCacheKeyNotFound{})

	require.NoError(t, c.Set(ctx, "k", "v", 0))
	got, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", got)

	require.NoError(t, c.Set(ctx, "k", []byte("v2"), 0))
	got, err = c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v2", got)

	require.NoError(t, c.Delete(ctx, "k"))
	ok, err := c.Exists(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryCache_TTLIsLazy(t *testing.T) {
	ctx := context.Background()
	c, clock := setupMemoryCache(t)

	require.NoError(t, c.Set(ctx, "k", "v", time.Minute))
	clock.Advance(59 * time.Second)
	ok, _ := c.Exists(ctx, "k")
	assert.True(t, ok)

	clock.Advance(2 * time.Second)
	assert.Equal(t, 1, c.Len(), "expired entry stays until read")

	_, err := c.Get(ctx, "k")
	assert.ErrorAs(t, err, &ErrCacheKeyNotFound{})
	assert.Equal(t, 0, c.Len())

	expirations, _ := c.Stats()
	assert.Equal(t, int64(1), expirations)
}

func TestMemoryCache_Sweep(t *testing.T) {
	ctx := context.Background()
	c, clock := setupMemoryCache(t)

	require.NoError(t, c.Set(ctx, "short", "v", time.Second))
	require.NoError(t, c.Set(ctx, "long", "v", time.Hour))
	require.NoError(t, c.Set(ctx, "forever", "v", 0))

	clock.Advance(time.Minute)
	assert.Equal(t, 1, c.Sweep())
	assert.Equal(t, 2, c.Len())
}

func TestMemoryCache_MaxEntriesEvictsLRU(t *testing.T) {
	ctx := context.Background()
	c, _ := setupMemoryCache(t, WithMaxEntries(2))

	require.NoError(t, c.Set(ctx, "a", "1", 0))
	require.NoError(t, c.Set(ctx, "b", "2", 0))
	_, err := c.Get(ctx, "a") // a becomes most recent
	require.NoError(t, err)
	require.NoError(t, c.Set(ctx, "c", "3", 0))

	ok, _ := c.Exists(ctx, "b")
	assert.False(t, ok)
	ok, _ = c.Exists(ctx, "a")
	assert.True(t, ok)

	_, evictions := c.Stats()
	assert.Equal(t, int64(1), evictions)
}

func TestMemoryCache_JSON(t *testing.T) {
	ctx := context.Background()
	c, _ := setupMemoryCache(t)

	type payload struct {
		Name  string  `json:"name"`
		Score float64 `json:"score"`
	}
	require.NoError(t, c.SetJSON(ctx, "p", payload{Name: "civ", Score: 0.5}, time.Minute))

	var out payload
	require.NoError(t, c.GetJSON(ctx, "p", &out))
	assert.Equal(t, payload{Name: "civ", Score: 0.5}, out)

	require.NoError(t, c.Set(ctx, "bad", "{", 0))
	assert.Error(t, c.GetJSON(ctx, "bad", &out))
}

func TestMemoryCache_StartSweeper(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c, clock := setupMemoryCache(t)
	require.NoError(t, c.Set(ctx, "k", "v", time.Millisecond))
	clock.Advance(time.Second)

	c.StartSweeper(ctx, 5*time.Millisecond)
	assert.Eventually(t, func() bool { return c.Len() == 0 }, time.Second, 5*time.Millisecond)
}
