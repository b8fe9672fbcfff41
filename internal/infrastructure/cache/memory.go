package cache

import (
	"container/list"
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Clock supplies the current time to the in-memory cache
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

type memoryEntry struct {
	key       string
	value     string
	expiresAt time.Time
}

// MemoryCache is an in-process Cache. Expired entries are dropped lazily on
// read, or eagerly by Sweep / StartSweeper. When MaxEntries is set the least
// recently used entry is evicted on overflow.
type MemoryCache struct {
	mu         sync.Mutex
	entries    map[string]*list.Element
	lru        *list.List
	maxEntries int
	clock      Clock
	logger     *zap.Logger

	expirations int64
	evictions   int64
}

// MemoryOption configures a MemoryCache
type MemoryOption func(*MemoryCache)

// WithMaxEntries bounds the cache size; zero means unbounded.
func WithMaxEntries(n int) MemoryOption {
	return func(c *MemoryCache) { c.maxEntries = n }
}

// WithClock overrides the time source.
func WithClock(clock Clock) MemoryOption {
	return func(c *MemoryCache) { c.clock = clock }
}

// NewMemoryCache creates an empty in-memory cache
func NewMemoryCache(logger *zap.Logger, opts ...MemoryOption) (*MemoryCache, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	c := &MemoryCache{
		entries: make(map[string]*list.Element),
		lru:     list.New(),
		clock:   systemClock{},
		logger:  logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Get retrieves a value by key
func (c *MemoryCache) Get(_ context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[key]
	if !ok {
		return "", ErrCacheKeyNotFound{Key: key}
	}
	entry := el.Value.(*memoryEntry)
	if c.expired(entry, c.clock.Now()) {
		c.removeElement(el)
		atomic.AddInt64(&c.expirations, 1)
		return "", ErrCacheKeyNotFound{Key: key}
	}
	c.lru.MoveToFront(el)
	return entry.value, nil
}

// Set stores a value with optional TTL
func (c *MemoryCache) Set(_ context.Context, key string, value interface{}, ttl time.Duration) error {
	var s string
	switch v := value.(type) {
	case string:
		s = v
	case []byte:
		s = string(v)
	default:
		s = fmt.Sprint(v)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = c.clock.Now().Add(ttl)
	}

	if el, ok := c.entries[key]; ok {
		entry := el.Value.(*memoryEntry)
		entry.value = s
		entry.expiresAt = expiresAt
		c.lru.MoveToFront(el)
		return nil
	}

	c.entries[key] = c.lru.PushFront(&memoryEntry{key: key, value: s, expiresAt: expiresAt})

	if c.maxEntries > 0 {
		for c.lru.Len() > c.maxEntries {
			c.removeElement(c.lru.Back())
			atomic.AddInt64(&c.evictions, 1)
		}
	}
	return nil
}

// Delete removes a key
func (c *MemoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.entries[key]; ok {
		c.removeElement(el)
	}
	return nil
}

// Exists checks if a live key exists
func (c *MemoryCache) Exists(ctx context.Context, key string) (bool, error) {
	if _, err := c.Get(ctx, key); err != nil {
		return false, nil
	}
	return true, nil
}

// GetJSON retrieves and unmarshals JSON data
func (c *MemoryCache) GetJSON(ctx context.Context, key string, dest interface{}) error {
	data, err := c.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(data), dest); err != nil {
		c.logger.Error("json unmarshal failed", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("json unmarshal failed: %w", err)
	}
	return nil
}

// SetJSON marshals and stores JSON data
func (c *MemoryCache) SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		c.logger.Error("json marshal failed", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("json marshal failed: %w", err)
	}
	return c.Set(ctx, key, data, ttl)
}

// Ping always succeeds for the in-memory backend
func (c *MemoryCache) Ping(context.Context) error { return nil }

// Close drops all entries
func (c *MemoryCache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*list.Element)
	c.lru.Init()
	return nil
}

// Len returns the number of stored entries, including not yet swept ones.
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}

// Sweep removes every expired entry and returns how many were dropped.
func (c *MemoryCache) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()
	removed := 0
	for el := c.lru.Back(); el != nil; {
		prev := el.Prev()
		if c.expired(el.Value.(*memoryEntry), now) {
			c.removeElement(el)
			removed++
		}
		el = prev
	}
	atomic.AddInt64(&c.expirations, int64(removed))
	return removed
}

// StartSweeper runs Sweep every interval until ctx is done.
func (c *MemoryCache) StartSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := c.Sweep(); n > 0 {
					c.logger.Debug("cache sweep removed expired entries", zap.Int("removed", n))
				}
			}
		}
	}()
}

// Stats reports expirations and capacity evictions since creation.
func (c *MemoryCache) Stats() (expirations, evictions int64) {
	return atomic.LoadInt64(&c.expirations), atomic.LoadInt64(&c.evictions)
}

func (c *MemoryCache) expired(e *memoryEntry, now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

func (c *MemoryCache) removeElement(el *list.Element) {
	entry := el.Value.(*memoryEntry)
	delete(c.entries, entry.key)
	c.lru.Remove(el)
}
