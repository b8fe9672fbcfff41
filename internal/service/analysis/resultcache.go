package analysis

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/davidleathers/analysis-orchestrator/internal/domain/analysis"
)

// cacheEntry is the stored form of a cached response.
type cacheEntry struct {
	Data      *analysis.Response `json:"data"`
	Timestamp time.Time          `json:"timestamp"`
}

// resultCache keys responses by request signature. It is best effort: backend
// failures are logged and reported as a miss, never as an analysis error.
type resultCache struct {
	backend Cache
	ttl     time.Duration
	prefix  string
	clock   analysis.Clock
	logger  *zap.Logger
}

func (c *resultCache) enabled() bool {
	return c != nil && c.backend != nil
}

func (c *resultCache) key(signature string) string {
	return c.prefix + signature
}

// lookup returns the cached response for signature if it is still fresh.
// Stale entries are deleted on the way out.
func (c *resultCache) lookup(ctx context.Context, signature string) (*analysis.Response, bool) {
	if !c.enabled() {
		return nil, false
	}

	key := c.key(signature)
	var entry cacheEntry
	if err := c.backend.GetJSON(ctx, key, &entry); err != nil {
		c.logger.Debug("result cache miss", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	if entry.Data == nil {
		return nil, false
	}

	if c.ttl > 0 && c.clock.Now().Sub(entry.Timestamp) > c.ttl {
		if err := c.backend.Delete(ctx, key); err != nil {
			c.logger.Warn("failed to delete stale cache entry", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	return entry.Data, true
}

func (c *resultCache) store(ctx context.Context, signature string, resp *analysis.Response) {
	if !c.enabled() {
		return
	}
	key := c.key(signature)
	entry := cacheEntry{Data: resp, Timestamp: c.clock.Now()}
	if err := c.backend.SetJSON(ctx, key, entry, c.ttl); err != nil {
		c.logger.Warn("failed to store analysis result", zap.String("key", key), zap.Error(err))
	}
}

func (c *resultCache) ping(ctx context.Context) error {
	if !c.enabled() {
		return nil
	}
	return c.backend.Ping(ctx)
}
