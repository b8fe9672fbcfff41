package cache

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/davidleathers/analysis-orchestrator/internal/infrastructure/config"
)

// New builds the backend selected by cfg.Backend. For the memory backend a
// sweeper is started when sweepInterval is positive; it stops with ctx.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (Cache, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	switch cfg.Cache.Backend {
	case "redis":
		return NewRedisCache(&cfg.Cache.Redis, logger)
	case "memory", "":
		mc, err := NewMemoryCache(logger, WithMaxEntries(cfg.Cache.MaxEntries))
		if err != nil {
			return nil, err
		}
		mc.StartSweeper(ctx, cfg.Performance.CacheSweepInterval)
		logger.Info("memory result cache initialized",
			zap.Int("max_entries", cfg.Cache.MaxEntries),
			zap.Duration("sweep_interval", cfg.Performance.CacheSweepInterval))
		return mc, nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Cache.Backend)
	}
}
