package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	domain "github.com/davidleathers/analysis-orchestrator/internal/domain/analysis"
	"github.com/davidleathers/analysis-orchestrator/internal/infrastructure/cache"
	"github.com/davidleathers/analysis-orchestrator/internal/infrastructure/config"
	"github.com/davidleathers/analysis-orchestrator/internal/infrastructure/events"
	"github.com/davidleathers/analysis-orchestrator/internal/infrastructure/instrumentation"
	"github.com/davidleathers/analysis-orchestrator/internal/infrastructure/telemetry"
	"github.com/davidleathers/analysis-orchestrator/internal/metrics"
	"github.com/davidleathers/analysis-orchestrator/internal/service/analysis"
)

const instrumentationName = "github.com/davidleathers/analysis-orchestrator"

// ServiceFactories builds services from configuration and owns the
// infrastructure they are wired to.
type ServiceFactories struct {
	config *config.Config
	logger *zap.Logger

	mu      sync.Mutex
	sinks   []events.Notifier
	closers []func() error
}

// NewServiceFactories creates a new service factory collection
func NewServiceFactories(cfg *config.Config, logger *zap.Logger) (*ServiceFactories, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &ServiceFactories{config: cfg, logger: logger}, nil
}

// EngineConfig maps the process configuration onto the engine's settings.
func EngineConfig(cfg *config.Config) analysis.Config {
	return analysis.Config{
		Models: analysis.ModelVersions{
			Primary:  cfg.Models.PrimaryModel,
			Fallback: cfg.Models.FallbackModel,
			Research: cfg.Models.ResearchModel,
		},
		DefaultDepth:            domain.Depth(cfg.Analysis.DefaultDepth),
		EnablePredictions:       cfg.Analysis.EnablePredictions,
		EnableRecommendations:   cfg.Analysis.EnableRecommendations,
		EnableComparisons:       cfg.Analysis.EnableComparisons,
		ConfidenceThreshold:     cfg.Analysis.ConfidenceThreshold,
		MaxInsights:             cfg.Analysis.MaxInsights,
		MaxRecommendations:      cfg.Analysis.MaxRecommendations,
		IncludeEvidence:         cfg.Output.IncludeEvidence,
		CacheEnabled:            cfg.Performance.CacheEnabled,
		CacheTTL:                cfg.Performance.CacheTTL,
		CacheKeyPrefix:          cfg.Cache.KeyPrefix,
		ParallelProcessing:      cfg.Performance.ParallelProcessing,
		MaxConcurrentAnalyses:   cfg.Performance.MaxConcurrentAnalyses,
		MaxQueuedAnalyses:       cfg.Performance.MaxQueuedAnalyses,
		Timeout:                 cfg.Performance.Timeout,
		HistorySize:             cfg.Performance.HistorySize,
		HistoryTTL:              cfg.Performance.HistoryTTL,
		EnabledSystems:          append([]string(nil), cfg.Integration.EnabledSystems...),
		EvaluateRulesOnCacheHit: cfg.Monitoring.EvaluateOnCacheHit,
		MaxEvents:               cfg.Monitoring.MaxEvents,
		NotificationQueueSize:   cfg.Monitoring.NotificationQueueSize,
		NotificationTimeout:     cfg.Monitoring.NotificationTimeout,
	}
}

// CreateNotifier builds the notification chain: the log sink, a webhook sink
// when endpoints are configured, then any extra sinks.
func (f *ServiceFactories) CreateNotifier(extra ...events.Notifier) (*events.MultiNotifier, error) {
	logSink, err := events.NewLogNotifier(f.logger)
	if err != nil {
		return nil, err
	}
	sinks := []events.Notifier{logSink}

	if len(f.config.Integration.WebhookEndpoints) > 0 {
		webhooks, err := events.NewWebhookNotifierFromConfig(f.config.Integration, f.logger)
		if err != nil {
			return nil, fmt.Errorf("creating webhook notifier: %w", err)
		}
		sinks = append(sinks, webhooks)
	}

	sinks = append(sinks, extra...)
	return events.NewMultiNotifier(sinks...), nil
}

// AddNotificationSinks registers sinks that engines created afterwards notify
// in addition to the configured chain.
func (f *ServiceFactories) AddNotificationSinks(sinks ...events.Notifier) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sinks = append(f.sinks, sinks...)
}

// CreateCache builds the configured result cache backend. The factory closes
// it on Close.
func (f *ServiceFactories) CreateCache(ctx context.Context) (cache.Cache, error) {
	c, err := cache.New(ctx, f.config, f.logger.Named("cache"))
	if err != nil {
		return nil, err
	}
	f.onClose(c.Close)
	return c, nil
}

// CreateAnalysisEngine wires an engine to the configured cache, notifier chain
// and OpenTelemetry metric registry. opts are applied last. The factory drains
// the engine's pending notifications on Close.
func (f *ServiceFactories) CreateAnalysisEngine(ctx context.Context, opts ...analysis.Option) (*analysis.Engine, error) {
	f.mu.Lock()
	sinks := append([]events.Notifier(nil), f.sinks...)
	f.mu.Unlock()

	notifier, err := f.CreateNotifier(sinks...)
	if err != nil {
		return nil, err
	}

	registry, err := metrics.NewRegistry(telemetry.Meter(instrumentationName))
	if err != nil {
		return nil, fmt.Errorf("creating metrics registry: %w", err)
	}

	base := []analysis.Option{
		analysis.WithLogger(f.logger.Named("analysis")),
		analysis.WithNotifier(notifier),
		analysis.WithMetricsCollector(registry),
	}
	if f.config.Performance.CacheEnabled {
		c, err := f.CreateCache(ctx)
		if err != nil {
			return nil, fmt.Errorf("creating result cache: %w", err)
		}
		base = append(base, analysis.WithCache(c))
	}

	engine, err := analysis.NewEngine(EngineConfig(f.config), append(base, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("creating analysis engine: %w", err)
	}
	f.onClose(func() error {
		ctx, cancel := context.WithTimeout(context.Background(), f.config.Monitoring.NotificationTimeout+time.Second)
		defer cancel()
		return engine.Close(ctx)
	})
	f.logger.Info("analysis engine created",
		zap.Int("max_concurrent", f.config.Performance.MaxConcurrentAnalyses),
		zap.Bool("cache_enabled", f.config.Performance.CacheEnabled),
		zap.String("cache_backend", f.config.Cache.Backend),
		zap.Strings("enabled_systems", f.config.Integration.EnabledSystems),
	)
	return engine, nil
}

// CreateAnalysisService returns the engine behind the tracing decorator.
func (f *ServiceFactories) CreateAnalysisService(ctx context.Context, opts ...analysis.Option) (analysis.Service, error) {
	engine, err := f.CreateAnalysisEngine(ctx, opts...)
	if err != nil {
		return nil, err
	}
	tracer := telemetry.NewTracer(instrumentationName)
	return instrumentation.NewAnalysisTracedService(engine, tracer, f.logger), nil
}

func (f *ServiceFactories) onClose(fn func() error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closers = append(f.closers, fn)
}

// Close releases infrastructure created by the factories, newest first.
func (f *ServiceFactories) Close() error {
	f.mu.Lock()
	closers := f.closers
	f.closers = nil
	f.mu.Unlock()

	var errs []error
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
