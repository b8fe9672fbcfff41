package service

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/davidleathers/analysis-orchestrator/internal/domain/analysis"
	"github.com/davidleathers/analysis-orchestrator/internal/infrastructure/config"
	"github.com/davidleathers/analysis-orchestrator/internal/infrastructure/events"
	"github.com/davidleathers/analysis-orchestrator/internal/service/analysis"
	"github.com/davidleathers/analysis-orchestrator/internal/testutil"
	"github.com/davidleathers/analysis-orchestrator/internal/testutil/fixtures"
)

func setupFactories(t *testing.T, cfg *config.Config) *ServiceFactories {
	t.Helper()
	f, err := NewServiceFactories(cfg, testutil.TestLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, f.Close()) })
	return f
}

func TestNewServiceFactories_RequiresDependencies(t *testing.T) {
	_, err := NewServiceFactories(nil, testutil.TestLogger(t))
	assert.Error(t, err)
	_, err = NewServiceFactories(config.Defaults(), nil)
	assert.Error(t, err)
}

func TestEngineConfig(t *testing.T) {
	cfg := config.Defaults()
	cfg.Analysis.DefaultDepth = "deep"
	cfg.Performance.MaxQueuedAnalyses = 3
	cfg.Output.IncludeEvidence = false
	cfg.Monitoring.EvaluateOnCacheHit = true
	cfg.Monitoring.NotificationQueueSize = 7
	cfg.Integration.EnabledSystems = []string{"economic"}

	got := EngineConfig(cfg)

	assert.Equal(t, analysis.ModelVersions{Primary: "gpt-4", Fallback: "gpt-3.5-turbo", Research: "gpt-4"}, got.Models)
	assert.Equal(t, domain.DepthDeep, got.DefaultDepth)
	assert.Equal(t, 0.7, got.ConfidenceThreshold)
	assert.Equal(t, 20, got.MaxInsights)
	assert.Equal(t, 10, got.MaxRecommendations)
	assert.False(t, got.IncludeEvidence)
	assert.Equal(t, time.Hour, got.CacheTTL)
	assert.Equal(t, "analysis:result:", got.CacheKeyPrefix)
	assert.Equal(t, 5, got.MaxConcurrentAnalyses)
	assert.Equal(t, 3, got.MaxQueuedAnalyses)
	assert.Equal(t, 5*time.Minute, got.Timeout)
	assert.True(t, got.EvaluateRulesOnCacheHit)
	assert.Equal(t, 7, got.NotificationQueueSize)
	assert.Equal(t, 10*time.Second, got.NotificationTimeout)
	assert.Equal(t, []string{"economic"}, got.EnabledSystems)

	// The mapping does not alias the source slice
	got.EnabledSystems[0] = "social"
	assert.Equal(t, "economic", cfg.Integration.EnabledSystems[0])
}

func TestCreateNotifier(t *testing.T) {
	t.Run("log sink only", func(t *testing.T) {
		n, err := setupFactories(t, config.Defaults()).CreateNotifier()
		require.NoError(t, err)
		assert.Equal(t, 1, n.Len())
	})

	t.Run("webhooks and extra sinks", func(t *testing.T) {
		cfg := config.Defaults()
		cfg.Integration.WebhookEndpoints = []config.WebhookEndpointConfig{{URL: "http://127.0.0.1:1/hook"}}
		n, err := setupFactories(t, cfg).CreateNotifier(events.NewChannelNotifier(1))
		require.NoError(t, err)
		assert.Equal(t, 3, n.Len())
	})
}

func TestCreateAnalysisEngine_MemoryCache(t *testing.T) {
	cfg := config.Defaults()
	sink := events.NewChannelNotifier(4)
	f := setupFactories(t, cfg)

	f.AddNotificationSinks(sink)
	engine, err := f.CreateAnalysisEngine(testutil.TestContext(t))
	require.NoError(t, err)
	ctx := testutil.TestContext(t)

	req := fixtures.NewRequestBuilder(t).
		WithType(domain.TypeCrisis).
		WithPolitical(fixtures.CrisisPolitical()).
		Build()
	first, err := engine.PerformAnalysis(ctx, req)
	require.NoError(t, err)
	require.NoError(t, engine.FlushNotifications(ctx))

	select {
	case n := <-sink.C():
		assert.Equal(t, "crisis_threshold", n.RuleID)
		assert.Equal(t, first.ID, n.AnalysisID)
	case <-time.After(time.Second):
		t.Fatal("expected a crisis notification")
	}

	second, err := engine.PerformAnalysis(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "enabled", engine.Health(ctx).Checks["cache"])
}

func TestCreateAnalysisEngine_RedisCache(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := config.Defaults()
	cfg.Cache.Backend = "redis"
	cfg.Cache.Redis.URL = mr.Addr()

	engine, err := setupFactories(t, cfg).CreateAnalysisEngine(testutil.TestContext(t))
	require.NoError(t, err)
	ctx := testutil.TestContext(t)

	req := fixtures.NewRequestBuilder(t).
		WithEconomic(&domain.EconomicData{TradeData: fixtures.TradeSeries(3)}).
		Build()
	first, err := engine.PerformAnalysis(ctx, req)
	require.NoError(t, err)

	keys := mr.Keys()
	require.Len(t, keys, 1)
	assert.Contains(t, keys[0], "analysis:result:")
	assert.Greater(t, mr.TTL(keys[0]), time.Duration(0))

	second, err := engine.PerformAnalysis(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.Summary, second.Summary)
	assert.Equal(t, 0.5, engine.GetMetrics().CacheHitRate)

	mr.Close()
	h := engine.Health(ctx)
	assert.Equal(t, domain.HealthDegraded, h.Status)
	assert.Equal(t, "unavailable", h.Checks["cache"])
}

func TestCreateAnalysisEngine_UnknownBackend(t *testing.T) {
	cfg := config.Defaults()
	cfg.Cache.Backend = "memcached"

	_, err := setupFactories(t, cfg).CreateAnalysisEngine(testutil.TestContext(t))
	assert.Error(t, err)
}

func TestCreateAnalysisService_Traced(t *testing.T) {
	cfg := config.Defaults()
	cfg.Performance.CacheEnabled = false

	svc, err := setupFactories(t, cfg).CreateAnalysisService(testutil.TestContext(t))
	require.NoError(t, err)

	resp, err := svc.PerformAnalysis(testutil.TestContext(t), fixtures.NewRequestBuilder(t).Build())
	require.NoError(t, err)
	assert.Equal(t, 0.5, resp.Confidence)

	history := svc.GetAnalysisHistory()
	require.Len(t, history, 1)
	assert.Equal(t, resp.ID, history[0].ID)
}

func TestServiceFactories_CloseDrainsNotifications(t *testing.T) {
	f, err := NewServiceFactories(config.Defaults(), testutil.TestLogger(t))
	require.NoError(t, err)
	var delivered atomic.Int32
	f.AddNotificationSinks(analysis.NotifierFunc(func(context.Context, domain.Notification) error {
		time.Sleep(20 * time.Millisecond)
		delivered.Add(1)
		return nil
	}))
	svc, err := f.CreateAnalysisService(testutil.TestContext(t))
	require.NoError(t, err)

	req := fixtures.NewRequestBuilder(t).
		WithType(domain.TypeCrisis).
		WithPolitical(fixtures.CrisisPolitical()).
		Build()
	_, err = svc.PerformAnalysis(testutil.TestContext(t), req)
	require.NoError(t, err)

	require.NoError(t, f.Close())
	assert.Equal(t, int32(1), delivered.Load())
}
