package metrics

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Registry holds the analysis engine instruments. It satisfies the engine's
// metrics collector interface.
type Registry struct {
	meter metric.Meter

	AnalysisDuration         metric.Float64Histogram
	AnalysisSuccessCounter   metric.Int64Counter
	AnalysisFailureCounter   metric.Int64Counter
	CacheHitCounter          metric.Int64Counter
	RuleTriggerCounter       metric.Int64Counter
	NotificationFailureCount metric.Int64Counter
	ActiveJobs               metric.Int64ObservableGauge

	// State for observable metrics
	mu         sync.RWMutex
	activeJobs int64
}

// NewRegistry creates the analysis instruments on meter
func NewRegistry(meter metric.Meter) (*Registry, error) {
	r := &Registry{meter: meter}
	if err := r.initAnalysisMetrics(); err != nil {
		return nil, err
	}
	if err := r.initMonitoringMetrics(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Registry) initAnalysisMetrics() error {
	var err error

	r.AnalysisDuration, err = r.meter.Float64Histogram(
		"analysis.duration",
		metric.WithDescription("Duration of analysis executions in milliseconds"),
		metric.WithUnit("ms"),
		metric.WithExplicitBucketBoundaries(1, 5, 10, 50, 100, 500, 1000, 5000, 30000, 120000),
	)
	if err != nil {
		return err
	}

	r.AnalysisSuccessCounter, err = r.meter.Int64Counter(
		"analysis.success_total",
		metric.WithDescription("Total number of successful analyses"),
	)
	if err != nil {
		return err
	}

	r.AnalysisFailureCounter, err = r.meter.Int64Counter(
		"analysis.failure_total",
		metric.WithDescription("Total number of failed analyses"),
	)
	if err != nil {
		return err
	}

	r.CacheHitCounter, err = r.meter.Int64Counter(
		"analysis.cache_hit_total",
		metric.WithDescription("Total number of analyses served from the result cache"),
	)
	if err != nil {
		return err
	}

	r.ActiveJobs, err = r.meter.Int64ObservableGauge(
		"analysis.active_jobs",
		metric.WithDescription("Number of analyses currently running"),
		metric.WithInt64Callback(func(ctx context.Context, o metric.Int64Observer) error {
			r.mu.RLock()
			defer r.mu.RUnlock()
			o.Observe(r.activeJobs)
			return nil
		}),
	)
	return err
}

func (r *Registry) initMonitoringMetrics() error {
	var err error

	r.RuleTriggerCounter, err = r.meter.Int64Counter(
		"analysis.rule_trigger_total",
		metric.WithDescription("Total number of monitoring rule triggers"),
	)
	if err != nil {
		return err
	}

	r.NotificationFailureCount, err = r.meter.Int64Counter(
		"analysis.notification_failure_total",
		metric.WithDescription("Total number of failed notification deliveries"),
	)
	return err
}

// RecordAnalysis records one finished analysis. errorType is empty on success.
func (r *Registry) RecordAnalysis(ctx context.Context, analysisType string, duration time.Duration, errorType string) {
	attrs := []attribute.KeyValue{
		attribute.String("analysis_type", analysisType),
		attribute.Bool("success", errorType == ""),
	}
	r.AnalysisDuration.Record(ctx, float64(duration.Microseconds())/1000, metric.WithAttributes(attrs...))

	if errorType == "" {
		r.AnalysisSuccessCounter.Add(ctx, 1, metric.WithAttributes(attrs...))
		return
	}
	r.AnalysisFailureCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("analysis_type", analysisType),
		attribute.String("error_type", errorType),
	))
}

func (r *Registry) RecordCacheHit(ctx context.Context, analysisType string) {
	r.CacheHitCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("analysis_type", analysisType)))
}

func (r *Registry) RecordRuleTrigger(ctx context.Context, ruleID string) {
	r.RuleTriggerCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("rule_id", ruleID)))
}

func (r *Registry) RecordNotificationFailure(ctx context.Context, ruleID string) {
	r.NotificationFailureCount.Add(ctx, 1, metric.WithAttributes(attribute.String("rule_id", ruleID)))
}

// SetActiveJobs sets the value reported by the active jobs gauge
func (r *Registry) SetActiveJobs(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.activeJobs = int64(n)
}
