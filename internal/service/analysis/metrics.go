package analysis

import (
	"context"
	"sync"
	"time"

	"github.com/davidleathers/analysis-orchestrator/internal/domain/analysis"
	"github.com/davidleathers/analysis-orchestrator/internal/domain/errors"
)

// metricsRecorder keeps the rolling aggregate and forwards every measurement
// to the registered collectors.
type metricsRecorder struct {
	mu         sync.RWMutex
	current    analysis.Metrics
	cacheHits  int64
	limit      int
	collectors []MetricsCollector
}

func newMetricsRecorder(limit int, collectors []MetricsCollector) *metricsRecorder {
	return &metricsRecorder{
		limit:      limit,
		collectors: collectors,
		current:    analysis.Metrics{SuccessRate: 100},
	}
}

// record folds one finished call into the running averages. err == nil is a
// success; cache hits are successes that also raise the hit rate.
func (r *metricsRecorder) record(ctx context.Context, analysisType analysis.AnalysisType, elapsed time.Duration, err error, cacheHit bool) {
	ms := float64(elapsed.Milliseconds())
	outcome := 100.0
	errorType := ""
	if err != nil {
		outcome = 0
		errorType = string(errors.TypeOf(err))
	}

	r.mu.Lock()
	m := &r.current
	m.TotalAnalyses++
	n := float64(m.TotalAnalyses)
	m.AverageExecutionTime = (m.AverageExecutionTime*(n-1) + ms) / n
	if m.TotalAnalyses == 1 {
		m.SuccessRate = outcome
	} else {
		m.SuccessRate = (m.SuccessRate*(n-1) + outcome) / n
	}
	if cacheHit {
		r.cacheHits++
	}
	m.CacheHitRate = float64(r.cacheHits) / n
	r.mu.Unlock()

	for _, c := range r.collectors {
		c.RecordAnalysis(ctx, string(analysisType), elapsed, errorType)
		if cacheHit {
			c.RecordCacheHit(ctx, string(analysisType))
		}
	}
}

// setActive updates queue length and load from the active job count.
func (r *metricsRecorder) setActive(active int) {
	r.mu.Lock()
	r.current.QueueLength = active
	r.current.SystemLoad = float64(active) / float64(r.limit) * 100
	r.mu.Unlock()

	for _, c := range r.collectors {
		c.SetActiveJobs(active)
	}
}

func (r *metricsRecorder) ruleTriggered(ctx context.Context, ruleID string) {
	for _, c := range r.collectors {
		c.RecordRuleTrigger(ctx, ruleID)
	}
}

func (r *metricsRecorder) notificationFailed(ctx context.Context, ruleID string) {
	for _, c := range r.collectors {
		c.RecordNotificationFailure(ctx, ruleID)
	}
}

func (r *metricsRecorder) snapshot() analysis.Metrics {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current
}
