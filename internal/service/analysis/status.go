package analysis

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/davidleathers/analysis-orchestrator/internal/domain/analysis"
)

const healthCheckTimeout = 2 * time.Second

var dataInputTypes = []string{
	"economic", "social", "technological", "political",
	"demographic", "psychological", "socialMedia", "external",
}

var features = []string{
	"realTimeAnalysis",
	"predictiveAnalysis",
	"comparativeAnalysis",
	"crisisAssessment",
	"opportunityAnalysis",
	"crossSystemCorrelation",
	"aiPoweredInsights",
	"naturalLanguageSummary",
	"strategicRecommendations",
	"monitoringAndAlerts",
}

// Capabilities describes accepted inputs and produced outputs
func (e *Engine) Capabilities() analysis.Capabilities {
	enabled := map[string]bool{"demographic": true, "external": true}
	for _, d := range e.config.enabledDomains() {
		enabled[string(d)] = true
	}
	var inputs []string
	for _, t := range dataInputTypes {
		if enabled[t] {
			inputs = append(inputs, t)
		}
	}

	f := make(map[string]bool, len(features))
	for _, name := range features {
		f[name] = true
	}
	_, comparative := e.strategies.lookup(analysis.TypeComparative)
	f["comparativeAnalysis"] = comparative
	f["predictiveAnalysis"] = e.config.EnablePredictions
	f["strategicRecommendations"] = e.config.EnableRecommendations
	f["crossSystemCorrelation"] = e.correlator != nil

	return analysis.Capabilities{
		AnalysisTypes:    e.strategies.types(),
		AnalysisScopes:   append([]string(nil), analysis.AnalysisScopes...),
		DataInputTypes:   inputs,
		OutputFormats:    append([]string(nil), analysis.OutputFormats...),
		TechnicalLevels:  append([]string(nil), analysis.TechnicalLevels...),
		SupportedSystems: append([]string(nil), analysis.SupportedSystems...),
		MonitoringRules:  RuleMetrics(),
		Features:         f,
	}
}

// Health reports engine status. The engine is degraded when its success
// rate drops below 80% or active jobs exceed twice the concurrency bound.
func (e *Engine) Health(ctx context.Context) analysis.Health {
	m := e.recorder.snapshot()
	active := e.jobs.len()

	checks := map[string]string{
		"engine":     "healthy",
		"cache":      "disabled",
		"monitoring": "active",
	}
	status := analysis.HealthHealthy

	if m.TotalAnalyses > 0 && m.SuccessRate < 80 {
		checks["engine"] = "degraded"
		status = analysis.HealthDegraded
	}
	if active > 2*e.config.MaxConcurrentAnalyses {
		checks["engine"] = "overloaded"
		status = analysis.HealthDegraded
	}

	if e.cache.enabled() {
		pctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
		defer cancel()
		if err := e.cache.ping(pctx); err != nil {
			e.logger.Warn("cache health check failed", zap.Error(err))
			checks["cache"] = "unavailable"
			status = analysis.HealthDegraded
		} else {
			checks["cache"] = "enabled"
		}
	}

	e.rules.mu.RLock()
	if len(e.rules.rules) == 0 {
		checks["monitoring"] = "idle"
	}
	e.rules.mu.RUnlock()

	return analysis.Health{
		Status:    status,
		Timestamp: e.clock.Now().UTC(),
		Metrics: analysis.HealthMetrics{
			TotalAnalyses:        m.TotalAnalyses,
			SuccessRate:          m.SuccessRate,
			AverageExecutionTime: m.AverageExecutionTime,
			ActiveJobs:           active,
			SystemLoad:           m.SystemLoad,
		},
		Checks: checks,
	}
}
