package analysis

import (
	"context"
	"time"

	"github.com/davidleathers/analysis-orchestrator/internal/domain/analysis"
)

// Service defines the analysis orchestration interface
type Service interface {
	// PerformAnalysis runs a request to completion and returns its response
	PerformAnalysis(ctx context.Context, req *analysis.Request) (*analysis.Response, error)
	// GetAnalysis returns a retained response by id
	GetAnalysis(id string) (*analysis.Response, error)
	// GetAnalysisHistory returns retained responses, newest first
	GetAnalysisHistory() []*analysis.Response
	// GetActiveJobs returns snapshots of running jobs
	GetActiveJobs() []analysis.Job
	// GetMetrics returns the rolling metrics
	GetMetrics() analysis.Metrics
	// GetConfig returns the engine configuration
	GetConfig() Config
	// GetMonitoringRules returns copies of all rules
	GetMonitoringRules() []analysis.MonitoringRule
	// GetAnalysisEvents returns recorded events, oldest first
	GetAnalysisEvents() []analysis.Event
	// AddMonitoringRule registers a new rule
	AddMonitoringRule(rule analysis.MonitoringRule) error
	// SetMonitoringRuleEnabled enables or disables a rule
	SetMonitoringRuleEnabled(id string, enabled bool) error
	// RemoveMonitoringRule deletes a rule
	RemoveMonitoringRule(id string) error
	// Capabilities describes accepted inputs and produced outputs
	Capabilities() analysis.Capabilities
	// Health reports engine status
	Health(ctx context.Context) analysis.Health
	// FlushNotifications waits for queued rule notifications to be attempted
	FlushNotifications(ctx context.Context) error
}

// Cache is the result cache backend
type Cache interface {
	GetJSON(ctx context.Context, key string, dest interface{}) error
	SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
}

// Notifier receives notifications fired by monitoring rules
type Notifier interface {
	Notify(ctx context.Context, n analysis.Notification) error
}

// NotifierFunc adapts a function to the Notifier interface
type NotifierFunc func(ctx context.Context, n analysis.Notification) error

func (f NotifierFunc) Notify(ctx context.Context, n analysis.Notification) error {
	return f(ctx, n)
}

// MetricsCollector receives engine measurements
type MetricsCollector interface {
	// RecordAnalysis records a finished analysis; errorType is empty on success
	RecordAnalysis(ctx context.Context, analysisType string, duration time.Duration, errorType string)
	RecordCacheHit(ctx context.Context, analysisType string)
	RecordRuleTrigger(ctx context.Context, ruleID string)
	RecordNotificationFailure(ctx context.Context, ruleID string)
	SetActiveJobs(n int)
}

// Strategy produces the response for one analysis type
type Strategy interface {
	Execute(ctx context.Context, x *Execution) (*analysis.Response, error)
}

// StrategyFunc adapts a function to the Strategy interface
type StrategyFunc func(ctx context.Context, x *Execution) (*analysis.Response, error)

func (f StrategyFunc) Execute(ctx context.Context, x *Execution) (*analysis.Response, error) {
	return f(ctx, x)
}
