package analysis

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/davidleathers/analysis-orchestrator/internal/domain/analysis"
	"github.com/davidleathers/analysis-orchestrator/internal/domain/errors"
)

// metricFunc extracts a rule metric from a response. ok is false when the
// metric does not apply, in which case the rule does not match.
type metricFunc func(resp *analysis.Response) (value float64, ok bool)

var ruleMetrics = map[string]metricFunc{
	"crisis_severity": func(r *analysis.Response) (float64, bool) {
		if r.Crisis == nil {
			return 0, false
		}
		return r.Crisis.Severity.Numeric(), true
	},
	"crisis_urgency": func(r *analysis.Response) (float64, bool) {
		if r.Crisis == nil {
			return 0, false
		}
		return r.Crisis.Urgency / 100, true
	},
	"escalation_potential": func(r *analysis.Response) (float64, bool) {
		if r.Crisis == nil {
			return 0, false
		}
		return r.Crisis.EscalationPotential / 100, true
	},
	"opportunity_potential": func(r *analysis.Response) (float64, bool) {
		if r.Opportunity == nil {
			return 0, false
		}
		return r.Opportunity.Potential / 100, true
	},
	"confidence": func(r *analysis.Response) (float64, bool) {
		return r.Confidence, true
	},
	"insight_count": func(r *analysis.Response) (float64, bool) {
		return float64(len(r.Insights)), true
	},
	"critical_insight_count": func(r *analysis.Response) (float64, bool) {
		n := 0
		for _, i := range r.Insights {
			if i.Priority == analysis.PriorityCritical {
				n++
			}
		}
		return float64(n), true
	},
	"recommendation_count": func(r *analysis.Response) (float64, bool) {
		return float64(len(r.Recommendations)), true
	},
	"execution_time_ms": func(r *analysis.Response) (float64, bool) {
		return float64(r.ExecutionTime), true
	},
	"data_points": func(r *analysis.Response) (float64, bool) {
		return float64(r.Metadata.ProcessingStats.TotalDataPoints), true
	},
}

// RuleMetrics returns the metric names monitoring rules can reference.
func RuleMetrics() []string {
	out := make([]string, 0, len(ruleMetrics))
	for name := range ruleMetrics {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

type triggered struct {
	rule  analysis.MonitoringRule
	value float64
}

// ruleEvaluator owns the monitoring rules. Only evaluation and the explicit
// administration calls mutate them.
type ruleEvaluator struct {
	mu       sync.RWMutex
	rules    map[string]*analysis.MonitoringRule
	order    []string
	dispatch *notificationDispatcher
	clock    analysis.Clock
	events   *eventLog
	metrics  *metricsRecorder
	logger   *zap.Logger
}

func (e *ruleEvaluator) add(rule analysis.MonitoringRule) error {
	if err := rule.Validate(); err != nil {
		return err
	}
	if _, ok := ruleMetrics[rule.Condition.Metric]; !ok {
		return errors.NewValidationError("UNKNOWN_METRIC",
			fmt.Sprintf("unknown monitoring metric %q", rule.Condition.Metric)).
			WithDetails(map[string]interface{}{"known_metrics": RuleMetrics()})
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.rules[rule.ID]; ok {
		return errors.NewConflictError(fmt.Sprintf("monitoring rule %q already exists", rule.ID))
	}
	stored := rule.Clone()
	e.rules[rule.ID] = &stored
	e.order = append(e.order, rule.ID)
	return nil
}

func (e *ruleEvaluator) setEnabled(id string, enabled bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	rule, ok := e.rules[id]
	if !ok {
		return errors.NewNotFoundError(fmt.Sprintf("monitoring rule %q", id))
	}
	rule.Enabled = enabled
	return nil
}

func (e *ruleEvaluator) remove(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.rules[id]; !ok {
		return errors.NewNotFoundError(fmt.Sprintf("monitoring rule %q", id))
	}
	delete(e.rules, id)
	for i, rid := range e.order {
		if rid == id {
			e.order = append(e.order[:i], e.order[i+1:]...)
			break
		}
	}
	return nil
}

// list returns copies of all rules in registration order.
func (e *ruleEvaluator) list() []analysis.MonitoringRule {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]analysis.MonitoringRule, 0, len(e.order))
	for _, id := range e.order {
		out = append(out, e.rules[id].Clone())
	}
	return out
}

// evaluate checks every enabled rule against resp, updates the counters of
// those that match and then runs their actions outside the lock. Action
// failures are logged and never returned.
func (e *ruleEvaluator) evaluate(ctx context.Context, resp *analysis.Response) {
	var fired []triggered

	e.mu.Lock()
	now := e.clock.Now()
	for _, id := range e.order {
		rule := e.rules[id]
		if !rule.Enabled {
			continue
		}
		extract, ok := ruleMetrics[rule.Condition.Metric]
		if !ok {
			continue
		}
		value, ok := extract(resp)
		if !ok {
			continue
		}
		match, err := rule.Condition.Operator.Compare(value, rule.Condition.Threshold)
		if err != nil {
			e.logger.Warn("skipping rule with invalid operator", zap.String("rule_id", id), zap.Error(err))
			continue
		}
		if !match {
			continue
		}
		rule.TriggerCount++
		t := now
		rule.LastTriggered = &t
		fired = append(fired, triggered{rule: rule.Clone(), value: value})
	}
	e.mu.Unlock()

	for _, f := range fired {
		e.fire(ctx, f, resp)
	}
}

func (e *ruleEvaluator) fire(ctx context.Context, f triggered, resp *analysis.Response) {
	rule := f.rule
	e.logger.Info("monitoring rule triggered",
		zap.String("rule_id", rule.ID),
		zap.String("metric", rule.Condition.Metric),
		zap.Float64("value", f.value),
		zap.Float64("threshold", rule.Condition.Threshold),
		zap.String("analysis_id", resp.ID),
	)
	e.metrics.ruleTriggered(ctx, rule.ID)
	e.events.record(analysis.Event{
		Type:       analysis.EventRuleTriggered,
		RequestID:  resp.RequestID,
		AnalysisID: resp.ID,
		Message:    fmt.Sprintf("rule %s triggered", rule.ID),
		Data: map[string]interface{}{
			"ruleId":    rule.ID,
			"metric":    rule.Condition.Metric,
			"value":     f.value,
			"threshold": rule.Condition.Threshold,
		},
	})

	for _, action := range rule.Actions {
		switch action.Type {
		case analysis.ActionNotification:
			e.notify(ctx, rule, action, f.value, resp)
		case analysis.ActionAnalysisTrigger:
			e.logger.Info("analysis trigger action is not chained",
				zap.String("rule_id", rule.ID),
				zap.Any("parameters", action.Parameters),
			)
		}
	}
}

func (e *ruleEvaluator) notify(ctx context.Context, rule analysis.MonitoringRule, action analysis.RuleAction, value float64, resp *analysis.Response) {
	if e.dispatch == nil {
		return
	}
	e.dispatch.enqueue(ctx, analysis.Notification{
		RuleID:     rule.ID,
		RuleName:   rule.Name,
		Metric:     rule.Condition.Metric,
		Value:      value,
		Threshold:  rule.Condition.Threshold,
		Parameters: action.Parameters,
		AnalysisID: resp.ID,
		RequestID:  resp.RequestID,
		Type:       resp.Type,
		Scope:      resp.Scope,
		Summary:    resp.Summary,
		Timestamp:  e.clock.Now(),
	})
}

// notificationFailed records a notification that was dropped or whose
// delivery failed. It never affects the analysis that fired the rule.
func (e *ruleEvaluator) notificationFailed(ctx context.Context, n analysis.Notification, err error) {
	e.logger.Warn("notification failed",
		zap.String("rule_id", n.RuleID),
		zap.String("analysis_id", n.AnalysisID),
		zap.Error(err),
	)
	e.metrics.notificationFailed(ctx, n.RuleID)
	e.events.record(analysis.Event{
		Type:       analysis.EventNotificationFailed,
		RequestID:  n.RequestID,
		AnalysisID: n.AnalysisID,
		Message:    err.Error(),
		Data:       map[string]interface{}{"ruleId": n.RuleID},
	})
}
