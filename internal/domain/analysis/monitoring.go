package analysis

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/davidleathers/analysis-orchestrator/internal/domain/errors"
)

type Operator string

const (
	OpGreaterThan    Operator = "gt"
	OpGreaterOrEqual Operator = "gte"
	OpLessThan       Operator = "lt"
	OpLessOrEqual    Operator = "lte"
	OpEqual          Operator = "eq"
	OpNotEqual       Operator = "neq"
)

const floatTolerance = 1e-9

// Compare applies the operator to value and threshold.
func (o Operator) Compare(value, threshold float64) (bool, error) {
	eq := math.Abs(value-threshold) <= floatTolerance
	switch o {
	case OpGreaterThan:
		return value > threshold && !eq, nil
	case OpGreaterOrEqual:
		return value > threshold || eq, nil
	case OpLessThan:
		return value < threshold && !eq, nil
	case OpLessOrEqual:
		return value < threshold || eq, nil
	case OpEqual:
		return eq, nil
	case OpNotEqual:
		return !eq, nil
	}
	return false, fmt.Errorf("unknown operator %q", o)
}

func (o Operator) Valid() bool {
	_, err := o.Compare(0, 0)
	return err == nil
}

type ActionType string

const (
	ActionNotification ActionType = "notification"
	// ActionAnalysisTrigger is accepted but only logged.
	ActionAnalysisTrigger ActionType = "analysis_trigger"
)

type Condition struct {
	Metric    string   `json:"metric"`
	Operator  Operator `json:"operator"`
	Threshold float64  `json:"threshold"`
}

type RuleAction struct {
	Type       ActionType             `json:"type"`
	Parameters map[string]interface{} `json:"parameters,omitempty"`
}

type MonitoringRule struct {
	ID            string       `json:"id"`
	Name          string       `json:"name"`
	Description   string       `json:"description"`
	Condition     Condition    `json:"condition"`
	Actions       []RuleAction `json:"actions"`
	Enabled       bool         `json:"enabled"`
	TriggerCount  int          `json:"triggerCount"`
	LastTriggered *time.Time   `json:"lastTriggered,omitempty"`
}

// Validate checks the static shape of a rule. Whether the metric is known is
// decided by the evaluator.
func (r *MonitoringRule) Validate() error {
	fields := map[string][]string{}
	if strings.TrimSpace(r.ID) == "" {
		fields["id"] = append(fields["id"], "This field is required")
	}
	if strings.TrimSpace(r.Condition.Metric) == "" {
		fields["condition.metric"] = append(fields["condition.metric"], "This field is required")
	}
	if !r.Condition.Operator.Valid() {
		fields["condition.operator"] = append(fields["condition.operator"],
			"Must be one of: gt gte lt lte eq neq")
	}
	for i, a := range r.Actions {
		if a.Type != ActionNotification && a.Type != ActionAnalysisTrigger {
			key := fmt.Sprintf("actions[%d].type", i)
			fields[key] = append(fields[key], "Must be one of: notification analysis_trigger")
		}
	}
	if len(fields) == 0 {
		return nil
	}
	return errors.NewValidationError("INVALID_RULE", "monitoring rule validation failed").
		WithDetails(map[string]interface{}{"fields": fields})
}

// Clone returns a deep copy.
func (r *MonitoringRule) Clone() MonitoringRule {
	out := *r
	out.Actions = make([]RuleAction, len(r.Actions))
	for i, a := range r.Actions {
		params := make(map[string]interface{}, len(a.Parameters))
		for k, v := range a.Parameters {
			params[k] = v
		}
		out.Actions[i] = RuleAction{Type: a.Type, Parameters: params}
	}
	if r.LastTriggered != nil {
		t := *r.LastTriggered
		out.LastTriggered = &t
	}
	return out
}

// DefaultMonitoringRules returns the rules installed in a new engine.
func DefaultMonitoringRules() []MonitoringRule {
	return []MonitoringRule{
		{
			ID:          "crisis_threshold",
			Name:        "Crisis Threshold Monitor",
			Description: "Monitor for crisis indicators",
			Condition: Condition{
				Metric:    "crisis_severity",
				Operator:  OpGreaterOrEqual,
				Threshold: 0.8,
			},
			Actions: []RuleAction{
				{Type: ActionNotification, Parameters: map[string]interface{}{"severity": "critical"}},
			},
			Enabled: true,
		},
	}
}

// Notification is what a triggered notification action hands to a sink.
type Notification struct {
	RuleID     string                 `json:"ruleId"`
	RuleName   string                 `json:"ruleName"`
	Metric     string                 `json:"metric"`
	Value      float64                `json:"value"`
	Threshold  float64                `json:"threshold"`
	Parameters map[string]interface{} `json:"parameters,omitempty"`
	AnalysisID string                 `json:"analysisId"`
	RequestID  string                 `json:"requestId"`
	Type       AnalysisType           `json:"type"`
	Scope      string                 `json:"scope"`
	Summary    string                 `json:"summary"`
	Timestamp  time.Time              `json:"timestamp"`
}

// Severity reads the severity parameter, defaulting to "info".
func (n *Notification) Severity() string {
	if s, ok := n.Parameters["severity"].(string); ok && s != "" {
		return s
	}
	return "info"
}

type EventType string

const (
	EventJobStarted         EventType = "job_started"
	EventJobCompleted       EventType = "job_completed"
	EventJobFailed          EventType = "job_failed"
	EventCacheHit           EventType = "cache_hit"
	EventCapacityRejected   EventType = "capacity_rejected"
	EventRuleTriggered      EventType = "rule_triggered"
	EventNotificationFailed EventType = "notification_failed"
)

type Event struct {
	ID         string                 `json:"id"`
	Type       EventType              `json:"type"`
	JobID      string                 `json:"jobId,omitempty"`
	RequestID  string                 `json:"requestId,omitempty"`
	AnalysisID string                 `json:"analysisId,omitempty"`
	Message    string                 `json:"message"`
	Data       map[string]interface{} `json:"data,omitempty"`
	Timestamp  time.Time              `json:"timestamp"`
}

// Metrics is the process-wide rolling aggregate.
type Metrics struct {
	TotalAnalyses        int64   `json:"totalAnalyses"`
	AverageExecutionTime float64 `json:"averageExecutionTime"`
	SuccessRate          float64 `json:"successRate"`
	CacheHitRate         float64 `json:"cacheHitRate"`
	SystemLoad           float64 `json:"systemLoad"`
	QueueLength          int     `json:"queueLength"`
}
