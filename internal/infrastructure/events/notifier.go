package events

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/davidleathers/analysis-orchestrator/internal/domain/analysis"
)

// Notifier delivers monitoring rule notifications to an external sink.
type Notifier interface {
	Notify(ctx context.Context, n analysis.Notification) error
}

// LogNotifier writes notifications to the log. The level follows the
// notification severity parameter.
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) (*LogNotifier, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &LogNotifier{logger: logger.Named("notifications")}, nil
}

func (l *LogNotifier) Notify(_ context.Context, n analysis.Notification) error {
	fields := []zap.Field{
		zap.String("rule_id", n.RuleID),
		zap.String("rule_name", n.RuleName),
		zap.String("metric", n.Metric),
		zap.Float64("value", n.Value),
		zap.Float64("threshold", n.Threshold),
		zap.String("analysis_id", n.AnalysisID),
		zap.String("request_id", n.RequestID),
		zap.String("analysis_type", string(n.Type)),
		zap.String("scope", n.Scope),
		zap.String("severity", n.Severity()),
	}
	switch n.Severity() {
	case "critical", "error":
		l.logger.Error("monitoring rule triggered", fields...)
	case "warning", "warn", "high":
		l.logger.Warn("monitoring rule triggered", fields...)
	default:
		l.logger.Info("monitoring rule triggered", fields...)
	}
	return nil
}

// ChannelNotifier publishes notifications on a buffered channel. When the
// buffer is full the notification is dropped and counted.
type ChannelNotifier struct {
	ch      chan analysis.Notification
	dropped atomic.Int64
}

func NewChannelNotifier(buffer int) *ChannelNotifier {
	if buffer < 1 {
		buffer = 1
	}
	return &ChannelNotifier{ch: make(chan analysis.Notification, buffer)}
}

// C returns the receive side of the channel.
func (c *ChannelNotifier) C() <-chan analysis.Notification {
	return c.ch
}

func (c *ChannelNotifier) Notify(_ context.Context, n analysis.Notification) error {
	select {
	case c.ch <- n:
		return nil
	default:
		c.dropped.Add(1)
		return fmt.Errorf("notification channel full, dropped notification for rule %s", n.RuleID)
	}
}

// Dropped returns how many notifications were discarded.
func (c *ChannelNotifier) Dropped() int64 {
	return c.dropped.Load()
}

// MultiNotifier fans a notification out to every sink in order. All sinks are
// attempted; their errors are joined.
type MultiNotifier struct {
	sinks []Notifier
}

func NewMultiNotifier(sinks ...Notifier) *MultiNotifier {
	out := &MultiNotifier{}
	for _, s := range sinks {
		if s != nil {
			out.sinks = append(out.sinks, s)
		}
	}
	return out
}

func (m *MultiNotifier) Notify(ctx context.Context, n analysis.Notification) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.Notify(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Len returns the number of sinks.
func (m *MultiNotifier) Len() int {
	return len(m.sinks)
}
