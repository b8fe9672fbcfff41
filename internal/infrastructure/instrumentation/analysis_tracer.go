package instrumentation

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	domain "github.com/davidleathers/analysis-orchestrator/internal/domain/analysis"
	"github.com/davidleathers/analysis-orchestrator/internal/domain/errors"
	"github.com/davidleathers/analysis-orchestrator/internal/infrastructure/telemetry"
	"github.com/davidleathers/analysis-orchestrator/internal/service/analysis"
)

// AnalysisTracedService wraps the analysis service with OpenTelemetry spans.
// Calls without a context pass straight through to the wrapped service.
type AnalysisTracedService struct {
	analysis.Service
	tracer *telemetry.Tracer
	logger *zap.Logger
}

var _ analysis.Service = (*AnalysisTracedService)(nil)

// NewAnalysisTracedService creates a new instrumented analysis service
func NewAnalysisTracedService(service analysis.Service, tracer *telemetry.Tracer, logger *zap.Logger) *AnalysisTracedService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnalysisTracedService{
		Service: service,
		tracer:  tracer,
		logger:  logger,
	}
}

// PerformAnalysis instruments a full analysis run
func (s *AnalysisTracedService) PerformAnalysis(ctx context.Context, req *domain.Request) (*domain.Response, error) {
	attrs := map[string]interface{}{"component": "analysis"}
	if req != nil {
		attrs["analysis.request_id"] = req.ID
		attrs["analysis.type"] = string(req.Type)
		attrs["analysis.scope"] = req.Scope
		attrs["analysis.data_points"] = req.DataInputs.CountDataPoints()
	}
	ctx, span := s.tracer.StartSpanWithAttributes(ctx, "analysis.PerformAnalysis", attrs,
		trace.WithSpanKind(trace.SpanKindInternal))
	defer span.End()

	resp, err := s.Service.PerformAnalysis(ctx, req)
	if err != nil {
		errorType := string(errors.TypeOf(err))
		s.tracer.RecordError(span, err, "Analysis failed")
		s.tracer.AddEvent(span, "analysis_failed", map[string]interface{}{
			"error.type":      errorType,
			"error.retryable": errors.IsRetryable(err),
		})
		telemetry.WithTrace(ctx, s.logger).Debug("traced analysis failed",
			zap.String("error_type", errorType), zap.Error(err))
		return nil, err
	}

	s.tracer.SetAttributes(span, map[string]interface{}{
		"analysis.id":                resp.ID,
		"analysis.confidence":        resp.Confidence,
		"analysis.insights":          len(resp.Insights),
		"analysis.recommendations":   len(resp.Recommendations),
		"analysis.execution_time_ms": resp.ExecutionTime,
		"analysis.systems":           resp.Metadata.SystemsAnalyzed,
	})
	if resp.Crisis != nil {
		s.tracer.AddEvent(span, "crisis_assessed", map[string]interface{}{
			"crisis.type":     resp.Crisis.CrisisType,
			"crisis.severity": string(resp.Crisis.Severity),
		})
	}
	return resp, nil
}

// Health instruments the health check
func (s *AnalysisTracedService) Health(ctx context.Context) domain.Health {
	ctx, span := s.tracer.StartSpan(ctx, "analysis.Health")
	defer span.End()

	h := s.Service.Health(ctx)
	s.tracer.SetAttributes(span, map[string]interface{}{
		"health.status":      string(h.Status),
		"health.active_jobs": h.Metrics.ActiveJobs,
	})
	return h
}
