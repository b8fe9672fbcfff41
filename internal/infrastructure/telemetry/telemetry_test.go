package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/davidleathers/analysis-orchestrator/internal/infrastructure/config"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name    string
		level   string
		format  string
		wantErr bool
	}{
		{"json info", "info", "json", false},
		{"console debug", "debug", "console", false},
		{"defaults", "", "", false},
		{"bad level", "loud", "json", true},
		{"bad format", "info", "xml", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := NewLogger(tt.level, tt.format)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, logger)
		})
	}
}

func TestWithTrace(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	logger := zap.New(core)

	t.Run("no span leaves logger unchanged", func(t *testing.T) {
		assert.Same(t, logger, WithTrace(context.Background(), logger))
	})

	t.Run("span adds ids", func(t *testing.T) {
		tp := sdktrace.NewTracerProvider()
		ctx, span := tp.Tracer("test").Start(context.Background(), "op")
		defer span.End()

		WithTrace(ctx, logger).Info("hello")
		entries := logs.TakeAll()
		require.Len(t, entries, 1)
		fields := entries[0].ContextMap()
		assert.Equal(t, span.SpanContext().TraceID().String(), fields["trace_id"])
		assert.Equal(t, span.SpanContext().SpanID().String(), fields["span_id"])
	})
}

func TestTracer_RecordsErrors(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	tracer := NewTracerFromProvider(tp, "test")

	_, span := tracer.StartSpanWithAttributes(context.Background(), "analysis.perform",
		map[string]interface{}{"analysis.type": "comprehensive", "analysis.data_points": 3})
	tracer.RecordError(span, errors.New("boom"), "dispatch failed")
	span.End()

	ended := recorder.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "analysis.perform", ended[0].Name())
	assert.Equal(t, "boom", ended[0].Status().Description)
	assert.NotEmpty(t, TraceID(span))
}

func TestInitializeOpenTelemetry_Disabled(t *testing.T) {
	cfg := config.Defaults()
	cfg.Telemetry.Enabled = false

	provider, err := InitializeOpenTelemetry(context.Background(), ConfigFrom(cfg))
	require.NoError(t, err)
	assert.NotNil(t, provider.TracerProvider)
	assert.NotNil(t, provider.MeterProvider)
	assert.NoError(t, provider.Shutdown(context.Background()))
}

func TestConfigFrom(t *testing.T) {
	cfg := config.Defaults()
	cfg.Version = "1.2.3"
	cfg.Telemetry.OTLPEndpoint = "collector:4317"
	cfg.Telemetry.SampleRate = 0.25

	out := ConfigFrom(cfg)
	assert.Equal(t, "1.2.3", out.ServiceVersion)
	assert.Equal(t, "collector:4317", out.OTLPEndpoint)
	assert.Equal(t, 0.25, out.SamplingRate)
	assert.Equal(t, "analysis-orchestrator", out.ServiceName)
}
