package events

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"github.com/davidleathers/analysis-orchestrator/internal/domain/analysis"
	"github.com/davidleathers/analysis-orchestrator/internal/infrastructure/config"
)

func testNotification() analysis.Notification {
	return analysis.Notification{
		RuleID:     "crisis_threshold",
		RuleName:   "Crisis Threshold Monitor",
		Metric:     "crisis_severity",
		Value:      1.0,
		Threshold:  0.8,
		Parameters: map[string]interface{}{"severity": "critical"},
		AnalysisID: "analysis-1",
		RequestID:  "req-1",
		Type:       analysis.TypeCrisis,
		Scope:      "civ-1",
		Timestamp:  time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestLogNotifier(t *testing.T) {
	_, err := NewLogNotifier(nil)
	require.Error(t, err)

	core, logs := observer.New(zapcore.InfoLevel)
	ln, err := NewLogNotifier(zap.New(core))
	require.NoError(t, err)

	require.NoError(t, ln.Notify(context.Background(), testNotification()))
	entries := logs.TakeAll()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.ErrorLevel, entries[0].Level)
	assert.Equal(t, "crisis_threshold", entries[0].ContextMap()["rule_id"])

	n := testNotification()
	n.Parameters = nil
	require.NoError(t, ln.Notify(context.Background(), n))
	entries = logs.TakeAll()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
}

func TestChannelNotifier_DropsWhenFull(t *testing.T) {
	cn := NewChannelNotifier(1)
	ctx := context.Background()

	require.NoError(t, cn.Notify(ctx, testNotification()))
	assert.Error(t, cn.Notify(ctx, testNotification()))
	assert.Equal(t, int64(1), cn.Dropped())

	got := <-cn.C()
	assert.Equal(t, "crisis_threshold", got.RuleID)
}

type failingNotifier struct{ calls int }

func (f *failingNotifier) Notify(context.Context, analysis.Notification) error {
	f.calls++
	return errors.New("sink down")
}

func TestMultiNotifier_AttemptsAllSinks(t *testing.T) {
	first := &failingNotifier{}
	ch := NewChannelNotifier(4)
	mn := NewMultiNotifier(first, nil, ch)
	assert.Equal(t, 2, mn.Len())

	err := mn.Notify(context.Background(), testNotification())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sink down")
	assert.Equal(t, 1, first.calls)
	assert.Len(t, ch.C(), 1)
}

func TestWebhookNotifier_SignsPayload(t *testing.T) {
	var (
		gotSig  string
		gotBody []byte
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSig = r.Header.Get("X-Signature-SHA256")
		gotBody, _ = io.ReadAll(r.Body)
		assert.Equal(t, EventTypeRuleTriggered, r.Header.Get("X-Event-Type"))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	wn, err := NewWebhookNotifier(zaptest.NewLogger(t), 0, 1)
	require.NoError(t, err)
	wn.AddEndpoint(WebhookEndpoint{URL: srv.URL, Secret: "s3cret"})

	require.NoError(t, wn.Notify(context.Background(), testNotification()))
	assert.Equal(t, Sign(gotBody, "s3cret"), gotSig)

	var payload WebhookPayload
	require.NoError(t, json.Unmarshal(gotBody, &payload))
	assert.Equal(t, "crisis_threshold", payload.Data.RuleID)
	assert.NotEmpty(t, payload.EventID)
}

func TestWebhookNotifier_Retries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	wn, err := NewWebhookNotifier(zaptest.NewLogger(t), 0, 1)
	require.NoError(t, err)
	wn.AddEndpoint(WebhookEndpoint{URL: srv.URL, RetryPolicy: RetryPolicy{
		MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond, BackoffFactor: 2,
	}})

	require.NoError(t, wn.Notify(context.Background(), testNotification()))
	assert.Equal(t, int32(2), calls.Load())
}

func TestWebhookNotifier_NonRetryableStatus(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	wn, err := NewWebhookNotifier(zaptest.NewLogger(t), 0, 1)
	require.NoError(t, err)
	wn.AddEndpoint(WebhookEndpoint{URL: srv.URL})

	err = wn.Notify(context.Background(), testNotification())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "non-retryable status: 400")
	assert.Equal(t, int32(1), calls.Load())
}

func TestNewWebhookNotifierFromConfig(t *testing.T) {
	cfg := config.Defaults().Integration
	cfg.WebhookEndpoints = []config.WebhookEndpointConfig{
		{URL: "https://alerts.example.com/hook", Secret: "x", MaxAttempts: 5},
		{URL: "https://ops.example.com/hook"},
	}

	wn, err := NewWebhookNotifierFromConfig(cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	eps := wn.Endpoints()
	require.Len(t, eps, 2)
	assert.Equal(t, 5, eps[0].RetryPolicy.MaxAttempts)
	assert.Equal(t, DefaultRetryPolicy().MaxAttempts, eps[1].RetryPolicy.MaxAttempts)
}

func TestNewWebhookNotifier_NoEndpoints(t *testing.T) {
	wn, err := NewWebhookNotifier(zaptest.NewLogger(t), 10, 20)
	require.NoError(t, err)
	assert.NoError(t, wn.Notify(context.Background(), testNotification()))

	_, err = NewWebhookNotifier(nil, 0, 0)
	assert.Error(t, err)
}
