package main

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// promCollector exports engine measurements as Prometheus metrics
type promCollector struct {
	analysesTotal        *prometheus.CounterVec
	analysisDuration     *prometheus.HistogramVec
	cacheHits            *prometheus.CounterVec
	ruleTriggers         *prometheus.CounterVec
	notificationFailures *prometheus.CounterVec
	activeJobs           prometheus.Gauge
}

func newPromCollector(reg prometheus.Registerer) *promCollector {
	factory := promauto.With(reg)
	return &promCollector{
		analysesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "analysis",
				Subsystem: "engine",
				Name:      "requests_total",
				Help:      "Total number of analysis requests",
			},
			[]string{"type", "status", "error_type"},
		),
		analysisDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "analysis",
				Subsystem: "engine",
				Name:      "duration_seconds",
				Help:      "Analysis execution time in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.001, 2, 16), // 1ms to ~65s
			},
			[]string{"type"},
		),
		cacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "analysis",
				Subsystem: "cache",
				Name:      "hits_total",
				Help:      "Total number of analyses served from the result cache",
			},
			[]string{"type"},
		),
		ruleTriggers: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "analysis",
				Subsystem: "monitoring",
				Name:      "rule_triggers_total",
				Help:      "Total number of monitoring rule triggers",
			},
			[]string{"rule_id"},
		),
		notificationFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "analysis",
				Subsystem: "monitoring",
				Name:      "notification_failures_total",
				Help:      "Total number of notifications that could not be delivered",
			},
			[]string{"rule_id"},
		),
		activeJobs: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "analysis",
				Subsystem: "engine",
				Name:      "active_jobs",
				Help:      "Number of analyses currently running",
			},
		),
	}
}

func (c *promCollector) RecordAnalysis(_ context.Context, analysisType string, duration time.Duration, errorType string) {
	status := "success"
	if errorType != "" {
		status = "failure"
	}
	c.analysesTotal.WithLabelValues(analysisType, status, errorType).Inc()
	c.analysisDuration.WithLabelValues(analysisType).Observe(duration.Seconds())
}

func (c *promCollector) RecordCacheHit(_ context.Context, analysisType string) {
	c.cacheHits.WithLabelValues(analysisType).Inc()
}

func (c *promCollector) RecordRuleTrigger(_ context.Context, ruleID string) {
	c.ruleTriggers.WithLabelValues(ruleID).Inc()
}

func (c *promCollector) RecordNotificationFailure(_ context.Context, ruleID string) {
	c.notificationFailures.WithLabelValues(ruleID).Inc()
}

func (c *promCollector) SetActiveJobs(n int) {
	c.activeJobs.Set(float64(n))
}

// metricsHandler serves the registry in the Prometheus exposition format
func metricsHandler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
