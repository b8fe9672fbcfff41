package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	domain "github.com/davidleathers/analysis-orchestrator/internal/domain/analysis"
	"github.com/davidleathers/analysis-orchestrator/internal/infrastructure/config"
	"github.com/davidleathers/analysis-orchestrator/internal/infrastructure/telemetry"
	"github.com/davidleathers/analysis-orchestrator/internal/service"
	"github.com/davidleathers/analysis-orchestrator/internal/service/analysis"
)

const (
	healthInterval  = 30 * time.Second
	shutdownTimeout = 10 * time.Second
)

func main() {
	configPath := flag.String("config", "", "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := telemetry.NewLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("analysis orchestrator failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	logger.Info("starting analysis orchestrator",
		zap.String("version", cfg.Version),
		zap.String("environment", cfg.Environment),
		zap.String("cache_backend", cfg.Cache.Backend),
	)

	provider, err := telemetry.InitializeOpenTelemetry(ctx, telemetry.ConfigFrom(cfg))
	if err != nil {
		return fmt.Errorf("initializing telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := provider.Shutdown(shutdownCtx); err != nil {
			logger.Warn("telemetry shutdown failed", zap.Error(err))
		}
	}()

	factories, err := service.NewServiceFactories(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := factories.Close(); err != nil {
			logger.Warn("closing infrastructure failed", zap.Error(err))
		}
	}()

	var opts []analysis.Option
	var reg *prometheus.Registry
	if cfg.Metrics.Enabled {
		reg = prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		opts = append(opts, analysis.WithMetricsCollector(newPromCollector(reg)))
	}

	svc, err := factories.CreateAnalysisService(ctx, opts...)
	if err != nil {
		return err
	}

	var metricsServer *http.Server
	if reg != nil {
		metricsServer = &http.Server{
			Addr:              cfg.Metrics.PrometheusAddr,
			Handler:           newMux(svc, reg),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			logger.Info("metrics server listening", zap.String("addr", metricsServer.Addr))
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server failed", zap.Error(err))
			}
		}()
	}

	ticker := time.NewTicker(healthInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			logger.Info("shutting down gracefully")
			if metricsServer != nil {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				if err := metricsServer.Shutdown(shutdownCtx); err != nil {
					logger.Warn("metrics server shutdown failed", zap.Error(err))
				}
			}
			return nil
		case <-ticker.C:
			logHealth(ctx, svc, logger)
		}
	}
}

// newMux serves Prometheus metrics and the engine health report
func newMux(svc analysis.Service, gatherer prometheus.Gatherer) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metricsHandler(gatherer))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		h := svc.Health(r.Context())
		w.Header().Set("Content-Type", "application/json")
		if h.Status != domain.HealthHealthy {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_ = json.NewEncoder(w).Encode(h)
	})
	return mux
}

func logHealth(ctx context.Context, svc analysis.Service, logger *zap.Logger) {
	h := svc.Health(ctx)
	fields := []zap.Field{
		zap.String("status", string(h.Status)),
		zap.Int("active_jobs", h.Metrics.ActiveJobs),
		zap.Int64("total_analyses", h.Metrics.TotalAnalyses),
		zap.Float64("success_rate", h.Metrics.SuccessRate),
		zap.Float64("system_load", h.Metrics.SystemLoad),
	}
	if h.Status == domain.HealthHealthy {
		logger.Debug("health check", fields...)
		return
	}
	logger.Warn("health check", append(fields, zap.Any("checks", h.Checks))...)
}
