package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultPath is read when Load is called without an explicit path.
const DefaultPath = "configs/config.yaml"

// EnvPrefix marks environment overrides. Nested keys are separated by a
// double underscore: ANALYSIS_PERFORMANCE__TIMEOUT=30s.
const EnvPrefix = "ANALYSIS_"

type Config struct {
	Version     string `koanf:"version"`
	Environment string `koanf:"environment" validate:"oneof=development staging production test"`
	LogLevel    string `koanf:"log_level" validate:"oneof=debug info warn error"`
	LogFormat   string `koanf:"log_format" validate:"oneof=json console"`

	Models      ModelsConfig      `koanf:"models"`
	Analysis    AnalysisConfig    `koanf:"analysis"`
	Output      OutputConfig      `koanf:"output"`
	Performance PerformanceConfig `koanf:"performance"`
	Integration IntegrationConfig `koanf:"integration"`
	Monitoring  MonitoringConfig  `koanf:"monitoring"`
	Cache       CacheConfig       `koanf:"cache"`
	Telemetry   TelemetryConfig   `koanf:"telemetry"`
	Metrics     MetricsConfig     `koanf:"metrics"`
}

// ModelsConfig holds model selection hints, reported in response metadata.
type ModelsConfig struct {
	PrimaryModel    string  `koanf:"primary_model" validate:"required"`
	FallbackModel   string  `koanf:"fallback_model"`
	ResearchModel   string  `koanf:"research_model"`
	Temperature     float64 `koanf:"temperature" validate:"gte=0,lte=2"`
	MaxTokens       int     `koanf:"max_tokens" validate:"gte=1"`
	ContextWindow   int     `koanf:"context_window" validate:"gte=1"`
	EnableStreaming bool    `koanf:"enable_streaming"`
}

type AnalysisConfig struct {
	DefaultDepth          string  `koanf:"default_depth" validate:"oneof=quick standard deep"`
	EnablePredictions     bool    `koanf:"enable_predictions"`
	EnableRecommendations bool    `koanf:"enable_recommendations"`
	EnableComparisons     bool    `koanf:"enable_comparisons"`
	ConfidenceThreshold   float64 `koanf:"confidence_threshold" validate:"gte=0,lte=1"`
	MaxInsights           int     `koanf:"max_insights" validate:"gte=1"`
	MaxRecommendations    int     `koanf:"max_recommendations" validate:"gte=1"`
}

type OutputConfig struct {
	Format          string `koanf:"format" validate:"oneof=structured narrative executive_summary technical_report"`
	IncludeEvidence bool   `koanf:"include_evidence"`
	IncludeMetadata bool   `koanf:"include_metadata"`
	Language        string `koanf:"language"`
	TechnicalLevel  string `koanf:"technical_level" validate:"oneof=executive manager analyst technical"`
}

type PerformanceConfig struct {
	CacheEnabled          bool          `koanf:"cache_enabled"`
	CacheTTL              time.Duration `koanf:"cache_ttl" validate:"gt=0"`
	CacheSweepInterval    time.Duration `koanf:"cache_sweep_interval" validate:"gte=0"`
	ParallelProcessing    bool          `koanf:"parallel_processing"`
	MaxConcurrentAnalyses int           `koanf:"max_concurrent_analyses" validate:"gte=1"`
	MaxQueuedAnalyses     int           `koanf:"max_queued_analyses" validate:"gte=0"`
	Timeout               time.Duration `koanf:"timeout" validate:"gt=0"`
	HistorySize           int           `koanf:"history_size" validate:"gte=1"`
	HistoryTTL            time.Duration `koanf:"history_ttl" validate:"gte=0"`
}

type IntegrationConfig struct {
	EnabledSystems        []string                `koanf:"enabled_systems"`
	DataRefreshInterval   time.Duration           `koanf:"data_refresh_interval"`
	WebhookEndpoints      []WebhookEndpointConfig `koanf:"webhook_endpoints" validate:"dive"`
	NotificationRateLimit float64                 `koanf:"notification_rate_limit" validate:"gte=0"`
	NotificationBurst     int                     `koanf:"notification_burst" validate:"gte=1"`
}

type WebhookEndpointConfig struct {
	URL         string        `koanf:"url" validate:"required,url"`
	Secret      string        `koanf:"secret"`
	Timeout     time.Duration `koanf:"timeout"`
	MaxAttempts int           `koanf:"max_attempts" validate:"gte=0"`
}

type MonitoringConfig struct {
	EvaluateOnCacheHit    bool          `koanf:"evaluate_on_cache_hit"`
	MaxEvents             int           `koanf:"max_events" validate:"gte=1"`
	NotificationQueueSize int           `koanf:"notification_queue_size" validate:"gte=1"`
	NotificationTimeout   time.Duration `koanf:"notification_timeout" validate:"gte=0"`
}

type CacheConfig struct {
	Backend    string      `koanf:"backend" validate:"oneof=memory redis"`
	KeyPrefix  string      `koanf:"key_prefix"`
	MaxEntries int         `koanf:"max_entries" validate:"gte=0"`
	Redis      RedisConfig `koanf:"redis"`
}

type RedisConfig struct {
	URL          string        `koanf:"url"`
	Password     string        `koanf:"password"`
	DB           int           `koanf:"db"`
	PoolSize     int           `koanf:"pool_size"`
	MinIdleConns int           `koanf:"min_idle_conns"`
	MaxRetries   int           `koanf:"max_retries"`
	DialTimeout  time.Duration `koanf:"dial_timeout"`
	ReadTimeout  time.Duration `koanf:"read_timeout"`
	WriteTimeout time.Duration `koanf:"write_timeout"`
}

type TelemetryConfig struct {
	Enabled      bool    `koanf:"enabled"`
	ServiceName  string  `koanf:"service_name"`
	OTLPEndpoint string  `koanf:"otlp_endpoint"`
	Insecure     bool    `koanf:"insecure"`
	SampleRate   float64 `koanf:"sample_rate" validate:"gte=0,lte=1"`
}

type MetricsConfig struct {
	Enabled        bool   `koanf:"enabled"`
	PrometheusAddr string `koanf:"prometheus_addr"`
}

// Defaults returns the built-in configuration.
func Defaults() *Config {
	return &Config{
		Version:     "dev",
		Environment: "development",
		LogLevel:    "info",
		LogFormat:   "json",
		Models: ModelsConfig{
			PrimaryModel:  "gpt-4",
			FallbackModel: "gpt-3.5-turbo",
			ResearchModel: "gpt-4",
			Temperature:   0.7,
			MaxTokens:     4000,
			ContextWindow: 8000,
		},
		Analysis: AnalysisConfig{
			DefaultDepth:          "standard",
			EnablePredictions:     true,
			EnableRecommendations: true,
			EnableComparisons:     true,
			ConfidenceThreshold:   0.7,
			MaxInsights:           20,
			MaxRecommendations:    10,
		},
		Output: OutputConfig{
			Format:          "structured",
			IncludeEvidence: true,
			IncludeMetadata: true,
			Language:        "en",
			TechnicalLevel:  "analyst",
		},
		Performance: PerformanceConfig{
			CacheEnabled:          true,
			CacheTTL:              time.Hour,
			ParallelProcessing:    true,
			MaxConcurrentAnalyses: 5,
			MaxQueuedAnalyses:     10,
			Timeout:               5 * time.Minute,
			HistorySize:           1000,
			HistoryTTL:            24 * time.Hour,
		},
		Integration: IntegrationConfig{
			EnabledSystems:        []string{"all"},
			DataRefreshInterval:   5 * time.Minute,
			NotificationRateLimit: 10,
			NotificationBurst:     20,
		},
		Monitoring: MonitoringConfig{
			MaxEvents:             1000,
			NotificationQueueSize: 100,
			NotificationTimeout:   10 * time.Second,
		},
		Cache: CacheConfig{
			Backend:    "memory",
			KeyPrefix:  "analysis:result:",
			MaxEntries: 10000,
			Redis: RedisConfig{
				URL:          "localhost:6379",
				PoolSize:     10,
				MinIdleConns: 2,
				MaxRetries:   3,
				DialTimeout:  5 * time.Second,
				ReadTimeout:  3 * time.Second,
				WriteTimeout: 3 * time.Second,
			},
		},
		Telemetry: TelemetryConfig{
			ServiceName: "analysis-orchestrator",
			SampleRate:  1.0,
			Insecure:    true,
		},
		Metrics: MetricsConfig{
			Enabled:        true,
			PrometheusAddr: ":9464",
		},
	}
}

// Load reads defaults, then the YAML file at path (optional), then
// environment overrides.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Defaults(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", path, err)
		}
	} else if explicit || !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(
			strings.TrimPrefix(s, EnvPrefix)), "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("loading environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}
