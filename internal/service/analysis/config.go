package analysis

import (
	"time"

	"github.com/davidleathers/analysis-orchestrator/internal/domain/analysis"
)

// ModelVersions are the model selection hints reported in response metadata.
type ModelVersions struct {
	Primary  string `json:"primary"`
	Fallback string `json:"fallback"`
	Research string `json:"research"`
}

// Config is the engine configuration. It is copied at construction and never
// changes afterwards.
type Config struct {
	Models ModelVersions `json:"models"`

	DefaultDepth          analysis.Depth `json:"defaultDepth"`
	EnablePredictions     bool           `json:"enablePredictions"`
	EnableRecommendations bool           `json:"enableRecommendations"`
	EnableComparisons     bool           `json:"enableComparisons"`
	ConfidenceThreshold   float64        `json:"confidenceThreshold"`
	MaxInsights           int            `json:"maxInsights"`
	MaxRecommendations    int            `json:"maxRecommendations"`

	IncludeEvidence bool `json:"includeEvidence"`

	CacheEnabled          bool          `json:"cacheEnabled"`
	CacheTTL              time.Duration `json:"cacheTTL"`
	CacheKeyPrefix        string        `json:"cacheKeyPrefix"`
	ParallelProcessing    bool          `json:"parallelProcessing"`
	MaxConcurrentAnalyses int           `json:"maxConcurrentAnalyses"`
	MaxQueuedAnalyses     int           `json:"maxQueuedAnalyses"`
	Timeout               time.Duration `json:"timeout"`
	HistorySize           int           `json:"historySize"`
	HistoryTTL            time.Duration `json:"historyTTL"`

	// EnabledSystems restricts which domains are analyzed; "all" or empty
	// means every domain.
	EnabledSystems []string `json:"enabledSystems"`

	EvaluateRulesOnCacheHit bool          `json:"evaluateRulesOnCacheHit"`
	MaxEvents               int           `json:"maxEvents"`
	NotificationQueueSize   int           `json:"notificationQueueSize"`
	NotificationTimeout     time.Duration `json:"notificationTimeout"`
}

// DefaultConfig returns the engine defaults.
func DefaultConfig() Config {
	return Config{
		Models: ModelVersions{
			Primary:  "gpt-4",
			Fallback: "gpt-3.5-turbo",
			Research: "gpt-4",
		},
		DefaultDepth:          analysis.DepthStandard,
		EnablePredictions:     true,
		EnableRecommendations: true,
		EnableComparisons:     true,
		ConfidenceThreshold:   0.7,
		MaxInsights:           20,
		MaxRecommendations:    10,
		IncludeEvidence:       true,
		CacheEnabled:          true,
		CacheTTL:              time.Hour,
		CacheKeyPrefix:        "analysis:result:",
		ParallelProcessing:    true,
		MaxConcurrentAnalyses: 5,
		MaxQueuedAnalyses:     10,
		Timeout:               5 * time.Minute,
		HistorySize:           1000,
		HistoryTTL:            24 * time.Hour,
		EnabledSystems:        []string{"all"},
		MaxEvents:             1000,
		NotificationQueueSize: 100,
		NotificationTimeout:   10 * time.Second,
	}
}

func (c Config) clone() Config {
	c.EnabledSystems = append([]string(nil), c.EnabledSystems...)
	return c
}

func (c *Config) normalize() {
	if c.MaxConcurrentAnalyses < 1 {
		c.MaxConcurrentAnalyses = 1
	}
	if c.MaxQueuedAnalyses < 0 {
		c.MaxQueuedAnalyses = 0
	}
	if c.MaxInsights < 1 {
		c.MaxInsights = 1
	}
	if c.MaxRecommendations < 1 {
		c.MaxRecommendations = 1
	}
	if c.HistorySize < 1 {
		c.HistorySize = 1
	}
	if c.MaxEvents < 1 {
		c.MaxEvents = 1
	}
	if c.NotificationQueueSize < 1 {
		c.NotificationQueueSize = 1
	}
	if c.DefaultDepth == "" {
		c.DefaultDepth = analysis.DepthStandard
	}
}

// enabledDomains returns the domains allowed by EnabledSystems, in canonical
// order.
func (c Config) enabledDomains() []analysis.Domain {
	if len(c.EnabledSystems) == 0 {
		return analysis.Domains
	}
	allowed := map[string]bool{}
	for _, s := range c.EnabledSystems {
		if s == "all" {
			return analysis.Domains
		}
		allowed[s] = true
	}
	var out []analysis.Domain
	for _, d := range analysis.Domains {
		if allowed[string(d)] {
			out = append(out, d)
		}
	}
	return out
}
