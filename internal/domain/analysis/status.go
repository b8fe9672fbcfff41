package analysis

import "time"

// Capabilities describes what the engine accepts and produces.
type Capabilities struct {
	AnalysisTypes    []string        `json:"analysisTypes"`
	AnalysisScopes   []string        `json:"analysisScopes"`
	DataInputTypes   []string        `json:"dataInputTypes"`
	OutputFormats    []string        `json:"outputFormats"`
	TechnicalLevels  []string        `json:"technicalLevels"`
	SupportedSystems []string        `json:"supportedSystems"`
	MonitoringRules  []string        `json:"monitoringMetrics"`
	Features         map[string]bool `json:"features"`
}

var (
	AnalysisScopes = []string{
		"civilization", "city", "region", "population_segment", "individual",
		"cross_civilization", "global", "system_specific", "multi_system",
	}
	OutputFormats    = []string{"structured", "narrative", "executive_summary", "technical_report"}
	TechnicalLevels  = []string{"executive", "manager", "analyst", "technical"}
	SupportedSystems = []string{
		"trade", "business", "population", "migration", "psychology",
		"governance", "security", "demographics", "technology", "social_media",
	}
)

type HealthStatus string

const (
	HealthHealthy  HealthStatus = "healthy"
	HealthDegraded HealthStatus = "degraded"
)

type HealthMetrics struct {
	TotalAnalyses        int64   `json:"totalAnalyses"`
	SuccessRate          float64 `json:"successRate"`
	AverageExecutionTime float64 `json:"averageExecutionTime"`
	ActiveJobs           int     `json:"activeJobs"`
	SystemLoad           float64 `json:"systemLoad"`
}

type Health struct {
	Status    HealthStatus      `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Metrics   HealthMetrics     `json:"metrics"`
	Checks    map[string]string `json:"checks"`
}
