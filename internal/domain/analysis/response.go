package analysis

import (
	"encoding/json"
	"time"
)

// Version is reported as metadata.analysisVersion.
const Version = "1.0.0"

type DataQuality struct {
	Completeness float64 `json:"completeness"`
	Accuracy     float64 `json:"accuracy"`
	Timeliness   float64 `json:"timeliness"`
	Consistency  float64 `json:"consistency"`
	Reliability  float64 `json:"reliability"`
}

type ProcessingStats struct {
	TotalDataPoints int   `json:"totalDataPoints"`
	ProcessingTime  int64 `json:"processingTime"`
	GeneratorCalls  int   `json:"generatorCalls"`
	NarratorCalls   int   `json:"narratorCalls"`
}

type Metadata struct {
	DataQuality     DataQuality       `json:"dataQuality"`
	ProcessingStats ProcessingStats   `json:"processingStats"`
	SystemsAnalyzed []string          `json:"systemsAnalyzed"`
	AnalysisVersion string            `json:"analysisVersion"`
	ModelVersions   map[string]string `json:"modelVersions"`
	Limitations     []string          `json:"limitations"`
	Assumptions     []string          `json:"assumptions"`
}

// Response is the result of one analysis. Strategy specific details hang off
// the optional extension pointers; the base fields are always populated.
type Response struct {
	ID              string           `json:"id"`
	RequestID       string           `json:"requestId"`
	Type            AnalysisType     `json:"type"`
	Scope           string           `json:"scope"`
	ExecutionTime   int64            `json:"executionTime"`
	Confidence      float64          `json:"confidence"`
	Insights        []Insight        `json:"insights"`
	Summary         string           `json:"summary"`
	Recommendations []Recommendation `json:"recommendations"`
	Trends          []Trend          `json:"trends"`
	Predictions     []Prediction     `json:"predictions"`
	Metadata        Metadata         `json:"metadata"`
	Timestamp       time.Time        `json:"timestamp"`

	Crisis      *CrisisDetails      `json:"crisis,omitempty"`
	Opportunity *OpportunityDetails `json:"opportunity,omitempty"`
	Comparison  *ComparisonDetails  `json:"comparison,omitempty"`
}

// Clone returns a deep copy via JSON so cached and historical responses can
// be handed out without sharing slices.
func (r *Response) Clone() (*Response, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}
	var out Response
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Crisis assessment

type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityModerate Severity = "moderate"
	SeverityHigh     Severity = "high"
	SeveritySevere   Severity = "severe"
	SeverityCritical Severity = "critical"
)

// Numeric maps a severity level onto the 0..1 scale used by monitoring rules.
func (s Severity) Numeric() float64 {
	switch s {
	case SeverityLow:
		return 0.2
	case SeverityModerate:
		return 0.4
	case SeverityHigh:
		return 0.6
	case SeveritySevere:
		return 0.8
	case SeverityCritical:
		return 1.0
	}
	return 0
}

// CrisisTypeNone is reported when no indicator crossed the stress threshold.
const CrisisTypeNone = "none"

type CrisisIndicator struct {
	Domain    Domain  `json:"domain"`
	Stream    string  `json:"stream"`
	Stress    float64 `json:"stress"`
	MeanScore float64 `json:"meanScore"`
	Records   int     `json:"records"`
}

type ResponseOption struct {
	System      string   `json:"system"`
	Action      string   `json:"action"`
	Priority    Priority `json:"priority"`
	Description string   `json:"description"`
}

type CrisisDetails struct {
	CrisisType          string            `json:"crisisType"`
	Severity            Severity          `json:"severity"`
	SeverityScore       float64           `json:"severityScore"`
	Urgency             float64           `json:"urgency"`
	AffectedSystems     []string          `json:"affectedSystems"`
	ResponseOptions     []ResponseOption  `json:"responseOptions"`
	EscalationPotential float64           `json:"escalationPotential"`
	Indicators          []CrisisIndicator `json:"indicators"`
}

// Opportunity analysis

// OpportunityTypeNone is reported when no candidate qualified.
const OpportunityTypeNone = "none"

type OpportunityDetails struct {
	OpportunityType      string   `json:"opportunityType"`
	Potential            float64  `json:"potential"`
	Feasibility          float64  `json:"feasibility"`
	TimeWindow           string   `json:"timeWindow"`
	Requirements         []string `json:"requirements"`
	CompetitiveAdvantage float64  `json:"competitiveAdvantage"`
	RiskFactors          []string `json:"riskFactors"`
	Candidates           int      `json:"candidates"`
}

// Comparative analysis

type ComparisonMetric struct {
	Subject string  `json:"subject"`
	Domain  Domain  `json:"domain"`
	Value   float64 `json:"value"`
	Records int     `json:"records"`
}

type Ranking struct {
	Rank    int     `json:"rank"`
	Subject string  `json:"subject"`
	Score   float64 `json:"score"`
}

type Gap struct {
	Subject string  `json:"subject"`
	Domain  Domain  `json:"domain"`
	Leader  string  `json:"leader"`
	Gap     float64 `json:"gap"`
}

type Benchmark struct {
	Domain  Domain  `json:"domain"`
	Leader  string  `json:"leader"`
	Best    float64 `json:"best"`
	Average float64 `json:"average"`
	Worst   float64 `json:"worst"`
}

type ComparisonDetails struct {
	ComparisonType string             `json:"comparisonType"`
	Subjects       []string           `json:"subjects"`
	Metrics        []ComparisonMetric `json:"metrics"`
	Rankings       []Ranking          `json:"rankings"`
	Gaps           []Gap              `json:"gaps"`
	Benchmarks     []Benchmark        `json:"benchmarks"`
}
