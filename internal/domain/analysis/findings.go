package analysis

type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// Timeframe values used by impacts and predictions.
const (
	TimeframeShort  = "short"
	TimeframeMedium = "medium"
	TimeframeLong   = "long"
)

// CategoryCorrelation marks insights produced by the cross-domain pass.
const CategoryCorrelation = "correlation"

type Impact struct {
	Scope          []string `json:"scope"`
	Magnitude      float64  `json:"magnitude"`
	Timeframe      string   `json:"timeframe"`
	Certainty      float64  `json:"certainty"`
	Reversibility  float64  `json:"reversibility"`
	CascadeEffects []string `json:"cascadeEffects"`
}

type Insight struct {
	ID             string   `json:"id"`
	Domain         Domain   `json:"domain,omitempty"`
	Category       string   `json:"category"`
	Priority       Priority `json:"priority"`
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	Evidence       []string `json:"evidence"`
	Confidence     float64  `json:"confidence"`
	Impact         Impact   `json:"impact"`
	RelatedSystems []string `json:"relatedSystems"`
	Actionable     bool     `json:"actionable"`
}

type TrendDirection string

const (
	DirectionIncreasing TrendDirection = "increasing"
	DirectionDecreasing TrendDirection = "decreasing"
	DirectionStable     TrendDirection = "stable"
	DirectionVolatile   TrendDirection = "volatile"
)

type Trend struct {
	Name        string         `json:"name"`
	Domain      Domain         `json:"domain,omitempty"`
	Direction   TrendDirection `json:"direction"`
	Strength    float64        `json:"strength"`
	Confidence  float64        `json:"confidence"`
	Description string         `json:"description"`
}

type Prediction struct {
	Type        string  `json:"type"`
	Domain      Domain  `json:"domain,omitempty"`
	Description string  `json:"description"`
	Confidence  float64 `json:"confidence"`
	Timeframe   string  `json:"timeframe"`
}

type RecommendationType string

const (
	RecommendationPolicy     RecommendationType = "policy"
	RecommendationStrategic  RecommendationType = "strategic"
	RecommendationPreventive RecommendationType = "preventive"
)

type Implementation struct {
	Steps          []string `json:"steps"`
	Timeline       string   `json:"timeline"`
	Resources      []string `json:"resources"`
	Prerequisites  []string `json:"prerequisites"`
	SuccessMetrics []string `json:"successMetrics"`
}

// Recommendation is always derived from another finding.
type Recommendation struct {
	ID              string             `json:"id"`
	Type            RecommendationType `json:"type"`
	Priority        Priority           `json:"priority"`
	Title           string             `json:"title"`
	Description     string             `json:"description"`
	Rationale       string             `json:"rationale"`
	ExpectedOutcome string             `json:"expectedOutcome"`
	Implementation  Implementation     `json:"implementation"`
	Risks           []string           `json:"risks"`
	Alternatives    []string           `json:"alternatives"`
	Confidence      float64            `json:"confidence"`
}

// Findings groups what a generator produced for one domain.
type Findings struct {
	Insights    []Insight
	Trends      []Trend
	Predictions []Prediction
}

// Append adds other to f in order.
func (f *Findings) Append(other *Findings) {
	if other == nil {
		return
	}
	f.Insights = append(f.Insights, other.Insights...)
	f.Trends = append(f.Trends, other.Trends...)
	f.Predictions = append(f.Predictions, other.Predictions...)
}

// Empty reports whether no findings of any kind exist.
func (f *Findings) Empty() bool {
	return len(f.Insights) == 0 && len(f.Trends) == 0 && len(f.Predictions) == 0
}
