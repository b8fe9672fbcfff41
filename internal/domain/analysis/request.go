package analysis

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/davidleathers/analysis-orchestrator/internal/domain/errors"
)

// AnalysisType selects the strategy a request is dispatched to.
type AnalysisType string

const (
	TypeComprehensive AnalysisType = "comprehensive"
	TypeCrisis        AnalysisType = "crisis_assessment"
	TypeOpportunity   AnalysisType = "opportunity_analysis"
	TypeComparative   AnalysisType = "comparative"

	// Specialized types
	TypeEconomic      AnalysisType = "economic"
	TypeSocial        AnalysisType = "social"
	TypeTechnological AnalysisType = "technological"
	TypePolitical     AnalysisType = "political"
	TypeDemographic   AnalysisType = "demographic"
	TypePsychological AnalysisType = "psychological"
	TypeSocialMedia   AnalysisType = "social_media"
	TypeCrossSystem   AnalysisType = "cross_system"
	TypePredictive    AnalysisType = "predictive"
)

// SpecializedTypes lists the specialized analysis types in capability order.
var SpecializedTypes = []AnalysisType{
	TypeEconomic,
	TypeSocial,
	TypeTechnological,
	TypePolitical,
	TypeDemographic,
	TypePsychological,
	TypeSocialMedia,
	TypeCrossSystem,
	TypePredictive,
}

// Depth hints how much work a strategy should spend. It is carried through
// to the narrator and otherwise not interpreted by the engine.
type Depth string

const (
	DepthQuick    Depth = "quick"
	DepthStandard Depth = "standard"
	DepthDeep     Depth = "deep"
)

// Options are caller supplied hints. They take part in the request signature.
type Options struct {
	Depth          Depth    `json:"depth,omitempty"`
	FocusAreas     []string `json:"focusAreas,omitempty"`
	Subjects       []string `json:"subjects,omitempty"`
	ComparisonType string   `json:"comparisonType,omitempty"`
}

// Request describes what to analyze and with which data. A request is never
// modified once it has been submitted.
type Request struct {
	ID          string       `json:"id"`
	Type        AnalysisType `json:"type"`
	Scope       string       `json:"scope"`
	DataInputs  DataInputs   `json:"dataInputs"`
	Options     *Options     `json:"options,omitempty"`
	RequestedBy string       `json:"requestedBy,omitempty"`
	Timestamp   time.Time    `json:"timestamp,omitempty"`
}

// NewRequest builds a request with a generated id.
func NewRequest(analysisType AnalysisType, scope string, inputs DataInputs) *Request {
	return &Request{
		ID:         uuid.New().String(),
		Type:       analysisType,
		Scope:      scope,
		DataInputs: inputs,
		Timestamp:  time.Now().UTC(),
	}
}

// CheckEnvelope validates the request fields outside of the data inputs.
func (r *Request) CheckEnvelope() error {
	if r == nil {
		return errors.ErrNilRequest
	}
	if strings.TrimSpace(string(r.Type)) == "" {
		return errors.ErrMissingType
	}
	if strings.TrimSpace(r.Scope) == "" {
		return errors.ErrMissingScope
	}
	return nil
}

// Focus returns the option focus areas, or nil when no options were given.
func (r *Request) Focus() []string {
	if r.Options == nil {
		return nil
	}
	return r.Options.FocusAreas
}
