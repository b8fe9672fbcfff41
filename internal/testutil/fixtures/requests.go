package fixtures

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/davidleathers/analysis-orchestrator/internal/domain/analysis"
)

// RequestBuilder builds test analysis requests
type RequestBuilder struct {
	t       *testing.T
	id      string
	typ     analysis.AnalysisType
	scope   string
	inputs  analysis.DataInputs
	options *analysis.Options
}

// NewRequestBuilder creates a new RequestBuilder with defaults
func NewRequestBuilder(t *testing.T) *RequestBuilder {
	t.Helper()
	return &RequestBuilder{
		t:     t,
		id:    uuid.New().String(),
		typ:   analysis.TypeComprehensive,
		scope: "civ-1",
	}
}

func (b *RequestBuilder) WithID(id string) *RequestBuilder {
	b.id = id
	return b
}

func (b *RequestBuilder) WithType(typ analysis.AnalysisType) *RequestBuilder {
	b.typ = typ
	return b
}

func (b *RequestBuilder) WithScope(scope string) *RequestBuilder {
	b.scope = scope
	return b
}

func (b *RequestBuilder) WithInputs(inputs analysis.DataInputs) *RequestBuilder {
	b.inputs = inputs
	return b
}

func (b *RequestBuilder) WithEconomic(data *analysis.EconomicData) *RequestBuilder {
	b.inputs.Economic = data
	return b
}

func (b *RequestBuilder) WithPolitical(data *analysis.PoliticalData) *RequestBuilder {
	b.inputs.Political = data
	return b
}

func (b *RequestBuilder) WithOptions(options analysis.Options) *RequestBuilder {
	b.options = &options
	return b
}

// Build creates the request
func (b *RequestBuilder) Build() *analysis.Request {
	b.t.Helper()
	return &analysis.Request{
		ID:         b.id,
		Type:       b.typ,
		Scope:      b.scope,
		DataInputs: b.inputs,
		Options:    b.options,
		Timestamp:  time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// TradeSeries returns n trade records over consecutive periods with growing exports.
func TradeSeries(n int) []analysis.TradeRecord {
	out := make([]analysis.TradeRecord, n)
	for i := 0; i < n; i++ {
		out[i] = analysis.TradeRecord{
			Observation: analysis.Observation{Entity: "civ-1", Period: i + 1},
			Partner:     "civ-2",
			Commodity:   "grain",
			Exports:     decimal.NewFromInt(int64(100 + 20*i)),
			Imports:     decimal.NewFromInt(80),
		}
	}
	return out
}

// HealthyInputs returns data for every domain with two periods per stream and
// scores well above the crisis threshold.
func HealthyInputs() analysis.DataInputs {
	obs := func(p int) analysis.Observation { return analysis.Observation{Entity: "civ-1", Period: p} }
	return analysis.DataInputs{
		Economic: &analysis.EconomicData{
			TradeData: TradeSeries(2),
			BusinessMetrics: []analysis.BusinessMetric{
				{Observation: obs(1), Sector: "manufacturing", Revenue: decimal.NewFromInt(1000), GrowthRate: 0.2, Employment: 0.9},
				{Observation: obs(2), Sector: "manufacturing", Revenue: decimal.NewFromInt(1200), GrowthRate: 0.3, Employment: 0.92},
			},
			MarketIndicators: []analysis.MarketIndicator{
				{Observation: obs(1), Name: "index", Value: 100, Change: 0.4, Volatility: 0.1},
				{Observation: obs(2), Name: "index", Value: 140, Change: 0.6, Volatility: 0.1},
			},
		},
		Social: &analysis.SocialData{
			PopulationProfiles: []analysis.PopulationProfile{
				{Observation: obs(1), Population: 1000000, GrowthRate: 0.04, MedianAge: 31},
				{Observation: obs(2), Population: 1040000, GrowthRate: 0.05, MedianAge: 31},
			},
			SocialCohesionMetrics: []analysis.CohesionMetric{
				{Observation: obs(1), Index: 0.8, Trust: 0.75, Unrest: 0.1},
				{Observation: obs(2), Index: 0.82, Trust: 0.78, Unrest: 0.1},
			},
		},
		Technological: &analysis.TechnologicalData{
			TechnologyAdoption: []analysis.AdoptionRecord{
				{Observation: obs(1), Technology: "fusion", AdoptionRate: 0.4},
				{Observation: obs(2), Technology: "fusion", AdoptionRate: 0.6},
			},
			ResearchData: []analysis.ResearchRecord{
				{Observation: obs(1), Project: "fusion", Progress: 0.7, Breakthrough: true},
			},
		},
		Political: &analysis.PoliticalData{
			GovernanceData: []analysis.GovernanceRecord{
				{Observation: obs(1), Effectiveness: 0.8, Approval: 0.7, Corruption: 0.1},
				{Observation: obs(2), Effectiveness: 0.85, Approval: 0.72, Corruption: 0.1},
			},
		},
		Psychological: &analysis.PsychologicalData{
			IntegrationAnalyses: []analysis.IntegrationAnalysis{
				{Observation: obs(1), Group: "settlers", IntegrationScore: 0.8},
			},
		},
		SocialMedia: &analysis.SocialMediaData{
			SentimentAnalysis: []analysis.SentimentRecord{
				{Observation: obs(1), Topic: "economy", Sentiment: 0.5, Volume: 1000},
				{Observation: obs(2), Topic: "economy", Sentiment: 0.6, Volume: 1200},
			},
		},
	}
}

// CrisisPolitical returns political data whose security stream signals a
// critical crisis.
func CrisisPolitical() *analysis.PoliticalData {
	obs := func(p int) analysis.Observation { return analysis.Observation{Entity: "civ-1", Period: p} }
	return &analysis.PoliticalData{
		GovernanceData: []analysis.GovernanceRecord{
			{Observation: obs(1), Effectiveness: 0.2, Approval: 0.1, Corruption: 0.9},
		},
		SecurityMetrics: []analysis.SecurityMetric{
			{Observation: obs(1), ThreatLevel: 0.9, Stability: 0.1, Incidents: 12},
			{Observation: obs(2), ThreatLevel: 1.0, Stability: 0.0, Incidents: 40},
		},
	}
}
