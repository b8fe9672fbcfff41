package analysis

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davidleathers/analysis-orchestrator/internal/domain/analysis"
	"github.com/davidleathers/analysis-orchestrator/internal/testutil/fixtures"
)

func TestAssessCrisis(t *testing.T) {
	t.Run("healthy data", func(t *testing.T) {
		inputs := fixtures.HealthyInputs()
		c := assessCrisis(&inputs)

		assert.Equal(t, analysis.CrisisTypeNone, c.CrisisType)
		assert.Equal(t, analysis.SeverityLow, c.Severity)
		assert.Empty(t, c.AffectedSystems)
		assert.NotNil(t, c.ResponseOptions)
		assert.Zero(t, c.Urgency)
	})

	t.Run("political crisis", func(t *testing.T) {
		c := assessCrisis(&analysis.DataInputs{Political: fixtures.CrisisPolitical()})

		assert.Equal(t, "political_instability", c.CrisisType)
		assert.Equal(t, analysis.SeverityCritical, c.Severity)
		assert.InDelta(t, 0.95, c.SeverityScore, 1e-9)
		assert.Equal(t, 93.0, c.Urgency)
		assert.Equal(t, 95.0, c.EscalationPotential)
		assert.Equal(t, []string{"political"}, c.AffectedSystems)
		require.Len(t, c.Indicators, 2)
		assert.Equal(t, "governanceData", c.Indicators[0].Stream)
		assert.Equal(t, "securityMetrics", c.Indicators[1].Stream)

		require.Len(t, c.ResponseOptions, 1)
		opt := c.ResponseOptions[0]
		assert.Equal(t, "political", opt.System)
		assert.Equal(t, "security_stabilization", opt.Action)
		assert.Equal(t, analysis.PriorityCritical, opt.Priority)
		assert.Equal(t, "Stabilize political securityMetrics (stress 0.95)", opt.Description)
	})

	t.Run("escalation grows with affected systems", func(t *testing.T) {
		obs := analysis.Observation{Period: 1}
		data := &analysis.DataInputs{
			Political: fixtures.CrisisPolitical(),
			Social: &analysis.SocialData{SocialCohesionMetrics: []analysis.CohesionMetric{
				{Observation: obs, Index: 0.2, Trust: 0.2, Unrest: 0.8},
			}},
		}
		c := assessCrisis(data)

		assert.Equal(t, []string{"social", "political"}, c.AffectedSystems)
		assert.Equal(t, 100.0, c.EscalationPotential)
		require.Len(t, c.ResponseOptions, 2)
		assert.Equal(t, analysis.PriorityHigh, c.ResponseOptions[0].Priority)
	})
}

func TestCrisisSeverity(t *testing.T) {
	tests := []struct {
		stress float64
		want   analysis.Severity
	}{
		{0.95, analysis.SeverityCritical},
		{0.9, analysis.SeverityCritical},
		{0.8, analysis.SeveritySevere},
		{0.6, analysis.SeverityHigh},
		{0.35, analysis.SeverityModerate},
		{0.1, analysis.SeverityLow},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, crisisSeverity(tt.stress), "stress %.2f", tt.stress)
	}
}

func TestAnalyzeOpportunities(t *testing.T) {
	obs := func(p int) analysis.Observation { return analysis.Observation{Entity: "civ-1", Period: p} }
	cohesive := &analysis.SocialData{SocialCohesionMetrics: []analysis.CohesionMetric{
		{Observation: obs(1), Index: 0.9, Trust: 0.9, Unrest: 0},
		{Observation: obs(2), Index: 0.9, Trust: 0.9, Unrest: 0},
	}}

	t.Run("no candidates", func(t *testing.T) {
		o := analyzeOpportunities(&analysis.DataInputs{Political: fixtures.CrisisPolitical()}, nil)
		assert.Equal(t, analysis.OpportunityTypeNone, o.OpportunityType)
		assert.Zero(t, o.Candidates)
		assert.NotNil(t, o.Requirements)
	})

	t.Run("healthy stream", func(t *testing.T) {
		o := analyzeOpportunities(&analysis.DataInputs{Social: cohesive}, nil)

		assert.Equal(t, "social_development", o.OpportunityType)
		assert.Equal(t, 93.0, o.Potential)
		assert.Equal(t, 70.0, o.Feasibility)
		assert.Equal(t, "0-3 months", o.TimeWindow)
		assert.Equal(t, 50.0, o.CompetitiveAdvantage)
		assert.Equal(t, []string{"community_programs", "infrastructure"}, o.Requirements)
		assert.Empty(t, o.RiskFactors)
		assert.Equal(t, 1, o.Candidates)
	})

	t.Run("strong trend wins and risks are named", func(t *testing.T) {
		data := &analysis.DataInputs{Social: cohesive, Political: fixtures.CrisisPolitical()}
		trends := []analysis.Trend{
			{Domain: analysis.DomainTechnological, Direction: analysis.DirectionIncreasing, Strength: 1, Confidence: 0.9},
			{Domain: analysis.DomainEconomic, Direction: analysis.DirectionVolatile, Strength: 0.9, Confidence: 0.9},
			{Domain: analysis.DomainSocial, Direction: analysis.DirectionIncreasing, Strength: 0.3, Confidence: 0.9},
		}
		o := analyzeOpportunities(data, trends)

		assert.Equal(t, "technology_leadership", o.OpportunityType)
		assert.Equal(t, 100.0, o.Potential)
		assert.Equal(t, 90.0, o.Feasibility)
		assert.Equal(t, "3-6 months", o.TimeWindow)
		assert.Equal(t, 53.0, o.CompetitiveAdvantage)
		assert.Equal(t, 2, o.Candidates)
		assert.Equal(t, []string{"political_stress", "economic_volatility"}, o.RiskFactors)
	})
}

func tradeFor(entity string, exports, imports int64) analysis.TradeRecord {
	return analysis.TradeRecord{
		Observation: analysis.Observation{Entity: entity, Period: 1},
		Exports:     decimal.NewFromInt(exports),
		Imports:     decimal.NewFromInt(imports),
	}
}

func TestCompare(t *testing.T) {
	data := &analysis.DataInputs{Economic: &analysis.EconomicData{TradeData: []analysis.TradeRecord{
		tradeFor("civ-2", 50, 150),
		tradeFor("civ-1", 150, 50),
	}}}

	t.Run("entities from records", func(t *testing.T) {
		c := compare(&analysis.Request{Scope: "galaxy"}, data)

		assert.Equal(t, "entity_comparison", c.ComparisonType)
		assert.Equal(t, []string{"civ-1", "civ-2"}, c.Subjects)
		require.Len(t, c.Rankings, 2)
		assert.Equal(t, analysis.Ranking{Rank: 1, Subject: "civ-1", Score: 0.75}, c.Rankings[0])
		assert.Equal(t, 2, c.Rankings[1].Rank)

		require.Len(t, c.Gaps, 1)
		assert.Equal(t, "civ-2", c.Gaps[0].Subject)
		assert.Equal(t, analysis.DomainEconomic, c.Gaps[0].Domain)
		assert.Equal(t, "civ-1", c.Gaps[0].Leader)
		assert.InDelta(t, 0.5, c.Gaps[0].Gap, 1e-9)

		require.Len(t, c.Benchmarks, 1)
		b := c.Benchmarks[0]
		assert.Equal(t, "civ-1", b.Leader)
		assert.InDelta(t, 0.75, b.Best, 1e-9)
		assert.InDelta(t, 0.5, b.Average, 1e-9)
		assert.InDelta(t, 0.25, b.Worst, 1e-9)
	})

	t.Run("explicit subjects and type", func(t *testing.T) {
		req := &analysis.Request{Options: &analysis.Options{
			Subjects:       []string{"civ-2", "civ-9"},
			ComparisonType: "rivalry",
		}}
		c := compare(req, data)

		assert.Equal(t, "rivalry", c.ComparisonType)
		assert.Equal(t, []string{"civ-2", "civ-9"}, c.Subjects)
		assert.Equal(t, "civ-2", c.Rankings[0].Subject)
		assert.Len(t, c.Metrics, 1)

		// civ-9 shares no domain with the leader, so its gap is overall
		require.Len(t, c.Gaps, 1)
		assert.Equal(t, "civ-9", c.Gaps[0].Subject)
		assert.Equal(t, analysis.Domain(""), c.Gaps[0].Domain)
		assert.InDelta(t, 0.25, c.Gaps[0].Gap, 1e-9)
	})

	t.Run("repeated subjects are compared once", func(t *testing.T) {
		req := &analysis.Request{Options: &analysis.Options{
			Subjects: []string{"civ-2", "civ-1", "civ-2", " civ-1 ", ""},
		}}
		c := compare(req, data)

		assert.Equal(t, []string{"civ-2", "civ-1"}, c.Subjects)
		require.Len(t, c.Rankings, 2)
		assert.Equal(t, "civ-1", c.Rankings[0].Subject)
		assert.Len(t, c.Metrics, 2)
		require.Len(t, c.Gaps, 1)
		assert.Equal(t, "civ-2", c.Gaps[0].Subject)
		assert.InDelta(t, 0.5, c.Gaps[0].Gap, 1e-9)
	})

	t.Run("blank subjects fall back to record entities", func(t *testing.T) {
		c := compare(&analysis.Request{Options: &analysis.Options{Subjects: []string{" "}}}, data)
		assert.Equal(t, []string{"civ-1", "civ-2"}, c.Subjects)
	})

	t.Run("systems when records carry no entity", func(t *testing.T) {
		anon := &analysis.DataInputs{
			Economic: &analysis.EconomicData{TradeData: []analysis.TradeRecord{tradeFor("", 150, 50)}},
			Political: &analysis.PoliticalData{GovernanceData: []analysis.GovernanceRecord{
				{Observation: analysis.Observation{Period: 1}, Effectiveness: 0.4, Approval: 0.4, Corruption: 0.6},
			}},
		}
		c := compare(&analysis.Request{}, anon)

		assert.Equal(t, "system_comparison", c.ComparisonType)
		assert.Equal(t, []string{"economic", "political"}, c.Subjects)
		assert.Equal(t, "economic", c.Rankings[0].Subject)
		require.Len(t, c.Gaps, 1)
		assert.Equal(t, analysis.Domain(""), c.Gaps[0].Domain)
		assert.InDelta(t, 0.75-0.4, c.Gaps[0].Gap, 1e-9)
		assert.Len(t, c.Benchmarks, 2)
	})
}

func TestStrategyRegistryTypes(t *testing.T) {
	cfg := DefaultConfig()
	r := newStrategyRegistry(cfg)
	types := r.types()

	assert.Equal(t, "comprehensive", types[0])
	assert.Contains(t, types, "comparative")
	assert.Contains(t, types, "predictive")

	r.register("zeta", StrategyFunc(comprehensiveStrategy))
	r.register("alpha", StrategyFunc(comprehensiveStrategy))
	types = r.types()
	assert.Equal(t, []string{"alpha", "zeta"}, types[len(types)-2:])

	_, ok := r.lookup("unknown")
	assert.False(t, ok)
}
