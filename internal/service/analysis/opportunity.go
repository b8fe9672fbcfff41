package analysis

import (
	"context"
	"math"

	"github.com/davidleathers/analysis-orchestrator/internal/domain/analysis"
	"github.com/davidleathers/analysis-orchestrator/internal/service/generators"
)

const (
	opportunityScoreThreshold = 0.65
	opportunityTrendStrength  = 0.5
)

var opportunityTypes = map[analysis.Domain]string{
	analysis.DomainEconomic:      "market_expansion",
	analysis.DomainSocial:        "social_development",
	analysis.DomainTechnological: "technology_leadership",
	analysis.DomainPolitical:     "governance_reform",
	analysis.DomainPsychological: "community_integration",
	analysis.DomainSocialMedia:   "public_engagement",
}

var opportunityRequirements = map[analysis.Domain][]string{
	analysis.DomainEconomic:      {"investment", "trade_agreements"},
	analysis.DomainSocial:        {"community_programs", "infrastructure"},
	analysis.DomainTechnological: {"investment", "research"},
	analysis.DomainPolitical:     {"policy_support", "institutional_capacity"},
	analysis.DomainPsychological: {"outreach", "integration_programs"},
	analysis.DomainSocialMedia:   {"communication_strategy", "platform_partnerships"},
}

type opportunity struct {
	domain      analysis.Domain
	potential   float64 // 0..1
	feasibility float64 // 0..1
	window      string
}

func (o opportunity) value() float64 { return o.potential * o.feasibility }

func opportunityStrategy(ctx context.Context, x *Execution) (*analysis.Response, error) {
	resp, err := x.Comprehensive(ctx)
	if err != nil {
		return nil, err
	}
	resp.Opportunity = analyzeOpportunities(x.Inputs, resp.Trends)
	return resp, nil
}

// identifyOpportunities returns candidates from healthy streams followed by
// candidates from strong increasing trends.
func identifyOpportunities(data *analysis.DataInputs, trends []analysis.Trend) []opportunity {
	var out []opportunity
	for _, d := range data.Present() {
		for _, s := range data.Streams(d) {
			if len(s.Records) == 0 {
				continue
			}
			m := generators.MeanScore(s.Records)
			if m < opportunityScoreThreshold {
				continue
			}
			scores := make([]float64, len(s.Records))
			for i, r := range s.Records {
				scores[i] = r.Score()
			}
			window := "6-12 months"
			if m >= 0.8 {
				window = "0-3 months"
			}
			out = append(out, opportunity{
				domain:      d,
				potential:   m,
				feasibility: math.Max(0, 1-stddev(scores)) * math.Min(1, 0.5+0.1*float64(len(s.Records))),
				window:      window,
			})
		}
	}
	for _, t := range trends {
		if t.Domain == "" || t.Direction != analysis.DirectionIncreasing || t.Strength < opportunityTrendStrength {
			continue
		}
		out = append(out, opportunity{
			domain:      t.Domain,
			potential:   t.Strength,
			feasibility: t.Confidence,
			window:      "3-6 months",
		})
	}
	return out
}

func analyzeOpportunities(data *analysis.DataInputs, trends []analysis.Trend) *analysis.OpportunityDetails {
	candidates := identifyOpportunities(data, trends)
	if len(candidates) == 0 {
		return &analysis.OpportunityDetails{
			OpportunityType: analysis.OpportunityTypeNone,
			Requirements:    []string{},
			RiskFactors:     []string{},
		}
	}

	// First candidate wins ties
	best := candidates[0]
	var total float64
	for _, c := range candidates {
		total += c.potential
		if c.value() > best.value() {
			best = c
		}
	}
	avg := total / float64(len(candidates))

	return &analysis.OpportunityDetails{
		OpportunityType:      opportunityTypes[best.domain],
		Potential:            math.Round(best.potential * 100),
		Feasibility:          math.Round(best.feasibility * 100),
		TimeWindow:           best.window,
		Requirements:         append([]string(nil), opportunityRequirements[best.domain]...),
		CompetitiveAdvantage: math.Round(100 * math.Max(0, math.Min(1, 0.5+best.potential-avg))),
		RiskFactors:          opportunityRisks(data, trends),
		Candidates:           len(candidates),
	}
}

// opportunityRisks names stressed and volatile domains.
func opportunityRisks(data *analysis.DataInputs, trends []analysis.Trend) []string {
	out := []string{}
	seen := map[string]bool{}
	add := func(s string) {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	for _, ind := range detectCrisisIndicators(data) {
		add(string(ind.Domain) + "_stress")
	}
	for _, t := range trends {
		if t.Domain != "" && t.Direction == analysis.DirectionVolatile {
			add(string(t.Domain) + "_volatility")
		}
	}
	return out
}
