package analysis

import (
	"context"
	"fmt"
	"math"

	"github.com/davidleathers/analysis-orchestrator/internal/domain/analysis"
	"github.com/davidleathers/analysis-orchestrator/internal/service/generators"
)

// A stream whose mean score falls below this is a crisis indicator.
const crisisScoreThreshold = 0.4

var crisisTypes = map[analysis.Domain]string{
	analysis.DomainEconomic:      "economic_collapse",
	analysis.DomainSocial:        "social_unrest",
	analysis.DomainTechnological: "technological_disruption",
	analysis.DomainPolitical:     "political_instability",
	analysis.DomainPsychological: "psychological_distress",
	analysis.DomainSocialMedia:   "information_crisis",
}

var crisisActions = map[analysis.Domain]string{
	analysis.DomainEconomic:      "economic_stabilization",
	analysis.DomainSocial:        "social_cohesion_program",
	analysis.DomainTechnological: "infrastructure_resilience",
	analysis.DomainPolitical:     "security_stabilization",
	analysis.DomainPsychological: "public_support_services",
	analysis.DomainSocialMedia:   "information_integrity",
}

func crisisStrategy(ctx context.Context, x *Execution) (*analysis.Response, error) {
	resp, err := x.Comprehensive(ctx)
	if err != nil {
		return nil, err
	}
	resp.Crisis = assessCrisis(x.Inputs)
	return resp, nil
}

// detectCrisisIndicators returns one indicator per stressed stream in
// canonical order.
func detectCrisisIndicators(data *analysis.DataInputs) []analysis.CrisisIndicator {
	var out []analysis.CrisisIndicator
	for _, d := range data.Present() {
		for _, s := range data.Streams(d) {
			if len(s.Records) == 0 {
				continue
			}
			m := generators.MeanScore(s.Records)
			if m >= crisisScoreThreshold {
				continue
			}
			out = append(out, analysis.CrisisIndicator{
				Domain:    d,
				Stream:    s.Name,
				Stress:    1 - m,
				MeanScore: m,
				Records:   len(s.Records),
			})
		}
	}
	return out
}

func crisisSeverity(stress float64) analysis.Severity {
	switch {
	case stress >= 0.9:
		return analysis.SeverityCritical
	case stress >= 0.75:
		return analysis.SeveritySevere
	case stress >= 0.5:
		return analysis.SeverityHigh
	case stress >= 0.3:
		return analysis.SeverityModerate
	}
	return analysis.SeverityLow
}

func assessCrisis(data *analysis.DataInputs) *analysis.CrisisDetails {
	indicators := detectCrisisIndicators(data)
	if len(indicators) == 0 {
		return &analysis.CrisisDetails{
			CrisisType:      analysis.CrisisTypeNone,
			Severity:        analysis.SeverityLow,
			AffectedSystems: []string{},
			ResponseOptions: []analysis.ResponseOption{},
			Indicators:      []analysis.CrisisIndicator{},
		}
	}

	// Worst indicator per domain, domains in first-seen order
	worst := map[analysis.Domain]analysis.CrisisIndicator{}
	var affected []analysis.Domain
	var top analysis.CrisisIndicator
	var total float64
	for i, ind := range indicators {
		total += ind.Stress
		if w, ok := worst[ind.Domain]; !ok {
			affected = append(affected, ind.Domain)
			worst[ind.Domain] = ind
		} else if ind.Stress > w.Stress {
			worst[ind.Domain] = ind
		}
		if i == 0 || ind.Stress > top.Stress {
			top = ind
		}
	}
	avg := total / float64(len(indicators))

	systems := make([]string, len(affected))
	options := make([]analysis.ResponseOption, len(affected))
	for i, d := range affected {
		w := worst[d]
		systems[i] = string(d)
		options[i] = analysis.ResponseOption{
			System:      string(d),
			Action:      crisisActions[d],
			Priority:    responsePriority(w.Stress),
			Description: fmt.Sprintf("Stabilize %s %s (stress %.2f)", d, w.Stream, w.Stress),
		}
	}

	escalation := 100 * top.Stress * (1 + 0.1*float64(len(affected)-1))
	return &analysis.CrisisDetails{
		CrisisType:          crisisTypes[top.Domain],
		Severity:            crisisSeverity(top.Stress),
		SeverityScore:       top.Stress,
		Urgency:             math.Round(100 * (0.6*top.Stress + 0.4*avg)),
		AffectedSystems:     systems,
		ResponseOptions:     options,
		EscalationPotential: math.Round(math.Min(100, escalation)),
		Indicators:          indicators,
	}
}

func responsePriority(stress float64) analysis.Priority {
	switch {
	case stress >= 0.9:
		return analysis.PriorityCritical
	case stress >= 0.75:
		return analysis.PriorityHigh
	}
	return analysis.PriorityMedium
}
