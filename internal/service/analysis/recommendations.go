package analysis

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/davidleathers/analysis-orchestrator/internal/domain/analysis"
)

// synthesizeRecommendations restates findings as recommendations in three
// passes: critical actionable insights, strong trends, then confident
// predictions. Passes are concatenated without deduplication and every
// recommendation carries its source's confidence.
func synthesizeRecommendations(f *analysis.Findings) []analysis.Recommendation {
	out := []analysis.Recommendation{}

	for _, i := range f.Insights {
		if i.Priority != analysis.PriorityCritical || !i.Actionable {
			continue
		}
		out = append(out, recommendation(
			analysis.RecommendationPolicy, i.Priority,
			"Address "+i.Title,
			"Recommendation based on "+i.Title,
			i.Description,
			"Positive impact expected",
			"3-6 months",
			i.Confidence,
		))
	}

	for _, t := range f.Trends {
		if t.Strength <= 0.8 {
			continue
		}
		out = append(out, recommendation(
			analysis.RecommendationStrategic, analysis.PriorityMedium,
			"Respond to "+t.Name,
			"Strategic response to trend: "+t.Name,
			t.Description,
			"Alignment with trend direction",
			"6-12 months",
			t.Confidence,
		))
	}

	for _, p := range f.Predictions {
		if p.Confidence <= 0.85 {
			continue
		}
		out = append(out, recommendation(
			analysis.RecommendationPreventive, analysis.PriorityHigh,
			fmt.Sprintf("Prepare for %s", p.Type),
			"Preparation for predicted outcome: "+p.Description,
			"Based on high-confidence prediction",
			"Readiness for predicted scenario",
			p.Timeframe,
			p.Confidence,
		))
	}
	return out
}

func recommendation(typ analysis.RecommendationType, priority analysis.Priority, title, description, rationale, outcome, timeline string, confidence float64) analysis.Recommendation {
	return analysis.Recommendation{
		ID:              uuid.New().String(),
		Type:            typ,
		Priority:        priority,
		Title:           title,
		Description:     description,
		Rationale:       rationale,
		ExpectedOutcome: outcome,
		Implementation: analysis.Implementation{
			Steps:          []string{},
			Timeline:       timeline,
			Resources:      []string{},
			Prerequisites:  []string{},
			SuccessMetrics: []string{},
		},
		Risks:        []string{},
		Alternatives: []string{},
		Confidence:   confidence,
	}
}
