package generators

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/davidleathers/analysis-orchestrator/internal/domain/analysis"
)

type coupling struct {
	a, b        analysis.Domain
	title       string
	description string
	cascade     []string
}

// couplings lists the domain pairs examined by the correlator, in output order.
var couplings = []coupling{
	{analysis.DomainEconomic, analysis.DomainSocial, "Economic and Social Correlation",
		"Economic conditions are moving together with population and cohesion indicators", []string{"employment", "migration"}},
	{analysis.DomainEconomic, analysis.DomainTechnological, "Economic and Technological Correlation",
		"Technology adoption and innovation are coupled with economic output", []string{"productivity"}},
	{analysis.DomainEconomic, analysis.DomainPolitical, "Economic and Political Correlation",
		"Economic performance is linked to governance and policy outcomes", []string{"policy_pressure"}},
	{analysis.DomainSocial, analysis.DomainPolitical, "Social and Political Correlation",
		"Social cohesion indicators track governance legitimacy", []string{"civil_unrest"}},
	{analysis.DomainSocial, analysis.DomainPsychological, "Social and Psychological Correlation",
		"Population psychology shapes social integration outcomes", []string{"social_cohesion"}},
	{analysis.DomainTechnological, analysis.DomainSocialMedia, "Technological and Social Media Correlation",
		"Technology adoption amplifies social media reach and engagement", []string{"information_spread"}},
	{analysis.DomainPolitical, analysis.DomainSocialMedia, "Political and Social Media Correlation",
		"Public sentiment online mirrors political stability", []string{"public_opinion"}},
	{analysis.DomainPsychological, analysis.DomainSocialMedia, "Psychological and Social Media Correlation",
		"Behavioral responses are reflected in online sentiment and influence", []string{"behavioral_responses"}},
}

// CouplingCorrelator emits one correlation insight for every coupled pair of
// domains that both produced insights.
type CouplingCorrelator struct {
	narrator Narrator
}

func NewCouplingCorrelator(narrator Narrator) *CouplingCorrelator {
	if narrator == nil {
		narrator = TemplateNarrator{}
	}
	return &CouplingCorrelator{narrator: narrator}
}

func (c *CouplingCorrelator) Correlate(ctx context.Context, in Input, insights []analysis.Insight) ([]analysis.Insight, error) {
	type stat struct {
		sum    float64
		n      int
		urgent bool
	}
	stats := map[analysis.Domain]*stat{}
	for _, ins := range insights {
		if ins.Domain == "" {
			continue
		}
		s, ok := stats[ins.Domain]
		if !ok {
			s = &stat{}
			stats[ins.Domain] = s
		}
		s.sum += ins.Confidence
		s.n++
		if ins.Priority == analysis.PriorityHigh || ins.Priority == analysis.PriorityCritical {
			s.urgent = true
		}
	}

	var out []analysis.Insight
	for _, cp := range couplings {
		sa, okA := stats[cp.a]
		sb, okB := stats[cp.b]
		if !okA || !okB {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		confidence := 0.9 * (sa.sum/float64(sa.n) + sb.sum/float64(sb.n)) / 2
		priority := analysis.PriorityMedium
		if sa.urgent && sb.urgent {
			priority = analysis.PriorityHigh
		}

		description, err := Narrate(ctx, c.narrator, Prompt{
			Kind:  "correlation",
			Topic: fmt.Sprintf("%s/%s", cp.a, cp.b),
			Scope: in.Scope,
			Depth: in.Depth,
			Focus: in.Focus,
			Facts: map[string]interface{}{
				"domains":  []string{string(cp.a), string(cp.b)},
				"insights": sa.n + sb.n,
			},
			Fallback: cp.description,
		})
		if err != nil {
			return nil, err
		}

		out = append(out, analysis.Insight{
			ID:          uuid.New().String(),
			Category:    analysis.CategoryCorrelation,
			Priority:    priority,
			Title:       cp.title,
			Description: description,
			Evidence: []string{
				fmt.Sprintf("%d %s insights", sa.n, cp.a),
				fmt.Sprintf("%d %s insights", sb.n, cp.b),
			},
			Confidence: confidence,
			Impact: analysis.Impact{
				Scope:          []string{string(cp.a), string(cp.b)},
				Magnitude:      60,
				Timeframe:      analysis.TimeframeMedium,
				Certainty:      confidence * 100,
				Reversibility:  50,
				CascadeEffects: append([]string(nil), cp.cascade...),
			},
			RelatedSystems: []string{string(cp.a), string(cp.b)},
			Actionable:     false,
		})
	}
	return out, nil
}
