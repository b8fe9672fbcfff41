package analysis

import (
	"context"
	"sort"
	"sync"

	"github.com/davidleathers/analysis-orchestrator/internal/domain/analysis"
)

// specializedDomains maps each specialized type to the domains it reads.
var specializedDomains = map[analysis.AnalysisType][]analysis.Domain{
	analysis.TypeEconomic:      {analysis.DomainEconomic},
	analysis.TypeSocial:        {analysis.DomainSocial},
	analysis.TypeTechnological: {analysis.DomainTechnological},
	analysis.TypePolitical:     {analysis.DomainPolitical},
	analysis.TypeDemographic:   {analysis.DomainSocial},
	analysis.TypePsychological: {analysis.DomainPsychological},
	analysis.TypeSocialMedia:   {analysis.DomainSocialMedia},
	analysis.TypeCrossSystem:   analysis.Domains,
	analysis.TypePredictive:    analysis.Domains,
}

// strategyRegistry maps analysis types to strategies
type strategyRegistry struct {
	mu         sync.RWMutex
	strategies map[analysis.AnalysisType]Strategy
}

func newStrategyRegistry(cfg Config) *strategyRegistry {
	r := &strategyRegistry{strategies: make(map[analysis.AnalysisType]Strategy)}
	r.register(analysis.TypeComprehensive, StrategyFunc(comprehensiveStrategy))
	r.register(analysis.TypeCrisis, StrategyFunc(crisisStrategy))
	r.register(analysis.TypeOpportunity, StrategyFunc(opportunityStrategy))
	if cfg.EnableComparisons {
		r.register(analysis.TypeComparative, StrategyFunc(comparativeStrategy))
	}
	for _, t := range analysis.SpecializedTypes {
		r.register(t, specializedStrategy(t, specializedDomains[t]))
	}
	return r
}

func (r *strategyRegistry) register(t analysis.AnalysisType, s Strategy) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.strategies[t] = s
}

func (r *strategyRegistry) lookup(t analysis.AnalysisType) (Strategy, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.strategies[t]
	return s, ok
}

// types returns the registered types, built-in types first in their
// declared order, then custom ones sorted.
func (r *strategyRegistry) types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	builtin := append([]analysis.AnalysisType{
		analysis.TypeComprehensive,
		analysis.TypeCrisis,
		analysis.TypeOpportunity,
		analysis.TypeComparative,
	}, analysis.SpecializedTypes...)

	seen := map[analysis.AnalysisType]bool{}
	var out []string
	for _, t := range builtin {
		if _, ok := r.strategies[t]; ok {
			out = append(out, string(t))
			seen[t] = true
		}
	}
	var custom []string
	for t := range r.strategies {
		if !seen[t] {
			custom = append(custom, string(t))
		}
	}
	sort.Strings(custom)
	return append(out, custom...)
}

func comprehensiveStrategy(ctx context.Context, x *Execution) (*analysis.Response, error) {
	return x.Comprehensive(ctx)
}

// specializedStrategy runs the generators of the given domains only. Only
// cross_system correlates, and then only over the filtered data.
func specializedStrategy(t analysis.AnalysisType, domains []analysis.Domain) Strategy {
	return StrategyFunc(func(ctx context.Context, x *Execution) (*analysis.Response, error) {
		data := x.Inputs.Filter(domains...)
		findings, err := x.Generate(ctx, data)
		if err != nil {
			return nil, err
		}
		if t == analysis.TypeCrossSystem {
			correlated, err := x.Correlate(ctx, data, findings.Insights)
			if err != nil {
				return nil, err
			}
			findings.Insights = append(findings.Insights, correlated...)
		}
		return x.NewResponse(data, findings, specializedSummary(x.Request, findings), x.Recommend(findings)), nil
	})
}
