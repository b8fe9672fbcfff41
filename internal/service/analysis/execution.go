package analysis

import (
	"context"
	stderrors "errors"
	"sync/atomic"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/davidleathers/analysis-orchestrator/internal/domain/analysis"
	"github.com/davidleathers/analysis-orchestrator/internal/domain/errors"
	"github.com/davidleathers/analysis-orchestrator/internal/service/generators"
)

// Execution is what a strategy gets to work with: the request, its validated
// inputs and the engine's generation pipeline.
type Execution struct {
	Request *analysis.Request
	// Inputs are validated and restricted to the enabled systems.
	Inputs *analysis.DataInputs

	engine         *Engine
	generatorCalls atomic.Int64
}

func (x *Execution) input(data *analysis.DataInputs) generators.Input {
	depth := x.engine.config.DefaultDepth
	if x.Request.Options != nil && x.Request.Options.Depth != "" {
		depth = x.Request.Options.Depth
	}
	return generators.Input{
		Scope: x.Request.Scope,
		Depth: depth,
		Focus: x.Request.Focus(),
		Data:  data,
	}
}

// Generate runs the generator of every domain present in data and returns
// the findings assembled in canonical domain order.
func (x *Execution) Generate(ctx context.Context, data *analysis.DataInputs) (*analysis.Findings, error) {
	var gens []generators.Generator
	for _, d := range data.Present() {
		if g, ok := x.engine.generators[d]; ok {
			gens = append(gens, g)
		}
	}

	in := x.input(data)
	results := make([]*analysis.Findings, len(gens))
	run := func(ctx context.Context, i int) error {
		x.generatorCalls.Add(1)
		f, err := gens[i].Generate(ctx, in)
		if err != nil {
			return upstream(string(gens[i].Domain()), err)
		}
		results[i] = f
		return nil
	}

	if x.engine.config.ParallelProcessing && len(gens) > 1 {
		g, gctx := errgroup.WithContext(ctx)
		for i := range gens {
			g.Go(func() error { return run(gctx, i) })
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	} else {
		for i := range gens {
			if err := run(ctx, i); err != nil {
				return nil, err
			}
		}
	}

	out := &analysis.Findings{}
	for _, f := range results {
		out.Append(f)
	}
	if !x.engine.config.EnablePredictions {
		out.Predictions = nil
	}
	return out, nil
}

// Correlate runs the cross-domain pass over insights. The result is meant to
// be appended after the per-domain insights.
func (x *Execution) Correlate(ctx context.Context, data *analysis.DataInputs, insights []analysis.Insight) ([]analysis.Insight, error) {
	if x.engine.correlator == nil {
		return nil, nil
	}
	x.generatorCalls.Add(1)
	out, err := x.engine.correlator.Correlate(ctx, x.input(data), insights)
	if err != nil {
		return nil, upstream("correlator", err)
	}
	return out, nil
}

// Recommend synthesizes recommendations from findings unless disabled.
func (x *Execution) Recommend(findings *analysis.Findings) []analysis.Recommendation {
	if !x.engine.config.EnableRecommendations {
		return []analysis.Recommendation{}
	}
	return synthesizeRecommendations(findings)
}

// NewResponse assembles the base response for findings produced from data.
func (x *Execution) NewResponse(data *analysis.DataInputs, findings *analysis.Findings, summary string, recs []analysis.Recommendation) *analysis.Response {
	systems := []string{}
	for _, d := range data.Present() {
		systems = append(systems, string(d))
	}
	if recs == nil {
		recs = []analysis.Recommendation{}
	}

	models := x.engine.config.Models
	return &analysis.Response{
		ID:              uuid.New().String(),
		RequestID:       x.Request.ID,
		Type:            x.Request.Type,
		Scope:           x.Request.Scope,
		Confidence:      aggregateConfidence(findings),
		Insights:        nonNil(findings.Insights),
		Summary:         summary,
		Recommendations: recs,
		Trends:          nonNil(findings.Trends),
		Predictions:     nonNil(findings.Predictions),
		Metadata: analysis.Metadata{
			DataQuality: assessDataQuality(data),
			ProcessingStats: analysis.ProcessingStats{
				TotalDataPoints: data.CountDataPoints(),
			},
			SystemsAnalyzed: systems,
			AnalysisVersion: analysis.Version,
			ModelVersions: map[string]string{
				"primary":  models.Primary,
				"research": models.Research,
			},
			Limitations: append([]string(nil), limitations...),
			Assumptions: append([]string(nil), assumptions...),
		},
		Timestamp: x.engine.clock.Now().UTC(),
	}
}

// Comprehensive runs every generator over the inputs, correlates across
// domains, summarizes and synthesizes recommendations.
func (x *Execution) Comprehensive(ctx context.Context) (*analysis.Response, error) {
	findings, err := x.Generate(ctx, x.Inputs)
	if err != nil {
		return nil, err
	}
	correlated, err := x.Correlate(ctx, x.Inputs, findings.Insights)
	if err != nil {
		return nil, err
	}
	findings.Insights = append(findings.Insights, correlated...)

	summary := comprehensiveSummary(x.Request, findings)
	return x.NewResponse(x.Inputs, findings, summary, x.Recommend(findings)), nil
}

// upstream wraps a generator failure. Cancellation and typed errors pass
// through unchanged.
func upstream(component string, err error) error {
	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var appErr *errors.AppError
	if stderrors.As(err, &appErr) {
		return err
	}
	return errors.NewUpstreamError(component, "generation failed").WithCause(err)
}

func nonNil[T any](xs []T) []T {
	if xs == nil {
		return []T{}
	}
	return xs
}
