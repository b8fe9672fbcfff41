package analysis

import (
	"context"
	"sort"
	"strings"

	"github.com/davidleathers/analysis-orchestrator/internal/domain/analysis"
	"github.com/davidleathers/analysis-orchestrator/internal/service/generators"
)

const (
	comparisonEntity = "entity_comparison"
	comparisonSystem = "system_comparison"
)

func comparativeStrategy(ctx context.Context, x *Execution) (*analysis.Response, error) {
	resp, err := x.Comprehensive(ctx)
	if err != nil {
		return nil, err
	}
	resp.Comparison = compare(x.Request, x.Inputs)
	return resp, nil
}

// comparisonSubjects picks what to compare: explicit subjects, else record
// entities, else the supplied domains themselves. Explicit subjects are
// compared once each, in the order given.
func comparisonSubjects(req *analysis.Request, data *analysis.DataInputs) ([]string, string) {
	if req.Options != nil {
		if subjects := uniqueSubjects(req.Options.Subjects); len(subjects) > 0 {
			return subjects, comparisonEntity
		}
	}

	var all []analysis.Record
	for _, d := range data.Present() {
		for _, s := range data.Streams(d) {
			all = append(all, s.Records...)
		}
	}
	if entities := generators.Entities(all); len(entities) > 0 {
		return entities, comparisonEntity
	}

	subjects := []string{}
	for _, d := range data.Present() {
		subjects = append(subjects, string(d))
	}
	return subjects, comparisonSystem
}

func uniqueSubjects(in []string) []string {
	seen := make(map[string]bool, len(in))
	var out []string
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

func compare(req *analysis.Request, data *analysis.DataInputs) *analysis.ComparisonDetails {
	subjects, mode := comparisonSubjects(req, data)
	comparisonType := mode
	if req.Options != nil && req.Options.ComparisonType != "" {
		comparisonType = req.Options.ComparisonType
	}

	// values[subject][domain]
	values := map[string]map[analysis.Domain]float64{}
	metrics := []analysis.ComparisonMetric{}
	for _, subject := range subjects {
		values[subject] = map[analysis.Domain]float64{}
		for _, d := range data.Present() {
			if mode == comparisonSystem && string(d) != subject {
				continue
			}
			var records []analysis.Record
			for _, s := range data.Streams(d) {
				for _, r := range s.Records {
					if mode == comparisonSystem || r.Observed().Entity == subject {
						records = append(records, r)
					}
				}
			}
			if len(records) == 0 {
				continue
			}
			v := generators.MeanScore(records)
			values[subject][d] = v
			metrics = append(metrics, analysis.ComparisonMetric{
				Subject: subject,
				Domain:  d,
				Value:   v,
				Records: len(records),
			})
		}
	}

	rankings := rank(subjects, values)
	return &analysis.ComparisonDetails{
		ComparisonType: comparisonType,
		Subjects:       subjects,
		Metrics:        metrics,
		Rankings:       rankings,
		Gaps:           comparisonGaps(rankings, values, data.Present()),
		Benchmarks:     benchmarks(metrics, data.Present()),
	}
}

// rank orders subjects by their mean domain value, highest first, ties by
// name.
func rank(subjects []string, values map[string]map[analysis.Domain]float64) []analysis.Ranking {
	out := make([]analysis.Ranking, 0, len(subjects))
	for _, s := range subjects {
		var vs []float64
		for _, d := range analysis.Domains {
			if v, ok := values[s][d]; ok {
				vs = append(vs, v)
			}
		}
		out = append(out, analysis.Ranking{Subject: s, Score: mean(vs)})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Subject < out[j].Subject
	})
	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}

// comparisonGaps reports each subject's shortfall against the top ranked
// subject, per shared domain, or overall when they share no domain.
func comparisonGaps(rankings []analysis.Ranking, values map[string]map[analysis.Domain]float64, domains []analysis.Domain) []analysis.Gap {
	out := []analysis.Gap{}
	if len(rankings) < 2 {
		return out
	}
	top := rankings[0]
	for _, r := range rankings[1:] {
		shared := false
		for _, d := range domains {
			tv, okTop := values[top.Subject][d]
			sv, ok := values[r.Subject][d]
			if !okTop || !ok {
				continue
			}
			shared = true
			if gap := tv - sv; gap > 0 {
				out = append(out, analysis.Gap{Subject: r.Subject, Domain: d, Leader: top.Subject, Gap: gap})
			}
		}
		if !shared {
			if gap := top.Score - r.Score; gap > 0 {
				out = append(out, analysis.Gap{Subject: r.Subject, Leader: top.Subject, Gap: gap})
			}
		}
	}
	return out
}

func benchmarks(metrics []analysis.ComparisonMetric, domains []analysis.Domain) []analysis.Benchmark {
	out := []analysis.Benchmark{}
	for _, d := range domains {
		var b *analysis.Benchmark
		var vs []float64
		for _, m := range metrics {
			if m.Domain != d {
				continue
			}
			vs = append(vs, m.Value)
			switch {
			case b == nil:
				b = &analysis.Benchmark{Domain: d, Leader: m.Subject, Best: m.Value, Worst: m.Value}
			case m.Value > b.Best:
				b.Best, b.Leader = m.Value, m.Subject
			case m.Value < b.Worst:
				b.Worst = m.Value
			}
		}
		if b == nil {
			continue
		}
		b.Average = mean(vs)
		out = append(out, *b)
	}
	return out
}
