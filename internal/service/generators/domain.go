package generators

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/davidleathers/analysis-orchestrator/internal/domain/analysis"
)

// DomainGenerator turns the record streams of one domain into findings using
// the stream profiles: one insight per non-empty stream and one trend per
// stream observed over at least two periods.
type DomainGenerator struct {
	domain   analysis.Domain
	profiles map[string]profile
	narrator Narrator
	predict  func(in Input) []analysis.Prediction
}

// NewDomainGenerator returns the generator for d. A nil narrator falls back
// to TemplateNarrator.
func NewDomainGenerator(d analysis.Domain, narrator Narrator) (*DomainGenerator, error) {
	ps, ok := profiles[d]
	if !ok {
		return nil, fmt.Errorf("no generator profiles for domain %q", d)
	}
	if narrator == nil {
		narrator = TemplateNarrator{}
	}
	g := &DomainGenerator{
		domain:   d,
		profiles: make(map[string]profile, len(ps)),
		narrator: narrator,
	}
	for _, p := range ps {
		g.profiles[p.stream] = p
	}
	if d == analysis.DomainTechnological {
		g.predict = technologyPredictions
	}
	return g, nil
}

// Defaults returns one generator per domain in canonical order.
func Defaults(narrator Narrator) []Generator {
	out := make([]Generator, 0, len(analysis.Domains))
	for _, d := range analysis.Domains {
		g, err := NewDomainGenerator(d, narrator)
		if err != nil {
			panic(err) // profiles cover every domain
		}
		out = append(out, g)
	}
	return out
}

func (g *DomainGenerator) Domain() analysis.Domain { return g.domain }

func (g *DomainGenerator) Generate(ctx context.Context, in Input) (*analysis.Findings, error) {
	findings := &analysis.Findings{}
	if in.Data == nil {
		return findings, nil
	}

	for _, s := range in.Data.Streams(g.domain) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if len(s.Records) == 0 {
			continue
		}
		p, ok := g.profiles[s.Name]
		if !ok {
			continue
		}

		insight, err := g.insight(ctx, in, p, s)
		if err != nil {
			return nil, err
		}
		findings.Insights = append(findings.Insights, insight)

		if trend, ok := streamTrend(g.domain, p, s); ok {
			findings.Trends = append(findings.Trends, trend)
		}
	}

	if g.predict != nil {
		findings.Predictions = g.predict(in)
	}
	return findings, nil
}

func (g *DomainGenerator) insight(ctx context.Context, in Input, p profile, s analysis.Stream) (analysis.Insight, error) {
	mean := MeanScore(s.Records)
	evidence := []string{
		fmt.Sprintf("%d %s records analyzed", len(s.Records), s.Name),
		fmt.Sprintf("mean health score %.2f", mean),
	}
	if entities := Entities(s.Records); len(entities) > 0 {
		evidence = append(evidence, "entities: "+strings.Join(entities, ", "))
	}

	description, err := Narrate(ctx, g.narrator, Prompt{
		Kind:   "insight",
		Domain: g.domain,
		Topic:  p.topic,
		Scope:  in.Scope,
		Depth:  in.Depth,
		Focus:  in.Focus,
		Facts: map[string]interface{}{
			"stream":    s.Name,
			"records":   len(s.Records),
			"meanScore": mean,
		},
		Fallback: p.description,
	})
	if err != nil {
		return analysis.Insight{}, err
	}

	return analysis.Insight{
		ID:          uuid.New().String(),
		Domain:      g.domain,
		Category:    p.category,
		Priority:    p.priority,
		Title:       p.title,
		Description: description,
		Evidence:    evidence,
		Confidence:  p.confidence,
		Impact: analysis.Impact{
			Scope:          append([]string(nil), p.scope...),
			Magnitude:      p.magnitude,
			Timeframe:      p.timeframe,
			Certainty:      p.certainty,
			Reversibility:  p.reversibility,
			CascadeEffects: append([]string(nil), p.cascade...),
		},
		RelatedSystems: append([]string(nil), p.related...),
		Actionable:     true,
	}, nil
}

type point struct {
	period int
	value  float64
}

// series averages values per period, ordered by period.
func series(records []analysis.Record, value func(analysis.Record) float64) []point {
	sums := map[int]float64{}
	counts := map[int]int{}
	for _, r := range records {
		p := r.Observed().Period
		sums[p] += value(r)
		counts[p]++
	}
	out := make([]point, 0, len(sums))
	for p, sum := range sums {
		out = append(out, point{period: p, value: sum / float64(counts[p])})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].period < out[j].period })
	return out
}

func score(r analysis.Record) float64 { return r.Score() }

func streamTrend(d analysis.Domain, p profile, s analysis.Stream) (analysis.Trend, bool) {
	pts := series(s.Records, score)
	if len(pts) < 2 {
		return analysis.Trend{}, false
	}
	direction, strength := classify(pts)
	return analysis.Trend{
		Name:        p.trendName,
		Domain:      d,
		Direction:   direction,
		Strength:    strength,
		Confidence:  math.Min(0.95, 0.5+0.1*float64(len(pts))),
		Description: describeTrend(p.trendName, direction, strength, len(pts)),
	}, true
}

// classify returns the direction of a series and its strength, the relative
// change between the first and last point capped at 1.
func classify(pts []point) (analysis.TrendDirection, float64) {
	first, last := pts[0].value, pts[len(pts)-1].value
	change := (last - first) / math.Max(math.Abs(first), 0.01)
	strength := math.Min(1, math.Abs(change))

	var path float64
	var rises, falls bool
	for i := 1; i < len(pts); i++ {
		d := pts[i].value - pts[i-1].value
		path += math.Abs(d)
		if d > 0.01 {
			rises = true
		} else if d < -0.01 {
			falls = true
		}
	}

	switch {
	case rises && falls && path > 2*math.Abs(last-first)+0.05:
		return analysis.DirectionVolatile, strength
	case math.Abs(change) < 0.05:
		return analysis.DirectionStable, strength
	case change > 0:
		return analysis.DirectionIncreasing, strength
	default:
		return analysis.DirectionDecreasing, strength
	}
}

func describeTrend(name string, direction analysis.TrendDirection, strength float64, periods int) string {
	switch direction {
	case analysis.DirectionStable:
		return fmt.Sprintf("%s held stable over %d periods", name, periods)
	case analysis.DirectionVolatile:
		return fmt.Sprintf("%s fluctuated over %d periods", name, periods)
	}
	return fmt.Sprintf("%s %s by %.0f%% over %d periods", name, direction, strength*100, periods)
}

func technologyPredictions(in Input) []analysis.Prediction {
	tech := in.Data.Technological
	if tech == nil {
		return nil
	}

	var out []analysis.Prediction
	byTech := map[string][]analysis.Record{}
	var names []string
	for _, r := range tech.TechnologyAdoption {
		if _, ok := byTech[r.Technology]; !ok {
			names = append(names, r.Technology)
		}
		byTech[r.Technology] = append(byTech[r.Technology], r)
	}
	sort.Strings(names)

	for _, name := range names {
		pts := series(byTech[name], score)
		if len(pts) < 2 {
			continue
		}
		first, last := pts[0], pts[len(pts)-1]
		span := float64(last.period - first.period)
		if span <= 0 {
			continue
		}
		slope := (last.value - first.value) / span
		projected := math.Max(0, math.Min(1, last.value+3*slope))
		out = append(out, analysis.Prediction{
			Type:        "technology_adoption",
			Domain:      analysis.DomainTechnological,
			Description: fmt.Sprintf("Adoption of %s projected to reach %.0f%% within 3 periods", name, projected*100),
			Confidence:  math.Min(0.9, 0.6+0.05*float64(len(pts))),
			Timeframe:   analysis.TimeframeMedium,
		})
	}

	var projects []string
	seen := map[string]bool{}
	for _, r := range tech.ResearchData {
		name := r.Project
		if name == "" {
			name = "ongoing research"
		}
		if r.Breakthrough && !seen[name] {
			seen[name] = true
			projects = append(projects, name)
		}
	}
	if len(projects) > 0 {
		sort.Strings(projects)
		out = append(out, analysis.Prediction{
			Type:        "research_breakthrough",
			Domain:      analysis.DomainTechnological,
			Description: fmt.Sprintf("Breakthroughs in %s signal accelerated capability growth", strings.Join(projects, ", ")),
			Confidence:  0.75,
			Timeframe:   analysis.TimeframeLong,
		})
	}
	return out
}

// MeanScore returns the mean record score, or 0 for no records.
func MeanScore(records []analysis.Record) float64 {
	if len(records) == 0 {
		return 0
	}
	var sum float64
	for _, r := range records {
		sum += r.Score()
	}
	return sum / float64(len(records))
}

// Entities returns the distinct non-empty record entities, sorted.
func Entities(records []analysis.Record) []string {
	seen := map[string]bool{}
	var out []string
	for _, r := range records {
		e := r.Observed().Entity
		if e != "" && !seen[e] {
			seen[e] = true
			out = append(out, e)
		}
	}
	sort.Strings(out)
	return out
}
