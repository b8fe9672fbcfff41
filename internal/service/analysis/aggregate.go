package analysis

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/davidleathers/analysis-orchestrator/internal/domain/analysis"
)

var limitations = []string{
	"Analysis based on available data at time of request",
	"Predictions subject to unforeseen external factors",
	"Recommendations require human judgment for implementation",
}

var assumptions = []string{
	"Current trends continue without major disruptions",
	"Data quality remains consistent",
	"System interactions remain stable",
}

// aggregateConfidence is the mean of every finding's confidence, or 0.5 when
// there are no findings at all.
func aggregateConfidence(f *analysis.Findings) float64 {
	var sum float64
	n := 0
	for _, i := range f.Insights {
		sum += i.Confidence
		n++
	}
	for _, t := range f.Trends {
		sum += t.Confidence
		n++
	}
	for _, p := range f.Predictions {
		sum += p.Confidence
		n++
	}
	if n == 0 {
		return 0.5
	}
	return math.Max(0, math.Min(1, sum/float64(n)))
}

// comprehensiveSummary lists the leading findings. A section is only written
// when it has entries.
func comprehensiveSummary(req *analysis.Request, f *analysis.Findings) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Analysis Summary for %s (%s):\n\n", req.Scope, req.Type)

	var key []analysis.Insight
	for _, i := range f.Insights {
		if i.Priority == analysis.PriorityCritical || i.Priority == analysis.PriorityHigh {
			key = append(key, i)
		}
	}
	if len(key) > 0 {
		b.WriteString("Key Insights:\n")
		for n, i := range head(key, 3) {
			fmt.Fprintf(&b, "%d. %s: %s\n", n+1, i.Title, i.Description)
		}
		b.WriteString("\n")
	}

	var major []analysis.Trend
	for _, t := range f.Trends {
		if t.Strength > 0.7 {
			major = append(major, t)
		}
	}
	if len(major) > 0 {
		b.WriteString("Major Trends:\n")
		for n, t := range head(major, 3) {
			fmt.Fprintf(&b, "%d. %s (%s): %s\n", n+1, t.Name, t.Direction, t.Description)
		}
		b.WriteString("\n")
	}

	var confident []analysis.Prediction
	for _, p := range f.Predictions {
		if p.Confidence > 0.8 {
			confident = append(confident, p)
		}
	}
	if len(confident) > 0 {
		b.WriteString("High-Confidence Predictions:\n")
		for n, p := range head(confident, 2) {
			fmt.Fprintf(&b, "%d. %s (%s%% confidence)\n", n+1, p.Description,
				strconv.FormatFloat(p.Confidence*100, 'f', -1, 64))
		}
	}
	return b.String()
}

func specializedSummary(req *analysis.Request, f *analysis.Findings) string {
	return fmt.Sprintf("Specialized %s analysis summary for %s: %d insights, %d trends, %d predictions.",
		req.Type, req.Scope, len(f.Insights), len(f.Trends), len(f.Predictions))
}

func head[T any](xs []T, n int) []T {
	if len(xs) > n {
		return xs[:n]
	}
	return xs
}

// assessDataQuality scores the supplied data on a 0..100 scale.
//
// completeness: share of streams of the supplied domains that hold records.
// accuracy: 100 once records passed validation.
// timeliness: share of non-empty streams that reach the latest period.
// consistency: 100 less the mean spread of record scores within a stream.
// reliability: mean of the other four.
func assessDataQuality(data *analysis.DataInputs) analysis.DataQuality {
	var total, filled, current int
	var spread float64
	latest := -1

	var nonEmpty []analysis.Stream
	for _, d := range data.Present() {
		for _, s := range data.Streams(d) {
			total++
			if len(s.Records) == 0 {
				continue
			}
			nonEmpty = append(nonEmpty, s)
			for _, r := range s.Records {
				if p := r.Observed().Period; p > latest {
					latest = p
				}
			}
		}
	}
	if len(nonEmpty) == 0 {
		return analysis.DataQuality{}
	}

	for _, s := range nonEmpty {
		filled++
		maxPeriod := -1
		scores := make([]float64, len(s.Records))
		for i, r := range s.Records {
			scores[i] = r.Score()
			if p := r.Observed().Period; p > maxPeriod {
				maxPeriod = p
			}
		}
		if maxPeriod == latest {
			current++
		}
		spread += stddev(scores)
	}

	q := analysis.DataQuality{
		Completeness: percent(float64(filled) / float64(total)),
		Accuracy:     100,
		Timeliness:   percent(float64(current) / float64(filled)),
		Consistency:  percent(1 - spread/float64(filled)),
	}
	q.Reliability = round1((q.Completeness + q.Accuracy + q.Timeliness + q.Consistency) / 4)
	return q
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func stddev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	m := mean(xs)
	var sq float64
	for _, x := range xs {
		sq += (x - m) * (x - m)
	}
	return math.Sqrt(sq / float64(len(xs)))
}

func percent(f float64) float64 {
	return round1(math.Max(0, math.Min(1, f)) * 100)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
