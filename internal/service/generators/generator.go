package generators

import (
	"context"
	stderrors "errors"
	"sync/atomic"

	"github.com/davidleathers/analysis-orchestrator/internal/domain/analysis"
	"github.com/davidleathers/analysis-orchestrator/internal/domain/errors"
)

// Input is what a generator sees of a request. Data holds validated inputs.
type Input struct {
	Scope string
	Depth analysis.Depth
	Focus []string
	Data  *analysis.DataInputs
}

// Generator produces findings for a single domain. Implementations must only
// read their own domain from the input and should honor ctx cancellation.
type Generator interface {
	Domain() analysis.Domain
	Generate(ctx context.Context, in Input) (*analysis.Findings, error)
}

// Correlator derives cross-domain insights from the per-domain insights.
type Correlator interface {
	Correlate(ctx context.Context, in Input, insights []analysis.Insight) ([]analysis.Insight, error)
}

// Prompt is a request for narrative text. Fallback is the deterministic text
// used when no inference backend is wired.
type Prompt struct {
	Kind     string
	Domain   analysis.Domain
	Topic    string
	Scope    string
	Depth    analysis.Depth
	Focus    []string
	Facts    map[string]interface{}
	Fallback string
}

// Narrator is the inference boundary: prompt in, text out.
type Narrator interface {
	Narrate(ctx context.Context, p Prompt) (string, error)
}

// TemplateNarrator returns the prompt's fallback text.
type TemplateNarrator struct{}

func (TemplateNarrator) Narrate(ctx context.Context, p Prompt) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return p.Fallback, nil
}

// NarratorFunc adapts a function to the Narrator interface.
type NarratorFunc func(ctx context.Context, p Prompt) (string, error)

func (f NarratorFunc) Narrate(ctx context.Context, p Prompt) (string, error) {
	return f(ctx, p)
}

type counterKey struct{}

// CallCounter counts narrator calls made on behalf of one analysis.
type CallCounter struct {
	n atomic.Int64
}

func (c *CallCounter) Load() int {
	return int(c.n.Load())
}

// WithCallCounter attaches a fresh counter to ctx.
func WithCallCounter(ctx context.Context) (context.Context, *CallCounter) {
	c := &CallCounter{}
	return context.WithValue(ctx, counterKey{}, c), c
}

// Narrate calls n and counts the call on the counter in ctx, if any.
// Failures other than cancellation are reported as upstream errors.
func Narrate(ctx context.Context, n Narrator, p Prompt) (string, error) {
	if c, ok := ctx.Value(counterKey{}).(*CallCounter); ok {
		c.n.Add(1)
	}
	text, err := n.Narrate(ctx, p)
	if err != nil {
		if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
			return "", err
		}
		var appErr *errors.AppError
		if stderrors.As(err, &appErr) {
			return "", err
		}
		return "", errors.NewUpstreamError("narrator", "narration failed").WithCause(err)
	}
	if text == "" {
		return p.Fallback, nil
	}
	return text, nil
}
