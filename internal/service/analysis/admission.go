package analysis

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/semaphore"

	"github.com/davidleathers/analysis-orchestrator/internal/domain/errors"
)

// admission bounds the number of running analyses. Submissions beyond the
// bound wait in a queue of at most maxQueued entries; anything past that is
// rejected with a capacity error.
type admission struct {
	sem       *semaphore.Weighted
	limit     int
	maxQueued int
	waiting   atomic.Int64
	running   atomic.Int64
}

func newAdmission(limit, maxQueued int) *admission {
	return &admission{
		sem:       semaphore.NewWeighted(int64(limit)),
		limit:     limit,
		maxQueued: maxQueued,
	}
}

// acquire takes a slot, waiting while the queue has room. Every successful
// acquire must be paired with release.
func (a *admission) acquire(ctx context.Context) error {
	if a.sem.TryAcquire(1) {
		a.running.Add(1)
		return nil
	}

	if n := a.waiting.Add(1); n > int64(a.maxQueued) {
		a.waiting.Add(-1)
		return errors.NewCapacityError(a.limit, int(n-1))
	}
	defer a.waiting.Add(-1)

	if err := a.sem.Acquire(ctx, 1); err != nil {
		return errors.NewInternalError("analysis cancelled while queued").WithCause(err)
	}
	a.running.Add(1)
	return nil
}

func (a *admission) release() {
	a.running.Add(-1)
	a.sem.Release(1)
}

func (a *admission) queued() int {
	return int(a.waiting.Load())
}

func (a *admission) inUse() int {
	return int(a.running.Load())
}
