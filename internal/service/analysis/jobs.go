package analysis

import (
	"sort"
	"sync"
	"time"

	"github.com/davidleathers/analysis-orchestrator/internal/domain/analysis"
)

// jobTable holds the jobs that are currently running. Finished jobs are
// removed; their responses live on in the history store.
type jobTable struct {
	mu   sync.RWMutex
	jobs map[string]*analysis.Job
}

func newJobTable() *jobTable {
	return &jobTable{jobs: make(map[string]*analysis.Job)}
}

// register adds a running job and returns the new table size.
func (t *jobTable) register(job *analysis.Job) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.jobs[job.ID] = job
	return len(t.jobs)
}

func (t *jobTable) advance(id string, progress int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if job, ok := t.jobs[id]; ok {
		job.Advance(progress)
	}
}

func (t *jobTable) complete(id string, result *analysis.Response, now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if job, ok := t.jobs[id]; ok {
		job.Complete(result, now)
	}
}

func (t *jobTable) fail(id string, err error, now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if job, ok := t.jobs[id]; ok {
		job.Fail(err, now)
	}
}

// remove drops a job and returns the new table size.
func (t *jobTable) remove(id string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.jobs, id)
	return len(t.jobs)
}

func (t *jobTable) len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.jobs)
}

// snapshots returns copies of all jobs ordered by start time.
func (t *jobTable) snapshots() []analysis.Job {
	t.mu.RLock()
	out := make([]analysis.Job, 0, len(t.jobs))
	for _, job := range t.jobs {
		out = append(out, job.Snapshot())
	}
	t.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].StartTime.Equal(out[j].StartTime) {
			return out[i].ID < out[j].ID
		}
		return out[i].StartTime.Before(out[j].StartTime)
	})
	return out
}
