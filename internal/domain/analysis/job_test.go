package analysis_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davidleathers/analysis-orchestrator/internal/domain/analysis"
	"github.com/davidleathers/analysis-orchestrator/internal/testutil/fixtures"
)

func TestJob_Lifecycle(t *testing.T) {
	start := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	req := fixtures.NewRequestBuilder(t).Build()

	tests := []struct {
		name     string
		run      func(j *analysis.Job)
		validate func(t *testing.T, j *analysis.Job)
	}{
		{
			name: "progress never decreases",
			run: func(j *analysis.Job) {
				j.Advance(analysis.ProgressValidated)
				j.Advance(analysis.ProgressCacheChecked)
			},
			validate: func(t *testing.T, j *analysis.Job) {
				assert.Equal(t, analysis.ProgressValidated, j.Progress)
				assert.Equal(t, analysis.JobRunning, j.Status)
			},
		},
		{
			name: "completion sets progress and end time",
			run: func(j *analysis.Job) {
				j.Advance(analysis.ProgressDispatched)
				j.Complete(&analysis.Response{ID: "r-1"}, start.Add(time.Second))
			},
			validate: func(t *testing.T, j *analysis.Job) {
				assert.Equal(t, analysis.JobCompleted, j.Status)
				assert.Equal(t, analysis.ProgressDone, j.Progress)
				require.NotNil(t, j.EndTime)
				assert.Equal(t, "r-1", j.Result.ID)
			},
		},
		{
			name: "failure keeps last progress",
			run: func(j *analysis.Job) {
				j.Advance(analysis.ProgressValidated)
				j.Fail(fmt.Errorf("boom"), start.Add(time.Second))
				j.Advance(analysis.ProgressDispatched)
			},
			validate: func(t *testing.T, j *analysis.Job) {
				assert.Equal(t, analysis.JobFailed, j.Status)
				assert.Equal(t, analysis.ProgressValidated, j.Progress)
				assert.Equal(t, "boom", j.Error)
				require.NotNil(t, j.EndTime)
				assert.True(t, j.Terminal())
			},
		},
		{
			name: "terminal state is final",
			run: func(j *analysis.Job) {
				j.Fail(fmt.Errorf("first"), start)
				j.Complete(&analysis.Response{}, start)
			},
			validate: func(t *testing.T, j *analysis.Job) {
				assert.Equal(t, analysis.JobFailed, j.Status)
				assert.Nil(t, j.Result)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			j := analysis.NewJob("job-1", req, start)
			tt.run(j)
			tt.validate(t, j)
		})
	}
}

func TestJob_SnapshotIsDetached(t *testing.T) {
	start := time.Now()
	j := analysis.NewJob("job-1", fixtures.NewRequestBuilder(t).Build(), start)
	j.Fail(nil, start)

	snap := j.Snapshot()
	*snap.EndTime = start.Add(time.Hour)

	assert.Equal(t, start, *j.EndTime)
	assert.Equal(t, "unknown error", j.Error)
}
