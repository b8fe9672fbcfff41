package analysis

import (
	"time"
)

type JobStatus string

const (
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
)

// Progress checkpoints of the analysis pipeline.
const (
	ProgressRegistered    = 0
	ProgressCacheChecked  = 10
	ProgressValidated     = 30
	ProgressDispatched    = 80
	ProgressPostProcessed = 90
	ProgressDone          = 100
)

// Job tracks one execution of a request. Jobs are owned by the engine's job
// table; callers only ever see copies.
type Job struct {
	ID        string     `json:"id"`
	Request   *Request   `json:"request"`
	Status    JobStatus  `json:"status"`
	Progress  int        `json:"progress"`
	StartTime time.Time  `json:"startTime"`
	EndTime   *time.Time `json:"endTime,omitempty"`
	Result    *Response  `json:"result,omitempty"`
	Error     string     `json:"error,omitempty"`
}

func NewJob(id string, req *Request, now time.Time) *Job {
	return &Job{
		ID:        id,
		Request:   req,
		Status:    JobRunning,
		Progress:  ProgressRegistered,
		StartTime: now,
	}
}

// Advance moves progress forward. It never decreases progress and has no
// effect once the job reached a terminal status.
func (j *Job) Advance(progress int) bool {
	if j.Status != JobRunning || progress <= j.Progress {
		return false
	}
	if progress > ProgressDone {
		progress = ProgressDone
	}
	j.Progress = progress
	return true
}

func (j *Job) Complete(result *Response, now time.Time) {
	if j.Status != JobRunning {
		return
	}
	j.Status = JobCompleted
	j.Progress = ProgressDone
	j.Result = result
	j.EndTime = &now
}

// Fail marks the job failed, leaving progress at its last value.
func (j *Job) Fail(err error, now time.Time) {
	if j.Status != JobRunning {
		return
	}
	j.Status = JobFailed
	if err != nil {
		j.Error = err.Error()
	} else {
		j.Error = "unknown error"
	}
	j.EndTime = &now
}

// Terminal reports whether the job finished.
func (j *Job) Terminal() bool {
	return j.Status == JobCompleted || j.Status == JobFailed
}

// Snapshot returns a copy safe to hand out.
func (j *Job) Snapshot() Job {
	out := *j
	if j.EndTime != nil {
		t := *j.EndTime
		out.EndTime = &t
	}
	return out
}
