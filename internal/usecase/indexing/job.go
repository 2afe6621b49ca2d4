package indexing

import (
	"fmt"
	"time"

	"github.com/kailas-cloud/patentsearch/internal/domain"
	dombatch "github.com/kailas-cloud/patentsearch/internal/domain/batch"
	"github.com/kailas-cloud/patentsearch/internal/domain/search/filter"
)

// Job limits.
const (
	DefaultBatchSize  = 100
	MaxBatchSize      = 1000
	DefaultMaxRecords = 10000

	DefaultRetention   = 24 * time.Hour
	DefaultMaxFinished = 100
)

// Job describes one bulk indexing run. Zero sizes take the service defaults.
type Job struct {
	Filters    filter.Filters `json:"filters"`
	BatchSize  int            `json:"batchSize"`
	MaxRecords int            `json:"maxRecords"`
}

func (j Job) normalize(def Options) (Job, error) {
	if j.BatchSize == 0 {
		j.BatchSize = def.BatchSize
	}
	if j.MaxRecords == 0 {
		j.MaxRecords = def.MaxRecords
	}
	if j.BatchSize < 1 || j.BatchSize > MaxBatchSize {
		return Job{}, domain.NewValidationError("batchSize", fmt.Sprintf("must be between 1 and %d", MaxBatchSize))
	}
	if j.MaxRecords < 1 {
		return Job{}, domain.NewValidationError("maxRecords", "must be positive")
	}
	f, err := j.Filters.Normalize()
	if err != nil {
		return Job{}, domain.NewValidationError("filters", err.Error())
	}
	j.Filters = f
	return j, nil
}

// State is a job lifecycle state.
type State string

// Job states.
const (
	StateRunning   State = "running"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
	StateCanceled  State = "canceled"
)

// Status is a snapshot of a background job.
type Status struct {
	ID         string           `json:"jobId"`
	State      State            `json:"state"`
	Job        Job              `json:"job"`
	Batches    int              `json:"batches"`
	Summary    dombatch.Summary `json:"summary"`
	Error      string           `json:"error,omitempty"`
	StartedAt  time.Time        `json:"startedAt"`
	FinishedAt *time.Time       `json:"finishedAt,omitempty"`
}

// Progress is reported after every batch.
type Progress struct {
	Batches int
	Summary dombatch.Summary
}
