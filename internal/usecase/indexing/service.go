// Package indexing runs bulk jobs that page through the warehouse and feed
// each page to the vector indexer.
package indexing

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/patentsearch/internal/domain"
	dombatch "github.com/kailas-cloud/patentsearch/internal/domain/batch"
)

// Options are the job defaults.
type Options struct {
	BatchSize  int
	MaxRecords int
	// Retention is how long a finished job stays queryable.
	Retention time.Duration
	// MaxFinished caps the finished jobs kept; the oldest go first.
	MaxFinished int
}

type entry struct {
	status Status
	cancel context.CancelFunc
}

// Service runs indexing jobs synchronously (Run) or in the background (Start).
type Service struct {
	src    Source
	sink   Sink
	opts   Options
	logger *zap.Logger

	mu   sync.Mutex
	jobs map[string]*entry
	wg   sync.WaitGroup
	now  func() time.Time
}

// New creates an indexing service.
func New(src Source, sink Sink, opts Options, logger *zap.Logger) *Service {
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.MaxRecords <= 0 {
		opts.MaxRecords = DefaultMaxRecords
	}
	if opts.Retention <= 0 {
		opts.Retention = DefaultRetention
	}
	if opts.MaxFinished <= 0 {
		opts.MaxFinished = DefaultMaxFinished
	}
	return &Service{
		src:    src,
		sink:   sink,
		opts:   opts,
		logger: logger,
		jobs:   make(map[string]*entry),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Run pages through records matching the job filters and indexes them.
// It stops on an empty or short page, at MaxRecords, or when ctx is done.
// Per-record failures are counted in the summary; a page fetch failure ends
// the run with the summary so far.
func (s *Service) Run(ctx context.Context, job Job, progress func(Progress)) (dombatch.Summary, error) {
	job, err := job.normalize(s.opts)
	if err != nil {
		return dombatch.NewSummary(), err
	}

	sum := dombatch.NewSummary()
	offset, batches := 0, 0
	for offset < job.MaxRecords {
		if err := ctx.Err(); err != nil {
			return sum, err
		}

		size := min(job.BatchSize, job.MaxRecords-offset)
		recs, err := s.src.SearchByKeywordsPage(ctx, "", job.Filters, size, offset)
		if err != nil {
			return sum, fmt.Errorf("fetch page at offset %d: %w", offset, err)
		}
		if len(recs) == 0 {
			break
		}

		batch, err := s.sink.IndexBatch(ctx, recs)
		sum.Merge(batch)
		batches++
		if progress != nil {
			progress(Progress{Batches: batches, Summary: sum})
		}
		if err != nil {
			return sum, fmt.Errorf("index page at offset %d: %w", offset, err)
		}

		offset += len(recs)
		if len(recs) < size {
			break
		}
	}

	s.logger.Info("indexing run finished",
		zap.Int("batches", batches),
		zap.Int("indexed", sum.Indexed),
		zap.Int("skipped", sum.Skipped),
		zap.Int("errors", sum.Errors),
		zap.Bool("cap_reached", offset >= job.MaxRecords),
	)
	return sum, nil
}

// Start validates job and runs it in the background. It returns the job id.
func (s *Service) Start(job Job) (string, error) {
	norm, err := job.normalize(s.opts)
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithCancel(context.Background())
	id := uuid.NewString()
	e := &entry{
		status: Status{
			ID:        id,
			State:     StateRunning,
			Job:       norm,
			Summary:   dombatch.NewSummary(),
			StartedAt: s.now(),
		},
		cancel: cancel,
	}

	s.mu.Lock()
	s.prune()
	s.jobs[id] = e
	s.mu.Unlock()

	log := s.logger.With(zap.String("job_id", id))
	log.Info("indexing job started", zap.Int("batch_size", norm.BatchSize), zap.Int("max_records", norm.MaxRecords))

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer cancel()

		sum, err := s.Run(ctx, norm, func(p Progress) {
			s.mu.Lock()
			e.status.Batches = p.Batches
			e.status.Summary = p.Summary
			e.status.Summary.Failures = append([]dombatch.Failure{}, p.Summary.Failures...)
			s.mu.Unlock()
		})
		s.finish(e, sum, err)
		if err != nil {
			log.Warn("indexing job stopped", zap.Error(err))
		}
	}()
	return id, nil
}

func (s *Service) finish(e *entry, sum dombatch.Summary, err error) {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	defer s.prune()

	e.status.Summary = sum
	e.status.FinishedAt = &now
	switch {
	case err == nil:
		e.status.State = StateCompleted
	case errors.Is(err, context.Canceled):
		e.status.State = StateCanceled
		e.status.Error = err.Error()
	default:
		e.status.State = StateFailed
		e.status.Error = err.Error()
	}
}

// prune drops finished jobs past the retention window, then the oldest
// finished ones beyond MaxFinished. Running jobs are never dropped.
// Callers hold s.mu.
func (s *Service) prune() {
	cutoff := s.now().Add(-s.opts.Retention)
	finished := make([]*entry, 0, len(s.jobs))
	for id, e := range s.jobs {
		switch {
		case e.status.FinishedAt == nil:
		case e.status.FinishedAt.Before(cutoff):
			delete(s.jobs, id)
		default:
			finished = append(finished, e)
		}
	}
	if len(finished) <= s.opts.MaxFinished {
		return
	}
	slices.SortFunc(finished, func(a, b *entry) int {
		return a.status.FinishedAt.Compare(*b.status.FinishedAt)
	})
	for _, e := range finished[:len(finished)-s.opts.MaxFinished] {
		delete(s.jobs, e.status.ID)
	}
}

// Status returns a snapshot of a job started with Start.
func (s *Service) Status(id string) (Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.jobs[id]
	if !ok {
		return Status{}, fmt.Errorf("indexing job %s: %w", id, domain.ErrNotFound)
	}
	st := e.status
	st.Summary.Failures = append([]dombatch.Failure{}, e.status.Summary.Failures...)
	return st, nil
}

// Cancel stops a running job. Finished jobs are left untouched.
func (s *Service) Cancel(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.jobs[id]
	if !ok {
		return fmt.Errorf("indexing job %s: %w", id, domain.ErrNotFound)
	}
	e.cancel()
	return nil
}

// Close cancels running jobs and waits for them to stop.
func (s *Service) Close() {
	s.mu.Lock()
	for _, e := range s.jobs {
		e.cancel()
	}
	s.mu.Unlock()
	s.wg.Wait()
}
