package health

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates the service answers with reduced quality (keyword only).
	Degraded Status = "degraded"
	// Unhealthy indicates the warehouse is down, so no search mode can answer.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
	// CheckNotReady indicates a reachable component that cannot serve yet.
	CheckNotReady CheckResult = "not_ready"
)

// Component names in a Report.
const (
	ComponentValkey    = "valkey"
	ComponentWarehouse = "warehouse"
	ComponentEmbedding = "embedding"
	ComponentIndex     = "vector_index"
)

// DefaultCheckTimeout bounds each component check.
const DefaultCheckTimeout = 2 * time.Second

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	valkey    Pinger
	warehouse Pinger
	embedding EmbeddingChecker
	index     IndexStatuser
	timeout   time.Duration
}

// New creates a Service. embedding and index can be nil.
func New(valkey, warehouse Pinger, embedding EmbeddingChecker, index IndexStatuser) *Service {
	return &Service{
		valkey:    valkey,
		warehouse: warehouse,
		embedding: embedding,
		index:     index,
		timeout:   DefaultCheckTimeout,
	}
}

// Check probes every component concurrently. The index is only inspected
// when Valkey answers. A warehouse outage makes the service unhealthy since
// no search mode can answer without it; any other failure degrades it.
func (s *Service) Check(ctx context.Context) Report {
	var (
		mu     sync.Mutex
		checks = make(map[string]CheckResult, 4)
		g      errgroup.Group
	)
	probe := func(name string, fn func(context.Context) CheckResult) {
		g.Go(func() error {
			cctx, cancel := context.WithTimeout(ctx, s.timeout)
			defer cancel()
			res := fn(cctx)
			mu.Lock()
			checks[name] = res
			mu.Unlock()
			return nil
		})
	}

	probe(ComponentWarehouse, pinged(s.warehouse))
	probe(ComponentValkey, func(ctx context.Context) CheckResult {
		res := pinged(s.valkey)(ctx)
		if res == CheckOK && s.index != nil {
			r := s.indexState(ctx)
			mu.Lock()
			checks[ComponentIndex] = r
			mu.Unlock()
		}
		return res
	})
	if s.embedding != nil {
		probe(ComponentEmbedding, func(ctx context.Context) CheckResult {
			return result(s.embedding.HealthCheck(ctx))
		})
	}
	_ = g.Wait()

	status := Healthy
	for _, r := range checks {
		if r != CheckOK {
			status = Degraded
		}
	}
	if checks[ComponentWarehouse] == CheckError {
		status = Unhealthy
	}
	return Report{Status: status, Checks: checks}
}

func pinged(p Pinger) func(context.Context) CheckResult {
	return func(ctx context.Context) CheckResult { return result(p.Ping(ctx)) }
}

func result(err error) CheckResult {
	if err != nil {
		return CheckError
	}
	return CheckOK
}

func (s *Service) indexState(ctx context.Context) CheckResult {
	st, err := s.index.Status(ctx)
	switch {
	case err != nil:
		return CheckError
	case !st.Exists || !st.Ready:
		return CheckNotReady
	}
	return CheckOK
}
