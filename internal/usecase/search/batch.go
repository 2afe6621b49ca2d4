package search

import (
	"context"
	"fmt"
	"sync"

	"github.com/kailas-cloud/patentsearch/internal/domain"
	"github.com/kailas-cloud/patentsearch/internal/domain/search/filter"
	"github.com/kailas-cloud/patentsearch/internal/domain/search/mode"
	"github.com/kailas-cloud/patentsearch/internal/domain/search/request"
	"github.com/kailas-cloud/patentsearch/internal/domain/search/response"
)

// BatchQuery is one entry of a batch search. Limit 0 means the default.
type BatchQuery struct {
	Query   string
	Limit   int
	Filters filter.Filters
}

// BatchResult is the per-query outcome. Exactly one of Response and Err is set.
type BatchResult struct {
	Query    string
	Response *response.Response
	Err      error
}

// Batch runs each query as an independent hybrid search on the worker pool.
// Failures are reported per query; only an invalid batch size fails the call.
func (s *Service) Batch(ctx context.Context, queries []BatchQuery) ([]BatchResult, error) {
	if len(queries) == 0 {
		return nil, domain.NewValidationError("queries", "at least one query is required")
	}
	if len(queries) > request.MaxBatchQueries {
		return nil, domain.NewValidationError("queries",
			fmt.Sprintf("at most %d queries per batch", request.MaxBatchQueries))
	}

	results := make([]BatchResult, len(queries))
	var wg sync.WaitGroup
	for i, q := range queries {
		results[i].Query = q.Query

		req, err := request.New(q.Query, mode.Hybrid, q.Filters, q.Limit, nil)
		if err != nil {
			results[i].Err = err
			continue
		}

		wg.Add(1)
		err = s.pool.Submit(func() {
			defer wg.Done()
			resp, err := s.Search(ctx, &req)
			if err != nil {
				results[i].Err = err
				return
			}
			results[i].Response = &resp
		})
		if err != nil {
			wg.Done()
			results[i].Err = fmt.Errorf("submit query: %w", err)
		}
	}
	wg.Wait()
	return results, nil
}
