// Package search orchestrates keyword, semantic and hybrid patent retrieval
// with the keyword fallback policy.
package search

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/patentsearch/internal/domain/patent"
	"github.com/kailas-cloud/patentsearch/internal/domain/search/filter"
	"github.com/kailas-cloud/patentsearch/internal/domain/search/mode"
	"github.com/kailas-cloud/patentsearch/internal/domain/search/request"
	"github.com/kailas-cloud/patentsearch/internal/domain/search/response"
	domvec "github.com/kailas-cloud/patentsearch/internal/domain/vector"
	"github.com/kailas-cloud/patentsearch/internal/logger"
	"github.com/kailas-cloud/patentsearch/internal/metrics"
)

// Fallback reasons reported in metrics and logs.
const (
	reasonEmpty   = "empty"
	reasonError   = "error"
	reasonTimeout = "timeout"
)

// Service runs searches across semantic, keyword and hybrid modes.
type Service struct {
	lex    Lexical
	vec    Vector
	policy Policy
	pool   *ants.Pool
	logger *zap.Logger
}

// New creates a search service with a bounded worker pool for batch searches.
// Call Close to release the pool.
func New(lex Lexical, vec Vector, policy Policy, log *zap.Logger) (*Service, error) {
	policy = policy.withDefaults()
	pool, err := ants.NewPool(policy.BatchWorkers)
	if err != nil {
		return nil, fmt.Errorf("create batch pool: %w", err)
	}
	return &Service{lex: lex, vec: vec, policy: policy, pool: pool, logger: log}, nil
}

// Close releases the batch worker pool.
func (s *Service) Close() {
	s.pool.Release()
}

// Policy returns the effective policy.
func (s *Service) Policy() Policy { return s.policy }

// Search runs a validated request under the overall request deadline.
func (s *Service) Search(ctx context.Context, req *request.Request) (response.Response, error) {
	start := time.Now()
	if s.policy.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.policy.RequestTimeout)
		defer cancel()
	}
	metrics.SearchRequestsTotal.WithLabelValues(string(req.Mode())).Inc()
	ctx = logger.With(ctx, zap.String("search_mode", string(req.Mode())), zap.Int("limit", req.Limit()))

	minSim := req.MinSimilarityOr(s.policy.MinSimilarity)
	out, err := s.run(ctx, req.Mode(), req.Query(), req.Filters(), req.Limit(), minSim)
	if err != nil {
		return response.Response{}, err
	}
	return response.New(out, req.Mode(), req.Filters(), time.Since(start)), nil
}

// Hybrid runs hybrid mode with a caller-chosen limit and the default
// threshold. It skips request validation so analytics can sample more than
// a search request may return.
func (s *Service) Hybrid(ctx context.Context, query string, f filter.Filters, limit int) ([]patent.Record, error) {
	if s.policy.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.policy.RequestTimeout)
		defer cancel()
	}
	out, err := s.hybrid(ctx, query, f, max(limit, 1), s.policy.MinSimilarity)
	if err != nil {
		return nil, err
	}
	return out.Results, nil
}

func (s *Service) run(
	ctx context.Context, m mode.Mode, query string, f filter.Filters, limit int, minSim float64,
) (response.Outcome, error) {
	switch m {
	case mode.Keyword:
		recs, err := s.keyword(ctx, query, f, limit)
		return response.Outcome{Results: recs}, err
	case mode.Semantic:
		return s.semantic(ctx, query, f, limit, minSim)
	case mode.Hybrid:
		return s.hybrid(ctx, query, f, limit, minSim)
	default:
		return response.Outcome{}, fmt.Errorf("unsupported search mode: %s", m)
	}
}

// keyword runs lexical retrieval. Scores are forced to 0.
func (s *Service) keyword(ctx context.Context, query string, f filter.Filters, limit int) ([]patent.Record, error) {
	start := time.Now()
	recs, err := s.lex.SearchByKeywords(ctx, query, f, limit)
	metrics.SearchBranchDuration.WithLabelValues("keyword").Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("keyword search: %w", err)
	}
	for i := range recs {
		recs[i].SimilarityScore = 0
	}
	return truncate(recs, limit), nil
}

// semantic embeds the query, keeps matches at or above minSim and enriches
// them with full records. A vector failure, timeout or empty match set
// degrades to keyword mode with the same limit.
func (s *Service) semantic(
	ctx context.Context, query string, f filter.Filters, limit int, minSim float64,
) (response.Outcome, error) {
	matches, tokens, err := s.similar(ctx, query, f, limit, minSim)
	if err != nil || len(matches) == 0 {
		return s.fallback(ctx, mode.Semantic, query, f, limit, tokens, err)
	}

	recs, err := s.enrich(ctx, matches, f)
	if err != nil {
		return response.Outcome{}, err
	}
	if len(recs) == 0 {
		return s.fallback(ctx, mode.Semantic, query, f, limit, tokens, nil)
	}
	return response.Outcome{Results: truncate(recs, limit), TokenCount: tokens}, nil
}

// enrich loads the full records behind matches, ranked by score. The vector
// index stores a capped classification list, so the classification filter is
// checked again on the full record.
func (s *Service) enrich(ctx context.Context, matches []domvec.Match, f filter.Filters) ([]patent.Record, error) {
	ids := make([]string, len(matches))
	for i, m := range matches {
		ids[i] = m.ID
	}
	recs, err := s.lex.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("enrich semantic matches: %w", err)
	}
	kept := recs[:0]
	for i := range recs {
		if f.MatchClassifications(recs[i].Classifications) {
			kept = append(kept, recs[i])
		}
	}
	recs = attachScores(kept, matches)
	rank(recs)
	return recs, nil
}

// similar embeds, queries and thresholds under the semantic deadline.
func (s *Service) similar(
	ctx context.Context, query string, f filter.Filters, limit int, minSim float64,
) ([]domvec.Match, int, error) {
	if s.policy.SemanticTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.policy.SemanticTimeout)
		defer cancel()
	}
	start := time.Now()
	defer func() {
		metrics.SearchBranchDuration.WithLabelValues("semantic").Observe(time.Since(start).Seconds())
	}()

	emb, err := s.vec.Embed(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("embed query: %w", err)
	}
	matches, err := s.vec.QuerySimilar(ctx, emb.Vector, s.policy.SemanticOverFetch*limit, f)
	if err != nil {
		return nil, emb.TokenCount, fmt.Errorf("query similar: %w", err)
	}

	kept := make([]domvec.Match, 0, len(matches))
	for _, m := range matches {
		if m.SimilarityScore >= minSim {
			kept = append(kept, m)
		}
	}
	return kept, emb.TokenCount, nil
}

func (s *Service) fallback(
	ctx context.Context, from mode.Mode, query string, f filter.Filters, limit, tokens int, cause error,
) (response.Outcome, error) {
	reason := reasonEmpty
	switch {
	case errors.Is(cause, context.DeadlineExceeded):
		reason = reasonTimeout
	case cause != nil:
		reason = reasonError
	}
	metrics.SearchFallbacksTotal.WithLabelValues(string(from), reason).Inc()

	fields := []zap.Field{zap.String("mode", string(from)), zap.String("reason", reason)}
	if cause != nil {
		fields = append(fields, zap.Error(cause))
	}
	logger.FromContextOr(ctx, s.logger).Warn("semantic search degraded to keyword", fields...)

	recs, err := s.keyword(ctx, query, f, limit)
	if err != nil {
		return response.Outcome{}, err
	}
	return response.Outcome{Results: recs, TokenCount: tokens, Fallback: true}, nil
}

// hybrid runs semantic and keyword concurrently on their limit shares and
// merges them. If either branch fails hard, keyword mode runs alone with the
// full limit.
func (s *Service) hybrid(
	ctx context.Context, query string, f filter.Filters, limit int, minSim float64,
) (response.Outcome, error) {
	var (
		sem response.Outcome
		kw  []patent.Record
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		sem, err = s.semantic(gctx, query, f, share(limit, s.policy.SemanticShare), minSim)
		return err
	})
	g.Go(func() error {
		var err error
		kw, err = s.keyword(gctx, query, f, share(limit, s.policy.KeywordShare))
		return err
	})
	if err := g.Wait(); err != nil {
		logger.FromContextOr(ctx, s.logger).Warn("hybrid branch failed, running keyword only", zap.Error(err))
		metrics.SearchFallbacksTotal.WithLabelValues(string(mode.Hybrid), reasonError).Inc()
		recs, kerr := s.keyword(ctx, query, f, limit)
		if kerr != nil {
			return response.Outcome{}, kerr
		}
		return response.Outcome{Results: recs, TokenCount: sem.TokenCount, Fallback: true}, nil
	}

	return response.Outcome{
		Results:    mergeHybrid(sem.Results, kw, s.policy.HybridBoost, limit),
		TokenCount: sem.TokenCount,
		Fallback:   sem.Fallback,
	}, nil
}
