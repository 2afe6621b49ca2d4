// Package vector embeds patent text and runs similarity retrieval and bulk
// indexing against the vector index.
package vector

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kailas-cloud/patentsearch/internal/domain"
	dombatch "github.com/kailas-cloud/patentsearch/internal/domain/batch"
	"github.com/kailas-cloud/patentsearch/internal/domain/patent"
	"github.com/kailas-cloud/patentsearch/internal/domain/search/filter"
	domvec "github.com/kailas-cloud/patentsearch/internal/domain/vector"
	"github.com/kailas-cloud/patentsearch/internal/metrics"
)

// DefaultUpsertBatchSize is the number of input records handled per upsert.
const DefaultUpsertBatchSize = 100

// Options tune bulk indexing. A non-positive rate disables that throttle.
type Options struct {
	UpsertBatchSize int
	EmbedRPS        float64
	UpsertRPS       float64
}

// Service is the vector retrieval adapter.
type Service struct {
	embed     Embedder
	index     Index
	batchSize int
	embedRL   *rate.Limiter
	upsertRL  *rate.Limiter
	logger    *zap.Logger
}

// New creates a vector service.
func New(embed Embedder, index Index, opts Options, logger *zap.Logger) *Service {
	if opts.UpsertBatchSize <= 0 {
		opts.UpsertBatchSize = DefaultUpsertBatchSize
	}
	return &Service{
		embed:     embed,
		index:     index,
		batchSize: opts.UpsertBatchSize,
		embedRL:   limiter(opts.EmbedRPS),
		upsertRL:  limiter(opts.UpsertRPS),
		logger:    logger,
	}
}

func limiter(rps float64) *rate.Limiter {
	if rps <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	return rate.NewLimiter(rate.Limit(rps), 1)
}

// Embed preprocesses text and returns its sparse embedding.
func (s *Service) Embed(ctx context.Context, text string) (domvec.Embedding, error) {
	clean, truncated := preprocess(text)
	if truncated {
		metrics.EmbeddingInputTruncatedTotal.Inc()
	}
	if clean == "" {
		return domvec.Embedding{}, fmt.Errorf("%w: no embeddable text", domain.ErrVectorUnavailable)
	}
	res, err := s.embed.Embed(ctx, clean)
	if err != nil {
		return domvec.Embedding{}, fmt.Errorf("%w: %w", domain.ErrVectorUnavailable, err)
	}
	return domvec.Embedding{
		Vector:     domvec.FromDense(res.Embedding),
		TokenCount: res.TotalTokens,
	}, nil
}

// QuerySimilar returns up to topK matches in descending similarity.
func (s *Service) QuerySimilar(
	ctx context.Context, vec domvec.Sparse, topK int, f filter.Filters,
) ([]domvec.Match, error) {
	if topK < 1 {
		return []domvec.Match{}, nil
	}
	matches, err := s.index.Query(ctx, vec, topK, f)
	if err != nil {
		return nil, fmt.Errorf("query similar: %w", err)
	}
	if len(matches) > topK {
		matches = matches[:topK]
	}
	return matches, nil
}

// IndexBatch embeds and upserts records in chunks of the configured size.
// Records without text are skipped. Embed and upsert failures are counted in
// the summary and never stop the run; only context cancellation does.
func (s *Service) IndexBatch(ctx context.Context, records []patent.Record) (dombatch.Summary, error) {
	sum := dombatch.NewSummary()
	start := time.Now()

	for lo := 0; lo < len(records); lo += s.batchSize {
		hi := min(lo+s.batchSize, len(records))
		chunk, err := s.indexChunk(ctx, records[lo:hi])
		sum.Merge(chunk)
		if err != nil {
			return sum, err
		}
	}

	metrics.IndexingRecordsTotal.WithLabelValues("indexed").Add(float64(sum.Indexed))
	metrics.IndexingRecordsTotal.WithLabelValues("skipped").Add(float64(sum.Skipped))
	metrics.IndexingRecordsTotal.WithLabelValues("error").Add(float64(sum.Errors))

	s.logger.Info("index batch done",
		zap.Int("records", len(records)),
		zap.Int("indexed", sum.Indexed),
		zap.Int("skipped", sum.Skipped),
		zap.Int("errors", sum.Errors),
		zap.Duration("duration", time.Since(start)),
	)
	return sum, nil
}

func (s *Service) indexChunk(ctx context.Context, records []patent.Record) (dombatch.Summary, error) {
	sum := dombatch.NewSummary()
	entries := make([]domvec.Entry, 0, len(records))

	for i := range records {
		rec := &records[i]
		text := rec.EmbeddingText()
		if text == "" {
			s.logger.Debug("skip record without text", zap.String("id", rec.ID))
			sum.Add(dombatch.NewSkipped(rec.ID))
			continue
		}

		if err := s.embedRL.Wait(ctx); err != nil {
			return sum, fmt.Errorf("embed throttle: %w", err)
		}
		emb, err := s.Embed(ctx, text)
		if err != nil {
			if ctx.Err() != nil {
				return sum, fmt.Errorf("embed %s: %w", rec.ID, ctx.Err())
			}
			s.logger.Warn("embed record failed", zap.String("id", rec.ID), zap.Error(err))
			sum.Add(dombatch.NewError(rec.ID, err))
			continue
		}
		entries = append(entries, domvec.Entry{Record: *rec, Vector: emb.Vector})
	}

	if len(entries) == 0 {
		return sum, nil
	}

	if err := s.upsertRL.Wait(ctx); err != nil {
		return sum, fmt.Errorf("upsert throttle: %w", err)
	}
	if err := s.index.Upsert(ctx, entries); err != nil {
		s.logger.Warn("upsert chunk failed", zap.Int("entries", len(entries)), zap.Error(err))
		for i := range entries {
			sum.Add(dombatch.NewError(entries[i].Record.ID, fmt.Errorf("upsert: %w", err)))
		}
		return sum, nil
	}
	for i := range entries {
		sum.Add(dombatch.NewOK(entries[i].Record.ID))
	}
	return sum, nil
}

// Status reports index existence, readiness and size.
func (s *Service) Status(ctx context.Context) (domvec.Status, error) {
	st, err := s.index.Status(ctx)
	if err != nil {
		return domvec.Status{}, fmt.Errorf("index status: %w", err)
	}
	return st, nil
}

// CreateIndex creates the vector index if it does not exist.
func (s *Service) CreateIndex(ctx context.Context) error {
	if err := s.index.Create(ctx); err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	s.logger.Info("vector index ready")
	return nil
}

// DeleteIndex drops the vector index if it exists.
func (s *Service) DeleteIndex(ctx context.Context) error {
	if err := s.index.Delete(ctx); err != nil {
		return fmt.Errorf("delete index: %w", err)
	}
	s.logger.Info("vector index deleted")
	return nil
}
