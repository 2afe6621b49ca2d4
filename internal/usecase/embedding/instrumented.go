// Package embedding holds the embedder decorator shared by search and indexing.
package embedding

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/kailas-cloud/patentsearch/internal/domain"
	"github.com/kailas-cloud/patentsearch/internal/logger"
)

// Options describes the wrapped provider for log fields.
type Options struct {
	Provider string
	Model    string
	// SlowAfter promotes completed calls to a warning; zero disables it.
	SlowAfter time.Duration
}

// InstrumentedEmbedder charges token usage to the request and logs each call
// with the request's logger.
type InstrumentedEmbedder struct {
	next   domain.Embedder
	opts   Options
	logger *zap.Logger
}

// NewInstrumentedEmbedder wraps next. base is used when the context carries
// no request logger, as in the indexer.
func NewInstrumentedEmbedder(next domain.Embedder, opts Options, base *zap.Logger) *InstrumentedEmbedder {
	return &InstrumentedEmbedder{next: next, opts: opts, logger: base}
}

// Embed implements domain.Embedder.
func (e *InstrumentedEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	start := time.Now()
	res, err := e.next.Embed(ctx, text)
	took := time.Since(start)

	log := logger.FromContextOr(ctx, e.logger).With(
		zap.String("provider", e.opts.Provider),
		zap.String("model", e.opts.Model),
		zap.Duration("duration", took),
	)

	if err != nil {
		// A caller that gave up is not a provider fault.
		if errors.Is(err, context.Canceled) || errors.Is(ctx.Err(), context.Canceled) {
			log.Warn("Embedding abandoned by caller", zap.Error(err))
		} else {
			log.Error("Embedding request failed", zap.Error(err))
		}
		return domain.EmbeddingResult{}, fmt.Errorf("embed %d chars: %w", utf8.RuneCountInString(text), err)
	}

	domain.UsageFromContext(ctx).AddTokens(res.TotalTokens)

	fields := []zap.Field{
		zap.Int("chars", utf8.RuneCountInString(text)),
		zap.Int("dims", len(res.Embedding)),
		zap.Int("tokens", res.TotalTokens),
		zap.Bool("billed", res.TotalTokens > 0),
	}
	if e.opts.SlowAfter > 0 && took > e.opts.SlowAfter {
		log.Warn("Slow embedding request", fields...)
		return res, nil
	}
	log.Debug("Embedding request completed", fields...)
	return res, nil
}
