package search

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/patentsearch/internal/domain"
	"github.com/kailas-cloud/patentsearch/internal/domain/patent"
	"github.com/kailas-cloud/patentsearch/internal/domain/search/filter"
	"github.com/kailas-cloud/patentsearch/internal/domain/search/response"
	"github.com/kailas-cloud/patentsearch/internal/logger"
)

// Related returns the citation neighbourhood of id and the patents most
// similar to its title and abstract, excluding id itself.
func (s *Service) Related(ctx context.Context, id string) (response.Related, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return response.Related{}, domain.NewValidationError("patentId", "is required")
	}
	if s.policy.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.policy.RequestTimeout)
		defer cancel()
	}

	var (
		cites  patent.Citations
		source []patent.Record
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		cites, err = s.lex.GetCitations(gctx, id)
		if err != nil {
			return fmt.Errorf("get citations: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		source, err = s.lex.GetByIDs(gctx, []string{id})
		if err != nil {
			return fmt.Errorf("get patent: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return response.Related{}, err
	}
	if len(source) == 0 {
		return response.Related{}, fmt.Errorf("patent %s: %w", id, domain.ErrNotFound)
	}

	similar, err := s.similarTo(ctx, &source[0])
	if err != nil {
		return response.Related{}, err
	}
	return response.NewRelated(id, cites.Citing, cites.Cited, similar), nil
}

// similarTo has no keyword fallback: the source's full text as a lexical
// query matches little besides the source itself.
func (s *Service) similarTo(ctx context.Context, rec *patent.Record) ([]patent.Record, error) {
	text := rec.EmbeddingText()
	if text == "" {
		return []patent.Record{}, nil
	}
	matches, _, err := s.similar(ctx, text, filter.Filters{}, s.policy.RelatedCap+1, s.policy.RelatedMinSimilarity)
	if err != nil {
		logger.FromContextOr(ctx, s.logger).Warn("related patents without similar section",
			zap.String("patent_id", rec.ID), zap.Error(err))
		return []patent.Record{}, nil
	}
	if len(matches) == 0 {
		return []patent.Record{}, nil
	}
	recs, err := s.enrich(ctx, matches, filter.Filters{})
	if err != nil {
		return nil, fmt.Errorf("similar patents: %w", err)
	}

	similar := make([]patent.Record, 0, len(recs))
	for _, r := range recs {
		if r.ID == rec.ID {
			continue
		}
		similar = append(similar, r)
	}
	return truncate(similar, s.policy.RelatedCap), nil
}
