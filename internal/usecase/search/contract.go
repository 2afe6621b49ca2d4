package search

import (
	"context"

	"github.com/kailas-cloud/patentsearch/internal/domain/patent"
	"github.com/kailas-cloud/patentsearch/internal/domain/search/filter"
	domvec "github.com/kailas-cloud/patentsearch/internal/domain/vector"
)

// Lexical is the warehouse retrieval contract used by the orchestrator.
type Lexical interface {
	SearchByKeywords(ctx context.Context, text string, f filter.Filters, limit int) ([]patent.Record, error)
	GetByIDs(ctx context.Context, ids []string) ([]patent.Record, error)
	GetCitations(ctx context.Context, id string) (patent.Citations, error)
}

// Vector is the embedding and similarity contract used by the orchestrator.
type Vector interface {
	Embed(ctx context.Context, text string) (domvec.Embedding, error)
	QuerySimilar(ctx context.Context, vec domvec.Sparse, topK int, f filter.Filters) ([]domvec.Match, error)
}
