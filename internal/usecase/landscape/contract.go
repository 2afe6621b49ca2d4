package landscape

import (
	"context"

	"github.com/kailas-cloud/patentsearch/internal/domain/analytics"
	"github.com/kailas-cloud/patentsearch/internal/domain/patent"
	"github.com/kailas-cloud/patentsearch/internal/domain/search/filter"
)

// Corpus provides aggregate statistics and citation edges.
type Corpus interface {
	GetStatistics(ctx context.Context, f filter.Filters) (analytics.Statistics, error)
	CitationEdges(ctx context.Context, ids []string) ([]patent.Edge, error)
}

// Sampler runs a hybrid search with an arbitrary limit.
type Sampler interface {
	Hybrid(ctx context.Context, query string, f filter.Filters, limit int) ([]patent.Record, error)
}
