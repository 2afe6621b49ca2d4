package indexing

import (
	"context"

	dombatch "github.com/kailas-cloud/patentsearch/internal/domain/batch"
	"github.com/kailas-cloud/patentsearch/internal/domain/patent"
	"github.com/kailas-cloud/patentsearch/internal/domain/search/filter"
)

// Source pages through warehouse records in a stable order.
type Source interface {
	SearchByKeywordsPage(ctx context.Context, text string, f filter.Filters, limit, offset int) ([]patent.Record, error)
}

// Sink embeds and upserts one batch of records.
type Sink interface {
	IndexBatch(ctx context.Context, records []patent.Record) (dombatch.Summary, error)
}
