package vector

import (
	"context"

	"github.com/kailas-cloud/patentsearch/internal/domain"
	"github.com/kailas-cloud/patentsearch/internal/domain/search/filter"
	domvec "github.com/kailas-cloud/patentsearch/internal/domain/vector"
)

// Index is the vector store contract.
type Index interface {
	Upsert(ctx context.Context, entries []domvec.Entry) error
	Query(ctx context.Context, vec domvec.Sparse, topK int, f filter.Filters) ([]domvec.Match, error)
	Status(ctx context.Context) (domvec.Status, error)
	Create(ctx context.Context) error
	Delete(ctx context.Context) error
}

// Embedder vectorizes text into embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
