package health

import (
	"context"

	domvec "github.com/kailas-cloud/patentsearch/internal/domain/vector"
)

// Pinger checks backend availability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// EmbeddingChecker checks embedding provider availability.
type EmbeddingChecker interface {
	HealthCheck(ctx context.Context) error
}

// IndexStatuser reports vector index state.
type IndexStatuser interface {
	Status(ctx context.Context) (domvec.Status, error)
}
