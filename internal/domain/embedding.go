package domain

import "context"

// KeyPrefix is the root of every Valkey key the service owns.
const KeyPrefix = "patentsearch:"

// Embedder turns query or patent text into a dense vector. The sparse
// index representation is derived later by the vector service.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// EmbeddingResult is a vector plus what the provider billed for it.
// Cached results carry zero tokens.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

// HealthChecker is implemented by providers that can be probed.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}
