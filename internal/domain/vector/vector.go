package vector

import "github.com/kailas-cloud/patentsearch/internal/domain/patent"

// Embedding is a preprocessed text's vector with the provider's token count.
type Embedding struct {
	Vector     Sparse
	TokenCount int
}

// Match is a transient similarity hit: an id, its score in [0,1] and the
// metadata stored next to the vector.
type Match struct {
	ID              string
	SimilarityScore float64
	Metadata        map[string]string
}

// Status reports vector index state.
type Status struct {
	Exists      bool `json:"exists"`
	Ready       bool `json:"ready"`
	VectorCount int  `json:"vectorCount"`
}

// Entry is a record paired with its embedding, ready to upsert.
type Entry struct {
	Record patent.Record
	Vector Sparse
}
