package search

import (
	"math"
	"runtime"
	"time"
)

// Policy holds the ranking and fallback constants.
type Policy struct {
	SemanticOverFetch    int
	SemanticShare        float64
	KeywordShare         float64
	HybridBoost          float64
	MinSimilarity        float64
	RelatedMinSimilarity float64
	RelatedCap           int
	QuickLimit           int
	RequestTimeout       time.Duration
	// SemanticTimeout bounds embed + vector query so a slow vector path still
	// leaves time for the keyword fallback inside RequestTimeout.
	SemanticTimeout time.Duration
	BatchWorkers    int
}

// DefaultPolicy returns the production defaults.
func DefaultPolicy() Policy {
	return Policy{
		SemanticOverFetch:    2,
		SemanticShare:        0.7,
		KeywordShare:         0.5,
		HybridBoost:          1.2,
		MinSimilarity:        0.7,
		RelatedMinSimilarity: 0.8,
		RelatedCap:           10,
		QuickLimit:           10,
		RequestTimeout:       10 * time.Second,
		SemanticTimeout:      5 * time.Second,
		BatchWorkers:         max(runtime.NumCPU(), 2),
	}
}

// withDefaults fills zero fields from DefaultPolicy. Timeouts stay as given:
// zero disables them.
func (p Policy) withDefaults() Policy {
	def := DefaultPolicy()
	if p.SemanticOverFetch <= 0 {
		p.SemanticOverFetch = def.SemanticOverFetch
	}
	if p.SemanticShare <= 0 {
		p.SemanticShare = def.SemanticShare
	}
	if p.KeywordShare <= 0 {
		p.KeywordShare = def.KeywordShare
	}
	if p.HybridBoost <= 0 {
		p.HybridBoost = def.HybridBoost
	}
	if p.MinSimilarity <= 0 {
		p.MinSimilarity = def.MinSimilarity
	}
	if p.RelatedMinSimilarity <= 0 {
		p.RelatedMinSimilarity = def.RelatedMinSimilarity
	}
	if p.RelatedCap <= 0 {
		p.RelatedCap = def.RelatedCap
	}
	if p.QuickLimit <= 0 {
		p.QuickLimit = def.QuickLimit
	}
	if p.BatchWorkers <= 0 {
		p.BatchWorkers = def.BatchWorkers
	}
	return p
}

// share returns ceil(limit*frac), at least 1.
func share(limit int, frac float64) int {
	return max(int(math.Ceil(float64(limit)*frac)), 1)
}
