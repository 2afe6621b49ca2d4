// Package response builds the search response envelope.
package response

import (
	"time"

	"github.com/kailas-cloud/patentsearch/internal/domain/patent"
	"github.com/kailas-cloud/patentsearch/internal/domain/search/filter"
	"github.com/kailas-cloud/patentsearch/internal/domain/search/mode"
)

// Metadata describes how a response was produced.
type Metadata struct {
	SemanticResultCount int       `json:"semanticResultCount"`
	KeywordResultCount  int       `json:"keywordResultCount"`
	QueryTokenCount     int       `json:"queryTokenCount"`
	FiltersApplied      []string  `json:"filtersApplied"`
	SearchType          mode.Mode `json:"searchType"`
	// Fallback is set when a vector failure or empty semantic set degraded the request to keyword.
	Fallback bool `json:"fallback,omitempty"`
}

// Response is built once per request and never mutated afterwards.
type Response struct {
	Results      []patent.Record `json:"results"`
	TotalResults int             `json:"totalResults"`
	SearchTimeMs int64           `json:"searchTimeMs"`
	Metadata     Metadata        `json:"metadata"`
}

// Outcome is what a search procedure produced before the envelope is built.
type Outcome struct {
	Results    []patent.Record
	TokenCount int
	Fallback   bool
}

// New assembles a response. Results are copied so the response owns its slice.
func New(out Outcome, searchType mode.Mode, filters filter.Filters, elapsed time.Duration) Response {
	results := make([]patent.Record, len(out.Results))
	copy(results, out.Results)

	meta := Metadata{
		QueryTokenCount: out.TokenCount,
		FiltersApplied:  filters.Applied(),
		SearchType:      searchType,
		Fallback:        out.Fallback,
	}
	for i := range results {
		if results[i].IsVectorRanked() {
			meta.SemanticResultCount++
		} else {
			meta.KeywordResultCount++
		}
	}

	return Response{
		Results:      results,
		TotalResults: len(results),
		SearchTimeMs: elapsed.Milliseconds(),
		Metadata:     meta,
	}
}

// RelatedCounts summarizes the sizes of a Related payload.
type RelatedCounts struct {
	Citing  int `json:"citing"`
	Cited   int `json:"cited"`
	Similar int `json:"similar"`
}

// Related is the citation and similarity neighbourhood of one patent.
type Related struct {
	PatentID string          `json:"patentId"`
	Citing   []patent.Record `json:"citing"`
	Cited    []patent.Record `json:"cited"`
	Similar  []patent.Record `json:"similar"`
	Counts   RelatedCounts   `json:"counts"`
}

// NewRelated builds a Related payload with non-nil lists and matching counts.
func NewRelated(id string, citing, cited, similar []patent.Record) Related {
	if citing == nil {
		citing = []patent.Record{}
	}
	if cited == nil {
		cited = []patent.Record{}
	}
	if similar == nil {
		similar = []patent.Record{}
	}
	return Related{
		PatentID: id,
		Citing:   citing,
		Cited:    cited,
		Similar:  similar,
		Counts:   RelatedCounts{Citing: len(citing), Cited: len(cited), Similar: len(similar)},
	}
}
