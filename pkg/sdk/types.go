package patentsearch

import (
	"github.com/kailas-cloud/patentsearch/internal/domain/analytics"
	"github.com/kailas-cloud/patentsearch/internal/domain/patent"
	"github.com/kailas-cloud/patentsearch/internal/domain/search/filter"
	"github.com/kailas-cloud/patentsearch/internal/domain/search/mode"
	"github.com/kailas-cloud/patentsearch/internal/domain/search/response"
	domvec "github.com/kailas-cloud/patentsearch/internal/domain/vector"
	indexinguc "github.com/kailas-cloud/patentsearch/internal/usecase/indexing"
)

// Wire types shared with the server.
type (
	Patent         = patent.Record
	Edge           = patent.Edge
	Filters        = filter.Filters
	DateRange      = filter.DateRange
	SearchMode     = mode.Mode
	SearchResponse = response.Response
	Related        = response.Related
	Statistics     = analytics.Statistics
	Landscape      = analytics.Landscape
	IndexStatus    = domvec.Status
	IndexJob       = indexinguc.Job
	IndexJobStatus = indexinguc.Status
	IndexJobState  = indexinguc.State
)

// Search mode constants.
const (
	ModeHybrid   = mode.Hybrid
	ModeSemantic = mode.Semantic
	ModeKeyword  = mode.Keyword
)

// SearchRequest is a full search. Zero Limit and MinSimilarity take the
// server defaults; an empty Mode means hybrid.
type SearchRequest struct {
	Query         string     `json:"query"`
	Mode          SearchMode `json:"searchType,omitempty"`
	Limit         int        `json:"limit,omitempty"`
	MinSimilarity float64    `json:"minSimilarity,omitempty"`
	Filters       Filters    `json:"filters"`
}

// BatchQuery is one entry of a batch search.
type BatchQuery struct {
	Query   string  `json:"query"`
	Limit   int     `json:"limit,omitempty"`
	Filters Filters `json:"filters"`
}

// BatchResult is one query's outcome. Err is an *APIError when the query failed.
type BatchResult struct {
	Query    string
	Response *SearchResponse
	Err      error
}

// HealthStatus represents the aggregated system health.
type HealthStatus struct {
	Status  string            `json:"status"` // "ok", "degraded", "error"
	Checks  map[string]string `json:"checks"` // component → "ok"/"error"/"not_ready"
	Version string            `json:"version"`
}

// errorBody is the wire form of every non-2xx response.
type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type batchItem struct {
	Query    string          `json:"query"`
	Response *SearchResponse `json:"response,omitempty"`
	Error    *errorBody      `json:"error,omitempty"`
}
