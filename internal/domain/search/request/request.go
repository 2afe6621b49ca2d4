package request

import (
	"strings"
	"unicode/utf8"

	"github.com/kailas-cloud/patentsearch/internal/domain"
	"github.com/kailas-cloud/patentsearch/internal/domain/search/filter"
	"github.com/kailas-cloud/patentsearch/internal/domain/search/mode"
)

// Search parameter limits.
const (
	// MaxQueryLength is the maximum allowed query length in characters.
	MaxQueryLength = 5000
	DefaultLimit   = 50
	MaxLimit       = 100
	// MaxBatchQueries bounds a single batch search call.
	MaxBatchQueries = 10
)

// Request is a validated search query.
type Request struct {
	query         string
	searchMode    mode.Mode
	filters       filter.Filters
	limit         int
	minSimilarity *float64
}

// New validates and normalizes search parameters.
// Defaults: mode=hybrid, limit=50; minSimilarity falls back to the service default when nil.
func New(
	query string,
	m mode.Mode,
	filters filter.Filters,
	limit int,
	minSimilarity *float64,
) (Request, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return Request{}, domain.NewValidationError("query", "is required")
	}
	if utf8.RuneCountInString(query) > MaxQueryLength {
		return Request{}, domain.NewValidationError("query", "too long (max 5000 chars)")
	}
	m, ok := mode.Parse(string(m))
	if !ok {
		return Request{}, domain.NewValidationError("searchType", "must be one of "+mode.Names())
	}
	if limit == 0 {
		limit = DefaultLimit
	}
	if limit < 1 || limit > MaxLimit {
		return Request{}, domain.NewValidationError("limit", "must be between 1 and 100")
	}
	if minSimilarity != nil && (*minSimilarity < 0 || *minSimilarity > 1) {
		return Request{}, domain.NewValidationError("minSimilarity", "must be between 0 and 1")
	}
	normalized, err := filters.Normalize()
	if err != nil {
		return Request{}, domain.NewValidationError("filters", err.Error())
	}

	var ms *float64
	if minSimilarity != nil {
		v := *minSimilarity
		ms = &v
	}
	return Request{
		query:         query,
		searchMode:    m,
		filters:       normalized,
		limit:         limit,
		minSimilarity: ms,
	}, nil
}

// Query returns the trimmed search text.
func (r *Request) Query() string { return r.query }

// Mode returns the search strategy.
func (r *Request) Mode() mode.Mode { return r.searchMode }

// Filters returns the normalized filters.
func (r *Request) Filters() filter.Filters { return r.filters }

// Limit returns the maximum results to return.
func (r *Request) Limit() int { return r.limit }

// MinSimilarityOr returns the requested similarity threshold, or def when none was given.
func (r *Request) MinSimilarityOr(def float64) float64 {
	if r.minSimilarity == nil {
		return def
	}
	return *r.minSimilarity
}
