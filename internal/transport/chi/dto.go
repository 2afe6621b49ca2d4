package chi

import (
	"github.com/kailas-cloud/patentsearch/internal/domain/search/filter"
	"github.com/kailas-cloud/patentsearch/internal/domain/search/mode"
	"github.com/kailas-cloud/patentsearch/internal/domain/search/response"
	healthuc "github.com/kailas-cloud/patentsearch/internal/usecase/health"
)

// ErrorCode is the machine-readable error code in an ErrorResponse.
type ErrorCode string

// Error codes returned by the API.
const (
	CodeBadRequest                  ErrorCode = "bad_request"
	CodeValidationFailed            ErrorCode = "validation_failed"
	CodeNotFound                    ErrorCode = "not_found"
	CodeUnauthorized                ErrorCode = "unauthorized"
	CodeForbidden                   ErrorCode = "forbidden"
	CodeRateLimited                 ErrorCode = "rate_limited"
	CodeLexicalBackendUnavailable   ErrorCode = "lexical_backend_unavailable"
	CodeVectorBackendUnavailable    ErrorCode = "vector_backend_unavailable"
	CodeEmbeddingProviderError      ErrorCode = "embedding_provider_error"
	CodeIdentityProviderUnavailable ErrorCode = "identity_provider_unavailable"
	CodeTimeout                     ErrorCode = "timeout"
	CodeInternalError               ErrorCode = "internal_error"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// SearchRequest is the body of POST /api/v1/search/semantic.
type SearchRequest struct {
	Query         string         `json:"query"`
	SearchType    mode.Mode      `json:"searchType,omitempty"`
	Limit         *int           `json:"limit,omitempty"`
	MinSimilarity *float64       `json:"minSimilarity,omitempty"`
	Filters       filter.Filters `json:"filters"`
}

// QuickSearchRequest is the body of POST /api/v1/search/quick.
type QuickSearchRequest struct {
	Query string `json:"query"`
}

// SuggestionsResponse is the body of GET /api/v1/search/suggestions.
type SuggestionsResponse struct {
	Suggestions []string `json:"suggestions"`
}

// BatchQuery is one entry of a batch search.
type BatchQuery struct {
	Query   string         `json:"query"`
	Limit   *int           `json:"limit,omitempty"`
	Filters filter.Filters `json:"filters"`
}

// BatchSearchRequest is the body of POST /api/v1/search/batch.
type BatchSearchRequest struct {
	Queries []BatchQuery `json:"queries"`
}

// BatchResultItem is one query's outcome. Exactly one of Response and Error is set.
type BatchResultItem struct {
	Query    string             `json:"query"`
	Response *response.Response `json:"response,omitempty"`
	Error    *ErrorResponse     `json:"error,omitempty"`
}

// BatchSearchResponse keeps results in request order.
type BatchSearchResponse struct {
	Results []BatchResultItem `json:"results"`
}

// LandscapeRequest is the body of POST /api/v1/analytics/landscape.
type LandscapeRequest struct {
	Query   string         `json:"query"`
	Filters filter.Filters `json:"filters"`
}

// StartJobResponse is returned when a bulk indexing job is accepted.
type StartJobResponse struct {
	JobID string `json:"jobId"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status  healthuc.Status                 `json:"status"`
	Checks  map[string]healthuc.CheckResult `json:"checks"`
	Version string                          `json:"version"`
}
