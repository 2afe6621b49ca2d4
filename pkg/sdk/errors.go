package patentsearch

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/kailas-cloud/patentsearch/internal/auth"
	"github.com/kailas-cloud/patentsearch/internal/domain"
)

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check an *APIError against them.
var (
	ErrValidation             = domain.ErrValidation
	ErrNotFound               = domain.ErrNotFound
	ErrUnauthorized           = domain.ErrUnauthorized
	ErrForbidden              = domain.ErrForbidden
	ErrRateLimited            = domain.ErrRateLimited
	ErrLexicalUnavailable     = domain.ErrLexicalUnavailable
	ErrVectorUnavailable      = domain.ErrVectorUnavailable
	ErrEmbeddingProviderError = domain.ErrEmbeddingProviderError
	ErrIdentityUnavailable    = auth.ErrProviderUnavailable
	ErrTimeout                = errors.New("request timed out")
)

// codeSentinels maps API error codes to sentinel errors.
var codeSentinels = map[string]error{
	"bad_request":                   ErrValidation,
	"validation_failed":             ErrValidation,
	"not_found":                     ErrNotFound,
	"unauthorized":                  ErrUnauthorized,
	"forbidden":                     ErrForbidden,
	"rate_limited":                  ErrRateLimited,
	"lexical_backend_unavailable":   ErrLexicalUnavailable,
	"vector_backend_unavailable":    ErrVectorUnavailable,
	"embedding_provider_error":      ErrEmbeddingProviderError,
	"identity_provider_unavailable": ErrIdentityUnavailable,
	"timeout":                       ErrTimeout,
}

// APIError is a non-2xx answer from the API.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	// RetryAfter is set on rate-limited responses.
	RetryAfter time.Duration
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("patentsearch: HTTP %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("patentsearch: %s (HTTP %d): %s", e.Code, e.StatusCode, e.Message)
}

// Is matches the sentinel error for the API error code.
func (e *APIError) Is(target error) bool {
	s, ok := codeSentinels[e.Code]
	return ok && s == target
}

func retryAfter(h http.Header) time.Duration {
	secs, err := strconv.Atoi(h.Get("Retry-After"))
	if err != nil || secs < 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}
