package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation signals malformed client input, rejected before any backend call.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrUnauthorized signals a missing or invalid bearer token.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden signals a valid identity without the required role.
	ErrForbidden = errors.New("forbidden")
	// ErrRateLimited signals a rate limit hit.
	ErrRateLimited = errors.New("rate limited")

	// ErrLexicalUnavailable signals a warehouse failure (lexical-backend-unavailable).
	ErrLexicalUnavailable = errors.New("lexical backend unavailable")
	// ErrVectorUnavailable signals a vector index or embedding failure (vector-backend-unavailable).
	ErrVectorUnavailable = errors.New("vector backend unavailable")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrIndexNotReady signals that the vector index does not exist yet.
	ErrIndexNotReady = errors.New("vector index not ready")

	// ErrMalformedRecord signals a backend row without a publication number.
	ErrMalformedRecord = errors.New("malformed patent record")
)

// ValidationError carries the offending field alongside ErrValidation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrValidation.Error(), e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError creates a validation error for a named input field.
func NewValidationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// IsSoftFailure reports whether err is absorbed by fallback inside the orchestrator.
func IsSoftFailure(err error) bool {
	return errors.Is(err, ErrVectorUnavailable) || errors.Is(err, ErrEmbeddingProviderError)
}
