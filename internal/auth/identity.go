// Package auth verifies bearer tokens against static API keys and an OAuth2
// token introspection endpoint, and carries the resulting identity in the
// request context.
package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/kailas-cloud/patentsearch/internal/domain"
)

// Roles understood by the API.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// ErrProviderUnavailable signals that the identity provider could not answer.
var ErrProviderUnavailable = errors.New("identity provider unavailable")

// Identity is the verified caller. It is used for logging and rate limiting only.
type Identity struct {
	Subject string
	Role    string
}

// HasRole reports whether the identity carries role.
func (i Identity) HasRole(role string) bool { return i.Role == role }

// Verifier resolves a bearer token into an Identity.
// Unknown or inactive tokens return domain.ErrUnauthorized.
type Verifier interface {
	Verify(ctx context.Context, token string) (Identity, error)
}

type ctxKey struct{}

// ContextWithIdentity stores id in ctx.
func ContextWithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext returns the identity stored by the auth middleware.
func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(ctxKey{}).(Identity)
	return id, ok
}

// Chain tries each verifier in order and returns the first identity found.
// When none accepts the token, a provider failure wins over ErrUnauthorized.
type Chain []Verifier

// Verify implements Verifier.
func (c Chain) Verify(ctx context.Context, token string) (Identity, error) {
	var providerErr error
	for _, v := range c {
		id, err := v.Verify(ctx, token)
		if err == nil {
			return id, nil
		}
		if !errors.Is(err, domain.ErrUnauthorized) && providerErr == nil {
			providerErr = err
		}
	}
	if providerErr != nil {
		return Identity{}, providerErr
	}
	return Identity{}, fmt.Errorf("%w: unknown token", domain.ErrUnauthorized)
}
