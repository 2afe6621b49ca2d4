package chi

import (
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/patentsearch/internal/auth"
	"github.com/kailas-cloud/patentsearch/internal/domain"
	logpkg "github.com/kailas-cloud/patentsearch/internal/logger"
)

// anonymousSubject identifies callers when authentication is disabled.
const anonymousSubject = "anonymous"

// exemptPaths are routes that bypass authentication and rate limiting (health, metrics).
var exemptPaths = map[string]struct{}{
	"/health":  {},
	"/metrics": {},
}

// BearerAuthMiddleware returns a middleware that verifies Bearer tokens and
// stores the caller identity in the request context.
// If verifier is nil, authentication is disabled and callers are anonymous users.
func BearerAuthMiddleware(verifier auth.Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := exemptPaths[r.URL.Path]; ok {
				next.ServeHTTP(w, r)
				return
			}

			if verifier == nil {
				ctx := auth.ContextWithIdentity(r.Context(), auth.Identity{Subject: anonymousSubject, Role: auth.RoleUser})
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			header := r.Header.Get("Authorization")
			if header == "" {
				writeError(w, http.StatusUnauthorized, CodeUnauthorized, "missing authorization header")
				return
			}

			const bearerPrefix = "Bearer "
			if !strings.HasPrefix(header, bearerPrefix) {
				writeError(w, http.StatusUnauthorized, CodeUnauthorized, "authorization header must use Bearer scheme")
				return
			}

			id, err := verifier.Verify(r.Context(), strings.TrimSpace(header[len(bearerPrefix):]))
			if err != nil {
				if errors.Is(err, domain.ErrUnauthorized) {
					writeError(w, http.StatusUnauthorized, CodeUnauthorized, "invalid token")
					return
				}
				logpkg.FromContext(r.Context()).Warn("token verification failed", zap.Error(err))
				writeError(w, http.StatusServiceUnavailable, CodeIdentityProviderUnavailable, "identity provider unavailable")
				return
			}

			ctx := auth.ContextWithIdentity(r.Context(), id)
			annotateSubject(ctx, id.Subject)
			ctx = logpkg.ContextWithLogger(ctx, logpkg.FromContext(ctx).With(zap.String("subject", id.Subject)))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole rejects callers whose identity lacks role.
func RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := auth.FromContext(r.Context())
			if !ok {
				writeError(w, http.StatusUnauthorized, CodeUnauthorized, "authentication required")
				return
			}
			if !id.HasRole(role) {
				writeError(w, http.StatusForbidden, CodeForbidden, "role "+role+" required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
