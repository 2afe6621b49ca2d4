package chi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/kailas-cloud/patentsearch/internal/auth"
	"github.com/kailas-cloud/patentsearch/internal/metrics"
)

// RouterOptions configure the middleware stack. Nil fields disable the concern.
type RouterOptions struct {
	Verifier auth.Verifier
	Limiter  RateLimiter
}

// NewRouter wires the middleware stack in front of the server's routes:
// recoverer, request id, canonical log line, auth, rate limit, metrics.
func NewRouter(s *Server, opts RouterOptions) http.Handler {
	r := chi.NewRouter()
	r.Use(JSONRecoverer(s.logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(WideEventMiddleware(s.logger))
	r.Use(BearerAuthMiddleware(opts.Verifier))
	r.Use(RateLimitMiddleware(opts.Limiter))
	r.Use(metrics.Middleware())
	s.Mount(r)
	return r
}
