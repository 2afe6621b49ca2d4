package chi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/patentsearch/internal/auth"
	"github.com/kailas-cloud/patentsearch/internal/domain"
	"github.com/kailas-cloud/patentsearch/internal/domain/analytics"
	"github.com/kailas-cloud/patentsearch/internal/domain/patent"
	"github.com/kailas-cloud/patentsearch/internal/domain/search/filter"
	"github.com/kailas-cloud/patentsearch/internal/domain/search/request"
	"github.com/kailas-cloud/patentsearch/internal/domain/search/response"
	domvec "github.com/kailas-cloud/patentsearch/internal/domain/vector"
	logpkg "github.com/kailas-cloud/patentsearch/internal/logger"
	healthuc "github.com/kailas-cloud/patentsearch/internal/usecase/health"
	indexinguc "github.com/kailas-cloud/patentsearch/internal/usecase/indexing"
	searchuc "github.com/kailas-cloud/patentsearch/internal/usecase/search"
	"github.com/kailas-cloud/patentsearch/internal/version"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

// Searcher runs the search endpoints.
type Searcher interface {
	Search(ctx context.Context, req *request.Request) (response.Response, error)
	Related(ctx context.Context, id string) (response.Related, error)
	Quick(ctx context.Context, query string) (response.Response, error)
	Batch(ctx context.Context, queries []searchuc.BatchQuery) ([]searchuc.BatchResult, error)
}

// Landscaper builds landscape reports.
type Landscaper interface {
	Generate(ctx context.Context, query string, f filter.Filters) (analytics.Landscape, error)
}

// Corpus serves direct warehouse reads.
type Corpus interface {
	GetByIDs(ctx context.Context, ids []string) ([]patent.Record, error)
	GetStatistics(ctx context.Context, f filter.Filters) (analytics.Statistics, error)
}

// Indexer manages background indexing jobs.
type Indexer interface {
	Start(job indexinguc.Job) (string, error)
	Status(id string) (indexinguc.Status, error)
	Cancel(id string) error
}

// IndexAdmin manages the vector index lifecycle.
type IndexAdmin interface {
	Status(ctx context.Context) (domvec.Status, error)
	CreateIndex(ctx context.Context) error
	DeleteIndex(ctx context.Context) error
}

// HealthChecker reports component health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// errorMapping ties a sentinel to its HTTP status and response code.
type errorMapping struct {
	sentinel error
	status   int
	code     ErrorCode
}

// errorMappings is checked in order: vector errors wrap provider errors and
// index-not-ready.
var errorMappings = []errorMapping{
	{domain.ErrValidation, http.StatusBadRequest, CodeValidationFailed},
	{domain.ErrNotFound, http.StatusNotFound, CodeNotFound},
	{domain.ErrUnauthorized, http.StatusUnauthorized, CodeUnauthorized},
	{domain.ErrForbidden, http.StatusForbidden, CodeForbidden},
	{domain.ErrRateLimited, http.StatusTooManyRequests, CodeRateLimited},
	{domain.ErrLexicalUnavailable, http.StatusServiceUnavailable, CodeLexicalBackendUnavailable},
	{domain.ErrVectorUnavailable, http.StatusServiceUnavailable, CodeVectorBackendUnavailable},
	{domain.ErrEmbeddingProviderError, http.StatusBadGateway, CodeEmbeddingProviderError},
	{auth.ErrProviderUnavailable, http.StatusServiceUnavailable, CodeIdentityProviderUnavailable},
	{context.DeadlineExceeded, http.StatusGatewayTimeout, CodeTimeout},
}

// Server holds the HTTP handlers of the patent search API.
type Server struct {
	search    Searcher
	landscape Landscaper
	corpus    Corpus
	indexer   Indexer
	index     IndexAdmin
	health    HealthChecker
	logger    *zap.Logger
}

// NewServer creates an HTTP API server.
func NewServer(
	search Searcher,
	landscape Landscaper,
	corpus Corpus,
	indexer Indexer,
	index IndexAdmin,
	health HealthChecker,
	logger *zap.Logger,
) *Server {
	return &Server{
		search:    search,
		landscape: landscape,
		corpus:    corpus,
		indexer:   indexer,
		index:     index,
		health:    health,
		logger:    logger,
	}
}

// Mount registers every route on r. Admin routes require the admin role.
func (s *Server) Mount(r chi.Router) {
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, CodeNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, CodeBadRequest, "method not allowed")
	})

	r.Get("/health", s.HealthCheck)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/search", func(r chi.Router) {
			r.Post("/semantic", s.SemanticSearch)
			r.Get("/related/{patentId}", s.RelatedPatents)
			r.Post("/quick", s.QuickSearch)
			r.Get("/suggestions", s.Suggestions)
			r.Post("/batch", s.BatchSearch)
		})
		r.Route("/analytics", func(r chi.Router) {
			r.Post("/landscape", s.Landscape)
			r.Get("/statistics", s.Statistics)
		})
		r.Get("/patents/{patentId}", s.GetPatent)

		r.Route("/admin", func(r chi.Router) {
			r.Use(RequireRole(auth.RoleAdmin))
			r.Post("/index/jobs", s.StartIndexJob)
			r.Get("/index/jobs/{jobId}", s.GetIndexJob)
			r.Delete("/index/jobs/{jobId}", s.CancelIndexJob)
			r.Get("/index/status", s.IndexStatus)
			r.Post("/index", s.CreateIndex)
			r.Delete("/index", s.DeleteIndex)
		})
	})
}

// HealthCheck handles GET /health. It always answers 200; degradation is in the body.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:  report.Status,
		Checks:  report.Checks,
		Version: version.Version,
	})
}

// decodeJSON reads a bounded JSON body into v. An empty body is an error unless allowEmpty.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any, allowEmpty bool) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		if allowEmpty && errors.Is(err, io.EOF) {
			return true
		}
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
// Validation errors are returned in full.
func safeDomainMessage(err error) string {
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		return ve.Error()
	}
	for _, m := range errorMappings {
		if m.sentinel != context.DeadlineExceeded && errors.Is(err, m.sentinel) {
			return m.sentinel.Error()
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "request timed out"
	}
	return "internal error"
}

// errorCode maps an error to its response code and status without writing anything.
func errorCode(err error) (int, ErrorCode) {
	for _, m := range errorMappings {
		if errors.Is(err, m.sentinel) {
			return m.status, m.code
		}
	}
	return http.StatusInternalServerError, CodeInternalError
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logpkg.FromContextOr(r.Context(), s.logger)
	status, code := errorCode(err)
	if code == CodeInternalError {
		log.Error("internal error", zap.Error(err))
		writeError(w, status, code, "internal error")
		return
	}
	log.Warn("domain error", zap.Error(err))
	writeError(w, status, code, safeDomainMessage(err))
}
