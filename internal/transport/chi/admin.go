package chi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	indexinguc "github.com/kailas-cloud/patentsearch/internal/usecase/indexing"
)

// StartIndexJob handles POST /api/v1/admin/index/jobs. An empty body starts a default job.
func (s *Server) StartIndexJob(w http.ResponseWriter, r *http.Request) {
	var job indexinguc.Job
	if !decodeJSON(w, r, &job, true) {
		return
	}
	id, err := s.indexer.Start(job)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	w.Header().Set("Location", "/api/v1/admin/index/jobs/"+id)
	writeJSON(w, http.StatusAccepted, StartJobResponse{JobID: id})
}

// GetIndexJob handles GET /api/v1/admin/index/jobs/{jobId}.
func (s *Server) GetIndexJob(w http.ResponseWriter, r *http.Request) {
	st, err := s.indexer.Status(chi.URLParam(r, "jobId"))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// CancelIndexJob handles DELETE /api/v1/admin/index/jobs/{jobId}.
func (s *Server) CancelIndexJob(w http.ResponseWriter, r *http.Request) {
	if err := s.indexer.Cancel(chi.URLParam(r, "jobId")); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// IndexStatus handles GET /api/v1/admin/index/status.
func (s *Server) IndexStatus(w http.ResponseWriter, r *http.Request) {
	st, err := s.index.Status(r.Context())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// CreateIndex handles POST /api/v1/admin/index. Creating an existing index is a no-op.
func (s *Server) CreateIndex(w http.ResponseWriter, r *http.Request) {
	if err := s.index.CreateIndex(r.Context()); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	st, err := s.index.Status(r.Context())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, st)
}

// DeleteIndex handles DELETE /api/v1/admin/index.
func (s *Server) DeleteIndex(w http.ResponseWriter, r *http.Request) {
	if err := s.index.DeleteIndex(r.Context()); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
