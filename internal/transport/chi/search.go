package chi

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/kailas-cloud/patentsearch/internal/domain"
	"github.com/kailas-cloud/patentsearch/internal/domain/search/request"
	searchuc "github.com/kailas-cloud/patentsearch/internal/usecase/search"
)

// SemanticSearch handles POST /api/v1/search/semantic.
func (s *Server) SemanticSearch(w http.ResponseWriter, r *http.Request) {
	var body SearchRequest
	if !decodeJSON(w, r, &body, false) {
		return
	}

	limit, ok := explicitLimit(w, body.Limit)
	if !ok {
		return
	}

	req, err := request.New(body.Query, body.SearchType, body.Filters, limit, body.MinSimilarity)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	resp, err := s.search.Search(ctx, &req)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	setEmbeddingHeaders(w, usage)
	writeJSON(w, http.StatusOK, resp)
}

// RelatedPatents handles GET /api/v1/search/related/{patentId}.
func (s *Server) RelatedPatents(w http.ResponseWriter, r *http.Request) {
	related, err := s.search.Related(r.Context(), chi.URLParam(r, "patentId"))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, related)
}

// QuickSearch handles POST /api/v1/search/quick.
func (s *Server) QuickSearch(w http.ResponseWriter, r *http.Request) {
	var body QuickSearchRequest
	if !decodeJSON(w, r, &body, false) {
		return
	}
	resp, err := s.search.Quick(r.Context(), body.Query)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Suggestions handles GET /api/v1/search/suggestions?q=.
func (s *Server) Suggestions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, SuggestionsResponse{Suggestions: searchuc.Suggest(r.URL.Query().Get("q"))})
}

// BatchSearch handles POST /api/v1/search/batch.
func (s *Server) BatchSearch(w http.ResponseWriter, r *http.Request) {
	var body BatchSearchRequest
	if !decodeJSON(w, r, &body, false) {
		return
	}

	queries := make([]searchuc.BatchQuery, len(body.Queries))
	for i, q := range body.Queries {
		limit, ok := explicitLimit(w, q.Limit)
		if !ok {
			return
		}
		queries[i] = searchuc.BatchQuery{Query: q.Query, Limit: limit, Filters: q.Filters}
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	results, err := s.search.Batch(ctx, queries)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	setEmbeddingHeaders(w, usage)

	items := make([]BatchResultItem, len(results))
	for i := range results {
		items[i] = batchResultToDTO(&results[i])
	}
	writeJSON(w, http.StatusOK, BatchSearchResponse{Results: items})
}

func batchResultToDTO(r *searchuc.BatchResult) BatchResultItem {
	item := BatchResultItem{Query: r.Query, Response: r.Response}
	if r.Err != nil {
		_, code := errorCode(r.Err)
		item.Response = nil
		item.Error = &ErrorResponse{Code: code, Message: safeDomainMessage(r.Err)}
	}
	return item
}

// explicitLimit maps an optional JSON limit to the request limit. An absent
// limit means "default"; an explicit zero is rejected.
func explicitLimit(w http.ResponseWriter, limit *int) (int, bool) {
	if limit == nil {
		return 0, true
	}
	if *limit < 1 || *limit > request.MaxLimit {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "validation failed: limit: must be between 1 and 100")
		return 0, false
	}
	return *limit, true
}

// setEmbeddingHeaders reports the tokens spent embedding the query. Absent
// when no embedding call was made (keyword mode, lexical fallback).
func setEmbeddingHeaders(w http.ResponseWriter, usage *domain.EmbeddingUsage) {
	if usage.Used() {
		w.Header().Set("X-Embedding-Tokens", strconv.Itoa(usage.TotalTokens()))
	}
}
