package chi

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/kailas-cloud/patentsearch/internal/domain"
	"github.com/kailas-cloud/patentsearch/internal/domain/search/filter"
)

// Landscape handles POST /api/v1/analytics/landscape.
func (s *Server) Landscape(w http.ResponseWriter, r *http.Request) {
	var body LandscapeRequest
	if !decodeJSON(w, r, &body, false) {
		return
	}
	land, err := s.landscape.Generate(r.Context(), body.Query, body.Filters)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, land)
}

// Statistics handles GET /api/v1/analytics/statistics.
// Filters come from the query string: dateFrom, dateTo, countries, classifications
// (comma-separated or repeated) and assignee (repeated).
func (s *Server) Statistics(w http.ResponseWriter, r *http.Request) {
	f, err := filtersFromQuery(r.URL.Query()).Normalize()
	if err != nil {
		s.handleDomainError(w, r, domain.NewValidationError("filters", err.Error()))
		return
	}
	stats, err := s.corpus.GetStatistics(r.Context(), f)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// GetPatent handles GET /api/v1/patents/{patentId}.
func (s *Server) GetPatent(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(chi.URLParam(r, "patentId"))
	if id == "" {
		s.handleDomainError(w, r, domain.NewValidationError("patentId", "is required"))
		return
	}
	recs, err := s.corpus.GetByIDs(r.Context(), []string{id})
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	if len(recs) == 0 {
		writeError(w, http.StatusNotFound, CodeNotFound, "patent "+id+" not found")
		return
	}
	writeJSON(w, http.StatusOK, recs[0])
}

func filtersFromQuery(q url.Values) filter.Filters {
	var f filter.Filters
	from, to := q.Get("dateFrom"), q.Get("dateTo")
	if from != "" || to != "" {
		f.DateRange = &filter.DateRange{Start: from, End: to}
	}
	f.CountryCodes = splitList(q["countries"])
	f.Classifications = splitList(q["classifications"])
	f.Assignees = q["assignee"]
	return f
}

func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		out = append(out, strings.Split(v, ",")...)
	}
	return out
}
