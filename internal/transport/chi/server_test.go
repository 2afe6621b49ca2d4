package chi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/patentsearch/internal/auth"
	"github.com/kailas-cloud/patentsearch/internal/domain"
	"github.com/kailas-cloud/patentsearch/internal/domain/analytics"
	"github.com/kailas-cloud/patentsearch/internal/domain/patent"
	"github.com/kailas-cloud/patentsearch/internal/domain/search/filter"
	"github.com/kailas-cloud/patentsearch/internal/domain/search/mode"
	"github.com/kailas-cloud/patentsearch/internal/domain/search/request"
	"github.com/kailas-cloud/patentsearch/internal/domain/search/response"
	domvec "github.com/kailas-cloud/patentsearch/internal/domain/vector"
	healthuc "github.com/kailas-cloud/patentsearch/internal/usecase/health"
	indexinguc "github.com/kailas-cloud/patentsearch/internal/usecase/indexing"
	searchuc "github.com/kailas-cloud/patentsearch/internal/usecase/search"
)

// --- fakes ---

type fakeSearcher struct {
	lastReq     *request.Request
	resp        response.Response
	err         error
	related     response.Related
	lastQuick   string
	batchIn     []searchuc.BatchQuery
	batchOut    []searchuc.BatchResult
	searchCalls int
	tokens      int
}

func (f *fakeSearcher) Search(ctx context.Context, req *request.Request) (response.Response, error) {
	f.searchCalls++
	f.lastReq = req
	if f.tokens > 0 {
		domain.UsageFromContext(ctx).AddTokens(f.tokens)
	}
	return f.resp, f.err
}

func (f *fakeSearcher) Related(_ context.Context, id string) (response.Related, error) {
	if f.err != nil {
		return response.Related{}, f.err
	}
	r := f.related
	r.PatentID = id
	return r, nil
}

func (f *fakeSearcher) Quick(_ context.Context, q string) (response.Response, error) {
	f.lastQuick = q
	return f.resp, f.err
}

func (f *fakeSearcher) Batch(_ context.Context, qs []searchuc.BatchQuery) ([]searchuc.BatchResult, error) {
	f.batchIn = qs
	return f.batchOut, f.err
}

type fakeLandscaper struct {
	land      analytics.Landscape
	err       error
	lastQuery string
}

func (f *fakeLandscaper) Generate(_ context.Context, q string, _ filter.Filters) (analytics.Landscape, error) {
	f.lastQuery = q
	return f.land, f.err
}

type fakeCorpus struct {
	records     map[string]patent.Record
	stats       analytics.Statistics
	err         error
	lastFilters filter.Filters
}

func (f *fakeCorpus) GetByIDs(_ context.Context, ids []string) ([]patent.Record, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []patent.Record
	for _, id := range ids {
		if r, ok := f.records[id]; ok {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeCorpus) GetStatistics(_ context.Context, fl filter.Filters) (analytics.Statistics, error) {
	f.lastFilters = fl
	return f.stats, f.err
}

type fakeIndexer struct {
	lastJob  indexinguc.Job
	startErr error
	status   map[string]indexinguc.Status
	canceled []string
}

func (f *fakeIndexer) Start(job indexinguc.Job) (string, error) {
	f.lastJob = job
	if f.startErr != nil {
		return "", f.startErr
	}
	return "job-1", nil
}

func (f *fakeIndexer) Status(id string) (indexinguc.Status, error) {
	st, ok := f.status[id]
	if !ok {
		return indexinguc.Status{}, fmt.Errorf("indexing job %s: %w", id, domain.ErrNotFound)
	}
	return st, nil
}

func (f *fakeIndexer) Cancel(id string) error {
	if _, ok := f.status[id]; !ok {
		return domain.ErrNotFound
	}
	f.canceled = append(f.canceled, id)
	return nil
}

type fakeIndexAdmin struct {
	st      domvec.Status
	err     error
	created int
	deleted int
}

func (f *fakeIndexAdmin) Status(context.Context) (domvec.Status, error) { return f.st, f.err }

func (f *fakeIndexAdmin) CreateIndex(context.Context) error {
	if f.err != nil {
		return f.err
	}
	f.created++
	f.st = domvec.Status{Exists: true, Ready: true}
	return nil
}

func (f *fakeIndexAdmin) DeleteIndex(context.Context) error {
	f.deleted++
	return f.err
}

type fakeHealth struct{ report healthuc.Report }

func (f fakeHealth) Check(context.Context) healthuc.Report { return f.report }

type testEnv struct {
	search    *fakeSearcher
	landscape *fakeLandscaper
	corpus    *fakeCorpus
	indexer   *fakeIndexer
	index     *fakeIndexAdmin
	health    *fakeHealth
	handler   http.Handler
}

func newTestEnv(verifier auth.Verifier) *testEnv {
	e := &testEnv{
		search:    &fakeSearcher{},
		landscape: &fakeLandscaper{},
		corpus:    &fakeCorpus{records: map[string]patent.Record{}},
		indexer:   &fakeIndexer{status: map[string]indexinguc.Status{}},
		index:     &fakeIndexAdmin{},
		health:    &fakeHealth{report: healthuc.Report{Status: healthuc.Healthy, Checks: map[string]healthuc.CheckResult{}}},
	}
	srv := NewServer(e.search, e.landscape, e.corpus, e.indexer, e.index, e.health, zap.NewNop())
	e.handler = NewRouter(srv, RouterOptions{Verifier: verifier})
	return e
}

func (e *testEnv) do(method, path, body string, token string) *httptest.ResponseRecorder {
	var rd *bytes.Reader
	if body == "" {
		rd = bytes.NewReader(nil)
	} else {
		rd = bytes.NewReader([]byte(body))
	}
	req := httptest.NewRequest(method, path, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	e.handler.ServeHTTP(rr, req)
	return rr
}

func decodeBody[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rr.Body).Decode(&v); err != nil {
		t.Fatalf("decode body: %v (body %q)", err, rr.Body.String())
	}
	return v
}

// --- search ---

func TestSemanticSearch_Defaults(t *testing.T) {
	e := newTestEnv(nil)
	e.search.resp = response.Response{Results: []patent.Record{{ID: "US1"}}, TotalResults: 1}

	rr := e.do("POST", "/api/v1/search/semantic", `{"query":"  solid state battery "}`, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, body %s", rr.Code, rr.Body.String())
	}
	req := e.search.lastReq
	if req.Query() != "solid state battery" || req.Mode() != mode.Hybrid || req.Limit() != request.DefaultLimit {
		t.Errorf("request: query %q mode %s limit %d", req.Query(), req.Mode(), req.Limit())
	}
	if got := req.MinSimilarityOr(0.42); got != 0.42 {
		t.Errorf("minSimilarity: got %v, want service default", got)
	}
	resp := decodeBody[response.Response](t, rr)
	if resp.TotalResults != 1 || resp.Results[0].ID != "US1" {
		t.Errorf("response: %+v", resp)
	}
}

func TestSemanticSearch_EmbeddingTokensHeader(t *testing.T) {
	e := newTestEnv(nil)
	e.search.tokens = 17

	rr := e.do("POST", "/api/v1/search/semantic", `{"query":"lidar"}`, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d", rr.Code)
	}
	if got := rr.Header().Get("X-Embedding-Tokens"); got != "17" {
		t.Errorf("X-Embedding-Tokens: got %q, want 17", got)
	}

	e.search.tokens = 0
	rr = e.do("POST", "/api/v1/search/semantic", `{"query":"lidar","searchType":"keyword"}`, "")
	if got := rr.Header().Get("X-Embedding-Tokens"); got != "" {
		t.Errorf("keyword search must not report tokens, got %q", got)
	}
}

func TestSemanticSearch_FullRequest(t *testing.T) {
	e := newTestEnv(nil)
	body := `{"query":"lidar","searchType":"semantic","limit":5,"minSimilarity":0.8,
		"filters":{"countries":["us"],"dateRange":{"start":"2020-01-01"}}}`

	rr := e.do("POST", "/api/v1/search/semantic", body, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, body %s", rr.Code, rr.Body.String())
	}
	req := e.search.lastReq
	if req.Mode() != mode.Semantic || req.Limit() != 5 || req.MinSimilarityOr(0) != 0.8 {
		t.Errorf("request: mode %s limit %d", req.Mode(), req.Limit())
	}
	if f := req.Filters(); len(f.CountryCodes) != 1 || f.CountryCodes[0] != "US" || f.DateRange.Start != "2020-01-01" {
		t.Errorf("filters: %+v", f)
	}
}

func TestSemanticSearch_Validation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty query", `{"query":"   "}`},
		{"zero limit", `{"query":"x","limit":0}`},
		{"limit too high", `{"query":"x","limit":101}`},
		{"bad mode", `{"query":"x","searchType":"fuzzy"}`},
		{"similarity out of range", `{"query":"x","minSimilarity":1.5}`},
		{"bad date", `{"query":"x","filters":{"dateRange":{"start":"2020/01/01"}}}`},
		{"query too long", `{"query":"` + strings.Repeat("a", request.MaxQueryLength+1) + `"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEnv(nil)
			rr := e.do("POST", "/api/v1/search/semantic", tt.body, "")
			if rr.Code != http.StatusBadRequest {
				t.Fatalf("status: got %d, want 400", rr.Code)
			}
			if errResp := decodeError(t, rr); errResp.Code != CodeValidationFailed {
				t.Errorf("code: got %s", errResp.Code)
			}
			if e.search.searchCalls != 0 {
				t.Error("backend must not be called for invalid input")
			}
		})
	}
}

func TestSemanticSearch_MalformedBody(t *testing.T) {
	e := newTestEnv(nil)
	rr := e.do("POST", "/api/v1/search/semantic", `{"query":`, "")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d", rr.Code)
	}
	if errResp := decodeError(t, rr); errResp.Code != CodeBadRequest {
		t.Errorf("code: got %s", errResp.Code)
	}
}

func TestSemanticSearch_BackendErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   ErrorCode
	}{
		{"lexical down", fmt.Errorf("%w: keyword: dial tcp", domain.ErrLexicalUnavailable), 503, CodeLexicalBackendUnavailable},
		{"vector down", fmt.Errorf("%w: %w", domain.ErrVectorUnavailable, domain.ErrEmbeddingProviderError), 503, CodeVectorBackendUnavailable},
		{"provider", domain.ErrEmbeddingProviderError, 502, CodeEmbeddingProviderError},
		{"timeout", fmt.Errorf("search: %w", context.DeadlineExceeded), 504, CodeTimeout},
		{"malformed record", fmt.Errorf("normalize: %w", domain.ErrMalformedRecord), 500, CodeInternalError},
		{"unknown", errors.New("boom"), 500, CodeInternalError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEnv(nil)
			e.search.err = tt.err
			rr := e.do("POST", "/api/v1/search/semantic", `{"query":"x"}`, "")
			if rr.Code != tt.status {
				t.Fatalf("status: got %d, want %d", rr.Code, tt.status)
			}
			errResp := decodeError(t, rr)
			if errResp.Code != tt.code {
				t.Errorf("code: got %s, want %s", errResp.Code, tt.code)
			}
			if strings.Contains(errResp.Message, "dial tcp") {
				t.Errorf("message leaks internals: %q", errResp.Message)
			}
		})
	}
}

func TestRelatedPatents(t *testing.T) {
	e := newTestEnv(nil)
	e.search.related = response.NewRelated("", []patent.Record{{ID: "US2"}}, nil, nil)

	rr := e.do("GET", "/api/v1/search/related/US1", "", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d", rr.Code)
	}
	got := decodeBody[response.Related](t, rr)
	if got.PatentID != "US1" || got.Counts.Citing != 1 || got.Cited == nil {
		t.Errorf("related: %+v", got)
	}

	e.search.err = fmt.Errorf("patent US9: %w", domain.ErrNotFound)
	if rr := e.do("GET", "/api/v1/search/related/US9", "", ""); rr.Code != http.StatusNotFound {
		t.Errorf("missing patent: got %d, want 404", rr.Code)
	}
}

func TestQuickSearch(t *testing.T) {
	e := newTestEnv(nil)
	rr := e.do("POST", "/api/v1/search/quick", `{"query":"drone"}`, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d", rr.Code)
	}
	if e.search.lastQuick != "drone" {
		t.Errorf("quick query: got %q", e.search.lastQuick)
	}
}

func TestSuggestions(t *testing.T) {
	e := newTestEnv(nil)

	got := decodeBody[SuggestionsResponse](t, e.do("GET", "/api/v1/search/suggestions?q=BATT", "", ""))
	if len(got.Suggestions) == 0 {
		t.Fatal("expected suggestions for batt")
	}
	for _, s := range got.Suggestions {
		if !strings.Contains(s, "batt") {
			t.Errorf("suggestion %q does not contain batt", s)
		}
	}

	short := decodeBody[SuggestionsResponse](t, e.do("GET", "/api/v1/search/suggestions?q=b", "", ""))
	if short.Suggestions == nil || len(short.Suggestions) != 0 {
		t.Errorf("short prefix: got %v, want empty list", short.Suggestions)
	}
}

func TestBatchSearch(t *testing.T) {
	e := newTestEnv(nil)
	ok := response.Response{Results: []patent.Record{}, Metadata: response.Metadata{FiltersApplied: []string{}}}
	e.search.batchOut = []searchuc.BatchResult{
		{Query: "a", Response: &ok},
		{Query: "", Err: domain.NewValidationError("query", "is required")},
		{Query: "c", Err: fmt.Errorf("%w: boom", domain.ErrLexicalUnavailable)},
	}

	rr := e.do("POST", "/api/v1/search/batch",
		`{"queries":[{"query":"a","limit":5},{"query":""},{"query":"c","filters":{"countries":["DE"]}}]}`, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, body %s", rr.Code, rr.Body.String())
	}
	if len(e.search.batchIn) != 3 || e.search.batchIn[0].Limit != 5 || e.search.batchIn[1].Limit != 0 {
		t.Errorf("batch input: %+v", e.search.batchIn)
	}

	got := decodeBody[BatchSearchResponse](t, rr)
	if len(got.Results) != 3 {
		t.Fatalf("results: got %d", len(got.Results))
	}
	if got.Results[0].Response == nil || got.Results[0].Error != nil {
		t.Errorf("item 0: %+v", got.Results[0])
	}
	if got.Results[1].Error == nil || got.Results[1].Error.Code != CodeValidationFailed {
		t.Errorf("item 1: %+v", got.Results[1])
	}
	if got.Results[2].Error == nil || got.Results[2].Error.Code != CodeLexicalBackendUnavailable {
		t.Errorf("item 2: %+v", got.Results[2])
	}
}

func TestBatchSearch_ItemCodesMatchTopLevel(t *testing.T) {
	errs := []error{
		domain.ErrUnauthorized,
		domain.ErrForbidden,
		fmt.Errorf("quota: %w", domain.ErrRateLimited),
		fmt.Errorf("jwks: %w", auth.ErrProviderUnavailable),
		fmt.Errorf("%w: %w", domain.ErrVectorUnavailable, domain.ErrEmbeddingProviderError),
		fmt.Errorf("search: %w", context.DeadlineExceeded),
		errors.New("boom"),
	}
	for _, err := range errs {
		t.Run(err.Error(), func(t *testing.T) {
			top := newTestEnv(nil)
			top.search.err = err
			rr := top.do("POST", "/api/v1/search/semantic", `{"query":"x"}`, "")
			want := decodeError(t, rr)

			batch := newTestEnv(nil)
			batch.search.batchOut = []searchuc.BatchResult{{Query: "x", Err: err}}
			got := decodeBody[BatchSearchResponse](t, batch.do("POST", "/api/v1/search/batch", `{"queries":[{"query":"x"}]}`, ""))
			if len(got.Results) != 1 || got.Results[0].Error == nil {
				t.Fatalf("results: %+v", got.Results)
			}
			if *got.Results[0].Error != want {
				t.Errorf("batch item error %+v, top-level %+v", *got.Results[0].Error, want)
			}
		})
	}
}

func TestBatchSearch_TooMany(t *testing.T) {
	e := newTestEnv(nil)
	e.search.err = domain.NewValidationError("queries", "at most 10 queries per batch")
	rr := e.do("POST", "/api/v1/search/batch", `{"queries":[]}`, "")
	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want 400", rr.Code)
	}
}

// --- analytics ---

func TestLandscape(t *testing.T) {
	e := newTestEnv(nil)
	e.landscape.land = analytics.Landscape{Query: "ev charging", SampleSize: 3}

	rr := e.do("POST", "/api/v1/analytics/landscape", `{"query":"ev charging"}`, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d", rr.Code)
	}
	if got := decodeBody[analytics.Landscape](t, rr); got.SampleSize != 3 || e.landscape.lastQuery != "ev charging" {
		t.Errorf("landscape: %+v", got)
	}

	e.landscape.err = domain.NewValidationError("query", "is required")
	if rr := e.do("POST", "/api/v1/analytics/landscape", `{"query":""}`, ""); rr.Code != http.StatusBadRequest {
		t.Errorf("validation: got %d", rr.Code)
	}
}

func TestStatistics_FiltersFromQuery(t *testing.T) {
	e := newTestEnv(nil)
	e.corpus.stats = analytics.Statistics{TotalCount: 7}

	rr := e.do("GET",
		"/api/v1/analytics/statistics?dateFrom=2019-01-01&countries=us,de&classifications=g06n&assignee=Acme,+Inc", "", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, body %s", rr.Code, rr.Body.String())
	}
	f := e.corpus.lastFilters
	if f.DateRange == nil || f.DateRange.Start != "2019-01-01" {
		t.Errorf("date range: %+v", f.DateRange)
	}
	if strings.Join(f.CountryCodes, ",") != "US,DE" || strings.Join(f.Classifications, ",") != "G06N" {
		t.Errorf("lists: %+v", f)
	}
	if len(f.Assignees) != 1 || f.Assignees[0] != "Acme, Inc" {
		t.Errorf("assignees: %v", f.Assignees)
	}
	if got := decodeBody[analytics.Statistics](t, rr); got.TotalCount != 7 {
		t.Errorf("stats: %+v", got)
	}
}

func TestStatistics_InvalidDate(t *testing.T) {
	e := newTestEnv(nil)
	rr := e.do("GET", "/api/v1/analytics/statistics?dateFrom=yesterday", "", "")
	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want 400", rr.Code)
	}
}

func TestGetPatent(t *testing.T) {
	e := newTestEnv(nil)
	e.corpus.records["US1"] = patent.Record{ID: "US1", Title: "Widget"}

	rr := e.do("GET", "/api/v1/patents/US1", "", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d", rr.Code)
	}
	if got := decodeBody[patent.Record](t, rr); got.Title != "Widget" {
		t.Errorf("record: %+v", got)
	}
	if rr := e.do("GET", "/api/v1/patents/US404", "", ""); rr.Code != http.StatusNotFound {
		t.Errorf("missing: got %d, want 404", rr.Code)
	}
}

// --- admin ---

func TestAdmin_RequiresAdminRole(t *testing.T) {
	e := newTestEnv(testKeys())

	if rr := e.do("GET", "/api/v1/admin/index/status", "", ""); rr.Code != http.StatusUnauthorized {
		t.Errorf("no token: got %d, want 401", rr.Code)
	}
	if rr := e.do("GET", "/api/v1/admin/index/status", "", "secret"); rr.Code != http.StatusForbidden {
		t.Errorf("user token: got %d, want 403", rr.Code)
	}
	if rr := e.do("GET", "/api/v1/admin/index/status", "", "root"); rr.Code != http.StatusOK {
		t.Errorf("admin token: got %d, want 200", rr.Code)
	}
}

func TestAdmin_AnonymousIsNotAdmin(t *testing.T) {
	e := newTestEnv(nil)
	if rr := e.do("POST", "/api/v1/admin/index", "", ""); rr.Code != http.StatusForbidden {
		t.Errorf("anonymous: got %d, want 403", rr.Code)
	}
}

func TestAdmin_IndexJobs(t *testing.T) {
	e := newTestEnv(testKeys())

	rr := e.do("POST", "/api/v1/admin/index/jobs", `{"batchSize":50,"filters":{"countries":["US"]}}`, "root")
	if rr.Code != http.StatusAccepted {
		t.Fatalf("start: got %d, body %s", rr.Code, rr.Body.String())
	}
	if got := decodeBody[StartJobResponse](t, rr); got.JobID != "job-1" {
		t.Errorf("job id: %q", got.JobID)
	}
	if rr.Header().Get("Location") != "/api/v1/admin/index/jobs/job-1" {
		t.Errorf("location: %q", rr.Header().Get("Location"))
	}
	if e.indexer.lastJob.BatchSize != 50 || e.indexer.lastJob.Filters.CountryCodes[0] != "US" {
		t.Errorf("job: %+v", e.indexer.lastJob)
	}

	// Empty body starts a default job.
	if rr := e.do("POST", "/api/v1/admin/index/jobs", "", "root"); rr.Code != http.StatusAccepted {
		t.Errorf("empty body: got %d", rr.Code)
	}

	e.indexer.status["job-1"] = indexinguc.Status{ID: "job-1", State: indexinguc.StateRunning}
	rr = e.do("GET", "/api/v1/admin/index/jobs/job-1", "", "root")
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d", rr.Code)
	}
	if got := decodeBody[indexinguc.Status](t, rr); got.State != indexinguc.StateRunning {
		t.Errorf("state: %s", got.State)
	}
	if rr := e.do("GET", "/api/v1/admin/index/jobs/nope", "", "root"); rr.Code != http.StatusNotFound {
		t.Errorf("unknown job: got %d", rr.Code)
	}

	if rr := e.do("DELETE", "/api/v1/admin/index/jobs/job-1", "", "root"); rr.Code != http.StatusNoContent {
		t.Errorf("cancel: got %d", rr.Code)
	}
	if len(e.indexer.canceled) != 1 {
		t.Errorf("canceled: %v", e.indexer.canceled)
	}
}

func TestAdmin_StartJobValidation(t *testing.T) {
	e := newTestEnv(testKeys())
	e.indexer.startErr = domain.NewValidationError("batchSize", "must be between 1 and 1000")
	rr := e.do("POST", "/api/v1/admin/index/jobs", `{"batchSize":5000}`, "root")
	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want 400", rr.Code)
	}
}

func TestAdmin_IndexLifecycle(t *testing.T) {
	e := newTestEnv(testKeys())

	rr := e.do("POST", "/api/v1/admin/index", "", "root")
	if rr.Code != http.StatusCreated {
		t.Fatalf("create: got %d", rr.Code)
	}
	if got := decodeBody[domvec.Status](t, rr); !got.Exists {
		t.Errorf("status after create: %+v", got)
	}
	if rr := e.do("DELETE", "/api/v1/admin/index", "", "root"); rr.Code != http.StatusNoContent {
		t.Errorf("delete: got %d", rr.Code)
	}
	if e.index.created != 1 || e.index.deleted != 1 {
		t.Errorf("calls: created %d deleted %d", e.index.created, e.index.deleted)
	}

	e.index.err = fmt.Errorf("%w: info: connection refused", domain.ErrVectorUnavailable)
	if rr := e.do("GET", "/api/v1/admin/index/status", "", "root"); rr.Code != http.StatusServiceUnavailable {
		t.Errorf("status with vector down: got %d", rr.Code)
	}
}

// --- health, metrics, routing ---

func TestHealth_AlwaysOK(t *testing.T) {
	for _, st := range []healthuc.Status{healthuc.Healthy, healthuc.Degraded, healthuc.Unhealthy} {
		e := newTestEnv(testKeys())
		e.health.report = healthuc.Report{
			Status: st,
			Checks: map[string]healthuc.CheckResult{healthuc.ComponentWarehouse: healthuc.CheckOK},
		}
		rr := e.do("GET", "/health", "", "")
		if rr.Code != http.StatusOK {
			t.Errorf("%s: got %d, want 200", st, rr.Code)
		}
		got := decodeBody[HealthResponse](t, rr)
		if got.Status != st || got.Checks[healthuc.ComponentWarehouse] != healthuc.CheckOK {
			t.Errorf("%s: body %+v", st, got)
		}
	}
}

func TestMetricsEndpoint_NoAuth(t *testing.T) {
	e := newTestEnv(testKeys())
	if rr := e.do("GET", "/metrics", "", ""); rr.Code != http.StatusOK {
		t.Errorf("metrics: got %d, want 200", rr.Code)
	}
}

func TestUnknownRoute_JSON404(t *testing.T) {
	e := newTestEnv(nil)
	rr := e.do("GET", "/api/v1/nope", "", "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status: got %d", rr.Code)
	}
	if errResp := decodeError(t, rr); errResp.Code != CodeNotFound {
		t.Errorf("code: got %s", errResp.Code)
	}
}
