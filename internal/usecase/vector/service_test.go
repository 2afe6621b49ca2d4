package vector

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/patentsearch/internal/domain"
	"github.com/kailas-cloud/patentsearch/internal/domain/patent"
	"github.com/kailas-cloud/patentsearch/internal/domain/search/filter"
	domvec "github.com/kailas-cloud/patentsearch/internal/domain/vector"
)

// --- Mocks ---

type mockEmbedder struct {
	vector    []float32
	tokens    int
	err       error
	failOn    string // fail only for text containing this substring
	callCount int
	lastText  string
}

func (m *mockEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	m.callCount++
	m.lastText = text
	if m.err != nil && (m.failOn == "" || strings.Contains(text, m.failOn)) {
		return domain.EmbeddingResult{}, m.err
	}
	return domain.EmbeddingResult{Embedding: m.vector, TotalTokens: m.tokens}, nil
}

type mockIndex struct {
	upsertErr   error
	upsertSizes []int
	upserted    []string

	matches  []domvec.Match
	queryErr error
	lastTopK int

	status    domvec.Status
	statusErr error
	createErr error
	deleteErr error
}

func (m *mockIndex) Upsert(_ context.Context, entries []domvec.Entry) error {
	m.upsertSizes = append(m.upsertSizes, len(entries))
	if m.upsertErr != nil {
		return m.upsertErr
	}
	for i := range entries {
		m.upserted = append(m.upserted, entries[i].Record.ID)
	}
	return nil
}

func (m *mockIndex) Query(_ context.Context, _ domvec.Sparse, topK int, _ filter.Filters) ([]domvec.Match, error) {
	m.lastTopK = topK
	return m.matches, m.queryErr
}

func (m *mockIndex) Status(_ context.Context) (domvec.Status, error) { return m.status, m.statusErr }
func (m *mockIndex) Create(_ context.Context) error                  { return m.createErr }
func (m *mockIndex) Delete(_ context.Context) error                  { return m.deleteErr }

func newTestService(emb *mockEmbedder, idx *mockIndex) *Service {
	return New(emb, idx, Options{}, zap.NewNop())
}

func records(n int, skipEvery int) []patent.Record {
	out := make([]patent.Record, n)
	for i := range out {
		out[i] = patent.Record{ID: fmt.Sprintf("US-%d", i), Title: fmt.Sprintf("widget %d", i), Abstract: "a widget"}
		if skipEvery > 0 && i%skipEvery == 0 {
			out[i].Title = patent.DefaultTitle
			out[i].Abstract = patent.DefaultAbstract
		}
	}
	return out
}

// --- Embed ---

func TestEmbed_SparseConversion(t *testing.T) {
	emb := &mockEmbedder{vector: []float32{0, 0.5, 0, -0.25}, tokens: 7}
	svc := newTestService(emb, &mockIndex{})

	got, err := svc.Embed(context.Background(), "  solar   panel\tcooling ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if emb.lastText != "solar panel cooling" {
		t.Errorf("embedded text = %q", emb.lastText)
	}
	if fmt.Sprint(got.Vector.Indices) != "[1 3]" || fmt.Sprint(got.Vector.Values) != "[0.5 -0.25]" {
		t.Errorf("sparse = %v / %v", got.Vector.Indices, got.Vector.Values)
	}
	if got.TokenCount != 7 {
		t.Errorf("tokens = %d, want 7", got.TokenCount)
	}
}

func TestEmbed_ProviderError(t *testing.T) {
	emb := &mockEmbedder{err: domain.ErrEmbeddingProviderError}
	svc := newTestService(emb, &mockIndex{})

	_, err := svc.Embed(context.Background(), "battery")
	if !errors.Is(err, domain.ErrVectorUnavailable) {
		t.Errorf("expected ErrVectorUnavailable, got %v", err)
	}
	if !errors.Is(err, domain.ErrEmbeddingProviderError) {
		t.Errorf("expected provider error in chain, got %v", err)
	}
}

func TestEmbed_NothingLeftAfterPreprocess(t *testing.T) {
	emb := &mockEmbedder{vector: []float32{1}}
	svc := newTestService(emb, &mockIndex{})

	_, err := svc.Embed(context.Background(), "@@@ ###")
	if !errors.Is(err, domain.ErrVectorUnavailable) {
		t.Errorf("expected ErrVectorUnavailable, got %v", err)
	}
	if emb.callCount != 0 {
		t.Errorf("embedder called %d times", emb.callCount)
	}
}

// --- QuerySimilar ---

func TestQuerySimilar_CapsAtTopK(t *testing.T) {
	idx := &mockIndex{matches: []domvec.Match{
		{ID: "a", SimilarityScore: 0.9}, {ID: "b", SimilarityScore: 0.8}, {ID: "c", SimilarityScore: 0.7},
	}}
	svc := newTestService(&mockEmbedder{}, idx)

	got, err := svc.QuerySimilar(context.Background(), domvec.Sparse{}, 2, filter.Filters{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 || got[0].ID != "a" || got[1].ID != "b" {
		t.Errorf("got %+v", got)
	}
	if idx.lastTopK != 2 {
		t.Errorf("topK = %d", idx.lastTopK)
	}
}

func TestQuerySimilar_IndexError(t *testing.T) {
	idx := &mockIndex{queryErr: fmt.Errorf("%w: %w", domain.ErrVectorUnavailable, domain.ErrIndexNotReady)}
	svc := newTestService(&mockEmbedder{}, idx)

	_, err := svc.QuerySimilar(context.Background(), domvec.Sparse{}, 5, filter.Filters{})
	if !errors.Is(err, domain.ErrIndexNotReady) {
		t.Errorf("expected ErrIndexNotReady, got %v", err)
	}
}

func TestQuerySimilar_ZeroTopK(t *testing.T) {
	idx := &mockIndex{}
	svc := newTestService(&mockEmbedder{}, idx)

	got, err := svc.QuerySimilar(context.Background(), domvec.Sparse{}, 0, filter.Filters{})
	if err != nil || len(got) != 0 {
		t.Errorf("got %v, %v", got, err)
	}
	if idx.lastTopK != 0 {
		t.Error("index should not be queried")
	}
}

// --- IndexBatch ---

func TestIndexBatch_ChunksOf100(t *testing.T) {
	emb := &mockEmbedder{vector: []float32{1, 0, 0, 0}, tokens: 3}
	idx := &mockIndex{}
	svc := newTestService(emb, idx)

	sum, err := svc.IndexBatch(context.Background(), records(250, 0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fmt.Sprint(idx.upsertSizes) != "[100 100 50]" {
		t.Errorf("upsert sizes = %v", idx.upsertSizes)
	}
	if sum.Indexed != 250 || sum.Skipped != 0 || sum.Errors != 0 {
		t.Errorf("summary = %+v", sum)
	}
}

func TestIndexBatch_SkipsRecordsWithoutText(t *testing.T) {
	emb := &mockEmbedder{vector: []float32{1}}
	idx := &mockIndex{}
	svc := newTestService(emb, idx)

	// every 10th record has only placeholder text
	sum, err := svc.IndexBatch(context.Background(), records(250, 10))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sum.Skipped != 25 {
		t.Errorf("skipped = %d, want 25", sum.Skipped)
	}
	if sum.Indexed != 225 {
		t.Errorf("indexed = %d, want 225", sum.Indexed)
	}
	if fmt.Sprint(idx.upsertSizes) != "[90 90 45]" {
		t.Errorf("upsert sizes = %v", idx.upsertSizes)
	}
	if emb.callCount != 225 {
		t.Errorf("embed calls = %d, want 225", emb.callCount)
	}
}

func TestIndexBatch_EmbedErrorsDoNotAbort(t *testing.T) {
	emb := &mockEmbedder{vector: []float32{1}, err: domain.ErrEmbeddingProviderError, failOn: "widget 7"}
	idx := &mockIndex{}
	svc := newTestService(emb, idx)

	sum, err := svc.IndexBatch(context.Background(), records(10, 0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sum.Errors != 1 || sum.Indexed != 9 {
		t.Errorf("summary = %+v", sum)
	}
	if len(sum.Failures) != 1 || sum.Failures[0].ID != "US-7" {
		t.Errorf("failures = %+v", sum.Failures)
	}
}

func TestIndexBatch_UpsertErrorCountsChunk(t *testing.T) {
	emb := &mockEmbedder{vector: []float32{1}}
	idx := &mockIndex{upsertErr: domain.ErrVectorUnavailable}
	svc := New(emb, idx, Options{UpsertBatchSize: 4}, zap.NewNop())

	sum, err := svc.IndexBatch(context.Background(), records(10, 0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sum.Errors != 10 || sum.Indexed != 0 {
		t.Errorf("summary = %+v", sum)
	}
	if len(idx.upsertSizes) != 3 {
		t.Errorf("upsert calls = %d, want 3", len(idx.upsertSizes))
	}
}

func TestIndexBatch_CanceledContext(t *testing.T) {
	emb := &mockEmbedder{vector: []float32{1}}
	idx := &mockIndex{}
	svc := New(emb, idx, Options{EmbedRPS: 0.001}, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.IndexBatch(ctx, records(3, 0))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if len(idx.upsertSizes) != 0 {
		t.Errorf("unexpected upserts: %v", idx.upsertSizes)
	}
}

func TestIndexBatch_Empty(t *testing.T) {
	idx := &mockIndex{}
	svc := newTestService(&mockEmbedder{}, idx)

	sum, err := svc.IndexBatch(context.Background(), nil)
	if err != nil || sum.Processed() != 0 {
		t.Errorf("got %+v, %v", sum, err)
	}
	if sum.Failures == nil {
		t.Error("failures should be non-nil")
	}
}

// --- Lifecycle ---

func TestStatus(t *testing.T) {
	idx := &mockIndex{status: domvec.Status{Exists: true, Ready: true, VectorCount: 42}}
	svc := newTestService(&mockEmbedder{}, idx)

	st, err := svc.Status(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if st.VectorCount != 42 || !st.Ready {
		t.Errorf("status = %+v", st)
	}
}

func TestCreateAndDelete(t *testing.T) {
	idx := &mockIndex{}
	svc := newTestService(&mockEmbedder{}, idx)

	if err := svc.CreateIndex(context.Background()); err != nil {
		t.Errorf("create: %v", err)
	}
	if err := svc.DeleteIndex(context.Background()); err != nil {
		t.Errorf("delete: %v", err)
	}

	idx.createErr = domain.ErrVectorUnavailable
	if err := svc.CreateIndex(context.Background()); !errors.Is(err, domain.ErrVectorUnavailable) {
		t.Errorf("expected ErrVectorUnavailable, got %v", err)
	}
}
