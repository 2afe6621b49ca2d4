package search

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/patentsearch/internal/domain/patent"
	"github.com/kailas-cloud/patentsearch/internal/domain/search/filter"
	domvec "github.com/kailas-cloud/patentsearch/internal/domain/vector"
)

// --- Mocks ---

type mockLexical struct {
	mu sync.Mutex

	keyword    []patent.Record
	keywordErr error
	// failLimit makes SearchByKeywords fail only for this limit.
	failLimit     int
	keywordLimits []int

	byID    map[string]patent.Record
	byIDErr error

	citations    patent.Citations
	citationsErr error
}

func (m *mockLexical) SearchByKeywords(_ context.Context, _ string, _ filter.Filters, limit int) ([]patent.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keywordLimits = append(m.keywordLimits, limit)
	if m.keywordErr != nil && (m.failLimit == 0 || m.failLimit == limit) {
		return nil, m.keywordErr
	}
	out := make([]patent.Record, 0, limit)
	for _, r := range m.keyword {
		if len(out) == limit {
			break
		}
		out = append(out, r)
	}
	return out, nil
}

func (m *mockLexical) GetByIDs(_ context.Context, ids []string) ([]patent.Record, error) {
	if m.byIDErr != nil {
		return nil, m.byIDErr
	}
	out := []patent.Record{}
	// reverse order: callers must not rely on backend order
	for i := len(ids) - 1; i >= 0; i-- {
		if r, ok := m.byID[ids[i]]; ok {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *mockLexical) GetCitations(_ context.Context, _ string) (patent.Citations, error) {
	return m.citations, m.citationsErr
}

func (m *mockLexical) limits() []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]int(nil), m.keywordLimits...)
}

type mockVector struct {
	mu sync.Mutex

	tokens   int
	embedErr error
	matches  []domvec.Match
	queryErr error
	// block makes QuerySimilar wait for context cancellation.
	block bool

	topKs     []int
	lastQuery string
}

func (m *mockVector) Embed(_ context.Context, text string) (domvec.Embedding, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastQuery = text
	if m.embedErr != nil {
		return domvec.Embedding{}, m.embedErr
	}
	return domvec.Embedding{Vector: domvec.FromDense([]float32{1, 0, 1}), TokenCount: m.tokens}, nil
}

func (m *mockVector) QuerySimilar(ctx context.Context, _ domvec.Sparse, topK int, _ filter.Filters) ([]domvec.Match, error) {
	m.mu.Lock()
	m.topKs = append(m.topKs, topK)
	block := m.block
	m.mu.Unlock()

	if block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if m.queryErr != nil {
		return nil, m.queryErr
	}
	if len(m.matches) > topK {
		return m.matches[:topK], nil
	}
	return m.matches, nil
}

// --- Fixtures ---

func rec(id, date string) patent.Record {
	return patent.Record{
		ID:              id,
		Title:           "Title " + id,
		Abstract:        "Abstract " + id,
		PublicationDate: date,
		Assignee:        patent.DefaultAssignee,
		Inventors:       []string{},
		Classifications: []string{},
		URL:             patent.BuildURL("", id),
	}
}

func index(records ...patent.Record) map[string]patent.Record {
	m := make(map[string]patent.Record, len(records))
	for _, r := range records {
		m[r.ID] = r
	}
	return m
}

func testPolicy() Policy {
	p := DefaultPolicy()
	p.RequestTimeout = 2 * time.Second
	p.SemanticTimeout = time.Second
	p.BatchWorkers = 4
	return p
}

func newTestService(t *testing.T, lex *mockLexical, vec *mockVector, p Policy) *Service {
	t.Helper()
	svc, err := New(lex, vec, p, zap.NewNop())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	t.Cleanup(svc.Close)
	return svc
}
