package response

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/kailas-cloud/patentsearch/internal/domain/patent"
	"github.com/kailas-cloud/patentsearch/internal/domain/search/filter"
	"github.com/kailas-cloud/patentsearch/internal/domain/search/mode"
)

func TestNew_Counts(t *testing.T) {
	out := Outcome{
		Results: []patent.Record{
			{ID: "a", SimilarityScore: 0.9},
			{ID: "b", SimilarityScore: 0},
			{ID: "c", SimilarityScore: 0.75},
		},
		TokenCount: 7,
	}
	resp := New(out, mode.Hybrid, filter.Filters{CountryCodes: []string{"US"}}, 1500*time.Microsecond)

	if resp.TotalResults != 3 {
		t.Errorf("TotalResults = %d", resp.TotalResults)
	}
	if resp.Metadata.SemanticResultCount != 2 || resp.Metadata.KeywordResultCount != 1 {
		t.Errorf("counts = %+v", resp.Metadata)
	}
	if resp.Metadata.QueryTokenCount != 7 {
		t.Errorf("QueryTokenCount = %d", resp.Metadata.QueryTokenCount)
	}
	if strings.Join(resp.Metadata.FiltersApplied, ",") != "countries" {
		t.Errorf("FiltersApplied = %v", resp.Metadata.FiltersApplied)
	}
	if resp.SearchTimeMs != 1 {
		t.Errorf("SearchTimeMs = %d", resp.SearchTimeMs)
	}
}

func TestNew_OwnsResults(t *testing.T) {
	src := []patent.Record{{ID: "a"}}
	resp := New(Outcome{Results: src}, mode.Keyword, filter.Filters{}, 0)
	src[0].ID = "mutated"
	if resp.Results[0].ID != "a" {
		t.Error("response shares the caller's slice")
	}
}

func TestNew_EmptyEncodesArrays(t *testing.T) {
	resp := New(Outcome{}, mode.Keyword, filter.Filters{}, 0)
	b, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	s := string(b)
	if !strings.Contains(s, `"results":[]`) || !strings.Contains(s, `"filtersApplied":[]`) {
		t.Errorf("json = %s", s)
	}
	if strings.Contains(s, "fallback") {
		t.Errorf("fallback should be omitted when false: %s", s)
	}
}

func TestNewRelated_NonNilLists(t *testing.T) {
	rel := NewRelated("US-1", nil, []patent.Record{{ID: "EP-2"}}, nil)

	if rel.Citing == nil || rel.Similar == nil {
		t.Fatal("lists must be non-nil")
	}
	if rel.Counts != (RelatedCounts{Citing: 0, Cited: 1, Similar: 0}) {
		t.Errorf("counts = %+v", rel.Counts)
	}
	b, err := json.Marshal(rel)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(b), `"citing":[]`) {
		t.Errorf("json = %s", b)
	}
}
