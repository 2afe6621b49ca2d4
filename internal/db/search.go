package db

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ScoreField is the alias FT.SEARCH uses for the KNN distance.
const ScoreField = "__vector_score"

// TagFilter matches documents whose TAG field equals any of Values.
type TagFilter struct {
	Field  string
	Values []string
}

// RangeFilter bounds a NUMERIC field inclusively. Nil means unbounded.
type RangeFilter struct {
	Field string
	Min   *float64
	Max   *float64
}

// PreFilter narrows a KNN query inside the index. All clauses are ANDed.
type PreFilter struct {
	Tags   []TagFilter
	Ranges []RangeFilter
}

// IsEmpty reports whether the filter has no clauses.
func (f PreFilter) IsEmpty() bool { return len(f.Tags) == 0 && len(f.Ranges) == 0 }

// Expr renders the filter in query syntax. Values inside one tag clause are
// ORed. Clauses without values or bounds are dropped.
func (f PreFilter) Expr() string {
	var b strings.Builder
	clause := func(s string) {
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(s)
	}
	for _, t := range f.Tags {
		if len(t.Values) == 0 {
			continue
		}
		vals := make([]string, len(t.Values))
		for i, v := range t.Values {
			vals[i] = EscapeTag(v)
		}
		clause("@" + t.Field + ":{" + strings.Join(vals, " | ") + "}")
	}
	for _, r := range f.Ranges {
		if r.Min == nil && r.Max == nil {
			continue
		}
		clause("@" + r.Field + ":[" + bound(r.Min, "-inf") + " " + bound(r.Max, "+inf") + "]")
	}
	return b.String()
}

func bound(v *float64, open string) string {
	if v == nil {
		return open
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

// EscapeTag backslash-escapes every character outside [A-Za-z0-9_] so
// assignee names and classification codes match literally.
func EscapeTag(v string) string {
	var b strings.Builder
	b.Grow(len(v))
	for _, r := range v {
		switch {
		case r == '_', r >= '0' && r <= '9', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r > 127:
		default:
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// KNNQuery is the input for vector similarity search.
type KNNQuery struct {
	IndexName string
	// VectorField defaults to "vector".
	VectorField  string
	Filter       PreFilter
	Vector       []float32
	K            int
	ReturnFields []string
	// EFRuntime overrides the HNSW search breadth when positive.
	EFRuntime int
}

// Validate checks the query before it is sent.
func (q *KNNQuery) Validate() error {
	switch {
	case q.IndexName == "":
		return errors.New("knn query: index name is required")
	case len(q.Vector) == 0:
		return errors.New("knn query: vector is required")
	case q.K <= 0:
		return fmt.Errorf("knn query: k must be positive, got %d", q.K)
	case q.EFRuntime < 0:
		return fmt.Errorf("knn query: ef_runtime must not be negative, got %d", q.EFRuntime)
	}
	return nil
}

// Args renders FT.SEARCH arguments after the command name. blob is the
// encoded query vector.
func (q *KNNQuery) Args(blob string) []string {
	field := q.VectorField
	if field == "" {
		field = "vector"
	}
	knn := "[KNN " + strconv.Itoa(q.K) + " @" + field + " $BLOB"
	params := []string{"BLOB", blob}
	if q.EFRuntime > 0 {
		knn += " EF_RUNTIME $EF"
		params = append(params, "EF", strconv.Itoa(q.EFRuntime))
	}
	knn += "]"

	query := "*=>" + knn
	if expr := q.Filter.Expr(); expr != "" {
		query = "(" + expr + ")=>" + knn
	}

	args := []string{q.IndexName, query}
	if len(q.ReturnFields) > 0 {
		args = append(args, "RETURN", strconv.Itoa(len(q.ReturnFields)))
		args = append(args, q.ReturnFields...)
	}
	args = append(args, "LIMIT", "0", strconv.Itoa(q.K), "PARAMS", strconv.Itoa(len(params)))
	args = append(args, params...)
	return append(args, "DIALECT", "2")
}

// SearchResult is the output of a search operation.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is a single document hit from a search.
type SearchEntry struct {
	Key    string
	Score  float64
	Fields map[string]string
}
