package lexical

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/patentsearch/internal/domain/patent"
	"github.com/kailas-cloud/patentsearch/internal/domain/search/filter"
	"github.com/kailas-cloud/patentsearch/internal/warehouse"
)

// query accumulates a SELECT over the patents table aliased as t.
type query struct {
	d      warehouse.Dialect
	params warehouse.Params
	where  []string
}

func newQuery(d warehouse.Dialect) *query {
	return &query{d: d}
}

func (q *query) and(cond string) {
	if cond != "" {
		q.where = append(q.where, cond)
	}
}

func (q *query) whereClause() string {
	if len(q.where) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(q.where, " AND ")
}

func (q *query) from() string {
	return " FROM " + q.d.Table() + " AS t"
}

// keywords matches when every term is in the title or every term is in the abstract.
func (q *query) keywords(text string) {
	terms := strings.Fields(strings.ToLower(text))
	if len(terms) == 0 {
		return
	}
	q.and("(" + q.allTerms("t."+patent.ColTitle, terms) + " OR " + q.allTerms("t."+patent.ColAbstract, terms) + ")")
}

func (q *query) allTerms(col string, terms []string) string {
	parts := make([]string, len(terms))
	for i, term := range terms {
		parts[i] = q.d.Like("LOWER("+col+")", q.params.Add("%"+warehouse.EscapeLike(term)+"%"))
	}
	return "(" + strings.Join(parts, " AND ") + ")"
}

// classificationPrefixes matches when any classification starts with any of codes.
func (q *query) classificationPrefixes(codes []string) {
	if len(codes) == 0 {
		return
	}
	parts := make([]string, len(codes))
	for i, code := range codes {
		parts[i] = q.d.ArrayAnyLike("t."+patent.ColClassifications, q.params.Add(warehouse.EscapeLike(code)+"%"))
	}
	q.and("(" + strings.Join(parts, " OR ") + ")")
}

func (q *query) filters(f filter.Filters) {
	if !f.DateRange.IsEmpty() {
		col := "t." + patent.ColPublicationDate
		q.and(col + " <> ''")
		if f.DateRange.Start != "" {
			q.and(col + " >= " + q.params.Add(f.DateRange.Start))
		}
		if f.DateRange.End != "" {
			q.and(col + " <= " + q.params.Add(f.DateRange.End))
		}
	}
	if len(f.CountryCodes) > 0 {
		q.and("t." + patent.ColCountryCode + " IN (" + q.params.AddList(f.CountryCodes) + ")")
	}
	if len(f.Assignees) > 0 {
		parts := make([]string, len(f.Assignees))
		for i, a := range f.Assignees {
			pattern := "%" + warehouse.EscapeLike(strings.ToLower(a)) + "%"
			parts[i] = q.d.Like("LOWER(t."+patent.ColAssignee+")", q.params.Add(pattern))
		}
		q.and("(" + strings.Join(parts, " OR ") + ")")
	}
	q.classificationPrefixes(f.Classifications)
}

// selectRecords renders the record projection ordered by date desc, id asc.
func (q *query) selectRecords(limit, offset int) string {
	return "SELECT " + recordColumns() + q.from() + q.whereClause() +
		fmt.Sprintf(" ORDER BY t.%s DESC, t.%s ASC LIMIT %d OFFSET %d",
			patent.ColPublicationDate, patent.ColID, limit, offset)
}

func recordColumns() string {
	cols := make([]string, len(patent.Columns))
	for i, c := range patent.Columns {
		cols[i] = "t." + c + " AS " + c
	}
	return strings.Join(cols, ", ")
}
