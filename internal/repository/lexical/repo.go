// Package lexical turns structured patent queries into warehouse SQL and
// returns normalized records.
package lexical

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/patentsearch/internal/domain"
	"github.com/kailas-cloud/patentsearch/internal/domain/analytics"
	"github.com/kailas-cloud/patentsearch/internal/domain/patent"
	"github.com/kailas-cloud/patentsearch/internal/domain/search/filter"
	"github.com/kailas-cloud/patentsearch/internal/warehouse"
)

// Defaults for Options fields left at zero.
const (
	DefaultMaxLimit    = 1000
	DefaultCitationCap = 50
	DefaultTopN        = 10
)

// Options tune result caps.
type Options struct {
	MaxLimit    int
	CitationCap int
	TopN        int
	URLBase     string
}

// Repo implements the lexical retrieval contract over a warehouse.
type Repo struct {
	q    warehouse.Querier
	opts Options
}

// New creates a lexical repository.
func New(q warehouse.Querier, opts Options) *Repo {
	if opts.MaxLimit <= 0 {
		opts.MaxLimit = DefaultMaxLimit
	}
	if opts.CitationCap <= 0 {
		opts.CitationCap = DefaultCitationCap
	}
	if opts.TopN <= 0 {
		opts.TopN = DefaultTopN
	}
	return &Repo{q: q, opts: opts}
}

// Ping checks warehouse connectivity.
func (r *Repo) Ping(ctx context.Context) error {
	if err := r.q.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrLexicalUnavailable, err)
	}
	return nil
}

// SearchByKeywords returns records where every whitespace-separated term
// appears in the title, or every term appears in the abstract.
func (r *Repo) SearchByKeywords(ctx context.Context, text string, f filter.Filters, limit int) ([]patent.Record, error) {
	return r.SearchByKeywordsPage(ctx, text, f, limit, 0)
}

// SearchByKeywordsPage is SearchByKeywords starting at offset in the stable order.
func (r *Repo) SearchByKeywordsPage(
	ctx context.Context, text string, f filter.Filters, limit, offset int,
) ([]patent.Record, error) {
	q := newQuery(r.q.Dialect())
	q.keywords(text)
	q.filters(f)
	if offset < 0 {
		offset = 0
	}
	return r.records(ctx, "search by keywords", q, q.selectRecords(r.clamp(limit), offset))
}

// SearchByClassification returns records with any classification starting with one of codes.
func (r *Repo) SearchByClassification(
	ctx context.Context, codes []string, f filter.Filters, limit int,
) ([]patent.Record, error) {
	prefixes := make([]string, 0, len(codes))
	for _, c := range codes {
		if c = strings.ToUpper(strings.TrimSpace(c)); c != "" {
			prefixes = append(prefixes, c)
		}
	}
	if len(prefixes) == 0 {
		return []patent.Record{}, nil
	}

	q := newQuery(r.q.Dialect())
	q.classificationPrefixes(prefixes)
	q.filters(f)
	return r.records(ctx, "search by classification", q, q.selectRecords(r.clamp(limit), 0))
}

// GetByIDs fetches records by publication number. Missing ids are absent from the result.
func (r *Repo) GetByIDs(ctx context.Context, ids []string) ([]patent.Record, error) {
	ids = unique(ids)
	if len(ids) == 0 {
		return []patent.Record{}, nil
	}

	q := newQuery(r.q.Dialect())
	q.and("t." + patent.ColID + " IN (" + q.params.AddList(ids) + ")")
	return r.records(ctx, "get by ids", q, q.selectRecords(len(ids), 0))
}

// GetCitations loads both sides of id's citation neighbourhood, each capped.
func (r *Repo) GetCitations(ctx context.Context, id string) (patent.Citations, error) {
	var out patent.Citations

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		q := newQuery(r.q.Dialect())
		q.and(q.d.ArrayContains("t."+patent.ColCitations, q.params.Add(id)))
		recs, err := r.records(gctx, "citing", q, q.selectRecords(r.opts.CitationCap, 0))
		out.Citing = recs
		return err
	})
	g.Go(func() error {
		refs, err := r.citationList(gctx, id)
		if err != nil {
			return err
		}
		if len(refs) > r.opts.CitationCap {
			refs = refs[:r.opts.CitationCap]
		}
		recs, err := r.GetByIDs(gctx, refs)
		out.Cited = recs
		return err
	})
	if err := g.Wait(); err != nil {
		return patent.Citations{}, err
	}
	return out, nil
}

func (r *Repo) citationList(ctx context.Context, id string) ([]string, error) {
	q := newQuery(r.q.Dialect())
	q.and("t." + patent.ColID + " = " + q.params.Add(id))
	sql := "SELECT t." + patent.ColCitations + " AS " + patent.ColCitations + q.from() + q.whereClause()

	rows, err := r.q.Query(ctx, sql, q.params.List())
	if err != nil {
		return nil, fmt.Errorf("%w: cited by %s: %w", domain.ErrLexicalUnavailable, id, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return patent.ParseList(rows[0][patent.ColCitations]), nil
}

// CitationEdges returns directed edges between members of ids, ordered by
// source then by position in the source's citation list.
func (r *Repo) CitationEdges(ctx context.Context, ids []string) ([]patent.Edge, error) {
	ids = unique(ids)
	if len(ids) == 0 {
		return []patent.Edge{}, nil
	}
	members := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		members[id] = struct{}{}
	}

	q := newQuery(r.q.Dialect())
	q.and("t." + patent.ColID + " IN (" + q.params.AddList(ids) + ")")
	sql := fmt.Sprintf("SELECT t.%[1]s AS %[1]s, t.%[2]s AS %[2]s%[3]s%[4]s ORDER BY t.%[1]s ASC",
		patent.ColID, patent.ColCitations, q.from(), q.whereClause())

	rows, err := r.q.Query(ctx, sql, q.params.List())
	if err != nil {
		return nil, fmt.Errorf("%w: citation edges: %w", domain.ErrLexicalUnavailable, err)
	}

	edges := []patent.Edge{}
	seen := make(map[patent.Edge]struct{})
	for _, row := range rows {
		from := warehouse.String(row[patent.ColID])
		for _, to := range patent.ParseList(row[patent.ColCitations]) {
			if to == from {
				continue
			}
			if _, ok := members[to]; !ok {
				continue
			}
			e := patent.Edge{From: from, To: to}
			if _, dup := seen[e]; dup {
				continue
			}
			seen[e] = struct{}{}
			edges = append(edges, e)
		}
	}
	return edges, nil
}

// GetStatistics runs the four aggregate queries concurrently under the same filters.
func (r *Repo) GetStatistics(ctx context.Context, f filter.Filters) (analytics.Statistics, error) {
	stats := analytics.Statistics{
		YearlyDistribution: []analytics.YearCount{},
		TopAssignees:       []analytics.Count{},
		TopClassifications: []analytics.Count{},
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		q := newQuery(r.q.Dialect())
		q.filters(f)
		rows, err := r.aggregate(gctx, "total count", q, "SELECT COUNT(*) AS n"+q.from()+q.whereClause())
		if err != nil {
			return err
		}
		if len(rows) > 0 {
			stats.TotalCount, err = warehouse.Int(rows[0]["n"])
		}
		return err
	})
	g.Go(func() error {
		q := newQuery(r.q.Dialect())
		q.filters(f)
		q.and("t." + patent.ColPublicationDate + " <> ''")
		sql := "SELECT SUBSTR(t." + patent.ColPublicationDate + ", 1, 4) AS yr, COUNT(*) AS n" +
			q.from() + q.whereClause() + " GROUP BY yr ORDER BY yr ASC"
		rows, err := r.aggregate(gctx, "yearly distribution", q, sql)
		if err != nil {
			return err
		}
		for _, row := range rows {
			n, err := warehouse.Int(row["n"])
			if err != nil {
				return fmt.Errorf("%w: yearly distribution: %w", domain.ErrLexicalUnavailable, err)
			}
			stats.YearlyDistribution = append(stats.YearlyDistribution,
				analytics.YearCount{Year: warehouse.String(row["yr"]), Count: n})
		}
		return nil
	})
	g.Go(func() error {
		q := newQuery(r.q.Dialect())
		q.filters(f)
		q.and("t." + patent.ColAssignee + " <> ''")
		sql := "SELECT t." + patent.ColAssignee + " AS name, COUNT(*) AS n" + q.from() + q.whereClause() +
			fmt.Sprintf(" GROUP BY name ORDER BY n DESC, name ASC LIMIT %d", r.opts.TopN)
		counts, err := r.counts(gctx, "top assignees", q, sql)
		stats.TopAssignees = counts
		return err
	})
	g.Go(func() error {
		q := newQuery(r.q.Dialect())
		q.filters(f)
		unnest, elem := q.d.Unnest("t."+patent.ColClassifications, "c")
		sql := "SELECT " + elem + " AS name, COUNT(*) AS n" + q.from() + ", " + unnest + q.whereClause() +
			fmt.Sprintf(" GROUP BY name ORDER BY n DESC, name ASC LIMIT %d", r.opts.TopN)
		counts, err := r.counts(gctx, "top classifications", q, sql)
		stats.TopClassifications = counts
		return err
	})
	if err := g.Wait(); err != nil {
		return analytics.Statistics{}, err
	}
	return stats, nil
}

func (r *Repo) records(ctx context.Context, op string, q *query, sql string) ([]patent.Record, error) {
	rows, err := r.q.Query(ctx, sql, q.params.List())
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrLexicalUnavailable, op, err)
	}
	recs, err := patent.NormalizeAll(rows, r.opts.URLBase)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return recs, nil
}

func (r *Repo) aggregate(ctx context.Context, op string, q *query, sql string) ([]patent.Row, error) {
	rows, err := r.q.Query(ctx, sql, q.params.List())
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrLexicalUnavailable, op, err)
	}
	return rows, nil
}

func (r *Repo) counts(ctx context.Context, op string, q *query, sql string) ([]analytics.Count, error) {
	rows, err := r.aggregate(ctx, op, q, sql)
	if err != nil {
		return nil, err
	}
	out := make([]analytics.Count, 0, len(rows))
	for _, row := range rows {
		n, err := warehouse.Int(row["n"])
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", domain.ErrLexicalUnavailable, op, err)
		}
		out = append(out, analytics.Count{Name: warehouse.String(row["name"]), Count: n})
	}
	return out, nil
}

func (r *Repo) clamp(limit int) int {
	if limit < 1 {
		return 1
	}
	if limit > r.opts.MaxLimit {
		return r.opts.MaxLimit
	}
	return limit
}

func unique(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
