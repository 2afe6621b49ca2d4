package search

import (
	"cmp"
	"slices"

	"github.com/kailas-cloud/patentsearch/internal/domain/patent"
	domvec "github.com/kailas-cloud/patentsearch/internal/domain/vector"
)

// attachScores copies match scores onto fetched records and drops nothing:
// a record without a match keeps score 0.
func attachScores(records []patent.Record, matches []domvec.Match) []patent.Record {
	scores := make(map[string]float64, len(matches))
	for _, m := range matches {
		scores[m.ID] = m.SimilarityScore
	}
	for i := range records {
		records[i].SimilarityScore = scores[records[i].ID]
	}
	return records
}

// mergeHybrid dedups by id. Semantic records go in first with their score
// multiplied by boost; a keyword record is added only when its id is new.
func mergeHybrid(semantic, keyword []patent.Record, boost float64, limit int) []patent.Record {
	seen := make(map[string]struct{}, len(semantic)+len(keyword))
	out := make([]patent.Record, 0, len(semantic)+len(keyword))

	for _, r := range semantic {
		if _, ok := seen[r.ID]; ok {
			continue
		}
		seen[r.ID] = struct{}{}
		r.SimilarityScore *= boost
		out = append(out, r)
	}
	for _, r := range keyword {
		if _, ok := seen[r.ID]; ok {
			continue
		}
		seen[r.ID] = struct{}{}
		out = append(out, r)
	}

	rank(out)
	return truncate(out, limit)
}

// rank orders by score desc, then publication date desc, then id asc.
func rank(records []patent.Record) {
	slices.SortStableFunc(records, func(a, b patent.Record) int {
		if c := cmp.Compare(b.SimilarityScore, a.SimilarityScore); c != 0 {
			return c
		}
		if c := cmp.Compare(b.PublicationDate, a.PublicationDate); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}

func truncate(records []patent.Record, limit int) []patent.Record {
	if len(records) > limit {
		return records[:limit]
	}
	return records
}
