package vector

import (
	"strconv"
	"strings"

	"github.com/kailas-cloud/patentsearch/internal/db"
	"github.com/kailas-cloud/patentsearch/internal/domain/patent"
	"github.com/kailas-cloud/patentsearch/internal/domain/search/filter"
)

// Metadata returns the hash fields stored next to a record's vector.
// Empty values are omitted so TAG and NUMERIC fields stay unindexed for them.
func Metadata(rec *patent.Record) map[string]string {
	m := map[string]string{
		FieldID:       rec.ID,
		FieldTitle:    rec.Title,
		FieldAbstract: truncateRunes(rec.Abstract, MaxAbstractRunes),
		FieldAssignee: rec.Assignee,
	}
	if rec.PublicationDate != "" {
		m[FieldPublicationDate] = rec.PublicationDate
		if n := filter.DateNumber(rec.PublicationDate); n > 0 {
			m[FieldDateNumber] = strconv.FormatFloat(n, 'f', 0, 64)
		}
	}
	if rec.CountryCode != "" {
		m[FieldCountryCode] = rec.CountryCode
	}
	if rec.KindCode != "" {
		m[FieldKindCode] = rec.KindCode
	}
	if len(rec.Classifications) > 0 {
		codes := rec.Classifications
		if len(codes) > MaxClassifications {
			codes = codes[:MaxClassifications]
		}
		m[FieldClassifications] = strings.Join(codes, ",")
	}
	return m
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func preFilter(f filter.Filters) db.PreFilter {
	var pf db.PreFilter
	if len(f.CountryCodes) > 0 {
		pf.Tags = append(pf.Tags, db.TagFilter{Field: FieldCountryCode, Values: f.CountryCodes})
	}
	if !f.DateRange.IsEmpty() {
		rf := db.RangeFilter{Field: FieldDateNumber}
		if f.DateRange.Start != "" {
			v := filter.DateNumber(f.DateRange.Start)
			rf.Min = &v
		}
		if f.DateRange.End != "" {
			v := filter.DateNumber(f.DateRange.End)
			rf.Max = &v
		}
		pf.Ranges = append(pf.Ranges, rf)
	}
	return pf
}

func postFilter(f filter.Filters, meta map[string]string) bool {
	if !f.MatchAssignee(meta[FieldAssignee]) {
		return false
	}
	if len(f.Classifications) == 0 {
		return true
	}
	codes := strings.Split(meta[FieldClassifications], ",")
	// A capped list cannot rule a patent out; the caller re-checks full records.
	return len(codes) >= MaxClassifications || filter.HasPrefix(codes, f.Classifications)
}
