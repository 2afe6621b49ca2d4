package filter

import (
	"fmt"
	"strings"
	"time"

	"github.com/kailas-cloud/patentsearch/internal/domain/patent"
)

// MaxValuesPerField bounds every list filter.
const MaxValuesPerField = 50

// Applied filter names, in the order they are reported.
const (
	NameDateRange       = "dateRange"
	NameCountries       = "countries"
	NameAssignees       = "assignees"
	NameClassifications = "classifications"
)

const dateLayout = "2006-01-02"

// DateRange is an inclusive publication date window. Either bound may be empty.
type DateRange struct {
	Start string `json:"start,omitempty"`
	End   string `json:"end,omitempty"`
}

// IsEmpty reports whether neither bound is set.
func (r *DateRange) IsEmpty() bool {
	return r == nil || (r.Start == "" && r.End == "")
}

// Filters are optional search constraints. Absence means no constraint.
type Filters struct {
	DateRange       *DateRange `json:"dateRange,omitempty"`
	CountryCodes    []string   `json:"countries,omitempty"`
	Assignees       []string   `json:"assignees,omitempty"`
	Classifications []string   `json:"classifications,omitempty"`
}

// Normalize validates the filters and returns a cleaned copy: blank values
// dropped, country codes upper-cased, classification prefixes upper-cased.
func (f Filters) Normalize() (Filters, error) {
	out := Filters{}
	if !f.DateRange.IsEmpty() {
		r := *f.DateRange
		if err := checkDate("start", r.Start); err != nil {
			return Filters{}, err
		}
		if err := checkDate("end", r.End); err != nil {
			return Filters{}, err
		}
		if r.Start != "" && r.End != "" && r.Start > r.End {
			return Filters{}, fmt.Errorf("dateRange start %s is after end %s", r.Start, r.End)
		}
		out.DateRange = &r
	}

	var err error
	if out.CountryCodes, err = clean(NameCountries, f.CountryCodes, strings.ToUpper); err != nil {
		return Filters{}, err
	}
	if out.Assignees, err = clean(NameAssignees, f.Assignees, nil); err != nil {
		return Filters{}, err
	}
	if out.Classifications, err = clean(NameClassifications, f.Classifications, strings.ToUpper); err != nil {
		return Filters{}, err
	}
	return out, nil
}

// Applied returns the names of non-empty filter fields in fixed order.
// The result is never nil.
func (f Filters) Applied() []string {
	names := []string{}
	if !f.DateRange.IsEmpty() {
		names = append(names, NameDateRange)
	}
	if len(f.CountryCodes) > 0 {
		names = append(names, NameCountries)
	}
	if len(f.Assignees) > 0 {
		names = append(names, NameAssignees)
	}
	if len(f.Classifications) > 0 {
		names = append(names, NameClassifications)
	}
	return names
}

// IsEmpty reports whether no constraint is set.
func (f Filters) IsEmpty() bool { return len(f.Applied()) == 0 }

// Matches evaluates every filter against a normalized record.
func (f Filters) Matches(rec *patent.Record) bool {
	return f.MatchDate(rec.PublicationDate) &&
		f.MatchCountry(rec.CountryCode) &&
		f.MatchAssignee(rec.Assignee) &&
		f.MatchClassifications(rec.Classifications)
}

// MatchDate checks an ISO date against the inclusive range.
// An empty date never satisfies a non-empty range.
func (f Filters) MatchDate(date string) bool {
	if f.DateRange.IsEmpty() {
		return true
	}
	if date == "" {
		return false
	}
	if f.DateRange.Start != "" && date < f.DateRange.Start {
		return false
	}
	return f.DateRange.End == "" || date <= f.DateRange.End
}

// MatchCountry checks exact (case-insensitive) country membership.
func (f Filters) MatchCountry(code string) bool {
	if len(f.CountryCodes) == 0 {
		return true
	}
	for _, c := range f.CountryCodes {
		if strings.EqualFold(c, code) {
			return true
		}
	}
	return false
}

// MatchAssignee checks case-insensitive substring membership.
func (f Filters) MatchAssignee(assignee string) bool {
	if len(f.Assignees) == 0 {
		return true
	}
	lower := strings.ToLower(assignee)
	for _, a := range f.Assignees {
		if strings.Contains(lower, strings.ToLower(a)) {
			return true
		}
	}
	return false
}

// MatchClassifications reports whether any code starts with one of the prefixes.
func (f Filters) MatchClassifications(codes []string) bool {
	if len(f.Classifications) == 0 {
		return true
	}
	return HasPrefix(codes, f.Classifications)
}

// HasPrefix reports whether any code has any of prefixes as a case-insensitive prefix.
func HasPrefix(codes, prefixes []string) bool {
	for _, code := range codes {
		upper := strings.ToUpper(code)
		for _, p := range prefixes {
			if strings.HasPrefix(upper, strings.ToUpper(p)) {
				return true
			}
		}
	}
	return false
}

// DateNumber converts YYYY-MM-DD to YYYYMMDD for numeric range indexes.
// Returns 0 for empty or malformed dates.
func DateNumber(date string) float64 {
	t, err := time.Parse(dateLayout, date)
	if err != nil {
		return 0
	}
	return float64(t.Year()*10000 + int(t.Month())*100 + t.Day())
}

func checkDate(field, v string) error {
	if v == "" {
		return nil
	}
	if _, err := time.Parse(dateLayout, v); err != nil {
		return fmt.Errorf("dateRange %s must be YYYY-MM-DD, got %q", field, v)
	}
	return nil
}

func clean(name string, in []string, transform func(string) string) ([]string, error) {
	if len(in) > MaxValuesPerField {
		return nil, fmt.Errorf("too many %s (max %d)", name, MaxValuesPerField)
	}
	var out []string
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if transform != nil {
			v = transform(v)
		}
		out = append(out, v)
	}
	return out, nil
}
