package patent

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/kailas-cloud/patentsearch/internal/domain"
)

// Row is a raw backend record before normalization. Values may be strings,
// numbers, []string, []any, JSON-encoded string arrays, or BigQuery
// {"v": ...} cells; Normalize is the only place that interprets them.
type Row map[string]any

// Warehouse column names. The warehouse schema is a fixed contract.
const (
	ColID              = "publication_number"
	ColTitle           = "title"
	ColAbstract        = "abstract"
	ColPublicationDate = "publication_date"
	ColAssignee        = "assignee"
	ColInventors       = "inventors"
	ColCountryCode     = "country_code"
	ColKindCode        = "kind_code"
	ColFamilyID        = "family_id"
	ColClassifications = "cpc_codes"
	ColCitations       = "citations"
)

// Columns lists the record columns selected by lexical queries, in order.
var Columns = []string{
	ColID, ColTitle, ColAbstract, ColPublicationDate, ColAssignee, ColInventors,
	ColCountryCode, ColKindCode, ColFamilyID, ColClassifications,
}

// Normalize maps a raw row to a Record, filling every documented default.
// It fails only when the publication number is missing.
func Normalize(row Row, urlBase string) (Record, error) {
	id := str(row[ColID])
	if id == "" {
		id = str(row["id"])
	}
	if id == "" {
		return Record{}, fmt.Errorf("%w: missing %s", domain.ErrMalformedRecord, ColID)
	}

	rec := Record{
		ID:              id,
		Title:           orDefault(str(row[ColTitle]), DefaultTitle),
		Abstract:        orDefault(str(row[ColAbstract]), DefaultAbstract),
		PublicationDate: ParseDate(row[ColPublicationDate]),
		Assignee:        orDefault(str(row[ColAssignee]), DefaultAssignee),
		Inventors:       strList(row[ColInventors]),
		CountryCode:     str(row[ColCountryCode]),
		KindCode:        str(row[ColKindCode]),
		FamilyID:        str(row[ColFamilyID]),
		Classifications: strList(row[ColClassifications]),
		URL:             BuildURL(urlBase, id),
	}
	if len(rec.Inventors) == 0 {
		rec.Inventors = []string{DefaultInventor}
	}
	if rec.Classifications == nil {
		rec.Classifications = []string{}
	}
	return rec, nil
}

// NormalizeAll normalizes rows, failing on the first malformed one.
func NormalizeAll(rows []Row, urlBase string) ([]Record, error) {
	out := make([]Record, 0, len(rows))
	for i, row := range rows {
		rec, err := Normalize(row, urlBase)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

// ParseDate accepts YYYY-MM-DD, YYYYMMDD (string or integer) and RFC3339,
// returning YYYY-MM-DD or "" for anything else.
func ParseDate(v any) string {
	s := str(v)
	if s == "" {
		return ""
	}
	layouts := []string{"2006-01-02", "20060102", time.RFC3339}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01-02")
		}
	}
	return ""
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// str coerces a scalar cell into a trimmed string.
func str(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case []byte:
		return strings.TrimSpace(string(t))
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case map[string]any:
		return str(t["v"])
	case fmt.Stringer:
		return strings.TrimSpace(t.String())
	default:
		return ""
	}
}

// strList coerces a list-ish cell into a slice of non-empty strings.
func strList(v any) []string {
	switch t := v.(type) {
	case nil:
		return nil
	case []string:
		return compact(t)
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if s := str(item); s != "" {
				out = append(out, s)
			}
		}
		return out
	case map[string]any:
		return strList(t["v"])
	case []byte:
		return strList(string(t))
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return nil
		}
		if strings.HasPrefix(s, "[") {
			var list []string
			if err := json.Unmarshal([]byte(s), &list); err == nil {
				return compact(list)
			}
		}
		return compact(strings.Split(s, ","))
	default:
		return nil
	}
}

func compact(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// ParseList decodes a list-valued cell with the same rules Normalize uses.
func ParseList(v any) []string {
	return strList(v)
}
