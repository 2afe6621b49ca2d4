// Package patent holds the canonical patent record and the normalizer that
// turns heterogeneous backend rows into it.
package patent

import "strings"

// Defaults applied by Normalize when a source omits a field.
const (
	DefaultTitle    = "Untitled Patent"
	DefaultAbstract = "No abstract available"
	DefaultAssignee = "Unknown"
	DefaultInventor = "Unknown"

	// DefaultURLBase is the external page prefix; URL = base + ID.
	DefaultURLBase = "https://patents.google.com/patent/"
)

// Record is the canonical patent result shared by every retrieval path.
//
// SimilarityScore == 0 means "no vector-similarity evidence": the record came
// from lexical retrieval only. The hybrid merge treats it as a type tag.
type Record struct {
	ID              string   `json:"id"`
	Title           string   `json:"title"`
	Abstract        string   `json:"abstract"`
	PublicationDate string   `json:"publicationDate"`
	Assignee        string   `json:"assignee"`
	Inventors       []string `json:"inventors"`
	CountryCode     string   `json:"countryCode"`
	KindCode        string   `json:"kindCode"`
	FamilyID        string   `json:"familyId"`
	Classifications []string `json:"classifications"`
	SimilarityScore float64  `json:"similarityScore"`
	URL             string   `json:"url"`
}

// IsVectorRanked reports whether the record carries vector-similarity evidence.
func (r *Record) IsVectorRanked() bool { return r.SimilarityScore > 0 }

// Year returns the publication year prefix, or "" when the date is empty.
func (r *Record) Year() string {
	if len(r.PublicationDate) < 4 {
		return ""
	}
	return r.PublicationDate[:4]
}

// PrimaryClassification returns the first classification code, or "".
func (r *Record) PrimaryClassification() string {
	if len(r.Classifications) == 0 {
		return ""
	}
	return r.Classifications[0]
}

// EmbeddingText is the input used to vectorize a record: title + " " + abstract, trimmed.
// Placeholder defaults do not count as text, so a record that had neither field yields "".
func (r *Record) EmbeddingText() string {
	title, abstract := r.Title, r.Abstract
	if title == DefaultTitle {
		title = ""
	}
	if abstract == DefaultAbstract {
		abstract = ""
	}
	return strings.TrimSpace(title + " " + abstract)
}

// BuildURL derives the external page URL for id.
func BuildURL(base, id string) string {
	if base == "" {
		base = DefaultURLBase
	}
	return base + id
}
