package vector

import (
	"github.com/kailas-cloud/patentsearch/internal/db"
)

// Hash field names stored per patent.
const (
	FieldID              = "publication_number"
	FieldTitle           = "title"
	FieldAbstract        = "abstract"
	FieldPublicationDate = "publication_date"
	FieldDateNumber      = "pub_date_num"
	FieldAssignee        = "assignee"
	FieldCountryCode     = "country_code"
	FieldKindCode        = "kind_code"
	FieldClassifications = "classifications"
	FieldVector          = "vector"

	scoreField = "__vector_score"
)

// metadataFields are returned by KNN queries.
var metadataFields = []string{
	FieldID, FieldTitle, FieldAbstract, FieldPublicationDate, FieldDateNumber,
	FieldAssignee, FieldCountryCode, FieldKindCode, FieldClassifications, scoreField,
}

// buildIndex describes the patent vector index: TAG and NUMERIC fields for
// pre-filtering plus an HNSW cosine vector field.
func buildIndex(opts Options) (*db.IndexDefinition, error) {
	return db.NewIndex(opts.IndexName, opts.KeyPrefix).
		Tag(FieldCountryCode).
		Tag(FieldKindCode).
		TagList(FieldClassifications, ",").
		Numeric(FieldDateNumber).
		Vector(FieldVector, opts.Dimensions, db.DistanceCosine, db.HNSW{M: opts.M, EFConstruction: opts.EFConstruct}).
		Build()
}
