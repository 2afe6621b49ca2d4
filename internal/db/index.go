package db

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// StorageType is the document type an FT index covers.
type StorageType string

// StorageHash indexes hashes; vectors are stored as a binary FLOAT32 field.
const StorageHash StorageType = "HASH"

// DistanceMetric is the vector distance used by KNN queries.
type DistanceMetric string

const (
	// DistanceCosine reports 1 - cosine similarity.
	DistanceCosine DistanceMetric = "COSINE"
	// DistanceIP is inner product, equivalent to cosine for unit vectors.
	DistanceIP DistanceMetric = "IP"
)

// FieldKind is the FT schema type of an indexed field.
type FieldKind int

const (
	// FieldNumeric supports range pre-filters.
	FieldNumeric FieldKind = iota + 1
	// FieldTag supports exact-match pre-filters.
	FieldTag
	// FieldVector holds the embedding.
	FieldVector
)

// HNSW graph parameters. Zero leaves the server default.
type HNSW struct {
	M              int
	EFConstruction int
}

// IndexField is one entry of the FT schema.
type IndexField struct {
	Name string
	Kind FieldKind

	// Separator splits a multi-valued TAG field.
	Separator string

	Dim      int
	Distance DistanceMetric
	HNSW     HNSW
}

// IndexDefinition is an FT index over hashes under Prefix.
type IndexDefinition struct {
	Name    string
	Storage StorageType
	Prefix  string
	Fields  []IndexField
}

// Validate checks the definition before it is sent to the server.
func (idx *IndexDefinition) Validate() error {
	if idx.Name == "" {
		return errors.New("index name is required")
	}
	if !IsValidIdentifier(idx.Name) {
		return fmt.Errorf("index name %q contains invalid characters", idx.Name)
	}
	if idx.Prefix == "" {
		return errors.New("key prefix is required")
	}
	if !strings.HasSuffix(idx.Prefix, ":") {
		return fmt.Errorf("key prefix %q must end with ':'", idx.Prefix)
	}
	if len(idx.Fields) == 0 {
		return errors.New("at least one field is required")
	}

	seen := make(map[string]struct{}, len(idx.Fields))
	vectors := 0
	for i := range idx.Fields {
		f := &idx.Fields[i]
		if f.Name == "" {
			return fmt.Errorf("field %d: name is required", i)
		}
		if _, dup := seen[f.Name]; dup {
			return fmt.Errorf("duplicate field name: %s", f.Name)
		}
		seen[f.Name] = struct{}{}

		switch f.Kind {
		case FieldNumeric, FieldTag:
		case FieldVector:
			vectors++
			if f.Dim <= 0 {
				return fmt.Errorf("vector field %s requires positive DIM", f.Name)
			}
			if f.HNSW.M < 0 || f.HNSW.M > 512 {
				return fmt.Errorf("vector field %s: M must be within [0, 512]", f.Name)
			}
		default:
			return fmt.Errorf("field %s: unknown kind %d", f.Name, f.Kind)
		}
	}
	if vectors > 1 {
		return errors.New("at most one vector field is supported")
	}
	return nil
}

// CreateArgs renders the FT.CREATE arguments that follow the command name.
func (idx *IndexDefinition) CreateArgs() ([]string, error) {
	if err := idx.Validate(); err != nil {
		return nil, err
	}
	storage := idx.Storage
	if storage == "" {
		storage = StorageHash
	}

	args := []string{idx.Name, "ON", string(storage), "PREFIX", "1", idx.Prefix, "SCHEMA"}
	for i := range idx.Fields {
		args = append(args, idx.Fields[i].schemaArgs()...)
	}
	return args, nil
}

func (f *IndexField) schemaArgs() []string {
	switch f.Kind {
	case FieldNumeric:
		return []string{f.Name, "NUMERIC"}
	case FieldTag:
		if f.Separator != "" {
			return []string{f.Name, "TAG", "SEPARATOR", f.Separator}
		}
		return []string{f.Name, "TAG"}
	default:
		distance := f.Distance
		if distance == "" {
			distance = DistanceCosine
		}
		attrs := []string{
			"TYPE", "FLOAT32",
			"DIM", strconv.Itoa(f.Dim),
			"DISTANCE_METRIC", string(distance),
		}
		if f.HNSW.M > 0 {
			attrs = append(attrs, "M", strconv.Itoa(f.HNSW.M))
		}
		if f.HNSW.EFConstruction > 0 {
			attrs = append(attrs, "EF_CONSTRUCTION", strconv.Itoa(f.HNSW.EFConstruction))
		}
		return append([]string{f.Name, "VECTOR", "HNSW", strconv.Itoa(len(attrs))}, attrs...)
	}
}

// IsValidIdentifier reports whether s matches [a-zA-Z0-9_:-]+.
func IsValidIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '_' || r == ':' || r == '-':
		default:
			return false
		}
	}
	return true
}
