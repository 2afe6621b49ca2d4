package db

// IndexBuilder assembles an IndexDefinition field by field.
type IndexBuilder struct {
	def IndexDefinition
}

// NewIndex starts a hash index named name over keys under prefix.
func NewIndex(name, prefix string) *IndexBuilder {
	return &IndexBuilder{def: IndexDefinition{Name: name, Storage: StorageHash, Prefix: prefix}}
}

// Numeric adds a NUMERIC field.
func (b *IndexBuilder) Numeric(name string) *IndexBuilder {
	return b.add(IndexField{Name: name, Kind: FieldNumeric})
}

// Tag adds a single-valued TAG field.
func (b *IndexBuilder) Tag(name string) *IndexBuilder {
	return b.add(IndexField{Name: name, Kind: FieldTag})
}

// TagList adds a TAG field whose stored value is a sep-joined list.
func (b *IndexBuilder) TagList(name, sep string) *IndexBuilder {
	return b.add(IndexField{Name: name, Kind: FieldTag, Separator: sep})
}

// Vector adds an HNSW FLOAT32 vector field.
func (b *IndexBuilder) Vector(name string, dim int, distance DistanceMetric, graph HNSW) *IndexBuilder {
	return b.add(IndexField{Name: name, Kind: FieldVector, Dim: dim, Distance: distance, HNSW: graph})
}

func (b *IndexBuilder) add(f IndexField) *IndexBuilder {
	b.def.Fields = append(b.def.Fields, f)
	return b
}

// Build validates and returns the definition.
func (b *IndexBuilder) Build() (*IndexDefinition, error) {
	if err := b.def.Validate(); err != nil {
		return nil, err
	}
	def := b.def
	def.Fields = append([]IndexField(nil), b.def.Fields...)
	return &def, nil
}
