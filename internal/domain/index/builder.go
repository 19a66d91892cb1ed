package index

// Builder is a fluent builder for search index specifications.
type Builder struct {
	spec Specification
}

// NewVector starts building a vector index over the embedding at path.
func NewVector(name, path string, dim int) *Builder {
	return &Builder{
		spec: Specification{
			Name: name,
			Kind: KindVector,
			Vector: &VectorDefinition{
				Path:          path,
				NumDimensions: dim,
				Similarity:    SimilarityCosine,
			},
		},
	}
}

// NewText starts building a static full-text index.
func NewText(name string) *Builder {
	return &Builder{
		spec: Specification{
			Name: name,
			Kind: KindText,
			Text: &TextDefinition{},
		},
	}
}

// Similarity sets the vector similarity metric.
func (b *Builder) Similarity(s Similarity) *Builder {
	if b.spec.Vector != nil {
		b.spec.Vector.Similarity = s
	}
	return b
}

// Field maps a string field with the given analyzer.
func (b *Builder) Field(path, analyzer string) *Builder {
	if b.spec.Text != nil {
		b.spec.Text.Fields = append(b.spec.Text.Fields, TextField{Path: path, Analyzer: analyzer})
	}
	return b
}

// Dynamic toggles dynamic field mapping.
func (b *Builder) Dynamic(dynamic bool) *Builder {
	if b.spec.Text != nil {
		b.spec.Text.Dynamic = dynamic
	}
	return b
}

// Build validates and returns the specification.
func (b *Builder) Build() (Specification, error) {
	if err := b.spec.Validate(); err != nil {
		return Specification{}, err
	}
	return b.spec, nil
}

// MustBuild calls Build and panics on error.
func (b *Builder) MustBuild() Specification {
	spec, err := b.Build()
	if err != nil {
		panic(err)
	}
	return spec
}
