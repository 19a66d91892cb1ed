package index

// Reference index names used by the chunk collection.
const (
	DefaultVectorName = "vector_index"
	DefaultTextName   = "text_index"
)

// DefaultAnalyzer is the analyzer used for the content field.
const DefaultAnalyzer = "lucene.standard"

// DefaultSpecifications returns the vector index followed by the text index
// for a chunk collection.
func DefaultSpecifications(dim int, similarity Similarity, vectorPath, textField, analyzer string) []Specification {
	if analyzer == "" {
		analyzer = DefaultAnalyzer
	}
	return []Specification{
		NewVector(DefaultVectorName, vectorPath, dim).Similarity(similarity).spec,
		NewText(DefaultTextName).Field(textField, analyzer).Dynamic(false).spec,
	}
}
