package index

import (
	"errors"
	"fmt"
	"strconv"
)

// Kind selects the search index family.
type Kind string

const (
	// KindVector is a vector similarity index over fixed-width embeddings.
	KindVector Kind = "vector"
	// KindText is a full-text index over string fields.
	KindText Kind = "text"
)

// Similarity is the vector similarity metric.
type Similarity string

const (
	// SimilarityCosine is cosine similarity.
	SimilarityCosine Similarity = "cosine"
	// SimilarityDotProduct is inner product similarity.
	SimilarityDotProduct Similarity = "dotProduct"
	// SimilarityEuclidean is euclidean (L2) distance.
	SimilarityEuclidean Similarity = "euclidean"
)

// Valid reports whether s is one of the supported metrics.
func (s Similarity) Valid() bool {
	switch s {
	case SimilarityCosine, SimilarityDotProduct, SimilarityEuclidean:
		return true
	}
	return false
}

// ParseSimilarity accepts the canonical names plus the common aliases
// (dot_product, ip, l2).
func ParseSimilarity(s string) (Similarity, error) {
	switch s {
	case "cosine", "COSINE":
		return SimilarityCosine, nil
	case "dotProduct", "dot_product", "ip", "IP":
		return SimilarityDotProduct, nil
	case "euclidean", "l2", "L2":
		return SimilarityEuclidean, nil
	}
	return "", fmt.Errorf("unknown similarity %q", s)
}

// VectorDefinition maps one embedding field.
type VectorDefinition struct {
	Path          string
	NumDimensions int
	Similarity    Similarity
}

// TextField binds a document field to a text analyzer.
type TextField struct {
	Path     string
	Analyzer string
}

// TextDefinition is a full-text field mapping.
type TextDefinition struct {
	Dynamic bool
	Fields  []TextField
}

// Specification describes one search index required on a collection.
// Exactly one of Vector or Text is set, matching Kind.
type Specification struct {
	Name   string
	Kind   Kind
	Vector *VectorDefinition
	Text   *TextDefinition
}

// Validate checks that the specification is well-formed.
func (s *Specification) Validate() error {
	if s.Name == "" {
		return errors.New("index name is required")
	}
	if !IsValidName(s.Name) {
		return fmt.Errorf("index name %q contains invalid characters", s.Name)
	}

	switch s.Kind {
	case KindVector:
		if s.Vector == nil {
			return fmt.Errorf("index %s: vector definition is required", s.Name)
		}
		if s.Text != nil {
			return fmt.Errorf("index %s: vector index must not carry a text definition", s.Name)
		}
		if s.Vector.Path == "" {
			return fmt.Errorf("index %s: vector path is required", s.Name)
		}
		if s.Vector.NumDimensions <= 0 {
			return fmt.Errorf("index %s: numDimensions must be positive, got %d", s.Name, s.Vector.NumDimensions)
		}
		if !s.Vector.Similarity.Valid() {
			return fmt.Errorf("index %s: unsupported similarity %q", s.Name, s.Vector.Similarity)
		}
	case KindText:
		if s.Text == nil {
			return fmt.Errorf("index %s: text definition is required", s.Name)
		}
		if s.Vector != nil {
			return fmt.Errorf("index %s: text index must not carry a vector definition", s.Name)
		}
		if !s.Text.Dynamic && len(s.Text.Fields) == 0 {
			return fmt.Errorf("index %s: static text mapping requires at least one field", s.Name)
		}
		seen := make(map[string]bool, len(s.Text.Fields))
		for i, f := range s.Text.Fields {
			if f.Path == "" {
				return fmt.Errorf("index %s: field path is required at position %s", s.Name, strconv.Itoa(i))
			}
			if seen[f.Path] {
				return fmt.Errorf("index %s: duplicate field %s", s.Name, f.Path)
			}
			seen[f.Path] = true
		}
	default:
		return fmt.Errorf("index %s: unknown kind %q", s.Name, s.Kind)
	}

	return nil
}

// ValidateSet validates every specification, rejects duplicate names and,
// when embeddingDim is positive, vector indexes of a different width.
func ValidateSet(specs []Specification, embeddingDim int) error {
	if len(specs) == 0 {
		return errors.New("at least one index specification is required")
	}
	names := make(map[string]bool, len(specs))
	for i := range specs {
		s := &specs[i]
		if err := s.Validate(); err != nil {
			return err
		}
		if names[s.Name] {
			return fmt.Errorf("duplicate index name: %s", s.Name)
		}
		names[s.Name] = true

		if s.Kind == KindVector && embeddingDim > 0 && s.Vector.NumDimensions != embeddingDim {
			return fmt.Errorf("index %s: numDimensions %d does not match embedding width %d",
				s.Name, s.Vector.NumDimensions, embeddingDim)
		}
	}
	return nil
}

// IsValidName returns true if s matches [a-zA-Z0-9_-]+.
func IsValidName(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		isAlpha := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
		isDigit := r >= '0' && r <= '9'
		if !isAlpha && !isDigit && r != '_' && r != '-' {
			return false
		}
	}
	return true
}

// Names returns the specification names in order.
func Names(specs []Specification) []string {
	out := make([]string, len(specs))
	for i := range specs {
		out[i] = specs[i].Name
	}
	return out
}
