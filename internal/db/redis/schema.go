package redis

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/kailas-cloud/chunkdex/internal/domain/index"
)

// StorageType defines the document storage backend for FT indexes (HASH or JSON).
type StorageType string

const (
	// StorageHash stores documents as Redis hashes.
	StorageHash StorageType = "HASH"
	// StorageJSON stores documents as JSON.
	StorageJSON StorageType = "JSON"
)

// DistanceMetric used by FT.SEARCH vector similarity queries.
type DistanceMetric string

const (
	// DistanceL2 is Euclidean distance.
	DistanceL2 DistanceMetric = "L2"
	// DistanceIP is inner product distance.
	DistanceIP DistanceMetric = "IP"
	// DistanceCosine is cosine distance.
	DistanceCosine DistanceMetric = "COSINE"
)

// VectorAlgorithm selects the indexing algorithm for vector fields in FT.CREATE.
type VectorAlgorithm string

const (
	// VectorHNSW uses the HNSW algorithm.
	VectorHNSW VectorAlgorithm = "HNSW"
	// VectorFlat uses the FLAT (brute-force) algorithm.
	VectorFlat VectorAlgorithm = "FLAT"
)

// FieldType enumerates the FT schema field types used by chunk indexes.
type FieldType int

const (
	// FieldText is a TEXT field.
	FieldText FieldType = iota
	// FieldVector is a VECTOR field.
	FieldVector
)

// HNSWConfig holds HNSW build parameters. Zero values use server defaults.
type HNSWConfig struct {
	M           int
	EFConstruct int
}

// Field describes a single field in an FT index schema.
type Field struct {
	Path   string // JSONPath, e.g. $.content
	Alias  string // AS alias in FT.CREATE SCHEMA
	Type   FieldType
	NoStem bool

	// VECTOR options
	VectorAlgo        VectorAlgorithm
	VectorDim         int
	VectorDistance    DistanceMetric
	VectorM           int
	VectorEFConstruct int
}

// Definition is a complete FT index definition used by FT.CREATE.
type Definition struct {
	Name        string
	StorageType StorageType
	Prefixes    []string
	Language    string
	Fields      []Field
}

// analyzerLanguages maps Lucene-style analyzer names to RediSearch LANGUAGE values.
var analyzerLanguages = map[string]string{
	"english":    "english",
	"french":     "french",
	"german":     "german",
	"italian":    "italian",
	"spanish":    "spanish",
	"portuguese": "portuguese",
	"russian":    "russian",
	"dutch":      "dutch",
	"chinese":    "chinese",
}

// toDistance maps a similarity metric to the FT distance metric.
func toDistance(s index.Similarity) (DistanceMetric, error) {
	switch s {
	case index.SimilarityCosine:
		return DistanceCosine, nil
	case index.SimilarityDotProduct:
		return DistanceIP, nil
	case index.SimilarityEuclidean:
		return DistanceL2, nil
	}
	return "", fmt.Errorf("unsupported similarity %q", s)
}

// buildDefinition translates a search index specification into an FT
// definition over JSON documents stored under prefix.
func buildDefinition(name, prefix string, spec index.Specification, hnsw HNSWConfig) (*Definition, error) {
	def := &Definition{
		Name:        name,
		StorageType: StorageJSON,
		Prefixes:    []string{prefix},
	}

	switch spec.Kind {
	case index.KindVector:
		distance, err := toDistance(spec.Vector.Similarity)
		if err != nil {
			return nil, err
		}
		def.Fields = append(def.Fields, Field{
			Path:              jsonPath(spec.Vector.Path),
			Alias:             spec.Vector.Path,
			Type:              FieldVector,
			VectorAlgo:        VectorHNSW,
			VectorDim:         spec.Vector.NumDimensions,
			VectorDistance:    distance,
			VectorM:           hnsw.M,
			VectorEFConstruct: hnsw.EFConstruct,
		})

	case index.KindText:
		if len(spec.Text.Fields) == 0 {
			return nil, errors.New("dynamic text mapping is not supported by FT indexes")
		}
		for _, f := range spec.Text.Fields {
			analyzer := strings.TrimPrefix(f.Analyzer, "lucene.")
			field := Field{Path: jsonPath(f.Path), Alias: f.Path, Type: FieldText}
			if analyzer == "keyword" {
				field.NoStem = true
			}
			if lang, ok := analyzerLanguages[analyzer]; ok && def.Language == "" {
				def.Language = lang
			}
			def.Fields = append(def.Fields, field)
		}

	default:
		return nil, fmt.Errorf("unknown index kind %q", spec.Kind)
	}

	return def, nil
}

func jsonPath(path string) string {
	if strings.HasPrefix(path, "$") {
		return path
	}
	return "$." + path
}

// String returns a debug representation resembling the FT.CREATE command.
func (d *Definition) String() string {
	args, err := buildCreateArgs(d)
	if err != nil {
		return "FT.CREATE " + d.Name + " <invalid: " + err.Error() + ">"
	}
	return "FT.CREATE " + strings.Join(args, " ")
}

func buildCreateArgs(d *Definition) ([]string, error) {
	if d.Name == "" {
		return nil, errors.New("index name is required")
	}
	if len(d.Fields) == 0 {
		return nil, errors.New("at least one field is required")
	}

	args := []string{d.Name}

	storage := d.StorageType
	if storage == "" {
		storage = StorageJSON
	}
	args = append(args, "ON", string(storage))

	if len(d.Prefixes) > 0 {
		args = append(args, "PREFIX", strconv.Itoa(len(d.Prefixes)))
		args = append(args, d.Prefixes...)
	}

	if d.Language != "" {
		args = append(args, "LANGUAGE", d.Language)
	}

	args = append(args, "SCHEMA")

	for i := range d.Fields {
		fieldArgs, err := buildFieldArgs(&d.Fields[i])
		if err != nil {
			return nil, err
		}
		args = append(args, fieldArgs...)
	}

	return args, nil
}

func buildFieldArgs(f *Field) ([]string, error) {
	if f.Path == "" {
		return nil, errors.New("field path is required")
	}

	args := []string{f.Path}

	if f.Alias != "" {
		args = append(args, "AS", f.Alias)
	}

	switch f.Type {
	case FieldText:
		args = append(args, "TEXT")
		if f.NoStem {
			args = append(args, "NOSTEM")
		}

	case FieldVector:
		vectorArgs, err := buildVectorFieldArgs(f)
		if err != nil {
			return nil, err
		}
		args = append(args, vectorArgs...)

	default:
		return nil, errors.New("unknown field type")
	}

	return args, nil
}

func buildVectorFieldArgs(f *Field) ([]string, error) {
	if f.VectorDim <= 0 {
		return nil, errors.New("vector DIM must be positive")
	}

	algo := f.VectorAlgo
	if algo == "" {
		algo = VectorFlat
	}

	distance := f.VectorDistance
	if distance == "" {
		distance = DistanceCosine
	}

	attrs := []string{
		"TYPE", "FLOAT32",
		"DIM", strconv.Itoa(f.VectorDim),
		"DISTANCE_METRIC", string(distance),
	}

	if algo == VectorHNSW {
		if f.VectorM > 0 {
			attrs = append(attrs, "M", strconv.Itoa(f.VectorM))
		}
		if f.VectorEFConstruct > 0 {
			attrs = append(attrs, "EF_CONSTRUCTION", strconv.Itoa(f.VectorEFConstruct))
		}
	}

	result := make([]string, 0, 3+len(attrs))
	result = append(result, "VECTOR", string(algo), strconv.Itoa(len(attrs)))
	result = append(result, attrs...)

	return result, nil
}
