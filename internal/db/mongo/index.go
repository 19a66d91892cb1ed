package mongo

import (
	"context"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/kailas-cloud/chunkdex/internal/db"
	"github.com/kailas-cloud/chunkdex/internal/domain/index"
)

// Atlas search index types.
const (
	typeVectorSearch = "vectorSearch"
	typeSearch       = "search"
)

// searchIndexDoc is one entry of $listSearchIndexes.
type searchIndexDoc struct {
	ID        string `bson:"id"`
	Name      string `bson:"name"`
	Type      string `bson:"type"`
	Status    string `bson:"status"`
	Queryable bool   `bson:"queryable"`
}

// CreateSearchIndex submits a createSearchIndexes command for spec.
func (s *Store) CreateSearchIndex(ctx context.Context, collection string, spec index.Specification) (string, error) {
	model, err := buildModel(spec)
	if err != nil {
		return "", &db.Error{Op: db.OpCreateIndex, Err: err}
	}

	ack, err := s.views(collection).CreateOne(ctx, model)
	if err != nil {
		if isDuplicateIndex(err) {
			return "", db.ErrIndexExists
		}
		return "", &db.Error{Op: db.OpCreateIndex, Err: classify(err)}
	}
	return ack, nil
}

// ListSearchIndexes runs $listSearchIndexes on collection.
func (s *Store) ListSearchIndexes(ctx context.Context, collection string) ([]index.Status, error) {
	cursor, err := s.views(collection).List(ctx, nil)
	if err != nil {
		return nil, &db.Error{Op: db.OpListIndexes, Err: classify(err)}
	}
	defer func() { _ = cursor.Close(ctx) }()

	var docs []searchIndexDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, &db.Error{Op: db.OpListIndexes, Err: classify(err)}
	}

	statuses := make([]index.Status, 0, len(docs))
	for _, d := range docs {
		status := d.Status
		if status == "" {
			status = "unknown"
		}
		statuses = append(statuses, index.Status{
			Name:      d.Name,
			Status:    index.State(status),
			Queryable: d.Queryable,
		})
	}
	return statuses, nil
}

// buildModel translates a specification into an Atlas search index model.
func buildModel(spec index.Specification) (mongo.SearchIndexModel, error) {
	opts := options.SearchIndexes().SetName(spec.Name)

	switch spec.Kind {
	case index.KindVector:
		v := spec.Vector
		return mongo.SearchIndexModel{
			Definition: bson.D{{Key: "fields", Value: bson.A{
				bson.D{
					{Key: "type", Value: "vector"},
					{Key: "path", Value: v.Path},
					{Key: "numDimensions", Value: v.NumDimensions},
					{Key: "similarity", Value: string(v.Similarity)},
				},
			}}},
			Options: opts.SetType(typeVectorSearch),
		}, nil

	case index.KindText:
		fields := bson.D{}
		for _, f := range spec.Text.Fields {
			field := bson.D{{Key: "type", Value: "string"}}
			if f.Analyzer != "" {
				field = append(field, bson.E{Key: "analyzer", Value: analyzerName(f.Analyzer)})
			}
			fields = append(fields, bson.E{Key: f.Path, Value: field})
		}
		return mongo.SearchIndexModel{
			Definition: bson.D{{Key: "mappings", Value: bson.D{
				{Key: "dynamic", Value: spec.Text.Dynamic},
				{Key: "fields", Value: fields},
			}}},
			Options: opts.SetType(typeSearch),
		}, nil
	}

	return mongo.SearchIndexModel{}, fmt.Errorf("unknown index kind %q", spec.Kind)
}

// analyzerName qualifies bare analyzer names ("standard") with the lucene
// namespace Atlas expects.
func analyzerName(a string) string {
	if strings.Contains(a, ".") {
		return a
	}
	return "lucene." + a
}
