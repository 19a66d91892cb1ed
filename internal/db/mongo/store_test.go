package mongo

import (
	"context"
	"errors"
	"testing"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/kailas-cloud/chunkdex/internal/db"
	"github.com/kailas-cloud/chunkdex/internal/domain"
	"github.com/kailas-cloud/chunkdex/internal/domain/index"
)

type fakeView struct {
	created   []mongo.SearchIndexModel
	createErr error
	docs      []interface{}
	listErr   error
}

func (f *fakeView) CreateOne(
	_ context.Context, model mongo.SearchIndexModel, _ ...*options.CreateSearchIndexesOptions,
) (string, error) {
	if f.createErr != nil {
		return "", f.createErr
	}
	f.created = append(f.created, model)
	return *model.Options.Name, nil
}

func (f *fakeView) List(
	_ context.Context, _ *options.SearchIndexesOptions, _ ...*options.ListSearchIndexesOptions,
) (*mongo.Cursor, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return mongo.NewCursorFromDocuments(f.docs, nil, nil)
}

func newTestStore(v *fakeView) *Store {
	return &Store{views: func(string) searchIndexView { return v }}
}

func TestCreateSearchIndex_Vector(t *testing.T) {
	v := &fakeView{}
	s := newTestStore(v)

	spec := index.NewVector("vector_index", "embedding", 1024).MustBuild()
	ack, err := s.CreateSearchIndex(context.Background(), "chunks", spec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ack != "vector_index" {
		t.Errorf("ack = %q, want vector_index", ack)
	}

	if len(v.created) != 1 {
		t.Fatalf("created = %d, want 1", len(v.created))
	}
	m := v.created[0]
	if *m.Options.Type != "vectorSearch" {
		t.Errorf("type = %q, want vectorSearch", *m.Options.Type)
	}

	want := bson.D{{Key: "fields", Value: bson.A{bson.D{
		{Key: "type", Value: "vector"},
		{Key: "path", Value: "embedding"},
		{Key: "numDimensions", Value: 1024},
		{Key: "similarity", Value: "cosine"},
	}}}}
	assertSameBSON(t, m.Definition, want)
}

func TestCreateSearchIndex_Text(t *testing.T) {
	v := &fakeView{}
	s := newTestStore(v)

	spec := index.NewText("text_index").Field("content", "standard").MustBuild()
	if _, err := s.CreateSearchIndex(context.Background(), "chunks", spec); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	m := v.created[0]
	if *m.Options.Type != "search" {
		t.Errorf("type = %q, want search", *m.Options.Type)
	}
	want := bson.D{{Key: "mappings", Value: bson.D{
		{Key: "dynamic", Value: false},
		{Key: "fields", Value: bson.D{
			{Key: "content", Value: bson.D{
				{Key: "type", Value: "string"},
				{Key: "analyzer", Value: "lucene.standard"},
			}},
		}},
	}}}
	assertSameBSON(t, m.Definition, want)
}

func TestCreateSearchIndex_Duplicate(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"code", mongo.CommandError{Code: 68, Message: "Index already exists"}},
		{"name", mongo.CommandError{Name: "IndexAlreadyExists", Message: "x"}},
		{"message", errors.New("Duplicate Index")},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := newTestStore(&fakeView{createErr: tc.err})
			spec := index.NewVector("vector_index", "embedding", 4).MustBuild()
			_, err := s.CreateSearchIndex(context.Background(), "chunks", spec)
			if !errors.Is(err, db.ErrIndexExists) {
				t.Errorf("expected ErrIndexExists, got %v", err)
			}
		})
	}
}

func TestCreateSearchIndex_OtherError(t *testing.T) {
	s := newTestStore(&fakeView{createErr: mongo.CommandError{Code: 8, Message: "unauthorized"}})
	spec := index.NewVector("vector_index", "embedding", 4).MustBuild()

	_, err := s.CreateSearchIndex(context.Background(), "chunks", spec)
	if err == nil {
		t.Fatal("expected error")
	}
	if errors.Is(err, db.ErrIndexExists) {
		t.Error("unexpected ErrIndexExists")
	}
	var dbErr *db.Error
	if !errors.As(err, &dbErr) || dbErr.Op != db.OpCreateIndex {
		t.Errorf("expected db.Error with create op, got %v", err)
	}
}

func TestListSearchIndexes(t *testing.T) {
	v := &fakeView{docs: []interface{}{
		bson.D{{Key: "id", Value: "1"}, {Key: "name", Value: "vector_index"},
			{Key: "type", Value: "vectorSearch"}, {Key: "status", Value: "PENDING"}, {Key: "queryable", Value: false}},
		bson.D{{Key: "id", Value: "2"}, {Key: "name", Value: "text_index"},
			{Key: "type", Value: "search"}, {Key: "status", Value: "READY"}, {Key: "queryable", Value: true}},
		bson.D{{Key: "id", Value: "3"}, {Key: "name", Value: "legacy"}},
	}}
	s := newTestStore(v)

	got, err := s.ListSearchIndexes(context.Background(), "chunks")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	if got[0].Name != "vector_index" || !got[0].Pending() {
		t.Errorf("got[0] = %+v", got[0])
	}
	if got[1].Status != "READY" || !got[1].Queryable {
		t.Errorf("got[1] = %+v", got[1])
	}
	if got[2].Status != "unknown" {
		t.Errorf("missing status should read as unknown, got %q", got[2].Status)
	}
}

func TestListSearchIndexes_Error(t *testing.T) {
	s := newTestStore(&fakeView{listErr: mongo.ErrClientDisconnected})

	_, err := s.ListSearchIndexes(context.Background(), "chunks")
	if !errors.Is(err, domain.ErrConnection) {
		t.Errorf("expected ErrConnection, got %v", err)
	}
}

func TestAnalyzerName(t *testing.T) {
	for in, want := range map[string]string{
		"standard":        "lucene.standard",
		"lucene.english":  "lucene.english",
		"custom.analyzer": "custom.analyzer",
	} {
		if got := analyzerName(in); got != want {
			t.Errorf("analyzerName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNewStore_Validation(t *testing.T) {
	if _, err := NewStore(context.Background(), Config{Database: "rag_db"}); err == nil {
		t.Error("expected error for missing uri")
	}
	if _, err := NewStore(context.Background(), Config{URI: "mongodb://localhost"}); err == nil {
		t.Error("expected error for missing database")
	}
}

func TestClose_NilClient(t *testing.T) {
	s := &Store{}
	if err := s.Close(context.Background()); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func assertSameBSON(t *testing.T, got, want interface{}) {
	t.Helper()
	gotRaw, err := bson.Marshal(bson.D{{Key: "v", Value: got}})
	if err != nil {
		t.Fatalf("marshal got: %v", err)
	}
	wantRaw, err := bson.Marshal(bson.D{{Key: "v", Value: want}})
	if err != nil {
		t.Fatalf("marshal want: %v", err)
	}
	if string(gotRaw) != string(wantRaw) {
		t.Errorf("definition mismatch:\ngot:  %v\nwant: %v", bson.Raw(gotRaw), bson.Raw(wantRaw))
	}
}
