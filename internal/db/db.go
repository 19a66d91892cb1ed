package db

import (
	"context"
	"time"

	"github.com/kailas-cloud/chunkdex/internal/domain/index"
)

// IndexManager is the database boundary used by provisioning and readiness
// polling. Implementations are safe for sequential use by a single run.
type IndexManager interface {
	Pinger
	IndexCreator
	IndexLister
	Close(ctx context.Context) error
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// IndexCreator submits search index creation requests.
type IndexCreator interface {
	// CreateSearchIndex submits spec for collection and returns the server
	// acknowledgement. An existing index with the same name yields ErrIndexExists.
	CreateSearchIndex(ctx context.Context, collection string, spec index.Specification) (string, error)
}

// IndexLister lists search indexes with their current status.
type IndexLister interface {
	ListSearchIndexes(ctx context.Context, collection string) ([]index.Status, error)
}
