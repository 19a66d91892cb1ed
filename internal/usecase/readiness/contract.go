package readiness

import (
	"context"

	"github.com/kailas-cloud/chunkdex/internal/domain/index"
)

// IndexLister defines the database contract for readiness polling.
type IndexLister interface {
	ListSearchIndexes(ctx context.Context, collection string) ([]index.Status, error)
}
