package provision

import (
	"context"

	"github.com/kailas-cloud/chunkdex/internal/domain/index"
)

// IndexCreator defines the database contract for index creation.
type IndexCreator interface {
	CreateSearchIndex(ctx context.Context, collection string, spec index.Specification) (string, error)
}
