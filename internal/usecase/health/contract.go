package health

import (
	"context"

	"github.com/kailas-cloud/chunkdex/internal/domain/index"
)

// DBPinger checks database availability.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// ModelChecker checks model endpoint availability.
type ModelChecker interface {
	HealthCheck(ctx context.Context) error
}

// ConfigValidator reports whether the model settings can build a client.
type ConfigValidator interface {
	ValidateLLMConfiguration() bool
}

// IndexChecker reports whether the search indexes of a collection have settled.
type IndexChecker interface {
	Check(ctx context.Context, collection string, expected ...string) ([]index.Status, bool, error)
}
