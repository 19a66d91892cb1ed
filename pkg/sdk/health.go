package chunkdex

import (
	"context"

	healthuc "github.com/kailas-cloud/chunkdex/internal/usecase/health"
)

// Health checks the database, the model settings (when configured) and the
// search indexes of collection.
func (c *Client) Health(ctx context.Context, collection string) HealthStatus {
	svc := healthuc.New(c.store, nil).WithIndexes(c.readinessSvc, collection, c.IndexNames()...)
	if c.factory != nil {
		svc = svc.WithConfigValidator(c.factory)
	}

	report := svc.Check(ctx)
	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}
	return HealthStatus{
		Status: string(report.Status),
		Checks: checks,
	}
}
