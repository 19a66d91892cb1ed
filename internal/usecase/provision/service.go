package provision

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/chunkdex/internal/db"
	"github.com/kailas-cloud/chunkdex/internal/domain"
	"github.com/kailas-cloud/chunkdex/internal/domain/index"
	"github.com/kailas-cloud/chunkdex/internal/metrics"
)

// Service submits search index creation requests.
type Service struct {
	creator      IndexCreator
	embeddingDim int
	concurrency  int
	logger       *zap.Logger
}

// New creates a provisioning service. embeddingDim, when positive, must match
// every vector specification.
func New(creator IndexCreator, embeddingDim int, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{creator: creator, embeddingDim: embeddingDim, concurrency: 1, logger: logger}
}

// WithConcurrency sets how many creation requests may be in flight. Values
// below 2 keep the sequential, specification-ordered behaviour.
func (s *Service) WithConcurrency(n int) *Service {
	if n < 1 {
		n = 1
	}
	s.concurrency = n
	return s
}

// Provision submits one creation request per specification. An index that
// already exists is logged and reported with AlreadyExisted; any other
// failure stops provisioning. Indexes created before a failure are kept and
// returned alongside the error.
func (s *Service) Provision(ctx context.Context, collection string, specs []index.Specification) ([]index.CreationResult, error) {
	if collection == "" {
		return nil, fmt.Errorf("%w: collection is required", domain.ErrInvalidSpecification)
	}
	if err := index.ValidateSet(specs, s.embeddingDim); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidSpecification, err)
	}

	results := make([]index.CreationResult, len(specs))

	if s.concurrency <= 1 {
		for i := range specs {
			res, err := s.create(ctx, collection, specs[i])
			if err != nil {
				return results[:i], err
			}
			results[i] = res
		}
		return results, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i := range specs {
		g.Go(func() error {
			res, err := s.create(gctx, collection, specs[i])
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return completed(results), err
	}
	return results, nil
}

// completed keeps the slots a worker filled, in specification order.
func completed(results []index.CreationResult) []index.CreationResult {
	done := make([]index.CreationResult, 0, len(results))
	for _, r := range results {
		if r.Name != "" {
			done = append(done, r)
		}
	}
	return done
}

func (s *Service) create(ctx context.Context, collection string, spec index.Specification) (index.CreationResult, error) {
	res := index.CreationResult{Name: spec.Name, Kind: spec.Kind}
	log := s.logger.With(
		zap.String("collection", collection),
		zap.String("index", spec.Name),
		zap.String("kind", string(spec.Kind)),
	)

	ack, err := s.creator.CreateSearchIndex(ctx, collection, spec)
	switch {
	case err == nil:
		res.Ack = ack
		metrics.IndexCreateTotal.WithLabelValues(string(spec.Kind), "created").Inc()
		log.Info("Index created", zap.String("ack", ack))
		return res, nil

	case errors.Is(err, db.ErrIndexExists):
		res.AlreadyExisted = true
		metrics.IndexCreateTotal.WithLabelValues(string(spec.Kind), "exists").Inc()
		log.Warn("Index already exists, continuing", zap.Error(err))
		return res, nil

	default:
		metrics.IndexCreateTotal.WithLabelValues(string(spec.Kind), "error").Inc()
		log.Error("Index creation failed", zap.Error(err))
		return res, fmt.Errorf("create index %s: %w", spec.Name, err)
	}
}
