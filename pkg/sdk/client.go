package chunkdex

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/chunkdex/internal/db"
	dbMongo "github.com/kailas-cloud/chunkdex/internal/db/mongo"
	dbRedis "github.com/kailas-cloud/chunkdex/internal/db/redis"
	"github.com/kailas-cloud/chunkdex/internal/domain"
	"github.com/kailas-cloud/chunkdex/internal/domain/index"
	"github.com/kailas-cloud/chunkdex/internal/provider"
	provisionuc "github.com/kailas-cloud/chunkdex/internal/usecase/provision"
	"github.com/kailas-cloud/chunkdex/internal/usecase/readiness"
)

const defaultReadinessTimeout = 10 * time.Second

const (
	driverMongo  = "mongodb"
	driverRedis  = "redis"
	driverValkey = "valkey"

	defaultDimensions = 1024
	defaultVectorPath = "embedding"
	defaultTextField  = "content"
)

// Внутренние интерфейсы для подмены в тестах.
type provisionUseCase interface {
	Provision(ctx context.Context, collection string, specs []index.Specification) ([]index.CreationResult, error)
}

type readinessUseCase interface {
	AwaitReady(ctx context.Context, collection string, expected ...string) (readiness.Result, error)
	Check(ctx context.Context, collection string, expected ...string) ([]index.Status, bool, error)
}

// Client is the chunkdex SDK entry point.
type Client struct {
	store        db.IndexManager
	provisionSvc provisionUseCase
	readinessSvc readinessUseCase
	factory      *provider.Factory
	specs        []index.Specification
	obs          *observer
}

// New creates a Client and connects to the database.
// The provided context is used for the initial readiness check.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		vectorDimensions: defaultDimensions,
		similarity:       string(index.SimilarityCosine),
		vectorPath:       defaultVectorPath,
		textField:        defaultTextField,
		concurrency:      1,
	}
	for _, o := range opts {
		o.apply(cfg)
	}

	specs, err := specifications(cfg)
	if err != nil {
		return nil, err
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	store, err := createStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
		_ = store.Close(context.Background())
		return nil, fmt.Errorf("chunkdex: database not ready: %w", err)
	}

	return wireClient(store, cfg, specs, obs), nil
}

func createStore(ctx context.Context, cfg *clientConfig) (db.IndexManager, error) {
	switch cfg.driver {
	case driverMongo:
		s, err := dbMongo.NewStore(ctx, dbMongo.Config{
			URI:                    cfg.uri,
			Database:               cfg.database,
			ServerSelectionTimeout: defaultReadinessTimeout,
		})
		if err != nil {
			return nil, fmt.Errorf("chunkdex: create mongodb store: %w", err)
		}
		return s, nil
	case driverRedis, driverValkey:
		s, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:     cfg.addrs,
			Password:  cfg.password,
			Namespace: cfg.database,
			Valkey:    cfg.driver == driverValkey,
			HNSW: dbRedis.HNSWConfig{
				M:           cfg.hnswM,
				EFConstruct: cfg.hnswEFConstruct,
			},
		})
		if err != nil {
			return nil, fmt.Errorf("chunkdex: create %s store: %w", cfg.driver, err)
		}
		return s, nil
	case "":
		return nil, errors.New("chunkdex: database required (use WithMongo, WithRedis or WithValkey)")
	default:
		return nil, fmt.Errorf("chunkdex: unknown driver %q", cfg.driver)
	}
}

// specifications builds and validates the index set the client provisions.
func specifications(cfg *clientConfig) ([]index.Specification, error) {
	sim, err := index.ParseSimilarity(cfg.similarity)
	if err != nil {
		return nil, fmt.Errorf("chunkdex: %w: %w", domain.ErrInvalidSpecification, err)
	}
	specs := index.DefaultSpecifications(cfg.vectorDimensions, sim, cfg.vectorPath, cfg.textField, "")
	if cfg.driver == driverValkey {
		specs = specs[:1]
	}
	if err := index.ValidateSet(specs, cfg.vectorDimensions); err != nil {
		return nil, fmt.Errorf("chunkdex: %w: %w", domain.ErrInvalidSpecification, err)
	}
	return specs, nil
}

func wireClient(store db.IndexManager, cfg *clientConfig, specs []index.Specification, obs *observer) *Client {
	logger := zap.NewNop()

	provisionSvc := provisionuc.New(store, cfg.vectorDimensions, logger).WithConcurrency(cfg.concurrency)
	poller := readiness.New(store,
		readiness.WithInterval(cfg.pollInterval),
		readiness.WithMaxWait(cfg.maxWait),
		readiness.WithLogger(logger),
	)

	var factory *provider.Factory
	if cfg.models != nil {
		factory = provider.NewFactory(toProviderSettings(*cfg.models, cfg.vectorDimensions),
			provider.WithLogger(logger))
	}

	return &Client{
		store:        store,
		provisionSvc: provisionSvc,
		readinessSvc: poller,
		factory:      factory,
		specs:        specs,
		obs:          obs,
	}
}

// Close releases all resources.
func (c *Client) Close(ctx context.Context) {
	if c.store != nil {
		_ = c.store.Close(ctx)
	}
}

// Ping checks database connectivity.
func (c *Client) Ping(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("ping", start, err) }()

	if err = c.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// IndexNames returns the names of the indexes the client provisions, in
// creation order.
func (c *Client) IndexNames() []string {
	return index.Names(c.specs)
}

// Provision submits the index definitions for collection in order. Indexes
// that already exist are reported with AlreadyExisted set. The first other
// failure stops provisioning; indexes created before it are kept.
func (c *Client) Provision(ctx context.Context, collection string) (_ []CreationResult, err error) {
	start := time.Now()
	defer func() { c.obs.observe("provision", start, err, "collection", collection) }()

	results, err := c.provisionSvc.Provision(ctx, collection, c.specs)
	if err != nil {
		return toCreationResults(results), fmt.Errorf("provision: %w", err)
	}
	return toCreationResults(results), nil
}

// AwaitReady blocks until every index of collection has been built, the
// configured max wait expires (ErrTimeout) or ctx is done.
func (c *Client) AwaitReady(ctx context.Context, collection string) (_ Readiness, err error) {
	start := time.Now()
	defer func() { c.obs.observe("await_ready", start, err, "collection", collection) }()

	res, err := c.readinessSvc.AwaitReady(ctx, collection, c.IndexNames()...)
	out := Readiness{
		Polls:   res.Polls,
		Elapsed: res.Elapsed,
		Indexes: toIndexStatuses(res.Statuses),
	}
	if err != nil {
		return out, fmt.Errorf("await ready: %w", err)
	}
	return out, nil
}

// EnsureIndexes provisions the indexes of collection and waits until they
// are built.
func (c *Client) EnsureIndexes(ctx context.Context, collection string) (Readiness, error) {
	if _, err := c.Provision(ctx, collection); err != nil {
		return Readiness{}, err
	}
	return c.AwaitReady(ctx, collection)
}

// Indexes polls collection once and reports its indexes and whether they
// are all built.
func (c *Client) Indexes(ctx context.Context, collection string) (_ []IndexStatus, ready bool, err error) {
	start := time.Now()
	defer func() { c.obs.observe("indexes", start, err, "collection", collection) }()

	statuses, ready, err := c.readinessSvc.Check(ctx, collection, c.IndexNames()...)
	if err != nil {
		return nil, false, fmt.Errorf("indexes: %w", err)
	}
	return toIndexStatuses(statuses), ready, nil
}

// Models describes the configured model endpoints.
func (c *Client) Models() (ModelInfo, error) {
	if c.factory == nil {
		return ModelInfo{}, ErrModelsNotConfigured
	}
	info := c.factory.ModelInfo()
	return ModelInfo{
		LLMProvider:    info.LLMProvider,
		LLMModel:       info.LLMModel,
		LLMBaseURL:     info.LLMBaseURL,
		EmbeddingModel: info.EmbeddingModel,
	}, nil
}

// ValidateModels reports whether an LLM client can be built from the model
// settings.
func (c *Client) ValidateModels() bool {
	return c.factory != nil && c.factory.ValidateLLMConfiguration()
}
