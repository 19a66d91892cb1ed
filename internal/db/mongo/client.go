package mongo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/kailas-cloud/chunkdex/internal/db"
	"github.com/kailas-cloud/chunkdex/internal/domain"
)

// Compile-time check: Store implements db.IndexManager.
var _ db.IndexManager = (*Store)(nil)

// Config holds connection parameters for a MongoDB deployment with Atlas Search.
type Config struct {
	URI                    string
	Database               string
	ServerSelectionTimeout time.Duration
}

// searchIndexView is the subset of mongo.SearchIndexView the store uses.
type searchIndexView interface {
	CreateOne(ctx context.Context, model mongo.SearchIndexModel, opts ...*options.CreateSearchIndexesOptions) (string, error)
	List(ctx context.Context, searchIdxOpts *options.SearchIndexesOptions,
		opts ...*options.ListSearchIndexesOptions) (*mongo.Cursor, error)
}

// Store implements db.IndexManager over Atlas Search indexes.
type Store struct {
	client *mongo.Client
	views  func(collection string) searchIndexView
}

// NewStore connects to MongoDB. The connection is established lazily by the
// driver; use Ping or WaitForReady to verify it.
func NewStore(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.URI == "" {
		return nil, fmt.Errorf("uri is required")
	}
	if cfg.Database == "" {
		return nil, fmt.Errorf("database is required")
	}

	opts := options.Client().ApplyURI(cfg.URI)
	if cfg.ServerSelectionTimeout > 0 {
		opts.SetServerSelectionTimeout(cfg.ServerSelectionTimeout)
	}

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w: %w", domain.ErrConnection, err)
	}

	database := client.Database(cfg.Database)
	return &Store{
		client: client,
		views: func(collection string) searchIndexView {
			view := database.Collection(collection).SearchIndexes()
			return &view
		},
	}, nil
}

// Ping runs the admin ping command.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Database("admin").RunCommand(ctx, bson.D{{Key: "ping", Value: 1}}).Err(); err != nil {
		return &db.Error{Op: db.OpPing, Err: classify(err)}
	}
	return nil
}

// Close disconnects the client.
func (s *Store) Close(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	if err := s.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("disconnect: %w", err)
	}
	return nil
}

// WaitForReady polls Ping until the server responds or timeout expires.
func (s *Store) WaitForReady(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout waiting for database: %w: %w", domain.ErrConnection, ctx.Err())
		case <-ticker.C:
			if err := s.Ping(ctx); err == nil {
				return nil
			}
		}
	}
}

// classify marks network failures and server selection timeouts as
// connection errors.
func classify(err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	if mongo.IsNetworkError(err) || mongo.IsTimeout(err) || errors.Is(err, mongo.ErrClientDisconnected) {
		return fmt.Errorf("%w: %w", domain.ErrConnection, err)
	}
	if strings.Contains(err.Error(), "server selection error") {
		return fmt.Errorf("%w: %w", domain.ErrConnection, err)
	}
	return err
}

// isDuplicateIndex reports whether err is the server's answer to creating a
// search index whose name is taken.
func isDuplicateIndex(err error) bool {
	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) {
		if cmdErr.Code == 68 || cmdErr.Name == "IndexAlreadyExists" {
			return true
		}
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate index") || strings.Contains(msg, "already exists")
}
