package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/chunkdex/internal/db"
	"github.com/kailas-cloud/chunkdex/internal/domain"
)

// Compile-time check: Store implements db.IndexManager.
var _ db.IndexManager = (*Store)(nil)

// Config holds connection parameters for a Redis or Valkey store.
type Config struct {
	Addrs    []string
	Username string
	Password string
	DB       int

	// Namespace scopes index names and key prefixes, playing the role of a
	// database name: indexes are named <namespace>:<collection>:<index>.
	Namespace string
	// Valkey selects valkey-search semantics (no TEXT fields).
	Valkey bool
	HNSW   HNSWConfig
}

// Store implements db.IndexManager via rueidis for Redis 8+ and Valkey.
type Store struct {
	client     rueidis.Client
	namespace  string
	textSearch bool
	hnsw       HNSWConfig
}

// NewStore creates a store via rueidis.
func NewStore(cfg Config) (*Store, error) {
	if len(cfg.Addrs) == 0 {
		return nil, fmt.Errorf("addrs is required")
	}

	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  cfg.Addrs,
		Username:     cfg.Username,
		Password:     cfg.Password,
		SelectDB:     cfg.DB,
		DisableCache: true,
		AlwaysRESP2:  true, // FT.INFO parsing expects RESP2 flat arrays
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w: %w", domain.ErrConnection, err)
	}

	return newStore(client, cfg), nil
}

// NewStoreForTest creates a Store with the provided rueidis client (test-only).
func NewStoreForTest(c rueidis.Client, cfg Config) *Store {
	return newStore(c, cfg)
}

func newStore(c rueidis.Client, cfg Config) *Store {
	ns := cfg.Namespace
	if ns == "" {
		ns = "chunkdex"
	}
	return &Store{
		client:     c,
		namespace:  ns,
		textSearch: !cfg.Valkey,
		hnsw:       cfg.HNSW,
	}
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	cmd := s.client.B().Ping().Build()
	if err := s.client.Do(ctx, cmd).Error(); err != nil {
		return &db.Error{Op: db.OpPing, Err: classify(err)}
	}
	return nil
}

// Close shuts down the client.
func (s *Store) Close(_ context.Context) error {
	s.client.Close()
	return nil
}

// WaitForReady polls Ping until the store responds or timeout expires.
func (s *Store) WaitForReady(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(100 * time.Millisecond)
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

func (s *Store) do(ctx context.Context, cmd rueidis.Completed) rueidis.RedisResult {
	return s.client.Do(ctx, cmd)
}

func (s *Store) b() rueidis.Builder {
	return s.client.B()
}

// classify marks transport-level failures as connection errors. Server
// replies and context errors are returned untouched.
func classify(err error) error {
	if _, ok := rueidis.IsRedisErr(err); ok {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%w: %w", domain.ErrConnection, err)
}

// isRedisErr checks if err is a Redis server error containing substr (case-insensitive).
func isRedisErr(err error, substr string) bool {
	re, ok := rueidis.IsRedisErr(err)
	if !ok {
		return false
	}
	return strings.Contains(strings.ToLower(re.Error()), strings.ToLower(substr))
}
