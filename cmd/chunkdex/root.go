package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/chunkdex/internal/config"
	"github.com/kailas-cloud/chunkdex/internal/db"
	dbMongo "github.com/kailas-cloud/chunkdex/internal/db/mongo"
	dbRedis "github.com/kailas-cloud/chunkdex/internal/db/redis"
	logpkg "github.com/kailas-cloud/chunkdex/internal/logger"
	"github.com/kailas-cloud/chunkdex/internal/provider"
	"github.com/kailas-cloud/chunkdex/internal/version"
)

// globalOptions are the persistent flags shared by every subcommand.
type globalOptions struct {
	env        string
	logLevel   string
	collection string
}

// app is the loaded configuration and logger of one command run.
type app struct {
	env    string
	cfg    config.Config
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	cmd := &cobra.Command{
		Use:   "chunkdex",
		Short: "Provision and check search indexes for a chunk collection",
		Long: `chunkdex creates the vector and full-text search indexes a RAG chunk
collection needs, waits until the database reports them ready, and exposes
model endpoint and index diagnostics.

Configuration is read from config/<env>.yaml; ${VAR:-default} references are
expanded from the environment.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	cmd.SetVersionTemplate("chunkdex version {{.Version}}\n")

	cmd.PersistentFlags().StringVar(&opts.env, "env", config.GetEnv(), "Configuration environment (local, dev, prod)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Override the configured log level")
	cmd.PersistentFlags().StringVar(&opts.collection, "collection", "", "Override the configured collection")

	cmd.AddCommand(newProvisionCmd(opts))
	cmd.AddCommand(newStatusCmd(opts))
	cmd.AddCommand(newModelsCmd(opts))
	cmd.AddCommand(newValidateCmd(opts))
	cmd.AddCommand(newServeCmd(opts))
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// load reads configuration and builds the logger.
func (o *globalOptions) load() (*app, error) {
	cfg, err := config.Load(o.env)
	if err != nil {
		return nil, err
	}
	if o.collection != "" {
		cfg.Database.Collection = o.collection
	}

	level := cfg.Logging.Level
	if o.logLevel != "" {
		level = o.logLevel
	}
	logger, err := logpkg.NewLogger(o.env, level)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	return &app{env: o.env, cfg: cfg, logger: logger}, nil
}

func (a *app) close() {
	_ = a.logger.Sync()
}

// openStore connects to the configured database and waits until it answers.
func (a *app) openStore(ctx context.Context) (db.IndexManager, error) {
	store, err := newStore(ctx, a.cfg.Database)
	if err != nil {
		return nil, err
	}

	timeout := time.Duration(a.cfg.Database.PingTimeoutSec) * time.Second
	if err := store.WaitForReady(ctx, timeout); err != nil {
		_ = store.Close(context.Background())
		return nil, fmt.Errorf("database not ready: %w", err)
	}

	a.logger.Info("Connected to database",
		zap.String("driver", a.cfg.Database.Driver),
		zap.String("database", a.cfg.Database.Name),
		zap.String("collection", a.cfg.Database.Collection),
	)
	return store, nil
}

// newStore builds the db.IndexManager for the configured driver.
func newStore(ctx context.Context, cfg config.DatabaseConfig) (db.IndexManager, error) {
	switch cfg.Driver {
	case config.DriverMongo:
		return dbMongo.NewStore(ctx, dbMongo.Config{
			URI:                    cfg.URI,
			Database:               cfg.Name,
			ServerSelectionTimeout: time.Duration(cfg.PingTimeoutSec) * time.Second,
		})
	case config.DriverRedis, config.DriverValkey:
		return dbRedis.NewStore(dbRedis.Config{
			Addrs:     cfg.Addrs,
			Password:  cfg.Password,
			Namespace: cfg.Name,
			Valkey:    cfg.Driver == config.DriverValkey,
			HNSW: dbRedis.HNSWConfig{
				M:           cfg.HNSWM,
				EFConstruct: cfg.HNSWEFConstruct,
			},
		})
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}

func (a *app) factory() *provider.Factory {
	return provider.NewFactory(a.cfg.ProviderSettings(), provider.WithLogger(a.logger))
}
