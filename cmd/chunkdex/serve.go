package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/chunkdex/internal/domain/index"
	"github.com/kailas-cloud/chunkdex/internal/metrics"
	chiTransport "github.com/kailas-cloud/chunkdex/internal/transport/chi"
	healthuc "github.com/kailas-cloud/chunkdex/internal/usecase/health"
	provisionuc "github.com/kailas-cloud/chunkdex/internal/usecase/provision"
	"github.com/kailas-cloud/chunkdex/internal/usecase/readiness"
	"github.com/kailas-cloud/chunkdex/internal/version"
)

func newServeCmd(g *globalOptions) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve health, metrics, model and index diagnostics over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := g.load()
			if err != nil {
				return err
			}
			defer a.close()
			if port > 0 {
				a.cfg.HTTP.Port = port
			}
			return runServe(cmd.Context(), a)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "Listen port (default from config)")

	return cmd
}

func runServe(parent context.Context, a *app) error {
	cfg, logger := a.cfg, a.logger

	logger.Info("Starting chunkdex diagnostics server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", a.env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("db_driver", cfg.Database.Driver),
	)

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close(context.Background()) }()

	// Register metrics explicitly (no init())
	metrics.RegisterModelMetrics()
	metrics.RegisterIndexMetrics()
	metrics.RegisterHTTPMetrics()

	factory := a.factory()
	if !factory.ValidateLLMConfiguration() {
		logger.Warn("LLM configuration is invalid, model checks will report errors")
	}

	collection := cfg.Database.Collection
	specs := cfg.IndexSpecifications()
	poller := readiness.New(store, readiness.WithLogger(logger))

	// Pass a nil interface (not a typed nil pointer) when no client can be built.
	var model healthuc.ModelChecker
	if client, err := factory.LLMModel(""); err == nil {
		model = client
	}
	healthSvc := healthuc.New(store, model).
		WithConfigValidator(factory).
		WithIndexes(poller, collection, index.Names(specs)...)

	provisioner := provisionuc.New(store, cfg.Index.Dimensions, logger).WithConcurrency(cfg.Index.Concurrency)
	server := chiTransport.NewServer(healthSvc, factory, poller, provisioner, collection, specs, logger)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      chiTransport.NewRouter(server, cfg.Auth.APIKeys, logger),
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
		logger.Info("Received shutdown signal")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
	return nil
}
