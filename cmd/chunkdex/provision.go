package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/chunkdex/internal/domain/index"
	provisionuc "github.com/kailas-cloud/chunkdex/internal/usecase/provision"
	"github.com/kailas-cloud/chunkdex/internal/usecase/readiness"
)

type provisionOptions struct {
	noWait      bool
	maxWait     time.Duration
	interval    time.Duration
	concurrency int
}

func newProvisionCmd(g *globalOptions) *cobra.Command {
	opts := &provisionOptions{}

	cmd := &cobra.Command{
		Use:   "provision",
		Short: "Create the search indexes and wait until they are ready",
		Long: `Submit the vector and full-text index definitions for the configured
collection, then poll the database until no index reports PENDING.

Indexes that already exist are reported and left untouched.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runProvision(cmd, g, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.noWait, "no-wait", false, "Return after submitting the creation requests")
	cmd.Flags().DurationVar(&opts.maxWait, "max-wait", 0, "Give up waiting after this long (default from config, 0 = forever)")
	cmd.Flags().DurationVar(&opts.interval, "interval", 0, "Polling interval (default from config)")
	cmd.Flags().IntVar(&opts.concurrency, "concurrency", 0, "Creation requests in flight (default from config)")

	return cmd
}

func runProvision(cmd *cobra.Command, g *globalOptions, opts *provisionOptions) error {
	a, err := g.load()
	if err != nil {
		return err
	}
	defer a.close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close(context.Background()) }()

	concurrency := a.cfg.Index.Concurrency
	if opts.concurrency > 0 {
		concurrency = opts.concurrency
	}

	collection := a.cfg.Database.Collection
	specs := a.cfg.IndexSpecifications()

	svc := provisionuc.New(store, a.cfg.Index.Dimensions, a.logger).WithConcurrency(concurrency)
	results, err := svc.Provision(ctx, collection, specs)
	printCreationResults(cmd.OutOrStdout(), results)
	if err != nil {
		return err
	}

	if opts.noWait {
		return nil
	}

	interval := time.Duration(a.cfg.Index.PollIntervalSec) * time.Second
	if opts.interval > 0 {
		interval = opts.interval
	}
	maxWait := time.Duration(a.cfg.Index.MaxWaitSec) * time.Second
	if cmd.Flags().Changed("max-wait") {
		maxWait = opts.maxWait
	}

	poller := readiness.New(store,
		readiness.WithInterval(interval),
		readiness.WithMaxWait(maxWait),
		readiness.WithLogger(a.logger),
	)
	res, err := poller.AwaitReady(ctx, collection, index.Names(specs)...)
	if err != nil {
		printStatuses(cmd.OutOrStdout(), res.Statuses)
		return err
	}

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "All search indexes on %s are ready (%d polls, %s)\n",
		collection, res.Polls, res.Elapsed.Round(time.Second))
	return nil
}

func printCreationResults(w io.Writer, results []index.CreationResult) {
	for _, r := range results {
		if r.AlreadyExisted {
			_, _ = fmt.Fprintf(w, "%s index %s already exists\n", r.Kind, r.Name)
			continue
		}
		_, _ = fmt.Fprintf(w, "Created %s index: %s\n", r.Kind, r.Ack)
	}
}

func printStatuses(w io.Writer, statuses []index.Status) {
	if len(statuses) == 0 {
		_, _ = fmt.Fprintln(w, "No search indexes found")
		return
	}
	for _, s := range statuses {
		_, _ = fmt.Fprintf(w, "%s: %s\n", s.Name, s.Status)
	}
}
