package readiness

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/chunkdex/internal/domain"
	"github.com/kailas-cloud/chunkdex/internal/domain/index"
	"github.com/kailas-cloud/chunkdex/internal/metrics"
)

// DefaultInterval is the pause between polls.
const DefaultInterval = 10 * time.Second

// Sleeper suspends the caller for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// Clock returns the current time.
type Clock func() time.Time

// Result describes a finished wait.
type Result struct {
	Polls    int
	Statuses []index.Status
	Elapsed  time.Duration
}

// Poller blocks until every search index of a collection has left the
// PENDING state.
type Poller struct {
	lister   IndexLister
	interval time.Duration
	maxWait  time.Duration
	sleep    Sleeper
	now      Clock
	logger   *zap.Logger
}

// Option configures a Poller.
type Option func(*Poller)

// WithInterval sets the pause between polls.
func WithInterval(d time.Duration) Option {
	return func(p *Poller) {
		if d > 0 {
			p.interval = d
		}
	}
}

// WithMaxWait bounds the wait; zero waits until convergence or cancellation.
func WithMaxWait(d time.Duration) Option {
	return func(p *Poller) { p.maxWait = d }
}

// WithSleeper replaces the sleep between polls.
func WithSleeper(s Sleeper) Option {
	return func(p *Poller) { p.sleep = s }
}

// WithClock replaces the time source used for MaxWait accounting.
func WithClock(c Clock) Option {
	return func(p *Poller) { p.now = c }
}

// WithLogger sets the progress logger.
func WithLogger(l *zap.Logger) Option {
	return func(p *Poller) { p.logger = l }
}

// New creates a Poller.
func New(lister IndexLister, opts ...Option) *Poller {
	p := &Poller{
		lister:   lister,
		interval: DefaultInterval,
		sleep:    contextSleep,
		now:      time.Now,
		logger:   zap.NewNop(),
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// AwaitReady polls the collection's search indexes until the list is
// non-empty, contains every expected name and has no PENDING entry. An empty
// list never counts as converged. List errors abort the wait.
func (p *Poller) AwaitReady(ctx context.Context, collection string, expected ...string) (Result, error) {
	var res Result
	start := p.now()

	for {
		statuses, err := p.lister.ListSearchIndexes(ctx, collection)
		res.Polls++
		res.Elapsed = p.now().Sub(start)
		if err != nil {
			metrics.IndexPollsTotal.WithLabelValues(collection, "error").Inc()
			return res, fmt.Errorf("list search indexes: %w", err)
		}
		res.Statuses = statuses

		p.report(collection, statuses)

		if index.Settled(statuses, expected) {
			metrics.IndexPollsTotal.WithLabelValues(collection, "converged").Inc()
			p.logger.Info("Search indexes ready",
				zap.String("collection", collection),
				zap.Int("polls", res.Polls),
				zap.Duration("elapsed", res.Elapsed),
			)
			return res, nil
		}
		metrics.IndexPollsTotal.WithLabelValues(collection, "pending").Inc()

		wait := p.interval
		if p.maxWait > 0 {
			remaining := p.maxWait - res.Elapsed
			if remaining <= 0 {
				return res, fmt.Errorf("%w: search indexes on %s not ready after %s (%d polls)",
					domain.ErrTimeout, collection, res.Elapsed, res.Polls)
			}
			if remaining < wait {
				wait = remaining
			}
		}

		p.logger.Info("waiting...",
			zap.String("collection", collection),
			zap.Duration("retry_in", wait),
		)
		if err := p.sleep(ctx, wait); err != nil {
			return res, fmt.Errorf("await search indexes: %w", err)
		}
	}
}

// Check performs a single poll and reports whether the collection has
// converged.
func (p *Poller) Check(ctx context.Context, collection string, expected ...string) ([]index.Status, bool, error) {
	statuses, err := p.lister.ListSearchIndexes(ctx, collection)
	if err != nil {
		return nil, false, fmt.Errorf("list search indexes: %w", err)
	}
	return statuses, index.Settled(statuses, expected), nil
}

func (p *Poller) report(collection string, statuses []index.Status) {
	pending := 0
	for _, s := range statuses {
		if s.Pending() {
			pending++
		}
		p.logger.Info("Search index status",
			zap.String("collection", collection),
			zap.String("index", s.Name),
			zap.String("status", string(s.Status)),
		)
	}
	if len(statuses) == 0 {
		p.logger.Info("No search indexes visible yet", zap.String("collection", collection))
	}
	metrics.IndexPendingGauge.WithLabelValues(collection).Set(float64(pending))
}

func contextSleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
