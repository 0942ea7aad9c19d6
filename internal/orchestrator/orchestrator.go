// Package orchestrator fans a prefix list out across a bounded pool of crawl
// workers, each owning one isolated browser session, and aggregates the
// admitted records plus a run summary.
package orchestrator

import (
	"context"
	"fmt"
	"regexp"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/newbizpulse/sunbiz-crawler/internal/extract"
	"github.com/newbizpulse/sunbiz-crawler/internal/metrics"
	"github.com/newbizpulse/sunbiz-crawler/internal/prefix"
	"github.com/newbizpulse/sunbiz-crawler/internal/registry"
	"github.com/newbizpulse/sunbiz-crawler/internal/snapshot"
	"github.com/newbizpulse/sunbiz-crawler/internal/window"
)

// Options wires an orchestrator run.
type Options struct {
	Sessions    registry.SessionFactory
	Fetcher     registry.DetailFetcher // optional fast path, shared (stateless)
	Extractor   *extract.Extractor
	Policy      window.Policy
	Window      window.Window
	StatusRx    *regexp.Regexp
	Caps        prefix.Caps
	GlobalCap   int
	Concurrency int
	Sink        registry.Sink
	Snapshots   snapshot.Store
	Clock       registry.Clock
	Logger      *zap.Logger
}

// Orchestrator runs crawls. Safe to reuse across runs; per-run state (caps,
// window) is recomputed on every Run.
type Orchestrator struct {
	opts Options
}

// New validates the wiring and builds an Orchestrator.
func New(opts Options) (*Orchestrator, error) {
	if opts.Sessions == nil {
		return nil, fmt.Errorf("orchestrator: session factory is required")
	}
	if opts.Extractor == nil {
		return nil, fmt.Errorf("orchestrator: extractor is required")
	}
	if opts.Clock == nil {
		return nil, fmt.Errorf("orchestrator: clock is required")
	}
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Orchestrator{opts: opts}, nil
}

type workerResult struct {
	records   []registry.Record
	tally     registry.Summary
	attempted int
	failed    int
}

// Run crawls all prefixes and returns the flattened record list plus the run
// summary. A failing prefix is logged and counted, never fatal; only an empty
// prefix set aborts before any worker starts.
func (o *Orchestrator) Run(ctx context.Context, prefixes []string) ([]registry.Record, registry.Summary, error) {
	summary := registry.Summary{
		RunID:   uuid.NewString(),
		Started: o.opts.Clock.Now(),
	}
	if len(prefixes) == 0 {
		return nil, summary, registry.ErrNoPrefixes
	}

	workers := o.opts.Concurrency
	if workers > len(prefixes) {
		workers = len(prefixes)
	}
	global := prefix.NewCap(o.opts.GlobalCap)

	// Round-robin partitioning spreads slow prefixes across workers instead
	// of serializing them behind one another.
	buckets := make([][]string, workers)
	for i, p := range prefixes {
		buckets[i%workers] = append(buckets[i%workers], p)
	}

	o.opts.Logger.Info("crawl run starting",
		zap.String("run_id", summary.RunID),
		zap.Int("prefixes", len(prefixes)),
		zap.Int("workers", workers),
		zap.Int("global_cap", o.opts.GlobalCap),
	)

	results := make(chan workerResult, workers)
	var wg sync.WaitGroup
	for i, bucket := range buckets {
		wg.Add(1)
		go func(worker int, batch []string) {
			defer wg.Done()
			results <- o.runWorker(ctx, worker, batch, global)
		}(i, bucket)
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	var records []registry.Record
	for res := range results {
		records = append(records, res.records...)
		summary.Merge(res.tally)
		summary.PrefixesAttempted += res.attempted
		summary.PrefixesFailed += res.failed
	}
	summary.Finished = o.opts.Clock.Now()

	o.opts.Logger.Info("crawl run finished",
		zap.String("run_id", summary.RunID),
		zap.Int("admitted", summary.Admitted),
		zap.Int("prefixes_failed", summary.PrefixesFailed),
		zap.Duration("elapsed", summary.Finished.Sub(summary.Started)),
	)
	return records, summary, nil
}

// runWorker owns one browser session for its whole bucket. A session that
// cannot start fails every prefix in the bucket; a crash inside one prefix is
// recovered and does not affect the worker's remaining prefixes.
func (o *Orchestrator) runWorker(ctx context.Context, worker int, batch []string, global *prefix.Cap) workerResult {
	res := workerResult{attempted: len(batch)}
	logger := o.opts.Logger.With(zap.Int("worker", worker))

	session, err := o.opts.Sessions(ctx)
	if err != nil {
		logger.Error("session start failed, bucket abandoned",
			zap.Strings("prefixes", batch), zap.Error(err))
		metrics.PrefixesFailed.Add(float64(len(batch)))
		res.failed = len(batch)
		return res
	}
	defer session.Close()

	crawler := prefix.New(prefix.Options{
		Session:   session,
		Fetcher:   o.opts.Fetcher,
		Extractor: o.opts.Extractor,
		Policy:    o.opts.Policy,
		Window:    o.opts.Window,
		StatusRx:  o.opts.StatusRx,
		Caps:      o.opts.Caps,
		Global:    global,
		Sink:      o.opts.Sink,
		Snapshots: o.opts.Snapshots,
		Clock:     o.opts.Clock,
		Logger:    logger,
	})

	for _, p := range batch {
		if ctx.Err() != nil {
			return res
		}
		if global.Reached() {
			return res
		}
		kept, tally, err := o.crawlOne(ctx, crawler, p)
		res.tally.Merge(tally)
		if err != nil {
			logger.Error("prefix crawl failed", zap.String("prefix", p), zap.Error(err))
			metrics.PrefixesFailed.Inc()
			res.failed++
			continue
		}
		res.records = append(res.records, kept...)
	}
	return res
}

func (o *Orchestrator) crawlOne(ctx context.Context, crawler *prefix.Crawler, p string) (kept []registry.Record, tally registry.Summary, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("prefix %q panicked: %v", p, r)
		}
	}()
	return crawler.Crawl(ctx, p)
}
