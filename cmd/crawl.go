package cmd

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"cloud.google.com/go/storage"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/newbizpulse/sunbiz-crawler/internal/api"
	"github.com/newbizpulse/sunbiz-crawler/internal/clock/system"
	"github.com/newbizpulse/sunbiz-crawler/internal/config"
	"github.com/newbizpulse/sunbiz-crawler/internal/extract"
	"github.com/newbizpulse/sunbiz-crawler/internal/fetch"
	"github.com/newbizpulse/sunbiz-crawler/internal/logging"
	"github.com/newbizpulse/sunbiz-crawler/internal/orchestrator"
	"github.com/newbizpulse/sunbiz-crawler/internal/prefix"
	"github.com/newbizpulse/sunbiz-crawler/internal/registry"
	"github.com/newbizpulse/sunbiz-crawler/internal/session"
	"github.com/newbizpulse/sunbiz-crawler/internal/sink"
	"github.com/newbizpulse/sunbiz-crawler/internal/snapshot"
	"github.com/newbizpulse/sunbiz-crawler/internal/window"
)

func newCrawlCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "crawl",
		Short: "Runs one prefix sweep against the registry",
		Long: `Fans the configured prefixes out across a pool of browser sessions,
extracts entity records from detail pages filed within the harvest window,
and streams them to the configured sink.`,
		RunE: runCrawlCommand,
	}
}

func runCrawlCommand(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx := cmd.Context()
	clk := system.New()

	recordSink, err := buildSink(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := recordSink.Close(context.Background()); cerr != nil {
			logger.Warn("sink close failed", zap.Error(cerr))
		}
	}()

	snapshots, err := buildSnapshots(ctx, cfg)
	if err != nil {
		return err
	}

	var opsServer *api.Server
	if cfg.Ops.Enabled {
		opsServer = api.New(cfg.Ops.Port, logger)
		opsServer.Start()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if serr := opsServer.Shutdown(shutdownCtx); serr != nil {
				logger.Warn("ops server shutdown failed", zap.Error(serr))
			}
		}()
	}

	orch, err := buildOrchestrator(cfg, recordSink, snapshots, clk, logger)
	if err != nil {
		return err
	}

	records, summary, err := orch.Run(ctx, cfg.Crawler.Prefixes)
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("run crawl: %w", err)
	}
	if opsServer != nil {
		opsServer.SetSummary(summary)
	}

	logger.Info("crawl complete",
		zap.String("run_id", summary.RunID),
		zap.Int("records", len(records)),
		zap.Int("prefixes_attempted", summary.PrefixesAttempted),
		zap.Int("prefixes_failed", summary.PrefixesFailed),
		zap.Int("rows_seen", summary.RowsSeen),
		zap.Int("details_visited", summary.DetailsVisited),
		zap.Int("admitted", summary.Admitted),
	)
	return nil
}

func buildOrchestrator(
	cfg config.Config,
	recordSink registry.Sink,
	snapshots snapshot.Store,
	clk registry.Clock,
	logger *zap.Logger,
) (*orchestrator.Orchestrator, error) {
	statusRx, err := regexp.Compile(cfg.Crawler.StatusPattern)
	if err != nil {
		return nil, fmt.Errorf("compile status pattern: %w", err)
	}

	var fetcher registry.DetailFetcher
	if cfg.Crawler.FastPath {
		fetcher = fetch.New(fetch.Config{
			BaseURL:   cfg.Registry.HomeURL,
			UserAgent: cfg.Registry.UserAgent,
			Timeout:   cfg.FetchTimeout(),
			BaseDelay: cfg.BaseDelay(),
			Jitter:    cfg.Jitter(),
		}, fetch.NewDetector(cfg.Crawler.FastPathMinBytes), logger)
	}

	sessionCfg := session.Config{
		HomeURL:     cfg.Registry.HomeURL,
		SearchURL:   cfg.Registry.SearchURL,
		UserAgent:   cfg.Registry.UserAgent,
		Headless:    cfg.Crawler.Headless,
		NavTimeout:  cfg.NavTimeout(),
		BaseDelay:   cfg.BaseDelay(),
		JitterBound: cfg.Jitter(),
	}

	win := window.ForDays(clk.Now(), cfg.Window.Days)
	if start, end, ok := cfg.WindowRange(); ok {
		win = window.Window{Start: start, End: end}
	}

	return orchestrator.New(orchestrator.Options{
		Sessions: func(context.Context) (registry.Session, error) {
			return session.New(sessionCfg, logger)
		},
		Fetcher:   fetcher,
		Extractor: extract.New(cfg.Registry.StateCode),
		Policy:    window.Policy{Fields: window.ParseFields(cfg.Window.Fields)},
		Window:    win,
		StatusRx:  statusRx,
		Caps: prefix.Caps{
			DetailsPerPage: cfg.Crawler.DetailsPerPage,
			PagesPerPrefix: cfg.Crawler.PagesPerPrefix,
			StopStreak:     cfg.Crawler.StopStreak,
		},
		GlobalCap:   cfg.Crawler.GlobalCap,
		Concurrency: cfg.Crawler.Concurrency,
		Sink:        recordSink,
		Snapshots:   snapshots,
		Clock:       clk,
		Logger:      logger,
	})
}

func buildSink(ctx context.Context, cfg config.Config) (registry.Sink, error) {
	switch cfg.Sink.Kind {
	case config.SinkPostgres:
		pg, err := sink.NewPostgres(ctx, cfg.Sink.DSN)
		if err != nil {
			return nil, fmt.Errorf("init postgres sink: %w", err)
		}
		return pg, nil
	case config.SinkPubSub:
		pub, err := sink.NewPublisher(ctx, cfg.Sink.ProjectID, cfg.Sink.Topic)
		if err != nil {
			return nil, fmt.Errorf("init pubsub sink: %w", err)
		}
		return pub, nil
	default:
		return sink.NewMemory(), nil
	}
}

func buildSnapshots(ctx context.Context, cfg config.Config) (snapshot.Store, error) {
	switch cfg.Snapshot.Mode {
	case config.SnapshotLocal:
		store, err := snapshot.NewLocal(cfg.Snapshot.Dir)
		if err != nil {
			return nil, fmt.Errorf("init local snapshots: %w", err)
		}
		return store, nil
	case config.SnapshotGCS:
		client, err := storage.NewClient(ctx)
		if err != nil {
			return nil, fmt.Errorf("init gcs client: %w", err)
		}
		store, err := snapshot.NewGCS(client, cfg.Snapshot.Bucket, cfg.Snapshot.Prefix)
		if err != nil {
			return nil, fmt.Errorf("init gcs snapshots: %w", err)
		}
		return store, nil
	default:
		return snapshot.Nop{}, nil
	}
}
