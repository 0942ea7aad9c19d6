// Package prefix drives one browser session across all result pages of a
// single search prefix: parse the listing, visit admissible details, extract,
// filter to the harvest window, and stop at the prefix boundary or a cap.
package prefix

import (
	"context"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/newbizpulse/sunbiz-crawler/internal/extract"
	"github.com/newbizpulse/sunbiz-crawler/internal/listing"
	"github.com/newbizpulse/sunbiz-crawler/internal/metrics"
	"github.com/newbizpulse/sunbiz-crawler/internal/registry"
	"github.com/newbizpulse/sunbiz-crawler/internal/snapshot"
	"github.com/newbizpulse/sunbiz-crawler/internal/window"
)

var nonAlnumRx = regexp.MustCompile(`[^A-Z0-9]`)

// Caps bounds the work one prefix may consume. Zero values mean unlimited.
type Caps struct {
	// DetailsPerPage limits detail visits per listing page.
	DetailsPerPage int
	// PagesPerPrefix limits listing pages walked for the prefix.
	PagesPerPrefix int
	// StopStreak aborts the prefix after this many consecutive visited
	// details failing the window policy. Heuristic only: it assumes the
	// source paginates roughly by date, which is not guaranteed. Leave at
	// 0 for completeness-critical runs.
	StopStreak int
}

// Crawler walks one prefix at a time. It is not safe for concurrent use; the
// orchestrator gives each worker its own Crawler and Session.
type Crawler struct {
	session   registry.Session
	fetcher   registry.DetailFetcher
	extractor *extract.Extractor
	policy    window.Policy
	win       window.Window
	statusRx  *regexp.Regexp
	caps      Caps
	global    *Cap
	sink      registry.Sink
	snapshots snapshot.Store
	clock     registry.Clock
	logger    *zap.Logger
}

// Options bundles the collaborators a Crawler needs.
type Options struct {
	Session   registry.Session
	Fetcher   registry.DetailFetcher // optional fast path
	Extractor *extract.Extractor
	Policy    window.Policy
	Window    window.Window
	StatusRx  *regexp.Regexp
	Caps      Caps
	Global    *Cap
	Sink      registry.Sink
	Snapshots snapshot.Store // optional; nil disables failure snapshots
	Clock     registry.Clock
	Logger    *zap.Logger
}

// New builds a Crawler.
func New(opts Options) *Crawler {
	return &Crawler{
		session:   opts.Session,
		fetcher:   opts.Fetcher,
		extractor: opts.Extractor,
		policy:    opts.Policy,
		win:       opts.Window,
		statusRx:  opts.StatusRx,
		caps:      opts.Caps,
		global:    opts.Global,
		sink:      opts.Sink,
		snapshots: opts.Snapshots,
		clock:     opts.Clock,
		logger:    opts.Logger,
	}
}

// Crawl sweeps every result page for prefix and returns the admitted records
// plus per-prefix tallies. Row-level failures are skipped; only search-level
// failures surface as an error.
func (c *Crawler) Crawl(ctx context.Context, prefix string) ([]registry.Record, registry.Summary, error) {
	var (
		kept    []registry.Record
		tally   registry.Summary
		streak  int
		stopped bool
	)

	if err := c.session.Search(ctx, prefix); err != nil {
		return nil, tally, err
	}

	prefNorm := normalize(prefix)
	pagesSeen := 0
	for {
		if err := ctx.Err(); err != nil {
			return kept, tally, nil
		}
		if c.caps.PagesPerPrefix > 0 && pagesSeen >= c.caps.PagesPerPrefix {
			break
		}
		if c.global.Reached() {
			break
		}

		html, err := c.session.CurrentPage(ctx)
		if err != nil {
			c.logger.Warn("listing page read failed", zap.String("prefix", prefix), zap.Error(err))
			break
		}
		rows := listing.Parse(html)
		if len(rows) == 0 {
			break
		}
		metrics.PagesParsed.Inc()
		metrics.RowsSeen.Add(float64(len(rows)))
		tally.PagesSeen++
		tally.RowsSeen += len(rows)

		// Boundary detection over ALL rows: once a page carries no row for
		// our prefix, the source has paginated past the name range.
		prefRows := filterPrefix(rows, prefNorm)
		if pagesSeen > 0 && len(prefRows) == 0 {
			c.logger.Info("prefix rolled off, stopping",
				zap.String("prefix", prefix), zap.Int("page", pagesSeen+1))
			break
		}

		// Only active entities are worth the navigation cost.
		active := c.filterActive(prefRows)
		c.logger.Debug("listing page",
			zap.String("prefix", prefix),
			zap.Int("page", pagesSeen+1),
			zap.Int("total", len(rows)),
			zap.Int("prefix_rows", len(prefRows)),
			zap.Int("active_rows", len(active)),
		)
		if c.caps.DetailsPerPage > 0 && len(active) > c.caps.DetailsPerPage {
			active = active[:c.caps.DetailsPerPage]
		}

		for _, row := range active {
			if err := ctx.Err(); err != nil {
				return kept, tally, nil
			}
			if c.global.Reached() {
				stopped = true
				break
			}

			rec, visited := c.visitDetail(ctx, prefix, row)
			if !visited {
				continue
			}
			tally.DetailsVisited++

			if rec.Status != "" && !c.statusOK(rec.Status) {
				continue
			}
			if !c.policy.Admit(rec, c.win) {
				streak++
				if c.caps.StopStreak > 0 && streak >= c.caps.StopStreak {
					c.logger.Info("non-admission streak hit, stopping prefix early",
						zap.String("prefix", prefix), zap.Int("streak", streak))
					stopped = true
					break
				}
				continue
			}
			streak = 0

			if !c.global.TryAdmit() {
				stopped = true
				break
			}
			c.finalize(&rec, row)
			metrics.RecordsAdmitted.Inc()
			tally.Admitted++
			kept = append(kept, rec)
			if c.sink != nil {
				if err := c.sink.Keep(ctx, rec); err != nil {
					metrics.SinkErrors.Inc()
					c.logger.Warn("sink rejected record",
						zap.String("doc", rec.DocNumber), zap.Error(err))
				}
			}
		}
		if stopped {
			break
		}

		more, err := c.session.NextPage(ctx)
		if err != nil {
			c.logger.Warn("pagination failed", zap.String("prefix", prefix), zap.Error(err))
			break
		}
		if !more {
			break
		}
		pagesSeen++
	}
	return kept, tally, nil
}

// visitDetail opens a row's detail page, preferring the HTTP fast path, and
// extracts its record. Navigation failures skip the row.
func (c *Crawler) visitDetail(ctx context.Context, prefix string, row registry.ListingRow) (registry.Record, bool) {
	if c.fetcher != nil {
		if html, ok := c.fetcher.FetchDetail(ctx, row); ok {
			metrics.DetailsVisited.Inc()
			metrics.DetailsFastPath.Inc()
			return c.extractor.Record(html, c.today()), true
		}
	}

	html, err := c.session.OpenDetail(ctx, row)
	if err != nil {
		metrics.NavigationErrors.Inc()
		c.logger.Warn("detail navigation failed, skipping row",
			zap.String("prefix", prefix), zap.String("doc", row.DocNumber), zap.Error(err))
		c.snapshotFailure(ctx, "detail_nav_err_"+row.DocNumber)
		return registry.Record{}, false
	}
	metrics.DetailsVisited.Inc()
	rec := c.extractor.Record(html, c.today())

	// Return to the listing before the next row or page turn.
	if err := c.session.BackToListing(ctx); err != nil {
		c.logger.Warn("back to listing failed",
			zap.String("prefix", prefix), zap.String("doc", row.DocNumber), zap.Error(err))
	}
	return rec, true
}

// snapshotFailure captures whatever page the session is stuck on. Best
// effort only; snapshot problems are logged at debug and swallowed.
func (c *Crawler) snapshotFailure(ctx context.Context, label string) {
	if c.snapshots == nil {
		return
	}
	html, err := c.session.CurrentPage(ctx)
	if err != nil {
		return
	}
	uri, err := c.snapshots.Put(ctx, snapshot.ObjectName(label, []byte(html)), []byte(html))
	if err != nil {
		c.logger.Debug("snapshot store failed", zap.String("label", label), zap.Error(err))
		return
	}
	if uri != "" {
		c.logger.Debug("failure snapshot stored", zap.String("uri", uri))
	}
}

// finalize stamps the listing row's identity onto the extracted record.
func (c *Crawler) finalize(rec *registry.Record, row registry.ListingRow) {
	rec.Name = registry.Truncate(row.Name, registry.MaxNameLen)
	rec.DocNumber = registry.Truncate(row.DocNumber, registry.MaxDocNumberLen)
	if rec.Status == "" {
		rec.Status = row.Status
	}
}

func (c *Crawler) statusOK(status string) bool {
	if c.statusRx == nil {
		return true
	}
	return c.statusRx.MatchString(status)
}

func (c *Crawler) filterActive(rows []registry.ListingRow) []registry.ListingRow {
	var out []registry.ListingRow
	for _, r := range rows {
		if c.statusOK(r.Status) {
			out = append(out, r)
		}
	}
	return out
}

func (c *Crawler) today() time.Time {
	return c.clock.Now()
}

func filterPrefix(rows []registry.ListingRow, prefNorm string) []registry.ListingRow {
	var out []registry.ListingRow
	for _, r := range rows {
		if strings.HasPrefix(normalize(r.Name), prefNorm) {
			out = append(out, r)
		}
	}
	return out
}

// normalize strips everything but alphanumerics and upcases, so punctuation
// and spacing quirks in entity names cannot defeat the boundary check.
func normalize(s string) string {
	return nonAlnumRx.ReplaceAllString(strings.ToUpper(s), "")
}
