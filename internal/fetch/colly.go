// Package fetch provides a fast-path detail fetcher: a row whose href is a
// plain link can be pulled with a single HTTP GET instead of spending browser
// navigation budget. When the fetched document fails the completeness check,
// the caller falls back to the browser session.
package fetch

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"

	"github.com/newbizpulse/sunbiz-crawler/internal/registry"
)

const defaultTimeout = 15 * time.Second

// Config controls the fast-path fetcher. BaseDelay and Jitter pace the GETs
// exactly like the browser session's sleeper; skipping the browser must not
// mean skipping politeness.
type Config struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
	BaseDelay time.Duration
	Jitter    time.Duration
}

// CollyFetcher implements registry.DetailFetcher over a colly collector.
type CollyFetcher struct {
	cfg      Config
	base     *colly.Collector
	detector *Detector
	logger   *zap.Logger
}

// New builds a CollyFetcher.
func New(cfg Config, detector *Detector, logger *zap.Logger) *CollyFetcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	c := colly.NewCollector(colly.Async(false))
	c.IgnoreRobotsTxt = false
	if cfg.UserAgent != "" {
		c.UserAgent = cfg.UserAgent
	}
	c.SetRequestTimeout(cfg.Timeout)
	if cfg.BaseDelay > 0 || cfg.Jitter > 0 {
		// Limit rules live on the collector backend, which Clone shares, so
		// per-row clones stay paced by the same rule.
		if err := c.Limit(&colly.LimitRule{
			DomainGlob:  "*",
			Delay:       cfg.BaseDelay,
			RandomDelay: cfg.Jitter,
		}); err != nil {
			logger.Warn("install fetch limit rule failed", zap.Error(err))
		}
	}
	return &CollyFetcher{cfg: cfg, base: c, detector: detector, logger: logger}
}

// FetchDetail GETs the row's detail href. ok is false when the href is not
// directly navigable, the request fails, or the document looks truncated; in
// all of those cases the caller should use the browser session instead.
func (f *CollyFetcher) FetchDetail(ctx context.Context, row registry.ListingRow) (string, bool) {
	target := f.resolve(row.Href)
	if target == "" {
		return "", false
	}

	var (
		body     []byte
		status   int
		fetchErr error
	)
	collector := f.base.Clone()
	collector.OnResponse(func(r *colly.Response) {
		status = r.StatusCode
		body = append([]byte(nil), r.Body...)
	})
	collector.OnError(func(_ *colly.Response, err error) {
		fetchErr = err
	})

	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(target)
	}()
	select {
	case <-ctx.Done():
		return "", false
	case err := <-done:
		if err != nil || fetchErr != nil {
			f.logger.Debug("fast-path detail fetch failed",
				zap.String("doc", row.DocNumber),
				zap.NamedError("visit_err", err),
				zap.NamedError("fetch_err", fetchErr),
			)
			return "", false
		}
	}

	if !f.detector.Complete(status, body) {
		f.logger.Debug("fast-path detail page incomplete, deferring to browser",
			zap.String("doc", row.DocNumber), zap.Int("status", status), zap.Int("bytes", len(body)))
		return "", false
	}
	return string(body), true
}

// resolve joins the href against the base URL; javascript targets can only be
// activated inside the browser session.
func (f *CollyFetcher) resolve(href string) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(strings.ToLower(href), "javascript") {
		return ""
	}
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if u.IsAbs() {
		return u.String()
	}
	base, err := url.Parse(f.cfg.BaseURL)
	if err != nil {
		return ""
	}
	return base.ResolveReference(u).String()
}
