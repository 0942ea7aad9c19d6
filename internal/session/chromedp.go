// Package session drives one headless browser session through the registry's
// search, paginate, and detail workflow via chromedp. A session is stateful
// and strictly sequential; each crawl worker owns exactly one.
package session

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/newbizpulse/sunbiz-crawler/internal/registry"
)

const (
	defaultNavTimeout = 60 * time.Second
	searchInputSel    = `input[name*="SearchTerm" i], input[type="text"]`
	searchSubmitSel   = `input[type="submit"], button[type="submit"]`
)

// Config controls one browser session.
type Config struct {
	HomeURL     string
	SearchURL   string
	UserAgent   string
	Headless    bool
	NavTimeout  time.Duration
	BaseDelay   time.Duration
	JitterBound time.Duration
}

// Chromedp implements registry.Session on top of a dedicated Chrome context.
type Chromedp struct {
	cfg         Config
	logger      *zap.Logger
	allocCancel context.CancelFunc
	browserCtx  context.Context
	taskCancel  context.CancelFunc
	sleeper     *Sleeper
	warmedUp    bool
}

// New launches a browser context for one session.
func New(cfg Config, logger *zap.Logger) (*Chromedp, error) {
	if cfg.HomeURL == "" || cfg.SearchURL == "" {
		return nil, fmt.Errorf("session: home and search URLs are required")
	}
	if cfg.NavTimeout <= 0 {
		cfg.NavTimeout = defaultNavTimeout
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("hide-scrollbars", true),
		chromedp.Flag("enable-automation", false),
	)
	if cfg.Headless {
		opts = append(opts, chromedp.Flag("headless", "new"))
	} else {
		opts = append(opts, chromedp.Flag("headless", false))
	}
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, taskCancel := chromedp.NewContext(allocCtx)

	return &Chromedp{
		cfg:         cfg,
		logger:      logger,
		allocCancel: allocCancel,
		browserCtx:  browserCtx,
		taskCancel:  taskCancel,
		sleeper:     NewSleeper(cfg.BaseDelay, cfg.JitterBound),
	}, nil
}

// Close tears down the browser and its allocator.
func (s *Chromedp) Close() {
	s.taskCancel()
	s.allocCancel()
}

// Search warms the session up on first use, opens the by-name search form,
// fills in the prefix, and submits.
func (s *Chromedp) Search(ctx context.Context, prefix string) error {
	if !s.warmedUp {
		if err := s.run(ctx, "warmup",
			s.userAgentAction(),
			chromedp.Navigate(s.cfg.HomeURL),
			chromedp.WaitReady("body", chromedp.ByQuery),
		); err != nil {
			return err
		}
		s.warmedUp = true
		s.sleeper.Sleep(ctx)
	}

	if err := s.run(ctx, "open search form",
		chromedp.Navigate(s.cfg.SearchURL),
		chromedp.WaitVisible(searchInputSel, chromedp.ByQuery),
	); err != nil {
		return err
	}
	s.sleeper.Sleep(ctx)

	if err := s.run(ctx, "submit search",
		chromedp.SetValue(searchInputSel, prefix, chromedp.ByQuery),
		chromedp.Click(searchSubmitSel, chromedp.ByQuery),
		chromedp.WaitReady("body", chromedp.ByQuery),
	); err != nil {
		return err
	}
	s.sleeper.Sleep(ctx)
	return nil
}

// CurrentPage returns the rendered HTML of whatever page the session is on.
func (s *Chromedp) CurrentPage(ctx context.Context) (string, error) {
	var html string
	if err := s.run(ctx, "read page",
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	); err != nil {
		return "", err
	}
	return html, nil
}

// OpenDetail navigates to a row's detail page: direct navigation first, then
// a fallback that clicks an on-page anchor matching the document number or
// the entity name. Two attempts total before giving up on the row.
func (s *Chromedp) OpenDetail(ctx context.Context, row registry.ListingRow) (string, error) {
	target := resolveHref(s.cfg.HomeURL, row.Href)
	if target != "" {
		err := s.run(ctx, "open detail",
			chromedp.Navigate(target),
			chromedp.WaitReady("body", chromedp.ByQuery),
		)
		if err == nil {
			s.sleeper.SleepFor(ctx, s.cfg.BaseDelay/2)
			return s.CurrentPage(ctx)
		}
		s.logger.Debug("direct detail navigation failed, trying click fallback",
			zap.String("doc", row.DocNumber), zap.Error(err))
	}

	for _, needle := range []string{row.DocNumber, row.Name} {
		if needle == "" {
			continue
		}
		clicked, err := s.clickAnchorContaining(ctx, needle)
		if err != nil || !clicked {
			continue
		}
		if err := s.run(ctx, "detail after click",
			chromedp.WaitReady("body", chromedp.ByQuery),
		); err != nil {
			continue
		}
		s.sleeper.SleepFor(ctx, s.cfg.BaseDelay/2)
		return s.CurrentPage(ctx)
	}
	return "", registry.NewNavigationError("open detail", fmt.Errorf("no route to detail page for %q", row.DocNumber))
}

// BackToListing returns to the results page after a detail visit.
func (s *Chromedp) BackToListing(ctx context.Context) error {
	if err := s.run(ctx, "back to listing",
		chromedp.NavigateBack(),
		chromedp.WaitReady("body", chromedp.ByQuery),
	); err != nil {
		return err
	}
	s.sleeper.SleepFor(ctx, s.cfg.BaseDelay/3)
	return nil
}

// NextPage clicks the next-page control, reporting false when the site shows
// none (last page of the result set).
func (s *Chromedp) NextPage(ctx context.Context) (bool, error) {
	var clicked bool
	err := s.run(ctx, "next page",
		chromedp.Evaluate(nextPageScript, &clicked),
	)
	if err != nil {
		return false, err
	}
	if !clicked {
		return false, nil
	}
	if err := s.run(ctx, "next page load",
		chromedp.WaitReady("body", chromedp.ByQuery),
	); err != nil {
		return false, err
	}
	s.sleeper.Sleep(ctx)
	return true, nil
}

// nextPageScript locates the "Next List" / "Next>" pagination anchor.
const nextPageScript = `(() => {
	const rx = /^\s*(Next List|Next>)\s*$/i;
	const a = Array.from(document.querySelectorAll('a')).find(el => rx.test(el.textContent));
	if (!a) { return false; }
	a.click();
	return true;
})()`

func (s *Chromedp) clickAnchorContaining(ctx context.Context, needle string) (bool, error) {
	script := fmt.Sprintf(`(() => {
		const want = %q;
		const a = Array.from(document.querySelectorAll('table a')).find(el => el.textContent.includes(want));
		if (!a) { return false; }
		a.click();
		return true;
	})()`, needle)
	var clicked bool
	if err := s.run(ctx, "click fallback", chromedp.Evaluate(script, &clicked)); err != nil {
		return false, err
	}
	return clicked, nil
}

// run executes actions on the session's browser context under the navigation
// timeout. Timeouts surface as NavigationErrors so callers can treat them as
// skippable, never fatal.
func (s *Chromedp) run(ctx context.Context, op string, actions ...chromedp.Action) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	runCtx, cancel := context.WithTimeout(s.browserCtx, s.cfg.NavTimeout)
	defer cancel()
	if err := chromedp.Run(runCtx, actions...); err != nil {
		return registry.NewNavigationError(op, err)
	}
	return nil
}

func (s *Chromedp) userAgentAction() chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		if s.cfg.UserAgent == "" {
			return nil
		}
		if err := emulation.SetUserAgentOverride(s.cfg.UserAgent).Do(ctx); err != nil {
			return fmt.Errorf("set user-agent: %w", err)
		}
		return nil
	})
}

// resolveHref joins a row href against the registry base URL. Script-only
// hrefs are not directly navigable and force the click fallback.
func resolveHref(base, href string) string {
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
	b, err := url.Parse(base)
	if err != nil {
		return ""
	}
	return b.ResolveReference(u).String()
}
