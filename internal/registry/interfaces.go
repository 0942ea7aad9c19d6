package registry

import (
	"context"
	"time"
)

// Session owns a single browser session against the registry site. A Session
// is not safe for concurrent use; each crawl worker holds exactly one.
type Session interface {
	// Search runs a by-name search for prefix and lands on the first
	// results page.
	Search(ctx context.Context, prefix string) error
	// CurrentPage returns the HTML of the page the session is on.
	CurrentPage(ctx context.Context) (string, error)
	// OpenDetail navigates to a row's detail page and returns its HTML.
	// Failures after the fallback strategies are NavigationErrors.
	OpenDetail(ctx context.Context, row ListingRow) (string, error)
	// BackToListing returns to the results page after a detail visit.
	BackToListing(ctx context.Context) error
	// NextPage advances to the next results page, reporting false when the
	// site offers no further-page control.
	NextPage(ctx context.Context) (bool, error)
	Close()
}

// SessionFactory builds one Session per crawl worker.
type SessionFactory func(ctx context.Context) (Session, error)

// Sink receives admitted records as they are extracted. Implementations live
// outside the engine; a sink error is logged and counted, never fatal.
type Sink interface {
	Keep(ctx context.Context, rec Record) error
	Close(ctx context.Context) error
}

// DetailFetcher fetches a detail page without the browser session, as a fast
// path for rows whose href is directly navigable. Returning ok=false means
// the caller should fall back to Session.OpenDetail.
type DetailFetcher interface {
	FetchDetail(ctx context.Context, row ListingRow) (html string, ok bool)
}

// Clock returns the current time; injected so window math and filing-date
// fallbacks are testable.
type Clock interface {
	Now() time.Time
}
