// Package metrics exposes the engine's prometheus counters.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PagesParsed counts listing pages whose results table parsed.
	PagesParsed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "crawler_listing_pages_total",
		Help: "The total number of search-results pages parsed.",
	})
	// RowsSeen counts listing rows observed across all pages.
	RowsSeen = promauto.NewCounter(prometheus.CounterOpts{
		Name: "crawler_listing_rows_total",
		Help: "The total number of listing rows seen.",
	})
	// DetailsVisited counts detail pages opened (browser or fast path).
	DetailsVisited = promauto.NewCounter(prometheus.CounterOpts{
		Name: "crawler_details_visited_total",
		Help: "The total number of detail pages visited.",
	})
	// DetailsFastPath counts detail pages served by the HTTP fast path.
	DetailsFastPath = promauto.NewCounter(prometheus.CounterOpts{
		Name: "crawler_details_fastpath_total",
		Help: "The total number of detail pages fetched without the browser.",
	})
	// RecordsAdmitted counts records that passed the window policy.
	RecordsAdmitted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "crawler_records_admitted_total",
		Help: "The total number of records admitted into the harvest window.",
	})
	// NavigationErrors counts skipped rows due to navigation failures.
	NavigationErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "crawler_navigation_errors_total",
		Help: "The total number of navigation failures that caused a row skip.",
	})
	// SinkErrors counts records the sink failed to accept.
	SinkErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "crawler_sink_errors_total",
		Help: "The total number of records the sink rejected.",
	})
	// PrefixesFailed counts prefixes whose crawl aborted with an error.
	PrefixesFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "crawler_prefixes_failed_total",
		Help: "The total number of prefixes that failed to crawl.",
	})
)
