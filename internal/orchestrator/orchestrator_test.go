package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/newbizpulse/sunbiz-crawler/internal/extract"
	"github.com/newbizpulse/sunbiz-crawler/internal/prefix"
	"github.com/newbizpulse/sunbiz-crawler/internal/registry"
	"github.com/newbizpulse/sunbiz-crawler/internal/sink"
	"github.com/newbizpulse/sunbiz-crawler/internal/window"
)

var today = time.Date(2025, 7, 10, 0, 0, 0, 0, time.UTC)

type fixedClock struct{}

func (fixedClock) Now() time.Time { return today }

// stubSession serves one listing page of two in-window rows for whatever
// prefix was searched. panicOn triggers a crash inside that prefix's crawl.
type stubSession struct {
	prefix  string
	panicOn string
}

func (s *stubSession) Search(_ context.Context, prefix string) error {
	s.prefix = prefix
	return nil
}

func (s *stubSession) CurrentPage(context.Context) (string, error) {
	if s.panicOn != "" && s.prefix == s.panicOn {
		panic("listing render crashed")
	}
	page := `<html><body><table><tr><th>Corporate Name</th><th>Document Number</th><th>Status</th></tr>`
	for i := 1; i <= 2; i++ {
		page += fmt.Sprintf(
			`<tr><td><a href="/detail?doc=%s%d">%s VENTURE %d LLC</a></td><td>%s%d</td><td>Active</td></tr>`,
			s.prefix, i, s.prefix, i, s.prefix, i,
		)
	}
	return page + `</table></body></html>`, nil
}

func (s *stubSession) OpenDetail(context.Context, registry.ListingRow) (string, error) {
	return `<html><body>
<p>Detail by Entity Name</p>
<p>Florida Limited Liability Company</p>
<label>Date Filed</label><span>06/15/2025</span>
<label>Status</label><span>ACTIVE</span>
</body></html>`, nil
}

func (s *stubSession) BackToListing(context.Context) error { return nil }

func (s *stubSession) NextPage(context.Context) (bool, error) { return false, nil }

func (s *stubSession) Close() {}

func testOptions(mutate func(*Options)) (Options, *sink.Memory) {
	mem := sink.NewMemory()
	opts := Options{
		Sessions: func(context.Context) (registry.Session, error) {
			return &stubSession{}, nil
		},
		Extractor:   extract.New("FL"),
		Policy:      window.Policy{Fields: []window.Field{window.FieldFiling}},
		Window:      window.ForDays(today, 90),
		StatusRx:    regexp.MustCompile(`(?i)^\s*active\b`),
		Concurrency: 2,
		Sink:        mem,
		Clock:       fixedClock{},
		Logger:      zap.NewNop(),
	}
	if mutate != nil {
		mutate(&opts)
	}
	return opts, mem
}

func TestNewValidation(t *testing.T) {
	opts, _ := testOptions(func(o *Options) { o.Sessions = nil })
	_, err := New(opts)
	require.Error(t, err)

	opts, _ = testOptions(func(o *Options) { o.Extractor = nil })
	_, err = New(opts)
	require.Error(t, err)

	opts, _ = testOptions(func(o *Options) { o.Clock = nil })
	_, err = New(opts)
	require.Error(t, err)

	opts, _ = testOptions(func(o *Options) { o.Concurrency = 0 })
	orch, err := New(opts)
	require.NoError(t, err)
	require.NotNil(t, orch)
}

func TestRunEmptyPrefixSet(t *testing.T) {
	opts, _ := testOptions(nil)
	orch, err := New(opts)
	require.NoError(t, err)

	_, _, err = orch.Run(context.Background(), nil)
	require.ErrorIs(t, err, registry.ErrNoPrefixes)
}

func TestRunAggregatesAllPrefixes(t *testing.T) {
	opts, mem := testOptions(nil)
	orch, err := New(opts)
	require.NoError(t, err)

	records, summary, err := orch.Run(context.Background(), []string{"AA", "AB", "AC", "AD"})
	require.NoError(t, err)

	require.Len(t, records, 8)
	require.NotEmpty(t, summary.RunID)
	require.Equal(t, 4, summary.PrefixesAttempted)
	require.Zero(t, summary.PrefixesFailed)
	require.Equal(t, 4, summary.PagesSeen)
	require.Equal(t, 8, summary.RowsSeen)
	require.Equal(t, 8, summary.Admitted)
	require.Len(t, mem.Records(), 8)
	require.False(t, summary.Finished.Before(summary.Started))
}

func TestRunGlobalCapHonoredAcrossWorkers(t *testing.T) {
	opts, mem := testOptions(func(o *Options) {
		o.GlobalCap = 5
		o.Concurrency = 4
	})
	orch, err := New(opts)
	require.NoError(t, err)

	prefixes := []string{"P0", "P1", "P2", "P3", "P4", "P5", "P6", "P7", "P8", "P9"}
	records, summary, err := orch.Run(context.Background(), prefixes)
	require.NoError(t, err)

	// Ten prefixes offer twenty admissible rows; the cap admits exactly five.
	require.Len(t, records, 5)
	require.Equal(t, 5, summary.Admitted)
	require.Len(t, mem.Records(), 5)
	require.Equal(t, len(prefixes), summary.PrefixesAttempted)
}

func TestRunSessionFactoryFailure(t *testing.T) {
	opts, mem := testOptions(func(o *Options) {
		o.Sessions = func(context.Context) (registry.Session, error) {
			return nil, errors.New("browser would not start")
		}
	})
	orch, err := New(opts)
	require.NoError(t, err)

	records, summary, err := orch.Run(context.Background(), []string{"AA", "AB", "AC"})
	require.NoError(t, err, "a dead session pool degrades the run, it does not abort it")
	require.Empty(t, records)
	require.Equal(t, 3, summary.PrefixesAttempted)
	require.Equal(t, 3, summary.PrefixesFailed)
	require.Empty(t, mem.Records())
}

func TestRunPanickedPrefixIsolated(t *testing.T) {
	opts, _ := testOptions(func(o *Options) {
		o.Concurrency = 1
		o.Sessions = func(context.Context) (registry.Session, error) {
			return &stubSession{panicOn: "BAD"}, nil
		}
	})
	orch, err := New(opts)
	require.NoError(t, err)

	records, summary, err := orch.Run(context.Background(), []string{"BAD", "AA", "AB"})
	require.NoError(t, err)

	require.Len(t, records, 4, "prefixes after the crash still run")
	require.Equal(t, 3, summary.PrefixesAttempted)
	require.Equal(t, 1, summary.PrefixesFailed)
}

func TestRunRespectsGlobalCapZeroAsUnlimited(t *testing.T) {
	opts, _ := testOptions(func(o *Options) { o.GlobalCap = 0 })
	orch, err := New(opts)
	require.NoError(t, err)

	records, _, err := orch.Run(context.Background(), []string{"AA", "AB"})
	require.NoError(t, err)
	require.Len(t, records, 4)
}

func TestRunThreadsCapsThrough(t *testing.T) {
	opts, _ := testOptions(func(o *Options) {
		o.Caps = prefix.Caps{DetailsPerPage: 1}
	})
	orch, err := New(opts)
	require.NoError(t, err)

	records, summary, err := orch.Run(context.Background(), []string{"AA", "AB"})
	require.NoError(t, err)
	require.Len(t, records, 2, "one detail per page per prefix")
	require.Equal(t, 2, summary.DetailsVisited)
}
