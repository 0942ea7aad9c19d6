// Package window decides whether a record is recent enough to keep.
package window

import (
	"time"

	"github.com/newbizpulse/sunbiz-crawler/internal/registry"
)

// Field names a record date the admission policy may consult.
type Field string

// Date fields a policy can check.
const (
	FieldFiling         Field = "filing"
	FieldEffective      Field = "effective"
	FieldEventFiled     Field = "event_filed"
	FieldEventEffective Field = "event_effective"
)

// Window is the inclusive date range of one crawl run.
type Window struct {
	Start time.Time
	End   time.Time
}

// ForDays computes the harvest window for a run starting today: the union of
// year-to-date and the last N days. Taking the earlier of the two start dates
// means year-to-date filings survive a small N and recent filings survive an
// early-January run.
func ForDays(today time.Time, days int) Window {
	today = truncateDay(today)
	yearStart := time.Date(today.Year(), time.January, 1, 0, 0, 0, 0, today.Location())
	nDaysAgo := today.AddDate(0, 0, -days)
	start := yearStart
	if nDaysAgo.Before(yearStart) {
		start = nDaysAgo
	}
	return Window{Start: start, End: today}
}

// Contains reports whether d falls within the window, inclusive both ends.
func (w Window) Contains(d time.Time) bool {
	d = truncateDay(d)
	return !d.Before(w.Start) && !d.After(w.End)
}

// Policy admits a record when any of its configured date fields falls inside
// the window. Admission is computed from several optional dates because the
// source populates them inconsistently; no single field is authoritative.
type Policy struct {
	Fields []Field
}

// Admit applies the policy to rec against w.
func (p Policy) Admit(rec registry.Record, w Window) bool {
	for _, f := range p.Fields {
		switch f {
		case FieldFiling:
			if w.Contains(rec.FilingDate) {
				return true
			}
		case FieldEffective:
			if rec.EffectiveDate != nil && w.Contains(*rec.EffectiveDate) {
				return true
			}
		case FieldEventFiled:
			if rec.EventDateFiled != nil && w.Contains(*rec.EventDateFiled) {
				return true
			}
		case FieldEventEffective:
			if rec.EventEffectiveDate != nil && w.Contains(*rec.EventEffectiveDate) {
				return true
			}
		}
	}
	return false
}

// ParseFields maps config strings onto policy fields, dropping unknown names.
func ParseFields(names []string) []Field {
	var out []Field
	for _, n := range names {
		switch Field(n) {
		case FieldFiling, FieldEffective, FieldEventFiled, FieldEventEffective:
			out = append(out, Field(n))
		}
	}
	return out
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
