// Package registry defines the core types and interfaces shared by the
// crawl-and-extract engine: listing rows, extracted entity records, run
// summaries, and the session/sink boundaries.
package registry

import "time"

// Column widths enforced before records leave the engine. They match the
// downstream entities table.
const (
	MaxNameLen       = 255
	MaxDocNumberLen  = 100
	MaxEntityTypeLen = 50
	MaxFEIEINLen     = 32
	MaxLastEventLen  = 100
)

// ListingRow is one row of a search-results page. It lives only for the
// duration of a single page iteration.
type ListingRow struct {
	Name      string
	DocNumber string
	Status    string
	Href      string
}

// Officer is one officer/director/authorized-person entry on a detail page.
type Officer struct {
	Title   string `json:"title"`
	Name    string `json:"name"`
	Address string `json:"address,omitempty"`
}

// Record is the canonical unit the engine produces, one per admitted detail
// page. DocNumber is the sole upsert key downstream; optional dates are nil
// when the page did not yield them.
//
// FilingDate is never zero: when no filing-date label parses it is set to the
// crawl date and FilingDateParsed is false, so callers can tell an asserted
// date from the fallback.
type Record struct {
	Name                   string     `json:"name"`
	DocNumber              string     `json:"doc_number"`
	EntityType             string     `json:"entity_type,omitempty"`
	FilingDate             time.Time  `json:"filing_date"`
	FilingDateParsed       bool       `json:"filing_date_parsed"`
	EffectiveDate          *time.Time `json:"effective_date,omitempty"`
	FEIEIN                 string     `json:"fei_ein,omitempty"`
	LastEvent              string     `json:"last_event,omitempty"`
	EventDateFiled         *time.Time `json:"event_date_filed,omitempty"`
	EventEffectiveDate     *time.Time `json:"event_effective_date,omitempty"`
	RegisteredAgentName    string     `json:"registered_agent,omitempty"`
	RegisteredAgentAddress string     `json:"registered_agent_address,omitempty"`
	PrincipalAddress       string     `json:"principal_address,omitempty"`
	MailingAddress         string     `json:"mailing_address,omitempty"`
	City                   string     `json:"city,omitempty"`
	Status                 string     `json:"status,omitempty"`
	Officers               []Officer  `json:"officers,omitempty"`
}

// Summary reports what a crawl run did, enough for the caller to decide
// whether to accept a partial batch or re-run.
type Summary struct {
	RunID             string    `json:"run_id"`
	PrefixesAttempted int       `json:"prefixes_attempted"`
	PrefixesFailed    int       `json:"prefixes_failed"`
	PagesSeen         int       `json:"pages_seen"`
	RowsSeen          int       `json:"rows_seen"`
	DetailsVisited    int       `json:"details_visited"`
	Admitted          int       `json:"admitted"`
	Started           time.Time `json:"started_at"`
	Finished          time.Time `json:"finished_at"`
}

// Merge folds per-prefix tallies into the run summary.
func (s *Summary) Merge(o Summary) {
	s.PagesSeen += o.PagesSeen
	s.RowsSeen += o.RowsSeen
	s.DetailsVisited += o.DetailsVisited
	s.Admitted += o.Admitted
}

// Truncate clips s to at most max characters. The column widths above are
// character limits, so multibyte names lose whole characters, never split
// ones. The byte-length check is only a fast path: a string of max bytes or
// fewer can never exceed max characters.
func Truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
