// Package extract turns one detail-page text blob into a normalized entity
// record. Every field is pulled independently by label-anchored search over
// line-oriented text; the page's section order is never assumed. Extraction
// never fails: a field that does not match is simply absent.
package extract

import (
	"regexp"
	"strings"
	"time"

	"github.com/newbizpulse/sunbiz-crawler/internal/registry"
)

const (
	maxBlockLines = 12
	dateLayout    = "1/2/2006"
)

// stopLabels terminate a labeled block. Without these, a page that omits an
// expected section would let one field's value bleed into the next.
var stopLabels = []string{
	"Mailing Address",
	"Registered Agent",
	"Registered Agent Name",
	"Registered Agent Name & Address",
	"Filing Information",
	"FEI/EIN Number",
	"Officer/Director Detail",
	"Authorized Person(s) Detail",
	"Annual Reports",
	"No Annual Reports Filed",
	"Document Images",
	"View image in PDF format",
	"No Name History",
	"No Events",
	"Previous On List",
	"Next On List",
	"Return to List",
	"Name and Address",
	"Status",
	"Last Event",
	"Event Date Filed",
	"Event Effective Date",
}

var (
	filingDateRx    = regexp.MustCompile(`(?i)(Date Filed|Filed On)\s*:?\s*(\d{1,2}/\d{1,2}/\d{4})`)
	effectiveRx     = regexp.MustCompile(`(?i)Effective Date\s*:?\s*(\d{1,2}/\d{1,2}/\d{4}|NONE)`)
	feiEINRx        = regexp.MustCompile(`(?i)FEI/EIN Number\s*:?\s*([A-Z0-9\- ]+|APPLIED FOR|NONE)`)
	lastEventRx     = regexp.MustCompile(`(?i)Last Event\s*:?\s*([^\n]+)`)
	eventFiledRx    = regexp.MustCompile(`(?i)Event Date Filed\s*:?\s*(\d{1,2}/\d{1,2}/\d{4})`)
	eventEffRx      = regexp.MustCompile(`(?i)Event Effective Date\s*:?\s*(\d{1,2}/\d{1,2}/\d{4}|NONE)`)
	statusRx        = regexp.MustCompile(`(?i)\bStatus\b\s*:?\s*([A-Za-z /\-]+)`)
	entityLabelRx   = regexp.MustCompile(`(?i)\bEntity Type\b\s*:?\s*([A-Za-z][A-Za-z &/\-]{2,80})`)
	entityVocabRx   = regexp.MustCompile(`(?i)\b(Florida|Foreign)\s+(Limited Liability Company|Profit Corporation|Not For Profit Corporation|Limited Partnership|Limited Liability Limited Partnership|Limited Liability Partnership|Professional Corporation|Professional Limited Liability Company|General Partnership|Association)\b`)
	detailHeadingRx = regexp.MustCompile(`(?i)^detail by (entity|officer|registered agent) name`)
)

// Extractor holds the few tunables field extraction needs. The zero value is
// not usable; call New.
type Extractor struct {
	stateCode string
	cityRx    *regexp.Regexp
}

// New builds an Extractor. stateCode scopes the city heuristic (the registry
// is a single-state source); empty defaults to FL.
func New(stateCode string) *Extractor {
	if stateCode == "" {
		stateCode = "FL"
	}
	return &Extractor{
		stateCode: stateCode,
		cityRx:    regexp.MustCompile(`(?i)\b([A-Z][A-Za-z .'\-]+),\s*` + regexp.QuoteMeta(stateCode) + `\b`),
	}
}

// Record extracts a partial registry.Record from detail-page HTML. today is
// the crawl date and is the FilingDate fallback when no date label parses,
// keeping the downstream non-null constraint satisfied. The function is pure:
// the same HTML and today always yield the same record.
func (e *Extractor) Record(raw string, today time.Time) registry.Record {
	rec := registry.Record{FilingDate: today}
	if raw == "" {
		return rec
	}

	lines := Lines(raw)
	text := strings.Join(lines, "\n")

	if m := filingDateRx.FindStringSubmatch(text); m != nil {
		if d, err := time.Parse(dateLayout, m[2]); err == nil {
			rec.FilingDate = d
			rec.FilingDateParsed = true
		}
	}
	rec.EffectiveDate = optionalDate(effectiveRx, text)
	rec.EventDateFiled = optionalDate(eventFiledRx, text)
	rec.EventEffectiveDate = optionalDate(eventEffRx, text)

	if m := feiEINRx.FindStringSubmatch(text); m != nil {
		rec.FEIEIN = registry.Truncate(strings.TrimSpace(m[1]), registry.MaxFEIEINLen)
	}
	if m := lastEventRx.FindStringSubmatch(text); m != nil {
		rec.LastEvent = registry.Truncate(strings.TrimSpace(m[1]), registry.MaxLastEventLen)
	}
	if m := statusRx.FindStringSubmatch(text); m != nil {
		rec.Status = strings.TrimSpace(m[1])
	}

	rec.EntityType = registry.Truncate(entityType(lines, text), registry.MaxEntityTypeLen)

	rec.PrincipalAddress = blockBetween(lines, "Principal Address")
	rec.MailingAddress = blockBetween(lines, "Mailing Address")
	rec.RegisteredAgentName, rec.RegisteredAgentAddress = registeredAgent(lines)

	rec.City = e.city(rec.PrincipalAddress, rec.MailingAddress, text)
	rec.Officers = officers(lines)
	return rec
}

func optionalDate(rx *regexp.Regexp, text string) *time.Time {
	m := rx.FindStringSubmatch(text)
	if m == nil || strings.EqualFold(m[len(m)-1], "NONE") {
		return nil
	}
	d, err := time.Parse(dateLayout, m[len(m)-1])
	if err != nil {
		return nil
	}
	return &d
}

// entityType resolves the entity type in reliability order: the lines right
// under the detail heading, then an explicit label, then a vocabulary match
// anywhere in the text.
func entityType(lines []string, text string) string {
	for i, ln := range lines {
		if !detailHeadingRx.MatchString(ln) {
			continue
		}
		for _, cand := range window(lines, i+1, 4) {
			if entityVocabRx.MatchString(cand) {
				return strings.TrimSpace(cand)
			}
		}
		break
	}
	if m := entityLabelRx.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	if m := entityVocabRx.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1] + " " + m[2])
	}
	return ""
}

// blockBetween collects the lines after the label line up to the first stop
// label or end of text, cleaned and joined with ", ".
func blockBetween(lines []string, label string) string {
	start := indexOfLabel(lines, label)
	if start < 0 {
		return ""
	}
	var kept []string
	for _, ln := range lines[start+1:] {
		if isStopLabel(ln) {
			break
		}
		if t := strings.Trim(ln, " \t\r\n:"); t != "" {
			kept = append(kept, t)
		}
		if len(kept) >= maxBlockLines {
			break
		}
	}
	return strings.Join(kept, ", ")
}

// registeredAgent prefers the combined name-and-address section: first line
// is the agent name, the rest the address. Pages without the combined block
// fall back to a bare name line plus a separate address block.
func registeredAgent(lines []string) (name, addr string) {
	if i := indexOfLabel(lines, "Registered Agent Name & Address"); i >= 0 {
		var block []string
		for _, ln := range lines[i+1:] {
			if isStopLabel(ln) {
				break
			}
			if t := strings.Trim(ln, " \t\r\n:"); t != "" {
				block = append(block, t)
			}
		}
		if len(block) > 0 {
			name = block[0]
			if len(block) > 1 {
				addr = strings.Join(block[1:], ", ")
			}
			return name, addr
		}
	}
	for _, label := range []string{"Registered Agent Name", "Registered Agent"} {
		if i := indexOfLabel(lines, label); i >= 0 && i+1 < len(lines) && !isStopLabel(lines[i+1]) {
			name = strings.Trim(lines[i+1], " \t\r\n:")
			break
		}
	}
	addr = blockBetween(lines, "Registered Agent Address")
	return name, addr
}

// city is inferred, not authoritative: first "<City>, ST" pattern in the
// principal address, else mailing address, else the whole page.
func (e *Extractor) city(principal, mailing, text string) string {
	for _, src := range []string{principal, mailing, text} {
		if src == "" {
			continue
		}
		if m := e.cityRx.FindStringSubmatch(src); m != nil {
			return titleCase(strings.TrimSpace(m[1]))
		}
	}
	return ""
}

func indexOfLabel(lines []string, label string) int {
	want := normalizeLabel(label)
	for i, ln := range lines {
		if normalizeLabel(ln) == want {
			return i
		}
	}
	return -1
}

func isStopLabel(line string) bool {
	norm := strings.ToLower(strings.TrimSpace(line))
	for _, stop := range stopLabels {
		if strings.HasPrefix(norm, strings.ToLower(stop)) {
			return true
		}
	}
	return false
}

func normalizeLabel(s string) string {
	return strings.ToLower(strings.Trim(s, " \t:"))
}

func window(lines []string, start, n int) []string {
	if start >= len(lines) {
		return nil
	}
	end := start + n
	if end > len(lines) {
		end = len(lines)
	}
	return lines[start:end]
}

func titleCase(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		r := []rune(w)
		if len(r) > 0 {
			words[i] = strings.ToUpper(string(r[0])) + string(r[1:])
		}
	}
	return strings.Join(words, " ")
}
