// Package listing parses registry search-results pages into row summaries.
package listing

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/newbizpulse/sunbiz-crawler/internal/registry"
)

// Header labels used to score candidate tables. A usable results table must
// mention both the document-number and status labels somewhere in its text.
var headerLabels = []string{"corporate name", "entity name", "document number", "status"}

// Parse extracts the ordered rows of a search-results page. It returns an
// empty slice when no recognizable results table exists, which callers treat
// as "no more pages". Partial or malformed rows are dropped silently.
func Parse(html string) []registry.ListingRow {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	table := bestTable(doc)
	if table == nil {
		return nil
	}

	var rows []registry.ListingRow
	table.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		if tr.Find("th").Length() > 0 {
			return
		}
		cells := tr.Find("td")
		if cells.Length() < 3 {
			return
		}
		nameCell := cells.Eq(0)
		row := registry.ListingRow{
			Name:      cellText(nameCell),
			DocNumber: cellText(cells.Eq(1)),
			Status:    cellText(cells.Eq(2)),
		}
		anchor := nameCell.Find("a").First()
		if anchor.Length() > 0 {
			if text := cellText(anchor); text != "" {
				row.Name = text
			}
			row.Href, _ = anchor.Attr("href")
		}
		if row.Name == "" || row.DocNumber == "" || row.Href == "" {
			return
		}
		rows = append(rows, row)
	})
	return rows
}

// bestTable scores every table on the page by how many known header labels
// its text contains and returns the highest scorer that has the two required
// labels and at least one data row.
func bestTable(doc *goquery.Document) *goquery.Selection {
	var best *goquery.Selection
	bestScore := 0
	doc.Find("table").Each(func(_ int, t *goquery.Selection) {
		text := strings.ToLower(squash(t.Text()))
		if !strings.Contains(text, "document number") || !strings.Contains(text, "status") {
			return
		}
		score := 0
		for _, label := range headerLabels {
			if strings.Contains(text, label) {
				score++
			}
		}
		if dataRows(t) == 0 {
			return
		}
		if score > bestScore {
			best = t
			bestScore = score
		}
	})
	return best
}

func dataRows(t *goquery.Selection) int {
	n := 0
	t.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		if tr.Find("th").Length() == 0 && tr.Find("td").Length() >= 3 {
			n++
		}
	})
	return n
}

func cellText(s *goquery.Selection) string {
	return squash(s.Text())
}

// squash collapses runs of whitespace into single spaces, the way the source
// markup's nested spans and newlines would otherwise leak into field values.
func squash(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
