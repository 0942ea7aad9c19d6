package extract

import (
	"regexp"
	"strings"

	"github.com/newbizpulse/sunbiz-crawler/internal/registry"
)

var (
	// Section headings and navigation chrome that would otherwise corrupt
	// name/address assignment inside the officer block.
	officerNoiseRx = regexp.MustCompile(`(?i)^(Annual Reports|No Annual Reports Filed|Document Images|View image in PDF format|Previous On List|Next On List|Return to List)\b`)
	// Historical document rows, e.g. "04/23/2025 -- ANNUAL REPORT".
	dateDocRx = regexp.MustCompile(`(?i)^\d{1,2}/\d{1,2}/\d{4}\s+--\s+`)

	titleMarkerRx = regexp.MustCompile(`(?i)^title\b`)
)

// officers parses the officer/director section, falling back to the
// authorized-persons section when the former is absent or empty.
func officers(lines []string) []registry.Officer {
	people := parsePeople(lines, "Officer/Director Detail")
	if len(people) == 0 {
		people = parsePeople(lines, "Authorized Person(s) Detail")
	}
	return people
}

// parsePeople runs a small state machine over the section's lines: a line
// matching the title marker starts a new person, the next line is the name,
// and everything up to the next marker is address fragments.
func parsePeople(lines []string, sectionLabel string) []registry.Officer {
	start := indexOfLabel(lines, sectionLabel)
	if start < 0 {
		return nil
	}

	var section []string
	for _, ln := range lines[start+1:] {
		if isStopLabel(ln) {
			break
		}
		t := strings.TrimSpace(ln)
		if t == "" || officerNoiseRx.MatchString(t) || dateDocRx.MatchString(t) {
			continue
		}
		section = append(section, t)
	}

	var people []registry.Officer
	i := 0
	for i < len(section) {
		if !titleMarkerRx.MatchString(section[i]) {
			i++
			continue
		}
		person := registry.Officer{Title: titleValue(section[i])}
		i++
		var addr []string
		for i < len(section) && !titleMarkerRx.MatchString(section[i]) {
			if person.Name == "" {
				person.Name = section[i]
			} else {
				addr = append(addr, section[i])
			}
			i++
		}
		person.Address = strings.Join(addr, ", ")
		people = append(people, person)
	}
	return people
}

// titleValue strips the "Title" marker, keeping the role text ("Title MGR"
// -> "MGR"). A bare marker line keeps its full text.
func titleValue(line string) string {
	if idx := strings.IndexAny(line, " \t"); idx >= 0 {
		return strings.TrimSpace(line[idx+1:])
	}
	return strings.TrimSpace(line)
}
