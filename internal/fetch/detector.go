package fetch

import (
	"bytes"
	"net/http"
)

const defaultMinBodyBytes = 2048

// detailMarkers are fragments a fully rendered detail page always carries.
// A body missing all of them was probably an interstitial or error shell.
var detailMarkers = [][]byte{
	[]byte("Detail by Entity Name"),
	[]byte("Document Number"),
	[]byte("Filing Information"),
}

// Detector decides whether an HTTP-fetched detail page is complete enough to
// extract from, or whether the row needs a real browser visit.
type Detector struct {
	MinBodyBytes int
}

// NewDetector builds a Detector; threshold 0 selects the default.
func NewDetector(minBodyBytes int) *Detector {
	if minBodyBytes <= 0 {
		minBodyBytes = defaultMinBodyBytes
	}
	return &Detector{MinBodyBytes: minBodyBytes}
}

// Complete reports whether the fetched document can be extracted directly.
func (d *Detector) Complete(status int, body []byte) bool {
	if status != http.StatusOK {
		return false
	}
	if len(body) < d.MinBodyBytes {
		return false
	}
	for _, marker := range detailMarkers {
		if bytes.Contains(body, marker) {
			return true
		}
	}
	return false
}
