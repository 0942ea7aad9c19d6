// Package snapshot stores raw HTML captured around navigation and parse
// failures, so broken pages can be inspected after a long crawl. Snapshots
// are debug artifacts: storing one must never fail the crawl.
package snapshot

import (
	"context"
	"crypto/sha256"
	"fmt"
)

// Store writes one named HTML snapshot and returns its URI.
type Store interface {
	Put(ctx context.Context, name string, html []byte) (string, error)
}

// Nop discards snapshots; used when snapshotting is disabled.
type Nop struct{}

// Put discards the snapshot.
func (Nop) Put(context.Context, string, []byte) (string, error) { return "", nil }

// ObjectName builds a stable object name from the capture label and the
// content hash, so identical pages captured twice collapse to one object.
func ObjectName(label string, html []byte) string {
	sum := sha256.Sum256(html)
	return fmt.Sprintf("%s_%x.html", label, sum[:8])
}
