// Package sink holds the record sinks the engine can stream admitted records
// into. The engine never writes storage itself; it hands each record to a
// Sink and moves on, so a slow or failing sink cannot abort a crawl.
package sink

import (
	"context"
	"sync"

	"github.com/newbizpulse/sunbiz-crawler/internal/registry"
)

// Memory collects records in memory. Used for dry runs and tests.
type Memory struct {
	mu      sync.Mutex
	records []registry.Record
}

// NewMemory builds an empty Memory sink.
func NewMemory() *Memory {
	return &Memory{}
}

// Keep appends rec. Safe for concurrent workers.
func (m *Memory) Keep(_ context.Context, rec registry.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, rec)
	return nil
}

// Close is a no-op.
func (m *Memory) Close(context.Context) error { return nil }

// Records returns a copy of everything kept so far.
func (m *Memory) Records() []registry.Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]registry.Record, len(m.records))
	copy(out, m.records)
	return out
}
