package sink

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/newbizpulse/sunbiz-crawler/internal/registry"
)

func TestMemoryKeepConcurrent(t *testing.T) {
	mem := NewMemory()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			require.NoError(t, mem.Keep(context.Background(), registry.Record{DocNumber: "D"}))
		}()
	}
	wg.Wait()

	require.Len(t, mem.Records(), 20)
	require.NoError(t, mem.Close(context.Background()))
}

func TestMemoryRecordsReturnsCopy(t *testing.T) {
	mem := NewMemory()
	require.NoError(t, mem.Keep(context.Background(), registry.Record{DocNumber: "D1"}))

	got := mem.Records()
	got[0].DocNumber = "MUTATED"
	require.Equal(t, "D1", mem.Records()[0].DocNumber)
}

type failingSink struct{ err error }

func (f failingSink) Keep(context.Context, registry.Record) error { return f.err }
func (f failingSink) Close(context.Context) error                 { return f.err }

func TestTeeDeliversPastFailures(t *testing.T) {
	mem := NewMemory()
	boom := errors.New("boom")
	tee := NewTee(failingSink{err: boom}, mem)

	err := tee.Keep(context.Background(), registry.Record{DocNumber: "D1"})
	require.ErrorIs(t, err, boom)
	require.Len(t, mem.Records(), 1, "the healthy sink still gets the record")

	require.ErrorIs(t, tee.Close(context.Background()), boom)
}

func TestTeeAllHealthy(t *testing.T) {
	a, b := NewMemory(), NewMemory()
	tee := NewTee(a, b)

	require.NoError(t, tee.Keep(context.Background(), registry.Record{DocNumber: "D1"}))
	require.Len(t, a.Records(), 1)
	require.Len(t, b.Records(), 1)
	require.NoError(t, tee.Close(context.Background()))
}
