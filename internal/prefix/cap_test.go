package prefix

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCapUnlimited(t *testing.T) {
	var nilCap *Cap
	require.False(t, nilCap.Reached())
	require.True(t, nilCap.TryAdmit())
	require.Zero(t, nilCap.Admitted())

	zero := NewCap(0)
	for i := 0; i < 100; i++ {
		require.True(t, zero.TryAdmit())
	}
	require.False(t, zero.Reached())
}

func TestCapSequential(t *testing.T) {
	c := NewCap(2)
	require.True(t, c.TryAdmit())
	require.False(t, c.Reached())
	require.True(t, c.TryAdmit())
	require.True(t, c.Reached())
	require.False(t, c.TryAdmit())
	require.Equal(t, 2, c.Admitted())
}

func TestCapNeverOveradmitsUnderContention(t *testing.T) {
	const limit = 5
	c := NewCap(limit)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		admitted int
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if c.TryAdmit() {
				mu.Lock()
				admitted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	require.Equal(t, limit, admitted)
	require.Equal(t, limit, c.Admitted())
	require.True(t, c.Reached())
}
