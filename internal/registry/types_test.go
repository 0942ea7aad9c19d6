package registry

import (
	"encoding/json"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/require"
)

func TestTruncate(t *testing.T) {
	require.Equal(t, "abc", Truncate("abc", 10))
	require.Equal(t, "abc", Truncate("abcdef", 3))
	require.Equal(t, "", Truncate("", 5))
	require.Equal(t, "abc", Truncate("abc", 0), "zero max means no limit")

	long := strings.Repeat("x", MaxEntityTypeLen+20)
	require.Len(t, Truncate(long, MaxEntityTypeLen), MaxEntityTypeLen)
}

func TestTruncateMultibyte(t *testing.T) {
	// Rune-aware: never cuts a multibyte character in half.
	got := Truncate("ñññññ", 4)
	require.Equal(t, "ññññ", got)
	require.True(t, utf8.ValidString(got))
}

func TestSummaryMerge(t *testing.T) {
	var s Summary
	s.Merge(Summary{PagesSeen: 2, RowsSeen: 10, DetailsVisited: 4, Admitted: 3})
	s.Merge(Summary{PagesSeen: 1, RowsSeen: 5, DetailsVisited: 2, Admitted: 1})

	require.Equal(t, 3, s.PagesSeen)
	require.Equal(t, 15, s.RowsSeen)
	require.Equal(t, 6, s.DetailsVisited)
	require.Equal(t, 4, s.Admitted)
}

func TestRecordJSONOmitsAbsentFields(t *testing.T) {
	raw, err := json.Marshal(Record{Name: "ACME", DocNumber: "L1"})
	require.NoError(t, err)

	body := string(raw)
	require.Contains(t, body, `"doc_number":"L1"`)
	require.NotContains(t, body, "effective_date")
	require.NotContains(t, body, "officers")
}
