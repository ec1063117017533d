package monitor

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestReportSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state.json")
	report := &Report{
		RunID:     "run-1",
		Timestamp: time.Now().UTC().Truncate(time.Second),
		Threshold: 1.5,
		Total:     3,
		Healthy:   1,
		Depleted:  1,
		Errors:    1,
		Credentials: []CredentialReport{
			{ID: "k1", Balance: 4.2, Status: "healthy", Healthy: true},
			{ID: "k2", Status: "depleted", Action: "disabled"},
			{ID: "k3", Status: "unknown", HTTPStatus: 500, Error: "unexpected status"},
		},
	}

	require.NoError(t, report.Save(path))

	loaded, err := LoadReport(path)
	require.NoError(t, err)
	require.Equal(t, report, loaded)
}

func TestLoadReportMissingFile(t *testing.T) {
	loaded, err := LoadReport(filepath.Join(t.TempDir(), "absent.json"))
	require.NoError(t, err)
	require.Nil(t, loaded)
}

func TestHistoryBoundedMostRecentFirst(t *testing.T) {
	h := NewHistory()
	require.Nil(t, h.Last())

	for i := 0; i < maxHistoryEntries+10; i++ {
		h.Add(&Report{RunID: string(rune('a' + i%26))})
	}
	require.Len(t, h.Recent(0), maxHistoryEntries)

	h.Add(&Report{RunID: "newest"})
	require.Equal(t, "newest", h.Last().RunID)
	require.Len(t, h.Recent(5), 5)
	require.Equal(t, "newest", h.Recent(5)[0].RunID)
}
