package store

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func writeTempStore(t *testing.T, doc string) *FileStore {
	t.Helper()
	path := filepath.Join(t.TempDir(), "credentials.json")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))
	return NewFileStore(path)
}

func TestFileStoreDisableReenableRoundTrip(t *testing.T) {
	ctx := context.Background()
	fs := writeTempStore(t, sampleDoc)

	require.NoError(t, fs.Disable(ctx, "k1", 6*time.Hour))

	records, err := fs.List(ctx, "openai")
	require.NoError(t, err)
	var k1 Record
	for _, r := range records {
		if r.ID == "k1" {
			k1 = r
		}
	}
	require.True(t, k1.Health.BillingDisabled())
	require.True(t, k1.Health.Disabled(time.Now()))
	require.Equal(t, 1, k1.Health.ErrorCount)
	require.Equal(t, 1, k1.Health.FailureCounts[ReasonBilling])
	require.Greater(t, k1.Health.LastFailureAt, int64(0))

	require.NoError(t, fs.Reenable(ctx, "k1"))

	records, err = fs.List(ctx, "openai")
	require.NoError(t, err)
	for _, r := range records {
		if r.ID == "k1" {
			k1 = r
		}
	}
	require.False(t, k1.Health.BillingDisabled())
	require.False(t, k1.Health.Disabled(time.Now()))
	require.Equal(t, 0, k1.Health.ErrorCount)
	require.NotContains(t, k1.Health.FailureCounts, ReasonBilling)
}

func TestFileStoreReenableGuardsOtherReasons(t *testing.T) {
	ctx := context.Background()
	fs := writeTempStore(t, sampleDoc)
	before, err := os.ReadFile(fs.path)
	require.NoError(t, err)

	// k2 was disabled by some other subsystem; re-enable must not touch it.
	require.NoError(t, fs.Reenable(ctx, "k2"))

	after, err := os.ReadFile(fs.path)
	require.NoError(t, err)
	require.Equal(t, string(before), string(after))
}

func TestFileStoreListMissingFile(t *testing.T) {
	fs := NewFileStore(filepath.Join(t.TempDir(), "nope.json"))
	_, err := fs.List(context.Background(), "openai")
	require.ErrorIs(t, err, ErrStoreRead)
}

func TestFileStoreListUnparseable(t *testing.T) {
	fs := writeTempStore(t, "{broken")
	_, err := fs.List(context.Background(), "openai")
	require.ErrorIs(t, err, ErrStoreRead)
}

func TestFileStoreDisableUnknownID(t *testing.T) {
	fs := writeTempStore(t, sampleDoc)
	var nf *NotFoundError
	require.ErrorAs(t, fs.Disable(context.Background(), "ghost", time.Hour), &nf)
}

// Concurrent writers must never leave a torn document behind: the
// exclusive lock spans each full read-modify-write.
func TestFileStoreConcurrentMutations(t *testing.T) {
	ctx := context.Background()
	fs := writeTempStore(t, sampleDoc)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 5; j++ {
				if (i+j)%2 == 0 {
					_ = fs.Disable(ctx, "k1", time.Hour)
				} else {
					_ = fs.Reenable(ctx, "k1")
				}
			}
		}(i)
	}
	wg.Wait()

	data, err := os.ReadFile(fs.path)
	require.NoError(t, err)
	require.True(t, gjson.ValidBytes(data))

	records, err := fs.List(ctx, "openai")
	require.NoError(t, err)
	require.Len(t, records, 2)

	// Fields this tool does not own survive the churn.
	require.Equal(t, "dark", gjson.GetBytes(data, "settings.theme").String())
	require.Equal(t, "manual", gjson.GetBytes(data, "usageStats.k2.disabledReason").String())
}
