package watchlist

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ymgw/day2watch/internal/screener"
)

func testSnapshot(t *testing.T, day time.Time) Snapshot {
	t.Helper()
	records, sch, err := screener.Extract(
		[]string{"Ticker", "Price", "Shs Float", "Change", "Company"},
		[][]string{
			{"AAA", "1.50", "5M", "120.5%", "Alpha Corp"},
			{"BBB", "3.25", "950K", "98.2%", "Beta, Inc."},
		},
		[]string{screener.FieldTicker, screener.FieldPrice, screener.FieldFloat},
	)
	require.NoError(t, err)
	return Snapshot{MarketDate: day, Columns: sch.Columns, Records: records}
}

func TestStoreRoundTrip(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	day := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	path, err := store.Save(testSnapshot(t, day))
	require.NoError(t, err)
	assert.Equal(t, "watchlist_2025-06-02.csv", filepath.Base(path))

	got, err := store.Load(path)
	require.NoError(t, err)
	assert.Equal(t, day, got.MarketDate)
	assert.Equal(t, []string{"Ticker", "Price", "Float", "Change", "Company"}, got.Columns)
	require.Len(t, got.Records, 2)

	assert.Equal(t, "AAA", got.Records[0].Ticker)
	assert.Equal(t, "1.5", got.Records[0].Price.String())
	require.True(t, got.Records[0].Float.Valid)
	assert.Equal(t, "5000000", got.Records[0].Float.Decimal.String())
	assert.Equal(t, "Alpha Corp", got.Records[0].Values["Company"])
	assert.Equal(t, "Beta, Inc.", got.Records[1].Values["Company"], "commas survive the CSV round trip")
}

func TestStoreSnapshotsAreImmutable(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	day := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	_, err = store.Save(testSnapshot(t, day))
	require.NoError(t, err)

	_, err = store.Save(testSnapshot(t, day))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

func TestStoreLatestPicksNewestDate(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	for _, day := range []time.Time{
		time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 6, 4, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 6, 3, 0, 0, 0, 0, time.UTC),
	} {
		_, err := store.Save(testSnapshot(t, day))
		require.NoError(t, err)
	}

	got, err := store.Latest()
	require.NoError(t, err)
	assert.Equal(t, "2025-06-04", got.MarketDate.Format("2006-01-02"))
}

func TestStoreLatestEmptyDir(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Latest()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no watchlist snapshot")
}
