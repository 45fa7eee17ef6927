package watchlist

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ymgw/day2watch/internal/screener"
)

var marketDate = time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)

func extract(t *testing.T, header []string, rows [][]string, required []string) ([]screener.Record, screener.Schema) {
	t.Helper()
	records, sch, err := screener.Extract(header, rows, required)
	require.NoError(t, err)
	return records, sch
}

func criteria(priceMin, priceMax string, floatMaxM int64, topN int) Criteria {
	crit := Criteria{
		PriceMin:  decimal.RequireFromString(priceMin),
		PriceMax:  decimal.RequireFromString(priceMax),
		TopN:      topN,
		RankField: screener.FieldChange,
	}
	if floatMaxM > 0 {
		crit.FloatMax = decimal.NullDecimal{Decimal: decimal.New(floatMaxM, 6), Valid: true}
	}
	return crit
}

func TestSelectEndToEnd(t *testing.T) {
	records, sch := extract(t,
		[]string{"Ticker", "Price", "Shs Float"},
		[][]string{
			{"AAA", "1.50", "5M"},
			{"BBB", "6.00", "2M"},
			{"CCC", "0.80", "-"},
		},
		[]string{screener.FieldTicker, screener.FieldPrice, screener.FieldFloat},
	)

	snap := Select(records, sch, marketDate, criteria("0.1", "5", 10, 10))

	require.Len(t, snap.Records, 1)
	assert.Equal(t, "AAA", snap.Records[0].Ticker, "BBB out of price range, CCC float unparsable")
	assert.Equal(t, marketDate, snap.MarketDate)
}

func TestSelectBoundedAndInRange(t *testing.T) {
	records, sch := extract(t,
		[]string{"Ticker", "Price", "Shs Float", "Change"},
		[][]string{
			{"T1", "1.00", "1M", "50%"},
			{"T2", "2.00", "1M", "80%"},
			{"T3", "3.00", "1M", "70%"},
			{"T4", "4.00", "1M", "90%"},
			{"T5", "9.00", "1M", "99%"},
		},
		[]string{screener.FieldTicker, screener.FieldPrice, screener.FieldFloat},
	)

	crit := criteria("0.5", "5", 10, 2)
	snap := Select(records, sch, marketDate, crit)

	require.Len(t, snap.Records, crit.TopN)
	for _, rec := range snap.Records {
		assert.True(t, rec.Price.GreaterThanOrEqual(crit.PriceMin))
		assert.True(t, rec.Price.LessThanOrEqual(crit.PriceMax))
	}
	// Ranked by Change descending; T5 excluded on price before ranking.
	assert.Equal(t, "T4", snap.Records[0].Ticker)
	assert.Equal(t, "T2", snap.Records[1].Ticker)
}

func TestSelectRankingStability(t *testing.T) {
	records, sch := extract(t,
		[]string{"Ticker", "Price", "Shs Float", "Change"},
		[][]string{
			{"FIRST", "1.00", "1M", "75%"},
			{"SECOND", "2.00", "1M", "75%"},
			{"THIRD", "3.00", "1M", "75%"},
		},
		[]string{screener.FieldTicker, screener.FieldPrice, screener.FieldFloat},
	)

	snap := Select(records, sch, marketDate, criteria("0.1", "5", 10, 10))

	require.Len(t, snap.Records, 3)
	assert.Equal(t, "FIRST", snap.Records[0].Ticker)
	assert.Equal(t, "SECOND", snap.Records[1].Ticker)
	assert.Equal(t, "THIRD", snap.Records[2].Ticker)
}

func TestSelectFloatColumnMissingDegraded(t *testing.T) {
	// Float ceiling configured but the scrape has no float column at all:
	// the predicate is skipped, not treated as rejecting everything.
	records, sch := extract(t,
		[]string{"Ticker", "Price"},
		[][]string{{"AAA", "1.50"}, {"BBB", "2.50"}},
		[]string{screener.FieldTicker, screener.FieldPrice},
	)

	snap := Select(records, sch, marketDate, criteria("0.1", "5", 10, 10))
	assert.Len(t, snap.Records, 2)
}

func TestSelectRankColumnMissingDegraded(t *testing.T) {
	records, sch := extract(t,
		[]string{"Ticker", "Price", "Shs Float"},
		[][]string{
			{"ZZZ", "4.00", "1M"},
			{"AAA", "1.00", "1M"},
		},
		[]string{screener.FieldTicker, screener.FieldPrice, screener.FieldFloat},
	)

	snap := Select(records, sch, marketDate, criteria("0.1", "5", 10, 10))

	require.Len(t, snap.Records, 2)
	assert.Equal(t, "ZZZ", snap.Records[0].Ticker, "scan order preserved in degraded mode")
	assert.Equal(t, "AAA", snap.Records[1].Ticker)
}

func TestSelectEmptyIsValid(t *testing.T) {
	records, sch := extract(t,
		[]string{"Ticker", "Price", "Shs Float"},
		[][]string{{"AAA", "50.00", "1M"}},
		[]string{screener.FieldTicker, screener.FieldPrice, screener.FieldFloat},
	)

	snap := Select(records, sch, marketDate, criteria("0.1", "5", 10, 10))
	assert.True(t, snap.Empty())
}

func TestSelectNoFloatCeiling(t *testing.T) {
	records, sch := extract(t,
		[]string{"Ticker", "Price", "Shs Float"},
		[][]string{{"AAA", "1.00", "900M"}},
		[]string{screener.FieldTicker, screener.FieldPrice},
	)

	snap := Select(records, sch, marketDate, criteria("0.1", "5", 0, 10))
	assert.Len(t, snap.Records, 1, "unset ceiling admits any float")
}
