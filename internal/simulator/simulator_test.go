package simulator

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ymgw/day2watch/internal/alphavantage"
	"github.com/ymgw/day2watch/internal/screener"
	"github.com/ymgw/day2watch/internal/watchlist"
)

var testThresholds = Thresholds{
	TakeProfitPct: decimal.RequireFromString("0.10"),
	StopLossPct:   decimal.RequireFromString("0.05"),
	RewardWin:     decimal.NewFromInt(10),
	RewardLoss:    decimal.NewFromInt(-5),
}

var simDate = time.Date(2025, 6, 3, 0, 0, 0, 0, time.UTC)

func bar(open, high, low string) alphavantage.Bar {
	return alphavantage.Bar{
		Open:   decimal.RequireFromString(open),
		High:   decimal.RequireFromString(high),
		Low:    decimal.RequireFromString(low),
		Close:  decimal.RequireFromString(open),
		Volume: decimal.NewFromInt(1000),
	}
}

func TestClassifyTakeProfit(t *testing.T) {
	out := Classify("AAA", simDate, []alphavantage.Bar{bar("10", "11.5", "9.8")}, testThresholds)

	assert.Equal(t, "10", out.PnL.String())
	assert.Equal(t, "15", out.MaxGainPct.String())
	assert.Equal(t, "-2", out.MaxLossPct.String())
}

func TestClassifyStopLoss(t *testing.T) {
	out := Classify("AAA", simDate, []alphavantage.Bar{bar("10", "10.2", "9.4")}, testThresholds)
	assert.Equal(t, "-5", out.PnL.String())
}

func TestClassifyNeutral(t *testing.T) {
	out := Classify("AAA", simDate, []alphavantage.Bar{bar("10", "10.5", "9.6")}, testThresholds)
	assert.True(t, out.PnL.IsZero())
}

func TestClassifyTakeProfitWinsOverStopLoss(t *testing.T) {
	// open=10, high=12, low=9: both thresholds crossed (high>=11, low<=9.5).
	// The series carries no intra-session ordering, so TP wins.
	out := Classify("AAA", simDate, []alphavantage.Bar{bar("10", "12", "9")}, testThresholds)
	assert.Equal(t, "10", out.PnL.String(), "take-profit takes precedence over stop-loss")
}

func TestClassifySessionExtremesAcrossBars(t *testing.T) {
	bars := []alphavantage.Bar{
		bar("10", "10.1", "9.9"),
		bar("10.1", "12", "10"),
		bar("11", "11.2", "9"),
	}
	out := Classify("AAA", simDate, bars, testThresholds)

	assert.Equal(t, "10", out.Open.String(), "open comes from the first bar")
	assert.Equal(t, "12", out.High.String())
	assert.Equal(t, "9", out.Low.String())
}

func TestClassifyNonPositiveOpen(t *testing.T) {
	out := Classify("AAA", simDate, []alphavantage.Bar{bar("0", "1", "0")}, testThresholds)

	assert.True(t, out.MaxGainPct.IsZero())
	assert.True(t, out.MaxLossPct.IsZero())
	assert.True(t, out.PnL.IsZero())
}

func TestClassifyRounding(t *testing.T) {
	// (10.333 - 10) / 10 * 100 = 3.33
	out := Classify("AAA", simDate, []alphavantage.Bar{bar("10", "10.333", "9.876")}, testThresholds)
	assert.Equal(t, "3.33", out.MaxGainPct.String())
	assert.Equal(t, "-1.24", out.MaxLossPct.String())
}

// fakeSource scripts per-symbol responses.
type fakeSource struct {
	bars  map[string][]alphavantage.Bar
	errs  map[string]error
	calls []string
}

func (f *fakeSource) SessionBars(_ context.Context, symbol string, _ time.Time) ([]alphavantage.Bar, error) {
	f.calls = append(f.calls, symbol)
	if err, ok := f.errs[symbol]; ok {
		return nil, err
	}
	return f.bars[symbol], nil
}

func testSnapshot(tickers ...string) watchlist.Snapshot {
	snap := watchlist.Snapshot{
		MarketDate: simDate.AddDate(0, 0, -1),
		Columns:    []string{"Ticker", "Price"},
	}
	for i, tk := range tickers {
		price := decimal.NewFromInt(int64(i + 1))
		snap.Records = append(snap.Records, screener.Record{
			Ticker: tk,
			Price:  price,
			Values: map[string]string{"Ticker": tk, "Price": price.String()},
		})
	}
	return snap
}

func TestRunContainsPerSymbolFailures(t *testing.T) {
	source := &fakeSource{
		bars: map[string][]alphavantage.Bar{
			"GOOD1": {bar("10", "12", "9.8")},
			"GOOD2": {bar("5", "5.1", "4.9")},
			"EMPTY": {},
		},
		errs: map[string]error{
			"BROKEN":  fmt.Errorf("connection reset"),
			"MISSING": alphavantage.ErrNoData,
		},
	}

	sim := New(source, testThresholds, time.Millisecond)
	results, err := sim.Run(context.Background(), testSnapshot("GOOD1", "BROKEN", "MISSING", "EMPTY", "GOOD2"), simDate)
	require.NoError(t, err)

	require.Len(t, results, 2, "failed and empty symbols are skipped, not recorded")
	assert.Equal(t, "GOOD1", results[0].Outcome.Ticker)
	assert.Equal(t, "GOOD2", results[1].Outcome.Ticker)
	assert.Equal(t, []string{"GOOD1", "BROKEN", "MISSING", "EMPTY", "GOOD2"}, source.calls, "every symbol is attempted")
}

func TestRunRateLimitedContinues(t *testing.T) {
	source := &fakeSource{
		bars: map[string][]alphavantage.Bar{"GOOD": {bar("10", "10.1", "9.9")}},
		errs: map[string]error{"LIMITED": fmt.Errorf("wrapped: %w", alphavantage.ErrRateLimited)},
	}

	sim := New(source, testThresholds, time.Millisecond)
	results, err := sim.Run(context.Background(), testSnapshot("LIMITED", "GOOD"), simDate)
	require.NoError(t, err)

	require.Len(t, results, 1)
	assert.Equal(t, "GOOD", results[0].Outcome.Ticker)
}

func TestRunHonorsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sim := New(&fakeSource{}, testThresholds, time.Minute)
	_, err := sim.Run(ctx, testSnapshot("AAA"), simDate)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}
