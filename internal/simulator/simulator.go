// Package simulator replays a watchlist against the next session's intraday
// bars and classifies each symbol into a bounded paper-trade outcome.
package simulator

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"github.com/ymgw/day2watch/internal/alphavantage"
	"github.com/ymgw/day2watch/internal/screener"
	"github.com/ymgw/day2watch/internal/watchlist"
)

// Thresholds are the exit parameters: fractional TP/SL distances from the
// session open and the fixed reward bookkeeping values they map to.
type Thresholds struct {
	TakeProfitPct decimal.Decimal // e.g. 0.10 = +10% above open
	StopLossPct   decimal.Decimal // e.g. 0.05 = -5% below open
	RewardWin     decimal.Decimal // pnl recorded on a TP hit
	RewardLoss    decimal.Decimal // pnl recorded on an SL hit (negative)
}

// Outcome is one symbol's classified session.
type Outcome struct {
	Ticker     string
	SimDate    time.Time
	Open       decimal.Decimal
	High       decimal.Decimal
	Low        decimal.Decimal
	MaxGainPct decimal.Decimal
	MaxLossPct decimal.Decimal
	PnL        decimal.Decimal
}

// Result pairs an outcome with the watchlist record that produced it, so the
// ledger can carry the screening columns through.
type Result struct {
	Record  screener.Record
	Outcome Outcome
}

// BarSource provides one session of intraday bars per symbol.
type BarSource interface {
	SessionBars(ctx context.Context, symbol string, day time.Time) ([]alphavantage.Bar, error)
}

// Simulator runs the watchlist symbol by symbol with a fixed pacing delay
// between provider calls.
type Simulator struct {
	source     BarSource
	thresholds Thresholds
	limiter    *rate.Limiter
}

// New creates a simulator. minDelay is the floor between successive provider
// calls (the provider's free tier allows roughly one call per 15s).
func New(source BarSource, thresholds Thresholds, minDelay time.Duration) *Simulator {
	if minDelay <= 0 {
		minDelay = 15 * time.Second
	}
	return &Simulator{
		source:     source,
		thresholds: thresholds,
		limiter:    rate.NewLimiter(rate.Every(minDelay), 1),
	}
}

// Run evaluates every snapshot symbol against simDate's session. Each symbol
// is an independent unit of work: fetch failures, malformed payloads and
// empty series are logged and skipped, never aborting the siblings. A symbol
// with no bars produces no row at all — "not evaluated" stays distinct from
// "evaluated as neutral".
func (s *Simulator) Run(ctx context.Context, snap watchlist.Snapshot, simDate time.Time) ([]Result, error) {
	results := make([]Result, 0, len(snap.Records))

	for _, rec := range snap.Records {
		if err := s.limiter.Wait(ctx); err != nil {
			return results, err
		}

		bars, err := s.source.SessionBars(ctx, rec.Ticker, simDate)
		switch {
		case errors.Is(err, alphavantage.ErrRateLimited):
			// Wait out one more pacing interval, then move to the next
			// symbol rather than aborting the run.
			log.Warn().Str("ticker", rec.Ticker).Err(err).Msg("Provider rate limited, backing off")
			if err := s.limiter.Wait(ctx); err != nil {
				return results, err
			}
			continue
		case errors.Is(err, alphavantage.ErrNoData):
			log.Warn().Str("ticker", rec.Ticker).Msg("No intraday series, symbol skipped")
			continue
		case err != nil:
			log.Error().Str("ticker", rec.Ticker).Err(err).Msg("Symbol simulation failed, continuing")
			continue
		}
		if len(bars) == 0 {
			log.Warn().Str("ticker", rec.Ticker).Str("sim_date", simDate.Format("2006-01-02")).Msg("No bars for session date, symbol skipped")
			continue
		}

		outcome := Classify(rec.Ticker, simDate, bars, s.thresholds)
		log.Info().
			Str("ticker", rec.Ticker).
			Str("open", outcome.Open.String()).
			Str("high", outcome.High.String()).
			Str("low", outcome.Low.String()).
			Str("pnl", outcome.PnL.String()).
			Msg("Symbol simulated")

		results = append(results, Result{Record: rec, Outcome: outcome})
	}

	return results, nil
}

// Classify reduces a session's bars to an outcome. Open is the first bar's
// open; high/low are the session extremes. When both thresholds are crossed
// the series has no intra-session ordering to consult, so take-profit wins
// by construction — changing this precedence silently changes historical
// pnl semantics.
func Classify(ticker string, simDate time.Time, bars []alphavantage.Bar, th Thresholds) Outcome {
	open := bars[0].Open
	high := bars[0].High
	low := bars[0].Low
	for _, b := range bars[1:] {
		if b.High.GreaterThan(high) {
			high = b.High
		}
		if b.Low.LessThan(low) {
			low = b.Low
		}
	}

	out := Outcome{
		Ticker:  ticker,
		SimDate: simDate,
		Open:    open,
		High:    high,
		Low:     low,
	}

	// Guard against a non-positive open: the percentages are zero by
	// definition and neither threshold can trigger.
	if !open.IsPositive() {
		out.MaxGainPct = decimal.Zero
		out.MaxLossPct = decimal.Zero
		out.PnL = decimal.Zero
		return out
	}

	hundred := decimal.NewFromInt(100)
	out.MaxGainPct = high.Sub(open).Div(open).Mul(hundred).Round(2)
	out.MaxLossPct = low.Sub(open).Div(open).Mul(hundred).Round(2)

	one := decimal.NewFromInt(1)
	tpHit := high.GreaterThanOrEqual(open.Mul(one.Add(th.TakeProfitPct)))
	slHit := low.LessThanOrEqual(open.Mul(one.Sub(th.StopLossPct)))

	switch {
	case tpHit:
		out.PnL = th.RewardWin
	case slHit:
		out.PnL = th.RewardLoss
	default:
		out.PnL = decimal.Zero
	}
	return out
}
