package pipeline

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/ymgw/day2watch/internal/calendar"
	"github.com/ymgw/day2watch/internal/ledger"
	"github.com/ymgw/day2watch/internal/simulator"
)

// Result columns appended after the watchlist passthrough columns, in the
// order the ledger has always carried them.
var outcomeColumns = []string{"sim_date", "open", "high", "low", "pnl", "max_gain_pct", "max_loss_pct"}

// RunSimulate is step B: replay the newest watchlist snapshot against
// today's session and append the outcomes to the results ledger. A market
// holiday is a clean no-op; a missing snapshot is the one fatal case.
func (p *Pipeline) RunSimulate(ctx context.Context) error {
	simDate := p.exchangeToday()
	if !calendar.IsTradingDay(simDate) {
		log.Info().Str("date", simDate.Format("2006-01-02")).Msg("Market closed today, no simulation")
		return nil
	}

	snap, err := p.deps.Store.Latest()
	if err != nil {
		return fmt.Errorf("locating watchlist snapshot: %w", err)
	}
	if snap.Empty() {
		log.Info().Msg("Watchlist snapshot is empty, nothing to simulate")
		return nil
	}

	log.Info().
		Str("market_date", snap.MarketDate.Format("2006-01-02")).
		Str("sim_date", simDate.Format("2006-01-02")).
		Int("symbols", len(snap.Records)).
		Msg("📈 Step B: simulating the watchlist")

	results, err := p.deps.Simulator.Run(ctx, snap, simDate)
	if err != nil {
		return err
	}
	if len(results) == 0 {
		log.Info().Msg("No symbol produced an evaluable session; ledger unchanged")
		return nil
	}

	columns := append(append([]string{}, snap.Columns...), outcomeColumns...)
	rows := make([]ledger.Row, 0, len(results))
	for _, res := range results {
		rows = append(rows, outcomeRow(res))
	}
	if err := p.deps.Ledger.Append(columns, rows); err != nil {
		return fmt.Errorf("appending to results ledger: %w", err)
	}

	if err := p.deps.History.RecordOutcomes(results); err != nil {
		// The CSV ledger is the durable record; the mirror is best effort.
		log.Error().Err(err).Msg("History store append failed")
	}

	log.Info().Int("outcomes", len(results)).Msg("✅ Step B complete")
	return nil
}

// outcomeRow merges a watchlist record's columns with its simulated outcome.
func outcomeRow(res simulator.Result) ledger.Row {
	row := make(ledger.Row, len(res.Record.Values)+len(outcomeColumns))
	for col, val := range res.Record.Values {
		row[col] = val
	}

	o := res.Outcome
	row["sim_date"] = o.SimDate.Format("2006-01-02")
	row["open"] = o.Open.String()
	row["high"] = o.High.String()
	row["low"] = o.Low.String()
	row["pnl"] = o.PnL.String()
	row["max_gain_pct"] = o.MaxGainPct.String()
	row["max_loss_pct"] = o.MaxLossPct.String()
	return row
}
