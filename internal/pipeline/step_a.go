package pipeline

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/ymgw/day2watch/internal/calendar"
	"github.com/ymgw/day2watch/internal/notify"
	"github.com/ymgw/day2watch/internal/screener"
	"github.com/ymgw/day2watch/internal/watchlist"
)

// marketDateLookback bounds the walk back to the most recent session when
// labeling a snapshot (covers long weekends plus a holiday cluster).
const marketDateLookback = 7

// RunScreen is step A: scrape the screener, select the watchlist, persist
// the snapshot and notify the channels. An unresolvable source or schema is
// fatal; an empty selection completes the run with nothing persisted.
func (p *Pipeline) RunScreen(ctx context.Context) error {
	log.Info().Msg("🔎 Step A: screening the close")

	header, rows, err := p.deps.Screener.FetchTable(ctx)
	if err != nil {
		return err
	}

	required := []string{screener.FieldTicker, screener.FieldPrice}
	if p.cfg.FloatMaxShares().Valid {
		required = append(required, screener.FieldFloat)
	}

	records, sch, err := screener.Extract(header, rows, required)
	if err != nil {
		return err
	}
	log.Info().Int("scraped", len(rows)).Int("usable", len(records)).Msg("Screener table extracted")

	marketDate, ok := calendar.MostRecentSession(p.exchangeToday(), marketDateLookback)
	if !ok {
		// Nothing traded in a week: label with yesterday rather than fail.
		marketDate = p.exchangeToday().AddDate(0, 0, -1)
		log.Warn().Str("market_date", marketDate.Format("2006-01-02")).Msg("No recent session found, falling back to yesterday")
	}

	snap := watchlist.Select(records, sch, marketDate, watchlist.Criteria{
		PriceMin:  p.cfg.PriceMin,
		PriceMax:  p.cfg.PriceMax,
		FloatMax:  p.cfg.FloatMaxShares(),
		TopN:      p.cfg.TopN,
		RankField: p.cfg.RankField,
	})
	if snap.Empty() {
		log.Info().Msg("No candidates matched the screen; nothing to persist or notify")
		return nil
	}

	path, err := p.deps.Store.Save(snap)
	if err != nil {
		return fmt.Errorf("persisting watchlist: %w", err)
	}

	content := notify.FormatWatchlist(snap)
	for _, n := range p.deps.Notifiers {
		if err := n.Send(content); err != nil {
			// Delivery failure does not invalidate the persisted snapshot.
			log.Error().Err(err).Msg("Watchlist notification failed")
		}
	}

	log.Info().
		Str("market_date", snap.MarketDate.Format("2006-01-02")).
		Int("candidates", len(snap.Records)).
		Str("snapshot", path).
		Msg("✅ Step A complete")
	return nil
}
