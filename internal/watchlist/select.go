// Package watchlist turns a normalized screener scrape into the bounded,
// dated candidate set that the next session's simulation consumes.
package watchlist

import (
	"sort"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/ymgw/day2watch/internal/screener"
)

// Criteria are the selection knobs. FloatMax is in absolute shares; an
// invalid FloatMax disables the float ceiling entirely.
type Criteria struct {
	PriceMin  decimal.Decimal
	PriceMax  decimal.Decimal
	FloatMax  decimal.NullDecimal
	TopN      int
	RankField string
}

// Snapshot is the immutable output of one screening run: at most TopN
// records for one market date, in rank order.
type Snapshot struct {
	MarketDate time.Time
	Columns    []string
	Records    []screener.Record
}

// Empty reports whether the snapshot selected no candidates.
func (s Snapshot) Empty() bool {
	return len(s.Records) == 0
}

// Select applies the inclusion predicates and ranks the survivors.
//
// Two degraded modes, both deliberate and logged rather than fatal: if the
// Float column is absent from this scrape's schema the float ceiling is
// skipped for every record (never treated as a filter that rejects all), and
// if the rank column is absent the filtered set keeps its scan order.
func Select(records []screener.Record, sch screener.Schema, marketDate time.Time, crit Criteria) Snapshot {
	floatCeiling := crit.FloatMax.Valid
	if floatCeiling && !sch.Has(screener.FieldFloat) {
		log.Warn().
			Str("degraded_mode", "float_column_missing").
			Msg("Float ceiling skipped: column absent from source schema")
		floatCeiling = false
	}

	var kept []screener.Record
	for _, rec := range records {
		if rec.Price.LessThan(crit.PriceMin) || rec.Price.GreaterThan(crit.PriceMax) {
			continue
		}
		if floatCeiling {
			if !rec.Float.Valid || rec.Float.Decimal.GreaterThan(crit.FloatMax.Decimal) {
				continue
			}
		}
		kept = append(kept, rec)
	}

	if sch.Has(crit.RankField) {
		// Stable sort: candidates with an equal rank value keep scan order.
		sort.SliceStable(kept, func(i, j int) bool {
			a, b := kept[i].Number(crit.RankField), kept[j].Number(crit.RankField)
			if a.Valid != b.Valid {
				return a.Valid // absent rank values sink to the bottom
			}
			if !a.Valid {
				return false
			}
			return a.Decimal.GreaterThan(b.Decimal)
		})
	} else if len(kept) > 0 {
		log.Warn().
			Str("degraded_mode", "rank_column_missing").
			Str("rank_field", crit.RankField).
			Msg("Ranking skipped: keeping scan order")
	}

	if crit.TopN > 0 && len(kept) > crit.TopN {
		kept = kept[:crit.TopN]
	}

	return Snapshot{
		MarketDate: marketDate,
		Columns:    sch.Columns,
		Records:    kept,
	}
}
