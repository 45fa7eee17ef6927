package screener

import (
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// Record is one screened symbol after normalization. Values holds every
// column as it will be persisted (numeric cells in canonical decimal form,
// absent cells as ""); Numbers holds the parsed form of the numeric columns.
type Record struct {
	Ticker string
	Price  decimal.Decimal
	Float  decimal.NullDecimal
	Change decimal.NullDecimal

	Values  map[string]string
	Numbers map[string]decimal.NullDecimal
}

// Number returns the normalized numeric value of a canonical column.
func (r Record) Number(field string) decimal.NullDecimal {
	return r.Numbers[field]
}

// Extract reconciles the header row and normalizes the data rows into
// records. Rows whose cell count does not match the header are skipped (the
// source mixes ad and summary rows into the table markup), and rows that
// resolve to absent for any required numeric column are dropped rather than
// defaulted to zero. An empty result is not an error; only an unresolvable
// schema is.
func Extract(header []string, rows [][]string, required []string) ([]Record, Schema, error) {
	sch, err := Reconcile(header, required)
	if err != nil {
		return nil, Schema{}, err
	}

	records := make([]Record, 0, len(rows))
	skipped, rejected := 0, 0

rowLoop:
	for _, cells := range rows {
		if len(cells) != len(sch.Columns) {
			skipped++
			continue
		}

		rec := Record{
			Values:  make(map[string]string, len(cells)),
			Numbers: make(map[string]decimal.NullDecimal),
		}
		for i, col := range sch.Columns {
			if !sch.IsNumeric(col) {
				rec.Values[col] = cells[i]
				continue
			}
			n := NormalizeNumeric(cells[i])
			rec.Numbers[col] = n
			if n.Valid {
				rec.Values[col] = n.Decimal.String()
			} else {
				rec.Values[col] = ""
			}
		}

		rec.Ticker = rec.Values[FieldTicker]
		rec.Float = rec.Numbers[FieldFloat]
		rec.Change = rec.Numbers[FieldChange]
		if p := rec.Numbers[FieldPrice]; p.Valid && p.Decimal.IsPositive() {
			rec.Price = p.Decimal
		} else if sch.Has(FieldPrice) {
			rejected++
			continue
		}

		for _, req := range required {
			if sch.IsNumeric(req) && !rec.Numbers[req].Valid {
				rejected++
				continue rowLoop
			}
		}
		if rec.Ticker == "" {
			rejected++
			continue
		}

		records = append(records, rec)
	}

	if skipped > 0 || rejected > 0 {
		log.Debug().
			Int("shape_skipped", skipped).
			Int("rejected", rejected).
			Int("kept", len(records)).
			Msg("Extraction dropped rows")
	}
	return records, sch, nil
}
