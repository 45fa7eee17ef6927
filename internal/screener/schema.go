package screener

import (
	"fmt"
	"strings"
)

// Canonical column names the rest of the pipeline keys on. These double as
// the CSV column names in the watchlist snapshot and the results ledger.
const (
	FieldTicker    = "Ticker"
	FieldPrice     = "Price"
	FieldFloat     = "Float"
	FieldChange    = "Change"
	FieldMarketCap = "MarketCap"
	FieldPE        = "P/E"
	FieldFwdPE     = "FwdPE"
	FieldPEG       = "PEG"
	FieldGap       = "Gap"
	FieldAvgVolume = "AvgVolume"
	FieldRelVolume = "RelVolume"
)

// synonyms maps header text as the screener renders it onto canonical names.
// The screener renames columns between revisions; anything not listed here is
// passed through under its own (trimmed) name rather than dropped.
var synonyms = map[string]string{
	"Shs Float":  FieldFloat,
	"Market Cap": FieldMarketCap,
	"Fwd P/E":    FieldFwdPE,
	"Rel Volume": FieldRelVolume,
	"Avg Volume": FieldAvgVolume,
}

// numericFields are the canonical columns run through NormalizeNumeric.
var numericFields = map[string]bool{
	FieldMarketCap: true,
	FieldPE:        true,
	FieldFwdPE:     true,
	FieldPEG:       true,
	FieldFloat:     true,
	FieldGap:       true,
	FieldAvgVolume: true,
	FieldRelVolume: true,
	FieldPrice:     true,
	FieldChange:    true,
}

// SchemaMismatchError reports a canonical column the source no longer
// provides. This is fatal for the run: filtering without it would silently
// select the wrong set.
type SchemaMismatchError struct {
	Field string
}

func (e *SchemaMismatchError) Error() string {
	return fmt.Sprintf("screener schema mismatch: required column %q not found (source layout may have changed)", e.Field)
}

// Schema is the reconciled column layout of one scrape: canonical names in
// the order the source presented them.
type Schema struct {
	Columns []string
}

// Has reports whether a canonical column is present.
func (s Schema) Has(name string) bool {
	for _, c := range s.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// IsNumeric reports whether a canonical column carries numeric cells.
func (s Schema) IsNumeric(name string) bool {
	return numericFields[name]
}

// Reconcile translates a scraped header row into canonical column names.
// Matching is exact after trimming; known synonyms are renamed and unknown
// headers are kept as passthrough columns. It fails with SchemaMismatchError
// when any column in required is missing after translation.
func Reconcile(headers []string, required []string) (Schema, error) {
	cols := make([]string, len(headers))
	for i, h := range headers {
		name := strings.TrimSpace(h)
		if canonical, ok := synonyms[name]; ok {
			name = canonical
		}
		cols[i] = name
	}

	sch := Schema{Columns: cols}
	for _, want := range required {
		if !sch.Has(want) {
			return Schema{}, &SchemaMismatchError{Field: want}
		}
	}
	return sch, nil
}
