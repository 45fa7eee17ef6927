package screener

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Magnitude suffixes the screener uses for share counts and volumes.
// Case-sensitive: a lowercase "m" is not a million.
var magnitudes = map[byte]decimal.Decimal{
	'K': decimal.New(1, 3),
	'M': decimal.New(1, 6),
	'B': decimal.New(1, 9),
}

// NormalizeNumeric converts a raw screener cell into a decimal value.
// A lone "-" is the screener's missing marker and anything else that does not
// parse comes back invalid — never zero, never an error. Percent signs are
// stripped without rescaling ("7.5%" stays 7.5; the caller knows the scale)
// and a trailing K/M/B multiplies by 1e3/1e6/1e9.
func NormalizeNumeric(raw string) decimal.NullDecimal {
	s := strings.TrimSpace(raw)
	if s == "" || s == "-" {
		return decimal.NullDecimal{}
	}

	s = strings.TrimSuffix(s, "%")

	mult := decimal.New(1, 0)
	if n := len(s); n > 1 {
		if m, ok := magnitudes[s[n-1]]; ok {
			mult = m
			s = s[:n-1]
		}
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: d.Mul(mult), Valid: true}
}
