// Package ledger maintains results.csv: the append-only table every
// simulation run extends and nothing ever rewrites row-by-row.
package ledger

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
)

// Row is one ledger entry: column name to cell value. Absent columns stay
// absent ("" on disk), never zero.
type Row map[string]string

// Ledger persists rows at a single CSV path. Appends use read-concatenate-
// rewrite semantics; the deployment invariant is a single active writer.
type Ledger struct {
	path string
}

// New creates a ledger handle; the file itself appears on first append.
func New(path string) *Ledger {
	return &Ledger{path: path}
}

// Path returns the backing file path.
func (l *Ledger) Path() string {
	return l.path
}

// Append loads the existing rows, concatenates the new batch in order and
// persists the full set. The column set may grow run to run: new columns are
// appended after the existing ones and old rows read back as absent in them.
// Duplicate (Ticker, sim_date) rows are dropped so a rerun of the same
// session cannot double-record an outcome.
func (l *Ledger) Append(columns []string, rows []Row) error {
	if len(rows) == 0 {
		return nil
	}

	existingCols, existingRows, err := l.read()
	if err != nil {
		return err
	}

	merged := append([]string{}, existingCols...)
	for _, col := range columns {
		if !contains(merged, col) {
			merged = append(merged, col)
		}
	}

	seen := make(map[string]bool, len(existingRows))
	for _, row := range existingRows {
		seen[outcomeKey(row)] = true
	}

	appended := 0
	all := existingRows
	for _, row := range rows {
		if key := outcomeKey(row); key != "" {
			if seen[key] {
				log.Warn().Str("outcome", key).Msg("Outcome already in ledger, skipping duplicate")
				continue
			}
			seen[key] = true
		}
		all = append(all, row)
		appended++
	}
	if appended == 0 {
		return nil
	}

	if err := l.write(merged, all); err != nil {
		return err
	}

	log.Info().
		Str("path", l.path).
		Int("appended", appended).
		Int("total", len(all)).
		Msg("💾 Results ledger updated")
	return nil
}

// Read returns the full ledger contents.
func (l *Ledger) Read() ([]string, []Row, error) {
	return l.read()
}

func (l *Ledger) read() ([]string, []Row, error) {
	f, err := os.Open(l.path)
	if os.IsNotExist(err) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("reading ledger %s: %w", l.path, err)
	}
	if len(records) == 0 {
		return nil, nil, nil
	}

	columns := records[0]
	rows := make([]Row, 0, len(records)-1)
	for _, rec := range records[1:] {
		row := make(Row, len(columns))
		for i, col := range columns {
			if i < len(rec) && rec[i] != "" {
				row[col] = rec[i]
			}
		}
		rows = append(rows, row)
	}
	return columns, rows, nil
}

// write replaces the ledger file via temp-and-rename so a crash mid-write
// cannot leave a truncated ledger behind.
func (l *Ledger) write(columns []string, rows []Row) error {
	if dir := filepath.Dir(l.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	tmp, err := os.CreateTemp(filepath.Dir(l.path), ".results-*.csv")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	if err := w.Write(columns); err != nil {
		tmp.Close()
		return err
	}
	for _, row := range rows {
		out := make([]string, len(columns))
		for i, col := range columns {
			out[i] = row[col]
		}
		if err := w.Write(out); err != nil {
			tmp.Close()
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), l.path)
}

func outcomeKey(row Row) string {
	ticker, date := row["Ticker"], row["sim_date"]
	if ticker == "" || date == "" {
		return ""
	}
	return ticker + "@" + date
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
