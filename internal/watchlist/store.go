package watchlist

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/ymgw/day2watch/internal/screener"
)

const filePrefix = "watchlist_"

// Store persists watchlist snapshots as one CSV per market date:
// watchlist_<YYYY-MM-DD>.csv under a fixed output directory.
type Store struct {
	dir string
}

// NewStore creates the output directory if needed.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Save writes a snapshot. Snapshots are immutable once written: saving the
// same market date twice is an error, not an overwrite.
func (s *Store) Save(snap Snapshot) (string, error) {
	path := filepath.Join(s.dir, fmt.Sprintf("%s%s.csv", filePrefix, snap.MarketDate.Format("2006-01-02")))

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		if os.IsExist(err) {
			return "", fmt.Errorf("snapshot for %s already exists at %s", snap.MarketDate.Format("2006-01-02"), path)
		}
		return "", err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(snap.Columns); err != nil {
		return "", err
	}
	for _, rec := range snap.Records {
		row := make([]string, len(snap.Columns))
		for i, col := range snap.Columns {
			row[i] = rec.Values[col]
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}

	log.Info().Str("path", path).Int("records", len(snap.Records)).Msg("💾 Watchlist snapshot saved")
	return path, nil
}

// Latest returns the snapshot with the newest embedded market date, or an
// error when no snapshot exists yet (step A has not run).
func (s *Store) Latest() (Snapshot, error) {
	matches, err := filepath.Glob(filepath.Join(s.dir, filePrefix+"*.csv"))
	if err != nil {
		return Snapshot{}, err
	}
	if len(matches) == 0 {
		return Snapshot{}, fmt.Errorf("no watchlist snapshot found in %s", s.dir)
	}

	// File names embed the market date, so lexical order is date order.
	sort.Strings(matches)
	return s.Load(matches[len(matches)-1])
}

// Load reads one snapshot file back into memory.
func (s *Store) Load(path string) (Snapshot, error) {
	marketDate, err := dateFromPath(path)
	if err != nil {
		return Snapshot{}, err
	}

	f, err := os.Open(path)
	if err != nil {
		return Snapshot{}, err
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return Snapshot{}, fmt.Errorf("reading %s: %w", path, err)
	}
	if len(rows) == 0 {
		return Snapshot{}, fmt.Errorf("snapshot %s has no header row", path)
	}

	snap := Snapshot{MarketDate: marketDate, Columns: rows[0]}
	for _, row := range rows[1:] {
		rec := screener.Record{
			Values:  make(map[string]string, len(row)),
			Numbers: make(map[string]decimal.NullDecimal),
		}
		for i, col := range snap.Columns {
			if i >= len(row) {
				break
			}
			rec.Values[col] = row[i]
			if d, err := decimal.NewFromString(row[i]); err == nil {
				rec.Numbers[col] = decimal.NullDecimal{Decimal: d, Valid: true}
			}
		}
		rec.Ticker = rec.Values[screener.FieldTicker]
		rec.Float = rec.Numbers[screener.FieldFloat]
		rec.Change = rec.Numbers[screener.FieldChange]
		if p := rec.Numbers[screener.FieldPrice]; p.Valid {
			rec.Price = p.Decimal
		}
		snap.Records = append(snap.Records, rec)
	}
	return snap, nil
}

func dateFromPath(path string) (time.Time, error) {
	name := filepath.Base(path)
	name = strings.TrimSuffix(strings.TrimPrefix(name, filePrefix), ".csv")
	d, err := time.Parse("2006-01-02", name)
	if err != nil {
		return time.Time{}, fmt.Errorf("snapshot file %s has no parseable date: %w", path, err)
	}
	return d, nil
}
