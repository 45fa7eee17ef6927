// Package history mirrors simulation outcomes into a relational store for
// ad-hoc querying. The CSV ledger stays the durable record; this store is
// optional and the pipeline runs unchanged without it.
package history

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/ymgw/day2watch/internal/simulator"
)

// OutcomeRow is one simulated session for one symbol.
type OutcomeRow struct {
	ID         uint   `gorm:"primaryKey;autoIncrement"`
	Ticker     string `gorm:"index;uniqueIndex:idx_ticker_sim_date"`
	SimDate    string `gorm:"index;uniqueIndex:idx_ticker_sim_date"`
	Open       decimal.Decimal `gorm:"type:decimal(20,6)"`
	High       decimal.Decimal `gorm:"type:decimal(20,6)"`
	Low        decimal.Decimal `gorm:"type:decimal(20,6)"`
	MaxGainPct decimal.Decimal `gorm:"type:decimal(10,2)"`
	MaxLossPct decimal.Decimal `gorm:"type:decimal(10,2)"`
	PnL        decimal.Decimal `gorm:"type:decimal(10,2)"`
	CreatedAt  time.Time
}

// Store wraps the gorm handle. A nil Store is a valid disabled store: every
// method is a no-op, so callers never branch on configuration.
type Store struct {
	db *gorm.DB
}

// Open connects to the history database. dsn is either a postgres:// URL or
// an sqlite file path; empty means disabled.
func Open(dsn string) (*Store, error) {
	if dsn == "" {
		log.Debug().Msg("History store disabled")
		return nil, nil
	}

	var (
		db  *gorm.DB
		err error
	)
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		db, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		if err != nil {
			return nil, err
		}
		log.Info().Msg("History store connected (PostgreSQL)")
	} else {
		if dir := filepath.Dir(dsn); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, err
			}
		}
		db, err = gorm.Open(sqlite.Open(dsn), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		if err != nil {
			return nil, err
		}
		log.Info().Str("path", dsn).Msg("History store initialized (SQLite)")
	}

	if err := db.AutoMigrate(&OutcomeRow{}); err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// RecordOutcomes stores one run's results. Reruns of the same session hit
// the (ticker, sim_date) unique index and are ignored, matching the ledger's
// idempotent append.
func (s *Store) RecordOutcomes(results []simulator.Result) error {
	if s == nil || len(results) == 0 {
		return nil
	}

	rows := make([]OutcomeRow, 0, len(results))
	for _, res := range results {
		o := res.Outcome
		rows = append(rows, OutcomeRow{
			Ticker:     o.Ticker,
			SimDate:    o.SimDate.Format("2006-01-02"),
			Open:       o.Open,
			High:       o.High,
			Low:        o.Low,
			MaxGainPct: o.MaxGainPct,
			MaxLossPct: o.MaxLossPct,
			PnL:        o.PnL,
		})
	}

	return s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error
}

// RecentOutcomes returns the latest rows, newest first.
func (s *Store) RecentOutcomes(limit int) ([]OutcomeRow, error) {
	if s == nil {
		return nil, nil
	}
	var rows []OutcomeRow
	err := s.db.Order("sim_date DESC, ticker ASC").Limit(limit).Find(&rows).Error
	return rows, err
}
