// Package pipeline wires the two halves of the cron cycle together:
// step A screens the close and publishes a watchlist, step B replays that
// watchlist against the next session and extends the results ledger.
package pipeline

import (
	"context"
	"time"

	"github.com/ymgw/day2watch/internal/config"
	"github.com/ymgw/day2watch/internal/history"
	"github.com/ymgw/day2watch/internal/ledger"
	"github.com/ymgw/day2watch/internal/notify"
	"github.com/ymgw/day2watch/internal/simulator"
	"github.com/ymgw/day2watch/internal/watchlist"
)

// Screener fetches the raw screener table.
type Screener interface {
	FetchTable(ctx context.Context) (header []string, rows [][]string, err error)
}

// Deps are the pipeline's collaborators, injectable for tests.
type Deps struct {
	Screener   Screener
	Store      *watchlist.Store
	Notifiers  []notify.Notifier
	Simulator  *simulator.Simulator
	Ledger     *ledger.Ledger
	History    *history.Store
	ExchangeTZ *time.Location
	Now        func() time.Time
}

// Pipeline runs one invocation of either step.
type Pipeline struct {
	cfg  *config.Config
	deps Deps
}

// New creates a pipeline.
func New(cfg *config.Config, deps Deps) *Pipeline {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.ExchangeTZ == nil {
		deps.ExchangeTZ = time.UTC
	}
	return &Pipeline{cfg: cfg, deps: deps}
}

// exchangeToday returns the current calendar date in the exchange's zone.
func (p *Pipeline) exchangeToday() time.Time {
	now := p.deps.Now().In(p.deps.ExchangeTZ)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, p.deps.ExchangeTZ)
}
