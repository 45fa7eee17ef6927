// Day2Watch - post-close screener and next-session outcome tracker
//
// One binary, two steps, driven by the clock (or MANUAL_STEP):
//
// Step A (post-close): scrape the screener, rank the day's runners into a
// watchlist, persist the snapshot and announce it.
//
// Step B (next session): replay the newest watchlist against intraday bars
// and append the outcomes to the results ledger.
package main

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ymgw/day2watch/internal/alphavantage"
	"github.com/ymgw/day2watch/internal/config"
	"github.com/ymgw/day2watch/internal/history"
	"github.com/ymgw/day2watch/internal/ledger"
	"github.com/ymgw/day2watch/internal/notify"
	"github.com/ymgw/day2watch/internal/pipeline"
	"github.com/ymgw/day2watch/internal/screener"
	"github.com/ymgw/day2watch/internal/simulator"
	"github.com/ymgw/day2watch/internal/watchlist"
)

const version = "1.2.0"

func main() {
	// Setup logging
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	// Load environment
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg("No .env file found, using environment variables")
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	if cfg.Debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	mode := cfg.ResolveMode(time.Now())

	log.Info().
		Str("version", version).
		Str("step", string(mode)).
		Str("output_dir", cfg.OutputDir).
		Msg("⚡ Day2Watch starting...")

	store, err := watchlist.NewStore(cfg.OutputDir)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to prepare output directory")
	}

	bars, err := alphavantage.NewClient(cfg.AlphaVantageKey)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize bar provider")
	}

	hist, err := history.Open(cfg.HistoryDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open history store")
	}
	if hist != nil {
		log.Info().Msg("📊 Outcome history store connected")
	}

	var notifiers []notify.Notifier
	if cfg.DiscordHook != "" {
		notifiers = append(notifiers, notify.NewDiscord(cfg.DiscordHook))
	} else {
		log.Warn().Msg("DISCORD_HOOK not set, skipping Discord notifications")
	}
	if cfg.TelegramToken != "" && cfg.TelegramChatID != 0 {
		tg, err := notify.NewTelegram(cfg.TelegramToken, cfg.TelegramChatID)
		if err != nil {
			log.Warn().Err(err).Msg("Telegram notifier unavailable")
		} else {
			notifiers = append(notifiers, tg)
		}
	}

	sim := simulator.New(bars, simulator.Thresholds{
		TakeProfitPct: cfg.TakeProfitPct,
		StopLossPct:   cfg.StopLossPct,
		RewardWin:     cfg.RewardWin,
		RewardLoss:    cfg.RewardLoss,
	}, cfg.ProviderDelay)

	p := pipeline.New(cfg, pipeline.Deps{
		Screener:   screener.NewClient(cfg.ScreenerURL),
		Store:      store,
		Notifiers:  notifiers,
		Simulator:  sim,
		Ledger:     ledger.New(filepath.Join(cfg.OutputDir, "results.csv")),
		History:    hist,
		ExchangeTZ: bars.ExchangeTZ(),
	})

	ctx := context.Background()
	switch mode {
	case config.ModeScreen:
		err = p.RunScreen(ctx)
	case config.ModeSimulate:
		err = p.RunSimulate(ctx)
	}
	if err != nil {
		log.Fatal().Err(err).Str("step", string(mode)).Msg("Run failed")
	}
}
