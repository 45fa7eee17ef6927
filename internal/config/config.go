// Package config loads the pipeline's tuning knobs from the environment.
// Every constant the scripts used to hardcode lives here as an explicit,
// immutable value handed to the components at construction.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Mode selects which half of the pipeline an invocation runs.
type Mode string

const (
	// ModeScreen is step A: scrape after the close, select, persist, notify.
	ModeScreen Mode = "A"
	// ModeSimulate is step B: replay the watchlist against the next session.
	ModeSimulate Mode = "B"
)

// Step A runs in the cron window right after the US close (UTC).
const (
	screenWindowStartUTC = 20
	screenWindowEndUTC   = 21
)

// Config holds all configuration for one pipeline invocation.
type Config struct {
	// Channels & providers
	DiscordHook     string
	AlphaVantageKey string
	TelegramToken   string
	TelegramChatID  int64

	// Screening
	ScreenerURL string
	PriceMin    decimal.Decimal
	PriceMax    decimal.Decimal
	FloatMaxM   decimal.Decimal // millions of shares; <=0 disables the ceiling
	TopN        int
	RankField   string

	// Simulation
	TakeProfitPct decimal.Decimal
	StopLossPct   decimal.Decimal
	RewardWin     decimal.Decimal
	RewardLoss    decimal.Decimal
	ProviderDelay time.Duration

	// Storage
	OutputDir  string
	HistoryDSN string

	// Run control
	ManualStep string
	Debug      bool
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		DiscordHook:     os.Getenv("DISCORD_HOOK"),
		AlphaVantageKey: os.Getenv("ALPHA_VANTAGE_API_KEY"),
		TelegramToken:   os.Getenv("TELEGRAM_BOT_TOKEN"),

		ScreenerURL: os.Getenv("SCREENER_URL"),
		PriceMin:    getEnvDecimal("PRICE_MIN", decimal.RequireFromString("0.1")),
		PriceMax:    getEnvDecimal("PRICE_MAX", decimal.RequireFromString("5")),
		FloatMaxM:   getEnvDecimal("FLOAT_MAX_M", decimal.RequireFromString("50")),
		TopN:        getEnvInt("TOP_N_RESULTS", 10),
		RankField:   getEnv("RANK_FIELD", "Change"),

		TakeProfitPct: getEnvDecimal("TP_PCT", decimal.RequireFromString("0.10")),
		StopLossPct:   getEnvDecimal("SL_PCT", decimal.RequireFromString("0.05")),
		RewardWin:     getEnvDecimal("REWARD_WIN", decimal.NewFromInt(10)),
		RewardLoss:    getEnvDecimal("REWARD_LOSS", decimal.NewFromInt(-5)),
		ProviderDelay: getEnvDuration("PROVIDER_DELAY", 15*time.Second),

		OutputDir:  getEnv("OUTPUT_DIR", "output"),
		HistoryDSN: os.Getenv("DAY2_DB"),

		ManualStep: strings.ToUpper(strings.TrimSpace(os.Getenv("MANUAL_STEP"))),
		Debug:      getEnvBool("DEBUG", false),
	}

	if chatID := os.Getenv("TELEGRAM_CHAT_ID"); chatID != "" {
		id, err := strconv.ParseInt(chatID, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid TELEGRAM_CHAT_ID: %w", err)
		}
		cfg.TelegramChatID = id
	}

	if cfg.ManualStep != "" && cfg.ManualStep != string(ModeScreen) && cfg.ManualStep != string(ModeSimulate) {
		return nil, fmt.Errorf("invalid MANUAL_STEP %q: want A or B", cfg.ManualStep)
	}
	if cfg.PriceMin.GreaterThan(cfg.PriceMax) {
		return nil, fmt.Errorf("PRICE_MIN %s exceeds PRICE_MAX %s", cfg.PriceMin, cfg.PriceMax)
	}

	return cfg, nil
}

// ResolveMode picks the step for this invocation: the manual override wins,
// otherwise the UTC time of day decides (the post-close cron window runs
// step A, everything else is step B).
func (c *Config) ResolveMode(now time.Time) Mode {
	if c.ManualStep != "" {
		return Mode(c.ManualStep)
	}
	hour := now.UTC().Hour()
	if hour >= screenWindowStartUTC && hour < screenWindowEndUTC {
		return ModeScreen
	}
	return ModeSimulate
}

// FloatMaxShares converts the ceiling from millions to absolute shares;
// invalid when the ceiling is disabled.
func (c *Config) FloatMaxShares() decimal.NullDecimal {
	if !c.FloatMaxM.IsPositive() {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: c.FloatMaxM.Mul(decimal.New(1, 6)), Valid: true}
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvDecimal(key string, defaultValue decimal.Decimal) decimal.Decimal {
	if value := os.Getenv(key); value != "" {
		if d, err := decimal.NewFromString(value); err == nil {
			return d
		}
	}
	return defaultValue
}
