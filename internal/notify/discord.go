// Package notify delivers the watchlist to chat channels. The Discord
// webhook is the primary sink; Telegram is an optional mirror.
package notify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/ymgw/day2watch/internal/screener"
	"github.com/ymgw/day2watch/internal/watchlist"
)

// Notifier is any channel that can carry the watchlist message.
type Notifier interface {
	Send(content string) error
}

const webhookUsername = "Day-2 Watch"

// Discord posts messages to a webhook URL.
type Discord struct {
	httpClient *http.Client
	webhookURL string
	username   string
}

// NewDiscord creates a webhook notifier.
func NewDiscord(webhookURL string) *Discord {
	return &Discord{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		webhookURL: webhookURL,
		username:   webhookUsername,
	}
}

// Send posts one message to the webhook.
func (d *Discord) Send(content string) error {
	payload, err := json.Marshal(map[string]string{
		"username": d.username,
		"content":  content,
	})
	if err != nil {
		return err
	}

	resp, err := d.httpClient.Post(d.webhookURL, "application/json", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("posting to webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook rejected message: HTTP %d", resp.StatusCode)
	}

	log.Info().Msg("📣 Watchlist notification sent")
	return nil
}

// FormatWatchlist renders the snapshot as the fixed-width table the channel
// shows inside a code fence: ticker, price and whichever derived fields the
// scrape carried.
func FormatWatchlist(snap watchlist.Snapshot) string {
	var b strings.Builder
	b.WriteString("```\n")
	fmt.Fprintf(&b, "--- %s post-close / next-session watch ---\n", snap.MarketDate.Format("2006-01-02"))

	for _, rec := range snap.Records {
		fmt.Fprintf(&b, "%-7s $%-5s", rec.Ticker, rec.Price.StringFixed(2))
		if rec.Change.Valid {
			fmt.Fprintf(&b, " Chg:%-8s", rec.Change.Decimal.StringFixed(2)+"%")
		}
		if rec.Float.Valid {
			fmt.Fprintf(&b, " Float:%-8s", millions(rec.Float.Decimal))
		}
		if rv := rec.Number(screener.FieldRelVolume); rv.Valid {
			fmt.Fprintf(&b, " RVol:%s", rv.Decimal.StringFixed(2))
		}
		b.WriteString("\n")
	}

	b.WriteString("```")
	return b.String()
}

func millions(shares decimal.Decimal) string {
	return shares.Div(decimal.New(1, 6)).StringFixed(1) + "M"
}
