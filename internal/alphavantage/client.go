// Package alphavantage fetches 1-minute intraday bars. The provider keys the
// series by naive timestamp strings in the exchange's local time zone, so
// every timestamp is parsed in America/New_York — parsing them naive and
// comparing against UTC picks the wrong session around midnight.
package alphavantage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

const defaultBaseURL = "https://www.alphavantage.co"

// ErrRateLimited means the provider answered with a throttling note instead
// of data. Callers wait out their pacing delay and move on; this is never a
// run-fatal condition.
var ErrRateLimited = errors.New("alphavantage: rate limited")

// ErrNoData means the provider had no intraday series for the symbol on the
// requested day. The symbol is skipped, not recorded as a neutral outcome.
var ErrNoData = errors.New("alphavantage: no intraday data")

// Bar is one 1-minute candle.
type Bar struct {
	Time   time.Time
	Open   decimal.Decimal
	High   decimal.Decimal
	Low    decimal.Decimal
	Close  decimal.Decimal
	Volume decimal.Decimal
}

// Client calls the TIME_SERIES_INTRADAY endpoint.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	exchangeTZ *time.Location
}

// NewClient creates a provider client. The exchange time zone is loaded once
// up front so a missing tz database fails loudly at startup, not per symbol.
func NewClient(apiKey string) (*Client, error) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		return nil, fmt.Errorf("loading exchange time zone: %w", err)
	}
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    defaultBaseURL,
		apiKey:     apiKey,
		exchangeTZ: loc,
	}, nil
}

// ExchangeTZ exposes the exchange time zone for session-date arithmetic.
func (c *Client) ExchangeTZ() *time.Location {
	return c.exchangeTZ
}

// intradayResponse mirrors the provider's wire shape: string-encoded OHLCV
// keyed by timestamp, plus the various envelope fields it uses to report
// throttling and errors.
type intradayResponse struct {
	Note         string             `json:"Note"`
	Information  string             `json:"Information"`
	ErrorMessage string             `json:"Error Message"`
	Series       map[string]wireBar `json:"Time Series (1min)"`
}

type wireBar struct {
	Open   string `json:"1. open"`
	High   string `json:"2. high"`
	Low    string `json:"3. low"`
	Close  string `json:"4. close"`
	Volume string `json:"5. volume"`
}

// SessionBars returns the symbol's 1-minute bars for one session date,
// oldest first. Bars outside the requested date are discarded.
func (c *Client) SessionBars(ctx context.Context, symbol string, day time.Time) ([]Bar, error) {
	q := url.Values{}
	q.Set("function", "TIME_SERIES_INTRADAY")
	q.Set("symbol", symbol)
	q.Set("interval", "1min")
	q.Set("outputsize", "full")
	q.Set("apikey", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/query?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching intraday series for %s: %w", symbol, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading intraday response for %s: %w", symbol, err)
	}
	if resp.StatusCode != http.StatusOK {
		if resp.StatusCode == http.StatusTooManyRequests {
			return nil, fmt.Errorf("%w: HTTP %d", ErrRateLimited, resp.StatusCode)
		}
		return nil, fmt.Errorf("intraday request for %s: HTTP %d", symbol, resp.StatusCode)
	}

	var payload intradayResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decoding intraday response for %s: %w", symbol, err)
	}

	if len(payload.Series) == 0 {
		// The free tier reports throttling inside a 200 response.
		if payload.Note != "" {
			return nil, fmt.Errorf("%w: %s", ErrRateLimited, payload.Note)
		}
		if payload.Information != "" {
			return nil, fmt.Errorf("%w: %s", ErrRateLimited, payload.Information)
		}
		if payload.ErrorMessage != "" {
			return nil, fmt.Errorf("intraday request for %s rejected: %s", symbol, payload.ErrorMessage)
		}
		return nil, fmt.Errorf("%w: %s", ErrNoData, symbol)
	}

	// day is a calendar date already expressed in the exchange's zone.
	y, m, d := day.Date()

	bars := make([]Bar, 0, len(payload.Series))
	for ts, wire := range payload.Series {
		t, err := time.ParseInLocation("2006-01-02 15:04:05", ts, c.exchangeTZ)
		if err != nil {
			return nil, fmt.Errorf("malformed timestamp %q for %s: %w", ts, symbol, err)
		}
		by, bm, bd := t.Date()
		if by != y || bm != m || bd != d {
			continue
		}
		bar, err := parseBar(t, wire)
		if err != nil {
			return nil, fmt.Errorf("malformed bar at %s for %s: %w", ts, symbol, err)
		}
		bars = append(bars, bar)
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	return bars, nil
}

func parseBar(t time.Time, wire wireBar) (Bar, error) {
	var (
		bar = Bar{Time: t}
		err error
	)
	if bar.Open, err = decimal.NewFromString(wire.Open); err != nil {
		return Bar{}, err
	}
	if bar.High, err = decimal.NewFromString(wire.High); err != nil {
		return Bar{}, err
	}
	if bar.Low, err = decimal.NewFromString(wire.Low); err != nil {
		return Bar{}, err
	}
	if bar.Close, err = decimal.NewFromString(wire.Close); err != nil {
		return Bar{}, err
	}
	if bar.Volume, err = decimal.NewFromString(wire.Volume); err != nil {
		return Bar{}, err
	}
	return bar, nil
}
