package screener

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"
)

// DefaultURL is the screener query this pipeline was built around: the v=152
// custom view ordered by -Change, with the column set enumerated by c=.
const DefaultURL = "https://finviz.com/screener.ashx?v=152&o=-change&c=0,1,2,3,4,6,8,9,25,61,63,64,65,66"

// ErrSourceUnavailable means the screener page could not be fetched or its
// table could not be located at all. Fatal for the run.
var ErrSourceUnavailable = errors.New("screener source unavailable")

// Data rows carry an alternating dark/light row class; the trailing index
// digit drifts between revisions, so match the stable prefix only.
var dataRowClass = regexp.MustCompile(`table-(dark|light)-row`)

// Client fetches and parses the screener page.
type Client struct {
	httpClient *http.Client
	url        string
	userAgent  string
}

// NewClient creates a screener client for the given query URL.
func NewClient(url string) *Client {
	if url == "" {
		url = DefaultURL
	}
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		url:        url,
		userAgent:  "Mozilla/5.0",
	}
}

// FetchTable retrieves the screener page and returns the header row and data
// rows of its results table.
func (c *Client) FetchTable(ctx context.Context) ([]string, [][]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: reading response: %v", ErrSourceUnavailable, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, nil, fmt.Errorf("%w: HTTP %d: %s", ErrSourceUnavailable, resp.StatusCode, snippet(body))
	}

	header, rows, err := ParseTable(body)
	if err != nil {
		return nil, nil, err
	}

	log.Debug().Int("rows", len(rows)).Strs("header", header).Msg("Screener table fetched")
	return header, rows, nil
}

// ParseTable locates the results table in the page markup. The header row is
// found by its valign attribute and data rows by their row-class pattern, not
// by position, so extra ad/summary rows and reordered markup do not break it.
func ParseTable(html []byte) ([]string, [][]string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil, nil, fmt.Errorf("%w: parsing html: %v", ErrSourceUnavailable, err)
	}

	table := doc.Find("table.screener_table").First()
	if table.Length() == 0 {
		return nil, nil, fmt.Errorf("%w: table.screener_table not found, response starts with: %s", ErrSourceUnavailable, snippet(html))
	}

	var header []string
	table.Find(`tr[valign="middle"]`).First().Find("td").Each(func(_ int, cell *goquery.Selection) {
		header = append(header, strings.TrimSpace(cell.Text()))
	})
	if len(header) == 0 {
		return nil, nil, fmt.Errorf("%w: header row not found in screener table", ErrSourceUnavailable)
	}

	var rows [][]string
	table.Find("tr").Each(func(_ int, row *goquery.Selection) {
		class, _ := row.Attr("class")
		if !dataRowClass.MatchString(class) {
			return
		}
		var cells []string
		row.Find("td").Each(func(_ int, cell *goquery.Selection) {
			cells = append(cells, strings.TrimSpace(cell.Text()))
		})
		rows = append(rows, cells)
	})
	if len(rows) == 0 {
		return nil, nil, fmt.Errorf("%w: no data rows in screener table", ErrSourceUnavailable)
	}

	return header, rows, nil
}

// snippet trims a response body down to something loggable.
func snippet(body []byte) string {
	const max = 500
	s := strings.TrimSpace(string(body))
	if len(s) > max {
		s = s[:max] + "..."
	}
	return s
}
