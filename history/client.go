package history

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/sig-0/krwrates/storage/types"
)

// DateLayout is the wire format for series dates
const DateLayout = "2006-01-02"

// Point is a single dated rate observation
type Point struct {
	Date string  `json:"date"`
	Rate float64 `json:"rate"`
}

// Series is a date-ascending list of rate observations
type Series []Point

// Client fetches historical rate series from a JSON time-series endpoint
type Client struct {
	client  *http.Client
	baseURL string
}

// NewClient creates a new history endpoint client
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		client: &http.Client{
			Timeout: timeout,
		},
		baseURL: baseURL,
	}
}

// seriesResponse is the raw endpoint response. Rate values are decoded
// loosely on purpose: one malformed entry must not fail the whole series
type seriesResponse struct {
	Rates map[string]any `json:"rates"`
}

// Series fetches the date->rate mapping for the given pair and range.
// Entries with an invalid date or a non-positive/non-numeric rate are
// skipped individually
func (c *Client) Series(
	ctx context.Context,
	base types.Currency,
	target types.Currency,
	from time.Time,
	to time.Time,
) (Series, error) {
	endpoint, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid history endpoint: %w", err)
	}

	query := endpoint.Query()
	query.Set("base", base.String())
	query.Set("target", target.String())
	query.Set("from", from.UTC().Format(DateLayout))
	query.Set("to", to.UTC().Format(DateLayout))
	endpoint.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("unable to create new GET request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("unable to execute GET request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("invalid status code received: %d", resp.StatusCode)
	}

	var payload seriesResponse

	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("unable to decode history response: %w", err)
	}

	series := make(Series, 0, len(payload.Rates))

	for date, raw := range payload.Rates {
		if _, err := time.Parse(DateLayout, date); err != nil {
			continue // malformed date, skip the entry
		}

		rate, ok := raw.(float64)
		if !ok || rate <= 0 || math.IsInf(rate, 0) || math.IsNaN(rate) {
			continue // malformed rate, skip the entry
		}

		series = append(series, Point{
			Date: date,
			Rate: rate,
		})
	}

	sort.Slice(series, func(i, j int) bool {
		return series[i].Date < series[j].Date
	})

	return series, nil
}
