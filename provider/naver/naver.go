package naver

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/transform"

	"github.com/sig-0/krwrates/provider/currencies"
	"github.com/sig-0/krwrates/storage/types"
)

// DefaultURL is the market-index exchange list page
const DefaultURL = "https://finance.naver.com/marketindex/exchangeList.naver"

var (
	ErrRowNotFound   = errors.New("market row not found")
	ErrColumnCount   = errors.New("not enough numeric columns")
	errInvalidNumber = errors.New("invalid rate number")
)

// Provider is the Naver Finance exchange list scraping provider
type Provider struct {
	client *http.Client
	url    string
}

// New creates a new instance of the Naver Finance provider
func New(pageURL string, timeout time.Duration) *Provider {
	return &Provider{
		client: &http.Client{
			Timeout: timeout,
		},
		url: pageURL,
	}
}

func (p *Provider) Name() string {
	return "Naver Finance"
}

func (p *Provider) Interval() time.Duration {
	return time.Minute * 10 // the table is refreshed continuously throughout the day
}

// Fetch scrapes the exchange list page and assembles a rate snapshot.
// The assembly is all-or-nothing: if any supported currency's row cannot
// be located or parsed, the whole fetch fails, so a half-populated table
// never reaches a converter
func (p *Provider) Fetch(ctx context.Context) (*types.Snapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("unable to create new GET request: %w", err)
	}

	// The page is served to browsers only
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("unable to execute GET request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("invalid status code received: %d", resp.StatusCode)
	}

	// The page is EUC-KR encoded. The decoder substitutes invalid byte
	// sequences instead of failing, which is what we want from a page
	// we only read numbers out of
	reader := transform.NewReader(resp.Body, korean.EUCKR.NewDecoder())

	doc, err := goquery.NewDocumentFromReader(reader)
	if err != nil {
		return nil, fmt.Errorf("unable to construct query doc: %w", err)
	}

	return assembleSnapshot(doc, currencies.Supported(), time.Now().UTC())
}

// assembleSnapshot builds the five rate-type buckets from the document
func assembleSnapshot(
	doc *goquery.Document,
	supported []types.Descriptor,
	fetchTime time.Time,
) (*types.Snapshot, error) {
	var (
		rows      = extractRows(doc)
		rateTypes = types.RateTypes()

		buckets = make(map[types.RateType]map[types.Currency]float64, len(rateTypes))
	)

	for _, rateType := range rateTypes {
		buckets[rateType] = map[types.Currency]float64{
			types.Pivot: 1.0, // mathematical identity, not a fetched value
		}
	}

	for _, descriptor := range supported {
		if descriptor.MarketCode == "" {
			continue // the pivot has no market row
		}

		row, err := locateRow(rows, descriptor.MarketCode)
		if err != nil {
			return nil, err
		}

		columns, err := parseRowColumns(row)
		if err != nil {
			return nil, fmt.Errorf("unable to parse row for %s: %w", descriptor.Code, err)
		}

		// Fixed column order: mid, cash buy, cash sell, remit send, remit receive.
		// Division by the source unit yields the per-1-unit rate; no rounding here
		for i, rateType := range rateTypes {
			buckets[rateType][descriptor.Code] = columns[i] / descriptor.SourceUnit
		}
	}

	return &types.Snapshot{
		RatesByType: buckets,
		SourceTime:  sourceTime(doc),
		FetchedAt:   fetchTime,
	}, nil
}

// extractRows splits the document into discrete table rows.
// Each selection is bounded by its own row element, so a row can
// never swallow a subsequent one. No rows is not an error here;
// lookup reports the miss
func extractRows(doc *goquery.Document) []*goquery.Selection {
	var rows []*goquery.Selection

	doc.Find("tr").Each(func(_ int, row *goquery.Selection) {
		rows = append(rows, row)
	})

	return rows
}

// locateRow finds the single title row published under the given market
// code. The code is compared against the row link's marketindexCd query
// parameter exactly, never by substring: a too-loose match here once let
// one currency's values bleed into another's fields
func locateRow(rows []*goquery.Selection, marketCode string) (*goquery.Selection, error) {
	for _, row := range rows {
		title := row.Find("td.tit")
		if title.Length() == 0 {
			continue // decorative or detail row
		}

		href, ok := title.Find("a").First().Attr("href")
		if !ok {
			continue
		}

		link, err := url.Parse(href)
		if err != nil {
			continue
		}

		if link.Query().Get("marketindexCd") == marketCode {
			return row, nil
		}
	}

	return nil, fmt.Errorf("%w: %s", ErrRowNotFound, marketCode)
}

// parseRowColumns extracts the ordered numeric cell values from one row.
// Placeholder and non-numeric cells are discarded; grouping separators
// are tolerated. Fewer than 5 recoverable numbers is a hard failure for
// the row, it must never silently produce partial values
func parseRowColumns(row *goquery.Selection) ([]float64, error) {
	var (
		numbers  []float64
		parseErr error
	)

	row.Find("td").Each(func(_ int, cell *goquery.Selection) {
		if parseErr != nil {
			return
		}

		raw := strings.TrimSpace(cell.Text())
		if raw == "" || raw == "-" {
			return // placeholder cell
		}

		value, err := parseRateNumber(raw)
		if err != nil {
			if errors.Is(err, errInvalidNumber) {
				return // non-numeric cell (currency name, links)
			}

			// Numeric but out of domain: structural corruption,
			// fail the row instead of shifting column positions
			parseErr = err
		}

		if parseErr == nil {
			numbers = append(numbers, value)
		}
	})

	if parseErr != nil {
		return nil, parseErr
	}

	if len(numbers) < len(types.RateTypes()) {
		return nil, fmt.Errorf("%w: got %d", ErrColumnCount, len(numbers))
	}

	return numbers, nil
}

// parseRateNumber parses a single cell value.
// The page uses comma grouping and a plain decimal point: "1,350.00"
func parseRateNumber(s string) (float64, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, errInvalidNumber
	}

	if f < 0 || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, fmt.Errorf("rate out of domain: %q", s)
	}

	return f, nil
}

// sourceTime extracts the page-reported quote time, if any.
// The fetch wall-clock time stays authoritative when the page
// doesn't carry one
func sourceTime(doc *goquery.Document) string {
	return strings.TrimSpace(doc.Find("span.date").First().Text())
}
