package history

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sig-0/krwrates/storage/types"
)

var ErrEmptySeries = errors.New("empty history series")

// Fetcher fetches a historical rate series for a currency pair
type Fetcher interface {
	Series(
		ctx context.Context,
		base types.Currency,
		target types.Currency,
		from time.Time,
		to time.Time,
	) (Series, error)
}

// Service serves lookback queries over historical rates,
// consulting the cache before issuing a new outbound call
type Service struct {
	fetcher Fetcher
	cache   Cache
	now     func() time.Time
}

type ServiceOption func(s *Service)

// WithNow overrides the service clock
func WithNow(now func() time.Time) ServiceOption {
	return func(s *Service) {
		s.now = now
	}
}

// NewService creates a new history service
func NewService(fetcher Fetcher, cache Cache, opts ...ServiceOption) *Service {
	s := &Service{
		fetcher: fetcher,
		cache:   cache,
		now:     time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Summary compares the latest observation against the lookback extremes
type Summary struct {
	Min     Point  `json:"min"`
	Max     Point  `json:"max"`
	Latest  Point  `json:"latest"`
	Message string `json:"message"`
}

// Lookback returns the series for the past number of days, with a summary.
// Results are cached per query within the cache's freshness window;
// concurrent identical queries may still each trigger an outbound call
func (s *Service) Lookback(
	ctx context.Context,
	base types.Currency,
	target types.Currency,
	days int,
) (Series, *Summary, error) {
	var (
		to   = s.now().UTC()
		from = to.AddDate(0, 0, -days)

		key = fmt.Sprintf(
			"%s/%s/%s/%s",
			base, target,
			from.Format(DateLayout), to.Format(DateLayout),
		)
	)

	if series, ok := s.cache.Get(key); ok {
		return series, summarize(series, days), nil
	}

	series, err := s.fetcher.Series(ctx, base, target, from, to)
	if err != nil {
		return nil, nil, fmt.Errorf("unable to fetch history series: %w", err)
	}

	if len(series) == 0 {
		return nil, nil, ErrEmptySeries
	}

	s.cache.Set(key, series)

	return series, summarize(series, days), nil
}

// summarize builds the min/max/latest comparison for a date-ascending series
func summarize(series Series, days int) *Summary {
	if len(series) == 0 {
		return nil
	}

	var (
		minPoint = series[0]
		maxPoint = series[0]
		latest   = series[len(series)-1]
	)

	for _, point := range series[1:] {
		if point.Rate < minPoint.Rate {
			minPoint = point
		}

		if point.Rate > maxPoint.Rate {
			maxPoint = point
		}
	}

	var message string

	switch {
	case latest.Rate <= minPoint.Rate:
		message = fmt.Sprintf(
			"Today's rate %.2f is the lowest of the past %d days.",
			latest.Rate, days,
		)
	case latest.Rate >= maxPoint.Rate:
		message = fmt.Sprintf(
			"Today's rate %.2f is the highest of the past %d days; it was cheaper at %.2f on %s.",
			latest.Rate, days, minPoint.Rate, minPoint.Date,
		)
	default:
		message = fmt.Sprintf(
			"Today's rate %.2f sits between the %d-day low %.2f (%s) and high %.2f (%s).",
			latest.Rate, days, minPoint.Rate, minPoint.Date, maxPoint.Rate, maxPoint.Date,
		)
	}

	return &Summary{
		Min:     minPoint,
		Max:     maxPoint,
		Latest:  latest,
		Message: message,
	}
}
