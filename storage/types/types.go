package types

import (
	"errors"
	"fmt"
	"math"
	"time"
)

type Currency string

const (
	CurrencyKRW Currency = "KRW"
	CurrencyUSD Currency = "USD"
	CurrencyCNY Currency = "CNY"
	CurrencyPHP Currency = "PHP"
	CurrencyTWD Currency = "TWD"
	CurrencyJPY Currency = "JPY"
	CurrencyVND Currency = "VND"
	CurrencyTHB Currency = "THB"
	CurrencyEUR Currency = "EUR"
	CurrencyAUD Currency = "AUD"
)

// Pivot is the currency every conversion is routed through.
// Its rate is 1.0 in every bucket by definition, never fetched
const Pivot = CurrencyKRW

func (c Currency) String() string {
	return string(c)
}

type RateType string

const (
	RateTypeMid          RateType = "mid"
	RateTypeCashBuy      RateType = "cashBuy"
	RateTypeCashSell     RateType = "cashSell"
	RateTypeRemitSend    RateType = "remitSend"
	RateTypeRemitReceive RateType = "remitReceive"
)

func (r RateType) String() string {
	return string(r)
}

// RateTypes lists the rate bases in the order the source table publishes them
func RateTypes() []RateType {
	return []RateType{
		RateTypeMid,
		RateTypeCashBuy,
		RateTypeCashSell,
		RateTypeRemitSend,
		RateTypeRemitReceive,
	}
}

// ParseRateType parses the given raw value into a known rate type
func ParseRateType(raw string) (RateType, error) {
	t := RateType(raw)

	for _, known := range RateTypes() {
		if t == known {
			return t, nil
		}
	}

	return "", fmt.Errorf("%w: %q", ErrInvalidRateType, raw)
}

// Descriptor describes a single supported currency
type Descriptor struct {
	Code       Currency `json:"code"`
	Label      string   `json:"label"`
	MarketCode string   `json:"-"` // source market index, empty for the pivot
	SourceUnit float64  `json:"sourceUnit"`
}

// Snapshot is an immutable capture of the full rate table at one point
// in time. A new fetch produces a wholly new snapshot
type Snapshot struct {
	RatesByType map[RateType]map[Currency]float64 `json:"ratesByType"`
	SourceTime  string                            `json:"sourceTime,omitempty"`
	FetchedAt   time.Time                         `json:"fetchedAt"`
}

var (
	ErrInvalidRateType = errors.New("invalid rate type")
	ErrInvalidSnapshot = errors.New("invalid snapshot")
)

// Validate checks the snapshot invariants: every present entry is a
// positive finite number, and the pivot is exactly 1.0 in every bucket
func (s *Snapshot) Validate() error {
	if s == nil || len(s.RatesByType) == 0 {
		return fmt.Errorf("%w: no rate buckets", ErrInvalidSnapshot)
	}

	for _, rateType := range RateTypes() {
		bucket, ok := s.RatesByType[rateType]
		if !ok {
			return fmt.Errorf("%w: missing bucket %s", ErrInvalidSnapshot, rateType)
		}

		if bucket[Pivot] != 1.0 {
			return fmt.Errorf("%w: pivot not 1.0 in bucket %s", ErrInvalidSnapshot, rateType)
		}

		for code, rate := range bucket {
			if rate <= 0 || math.IsInf(rate, 0) || math.IsNaN(rate) {
				return fmt.Errorf(
					"%w: rate %f for %s in bucket %s",
					ErrInvalidSnapshot, rate, code, rateType,
				)
			}
		}
	}

	return nil
}

// Rate returns the per-1-unit rate for the given currency and rate type
func (s *Snapshot) Rate(rateType RateType, code Currency) (float64, bool) {
	bucket, ok := s.RatesByType[rateType]
	if !ok {
		return 0, false
	}

	rate, ok := bucket[code]

	return rate, ok
}

// Artifact is the JSON document that is the sole contract between the
// periodic fetch job and the static frontend
type Artifact struct {
	FetchedAt   string                            `json:"fetchedAt"`
	Source      string                            `json:"source"`
	BuildID     string                            `json:"buildIdentifier"`
	RatesByType map[RateType]map[Currency]float64 `json:"ratesByType"`
	Currencies  []Descriptor                      `json:"currencies"`
}

// NewArtifact bundles the snapshot with its metadata into the served form
func NewArtifact(
	snapshot *Snapshot,
	source string,
	buildID string,
	currencies []Descriptor,
) *Artifact {
	return &Artifact{
		FetchedAt:   snapshot.FetchedAt.UTC().Format(time.RFC3339),
		Source:      source,
		BuildID:     buildID,
		RatesByType: snapshot.RatesByType,
		Currencies:  currencies,
	}
}

// FallbackSnapshot returns the safe table rendered when no fetch has
// succeeded: the pivot at 1.0, everything else at 0.0, so the page can
// still render with conversions disabled
func FallbackSnapshot(currencies []Descriptor, now time.Time) *Snapshot {
	buckets := make(map[RateType]map[Currency]float64, len(RateTypes()))

	for _, rateType := range RateTypes() {
		bucket := make(map[Currency]float64, len(currencies))

		for _, descriptor := range currencies {
			bucket[descriptor.Code] = 0.0
		}

		bucket[Pivot] = 1.0

		buckets[rateType] = bucket
	}

	return &Snapshot{
		RatesByType: buckets,
		FetchedAt:   now.UTC(),
	}
}
