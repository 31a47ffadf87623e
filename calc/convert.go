package calc

import (
	"errors"
	"fmt"
	"math"

	"github.com/sig-0/krwrates/storage/types"
)

var (
	ErrNoRates     = errors.New("no rates available")
	ErrUnknownRate = errors.New("unknown or non-positive rate")
)

// Convert converts the amount from one currency to another under the
// given rate type. The conversion is always routed through the pivot
// equivalent, never cross-multiplied between two non-pivot currencies
// directly: a single consistent basis, no need for O(n^2) direct pairs
func Convert(
	snapshot *types.Snapshot,
	amount float64,
	from types.Currency,
	to types.Currency,
	rateType types.RateType,
) (float64, error) {
	if snapshot == nil {
		return 0, ErrNoRates
	}

	if amount == 0 {
		return 0, nil
	}

	if from == to {
		return amount, nil // identity, exact
	}

	fromRate, ok := snapshot.Rate(rateType, from)
	if !ok || !validRate(fromRate) {
		return 0, fmt.Errorf("%w: %s/%s", ErrUnknownRate, from, rateType)
	}

	toRate, ok := snapshot.Rate(rateType, to)
	if !ok || !validRate(toRate) {
		return 0, fmt.Errorf("%w: %s/%s", ErrUnknownRate, to, rateType)
	}

	return amount * fromRate / toRate, nil
}

func validRate(rate float64) bool {
	return rate > 0 && !math.IsInf(rate, 0) && !math.IsNaN(rate)
}
