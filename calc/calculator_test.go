package calc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sig-0/krwrates/storage/types"
)

func testOrder() []types.Currency {
	return []types.Currency{
		types.CurrencyUSD,
		types.CurrencyKRW,
		types.CurrencyJPY,
		types.CurrencyEUR,
	}
}

func newTestCalculator(t *testing.T, opts ...Option) *Calculator {
	t.Helper()

	c, err := New(testSnapshot(t), testOrder(), opts...)
	require.NoError(t, err)

	return c
}

func TestCalculator_New(t *testing.T) {
	t.Parallel()

	t.Run("defaults", func(t *testing.T) {
		t.Parallel()

		c := newTestCalculator(t)

		require.True(t, c.RatesAvailable())
		assert.Equal(t, types.RateTypeMid, c.RateType())

		fields := c.ActiveFields()
		require.Len(t, fields, DefaultActiveFields)

		assert.Equal(t, types.CurrencyUSD, fields[0].Currency())
		assert.Equal(t, types.CurrencyKRW, fields[1].Currency())

		for _, field := range fields {
			assert.Equal(t, ZeroEditable, field.RawText())
		}
	})

	t.Run("no currencies", func(t *testing.T) {
		t.Parallel()

		_, err := New(testSnapshot(t), nil)
		assert.ErrorIs(t, err, ErrNoCurrencies)
	})

	t.Run("invalid bounds", func(t *testing.T) {
		t.Parallel()

		_, err := New(testSnapshot(t), testOrder(), WithFieldBounds(3, 2))
		assert.Error(t, err)
	})

	t.Run("invalid snapshot", func(t *testing.T) {
		t.Parallel()

		invalid := &types.Snapshot{
			RatesByType: map[types.RateType]map[types.Currency]float64{
				types.RateTypeMid: {
					types.CurrencyKRW: 2.0, // pivot must be exactly 1.0
				},
			},
		}

		_, err := New(invalid, testOrder())
		assert.ErrorIs(t, err, types.ErrInvalidSnapshot)
	})
}

func TestCalculator_SetAmount(t *testing.T) {
	t.Parallel()

	t.Run("edit propagates to the other fields", func(t *testing.T) {
		t.Parallel()

		c := newTestCalculator(t)

		// 100 USD at mid 1350.00 into the KRW field
		require.NoError(t, c.SetAmount(0, "100"))

		fields := c.ActiveFields()

		// The edited field keeps the in-progress text untouched
		assert.Equal(t, "100", fields[0].RawText())
		assert.Equal(t, 0, c.LastEdited())

		assert.Equal(t, "135000.00", fields[1].RawText())
		assert.Equal(t, "135,000.00", fields[1].DisplayText())
	})

	t.Run("clearing blanks the dependents", func(t *testing.T) {
		t.Parallel()

		c := newTestCalculator(t)

		require.NoError(t, c.SetAmount(0, "100"))
		require.NoError(t, c.SetAmount(0, ""))

		fields := c.ActiveFields()

		// Not a computed zero: blank
		assert.Empty(t, fields[1].RawText())
		assert.Empty(t, fields[1].DisplayText())

		_, hasValue := fields[1].Amount()
		assert.False(t, hasValue)
	})

	t.Run("in-progress decimal point is not coerced", func(t *testing.T) {
		t.Parallel()

		c := newTestCalculator(t)

		require.NoError(t, c.SetAmount(0, "100"))
		require.NoError(t, c.SetAmount(0, "."))

		fields := c.ActiveFields()
		assert.Empty(t, fields[1].RawText())
	})

	t.Run("invalid text is rejected, field unchanged", func(t *testing.T) {
		t.Parallel()

		c := newTestCalculator(t)

		require.NoError(t, c.SetAmount(0, "100"))
		require.ErrorIs(t, c.SetAmount(0, "abc"), ErrInvalidNumber)

		fields := c.ActiveFields()
		assert.Equal(t, "100", fields[0].RawText())
		assert.Equal(t, "135000.00", fields[1].RawText())
	})

	t.Run("out of range", func(t *testing.T) {
		t.Parallel()

		c := newTestCalculator(t)

		assert.ErrorIs(t, c.SetAmount(-1, "1"), ErrFieldOutOfRange)
		assert.ErrorIs(t, c.SetAmount(DefaultActiveFields, "1"), ErrFieldOutOfRange)
	})
}

func TestCalculator_EndEdit(t *testing.T) {
	t.Parallel()

	t.Run("empty field snaps to textual zero", func(t *testing.T) {
		t.Parallel()

		c := newTestCalculator(t)

		require.NoError(t, c.SetAmount(0, "100"))
		require.NoError(t, c.SetAmount(0, ""))
		require.NoError(t, c.EndEdit(0))

		fields := c.ActiveFields()
		assert.Equal(t, ZeroEditable, fields[0].RawText())
		assert.Equal(t, ZeroEditable, fields[1].RawText())
	})

	t.Run("valid field text is normalized", func(t *testing.T) {
		t.Parallel()

		c := newTestCalculator(t)

		require.NoError(t, c.SetAmount(0, "100."))
		require.NoError(t, c.EndEdit(0))

		fields := c.ActiveFields()
		assert.Equal(t, "100.00", fields[0].RawText())
	})
}

func TestCalculator_SetCurrency(t *testing.T) {
	t.Parallel()

	t.Run("value-preserving on the last-edited field", func(t *testing.T) {
		t.Parallel()

		c := newTestCalculator(t)

		require.NoError(t, c.SetAmount(0, "100"))

		// Reassigning the authoritative field preserves the
		// pivot-equivalent: 135000 KRW-equivalent -> 15000 JPY
		require.NoError(t, c.SetCurrency(0, types.CurrencyJPY))

		fields := c.ActiveFields()
		assert.Equal(t, types.CurrencyJPY, fields[0].Currency())
		assert.Equal(t, "15000.00", fields[0].RawText())

		// The other field already reflects the same pivot value
		assert.Equal(t, "135000.00", fields[1].RawText())
	})

	t.Run("selection-preserving on a target field", func(t *testing.T) {
		t.Parallel()

		c := newTestCalculator(t)

		require.NoError(t, c.SetAmount(0, "100"))

		// Reassigning a non-authoritative field keeps it a conversion
		// target: the last-edited field re-propagates
		require.NoError(t, c.SetCurrency(1, types.CurrencyJPY))

		fields := c.ActiveFields()
		assert.Equal(t, "100", fields[0].RawText())
		assert.Equal(t, types.CurrencyJPY, fields[1].Currency())
		assert.Equal(t, "15000.00", fields[1].RawText())
	})

	t.Run("same currency is a no-op", func(t *testing.T) {
		t.Parallel()

		c := newTestCalculator(t)

		require.NoError(t, c.SetAmount(0, "100"))
		require.NoError(t, c.SetCurrency(0, types.CurrencyUSD))

		fields := c.ActiveFields()
		assert.Equal(t, "100", fields[0].RawText())
	})
}

func TestCalculator_SetRateType(t *testing.T) {
	t.Parallel()

	t.Run("re-propagates under the new type", func(t *testing.T) {
		t.Parallel()

		c := newTestCalculator(t)

		require.NoError(t, c.SetAmount(0, "100"))
		require.NoError(t, c.SetRateType(types.RateTypeCashBuy))

		fields := c.ActiveFields()

		// Currencies unchanged, amounts recomputed: 100 * 1360.00
		assert.Equal(t, types.CurrencyUSD, fields[0].Currency())
		assert.Equal(t, "100", fields[0].RawText())
		assert.Equal(t, "136000.00", fields[1].RawText())
	})

	t.Run("invalid rate type", func(t *testing.T) {
		t.Parallel()

		c := newTestCalculator(t)

		assert.ErrorIs(t, c.SetRateType("bogus"), types.ErrInvalidRateType)
	})
}

func TestCalculator_SetActiveFields(t *testing.T) {
	t.Parallel()

	t.Run("revealed fields are populated", func(t *testing.T) {
		t.Parallel()

		c := newTestCalculator(t)

		require.NoError(t, c.SetAmount(0, "100"))
		require.NoError(t, c.SetActiveFields(3))

		fields := c.ActiveFields()
		require.Len(t, fields, 3)

		assert.Equal(t, types.CurrencyJPY, fields[2].Currency())
		assert.Equal(t, "15000.00", fields[2].RawText())
	})

	t.Run("count is clamped to the bounds", func(t *testing.T) {
		t.Parallel()

		c := newTestCalculator(t)

		require.NoError(t, c.SetActiveFields(100))
		assert.Len(t, c.ActiveFields(), DefaultMaxFields)

		require.NoError(t, c.SetActiveFields(0))
		assert.Len(t, c.ActiveFields(), DefaultMinFields)
	})

	t.Run("hidden fields retain values but reject edits", func(t *testing.T) {
		t.Parallel()

		c := newTestCalculator(t)

		require.NoError(t, c.SetAmount(0, "100"))
		require.NoError(t, c.SetActiveFields(1))

		// Hidden, but the last value survives
		hidden, err := c.Field(1)
		require.NoError(t, err)
		assert.Equal(t, "135000.00", hidden.RawText())

		assert.ErrorIs(t, c.SetAmount(1, "5"), ErrFieldOutOfRange)
	})

	t.Run("authority falls back when the edited field hides", func(t *testing.T) {
		t.Parallel()

		c := newTestCalculator(t)

		require.NoError(t, c.SetAmount(1, "135000"))
		require.Equal(t, 1, c.LastEdited())

		require.NoError(t, c.SetActiveFields(1))
		assert.Equal(t, 0, c.LastEdited())
	})
}

func TestCalculator_RateStates(t *testing.T) {
	t.Parallel()

	t.Run("no rates disables everything", func(t *testing.T) {
		t.Parallel()

		c, err := New(nil, testOrder())
		require.NoError(t, err)

		require.False(t, c.RatesAvailable())

		assert.ErrorIs(t, c.SetAmount(0, "100"), ErrNoRates)
		assert.ErrorIs(t, c.SetCurrency(0, types.CurrencyJPY), ErrNoRates)
		assert.ErrorIs(t, c.SetRateType(types.RateTypeMid), ErrNoRates)
		assert.ErrorIs(t, c.SetActiveFields(3), ErrNoRates)
	})

	t.Run("successful fetch enables operations", func(t *testing.T) {
		t.Parallel()

		c, err := New(nil, testOrder())
		require.NoError(t, err)

		require.NoError(t, c.SetSnapshot(testSnapshot(t)))
		require.True(t, c.RatesAvailable())

		assert.NoError(t, c.SetAmount(0, "100"))
	})

	t.Run("failed fetch drops back to no rates", func(t *testing.T) {
		t.Parallel()

		c := newTestCalculator(t)

		require.NoError(t, c.SetSnapshot(nil))
		require.False(t, c.RatesAvailable())

		assert.ErrorIs(t, c.SetAmount(0, "100"), ErrNoRates)
	})
}
