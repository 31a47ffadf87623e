package calc

import (
	"errors"
	"fmt"

	"github.com/sig-0/krwrates/storage/types"
)

const (
	DefaultMinFields    = 1
	DefaultMaxFields    = 5
	DefaultActiveFields = 2
)

var (
	ErrFieldOutOfRange = errors.New("field index out of range")
	ErrReentrantUpdate = errors.New("update during propagation")
	ErrNoCurrencies    = errors.New("no currencies given")
)

// Field is one linked conversion row
type Field struct {
	currency types.Currency
	rawText  string
	amount   float64
	hasValue bool
}

func (f Field) Currency() types.Currency {
	return f.currency
}

// RawText returns the permissive editable text of the field
func (f Field) RawText() string {
	return f.rawText
}

// Amount returns the field's last known valid amount.
// ok is false while the field is empty or mid-edit
func (f Field) Amount() (float64, bool) {
	return f.amount, f.hasValue
}

// DisplayText returns the grouped display text,
// or an empty string while the field holds no value
func (f Field) DisplayText() string {
	if !f.hasValue {
		return ""
	}

	return FormatDisplay(f.amount)
}

// Calculator keeps a set of linked conversion fields numerically
// consistent as any one of them is edited. Exactly one field is
// authoritative at any time: the most recently edited one. It is
// never recomputed from the others, so in-progress typed precision
// survives propagation
type Calculator struct {
	snapshot *types.Snapshot
	rateType types.RateType

	fields     []Field // fixed at maxFields; the first active ones are interactive
	active     int
	lastEdited int

	minFields int
	maxFields int

	// Explicit re-entrancy guard: a field update triggered by
	// propagation must not trigger another propagation pass
	propagating bool
}

type Option func(c *Calculator)

// WithFieldBounds sets the allowed active-field count range
func WithFieldBounds(minFields, maxFields int) Option {
	return func(c *Calculator) {
		c.minFields = minFields
		c.maxFields = maxFields
	}
}

// WithActiveFields sets the initial active-field count
func WithActiveFields(n int) Option {
	return func(c *Calculator) {
		c.active = n
	}
}

// WithRateType sets the initially selected rate type
func WithRateType(t types.RateType) Option {
	return func(c *Calculator) {
		c.rateType = t
	}
}

// New creates a calculator over the given snapshot. The field currencies
// are assigned from the given order, first currency first. A nil snapshot
// starts the calculator with no rates available: every interactive
// operation fails until a valid snapshot is set
func New(
	snapshot *types.Snapshot,
	order []types.Currency,
	opts ...Option,
) (*Calculator, error) {
	if len(order) == 0 {
		return nil, ErrNoCurrencies
	}

	c := &Calculator{
		rateType:   types.RateTypeMid,
		minFields:  DefaultMinFields,
		maxFields:  DefaultMaxFields,
		active:     DefaultActiveFields,
		lastEdited: 0,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.minFields < 1 || c.maxFields < c.minFields {
		return nil, fmt.Errorf("invalid field bounds [%d, %d]", c.minFields, c.maxFields)
	}

	c.active = c.clampActive(c.active)

	c.fields = make([]Field, c.maxFields)
	for i := range c.fields {
		c.fields[i] = Field{
			currency: order[i%len(order)],
			rawText:  ZeroEditable,
			amount:   0,
			hasValue: true,
		}
	}

	if snapshot != nil {
		if err := c.SetSnapshot(snapshot); err != nil {
			return nil, err
		}
	}

	return c, nil
}

// RatesAvailable reports whether the calculator holds a usable snapshot
func (c *Calculator) RatesAvailable() bool {
	return c.snapshot != nil
}

// SetSnapshot installs a freshly fetched snapshot, or drops into the
// no-rates state when given nil (a failed fetch). A valid snapshot
// re-propagates from the authoritative field
func (c *Calculator) SetSnapshot(snapshot *types.Snapshot) error {
	if snapshot == nil {
		c.snapshot = nil

		return nil
	}

	if err := snapshot.Validate(); err != nil {
		c.snapshot = nil

		return err
	}

	c.snapshot = snapshot

	return c.propagateFrom(c.lastEdited)
}

// RateType returns the currently selected rate type
func (c *Calculator) RateType() types.RateType {
	return c.rateType
}

// ActiveFields returns a copy of the currently interactive fields
func (c *Calculator) ActiveFields() []Field {
	out := make([]Field, c.active)
	copy(out, c.fields[:c.active])

	return out
}

// LastEdited returns the index of the authoritative field
func (c *Calculator) LastEdited() int {
	return c.lastEdited
}

// Field returns the field at the given index, hidden ones included
func (c *Calculator) Field(i int) (Field, error) {
	if i < 0 || i >= len(c.fields) {
		return Field{}, ErrFieldOutOfRange
	}

	return c.fields[i], nil
}

// SetAmount applies an edit to field i's text and recomputes every other
// active field from it. An empty or in-progress value clears the other
// fields instead of propagating a coerced zero. Text that is not a valid
// non-negative number is rejected and the field is left unchanged
func (c *Calculator) SetAmount(i int, raw string) error {
	if err := c.interactive(i); err != nil {
		return err
	}

	value, ok, err := ParseEditable(raw)
	if err != nil {
		return err
	}

	field := &c.fields[i]
	field.rawText = raw
	c.lastEdited = i

	if !ok {
		field.hasValue = false

		c.clearOthers(i)

		return nil
	}

	field.amount = value
	field.hasValue = true

	return c.propagateFrom(i)
}

// EndEdit marks the end of an edit on field i. A field left empty snaps
// to the textual zero default; a field holding a value has its text
// normalized to the canonical editable form
func (c *Calculator) EndEdit(i int) error {
	if err := c.interactive(i); err != nil {
		return err
	}

	field := &c.fields[i]

	if field.hasValue {
		field.rawText = FormatEditable(field.amount)

		return nil
	}

	field.amount = 0
	field.hasValue = true
	field.rawText = ZeroEditable

	if c.lastEdited != i {
		return nil
	}

	return c.propagateFrom(i)
}

// SetCurrency reassigns field i's currency. When i is the authoritative
// field, its amount is recomputed so the pivot-equivalent value is
// preserved under the new currency; the other fields already reflect
// that value. Otherwise the field stays a conversion target and the
// authoritative field re-propagates to everything, field i included
func (c *Calculator) SetCurrency(i int, code types.Currency) error {
	if err := c.interactive(i); err != nil {
		return err
	}

	field := &c.fields[i]

	previous := field.currency
	if previous == code {
		return nil
	}

	field.currency = code

	if i != c.lastEdited {
		return c.propagateFrom(c.lastEdited)
	}

	if !field.hasValue {
		return nil
	}

	converted, err := Convert(c.snapshot, field.amount, previous, code, c.rateType)
	if err != nil {
		return err
	}

	field.amount = converted
	field.rawText = FormatEditable(converted)

	return nil
}

// SetRateType switches the selected rate basis and re-propagates from
// the authoritative field. No field's currency changes
func (c *Calculator) SetRateType(t types.RateType) error {
	if err := c.usable(); err != nil {
		return err
	}

	rateType, err := types.ParseRateType(t.String())
	if err != nil {
		return err
	}

	c.rateType = rateType

	return c.propagateFrom(c.lastEdited)
}

// SetActiveFields grows or shrinks the interactive field count, clamped
// to the configured bounds. Newly revealed fields are populated from the
// authoritative field; hidden fields keep their last value but reject
// edits. If the authoritative field itself is hidden, authority falls
// back to the first field
func (c *Calculator) SetActiveFields(n int) error {
	if err := c.usable(); err != nil {
		return err
	}

	n = c.clampActive(n)
	if n == c.active {
		return nil
	}

	c.active = n

	if c.lastEdited >= c.active {
		c.lastEdited = 0
	}

	return c.propagateFrom(c.lastEdited)
}

// clampActive bounds the requested field count to [minFields, maxFields]
func (c *Calculator) clampActive(n int) int {
	if n < c.minFields {
		return c.minFields
	}

	if n > c.maxFields {
		return c.maxFields
	}

	return n
}

// usable fails unless the calculator can run conversions right now
func (c *Calculator) usable() error {
	if c.snapshot == nil {
		return ErrNoRates
	}

	if c.propagating {
		return ErrReentrantUpdate
	}

	return nil
}

// interactive fails unless field i accepts edits right now
func (c *Calculator) interactive(i int) error {
	if err := c.usable(); err != nil {
		return err
	}

	if i < 0 || i >= c.active {
		return fmt.Errorf("%w: %d", ErrFieldOutOfRange, i)
	}

	return nil
}

// propagateFrom recomputes every active field from field i.
// Field i itself is never recomputed
func (c *Calculator) propagateFrom(i int) error {
	c.propagating = true
	defer func() { c.propagating = false }()

	source := c.fields[i]

	if !source.hasValue {
		c.clearOthers(i)

		return nil
	}

	for j := 0; j < c.active; j++ {
		if j == i {
			continue
		}

		converted, err := Convert(
			c.snapshot,
			source.amount,
			source.currency,
			c.fields[j].currency,
			c.rateType,
		)
		if err != nil {
			return err
		}

		c.fields[j].amount = converted
		c.fields[j].hasValue = true
		c.fields[j].rawText = FormatEditable(converted)
	}

	return nil
}

// clearOthers blanks every active field except i
func (c *Calculator) clearOthers(i int) {
	for j := 0; j < c.active; j++ {
		if j == i {
			continue
		}

		c.fields[j].rawText = ""
		c.fields[j].hasValue = false
	}
}
