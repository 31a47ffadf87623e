package calc

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// ZeroEditable is the default display a field snaps to when editing
// ends with the field still empty
const ZeroEditable = "0.00"

var ErrInvalidNumber = errors.New("invalid number")

var displayPrinter = message.NewPrinter(language.English)

// ParseEditable parses the permissive raw editable representation.
// An empty string or a lone decimal point means "no value yet" and
// returns ok == false with no error, so an in-progress edit is never
// coerced to zero. Grouping separators are tolerated on input even
// though the editable form never produces them. Negative and
// non-finite values are outside this domain
func ParseEditable(s string) (float64, bool, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")

	if s == "" || s == "." {
		return 0, false, nil
	}

	value, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false, fmt.Errorf("%w: %q", ErrInvalidNumber, s)
	}

	if value < 0 || math.IsInf(value, 0) || math.IsNaN(value) {
		return 0, false, fmt.Errorf("%w: %q", ErrInvalidNumber, s)
	}

	return value, true, nil
}

// FormatEditable renders the raw editable representation:
// no grouping, fixed two fractional digits
func FormatEditable(value float64) string {
	return strconv.FormatFloat(value, 'f', 2, 64)
}

// FormatDisplay renders the display representation:
// grouping separators, fixed two fractional digits
func FormatDisplay(value float64) string {
	return displayPrinter.Sprintf("%.2f", value)
}

// FormatDisplayTrimmed renders the display representation with
// insignificant trailing zeros trimmed. This direction is
// intentionally lossy about the digit count, not the value
func FormatDisplayTrimmed(value float64) string {
	out := FormatDisplay(value)

	if !strings.Contains(out, ".") {
		return out
	}

	out = strings.TrimRight(out, "0")

	return strings.TrimSuffix(out, ".")
}

// ParseDisplay parses the display representation back into a value.
// Round-trips losslessly with FormatDisplay for any value it produces
func ParseDisplay(s string) (float64, bool, error) {
	return ParseEditable(s)
}
