package timesheet

import (
	"strings"

	"github.com/shopspring/decimal"
)

var (
	minValue  = decimal.NewFromFloat(0.1)
	maxValue  = decimal.NewFromInt(1)
	tolerance = decimal.NewFromFloat(0.01)
)

// ValidateAllocationValue parses a grid cell. The empty string clears the
// cell (0, true). Values must lie in [0.1, 1] in steps of 0.1; anything
// else returns (previous, false) so the caller keeps the old value.
func ValidateAllocationValue(raw string, previous float64) (float64, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, true
	}
	s = strings.Replace(s, ",", ".", 1)

	d, err := decimal.NewFromString(s)
	if err != nil {
		return previous, false
	}
	if d.LessThan(minValue) || d.GreaterThan(maxValue) {
		return previous, false
	}
	if !d.Shift(1).IsInteger() {
		return previous, false
	}
	v, _ := d.Float64()
	return v, true
}

// validCell reports whether a set cell lies on the tenths grid of [0.1, 1].
func validCell(v float64) bool {
	d := decimal.NewFromFloat(v)
	return !d.LessThan(minValue) && !d.GreaterThan(maxValue) && d.Shift(1).IsInteger()
}

// FormatValue renders v in its shortest decimal form ("0.6", "1").
func FormatValue(v float64) string {
	return decimal.NewFromFloat(v).String()
}

func sumDecimal(values []float64) decimal.Decimal {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(decimal.NewFromFloat(v))
	}
	return total
}

func withinTolerance(sum decimal.Decimal) bool {
	return sum.Sub(maxValue).Abs().LessThanOrEqual(tolerance)
}
