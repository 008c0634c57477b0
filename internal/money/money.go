// Package money is the single place monetary values are rounded and
// compared. Every amount is canonicalized through Round2 before it is
// stored or compared, so balances never drift past two decimal places.
package money

import (
	"github.com/shopspring/decimal"
)

// EqualTolerance absorbs rounding noise from repeated arithmetic when
// comparing two amounts (half a cent).
var EqualTolerance = decimal.New(5, -3) // 0.005

// Round2 rounds to 2 decimal places, half away from zero.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// FromFloat converts a float to a canonical 2-decimal amount.
func FromFloat(f float64) decimal.Decimal {
	return Round2(decimal.NewFromFloat(f))
}

// Parse converts a decimal string to a canonical 2-decimal amount.
func Parse(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, err
	}
	return Round2(d), nil
}

// Format renders an amount with exactly 2 decimal places.
func Format(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// Equal compares two amounts within EqualTolerance.
func Equal(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(EqualTolerance)
}

// IsValidAmount reports whether d is a usable monetary value (>= 0).
// decimal.Decimal cannot hold NaN or infinities, so finiteness is implied.
func IsValidAmount(d decimal.Decimal) bool {
	return !d.IsNegative()
}
