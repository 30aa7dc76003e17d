package payment

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// Exponent bounds for an order amount. Rounding cost grows with the
// distance between the exponent and zero, so both ends are capped before
// any arithmetic.
const (
	minAmountExponent = -6
	maxAmountExponent = 18
)

var (
	minorUnitsPerMajor = decimal.NewFromInt(100)
	maxMinorUnits      = decimal.NewFromInt(math.MaxInt64)
)

// ToMinorUnits converts a major-unit amount to the gateway's integer minor
// units, rounding half away from zero. 499.99 becomes 49999. Callers must
// bound the amount first; see MinorUnits.
func ToMinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(minorUnitsPerMajor).Round(0).IntPart()
}

// MinorUnits validates an order amount and converts it to minor units.
// A zero limit only caps the amount at what fits in an int64 of minor units.
func MinorUnits(amount, limit decimal.Decimal) (int64, error) {
	if exp := amount.Exponent(); exp < minAmountExponent || exp > maxAmountExponent {
		return 0, fmt.Errorf("%w: amount precision out of range", ErrValidation)
	}
	if !amount.IsPositive() {
		return 0, fmt.Errorf("%w: amount must be positive", ErrValidation)
	}
	if limit.IsPositive() && amount.GreaterThan(limit) {
		return 0, fmt.Errorf("%w: amount exceeds the maximum order amount %s", ErrValidation, limit)
	}

	minor := amount.Mul(minorUnitsPerMajor).Round(0)
	if minor.GreaterThan(maxMinorUnits) {
		return 0, fmt.Errorf("%w: amount is too large", ErrValidation)
	}
	if !minor.IsPositive() {
		return 0, fmt.Errorf("%w: amount is below the smallest currency unit", ErrValidation)
	}
	return minor.IntPart(), nil
}
