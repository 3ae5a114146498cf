// Package usdc converts between USDC base units (integer strings, 6 decimals)
// and display amounts without going through floats.
package usdc

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Decimals is the USDC token precision.
const Decimals = 6

// FromBaseUnits parses an integer base-unit string (e.g. "1000000") into a
// decimal dollar amount (1). Exact for values beyond 2^53.
func FromBaseUnits(baseUnits string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(baseUnits)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid base-unit amount %q: %w", baseUnits, err)
	}
	if d.Exponent() != 0 || d.IsNegative() {
		return decimal.Zero, fmt.Errorf("invalid base-unit amount %q: must be a non-negative integer", baseUnits)
	}
	return d.Shift(-Decimals), nil
}

// ToBaseUnits converts a decimal dollar amount into an integer base-unit
// string. Fails rather than rounding away sub-micro precision.
func ToBaseUnits(amount decimal.Decimal) (string, error) {
	shifted := amount.Shift(Decimals)
	if shifted.Exponent() < 0 && !shifted.Equal(shifted.Truncate(0)) {
		return "", fmt.Errorf("amount %s has more than %d decimal places", amount, Decimals)
	}
	if shifted.IsNegative() {
		return "", fmt.Errorf("amount %s is negative", amount)
	}
	return shifted.Truncate(0).String(), nil
}

// FormatBaseUnits renders a base-unit string as a "$x.yz" display value, used
// in payment prompts and failure messages.
func FormatBaseUnits(baseUnits string) string {
	d, err := FromBaseUnits(baseUnits)
	if err != nil {
		return "$?"
	}
	return "$" + d.StringFixed(2)
}
