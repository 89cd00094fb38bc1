package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount parses a user-supplied monetary amount. It accepts a comma as
// decimal separator, requires a strictly positive value and at most two
// decimal places.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, ",", ".")
	if s == "" {
		return decimal.Zero, Validationf("amount is required")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, Validationf("amount %q is not a number", s)
	}
	if err := ValidateAmount(d); err != nil {
		return decimal.Zero, err
	}
	return d, nil
}

// ValidateAmount checks the ledger amount constraints: positive and at most
// two decimal places.
func ValidateAmount(d decimal.Decimal) error {
	if !d.IsPositive() {
		return ErrAmountNotPositive
	}
	if !d.Equal(d.Round(2)) {
		return ErrAmountPrecision
	}
	return nil
}

// FormatAmount renders a decimal with exactly two decimal places.
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}
