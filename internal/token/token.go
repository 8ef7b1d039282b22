package token

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrTooManyDecimals = errors.New("amount has too many decimal places")
)

// AmountPrecision is the scale of every stored token or USD amount. TIC
// accrual is a 365th of a yearly allocation, so two decimal places are not
// enough; NUMERIC(20,8) columns back this.
const AmountPrecision = 8

// ParseAmount parses a decimal amount with at most AmountPrecision
// fractional digits. The sign is preserved; callers enforce positivity
// where the operation requires it.
func ParseAmount(input string) (decimal.Decimal, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	value, err := decimal.NewFromString(trimmed)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	if value.Exponent() < -AmountPrecision {
		return decimal.Zero, ErrTooManyDecimals
	}
	return value, nil
}

// FormatAmount renders an amount at full stored precision.
func FormatAmount(value decimal.Decimal) string {
	return value.StringFixed(AmountPrecision)
}
