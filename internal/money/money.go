package money

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrTooManyDecimals = errors.New("amount has too many decimal places")
)

// MaxScale is the number of fraction digits kept for prices, quantities and
// balances. It matches the NUMERIC(20,8) columns.
const MaxScale = 8

// PctScale is the number of fraction digits shown for percentages.
const PctScale = 4

// Parse reads a plain decimal string. Exponent notation and more than
// MaxScale fraction digits are rejected.
func Parse(input string) (decimal.Decimal, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" || strings.ContainsAny(trimmed, "eE") {
		return decimal.Zero, ErrInvalidAmount
	}
	value, err := decimal.NewFromString(trimmed)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	if err := CheckScale(value); err != nil {
		return decimal.Zero, err
	}
	return value, nil
}

func CheckScale(value decimal.Decimal) error {
	if value.Exponent() < -MaxScale && !value.Equal(value.Truncate(MaxScale)) {
		return ErrTooManyDecimals
	}
	return nil
}

// FormatAmount renders a balance or P&L without trailing zeros.
func FormatAmount(value decimal.Decimal) string {
	return value.String()
}

// FormatPct renders a percentage with a fixed four digit fraction, rounding
// half away from zero.
func FormatPct(value decimal.Decimal) string {
	return value.StringFixed(PctScale)
}
