package validator

import (
	"errors"
	"regexp"
	"strings"

	"propfirm/internal/models"
	"propfirm/internal/money"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidSymbol   = errors.New("invalid symbol")
	ErrInvalidSide     = errors.New("side must be BUY or SELL")
	ErrInvalidStatus   = errors.New("invalid status")
	ErrNotPositive     = errors.New("value must be greater than zero")
	ErrTooManyDecimals = money.ErrTooManyDecimals
)

var symbolRegex = regexp.MustCompile(`^[A-Z0-9][A-Z0-9./_-]{0,19}$`)

// NormalizeSymbol upper-cases and trims a symbol, rejecting anything outside
// the ticker alphabet.
func NormalizeSymbol(symbol string) (string, error) {
	normalized := strings.ToUpper(strings.TrimSpace(symbol))
	if !symbolRegex.MatchString(normalized) {
		return "", ErrInvalidSymbol
	}
	return normalized, nil
}

func NormalizeSide(side string) (models.TradeSide, error) {
	switch models.TradeSide(strings.ToUpper(strings.TrimSpace(side))) {
	case models.SideBuy:
		return models.SideBuy, nil
	case models.SideSell:
		return models.SideSell, nil
	default:
		return "", ErrInvalidSide
	}
}

func NormalizeStatus(status string) (models.ChallengeStatus, error) {
	normalized := models.ChallengeStatus(strings.ToUpper(strings.TrimSpace(status)))
	if !normalized.Valid() {
		return "", ErrInvalidStatus
	}
	return normalized, nil
}

func ValidatePositive(value decimal.Decimal) error {
	if !value.IsPositive() {
		return ErrNotPositive
	}
	return money.CheckScale(value)
}
