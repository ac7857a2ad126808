package engine

import (
	"fmt"
	"time"

	"propfirm/internal/models"
	"propfirm/internal/validator"

	"github.com/shopspring/decimal"
)

// TradeInput is a closed trade as submitted by a caller, before validation.
type TradeInput struct {
	ChallengeID string
	Symbol      string
	Side        string
	EntryPrice  decimal.Decimal
	ExitPrice   decimal.Decimal
	Quantity    decimal.Decimal
	OpenedAt    *time.Time
}

// PnL is the realized profit of a closed trade. No rounding is applied.
func PnL(side models.TradeSide, entry, exit, quantity decimal.Decimal) decimal.Decimal {
	if side == models.SideSell {
		return entry.Sub(exit).Mul(quantity)
	}
	return exit.Sub(entry).Mul(quantity)
}

// NewTrade validates the input and builds the immutable trade row closed at
// closedAt. It performs no I/O so a rejected input never reaches storage.
func NewTrade(id string, in TradeInput, closedAt time.Time) (models.Trade, error) {
	if in.ChallengeID == "" {
		return models.Trade{}, fmt.Errorf("%w: challenge_id is required", ErrInvalidTrade)
	}
	symbol, err := validator.NormalizeSymbol(in.Symbol)
	if err != nil {
		return models.Trade{}, fmt.Errorf("%w: symbol: %v", ErrInvalidTrade, err)
	}
	side, err := validator.NormalizeSide(in.Side)
	if err != nil {
		return models.Trade{}, fmt.Errorf("%w: %v", ErrInvalidTrade, err)
	}
	if err := validator.ValidatePositive(in.EntryPrice); err != nil {
		return models.Trade{}, fmt.Errorf("%w: entry_price: %v", ErrInvalidTrade, err)
	}
	if err := validator.ValidatePositive(in.ExitPrice); err != nil {
		return models.Trade{}, fmt.Errorf("%w: exit_price: %v", ErrInvalidTrade, err)
	}
	if err := validator.ValidatePositive(in.Quantity); err != nil {
		return models.Trade{}, fmt.Errorf("%w: quantity: %v", ErrInvalidTrade, err)
	}
	closedAt = closedAt.UTC()
	openedAt := closedAt
	if in.OpenedAt != nil {
		openedAt = in.OpenedAt.UTC()
		if openedAt.After(closedAt) {
			return models.Trade{}, fmt.Errorf("%w: opened_at is after closed_at", ErrInvalidTrade)
		}
	}
	return models.Trade{
		ID:          id,
		ChallengeID: in.ChallengeID,
		Symbol:      symbol,
		Side:        side,
		EntryPrice:  in.EntryPrice,
		ExitPrice:   in.ExitPrice,
		Quantity:    in.Quantity,
		PnL:         PnL(side, in.EntryPrice, in.ExitPrice, in.Quantity),
		OpenedAt:    openedAt,
		ClosedAt:    closedAt,
	}, nil
}
