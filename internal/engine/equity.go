package engine

import (
	"propfirm/internal/models"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Snapshot is the equity picture of a challenge at one instant. Loss and
// profit amounts are floored at zero; percentages are relative to the
// initial balance.
type Snapshot struct {
	InitialBalance  decimal.Decimal
	DayStartBalance decimal.Decimal
	CurrentBalance  decimal.Decimal

	DailyLoss decimal.Decimal
	TotalLoss decimal.Decimal
	Profit    decimal.Decimal

	DailyLossPct decimal.Decimal
	TotalLossPct decimal.Decimal
	ProfitPct    decimal.Decimal
}

// Measure derives the snapshot from the challenge balances. It is recomputed
// on every call.
func Measure(c models.Challenge) Snapshot {
	s := Snapshot{
		InitialBalance:  c.InitialBalance,
		DayStartBalance: c.DayStartBalance,
		CurrentBalance:  c.CurrentBalance,
		DailyLoss:       floorZero(c.DayStartBalance.Sub(c.CurrentBalance)),
		TotalLoss:       floorZero(c.InitialBalance.Sub(c.CurrentBalance)),
		Profit:          floorZero(c.CurrentBalance.Sub(c.InitialBalance)),
	}
	s.DailyLossPct = percentOf(s.DailyLoss, c.InitialBalance)
	s.TotalLossPct = percentOf(s.TotalLoss, c.InitialBalance)
	s.ProfitPct = percentOf(s.Profit, c.InitialBalance)
	return s
}

// ApplyPnL books pnl against the current balance. Negative equity is kept as
// is so the loss rules can see it.
func ApplyPnL(c models.Challenge, pnl decimal.Decimal) (models.Challenge, Snapshot) {
	c.CurrentBalance = c.CurrentBalance.Add(pnl)
	return c, Measure(c)
}

func floorZero(value decimal.Decimal) decimal.Decimal {
	if value.IsNegative() {
		return decimal.Zero
	}
	return value
}

func percentOf(amount, base decimal.Decimal) decimal.Decimal {
	if !base.IsPositive() {
		return decimal.Zero
	}
	return amount.Mul(hundred).Div(base)
}
