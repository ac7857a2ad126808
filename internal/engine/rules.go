package engine

import (
	"propfirm/internal/models"

	"github.com/shopspring/decimal"
)

type Reason string

const (
	ReasonNone         Reason = ""
	ReasonDailyLoss    Reason = "daily_loss_limit"
	ReasonTotalLoss    Reason = "total_loss_limit"
	ReasonProfitTarget Reason = "profit_target"
	ReasonOverride     Reason = "admin_override"
)

type Decision struct {
	Status models.ChallengeStatus
	Reason Reason
}

// Evaluate applies the rules in order: daily loss, total loss, profit target.
// The first match wins, so a failure always beats a target hit in the same
// pass. Thresholds are inclusive.
func Evaluate(c models.Challenge, s Snapshot) Decision {
	switch {
	case reached(s.DailyLoss, s.InitialBalance, c.DailyLossLimitPct):
		return Decision{Status: models.StatusFailed, Reason: ReasonDailyLoss}
	case reached(s.TotalLoss, s.InitialBalance, c.TotalLossLimitPct):
		return Decision{Status: models.StatusFailed, Reason: ReasonTotalLoss}
	case reached(s.Profit, s.InitialBalance, c.ProfitTargetPct):
		return Decision{Status: models.StatusPassed, Reason: ReasonProfitTarget}
	default:
		return Decision{Status: models.StatusActive}
	}
}

// reached reports amount/base*100 >= pct without dividing, so boundary values
// compare exactly.
func reached(amount, base, pct decimal.Decimal) bool {
	return amount.Mul(hundred).GreaterThanOrEqual(pct.Mul(base))
}
