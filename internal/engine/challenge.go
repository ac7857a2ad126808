package engine

import (
	"fmt"
	"time"

	"propfirm/internal/models"

	"github.com/shopspring/decimal"
)

// DefaultChallengeTypes is the stock plan table: same governance, different
// starting capital.
func DefaultChallengeTypes() []models.ChallengeTypeConfig {
	plan := func(t models.ChallengeType, balance int64) models.ChallengeTypeConfig {
		return models.ChallengeTypeConfig{
			Type:              t,
			InitialBalance:    decimal.NewFromInt(balance),
			DailyLossLimitPct: decimal.NewFromInt(5),
			TotalLossLimitPct: decimal.NewFromInt(10),
			ProfitTargetPct:   decimal.NewFromInt(10),
		}
	}
	return []models.ChallengeTypeConfig{
		plan(models.ChallengeStarter, 10000),
		plan(models.ChallengePro, 25000),
		plan(models.ChallengeElite, 50000),
	}
}

func ValidateTypeConfig(cfg models.ChallengeTypeConfig) error {
	if cfg.Type == "" {
		return fmt.Errorf("%w: type name is empty", ErrInvalidChallengeType)
	}
	checks := []struct {
		name  string
		value decimal.Decimal
	}{
		{"initial_balance", cfg.InitialBalance},
		{"daily_loss_limit_pct", cfg.DailyLossLimitPct},
		{"total_loss_limit_pct", cfg.TotalLossLimitPct},
		{"profit_target_pct", cfg.ProfitTargetPct},
	}
	for _, check := range checks {
		if !check.value.IsPositive() {
			return fmt.Errorf("%w: %s %s must be positive", ErrInvalidChallengeType, cfg.Type, check.name)
		}
	}
	return nil
}

// NewChallenge opens an ACTIVE challenge whose three balances all start at
// the type's initial balance.
func NewChallenge(id, ownerID string, cfg models.ChallengeTypeConfig, now time.Time) (models.Challenge, error) {
	if err := ValidateTypeConfig(cfg); err != nil {
		return models.Challenge{}, err
	}
	now = now.UTC()
	return models.Challenge{
		ID:                id,
		OwnerID:           ownerID,
		Type:              cfg.Type,
		InitialBalance:    cfg.InitialBalance,
		CurrentBalance:    cfg.InitialBalance,
		DayStartBalance:   cfg.InitialBalance,
		DailyLossLimitPct: cfg.DailyLossLimitPct,
		TotalLossLimitPct: cfg.TotalLossLimitPct,
		ProfitTargetPct:   cfg.ProfitTargetPct,
		Status:            models.StatusActive,
		StartDate:         now,
		CurrentTradingDay: TradingDay(now),
		CreatedAt:         now,
		UpdatedAt:         now,
	}, nil
}
