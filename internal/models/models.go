package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type ChallengeStatus string

const (
	StatusActive ChallengeStatus = "ACTIVE"
	StatusPassed ChallengeStatus = "PASSED"
	StatusFailed ChallengeStatus = "FAILED"
)

// Terminal reports whether no further transition may leave the status.
func (s ChallengeStatus) Terminal() bool {
	return s == StatusPassed || s == StatusFailed
}

func (s ChallengeStatus) Valid() bool {
	return s == StatusActive || s.Terminal()
}

type ChallengeType string

const (
	ChallengeStarter ChallengeType = "Starter"
	ChallengePro     ChallengeType = "Pro"
	ChallengeElite   ChallengeType = "Elite"
)

type TradeSide string

const (
	SideBuy  TradeSide = "BUY"
	SideSell TradeSide = "SELL"
)

// ChallengeTypeConfig holds the limits copied onto a challenge when it is created.
type ChallengeTypeConfig struct {
	Type              ChallengeType   `json:"type" mapstructure:"type"`
	InitialBalance    decimal.Decimal `json:"initial_balance" mapstructure:"initial_balance"`
	DailyLossLimitPct decimal.Decimal `json:"daily_loss_limit_pct" mapstructure:"daily_loss_limit_pct"`
	TotalLossLimitPct decimal.Decimal `json:"total_loss_limit_pct" mapstructure:"total_loss_limit_pct"`
	ProfitTargetPct   decimal.Decimal `json:"profit_target_pct" mapstructure:"profit_target_pct"`
}

type Challenge struct {
	ID                string          `db:"id" json:"id"`
	OwnerID           string          `db:"owner_id" json:"owner_id"`
	Type              ChallengeType   `db:"challenge_type" json:"challenge_type"`
	InitialBalance    decimal.Decimal `db:"initial_balance" json:"initial_balance"`
	CurrentBalance    decimal.Decimal `db:"current_balance" json:"current_balance"`
	DayStartBalance   decimal.Decimal `db:"day_start_balance" json:"day_start_balance"`
	DailyLossLimitPct decimal.Decimal `db:"daily_loss_limit_pct" json:"daily_loss_limit_pct"`
	TotalLossLimitPct decimal.Decimal `db:"total_loss_limit_pct" json:"total_loss_limit_pct"`
	ProfitTargetPct   decimal.Decimal `db:"profit_target_pct" json:"profit_target_pct"`
	Status            ChallengeStatus `db:"status" json:"status"`
	StatusReason      string          `db:"status_reason" json:"status_reason,omitempty"`
	StartDate         time.Time       `db:"start_date" json:"start_date"`
	EndDate           *time.Time      `db:"end_date" json:"end_date,omitempty"`
	CurrentTradingDay time.Time       `db:"current_trading_day" json:"current_trading_day"`
	CreatedAt         time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time       `db:"updated_at" json:"updated_at"`
}

type Trade struct {
	ID          string          `db:"id" json:"id"`
	ChallengeID string          `db:"challenge_id" json:"challenge_id"`
	Symbol      string          `db:"symbol" json:"symbol"`
	Side        TradeSide       `db:"side" json:"side"`
	EntryPrice  decimal.Decimal `db:"entry_price" json:"entry_price"`
	ExitPrice   decimal.Decimal `db:"exit_price" json:"exit_price"`
	Quantity    decimal.Decimal `db:"quantity" json:"quantity"`
	PnL         decimal.Decimal `db:"pnl" json:"pnl"`
	OpenedAt    time.Time       `db:"opened_at" json:"opened_at"`
	ClosedAt    time.Time       `db:"closed_at" json:"closed_at"`
}

type AuditEntry struct {
	ID          string    `db:"id" json:"id"`
	ActorUserID *string   `db:"actor_user_id" json:"actor_user_id,omitempty"`
	Action      string    `db:"action" json:"action"`
	EntityType  string    `db:"entity_type" json:"entity_type"`
	EntityID    string    `db:"entity_id" json:"entity_id"`
	Data        string    `db:"data" json:"data"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}
