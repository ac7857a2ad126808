package handlers

import (
	"time"

	"propfirm/internal/models"
	"propfirm/internal/money"
	"propfirm/internal/services"
	"propfirm/internal/store"
)

// Amounts are rendered as exact decimal strings and percentages at four
// places so clients never see float rounding.

type challengeResponse struct {
	ID                string     `json:"id"`
	OwnerID           string     `json:"owner_id"`
	ChallengeType     string     `json:"challenge_type"`
	Status            string     `json:"status"`
	StatusReason      string     `json:"status_reason,omitempty"`
	InitialBalance    string     `json:"initial_balance"`
	CurrentBalance    string     `json:"current_balance"`
	DayStartBalance   string     `json:"day_start_balance"`
	DailyLossLimitPct string     `json:"daily_loss_limit_pct"`
	TotalLossLimitPct string     `json:"total_loss_limit_pct"`
	ProfitTargetPct   string     `json:"profit_target_pct"`
	DailyLoss         string     `json:"daily_loss"`
	TotalLoss         string     `json:"total_loss"`
	Profit            string     `json:"profit"`
	DailyLossPct      string     `json:"daily_loss_pct"`
	TotalLossPct      string     `json:"total_loss_pct"`
	ProfitPct         string     `json:"profit_pct"`
	CurrentTradingDay string     `json:"current_trading_day"`
	StartDate         time.Time  `json:"start_date"`
	EndDate           *time.Time `json:"end_date,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

func toChallengeResponse(view services.ChallengeView) challengeResponse {
	c, s := view.Challenge, view.Snapshot
	return challengeResponse{
		ID:                c.ID,
		OwnerID:           c.OwnerID,
		ChallengeType:     string(c.Type),
		Status:            string(c.Status),
		StatusReason:      c.StatusReason,
		InitialBalance:    money.FormatAmount(c.InitialBalance),
		CurrentBalance:    money.FormatAmount(c.CurrentBalance),
		DayStartBalance:   money.FormatAmount(c.DayStartBalance),
		DailyLossLimitPct: money.FormatPct(c.DailyLossLimitPct),
		TotalLossLimitPct: money.FormatPct(c.TotalLossLimitPct),
		ProfitTargetPct:   money.FormatPct(c.ProfitTargetPct),
		DailyLoss:         money.FormatAmount(s.DailyLoss),
		TotalLoss:         money.FormatAmount(s.TotalLoss),
		Profit:            money.FormatAmount(s.Profit),
		DailyLossPct:      money.FormatPct(s.DailyLossPct),
		TotalLossPct:      money.FormatPct(s.TotalLossPct),
		ProfitPct:         money.FormatPct(s.ProfitPct),
		CurrentTradingDay: c.CurrentTradingDay.UTC().Format(time.DateOnly),
		StartDate:         c.StartDate,
		EndDate:           c.EndDate,
		CreatedAt:         c.CreatedAt,
		UpdatedAt:         c.UpdatedAt,
	}
}

func toChallengeResponses(views []services.ChallengeView) []challengeResponse {
	out := make([]challengeResponse, 0, len(views))
	for _, view := range views {
		out = append(out, toChallengeResponse(view))
	}
	return out
}

type tradeResponse struct {
	ID          string    `json:"id"`
	ChallengeID string    `json:"challenge_id"`
	Symbol      string    `json:"symbol"`
	Side        string    `json:"side"`
	EntryPrice  string    `json:"entry_price"`
	ExitPrice   string    `json:"exit_price"`
	Quantity    string    `json:"quantity"`
	PnL         string    `json:"pnl"`
	OpenedAt    time.Time `json:"opened_at"`
	ClosedAt    time.Time `json:"closed_at"`
}

func toTradeResponse(t models.Trade) tradeResponse {
	return tradeResponse{
		ID:          t.ID,
		ChallengeID: t.ChallengeID,
		Symbol:      t.Symbol,
		Side:        string(t.Side),
		EntryPrice:  money.FormatAmount(t.EntryPrice),
		ExitPrice:   money.FormatAmount(t.ExitPrice),
		Quantity:    money.FormatAmount(t.Quantity),
		PnL:         money.FormatAmount(t.PnL),
		OpenedAt:    t.OpenedAt,
		ClosedAt:    t.ClosedAt,
	}
}

type challengeTypeResponse struct {
	Type              string `json:"type"`
	InitialBalance    string `json:"initial_balance"`
	DailyLossLimitPct string `json:"daily_loss_limit_pct"`
	TotalLossLimitPct string `json:"total_loss_limit_pct"`
	ProfitTargetPct   string `json:"profit_target_pct"`
}

type leaderboardResponse struct {
	Rank       int    `json:"rank"`
	OwnerID    string `json:"owner_id"`
	TotalPnL   string `json:"total_pnl"`
	Challenges int    `json:"challenges"`
	Passed     int    `json:"passed"`
	Trades     int    `json:"trades"`
	WinRatePct string `json:"win_rate_pct"`
}

type reconcileResponse struct {
	ChallengeID       string `json:"challenge_id"`
	OwnerID           string `json:"owner_id"`
	Status            string `json:"status"`
	StoredBalance     string `json:"stored_balance"`
	CalculatedBalance string `json:"calculated_balance"`
	Difference        string `json:"difference"`
	TradeCount        int    `json:"trade_count"`
}

func toReconcileResponse(row store.ChallengeReconciliation) reconcileResponse {
	return reconcileResponse{
		ChallengeID:       row.ID,
		OwnerID:           row.OwnerID,
		Status:            row.Status,
		StoredBalance:     money.FormatAmount(row.StoredBalance),
		CalculatedBalance: money.FormatAmount(row.CalculatedBalance),
		Difference:        money.FormatAmount(row.Difference),
		TradeCount:        row.TradeCount,
	}
}
