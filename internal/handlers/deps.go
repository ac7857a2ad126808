package handlers

import (
	"context"

	"propfirm/internal/models"
	"propfirm/internal/services"
	"propfirm/internal/store"
)

type ChallengeService interface {
	ChallengeTypes() []models.ChallengeTypeConfig
	CreateChallenge(ctx context.Context, ownerID, challengeType string) (services.ChallengeView, error)
	RecordTrade(ctx context.Context, req services.TradeRequest) (services.TradeResult, error)
	OverrideStatus(ctx context.Context, req services.OverrideRequest) (services.ChallengeView, error)
	GetChallenge(ctx context.Context, ownerID, challengeID string) (services.ChallengeView, error)
	GetChallengeAsAdmin(ctx context.Context, challengeID string) (services.ChallengeView, error)
	ListChallenges(ctx context.Context, ownerID, status string) ([]services.ChallengeView, error)
	ListAllChallenges(ctx context.Context, status string, limit, offset int) ([]services.ChallengeView, error)
	ListTrades(ctx context.Context, ownerID, challengeID string, limit, offset int) ([]models.Trade, int, error)
	Leaderboard(ctx context.Context) ([]services.LeaderboardEntry, error)
}

type AdminStore interface {
	Lookup(ctx context.Context, userID string) (store.Admin, bool, error)
}

type AuditStore interface {
	List(ctx context.Context, entityID string, limit, offset int) ([]models.AuditEntry, error)
}

type ReconcileStore interface {
	Reconcile(ctx context.Context) ([]store.ChallengeReconciliation, error)
}
