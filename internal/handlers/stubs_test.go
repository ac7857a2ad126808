package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"propfirm/internal/auth"
	"propfirm/internal/config"
	"propfirm/internal/models"
	"propfirm/internal/services"
	"propfirm/internal/store"
	"propfirm/internal/websocket"
)

const testSecret = "secret"

type stubService struct {
	types         []models.ChallengeTypeConfig
	createFn      func(ctx context.Context, ownerID, challengeType string) (services.ChallengeView, error)
	recordFn      func(ctx context.Context, req services.TradeRequest) (services.TradeResult, error)
	overrideFn    func(ctx context.Context, req services.OverrideRequest) (services.ChallengeView, error)
	getFn         func(ctx context.Context, ownerID, challengeID string) (services.ChallengeView, error)
	getAdminFn    func(ctx context.Context, challengeID string) (services.ChallengeView, error)
	listFn        func(ctx context.Context, ownerID, status string) ([]services.ChallengeView, error)
	listAllFn     func(ctx context.Context, status string, limit, offset int) ([]services.ChallengeView, error)
	listTradesFn  func(ctx context.Context, ownerID, challengeID string, limit, offset int) ([]models.Trade, int, error)
	leaderboardFn func(ctx context.Context) ([]services.LeaderboardEntry, error)
}

func (s *stubService) ChallengeTypes() []models.ChallengeTypeConfig { return s.types }

func (s *stubService) CreateChallenge(ctx context.Context, ownerID, challengeType string) (services.ChallengeView, error) {
	return s.createFn(ctx, ownerID, challengeType)
}

func (s *stubService) RecordTrade(ctx context.Context, req services.TradeRequest) (services.TradeResult, error) {
	return s.recordFn(ctx, req)
}

func (s *stubService) OverrideStatus(ctx context.Context, req services.OverrideRequest) (services.ChallengeView, error) {
	return s.overrideFn(ctx, req)
}

func (s *stubService) GetChallenge(ctx context.Context, ownerID, challengeID string) (services.ChallengeView, error) {
	return s.getFn(ctx, ownerID, challengeID)
}

func (s *stubService) GetChallengeAsAdmin(ctx context.Context, challengeID string) (services.ChallengeView, error) {
	return s.getAdminFn(ctx, challengeID)
}

func (s *stubService) ListChallenges(ctx context.Context, ownerID, status string) ([]services.ChallengeView, error) {
	return s.listFn(ctx, ownerID, status)
}

func (s *stubService) ListAllChallenges(ctx context.Context, status string, limit, offset int) ([]services.ChallengeView, error) {
	return s.listAllFn(ctx, status, limit, offset)
}

func (s *stubService) ListTrades(ctx context.Context, ownerID, challengeID string, limit, offset int) ([]models.Trade, int, error) {
	return s.listTradesFn(ctx, ownerID, challengeID, limit, offset)
}

func (s *stubService) Leaderboard(ctx context.Context) ([]services.LeaderboardEntry, error) {
	return s.leaderboardFn(ctx)
}

type stubAdminStore struct {
	admins map[string]store.Admin
}

func (s *stubAdminStore) Lookup(_ context.Context, userID string) (store.Admin, bool, error) {
	admin, ok := s.admins[userID]
	return admin, ok, nil
}

type stubAuditStore struct {
	listFn func(ctx context.Context, entityID string, limit, offset int) ([]models.AuditEntry, error)
}

func (s *stubAuditStore) List(ctx context.Context, entityID string, limit, offset int) ([]models.AuditEntry, error) {
	return s.listFn(ctx, entityID, limit, offset)
}

type stubReconcileStore struct {
	rows []store.ChallengeReconciliation
}

func (s *stubReconcileStore) Reconcile(context.Context) ([]store.ChallengeReconciliation, error) {
	return s.rows, nil
}

func newTestHandler(service ChallengeService, admins AdminStore, audit AuditStore, reconciler ReconcileStore) http.Handler {
	cfg := config.Config{JWTSecret: testSecret, AllowedOrigins: "*"}
	if admins == nil {
		admins = &stubAdminStore{}
	}
	return New(cfg, service, admins, audit, reconciler, websocket.NewHub(nil), nil).Routes()
}

func doRequest(t *testing.T, handler http.Handler, method, path, userID, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != "" {
		token, err := auth.GenerateToken(testSecret, userID, time.Minute)
		if err != nil {
			t.Fatalf("failed to generate token: %v", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}
