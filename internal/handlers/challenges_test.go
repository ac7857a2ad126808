package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"propfirm/internal/models"
	"propfirm/internal/services"
	"propfirm/internal/validator"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateChallenge(t *testing.T) {
	service := &stubService{
		createFn: func(_ context.Context, ownerID, challengeType string) (services.ChallengeView, error) {
			if ownerID != "user-1" || challengeType != "starter" {
				t.Fatalf("unexpected args %q %q", ownerID, challengeType)
			}
			return sampleView(models.StatusActive, "10000"), nil
		},
	}
	handler := newTestHandler(service, nil, nil, nil)

	rr := doRequest(t, handler, http.MethodPost, "/challenges", "user-1", `{"challenge_type":"starter"}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var resp challengeResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "ACTIVE", resp.Status)
	assert.Equal(t, "10000", resp.InitialBalance)
	assert.Equal(t, "5.0000", resp.DailyLossLimitPct)
	assert.Nil(t, resp.EndDate)
}

func TestCreateChallengeConflictsWithActive(t *testing.T) {
	service := &stubService{
		createFn: func(context.Context, string, string) (services.ChallengeView, error) {
			return services.ChallengeView{}, services.ErrActiveChallengeExists
		},
	}
	rr := doRequest(t, newTestHandler(service, nil, nil, nil), http.MethodPost, "/challenges", "user-1", `{"challenge_type":"Pro"}`)
	assert.Equal(t, http.StatusConflict, rr.Code)
}

func TestListChallengesPassesStatusFilter(t *testing.T) {
	service := &stubService{
		listFn: func(_ context.Context, ownerID, status string) ([]services.ChallengeView, error) {
			if status == "bogus" {
				return nil, validator.ErrInvalidStatus
			}
			return []services.ChallengeView{sampleView(models.StatusPassed, "11000")}, nil
		},
	}
	handler := newTestHandler(service, nil, nil, nil)

	rr := doRequest(t, handler, http.MethodGet, "/challenges?status=PASSED", "user-1", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var resp []challengeResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Len(t, resp, 1)
	assert.Equal(t, "10.0000", resp[0].ProfitPct)

	rr = doRequest(t, handler, http.MethodGet, "/challenges?status=bogus", "user-1", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestListTradesPagination(t *testing.T) {
	var gotLimit, gotOffset int
	service := &stubService{
		listTradesFn: func(_ context.Context, ownerID, challengeID string, limit, offset int) ([]models.Trade, int, error) {
			assert.Equal(t, "c1", challengeID)
			gotLimit, gotOffset = limit, offset
			return []models.Trade{{ID: "t1", PnL: decimal.RequireFromString("-4.9")}}, 41, nil
		},
	}
	handler := newTestHandler(service, nil, nil, nil)

	rr := doRequest(t, handler, http.MethodGet, "/challenges/c1/trades?limit=20&page=3", "user-1", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 20, gotLimit)
	assert.Equal(t, 40, gotOffset)
	assert.Equal(t, "41", rr.Header().Get("X-Total-Count"))

	var resp []tradeResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Len(t, resp, 1)
	assert.Equal(t, "-4.9", resp[0].PnL)

	doRequest(t, handler, http.MethodGet, "/challenges/c1/trades?limit=100000&page=-1", "user-1", "")
	assert.Equal(t, maxLimit, gotLimit)
	assert.Equal(t, 0, gotOffset)
}

func TestChallengeTypesAndLeaderboard(t *testing.T) {
	service := &stubService{
		types: []models.ChallengeTypeConfig{{
			Type:              models.ChallengeElite,
			InitialBalance:    decimal.NewFromInt(50000),
			DailyLossLimitPct: decimal.NewFromInt(5),
			TotalLossLimitPct: decimal.NewFromInt(10),
			ProfitTargetPct:   decimal.NewFromInt(10),
		}},
		leaderboardFn: func(context.Context) ([]services.LeaderboardEntry, error) {
			return []services.LeaderboardEntry{{
				Rank: 1, OwnerID: "user-2", TotalPnL: decimal.NewFromInt(1500),
				Challenges: 2, Passed: 1, Trades: 3, WinRatePct: decimal.RequireFromString("66.66666667"),
			}}, nil
		},
	}
	handler := newTestHandler(service, nil, nil, nil)

	rr := doRequest(t, handler, http.MethodGet, "/challenge-types", "user-1", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var types []challengeTypeResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &types))
	require.Len(t, types, 1)
	assert.Equal(t, "Elite", types[0].Type)
	assert.Equal(t, "50000", types[0].InitialBalance)

	rr = doRequest(t, handler, http.MethodGet, "/leaderboard", "user-1", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var board []leaderboardResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &board))
	require.Len(t, board, 1)
	assert.Equal(t, "66.6667", board[0].WinRatePct)
	assert.Equal(t, "1500", board[0].TotalPnL)
}

func TestHealthIsPublic(t *testing.T) {
	rr := doRequest(t, newTestHandler(&stubService{}, nil, nil, nil), http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, rr.Code)
}
