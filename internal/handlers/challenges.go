package handlers

import (
	"net/http"
	"strconv"

	"propfirm/internal/money"
	"propfirm/internal/websocket"

	"github.com/go-chi/chi/v5"
)

type createChallengeRequest struct {
	ChallengeType string `json:"challenge_type"`
}

func (h *Handler) ListChallengeTypes(w http.ResponseWriter, r *http.Request) {
	types := h.service.ChallengeTypes()
	resp := make([]challengeTypeResponse, 0, len(types))
	for _, t := range types {
		resp = append(resp, challengeTypeResponse{
			Type:              string(t.Type),
			InitialBalance:    money.FormatAmount(t.InitialBalance),
			DailyLossLimitPct: money.FormatPct(t.DailyLossLimitPct),
			TotalLossLimitPct: money.FormatPct(t.TotalLossLimitPct),
			ProfitTargetPct:   money.FormatPct(t.ProfitTargetPct),
		})
	}
	respondJSON(w, http.StatusOK, resp)
}

func (h *Handler) CreateChallenge(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}
	var req createChallengeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	view, err := h.service.CreateChallenge(r.Context(), userID, req.ChallengeType)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, toChallengeResponse(view))
}

func (h *Handler) ListChallenges(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}
	views, err := h.service.ListChallenges(r.Context(), userID, r.URL.Query().Get("status"))
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toChallengeResponses(views))
}

func (h *Handler) GetChallenge(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}
	view, err := h.service.GetChallenge(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toChallengeResponse(view))
}

func (h *Handler) ListTrades(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}
	limit, offset := pagination(r)
	trades, total, err := h.service.ListTrades(r.Context(), userID, chi.URLParam(r, "id"), limit, offset)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	w.Header().Set(totalCountHeader, strconv.Itoa(total))
	resp := make([]tradeResponse, 0, len(trades))
	for _, t := range trades {
		resp = append(resp, toTradeResponse(t))
	}
	respondJSON(w, http.StatusOK, resp)
}

func (h *Handler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	entries, err := h.service.Leaderboard(r.Context())
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	resp := make([]leaderboardResponse, 0, len(entries))
	for _, e := range entries {
		resp = append(resp, leaderboardResponse{
			Rank:       e.Rank,
			OwnerID:    e.OwnerID,
			TotalPnL:   money.FormatAmount(e.TotalPnL),
			Challenges: e.Challenges,
			Passed:     e.Passed,
			Trades:     e.Trades,
			WinRatePct: money.FormatPct(e.WinRatePct),
		})
	}
	respondJSON(w, http.StatusOK, resp)
}

// WSChallenges upgrades to a websocket that streams updates for the caller's
// own challenges.
func (h *Handler) WSChallenges(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}
	websocket.ServeWS(w, r, h.upgrader, h.hub, userID)
}

