package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"propfirm/internal/engine"
	"propfirm/internal/services"
)

// Prices and quantity are taken as json.Number so both 1.5 and "1.5" decode
// without passing through float64.
type recordTradeRequest struct {
	ChallengeID string      `json:"challenge_id"`
	Symbol      string      `json:"symbol"`
	Side        string      `json:"side"`
	EntryPrice  json.Number `json:"entry_price"`
	ExitPrice   json.Number `json:"exit_price"`
	Quantity    json.Number `json:"quantity"`
	OpenedAt    *time.Time  `json:"opened_at"`
}

type recordTradeResponse struct {
	Trade     tradeResponse     `json:"trade"`
	Challenge challengeResponse `json:"challenge"`
}

func (r recordTradeRequest) input() (engine.TradeInput, error) {
	entry, err := parseDecimalField("entry_price", r.EntryPrice)
	if err != nil {
		return engine.TradeInput{}, err
	}
	exit, err := parseDecimalField("exit_price", r.ExitPrice)
	if err != nil {
		return engine.TradeInput{}, err
	}
	quantity, err := parseDecimalField("quantity", r.Quantity)
	if err != nil {
		return engine.TradeInput{}, err
	}
	return engine.TradeInput{
		ChallengeID: r.ChallengeID,
		Symbol:      r.Symbol,
		Side:        r.Side,
		EntryPrice:  entry,
		ExitPrice:   exit,
		Quantity:    quantity,
		OpenedAt:    r.OpenedAt,
	}, nil
}

func (h *Handler) RecordTrade(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}
	var req recordTradeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondErrorMessage(w, http.StatusBadRequest, "invalid_trade", "malformed request body")
		return
	}
	input, err := req.input()
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	result, err := h.service.RecordTrade(r.Context(), services.TradeRequest{OwnerID: userID, Input: input})
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, recordTradeResponse{
		Trade:     toTradeResponse(result.Trade),
		Challenge: toChallengeResponse(result.View),
	})
}
