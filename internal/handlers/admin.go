package handlers

import (
	"net/http"

	"propfirm/internal/services"

	"github.com/go-chi/chi/v5"
)

type overrideStatusRequest struct {
	Status string `json:"status"`
	Reason string `json:"reason"`
}

func (h *Handler) AdminListChallenges(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)
	views, err := h.service.ListAllChallenges(r.Context(), r.URL.Query().Get("status"), limit, offset)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toChallengeResponses(views))
}

func (h *Handler) AdminGetChallenge(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.GetChallengeAsAdmin(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toChallengeResponse(view))
}

func (h *Handler) OverrideStatus(w http.ResponseWriter, r *http.Request) {
	actorID, ok := h.requireUser(w, r)
	if !ok {
		return
	}
	var req overrideStatusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	view, err := h.service.OverrideStatus(r.Context(), services.OverrideRequest{
		ActorID:     actorID,
		ChallengeID: chi.URLParam(r, "id"),
		Status:      req.Status,
		Reason:      req.Reason,
	})
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toChallengeResponse(view))
}

// ListAuditLogs pages through the audit trail, optionally for one entity.
func (h *Handler) ListAuditLogs(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)
	entries, err := h.audit.List(r.Context(), r.URL.Query().Get("entity_id"), limit, offset)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, entries)
}

// Reconcile reports challenges whose stored balance disagrees with the sum of
// their trades.
func (h *Handler) Reconcile(w http.ResponseWriter, r *http.Request) {
	rows, err := h.reconciler.Reconcile(r.Context())
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	resp := make([]reconcileResponse, 0, len(rows))
	for _, row := range rows {
		resp = append(resp, toReconcileResponse(row))
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"mismatches": resp,
		"ok":         len(resp) == 0,
	})
}
