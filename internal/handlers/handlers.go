package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"propfirm/internal/engine"
	"propfirm/internal/middleware"
	"propfirm/internal/services"
	"propfirm/internal/validator"

	"go.uber.org/zap"
)

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, code string) {
	respondJSON(w, status, map[string]string{"error": code})
}

func respondErrorMessage(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, map[string]string{"error": code, "message": message})
}

// respondServiceError maps domain errors to status codes. Anything unknown is
// logged and reported as a 500.
func (h *Handler) respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, engine.ErrInvalidTrade):
		respondErrorMessage(w, http.StatusBadRequest, "invalid_trade", err.Error())
	case errors.Is(err, engine.ErrChallengeNotFound):
		respondError(w, http.StatusNotFound, "challenge_not_found")
	case errors.Is(err, engine.ErrChallengeNotActive):
		respondError(w, http.StatusConflict, "challenge_not_active")
	case errors.Is(err, engine.ErrInvalidTransition):
		respondErrorMessage(w, http.StatusBadRequest, "invalid_transition", err.Error())
	case errors.Is(err, engine.ErrUnknownChallengeType):
		respondErrorMessage(w, http.StatusBadRequest, "unknown_challenge_type", err.Error())
	case errors.Is(err, engine.ErrConcurrencyConflict):
		w.Header().Set("Retry-After", "1")
		respondError(w, http.StatusServiceUnavailable, "concurrency_conflict")
	case errors.Is(err, services.ErrChallengeAccessDenied):
		respondError(w, http.StatusForbidden, "challenge_access_denied")
	case errors.Is(err, services.ErrActiveChallengeExists):
		respondError(w, http.StatusConflict, "active_challenge_exists")
	case errors.Is(err, validator.ErrInvalidStatus):
		respondError(w, http.StatusBadRequest, "invalid_status")
	default:
		h.logger.Error("request failed",
			zap.String("path", r.URL.Path),
			zap.String("method", r.Method),
			zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal_error")
	}
}

func (h *Handler) requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
	}
	return userID, ok
}
