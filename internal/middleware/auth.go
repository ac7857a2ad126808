package middleware

import (
	"context"
	"net/http"
	"strings"

	"propfirm/internal/auth"
)

type contextKey string

const userIDKey contextKey = "user_id"

func UserIDFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(userIDKey).(string)
	return userID, ok && userID != ""
}

// WithUserID stores the caller identity the way Auth does.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// Auth accepts "Authorization: Bearer <jwt>".
func Auth(secret string) func(http.Handler) http.Handler {
	return authenticate(secret, false)
}

// QueryAuth also accepts ?token= when no header is present. Browsers cannot
// set headers when opening a websocket.
func QueryAuth(secret string) func(http.Handler) http.Handler {
	return authenticate(secret, true)
}

func authenticate(secret string, queryFallback bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r, queryFallback)
			if !ok {
				writeError(w, http.StatusUnauthorized, "unauthorized", "missing or invalid authorization header")
				return
			}
			claims, err := auth.ParseToken(secret, token)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "unauthorized", "invalid token")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), claims.UserID)))
		})
	}
}

func bearerToken(r *http.Request, queryFallback bool) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		if queryFallback {
			token := r.URL.Query().Get("token")
			return token, token != ""
		}
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", false
	}
	return strings.TrimSpace(parts[1]), true
}
