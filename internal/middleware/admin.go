package middleware

import (
	"context"
	"net/http"

	"propfirm/internal/store"
)

const (
	RoleChallengesRead     = "challenges:read"
	RoleChallengesOverride = "challenges:override"
	RoleAuditRead          = "audit:read"
)

type AdminStore interface {
	Lookup(ctx context.Context, userID string) (store.Admin, bool, error)
}

// RequireAdmin lets the request through when the caller is an admin holding
// role. Super admins hold every role and an empty role only needs admin.
func RequireAdmin(adminStore AdminStore, role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := UserIDFromContext(r.Context())
			if !ok {
				writeError(w, http.StatusUnauthorized, "unauthorized", "unauthorized")
				return
			}
			admin, isAdmin, err := adminStore.Lookup(r.Context(), userID)
			if err != nil {
				writeError(w, http.StatusInternalServerError, "internal_error", "unable to verify admin")
				return
			}
			if !isAdmin {
				writeError(w, http.StatusForbidden, "forbidden", "admin privileges required")
				return
			}
			if !admin.HasRole(role) {
				writeError(w, http.StatusForbidden, "forbidden", "missing required role")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
