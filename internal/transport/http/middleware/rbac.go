package middleware

import (
	"context"
	"net/http"

	"leavehub/internal/domain/roles"
	"leavehub/internal/requestctx"
	"leavehub/internal/transport/http/api"
)

type RoleResolver interface {
	Current(ctx context.Context, userID string) (string, error)
}

// RequireAdmin gates admin routes on the resolved role. The domain
// services re-check on every mutation; this keeps the failure at the
// edge with a clean envelope.
func RequireAdmin(resolver RoleResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := requestctx.GetUser(r.Context())
			if !ok {
				api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestctx.GetRequestID(r.Context()))
				return
			}

			role, err := resolver.Current(r.Context(), user.UserID)
			if err != nil {
				api.Fail(w, http.StatusInternalServerError, "role_error", "role lookup failed", requestctx.GetRequestID(r.Context()))
				return
			}
			if role != roles.RoleAdmin {
				api.Fail(w, http.StatusForbidden, "forbidden", "admin role required", requestctx.GetRequestID(r.Context()))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
