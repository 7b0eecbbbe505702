package corehandler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"leavehub/internal/domain/roles"
	"leavehub/internal/requestctx"
	"leavehub/internal/transport/http/api"
)

// Handler serves the caller's identity. Profiles are provisioned by the
// external identity provider; this only reflects what the token and the
// role store say.
type Handler struct {
	Roles *roles.Service
}

func NewHandler(rolesSvc *roles.Service) *Handler {
	return &Handler{Roles: rolesSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/me", h.handleMe)
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	user, _ := requestctx.GetUser(r.Context())

	role, err := h.Roles.Current(r.Context(), user.UserID)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "role_failed", "failed to resolve role", requestctx.GetRequestID(r.Context()))
		return
	}

	api.Success(w, map[string]any{
		"user": map[string]string{
			"id":    user.UserID,
			"email": user.Email,
		},
		"role": role,
	}, requestctx.GetRequestID(r.Context()))
}
