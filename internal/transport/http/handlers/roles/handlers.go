package roleshandler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"leavehub/internal/domain/roles"
	"leavehub/internal/requestctx"
	"leavehub/internal/transport/http/api"
)

type Handler struct {
	Service *roles.Service
}

func NewHandler(service *roles.Service) *Handler {
	return &Handler{Service: service}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/roles", func(r chi.Router) {
		r.Get("/me", h.handleCurrentRole)
		r.Get("/users", h.handleListUsers)
		r.Put("/users/{userID}", h.handleUpdateRole)
	})
}

func (h *Handler) handleCurrentRole(w http.ResponseWriter, r *http.Request) {
	user, _ := requestctx.GetUser(r.Context())

	role, err := h.Service.Current(r.Context(), user.UserID)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "role_failed", "failed to resolve role", requestctx.GetRequestID(r.Context()))
		return
	}
	api.Success(w, map[string]string{"role": role}, requestctx.GetRequestID(r.Context()))
}

func (h *Handler) handleListUsers(w http.ResponseWriter, r *http.Request) {
	user, _ := requestctx.GetUser(r.Context())

	users, err := h.Service.ListUsers(r.Context(), user.UserID)
	switch {
	case errors.Is(err, roles.ErrForbidden):
		api.Fail(w, http.StatusForbidden, "forbidden", "admin role required", requestctx.GetRequestID(r.Context()))
		return
	case err != nil:
		api.Fail(w, http.StatusInternalServerError, "users_failed", "failed to list users", requestctx.GetRequestID(r.Context()))
		return
	}
	api.Success(w, users, requestctx.GetRequestID(r.Context()))
}

type rolePayload struct {
	Role string `json:"role"`
}

func (h *Handler) handleUpdateRole(w http.ResponseWriter, r *http.Request) {
	user, _ := requestctx.GetUser(r.Context())

	var payload rolePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestctx.GetRequestID(r.Context()))
		return
	}

	err := h.Service.Update(r.Context(), user.UserID, chi.URLParam(r, "userID"), payload.Role)
	switch {
	case errors.Is(err, roles.ErrForbidden):
		api.Fail(w, http.StatusForbidden, "forbidden", "admin role required", requestctx.GetRequestID(r.Context()))
		return
	case errors.Is(err, roles.ErrInvalidRole):
		api.Fail(w, http.StatusBadRequest, "invalid_role", "role must be admin or user", requestctx.GetRequestID(r.Context()))
		return
	case err != nil:
		api.Fail(w, http.StatusInternalServerError, "role_update_failed", "failed to update role", requestctx.GetRequestID(r.Context()))
		return
	}
	api.Success(w, map[string]string{"status": "updated"}, requestctx.GetRequestID(r.Context()))
}
