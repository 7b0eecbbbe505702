package leavehandler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"leavehub/internal/domain/application"
	"leavehub/internal/domain/balance"
	"leavehub/internal/domain/catalog"
	"leavehub/internal/domain/roles"
	"leavehub/internal/requestctx"
	"leavehub/internal/transport/http/api"
	"leavehub/internal/transport/http/middleware"
	"leavehub/internal/transport/http/shared"
)

type Handler struct {
	Catalog      *catalog.Service
	Balances     *balance.Service
	Applications *application.Service
	Roles        middleware.RoleResolver
}

func NewHandler(catalogSvc *catalog.Service, balances *balance.Service, applications *application.Service, rolesSvc middleware.RoleResolver) *Handler {
	return &Handler{Catalog: catalogSvc, Balances: balances, Applications: applications, Roles: rolesSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/leave", func(r chi.Router) {
		r.Get("/types", h.handleListTypes)
		r.Get("/types/{typeID}", h.handleGetType)
		r.With(middleware.RequireAdmin(h.Roles)).Post("/types", h.handleCreateType)
		r.With(middleware.RequireAdmin(h.Roles)).Put("/types/{typeID}", h.handleUpdateType)

		r.Get("/balance", h.handleGetBalance)
		r.Get("/balances/cards", h.handleBalanceCards)
		r.Get("/balances/wfh", h.handleAdditionalWFH)
		r.Get("/options", h.handleOptions)

		r.Get("/requests", h.handleListRequests)
		r.Post("/requests", h.handleSubmitRequest)
		r.With(middleware.RequireAdmin(h.Roles)).Post("/requests/{requestID}/approve", h.handleApproveRequest)
		r.With(middleware.RequireAdmin(h.Roles)).Post("/requests/{requestID}/reject", h.handleRejectRequest)
	})
}

func (h *Handler) handleListTypes(w http.ResponseWriter, r *http.Request) {
	types, err := h.Catalog.List(r.Context())
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "leave_types_failed", "failed to list leave types", requestctx.GetRequestID(r.Context()))
		return
	}
	api.Success(w, types, requestctx.GetRequestID(r.Context()))
}

func (h *Handler) handleGetType(w http.ResponseWriter, r *http.Request) {
	t, err := h.Catalog.Get(r.Context(), chi.URLParam(r, "typeID"))
	if errors.Is(err, catalog.ErrNotFound) {
		api.Fail(w, http.StatusNotFound, "not_found", "leave type not found", requestctx.GetRequestID(r.Context()))
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "leave_type_failed", "failed to load leave type", requestctx.GetRequestID(r.Context()))
		return
	}
	api.Success(w, t, requestctx.GetRequestID(r.Context()))
}

type leaveTypePayload struct {
	Label             string `json:"label"`
	Color             string `json:"color"`
	RequiresApproval  bool   `json:"requiresApproval"`
	AnnualAllowance   int    `json:"annualAllowance"`
	CarryForwardLimit int    `json:"carryForwardLimit"`
	Description       string `json:"description"`
}

func (p leaveTypePayload) toLeaveType() catalog.LeaveType {
	return catalog.LeaveType{
		Label:             p.Label,
		Color:             p.Color,
		RequiresApproval:  p.RequiresApproval,
		AnnualAllowance:   p.AnnualAllowance,
		CarryForwardLimit: p.CarryForwardLimit,
		Description:       p.Description,
	}
}

func (h *Handler) handleCreateType(w http.ResponseWriter, r *http.Request) {
	var payload leaveTypePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestctx.GetRequestID(r.Context()))
		return
	}

	v := shared.NewValidator()
	v.Required("label", payload.Label, "label is required")
	if payload.AnnualAllowance < 0 {
		v.Add("annualAllowance", "must not be negative")
	}
	if v.Reject(w, requestctx.GetRequestID(r.Context())) {
		return
	}

	id, err := h.Catalog.Create(r.Context(), payload.toLeaveType())
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "leave_type_create_failed", "failed to create leave type", requestctx.GetRequestID(r.Context()))
		return
	}
	api.Created(w, map[string]string{"id": id}, requestctx.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdateType(w http.ResponseWriter, r *http.Request) {
	var payload leaveTypePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestctx.GetRequestID(r.Context()))
		return
	}

	err := h.Catalog.Update(r.Context(), chi.URLParam(r, "typeID"), payload.toLeaveType())
	if errors.Is(err, catalog.ErrNotFound) {
		api.Fail(w, http.StatusNotFound, "not_found", "leave type not found", requestctx.GetRequestID(r.Context()))
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "leave_type_update_failed", "failed to update leave type", requestctx.GetRequestID(r.Context()))
		return
	}
	api.Success(w, map[string]string{"status": "updated"}, requestctx.GetRequestID(r.Context()))
}

// handleGetBalance serves one derived balance. refreshTrigger is an opaque
// client value; repeating it serves the cached result, changing it forces
// a refetch.
func (h *Handler) handleGetBalance(w http.ResponseWriter, r *http.Request) {
	user, _ := requestctx.GetUser(r.Context())

	leaveTypeID := r.URL.Query().Get("leaveTypeId")
	if leaveTypeID == "" {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "leaveTypeId is required", requestctx.GetRequestID(r.Context()))
		return
	}
	year := time.Now().Year()
	if raw := r.URL.Query().Get("year"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid year", requestctx.GetRequestID(r.Context()))
			return
		}
		year = parsed
	}

	b, err := h.Balances.Get(r.Context(), user.UserID, leaveTypeID, year, r.URL.Query().Get("refreshTrigger"))
	if errors.Is(err, catalog.ErrNotFound) {
		api.Fail(w, http.StatusNotFound, "not_found", "leave type not found", requestctx.GetRequestID(r.Context()))
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "balance_failed", "failed to load balance", requestctx.GetRequestID(r.Context()))
		return
	}
	api.Success(w, b, requestctx.GetRequestID(r.Context()))
}

// handleBalanceCards returns one card per leave type the caller can still
// apply for; ineligible types are omitted rather than zeroed.
func (h *Handler) handleBalanceCards(w http.ResponseWriter, r *http.Request) {
	user, _ := requestctx.GetUser(r.Context())
	year := time.Now().Year()

	types, err := h.Catalog.List(r.Context())
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "balance_cards_failed", "failed to load balances", requestctx.GetRequestID(r.Context()))
		return
	}

	cards := make([]balance.Card, 0, len(types))
	for _, t := range types {
		b, err := h.Balances.Get(r.Context(), user.UserID, t.ID, year, "")
		if err != nil {
			api.Fail(w, http.StatusInternalServerError, "balance_cards_failed", "failed to load balances", requestctx.GetRequestID(r.Context()))
			return
		}
		if balance.CardState(false, nil, &b) != balance.StateCard {
			continue
		}
		cards = append(cards, balance.NewCard(t, b))
	}
	api.Success(w, cards, requestctx.GetRequestID(r.Context()))
}

// handleAdditionalWFH returns null while the variant balance is locked.
func (h *Handler) handleAdditionalWFH(w http.ResponseWriter, r *http.Request) {
	user, _ := requestctx.GetUser(r.Context())

	wfh, err := h.Balances.GetAdditionalWFH(r.Context(), user.UserID)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "wfh_balance_failed", "failed to load additional WFH balance", requestctx.GetRequestID(r.Context()))
		return
	}
	api.Success(w, wfh, requestctx.GetRequestID(r.Context()))
}

func (h *Handler) handleOptions(w http.ResponseWriter, r *http.Request) {
	user, _ := requestctx.GetUser(r.Context())
	year := time.Now().Year()

	types, err := h.Catalog.List(r.Context())
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "options_failed", "failed to load leave options", requestctx.GetRequestID(r.Context()))
		return
	}

	balances := make(map[string]balance.Balance, len(types))
	for _, t := range types {
		b, err := h.Balances.Get(r.Context(), user.UserID, t.ID, year, "")
		if err != nil {
			api.Fail(w, http.StatusInternalServerError, "options_failed", "failed to load leave options", requestctx.GetRequestID(r.Context()))
			return
		}
		balances[t.ID] = b
	}
	api.Success(w, balance.Options(types, balances), requestctx.GetRequestID(r.Context()))
}

func (h *Handler) handleListRequests(w http.ResponseWriter, r *http.Request) {
	user, _ := requestctx.GetUser(r.Context())

	apps, err := h.Applications.ListMine(r.Context(), user.UserID)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "requests_failed", "failed to list leave requests", requestctx.GetRequestID(r.Context()))
		return
	}
	api.Success(w, apps, requestctx.GetRequestID(r.Context()))
}

type submitPayload struct {
	LeaveTypeID string `json:"leaveTypeId"`
	StartDate   string `json:"startDate"`
	EndDate     string `json:"endDate"`
}

func (h *Handler) handleSubmitRequest(w http.ResponseWriter, r *http.Request) {
	user, _ := requestctx.GetUser(r.Context())

	var payload submitPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestctx.GetRequestID(r.Context()))
		return
	}

	v := shared.NewValidator()
	v.Required("leaveTypeId", payload.LeaveTypeID, "leaveTypeId is required")
	start, _ := v.Date("startDate", payload.StartDate)
	end, _ := v.Date("endDate", payload.EndDate)
	v.DateOrder("startDate", start, "endDate", end)
	if v.Reject(w, requestctx.GetRequestID(r.Context())) {
		return
	}

	id, err := h.Applications.Submit(r.Context(), user.UserID, payload.LeaveTypeID, start, end)
	switch {
	case errors.Is(err, application.ErrNotEligible):
		api.Fail(w, http.StatusConflict, "not_eligible", "no balance available for this leave type", requestctx.GetRequestID(r.Context()))
		return
	case errors.Is(err, catalog.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "leave type not found", requestctx.GetRequestID(r.Context()))
		return
	case err != nil:
		api.Fail(w, http.StatusInternalServerError, "request_create_failed", "failed to submit leave request", requestctx.GetRequestID(r.Context()))
		return
	}
	api.Created(w, map[string]string{"id": id}, requestctx.GetRequestID(r.Context()))
}

func (h *Handler) handleApproveRequest(w http.ResponseWriter, r *http.Request) {
	h.resolveRequest(w, r, h.Applications.Approve, "approved")
}

func (h *Handler) handleRejectRequest(w http.ResponseWriter, r *http.Request) {
	h.resolveRequest(w, r, h.Applications.Reject, "rejected")
}

func (h *Handler) resolveRequest(w http.ResponseWriter, r *http.Request, resolve func(ctx context.Context, callerID, id string) error, status string) {
	user, _ := requestctx.GetUser(r.Context())

	err := resolve(r.Context(), user.UserID, chi.URLParam(r, "requestID"))
	switch {
	case errors.Is(err, application.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "leave request not found", requestctx.GetRequestID(r.Context()))
		return
	case errors.Is(err, application.ErrInvalidState):
		api.Fail(w, http.StatusConflict, "invalid_state", "leave request is not pending", requestctx.GetRequestID(r.Context()))
		return
	case errors.Is(err, roles.ErrForbidden):
		api.Fail(w, http.StatusForbidden, "forbidden", "admin role required", requestctx.GetRequestID(r.Context()))
		return
	case err != nil:
		api.Fail(w, http.StatusInternalServerError, "request_resolve_failed", "failed to resolve leave request", requestctx.GetRequestID(r.Context()))
		return
	}
	api.Success(w, map[string]string{"status": status}, requestctx.GetRequestID(r.Context()))
}
