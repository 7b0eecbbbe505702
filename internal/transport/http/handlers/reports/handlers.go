package reportshandler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"leavehub/internal/domain/reports"
	"leavehub/internal/domain/roles"
	"leavehub/internal/requestctx"
	"leavehub/internal/transport/http/api"
)

type Handler struct {
	Service *reports.Service
}

func NewHandler(service *reports.Service) *Handler {
	return &Handler{Service: service}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/reports/balances.pdf", h.handleBalanceReport)
}

func (h *Handler) handleBalanceReport(w http.ResponseWriter, r *http.Request) {
	user, _ := requestctx.GetUser(r.Context())

	year := time.Now().Year()
	if raw := r.URL.Query().Get("year"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid year", requestctx.GetRequestID(r.Context()))
			return
		}
		year = parsed
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=leave-balances-%d.pdf", year))

	err := h.Service.BalanceReportPDF(r.Context(), user.UserID, year, w)
	switch {
	case errors.Is(err, roles.ErrForbidden):
		// Headers may already be set, but nothing has been written yet.
		w.Header().Del("Content-Disposition")
		api.Fail(w, http.StatusForbidden, "forbidden", "admin role required", requestctx.GetRequestID(r.Context()))
		return
	case err != nil:
		api.Fail(w, http.StatusInternalServerError, "report_failed", "failed to generate report", requestctx.GetRequestID(r.Context()))
		return
	}
}
