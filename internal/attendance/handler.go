package attendance

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/workzen-hq/workzen/internal/auth"
	"github.com/workzen-hq/workzen/internal/platform/httpx"
	"github.com/workzen-hq/workzen/internal/shared"
)

// Handler wires HTTP endpoints for attendance tracking.
type Handler struct {
	logger  *slog.Logger
	service *Service
	guard   auth.Middleware
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, guard auth.Middleware) *Handler {
	return &Handler{logger: logger, service: service, guard: guard}
}

// MountRoutes registers attendance routes. Check-in/out are self-service;
// reading another employee's records requires HR officer or admin.
func (h *Handler) MountRoutes(r chi.Router) {
	r.With(h.guard.Authenticated()).Post("/check-in", h.checkIn)
	r.With(h.guard.Authenticated()).Post("/check-out", h.checkOut)
	r.With(h.guard.Authenticated()).Get("/{employeeID}", h.list)
}

type punchRequest struct {
	EmployeeID string `json:"employee_id"`
}

func (h *Handler) checkIn(w http.ResponseWriter, r *http.Request) {
	employeeID, ok := h.subject(w, r)
	if !ok {
		return
	}
	rec, err := h.service.CheckIn(r.Context(), employeeID)
	if err != nil {
		h.respondError(w, "check in", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"status":        "success",
		"employee_id":   rec.EmployeeID,
		"check_in_time": rec.CheckIn,
		"message":       "Checked in successfully",
	})
}

func (h *Handler) checkOut(w http.ResponseWriter, r *http.Request) {
	employeeID, ok := h.subject(w, r)
	if !ok {
		return
	}
	rec, err := h.service.CheckOut(r.Context(), employeeID)
	if err != nil {
		h.respondError(w, "check out", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"status":         "success",
		"employee_id":    rec.EmployeeID,
		"check_out_time": rec.CheckOut,
		"hours_worked":   rec.HoursWorked,
		"message":        "Checked out successfully",
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	employeeID := chi.URLParam(r, "employeeID")
	principal, _ := shared.PrincipalFromContext(r.Context())
	if !principal.CanActFor(employeeID, shared.RoleHROfficer, shared.RoleAdmin) {
		httpx.RespondError(w, httpx.ErrForbidden)
		return
	}

	page := shared.ParsePagination(r, 31, 366)
	records, err := h.service.List(r.Context(), employeeID, page.Limit, page.Offset)
	if err != nil {
		h.respondError(w, "list attendance", err)
		return
	}
	if records == nil {
		records = []Record{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"employee_id": employeeID,
		"records":     records,
	})
}

// subject resolves the employee the punch applies to. Employees may only
// punch for themselves; HR officers and admins may punch for anyone.
func (h *Handler) subject(w http.ResponseWriter, r *http.Request) (string, bool) {
	principal, _ := shared.PrincipalFromContext(r.Context())

	var req punchRequest
	if err := httpx.DecodeJSON(r, &req); err != nil || req.EmployeeID == "" {
		req.EmployeeID = principal.UserID
	}
	if !principal.CanActFor(req.EmployeeID, shared.RoleHROfficer, shared.RoleAdmin) {
		httpx.RespondError(w, httpx.ErrForbidden)
		return "", false
	}
	return req.EmployeeID, true
}

func (h *Handler) respondError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, ErrAlreadyCheckedIn):
		httpx.Problem(w, http.StatusConflict, "Conflict", err.Error())
	case errors.Is(err, ErrNotCheckedIn):
		httpx.Problem(w, http.StatusConflict, "Conflict", err.Error())
	case errors.Is(err, ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	default:
		h.logger.Error(op, slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
