package leave

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/workzen-hq/workzen/internal/auth"
	"github.com/workzen-hq/workzen/internal/platform/httpx"
	"github.com/workzen-hq/workzen/internal/shared"
)

// Handler wires HTTP endpoints for leave balances and requests.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	guard     auth.Middleware
	validator *validator.Validate
}

func NewHandler(logger *slog.Logger, service *Service, guard auth.Middleware) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		guard:     guard,
		validator: validator.New(),
	}
}

// MountRoutes registers leave routes. Employees see their own balance and
// requests; approval and rejection are restricted to HR officer and admin.
func (h *Handler) MountRoutes(r chi.Router) {
	r.With(h.guard.Authenticated()).Get("/balance/{employeeID}", h.balance)
	r.With(h.guard.Authenticated()).Post("/requests", h.submit)
	r.With(h.guard.Authenticated()).Get("/requests/{employeeID}", h.listRequests)
	r.With(h.guard.RequireRoles(shared.RoleHROfficer, shared.RoleAdmin)).Get("/requests", h.listPending)
	r.With(h.guard.RequireRoles(shared.RoleHROfficer, shared.RoleAdmin)).Post("/requests/{id}/approve", h.approve)
	r.With(h.guard.RequireRoles(shared.RoleHROfficer, shared.RoleAdmin)).Post("/requests/{id}/reject", h.reject)
}

type submitRequest struct {
	EmployeeID string  `json:"employee_id"`
	Type       string  `json:"type" validate:"required"`
	StartDate  string  `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate    string  `json:"end_date" validate:"required,datetime=2006-01-02"`
	Days       float64 `json:"days" validate:"omitempty,gt=0"`
	Reason     string  `json:"reason" validate:"omitempty,max=500"`
}

type listRequestsResponse struct {
	Requests []Request `json:"requests"`
	Total    int       `json:"total"`
	Limit    int       `json:"limit"`
	Offset   int       `json:"offset"`
}

func (h *Handler) balance(w http.ResponseWriter, r *http.Request) {
	principal, _ := shared.PrincipalFromContext(r.Context())
	employeeID := chi.URLParam(r, "employeeID")
	if !principal.CanActFor(employeeID, shared.RoleHROfficer, shared.RoleAdmin) {
		httpx.RespondError(w, httpx.ErrForbidden)
		return
	}

	bal, err := h.service.Balance(r.Context(), employeeID)
	if err != nil {
		h.respondError(w, "get balance", err)
		return
	}
	httpx.JSON(w, http.StatusOK, bal)
}

func (h *Handler) submit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Input", "malformed request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Input", err.Error())
		return
	}

	principal, _ := shared.PrincipalFromContext(r.Context())
	if req.EmployeeID == "" {
		req.EmployeeID = principal.UserID
	}
	if !principal.CanActFor(req.EmployeeID, shared.RoleHROfficer, shared.RoleAdmin) {
		httpx.RespondError(w, httpx.ErrForbidden)
		return
	}

	start, _ := time.Parse("2006-01-02", req.StartDate)
	end, _ := time.Parse("2006-01-02", req.EndDate)
	created, err := h.service.Submit(r.Context(), req.EmployeeID, req.Type, start, end, req.Days, req.Reason)
	if err != nil {
		h.respondError(w, "submit leave request", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, created)
}

func (h *Handler) listRequests(w http.ResponseWriter, r *http.Request) {
	principal, _ := shared.PrincipalFromContext(r.Context())
	employeeID := chi.URLParam(r, "employeeID")
	if !principal.CanActFor(employeeID, shared.RoleHROfficer, shared.RoleAdmin) {
		httpx.RespondError(w, httpx.ErrForbidden)
		return
	}

	page := shared.ParsePagination(r, 50, 200)
	requests, total, err := h.service.ListRequests(r.Context(), employeeID, page)
	if err != nil {
		h.respondError(w, "list leave requests", err)
		return
	}
	httpx.JSON(w, http.StatusOK, listRequestsResponse{
		Requests: requests, Total: total, Limit: page.Limit, Offset: page.Offset,
	})
}

func (h *Handler) listPending(w http.ResponseWriter, r *http.Request) {
	page := shared.ParsePagination(r, 50, 200)
	requests, total, err := h.service.ListPending(r.Context(), page)
	if err != nil {
		h.respondError(w, "list pending leave requests", err)
		return
	}
	httpx.JSON(w, http.StatusOK, listRequestsResponse{
		Requests: requests, Total: total, Limit: page.Limit, Offset: page.Offset,
	})
}

func (h *Handler) approve(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, true)
}

func (h *Handler) reject(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, false)
}

func (h *Handler) decide(w http.ResponseWriter, r *http.Request, approve bool) {
	principal, _ := shared.PrincipalFromContext(r.Context())
	req, err := h.service.Decide(r.Context(), principal, chi.URLParam(r, "id"), approve)
	if err != nil {
		h.respondError(w, "decide leave request", err)
		return
	}
	httpx.JSON(w, http.StatusOK, req)
}

func (h *Handler) respondError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, ErrRequestNotFound), errors.Is(err, ErrBalanceNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrAlreadyDecided):
		httpx.Problem(w, http.StatusConflict, "Conflict", err.Error())
	case errors.Is(err, ErrInsufficientBalance):
		httpx.Problem(w, http.StatusConflict, "Conflict", err.Error())
	case errors.Is(err, ErrInvalidType), errors.Is(err, ErrInvalidRange):
		httpx.Problem(w, http.StatusBadRequest, "Invalid Input", err.Error())
	default:
		h.logger.Error(op, slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
