package payroll

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/workzen-hq/workzen/internal/auth"
	"github.com/workzen-hq/workzen/internal/platform/httpx"
	"github.com/workzen-hq/workzen/internal/shared"
)

// Handler wires HTTP endpoints for payruns and payslips.
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

// MountRoutes registers payroll routes. Run management is restricted to
// payroll officer and admin; final approval is admin only. Employees can
// read their own payslips.
func (h *Handler) MountRoutes(r chi.Router) {
	officer := h.guard.RequireRoles(shared.RolePayrollOfficer, shared.RoleAdmin)
	r.With(officer).Get("/runs", h.listRuns)
	r.With(officer).Post("/runs", h.createRun)
	r.With(officer).Get("/runs/{id}", h.getRun)
	r.With(officer).Post("/runs/{id}/submit", h.submitRun)
	r.With(h.guard.RequireRoles(shared.RoleAdmin)).Post("/runs/{id}/approve", h.approveRun)
	r.With(officer).Get("/runs/{id}/payslips", h.runSlips)
	r.With(officer).Get("/runs/{id}/summary", h.runSummary)
	r.With(h.guard.Authenticated()).Get("/payslips/{employeeID}", h.employeeSlips)
}

type createRunRequest struct {
	Period string `json:"period" validate:"required,len=7"`
}

type listRunsResponse struct {
	Runs   []Payrun `json:"runs"`
	Total  int      `json:"total"`
	Limit  int      `json:"limit"`
	Offset int      `json:"offset"`
}

type payslipsResponse struct {
	Payslips []Payslip `json:"payslips"`
	Total    int       `json:"total"`
	Limit    int       `json:"limit"`
	Offset   int       `json:"offset"`
}

func (h *Handler) listRuns(w http.ResponseWriter, r *http.Request) {
	page := shared.ParsePagination(r, 50, 200)
	runs, total, err := h.service.ListRuns(r.Context(), page)
	if err != nil {
		h.respondError(w, "list payruns", err)
		return
	}
	httpx.JSON(w, http.StatusOK, listRunsResponse{
		Runs: runs, Total: total, Limit: page.Limit, Offset: page.Offset,
	})
}

func (h *Handler) createRun(w http.ResponseWriter, r *http.Request) {
	var req createRunRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Input", "malformed request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Input", err.Error())
		return
	}
	actor, _ := shared.PrincipalFromContext(r.Context())
	run, err := h.service.CreateRun(r.Context(), actor, req.Period)
	if err != nil {
		h.respondError(w, "create payrun", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, run)
}

func (h *Handler) getRun(w http.ResponseWriter, r *http.Request) {
	run, err := h.service.GetRun(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, "get payrun", err)
		return
	}
	httpx.JSON(w, http.StatusOK, run)
}

func (h *Handler) submitRun(w http.ResponseWriter, r *http.Request) {
	actor, _ := shared.PrincipalFromContext(r.Context())
	run, err := h.service.SubmitRun(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, "submit payrun", err)
		return
	}
	httpx.JSON(w, http.StatusOK, run)
}

func (h *Handler) approveRun(w http.ResponseWriter, r *http.Request) {
	actor, _ := shared.PrincipalFromContext(r.Context())
	run, err := h.service.ApproveRun(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, "approve payrun", err)
		return
	}
	httpx.JSON(w, http.StatusOK, run)
}

func (h *Handler) runSlips(w http.ResponseWriter, r *http.Request) {
	slips, err := h.service.RunSlips(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, "list run payslips", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"payslips": slips})
}

func (h *Handler) runSummary(w http.ResponseWriter, r *http.Request) {
	sum, err := h.service.RunSummary(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, "summarize payrun", err)
		return
	}
	httpx.JSON(w, http.StatusOK, sum)
}

func (h *Handler) employeeSlips(w http.ResponseWriter, r *http.Request) {
	principal, _ := shared.PrincipalFromContext(r.Context())
	employeeID := chi.URLParam(r, "employeeID")
	if !principal.CanActFor(employeeID, shared.RolePayrollOfficer, shared.RoleAdmin) {
		httpx.RespondError(w, httpx.ErrForbidden)
		return
	}

	page := shared.ParsePagination(r, 24, 120)
	slips, total, err := h.service.EmployeeSlips(r.Context(), employeeID, page)
	if err != nil {
		h.respondError(w, "list employee payslips", err)
		return
	}
	httpx.JSON(w, http.StatusOK, payslipsResponse{
		Payslips: slips, Total: total, Limit: page.Limit, Offset: page.Offset,
	})
}

func (h *Handler) respondError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, ErrRunNotFound), errors.Is(err, ErrPayslipNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrPeriodExists), errors.Is(err, ErrInvalidState):
		httpx.Problem(w, http.StatusConflict, "Conflict", err.Error())
	case errors.Is(err, ErrInvalidPeriod), errors.Is(err, ErrNoSalaries):
		httpx.Problem(w, http.StatusBadRequest, "Invalid Input", err.Error())
	default:
		h.logger.Error(op, slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
