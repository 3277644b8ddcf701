package admin

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

// Handler wires administrative HTTP endpoints. Every route is admin only.
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

func (h *Handler) MountRoutes(r chi.Router) {
	adminOnly := h.guard.RequireRoles(shared.RoleAdmin)
	r.With(adminOnly).Get("/users", h.listUsers)
	r.With(adminOnly).Post("/users", h.createUser)
	r.With(adminOnly).Post("/users/{id}/enable", h.enableUser)
	r.With(adminOnly).Post("/users/{id}/disable", h.disableUser)
	r.With(adminOnly).Get("/settings", h.settings)
	r.With(adminOnly).Put("/settings", h.updateSettings)
	r.With(adminOnly).Get("/audit-logs", h.auditLogs)
}

type createUserRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name" validate:"required,min=1,max=200"`
	Password string `json:"password" validate:"required,min=8"`
	Role     string `json:"role" validate:"required"`
}

type listUsersResponse struct {
	Users  []UserRecord `json:"users"`
	Total  int          `json:"total"`
	Limit  int          `json:"limit"`
	Offset int          `json:"offset"`
}

type auditLogsResponse struct {
	Logs   []AuditEntry `json:"logs"`
	Total  int          `json:"total"`
	Limit  int          `json:"limit"`
	Offset int          `json:"offset"`
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	page := shared.ParsePagination(r, 50, 200)
	users, total, err := h.service.ListUsers(r.Context(), page)
	if err != nil {
		h.respondError(w, "list users", err)
		return
	}
	httpx.JSON(w, http.StatusOK, listUsersResponse{
		Users: users, Total: total, Limit: page.Limit, Offset: page.Offset,
	})
}

func (h *Handler) createUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Input", "malformed request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Input", err.Error())
		return
	}
	actor, _ := shared.PrincipalFromContext(r.Context())
	rec, err := h.service.CreateUser(r.Context(), actor, req.Email, req.Name, req.Password, shared.Role(req.Role))
	if err != nil {
		h.respondError(w, "create user", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, rec)
}

func (h *Handler) enableUser(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, true)
}

func (h *Handler) disableUser(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, false)
}

func (h *Handler) setActive(w http.ResponseWriter, r *http.Request, active bool) {
	actor, _ := shared.PrincipalFromContext(r.Context())
	rec, err := h.service.SetUserActive(r.Context(), actor, chi.URLParam(r, "id"), active)
	if err != nil {
		h.respondError(w, "set user active", err)
		return
	}
	httpx.JSON(w, http.StatusOK, rec)
}

func (h *Handler) settings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.service.Settings(r.Context())
	if err != nil {
		h.respondError(w, "list settings", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"settings": settings})
}

func (h *Handler) updateSettings(w http.ResponseWriter, r *http.Request) {
	var values map[string]string
	if err := httpx.DecodeJSON(r, &values); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Input", "malformed request body")
		return
	}
	if len(values) == 0 {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Input", "no settings provided")
		return
	}
	actor, _ := shared.PrincipalFromContext(r.Context())
	settings, err := h.service.UpdateSettings(r.Context(), actor, values)
	if err != nil {
		h.respondError(w, "update settings", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"settings": settings})
}

func (h *Handler) auditLogs(w http.ResponseWriter, r *http.Request) {
	page := shared.ParsePagination(r, 100, 500)
	logs, total, err := h.service.AuditLogs(r.Context(), r.URL.Query().Get("entity"), page)
	if err != nil {
		h.respondError(w, "list audit logs", err)
		return
	}
	httpx.JSON(w, http.StatusOK, auditLogsResponse{
		Logs: logs, Total: total, Limit: page.Limit, Offset: page.Offset,
	})
}

func (h *Handler) respondError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, ErrUserNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, auth.ErrEmailTaken):
		httpx.Problem(w, http.StatusBadRequest, "Duplicate", err.Error())
	case errors.Is(err, auth.ErrMissingField), errors.Is(err, shared.ErrInvalidRole):
		httpx.Problem(w, http.StatusBadRequest, "Invalid Input", err.Error())
	default:
		h.logger.Error(op, slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
