package auth

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/workzen-hq/workzen/internal/platform/httpx"
	"github.com/workzen-hq/workzen/internal/shared"
)

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		validator: validator.New(),
	}
}

// MountRoutes registers auth routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/login", h.handleLogin)
	r.Post("/signup", h.handleSignup)
	r.Post("/logout", h.handleLogout)
	r.Get("/validate-token", h.handleValidateToken)
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type signupRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Name     string `json:"name" validate:"required"`
	Role     string `json:"role" validate:"required"`
}

// TokenResponse is the wire shape of a successful login or signup.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	UserID      string `json:"user_id"`
	Role        string `json:"role"`
	ExpiresIn   int    `json:"expires_in"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Input", "malformed request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Input", "email and password are required")
		return
	}

	user, grant, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if !errors.Is(err, shared.ErrInvalidCredentials) {
			h.logger.Error("login", slog.Any("error", err))
		}
		httpx.RespondError(w, err)
		return
	}

	h.logger.Info("login", slog.String("user_id", user.ID), slog.String("role", string(user.Role)))
	httpx.JSON(w, http.StatusOK, tokenResponse(grant))
}

func (h *Handler) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Input", "malformed request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Input", "email, password, name, and role are required")
		return
	}

	user, grant, err := h.service.Signup(r.Context(), req.Email, req.Password, req.Name, req.Role)
	if err != nil {
		switch {
		case errors.Is(err, ErrMissingField):
			httpx.Problem(w, http.StatusBadRequest, "Invalid Input", err.Error())
		case errors.Is(err, ErrEmailTaken):
			httpx.Problem(w, http.StatusBadRequest, "Duplicate", err.Error())
		case errors.Is(err, shared.ErrInvalidRole):
			httpx.Problem(w, http.StatusBadRequest, "Invalid Input", err.Error())
		default:
			h.logger.Error("signup", slog.Any("error", err))
			httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		}
		return
	}

	h.logger.Info("signup", slog.String("user_id", user.ID), slog.String("role", string(user.Role)))
	httpx.JSON(w, http.StatusOK, tokenResponse(grant))
}

// handleLogout invalidates the presented token. It succeeds even when the
// token is missing or already invalid.
func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if value, err := BearerToken(r); err == nil {
		if err := h.service.Logout(r.Context(), value); err != nil {
			h.logger.Warn("logout", slog.Any("error", err))
		}
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"message": "Logged out successfully"})
}

func (h *Handler) handleValidateToken(w http.ResponseWriter, r *http.Request) {
	value, err := BearerToken(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	grant, err := h.service.Tokens().Validate(r.Context(), value)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"valid":   true,
		"user_id": grant.UserID,
		"role":    string(grant.Role),
	})
}

func tokenResponse(grant Grant) TokenResponse {
	return TokenResponse{
		AccessToken: grant.Token,
		TokenType:   "bearer",
		UserID:      grant.UserID,
		Role:        string(grant.Role),
		ExpiresIn:   int(grant.ExpiresAt.Sub(grant.IssuedAt).Seconds()),
	}
}
