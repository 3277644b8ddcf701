package auth

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/workzen-hq/workzen/internal/platform/httpx"
	"github.com/workzen-hq/workzen/internal/shared"
)

// Middleware wires the access guard for HTTP handlers. A missing or invalid
// token yields 401; a valid token whose role snapshot is outside the allowed
// set yields 403.
type Middleware struct {
	Tokens *TokenService
	Logger *slog.Logger
}

// RequireRoles resolves the bearer token and permits the request only when
// the role snapshot is a member of the allowed set. Each protected route
// declares its allowed roles statically at mount time.
func (m Middleware) RequireRoles(allowed ...shared.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			grant, err := m.resolve(r)
			if err != nil {
				httpx.RespondError(w, err)
				return
			}
			if len(allowed) > 0 && !grant.Role.In(allowed...) {
				httpx.RespondError(w, httpx.ErrForbidden)
				return
			}
			principal := shared.Principal{UserID: grant.UserID, Role: grant.Role}
			next.ServeHTTP(w, r.WithContext(shared.ContextWithPrincipal(r.Context(), principal)))
		})
	}
}

// Authenticated permits any valid token regardless of role.
func (m Middleware) Authenticated() func(http.Handler) http.Handler {
	return m.RequireRoles()
}

func (m Middleware) resolve(r *http.Request) (*Grant, error) {
	value, err := BearerToken(r)
	if err != nil {
		return nil, err
	}
	grant, err := m.Tokens.Validate(r.Context(), value)
	if err != nil {
		if errors.Is(err, shared.ErrTokenInvalid) || errors.Is(err, shared.ErrTokenExpired) {
			return nil, err
		}
		// Store fault, not a bad token. Surface it as an internal error
		// rather than telling the client to re-authenticate.
		if m.Logger != nil {
			m.Logger.Error("token validate", slog.Any("error", err))
		}
		return nil, fmt.Errorf("auth: validate token: %w", err)
	}
	return grant, nil
}

// BearerToken extracts the token from the Authorization header.
func BearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", httpx.ErrUnauthorized
	}
	scheme, value, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(value) == "" {
		return "", shared.ErrTokenInvalid
	}
	return strings.TrimSpace(value), nil
}
