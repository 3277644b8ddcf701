package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/workzen-hq/workzen/internal/shared"
)

// ErrMissingField indicates a signup with an empty required field.
var ErrMissingField = errors.New("missing required field")

// Service wraps authentication business rules.
type Service struct {
	repo   Repository
	tokens *TokenService
}

// NewService constructs a new Service.
func NewService(repo Repository, tokens *TokenService) *Service {
	return &Service{repo: repo, tokens: tokens}
}

// Tokens exposes the token service for middleware wiring.
func (s *Service) Tokens() *TokenService {
	return s.tokens
}

// Authenticate validates email/password credentials. Credential failures all
// collapse into shared.ErrInvalidCredentials so the response never reveals
// which part was wrong; a store fault is not a credential failure and
// propagates as-is so it surfaces as an internal error.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if errors.Is(err, shared.ErrNotFound) {
		return nil, shared.ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("auth: find identity: %w", err)
	}
	if !user.IsActive {
		return nil, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	return user, nil
}

// Login authenticates credentials and issues a grant.
func (s *Service) Login(ctx context.Context, email, password string) (*User, Grant, error) {
	user, err := s.Authenticate(ctx, email, password)
	if err != nil {
		return nil, Grant{}, err
	}
	grant, err := s.tokens.Issue(ctx, user)
	if err != nil {
		return nil, Grant{}, err
	}
	return user, grant, nil
}

// Register creates a new identity without issuing a token. Email uniqueness
// is enforced atomically by the repository, so a race between two
// registrations with the same email admits exactly one.
func (s *Service) Register(ctx context.Context, email, password, name, rawRole string) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	name = strings.TrimSpace(name)
	if email == "" || password == "" || name == "" {
		return nil, ErrMissingField
	}
	role, err := shared.ParseRole(rawRole)
	if err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("auth: hash password: %w", err)
	}

	now := time.Now().UTC()
	user := &User{
		ID:           uuid.NewString(),
		Email:        email,
		Name:         name,
		PasswordHash: string(hash),
		Role:         role,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Signup registers a new identity and issues a grant for it.
func (s *Service) Signup(ctx context.Context, email, password, name, rawRole string) (*User, Grant, error) {
	user, err := s.Register(ctx, email, password, name, rawRole)
	if err != nil {
		return nil, Grant{}, err
	}
	grant, err := s.tokens.Issue(ctx, user)
	if err != nil {
		return nil, Grant{}, err
	}
	return user, grant, nil
}

// Logout invalidates the presented token. Unknown tokens are ignored.
func (s *Service) Logout(ctx context.Context, token string) error {
	return s.tokens.Revoke(ctx, token)
}
