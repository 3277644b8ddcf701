package auth

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/workzen-hq/workzen/internal/shared"
)

// tokenRetentionFactor keeps expired grant records around past their TTL so
// validation can still distinguish an expired token from an unknown one.
const tokenRetentionFactor = 2

// TokenStore persists issued grants keyed by an opaque digest of the token
// value. Lookups are O(1) in the number of live tokens.
type TokenStore interface {
	Save(ctx context.Context, key string, grant Grant, retain time.Duration) error
	Get(ctx context.Context, key string) (*Grant, error)
	Delete(ctx context.Context, key string) error
}

// TokenService issues, validates, and revokes bearer tokens.
type TokenService struct {
	store  TokenStore
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenService constructs a TokenService.
func NewTokenService(store TokenStore, secret string, ttl time.Duration) *TokenService {
	return &TokenService{
		store:  store,
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// TTL exposes the configured token lifetime.
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

// Issue mints a new grant for the user. The token value carries 256 bits from
// the system CSPRNG; only its keyed digest is stored.
func (s *TokenService) Issue(ctx context.Context, user *User) (Grant, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return Grant{}, fmt.Errorf("auth: generate token: %w", err)
	}
	value := base64.RawURLEncoding.EncodeToString(raw)

	now := s.now().UTC()
	grant := Grant{
		Token:     value,
		UserID:    user.ID,
		Role:      user.Role,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.ttl),
	}
	retain := s.ttl * tokenRetentionFactor
	if err := s.store.Save(ctx, s.storeKey(value), grant, retain); err != nil {
		return Grant{}, fmt.Errorf("auth: save grant: %w", err)
	}
	return grant, nil
}

// Validate resolves a presented token value to its grant. Unknown tokens
// yield shared.ErrTokenInvalid; known-but-expired tokens yield
// shared.ErrTokenExpired until the store reclaims the record.
func (s *TokenService) Validate(ctx context.Context, value string) (*Grant, error) {
	if value == "" {
		return nil, shared.ErrTokenInvalid
	}
	grant, err := s.store.Get(ctx, s.storeKey(value))
	if err != nil {
		return nil, err
	}
	if grant.Expired(s.now().UTC()) {
		return nil, shared.ErrTokenExpired
	}
	grant.Token = value
	return grant, nil
}

// Revoke invalidates a token. Revoking an unknown or already-revoked token is
// a no-op so logout stays idempotent.
func (s *TokenService) Revoke(ctx context.Context, value string) error {
	if value == "" {
		return nil
	}
	return s.store.Delete(ctx, s.storeKey(value))
}

// storeKey derives the storage key from the token value. Keying the digest
// with the configured secret keeps raw bearer tokens out of the store.
func (s *TokenService) storeKey(value string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(value))
	return hex.EncodeToString(mac.Sum(nil))
}
