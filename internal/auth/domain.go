package auth

import (
	"time"

	"github.com/workzen-hq/workzen/internal/shared"
)

// User represents a registered identity.
type User struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string
	Role         shared.Role
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Grant is one issued authorization. The role is snapshotted at issuance and
// does not track later role changes.
type Grant struct {
	Token     string      `json:"-"`
	UserID    string      `json:"user_id"`
	Role      shared.Role `json:"role"`
	IssuedAt  time.Time   `json:"issued_at"`
	ExpiresAt time.Time   `json:"expires_at"`
}

// Expired reports whether the grant is past its expiry at the given instant.
func (g Grant) Expired(now time.Time) bool {
	return now.After(g.ExpiresAt)
}
