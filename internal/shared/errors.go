package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidRole occurs when a role is outside the closed set.
	ErrInvalidRole = errors.New("invalid role")
	// ErrTokenInvalid occurs when a presented token is unknown or malformed.
	ErrTokenInvalid = errors.New("token invalid")
	// ErrTokenExpired occurs when a known token is past its expiry.
	ErrTokenExpired = errors.New("token expired")
)
