// Package common defines shared constants and sentinel errors used across
// the quizdeck server layers. Callers should use errors.Is to match these
// values; lower layers wrap them with context via fmt.Errorf("...: %w").
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal   = errors.New("internal error")
	ErrorValidation = errors.New("validation error")

	// Authentication outcomes. Unknown identifier and wrong password share
	// ErrInvalidCredentials so callers cannot enumerate accounts.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAlreadyRegistered  = errors.New("already registered")
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrForbidden          = errors.New("forbidden")
	ErrLastAdmin          = errors.New("last active admin")

	// Token errors. The access guard folds all of them into ErrUnauthenticated.
	ErrInvalidToken     = errors.New("invalid token")
	ErrInvalidSignature = errors.New("invalid token signature")
	ErrTokenExpired     = errors.New("token expired")
	ErrTokenRevoked     = errors.New("token revoked")

	// ErrConfiguration is fatal at startup and never returned per request.
	ErrConfiguration = errors.New("configuration error")
)
