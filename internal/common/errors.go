// Package common contains shared constants and sentinel errors used across
// Burbly components. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic flow control). The HTTP layer maps
	// these to status codes; client-visible detail is attached by wrapping,
	// e.g. fmt.Errorf("%w: passwords do not match", ErrorValidation).
	ErrorInternal     = errors.New("internal error")
	ErrorValidation   = errors.New("validation error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorForbidden    = errors.New("forbidden")
	ErrorConflict     = errors.New("conflict")

	// Outbound mail failures are surfaced separately from validation so the
	// transport can report delivery problems distinctly.
	ErrorMailDelivery = errors.New("mail delivery failed")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")

	// Token lifecycle errors.
	ErrTokenExpired      = errors.New("token expired")
	ErrOTPExpired        = errors.New("otp expired")
	ErrResetTokenExpired = errors.New("reset token expired")
)
