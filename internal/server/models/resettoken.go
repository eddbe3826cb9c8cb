package models

import "time"

// ResetToken is the one-per-email opaque secret enabling password reset.
// Identifier is the email address; only one outstanding token per email.
type ResetToken struct {
	Identifier string
	Token      string
	ExpiresAt  time.Time
}
