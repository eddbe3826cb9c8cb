package models

import "time"

// OTP is the one-per-user ephemeral email verification code. The row is
// upserted on resend and removed once verification succeeds.
type OTP struct {
	UserID    string
	Code      string
	ExpiresAt time.Time
	Consumed  bool
}
