package otps

import (
	"context"
	"time"

	"github.com/burblyhq/burbly/internal/server/models"
)

type Repository interface {
	// Upsert stores the code for userID with an expiry of now+validity,
	// replacing any prior code. At most one live OTP exists per user.
	Upsert(ctx context.Context, userID string, code string, validity time.Duration) error
	// Find returns the user's OTP row or common.ErrorNotFound.
	Find(ctx context.Context, userID string) (*models.OTP, error)
	// DeleteAllForUser removes every OTP row belonging to userID.
	DeleteAllForUser(ctx context.Context, userID string) error
}
