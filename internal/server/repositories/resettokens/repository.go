package resettokens

import (
	"context"
	"time"

	"github.com/burblyhq/burbly/internal/server/models"
)

type Repository interface {
	// Upsert stores the reset token for identifier (email) with an expiry
	// of now+validity, replacing any outstanding token.
	Upsert(ctx context.Context, identifier string, token string, validity time.Duration) error
	// Find returns the token row for identifier or common.ErrorNotFound.
	Find(ctx context.Context, identifier string) (*models.ResetToken, error)
	// Delete removes the token row for identifier.
	Delete(ctx context.Context, identifier string) error
}
