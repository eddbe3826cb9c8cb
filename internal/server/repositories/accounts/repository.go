package accounts

import (
	"context"

	"github.com/burblyhq/burbly/internal/server/models"
)

type Repository interface {
	// Link records the (provider, providerAccountID) pair for userID. The
	// call is idempotent: an existing identical link is left untouched.
	Link(ctx context.Context, userID, provider, providerAccountID string) error
	// ListForUser returns the provider links owned by userID.
	ListForUser(ctx context.Context, userID string) ([]*models.Account, error)
}
