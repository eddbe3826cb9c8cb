package users

import (
	"context"

	"github.com/burblyhq/burbly/internal/server/models"
)

// UpdateParams carries the optional fields of a profile update. Nil means
// "leave unchanged".
type UpdateParams struct {
	Email          *string
	ProfilePicture *string
	Role           *string
	PasswordHash   *string
}

type Repository interface {
	// CreateUnverified inserts an unverified user for email, or returns the
	// existing row when the email is already taken. The upsert makes
	// concurrent signups for the same email converge on one row.
	CreateUnverified(ctx context.Context, email string) (*models.User, error)
	// CreateVerified inserts a pre-verified user (Google sign-in), or
	// promotes and returns the existing row for the email.
	CreateVerified(ctx context.Context, email string, profilePicture *string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context) ([]*models.User, error)
	SetVerified(ctx context.Context, id string) error
	SetPasswordHash(ctx context.Context, id string, hash string) error
	Update(ctx context.Context, id string, params UpdateParams) (*models.User, error)
}
