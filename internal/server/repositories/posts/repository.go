package posts

import (
	"context"

	"github.com/burblyhq/burbly/internal/server/models"
)

// ListFilter narrows and pages a post listing. Zero values mean "no
// constraint"; Limit is applied as-is and must be set by the caller.
type ListFilter struct {
	Search        string
	Tag           string
	AuthorID      string
	OnlyPublished bool
	Page          int
	Limit         int
}

// CreateParams carries the author-supplied fields of a new post.
type CreateParams struct {
	AuthorID    string
	Title       string
	Content     string
	Tags        string
	IsPublished bool
}

// UpdateParams carries the mutable post fields; nil fields are left
// untouched.
type UpdateParams struct {
	Title       *string
	Content     *string
	Tags        *string
	IsPublished *bool
}

type Repository interface {
	// List returns the page of posts matching filter plus the total match
	// count, newest first. Rows carry the author projection and comment
	// count.
	List(ctx context.Context, filter ListFilter) ([]*models.Post, int64, error)
	// Get returns a single post with its author projection and comment
	// count, or common.ErrorNotFound.
	Get(ctx context.Context, id string) (*models.Post, error)
	// Create inserts a post and returns the stored row.
	Create(ctx context.Context, params CreateParams) (*models.Post, error)
	// Update applies the non-nil fields of params and returns the updated
	// row, or common.ErrorNotFound.
	Update(ctx context.Context, id string, params UpdateParams) (*models.Post, error)
	// Delete removes the post and, via cascade, its comments. Returns
	// common.ErrorNotFound when no row matches.
	Delete(ctx context.Context, id string) error
	// IncrementViews bumps the view counter. Missing rows are ignored.
	IncrementViews(ctx context.Context, id string) error
	// IncrementLikes bumps the like counter and returns the new count, or
	// common.ErrorNotFound.
	IncrementLikes(ctx context.Context, id string) (int64, error)
}
