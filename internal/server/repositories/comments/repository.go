package comments

import (
	"context"

	"github.com/burblyhq/burbly/internal/server/models"
)

// CreateParams carries the fields of a new comment; ParentID is nil for
// top-level comments.
type CreateParams struct {
	PostID   string
	AuthorID string
	ParentID *string
	Content  string
}

// Page selects a slice of a listing; Limit must be set by the caller.
type Page struct {
	Page  int
	Limit int
}

type Repository interface {
	// ListForPost returns a page of the top-level comments of a post plus
	// the total count, newest first. Rows carry the author projection and
	// reply count.
	ListForPost(ctx context.Context, postID string, page Page) ([]*models.Comment, int64, error)
	// ListReplies returns a page of the replies of a comment plus the
	// total count, oldest first.
	ListReplies(ctx context.Context, parentID string, page Page) ([]*models.Comment, int64, error)
	// ListForAuthor returns a page of the comments written by a user plus
	// the total count, newest first, each with a shallow projection of the
	// post it belongs to.
	ListForAuthor(ctx context.Context, authorID string, page Page) ([]*models.Comment, int64, error)
	// Get returns a single comment or common.ErrorNotFound.
	Get(ctx context.Context, id string) (*models.Comment, error)
	// Create inserts a comment and returns the stored row with its author
	// projection.
	Create(ctx context.Context, params CreateParams) (*models.Comment, error)
	// Update replaces the comment body and returns the updated row, or
	// common.ErrorNotFound.
	Update(ctx context.Context, id string, content string) (*models.Comment, error)
	// DeleteWithReplies removes the comment and any replies to it. Returns
	// common.ErrorNotFound when no row matches id.
	DeleteWithReplies(ctx context.Context, id string) error
	// IncrementLikes bumps the like counter and returns the new count, or
	// common.ErrorNotFound.
	IncrementLikes(ctx context.Context, id string) (int64, error)
}
