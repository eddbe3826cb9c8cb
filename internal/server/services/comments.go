// This file implements CommentService: comment threads on published
// posts with a single level of replies.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/burblyhq/burbly/internal/common"
	"github.com/burblyhq/burbly/internal/server/models"
	"github.com/burblyhq/burbly/internal/server/repositories/comments"
	"github.com/burblyhq/burbly/internal/server/repositories/repomanager"
)

// CommentInput carries the fields of a create request; ParentID is empty
// for top-level comments.
type CommentInput struct {
	PostID   string
	ParentID string
	Content  string
}

// CommentService provides comment threads and authoring operations.
type CommentService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

// NewCommentService constructs a CommentService.
func NewCommentService(db *sql.DB, m repomanager.RepositoryManager) *CommentService {
	return &CommentService{db: db, repomanager: m}
}

func (s *CommentService) requirePublishedPost(ctx context.Context, postID, deniedDetail string) error {
	post, err := s.repomanager.Posts(s.db).Get(ctx, postID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return fmt.Errorf("%w: post not found", common.ErrorNotFound)
		}
		return common.ErrorInternal
	}
	if !post.IsPublished {
		return fmt.Errorf("%w: %s", common.ErrorForbidden, deniedDetail)
	}
	return nil
}

// ListForPost returns a page of a published post's top-level comments.
func (s *CommentService) ListForPost(ctx context.Context, postID string, page, limit int) ([]*models.Comment, Pagination, error) {
	if err := s.requirePublishedPost(ctx, postID, "post is not published"); err != nil {
		return nil, Pagination{}, err
	}

	p := normalizePage(page, limit, 20)
	result, total, err := s.repomanager.Comments(s.db).ListForPost(ctx, postID, p)
	if err != nil {
		return nil, Pagination{}, common.ErrorInternal
	}
	return result, makePagination(p.Page, p.Limit, total), nil
}

// ListReplies returns a page of a comment's replies, oldest first.
func (s *CommentService) ListReplies(ctx context.Context, commentID string, page, limit int) ([]*models.Comment, Pagination, error) {
	p := normalizePage(page, limit, 10)
	result, total, err := s.repomanager.Comments(s.db).ListReplies(ctx, commentID, p)
	if err != nil {
		return nil, Pagination{}, common.ErrorInternal
	}
	return result, makePagination(p.Page, p.Limit, total), nil
}

// Create posts a comment or reply. The post must be published; a reply's
// parent must belong to the same post.
func (s *CommentService) Create(ctx context.Context, authorID string, input CommentInput) (*models.Comment, error) {
	content := strings.TrimSpace(input.Content)
	if content == "" || input.PostID == "" {
		return nil, fmt.Errorf("%w: content and postId are required", common.ErrorValidation)
	}
	if err := s.requirePublishedPost(ctx, input.PostID, "cannot comment on unpublished post"); err != nil {
		return nil, err
	}

	var parentID *string
	if input.ParentID != "" {
		parent, err := s.repomanager.Comments(s.db).Get(ctx, input.ParentID)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return nil, fmt.Errorf("%w: parent comment not found", common.ErrorNotFound)
			}
			return nil, common.ErrorInternal
		}
		if parent.PostID != input.PostID {
			return nil, fmt.Errorf("%w: parent comment does not belong to this post", common.ErrorValidation)
		}
		parentID = &parent.ID
	}

	comment, err := s.repomanager.Comments(s.db).Create(ctx, comments.CreateParams{
		PostID:   input.PostID,
		AuthorID: authorID,
		ParentID: parentID,
		Content:  content,
	})
	if err != nil {
		return nil, common.ErrorInternal
	}
	return comment, nil
}

func (s *CommentService) requireAuthor(ctx context.Context, actorID, id string) error {
	comment, err := s.repomanager.Comments(s.db).Get(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return fmt.Errorf("%w: comment not found", common.ErrorNotFound)
		}
		return common.ErrorInternal
	}
	if comment.AuthorID != actorID {
		return fmt.Errorf("%w: access denied", common.ErrorForbidden)
	}
	return nil
}

// Update replaces the comment body; author only.
func (s *CommentService) Update(ctx context.Context, actorID, id, content string) (*models.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("%w: content is required", common.ErrorValidation)
	}
	if err := s.requireAuthor(ctx, actorID, id); err != nil {
		return nil, err
	}

	comment, err := s.repomanager.Comments(s.db).Update(ctx, id, content)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, fmt.Errorf("%w: comment not found", common.ErrorNotFound)
		}
		return nil, common.ErrorInternal
	}
	return comment, nil
}

// Delete removes a comment and its direct replies; author only.
func (s *CommentService) Delete(ctx context.Context, actorID, id string) error {
	if err := s.requireAuthor(ctx, actorID, id); err != nil {
		return err
	}
	if err := s.repomanager.Comments(s.db).DeleteWithReplies(ctx, id); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return fmt.Errorf("%w: comment not found", common.ErrorNotFound)
		}
		return common.ErrorInternal
	}
	return nil
}

// Like bumps the like counter and returns the new count.
func (s *CommentService) Like(ctx context.Context, id string) (int64, error) {
	likes, err := s.repomanager.Comments(s.db).IncrementLikes(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return 0, fmt.Errorf("%w: comment not found", common.ErrorNotFound)
		}
		return 0, common.ErrorInternal
	}
	return likes, nil
}

// ListMine returns the user's own comments with shallow post references.
func (s *CommentService) ListMine(ctx context.Context, authorID string, page, limit int) ([]*models.Comment, Pagination, error) {
	p := normalizePage(page, limit, 20)
	result, total, err := s.repomanager.Comments(s.db).ListForAuthor(ctx, authorID, p)
	if err != nil {
		return nil, Pagination{}, common.ErrorInternal
	}
	return result, makePagination(p.Page, p.Limit, total), nil
}

func normalizePage(page, limit, defaultLimit int) comments.Page {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultLimit
	}
	return comments.Page{Page: page, Limit: limit}
}
