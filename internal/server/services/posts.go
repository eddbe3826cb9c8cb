// This file implements PostService: the public post catalogue, authoring
// operations with ownership checks, and the cached published listing.
package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/burblyhq/burbly/internal/common"
	"github.com/burblyhq/burbly/internal/logging"
	"github.com/burblyhq/burbly/internal/server/cache"
	"github.com/burblyhq/burbly/internal/server/models"
	"github.com/burblyhq/burbly/internal/server/repositories/posts"
	"github.com/burblyhq/burbly/internal/server/repositories/repomanager"
)

// listCacheTTL bounds staleness of the cached published listing. Writers
// never invalidate; readers tolerate a listing this old.
const listCacheTTL = 30 * time.Second

// Pagination echoes the page window of a listing response.
type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int   `json:"pages"`
}

func makePagination(page, limit int, total int64) Pagination {
	pages := int((total + int64(limit) - 1) / int64(limit))
	return Pagination{Page: page, Limit: limit, Total: total, Pages: pages}
}

// ListQuery narrows the public post listing.
type ListQuery struct {
	Search   string
	Tag      string
	AuthorID string
	Page     int
	Limit    int
}

// PostInput carries the author-supplied fields of a create request.
type PostInput struct {
	Title       string
	Content     string
	Tags        string
	IsPublished bool
}

// PostPatch carries a partial update; nil fields are left untouched.
type PostPatch struct {
	Title       *string
	Content     *string
	Tags        *string
	IsPublished *bool
}

// PostService provides post listing and authoring operations.
type PostService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	cache       cache.Cache
	logger      logging.Logger
}

// NewPostService constructs a PostService. cache absorbs repeated reads
// of the published listing; pass cache.Noop to disable.
func NewPostService(db *sql.DB, m repomanager.RepositoryManager, c cache.Cache, logger logging.Logger) *PostService {
	return &PostService{db: db, repomanager: m, cache: c, logger: logger}
}

type cachedListing struct {
	Posts []*models.Post `json:"posts"`
	Total int64          `json:"total"`
}

func listCacheKey(q ListQuery) string {
	return fmt.Sprintf("posts:list:p=%d:l=%d:s=%s:t=%s:a=%s",
		q.Page, q.Limit, q.Search, q.Tag, q.AuthorID)
}

// ListPublished returns a page of published posts, via the read-through
// cache. Cache failures degrade to direct reads.
func (s *PostService) ListPublished(ctx context.Context, q ListQuery) ([]*models.Post, Pagination, error) {
	q = normalizeQuery(q)
	key := listCacheKey(q)

	if raw, ok, err := s.cache.Get(ctx, key); err != nil {
		s.logger.Warn(ctx, "post list cache read failed", "error", err)
	} else if ok {
		var cached cachedListing
		if err := json.Unmarshal(raw, &cached); err == nil {
			return cached.Posts, makePagination(q.Page, q.Limit, cached.Total), nil
		}
	}

	result, total, err := s.repomanager.Posts(s.db).List(ctx, posts.ListFilter{
		Search:        q.Search,
		Tag:           q.Tag,
		AuthorID:      q.AuthorID,
		OnlyPublished: true,
		Page:          q.Page,
		Limit:         q.Limit,
	})
	if err != nil {
		return nil, Pagination{}, common.ErrorInternal
	}

	if raw, err := json.Marshal(cachedListing{Posts: result, Total: total}); err == nil {
		if err := s.cache.Set(ctx, key, raw, listCacheTTL); err != nil {
			s.logger.Warn(ctx, "post list cache write failed", "error", err)
		}
	}
	return result, makePagination(q.Page, q.Limit, total), nil
}

func normalizeQuery(q ListQuery) ListQuery {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = 10
	}
	return q
}

// GetPost returns a single post and counts the view. Unpublished posts
// are visible to their author only.
func (s *PostService) GetPost(ctx context.Context, id string, viewer *models.User) (*models.Post, error) {
	repo := s.repomanager.Posts(s.db)
	post, err := repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, fmt.Errorf("%w: post not found", common.ErrorNotFound)
		}
		return nil, common.ErrorInternal
	}
	if !post.IsPublished && (viewer == nil || viewer.ID != post.AuthorID) {
		return nil, fmt.Errorf("%w: access denied", common.ErrorForbidden)
	}
	if err := repo.IncrementViews(ctx, id); err != nil {
		s.logger.Warn(ctx, "view count increment failed", "post", id, "error", err)
	}
	return post, nil
}

// CreatePost stores a new post for author.
func (s *PostService) CreatePost(ctx context.Context, authorID string, input PostInput) (*models.Post, error) {
	title := strings.TrimSpace(input.Title)
	content := strings.TrimSpace(input.Content)
	if title == "" || content == "" {
		return nil, fmt.Errorf("%w: title and content are required", common.ErrorValidation)
	}

	post, err := s.repomanager.Posts(s.db).Create(ctx, posts.CreateParams{
		AuthorID:    authorID,
		Title:       title,
		Content:     content,
		Tags:        strings.TrimSpace(input.Tags),
		IsPublished: input.IsPublished,
	})
	if err != nil {
		return nil, common.ErrorInternal
	}
	return post, nil
}

func (s *PostService) requireOwnership(ctx context.Context, actor *models.User, id string) error {
	post, err := s.repomanager.Posts(s.db).Get(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return fmt.Errorf("%w: post not found", common.ErrorNotFound)
		}
		return common.ErrorInternal
	}
	if post.AuthorID != actor.ID && !actor.IsAdmin() {
		return fmt.Errorf("%w: access denied", common.ErrorForbidden)
	}
	return nil
}

// UpdatePost applies a partial update; author or admin only.
func (s *PostService) UpdatePost(ctx context.Context, actor *models.User, id string, patch PostPatch) (*models.Post, error) {
	if err := s.requireOwnership(ctx, actor, id); err != nil {
		return nil, err
	}

	params := posts.UpdateParams{IsPublished: patch.IsPublished}
	if patch.Title != nil {
		t := strings.TrimSpace(*patch.Title)
		params.Title = &t
	}
	if patch.Content != nil {
		c := strings.TrimSpace(*patch.Content)
		params.Content = &c
	}
	if patch.Tags != nil {
		tg := strings.TrimSpace(*patch.Tags)
		params.Tags = &tg
	}

	post, err := s.repomanager.Posts(s.db).Update(ctx, id, params)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrorValidation):
			return nil, fmt.Errorf("%w: no fields to update", common.ErrorValidation)
		case errors.Is(err, common.ErrorNotFound):
			return nil, fmt.Errorf("%w: post not found", common.ErrorNotFound)
		}
		return nil, common.ErrorInternal
	}
	return post, nil
}

// DeletePost removes a post and its comments; author or admin only.
func (s *PostService) DeletePost(ctx context.Context, actor *models.User, id string) error {
	if err := s.requireOwnership(ctx, actor, id); err != nil {
		return err
	}
	if err := s.repomanager.Posts(s.db).Delete(ctx, id); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return fmt.Errorf("%w: post not found", common.ErrorNotFound)
		}
		return common.ErrorInternal
	}
	return nil
}

// LikePost bumps the like counter and returns the new count.
func (s *PostService) LikePost(ctx context.Context, id string) (int64, error) {
	likes, err := s.repomanager.Posts(s.db).IncrementLikes(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return 0, fmt.Errorf("%w: post not found", common.ErrorNotFound)
		}
		return 0, common.ErrorInternal
	}
	return likes, nil
}

// ListMine returns the author's own posts, drafts included.
func (s *PostService) ListMine(ctx context.Context, authorID string, page, limit int) ([]*models.Post, Pagination, error) {
	q := normalizeQuery(ListQuery{Page: page, Limit: limit})
	result, total, err := s.repomanager.Posts(s.db).List(ctx, posts.ListFilter{
		AuthorID: authorID,
		Page:     q.Page,
		Limit:    q.Limit,
	})
	if err != nil {
		return nil, Pagination{}, common.ErrorInternal
	}
	return result, makePagination(q.Page, q.Limit, total), nil
}

// ListByUser returns another user's published posts.
func (s *PostService) ListByUser(ctx context.Context, authorID string, page, limit int) ([]*models.Post, Pagination, error) {
	q := normalizeQuery(ListQuery{Page: page, Limit: limit})
	result, total, err := s.repomanager.Posts(s.db).List(ctx, posts.ListFilter{
		AuthorID:      authorID,
		OnlyPublished: true,
		Page:          q.Page,
		Limit:         q.Limit,
	})
	if err != nil {
		return nil, Pagination{}, common.ErrorInternal
	}
	return result, makePagination(q.Page, q.Limit, total), nil
}
