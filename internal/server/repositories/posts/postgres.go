// Package posts provides a PostgreSQL-backed repository for authored
// posts, including filtered listing with author projections and comment
// counts.
package posts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/burblyhq/burbly/internal/common"
	"github.com/burblyhq/burbly/internal/dbx"
	"github.com/burblyhq/burbly/internal/server/models"
)

const postColumns = `p.id, p.author_id, p.title, p.content, p.tags, p.is_published, p.views, p.likes, p.created_at, p.updated_at,
	u.id, u.email, u.profile_picture, u.role, u.is_verified,
	(SELECT count(*) FROM comments c WHERE c.post_id = p.id) AS comment_count`

const postFrom = ` FROM posts p JOIN users u ON u.id = p.author_id`

// PostgresRepository implements Repository over dbx.DBTX (satisfied by
// *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(row rowScanner) (*models.Post, error) {
	post := &models.Post{Author: &models.PublicUser{}}
	var picture sql.NullString
	err := row.Scan(&post.ID, &post.AuthorID, &post.Title, &post.Content,
		&post.Tags, &post.IsPublished, &post.Views, &post.Likes,
		&post.CreatedAt, &post.UpdatedAt,
		&post.Author.ID, &post.Author.Email, &picture, &post.Author.Role,
		&post.Author.IsVerified, &post.CommentCount)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	if picture.Valid {
		post.Author.ProfilePicture = &picture.String
	}
	return post, nil
}

func buildWhere(filter ListFilter) (string, []any) {
	conds := make([]string, 0, 4)
	args := make([]any, 0, 4)

	add := func(cond string, value any) {
		args = append(args, value)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if filter.OnlyPublished {
		conds = append(conds, "p.is_published = true")
	}
	if filter.AuthorID != "" {
		add("p.author_id = $%d", filter.AuthorID)
	}
	if filter.Search != "" {
		// one placeholder serves both sides of the OR
		args = append(args, "%"+filter.Search+"%")
		conds = append(conds, fmt.Sprintf("(p.title ILIKE $%d OR p.content ILIKE $%d)", len(args), len(args)))
	}
	if filter.Tag != "" {
		add("p.tags ILIKE $%d", "%"+filter.Tag+"%")
	}
	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (r *PostgresRepository) List(ctx context.Context, filter ListFilter) ([]*models.Post, int64, error) {
	where, args := buildWhere(filter)

	var total int64
	countQuery := `SELECT count(*)` + postFrom + where
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("db error: %w", err)
	}

	limit := filter.Limit
	page := filter.Page
	if page < 1 {
		page = 1
	}
	args = append(args, limit, (page-1)*limit)
	query := `SELECT ` + postColumns + postFrom + where +
		fmt.Sprintf(" ORDER BY p.created_at DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Post
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, post)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("db error: %w", err)
	}
	return result, total, nil
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (*models.Post, error) {
	query := `SELECT ` + postColumns + postFrom + ` WHERE p.id = $1`
	return scanPost(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresRepository) Create(ctx context.Context, params CreateParams) (*models.Post, error) {
	query := `
		WITH inserted AS (
			INSERT INTO posts (author_id, title, content, tags, is_published)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING *
		)
		SELECT ` + strings.ReplaceAll(postColumns, "posts p", "inserted p") + `
		FROM inserted p JOIN users u ON u.id = p.author_id
	`
	return scanPost(r.db.QueryRowContext(ctx, query,
		params.AuthorID, params.Title, params.Content, params.Tags, params.IsPublished))
}

func (r *PostgresRepository) Update(ctx context.Context, id string, params UpdateParams) (*models.Post, error) {
	set := make([]string, 0, 4)
	args := []any{id}

	add := func(column string, value any) {
		args = append(args, value)
		set = append(set, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if params.Title != nil {
		add("title", *params.Title)
	}
	if params.Content != nil {
		add("content", *params.Content)
	}
	if params.Tags != nil {
		add("tags", *params.Tags)
	}
	if params.IsPublished != nil {
		add("is_published", *params.IsPublished)
	}
	if len(set) == 0 {
		return nil, fmt.Errorf("%w: no fields to update", common.ErrorValidation)
	}
	set = append(set, "updated_at = now()")

	query := `
		WITH updated AS (
			UPDATE posts SET ` + strings.Join(set, ", ") + ` WHERE id = $1
			RETURNING *
		)
		SELECT ` + strings.ReplaceAll(postColumns, "posts p", "updated p") + `
		FROM updated p JOIN users u ON u.id = p.author_id
	`
	return scanPost(r.db.QueryRowContext(ctx, query, args...))
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM posts WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if affected == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) IncrementViews(ctx context.Context, id string) error {
	query := `UPDATE posts SET views = views + 1 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) IncrementLikes(ctx context.Context, id string) (int64, error) {
	query := `UPDATE posts SET likes = likes + 1 WHERE id = $1 RETURNING likes`
	var likes int64
	err := r.db.QueryRowContext(ctx, query, id).Scan(&likes)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, common.ErrorNotFound
		}
		return 0, fmt.Errorf("db error: %w", err)
	}
	return likes, nil
}
