// Package comments provides a PostgreSQL-backed repository for post
// comments and their single level of replies.
package comments

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/burblyhq/burbly/internal/common"
	"github.com/burblyhq/burbly/internal/dbx"
	"github.com/burblyhq/burbly/internal/server/models"
)

const commentColumns = `c.id, c.post_id, c.author_id, c.parent_id, c.content, c.likes, c.created_at, c.updated_at,
	u.id, u.email, u.profile_picture, u.role, u.is_verified`

const commentFrom = ` FROM comments c JOIN users u ON u.id = c.author_id`

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

func scanComment(row rowScanner, extra ...any) (*models.Comment, error) {
	comment := &models.Comment{Author: &models.PublicUser{}}
	var parentID, picture sql.NullString
	dest := []any{
		&comment.ID, &comment.PostID, &comment.AuthorID, &parentID,
		&comment.Content, &comment.Likes, &comment.CreatedAt, &comment.UpdatedAt,
		&comment.Author.ID, &comment.Author.Email, &picture,
		&comment.Author.Role, &comment.Author.IsVerified,
	}
	dest = append(dest, extra...)
	if err := row.Scan(dest...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	if parentID.Valid {
		comment.ParentID = &parentID.String
	}
	if picture.Valid {
		comment.Author.ProfilePicture = &picture.String
	}
	return comment, nil
}

func pageArgs(page Page) (limit, offset int) {
	p := page.Page
	if p < 1 {
		p = 1
	}
	return page.Limit, (p - 1) * page.Limit
}

func (r *PostgresRepository) ListForPost(ctx context.Context, postID string, page Page) ([]*models.Comment, int64, error) {
	var total int64
	countQuery := `SELECT count(*) FROM comments WHERE post_id = $1 AND parent_id IS NULL`
	if err := r.db.QueryRowContext(ctx, countQuery, postID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("db error: %w", err)
	}

	query := `
		SELECT ` + commentColumns + `,
			(SELECT count(*) FROM comments rc WHERE rc.parent_id = c.id) AS reply_count
		` + commentFrom + `
		WHERE c.post_id = $1 AND c.parent_id IS NULL
		ORDER BY c.created_at DESC
		LIMIT $2 OFFSET $3
	`
	limit, offset := pageArgs(page)
	rows, err := r.db.QueryContext(ctx, query, postID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Comment
	for rows.Next() {
		var replies int64
		comment, err := scanComment(rows, &replies)
		if err != nil {
			return nil, 0, err
		}
		comment.ReplyCount = replies
		result = append(result, comment)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("db error: %w", err)
	}
	return result, total, nil
}

func (r *PostgresRepository) ListReplies(ctx context.Context, parentID string, page Page) ([]*models.Comment, int64, error) {
	var total int64
	countQuery := `SELECT count(*) FROM comments WHERE parent_id = $1`
	if err := r.db.QueryRowContext(ctx, countQuery, parentID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("db error: %w", err)
	}

	query := `
		SELECT ` + commentColumns + commentFrom + `
		WHERE c.parent_id = $1
		ORDER BY c.created_at ASC
		LIMIT $2 OFFSET $3
	`
	limit, offset := pageArgs(page)
	rows, err := r.db.QueryContext(ctx, query, parentID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Comment
	for rows.Next() {
		comment, err := scanComment(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, comment)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("db error: %w", err)
	}
	return result, total, nil
}

func (r *PostgresRepository) ListForAuthor(ctx context.Context, authorID string, page Page) ([]*models.Comment, int64, error) {
	var total int64
	countQuery := `SELECT count(*) FROM comments WHERE author_id = $1`
	if err := r.db.QueryRowContext(ctx, countQuery, authorID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("db error: %w", err)
	}

	query := `
		SELECT ` + commentColumns + `, p.id, p.title, p.is_published
		` + commentFrom + `
		JOIN posts p ON p.id = c.post_id
		WHERE c.author_id = $1
		ORDER BY c.created_at DESC
		LIMIT $2 OFFSET $3
	`
	limit, offset := pageArgs(page)
	rows, err := r.db.QueryContext(ctx, query, authorID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Comment
	for rows.Next() {
		ref := &models.PostRef{}
		comment, err := scanComment(rows, &ref.ID, &ref.Title, &ref.IsPublished)
		if err != nil {
			return nil, 0, err
		}
		comment.Post = ref
		result = append(result, comment)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("db error: %w", err)
	}
	return result, total, nil
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (*models.Comment, error) {
	query := `SELECT ` + commentColumns + commentFrom + ` WHERE c.id = $1`
	return scanComment(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresRepository) Create(ctx context.Context, params CreateParams) (*models.Comment, error) {
	query := `
		WITH inserted AS (
			INSERT INTO comments (post_id, author_id, parent_id, content)
			VALUES ($1, $2, $3, $4)
			RETURNING *
		)
		SELECT c.id, c.post_id, c.author_id, c.parent_id, c.content, c.likes, c.created_at, c.updated_at,
			u.id, u.email, u.profile_picture, u.role, u.is_verified
		FROM inserted c JOIN users u ON u.id = c.author_id
	`
	return scanComment(r.db.QueryRowContext(ctx, query,
		params.PostID, params.AuthorID, params.ParentID, params.Content))
}

func (r *PostgresRepository) Update(ctx context.Context, id string, content string) (*models.Comment, error) {
	query := `
		WITH updated AS (
			UPDATE comments SET content = $2, updated_at = now() WHERE id = $1
			RETURNING *
		)
		SELECT c.id, c.post_id, c.author_id, c.parent_id, c.content, c.likes, c.created_at, c.updated_at,
			u.id, u.email, u.profile_picture, u.role, u.is_verified
		FROM updated c JOIN users u ON u.id = c.author_id
	`
	return scanComment(r.db.QueryRowContext(ctx, query, id, content))
}

func (r *PostgresRepository) DeleteWithReplies(ctx context.Context, id string) error {
	query := `DELETE FROM comments WHERE id = $1 OR parent_id = $1`
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

func (r *PostgresRepository) IncrementLikes(ctx context.Context, id string) (int64, error) {
	query := `UPDATE comments SET likes = likes + 1 WHERE id = $1 RETURNING likes`
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
