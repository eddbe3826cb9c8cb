// Package users provides a PostgreSQL-backed repository for user identity
// records.
package users

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

const userColumns = `id, email, password_hash, is_verified, is_active, role, profile_picture, created_at, updated_at`

// PostgresRepository implements Repository over dbx.DBTX (satisfied by
// *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func scanUser(row *sql.Row) (*models.User, error) {
	user := &models.User{}
	var passwordHash, profilePicture sql.NullString
	err := row.Scan(&user.ID, &user.Email, &passwordHash, &user.IsVerified,
		&user.IsActive, &user.Role, &profilePicture, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	if passwordHash.Valid {
		user.PasswordHash = &passwordHash.String
	}
	if profilePicture.Valid {
		user.ProfilePicture = &profilePicture.String
	}
	return user, nil
}

func (r *PostgresRepository) CreateUnverified(ctx context.Context, email string) (*models.User, error) {
	// The no-op DO UPDATE makes RETURNING yield the row in both the insert
	// and the conflict case, so two racing signups see the same user id.
	query := `
		INSERT INTO users (email)
		VALUES ($1)
		ON CONFLICT (email) DO UPDATE SET email = EXCLUDED.email
		RETURNING ` + userColumns

	return scanUser(r.db.QueryRowContext(ctx, query, email))
}

func (r *PostgresRepository) CreateVerified(ctx context.Context, email string, profilePicture *string) (*models.User, error) {
	query := `
		INSERT INTO users (email, is_verified, profile_picture)
		VALUES ($1, true, $2)
		ON CONFLICT (email) DO UPDATE SET is_verified = true
		RETURNING ` + userColumns

	return scanUser(r.db.QueryRowContext(ctx, query, email, profilePicture))
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, email))
}

func (r *PostgresRepository) List(ctx context.Context) ([]*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.User
	for rows.Next() {
		user := &models.User{}
		var passwordHash, profilePicture sql.NullString
		if err := rows.Scan(&user.ID, &user.Email, &passwordHash, &user.IsVerified,
			&user.IsActive, &user.Role, &profilePicture, &user.CreatedAt, &user.UpdatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		if passwordHash.Valid {
			user.PasswordHash = &passwordHash.String
		}
		if profilePicture.Valid {
			user.ProfilePicture = &profilePicture.String
		}
		result = append(result, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) SetVerified(ctx context.Context, id string) error {
	query := `UPDATE users SET is_verified = true, updated_at = now() WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) SetPasswordHash(ctx context.Context, id string, hash string) error {
	query := `UPDATE users SET password_hash = $2, updated_at = now() WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, hash); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Update(ctx context.Context, id string, params UpdateParams) (*models.User, error) {
	set := make([]string, 0, 4)
	args := []any{id}

	add := func(column string, value any) {
		args = append(args, value)
		set = append(set, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if params.Email != nil {
		add("email", *params.Email)
	}
	if params.ProfilePicture != nil {
		add("profile_picture", *params.ProfilePicture)
	}
	if params.Role != nil {
		add("role", *params.Role)
	}
	if params.PasswordHash != nil {
		add("password_hash", *params.PasswordHash)
	}
	if len(set) == 0 {
		return nil, fmt.Errorf("%w: no fields to update", common.ErrorValidation)
	}
	set = append(set, "updated_at = now()")

	query := `UPDATE users SET ` + strings.Join(set, ", ") + ` WHERE id = $1 RETURNING ` + userColumns
	return scanUser(r.db.QueryRowContext(ctx, query, args...))
}
