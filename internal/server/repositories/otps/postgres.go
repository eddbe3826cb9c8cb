// Package otps provides a PostgreSQL-backed repository for one-time email
// verification codes.
package otps

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/burblyhq/burbly/internal/common"
	"github.com/burblyhq/burbly/internal/dbx"
	"github.com/burblyhq/burbly/internal/server/models"
)

// PostgresRepository implements Repository over dbx.DBTX (satisfied by
// *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Upsert relies on the user_id primary key so concurrent resends converge
// on a single live code.
func (r *PostgresRepository) Upsert(ctx context.Context, userID string, code string, validity time.Duration) error {
	query := `
		INSERT INTO otps (user_id, code, expires_at, consumed)
		VALUES ($1, $2, $3, false)
		ON CONFLICT (user_id) DO UPDATE
		SET code = EXCLUDED.code, expires_at = EXCLUDED.expires_at, consumed = false, updated_at = now()
	`
	if _, err := r.db.ExecContext(ctx, query, userID, code, time.Now().Add(validity)); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Find(ctx context.Context, userID string) (*models.OTP, error) {
	query := `
		SELECT user_id, code, expires_at, consumed
		FROM otps
		WHERE user_id = $1
	`
	otp := &models.OTP{}
	err := r.db.QueryRowContext(ctx, query, userID).
		Scan(&otp.UserID, &otp.Code, &otp.ExpiresAt, &otp.Consumed)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return otp, nil
}

func (r *PostgresRepository) DeleteAllForUser(ctx context.Context, userID string) error {
	query := `DELETE FROM otps WHERE user_id = $1`
	if _, err := r.db.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
