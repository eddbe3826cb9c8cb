package repomanager

import (
	"context"
	"database/sql"

	"github.com/burblyhq/burbly/internal/dbx"
	"github.com/burblyhq/burbly/internal/server/repositories/accounts"
	"github.com/burblyhq/burbly/internal/server/repositories/comments"
	"github.com/burblyhq/burbly/internal/server/repositories/otps"
	"github.com/burblyhq/burbly/internal/server/repositories/posts"
	"github.com/burblyhq/burbly/internal/server/repositories/resettokens"
	"github.com/burblyhq/burbly/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	OTPs(db dbx.DBTX) otps.Repository
	ResetTokens(db dbx.DBTX) resettokens.Repository
	Accounts(db dbx.DBTX) accounts.Repository
	Posts(db dbx.DBTX) posts.Repository
	Comments(db dbx.DBTX) comments.Repository
}
