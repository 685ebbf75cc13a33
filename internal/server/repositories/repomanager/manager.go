package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/quizdeck/internal/dbx"
	"github.com/dmitrijs2005/quizdeck/internal/server/repositories/revokedtokens"
	"github.com/dmitrijs2005/quizdeck/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to a DBTX (a pool or an open
// transaction) and owns schema migrations.
type RepositoryManager interface {
	RunMigrations(ctx context.Context, db *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	RevokedTokens(db dbx.DBTX) revokedtokens.Repository

	// WithTx runs fn as one unit of work against db.
	WithTx(ctx context.Context, db *sql.DB, fn func(ctx context.Context, tx dbx.DBTX) error) error
}
