package repomanager

import (
	"context"
	"database/sql"

	"github.com/talonmd/socialgraph/internal/dbx"
	"github.com/talonmd/socialgraph/internal/server/repositories/follows"
	"github.com/talonmd/socialgraph/internal/server/repositories/users"
)

// RepositoryManager vends repository implementations bound to a DBTX so
// services can run several repository calls inside one transaction, and
// exposes a schema migration hook.
type RepositoryManager interface {
	RunMigrations(ctx context.Context, db *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Follows(db dbx.DBTX) follows.Repository
}
