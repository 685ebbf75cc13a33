package repomanager

import (
	"context"
	"database/sql"
	"sync"

	"github.com/dmitrijs2005/quizdeck/internal/dbx"
	"github.com/dmitrijs2005/quizdeck/internal/server/repositories/revokedtokens"
	"github.com/dmitrijs2005/quizdeck/internal/server/repositories/users"
)

// InMemoryRepositoryManager serves process-local repositories. The db
// arguments are ignored; WithTx serialises units of work with a mutex.
type InMemoryRepositoryManager struct {
	mu            sync.Mutex
	users         *users.MemoryRepository
	revokedTokens *revokedtokens.MemoryRepository
}

func NewInMemoryRepositoryManager() *InMemoryRepositoryManager {
	return &InMemoryRepositoryManager{
		users:         users.NewMemoryRepository(),
		revokedTokens: revokedtokens.NewMemoryRepository(),
	}
}

func (m *InMemoryRepositoryManager) RunMigrations(context.Context, *sql.DB) error {
	return nil
}

func (m *InMemoryRepositoryManager) Users(dbx.DBTX) users.Repository {
	return m.users
}

func (m *InMemoryRepositoryManager) RevokedTokens(dbx.DBTX) revokedtokens.Repository {
	return m.revokedTokens
}

func (m *InMemoryRepositoryManager) WithTx(ctx context.Context, _ *sql.DB, fn func(ctx context.Context, tx dbx.DBTX) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn(ctx, nil)
}
