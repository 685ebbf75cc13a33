package cli

import (
	"context"
	"io"
	"os"

	"github.com/dmitrijs2005/quizdeck/internal/logging"
	"github.com/dmitrijs2005/quizdeck/internal/server"
	"github.com/dmitrijs2005/quizdeck/internal/server/auth"
	"github.com/dmitrijs2005/quizdeck/internal/server/config"
	"github.com/dmitrijs2005/quizdeck/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/quizdeck/internal/server/services"
)

// PostgresBackend runs the commands against the database in cfg.DatabaseDSN.
func PostgresBackend() Backend {
	return Backend{Open: openPostgres, Migrate: migratePostgres}
}

func openPostgres(ctx context.Context, cfg *config.Config) (Admin, io.Closer, error) {
	db, err := server.OpenDB(ctx, cfg.DatabaseDSN)
	if err != nil {
		return nil, nil, err
	}

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	logger := logging.New(level, cfg.LogFormat, os.Stderr).With("module", "quizadmin")

	// no tokens are issued from here
	users, err := services.NewUserService(db, repomanager.NewPostgresRepositoryManager(),
		auth.NewArgon2idHasher(), nil, cfg, logger)
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return users, db, nil
}

func migratePostgres(ctx context.Context, cfg *config.Config) error {
	db, err := server.OpenDB(ctx, cfg.DatabaseDSN)
	if err != nil {
		return err
	}
	defer db.Close()

	return repomanager.NewPostgresRepositoryManager().RunMigrations(ctx, db)
}
