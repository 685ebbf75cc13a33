// Package server wires configuration, storage, services and the HTTP
// transport into a runnable application.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/quizdeck/internal/common"
	"github.com/dmitrijs2005/quizdeck/internal/logging"
	"github.com/dmitrijs2005/quizdeck/internal/server/access"
	"github.com/dmitrijs2005/quizdeck/internal/server/auth"
	"github.com/dmitrijs2005/quizdeck/internal/server/config"
	"github.com/dmitrijs2005/quizdeck/internal/server/metrics"
	"github.com/dmitrijs2005/quizdeck/internal/server/models"
	"github.com/dmitrijs2005/quizdeck/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/quizdeck/internal/server/rest"
	"github.com/dmitrijs2005/quizdeck/internal/server/services"
)

const (
	shutdownTimeout   = 10 * time.Second
	readHeaderTimeout = 10 * time.Second
)

type options struct {
	inMemory  bool
	logOutput io.Writer
	hasher    auth.PasswordHasher
}

// Option customizes NewApp.
type Option func(*options)

// WithInMemoryStore keeps all state in process memory instead of PostgreSQL.
// Data is lost on exit.
func WithInMemoryStore() Option {
	return func(o *options) { o.inMemory = true }
}

// WithLogOutput redirects the application log (stderr by default).
func WithLogOutput(w io.Writer) Option {
	return func(o *options) { o.logOutput = w }
}

// WithPasswordHasher replaces the default argon2id hasher.
func WithPasswordHasher(h auth.PasswordHasher) Option {
	return func(o *options) { o.hasher = h }
}

type App struct {
	config         *config.Config
	logger         logging.Logger
	db             *sql.DB
	users          *services.UserService
	metrics        *metrics.Metrics
	handler        http.Handler
	metricsHandler http.Handler
}

// NewApp validates c and builds every component of the server. Invalid
// settings fail with common.ErrConfiguration before anything is opened.
func NewApp(ctx context.Context, c *config.Config, opts ...Option) (*App, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	level, err := logging.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrConfiguration, err)
	}
	logger := logging.New(level, c.LogFormat, o.logOutput)

	tokens, err := auth.NewTokenService(c.SecretKey, c.SigningAlgorithm)
	if err != nil {
		return nil, err
	}

	var (
		db      *sql.DB
		manager repomanager.RepositoryManager
	)
	if o.inMemory {
		manager = repomanager.NewInMemoryRepositoryManager()
		logger.Warn(ctx, "using in-memory store, data will not survive a restart")
	} else {
		db, err = OpenDB(ctx, c.DatabaseDSN)
		if err != nil {
			return nil, err
		}
		manager = repomanager.NewPostgresRepositoryManager()
		if err := manager.RunMigrations(ctx, db); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("db migration error: %w", err)
		}
	}

	hasher := o.hasher
	if hasher == nil {
		hasher = auth.NewArgon2idHasher()
	}

	users, err := services.NewUserService(db, manager, hasher, tokens, c, logger.With("module", "users"))
	if err != nil {
		closeDB(db)
		return nil, err
	}

	deps := access.GuardDependencies{Tokens: tokens, Identities: users, Revocations: users}
	userGuard, err := access.NewRoleGuard(deps, models.RoleAdmin, models.RoleUser)
	if err != nil {
		closeDB(db)
		return nil, err
	}
	adminGuard, err := access.NewRoleGuard(deps, models.RoleAdmin)
	if err != nil {
		closeDB(db)
		return nil, err
	}

	m := metrics.New()
	corsOpts := rest.DefaultCORSOptions(c.AllowedOrigins)

	handler := rest.NewRouter(rest.RouterOptions{
		Users:       users,
		UserGuard:   userGuard,
		AdminGuard:  adminGuard,
		Logger:      logger.With("module", "http"),
		Metrics:     m,
		CORSOptions: &corsOpts,
	})

	return &App{
		config:         c,
		logger:         logger,
		db:             db,
		users:          users,
		metrics:        m,
		handler:        handler,
		metricsHandler: rest.NewMetricsRouter(m),
	}, nil
}

// OpenDB opens a pgx-backed *sql.DB and checks the connection.
func OpenDB(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping error: %w", err)
	}
	return db, nil
}

func closeDB(db *sql.DB) {
	if db != nil {
		_ = db.Close()
	}
}

// Run listens on the configured addresses and serves until ctx is cancelled
// or the process receives SIGINT, SIGTERM or SIGQUIT.
func (app *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	api, err := net.Listen("tcp", app.config.EndpointAddrHTTP)
	if err != nil {
		closeDB(app.db)
		return fmt.Errorf("listen %s: %w", app.config.EndpointAddrHTTP, err)
	}

	var metricsLn net.Listener
	if app.config.MetricsAddr != "" {
		metricsLn, err = net.Listen("tcp", app.config.MetricsAddr)
		if err != nil {
			_ = api.Close()
			closeDB(app.db)
			return fmt.Errorf("listen %s: %w", app.config.MetricsAddr, err)
		}
	}
	return app.Serve(ctx, api, metricsLn)
}

// Serve runs the API on api, Prometheus metrics on metricsLn (skipped when
// nil) and the denylist cleanup until ctx is done, then shuts everything
// down and closes the database.
func (app *App) Serve(ctx context.Context, api, metricsLn net.Listener) error {
	defer closeDB(app.db)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	servers := []*http.Server{{Handler: app.handler, ReadHeaderTimeout: readHeaderTimeout}}
	listeners := []net.Listener{api}
	if metricsLn != nil {
		servers = append(servers, &http.Server{Handler: app.metricsHandler, ReadHeaderTimeout: readHeaderTimeout})
		listeners = append(listeners, metricsLn)
	}

	var wg sync.WaitGroup
	serveErr := make(chan error, len(servers))

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.purgeRevokedLoop(ctx)
	}()

	for i, srv := range servers {
		srv := srv
		ln := listeners[i]
		wg.Add(1)
		go func() {
			defer wg.Done()
			app.logger.Info(ctx, "Starting HTTP server", "address", ln.Addr().String())
			if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
				serveErr <- err
				cancel()
			}
		}()
	}

	<-ctx.Done()
	app.logger.Info(ctx, "Stopping HTTP servers...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()

	var shutdownErr error
	for _, srv := range servers {
		shutdownErr = errors.Join(shutdownErr, srv.Shutdown(shutdownCtx))
	}

	wg.Wait()

	select {
	case e := <-serveErr:
		return e
	default:
	}
	return shutdownErr
}

func (app *App) purgeRevokedLoop(ctx context.Context) {
	ticker := time.NewTicker(app.config.RevocationCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			app.purgeRevoked(ctx)
		}
	}
}

func (app *App) purgeRevoked(ctx context.Context) {
	n, err := app.users.PurgeRevoked(ctx)
	if err != nil {
		if ctx.Err() == nil {
			app.logger.Error(ctx, "purging revoked tokens failed", "error", err)
		}
		return
	}
	app.metrics.RevokedPurged(n)
	if n > 0 {
		app.logger.Debug(ctx, "purged revoked tokens", "count", n)
	}
}
