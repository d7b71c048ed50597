// Package server wires the todo service together: storage, token
// verification, attachment linking and the HTTP and gRPC endpoints.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/dmitrijs2005/todos/internal/logging"
	"github.com/dmitrijs2005/todos/internal/server/attachments"
	"github.com/dmitrijs2005/todos/internal/server/auth"
	"github.com/dmitrijs2005/todos/internal/server/config"
	"github.com/dmitrijs2005/todos/internal/server/httpapi"
	"github.com/dmitrijs2005/todos/internal/server/pagination"
	"github.com/dmitrijs2005/todos/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/todos/internal/server/services"

	gs "github.com/dmitrijs2005/todos/internal/server/grpc"
)

// MemoryDSN selects the process-local store instead of PostgreSQL.
const MemoryDSN = "memory://"

type App struct {
	config      *config.Config
	logger      logging.Logger
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	keys        *auth.KeySet
	authorizer  *auth.Authorizer
	todoService *services.TodoService
}

// OpenStore returns the repository manager for cfg.DatabaseDSN and, for
// PostgreSQL, the open connection. The caller owns the connection.
func OpenStore(ctx context.Context, cfg *config.Config) (*sql.DB, repomanager.RepositoryManager, error) {
	if strings.HasPrefix(cfg.DatabaseDSN, MemoryDSN) {
		return nil, repomanager.NewMemoryRepositoryManager(), nil
	}
	db, err := repomanager.Open(ctx, cfg.DatabaseDSN)
	if err != nil {
		return nil, nil, err
	}
	return db, repomanager.NewPostgresRepositoryManager(), nil
}

func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	db, rm, err := OpenStore(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	if err := rm.RunMigrations(ctx, db); err != nil {
		closeDB(db)
		return nil, fmt.Errorf("migration error: %w", err)
	}

	keys := auth.NewKeySet(c.JWKSURL,
		auth.WithHTTPClient(&http.Client{Timeout: c.JWKSFetchTimeout}),
		auth.WithTTL(c.JWKSRefreshInterval),
		auth.WithKeySetLogger(logger),
	)
	verifier := auth.NewVerifier(keys,
		auth.WithAlgorithm(c.JWTAlgorithm),
		auth.WithIssuer(c.JWTIssuer),
		auth.WithAudience(c.JWTAudience),
		auth.WithLeeway(c.JWTLeeway),
	)

	codec := pagination.NewCodec([]byte(c.CursorSecret))
	if c.CursorSecret == "" {
		logger.Warn(ctx, "cursor secret not set, cursors will not survive a restart")
	}

	ts := services.NewTodoService(db, rm, codec, attachments.NewLinker(c), c, logger)

	return &App{
		config:      c,
		logger:      logger,
		db:          db,
		repomanager: rm,
		keys:        keys,
		authorizer:  auth.NewAuthorizer(verifier),
		todoService: ts,
	}, nil
}

func closeDB(db *sql.DB) {
	if db != nil {
		_ = db.Close()
	}
}

// Run serves HTTP and gRPC until ctx is cancelled or either server fails.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()
	defer closeDB(app.db)

	app.logger.Info(ctx, "Starting app...")

	if err := app.keys.Refresh(ctx); err != nil {
		app.logger.Warn(ctx, "initial key set fetch failed", "error", err)
	}

	httpServer := httpapi.NewServer(app.config.EndpointAddrHTTP,
		httpapi.NewHandler(app.todoService, app.logger), app.authorizer, app.logger, app.config.ShutdownTimeout)
	grpcServer := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger)

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	run := func(name string, fn func(context.Context) error) {
		defer wg.Done()
		if err := fn(ctx); err != nil {
			app.logger.Error(ctx, "server stopped", "server", name, "error", err)
			mu.Lock()
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			mu.Unlock()
		}
		cancelFunc()
	}

	wg.Add(2)
	go run("http", httpServer.Run)
	go run("grpc", grpcServer.Run)
	wg.Wait()

	app.logger.Info(context.Background(), "App stopped")
	return errors.Join(errs...)
}
