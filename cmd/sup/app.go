package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/nkiryanov/sup/internal/db"
	"github.com/nkiryanov/sup/internal/handlers"
	"github.com/nkiryanov/sup/internal/logger"
	"github.com/nkiryanov/sup/internal/repository"
	"github.com/nkiryanov/sup/internal/repository/postgres"
	"github.com/nkiryanov/sup/internal/repository/sqlite"
	"github.com/nkiryanov/sup/internal/service/auth"
	"github.com/nkiryanov/sup/internal/service/user"
)

type ServerApp struct {
	ListenAddr string
	Handler    http.Handler
	Logger     logger.Logger

	// Release database connections
	closeDB func()
}

func NewServerApp(ctx context.Context, c *Config) (*ServerApp, error) {
	// Initialize logger
	logger, err := logger.New(c.Environment, c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("error while initializing logger: %w", err)
	}

	// Connect to the database and run migrations
	userRepo, closeDB, err := openUserRepo(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("error while connecting to db. Err: %w", err)
	}

	// Initialize services
	userService := user.NewService(auth.DefaultHasher, userRepo)
	authService, err := auth.NewService(auth.Config{}, userRepo)
	if err != nil {
		closeDB()
		return nil, fmt.Errorf("error while creating auth service. Err: %w", err)
	}

	mux := handlers.NewRouter(
		handlers.RouterConfig{Realm: c.Realm},
		authService,
		userService,
		logger,
	)

	return &ServerApp{
		ListenAddr: c.ListenAddr,
		Handler:    mux,
		Logger:     logger,
		closeDB:    closeDB,
	}, nil
}

// Open store the dsn points to
func openUserRepo(ctx context.Context, dsn string) (repository.UserRepo, func(), error) {
	scheme, err := db.Scheme(dsn)
	if err != nil {
		return nil, nil, err
	}

	switch scheme {
	case db.SchemePostgres:
		pool, err := db.ConnectAndMigrate(ctx, dsn)
		if err != nil {
			return nil, nil, err
		}
		return postgres.NewUserRepo(pool), pool.Close, nil
	default:
		conn, err := db.OpenAndMigrateSQLite(ctx, dsn)
		if err != nil {
			return nil, nil, err
		}
		return sqlite.NewUserRepo(conn), func() { _ = conn.Close() }, nil
	}
}

// Run starts http server and closes gracefully on context cancellation
func (s *ServerApp) Run(ctx context.Context) error {
	defer s.closeDB()

	httpServer := &http.Server{
		Addr:              s.ListenAddr,
		Handler:           s.Handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	idleConnsClosed := make(chan struct{})
	srvCtx, srvCtxCancel := context.WithCancel(ctx)
	defer srvCtxCancel()

	go func() {
		<-srvCtx.Done()

		timeoutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(timeoutCtx); errors.Is(err, context.DeadlineExceeded) {
			s.Logger.Error("HTTP server shutdown timeout exceeded, forcing shutdown...")
		}
		s.Logger.Info("HTTP server stopped")
		close(idleConnsClosed)
	}()

	// Listen and serve until context is cancelled; then close gracefully connections
	s.Logger.Info("Starting server", "address", s.ListenAddr)
	err := httpServer.ListenAndServe()
	srvCtxCancel()
	<-idleConnsClosed

	return err
}
