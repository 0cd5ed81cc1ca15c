// Package server initializes and runs the authentication server.
// It loads configuration, opens the database, applies migrations, wires the
// service layer, and runs the HTTP surface with graceful shutdown.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/wardenlabs/warden/internal/logging"
	"github.com/wardenlabs/warden/internal/server/config"
	"github.com/wardenlabs/warden/internal/server/csrf"
	"github.com/wardenlabs/warden/internal/server/httpapi"
	"github.com/wardenlabs/warden/internal/server/password"
	"github.com/wardenlabs/warden/internal/server/ratelimit"
	"github.com/wardenlabs/warden/internal/server/repositories/repomanager"
	"github.com/wardenlabs/warden/internal/server/services"
	"github.com/wardenlabs/warden/internal/server/tokens"
)

type App struct {
	config     *config.Config
	logger     logging.Logger
	db         *sql.DB
	repos      repomanager.RepositoryManager
	httpServer *httpapi.Server
}

func NewApp(c *config.Config) (*App, error) {

	l := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	logger := logging.NewSlogLogger(l)

	db, err := sql.Open("pgx", c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	repos := repomanager.NewPostgresRepositoryManager()

	authService := services.NewAuthService(
		db,
		repos,
		password.NewHasher(c.BcryptCost),
		tokens.NewManager([]byte(c.JWTSecretKey), c.AccessTokenValidityDuration, c.RefreshTokenValidityDuration),
		logger.With("module", "auth_service"),
		services.AuthServiceOptions{
			LockoutThreshold: c.LockoutThreshold,
			LockoutDuration:  c.LockoutDuration,
		},
	)

	httpServer := httpapi.NewServer(
		authService,
		ratelimit.New(c.RateLimitMaxAttempts, c.RateLimitWindow),
		csrf.NewGuard([]byte(c.CSRFSecretKey)),
		logger.With("module", "http_server"),
		httpapi.Options{
			FrontendOrigin: c.FrontendOrigin,
			Production:     c.Production,
		},
	)

	return &App{config: c, logger: logger, db: db, repos: repos, httpServer: httpServer}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.httpServer.Run(ctx, app.config.EndpointAddrHTTP); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	if err := app.repos.RunMigrations(ctx, app.db); err != nil {
		app.logger.Error(ctx, "migrations failed", "error", err)
		return
	}

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close failed", "error", err)
	}
}
