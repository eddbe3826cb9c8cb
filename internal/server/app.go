// Package server initializes and runs the Burbly API server: it opens
// the database, applies migrations, wires the cache, mail and Google
// verifier into the services, and serves the HTTP API until signalled.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/burblyhq/burbly/internal/logging"
	"github.com/burblyhq/burbly/internal/mail"
	"github.com/burblyhq/burbly/internal/server/cache"
	"github.com/burblyhq/burbly/internal/server/config"
	"github.com/burblyhq/burbly/internal/server/google"
	"github.com/burblyhq/burbly/internal/server/httpapi"
	"github.com/burblyhq/burbly/internal/server/repositories/repomanager"
	"github.com/burblyhq/burbly/internal/server/services"

	_ "github.com/jackc/pgx/v5/stdlib"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	cache  cache.Cache
	server *http.Server
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}

	var c cache.Cache = cache.Noop{}
	if cfg.RedisAddr != "" {
		redisCache, err := cache.NewRedis(ctx, cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			return nil, fmt.Errorf("redis init error: %w", err)
		}
		c = redisCache
	}

	var verifier google.IDTokenVerifier
	if cfg.GoogleClientID != "" {
		verifier, err = google.NewVerifier(ctx, cfg.GoogleClientID)
		if err != nil {
			return nil, fmt.Errorf("google verifier init error: %w", err)
		}
	}

	sender := mail.NewSendGridSender(cfg.SendgridAPIKey, cfg.MailFrom)

	us := services.NewUserService(db, rm, sender, verifier, cfg)
	ps := services.NewPostService(db, rm, c, logger)
	cs := services.NewCommentService(db, rm)

	api := httpapi.NewServer(us, ps, cs, db, cfg.SecretKey, logger)

	srv := &http.Server{
		Addr:    cfg.EndpointAddrHTTP,
		Handler: api.Router(),
	}

	return &App{config: cfg, logger: logger, db: db, cache: c, server: srv}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run serves the API until the context is cancelled or a signal
// arrives, then shuts down gracefully.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.initSignalHandler(cancelFunc)

	app.logger.Info(ctx, "starting server", "addr", app.config.EndpointAddrHTTP)

	errCh := make(chan error, 1)
	go func() {
		if err := app.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		app.logger.Error(ctx, "server error", "error", err)
	case <-ctx.Done():
		app.logger.Info(ctx, "shutting down...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := app.server.Shutdown(shutdownCtx); err != nil {
		app.logger.Error(shutdownCtx, "shutdown error", "error", err)
	}
	if closer, ok := app.cache.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			app.logger.Error(shutdownCtx, "cache close error", "error", err)
		}
	}
	if err := app.db.Close(); err != nil {
		app.logger.Error(shutdownCtx, "db close error", "error", err)
	}
}
