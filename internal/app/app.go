package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ukmik/membership-service/pkg/database"
	"github.com/ukmik/membership-service/pkg/health"

	"github.com/ukmik/membership-service/internal/auth"
	"github.com/ukmik/membership-service/internal/config"
	handler "github.com/ukmik/membership-service/internal/handler/http"
	"github.com/ukmik/membership-service/internal/mailer"
	"github.com/ukmik/membership-service/internal/repository/postgres"
	"github.com/ukmik/membership-service/internal/service"
	"github.com/ukmik/membership-service/migrations"
)

// App wires together all dependencies and runs the membership service.
type App struct {
	cfg        *config.Config
	logger     *slog.Logger
	pool       *pgxpool.Pool
	httpServer *http.Server
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize PostgreSQL connection pool.
	pool, err := database.NewPostgresPool(ctx, cfg.Postgres(), logger)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	logger.Info("connected to PostgreSQL",
		slog.String("host", cfg.PostgresHost),
		slog.Int("port", cfg.PostgresPort),
		slog.String("database", cfg.PostgresDB),
	)

	// Run database migrations.
	if err := database.RunMigrations(ctx, pool, migrations.FS, logger); err != nil {
		pool.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("database migrations completed")

	// Outbound email. Development logs messages instead of delivering them
	// so the flows can be exercised without an SMTP relay.
	var mail mailer.Mailer
	if cfg.Environment == "development" {
		mail = mailer.NewLogMailer(logger)
	} else {
		mail = mailer.NewTimeoutMailer(mailer.NewSMTPMailer(mailer.SMTPConfig{
			Host: cfg.MailHost,
			Port: cfg.MailPort,
			User: cfg.MailUser,
			Pass: cfg.MailPass,
			From: cfg.MailFrom,
		}, logger), cfg.MailSendTimeout)
	}

	// Build the dependency graph.
	tokens := auth.NewTokenManager(cfg.AccessTokenSecret, cfg.RefreshTokenSecret, cfg.AccessTokenExpiry, cfg.RefreshTokenExpiry)
	userRepo := postgres.NewUserRepository(pool)
	candidateRepo := postgres.NewCandidateRepository(pool)
	resetRepo := postgres.NewPasswordResetRepository(pool)

	authService := service.NewAuthService(userRepo, resetRepo, tokens, mail, cfg.ResetTokenTTL, cfg.ResetLinkBaseURL, logger)
	userService := service.NewUserService(userRepo, logger)
	candidateService := service.NewCandidateService(candidateRepo, userRepo, mail, logger)

	// Health checks.
	healthHandler := health.NewHandler()
	healthHandler.Register("postgres", func(ctx context.Context) error {
		return pool.Ping(ctx)
	})

	// HTTP router.
	router := handler.NewRouter(authService, userService, candidateService, tokens, healthHandler, logger, handler.CORSConfig{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		Environment:    cfg.Environment,
	})

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &App{
		cfg:        cfg,
		logger:     logger,
		pool:       pool,
		httpServer: httpServer,
	}, nil
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components: drain in-flight HTTP requests
// first, then close the PostgreSQL pool.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	httpCtx, httpCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer httpCancel()
	if err := a.httpServer.Shutdown(httpCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	a.pool.Close()

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}
