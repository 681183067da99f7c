package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"
	"github.com/sethvargo/go-retry"

	"authsvc/internal/config"
	"authsvc/internal/handlers"
	"authsvc/internal/metrics"
	"authsvc/internal/middleware"
	"authsvc/internal/migrations"
	"authsvc/internal/repositories"
	"authsvc/internal/routes"
	"authsvc/internal/services"
)

// App is the wired HTTP service.
type App struct {
	cfg     *config.Config
	log     *slog.Logger
	db      *sql.DB
	auth    *services.AuthService
	metrics *metrics.Metrics
	engine  *gin.Engine
}

func New(ctx context.Context, cfg *config.Config, log *slog.Logger) (*App, error) {
	a := &App{cfg: cfg, log: log, metrics: metrics.New()}

	// === Store ===
	var repo repositories.UserRepository
	if cfg.Database.DSN != "" {
		db, err := OpenDB(ctx, cfg.Database, log)
		if err != nil {
			return nil, err
		}
		if err := migrations.Up(ctx, db); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
		a.db = db
		repo = repositories.NewUserRepository(db)
	} else {
		log.Warn("database.url is empty, using in-memory store; data is lost on restart")
		repo = repositories.NewMemoryUserRepository()
	}

	// === Services ===
	sessions, err := services.NewJWTSessionIssuer(cfg.Auth.JWTSecret, cfg.Auth.SessionTTL)
	if err != nil {
		a.Close()
		return nil, err
	}
	notifier := services.NewEmailService(services.EmailSettings{
		SMTPHost:     cfg.Email.SMTPHost,
		SMTPPort:     cfg.Email.SMTPPort,
		SMTPUser:     cfg.Email.SMTPUser,
		SMTPPassword: cfg.Email.SMTPPassword,
		FromEmail:    cfg.Email.FromEmail,
		FromName:     cfg.Email.FromName,
		CompanyName:  cfg.Email.CompanyName,
		DryRun:       cfg.Email.DryRun,
	}, log)
	dispatcher := services.NewNotificationDispatcher(cfg.Email.StrictDelivery, cfg.Email.SendTimeout, log, a.metrics)

	a.auth, err = services.NewAuthService(
		repo,
		services.NewBcryptHasher(cfg.Auth.BcryptCost),
		sessions,
		notifier,
		services.AuthSettings{
			VerificationTTL:      cfg.Auth.VerificationTTL,
			ResetTTL:             cfg.Auth.ResetTTL,
			ClientURL:            cfg.Server.ClientURL,
			RequireVerifiedLogin: cfg.Auth.RequireVerifiedLogin,
		},
		services.WithLogger(log),
		services.WithMetrics(a.metrics),
		services.WithDispatcher(dispatcher),
	)
	if err != nil {
		a.Close()
		return nil, err
	}

	// === Gin ===
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(
		middleware.RequestLogger(log),
		middleware.Recovery(log),
		middleware.CORS(cfg.Server.ClientURL),
		a.metrics.Middleware(),
	)

	static := routes.Static{}
	if cfg.IsProduction() {
		static.Dir = cfg.Server.StaticDir
	}
	a.engine = routes.SetupRoutes(
		router,
		handlers.NewAuthHandler(a.auth, cfg.IsProduction(), log),
		handlers.NewHealthHandler(repo),
		a.auth,
		a.metrics,
		static,
	)
	return a, nil
}

func (a *App) Handler() http.Handler { return a.engine }

// Run serves until ctx is canceled, then shuts down gracefully and drains
// pending notifications.
func (a *App) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", a.cfg.Server.Port),
		Handler:           a.engine,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       a.cfg.Server.ReadTimeout,
		WriteTimeout:      a.cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Info("server started", "addr", srv.Addr, "env", a.cfg.Server.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	a.log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	a.auth.Wait()
	return err
}

// Close releases the database connection, if any.
func (a *App) Close() {
	if a.db == nil {
		return
	}
	if err := a.db.Close(); err != nil {
		a.log.Error("close database", "err", err)
	}
}

// OpenDB connects to Postgres and waits for it to accept connections.
func OpenDB(ctx context.Context, cfg config.DatabaseConfig, log *slog.Logger) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
		db.SetMaxIdleConns(cfg.MaxOpenConns)
	}
	if err := pingDB(ctx, db, cfg.ConnectTimeout, log); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

var pingBackoffBase = 500 * time.Millisecond

// pingDB retries with capped exponential backoff until timeout elapses.
func pingDB(ctx context.Context, db *sql.DB, timeout time.Duration, log *slog.Logger) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	b := retry.NewExponential(pingBackoffBase)
	b = retry.WithCappedDuration(5*time.Second, b)

	attempt := 0
	err := retry.Do(ctx, b, func(ctx context.Context) error {
		attempt++
		if err := db.PingContext(ctx); err != nil {
			log.Warn("database not ready", "attempt", attempt, "err", err)
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("ping database after %d attempts: %w", attempt, err)
	}
	return nil
}
