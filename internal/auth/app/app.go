package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "github.com/aussiebroadwan/jwtshield/internal/auth/http"
	"github.com/aussiebroadwan/jwtshield/internal/auth/lockout"
	"github.com/aussiebroadwan/jwtshield/internal/auth/service"
	"github.com/aussiebroadwan/jwtshield/internal/auth/store"
	"github.com/aussiebroadwan/jwtshield/internal/auth/store/drivers/postgres"
	"github.com/aussiebroadwan/jwtshield/internal/auth/store/drivers/redis"
	"github.com/aussiebroadwan/jwtshield/internal/auth/store/drivers/sqlite"
	"github.com/aussiebroadwan/jwtshield/pkg/cryptox"
	"github.com/aussiebroadwan/jwtshield/pkg/httpx"
	"github.com/aussiebroadwan/jwtshield/pkg/jwtx"
	"github.com/aussiebroadwan/jwtshield/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags. Later problem
	BuildVersion = "v0.1.0"
)

// Application encapsulates the auth service application with all its dependencies
type Application struct {
	cfg    Config
	logger *slog.Logger

	// Core dependencies
	db       store.Store
	counters store.Counters
	redis    *redis.Counters // nil unless REDIS_URL is set
	secret   []byte

	// Services
	authService         *service.AuthService
	userService         *service.UserService
	bootstrapService    *service.BootstrapService
	housekeepingService *service.HousekeepingService
	limiter             *lockout.Limiter

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "jwtshield",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	// Set pepper path for password hashing
	cryptox.SetPepperPath(app.cfg.PepperFile)
	if err := cryptox.LoadPepper(); err != nil {
		return nil, fmt.Errorf("failed to load pepper: %w", err)
	}

	secret, err := LoadSecret(cfg, app.logger)
	if err != nil {
		return nil, err
	}
	app.secret = secret

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := app.initDatabase(ctx); err != nil {
		return nil, err
	}
	if err := app.initCounters(ctx); err != nil {
		_ = app.db.Close()
		return nil, err
	}

	app.initServices()
	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	// Start housekeeping service
	app.housekeepingService.Start()

	app.logger.Info("jwtshield starting",
		"port", app.cfg.Port,
		"version", BuildVersion,
		"database", app.cfg.DatabaseDriver,
		"redis_counters", app.redis != nil,
	)

	// Start server in a goroutine
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	// Setup signal handling for graceful shutdown
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a shutdown signal or server error
	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		// Perform graceful shutdown
		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down jwtshield...")

	// Give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	// Shutdown the HTTP server
	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	// Token record maintenance outlives the request that started it.
	app.authService.Wait()

	// Stop the housekeeping service
	app.housekeepingService.Stop()

	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			app.logger.Error("error closing redis", "error", err)
		}
	}

	// Close database connection
	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("jwtshield stopped")
	return nil
}

// initDatabase opens the configured driver and applies migrations
func (app *Application) initDatabase(ctx context.Context) error {
	var (
		db  store.Store
		err error
	)
	switch app.cfg.DatabaseDriver {
	case "postgres":
		db, err = postgres.NewStore(ctx, app.cfg.DatabaseURL)
	default:
		host := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", app.cfg.DatabaseFile)
		db, err = sqlite.NewStore(host)
	}
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully", "driver", app.cfg.DatabaseDriver)
	return nil
}

// initCounters picks where lockout counters live: redis when configured,
// the database otherwise.
func (app *Application) initCounters(ctx context.Context) error {
	if app.cfg.RedisURL == "" {
		app.counters = app.db.Counters()
		return nil
	}

	rc, err := redis.Open(ctx, app.cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	app.redis = rc
	app.counters = rc

	app.logger.Info("lockout counters stored in redis")
	return nil
}

// initServices initializes all business logic services
func (app *Application) initServices() {
	app.userService = &service.UserService{Store: app.db}
	app.bootstrapService = &service.BootstrapService{
		Store: app.db,
		Token: app.cfg.BootstrapToken,
	}

	app.authService = &service.AuthService{
		Directory:    app.userService,
		Store:        app.db,
		Codec:        jwtx.NewHS256Codec(app.cfg.Leeway),
		Secret:       app.secret,
		Issuer:       app.cfg.BaseURL,
		TTL:          app.cfg.TokenTTL,
		TouchMode:    service.TouchMode(app.cfg.TouchMode),
		StoreTimeout: app.cfg.StoreTimeout,
	}

	app.limiter = lockout.New(app.counters, lockout.Config{
		MaxAttempts: app.cfg.LockoutAttempts,
		Lockout:     app.cfg.LockoutDuration,
	})

	app.housekeepingService = service.NewHousekeepingService(
		app.db,
		app.counters,
		app.logger,
		app.cfg.HousekeepingInterval,
	)
}

// initHTTP initializes the HTTP router and server
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(BuildVersion, app.db, app.logger)

	// Wire services to router
	router.AuthService = app.authService
	router.UserService = app.userService
	router.BootstrapService = app.bootstrapService
	router.Limiter = app.limiter
	router.ClientIdentifier = httpx.NewClientIdentifier(app.cfg.TrustedProxyHeaders...)
	if app.redis != nil {
		router.CountersPinger = app.redis
	}
	router.ApplyRoutes()

	app.router = router

	// Initialize HTTP server
	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}

// Handler exposes the fully wired router.
func (app *Application) Handler() http.Handler { return app.router }
