package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/multierr"

	"github.com/angelmondragon/autoparts-backend/api/routes"
	"github.com/angelmondragon/autoparts-backend/internal/auth"
	"github.com/angelmondragon/autoparts-backend/internal/cart"
	"github.com/angelmondragon/autoparts-backend/internal/mailer"
	"github.com/angelmondragon/autoparts-backend/internal/parts"
	"github.com/angelmondragon/autoparts-backend/internal/registration"
	"github.com/angelmondragon/autoparts-backend/internal/sellers"
	"github.com/angelmondragon/autoparts-backend/internal/users"
	pkgAuth "github.com/angelmondragon/autoparts-backend/pkg/auth"
	"github.com/angelmondragon/autoparts-backend/pkg/config"
	"github.com/angelmondragon/autoparts-backend/pkg/db"
	"github.com/angelmondragon/autoparts-backend/pkg/instance"
	"github.com/angelmondragon/autoparts-backend/pkg/logger"
	"github.com/angelmondragon/autoparts-backend/pkg/metrics"
	"github.com/angelmondragon/autoparts-backend/pkg/migrate"
	"github.com/angelmondragon/autoparts-backend/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
	})

	if err := run(cfg, logg); err != nil {
		logg.Error(context.Background(), "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logg *logger.Logger) (err error) {
	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		return fmt.Errorf("bootstrap database: %w", err)
	}
	defer func() {
		err = multierr.Append(err, dbClient.Close())
	}()

	if err := migrate.AutoRun(context.Background(), cfg, logg, dbClient); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		return fmt.Errorf("bootstrap redis: %w", err)
	}
	defer func() {
		err = multierr.Append(err, redisClient.Close())
	}()

	handler, err := buildHandler(cfg, logg, dbClient, redisClient)
	if err != nil {
		return fmt.Errorf("wire api: %w", err)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": instance.GetID(),
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logg.Info(shutdownCtx, "api server shut down gracefully")
	return nil
}

func buildHandler(cfg *config.Config, logg *logger.Logger, dbClient *db.Client, redisClient *redis.Client) (http.Handler, error) {
	tokens, err := pkgAuth.NewTokenService(cfg.Session)
	if err != nil {
		return nil, err
	}

	usersRepo := users.NewRepository(dbClient.DB())
	partsRepo := parts.NewRepository(dbClient.DB())

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo: usersRepo,
		Tokens:   tokens,
		Logger:   logg,
	})
	if err != nil {
		return nil, err
	}

	mailQueue, err := mailer.NewQueue(redisClient, cfg.Mail.Stream, metrics.NewMailMetrics(prometheus.DefaultRegisterer), logg)
	if err != nil {
		return nil, err
	}
	registrationService, err := registration.NewService(registration.ServiceParams{
		Repo:      registration.NewRepository(dbClient.DB()),
		Users:     usersRepo,
		Tx:        dbClient,
		Mail:      mailQueue,
		Config:    cfg.Registration,
		Passwords: cfg.Password,
		Logger:    logg,
	})
	if err != nil {
		return nil, err
	}

	partsService, err := parts.NewService(partsRepo)
	if err != nil {
		return nil, err
	}
	cartService, err := cart.NewService(cart.NewRepository(dbClient.DB()), dbClient, partsRepo)
	if err != nil {
		return nil, err
	}
	sellerService, err := sellers.NewService(sellers.NewRepository(dbClient.DB()), usersRepo, partsService, dbClient)
	if err != nil {
		return nil, err
	}

	return routes.NewRouter(
		cfg,
		logg,
		metrics.NewHTTPMetrics(prometheus.DefaultRegisterer),
		promhttp.Handler(),
		dbClient,
		redisClient,
		tokens,
		authService,
		registrationService,
		cartService,
		sellerService,
		partsService,
	), nil
}
