package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	httptransport "github.com/spec-kit/quizgate/internal/api/http"
	"github.com/spec-kit/quizgate/internal/api/http/handlers"
	"github.com/spec-kit/quizgate/internal/auth"
	"github.com/spec-kit/quizgate/internal/config"
	"github.com/spec-kit/quizgate/internal/events"
	"github.com/spec-kit/quizgate/internal/observability"
	"github.com/spec-kit/quizgate/internal/persistence"
	"github.com/spec-kit/quizgate/internal/repository"
	"github.com/spec-kit/quizgate/internal/service"
	"github.com/spec-kit/quizgate/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	if cfg.Auth.UsingDevSecret {
		logger.Warn("AUTH_TOKEN_SECRET not set, using the development secret")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), cfg.Postgres.MigrationsDir, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()
	worker.StartAuditWorker(service.NewAuditService(dispatcher, logger))

	userRepo := repository.NewUserRepository(pg.PoolHandle())
	limiter := service.NewLoginLimiter(redis, cfg.Auth.LoginMaxAttempts, cfg.Auth.LoginWindow(), logger)

	authService, err := service.NewAuthService(cfg.Auth, service.AuthDependencies{
		UserRepo:   userRepo,
		Limiter:    limiter,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	if err != nil {
		logger.Fatal("failed to init auth service", zap.Error(err))
	}

	tokens := authService.TokenManager()
	gate := auth.NewGate(tokens, auth.DefaultRoutes(), auth.DefaultGateConfig())
	cookies := auth.CookieConfig{
		Name:   cfg.Auth.CookieName,
		Secure: cfg.App.IsProduction(),
		MaxAge: tokens.Lifetime(),
	}

	app := httptransport.NewApp(cfg.App.Name)
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis, metrics),
		Auth:           handlers.NewAuthHandler(authService, tokens, cookies, gate),
		Pages:          handlers.NewPagesHandler(cfg.App.Name),
		GateMiddleware: auth.NewGateMiddleware(gate, cookies, logger, metrics),
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.Shutdown(); err != nil {
		logger.Error("shutdown", zap.Error(err))
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
