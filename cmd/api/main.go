package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/cechicaizae/ejercicio-recuperacion-v5/internal/api/http"
	"github.com/cechicaizae/ejercicio-recuperacion-v5/internal/api/http/handlers"
	"github.com/cechicaizae/ejercicio-recuperacion-v5/internal/auth"
	"github.com/cechicaizae/ejercicio-recuperacion-v5/internal/config"
	"github.com/cechicaizae/ejercicio-recuperacion-v5/internal/events"
	"github.com/cechicaizae/ejercicio-recuperacion-v5/internal/observability"
	"github.com/cechicaizae/ejercicio-recuperacion-v5/internal/persistence"
	"github.com/cechicaizae/ejercicio-recuperacion-v5/internal/repository"
	"github.com/cechicaizae/ejercicio-recuperacion-v5/internal/service"
	"github.com/cechicaizae/ejercicio-recuperacion-v5/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	rdb := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer rdb.Close()

	metrics := observability.NewMetrics()

	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	ticketRepo := repository.NewTicketRepository(pool)

	hasher := auth.NewPasswordHasher(cfg.Auth.BcryptCost)
	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret)
	guard := auth.NewGuard(tokens, cfg.Auth.CookieName)

	dispatcher := events.NewInMemoryDispatcher(logger)
	sinks := []events.EventHandler{service.NewNotificationService(logger).Handle}
	if cfg.Events.AMQPURL != "" {
		publisher, err := events.DialAMQP(cfg.Events.AMQPURL, cfg.Events.Queue, logger)
		if err != nil {
			logger.Warn("ticket events will not reach the broker", zap.Error(err))
		} else {
			defer publisher.Close() //nolint:errcheck
			sinks = append(sinks, publisher.Handle)
		}
	}
	worker.StartEventSinks(dispatcher, sinks...)

	authService := service.NewAuthService(userRepo, hasher, tokens, logger)
	userService := service.NewUserService(service.UserDependencies{
		UserRepo:     userRepo,
		TicketRepo:   ticketRepo,
		Hasher:       hasher,
		DeletePolicy: cfg.Users.DeletePolicy,
		Logger:       logger,
	})
	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo: ticketRepo,
		UserRepo:   userRepo,
		Dispatcher: dispatcher,
		Logger:     logger,
		Clock:      time.Now,
	})

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ErrorHandler: httptransport.ErrorHandler(logger, metrics),
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health: handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, map[string]handlers.Pinger{
			"postgres": pg,
			"redis":    rdb,
		}, metrics),
		Auth:         handlers.NewAuthHandler(authService, guard.CookieName(), cfg.Auth.CookieSecure),
		Tickets:      handlers.NewTicketsHandler(ticketService),
		Users:        handlers.NewUsersHandler(userService),
		Views:        handlers.NewViewsHandler(ticketService, userService, time.Now),
		Guard:        guard,
		LoginLimiter: httptransport.NewLoginRateLimiter(cfg.RateLimit, rdb.ClientHandle(), logger),
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Warn("shutdown", zap.Error(err))
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
