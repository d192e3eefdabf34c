// Command seed applies migrations and makes sure a bootstrap administrator
// exists. Running it twice is harmless.
package main

import (
	"context"
	"log"
	"time"

	"go.uber.org/zap"

	"github.com/cechicaizae/ejercicio-recuperacion-v5/internal/auth"
	"github.com/cechicaizae/ejercicio-recuperacion-v5/internal/config"
	"github.com/cechicaizae/ejercicio-recuperacion-v5/internal/observability"
	"github.com/cechicaizae/ejercicio-recuperacion-v5/internal/persistence"
	"github.com/cechicaizae/ejercicio-recuperacion-v5/internal/repository"
	"github.com/cechicaizae/ejercicio-recuperacion-v5/internal/service"
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

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}

	pool := pg.PoolHandle()
	users := service.NewUserService(service.UserDependencies{
		UserRepo:     repository.NewUserRepository(pool),
		TicketRepo:   repository.NewTicketRepository(pool),
		Hasher:       auth.NewPasswordHasher(cfg.Auth.BcryptCost),
		DeletePolicy: cfg.Users.DeletePolicy,
		Logger:       logger,
	})

	admin, created, err := users.EnsureAdmin(ctx, cfg.Seed.AdminName, cfg.Seed.AdminUsername, cfg.Seed.AdminPassword)
	if err != nil {
		logger.Fatal("failed to seed administrator", zap.Error(err))
	}
	logger.Info("administrator ready",
		zap.Int64("user_id", admin.ID),
		zap.String("username", admin.Username),
		zap.Bool("created", created))
}
