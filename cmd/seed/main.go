package main

import (
	"context"
	"errors"
	"os"

	"github.com/joho/godotenv"

	"github.com/oksasatya/go-event-api/config"
	"github.com/oksasatya/go-event-api/internal/domain/entity"
	"github.com/oksasatya/go-event-api/internal/domain/repository"
	pginfra "github.com/oksasatya/go-event-api/internal/infrastructure/postgres"
	"github.com/oksasatya/go-event-api/pkg/helpers"
)

// seed creates (or upgrades) an ADMIN account from SEED_ADMIN_EMAIL / SEED_ADMIN_PASSWORD.
func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName+"-seed", cfg.Env, cfg.LogLevel)

	email := os.Getenv("SEED_ADMIN_EMAIL")
	password := os.Getenv("SEED_ADMIN_PASSWORD")
	if email == "" || len(password) < 8 {
		logger.Fatal("SEED_ADMIN_EMAIL and SEED_ADMIN_PASSWORD (min 8 chars) are required")
	}

	ctx := context.Background()
	pool, err := pginfra.NewPool(ctx, cfg.PostgresDSN(), pginfra.PoolOptions{MaxConns: 2, MinConns: 1})
	if err != nil {
		logger.WithError(err).Fatal("failed to connect to postgres")
	}
	defer pool.Close()
	if err := pginfra.Migrate(cfg.PostgresDSN(), cfg.MigrationsDir, logger); err != nil {
		logger.WithError(err).Fatal("migration failed")
	}

	hash, err := helpers.NewBcryptHasher(cfg.BcryptCost).Hash(password)
	if err != nil {
		logger.WithError(err).Fatal("failed to hash password")
	}

	accounts := pginfra.NewAccountRepository(pool)
	a, err := accounts.GetByEmail(ctx, email)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		a = entity.NewPendingAccount(email)
		a.EmailVerified = true
		a.PasswordHash = hash
		a.Role = entity.RoleAdmin
		if err := accounts.Create(ctx, a); err != nil {
			logger.WithError(err).Fatal("failed to seed admin")
		}
		logger.WithField("id", a.ID).WithField("email", email).Info("seeded admin account")
	case err != nil:
		logger.WithError(err).Fatal("failed to load account")
	default:
		a.EmailVerified = true
		a.PasswordHash = hash
		a.Role = entity.RoleAdmin
		if err := accounts.Update(ctx, a); err != nil {
			logger.WithError(err).Fatal("failed to upgrade account")
		}
		logger.WithField("id", a.ID).WithField("email", email).Info("existing account upgraded to admin")
	}
}
