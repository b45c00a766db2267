// seed creates the admin account from ADMIN_EMAIL / ADMIN_PASSWORD and exits.
// Idempotent: does nothing when an admin already exists.
package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"auth-service/internal/bootstrap"
	"auth-service/internal/config"
	"auth-service/internal/db"
	"auth-service/internal/security"
	userrepo "auth-service/internal/user/repository"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set; create a .env from .env.example or set DATABASE_URL")
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))

	ctx := context.Background()
	conn, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer conn.Close()

	res, err := bootstrap.EnsureAdmin(ctx, logger, userrepo.NewPostgresRepository(conn), security.NewHasher(cfg.BcryptCost), bootstrap.AdminConfig{
		Email:     cfg.AdminEmail,
		Password:  cfg.AdminPassword,
		FirstName: cfg.AdminFirstName,
		LastName:  cfg.AdminLastName,
	})
	if err != nil {
		conn.Close()
		log.Fatalf("seed: %v", err)
	}
	logger.Info("seed finished", "admin", res.String())
}
