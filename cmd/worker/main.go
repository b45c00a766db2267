// Worker deletes expired refresh token records on an interval (REFRESH_SWEEP_INTERVAL, default 1h).
// Run it as a single replica next to the server; the sweep is idempotent, so overlap is harmless.
package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"auth-service/internal/config"
	"auth-service/internal/db"
	"auth-service/internal/refreshtoken"
	rtrepo "auth-service/internal/refreshtoken/repository"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("worker: db: %v", err)
	}
	defer conn.Close()

	logger.Info("worker: sweeping expired refresh tokens", "interval", cfg.RefreshSweepInterval.String())
	sweeper := refreshtoken.NewSweeper(rtrepo.NewPostgresRepository(conn), cfg.RefreshSweepInterval, logger)
	if err := sweeper.Run(ctx); err != nil {
		logger.Error("worker: stopped", "error", err)
		return
	}
	logger.Info("worker: stopped")
}
