// Package refreshtoken holds the refresh token record lifecycle jobs.
package refreshtoken

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// ExpiredDeleter removes expired refresh token records. Satisfied by *repository.PostgresRepository.
type ExpiredDeleter interface {
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// Sweeper periodically deletes expired refresh token records. Expired records are already
// unusable (the token's exp fails validation first); sweeping only reclaims storage.
type Sweeper struct {
	store    ExpiredDeleter
	interval time.Duration
	logger   *slog.Logger
	now      func() time.Time
}

// NewSweeper returns a Sweeper that runs every interval.
func NewSweeper(store ExpiredDeleter, interval time.Duration, logger *slog.Logger) *Sweeper {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sweeper{store: store, interval: interval, logger: logger, now: time.Now}
}

// SweepOnce deletes every record expired at the current time and returns how many were removed.
func (s *Sweeper) SweepOnce(ctx context.Context) (int64, error) {
	n, err := s.store.DeleteExpired(ctx, s.now().UTC())
	if err != nil {
		return 0, fmt.Errorf("sweep expired refresh tokens: %w", err)
	}
	return n, nil
}

// Run sweeps immediately and then on every tick until ctx is cancelled. Failed sweeps are logged
// and retried on the next tick. Returns nil when ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) error {
	if s.interval <= 0 {
		return errors.New("sweeper: interval must be positive")
	}
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		n, err := s.SweepOnce(ctx)
		switch {
		case err != nil && ctx.Err() == nil:
			s.logger.ErrorContext(ctx, "refresh token sweep failed", "error", err)
		case err == nil && n > 0:
			s.logger.InfoContext(ctx, "expired refresh tokens deleted", "count", n)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
