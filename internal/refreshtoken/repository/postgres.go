package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"auth-service/internal/refreshtoken/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a refresh token repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, userID string, expiresAt time.Time) (*domain.RefreshToken, error) {
	t := &domain.RefreshToken{UserID: userID, ExpiresAt: expiresAt}
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO refresh_tokens (user_id, expires_at) VALUES ($1, $2) RETURNING id, created_at`,
		userID, expiresAt,
	).Scan(&t.ID, &t.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create refresh token: %w", err)
	}
	return t, nil
}

// ListByUser returns every record for userID, oldest first, expired ones included.
func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]*domain.RefreshToken, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, expires_at, created_at FROM refresh_tokens WHERE user_id = $1 ORDER BY created_at`, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list refresh tokens: %w", err)
	}
	defer rows.Close()
	var out []*domain.RefreshToken
	for rows.Next() {
		var t domain.RefreshToken
		if err := rows.Scan(&t.ID, &t.UserID, &t.ExpiresAt, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan refresh token: %w", err)
		}
		out = append(out, &t)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) DeleteByID(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM refresh_tokens WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete refresh token: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete refresh token: %w", err)
	}
	return n > 0, nil
}

func (r *PostgresRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM refresh_tokens WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("delete expired refresh tokens: %w", err)
	}
	return res.RowsAffected()
}
