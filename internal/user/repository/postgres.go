package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"auth-service/internal/user/domain"
)

const (
	userColumns = `id, first_name, last_name, email, role, tenant_id, created_at, updated_at`

	uniqueViolation = "23505"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a user repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// GetByID returns the user for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row, false)
}

// GetByEmail returns the user with the given email, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	return scanUser(row, false)
}

// GetByEmailWithPassword returns the user with the given email including the password hash, or nil if not found.
func (r *PostgresRepository) GetByEmailWithPassword(ctx context.Context, email string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+`, password_hash FROM users WHERE email = $1`, email)
	return scanUser(row, true)
}

// GetFirstByRole returns the oldest user with role, or nil if there is none.
func (r *PostgresRepository) GetFirstByRole(ctx context.Context, role domain.Role) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE role = $1 ORDER BY created_at LIMIT 1`, string(role))
	return scanUser(row, false)
}

// Create persists the user to the database. The user must have ID set; it is not assigned by this method.
// Returns ErrEmailTaken when the email unique constraint is violated.
func (r *PostgresRepository) Create(ctx context.Context, u *domain.User) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (id, first_name, last_name, email, password_hash, role, tenant_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		u.ID, u.FirstName, u.LastName, u.Email, u.PasswordHash, string(u.Role),
		sql.NullString{String: u.TenantID, Valid: u.TenantID != ""},
		u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrEmailTaken
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// List returns one page of users ordered by creation time and the total count matching f.
func (r *PostgresRepository) List(ctx context.Context, f ListFilter) ([]*domain.User, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx,
		`SELECT count(*) FROM users WHERE ($1 = '' OR tenant_id::text = $1)`, f.TenantID,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE ($1 = '' OR tenant_id::text = $1) ORDER BY created_at LIMIT $2 OFFSET $3`,
		f.TenantID, f.Limit, f.Offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()
	out := make([]*domain.User, 0, f.Limit)
	for rows.Next() {
		u, err := scanUser(rows, false)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	return out, total, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner, withPassword bool) (*domain.User, error) {
	var (
		u        domain.User
		role     string
		tenantID sql.NullString
	)
	dest := []any{&u.ID, &u.FirstName, &u.LastName, &u.Email, &role, &tenantID, &u.CreatedAt, &u.UpdatedAt}
	if withPassword {
		dest = append(dest, &u.PasswordHash)
	}
	if err := row.Scan(dest...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	u.Role = domain.Role(role)
	if tenantID.Valid {
		u.TenantID = tenantID.String
	}
	return &u, nil
}
