package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/lib/pq"

	"github.com/aryan0dhankhar/clientdesk/internal/domain"
)

const userColumns = `id, email, username, password_hash, is_active, created_at, updated_at`

// pgUniqueViolation is the SQLSTATE for unique_violation
const pgUniqueViolation = "23505"

// PostgresUserRepository implements domain.UserRepository using PostgreSQL
type PostgresUserRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresUserRepository creates a new user repository
func NewPostgresUserRepository(db *sql.DB, logger *slog.Logger) *PostgresUserRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresUserRepository{db: db, logger: logger}
}

// Create inserts user and fills in the generated id and timestamps.
// A collision on email or username yields a *domain.DuplicateError.
func (r *PostgresUserRepository) Create(ctx context.Context, user *domain.User) error {
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO users (email, username, password_hash, is_active)
		VALUES ($1, $2, $3, $4)
		RETURNING `+userColumns,
		user.Email, user.Username, user.PasswordHash, user.IsActive,
	)
	created, err := scanUser(row)
	if err != nil {
		if dup := uniqueViolation(err); dup != nil {
			return dup
		}
		r.logger.Error("failed to create user",
			slog.String("email", user.Email),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("failed to create user: %w", err)
	}
	*user = *created
	return nil
}

// GetByID retrieves a user by ID, active or not
func (r *PostgresUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.lookup(ctx, "id", id, false)
}

// GetByEmail retrieves an active user by email
func (r *PostgresUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.lookup(ctx, "email", email, true)
}

// GetByUsername retrieves an active user by username
func (r *PostgresUserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.lookup(ctx, "username", username, true)
}

// lookup is only called with a fixed column name, never user input
func (r *PostgresUserRepository) lookup(ctx context.Context, column, value string, activeOnly bool) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE ` + column + ` = $1`
	if activeOnly {
		query += ` AND is_active`
	}

	user, err := scanUser(r.db.QueryRowContext(ctx, query, value))
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, fmt.Errorf("user %w", domain.ErrNotFound)
	case err != nil:
		r.logger.Error("failed to get user",
			slog.String("by", column),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// Update writes every mutable column of user and refreshes UpdatedAt
func (r *PostgresUserRepository) Update(ctx context.Context, user *domain.User) error {
	err := r.db.QueryRowContext(ctx, `
		UPDATE users
		SET email = $1, username = $2, password_hash = $3, is_active = $4, updated_at = now()
		WHERE id = $5
		RETURNING updated_at`,
		user.Email, user.Username, user.PasswordHash, user.IsActive, user.ID,
	).Scan(&user.UpdatedAt)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("user %w", domain.ErrNotFound)
	case err != nil:
		if dup := uniqueViolation(err); dup != nil {
			return dup
		}
		return fmt.Errorf("failed to update user: %w", err)
	}
	return nil
}

func scanUser(row rowScanner) (*domain.User, error) {
	var u domain.User
	if err := row.Scan(
		&u.ID, &u.Email, &u.Username, &u.PasswordHash, &u.IsActive, &u.CreatedAt, &u.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &u, nil
}

// uniqueViolation maps a users_<column>_key violation to a DuplicateError
func uniqueViolation(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || string(pqErr.Code) != pgUniqueViolation {
		return nil
	}
	field := strings.TrimSuffix(strings.TrimPrefix(pqErr.Constraint, "users_"), "_key")
	return &domain.DuplicateError{Field: field}
}
