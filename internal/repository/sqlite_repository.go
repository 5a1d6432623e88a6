package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aryan0dhankhar/clientdesk/internal/domain"
	"github.com/google/uuid"
)

// fixed width so lexical order on the TEXT column matches time order
const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SQLiteClientRepository implements domain.ClientStore on an embedded SQLite file
type SQLiteClientRepository struct {
	db     *sql.DB
	logger *slog.Logger
	now    func() time.Time
}

// NewSQLiteClientRepository creates a client repository over a migrated SQLite db
func NewSQLiteClientRepository(db *sql.DB, logger *slog.Logger) *SQLiteClientRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &SQLiteClientRepository{db: db, logger: logger, now: time.Now}
}

// List returns all clients, newest first
func (r *SQLiteClientRepository) List(ctx context.Context) ([]domain.Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients ORDER BY created_at DESC, rowid DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		r.logger.Error("failed to list clients", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to list clients: %w", err)
	}
	defer rows.Close()

	clients := []domain.Client{}
	for rows.Next() {
		c, err := scanSQLiteClient(rows)
		if err != nil {
			r.logger.Error("failed to scan client row", slog.String("error", err.Error()))
			return nil, fmt.Errorf("failed to scan client: %w", err)
		}
		clients = append(clients, *c)
	}

	return clients, rows.Err()
}

// Insert creates a client with a fresh uuid and server timestamps
func (r *SQLiteClientRepository) Insert(ctx context.Context, w domain.ClientWrite, createdBy *string) (*domain.Client, error) {
	now := r.now().UTC()
	id := uuid.NewString()

	query := `
		INSERT INTO clients (id, full_name, email, phone, document_type, document_number, address,
			service_type, plan, status, registration_date, last_contact, notes, created_by,
			created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		id,
		w.FullName,
		w.Email,
		w.Phone,
		w.DocumentType,
		w.DocumentNumber,
		w.Address,
		w.ServiceType,
		w.Plan,
		string(w.Status),
		formatTime(now),
		formatTimePtr(w.LastContact),
		w.Notes,
		createdBy,
		formatTime(now),
		formatTime(now),
	)
	if err != nil {
		r.logger.Error("failed to insert client",
			slog.String("full_name", w.FullName),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("failed to insert client: %w", err)
	}

	c, err := scanSQLiteClient(r.db.QueryRowContext(ctx, `SELECT `+clientColumns+` FROM clients WHERE id = ?`, id))
	if err != nil {
		return nil, fmt.Errorf("failed to read inserted client: %w", err)
	}
	return c, nil
}

// Update overwrites the editable fields and stamps updated_at
func (r *SQLiteClientRepository) Update(ctx context.Context, id string, w domain.ClientWrite) error {
	query := `
		UPDATE clients
		SET full_name = ?, email = ?, phone = ?, document_type = ?, document_number = ?,
			address = ?, service_type = ?, plan = ?, status = ?, last_contact = ?,
			notes = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := r.db.ExecContext(ctx, query,
		w.FullName,
		w.Email,
		w.Phone,
		w.DocumentType,
		w.DocumentNumber,
		w.Address,
		w.ServiceType,
		w.Plan,
		string(w.Status),
		formatTimePtr(w.LastContact),
		w.Notes,
		formatTime(r.now().UTC()),
		id,
	)
	if err != nil {
		r.logger.Error("failed to update client",
			slog.String("client_id", id),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("failed to update client: %w", err)
	}

	return expectOneRow(result, "client")
}

// Delete removes a client
func (r *SQLiteClientRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM clients WHERE id = ?`, id)
	if err != nil {
		r.logger.Error("failed to delete client",
			slog.String("client_id", id),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("failed to delete client: %w", err)
	}

	return expectOneRow(result, "client")
}

// Ping checks database connectivity
func (r *SQLiteClientRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func scanSQLiteClient(row rowScanner) (*domain.Client, error) {
	var (
		c            domain.Client
		email        sql.NullString
		address      sql.NullString
		plan         sql.NullString
		status       string
		registration string
		lastContact  sql.NullString
		createdBy    sql.NullString
		createdAt    string
		updatedAt    string
	)

	err := row.Scan(
		&c.ID,
		&c.FullName,
		&email,
		&c.Phone,
		&c.DocumentType,
		&c.DocumentNumber,
		&address,
		&c.ServiceType,
		&plan,
		&status,
		&registration,
		&lastContact,
		&c.Notes,
		&createdBy,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	c.Status = domain.ClientStatus(status)
	c.Email = nullString(email)
	c.Address = nullString(address)
	c.Plan = nullString(plan)
	c.CreatedBy = nullString(createdBy)

	if c.RegistrationDate, err = parseTime(registration); err != nil {
		return nil, err
	}
	if c.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if c.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	if lastContact.Valid {
		t, err := parseTime(lastContact.String)
		if err != nil {
			return nil, err
		}
		c.LastContact = &t
	}
	return &c, nil
}

// SQLiteUserRepository implements domain.UserRepository on SQLite
type SQLiteUserRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteUserRepository creates a user repository over a migrated SQLite db
func NewSQLiteUserRepository(db *sql.DB, logger *slog.Logger) *SQLiteUserRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &SQLiteUserRepository{db: db, logger: logger}
}

// Create creates a new user
func (r *SQLiteUserRepository) Create(ctx context.Context, user *domain.User) error {
	now := time.Now().UTC()
	user.ID = uuid.NewString()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (id, email, username, password_hash, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		user.ID, user.Email, user.Username, user.PasswordHash, user.IsActive,
		formatTime(now), formatTime(now),
	)
	if err != nil {
		if dup := sqliteUniqueViolation(err); dup != nil {
			return dup
		}
		r.logger.Error("failed to create user",
			slog.String("email", user.Email),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetByID retrieves a user by ID
func (r *SQLiteUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.getOne(ctx, "id = ?", id)
}

// GetByEmail retrieves an active user by email
func (r *SQLiteUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getOne(ctx, "email = ? AND is_active = 1", email)
}

// GetByUsername retrieves an active user by username
func (r *SQLiteUserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.getOne(ctx, "username = ? AND is_active = 1", username)
}

func (r *SQLiteUserRepository) getOne(ctx context.Context, where, arg string) (*domain.User, error) {
	var (
		user      domain.User
		createdAt string
		updatedAt string
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, email, username, password_hash, is_active, created_at, updated_at
		FROM users WHERE `+where, arg).Scan(
		&user.ID,
		&user.Email,
		&user.Username,
		&user.PasswordHash,
		&user.IsActive,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("user %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if user.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &user, nil
}

// Update updates an existing user
func (r *SQLiteUserRepository) Update(ctx context.Context, user *domain.User) error {
	now := time.Now().UTC()
	result, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET email = ?, username = ?, password_hash = ?, is_active = ?, updated_at = ?
		WHERE id = ?`,
		user.Email, user.Username, user.PasswordHash, user.IsActive, formatTime(now), user.ID,
	)
	if err != nil {
		if dup := sqliteUniqueViolation(err); dup != nil {
			return dup
		}
		return fmt.Errorf("failed to update user: %w", err)
	}
	if err := expectOneRow(result, "user"); err != nil {
		return err
	}
	user.UpdatedAt = now
	return nil
}

// sqliteUniqueViolation maps "UNIQUE constraint failed: users.<column>"
// to a DuplicateError
func sqliteUniqueViolation(err error) error {
	const marker = "UNIQUE constraint failed: users."
	msg := err.Error()
	i := strings.Index(msg, marker)
	if i < 0 {
		return nil
	}
	field := msg[i+len(marker):]
	if j := strings.IndexAny(field, " ,)"); j >= 0 {
		field = field[:j]
	}
	return &domain.DuplicateError{Field: field}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(sqliteTimeLayout)
}

func formatTimePtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse stored time %q: %w", s, err)
	}
	return t, nil
}

var (
	_ domain.ClientStore    = (*SQLiteClientRepository)(nil)
	_ domain.UserRepository = (*SQLiteUserRepository)(nil)
	_ domain.UserRepository = (*PostgresUserRepository)(nil)
)
