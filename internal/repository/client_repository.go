package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aryan0dhankhar/clientdesk/internal/domain"
)

const clientColumns = `id, full_name, email, phone, document_type, document_number, address,
	service_type, plan, status, registration_date, last_contact, notes, created_by,
	created_at, updated_at`

// PostgresClientRepository implements domain.ClientStore using PostgreSQL
type PostgresClientRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresClientRepository creates a new client repository
func NewPostgresClientRepository(db *sql.DB, logger *slog.Logger) *PostgresClientRepository {
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresClientRepository{
		db:     db,
		logger: logger,
	}
}

// List returns all clients, newest first
func (r *PostgresClientRepository) List(ctx context.Context) ([]domain.Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		r.logger.Error("failed to list clients", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to list clients: %w", err)
	}
	defer rows.Close()

	clients := []domain.Client{}
	for rows.Next() {
		c, err := scanPostgresClient(rows)
		if err != nil {
			r.logger.Error("failed to scan client row", slog.String("error", err.Error()))
			return nil, fmt.Errorf("failed to scan client: %w", err)
		}
		clients = append(clients, *c)
	}

	return clients, rows.Err()
}

// Insert creates a client; the database assigns id and timestamps
func (r *PostgresClientRepository) Insert(ctx context.Context, w domain.ClientWrite, createdBy *string) (*domain.Client, error) {
	query := `
		INSERT INTO clients (full_name, email, phone, document_type, document_number, address,
			service_type, plan, status, last_contact, notes, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING ` + clientColumns

	c, err := scanPostgresClient(r.db.QueryRowContext(ctx, query,
		w.FullName,
		w.Email,
		w.Phone,
		w.DocumentType,
		w.DocumentNumber,
		w.Address,
		w.ServiceType,
		w.Plan,
		string(w.Status),
		w.LastContact,
		w.Notes,
		createdBy,
	))
	if err != nil {
		r.logger.Error("failed to insert client",
			slog.String("full_name", w.FullName),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("failed to insert client: %w", err)
	}

	return c, nil
}

// Update overwrites the editable fields and stamps updated_at
func (r *PostgresClientRepository) Update(ctx context.Context, id string, w domain.ClientWrite) error {
	query := `
		UPDATE clients
		SET full_name = $1, email = $2, phone = $3, document_type = $4, document_number = $5,
			address = $6, service_type = $7, plan = $8, status = $9, last_contact = $10,
			notes = $11, updated_at = now()
		WHERE id = $12
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
		w.LastContact,
		w.Notes,
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
func (r *PostgresClientRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM clients WHERE id = $1`, id)
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
func (r *PostgresClientRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPostgresClient(row rowScanner) (*domain.Client, error) {
	var (
		c           domain.Client
		email       sql.NullString
		address     sql.NullString
		plan        sql.NullString
		status      string
		lastContact sql.NullTime
		createdBy   sql.NullString
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
		&c.RegistrationDate,
		&lastContact,
		&c.Notes,
		&createdBy,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	c.Status = domain.ClientStatus(status)
	c.Email = nullString(email)
	c.Address = nullString(address)
	c.Plan = nullString(plan)
	c.CreatedBy = nullString(createdBy)
	if lastContact.Valid {
		t := lastContact.Time
		c.LastContact = &t
	}
	return &c, nil
}

func nullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func expectOneRow(result sql.Result, what string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%s %w", what, domain.ErrNotFound)
	}
	return nil
}

var _ domain.ClientStore = (*PostgresClientRepository)(nil)

// isNoRows reports a missing row from QueryRow
func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
