package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/aryan0dhankhar/clientdesk/internal/domain"
	"github.com/aryan0dhankhar/clientdesk/internal/observability/metrics"
	"github.com/aryan0dhankhar/clientdesk/internal/observability/tracing"
	"github.com/aryan0dhankhar/clientdesk/internal/security/audit"
	"github.com/aryan0dhankhar/clientdesk/internal/security/auth"
	"go.opentelemetry.io/otel/attribute"
)

// Backend operation names, used in errors, metrics and spans
const (
	OpList   = "list"
	OpCreate = "create"
	OpUpdate = "update"
	OpDelete = "delete"
)

// ClientService is the data access adapter used by dashboards. Every store
// failure comes back as *domain.BackendError. Calls are never retried.
type ClientService struct {
	store  domain.ClientStore
	audit  *audit.Logger
	logger *slog.Logger
}

// NewClientService creates a new client service
func NewClientService(store domain.ClientStore, auditLog *audit.Logger, logger *slog.Logger) *ClientService {
	if logger == nil {
		logger = slog.Default()
	}
	if auditLog == nil {
		auditLog = audit.NewLogger(logger)
	}
	return &ClientService{store: store, audit: auditLog, logger: logger}
}

// ListAll returns every client, newest created_at first
func (s *ClientService) ListAll(ctx context.Context) ([]domain.Client, error) {
	var out []domain.Client
	err := s.call(ctx, OpList, "", func(ctx context.Context) error {
		var err error
		out, err = s.store.List(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	metrics.SetClientsLoaded(len(out))
	return out, nil
}

// Create validates form and inserts it, stamping actor as creator
func (s *ClientService) Create(ctx context.Context, form domain.ClientFormData, actor *string) (*domain.Client, error) {
	if err := form.Validate(); err != nil {
		return nil, err
	}

	var created *domain.Client
	err := s.call(ctx, OpCreate, "", func(ctx context.Context) error {
		var err error
		created, err = s.store.Insert(ctx, form.ToWrite(), actor)
		return err
	})
	userID := deref(actor)
	if err != nil {
		s.audit.LogClientChange(ctx, userID, OpCreate, "", audit.StatusFailed, err.Error())
		return nil, err
	}
	s.audit.LogClientChange(ctx, userID, OpCreate, created.ID, audit.StatusSucceeded, "")
	return created, nil
}

// Update validates form and overwrites the client's editable fields
func (s *ClientService) Update(ctx context.Context, id string, form domain.ClientFormData) error {
	if err := form.Validate(); err != nil {
		return err
	}

	err := s.call(ctx, OpUpdate, id, func(ctx context.Context) error {
		return s.store.Update(ctx, id, form.ToWrite())
	})
	s.auditChange(ctx, OpUpdate, id, err)
	return err
}

// Delete removes the client. Not found is a failure like any other.
func (s *ClientService) Delete(ctx context.Context, id string) error {
	err := s.call(ctx, OpDelete, id, func(ctx context.Context) error {
		return s.store.Delete(ctx, id)
	})
	s.auditChange(ctx, OpDelete, id, err)
	return err
}

// Ping checks the backend for readiness probes
func (s *ClientService) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

func (s *ClientService) call(ctx context.Context, op, id string, fn func(context.Context) error) error {
	ctx, span := tracing.Start(ctx, "clients."+op,
		attribute.String("clientdesk.operation", op),
		attribute.String("clientdesk.client_id", id),
	)
	start := time.Now()
	err := fn(ctx)
	dur := time.Since(start)
	tracing.End(span, err)

	if err != nil {
		metrics.ObserveBackend(op, "error", dur)
		s.logger.Error("backend operation failed",
			slog.String("operation", op),
			slog.String("client_id", id),
			slog.Duration("duration", dur),
			slog.String("error", err.Error()),
		)
		return &domain.BackendError{Op: op, Err: err}
	}
	metrics.ObserveBackend(op, "success", dur)
	s.logger.Debug("backend operation succeeded",
		slog.String("operation", op),
		slog.String("client_id", id),
		slog.Duration("duration", dur),
	)
	return nil
}

func (s *ClientService) auditChange(ctx context.Context, op, id string, err error) {
	userID := deref(auth.ActorID(ctx))
	if err != nil {
		s.audit.LogClientChange(ctx, userID, op, id, audit.StatusFailed, err.Error())
		return
	}
	s.audit.LogClientChange(ctx, userID, op, id, audit.StatusSucceeded, "")
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
