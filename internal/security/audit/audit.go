// Package audit writes one structured log line per security-relevant action.
package audit

import (
	"context"
	"log/slog"

	"github.com/go-chi/chi/v5/middleware"
)

// Outcomes recorded on audit lines
const (
	StatusInitiated = "initiated"
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
	StatusDenied    = "denied"
)

// Event is one audited action. Empty fields are left off the log line.
type Event struct {
	Actor      string
	Action     string
	Resource   string
	ResourceID string
	Status     string
	Details    string
}

type Logger struct {
	logger *slog.Logger
}

func NewLogger(logger *slog.Logger) *Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Logger{logger: logger.With(slog.String("component", "audit"))}
}

// Record logs e under an "audit" group together with the request id.
// Denials and failures are logged at warn level.
func (al *Logger) Record(ctx context.Context, e Event) {
	attrs := make([]any, 0, 7)
	for _, f := range [...]struct{ key, val string }{
		{"action", e.Action},
		{"resource", e.Resource},
		{"resource_id", e.ResourceID},
		{"actor", e.Actor},
		{"status", e.Status},
		{"details", e.Details},
		{"request_id", middleware.GetReqID(ctx)},
	} {
		if f.val != "" {
			attrs = append(attrs, slog.String(f.key, f.val))
		}
	}

	level := slog.LevelInfo
	if e.Status == StatusDenied || e.Status == StatusFailed {
		level = slog.LevelWarn
	}
	al.logger.Log(ctx, level, "audit", slog.Group("audit", attrs...))
}

// LogClientChange records a create, update or delete of a client record
func (al *Logger) LogClientChange(ctx context.Context, userID, action, clientID, status, details string) {
	al.Record(ctx, Event{
		Actor:      userID,
		Action:     action,
		Resource:   "client",
		ResourceID: clientID,
		Status:     status,
		Details:    details,
	})
}

// LogSession records registration, sign-in, sign-out and password changes
func (al *Logger) LogSession(ctx context.Context, userID, action, status, details string) {
	al.Record(ctx, Event{
		Actor:    userID,
		Action:   action,
		Resource: "session",
		Status:   status,
		Details:  details,
	})
}

func (al *Logger) LogDenied(ctx context.Context, userID, reason string) {
	al.Record(ctx, Event{
		Actor:    userID,
		Action:   "access_denied",
		Resource: "api",
		Status:   StatusDenied,
		Details:  reason,
	})
}
