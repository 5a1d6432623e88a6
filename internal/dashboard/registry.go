package dashboard

import (
	"context"
	"log/slog"
	"time"

	"github.com/aryan0dhankhar/clientdesk/internal/observability/metrics"
	"github.com/aryan0dhankhar/clientdesk/pkg/cache"
)

// Registry keeps one dashboard per session, evicting idle ones
type Registry struct {
	adapter  Adapter
	sessions *cache.Cache[*Dashboard]
	idle     time.Duration
	logger   *slog.Logger
}

// NewRegistry creates a registry whose dashboards expire after idle without access
func NewRegistry(adapter Adapter, idle time.Duration, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		adapter:  adapter,
		sessions: cache.New[*Dashboard](),
		idle:     idle,
		logger:   logger,
	}
}

// Get returns the session's dashboard, creating and mounting it on first
// access. A failed initial load still yields a Ready dashboard.
func (r *Registry) Get(ctx context.Context, sessionID string, actor *string) *Dashboard {
	d, existed := r.sessions.GetOrSet(sessionID, r.idle, func() *Dashboard {
		return New(r.adapter, actor, r.logger.With(slog.String("session_id", sessionID)))
	})
	if !existed {
		metrics.SetActiveSessions(r.sessions.Len())
		if err := d.Mount(ctx); err != nil {
			r.logger.Warn("dashboard mounted without data",
				slog.String("session_id", sessionID),
				slog.String("error", err.Error()),
			)
		}
	}
	return d
}

// Remove drops the session's dashboard, used on sign-out
func (r *Registry) Remove(sessionID string) {
	r.sessions.Delete(sessionID)
	metrics.SetActiveSessions(r.sessions.Len())
}

// Sweep evicts dashboards idle longer than the configured timeout
func (r *Registry) Sweep() int {
	n := r.sessions.Purge()
	metrics.SetActiveSessions(r.sessions.Len())
	metrics.ObserveSweep(n)
	return n
}

// Len returns the number of held dashboards
func (r *Registry) Len() int {
	return r.sessions.Len()
}
