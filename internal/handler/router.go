package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/aryan0dhankhar/clientdesk/internal/observability/metrics"
	"github.com/aryan0dhankhar/clientdesk/internal/security/audit"
	"github.com/aryan0dhankhar/clientdesk/internal/security/auth"
	"github.com/aryan0dhankhar/clientdesk/internal/security/middleware"
	"github.com/aryan0dhankhar/clientdesk/internal/security/ratelimit"
)

// RouterDeps carries everything the HTTP surface needs
type RouterDeps struct {
	Auth        *AuthHandler
	Dashboard   *DashboardHandler
	Health      *HealthHandler
	Resolver    auth.Resolver
	Limiter     *ratelimit.Limiter
	Audit       *audit.Logger
	CORSOrigins []string
	Logger      *slog.Logger
}

// NewRouter wires routes and middleware.
// Chain: request ID -> access log -> recoverer -> CORS -> metrics -> session -> rate limit -> content type
func NewRouter(d RouterDeps) http.Handler {
	log := d.Logger
	if log == nil {
		log = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(withRequestID)
	r.Use(chimw.RequestID)
	r.Use(accessLog(log))
	r.Use(chimw.Recoverer)
	r.Use(middleware.CORS(d.CORSOrigins))
	r.Use(metrics.HTTPMetricsMiddleware)
	r.Use(middleware.SessionMiddleware(d.Resolver, d.Audit, log))
	r.Use(middleware.RateLimitMiddleware(d.Limiter, log))
	r.Use(middleware.JSONBody(middleware.DefaultMaxBody, log))

	r.Get("/healthz", d.Health.Health)
	r.Get("/readyz", d.Health.Ready)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/options", Options)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", d.Auth.Register)
			r.Post("/login", d.Auth.Login)
			r.Post("/logout", d.Auth.Logout)
			r.Get("/me", d.Auth.Me)
			r.Post("/change-password", d.Auth.ChangePassword)
		})

		r.Route("/dashboard", func(r chi.Router) {
			r.Get("/", d.Dashboard.Get)
			r.Post("/reload", d.Dashboard.Reload)
			r.Put("/filters", d.Dashboard.SetFilters)
			r.Post("/new", d.Dashboard.New)
			r.Post("/cancel", d.Dashboard.Cancel)
			r.Post("/save", d.Dashboard.Save)
			r.Post("/clients/{id}/edit", d.Dashboard.Edit)
			r.Post("/clients/{id}/delete", d.Dashboard.RequestDelete)
			r.Post("/delete/confirm", d.Dashboard.ConfirmDelete)
		})
	})

	return otelhttp.NewHandler(r, "clientdesk.http")
}

// withRequestID assigns a uuid request ID when the caller sent none and
// echoes it on the response.
func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get(chimw.RequestIDHeader)
		if reqID == "" {
			reqID = uuid.NewString()
			r.Header.Set(chimw.RequestIDHeader, reqID)
		}
		w.Header().Set(chimw.RequestIDHeader, reqID)
		next.ServeHTTP(w, r)
	})
}

func accessLog(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			log.Info("request completed",
				slog.String("request_id", chimw.GetReqID(r.Context())),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.Status()),
				slog.Duration("duration_ms", time.Since(start)),
			)
		})
	}
}
