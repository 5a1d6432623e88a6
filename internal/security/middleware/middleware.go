package middleware

import (
	"errors"
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/aryan0dhankhar/clientdesk/internal/security/audit"
	"github.com/aryan0dhankhar/clientdesk/internal/security/auth"
	"github.com/aryan0dhankhar/clientdesk/internal/security/ratelimit"
)

// PublicPaths lists routes served without a session
var PublicPaths = []string{
	"/healthz",
	"/readyz",
	"/metrics",
	"/api/options",
	"/api/auth/login",
	"/api/auth/register",
}

func isPublic(path string) bool {
	for _, p := range PublicPaths {
		if path == p {
			return true
		}
	}
	return false
}

// SessionMiddleware resolves the bearer token into an auth.Session on the
// request context. Protected routes answer 401 when resolution fails.
func SessionMiddleware(resolver auth.Resolver, auditLog *audit.Logger, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isPublic(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeError(w, http.StatusUnauthorized, "missing auth")
				return
			}

			tokenString, err := auth.ExtractToken(authHeader)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "invalid auth")
				return
			}

			session := auth.NewSession(resolver)
			if err := session.Init(r.Context(), tokenString); err != nil {
				log.Info("session resolution failed",
					slog.String("path", r.URL.Path),
					slog.String("error", err.Error()),
				)
				auditLog.LogDenied(r.Context(), "", err.Error())
				msg := "invalid token"
				if errors.Is(err, auth.ErrTokenExpired) {
					msg = "token expired"
				}
				writeError(w, http.StatusUnauthorized, msg)
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithSession(r.Context(), session)))
		})
	}
}

// RateLimitMiddleware limits each signed-in user. Anonymous requests to the
// credential endpoints get a strict per-address limit instead.
func RateLimitMiddleware(limiter *ratelimit.Limiter, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var d ratelimit.Decision
			if isCredentialPath(r.URL.Path) {
				d = limiter.AllowStrict(clientIP(r), credentialLimit, time.Minute)
				if !d.Allowed {
					log.Warn("credential rate limit exceeded", slog.String("ip", clientIP(r)))
				}
			} else {
				userID := ""
				if id := auth.ActorID(r.Context()); id != nil {
					userID = *id
				}
				d = limiter.Allow(userID)
			}

			if !d.Allowed {
				secs := int(math.Ceil(d.RetryAfter.Seconds()))
				w.Header().Set("Retry-After", strconv.Itoa(max(secs, 1)))
				writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
			next.ServeHTTP(w, r)
		})
	}
}

// credentialLimit is the per-address budget for login and register per minute
const credentialLimit = 10

func isCredentialPath(path string) bool {
	return strings.HasPrefix(path, "/api/auth/login") || strings.HasPrefix(path, "/api/auth/register")
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// CORS allows the configured browser origins
func CORS(allowed []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			for _, o := range allowed {
				if o == origin || o == "*" {
					w.Header().Set("Access-Control-Allow-Origin", origin)
					w.Header().Set("Vary", "Origin")
					w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
					w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
					break
				}
			}
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write([]byte(`{"error":"` + msg + `"}`))
}
