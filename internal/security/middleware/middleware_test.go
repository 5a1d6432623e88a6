package middleware

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aryan0dhankhar/clientdesk/internal/domain"
	"github.com/aryan0dhankhar/clientdesk/internal/security/audit"
	"github.com/aryan0dhankhar/clientdesk/internal/security/auth"
	"github.com/aryan0dhankhar/clientdesk/internal/security/ratelimit"
	"github.com/stretchr/testify/assert"
)

type tokenResolver map[string]*domain.User

func (r tokenResolver) Resolve(_ context.Context, token string) (*domain.User, *auth.Claims, error) {
	if token == "stale" {
		return nil, nil, auth.ErrTokenExpired
	}
	u, ok := r[token]
	if !ok {
		return nil, nil, errors.New("unknown token")
	}
	c := &auth.Claims{UserID: u.ID}
	c.ID = "jti-" + token
	return u, c, nil
}

func (r tokenResolver) Revoke(context.Context, *auth.Claims) error { return nil }

func echoUser(w http.ResponseWriter, r *http.Request) {
	s := auth.SessionFromContext(r.Context())
	if s == nil || s.User() == nil {
		w.Write([]byte("anonymous"))
		return
	}
	w.Write([]byte(s.User().ID))
}

func TestSessionMiddleware(t *testing.T) {
	resolver := tokenResolver{"good": {ID: "u1"}}
	h := SessionMiddleware(resolver, audit.NewLogger(nil), slog.Default())(http.HandlerFunc(echoUser))

	tests := []struct {
		name       string
		path       string
		header     string
		wantStatus int
		wantBody   string
	}{
		{"public path", "/healthz", "", http.StatusOK, "anonymous"},
		{"missing header", "/api/dashboard", "", http.StatusUnauthorized, "missing auth"},
		{"malformed header", "/api/dashboard", "Token good", http.StatusUnauthorized, "invalid auth"},
		{"unknown token", "/api/dashboard", "Bearer bad", http.StatusUnauthorized, "invalid token"},
		{"expired token", "/api/dashboard", "Bearer stale", http.StatusUnauthorized, "token expired"},
		{"valid token", "/api/dashboard", "Bearer good", http.StatusOK, "u1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.wantBody)
		})
	}
}

func TestRateLimitMiddleware_PerUser(t *testing.T) {
	limiter := ratelimit.NewLimiter(1, time.Minute)

	resolver := tokenResolver{"a": {ID: "u1"}, "b": {ID: "u2"}}
	h := SessionMiddleware(resolver, audit.NewLogger(nil), slog.Default())(
		RateLimitMiddleware(limiter, slog.Default())(http.HandlerFunc(echoUser)))

	do := func(token string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/dashboard", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	first := do("a")
	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "0", first.Header().Get("X-RateLimit-Remaining"))

	limited := do("a")
	assert.Equal(t, http.StatusTooManyRequests, limited.Code)
	assert.Equal(t, "60", limited.Header().Get("Retry-After"))

	assert.Equal(t, http.StatusOK, do("b").Code)
}

func TestRateLimitMiddleware_StrictOnLogin(t *testing.T) {
	limiter := ratelimit.NewLimiter(100, time.Minute)
	h := RateLimitMiddleware(limiter, slog.Default())(http.HandlerFunc(echoUser))

	codes := []int{}
	for i := 0; i < 11; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
		req.RemoteAddr = "10.0.0.7:5555"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, http.StatusOK, codes[9])
	assert.Equal(t, http.StatusTooManyRequests, codes[10])
}

func TestJSONBody(t *testing.T) {
	h := JSONBody(16, slog.Default())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := io.ReadAll(r.Body); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name    string
		method  string
		body    string
		ctype   string
		chunked bool
		want    int
	}{
		{"get passes", http.MethodGet, "", "", false, http.StatusNoContent},
		{"empty post passes", http.MethodPost, "", "", false, http.StatusNoContent},
		{"json post passes", http.MethodPost, `{}`, "application/json; charset=utf-8", false, http.StatusNoContent},
		{"form post rejected", http.MethodPost, `a=b`, "application/x-www-form-urlencoded", false, http.StatusUnsupportedMediaType},
		{"put without type rejected", http.MethodPut, `{}`, "", false, http.StatusUnsupportedMediaType},
		{"oversized body rejected", http.MethodPut, `{"notes":"far too long"}`, "application/json", false, http.StatusRequestEntityTooLarge},
		{"oversized chunked body cut off", http.MethodPut, `{"notes":"far too long"}`, "application/json", true, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/api/dashboard/save", strings.NewReader(tt.body))
			if tt.ctype != "" {
				req.Header.Set("Content-Type", tt.ctype)
			}
			if tt.chunked {
				req.ContentLength = -1
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestCORS(t *testing.T) {
	h := CORS([]string{"http://localhost:5173"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodOptions, "/api/dashboard", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/api/dashboard", nil)
	req.Header.Set("Origin", "http://evil.example")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
