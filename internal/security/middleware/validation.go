package middleware

import (
	"log/slog"
	"mime"
	"net/http"
)

// DefaultMaxBody bounds a client form or credential payload
const DefaultMaxBody int64 = 64 << 10

// JSONBody guards write requests: a non-empty body must be declared as
// application/json and may not exceed maxBytes. Bodiless commands such as
// POST /api/dashboard/cancel pass through.
func JSONBody(maxBytes int64, log *slog.Logger) func(http.Handler) http.Handler {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBody
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !hasBody(r) {
				next.ServeHTTP(w, r)
				return
			}

			if r.ContentLength > maxBytes {
				log.Warn("request body too large",
					slog.String("path", r.URL.Path),
					slog.Int64("length", r.ContentLength),
				)
				writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
				return
			}

			ct := r.Header.Get("Content-Type")
			if mt, _, err := mime.ParseMediaType(ct); err != nil || mt != "application/json" {
				log.Warn("rejected non-json body",
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
					slog.String("content_type", ct),
				)
				writeError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
				return
			}

			// chunked bodies have no declared length; cap them while reading
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}

func hasBody(r *http.Request) bool {
	switch r.Method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		return r.ContentLength != 0
	default:
		return false
	}
}
