package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/aryan0dhankhar/clientdesk/internal/domain"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error      string            `json:"error"`
	Violations domain.Violations `json:"violations,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

// decode reads a JSON body into dst. An empty body leaves dst untouched.
func decode(r *http.Request, dst any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
