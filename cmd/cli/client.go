package main

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/aryan0dhankhar/clientdesk/internal/handler"
)

// apiClient talks to the clientdesk HTTP API with the saved token
type apiClient struct {
	baseURL string
	token   string
	http    *http.Client
}

func newAPIClient() *apiClient {
	return &apiClient{
		baseURL: getAPIURL(),
		token:   loadToken(),
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// apiError is a non-2xx answer decoded from the error envelope
type apiError struct {
	Status int
	handler.ErrorResponse
}

func (e *apiError) Error() string {
	if len(e.Violations) == 0 {
		return fmt.Sprintf("%s (status %d)", e.ErrorResponse.Error, e.Status)
	}
	parts := make([]string, 0, len(e.Violations))
	for field, code := range e.Violations {
		parts = append(parts, field+": "+code)
	}
	sort.Strings(parts)
	return fmt.Sprintf("%s: %s", e.ErrorResponse.Error, strings.Join(parts, ", "))
}

// do sends body as JSON and decodes a 2xx response into out when non-nil
func (c *apiClient) do(method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		apiErr := &apiError{Status: resp.StatusCode}
		if err := json.NewDecoder(resp.Body).Decode(&apiErr.ErrorResponse); err != nil || apiErr.ErrorResponse.Error == "" {
			apiErr.ErrorResponse.Error = http.StatusText(resp.StatusCode)
		}
		return apiErr
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func getAPIURL() string {
	if url := os.Getenv("CLIENTDESK_API"); url != "" {
		return strings.TrimRight(url, "/")
	}
	return "http://localhost:8080/api"
}

func tokenFile() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".clientdesk", "token")
}

func saveToken(token string) error {
	if err := os.MkdirAll(filepath.Dir(tokenFile()), 0o700); err != nil {
		return err
	}
	return os.WriteFile(tokenFile(), []byte(token), 0o600)
}

func loadToken() string {
	data, _ := os.ReadFile(tokenFile())
	return strings.TrimSpace(string(data))
}
