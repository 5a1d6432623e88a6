// Package supabase stores clients in a hosted Supabase project through its
// PostgREST endpoint.
package supabase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aryan0dhankhar/clientdesk/internal/domain"
	"github.com/aryan0dhankhar/clientdesk/internal/observability/metrics"
	"github.com/aryan0dhankhar/clientdesk/internal/reliability/circuitbreaker"
	"github.com/goccy/go-json"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const clientsPath = "/rest/v1/clients"

// APIError is a non-2xx answer from PostgREST
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details"`
	Hint    string `json:"hint"`
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("postgrest status %d", e.Status)
	}
	return fmt.Sprintf("postgrest status %d: %s", e.Status, e.Message)
}

// Options configures a Client
type Options struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
	Breaker    *circuitbreaker.CircuitBreaker
	Logger     *slog.Logger
}

// Client implements domain.ClientStore against the clients table
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	breaker *circuitbreaker.CircuitBreaker
	logger  *slog.Logger
	now     func() time.Time
}

// NewClient creates a PostgREST-backed client store
func NewClient(opts Options) (*Client, error) {
	if opts.BaseURL == "" || opts.APIKey == "" {
		return nil, errors.New("supabase url and key are required")
	}
	if _, err := url.Parse(opts.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid supabase url: %w", err)
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout:   10 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	breaker := opts.Breaker
	if breaker == nil {
		breaker = circuitbreaker.NewCircuitBreaker(5, 1, 30*time.Second)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	breaker.SetStateChangeCallback(func(from, to circuitbreaker.State) {
		logger.Warn("supabase circuit state changed",
			slog.String("from", from.String()),
			slog.String("to", to.String()),
		)
		metrics.SetBreakerState("supabase", int(to))
	})

	return &Client{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		apiKey:  opts.APIKey,
		http:    httpClient,
		breaker: breaker,
		logger:  logger,
		now:     time.Now,
	}, nil
}

// List returns all clients ordered by created_at descending
func (c *Client) List(ctx context.Context) ([]domain.Client, error) {
	var rows []row
	q := url.Values{"select": {"*"}, "order": {"created_at.desc"}}
	if err := c.do(ctx, http.MethodGet, q, nil, &rows); err != nil {
		return nil, fmt.Errorf("failed to list clients: %w", err)
	}
	return toClients(rows), nil
}

type insertBody struct {
	domain.ClientWrite
	CreatedBy *string `json:"created_by"`
}

// Insert creates a client and returns the stored representation
func (c *Client) Insert(ctx context.Context, w domain.ClientWrite, createdBy *string) (*domain.Client, error) {
	var rows []row
	if err := c.do(ctx, http.MethodPost, nil, insertBody{ClientWrite: w, CreatedBy: createdBy}, &rows); err != nil {
		return nil, fmt.Errorf("failed to insert client: %w", err)
	}
	if len(rows) == 0 {
		return nil, errors.New("failed to insert client: empty representation")
	}
	out := rows[0].client()
	return &out, nil
}

type updateBody struct {
	domain.ClientWrite
	UpdatedAt time.Time `json:"updated_at"`
}

// Update overwrites the editable fields and stamps updated_at
func (c *Client) Update(ctx context.Context, id string, w domain.ClientWrite) error {
	var rows []row
	q := url.Values{"id": {"eq." + id}}
	if err := c.do(ctx, http.MethodPatch, q, updateBody{ClientWrite: w, UpdatedAt: c.now().UTC()}, &rows); err != nil {
		return fmt.Errorf("failed to update client: %w", err)
	}
	if len(rows) == 0 {
		return fmt.Errorf("client %w", domain.ErrNotFound)
	}
	return nil
}

// Delete removes a client
func (c *Client) Delete(ctx context.Context, id string) error {
	var rows []row
	q := url.Values{"id": {"eq." + id}}
	if err := c.do(ctx, http.MethodDelete, q, nil, &rows); err != nil {
		return fmt.Errorf("failed to delete client: %w", err)
	}
	if len(rows) == 0 {
		return fmt.Errorf("client %w", domain.ErrNotFound)
	}
	return nil
}

// Ping issues a minimal select to check reachability and credentials
func (c *Client) Ping(ctx context.Context) error {
	var rows []row
	q := url.Values{"select": {"id"}, "limit": {"1"}}
	return c.do(ctx, http.MethodGet, q, nil, &rows)
}

// do sends one request. Transport failures and 5xx answers count against
// the breaker; 4xx answers are returned without tripping it.
func (c *Client) do(ctx context.Context, method string, query url.Values, body any, out any) error {
	endpoint := c.baseURL + clientsPath
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return fmt.Errorf("failed to encode body: %w", err)
		}
	}

	var clientErr error
	err := c.breaker.Execute(func() error {
		req, err := http.NewRequestWithContext(ctx, method, endpoint, bytes.NewReader(payload))
		if err != nil {
			return err
		}
		req.Header.Set("apikey", c.apiKey)
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
		req.Header.Set("Accept", "application/json")
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if method != http.MethodGet {
			req.Header.Set("Prefer", "return=representation")
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 300 {
			apiErr := decodeError(resp)
			c.logger.Warn("supabase request rejected",
				slog.String("method", method),
				slog.Int("status", resp.StatusCode),
				slog.String("error", apiErr.Error()),
			)
			if resp.StatusCode >= 500 {
				return apiErr
			}
			clientErr = apiErr
			return nil
		}

		if out == nil {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	return clientErr
}

func decodeError(resp *http.Response) *APIError {
	apiErr := &APIError{Status: resp.StatusCode}
	data, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil || len(data) == 0 {
		return apiErr
	}
	if err := json.Unmarshal(data, apiErr); err != nil {
		apiErr.Message = strings.TrimSpace(string(data))
	}
	return apiErr
}

var _ domain.ClientStore = (*Client)(nil)
