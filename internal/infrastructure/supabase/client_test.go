package supabase

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aryan0dhankhar/clientdesk/internal/domain"
	"github.com/aryan0dhankhar/clientdesk/internal/reliability/circuitbreaker"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const listBody = `[
  {"id":"b","full_name":"Beto Lopez","email":null,"phone":"912345678","document_type":"DNI",
   "document_number":"20AB9911","address":null,"service_type":"TV Cable","plan":null,"status":"Suspended",
   "registration_date":"2024-03-02T09:00:00+00:00","last_contact":"2024-03-15T00:00:00+00:00","notes":"",
   "created_by":"u1","created_at":"2024-03-02T09:00:00.123456+00:00","updated_at":"2024-03-02T09:00:00+00:00"},
  {"id":"a","full_name":"Ana Ruiz","email":"ana@example.com","phone":"987654321","document_type":"DNI",
   "document_number":"40123456","address":null,"service_type":"Móvil","plan":"Max","status":"Active",
   "registration_date":"2024-03-01","last_contact":null,"notes":null,
   "created_by":null,"created_at":"2024-03-01T09:00:00+00:00","updated_at":"2024-03-01T09:00:00+00:00"}
]`

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := NewClient(Options{BaseURL: srv.URL + "/", APIKey: "anon-key", HTTPClient: srv.Client()})
	require.NoError(t, err)
	return c
}

func TestList(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/rest/v1/clients", r.URL.Path)
		assert.Equal(t, "created_at.desc", r.URL.Query().Get("order"))
		assert.Equal(t, "*", r.URL.Query().Get("select"))
		assert.Equal(t, "anon-key", r.Header.Get("apikey"))
		assert.Equal(t, "Bearer anon-key", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, listBody)
	})

	list, err := c.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)

	assert.Equal(t, "b", list[0].ID)
	assert.Equal(t, domain.StatusSuspended, list[0].Status)
	require.NotNil(t, list[0].LastContact)
	assert.Equal(t, "2024-03-15", list[0].LastContact.Format(time.DateOnly))
	require.NotNil(t, list[0].CreatedBy)

	assert.Nil(t, list[1].LastContact)
	assert.Equal(t, "", list[1].Notes)
	assert.Equal(t, "2024-03-01", list[1].RegistrationDate.Format(time.DateOnly))
	require.NotNil(t, list[1].Email)
	assert.Equal(t, "ana@example.com", *list[1].Email)
}

func TestInsert_SendsPayloadAndActor(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "return=representation", r.Header.Get("Prefer"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Ana Ruiz", body["full_name"])
		assert.Nil(t, body["email"])
		assert.Nil(t, body["plan"])
		assert.Equal(t, "u1", body["created_by"])
		assert.Equal(t, "Active", body["status"])

		w.WriteHeader(http.StatusCreated)
		io.WriteString(w, `[{"id":"new","full_name":"Ana Ruiz","phone":"1","document_type":"DNI","document_number":"2",
			"service_type":"Móvil","status":"Active","registration_date":"2024-03-01T00:00:00Z",
			"created_by":"u1","created_at":"2024-03-01T00:00:00Z","updated_at":"2024-03-01T00:00:00Z","notes":""}]`)
	})

	actor := "u1"
	got, err := c.Insert(context.Background(), domain.ClientWrite{
		FullName: "Ana Ruiz", Phone: "1", DocumentType: "DNI", DocumentNumber: "2",
		ServiceType: domain.ServiceMobile, Status: domain.StatusActive,
	}, &actor)
	require.NoError(t, err)
	assert.Equal(t, "new", got.ID)
}

func TestUpdate_StampsUpdatedAtAndDetectsMissing(t *testing.T) {
	var returned atomic.Value
	returned.Store(`[{"id":"a"}]`)

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "eq.a", r.URL.Query().Get("id"))
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "2024-04-01T12:00:00Z", body["updated_at"])
		io.WriteString(w, returned.Load().(string))
	})
	c.now = func() time.Time { return time.Date(2024, 4, 1, 12, 0, 0, 0, time.UTC) }

	w := domain.ClientWrite{FullName: "Ana", Status: domain.StatusActive}
	require.NoError(t, c.Update(context.Background(), "a", w))

	returned.Store(`[]`)
	assert.ErrorIs(t, c.Update(context.Background(), "a", w), domain.ErrNotFound)
}

func TestDelete(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		if r.URL.Query().Get("id") == "eq.a" {
			io.WriteString(w, `[{"id":"a"}]`)
			return
		}
		io.WriteString(w, `[]`)
	})

	require.NoError(t, c.Delete(context.Background(), "a"))
	assert.ErrorIs(t, c.Delete(context.Background(), "zzz"), domain.ErrNotFound)
}

func TestRejectedRequestCarriesAPIError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, `{"code":"23514","message":"new row violates check constraint"}`)
	})

	_, err := c.Insert(context.Background(), domain.ClientWrite{Status: "Deleted"}, nil)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "23514", apiErr.Code)
	assert.Equal(t, circuitbreaker.StateClosed, c.breaker.GetState())
}

func TestServerErrorsTripBreaker(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)

	c, err := NewClient(Options{
		BaseURL:    srv.URL,
		APIKey:     "k",
		HTTPClient: srv.Client(),
		Breaker:    circuitbreaker.NewCircuitBreaker(2, 1, time.Hour),
	})
	require.NoError(t, err)

	ctx := context.Background()
	_, err = c.List(ctx)
	require.Error(t, err)
	_, err = c.List(ctx)
	require.Error(t, err)

	_, err = c.List(ctx)
	assert.ErrorIs(t, err, circuitbreaker.ErrOpen)
	assert.Equal(t, int32(2), calls.Load())
}

func TestNewClient_RequiresCredentials(t *testing.T) {
	_, err := NewClient(Options{BaseURL: "https://x.supabase.co"})
	assert.Error(t, err)
}
