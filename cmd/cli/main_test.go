package main

import (
	"bytes"
	"context"
	"flag"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aryan0dhankhar/clientdesk/internal/dashboard"
	"github.com/aryan0dhankhar/clientdesk/internal/domain"
	"github.com/aryan0dhankhar/clientdesk/internal/handler"
)

func TestPromptConfirmer(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"y\n", true},
		{"YES\n", true},
		{"n\n", false},
		{"\n", false},
		{"", false},
	}
	for _, tt := range tests {
		var out bytes.Buffer
		got := promptConfirmer(strings.NewReader(tt.input), &out).Confirm(context.Background(), dashboard.DeletePrompt)
		assert.Equal(t, tt.want, got, "input %q", tt.input)
		assert.Contains(t, out.String(), "[y/N]")
	}
}

func TestFormFlags_ApplyOnlyVisited(t *testing.T) {
	fs := flag.NewFlagSet("edit", flag.ContinueOnError)
	ff := registerFormFlags(fs)
	require.NoError(t, fs.Parse([]string{"-status", "Suspended", "-email", ""}))

	form := domain.ClientFormData{FullName: "Ana Ruiz", Email: "ana@x.pe", Status: "Active"}
	ff.apply(fs, &form)

	assert.Equal(t, "Ana Ruiz", form.FullName)
	assert.Equal(t, "Suspended", form.Status)
	assert.Empty(t, form.Email, "explicitly cleared")
}

// recordingAPI answers dashboard calls and remembers the confirm payload
func recordingAPI(t *testing.T, confirms *[]bool) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/dashboard/clients/c1/delete":
			w.WriteHeader(http.StatusAccepted)
			io.WriteString(w, `{"pending_delete":"c1"}`)
		case "/dashboard/clients/nope/delete":
			w.WriteHeader(http.StatusNotFound)
			io.WriteString(w, `{"error":"client not found"}`)
		case "/dashboard/delete/confirm":
			var req handler.ConfirmRequest
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			*confirms = append(*confirms, req.Confirm)
			io.WriteString(w, `{"clients":[]}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func TestDeleteClient(t *testing.T) {
	var confirms []bool
	srv := recordingAPI(t, &confirms)
	defer srv.Close()
	api := &apiClient{baseURL: srv.URL, token: "tok", http: srv.Client()}

	var out bytes.Buffer
	require.NoError(t, deleteClient(api, strings.NewReader("n\n"), &out, []string{"c1"}))
	assert.Contains(t, out.String(), "Cancelled")

	out.Reset()
	require.NoError(t, deleteClient(api, strings.NewReader(""), &out, []string{"c1", "-yes"}))
	assert.Contains(t, out.String(), "Deleted c1")
	assert.NotContains(t, out.String(), "[y/N]")

	assert.Equal(t, []bool{false, true}, confirms)

	err := deleteClient(api, strings.NewReader("y\n"), &out, []string{"nope"})
	var apiErr *apiError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
	assert.Len(t, confirms, 2, "no confirm for an unknown client")
}

func TestPrintClients(t *testing.T) {
	var out bytes.Buffer
	printClients(&out, handler.ViewResponse{EmptyMessage: "No clients yet."})
	assert.Equal(t, "No clients yet.\n", out.String())

	out.Reset()
	v := handler.ViewResponse{}
	v.Total = 2
	v.Clients = []domain.Client{{ID: "c1", FullName: "Ana Ruiz", Status: domain.StatusActive}}
	printClients(&out, v)
	assert.Contains(t, out.String(), "Ana Ruiz")
	assert.Contains(t, out.String(), "Activo")
	assert.Contains(t, out.String(), "1 of 2 clients")
}
