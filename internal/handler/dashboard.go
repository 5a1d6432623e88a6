package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/aryan0dhankhar/clientdesk/internal/dashboard"
	"github.com/aryan0dhankhar/clientdesk/internal/domain"
	"github.com/aryan0dhankhar/clientdesk/internal/filter"
	"github.com/aryan0dhankhar/clientdesk/internal/security/auth"
)

// Shown in place of backend failure details unless surfacing is enabled
const (
	msgLoadFailed   = "Could not load clients. Please try again."
	msgSaveFailed   = "Could not save the client. Please try again."
	msgDeleteFailed = "Could not delete the client. Please try again."
)

// DashboardHandler exposes one dashboard per signed-in session
type DashboardHandler struct {
	registry      *dashboard.Registry
	surfaceErrors bool
	logger        *slog.Logger
}

// NewDashboardHandler creates a dashboard handler. When surfaceErrors is
// false backend failures are reported with a generic message.
func NewDashboardHandler(registry *dashboard.Registry, surfaceErrors bool, logger *slog.Logger) *DashboardHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &DashboardHandler{registry: registry, surfaceErrors: surfaceErrors, logger: logger}
}

// ViewResponse is the dashboard snapshot sent to the browser
type ViewResponse struct {
	dashboard.View
	EmptyMessage string `json:"empty_message,omitempty"`
	LastError    string `json:"last_error,omitempty"`
}

// FiltersRequest sets all three filter dimensions
type FiltersRequest struct {
	Search  string `json:"search"`
	Status  string `json:"status"`
	Service string `json:"service"`
}

// ConfirmRequest resolves a pending delete
type ConfirmRequest struct {
	Confirm bool `json:"confirm"`
}

func (h *DashboardHandler) current(r *http.Request) *dashboard.Dashboard {
	session := auth.SessionFromContext(r.Context())
	return h.registry.Get(r.Context(), session.ID(), auth.ActorID(r.Context()))
}

func (h *DashboardHandler) respond(w http.ResponseWriter, d *dashboard.Dashboard) {
	v := d.View()
	resp := ViewResponse{View: v, EmptyMessage: v.EmptyMessage()}
	if v.Err != nil && domain.IsBackendError(v.Err) {
		resp.LastError = h.backendMessage(v.Err, msgLoadFailed)
	}
	writeJSON(w, http.StatusOK, resp)
}

// fail maps a dashboard error onto a status code
func (h *DashboardHandler) fail(w http.ResponseWriter, err error, generic string) {
	var ve *domain.ValidationError
	switch {
	case errors.As(err, &ve):
		writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{Error: "please fill in the required fields", Violations: ve.Violations})
	case domain.IsBackendError(err):
		writeError(w, http.StatusBadGateway, h.backendMessage(err, generic))
	case errors.Is(err, dashboard.ErrBusy),
		errors.Is(err, dashboard.ErrNotEditing),
		errors.Is(err, dashboard.ErrFormOpen),
		errors.Is(err, dashboard.ErrNoPendingDelete):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "client not found")
	default:
		h.logger.Error("unexpected dashboard error", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func (h *DashboardHandler) backendMessage(err error, generic string) string {
	if h.surfaceErrors {
		return err.Error()
	}
	return generic
}

// Get handles GET /api/dashboard
func (h *DashboardHandler) Get(w http.ResponseWriter, r *http.Request) {
	h.respond(w, h.current(r))
}

// Reload handles POST /api/dashboard/reload
func (h *DashboardHandler) Reload(w http.ResponseWriter, r *http.Request) {
	d := h.current(r)
	if err := d.Reload(r.Context()); err != nil && !domain.IsBackendError(err) {
		h.fail(w, err, msgLoadFailed)
		return
	}
	h.respond(w, d)
}

// SetFilters handles PUT /api/dashboard/filters
func (h *DashboardHandler) SetFilters(w http.ResponseWriter, r *http.Request) {
	req := FiltersRequest{Status: filter.All, Service: filter.All}
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	d := h.current(r)
	d.SetCriteria(filter.Criteria{Search: req.Search, Status: req.Status, Service: req.Service})
	h.respond(w, d)
}

// New handles POST /api/dashboard/new
func (h *DashboardHandler) New(w http.ResponseWriter, r *http.Request) {
	d := h.current(r)
	if err := d.NewClient(); err != nil {
		h.fail(w, err, "")
		return
	}
	h.respond(w, d)
}

// Edit handles POST /api/dashboard/clients/{id}/edit
func (h *DashboardHandler) Edit(w http.ResponseWriter, r *http.Request) {
	d := h.current(r)
	if err := d.Edit(chi.URLParam(r, "id")); err != nil {
		h.fail(w, err, "")
		return
	}
	h.respond(w, d)
}

// Cancel handles POST /api/dashboard/cancel
func (h *DashboardHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	d := h.current(r)
	if err := d.Cancel(); err != nil {
		h.fail(w, err, "")
		return
	}
	h.respond(w, d)
}

// Save handles POST /api/dashboard/save. The form stays open on failure.
func (h *DashboardHandler) Save(w http.ResponseWriter, r *http.Request) {
	var form domain.ClientFormData
	if err := decode(r, &form); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	d := h.current(r)
	if err := d.Save(r.Context(), form); err != nil {
		h.fail(w, err, msgSaveFailed)
		return
	}
	h.respond(w, d)
}

// RequestDelete handles POST /api/dashboard/clients/{id}/delete. The
// response carries pending_delete and the confirmation prompt.
func (h *DashboardHandler) RequestDelete(w http.ResponseWriter, r *http.Request) {
	d := h.current(r)
	if err := d.RequestDelete(chi.URLParam(r, "id")); err != nil {
		h.fail(w, err, "")
		return
	}
	writeJSON(w, http.StatusAccepted, struct {
		ViewResponse
		Prompt string `json:"prompt"`
	}{ViewResponse: ViewResponse{View: d.View()}, Prompt: dashboard.DeletePrompt})
}

// ConfirmDelete handles POST /api/dashboard/delete/confirm
func (h *DashboardHandler) ConfirmDelete(w http.ResponseWriter, r *http.Request) {
	var req ConfirmRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	d := h.current(r)
	if err := d.ConfirmDelete(r.Context(), req.Confirm); err != nil {
		h.fail(w, err, msgDeleteFailed)
		return
	}
	h.respond(w, d)
}
