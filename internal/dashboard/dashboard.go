// Package dashboard holds the list/form state machine behind one operator's
// client dashboard.
package dashboard

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/aryan0dhankhar/clientdesk/internal/domain"
	"github.com/aryan0dhankhar/clientdesk/internal/filter"
)

var (
	// ErrBusy is returned when a mutation or reload is already in flight
	ErrBusy = errors.New("another operation is in progress")
	// ErrNotEditing is returned by Save and Cancel when no form is open
	ErrNotEditing = errors.New("no form is open")
	// ErrFormOpen is returned by New and Edit while a form is already open
	ErrFormOpen = errors.New("a form is already open")
	// ErrNoPendingDelete is returned by ConfirmDelete without a prior RequestDelete
	ErrNoPendingDelete = errors.New("no delete is awaiting confirmation")
)

// DeletePrompt is the question asked before a delete
const DeletePrompt = "Are you sure you want to delete this client?"

// Adapter is the data access the dashboard drives
type Adapter interface {
	ListAll(ctx context.Context) ([]domain.Client, error)
	Create(ctx context.Context, form domain.ClientFormData, actor *string) (*domain.Client, error)
	Update(ctx context.Context, id string, form domain.ClientFormData) error
	Delete(ctx context.Context, id string) error
}

// Confirmer asks the operator a blocking yes/no question
type Confirmer interface {
	Confirm(ctx context.Context, message string) bool
}

// ConfirmFunc adapts a function to Confirmer
type ConfirmFunc func(ctx context.Context, message string) bool

func (f ConfirmFunc) Confirm(ctx context.Context, message string) bool { return f(ctx, message) }

// Phase is the top-level lifecycle
type Phase int

const (
	PhaseLoading Phase = iota
	PhaseReady
)

func (p Phase) String() string {
	if p == PhaseReady {
		return "ready"
	}
	return "loading"
}

// Mode is what the operator is doing once Ready
type Mode int

const (
	ModeBrowsing Mode = iota
	ModeEditing
	ModeCreating
)

func (m Mode) String() string {
	switch m {
	case ModeEditing:
		return "editing"
	case ModeCreating:
		return "creating"
	default:
		return "browsing"
	}
}

// Dashboard is one operator's view over the clients collection. Its mutex
// is never held across adapter calls.
type Dashboard struct {
	adapter Adapter
	actor   *string
	logger  *slog.Logger

	mu            sync.Mutex
	phase         Phase
	mode          Mode
	loading       bool
	clients       []domain.Client
	visible       []domain.Client
	criteria      filter.Criteria
	form          domain.ClientFormData
	selectedID    string
	pendingDelete string
	lastErr       error
}

// New creates a dashboard in the Loading phase. actor is stamped as creator
// on new clients and may be nil.
func New(adapter Adapter, actor *string, logger *slog.Logger) *Dashboard {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dashboard{
		adapter:  adapter,
		actor:    actor,
		logger:   logger,
		criteria: filter.Default(),
		clients:  []domain.Client{},
		visible:  []domain.Client{},
	}
}

// Mount performs the initial load and moves to Ready whatever the outcome.
// Calling it again once Ready is a no-op.
func (d *Dashboard) Mount(ctx context.Context) error {
	d.mu.Lock()
	if d.phase == PhaseReady {
		d.mu.Unlock()
		return nil
	}
	if d.loading {
		d.mu.Unlock()
		return ErrBusy
	}
	d.loading = true
	d.mu.Unlock()

	err := d.load(ctx)

	d.mu.Lock()
	d.phase = PhaseReady
	d.loading = false
	d.mu.Unlock()
	return err
}

// Reload refetches the full list. On failure the previous list is kept.
// Like Mount, it leaves the dashboard Ready whatever the outcome.
func (d *Dashboard) Reload(ctx context.Context) error {
	if err := d.begin(); err != nil {
		return err
	}
	err := d.load(ctx)

	d.mu.Lock()
	d.phase = PhaseReady
	d.loading = false
	d.mu.Unlock()
	return err
}

// load fetches the list and swaps it in. The caller owns the loading flag.
func (d *Dashboard) load(ctx context.Context) error {
	list, err := d.adapter.ListAll(ctx)
	if err != nil {
		d.logger.Error("failed to load clients", slog.String("error", err.Error()))
		d.mu.Lock()
		d.lastErr = err
		d.mu.Unlock()
		return err
	}

	d.mu.Lock()
	d.clients = list
	d.visible = filter.Apply(d.clients, d.criteria)
	d.lastErr = nil
	d.mu.Unlock()
	return nil
}

// SetSearch updates the search term and recomputes the visible list
func (d *Dashboard) SetSearch(term string) {
	d.updateCriteria(func(c *filter.Criteria) { c.Search = term })
}

// SetStatusFilter restricts by status; filter.All clears it
func (d *Dashboard) SetStatusFilter(status string) {
	d.updateCriteria(func(c *filter.Criteria) { c.Status = status })
}

// SetServiceFilter restricts by service type; filter.All clears it
func (d *Dashboard) SetServiceFilter(service string) {
	d.updateCriteria(func(c *filter.Criteria) { c.Service = service })
}

// SetCriteria replaces all three filter dimensions at once
func (d *Dashboard) SetCriteria(c filter.Criteria) {
	d.updateCriteria(func(cur *filter.Criteria) { *cur = c })
}

func (d *Dashboard) updateCriteria(fn func(*filter.Criteria)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	fn(&d.criteria)
	d.visible = filter.Apply(d.clients, d.criteria)
}

// NewClient opens an empty form with defaults
func (d *Dashboard) NewClient() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.loading {
		return ErrBusy
	}
	if d.mode != ModeBrowsing {
		return ErrFormOpen
	}
	d.mode = ModeCreating
	d.form = domain.NewClientForm()
	d.selectedID = ""
	d.lastErr = nil
	return nil
}

// Edit opens the form pre-populated from the client with id
func (d *Dashboard) Edit(id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.loading {
		return ErrBusy
	}
	if d.mode != ModeBrowsing {
		return ErrFormOpen
	}
	c, ok := d.find(id)
	if !ok {
		return domain.ErrNotFound
	}
	d.mode = ModeEditing
	d.form = domain.FormFromClient(c)
	d.selectedID = id
	d.lastErr = nil
	return nil
}

// Cancel discards the open form without any backend call. It is refused
// while a save is in flight.
func (d *Dashboard) Cancel() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.mode == ModeBrowsing {
		return ErrNotEditing
	}
	if d.loading {
		return ErrBusy
	}
	d.closeForm()
	d.lastErr = nil
	return nil
}

// Save submits form. On success the list is reloaded and the form closes.
// On failure the form stays open with the submitted values, loading is
// reset, the list is untouched and the error is returned.
func (d *Dashboard) Save(ctx context.Context, form domain.ClientFormData) error {
	d.mu.Lock()
	if d.mode == ModeBrowsing {
		d.mu.Unlock()
		return ErrNotEditing
	}
	if d.loading {
		d.mu.Unlock()
		return ErrBusy
	}
	d.form = form
	if err := form.Validate(); err != nil {
		d.lastErr = err
		d.mu.Unlock()
		return err
	}
	mode, id := d.mode, d.selectedID
	d.loading = true
	d.mu.Unlock()

	var err error
	if mode == ModeCreating {
		_, err = d.adapter.Create(ctx, form, d.actor)
	} else {
		err = d.adapter.Update(ctx, id, form)
	}
	if err != nil {
		d.logger.Error("failed to save client",
			slog.String("mode", mode.String()),
			slog.String("client_id", id),
			slog.String("error", err.Error()),
		)
		d.mu.Lock()
		d.lastErr = err
		d.loading = false
		d.mu.Unlock()
		return err
	}

	// the save succeeded; a failed reload only leaves the list stale
	_ = d.load(ctx)

	d.mu.Lock()
	// only close the form this save was submitted from
	if d.mode == mode && d.selectedID == id {
		d.closeForm()
	}
	d.loading = false
	d.mu.Unlock()
	return nil
}

// RequestDelete marks id as awaiting confirmation
func (d *Dashboard) RequestDelete(id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.find(id); !ok {
		return domain.ErrNotFound
	}
	d.pendingDelete = id
	return nil
}

// ConfirmDelete resolves the pending delete. Declining makes no backend call.
// While busy the pending id is kept so the answer can be given again.
func (d *Dashboard) ConfirmDelete(ctx context.Context, yes bool) error {
	d.mu.Lock()
	id := d.pendingDelete
	if id == "" {
		d.mu.Unlock()
		return ErrNoPendingDelete
	}
	if d.loading {
		d.mu.Unlock()
		return ErrBusy
	}
	d.pendingDelete = ""
	if !yes {
		d.mu.Unlock()
		return nil
	}
	d.loading = true
	d.mu.Unlock()

	return d.removeLocked(ctx, id)
}

// Delete asks c to confirm, then deletes id and reloads. Declining makes no call.
func (d *Dashboard) Delete(ctx context.Context, id string, c Confirmer) error {
	if !c.Confirm(ctx, DeletePrompt) {
		return nil
	}
	return d.remove(ctx, id)
}

// remove deletes id then reloads. On failure the list is left as it was.
func (d *Dashboard) remove(ctx context.Context, id string) error {
	if err := d.begin(); err != nil {
		return err
	}
	return d.removeLocked(ctx, id)
}

// removeLocked runs the delete once the caller has set the loading flag
func (d *Dashboard) removeLocked(ctx context.Context, id string) error {
	if err := d.adapter.Delete(ctx, id); err != nil {
		d.logger.Error("failed to delete client",
			slog.String("client_id", id),
			slog.String("error", err.Error()),
		)
		d.mu.Lock()
		d.lastErr = err
		d.loading = false
		d.mu.Unlock()
		return err
	}

	_ = d.load(ctx)
	d.end()
	return nil
}

func (d *Dashboard) begin() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.loading {
		return ErrBusy
	}
	d.loading = true
	return nil
}

func (d *Dashboard) end() {
	d.mu.Lock()
	d.loading = false
	d.mu.Unlock()
}

// closeForm returns to Browsing. Caller holds mu.
func (d *Dashboard) closeForm() {
	d.mode = ModeBrowsing
	d.form = domain.ClientFormData{}
	d.selectedID = ""
}

// find looks id up in the loaded list. Caller holds mu.
func (d *Dashboard) find(id string) (domain.Client, bool) {
	for _, c := range d.clients {
		if c.ID == id {
			return c, true
		}
	}
	return domain.Client{}, false
}
