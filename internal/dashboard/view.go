package dashboard

import (
	"github.com/aryan0dhankhar/clientdesk/internal/domain"
	"github.com/aryan0dhankhar/clientdesk/internal/filter"
)

// View is an immutable snapshot of a dashboard
type View struct {
	Phase         string                 `json:"phase"`
	Mode          string                 `json:"mode"`
	Loading       bool                   `json:"loading"`
	Criteria      filter.Criteria        `json:"criteria"`
	FiltersActive bool                   `json:"filters_active"`
	Total         int                    `json:"total"`
	Clients       []domain.Client        `json:"clients"`
	Form          *domain.ClientFormData `json:"form,omitempty"`
	SelectedID    string                 `json:"selected_id,omitempty"`
	PendingDelete string                 `json:"pending_delete,omitempty"`

	// Err is the failure of the last operation, cleared by the next success
	Err error `json:"-"`
}

// View returns a snapshot safe to use after the dashboard changes
func (d *Dashboard) View() View {
	d.mu.Lock()
	defer d.mu.Unlock()

	v := View{
		Phase:         d.phase.String(),
		Mode:          d.mode.String(),
		Loading:       d.loading,
		Criteria:      d.criteria,
		FiltersActive: d.criteria.Active(),
		Total:         len(d.clients),
		Clients:       append([]domain.Client(nil), d.visible...),
		SelectedID:    d.selectedID,
		PendingDelete: d.pendingDelete,
		Err:           d.lastErr,
	}
	if v.Clients == nil {
		v.Clients = []domain.Client{}
	}
	if d.mode != ModeBrowsing {
		form := d.form
		v.Form = &form
	}
	return v
}

// EmptyMessage is the hint shown when no client is visible
func (v View) EmptyMessage() string {
	if len(v.Clients) > 0 {
		return ""
	}
	if v.FiltersActive {
		return "No clients match the current filters. Try adjusting them."
	}
	return "No clients yet. Add your first client to get started."
}
