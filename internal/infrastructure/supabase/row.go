package supabase

import (
	"fmt"
	"strings"
	"time"

	"github.com/aryan0dhankhar/clientdesk/internal/domain"
)

// timestamp accepts the timestamptz forms PostgREST emits and plain dates
type timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	time.DateOnly,
}

func (t *timestamp) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "null" || s == "" {
		return nil
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("unrecognised timestamp %q", s)
}

// row mirrors one clients record as returned by PostgREST
type row struct {
	ID               string     `json:"id"`
	FullName         string     `json:"full_name"`
	Email            *string    `json:"email"`
	Phone            string     `json:"phone"`
	DocumentType     string     `json:"document_type"`
	DocumentNumber   string     `json:"document_number"`
	Address          *string    `json:"address"`
	ServiceType      string     `json:"service_type"`
	Plan             *string    `json:"plan"`
	Status           string     `json:"status"`
	RegistrationDate timestamp  `json:"registration_date"`
	LastContact      *timestamp `json:"last_contact"`
	Notes            *string    `json:"notes"`
	CreatedBy        *string    `json:"created_by"`
	CreatedAt        timestamp  `json:"created_at"`
	UpdatedAt        timestamp  `json:"updated_at"`
}

func (r row) client() domain.Client {
	c := domain.Client{
		ID:               r.ID,
		FullName:         r.FullName,
		Email:            r.Email,
		Phone:            r.Phone,
		DocumentType:     r.DocumentType,
		DocumentNumber:   r.DocumentNumber,
		Address:          r.Address,
		ServiceType:      r.ServiceType,
		Plan:             r.Plan,
		Status:           domain.ClientStatus(r.Status),
		RegistrationDate: r.RegistrationDate.Time,
		CreatedBy:        r.CreatedBy,
		CreatedAt:        r.CreatedAt.Time,
		UpdatedAt:        r.UpdatedAt.Time,
	}
	if r.Notes != nil {
		c.Notes = *r.Notes
	}
	if r.LastContact != nil && !r.LastContact.IsZero() {
		t := r.LastContact.Time
		c.LastContact = &t
	}
	return c
}

func toClients(rows []row) []domain.Client {
	out := make([]domain.Client, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.client())
	}
	return out
}
