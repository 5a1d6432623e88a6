package domain

import (
	"context"
	"strings"
	"time"
)

// ClientStatus is the lifecycle state of a client account
type ClientStatus string

const (
	StatusActive    ClientStatus = "Active"
	StatusInactive  ClientStatus = "Inactive"
	StatusSuspended ClientStatus = "Suspended"
)

// Statuses lists every valid status in display order
var Statuses = []ClientStatus{StatusActive, StatusInactive, StatusSuspended}

var statusLabels = map[ClientStatus]string{
	StatusActive:    "Activo",
	StatusInactive:  "Inactivo",
	StatusSuspended: "Suspendido",
}

// Label returns the user-facing label for the status
func (s ClientStatus) Label() string {
	if l, ok := statusLabels[s]; ok {
		return l
	}
	return string(s)
}

// Valid reports whether s is one of the known statuses
func (s ClientStatus) Valid() bool {
	_, ok := statusLabels[s]
	return ok
}

// Service types as stored in the clients table
const (
	ServiceMobile       = "Móvil"
	ServiceHomeInternet = "Internet Hogar"
	ServiceCableTV      = "TV Cable"
	ServiceDuoBundle    = "Paquete Duo"
	ServiceTrioBundle   = "Paquete Trio"
)

// Option is a stored value with its display label
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// ServiceTypes lists the offered services in display order
var ServiceTypes = []Option{
	{Value: ServiceMobile, Label: "Mobile"},
	{Value: ServiceHomeInternet, Label: "Home Internet"},
	{Value: ServiceCableTV, Label: "Cable TV"},
	{Value: ServiceDuoBundle, Label: "Duo Bundle"},
	{Value: ServiceTrioBundle, Label: "Trio Bundle"},
}

// DocumentTypes lists the accepted identity documents
var DocumentTypes = []Option{
	{Value: "DNI", Label: "DNI"},
	{Value: "CE", Label: "Carnet de Extranjería"},
	{Value: "Pasaporte", Label: "Pasaporte"},
	{Value: "RUC", Label: "RUC"},
}

// DefaultDocumentType is preselected on the "new client" form
const DefaultDocumentType = "DNI"

// Client is a customer record owned by the backend
type Client struct {
	ID               string       `json:"id"`
	FullName         string       `json:"full_name"`
	Email            *string      `json:"email"`
	Phone            string       `json:"phone"`
	DocumentType     string       `json:"document_type"`
	DocumentNumber   string       `json:"document_number"`
	Address          *string      `json:"address"`
	ServiceType      string       `json:"service_type"`
	Plan             *string      `json:"plan"`
	Status           ClientStatus `json:"status"`
	RegistrationDate time.Time    `json:"registration_date"`
	LastContact      *time.Time   `json:"last_contact"`
	Notes            string       `json:"notes"`
	CreatedBy        *string      `json:"created_by"`
	CreatedAt        time.Time    `json:"created_at"`
	UpdatedAt        time.Time    `json:"updated_at"`
}

// ClientFormData is the editable projection of a Client. Empty strings mean unset.
type ClientFormData struct {
	FullName       string `json:"full_name"`
	Email          string `json:"email"`
	Phone          string `json:"phone"`
	DocumentType   string `json:"document_type"`
	DocumentNumber string `json:"document_number"`
	Address        string `json:"address"`
	ServiceType    string `json:"service_type"`
	Plan           string `json:"plan"`
	Status         string `json:"status"`
	LastContact    string `json:"last_contact"`
	Notes          string `json:"notes"`
}

// ClientWrite is the payload a backend persists on insert or update
type ClientWrite struct {
	FullName       string       `json:"full_name"`
	Email          *string      `json:"email"`
	Phone          string       `json:"phone"`
	DocumentType   string       `json:"document_type"`
	DocumentNumber string       `json:"document_number"`
	Address        *string      `json:"address"`
	ServiceType    string       `json:"service_type"`
	Plan           *string      `json:"plan"`
	Status         ClientStatus `json:"status"`
	LastContact    *time.Time   `json:"last_contact"`
	Notes          string       `json:"notes"`
}

// ClientStore is the backend table contract for the clients collection
type ClientStore interface {
	// List returns every client, newest created_at first.
	List(ctx context.Context) ([]Client, error)
	// Insert persists a new client and returns it with server-assigned fields.
	Insert(ctx context.Context, w ClientWrite, createdBy *string) (*Client, error)
	// Update overwrites the editable fields. Returns ErrNotFound when no row matched.
	Update(ctx context.Context, id string, w ClientWrite) error
	// Delete removes the client. Returns ErrNotFound when no row matched.
	Delete(ctx context.Context, id string) error
	// Ping checks the backend is reachable.
	Ping(ctx context.Context) error
}

// NewClientForm returns the blank form used for "new client"
func NewClientForm() ClientFormData {
	return ClientFormData{
		DocumentType: DefaultDocumentType,
		Status:       string(StatusActive),
	}
}

// FormFromClient maps a stored client onto the edit form
func FormFromClient(c Client) ClientFormData {
	f := ClientFormData{
		FullName:       c.FullName,
		Email:          deref(c.Email),
		Phone:          c.Phone,
		DocumentType:   c.DocumentType,
		DocumentNumber: c.DocumentNumber,
		Address:        deref(c.Address),
		ServiceType:    c.ServiceType,
		Plan:           deref(c.Plan),
		Status:         string(c.Status),
		Notes:          c.Notes,
	}
	if c.LastContact != nil {
		f.LastContact = c.LastContact.Format(time.DateOnly)
	}
	return f
}

// Validate checks required fields and enumerations
func (f ClientFormData) Validate() error {
	v := Violations{}
	Required("full_name", f.FullName, v)
	Required("document_type", f.DocumentType, v)
	Required("document_number", f.DocumentNumber, v)
	Required("phone", f.Phone, v)
	Required("service_type", f.ServiceType, v)
	Required("status", f.Status, v)

	if _, ok := v["status"]; !ok && !ClientStatus(f.Status).Valid() {
		v["status"] = "invalid_choice"
	}
	if _, ok := v["service_type"]; !ok && !hasOption(ServiceTypes, f.ServiceType) {
		v["service_type"] = "invalid_choice"
	}
	if _, ok := v["document_type"]; !ok && !hasOption(DocumentTypes, f.DocumentType) {
		v["document_type"] = "invalid_choice"
	}
	if f.LastContact != "" {
		if _, err := time.Parse(time.DateOnly, f.LastContact); err != nil {
			v["last_contact"] = "invalid_date"
		}
	}

	if v.Empty() {
		return nil
	}
	return &ValidationError{Violations: v}
}

// ToWrite converts the form into a write payload, mapping blank optionals to null.
// The form must have passed Validate.
func (f ClientFormData) ToWrite() ClientWrite {
	w := ClientWrite{
		FullName:       f.FullName,
		Email:          nullable(f.Email),
		Phone:          f.Phone,
		DocumentType:   f.DocumentType,
		DocumentNumber: f.DocumentNumber,
		Address:        nullable(f.Address),
		ServiceType:    f.ServiceType,
		Plan:           nullable(f.Plan),
		Status:         ClientStatus(f.Status),
		Notes:          f.Notes,
	}
	if f.LastContact != "" {
		if t, err := time.Parse(time.DateOnly, f.LastContact); err == nil {
			w.LastContact = &t
		}
	}
	return w
}

func hasOption(opts []Option, value string) bool {
	for _, o := range opts {
		if o.Value == value {
			return true
		}
	}
	return false
}

func nullable(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
