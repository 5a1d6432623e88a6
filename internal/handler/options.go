package handler

import (
	"net/http"

	"github.com/aryan0dhankhar/clientdesk/internal/domain"
	"github.com/aryan0dhankhar/clientdesk/internal/filter"
)

// OptionsResponse lists the choices offered by the client form and filters
type OptionsResponse struct {
	Statuses            []domain.Option `json:"statuses"`
	ServiceTypes        []domain.Option `json:"service_types"`
	DocumentTypes       []domain.Option `json:"document_types"`
	DefaultDocumentType string          `json:"default_document_type"`
	DefaultStatus       string          `json:"default_status"`
	AllFilter           string          `json:"all_filter"`
}

// Options handles GET /api/options
func Options(w http.ResponseWriter, r *http.Request) {
	statuses := make([]domain.Option, 0, len(domain.Statuses))
	for _, s := range domain.Statuses {
		statuses = append(statuses, domain.Option{Value: string(s), Label: s.Label()})
	}

	writeJSON(w, http.StatusOK, OptionsResponse{
		Statuses:            statuses,
		ServiceTypes:        domain.ServiceTypes,
		DocumentTypes:       domain.DocumentTypes,
		DefaultDocumentType: domain.DefaultDocumentType,
		DefaultStatus:       string(domain.StatusActive),
		AllFilter:           filter.All,
	})
}
