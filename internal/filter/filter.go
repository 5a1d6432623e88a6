// Package filter reduces a client list to the subset matching the dashboard criteria.
package filter

import (
	"strings"

	"github.com/aryan0dhankhar/clientdesk/internal/domain"
)

// All is the sentinel meaning "no restriction" for a categorical filter
const All = "all"

// Criteria holds the search term and the two categorical filters.
// The zero value matches every client.
type Criteria struct {
	Search  string `json:"search"`
	Status  string `json:"status"`
	Service string `json:"service"`
}

// Default returns criteria with both categorical filters set to All
func Default() Criteria {
	return Criteria{Status: All, Service: All}
}

// Active reports whether any dimension restricts the list
func (c Criteria) Active() bool {
	return c.Search != "" || restricts(c.Status) || restricts(c.Service)
}

// Apply returns the clients matching c, in input order. It never mutates records.
func Apply(records []domain.Client, c Criteria) []domain.Client {
	term := strings.ToLower(c.Search)
	out := make([]domain.Client, 0, len(records))
	for _, rec := range records {
		if term != "" && !matchesSearch(rec, term) {
			continue
		}
		if restricts(c.Status) && string(rec.Status) != c.Status {
			continue
		}
		if restricts(c.Service) && rec.ServiceType != c.Service {
			continue
		}
		out = append(out, rec)
	}
	return out
}

// matchesSearch lowercases full_name and email but compares document_number
// and phone as stored.
func matchesSearch(c domain.Client, term string) bool {
	if strings.Contains(strings.ToLower(c.FullName), term) {
		return true
	}
	if strings.Contains(c.DocumentNumber, term) {
		return true
	}
	if strings.Contains(c.Phone, term) {
		return true
	}
	return c.Email != nil && strings.Contains(strings.ToLower(*c.Email), term)
}

func restricts(v string) bool {
	return v != "" && v != All
}
